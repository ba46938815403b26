package filter

import (
	"context"
	"sync"

	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/observability"
)

// AddSlave makes the master run the cycle of the slave at every cycle of
// its own, before its own kernel.
func (f *Filter) AddSlave(ctx context.Context, slave *Filter) (_err error) {
	logger.Debugf(ctx, "AddSlave[%s]: %s", f, slave)
	defer func() { logger.Debugf(ctx, "/AddSlave[%s]: %s: %v", f, slave, _err) }()
	switch {
	case slave == nil:
		return ErrInvalidSlave{Reason: "nil"}
	case slave == f:
		return ErrInvalidSlave{Reason: "a filter cannot be a slave of itself"}
	case slave.master != nil:
		return ErrInvalidSlave{Reason: "the filter already has a master"}
	case len(slave.slaves) > 0:
		return ErrInvalidSlave{Reason: "the filter is a master itself"}
	case f.master != nil:
		return ErrInvalidSlave{Reason: "a slave cannot have slaves"}
	}
	if len(f.slaves) >= MaxSlaves {
		return ErrTooManySlaves{}
	}
	f.slaves[slave] = struct{}{}
	slave.master = f
	return nil
}

func (f *Filter) RemoveSlave(ctx context.Context, slave *Filter) bool {
	logger.Debugf(ctx, "RemoveSlave[%s]: %s", f, slave)
	if _, ok := f.slaves[slave]; !ok {
		return false
	}
	delete(f.slaves, slave)
	slave.master = nil
	return true
}

func (f *Filter) Slaves() []*Filter {
	result := make([]*Filter, 0, len(f.slaves))
	for s := range f.slaves {
		result = append(result, s)
	}
	return result
}

// Master returns the filter running this one, if any.
func (f *Filter) Master() *Filter {
	return f.master
}

func (f *Filter) IsSlave() bool {
	return f.master != nil
}

func (f *Filter) runSlaves(ctx context.Context) {
	if len(f.slaves) == 0 {
		return
	}
	var wg sync.WaitGroup
	for slave := range f.slaves {
		if !slave.IsEnabled() {
			continue
		}
		wg.Add(1)
		observability.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			slave.ProcessFrame(ctx)
		})
	}
	wg.Wait()
}
