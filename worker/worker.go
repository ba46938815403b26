// Package worker implements the goroutine executing the cycles of one or
// several Runnables, each at the time it asked for.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asticode/go-astikit"
	"github.com/go-ng/container/heap"
	"github.com/go-ng/xatomic"
	"github.com/looplab/fsm"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

type Statistics struct {
	Cycles  atomic.Uint64
	Dropped atomic.Uint64
}

// Worker executes its Runnables in the order of their scheduled time,
// sleeping when none is due.
type Worker struct {
	ID     int
	config Config

	locker     xsync.Mutex
	schedule   schedule
	scheduled  map[Runnable]*scheduled
	nextSeq    uint64
	changeChan *chan struct{}

	cycleLocker xsync.Mutex
	state       *fsm.FSM

	closeOnce sync.Once
	closer    *astikit.Closer

	Statistics Statistics
}

func New(
	id int,
	opts ...Option,
) *Worker {
	w := &Worker{
		ID:         id,
		config:     Options(opts).config(),
		scheduled:  map[Runnable]*scheduled{},
		changeChan: ptr(make(chan struct{})),
		closer:     astikit.NewCloser(),
	}
	w.state = newStateMachine(w)
	return w
}

func ptr[T any](in T) *T {
	return &in
}

func (w *Worker) String() string {
	return fmt.Sprintf("Worker(%d)", w.ID)
}

func (w *Worker) notifyChange() {
	close(*xatomic.SwapPointer(&w.changeChan, ptr(make(chan struct{}))))
}

func (w *Worker) getChangeChan() <-chan struct{} {
	return *xatomic.LoadPointer(&w.changeChan)
}

func (w *Worker) onStateChange(ctx context.Context, from, to State) {
	logger.Debugf(ctx, "%s: %s -> %s", w, from, to)
	w.notifyChange()
}

// AddRunnable schedules the Runnable for its first execution at startAt.
// It returns false if the Runnable is already hosted by the worker.
func (w *Worker) AddRunnable(
	ctx context.Context,
	r Runnable,
	startAt time.Time,
) bool {
	logger.Debugf(ctx, "AddRunnable[%s]: %s at %s", w, r, startAt)
	added := xsync.DoR1(ctx, &w.locker, func() bool {
		if _, ok := w.scheduled[r]; ok {
			return false
		}
		item := &scheduled{
			Runnable: r,
			At:       startAt,
			seq:      w.nextSeq,
		}
		w.nextSeq++
		w.scheduled[r] = item
		heap.Push(&w.schedule, item)
		return true
	})
	if added {
		w.notifyChange()
	}
	return added
}

// RemoveRunnable waits for the current cycle (if any) to finish and removes
// the Runnable from the schedule. It must not be called from a cycle of the
// same worker.
func (w *Worker) RemoveRunnable(
	ctx context.Context,
	r Runnable,
) bool {
	logger.Debugf(ctx, "RemoveRunnable[%s]: %s", w, r)
	var removed bool
	w.cycleLocker.Do(ctx, func() {
		removed = xsync.DoR1(ctx, &w.locker, func() bool {
			return w.unscheduleLocked(r)
		})
	})
	if removed {
		w.notifyChange()
	}
	return removed
}

func (w *Worker) unscheduleLocked(r Runnable) bool {
	item, ok := w.scheduled[r]
	if !ok {
		return false
	}
	item.removed = true
	delete(w.scheduled, r)
	return true
}

func (w *Worker) Runnables(ctx context.Context) []Runnable {
	return xsync.DoR1(ctx, &w.locker, func() []Runnable {
		result := make([]Runnable, 0, len(w.scheduled))
		for r := range w.scheduled {
			result = append(result, r)
		}
		return result
	})
}

func (w *Worker) RunnablesCount(ctx context.Context) int {
	return xsync.DoR1(ctx, &w.locker, func() int {
		return len(w.scheduled)
	})
}

// Pause executes fn while no cycle is in progress; the worker does not
// start new cycles until fn returns. It must not be called from a cycle of
// the same worker.
func (w *Worker) Pause(ctx context.Context, fn func()) {
	w.cycleLocker.Do(ctx, fn)
}

func (w *Worker) GetState(ctx context.Context) event.Params {
	runnables := w.Runnables(ctx)
	ids := make([]any, 0, len(runnables))
	for _, r := range runnables {
		ids = append(ids, int(r.GetObjectID()))
	}
	return event.Params{
		"id":        w.ID,
		"state":     w.state.Current(),
		"runnables": ids,
		"cycles":    int(w.Statistics.Cycles.Load()),
	}
}

func (w *Worker) State() State {
	return State(w.state.Current())
}

// IsRunning returns true if the worker goroutine is started and not stopped.
func (w *Worker) IsRunning() bool {
	switch w.State() {
	case StateEnabled, StateDisabled:
		return true
	default:
		return false
	}
}

func (w *Worker) IsEnabled() bool {
	return w.state.Is(StateEnabled.String())
}

func (w *Worker) fireEvent(ctx context.Context, name string) error {
	if !w.state.Can(name) {
		return ErrInvalidState{Event: name, State: w.State()}
	}
	return w.state.Event(ctx, name)
}

func (w *Worker) Enable(ctx context.Context) error {
	return w.fireEvent(ctx, eventEnable)
}

// Disable makes the worker stop executing cycles (the current one is
// finished) until Enable is called.
func (w *Worker) Disable(ctx context.Context) error {
	return w.fireEvent(ctx, eventDisable)
}

// Start launches the worker goroutine. The goroutine lives until Stop,
// even if ctx is cancelled earlier.
func (w *Worker) Start(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Start[%s]", w)
	defer func() { logger.Debugf(ctx, "/Start[%s]: %v", w, _err) }()
	if err := w.fireEvent(ctx, eventStart); err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(xcontext.DetachDone(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	observability.Go(ctx, func(ctx context.Context) {
		defer wg.Done()
		w.loop(ctx)
	})
	w.closer.Add(func() {
		cancelFn()
		wg.Wait()
	})
	return nil
}

// Stop disables scheduling, waits for the worker goroutine to exit and
// stops every hosted Runnable.
func (w *Worker) Stop(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Stop[%s]", w)
	defer func() { logger.Debugf(ctx, "/Stop[%s]: %v", w, _err) }()
	if err := w.fireEvent(ctx, eventStop); err != nil {
		return err
	}
	w.closeOnce.Do(func() {
		_err = w.closer.Close()
	})
	for _, r := range w.Runnables(ctx) {
		r.Stop(ctx)
	}
	return
}

func (w *Worker) loop(ctx context.Context) {
	logger.Debugf(ctx, "loop[%s]", w)
	defer func() { logger.Debugf(ctx, "/loop[%s]", w) }()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		changeCh := w.getChangeChan()

		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := w.iterate(ctx)
		if wait <= 0 {
			continue
		}
		if wait > w.config.IdleQuantum {
			wait = w.config.IdleQuantum
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-changeCh:
		case <-timer.C:
		}
		timer.Stop()
	}
}

// iterate executes the earliest Runnable if it is due and returns how long
// the worker may sleep before the next iteration.
func (w *Worker) iterate(ctx context.Context) time.Duration {
	if !w.IsEnabled() {
		return w.config.IdleQuantum
	}
	return xsync.DoA1R1(xsync.WithNoLogging(ctx, true), &w.cycleLocker, w.iterateLocked, ctx)
}

func (w *Worker) iterateLocked(ctx context.Context) time.Duration {
	item, wait := w.popDue(ctx)
	if item == nil {
		return wait
	}
	r := item.Runnable
	if !r.IsEnabled() {
		logger.Debugf(ctx, "%s: %s is not enabled anymore, dropping it", w, r)
		w.Statistics.Dropped.Inc()
		w.locker.Do(ctx, func() {
			w.unscheduleLocked(r)
		})
		return 0
	}

	delay := r.ProcessFrame(ctx)
	w.Statistics.Cycles.Inc()

	next := w.config.Clock.Now().Add(delay)
	w.locker.Do(xsync.WithNoLogging(ctx, true), func() {
		if item.removed {
			return
		}
		item.At = next
		item.seq = w.nextSeq
		w.nextSeq++
		heap.Push(&w.schedule, item)
	})
	return 0
}

func (w *Worker) popDue(ctx context.Context) (*scheduled, time.Duration) {
	ctx = xsync.WithNoLogging(ctx, true)
	w.locker.ManualLock(ctx)
	defer w.locker.ManualUnlock(ctx)
	for len(w.schedule) > 0 && w.schedule[0].removed {
		heap.Pop(&w.schedule)
	}
	if len(w.schedule) == 0 {
		return nil, w.config.IdleQuantum
	}
	if wait := w.schedule[0].At.Sub(w.config.Clock.Now()); wait > 0 {
		return nil, wait
	}
	return heap.Pop(&w.schedule), 0
}
