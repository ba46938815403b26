// Package pipeline builds and runs a graph of filters: it registers filters
// and workers, wires paths between filters and changes the topology
// while the graph runs.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/mediagraph/worker"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

// Manager owns the filters, the workers and the paths of a graph.
//
// Every topology change pauses the workers executing the affected filters,
// so no filter is changed in the middle of its cycle.
type Manager struct {
	locker     xsync.Mutex
	filters    map[filter.ID]*filter.Filter
	workers    map[int]*worker.Worker
	assignment map[filter.ID]int
	paths      map[PathID]*Path
}

func NewManager() *Manager {
	return &Manager{
		filters:    map[filter.ID]*filter.Filter{},
		workers:    map[int]*worker.Worker{},
		assignment: map[filter.ID]int{},
		paths:      map[PathID]*Path{},
	}
}

func (m *Manager) AddFilter(
	ctx context.Context,
	id filter.ID,
	f *filter.Filter,
) error {
	logger.Debugf(ctx, "AddFilter[%d]: %s", id, f)
	return xsync.DoR1(ctx, &m.locker, func() error {
		if _, ok := m.filters[id]; ok {
			return ErrFilterAlreadyExists{FilterID: id}
		}
		f.SetID(id)
		m.filters[id] = f
		return nil
	})
}

func (m *Manager) GetFilter(ctx context.Context, id filter.ID) *filter.Filter {
	return xsync.DoR1(ctx, &m.locker, func() *filter.Filter {
		return m.filters[id]
	})
}

// Filters returns the filters sorted by id.
func (m *Manager) Filters(ctx context.Context) []*filter.Filter {
	return xsync.DoR1(ctx, &m.locker, m.filtersLocked)
}

func (m *Manager) filtersLocked() []*filter.Filter {
	result := make([]*filter.Filter, 0, len(m.filters))
	for _, f := range m.filters {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID() < result[j].ID()
	})
	return result
}

// RemoveFilter unschedules and disconnects the filter and forgets it. A
// filter used by a path cannot be removed (remove the path instead).
func (m *Manager) RemoveFilter(ctx context.Context, id filter.ID) (_err error) {
	logger.Debugf(ctx, "RemoveFilter[%d]", id)
	defer func() { logger.Debugf(ctx, "/RemoveFilter[%d]: %v", id, _err) }()
	return xsync.DoA2R1(ctx, &m.locker, m.removeFilterLocked, ctx, id)
}

func (m *Manager) removeFilterLocked(ctx context.Context, id filter.ID) error {
	f, ok := m.filters[id]
	if !ok {
		return ErrFilterNotFound{FilterID: id}
	}
	for _, p := range m.paths {
		if p.uses(id) {
			return ErrFilterInUse{FilterID: id, PathID: p.ID}
		}
	}
	m.dropFilterLocked(ctx, f)
	return nil
}

func (m *Manager) dropFilterLocked(ctx context.Context, f *filter.Filter) {
	id := f.ID()
	if workerID, ok := m.assignment[id]; ok {
		m.workers[workerID].RemoveRunnable(ctx, f)
		delete(m.assignment, id)
		f.SetWorkerID(-1)
	}
	m.pauseLocked(ctx, []*filter.Filter{f}, func() {
		if master := f.Master(); master != nil {
			master.RemoveSlave(ctx, f)
		}
		for _, slave := range f.Slaves() {
			f.RemoveSlave(ctx, slave)
		}
		f.DisconnectAll(ctx)
	})
	f.Stop(ctx)
	delete(m.filters, id)
}

func (m *Manager) AddWorker(
	ctx context.Context,
	id int,
	w *worker.Worker,
) error {
	logger.Debugf(ctx, "AddWorker[%d]", id)
	return xsync.DoR1(ctx, &m.locker, func() error {
		if _, ok := m.workers[id]; ok {
			return ErrWorkerAlreadyExists{WorkerID: id}
		}
		m.workers[id] = w
		return nil
	})
}

func (m *Manager) GetWorker(ctx context.Context, id int) *worker.Worker {
	return xsync.DoR1(ctx, &m.locker, func() *worker.Worker {
		return m.workers[id]
	})
}

// Workers returns the workers sorted by id.
func (m *Manager) Workers(ctx context.Context) []*worker.Worker {
	return xsync.DoR1(ctx, &m.locker, func() []*worker.Worker {
		result := make([]*worker.Worker, 0, len(m.workers))
		for _, w := range m.workers {
			result = append(result, w)
		}
		sort.Slice(result, func(i, j int) bool {
			return result[i].ID < result[j].ID
		})
		return result
	})
}

// AssignFilter schedules the filter on the worker, starting immediately.
func (m *Manager) AssignFilter(
	ctx context.Context,
	workerID int,
	filterID filter.ID,
) (_err error) {
	logger.Debugf(ctx, "AssignFilter[%d]: %d", workerID, filterID)
	defer func() { logger.Debugf(ctx, "/AssignFilter[%d]: %d: %v", workerID, filterID, _err) }()
	return xsync.DoR1(ctx, &m.locker, func() error {
		w, ok := m.workers[workerID]
		if !ok {
			return ErrWorkerNotFound{WorkerID: workerID}
		}
		f, ok := m.filters[filterID]
		if !ok {
			return ErrFilterNotFound{FilterID: filterID}
		}
		if f.IsSlave() {
			return ErrSlaveNotSchedulable{FilterID: filterID}
		}
		if cur, ok := m.assignment[filterID]; ok {
			return ErrFilterAlreadyAssigned{FilterID: filterID, WorkerID: cur}
		}
		m.assignment[filterID] = workerID
		f.SetWorkerID(workerID)
		w.AddRunnable(ctx, f, time.Now())
		return nil
	})
}

// AddSlave makes the master run the slave; the slave must not be
// scheduled on a worker.
func (m *Manager) AddSlave(
	ctx context.Context,
	masterID filter.ID,
	slaveID filter.ID,
) error {
	logger.Debugf(ctx, "AddSlave[%d]: %d", masterID, slaveID)
	return xsync.DoR1(ctx, &m.locker, func() error {
		master, ok := m.filters[masterID]
		if !ok {
			return ErrFilterNotFound{FilterID: masterID}
		}
		slave, ok := m.filters[slaveID]
		if !ok {
			return ErrFilterNotFound{FilterID: slaveID}
		}
		if workerID, ok := m.assignment[slaveID]; ok {
			return ErrFilterAlreadyAssigned{FilterID: slaveID, WorkerID: workerID}
		}
		var err error
		m.pauseLocked(ctx, []*filter.Filter{master}, func() {
			err = master.AddSlave(ctx, slave)
			if err == nil {
				slave.SetWorkerID(master.WorkerID())
			}
		})
		return err
	})
}

// Connect connects two filters outside of any path.
func (m *Manager) Connect(
	ctx context.Context,
	fromID filter.ID,
	writerID filter.PortID,
	toID filter.ID,
	readerID filter.PortID,
	slave bool,
) error {
	return xsync.DoR1(ctx, &m.locker, func() error {
		from, ok := m.filters[fromID]
		if !ok {
			return ErrFilterNotFound{FilterID: fromID}
		}
		to, ok := m.filters[toID]
		if !ok {
			return ErrFilterNotFound{FilterID: toID}
		}
		var err error
		m.pauseLocked(ctx, []*filter.Filter{from, to}, func() {
			if writerID == GeneratePortID {
				writerID = from.GenerateWriterID()
			}
			if readerID == GeneratePortID {
				readerID = to.GenerateReaderID()
			}
			err = from.Connect(ctx, to, writerID, readerID, slave)
		})
		return err
	})
}

// CreatePath registers a path; the filters have to be registered already.
func (m *Manager) CreatePath(
	ctx context.Context,
	id PathID,
	originID filter.ID,
	destinationID filter.ID,
	originWriterID filter.PortID,
	destinationReaderID filter.PortID,
	midIDs []filter.ID,
) (*Path, error) {
	logger.Debugf(ctx, "CreatePath[%d]: %d -> %v -> %d", id, originID, midIDs, destinationID)
	return xsync.DoR2(ctx, &m.locker, func() (*Path, error) {
		if _, ok := m.paths[id]; ok {
			return nil, ErrPathAlreadyExists{PathID: id}
		}
		p := &Path{
			ID:                  id,
			OriginID:            originID,
			OriginWriterID:      originWriterID,
			DestinationID:       destinationID,
			DestinationReaderID: destinationReaderID,
			MidIDs:              append([]filter.ID(nil), midIDs...),
		}
		for _, fID := range p.FilterIDs() {
			if _, ok := m.filters[fID]; !ok {
				return nil, ErrFilterNotFound{FilterID: fID}
			}
		}
		m.paths[id] = p
		return p, nil
	})
}

func (m *Manager) GetPath(ctx context.Context, id PathID) *Path {
	return xsync.DoR1(ctx, &m.locker, func() *Path {
		return m.paths[id]
	})
}

// ConnectPath connects every hop of the path. If any hop fails, the hops
// connected so far are disconnected again.
func (m *Manager) ConnectPath(ctx context.Context, id PathID) (_err error) {
	logger.Debugf(ctx, "ConnectPath[%d]", id)
	defer func() { logger.Debugf(ctx, "/ConnectPath[%d]: %v", id, _err) }()
	return xsync.DoA2R1(ctx, &m.locker, m.connectPathLocked, ctx, id)
}

func (m *Manager) connectPathLocked(ctx context.Context, id PathID) error {
	p, ok := m.paths[id]
	if !ok {
		return ErrPathNotFound{PathID: id}
	}
	if p.IsConnected() {
		return ErrPathAlreadyConnected{PathID: id}
	}
	filters := m.pathFiltersLocked(p)

	var err error
	m.pauseLocked(ctx, filters, func() {
		var hops []Hop
		for i := 0; i+1 < len(filters); i++ {
			from, to := filters[i], filters[i+1]
			hop := Hop{
				From:     from.ID(),
				WriterID: p.OriginWriterID,
				To:       to.ID(),
				ReaderID: p.DestinationReaderID,
			}
			if i > 0 || hop.WriterID == GeneratePortID {
				hop.WriterID = from.GenerateWriterID()
			}
			if i+2 < len(filters) || hop.ReaderID == GeneratePortID {
				hop.ReaderID = to.GenerateReaderID()
			}
			if connErr := from.Connect(ctx, to, hop.WriterID, hop.ReaderID, false); connErr != nil {
				err = ErrConnectPath{PathID: id, Hop: hop, Err: connErr}
				m.disconnectHopsLocked(ctx, hops)
				return
			}
			hops = append(hops, hop)
		}
		p.Hops = hops
	})
	return err
}

func (m *Manager) pathFiltersLocked(p *Path) []*filter.Filter {
	ids := p.FilterIDs()
	result := make([]*filter.Filter, 0, len(ids))
	for _, fID := range ids {
		result = append(result, m.filters[fID])
	}
	return result
}

func (m *Manager) disconnectHopsLocked(ctx context.Context, hops []Hop) {
	for _, hop := range hops {
		if from, ok := m.filters[hop.From]; ok {
			from.DisconnectWriter(ctx, hop.WriterID)
		}
		if to, ok := m.filters[hop.To]; ok {
			to.DisconnectReader(ctx, hop.ReaderID)
		}
	}
}

// RemovePath disconnects the path and removes its intermediate filters.
func (m *Manager) RemovePath(ctx context.Context, id PathID) (_err error) {
	logger.Debugf(ctx, "RemovePath[%d]", id)
	defer func() { logger.Debugf(ctx, "/RemovePath[%d]: %v", id, _err) }()
	return xsync.DoR1(ctx, &m.locker, func() error {
		p, ok := m.paths[id]
		if !ok {
			return ErrPathNotFound{PathID: id}
		}
		m.pauseLocked(ctx, m.pathFiltersLocked(p), func() {
			m.disconnectHopsLocked(ctx, p.Hops)
		})
		p.Hops = nil
		delete(m.paths, id)
		for _, midID := range p.MidIDs {
			f, ok := m.filters[midID]
			if !ok {
				continue
			}
			m.dropFilterLocked(ctx, f)
		}
		return nil
	})
}

// Start starts every worker not started yet.
func (m *Manager) Start(ctx context.Context) error {
	logger.Debugf(ctx, "Start")
	return xsync.DoR1(ctx, &m.locker, func() error {
		var result []error
		for id, w := range m.workers {
			if w.State() != worker.StateCreated {
				continue
			}
			if err := w.Start(ctx); err != nil {
				result = append(result, ErrWorker{WorkerID: id, Err: err})
			}
		}
		return errors.Join(result...)
	})
}

// Close stops the workers and disconnects the filters. It proceeds even if
// ctx is already cancelled.
func (m *Manager) Close(ctx context.Context) error {
	ctx = xcontext.DetachDone(ctx)
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close") }()
	return xsync.DoR1(ctx, &m.locker, func() error {
		var result []error
		for id, w := range m.workers {
			if !w.IsRunning() {
				continue
			}
			if err := w.Stop(ctx); err != nil {
				errmon.ObserveErrorCtx(ctx, err)
				result = append(result, ErrWorker{WorkerID: id, Err: err})
			}
		}
		for _, f := range m.filters {
			f.DisconnectAll(ctx)
		}
		return errors.Join(result...)
	})
}

// GetState returns a JSON-like description of the whole graph.
func (m *Manager) GetState(ctx context.Context) event.Params {
	return xsync.DoR1(ctx, &m.locker, func() event.Params {
		filters := []any{}
		for _, f := range m.filtersLocked() {
			filters = append(filters, f.GetState(ctx))
		}
		workerIDs := make([]int, 0, len(m.workers))
		for id := range m.workers {
			workerIDs = append(workerIDs, id)
		}
		sort.Ints(workerIDs)
		workers := []any{}
		for _, id := range workerIDs {
			workers = append(workers, m.workers[id].GetState(ctx))
		}
		pathIDs := make([]int, 0, len(m.paths))
		for id := range m.paths {
			pathIDs = append(pathIDs, int(id))
		}
		sort.Ints(pathIDs)
		paths := []any{}
		for _, id := range pathIDs {
			p := m.paths[PathID(id)]
			mids := []any{}
			for _, midID := range p.MidIDs {
				mids = append(mids, int(midID))
			}
			paths = append(paths, event.Params{
				"id":            id,
				"originId":      int(p.OriginID),
				"destinationId": int(p.DestinationID),
				"filters":       mids,
				"connected":     p.IsConnected(),
			})
		}
		return event.Params{
			"filters": filters,
			"workers": workers,
			"paths":   paths,
		}
	})
}

// pauseLocked runs fn while the workers executing the filters are paused.
func (m *Manager) pauseLocked(
	ctx context.Context,
	filters []*filter.Filter,
	fn func(),
) {
	workerSet := map[int]struct{}{}
	for _, f := range filters {
		owner := f
		if master := f.Master(); master != nil {
			owner = master
		}
		if workerID, ok := m.assignment[owner.ID()]; ok {
			workerSet[workerID] = struct{}{}
		}
	}
	workerIDs := make([]int, 0, len(workerSet))
	for id := range workerSet {
		workerIDs = append(workerIDs, id)
	}
	sort.Ints(workerIDs)
	workers := make([]*worker.Worker, 0, len(workerIDs))
	for _, id := range workerIDs {
		workers = append(workers, m.workers[id])
	}
	pauseAll(ctx, workers, fn)
}

func pauseAll(ctx context.Context, workers []*worker.Worker, fn func()) {
	if len(workers) == 0 {
		fn()
		return
	}
	workers[0].Pause(ctx, func() {
		pauseAll(ctx, workers[1:], fn)
	})
}
