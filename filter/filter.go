// Package filter implements the processing node of a media graph: a kernel
// wrapped with input/output ports, output pacing and control events.
package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Filter is a processing node.
//
// ProcessFrame, the connection methods and the slave methods are expected
// to be called by a single goroutine at a time (the owning worker, or the
// topology builder while that worker is paused). PushEvent, GetState and
// the statistics are safe for concurrent use.
type Filter struct {
	id       atomic.Int64
	workerID atomic.Int64
	enabled  atomic.Bool
	running  atomic.Bool

	role       Role
	kernel     fmt.Stringer
	process    processFunc
	config     Config
	maxReaders uint
	maxWriters uint

	readers map[PortID]*Reader
	writers map[PortID]*Writer

	eventLocker xsync.Mutex
	events      event.Queue
	handlers    event.Handlers

	frameTime               time.Duration
	frameTimeMod            float64
	bufferStateFrameTimeMod float64
	timestamp               time.Time
	wallClock               time.Time
	diffTime                time.Duration
	lastDiffTime            time.Duration

	slaves map[*Filter]struct{}
	master *Filter

	Statistics Statistics
}

func newFilter(
	role Role,
	kernel fmt.Stringer,
	process processFunc,
	maxReaders uint,
	maxWriters uint,
	opts []Option,
) *Filter {
	cfg := Options(opts).config()
	f := &Filter{
		role:                    role,
		kernel:                  kernel,
		process:                 process,
		config:                  cfg,
		maxReaders:              maxReaders,
		maxWriters:              maxWriters,
		readers:                 map[PortID]*Reader{},
		writers:                 map[PortID]*Writer{},
		frameTime:               cfg.FrameTime,
		frameTimeMod:            1,
		bufferStateFrameTimeMod: 1,
		slaves:                  map[*Filter]struct{}{},
	}
	f.workerID.Store(-1)
	f.enabled.Store(true)
	f.handlers = f.builtinEventHandlers()
	if p, ok := kernel.(EventHandlersProvider); ok {
		for action, handler := range p.EventHandlers() {
			f.handlers[action] = handler
		}
	}
	f.Statistics.FrameTime.Store(f.frameTime)
	f.Statistics.FrameTimeMod.Store(f.frameTimeMod)
	f.Statistics.BufferStateFrameTimeMod.Store(f.bufferStateFrameTimeMod)
	return f
}

func atLeastOne(n uint) uint {
	if n == 0 {
		return 1
	}
	return n
}

// NewHead creates a source filter with up to maxWriters outputs.
func NewHead(kernel HeadKernel, maxWriters uint, opts ...Option) *Filter {
	return newFilter(RoleHead, kernel, processHead(kernel), 0, atLeastOne(maxWriters), opts)
}

// NewTail creates a sink filter with up to maxReaders inputs.
func NewTail(kernel TailKernel, maxReaders uint, opts ...Option) *Filter {
	return newFilter(RoleTail, kernel, processTail(kernel), atLeastOne(maxReaders), 0, opts)
}

func NewOneToOne(kernel OneToOneKernel, opts ...Option) *Filter {
	return newFilter(RoleOneToOne, kernel, processOneToOne(kernel), 1, 1, opts)
}

func NewOneToMany(kernel OneToManyKernel, maxWriters uint, opts ...Option) *Filter {
	return newFilter(RoleOneToMany, kernel, processOneToMany(kernel), 1, atLeastOne(maxWriters), opts)
}

func NewManyToOne(kernel ManyToOneKernel, maxReaders uint, opts ...Option) *Filter {
	return newFilter(RoleManyToOne, kernel, processManyToOne(kernel), atLeastOne(maxReaders), 1, opts)
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter(%d:%s)", f.ID(), f.kernel)
}

func (f *Filter) ID() ID {
	return ID(f.id.Load())
}

// SetID is called by the topology builder when the filter is registered.
func (f *Filter) SetID(id ID) {
	f.id.Store(int64(id))
}

// GetObjectID identifies the filter within a worker.
func (f *Filter) GetObjectID() uint64 {
	return uint64(f.ID())
}

func (f *Filter) Role() Role {
	return f.role
}

func (f *Filter) Kernel() fmt.Stringer {
	return f.kernel
}

func (f *Filter) MaxReaders() uint {
	return f.maxReaders
}

func (f *Filter) MaxWriters() uint {
	return f.maxWriters
}

// WorkerID returns the id of the worker scheduling the filter, or -1.
func (f *Filter) WorkerID() int {
	return int(f.workerID.Load())
}

func (f *Filter) SetWorkerID(id int) {
	f.workerID.Store(int64(id))
}

func (f *Filter) IsEnabled() bool {
	return f.enabled.Load()
}

// IsRunning returns true while a cycle of the filter is in progress.
func (f *Filter) IsRunning() bool {
	return f.running.Load()
}

// Stop makes the filter not eligible for scheduling anymore.
func (f *Filter) Stop(ctx context.Context) {
	logger.Debugf(ctx, "Stop[%s]", f)
	f.enabled.Store(false)
}

// FrameTime returns the target period between output frames.
func (f *Filter) FrameTime() time.Duration {
	return f.Statistics.FrameTime.Load()
}

// SetFrameTime is to be called from the processing goroutine, otherwise
// use the "setFrameTime" event.
func (f *Filter) SetFrameTime(frameTime time.Duration) {
	f.frameTime = frameTime
	f.Statistics.FrameTime.Store(frameTime)
}

func (f *Filter) GetReader(id PortID) *Reader {
	return f.readers[id]
}

func (f *Filter) GetWriter(id PortID) *Writer {
	return f.writers[id]
}

// ReaderIDs returns the ids of the reader ports (in no particular order).
func (f *Filter) ReaderIDs() []PortID {
	ids := make([]PortID, 0, len(f.readers))
	for id := range f.readers {
		ids = append(ids, id)
	}
	return ids
}

func (f *Filter) WriterIDs() []PortID {
	ids := make([]PortID, 0, len(f.writers))
	for id := range f.writers {
		ids = append(ids, id)
	}
	return ids
}
