// Package queue implements the bounded frame queue connecting a writer of
// one filter with the reader(s) of other filters.
package queue

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/internal"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/xsync"
)

const DefaultCapacity = 8

// Queue is a ring of committed frames plus one pending rear slot.
//
// It has exactly one writer. Readers consume it through Cursors: an owned
// queue has a single cursor, a shared (slave) queue has several, each
// advancing at its own pace. A committed frame is evicted once every cursor
// has moved past it.
//
// All methods are safe for concurrent use.
type Queue struct {
	locker          xsync.Mutex
	capacity        uint64
	slots           []*frame.Frame
	head            uint64
	tail            uint64
	rear            *frame.Frame
	cursors         map[*Cursor]struct{}
	writerConnected bool
	pool            *frame.Pool
	droppedCount    uint64
}

func New(
	capacity uint,
	opts ...Option,
) *Queue {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	cfg := Options(opts).config()
	return &Queue{
		capacity: uint64(capacity),
		slots:    make([]*frame.Frame, capacity),
		cursors:  map[*Cursor]struct{}{},
		pool:     cfg.Pool,
	}
}

func (q *Queue) String() string {
	return fmt.Sprintf("Queue(%p)", q)
}

func (q *Queue) Capacity() uint {
	return uint(q.capacity)
}

// GetRear returns the writable slot the writer fills before AddFrame.
// When the queue is full it returns nil, unless force is set, in which case
// the oldest committed frame is discarded to make room.
func (q *Queue) GetRear(
	ctx context.Context,
	force bool,
) *frame.Frame {
	return xsync.DoA2R1(xsync.WithNoLogging(ctx, true), &q.locker, q.getRearLocked, ctx, force)
}

func (q *Queue) getRearLocked(
	ctx context.Context,
	force bool,
) *frame.Frame {
	if q.rear != nil {
		return q.rear
	}
	if q.isFullLocked() {
		if !force {
			return nil
		}
		logger.Debugf(ctx, "%s is full, discarding the oldest frame", q)
		q.dropOldestLocked()
	}
	q.rear = q.pool.Get()
	return q.rear
}

// AddFrame commits the rear slot, making it visible to every cursor.
func (q *Queue) AddFrame(ctx context.Context) bool {
	return xsync.DoA1R1(xsync.WithNoLogging(ctx, true), &q.locker, q.addFrameLocked, ctx)
}

func (q *Queue) addFrameLocked(ctx context.Context) bool {
	if q.rear == nil {
		return false
	}
	if q.isFullLocked() {
		q.dropOldestLocked()
	}
	q.slots[q.tail%q.capacity] = q.rear
	q.rear = nil
	q.tail++
	if len(q.cursors) == 0 {
		q.evictLocked(ctx)
	}
	return true
}

// DroppedCount returns how many committed frames were discarded by forced
// rear allocations.
func (q *Queue) DroppedCount(ctx context.Context) uint64 {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() uint64 {
		return q.droppedCount
	})
}

func (q *Queue) ConnectWriter(ctx context.Context) bool {
	return xsync.DoR1(ctx, &q.locker, func() bool {
		if q.writerConnected {
			return false
		}
		q.writerConnected = true
		return true
	})
}

func (q *Queue) DisconnectWriter(ctx context.Context) bool {
	return xsync.DoR1(ctx, &q.locker, func() bool {
		if !q.writerConnected {
			return false
		}
		q.writerConnected = false
		if q.rear != nil {
			q.rear.Release()
			q.rear = nil
		}
		q.flushIfOrphanLocked(ctx)
		return true
	})
}

func (q *Queue) IsWriterConnected(ctx context.Context) bool {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() bool {
		return q.writerConnected
	})
}

// ConnectReader registers a new cursor. The cursor observes only frames
// committed after it was created.
func (q *Queue) ConnectReader(ctx context.Context) *Cursor {
	return xsync.DoR1(ctx, &q.locker, func() *Cursor {
		c := &Cursor{
			queue: q,
			next:  q.tail,
		}
		q.cursors[c] = struct{}{}
		return c
	})
}

func (q *Queue) ReadersCount(ctx context.Context) int {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() int {
		return len(q.cursors)
	})
}

// Len returns the amount of committed frames still retained.
func (q *Queue) Len(ctx context.Context) uint {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() uint {
		return uint(q.tail - q.head)
	})
}

func (q *Queue) isFullLocked() bool {
	return q.tail-q.head >= q.capacity
}

func (q *Queue) dropOldestLocked() {
	q.releaseSlotLocked(q.head)
	q.head++
	q.droppedCount++
	for c := range q.cursors {
		if c.next < q.head {
			c.next = q.head
		}
	}
}

func (q *Queue) releaseSlotLocked(seq uint64) {
	idx := seq % q.capacity
	f := q.slots[idx]
	q.slots[idx] = nil
	if f != nil {
		f.Release()
	}
}

// evictLocked releases every frame all cursors have already passed.
func (q *Queue) evictLocked(ctx context.Context) {
	minNext := q.tail
	for c := range q.cursors {
		if c.next < minNext {
			minNext = c.next
		}
	}
	for q.head < minNext {
		q.releaseSlotLocked(q.head)
		q.head++
	}
	internal.Assert(ctx, q.tail-q.head <= q.capacity, q.head, q.tail, q.capacity)
}

func (q *Queue) flushIfOrphanLocked(ctx context.Context) {
	if q.writerConnected || len(q.cursors) > 0 {
		return
	}
	logger.Tracef(ctx, "%s has no endpoints left, flushing", q)
	q.evictLocked(ctx)
}
