package queue

import (
	"context"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/xsync"
)

// Cursor is the read position of one reader within a Queue.
type Cursor struct {
	queue  *Queue
	next   uint64
	closed bool

	// front is the position of the frame returned by the last Front.
	front      uint64
	frontValid bool
}

func (c *Cursor) Queue() *Queue {
	return c.queue
}

// Front returns the oldest frame not yet removed by this cursor (nil if
// none) and the fill state observed by this cursor.
//
// The returned frame is owned by the queue and may be released as soon as
// the queue is unlocked; use FrontRef to keep it.
func (c *Cursor) Front(ctx context.Context) (*frame.Frame, State) {
	return c.peek(ctx, false)
}

// FrontRef is Front which also takes a reference on the returned frame
// before the queue is unlocked. The caller must Release it.
func (c *Cursor) FrontRef(ctx context.Context) (*frame.Frame, State) {
	return c.peek(ctx, true)
}

func (c *Cursor) peek(ctx context.Context, ref bool) (*frame.Frame, State) {
	q := c.queue
	ctx = xsync.WithNoLogging(ctx, true)
	q.locker.ManualLock(ctx)
	defer q.locker.ManualUnlock(ctx)
	if c.closed {
		return nil, StateEmpty
	}
	c.skipDroppedLocked()
	state := c.stateLocked()
	if c.next == q.tail {
		c.frontValid = false
		return nil, state
	}
	f := q.slots[c.next%q.capacity]
	if ref {
		f.Ref()
	}
	c.front, c.frontValid = c.next, true
	return f, state
}

// Remove marks the frame returned by the last Front as consumed by this
// cursor (or the current front, if Front was not called since the last
// Remove). It returns false if there is no such frame anymore, for example
// because the writer discarded it meanwhile.
func (c *Cursor) Remove(ctx context.Context) bool {
	q := c.queue
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() bool {
		if c.closed {
			return false
		}
		c.skipDroppedLocked()
		frontValid := c.frontValid
		c.frontValid = false
		if frontValid && c.next != c.front {
			return false
		}
		if c.next >= q.tail {
			return false
		}
		c.next++
		q.evictLocked(ctx)
		return true
	})
}

func (c *Cursor) State(ctx context.Context) State {
	q := c.queue
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() State {
		if c.closed {
			return StateEmpty
		}
		c.skipDroppedLocked()
		return c.stateLocked()
	})
}

func (c *Cursor) IsClosed(ctx context.Context) bool {
	q := c.queue
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &q.locker, func() bool {
		return c.closed
	})
}

// Disconnect unregisters the cursor; frames only it was holding back are
// evicted.
func (c *Cursor) Disconnect(ctx context.Context) bool {
	q := c.queue
	return xsync.DoR1(ctx, &q.locker, func() bool {
		if c.closed {
			return false
		}
		c.closed = true
		delete(q.cursors, c)
		q.evictLocked(ctx)
		q.flushIfOrphanLocked(ctx)
		return true
	})
}

func (c *Cursor) skipDroppedLocked() {
	if c.next < c.queue.head {
		c.next = c.queue.head
	}
}

func (c *Cursor) stateLocked() State {
	return stateOf(c.queue.tail-c.next, c.queue.capacity)
}
