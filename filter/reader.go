package filter

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/queue"
)

// Reader is a filter's input port bound to a queue.
//
// It is used only by the filter owning it.
type Reader struct {
	queue     *queue.Queue
	cursor    *queue.Cursor
	shared    bool
	lastFrame *frame.Frame
}

func newReader(q *queue.Queue, shared bool) *Reader {
	return &Reader{
		queue:  q,
		shared: shared,
	}
}

func (r *Reader) String() string {
	return fmt.Sprintf("Reader(%s, shared:%t)", r.queue, r.shared)
}

func (r *Reader) Queue() *queue.Queue {
	return r.queue
}

// IsShared returns true if the reader reads a queue whose other readers
// belong to slaves of the same master.
func (r *Reader) IsShared() bool {
	return r.shared
}

func (r *Reader) connect(ctx context.Context) bool {
	if r.queue == nil || r.cursor != nil {
		return false
	}
	r.cursor = r.queue.ConnectReader(ctx)
	return true
}

func (r *Reader) IsConnected(ctx context.Context) bool {
	if r.queue == nil || r.cursor == nil {
		return false
	}
	return !r.cursor.IsClosed(ctx) && r.queue.IsWriterConnected(ctx)
}

// Disconnect detaches the reader from its queue. It returns false if the
// reader was already detached.
func (r *Reader) Disconnect(ctx context.Context) bool {
	if r.queue == nil {
		return false
	}
	if r.cursor != nil {
		r.cursor.Disconnect(ctx)
		r.cursor = nil
	}
	if r.lastFrame != nil {
		r.lastFrame.Release()
		r.lastFrame = nil
	}
	r.queue = nil
	return true
}

// GetFrame returns the frame to consume in this cycle and whether it was
// not seen before.
//
// With force set and nothing new in the queue, the last frame returned is
// returned again (as not new).
func (r *Reader) GetFrame(
	ctx context.Context,
	force bool,
) (*frame.Frame, bool, queue.State) {
	if r.cursor == nil {
		return nil, false, queue.StateUndefined
	}
	f, state := r.cursor.FrontRef(ctx)
	if f != nil {
		if f == r.lastFrame {
			f.Release()
		} else {
			if r.lastFrame != nil {
				r.lastFrame.Release()
			}
			r.lastFrame = f
		}
		return f, true, state
	}
	if force && r.lastFrame != nil {
		return r.lastFrame, false, state
	}
	return nil, false, state
}

// RemoveFrame consumes the frame returned by the last GetFrame.
func (r *Reader) RemoveFrame(ctx context.Context) bool {
	if r.cursor == nil {
		return false
	}
	return r.cursor.Remove(ctx)
}
