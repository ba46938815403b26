package filter

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/queue"
)

// Writer is a filter's output port bound to a queue.
//
// It is used only by the filter owning it.
type Writer struct {
	queue *queue.Queue
}

func newWriter() *Writer {
	return &Writer{}
}

func (w *Writer) String() string {
	return fmt.Sprintf("Writer(%s)", w.queue)
}

func (w *Writer) Queue() *queue.Queue {
	return w.queue
}

func (w *Writer) setQueue(ctx context.Context, q *queue.Queue) {
	if w.queue != nil && w.queue != q {
		w.queue.DisconnectWriter(ctx)
	}
	w.queue = q
}

// Connect binds the reader to the writer's queue. The reader must have
// been created over the same queue.
func (w *Writer) Connect(ctx context.Context, r *Reader) bool {
	if w.queue == nil || r.queue != w.queue {
		return false
	}
	if !w.queue.IsWriterConnected(ctx) {
		w.queue.ConnectWriter(ctx)
	}
	return r.connect(ctx)
}

// IsConnected returns true if the writer has at least one reader to feed.
func (w *Writer) IsConnected(ctx context.Context) bool {
	if w.queue == nil {
		return false
	}
	return w.queue.IsWriterConnected(ctx) && w.queue.ReadersCount(ctx) > 0
}

func (w *Writer) Disconnect(ctx context.Context) bool {
	if w.queue == nil {
		return false
	}
	w.queue.DisconnectWriter(ctx)
	w.queue = nil
	return true
}

// GetFrame returns the slot to fill in this cycle, or nil if the queue is
// full and force is not set.
func (w *Writer) GetFrame(ctx context.Context, force bool) *frame.Frame {
	if w.queue == nil {
		return nil
	}
	return w.queue.GetRear(ctx, force)
}

// AddFrame commits the slot returned by GetFrame.
func (w *Writer) AddFrame(ctx context.Context) bool {
	if w.queue == nil {
		return false
	}
	return w.queue.AddFrame(ctx)
}
