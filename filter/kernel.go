package filter

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/queue"
)

// HeadKernel produces frames out of nothing (a source).
type HeadKernel interface {
	fmt.Stringer
	DoProcessFrame(ctx context.Context, dst frame.Frames) bool
}

// TailKernel consumes frames (a sink).
type TailKernel interface {
	fmt.Stringer
	DoProcessFrame(ctx context.Context, org frame.Frames) bool
}

type OneToOneKernel interface {
	fmt.Stringer
	DoProcessFrame(ctx context.Context, org, dst *frame.Frame) bool
}

type OneToManyKernel interface {
	fmt.Stringer
	DoProcessFrame(ctx context.Context, org *frame.Frame, dst frame.Frames) bool
}

// ManyToOneKernel receives only the inputs that had a frame in this cycle.
type ManyToOneKernel interface {
	fmt.Stringer
	DoProcessFrame(ctx context.Context, org frame.Frames, dst *frame.Frame) bool
}

// QueueAllocator may be implemented by a kernel to control the queues
// allocated for its writers.
type QueueAllocator interface {
	AllocQueue(ctx context.Context, writerID PortID) *queue.Queue
}

// StateGetter may be implemented by a kernel to extend the state reported
// by the filter. It is called from outside of the processing goroutine.
type StateGetter interface {
	GetState(ctx context.Context) event.Params
}

// EventHandlersProvider may be implemented by a kernel to handle
// filter-specific actions. The handlers are executed by the processing
// goroutine between cycles.
type EventHandlersProvider interface {
	EventHandlers() event.Handlers
}

type processFunc func(ctx context.Context, org, dst frame.Frames) bool

func processHead(k HeadKernel) processFunc {
	return func(ctx context.Context, _, dst frame.Frames) bool {
		return k.DoProcessFrame(ctx, dst)
	}
}

func processTail(k TailKernel) processFunc {
	return func(ctx context.Context, org, _ frame.Frames) bool {
		return k.DoProcessFrame(ctx, org)
	}
}

func processOneToOne(k OneToOneKernel) processFunc {
	return func(ctx context.Context, org, dst frame.Frames) bool {
		return k.DoProcessFrame(ctx, org.Any(), dst.Any())
	}
}

func processOneToMany(k OneToManyKernel) processFunc {
	return func(ctx context.Context, org, dst frame.Frames) bool {
		return k.DoProcessFrame(ctx, org.Any(), dst)
	}
}

func processManyToOne(k ManyToOneKernel) processFunc {
	return func(ctx context.Context, org, dst frame.Frames) bool {
		return k.DoProcessFrame(ctx, org, dst.Any())
	}
}
