package kernel

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/indicator"
	"github.com/xaionaro-go/mediagraph/logger"
	"go.uber.org/atomic"
)

const (
	ActionReset = "reset"

	intervalWindowSize = 16
)

// Counter is a sink which accounts the frames it consumes.
//
// A gap in the sequence numbers of an input is accounted as lost frames.
// FrameInterval is the smoothed distance between the presentation times
// of consecutive frames.
type Counter struct {
	Frames        atomic.Uint64
	Bytes         atomic.Uint64
	Lost          atomic.Uint64
	LastPTS       atomic.Time
	FrameInterval atomic.Duration
	lastSeqNum    map[filter.PortID]uint64
	interval      indicator.Smoother[int64]
}

var _ filter.TailKernel = (*Counter)(nil)
var _ filter.StateGetter = (*Counter)(nil)
var _ filter.EventHandlersProvider = (*Counter)(nil)

func NewCounter() *Counter {
	return &Counter{
		lastSeqNum: map[filter.PortID]uint64{},
		interval:   indicator.NewMAMADefault[int64](intervalWindowSize),
	}
}

func (c *Counter) String() string {
	return "Counter"
}

func (c *Counter) DoProcessFrame(
	ctx context.Context,
	org frame.Frames,
) bool {
	for id, f := range org {
		if last, ok := c.lastSeqNum[id]; ok && f.SequenceNumber > last+1 {
			lost := f.SequenceNumber - last - 1
			logger.Tracef(ctx, "%s: lost %d frames on input %d", c, lost, id)
			c.Lost.Add(lost)
		}
		c.lastSeqNum[id] = f.SequenceNumber
		c.Frames.Inc()
		c.Bytes.Add(uint64(len(f.Data)))
		if prev := c.LastPTS.Load(); !prev.IsZero() {
			if d := f.PresentationTime.Sub(prev); d > 0 {
				c.FrameInterval.Store(time.Duration(c.interval.Update(int64(d))))
			}
		}
		c.LastPTS.Store(f.PresentationTime)
	}
	return len(org) > 0
}

func (c *Counter) GetState(ctx context.Context) event.Params {
	state := event.Params{
		"frames": int(c.Frames.Load()),
		"bytes":  humanize.IBytes(c.Bytes.Load()),
		"lost":   int(c.Lost.Load()),
	}
	if pts := c.LastPTS.Load(); !pts.IsZero() {
		state["lastPTS"] = pts.Format(time.RFC3339Nano)
	}
	if d := c.FrameInterval.Load(); d > 0 {
		state["frameInterval"] = d.String()
	}
	return state
}

func (c *Counter) EventHandlers() event.Handlers {
	return event.Handlers{
		ActionReset: func(ctx context.Context, _ event.Params) (event.Params, error) {
			c.Frames.Store(0)
			c.Bytes.Store(0)
			c.Lost.Store(0)
			c.LastPTS.Store(time.Time{})
			c.FrameInterval.Store(0)
			c.interval.Reset()
			c.lastSeqNum = map[filter.PortID]uint64{}
			return event.Params{}, nil
		},
	}
}
