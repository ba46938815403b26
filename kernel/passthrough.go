package kernel

import (
	"context"

	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
	"go.uber.org/atomic"
)

// Passthrough copies every input frame to its output as is.
type Passthrough struct {
	passed atomic.Uint64
}

var _ filter.OneToOneKernel = (*Passthrough)(nil)

func (p *Passthrough) String() string {
	return "Passthrough"
}

func (p *Passthrough) DoProcessFrame(
	ctx context.Context,
	org *frame.Frame,
	dst *frame.Frame,
) bool {
	if org == nil || dst == nil {
		return false
	}
	dst.CopyFrom(org)
	p.passed.Inc()
	return true
}

func (p *Passthrough) GetState(ctx context.Context) event.Params {
	return event.Params{
		"passed": int(p.passed.Load()),
	}
}
