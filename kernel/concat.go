package kernel

import (
	"context"

	"github.com/go-ng/container/heap"
	"github.com/go-ng/xsort"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
)

// Concat joins the payloads of the inputs which had a frame in the cycle,
// in the order of their port ids. The output takes the highest sequence
// number among the inputs.
type Concat struct {
	order xsort.OrderedAsc[filter.PortID]
}

var _ filter.ManyToOneKernel = (*Concat)(nil)

func (c *Concat) String() string {
	return "Concat"
}

func (c *Concat) DoProcessFrame(
	ctx context.Context,
	org frame.Frames,
	dst *frame.Frame,
) bool {
	if len(org) == 0 || dst == nil {
		return false
	}

	c.order = c.order[:0]
	for id := range org {
		heap.Push(&c.order, id)
	}

	dst.Data = dst.Data[:0]
	dst.SequenceNumber = 0
	dst.Duration = 0
	for len(c.order) > 0 {
		f := org[heap.Pop(&c.order)]
		dst.Data = append(dst.Data, f.Data...)
		if f.SequenceNumber > dst.SequenceNumber {
			dst.SequenceNumber = f.SequenceNumber
		}
		if f.Duration > dst.Duration {
			dst.Duration = f.Duration
		}
	}
	return true
}
