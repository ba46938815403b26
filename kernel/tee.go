package kernel

import (
	"context"

	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
)

// Tee copies every input frame to each of its outputs.
type Tee struct{}

var _ filter.OneToManyKernel = (*Tee)(nil)

func (Tee) String() string {
	return "Tee"
}

func (Tee) DoProcessFrame(
	ctx context.Context,
	org *frame.Frame,
	dst frame.Frames,
) bool {
	if org == nil || len(dst) == 0 {
		return false
	}
	for _, f := range dst {
		f.CopyFrom(org)
	}
	return true
}
