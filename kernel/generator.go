// Package kernel contains ready-made kernels for the filters of a graph.
package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/logger"
	"go.uber.org/atomic"
)

const (
	ActionSetPayloadSize = "setPayloadSize"
	ParamPayloadSize     = "payloadSize"
)

// Generator is a source of synthetic frames: every frame carries a payload
// of the configured size filled with a pattern derived from its sequence
// number.
type Generator struct {
	PayloadSize   atomic.Uint64
	FrameDuration time.Duration

	sequence       atomic.Uint64
	generatedBytes atomic.Uint64
}

var _ filter.HeadKernel = (*Generator)(nil)
var _ filter.StateGetter = (*Generator)(nil)
var _ filter.EventHandlersProvider = (*Generator)(nil)

func NewGenerator(
	payloadSize uint64,
	frameDuration time.Duration,
) *Generator {
	g := &Generator{
		FrameDuration: frameDuration,
	}
	g.PayloadSize.Store(payloadSize)
	return g
}

func (g *Generator) String() string {
	return "Generator"
}

func (g *Generator) DoProcessFrame(
	ctx context.Context,
	dst frame.Frames,
) bool {
	if len(dst) == 0 {
		return false
	}
	seq := g.sequence.Inc()
	size := g.PayloadSize.Load()
	for _, f := range dst {
		f.Data = fillPattern(f.Data[:0], size, seq)
		f.SequenceNumber = seq
		f.Duration = g.FrameDuration
	}
	g.generatedBytes.Add(size * uint64(len(dst)))
	return true
}

func fillPattern(buf []byte, size uint64, seq uint64) []byte {
	for i := uint64(0); i < size; i++ {
		buf = append(buf, byte(seq+i))
	}
	return buf
}

func (g *Generator) GetState(ctx context.Context) event.Params {
	return event.Params{
		"generated":      int(g.sequence.Load()),
		"generatedBytes": humanize.IBytes(g.generatedBytes.Load()),
		"payloadSize":    int(g.PayloadSize.Load()),
	}
}

func (g *Generator) EventHandlers() event.Handlers {
	return event.Handlers{
		ActionSetPayloadSize: g.onSetPayloadSize,
	}
}

func (g *Generator) onSetPayloadSize(
	ctx context.Context,
	params event.Params,
) (event.Params, error) {
	v, ok := params[ParamPayloadSize].(float64)
	if !ok {
		if i, isInt := params[ParamPayloadSize].(int); isInt {
			v, ok = float64(i), true
		}
	}
	if !ok || v < 0 {
		return nil, fmt.Errorf("'%s' is expected to be a non-negative number, got %v", ParamPayloadSize, params[ParamPayloadSize])
	}
	g.PayloadSize.Store(uint64(v))
	logger.Debugf(ctx, "%s: payload size is now %d", g, uint64(v))
	return event.Params{ParamPayloadSize: int(v)}, nil
}
