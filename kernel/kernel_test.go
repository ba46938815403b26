package kernel

import (
	"context"
	"testing"
	"time"

	assertT "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/frame"
)

func TestGenerator(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(4, 40*time.Millisecond)
	dst := frame.Frames{1: frame.New(), 2: frame.New()}
	require.True(t, g.DoProcessFrame(ctx, dst))
	for _, f := range dst {
		require.Equal(t, []byte{1, 2, 3, 4}, f.Data)
		require.Equal(t, uint64(1), f.SequenceNumber)
		require.Equal(t, 40*time.Millisecond, f.Duration)
	}
	require.False(t, g.DoProcessFrame(ctx, frame.Frames{}))

	resp, err := g.EventHandlers()[ActionSetPayloadSize](ctx, event.Params{ParamPayloadSize: float64(2)})
	require.NoError(t, err)
	require.Equal(t, 2, resp[ParamPayloadSize])
	_, err = g.EventHandlers()[ActionSetPayloadSize](ctx, event.Params{ParamPayloadSize: "big"})
	require.Error(t, err)

	require.True(t, g.DoProcessFrame(ctx, dst))
	require.Equal(t, []byte{2, 3}, dst[1].Data)
	require.Equal(t, 2, g.GetState(ctx)["generated"])
}

func TestPassthroughAndTee(t *testing.T) {
	ctx := context.Background()
	org := frame.New()
	org.Data = []byte("abc")
	org.SequenceNumber = 7

	p := &Passthrough{}
	dst := frame.New()
	require.True(t, p.DoProcessFrame(ctx, org, dst))
	require.Equal(t, org.Data, dst.Data)
	require.Equal(t, uint64(7), dst.SequenceNumber)
	require.False(t, p.DoProcessFrame(ctx, nil, dst))
	require.Equal(t, 1, p.GetState(ctx)["passed"])

	outs := frame.Frames{3: frame.New(), 9: frame.New()}
	require.True(t, Tee{}.DoProcessFrame(ctx, org, outs))
	for _, f := range outs {
		require.Equal(t, org.Data, f.Data)
	}
}

func TestConcat(t *testing.T) {
	ctx := context.Background()
	mk := func(data string, seq uint64) *frame.Frame {
		f := frame.New()
		f.Data = []byte(data)
		f.SequenceNumber = seq
		return f
	}
	c := &Concat{}
	dst := frame.New()
	require.True(t, c.DoProcessFrame(ctx, frame.Frames{
		30: mk("c", 1),
		10: mk("a", 5),
		20: mk("b", 3),
	}, dst))
	require.Equal(t, "abc", string(dst.Data))
	require.Equal(t, uint64(5), dst.SequenceNumber)

	require.True(t, c.DoProcessFrame(ctx, frame.Frames{20: mk("x", 1)}, dst))
	require.Equal(t, "x", string(dst.Data))
	require.False(t, c.DoProcessFrame(ctx, frame.Frames{}, dst))
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	c := NewCounter()
	for _, seq := range []uint64{1, 2, 5} {
		f := frame.New()
		f.Data = make([]byte, 10)
		f.SequenceNumber = seq
		require.True(t, c.DoProcessFrame(ctx, frame.Frames{filter.DefaultPortID: f}))
	}
	require.Equal(t, uint64(3), c.Frames.Load())
	require.Equal(t, uint64(30), c.Bytes.Load())
	require.Equal(t, uint64(2), c.Lost.Load())
	require.False(t, c.DoProcessFrame(ctx, frame.Frames{}))

	_, err := c.EventHandlers()[ActionReset](ctx, nil)
	require.NoError(t, err)
	assertT.Zero(t, c.Frames.Load())
	assertT.Equal(t, 0, c.GetState(ctx)["frames"])
}

func TestCounterFrameInterval(t *testing.T) {
	ctx := context.Background()
	c := NewCounter()
	start := time.Unix(1000, 0)
	for i := range 3 * intervalWindowSize {
		f := frame.New()
		f.SequenceNumber = uint64(i)
		f.PresentationTime = start.Add(time.Duration(i) * 40 * time.Millisecond)
		require.True(t, c.DoProcessFrame(ctx, frame.Frames{filter.DefaultPortID: f}))
	}
	require.InDelta(t, float64(40*time.Millisecond), float64(c.FrameInterval.Load()), float64(time.Millisecond))
	require.Contains(t, c.GetState(ctx), "frameInterval")

	_, err := c.EventHandlers()[ActionReset](ctx, nil)
	require.NoError(t, err)
	require.Zero(t, c.FrameInterval.Load())
	require.NotContains(t, c.GetState(ctx), "frameInterval")
}

func TestPipelineOfKernels(t *testing.T) {
	ctx := context.Background()
	gen := filter.NewHead(NewGenerator(8, 0), 1)
	tee := filter.NewOneToMany(Tee{}, 2)
	left := filter.NewOneToOne(&Passthrough{})
	right := filter.NewOneToOne(&Passthrough{})
	concat := filter.NewManyToOne(&Concat{}, 2)
	counter := NewCounter()
	sink := filter.NewTail(counter, 1)

	require.NoError(t, gen.ConnectOneToOne(ctx, tee, false))
	require.NoError(t, tee.ConnectManyToOne(ctx, left, tee.GenerateWriterID(), false))
	require.NoError(t, tee.ConnectManyToOne(ctx, right, tee.GenerateWriterID(), false))
	require.NoError(t, left.ConnectOneToMany(ctx, concat, concat.GenerateReaderID(), false))
	require.NoError(t, right.ConnectOneToMany(ctx, concat, concat.GenerateReaderID(), false))
	require.NoError(t, concat.ConnectOneToOne(ctx, sink, false))

	for range 3 {
		for _, f := range []*filter.Filter{gen, tee, left, right, concat, sink} {
			f.ProcessFrame(ctx)
		}
	}
	require.Equal(t, uint64(3), counter.Frames.Load())
	require.Equal(t, uint64(3*16), counter.Bytes.Load())
	require.Zero(t, counter.Lost.Load())
}
