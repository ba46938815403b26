package filter

import (
	"context"
	"sync"
	"time"

	"github.com/xaionaro-go/mediagraph/frame"
	"go.uber.org/atomic"
)

type fakeClock struct {
	now atomic.Time
}

func newFakeClock(now time.Time) *fakeClock {
	c := &fakeClock{}
	c.now.Store(now)
	return c
}

func (c *fakeClock) Now() time.Time {
	return c.now.Load()
}

func (c *fakeClock) Add(d time.Duration) {
	c.now.Store(c.now.Load().Add(d))
}

type dummyHead struct {
	seq  uint64
	fail bool
}

func (k *dummyHead) String() string { return "dummyHead" }

func (k *dummyHead) DoProcessFrame(_ context.Context, dst frame.Frames) bool {
	if k.fail {
		return false
	}
	k.seq++
	for _, f := range dst {
		f.Data = append(f.Data[:0], byte(k.seq))
		f.SequenceNumber = k.seq
	}
	return true
}

type dummyPassthrough struct {
	calls int
	fail  bool
}

func (k *dummyPassthrough) String() string { return "dummyPassthrough" }

func (k *dummyPassthrough) DoProcessFrame(_ context.Context, org, dst *frame.Frame) bool {
	k.calls++
	if k.fail {
		return false
	}
	dst.CopyFrom(org)
	return true
}

type receivedFrame struct {
	PortID           PortID
	SequenceNumber   uint64
	PresentationTime time.Time
}

type dummySink struct {
	locker   sync.Mutex
	received []receivedFrame
}

func (k *dummySink) String() string { return "dummySink" }

func (k *dummySink) DoProcessFrame(_ context.Context, org frame.Frames) bool {
	k.locker.Lock()
	defer k.locker.Unlock()
	for id, f := range org {
		k.received = append(k.received, receivedFrame{
			PortID:           id,
			SequenceNumber:   f.SequenceNumber,
			PresentationTime: f.PresentationTime,
		})
	}
	return true
}

func (k *dummySink) Received() []receivedFrame {
	k.locker.Lock()
	defer k.locker.Unlock()
	return append([]receivedFrame(nil), k.received...)
}

type dummyMerge struct {
	lastInputs []PortID
}

func (k *dummyMerge) String() string { return "dummyMerge" }

func (k *dummyMerge) DoProcessFrame(_ context.Context, org frame.Frames, dst *frame.Frame) bool {
	k.lastInputs = k.lastInputs[:0]
	for id := range org {
		k.lastInputs = append(k.lastInputs, id)
	}
	dst.Data = dst.Data[:0]
	for _, f := range org {
		dst.Data = append(dst.Data, f.Data...)
	}
	return true
}

type dummySplit struct{}

func (dummySplit) String() string { return "dummySplit" }

func (dummySplit) DoProcessFrame(_ context.Context, org *frame.Frame, dst frame.Frames) bool {
	for _, f := range dst {
		f.CopyFrom(org)
	}
	return true
}

func sequenceGenerator(ids ...PortID) OptionPortIDGenerator {
	var idx int
	return func() PortID {
		id := ids[idx%len(ids)]
		idx++
		return id
	}
}
