// Package frame defines the unit of media data exchanged between filters.
package frame

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"
)

// Frame is a media payload with a presentation timestamp.
//
// A frame is writable only while it is the pending rear slot of a queue;
// once committed it is immutable and shared by reference. The queue holds
// one reference per retained slot and every reader holds one reference to
// the frame it observed last.
type Frame struct {
	Data             []byte
	PresentationTime time.Time
	Duration         time.Duration
	SequenceNumber   uint64

	refs atomic.Int32
	pool *Pool
}

// New allocates a frame that is not bound to any pool.
func New() *Frame {
	f := &Frame{}
	f.refs.Store(1)
	return f
}

func (f *Frame) SetPresentationTime(ts time.Time) {
	f.PresentationTime = ts
}

// Ref adds a reference; every Ref must be paired with a Release.
func (f *Frame) Ref() *Frame {
	f.refs.Inc()
	return f
}

// Release drops a reference. The last release hands the frame back to its
// pool, after which it must not be touched.
func (f *Frame) Release() {
	refs := f.refs.Dec()
	switch {
	case refs > 0:
		return
	case refs < 0:
		panic(fmt.Sprintf("frame %p released more times than referenced", f))
	}
	if f.pool != nil {
		f.pool.put(f)
	}
}

// RefCount is intended for diagnostics and tests.
func (f *Frame) RefCount() int32 {
	return f.refs.Load()
}

// CopyFrom copies the payload and metadata of src into f, reusing f's buffer.
func (f *Frame) CopyFrom(src *Frame) {
	f.Data = append(f.Data[:0], src.Data...)
	f.PresentationTime = src.PresentationTime
	f.Duration = src.Duration
	f.SequenceNumber = src.SequenceNumber
}

func (f *Frame) reset() {
	f.Data = f.Data[:0]
	f.PresentationTime = time.Time{}
	f.Duration = 0
	f.SequenceNumber = 0
}

func (f *Frame) String() string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"Frame{seq:%d, pts:%s, size:%s}",
		f.SequenceNumber,
		f.PresentationTime.Format(time.RFC3339Nano),
		humanize.IBytes(uint64(len(f.Data))),
	)
}
