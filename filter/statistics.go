package filter

import (
	"time"

	"go.uber.org/atomic"
)

type Statistics struct {
	Cycles            atomic.Uint64
	Retries           atomic.Uint64
	TransformFailures atomic.Uint64
	Resyncs           atomic.Uint64
	FramesIn          atomic.Uint64
	FramesOut         atomic.Uint64

	FrameTime               atomic.Duration
	FrameTimeMod            atomic.Float64
	BufferStateFrameTimeMod atomic.Float64
	Drift                   atomic.Duration
}

type StatisticsSnapshot struct {
	Cycles            uint64        `json:"cycles"`
	Retries           uint64        `json:"retries"`
	TransformFailures uint64        `json:"transform_failures"`
	Resyncs           uint64        `json:"resyncs"`
	FramesIn          uint64        `json:"frames_in"`
	FramesOut         uint64        `json:"frames_out"`
	FrameTime         time.Duration `json:"frame_time"`
	FrameTimeMod      float64       `json:"frame_time_mod"`
	BufferStateMod    float64       `json:"buffer_state_mod"`
	Drift             time.Duration `json:"drift"`
}

func (s *Statistics) ToStats() StatisticsSnapshot {
	return StatisticsSnapshot{
		Cycles:            s.Cycles.Load(),
		Retries:           s.Retries.Load(),
		TransformFailures: s.TransformFailures.Load(),
		Resyncs:           s.Resyncs.Load(),
		FramesIn:          s.FramesIn.Load(),
		FramesOut:         s.FramesOut.Load(),
		FrameTime:         s.FrameTime.Load(),
		FrameTimeMod:      s.FrameTimeMod.Load(),
		BufferStateMod:    s.BufferStateFrameTimeMod.Load(),
		Drift:             s.Drift.Load(),
	}
}
