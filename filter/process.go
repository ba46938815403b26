package filter

import (
	"context"
	"time"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/logger"
	"golang.org/x/exp/constraints"
)

// ProcessFrame runs one cycle of the filter and returns the delay after
// which the filter wants to run again.
//
// A cycle executes the due control events, collects the input and output
// frames, runs the slaves and the kernel, stamps and commits the outputs
// and consumes the inputs.
func (f *Filter) ProcessFrame(ctx context.Context) time.Duration {
	f.running.Store(true)
	defer f.running.Store(false)
	f.Statistics.Cycles.Inc()

	f.wallClock = f.config.Clock.Now()
	f.ProcessEvents(ctx)

	org, updated := f.demandOriginFrames(ctx)
	dst := f.demandDestinationFrames(ctx)

	if !f.isReady(org, dst) {
		f.Statistics.Retries.Inc()
		return RetryDelay
	}

	f.runSlaves(ctx)

	if f.process(ctx, org, dst) {
		f.updateTimestamp(ctx)
		for _, fr := range dst {
			fr.SetPresentationTime(f.timestamp)
		}
		f.Statistics.FramesOut.Add(uint64(f.addFrames(ctx, dst)))
	} else {
		logger.Tracef(ctx, "%s: the kernel produced nothing", f)
		f.Statistics.TransformFailures.Inc()
	}

	f.removeFrames(ctx, updated)

	if f.frameTime == 0 {
		return RetryDelay
	}
	frameTime := time.Duration(float64(f.frameTime) * f.frameTimeMod * f.bufferStateFrameTimeMod)
	elapsed := f.config.Clock.Now().Sub(f.wallClock)
	return clampMin(frameTime-elapsed, 0)
}

// isReady checks that every side the filter has ports for yields a frame:
// an input (new, or repeated when forced) and an output slot.
func (f *Filter) isReady(org, dst frame.Frames) bool {
	if f.maxReaders > 0 && len(org) == 0 {
		return false
	}
	if f.maxWriters > 0 && len(dst) == 0 {
		return false
	}
	return true
}

// updateTimestamp advances the paced output timestamp by one frame period
// and corrects the frame period against the drift from the wall clock.
func (f *Filter) updateTimestamp(ctx context.Context) {
	if f.frameTime == 0 {
		f.timestamp = f.wallClock
		return
	}

	if f.timestamp.IsZero() {
		f.timestamp = f.wallClock
		f.diffTime, f.lastDiffTime = 0, 0
		f.Statistics.Drift.Store(0)
		return
	}

	f.timestamp = f.timestamp.Add(f.frameTime)
	f.lastDiffTime = f.diffTime
	f.diffTime = f.wallClock.Sub(f.timestamp)

	if f.diffTime > WallClockThreshold || f.diffTime < -WallClockThreshold {
		logger.Warnf(ctx, "%s: the output timestamp deviates from the wall clock by %s, resynchronizing", f, f.diffTime)
		f.timestamp = f.wallClock
		f.diffTime = 0
		f.frameTimeMod = 1
		f.Statistics.Resyncs.Inc()
	}

	if f.diffTime > 0 && f.lastDiffTime < f.diffTime {
		f.frameTimeMod -= FrameTimeModStep
	}
	if f.diffTime < 0 && f.lastDiffTime > f.diffTime {
		f.frameTimeMod += FrameTimeModStep
	}
	f.frameTimeMod = clampMin(f.frameTimeMod, 0)

	f.Statistics.FrameTimeMod.Store(f.frameTimeMod)
	f.Statistics.Drift.Store(f.diffTime)
}

func clampMin[T constraints.Integer | constraints.Float](v, min T) T {
	if v < min {
		return min
	}
	return v
}
