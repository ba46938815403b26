package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/xsync"
)

const (
	ActionGetState     = "getState"
	ActionSetFrameTime = "setFrameTime"

	// ParamFrameTime is the parameter of ActionSetFrameTime, in microseconds.
	ParamFrameTime = "frameTime"
)

// PushEvent schedules the event for execution by the processing goroutine
// of the filter.
func (f *Filter) PushEvent(ctx context.Context, e *event.Event) {
	logger.Debugf(ctx, "PushEvent[%s]: %s", f, e)
	f.eventLocker.Do(ctx, func() {
		f.events.Push(e)
	})
}

// ProcessEvents executes every event which is due and returns how many
// were executed. It is a part of ProcessFrame.
func (f *Filter) ProcessEvents(ctx context.Context) int {
	ctx = xsync.WithNoLogging(ctx, true)
	f.eventLocker.ManualLock(ctx)
	defer f.eventLocker.ManualUnlock(ctx)
	now := f.config.Clock.Now()
	count := 0
	for {
		e := f.events.PopDue(now)
		if e == nil {
			return count
		}
		f.executeEventLocked(ctx, e)
		count++
	}
}

func (f *Filter) executeEventLocked(ctx context.Context, e *event.Event) {
	logger.Debugf(ctx, "%s: executing %s", f, e)
	handler, ok := f.handlers[e.Action]
	if !ok {
		logger.Warnf(ctx, "%s: unknown action '%s'", f, e.Action)
		logger.Tracef(ctx, "%s: params of the unknown action: %s", f, spew.Sdump(e.Params))
		e.CompleteWithError(ErrUnknownAction{Action: e.Action})
		return
	}
	resp, err := handler(ctx, e.Params)
	if err != nil {
		logger.Errorf(ctx, "%s: unable to execute action '%s': %v", f, e.Action, err)
		if resp == nil {
			resp = event.Params{}
		}
		resp[event.ResponseFieldError] = err.Error()
	}
	e.Complete(resp)
}

// PendingEventsCount returns how many events are not executed yet.
func (f *Filter) PendingEventsCount(ctx context.Context) int {
	return xsync.DoR1(ctx, &f.eventLocker, f.events.Len)
}

// GetState returns a JSON-like description of the filter.
func (f *Filter) GetState(ctx context.Context) event.Params {
	return xsync.DoA1R1(ctx, &f.eventLocker, f.getStateLocked, ctx)
}

func (f *Filter) getStateLocked(ctx context.Context) event.Params {
	stats := f.Statistics.ToStats()
	state := event.Params{
		"id":             int(f.ID()),
		"type":           f.kernel.String(),
		"role":           f.role.String(),
		"workerId":       f.WorkerID(),
		"frameTime":      int(stats.FrameTime / time.Microsecond),
		"frameTimeMod":   stats.FrameTimeMod,
		"bufferStateMod": stats.BufferStateMod,
		"cycles":         int(stats.Cycles),
		"framesIn":       int(stats.FramesIn),
		"framesOut":      int(stats.FramesOut),
		"resyncs":        int(stats.Resyncs),
		"pendingEvents":  f.events.Len(),
	}
	if g, ok := f.kernel.(StateGetter); ok {
		for k, v := range g.GetState(ctx) {
			state[k] = v
		}
	}
	return state
}

func (f *Filter) builtinEventHandlers() event.Handlers {
	return event.Handlers{
		ActionGetState: func(ctx context.Context, _ event.Params) (event.Params, error) {
			return f.getStateLocked(ctx), nil
		},
		ActionSetFrameTime: f.onSetFrameTime,
	}
}

func (f *Filter) onSetFrameTime(
	ctx context.Context,
	params event.Params,
) (event.Params, error) {
	us, err := paramInt(params, ParamFrameTime)
	if err != nil {
		return nil, err
	}
	if us < 0 {
		return nil, fmt.Errorf("frame time cannot be negative: %d", us)
	}
	f.SetFrameTime(time.Duration(us) * time.Microsecond)
	logger.Debugf(ctx, "%s: frame time is now %s", f, f.frameTime)
	return event.Params{ParamFrameTime: us}, nil
}

func paramInt(params event.Params, key string) (int64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("parameter '%s' is not set", key)
	}
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("parameter '%s' is expected to be a number, but it is %T", key, v)
	}
}
