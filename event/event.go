// Package event implements the remote-control events a filter executes
// between its processing cycles.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Params is a JSON-like payload: the parameters of an event or its response.
type Params = map[string]any

// Handler executes an action. The returned params become the response
// payload; an error is reported inline in the response.
type Handler func(ctx context.Context, params Params) (Params, error)

// Handlers is a dispatch table of actions by name.
type Handlers map[string]Handler

const ResponseFieldError = "error"

// Event is a request to execute an action on a filter not before a given
// moment.
type Event struct {
	Action    string
	Params    Params
	NotBefore time.Time

	seq          uint64
	responseCh   chan Params
	completeOnce sync.Once
}

func New(
	action string,
	params Params,
	notBefore time.Time,
) *Event {
	return &Event{
		Action:     action,
		Params:     params,
		NotBefore:  notBefore,
		responseCh: make(chan Params, 1),
	}
}

func (e *Event) String() string {
	return fmt.Sprintf("Event{action:%q, notBefore:%s}", e.Action, e.NotBefore.Format(time.RFC3339Nano))
}

func (e *Event) CanBeExecuted(now time.Time) bool {
	return !now.Before(e.NotBefore)
}

// Complete delivers the response and closes the response channel. Only the
// first call has an effect.
func (e *Event) Complete(response Params) {
	e.completeOnce.Do(func() {
		e.responseCh <- response
		close(e.responseCh)
	})
}

// CompleteWithError is a shorthand for completing with an error response.
func (e *Event) CompleteWithError(err error) {
	e.Complete(Params{ResponseFieldError: err.Error()})
}

func (e *Event) Response() <-chan Params {
	return e.responseCh
}

// Wait blocks until the event is completed or ctx is done.
func (e *Event) Wait(ctx context.Context) (Params, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-e.responseCh:
		return resp, nil
	}
}
