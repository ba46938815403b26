package worker

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

type State string

const (
	StateCreated  = State("created")
	StateEnabled  = State("enabled")
	StateDisabled = State("disabled")
	StateStopped  = State("stopped")
)

func (s State) String() string {
	return string(s)
}

const (
	eventStart   = "start"
	eventEnable  = "enable"
	eventDisable = "disable"
	eventStop    = "stop"
)

func newStateMachine(w *Worker) *fsm.FSM {
	return fsm.NewFSM(
		StateCreated.String(),
		fsm.Events{
			{Name: eventStart, Src: []string{StateCreated.String()}, Dst: StateEnabled.String()},
			{Name: eventEnable, Src: []string{StateDisabled.String()}, Dst: StateEnabled.String()},
			{Name: eventDisable, Src: []string{StateEnabled.String()}, Dst: StateDisabled.String()},
			{Name: eventStop, Src: []string{StateCreated.String(), StateEnabled.String(), StateDisabled.String()}, Dst: StateStopped.String()},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				w.onStateChange(ctx, State(e.Src), State(e.Dst))
			},
		},
	)
}

type ErrInvalidState struct {
	Event string
	State State
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("cannot %s a worker in state '%s'", e.Event, e.State)
}
