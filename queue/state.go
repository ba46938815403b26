package queue

// State is a coarse fill signal of a queue as seen by one cursor.
type State int

const (
	StateUndefined = State(iota)
	// StateEmpty means nothing is pending.
	StateEmpty
	// StateNormal means the queue is filled enough.
	StateNormal
	// StateSlow means the queue drains faster than it is filled: less than
	// a third of its capacity is pending.
	StateSlow
)

func (s State) String() string {
	switch s {
	case StateUndefined:
		return "undefined"
	case StateEmpty:
		return "empty"
	case StateNormal:
		return "normal"
	case StateSlow:
		return "slow"
	default:
		return "unknown"
	}
}

func stateOf(pending, capacity uint64) State {
	switch {
	case pending == 0:
		return StateEmpty
	case pending*3 < capacity:
		return StateSlow
	default:
		return StateNormal
	}
}
