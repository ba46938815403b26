package filter

import (
	"time"

	"github.com/xaionaro-go/mediagraph/frame"
)

// ID identifies a filter within a pipeline.
type ID int

// PortID identifies a reader or a writer within a filter.
type PortID = frame.PortID

const (
	// DefaultPortID is the port id of single-port sides.
	DefaultPortID = PortID(1)

	// RetryDelay is what ProcessFrame asks for when there was nothing to
	// do, or when the filter has no intrinsic rate.
	RetryDelay = 500 * time.Microsecond

	// WallClockThreshold is the deviation between the paced timestamp and
	// the wall clock beyond which pacing is resynchronized.
	WallClockThreshold = 100 * time.Millisecond

	// FrameTimeModStep is how much the drift correction changes the
	// frame time modifier per cycle.
	FrameTimeModStep = 0.01

	// SlowModifier stretches the frame period while the input queues
	// drain faster than they are filled.
	SlowModifier = 1.10

	// FastModifier shrinks the frame period otherwise.
	FastModifier = 0.90

	// MaxSlaves is the cap on slaves a single master drives.
	MaxSlaves = 16
)

// Role is the cardinality pattern of a filter.
type Role int

const (
	RoleUndefined = Role(iota)
	RoleHead
	RoleTail
	RoleOneToOne
	RoleOneToMany
	RoleManyToOne
)

func (r Role) String() string {
	switch r {
	case RoleUndefined:
		return "undefined"
	case RoleHead:
		return "head"
	case RoleTail:
		return "tail"
	case RoleOneToOne:
		return "one-to-one"
	case RoleOneToMany:
		return "one-to-many"
	case RoleManyToOne:
		return "many-to-one"
	default:
		return "unknown"
	}
}
