package filter

import (
	"time"
)

// Clock is the source of wall-clock time used for pacing.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
