package worker

import (
	"context"
	"fmt"
	"time"
)

// Runnable is a unit of work scheduled by a Worker.
type Runnable interface {
	fmt.Stringer
	GetObjectID() uint64

	// ProcessFrame executes one cycle and returns the delay after which
	// the Runnable wants to be executed again.
	ProcessFrame(ctx context.Context) time.Duration

	// IsEnabled returns false if the Runnable must not be executed anymore.
	IsEnabled() bool
	Stop(ctx context.Context)
}

type scheduled struct {
	Runnable Runnable
	At       time.Time
	seq      uint64
	removed  bool
}

// schedule is a heap of Runnables by the time of their next execution.
type schedule []*scheduled

func (s schedule) Len() int {
	return len(s)
}

func (s schedule) Less(i, j int) bool {
	if !s[i].At.Equal(s[j].At) {
		return s[i].At.Before(s[j].At)
	}
	return s[i].seq < s[j].seq
}

func (s schedule) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s *schedule) Push(item *scheduled) {
	*s = append(*s, item)
}

func (s *schedule) Pop() *scheduled {
	old := *s
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return item
}
