package event

import (
	"time"

	"github.com/go-ng/container/heap"
)

// Queue orders events by NotBefore (ties are kept in push order).
//
// Queue is not safe for concurrent use; the owner guards it.
type Queue struct {
	items   events
	nextSeq uint64
}

func (q *Queue) Push(e *Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.items, e)
}

// PopDue removes and returns the earliest event if it can be executed at
// now; otherwise it returns nil and the queue is left untouched.
func (q *Queue) PopDue(now time.Time) *Event {
	if len(q.items) == 0 {
		return nil
	}
	if !q.items[0].CanBeExecuted(now) {
		return nil
	}
	return heap.Pop(&q.items)
}

func (q *Queue) Peek() *Event {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *Queue) Len() int {
	return len(q.items)
}

type events []*Event

func (s events) Len() int {
	return len(s)
}

func (s events) Less(i, j int) bool {
	if !s[i].NotBefore.Equal(s[j].NotBefore) {
		return s[i].NotBefore.Before(s[j].NotBefore)
	}
	return s[i].seq < s[j].seq
}

func (s events) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s *events) Push(e *Event) {
	*s = append(*s, e)
}

func (s *events) Pop() *Event {
	old := *s
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return e
}
