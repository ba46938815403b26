package event

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	now := time.Now()
	var q Queue
	q.Push(New("c", nil, now.Add(2*time.Millisecond)))
	q.Push(New("a", nil, now))
	q.Push(New("b", nil, now))
	q.Push(New("future", nil, now.Add(time.Hour)))
	require.Equal(t, 4, q.Len())

	var actions []string
	for e := q.PopDue(now.Add(time.Second)); e != nil; e = q.PopDue(now.Add(time.Second)) {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []string{"a", "b", "c"}, actions)
	require.Equal(t, 1, q.Len())
	require.Equal(t, "future", q.Peek().Action)
}

func TestEventComplete(t *testing.T) {
	ctx := context.Background()
	e := New("x", Params{"k": 1}, time.Time{})
	require.True(t, e.CanBeExecuted(time.Now()))

	e.CompleteWithError(fmt.Errorf("boom"))
	e.Complete(Params{"ignored": true})

	resp, err := e.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "boom", resp[ResponseFieldError])

	_, ok := <-e.Response()
	require.False(t, ok)
}

func TestEventWaitCanceled(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()
	_, err := New("x", nil, time.Time{}).Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
