package queue

import (
	"context"
	"runtime"
	"sync"
	"testing"

	assertT "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func push(ctx context.Context, t *testing.T, q *Queue, seq uint64) {
	f := q.GetRear(ctx, false)
	require.NotNil(t, f)
	f.SequenceNumber = seq
	require.True(t, q.AddFrame(ctx))
}

func TestQueueOwned(t *testing.T) {
	ctx := context.Background()
	q := New(4)
	require.True(t, q.ConnectWriter(ctx))
	require.False(t, q.ConnectWriter(ctx))
	c := q.ConnectReader(ctx)

	f, state := c.Front(ctx)
	require.Nil(t, f)
	require.Equal(t, StateEmpty, state)

	push(ctx, t, q, 1)
	push(ctx, t, q, 2)

	f, _ = c.Front(ctx)
	require.NotNil(t, f)
	require.Equal(t, uint64(1), f.SequenceNumber)
	require.Equal(t, uint(2), q.Len(ctx))

	require.True(t, c.Remove(ctx))
	require.Equal(t, uint(1), q.Len(ctx))
	assertT.Equal(t, int32(0), f.RefCount())

	f, _ = c.Front(ctx)
	require.Equal(t, uint64(2), f.SequenceNumber)
	require.True(t, c.Remove(ctx))
	require.False(t, c.Remove(ctx))
}

func TestQueueFull(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	q.ConnectWriter(ctx)
	c := q.ConnectReader(ctx)

	push(ctx, t, q, 1)
	push(ctx, t, q, 2)
	require.Nil(t, q.GetRear(ctx, false))

	f := q.GetRear(ctx, true)
	require.NotNil(t, f)
	f.SequenceNumber = 3
	require.True(t, q.AddFrame(ctx))
	require.Equal(t, uint64(1), q.DroppedCount(ctx))

	f, _ = c.Front(ctx)
	require.Equal(t, uint64(2), f.SequenceNumber)
}

func TestQueueRearIsReusedUntilCommitted(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	require.Same(t, q.GetRear(ctx, false), q.GetRear(ctx, false))
	require.False(t, New(2).AddFrame(ctx))
}

func TestQueueSharedCursorsAreIndependent(t *testing.T) {
	ctx := context.Background()
	q := New(4)
	q.ConnectWriter(ctx)
	fast := q.ConnectReader(ctx)
	slow := q.ConnectReader(ctx)
	require.Equal(t, 2, q.ReadersCount(ctx))

	push(ctx, t, q, 1)
	push(ctx, t, q, 2)

	require.True(t, fast.Remove(ctx))
	require.True(t, fast.Remove(ctx))
	f, _ := fast.Front(ctx)
	require.Nil(t, f)

	require.Equal(t, uint(2), q.Len(ctx))
	f, _ = slow.Front(ctx)
	require.Equal(t, uint64(1), f.SequenceNumber)

	require.True(t, slow.Remove(ctx))
	require.Equal(t, uint(1), q.Len(ctx))

	require.True(t, slow.Disconnect(ctx))
	require.False(t, slow.Disconnect(ctx))
	require.Equal(t, uint(0), q.Len(ctx))
}

func TestQueueState(t *testing.T) {
	ctx := context.Background()
	q := New(6)
	q.ConnectWriter(ctx)
	c := q.ConnectReader(ctx)

	require.Equal(t, StateEmpty, c.State(ctx))
	push(ctx, t, q, 1)
	require.Equal(t, StateSlow, c.State(ctx))
	push(ctx, t, q, 2)
	require.Equal(t, StateNormal, c.State(ctx))
}

func TestQueueReferencedFrameSurvivesEviction(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	q.ConnectWriter(ctx)
	c := q.ConnectReader(ctx)
	push(ctx, t, q, 7)

	f, _ := c.Front(ctx)
	f.Ref()
	require.True(t, c.Remove(ctx))
	require.Equal(t, int32(1), f.RefCount())
	require.Equal(t, uint64(7), f.SequenceNumber)
	f.Release()
}

func TestQueueWithoutReadersDoesNotRetain(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	q.ConnectWriter(ctx)
	for i := 0; i < 5; i++ {
		push(ctx, t, q, uint64(i))
	}
	require.Equal(t, uint(0), q.Len(ctx))
	require.True(t, q.DisconnectWriter(ctx))
	require.False(t, q.IsWriterConnected(ctx))
}

func TestQueueRemoveAfterDrop(t *testing.T) {
	ctx := context.Background()
	q := New(2)
	q.ConnectWriter(ctx)
	c := q.ConnectReader(ctx)

	push(ctx, t, q, 1)
	push(ctx, t, q, 2)
	f, _ := c.FrontRef(ctx)
	require.Equal(t, uint64(1), f.SequenceNumber)
	require.Equal(t, int32(2), f.RefCount())

	f3 := q.GetRear(ctx, true)
	f3.SequenceNumber = 3
	require.True(t, q.AddFrame(ctx))
	require.Equal(t, uint64(1), q.DroppedCount(ctx))
	require.Equal(t, int32(1), f.RefCount(), "the discarded frame is still held by the cursor")
	require.Equal(t, uint64(1), f.SequenceNumber)

	require.False(t, c.Remove(ctx), "the frame returned by Front is gone")
	f.Release()

	next, _ := c.Front(ctx)
	require.Equal(t, uint64(2), next.SequenceNumber, "the following frame must not be consumed")
	require.True(t, c.Remove(ctx))
	next, _ = c.Front(ctx)
	require.Equal(t, uint64(3), next.SequenceNumber)
}

func TestQueueConcurrentCursors(t *testing.T) {
	ctx := context.Background()
	const (
		amount      = 5000
		readerCount = 3
	)
	q := New(4)
	q.ConnectWriter(ctx)

	cursors := make([]*Cursor, readerCount)
	for i := range cursors {
		cursors[i] = q.ConnectReader(ctx)
	}

	var (
		wg         sync.WaitGroup
		done       atomic.Bool
		violations atomic.Uint64
		lastSeqs   = make([]uint64, readerCount)
		readCounts = make([]uint64, readerCount)
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer done.Store(true)
		for seq := uint64(1); seq <= amount; seq++ {
			f := q.GetRear(ctx, true)
			f.SequenceNumber = seq
			f.Data = append(f.Data[:0], byte(seq))
			q.AddFrame(ctx)
		}
	}()

	for i, c := range cursors {
		wg.Add(1)
		go func(i int, c *Cursor) {
			defer wg.Done()
			for {
				finished := done.Load()
				f, _ := c.FrontRef(ctx)
				if f == nil {
					if finished {
						return
					}
					runtime.Gosched()
					continue
				}
				seq := f.SequenceNumber
				if f.RefCount() < 1 || seq <= lastSeqs[i] || seq > amount || len(f.Data) != 1 || f.Data[0] != byte(seq) {
					violations.Inc()
				}
				lastSeqs[i] = seq
				readCounts[i]++
				c.Remove(ctx)
				f.Release()
			}
		}(i, c)
	}
	wg.Wait()

	require.Zero(t, violations.Load())
	for i := range cursors {
		require.Equal(t, uint64(amount), lastSeqs[i], "the last frame is never discarded")
		require.NotZero(t, readCounts[i])
	}
	require.Equal(t, uint(0), q.Len(ctx))
}
