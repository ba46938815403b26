package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/kernel"
	"github.com/xaionaro-go/mediagraph/worker"
)

type testGraph struct {
	Manager *Manager
	Counter *kernel.Counter
}

func newTestGraph(t *testing.T, ctx context.Context, frameTime time.Duration) testGraph {
	m := NewManager()
	counter := kernel.NewCounter()
	require.NoError(t, m.AddFilter(ctx, 1, filter.NewHead(kernel.NewGenerator(16, frameTime), 1, filter.OptionFrameTime(frameTime))))
	require.NoError(t, m.AddFilter(ctx, 2, filter.NewOneToOne(&kernel.Passthrough{})))
	require.NoError(t, m.AddFilter(ctx, 3, filter.NewTail(counter, 1)))
	return testGraph{Manager: m, Counter: counter}
}

func runCycles(ctx context.Context, m *Manager, count int) {
	for range count {
		for _, f := range m.Filters(ctx) {
			f.ProcessFrame(ctx)
		}
	}
}

func TestManagerFilters(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph(t, ctx, 0)
	m := g.Manager

	err := m.AddFilter(ctx, 1, filter.NewOneToOne(&kernel.Passthrough{}))
	require.ErrorAs(t, err, &ErrFilterAlreadyExists{})
	require.Equal(t, filter.ID(2), m.GetFilter(ctx, 2).ID())
	require.Nil(t, m.GetFilter(ctx, 42))

	require.ErrorAs(t, m.RemoveFilter(ctx, 42), &ErrFilterNotFound{})
	require.NoError(t, m.RemoveFilter(ctx, 2))
	require.Nil(t, m.GetFilter(ctx, 2))
}

func TestManagerPath(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph(t, ctx, 0)
	m := g.Manager

	_, err := m.CreatePath(ctx, 1, 1, 3, GeneratePortID, GeneratePortID, []filter.ID{42})
	require.ErrorAs(t, err, &ErrFilterNotFound{})

	p, err := m.CreatePath(ctx, 1, 1, 3, GeneratePortID, GeneratePortID, []filter.ID{2})
	require.NoError(t, err)
	require.False(t, p.IsConnected())
	_, err = m.CreatePath(ctx, 1, 1, 3, GeneratePortID, GeneratePortID, nil)
	require.ErrorAs(t, err, &ErrPathAlreadyExists{})

	require.NoError(t, m.ConnectPath(ctx, 1))
	require.Len(t, p.Hops, 2)
	require.ErrorAs(t, m.ConnectPath(ctx, 1), &ErrPathAlreadyConnected{})
	require.ErrorAs(t, m.RemoveFilter(ctx, 2), &ErrFilterInUse{})

	dot := m.DotString(ctx, true)
	require.Contains(t, dot, "node_1 -> node_2")
	require.Contains(t, dot, "node_2 -> node_3")

	runCycles(ctx, m, 3)
	require.Equal(t, uint64(3), g.Counter.Frames.Load())

	state := m.GetState(ctx)
	require.Len(t, state["filters"], 3)
	require.Len(t, state["paths"], 1)

	require.NoError(t, m.RemovePath(ctx, 1))
	require.Nil(t, m.GetPath(ctx, 1))
	require.Nil(t, m.GetFilter(ctx, 2), "intermediate filters are removed with the path")
	require.Empty(t, m.GetFilter(ctx, 1).WriterIDs())
	require.Empty(t, m.GetFilter(ctx, 3).ReaderIDs())
	require.ErrorAs(t, m.RemovePath(ctx, 1), &ErrPathNotFound{})
}

func TestManagerConnectPathRollback(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph(t, ctx, 0)
	m := g.Manager
	require.NoError(t, m.AddFilter(ctx, 4, filter.NewHead(kernel.NewGenerator(1, 0), 1)))
	require.NoError(t, m.Connect(ctx, 4, GeneratePortID, 3, GeneratePortID, false))

	_, err := m.CreatePath(ctx, 1, 1, 3, GeneratePortID, GeneratePortID, []filter.ID{2})
	require.NoError(t, err)
	err = m.ConnectPath(ctx, 1)
	require.ErrorAs(t, err, &ErrConnectPath{})
	require.ErrorAs(t, err, &filter.ErrReaderAlreadyConnected{})

	require.False(t, m.GetPath(ctx, 1).IsConnected())
	require.Empty(t, m.GetFilter(ctx, 1).WriterIDs())
	require.Empty(t, m.GetFilter(ctx, 2).ReaderIDs())
	require.Empty(t, m.GetFilter(ctx, 2).WriterIDs())
}

func TestManagerSlaves(t *testing.T) {
	ctx := context.Background()
	g := newTestGraph(t, ctx, 0)
	m := g.Manager
	slaveCounter := kernel.NewCounter()
	require.NoError(t, m.AddFilter(ctx, 4, filter.NewTail(slaveCounter, 1)))
	require.NoError(t, m.AddWorker(ctx, 1, worker.New(1)))

	require.NoError(t, m.Connect(ctx, 1, GeneratePortID, 2, GeneratePortID, false))
	require.NoError(t, m.Connect(ctx, 1, filter.DefaultPortID, 4, GeneratePortID, true))
	require.NoError(t, m.Connect(ctx, 2, GeneratePortID, 3, GeneratePortID, false))
	require.NoError(t, m.AddSlave(ctx, 2, 4))
	require.ErrorAs(t, m.AssignFilter(ctx, 1, 4), &ErrSlaveNotSchedulable{})

	m.GetFilter(ctx, 1).ProcessFrame(ctx)
	m.GetFilter(ctx, 2).ProcessFrame(ctx)
	require.Equal(t, uint64(1), slaveCounter.Frames.Load())
	require.Contains(t, m.DotString(ctx, false), "node_2 -> node_4 [style=dashed]")

	require.NoError(t, m.RemoveFilter(ctx, 4))
	require.Empty(t, m.GetFilter(ctx, 2).Slaves())
}

func TestManagerRun(t *testing.T) {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	g := newTestGraph(t, ctx, 2*time.Millisecond)
	m := g.Manager

	require.NoError(t, m.AddWorker(ctx, 1, worker.New(1)))
	require.NoError(t, m.AddWorker(ctx, 2, worker.New(2)))
	require.ErrorAs(t, m.AddWorker(ctx, 2, worker.New(2)), &ErrWorkerAlreadyExists{})
	require.NoError(t, m.AssignFilter(ctx, 1, 1))
	require.NoError(t, m.AssignFilter(ctx, 2, 2))
	require.NoError(t, m.AssignFilter(ctx, 2, 3))
	require.ErrorAs(t, m.AssignFilter(ctx, 1, 3), &ErrFilterAlreadyAssigned{})
	require.ErrorAs(t, m.AssignFilter(ctx, 42, 3), &ErrWorkerNotFound{})

	_, err := m.CreatePath(ctx, 1, 1, 3, GeneratePortID, GeneratePortID, []filter.ID{2})
	require.NoError(t, err)
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.ConnectPath(ctx, 1))

	require.Eventually(t, func() bool {
		return g.Counter.Frames.Load() >= 5
	}, 5*time.Second, time.Millisecond)
	require.Zero(t, g.Counter.Lost.Load())

	require.NoError(t, m.RemovePath(ctx, 1))
	frames := g.Counter.Frames.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, frames, g.Counter.Frames.Load())

	require.Equal(t, 1, m.GetWorker(ctx, 2).RunnablesCount(ctx), "the intermediate filter is unscheduled")
	require.NoError(t, m.Close(ctx))
	require.False(t, m.GetWorker(ctx, 1).IsRunning())
}
