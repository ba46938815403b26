package filter

import (
	"context"
	"testing"

	assertT "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mediagraph/queue"
)

func TestGenerateIDsSinglePort(t *testing.T) {
	f := NewOneToOne(&dummyPassthrough{})
	require.Equal(t, DefaultPortID, f.GenerateReaderID())
	require.Equal(t, DefaultPortID, f.GenerateWriterID())
}

func TestGenerateReaderIDCollision(t *testing.T) {
	ctx := context.Background()
	f := NewManyToOne(&dummyMerge{}, 4, sequenceGenerator(5, 5, 5, 7))
	id := f.GenerateReaderID()
	require.Equal(t, PortID(5), id)
	_, err := f.SetReader(ctx, id, queue.New(0), false)
	require.NoError(t, err)

	require.Equal(t, PortID(7), f.GenerateReaderID())
}

func TestSetReaderLimit(t *testing.T) {
	ctx := context.Background()
	f := NewManyToOne(&dummyMerge{}, 2)
	_, err := f.SetReader(ctx, 1, queue.New(0), false)
	require.NoError(t, err)
	_, err = f.SetReader(ctx, 2, queue.New(0), false)
	require.NoError(t, err)
	_, err = f.SetReader(ctx, 3, queue.New(0), false)
	require.ErrorAs(t, err, &ErrNoFreeReaderSlot{})
}

func TestConnectOneToOne(t *testing.T) {
	ctx := context.Background()
	src := NewHead(&dummyHead{}, 1)
	dst := NewOneToOne(&dummyPassthrough{})

	require.NoError(t, src.ConnectOneToOne(ctx, dst, false))
	w := src.GetWriter(DefaultPortID)
	r := dst.GetReader(DefaultPortID)
	require.NotNil(t, w)
	require.NotNil(t, r)
	require.True(t, w.IsConnected(ctx))
	require.True(t, r.IsConnected(ctx))
	require.Equal(t, w.Queue(), r.Queue())
	require.False(t, r.IsShared())

	err := src.ConnectOneToOne(ctx, dst, false)
	require.ErrorAs(t, err, &ErrWriterAlreadyConnected{})

	other := NewHead(&dummyHead{}, 1)
	err = other.ConnectOneToOne(ctx, dst, false)
	require.ErrorAs(t, err, &ErrReaderAlreadyConnected{})
	assertT.Empty(t, other.WriterIDs(), "the writer created for a failed connection must be dropped")
}

func TestConnectSlaveRequiresConnectedWriter(t *testing.T) {
	ctx := context.Background()
	src := NewHead(&dummyHead{}, 1)
	dst := NewTail(&dummySink{}, 1)

	err := src.ConnectOneToOne(ctx, dst, true)
	require.ErrorAs(t, err, &ErrWriterNotConnected{})
	assertT.Empty(t, src.WriterIDs())
	assertT.Empty(t, dst.ReaderIDs())
}

func TestConnectSlaveSharesQueue(t *testing.T) {
	ctx := context.Background()
	src := NewHead(&dummyHead{}, 1)
	a := NewTail(&dummySink{}, 1)
	b := NewTail(&dummySink{}, 1)

	require.NoError(t, src.ConnectOneToOne(ctx, a, false))
	require.NoError(t, src.ConnectOneToOne(ctx, b, true))

	q := src.GetWriter(DefaultPortID).Queue()
	require.Equal(t, q, a.GetReader(DefaultPortID).Queue())
	require.Equal(t, q, b.GetReader(DefaultPortID).Queue())
	require.True(t, b.GetReader(DefaultPortID).IsShared())
	require.Equal(t, 2, q.ReadersCount(ctx))
}

func TestConnectTooManyWriters(t *testing.T) {
	ctx := context.Background()
	src := NewOneToMany(dummySplit{}, 1)
	a := NewTail(&dummySink{}, 1)
	require.NoError(t, src.ConnectOneToOne(ctx, a, false))

	b := NewTail(&dummySink{}, 1)
	err := src.ConnectManyToOne(ctx, b, 42, false)
	require.ErrorAs(t, err, &ErrTooManyWriters{})
}

func TestDisconnectAndReconnect(t *testing.T) {
	ctx := context.Background()
	src := NewHead(&dummyHead{}, 1)
	dst := NewTail(&dummySink{}, 1)

	require.NoError(t, src.ConnectOneToOne(ctx, dst, false))
	require.True(t, src.DisconnectWriter(ctx, DefaultPortID))
	require.False(t, src.DisconnectWriter(ctx, DefaultPortID))
	require.False(t, dst.GetReader(DefaultPortID).IsConnected(ctx))
	require.True(t, dst.DisconnectReader(ctx, DefaultPortID))
	require.False(t, dst.DisconnectReader(ctx, DefaultPortID))

	require.NoError(t, src.ConnectOneToOne(ctx, dst, false))
	require.True(t, src.GetWriter(DefaultPortID).IsConnected(ctx))
	require.True(t, dst.GetReader(DefaultPortID).IsConnected(ctx))
}

func TestReconnectReclaimsStaleReader(t *testing.T) {
	ctx := context.Background()
	a := NewHead(&dummyHead{}, 1)
	b := NewHead(&dummyHead{}, 1)
	dst := NewTail(&dummySink{}, 1)

	require.NoError(t, a.ConnectOneToOne(ctx, dst, false))
	a.DisconnectAll(ctx)

	require.NoError(t, b.ConnectOneToOne(ctx, dst, false))
	require.Equal(t, b.GetWriter(DefaultPortID).Queue(), dst.GetReader(DefaultPortID).Queue())
}

func TestDisconnectAllIdempotent(t *testing.T) {
	ctx := context.Background()
	src := NewHead(&dummyHead{}, 1)
	mid := NewOneToOne(&dummyPassthrough{})
	dst := NewTail(&dummySink{}, 1)
	require.NoError(t, src.ConnectOneToOne(ctx, mid, false))
	require.NoError(t, mid.ConnectOneToOne(ctx, dst, false))

	mid.DisconnectAll(ctx)
	assertT.Empty(t, mid.ReaderIDs())
	assertT.Empty(t, mid.WriterIDs())

	mid.DisconnectAll(ctx)
	assertT.Empty(t, mid.ReaderIDs())
	assertT.Empty(t, mid.WriterIDs())
}
