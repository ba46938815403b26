package filter

import (
	"context"

	"github.com/xaionaro-go/mediagraph/frame"
	"github.com/xaionaro-go/mediagraph/logger"
	"github.com/xaionaro-go/mediagraph/queue"
)

// GenerateReaderID returns an unused reader port id.
func (f *Filter) GenerateReaderID() PortID {
	if f.maxReaders == 1 {
		return DefaultPortID
	}
	for {
		id := f.config.PortIDGenerator()
		if _, ok := f.readers[id]; !ok {
			return id
		}
	}
}

// GenerateWriterID returns an unused writer port id.
func (f *Filter) GenerateWriterID() PortID {
	if f.maxWriters == 1 {
		return DefaultPortID
	}
	for {
		id := f.config.PortIDGenerator()
		if _, ok := f.writers[id]; !ok {
			return id
		}
	}
}

// SetReader creates the reader port `id` over the queue. An id held by a
// reader which is not connected anymore is reclaimed.
func (f *Filter) SetReader(
	ctx context.Context,
	id PortID,
	q *queue.Queue,
	shared bool,
) (*Reader, error) {
	if old, ok := f.readers[id]; ok {
		if old.IsConnected(ctx) {
			return nil, ErrNoFreeReaderSlot{ReaderID: id, MaxReaders: f.maxReaders}
		}
		old.Disconnect(ctx)
		delete(f.readers, id)
	}
	if uint(len(f.readers)) >= f.maxReaders {
		return nil, ErrNoFreeReaderSlot{ReaderID: id, MaxReaders: f.maxReaders}
	}
	r := newReader(q, shared)
	f.readers[id] = r
	return r, nil
}

func (f *Filter) allocQueue(ctx context.Context, writerID PortID) *queue.Queue {
	if a, ok := f.kernel.(QueueAllocator); ok {
		if q := a.AllocQueue(ctx, writerID); q != nil {
			return q
		}
	}
	return queue.New(f.config.QueueCapacity)
}

// Connect binds the writer `writerID` of this filter to the reader
// `readerID` of the target.
//
// If slave is false, a new queue is allocated for the writer, which must
// not be connected yet. If slave is true, the queue of the already connected
// writer is shared with one more reader.
//
// Either the whole connection is established, or nothing is changed.
func (f *Filter) Connect(
	ctx context.Context,
	target *Filter,
	writerID PortID,
	readerID PortID,
	slave bool,
) (_err error) {
	logger.Debugf(ctx, "Connect[%s:%d -> %s:%d, slave:%t]", f, writerID, target, readerID, slave)
	defer func() {
		logger.Debugf(ctx, "/Connect[%s:%d -> %s:%d, slave:%t]: %v", f, writerID, target, readerID, slave, _err)
	}()

	w, ok := f.writers[writerID]
	if !ok {
		if uint(len(f.writers)) >= f.maxWriters {
			return ErrTooManyWriters{MaxWriters: f.maxWriters}
		}
		w = newWriter()
		f.writers[writerID] = w
		defer func() {
			if _err != nil {
				w.Disconnect(ctx)
				delete(f.writers, writerID)
			}
		}()
	}

	if slave {
		if !w.IsConnected(ctx) {
			return ErrWriterNotConnected{WriterID: writerID}
		}
	} else {
		if w.IsConnected(ctx) {
			return ErrWriterAlreadyConnected{WriterID: writerID}
		}
	}

	if r := target.GetReader(readerID); r != nil && r.IsConnected(ctx) {
		return ErrReaderAlreadyConnected{ReaderID: readerID}
	}

	q := w.Queue()
	if !slave {
		q = f.allocQueue(ctx, writerID)
	}

	r, err := target.SetReader(ctx, readerID, q, slave)
	if err != nil {
		return err
	}

	if !slave {
		w.setQueue(ctx, q)
	}

	if !w.Connect(ctx, r) {
		target.DisconnectReader(ctx, readerID)
		return ErrUnableToConnect{WriterID: writerID, ReaderID: readerID}
	}
	return nil
}

func (f *Filter) ConnectOneToOne(ctx context.Context, target *Filter, slave bool) error {
	return f.Connect(ctx, target, DefaultPortID, DefaultPortID, slave)
}

func (f *Filter) ConnectOneToMany(ctx context.Context, target *Filter, readerID PortID, slave bool) error {
	return f.Connect(ctx, target, DefaultPortID, readerID, slave)
}

func (f *Filter) ConnectManyToOne(ctx context.Context, target *Filter, writerID PortID, slave bool) error {
	return f.Connect(ctx, target, writerID, DefaultPortID, slave)
}

func (f *Filter) ConnectManyToMany(
	ctx context.Context,
	target *Filter,
	writerID PortID,
	readerID PortID,
	slave bool,
) error {
	return f.Connect(ctx, target, writerID, readerID, slave)
}

// DisconnectReader detaches and removes the reader port. It returns false
// if there is no such port.
func (f *Filter) DisconnectReader(ctx context.Context, id PortID) bool {
	r, ok := f.readers[id]
	if !ok {
		return false
	}
	r.Disconnect(ctx)
	delete(f.readers, id)
	return true
}

// DisconnectWriter detaches and removes the writer port. It returns false
// if there is no such port.
func (f *Filter) DisconnectWriter(ctx context.Context, id PortID) bool {
	w, ok := f.writers[id]
	if !ok {
		return false
	}
	w.Disconnect(ctx)
	delete(f.writers, id)
	return true
}

func (f *Filter) DisconnectAll(ctx context.Context) {
	logger.Debugf(ctx, "DisconnectAll[%s]", f)
	for id := range f.readers {
		f.DisconnectReader(ctx, id)
	}
	for id := range f.writers {
		f.DisconnectWriter(ctx, id)
	}
}

// demandOriginFrames polls every reader, pruning the disconnected ones.
//
// It returns the frames to process in this cycle and the ids of the
// readers whose frame is new (to be removed at the end of the cycle).
func (f *Filter) demandOriginFrames(ctx context.Context) (frame.Frames, []PortID) {
	frames := frame.Frames{}
	var updated []PortID
	slow := false
	for id, r := range f.readers {
		if !r.IsConnected(ctx) {
			logger.Debugf(ctx, "%s: reader %d is not connected anymore, removing it", f, id)
			r.Disconnect(ctx)
			delete(f.readers, id)
			continue
		}
		fr, isNew, state := r.GetFrame(ctx, f.config.Force)
		if state == queue.StateSlow {
			slow = true
		}
		if fr == nil {
			continue
		}
		frames[id] = fr
		if isNew {
			updated = append(updated, id)
		}
	}
	if f.maxReaders > 0 {
		if slow {
			f.bufferStateFrameTimeMod = SlowModifier
		} else {
			f.bufferStateFrameTimeMod = FastModifier
		}
		f.Statistics.BufferStateFrameTimeMod.Store(f.bufferStateFrameTimeMod)
	}
	return frames, updated
}

// demandDestinationFrames obtains the slot of every writer, pruning the
// disconnected ones. A full queue discards its oldest frame to make room.
func (f *Filter) demandDestinationFrames(ctx context.Context) frame.Frames {
	frames := frame.Frames{}
	for id, w := range f.writers {
		if !w.IsConnected(ctx) {
			logger.Debugf(ctx, "%s: writer %d is not connected anymore, removing it", f, id)
			w.Disconnect(ctx)
			delete(f.writers, id)
			continue
		}
		fr := w.GetFrame(ctx, true)
		if fr == nil {
			continue
		}
		frames[id] = fr
	}
	return frames
}

func (f *Filter) addFrames(ctx context.Context, dst frame.Frames) int {
	count := 0
	for id := range dst {
		w, ok := f.writers[id]
		if !ok {
			continue
		}
		if w.AddFrame(ctx) {
			count++
		}
	}
	return count
}

// removeFrames consumes the new input frames of the cycle.
func (f *Filter) removeFrames(ctx context.Context, updated []PortID) {
	for _, id := range updated {
		r, ok := f.readers[id]
		if !ok {
			continue
		}
		r.RemoveFrame(ctx)
		f.Statistics.FramesIn.Inc()
	}
}
