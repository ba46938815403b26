package frame

import (
	"github.com/xaionaro-go/mediagraph/pool"
)

// Pool recycles frames whose last reference was released.
type Pool struct {
	pool *pool.Pool[Frame]
}

func NewPool() *Pool {
	p := &Pool{}
	p.pool = pool.NewPool(
		func() *Frame { return &Frame{} },
		func(f *Frame) { f.reset() },
	)
	return p
}

// DefaultPool is used by queues that were not given a pool explicitly.
var DefaultPool = NewPool()

// Get returns a reset frame holding exactly one reference.
func (p *Pool) Get() *Frame {
	f := p.pool.Get()
	f.pool = p
	f.refs.Store(1)
	return f
}

func (p *Pool) put(f *Frame) {
	p.pool.Put(f)
}
