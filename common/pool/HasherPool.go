package pool

import (
	"sync"

	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

type resetter interface {
	Reset()
}

// HasherPool recycles hashers of one builder. A hasher taken with Get is
// owned by the caller until Put; hashers that cannot Reset are not kept.
type HasherPool struct {
	builder hashkit.BuildHasher
	pool    sync.Pool
}

func NewHasherPool(builder hashkit.BuildHasher) *HasherPool {
	p := &HasherPool{builder: builder}
	p.pool.New = func() any { return builder.BuildHasher() }
	return p
}

func (p *HasherPool) Builder() hashkit.BuildHasher { return p.builder }

// Get returns a hasher in its initial state.
func (p *HasherPool) Get() hashkit.Hasher {
	return p.pool.Get().(hashkit.Hasher)
}

func (p *HasherPool) Put(h hashkit.Hasher) {
	r, ok := h.(resetter)
	if !ok {
		return
	}
	r.Reset()
	p.pool.Put(h)
}

// Sum hashes data with a pooled hasher.
func (p *HasherPool) Sum(data []byte) uint64 {
	h := p.Get()
	defer p.Put(h)
	h.Write(data)
	return h.Finish()
}
