package pool

import (
	"strings"
	"sync"
)

type poolHandle[C IConn] struct {
	p      *Pool2[C]
	refCnt int
}

// Pool2Manager shares one Pool2 per host between its users and destroys the
// pool when the last user releases it.
type Pool2Manager[C IConn] struct {
	factory IConnFactory[C]
	conf    func(host string) *Pool2Config
	pools   map[string]*poolHandle[C]
	mu      sync.Mutex
}

func NewPoolManager[C IConn](factory IConnFactory[C]) *Pool2Manager[C] {
	return &Pool2Manager[C]{
		factory: factory,
		conf:    PoolDefaultConf,
		pools:   make(map[string]*poolHandle[C]),
	}
}

// WithConf sets how pool configs are derived for new hosts.
func (m *Pool2Manager[C]) WithConf(conf func(host string) *Pool2Config) *Pool2Manager[C] {
	m.conf = conf
	return m
}

// Acquire returns the pool for host, creating it on first use.
func (m *Pool2Manager[C]) Acquire(host string) (*Pool2[C], error) {
	host = strings.TrimSpace(host)
	m.mu.Lock()
	defer m.mu.Unlock()
	if handle, ok := m.pools[host]; ok {
		handle.refCnt++
		return handle.p, nil
	}
	p, err := NewPool2(m.conf(host), m.factory)
	if err != nil {
		return nil, err
	}
	m.pools[host] = &poolHandle[C]{p: p, refCnt: 1}
	return p, nil
}

// Release drops one reference to the pool of host.
func (m *Pool2Manager[C]) Release(host string) {
	host = strings.TrimSpace(host)
	m.mu.Lock()
	defer m.mu.Unlock()
	handle, ok := m.pools[host]
	if !ok {
		return
	}
	if handle.refCnt--; handle.refCnt == 0 {
		handle.p.Destroy()
		delete(m.pools, host)
	}
}

func (m *Pool2Manager[C]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pools)
}
