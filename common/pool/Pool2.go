package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/Qthai16/go-murmur3/common"
	"github.com/Qthai16/go-murmur3/utils"
)

var (
	ErrInvalidParam   = errors.New("invalid param")
	ErrMaxConnReached = errors.New("max connection reached")
	ErrPoolClosed     = errors.New("pool is closed")
	ErrNoConnection   = errors.New("no connection")
)

const (
	defaultPoolSize  = 64
	defaultAliveIntv = 3 * time.Second
	defaultWait      = 5 * time.Second
	defaultSlots     = 10
)

// IConn is a pooled connection.
type IConn interface {
	Open() error
	Close() error
}

// IConnFactory dials new connections to one host.
type IConnFactory[C IConn] interface {
	NewConn(host string) (C, error)
}

// ConnFactoryFunc adapts a dial function to IConnFactory.
type ConnFactoryFunc[C IConn] func(host string) (C, error)

func (f ConnFactoryFunc[C]) NewConn(host string) (C, error) { return f(host) }

type Pool2Config struct {
	Host           string
	MaxOpenConn    int32
	AliveCheckIntv time.Duration // minimum wait before dialing a dead host again
	WaitTimeout    time.Duration // how long Get waits for a busy pool
}

func PoolDefaultConf(host string) *Pool2Config {
	return &Pool2Config{
		Host:           host,
		MaxOpenConn:    defaultPoolSize,
		AliveCheckIntv: defaultAliveIntv,
		WaitTimeout:    defaultWait,
	}
}

// Pool2 keeps up to MaxOpenConn connections to one host. When dialing fails
// the host is marked dead and Get fails fast until AliveCheckIntv passes.
type Pool2[C IConn] struct {
	Pool2Config
	factory      IConnFactory[C]
	connections  chan C
	slots        chan struct{}
	numOpenConn  atomic.Int32
	isClosed     atomic.Bool
	isAlive      atomic.Bool
	lastDeadTime atomic.Int64 // unix nano
	closeMu      sync.RWMutex // held for write while connections is closed
}

func validatePoolConf(conf *Pool2Config) error {
	if conf == nil || conf.Host == "" || conf.MaxOpenConn <= 0 {
		return ErrInvalidParam
	}
	return nil
}

func NewPool2[C IConn](conf *Pool2Config, factory IConnFactory[C]) (*Pool2[C], error) {
	if err := validatePoolConf(conf); err != nil || factory == nil {
		utils.LogErro("[pool2] invalid pool config: %v", ErrInvalidParam)
		return nil, ErrInvalidParam
	}
	if conf.WaitTimeout <= 0 {
		conf.WaitTimeout = defaultWait
	}
	p := &Pool2[C]{
		Pool2Config: *conf,
		factory:     factory,
		connections: make(chan C, conf.MaxOpenConn),
		slots:       make(chan struct{}, defaultSlots),
	}
	p.isAlive.Store(true)
	return p, nil
}

func (p *Pool2[C]) markDead(reason string) {
	if p.isAlive.CompareAndSwap(true, false) {
		p.lastDeadTime.Store(time.Now().UnixNano())
		utils.LogInfo("[pool2][%v] dead: %v", p.Host, reason)
	}
}

func (p *Pool2[C]) deadFor() time.Duration {
	return time.Since(time.Unix(0, p.lastDeadTime.Load()))
}

func (p *Pool2[C]) dial() (C, error) {
	conn, err := p.factory.NewConn(p.Host)
	if err != nil {
		p.markDead(err.Error())
		var zero C
		return zero, ErrNoConnection
	}
	p.isAlive.Store(true)
	p.numOpenConn.Add(1)
	return conn, nil
}

// Get returns an idle connection, dials a new one while under MaxOpenConn,
// or waits up to WaitTimeout for one to be returned.
func (p *Pool2[C]) Get() (C, error) {
	var zero C
	if p.isClosed.Load() {
		return zero, ErrPoolClosed
	}
	if !p.isAlive.Load() && p.deadFor() < p.AliveCheckIntv {
		return zero, ErrNoConnection
	}
	select {
	case conn, ok := <-p.connections:
		if !ok {
			return zero, ErrPoolClosed
		}
		return conn, nil
	default:
	}

	p.slots <- struct{}{}
	if p.numOpenConn.Load() < p.MaxOpenConn {
		conn, err := p.dial()
		<-p.slots
		return conn, err
	}
	<-p.slots

	t := common.BorrowTimer(p.WaitTimeout)
	defer common.ReturnTimer(t)
	select {
	case conn, ok := <-p.connections:
		if !ok {
			return zero, ErrPoolClosed
		}
		return conn, nil
	case <-t.C:
		return zero, ErrMaxConnReached
	}
}

// Put hands conn back for reuse.
func (p *Pool2[C]) Put(conn C) {
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.isClosed.Load() || !p.isAlive.Load() {
		p.discard(conn)
		return
	}
	select {
	case p.connections <- conn:
	default:
		p.discard(conn)
	}
}

func (p *Pool2[C]) discard(conn C) {
	conn.Close()
	p.numOpenConn.Add(-1)
}

// PutIfValid returns conn when err is nil and drops it otherwise.
func (p *Pool2[C]) PutIfValid(conn C, err error) {
	if err != nil {
		p.InvalidConn(conn, err)
		return
	}
	p.Put(conn)
}

// InvalidConn drops conn. A transport error also drops every idle
// connection, since they most likely share the failure.
func (p *Pool2[C]) InvalidConn(conn C, err error) {
	var tec thrift.TTransportException
	if errors.As(err, &tec) {
		for drained := false; !drained; {
			select {
			case c, ok := <-p.connections:
				if !ok {
					drained = true
					continue
				}
				p.discard(c)
			default:
				drained = true
			}
		}
		p.markDead(tec.Error())
	}
	p.discard(conn)
	if p.numOpenConn.Load() == 0 {
		p.markDead("no open connection left")
	}
}

func (p *Pool2[C]) Len() int {
	return len(p.connections)
}

func (p *Pool2[C]) NumOpen() int32 {
	return p.numOpenConn.Load()
}

func (p *Pool2[C]) IsAlive() bool {
	return p.isAlive.Load()
}

// Destroy closes every idle connection; connections still out are closed on
// Put.
func (p *Pool2[C]) Destroy() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.isClosed.CompareAndSwap(false, true) {
		close(p.connections)
		for conn := range p.connections {
			p.discard(conn)
		}
		utils.LogInfo("[pool2][%v] pool is destroyed", p.Host)
	}
}
