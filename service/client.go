package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/Qthai16/go-murmur3/common/pool"
	"github.com/Qthai16/go-murmur3/service/message"
)

var ErrUnexpectedReply = errors.New("unexpected reply")

// DefaultClientConf is the connection config of the default client pools.
func DefaultClientConf() *thrift.TConfiguration {
	return &thrift.TConfiguration{
		ConnectTimeout:     5 * time.Second,
		SocketTimeout:      5 * time.Second,
		MaxFrameSize:       1024 * 1024 * 256,
		TBinaryStrictRead:  thrift.BoolPtr(true),
		TBinaryStrictWrite: thrift.BoolPtr(true),
	}
}

// Conn is one framed binary connection to a hash server.
type Conn struct {
	trans thrift.TTransport
	proto thrift.TProtocol
	seqId int32
}

var _ pool.IConn = (*Conn)(nil)

func DialConn(host string, conf *thrift.TConfiguration) (*Conn, error) {
	sock := thrift.NewTSocketConf(host, conf)
	trans := thrift.NewTFramedTransportConf(sock, conf)
	c := &Conn{trans: trans, proto: thrift.NewTBinaryProtocolConf(trans, conf)}
	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conn) Open() error {
	if c.trans.IsOpen() {
		return nil
	}
	return c.trans.Open()
}

func (c *Conn) Close() error {
	return c.trans.Close()
}

// Call sends call and reads its reply. A TApplicationException sent by the
// server is returned as the error.
func (c *Conn) Call(ctx context.Context, call *message.Call) (*message.Reply, error) {
	c.seqId++
	call.Header.SeqId = c.seqId
	if err := call.Write(ctx, c.proto); err != nil {
		return nil, err
	}
	reply := &message.Reply{}
	if err := reply.Read(ctx, c.proto); err != nil {
		return nil, err
	}
	if reply.Header.Name != call.Header.Name {
		return nil, thrift.NewTApplicationException(thrift.WRONG_METHOD_NAME,
			fmt.Sprintf("%v: wrong method name %v", call.Header.Name, reply.Header.Name))
	}
	if reply.Header.SeqId != call.Header.SeqId {
		return nil, thrift.NewTApplicationException(thrift.BAD_SEQUENCE_ID,
			fmt.Sprintf("%v: out of order sequence response", call.Header.Name))
	}
	return reply, nil
}

// NewClientManager shares connection pools between clients of the same
// host.
func NewClientManager(conf *thrift.TConfiguration) *pool.Pool2Manager[*Conn] {
	return pool.NewPoolManager[*Conn](pool.ConnFactoryFunc[*Conn](func(host string) (*Conn, error) {
		return DialConn(host, conf)
	})).WithConf(func(host string) *pool.Pool2Config {
		return clientPoolConf(host, conf)
	})
}

// clientPoolConf waits for a busy pool as long as a dial may take.
func clientPoolConf(host string, conf *thrift.TConfiguration) *pool.Pool2Config {
	pc := pool.PoolDefaultConf(host)
	if conf.ConnectTimeout > 0 {
		pc.WaitTimeout = conf.ConnectTimeout
	}
	return pc
}

var _clientManager = NewClientManager(DefaultClientConf())

// Client calls a hash server through a pool of connections.
type Client struct {
	addr    string
	manager *pool.Pool2Manager[*Conn]
	pool    *pool.Pool2[*Conn]
}

func NewClient(addr string) (*Client, error) {
	return NewClientWithManager(_clientManager, addr)
}

func NewClientWithManager(m *pool.Pool2Manager[*Conn], addr string) (*Client, error) {
	p, err := m.Acquire(addr)
	if err != nil {
		return nil, err
	}
	return &Client{addr: addr, manager: m, pool: p}, nil
}

func (c *Client) Addr() string { return c.addr }

// Close releases the client's share of the pool.
func (c *Client) Close() {
	c.manager.Release(c.addr)
}

func (c *Client) release(conn *Conn, err error) {
	var appErr thrift.TApplicationException
	if errors.As(err, &appErr) {
		// the reply was read completely, the connection is still usable
		c.pool.Put(conn)
		return
	}
	c.pool.PutIfValid(conn, err)
}

func (c *Client) call(ctx context.Context, call *message.Call) (*message.Reply, error) {
	conn, err := c.pool.Get()
	if err != nil {
		return nil, err
	}
	reply, err := conn.Call(ctx, call)
	c.release(conn, err)
	return reply, err
}

func replyU64(reply *message.Reply, err error) (uint64, error) {
	if err != nil {
		return 0, err
	}
	if reply.Kind != message.ResultI64 {
		return 0, fmt.Errorf("%v: %w", reply.Header.Name, ErrUnexpectedReply)
	}
	return uint64(reply.I64), nil
}

// Hash hashes data with the server's hasher.
func (c *Client) Hash(ctx context.Context, data []byte) (uint64, error) {
	return replyU64(c.call(ctx, message.NewCall(MethodHash, 0).WithData(data)))
}

// HashSeeded hashes data with MurmurHash3 and the given seed.
func (c *Client) HashSeeded(ctx context.Context, data []byte, seed uint32) (uint64, error) {
	call := message.NewCall(MethodHashSeeded, 0).WithData(data).WithSeed(int32(seed))
	return replyU64(c.call(ctx, call))
}

// Stats returns the server counters as JSON.
func (c *Client) Stats(ctx context.Context) (string, error) {
	reply, err := c.call(ctx, message.NewCall(MethodStats, 0))
	if err != nil {
		return "", err
	}
	if reply.Kind != message.ResultString {
		return "", fmt.Errorf("%v: %w", reply.Header.Name, ErrUnexpectedReply)
	}
	return reply.Str, nil
}

// Stream is a streaming hash session on one connection, held until Close.
type Stream struct {
	ctx    context.Context
	client *Client
	conn   *Conn
	err    error
}

// NewStream takes a connection out of the pool and resets its session.
func (c *Client) NewStream(ctx context.Context) (*Stream, error) {
	conn, err := c.pool.Get()
	if err != nil {
		return nil, err
	}
	st := &Stream{ctx: ctx, client: c, conn: conn}
	if err = st.Reset(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func (st *Stream) call(call *message.Call) (*message.Reply, error) {
	if st.err != nil {
		return nil, st.err
	}
	reply, err := st.conn.Call(st.ctx, call)
	if err != nil {
		var appErr thrift.TApplicationException
		if !errors.As(err, &appErr) {
			st.err = err
		}
	}
	return reply, err
}

// Write sends p as one chunk; Stream is an io.Writer.
func (st *Stream) Write(p []byte) (int, error) {
	if _, err := st.call(message.NewCall(MethodWrite, 0).WithData(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Finish returns the hash of everything written since the last reset. The
// session stays usable.
func (st *Stream) Finish() (uint64, error) {
	return replyU64(st.call(message.NewCall(MethodFinish, 0)))
}

func (st *Stream) Reset() error {
	_, err := st.call(message.NewCall(MethodReset, 0))
	return err
}

// Close resets the session and hands the connection back to the pool.
func (st *Stream) Close() error {
	if st.conn == nil {
		return nil
	}
	if st.err == nil {
		// the next stream on this connection starts from an empty session
		st.Reset()
	}
	st.client.release(st.conn, st.err)
	st.conn = nil
	return st.err
}
