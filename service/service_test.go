package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qthai16/go-murmur3/common/pool"
	"github.com/Qthai16/go-murmur3/service/message"
	"github.com/Qthai16/go-murmur3/service/stats"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

func testConf() *Config {
	return &Config{
		Addr:          "127.0.0.1:0",
		Seed:          "0",
		Algorithm:     hashkit.DefaultAlgorithm,
		SocketTimeout: 2 * time.Second,
		MaxFrameSize:  1 << 20,
	}
}

func clientConf() *thrift.TConfiguration {
	conf := DefaultClientConf()
	conf.ConnectTimeout = 2 * time.Second
	conf.SocketTimeout = 2 * time.Second
	return conf
}

type testServer struct {
	*Server
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, conf *Config) *testServer {
	srv, err := NewServer(conf)
	require.NoError(t, err)
	require.NoError(t, srv.Listen())
	ctx, cancel := context.WithCancel(context.Background())
	ts := &testServer{Server: srv, addr: srv.Addr().String(), cancel: cancel, done: make(chan error, 1)}
	go func() { ts.done <- srv.Serve(ctx) }()
	t.Cleanup(ts.stop)
	return ts
}

func (ts *testServer) stop() {
	ts.cancel()
	<-ts.done
}

func newTestClient(t *testing.T, addr string) *Client {
	c, err := NewClientWithManager(NewClientManager(clientConf()), addr)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestServerHash(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	tests := []struct {
		data string
		want uint64
	}{
		{"", 0},
		{"abc", 0xb3dd93fa},
		{"The quick brown fox jumps over the lazy dog", 0x2e4ff723},
	}
	for _, tt := range tests {
		got, err := c.Hash(ctx, []byte(tt.data))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "data %q", tt.data)
	}
	assert.Equal(t, int64(len(tests)), ts.Stats().Methods.Count(MethodHash))
}

func TestServerHashSeeded(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	got, err := c.HashSeeded(ctx, []byte("Hello, world!"), 1234)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xfaf6cdb3), got)

	got, err = c.HashSeeded(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x514e28b7), got)

	got, err = c.HashSeeded(ctx, []byte("abc"), 0xffffffff)
	require.NoError(t, err)
	assert.Equal(t, uint64(hashkit.Sum32WithSeed([]byte("abc"), 0xffffffff)), got)
}

func TestServerStream(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	st, err := c.NewStream(ctx)
	require.NoError(t, err)
	defer st.Close()

	data := "The quick brown fox jumps over the lazy dog"
	buf := make([]byte, 5)
	_, err = io.CopyBuffer(st, struct{ io.Reader }{strings.NewReader(data)}, buf)
	require.NoError(t, err)

	want := uint64(hashkit.Sum32([]byte(data)))
	got, err := st.Finish()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = st.Finish()
	require.NoError(t, err)
	assert.Equal(t, want, got, "finish does not consume the session")

	require.NoError(t, st.Reset())
	got, err = st.Finish()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	require.NoError(t, st.Close())
	assert.NoError(t, st.Close())
}

func TestStreamCloseResetsSession(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	st, err := c.NewStream(ctx)
	require.NoError(t, err)
	_, err = st.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, st.Close())
	assert.Equal(t, int64(2), ts.Stats().Methods.Count(MethodReset))

	// the pooled connection carries no leftover session state
	require.Equal(t, 1, c.pool.Len())
	conn, err := c.pool.Get()
	require.NoError(t, err)
	reply, err := conn.Call(ctx, message.NewCall(MethodFinish, 0))
	c.release(conn, err)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reply.I64)

	st, err = c.NewStream(ctx)
	require.NoError(t, err)
	got, err := st.Finish()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
	require.NoError(t, st.Close())
}

func TestClientManagerConf(t *testing.T) {
	conf := clientConf()
	conf.ConnectTimeout = 3 * time.Second
	m := NewClientManager(conf)
	p, err := m.Acquire("127.0.0.1:1")
	require.NoError(t, err)
	defer m.Release("127.0.0.1:1")
	assert.Equal(t, 3*time.Second, p.WaitTimeout)
	assert.Equal(t, "127.0.0.1:1", p.Host)

	conf.ConnectTimeout = 0
	assert.Equal(t, pool.PoolDefaultConf("h").WaitTimeout, clientPoolConf("h", conf).WaitTimeout)
}

func TestServerStreamsAreIsolated(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	st1, err := c.NewStream(ctx)
	require.NoError(t, err)
	defer st1.Close()
	st2, err := c.NewStream(ctx)
	require.NoError(t, err)
	defer st2.Close()

	_, err = st1.Write([]byte("ab"))
	require.NoError(t, err)
	_, err = st2.Write([]byte("a"))
	require.NoError(t, err)
	_, err = st1.Write([]byte("c"))
	require.NoError(t, err)

	h1, err := st1.Finish()
	require.NoError(t, err)
	h2, err := st2.Finish()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xb3dd93fa), h1)
	assert.Equal(t, uint64(0x3c2569b2), h2)
}

func TestServerErrors(t *testing.T) {
	ts := startServer(t, testConf())
	ctx := context.Background()
	conn, err := DialConn(ts.addr, clientConf())
	require.NoError(t, err)
	defer conn.Close()

	var appErr thrift.TApplicationException
	_, err = conn.Call(ctx, message.NewCall("nope", 0))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int32(thrift.UNKNOWN_METHOD), appErr.TypeId())

	_, err = conn.Call(ctx, message.NewCall(MethodHash, 0))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int32(thrift.PROTOCOL_ERROR), appErr.TypeId())
	assert.Contains(t, appErr.Error(), ErrMissingData.Error())

	_, err = conn.Call(ctx, message.NewCall(MethodHashSeeded, 0).WithData([]byte("a")))
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int32(thrift.PROTOCOL_ERROR), appErr.TypeId())

	// the connection survives application errors
	reply, err := conn.Call(ctx, message.NewCall(MethodHash, 0).WithData([]byte("a")))
	require.NoError(t, err)
	assert.Equal(t, int64(0x3c2569b2), reply.I64)

	assert.Equal(t, int64(1), ts.Stats().ErrStat(stats.UnknownMethodErrKey))
	assert.Equal(t, int64(2), ts.Stats().ErrStat(stats.InvalidArgsErrKey))
}

func TestServerStats(t *testing.T) {
	ts := startServer(t, testConf())
	c := newTestClient(t, ts.addr)
	ctx := context.Background()

	_, err := c.Hash(ctx, []byte("abcd"))
	require.NoError(t, err)
	out, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"hash"`)
	assert.Contains(t, out, `"bytes_hashed":4`)
	assert.Contains(t, out, ts.addr[:strings.LastIndex(ts.addr, ":")])
	assert.Equal(t, 1, ts.Stats().NumRemotes())
}

func TestServerShutdown(t *testing.T) {
	ts := startServer(t, testConf())
	conn, err := DialConn(ts.addr, clientConf())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Call(context.Background(), message.NewCall(MethodFinish, 0))
	require.NoError(t, err)

	ts.cancel()
	select {
	case err = <-ts.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	ts.done <- nil

	_, err = conn.Call(context.Background(), message.NewCall(MethodFinish, 0))
	assert.Error(t, err)
	_, err = DialConn(ts.addr, clientConf())
	assert.Error(t, err)
}

func TestServeWithoutListen(t *testing.T) {
	srv, err := NewServer(testConf())
	require.NoError(t, err)
	assert.Nil(t, srv.Addr())
	assert.ErrorIs(t, srv.Serve(context.Background()), ErrServerState)
}

func TestClientDeadHost(t *testing.T) {
	ts := startServer(t, testConf())
	addr := ts.addr
	ts.stop()
	ts.done <- nil

	c := newTestClient(t, addr)
	_, err := c.Hash(context.Background(), []byte("a"))
	assert.Error(t, err)
}

func TestConfigSeedSource(t *testing.T) {
	conf := testConf()
	conf.Seed = "0x2a"
	b, err := conf.Builder()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), b.(*hashkit.Builder).Seed())

	conf.Seed = "forty-two"
	_, err = conf.Builder()
	assert.ErrorIs(t, err, hashkit.ErrInvalidSeed)

	conf.Seed = "4294967296"
	assert.ErrorIs(t, conf.Validate(), hashkit.ErrInvalidSeed)

	conf.Seed = ""
	src, err := conf.SeedSource()
	require.NoError(t, err)
	assert.NotNil(t, src)

	conf.Algorithm = "md5"
	assert.ErrorIs(t, conf.Validate(), hashkit.ErrUnknownAlgorithm)
	_, err = NewServer(conf)
	assert.ErrorIs(t, err, hashkit.ErrUnknownAlgorithm)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MURMUR3D_ADDR", "127.0.0.1:19000")
	t.Setenv("MURMUR3D_SOCKET_TIMEOUT", "250ms")

	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:19000", conf.Addr)
	assert.Equal(t, 250*time.Millisecond, conf.SocketTimeout)
	assert.Equal(t, hashkit.DefaultAlgorithm, conf.Algorithm)
	assert.Equal(t, int32(268435456), conf.MaxFrameSize)
	assert.False(t, conf.Daemon)

	tconf := conf.ThriftConf()
	assert.Equal(t, 250*time.Millisecond, tconf.SocketTimeout)
	assert.True(t, *tconf.TBinaryStrictRead)
}

func TestLoadConfigEnvFile(t *testing.T) {
	for _, k := range []string{"MURMUR3D_ALGORITHM", "MURMUR3D_SEED"} {
		if _, ok := os.LookupEnv(k); ok {
			t.Skipf("%v is set", k)
		}
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MURMUR3D_ALGORITHM=jenkins\nMURMUR3D_SEED=7\n"), 0o644))

	conf, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "jenkins", conf.Algorithm)
	assert.Equal(t, "7", conf.Seed)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("MURMUR3D_ALGORITHM", "md5")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, hashkit.ErrUnknownAlgorithm)
}
