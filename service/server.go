package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/google/uuid"

	"github.com/Qthai16/go-murmur3/common/pool"
	"github.com/Qthai16/go-murmur3/service/message"
	"github.com/Qthai16/go-murmur3/service/stats"
	"github.com/Qthai16/go-murmur3/utils"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

const (
	MethodHash       = "hash"
	MethodHashSeeded = "hashSeeded"
	MethodWrite      = "write"
	MethodFinish     = "finish"
	MethodReset      = "reset"
	MethodStats      = "stats"
)

var (
	ErrMissingData = errors.New("missing data")
	ErrMissingSeed = errors.New("missing seed")
	ErrServerState = errors.New("server is not listening")
)

// Server answers hash calls over framed binary thrift. Each connection owns
// one streaming hasher for write/finish/reset.
type Server struct {
	conf         *Config
	builder      hashkit.BuildHasher
	hashers      *pool.HasherPool
	stats        *stats.ServerStats
	transFactory thrift.TTransportFactory
	protoFactory thrift.TProtocolFactory
	socket       *thrift.TServerSocket
	wg           sync.WaitGroup
}

func NewServer(conf *Config) (*Server, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	// Validate already checked algorithm and seed
	builder := utils.Must(conf.Builder())
	tconf := conf.ThriftConf()
	return &Server{
		conf:         conf,
		builder:      builder,
		hashers:      pool.NewHasherPool(builder),
		stats:        stats.NewServerStats(),
		transFactory: thrift.NewTFramedTransportFactoryConf(thrift.NewTBufferedTransportFactory(8192), tconf),
		protoFactory: thrift.NewTBinaryProtocolFactoryConf(tconf),
	}, nil
}

func (s *Server) Stats() *stats.ServerStats { return s.stats }

func (s *Server) Builder() hashkit.BuildHasher { return s.builder }

// Listen binds the configured address.
func (s *Server) Listen() error {
	prefix := "thrift-server"
	srvSocket, err := thrift.NewTServerSocketTimeout(s.conf.Addr, 0)
	if err != nil {
		return fmt.Errorf("%v: failed to create socket %v: %w", prefix, s.conf.Addr, err)
	}
	if err = srvSocket.Listen(); err != nil {
		return fmt.Errorf("%v: failed to listen: %w", prefix, err)
	}
	s.socket = srvSocket
	utils.LogInfo("%v: listening on %v", prefix, s.Addr())
	return nil
}

// Addr is the bound address, useful after listening on port 0.
func (s *Server) Addr() net.Addr {
	if s.socket == nil {
		return nil
	}
	return s.socket.Addr()
}

// Serve accepts connections until ctx is done, then closes every open
// connection and waits for their handlers.
func (s *Server) Serve(ctx context.Context) error {
	if s.socket == nil {
		return ErrServerState
	}
	stop := context.AfterFunc(ctx, func() {
		s.socket.Interrupt()
	})
	defer stop()
	defer s.wg.Wait()
	for {
		trans, err := s.socket.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.socket.Close()
				return nil
			}
			utils.LogErro("thrift-server: accept conn failed, err: %v", err)
			return err
		}
		if trans != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConn(ctx, trans)
			}()
		}
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

type session struct {
	id     string
	remote string
	hasher hashkit.Hasher
}

func remoteAddr(client thrift.TTransport) string {
	if a, ok := client.(interface{ Addr() net.Addr }); ok && a.Addr() != nil {
		return a.Addr().String()
	}
	return "unknown"
}

func isEOF(err error) bool {
	var tec thrift.TTransportException
	return errors.As(err, &tec) && tec.TypeId() == thrift.END_OF_FILE
}

func (s *Server) handleConn(ctx context.Context, client thrift.TTransport) {
	stop := context.AfterFunc(ctx, func() {
		client.Close()
	})
	defer stop()

	trans, err := s.transFactory.GetTransport(client)
	if err != nil {
		client.Close()
		return
	}
	defer trans.Close()
	proto := s.protoFactory.GetProtocol(trans)

	sess := &session{
		id:     uuid.NewString(),
		remote: remoteAddr(client),
		hasher: s.builder.BuildHasher(),
	}
	log := utils.Logger().With("session", sess.id, "remote", sess.remote)
	log.Infow("connection opened")
	s.stats.AddRemote(sess.remote)
	defer s.stats.DelRemote(sess.remote)

	call := &message.Call{}
	for {
		call.Reset()
		if err = call.Read(ctx, proto); err != nil {
			if !isEOF(err) && ctx.Err() == nil {
				s.stats.IncMsgParseErr()
				log.Warnw("read call failed", "err", err)
			}
			break
		}
		reply := s.dispatch(sess, call)
		if call.Header.Type == thrift.ONEWAY {
			continue
		}
		if err = reply.Write(ctx, proto); err != nil {
			s.stats.IncWriteReplyErr()
			log.Warnw("write reply failed", "method", call.Header.Name, "err", err)
			break
		}
	}
	log.Infow("connection closed")
}

func (s *Server) dispatch(sess *session, call *message.Call) message.TMessage {
	name, seqId := call.Header.Name, call.Header.SeqId
	invalidArgs := func(err error) message.TMessage {
		s.stats.IncInvalidArgsErr()
		return message.NewThriftErrorMessage(name, seqId, thrift.PROTOCOL_ERROR, fmt.Errorf("%v: %w", name, err))
	}
	reply := message.NewReply(name, seqId)
	switch name {
	case MethodHash:
		if !call.HasData {
			return invalidArgs(ErrMissingData)
		}
		s.stats.AddBytes(len(call.Data))
		reply.SetI64(int64(s.hashers.Sum(call.Data)))
	case MethodHashSeeded:
		if !call.HasData {
			return invalidArgs(ErrMissingData)
		}
		if !call.HasSeed {
			return invalidArgs(ErrMissingSeed)
		}
		s.stats.AddBytes(len(call.Data))
		h := hashkit.NewMurmur3(uint32(call.Seed))
		h.Write(call.Data)
		reply.SetI64(int64(h.Finish()))
	case MethodWrite:
		if !call.HasData {
			return invalidArgs(ErrMissingData)
		}
		s.stats.AddBytes(len(call.Data))
		sess.hasher.Write(call.Data)
	case MethodFinish:
		reply.SetI64(int64(sess.hasher.Finish()))
	case MethodReset:
		sess.hasher = s.builder.BuildHasher()
	case MethodStats:
		out, err := s.stats.JSON()
		if err != nil {
			return message.NewThriftErrorMessage(name, seqId, thrift.INTERNAL_ERROR, err)
		}
		reply.SetString(out)
	default:
		s.stats.IncUnknownMethodErr()
		return message.NewThriftErrorMessage(name, seqId, thrift.UNKNOWN_METHOD, fmt.Errorf("unknown method %v", name))
	}
	s.stats.AddMethodStat(name)
	return reply
}
