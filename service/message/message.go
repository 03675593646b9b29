package message

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

type TMessage interface {
	Read(ctx context.Context, proto thrift.TProtocol) error
	Write(ctx context.Context, proto thrift.TProtocol) error
	Reset()
}

type ThriftMessageHeader struct {
	Name  string
	Type  thrift.TMessageType
	SeqId int32
}

func NewThriftMessageHeader() *ThriftMessageHeader {
	return &ThriftMessageHeader{
		Name:  "",
		Type:  thrift.INVALID_TMESSAGE_TYPE,
		SeqId: -1,
	}
}

func (p *ThriftMessageHeader) Read(ctx context.Context, proto thrift.TProtocol) error {
	name, typeId, seqId, err := proto.ReadMessageBegin(ctx)
	if err != nil {
		return err
	}
	p.Name = name
	p.Type = typeId
	p.SeqId = seqId
	return nil
}

func (p *ThriftMessageHeader) Reset() {
	p.Name = ""
	p.Type = thrift.INVALID_TMESSAGE_TYPE
	p.SeqId = -1
}

func (p *ThriftMessageHeader) String() string {
	return fmt.Sprintf("Name: %v, Type: %v, SeqId: %v", p.Name, p.Type, p.SeqId)
}

const (
	dataFieldId int16 = 1
	seedFieldId int16 = 2
)

// Call is a request of the hash service. Every method takes an optional
// binary field 1 and an optional i32 field 2; other fields are skipped.
type Call struct {
	Header  ThriftMessageHeader
	Data    []byte
	HasData bool
	Seed    int32
	HasSeed bool
}

var _ TMessage = (*Call)(nil)

func NewCall(name string, seqId int32) *Call {
	return &Call{Header: ThriftMessageHeader{Name: name, Type: thrift.CALL, SeqId: seqId}}
}

func (m *Call) WithData(data []byte) *Call {
	m.Data, m.HasData = data, true
	return m
}

func (m *Call) WithSeed(seed int32) *Call {
	m.Seed, m.HasSeed = seed, true
	return m
}

func (m *Call) Read(ctx context.Context, proto thrift.TProtocol) error {
	if err := m.Header.Read(ctx, proto); err != nil {
		return err
	}
	return m.ReadArgs(ctx, proto)
}

// ReadArgs reads the args struct and the message end. Fields with an
// unexpected type are skipped so the stream stays in sync.
func (m *Call) ReadArgs(ctx context.Context, proto thrift.TProtocol) error {
	if _, err := proto.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, fieldId, err := proto.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch {
		case fieldId == dataFieldId && fieldType == thrift.STRING:
			if m.Data, err = proto.ReadBinary(ctx); err != nil {
				return err
			}
			m.HasData = true
		case fieldId == seedFieldId && fieldType == thrift.I32:
			if m.Seed, err = proto.ReadI32(ctx); err != nil {
				return err
			}
			m.HasSeed = true
		default:
			if err = proto.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err = proto.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := proto.ReadStructEnd(ctx); err != nil {
		return err
	}
	return proto.ReadMessageEnd(ctx)
}

func (m *Call) Write(ctx context.Context, proto thrift.TProtocol) (err error) {
	if err = proto.WriteMessageBegin(ctx, m.Header.Name, thrift.CALL, m.Header.SeqId); err != nil {
		return err
	}
	if err = proto.WriteStructBegin(ctx, m.Header.Name+"_args"); err != nil {
		return err
	}
	if m.HasData {
		if err = proto.WriteFieldBegin(ctx, "data", thrift.STRING, dataFieldId); err != nil {
			return err
		}
		if err = proto.WriteBinary(ctx, m.Data); err != nil {
			return err
		}
		if err = proto.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if m.HasSeed {
		if err = proto.WriteFieldBegin(ctx, "seed", thrift.I32, seedFieldId); err != nil {
			return err
		}
		if err = proto.WriteI32(ctx, m.Seed); err != nil {
			return err
		}
		if err = proto.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err = proto.WriteFieldStop(ctx); err != nil {
		return err
	}
	if err = proto.WriteStructEnd(ctx); err != nil {
		return err
	}
	if err = proto.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return proto.Flush(ctx)
}

func (m *Call) Reset() {
	m.Header.Reset()
	m.Data = nil
	m.HasData = false
	m.Seed = 0
	m.HasSeed = false
}

type ResultKind int8

const (
	ResultVoid ResultKind = iota
	ResultI64
	ResultString
)

// Reply carries the result of a call in field 0 of the result struct.
type Reply struct {
	Header ThriftMessageHeader
	Kind   ResultKind
	I64    int64
	Str    string
}

var _ TMessage = (*Reply)(nil)

func NewReply(name string, seqId int32) *Reply {
	return &Reply{Header: ThriftMessageHeader{Name: name, Type: thrift.REPLY, SeqId: seqId}}
}

func (m *Reply) SetI64(v int64) *Reply {
	m.Kind, m.I64 = ResultI64, v
	return m
}

func (m *Reply) SetString(s string) *Reply {
	m.Kind, m.Str = ResultString, s
	return m
}

// Read reads a reply. An EXCEPTION message is returned as a
// thrift.TApplicationException.
func (m *Reply) Read(ctx context.Context, proto thrift.TProtocol) error {
	if err := m.Header.Read(ctx, proto); err != nil {
		return err
	}
	if m.Header.Type == thrift.EXCEPTION {
		appErr := thrift.NewTApplicationException(thrift.UNKNOWN_APPLICATION_EXCEPTION, "")
		if err := appErr.Read(ctx, proto); err != nil {
			return err
		}
		if err := proto.ReadMessageEnd(ctx); err != nil {
			return err
		}
		return appErr
	}
	if _, err := proto.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, fieldId, err := proto.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch {
		case fieldId == 0 && fieldType == thrift.I64:
			if m.I64, err = proto.ReadI64(ctx); err != nil {
				return err
			}
			m.Kind = ResultI64
		case fieldId == 0 && fieldType == thrift.STRING:
			if m.Str, err = proto.ReadString(ctx); err != nil {
				return err
			}
			m.Kind = ResultString
		default:
			if err = proto.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err = proto.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := proto.ReadStructEnd(ctx); err != nil {
		return err
	}
	return proto.ReadMessageEnd(ctx)
}

func (m *Reply) Write(ctx context.Context, proto thrift.TProtocol) (err error) {
	if err = proto.WriteMessageBegin(ctx, m.Header.Name, thrift.REPLY, m.Header.SeqId); err != nil {
		return err
	}
	if err = proto.WriteStructBegin(ctx, m.Header.Name+"_result"); err != nil {
		return err
	}
	switch m.Kind {
	case ResultI64:
		if err = proto.WriteFieldBegin(ctx, "success", thrift.I64, 0); err != nil {
			return err
		}
		if err = proto.WriteI64(ctx, m.I64); err != nil {
			return err
		}
		if err = proto.WriteFieldEnd(ctx); err != nil {
			return err
		}
	case ResultString:
		if err = proto.WriteFieldBegin(ctx, "success", thrift.STRING, 0); err != nil {
			return err
		}
		if err = proto.WriteString(ctx, m.Str); err != nil {
			return err
		}
		if err = proto.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err = proto.WriteFieldStop(ctx); err != nil {
		return err
	}
	if err = proto.WriteStructEnd(ctx); err != nil {
		return err
	}
	if err = proto.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return proto.Flush(ctx)
}

func (m *Reply) Reset() {
	m.Header.Reset()
	m.Kind = ResultVoid
	m.I64 = 0
	m.Str = ""
}

type ThriftErrorMessage struct {
	Header ThriftMessageHeader
	Code   int32
	Err    error
}

var _ TMessage = (*ThriftErrorMessage)(nil)

func NewThriftErrorMessage(name string, seqId int32, code int32, err error) *ThriftErrorMessage {
	return &ThriftErrorMessage{
		Header: ThriftMessageHeader{
			Name:  name,
			Type:  thrift.EXCEPTION,
			SeqId: seqId,
		},
		Code: code,
		Err:  err,
	}
}

func (m *ThriftErrorMessage) Read(ctx context.Context, proto thrift.TProtocol) error {
	return nil
}

func (m *ThriftErrorMessage) Write(ctx context.Context, proto thrift.TProtocol) (err error) {
	if err = proto.WriteMessageBegin(ctx, m.Header.Name, thrift.EXCEPTION, m.Header.SeqId); err != nil {
		return err
	}
	wrappedErr := thrift.NewTApplicationException(m.Code, m.Err.Error())
	if err = wrappedErr.Write(ctx, proto); err != nil {
		return err
	}
	if err = proto.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return proto.Flush(ctx)
}

func (m *ThriftErrorMessage) Reset() {
	m.Header.Reset()
	m.Code = thrift.UNKNOWN_APPLICATION_EXCEPTION
	m.Err = nil
}
