package encoding

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// Method is implemented by every AMQP 0-9-1 method argument list. ClassID
// and MethodID identify the (class, method) pair from the protocol's
// method table; Write/Read marshal the argument list only — the method
// frame's class-id/method-id header fields are written by the framing
// layer, not here.
type Method interface {
	ClassID() uint16
	MethodID() uint16
	Write(w io.Writer) error
	Read(r io.Reader) error
}

// Synchronous reports whether m's class requires a single paired reply
// before another synchronous method may be issued on the channel (§4.3).
// basic.publish, basic.ack/nack/reject, basic.recover-async, the
// broker-pushed basic.deliver / basic.return, and connection.blocked /
// connection.unblocked are not synchronous; every other method, replies
// such as channel.flow-ok included, reports true.
func Synchronous(m Method) bool {
	switch m.(type) {
	case *BasicPublish, *BasicAck, *BasicNack, *BasicReject, *BasicDeliver,
		*BasicReturn, *BasicRecoverAsync, *ConnectionBlocked, *ConnectionUnblocked:
		return false
	default:
		return true
	}
}

type methodKey struct{ class, method uint16 }

var methodTable = map[methodKey]func() Method{}

func register(m Method, factory func() Method) {
	methodTable[methodKey{m.ClassID(), m.MethodID()}] = factory
}

// New returns a zero-value instance of the method identified by (class,
// method), ready to have Read called on it, or false if the pair is not
// part of the descriptor table.
func New(class, method uint16) (Method, bool) {
	factory, ok := methodTable[methodKey{class, method}]
	if !ok {
		return nil, false
	}
	return factory(), true
}

func init() {
	register(&ConnectionStart{}, func() Method { return &ConnectionStart{} })
	register(&ConnectionStartOk{}, func() Method { return &ConnectionStartOk{} })
	register(&ConnectionTune{}, func() Method { return &ConnectionTune{} })
	register(&ConnectionTuneOk{}, func() Method { return &ConnectionTuneOk{} })
	register(&ConnectionOpen{}, func() Method { return &ConnectionOpen{} })
	register(&ConnectionOpenOk{}, func() Method { return &ConnectionOpenOk{} })
	register(&ConnectionClose{}, func() Method { return &ConnectionClose{} })
	register(&ConnectionCloseOk{}, func() Method { return &ConnectionCloseOk{} })
	register(&ConnectionBlocked{}, func() Method { return &ConnectionBlocked{} })
	register(&ConnectionUnblocked{}, func() Method { return &ConnectionUnblocked{} })

	register(&ChannelOpen{}, func() Method { return &ChannelOpen{} })
	register(&ChannelOpenOk{}, func() Method { return &ChannelOpenOk{} })
	register(&ChannelFlow{}, func() Method { return &ChannelFlow{} })
	register(&ChannelFlowOk{}, func() Method { return &ChannelFlowOk{} })
	register(&ChannelClose{}, func() Method { return &ChannelClose{} })
	register(&ChannelCloseOk{}, func() Method { return &ChannelCloseOk{} })

	register(&ExchangeDeclare{}, func() Method { return &ExchangeDeclare{} })
	register(&ExchangeDeclareOk{}, func() Method { return &ExchangeDeclareOk{} })
	register(&ExchangeDelete{}, func() Method { return &ExchangeDelete{} })
	register(&ExchangeDeleteOk{}, func() Method { return &ExchangeDeleteOk{} })
	register(&ExchangeBind{}, func() Method { return &ExchangeBind{} })
	register(&ExchangeBindOk{}, func() Method { return &ExchangeBindOk{} })
	register(&ExchangeUnbind{}, func() Method { return &ExchangeUnbind{} })
	register(&ExchangeUnbindOk{}, func() Method { return &ExchangeUnbindOk{} })

	register(&QueueDeclare{}, func() Method { return &QueueDeclare{} })
	register(&QueueDeclareOk{}, func() Method { return &QueueDeclareOk{} })
	register(&QueueBind{}, func() Method { return &QueueBind{} })
	register(&QueueBindOk{}, func() Method { return &QueueBindOk{} })
	register(&QueueUnbind{}, func() Method { return &QueueUnbind{} })
	register(&QueueUnbindOk{}, func() Method { return &QueueUnbindOk{} })
	register(&QueuePurge{}, func() Method { return &QueuePurge{} })
	register(&QueuePurgeOk{}, func() Method { return &QueuePurgeOk{} })
	register(&QueueDelete{}, func() Method { return &QueueDelete{} })
	register(&QueueDeleteOk{}, func() Method { return &QueueDeleteOk{} })

	register(&BasicQos{}, func() Method { return &BasicQos{} })
	register(&BasicQosOk{}, func() Method { return &BasicQosOk{} })
	register(&BasicConsume{}, func() Method { return &BasicConsume{} })
	register(&BasicConsumeOk{}, func() Method { return &BasicConsumeOk{} })
	register(&BasicCancel{}, func() Method { return &BasicCancel{} })
	register(&BasicCancelOk{}, func() Method { return &BasicCancelOk{} })
	register(&BasicPublish{}, func() Method { return &BasicPublish{} })
	register(&BasicReturn{}, func() Method { return &BasicReturn{} })
	register(&BasicDeliver{}, func() Method { return &BasicDeliver{} })
	register(&BasicGet{}, func() Method { return &BasicGet{} })
	register(&BasicGetOk{}, func() Method { return &BasicGetOk{} })
	register(&BasicGetEmpty{}, func() Method { return &BasicGetEmpty{} })
	register(&BasicAck{}, func() Method { return &BasicAck{} })
	register(&BasicReject{}, func() Method { return &BasicReject{} })
	register(&BasicRecoverAsync{}, func() Method { return &BasicRecoverAsync{} })
	register(&BasicRecover{}, func() Method { return &BasicRecover{} })
	register(&BasicRecoverOk{}, func() Method { return &BasicRecoverOk{} })
	register(&BasicNack{}, func() Method { return &BasicNack{} })

	register(&ConfirmSelect{}, func() Method { return &ConfirmSelect{} })
	register(&ConfirmSelectOk{}, func() Method { return &ConfirmSelectOk{} })

	register(&TxSelect{}, func() Method { return &TxSelect{} })
	register(&TxSelectOk{}, func() Method { return &TxSelectOk{} })
	register(&TxCommit{}, func() Method { return &TxCommit{} })
	register(&TxCommitOk{}, func() Method { return &TxCommitOk{} })
	register(&TxRollback{}, func() Method { return &TxRollback{} })
	register(&TxRollbackOk{}, func() Method { return &TxRollbackOk{} })
}

// marshal/unmarshal helpers shared by every method below: they build one
// writer/reader over the wire stream so each field read/write can set a
// sticky error rather than threading `if err != nil` through every method.

func wrErr(w io.Writer, f func(*writer)) error {
	wr := newWriter(w)
	f(wr)
	return wr.err
}

func rdErr(r io.Reader, f func(*reader)) error {
	rd := newReader(r)
	f(rd)
	return rd.err
}

// --- connection class (10) ---

type ConnectionStart struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func (*ConnectionStart) ClassID() uint16  { return 10 }
func (*ConnectionStart) MethodID() uint16 { return 10 }
func (m *ConnectionStart) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteOctet(m.VersionMajor)
		wr.WriteOctet(m.VersionMinor)
		wr.WriteTable(m.ServerProperties)
		wr.WriteLongstr(m.Mechanisms)
		wr.WriteLongstr(m.Locales)
	})
}
func (m *ConnectionStart) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.VersionMajor = rd.ReadOctet()
		m.VersionMinor = rd.ReadOctet()
		m.ServerProperties = rd.ReadTable()
		m.Mechanisms = rd.ReadLongstr()
		m.Locales = rd.ReadLongstr()
	})
}

type ConnectionStartOk struct {
	ClientProperties Table
	Mechanism        string
	Response         string
	Locale           string
}

func (*ConnectionStartOk) ClassID() uint16  { return 10 }
func (*ConnectionStartOk) MethodID() uint16 { return 11 }
func (m *ConnectionStartOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteTable(m.ClientProperties)
		wr.WriteShortstr(m.Mechanism)
		wr.WriteLongstr(m.Response)
		wr.WriteShortstr(m.Locale)
	})
}
func (m *ConnectionStartOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ClientProperties = rd.ReadTable()
		m.Mechanism = rd.ReadShortstr()
		m.Response = rd.ReadLongstr()
		m.Locale = rd.ReadShortstr()
	})
}

type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTune) ClassID() uint16  { return 10 }
func (*ConnectionTune) MethodID() uint16 { return 30 }
func (m *ConnectionTune) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.ChannelMax)
		wr.WriteLong(m.FrameMax)
		wr.WriteShort(m.Heartbeat)
	})
}
func (m *ConnectionTune) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ChannelMax = rd.ReadShort()
		m.FrameMax = rd.ReadLong()
		m.Heartbeat = rd.ReadShort()
	})
}

type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (*ConnectionTuneOk) ClassID() uint16  { return 10 }
func (*ConnectionTuneOk) MethodID() uint16 { return 31 }
func (m *ConnectionTuneOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.ChannelMax)
		wr.WriteLong(m.FrameMax)
		wr.WriteShort(m.Heartbeat)
	})
}
func (m *ConnectionTuneOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ChannelMax = rd.ReadShort()
		m.FrameMax = rd.ReadLong()
		m.Heartbeat = rd.ReadShort()
	})
}

type ConnectionOpen struct {
	VirtualHost string
	reserved1   string
	reserved2   bool
}

func (*ConnectionOpen) ClassID() uint16  { return 10 }
func (*ConnectionOpen) MethodID() uint16 { return 40 }
func (m *ConnectionOpen) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShortstr(m.VirtualHost)
		wr.WriteShortstr(m.reserved1)
		bw := newBitWriter(wr)
		bw.Put(m.reserved2)
		bw.Flush()
	})
}
func (m *ConnectionOpen) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.VirtualHost = rd.ReadShortstr()
		m.reserved1 = rd.ReadShortstr()
		br := newBitReader(rd)
		m.reserved2 = br.Next()
	})
}

type ConnectionOpenOk struct {
	reserved1 string
}

func (*ConnectionOpenOk) ClassID() uint16  { return 10 }
func (*ConnectionOpenOk) MethodID() uint16 { return 41 }
func (m *ConnectionOpenOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.reserved1) })
}
func (m *ConnectionOpenOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.reserved1 = rd.ReadShortstr() })
}

type ConnectionClose struct {
	ReplyCode     uint16
	ReplyText     string
	FailedClassID uint16
	FailedMethodID uint16
}

func (*ConnectionClose) ClassID() uint16  { return 10 }
func (*ConnectionClose) MethodID() uint16 { return 50 }
func (m *ConnectionClose) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.ReplyCode)
		wr.WriteShortstr(m.ReplyText)
		wr.WriteShort(m.FailedClassID)
		wr.WriteShort(m.FailedMethodID)
	})
}
func (m *ConnectionClose) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ReplyCode = rd.ReadShort()
		m.ReplyText = rd.ReadShortstr()
		m.FailedClassID = rd.ReadShort()
		m.FailedMethodID = rd.ReadShort()
	})
}

type ConnectionCloseOk struct{}

func (*ConnectionCloseOk) ClassID() uint16          { return 10 }
func (*ConnectionCloseOk) MethodID() uint16         { return 51 }
func (*ConnectionCloseOk) Write(io.Writer) error    { return nil }
func (*ConnectionCloseOk) Read(io.Reader) error     { return nil }

// ConnectionBlocked/Unblocked are the RabbitMQ connection.blocked extension
// (supplemented per SPEC_FULL §3).
type ConnectionBlocked struct {
	Reason string
}

func (*ConnectionBlocked) ClassID() uint16  { return 10 }
func (*ConnectionBlocked) MethodID() uint16 { return 60 }
func (m *ConnectionBlocked) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.Reason) })
}
func (m *ConnectionBlocked) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.Reason = rd.ReadShortstr() })
}

type ConnectionUnblocked struct{}

func (*ConnectionUnblocked) ClassID() uint16       { return 10 }
func (*ConnectionUnblocked) MethodID() uint16      { return 61 }
func (*ConnectionUnblocked) Write(io.Writer) error { return nil }
func (*ConnectionUnblocked) Read(io.Reader) error  { return nil }

// --- channel class (20) ---

type ChannelOpen struct{ reserved1 string }

func (*ChannelOpen) ClassID() uint16  { return 20 }
func (*ChannelOpen) MethodID() uint16 { return 10 }
func (m *ChannelOpen) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.reserved1) })
}
func (m *ChannelOpen) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.reserved1 = rd.ReadShortstr() })
}

type ChannelOpenOk struct{ reserved1 string }

func (*ChannelOpenOk) ClassID() uint16  { return 20 }
func (*ChannelOpenOk) MethodID() uint16 { return 11 }
func (m *ChannelOpenOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteLongstr(m.reserved1) })
}
func (m *ChannelOpenOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.reserved1 = rd.ReadLongstr() })
}

type ChannelFlow struct{ Active bool }

func (*ChannelFlow) ClassID() uint16  { return 20 }
func (*ChannelFlow) MethodID() uint16 { return 20 }
func (m *ChannelFlow) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		bw := newBitWriter(wr)
		bw.Put(m.Active)
		bw.Flush()
	})
}
func (m *ChannelFlow) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		br := newBitReader(rd)
		m.Active = br.Next()
	})
}

type ChannelFlowOk struct{ Active bool }

func (*ChannelFlowOk) ClassID() uint16  { return 20 }
func (*ChannelFlowOk) MethodID() uint16 { return 21 }
func (m *ChannelFlowOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		bw := newBitWriter(wr)
		bw.Put(m.Active)
		bw.Flush()
	})
}
func (m *ChannelFlowOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		br := newBitReader(rd)
		m.Active = br.Next()
	})
}

type ChannelClose struct {
	ReplyCode      uint16
	ReplyText      string
	FailedClassID  uint16
	FailedMethodID uint16
}

func (*ChannelClose) ClassID() uint16  { return 20 }
func (*ChannelClose) MethodID() uint16 { return 40 }
func (m *ChannelClose) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.ReplyCode)
		wr.WriteShortstr(m.ReplyText)
		wr.WriteShort(m.FailedClassID)
		wr.WriteShort(m.FailedMethodID)
	})
}
func (m *ChannelClose) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ReplyCode = rd.ReadShort()
		m.ReplyText = rd.ReadShortstr()
		m.FailedClassID = rd.ReadShort()
		m.FailedMethodID = rd.ReadShort()
	})
}

type ChannelCloseOk struct{}

func (*ChannelCloseOk) ClassID() uint16       { return 20 }
func (*ChannelCloseOk) MethodID() uint16      { return 41 }
func (*ChannelCloseOk) Write(io.Writer) error { return nil }
func (*ChannelCloseOk) Read(io.Reader) error  { return nil }

// --- exchange class (40) ---

type ExchangeDeclare struct {
	reserved1  uint16
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (*ExchangeDeclare) ClassID() uint16  { return 40 }
func (*ExchangeDeclare) MethodID() uint16 { return 10 }
func (m *ExchangeDeclare) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.Type)
		bw := newBitWriter(wr)
		bw.Put(m.Passive)
		bw.Put(m.Durable)
		bw.Put(m.AutoDelete)
		bw.Put(m.Internal)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *ExchangeDeclare) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Exchange = rd.ReadShortstr()
		m.Type = rd.ReadShortstr()
		br := newBitReader(rd)
		m.Passive = br.Next()
		m.Durable = br.Next()
		m.AutoDelete = br.Next()
		m.Internal = br.Next()
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type ExchangeDeclareOk struct{}

func (*ExchangeDeclareOk) ClassID() uint16       { return 40 }
func (*ExchangeDeclareOk) MethodID() uint16      { return 11 }
func (*ExchangeDeclareOk) Write(io.Writer) error { return nil }
func (*ExchangeDeclareOk) Read(io.Reader) error  { return nil }

type ExchangeDelete struct {
	reserved1 uint16
	Exchange  string
	IfUnused  bool
	NoWait    bool
}

func (*ExchangeDelete) ClassID() uint16  { return 40 }
func (*ExchangeDelete) MethodID() uint16 { return 20 }
func (m *ExchangeDelete) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Exchange)
		bw := newBitWriter(wr)
		bw.Put(m.IfUnused)
		bw.Put(m.NoWait)
		bw.Flush()
	})
}
func (m *ExchangeDelete) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Exchange = rd.ReadShortstr()
		br := newBitReader(rd)
		m.IfUnused = br.Next()
		m.NoWait = br.Next()
	})
}

type ExchangeDeleteOk struct{}

func (*ExchangeDeleteOk) ClassID() uint16       { return 40 }
func (*ExchangeDeleteOk) MethodID() uint16      { return 21 }
func (*ExchangeDeleteOk) Write(io.Writer) error { return nil }
func (*ExchangeDeleteOk) Read(io.Reader) error  { return nil }

type ExchangeBind struct {
	reserved1   uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeBind) ClassID() uint16  { return 40 }
func (*ExchangeBind) MethodID() uint16 { return 30 }
func (m *ExchangeBind) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Destination)
		wr.WriteShortstr(m.Source)
		wr.WriteShortstr(m.RoutingKey)
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *ExchangeBind) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Destination = rd.ReadShortstr()
		m.Source = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type ExchangeBindOk struct{}

func (*ExchangeBindOk) ClassID() uint16       { return 40 }
func (*ExchangeBindOk) MethodID() uint16      { return 31 }
func (*ExchangeBindOk) Write(io.Writer) error { return nil }
func (*ExchangeBindOk) Read(io.Reader) error  { return nil }

type ExchangeUnbind struct {
	reserved1   uint16
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   Table
}

func (*ExchangeUnbind) ClassID() uint16  { return 40 }
func (*ExchangeUnbind) MethodID() uint16 { return 40 }
func (m *ExchangeUnbind) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Destination)
		wr.WriteShortstr(m.Source)
		wr.WriteShortstr(m.RoutingKey)
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *ExchangeUnbind) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Destination = rd.ReadShortstr()
		m.Source = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type ExchangeUnbindOk struct{}

func (*ExchangeUnbindOk) ClassID() uint16       { return 40 }
func (*ExchangeUnbindOk) MethodID() uint16      { return 51 }
func (*ExchangeUnbindOk) Write(io.Writer) error { return nil }
func (*ExchangeUnbindOk) Read(io.Reader) error  { return nil }

// --- queue class (50) ---

type QueueDeclare struct {
	reserved1  uint16
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (*QueueDeclare) ClassID() uint16  { return 50 }
func (*QueueDeclare) MethodID() uint16 { return 10 }
func (m *QueueDeclare) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		bw := newBitWriter(wr)
		bw.Put(m.Passive)
		bw.Put(m.Durable)
		bw.Put(m.Exclusive)
		bw.Put(m.AutoDelete)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *QueueDeclare) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		br := newBitReader(rd)
		m.Passive = br.Next()
		m.Durable = br.Next()
		m.Exclusive = br.Next()
		m.AutoDelete = br.Next()
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (*QueueDeclareOk) ClassID() uint16  { return 50 }
func (*QueueDeclareOk) MethodID() uint16 { return 11 }
func (m *QueueDeclareOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShortstr(m.Queue)
		wr.WriteLong(m.MessageCount)
		wr.WriteLong(m.ConsumerCount)
	})
}
func (m *QueueDeclareOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.Queue = rd.ReadShortstr()
		m.MessageCount = rd.ReadLong()
		m.ConsumerCount = rd.ReadLong()
	})
}

type QueueBind struct {
	reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (*QueueBind) ClassID() uint16  { return 50 }
func (*QueueBind) MethodID() uint16 { return 20 }
func (m *QueueBind) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *QueueBind) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type QueueBindOk struct{}

func (*QueueBindOk) ClassID() uint16       { return 50 }
func (*QueueBindOk) MethodID() uint16      { return 21 }
func (*QueueBindOk) Write(io.Writer) error { return nil }
func (*QueueBindOk) Read(io.Reader) error  { return nil }

type QueueUnbind struct {
	reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (*QueueUnbind) ClassID() uint16  { return 50 }
func (*QueueUnbind) MethodID() uint16 { return 50 }
func (m *QueueUnbind) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
		wr.WriteTable(m.Arguments)
	})
}
func (m *QueueUnbind) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		m.Arguments = rd.ReadTable()
	})
}

type QueueUnbindOk struct{}

func (*QueueUnbindOk) ClassID() uint16       { return 50 }
func (*QueueUnbindOk) MethodID() uint16      { return 51 }
func (*QueueUnbindOk) Write(io.Writer) error { return nil }
func (*QueueUnbindOk) Read(io.Reader) error  { return nil }

type QueuePurge struct {
	reserved1 uint16
	Queue     string
	NoWait    bool
}

func (*QueuePurge) ClassID() uint16  { return 50 }
func (*QueuePurge) MethodID() uint16 { return 30 }
func (m *QueuePurge) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
	})
}
func (m *QueuePurge) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoWait = br.Next()
	})
}

type QueuePurgeOk struct{ MessageCount uint32 }

func (*QueuePurgeOk) ClassID() uint16  { return 50 }
func (*QueuePurgeOk) MethodID() uint16 { return 31 }
func (m *QueuePurgeOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteLong(m.MessageCount) })
}
func (m *QueuePurgeOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.MessageCount = rd.ReadLong() })
}

type QueueDelete struct {
	reserved1 uint16
	Queue     string
	IfUnused  bool
	IfEmpty   bool
	NoWait    bool
}

func (*QueueDelete) ClassID() uint16  { return 50 }
func (*QueueDelete) MethodID() uint16 { return 40 }
func (m *QueueDelete) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		bw := newBitWriter(wr)
		bw.Put(m.IfUnused)
		bw.Put(m.IfEmpty)
		bw.Put(m.NoWait)
		bw.Flush()
	})
}
func (m *QueueDelete) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		br := newBitReader(rd)
		m.IfUnused = br.Next()
		m.IfEmpty = br.Next()
		m.NoWait = br.Next()
	})
}

type QueueDeleteOk struct{ MessageCount uint32 }

func (*QueueDeleteOk) ClassID() uint16  { return 50 }
func (*QueueDeleteOk) MethodID() uint16 { return 41 }
func (m *QueueDeleteOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteLong(m.MessageCount) })
}
func (m *QueueDeleteOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.MessageCount = rd.ReadLong() })
}

// --- basic class (60) ---

type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (*BasicQos) ClassID() uint16  { return 60 }
func (*BasicQos) MethodID() uint16 { return 10 }
func (m *BasicQos) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteLong(m.PrefetchSize)
		wr.WriteShort(m.PrefetchCount)
		bw := newBitWriter(wr)
		bw.Put(m.Global)
		bw.Flush()
	})
}
func (m *BasicQos) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.PrefetchSize = rd.ReadLong()
		m.PrefetchCount = rd.ReadShort()
		br := newBitReader(rd)
		m.Global = br.Next()
	})
}

type BasicQosOk struct{}

func (*BasicQosOk) ClassID() uint16       { return 60 }
func (*BasicQosOk) MethodID() uint16      { return 11 }
func (*BasicQosOk) Write(io.Writer) error { return nil }
func (*BasicQosOk) Read(io.Reader) error  { return nil }

type BasicConsume struct {
	reserved1   uint16
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (*BasicConsume) ClassID() uint16  { return 60 }
func (*BasicConsume) MethodID() uint16 { return 20 }
func (m *BasicConsume) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		wr.WriteShortstr(m.ConsumerTag)
		bw := newBitWriter(wr)
		bw.Put(m.NoLocal)
		bw.Put(m.NoAck)
		bw.Put(m.Exclusive)
		bw.Put(m.NoWait)
		bw.Flush()
		wr.WriteTable(m.Arguments)
	})
}
func (m *BasicConsume) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		m.ConsumerTag = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoLocal = br.Next()
		m.NoAck = br.Next()
		m.Exclusive = br.Next()
		m.NoWait = br.Next()
		m.Arguments = rd.ReadTable()
	})
}

type BasicConsumeOk struct{ ConsumerTag string }

func (*BasicConsumeOk) ClassID() uint16  { return 60 }
func (*BasicConsumeOk) MethodID() uint16 { return 21 }
func (m *BasicConsumeOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.ConsumerTag) })
}
func (m *BasicConsumeOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.ConsumerTag = rd.ReadShortstr() })
}

type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (*BasicCancel) ClassID() uint16  { return 60 }
func (*BasicCancel) MethodID() uint16 { return 30 }
func (m *BasicCancel) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShortstr(m.ConsumerTag)
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
	})
}
func (m *BasicCancel) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ConsumerTag = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoWait = br.Next()
	})
}

type BasicCancelOk struct{ ConsumerTag string }

func (*BasicCancelOk) ClassID() uint16  { return 60 }
func (*BasicCancelOk) MethodID() uint16 { return 31 }
func (m *BasicCancelOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.ConsumerTag) })
}
func (m *BasicCancelOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.ConsumerTag = rd.ReadShortstr() })
}

type BasicPublish struct {
	reserved1  uint16
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (*BasicPublish) ClassID() uint16  { return 60 }
func (*BasicPublish) MethodID() uint16 { return 40 }
func (m *BasicPublish) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
		bw := newBitWriter(wr)
		bw.Put(m.Mandatory)
		bw.Put(m.Immediate)
		bw.Flush()
	})
}
func (m *BasicPublish) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		br := newBitReader(rd)
		m.Mandatory = br.Next()
		m.Immediate = br.Next()
	})
}

type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (*BasicReturn) ClassID() uint16  { return 60 }
func (*BasicReturn) MethodID() uint16 { return 50 }
func (m *BasicReturn) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.ReplyCode)
		wr.WriteShortstr(m.ReplyText)
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
	})
}
func (m *BasicReturn) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ReplyCode = rd.ReadShort()
		m.ReplyText = rd.ReadShortstr()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
	})
}

type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (*BasicDeliver) ClassID() uint16  { return 60 }
func (*BasicDeliver) MethodID() uint16 { return 60 }
func (m *BasicDeliver) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShortstr(m.ConsumerTag)
		wr.WriteLonglong(m.DeliveryTag)
		bw := newBitWriter(wr)
		bw.Put(m.Redelivered)
		bw.Flush()
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
	})
}
func (m *BasicDeliver) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.ConsumerTag = rd.ReadShortstr()
		m.DeliveryTag = rd.ReadLonglong()
		br := newBitReader(rd)
		m.Redelivered = br.Next()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
	})
}

type BasicGet struct {
	reserved1 uint16
	Queue     string
	NoAck     bool
}

func (*BasicGet) ClassID() uint16  { return 60 }
func (*BasicGet) MethodID() uint16 { return 70 }
func (m *BasicGet) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteShort(m.reserved1)
		wr.WriteShortstr(m.Queue)
		bw := newBitWriter(wr)
		bw.Put(m.NoAck)
		bw.Flush()
	})
}
func (m *BasicGet) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.reserved1 = rd.ReadShort()
		m.Queue = rd.ReadShortstr()
		br := newBitReader(rd)
		m.NoAck = br.Next()
	})
}

type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (*BasicGetOk) ClassID() uint16  { return 60 }
func (*BasicGetOk) MethodID() uint16 { return 71 }
func (m *BasicGetOk) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteLonglong(m.DeliveryTag)
		bw := newBitWriter(wr)
		bw.Put(m.Redelivered)
		bw.Flush()
		wr.WriteShortstr(m.Exchange)
		wr.WriteShortstr(m.RoutingKey)
		wr.WriteLong(m.MessageCount)
	})
}
func (m *BasicGetOk) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.DeliveryTag = rd.ReadLonglong()
		br := newBitReader(rd)
		m.Redelivered = br.Next()
		m.Exchange = rd.ReadShortstr()
		m.RoutingKey = rd.ReadShortstr()
		m.MessageCount = rd.ReadLong()
	})
}

type BasicGetEmpty struct{ reserved1 string }

func (*BasicGetEmpty) ClassID() uint16  { return 60 }
func (*BasicGetEmpty) MethodID() uint16 { return 72 }
func (m *BasicGetEmpty) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) { wr.WriteShortstr(m.reserved1) })
}
func (m *BasicGetEmpty) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) { m.reserved1 = rd.ReadShortstr() })
}

type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (*BasicAck) ClassID() uint16  { return 60 }
func (*BasicAck) MethodID() uint16 { return 80 }
func (m *BasicAck) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteLonglong(m.DeliveryTag)
		bw := newBitWriter(wr)
		bw.Put(m.Multiple)
		bw.Flush()
	})
}
func (m *BasicAck) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.DeliveryTag = rd.ReadLonglong()
		br := newBitReader(rd)
		m.Multiple = br.Next()
	})
}

type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (*BasicReject) ClassID() uint16  { return 60 }
func (*BasicReject) MethodID() uint16 { return 90 }
func (m *BasicReject) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteLonglong(m.DeliveryTag)
		bw := newBitWriter(wr)
		bw.Put(m.Requeue)
		bw.Flush()
	})
}
func (m *BasicReject) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.DeliveryTag = rd.ReadLonglong()
		br := newBitReader(rd)
		m.Requeue = br.Next()
	})
}

type BasicRecoverAsync struct{ Requeue bool }

func (*BasicRecoverAsync) ClassID() uint16  { return 60 }
func (*BasicRecoverAsync) MethodID() uint16 { return 100 }
func (m *BasicRecoverAsync) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		bw := newBitWriter(wr)
		bw.Put(m.Requeue)
		bw.Flush()
	})
}
func (m *BasicRecoverAsync) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		br := newBitReader(rd)
		m.Requeue = br.Next()
	})
}

type BasicRecover struct{ Requeue bool }

func (*BasicRecover) ClassID() uint16  { return 60 }
func (*BasicRecover) MethodID() uint16 { return 110 }
func (m *BasicRecover) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		bw := newBitWriter(wr)
		bw.Put(m.Requeue)
		bw.Flush()
	})
}
func (m *BasicRecover) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		br := newBitReader(rd)
		m.Requeue = br.Next()
	})
}

type BasicRecoverOk struct{}

func (*BasicRecoverOk) ClassID() uint16       { return 60 }
func (*BasicRecoverOk) MethodID() uint16      { return 111 }
func (*BasicRecoverOk) Write(io.Writer) error { return nil }
func (*BasicRecoverOk) Read(io.Reader) error  { return nil }

type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (*BasicNack) ClassID() uint16  { return 60 }
func (*BasicNack) MethodID() uint16 { return 120 }
func (m *BasicNack) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		wr.WriteLonglong(m.DeliveryTag)
		bw := newBitWriter(wr)
		bw.Put(m.Multiple)
		bw.Put(m.Requeue)
		bw.Flush()
	})
}
func (m *BasicNack) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		m.DeliveryTag = rd.ReadLonglong()
		br := newBitReader(rd)
		m.Multiple = br.Next()
		m.Requeue = br.Next()
	})
}

// --- confirm class (85) ---

type ConfirmSelect struct{ NoWait bool }

func (*ConfirmSelect) ClassID() uint16  { return 85 }
func (*ConfirmSelect) MethodID() uint16 { return 10 }
func (m *ConfirmSelect) Write(w io.Writer) error {
	return wrErr(w, func(wr *writer) {
		bw := newBitWriter(wr)
		bw.Put(m.NoWait)
		bw.Flush()
	})
}
func (m *ConfirmSelect) Read(r io.Reader) error {
	return rdErr(r, func(rd *reader) {
		br := newBitReader(rd)
		m.NoWait = br.Next()
	})
}

type ConfirmSelectOk struct{}

func (*ConfirmSelectOk) ClassID() uint16       { return 85 }
func (*ConfirmSelectOk) MethodID() uint16      { return 11 }
func (*ConfirmSelectOk) Write(io.Writer) error { return nil }
func (*ConfirmSelectOk) Read(io.Reader) error  { return nil }

// --- tx class (90) ---

type TxSelect struct{}

func (*TxSelect) ClassID() uint16       { return 90 }
func (*TxSelect) MethodID() uint16      { return 10 }
func (*TxSelect) Write(io.Writer) error { return nil }
func (*TxSelect) Read(io.Reader) error  { return nil }

type TxSelectOk struct{}

func (*TxSelectOk) ClassID() uint16       { return 90 }
func (*TxSelectOk) MethodID() uint16      { return 11 }
func (*TxSelectOk) Write(io.Writer) error { return nil }
func (*TxSelectOk) Read(io.Reader) error  { return nil }

type TxCommit struct{}

func (*TxCommit) ClassID() uint16       { return 90 }
func (*TxCommit) MethodID() uint16      { return 20 }
func (*TxCommit) Write(io.Writer) error { return nil }
func (*TxCommit) Read(io.Reader) error  { return nil }

type TxCommitOk struct{}

func (*TxCommitOk) ClassID() uint16       { return 90 }
func (*TxCommitOk) MethodID() uint16      { return 21 }
func (*TxCommitOk) Write(io.Writer) error { return nil }
func (*TxCommitOk) Read(io.Reader) error  { return nil }

type TxRollback struct{}

func (*TxRollback) ClassID() uint16       { return 90 }
func (*TxRollback) MethodID() uint16      { return 30 }
func (*TxRollback) Write(io.Writer) error { return nil }
func (*TxRollback) Read(io.Reader) error  { return nil }

type TxRollbackOk struct{}

func (*TxRollbackOk) ClassID() uint16       { return 90 }
func (*TxRollbackOk) MethodID() uint16      { return 31 }
func (*TxRollbackOk) Write(io.Writer) error { return nil }
func (*TxRollbackOk) Read(io.Reader) error  { return nil }

// EncodeMethod returns class-id, method-id and the argument list as one
// byte slice, in the layout a method frame's payload requires.
func EncodeMethod(m Method) ([]byte, error) {
	var buf bytes.Buffer
	wr := newWriter(&buf)
	wr.WriteShort(m.ClassID())
	wr.WriteShort(m.MethodID())
	if wr.err != nil {
		return nil, wr.err
	}
	if err := m.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMethod reads class-id, method-id and dispatches to the registered
// argument-list decoder.
func DecodeMethod(payload []byte) (Method, error) {
	r := bytes.NewReader(payload)
	rd := newReader(r)
	class := rd.ReadShort()
	method := rd.ReadShort()
	if rd.err != nil {
		return nil, rd.err
	}
	m, ok := New(class, method)
	if !ok {
		return nil, errors.Errorf("encoding: unknown method class=%d method=%d", class, method)
	}
	if err := m.Read(r); err != nil {
		return nil, err
	}
	return m, nil
}
