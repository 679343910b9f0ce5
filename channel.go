package amqp

import (
	"context"
	"sync"

	"github.com/kontrol-systems/amqp091/internal/debug"
	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/kontrol-systems/amqp091/internal/frames"
)

// partialDelivery accumulates a basic.deliver/basic.return/basic.get-ok
// method frame, its content header, and body frames until bodySize bytes
// have arrived (§4.3 "Consumer delivery assembly").
type partialDelivery struct {
	consumerTag string // empty for basic.return / basic.get-ok
	deliveryTag uint64
	redelivered bool
	exchange    string
	routingKey  string
	isReturn    bool
	isGetOk     bool

	classID  uint16
	bodySize uint64
	props    encoding.BasicProperties
	body     []byte
}

func (p *partialDelivery) complete() bool { return uint64(len(p.body)) >= p.bodySize }

// Channel is one allocated AMQP channel: it owns its own state machine,
// a single-slot synchronous-reply correlation, an Acknowledgements
// instance for publisher confirms, a ReturnedMessages instance, and the
// in-progress delivery assembler (§4.3).
type Channel struct {
	id   uint16
	conn *Connection
	log  debug.Component

	frames chan *frames.Frame

	callMu  sync.Mutex // serializes one synchronous method at a time
	replyCh chan encoding.Method

	mu            sync.Mutex
	confirmMode   bool
	nextSeq       uint64
	flow          flowGate
	consumers     map[string]*consumer
	pendingGet    chan *Delivery // result slot for an outstanding basic.get
	partial       *partialDelivery
	pendingReturn *Returned           // set while assembling a basic.return's content
	lastReturn    *Returned           // most recently completed return, consumed by the next nack
	settled       map[uint64]struct{} // delivery tags already acked/nacked/rejected by the consumer

	ack     *acknowledgements
	returns *returnedMessages

	closeOnce sync.Once
	closed    chan struct{}
	closeErrV error
}

func newChannel(c *Connection, id uint16) *Channel {
	ch := &Channel{
		id:        id,
		conn:      c,
		log:       debug.With("channel"),
		frames:    make(chan *frames.Frame, 16),
		replyCh:   make(chan encoding.Method, 1),
		consumers: make(map[string]*consumer),
		settled:   make(map[uint64]struct{}),
		ack:       newAcknowledgements(),
		returns:   newReturnedMessages(),
		closed:    make(chan struct{}),
	}
	go ch.run()
	return ch
}

// open performs channel.open/open-ok (§4.2 create_channel).
func (ch *Channel) open() error {
	_, err := ch.call(&encoding.ChannelOpen{})
	return err
}

// run is this channel's dedicated mailbox goroutine: it serializes every
// incoming frame for this channel, so delivery assembly, reply
// correlation, and confirm bookkeeping never race with each other
// (§5 "within a channel, operations are serialized through the channel
// mailbox").
func (ch *Channel) run() {
	for f := range ch.frames {
		ch.handle(f)
	}
}

func (ch *Channel) dispatch(f *frames.Frame) {
	select {
	case ch.frames <- f:
	case <-ch.closed:
	}
}

func (ch *Channel) handle(f *frames.Frame) {
	switch f.Type {
	case frames.TypeMethod:
		mf, err := frames.DecodeMethod(f)
		if err != nil {
			ch.conn.shutdown(newMalformedFrame(err))
			return
		}
		ch.handleMethod(mf.Method)
	case frames.TypeHeader:
		hf, err := frames.DecodeHeader(f)
		if err != nil {
			ch.conn.shutdown(newMalformedFrame(err))
			return
		}
		ch.handleHeader(hf)
	case frames.TypeBody:
		bf, err := frames.DecodeBody(f)
		if err != nil {
			ch.conn.shutdown(newMalformedFrame(err))
			return
		}
		ch.handleBody(bf)
	}
}

func (ch *Channel) handleMethod(m encoding.Method) {
	switch mm := m.(type) {
	case *encoding.ChannelClose:
		ch.conn.send(ch.id, &encoding.ChannelCloseOk{})
		ch.shutdown(&ChannelClosed{Code: int(mm.ReplyCode), Text: mm.ReplyText, ClassID: mm.FailedClassID, MethodID: mm.FailedMethodID})
		ch.conn.releaseChannel(ch.id)
		return
	case *encoding.ChannelCloseOk:
		ch.deliverReply(m)
		return
	case *encoding.ChannelFlow:
		ch.handleFlow(mm.Active)
		return
	case *encoding.BasicDeliver:
		ch.beginPartial(&partialDelivery{consumerTag: mm.ConsumerTag, deliveryTag: mm.DeliveryTag, redelivered: mm.Redelivered, exchange: mm.Exchange, routingKey: mm.RoutingKey})
		return
	case *encoding.BasicReturn:
		ch.beginPartial(&partialDelivery{isReturn: true, exchange: mm.Exchange, routingKey: mm.RoutingKey})
		ch.pendingReturn = &Returned{ReplyCode: mm.ReplyCode, ReplyText: mm.ReplyText, Exchange: mm.Exchange, RoutingKey: mm.RoutingKey}
		return
	case *encoding.BasicGetOk:
		ch.beginPartial(&partialDelivery{isGetOk: true, deliveryTag: mm.DeliveryTag, redelivered: mm.Redelivered, exchange: mm.Exchange, routingKey: mm.RoutingKey})
		return
	case *encoding.BasicGetEmpty:
		ch.resolvePendingGet(nil)
		return
	case *encoding.BasicAck:
		if mm.Multiple {
			tag := mm.DeliveryTag
			if tag == 0 {
				tag = ^uint64(0) // tag 0 with multiple covers every pending publish
			}
			ch.ack.ackAllBefore(tag)
		} else {
			ch.ack.ack(mm.DeliveryTag)
		}
		return
	case *encoding.BasicNack:
		var cause error
		if ret := ch.takeLastReturn(); ret != nil {
			cause = ret
		}
		if mm.Multiple {
			tag := mm.DeliveryTag
			if tag == 0 {
				tag = ^uint64(0) // tag 0 with multiple covers every pending publish
			}
			ch.ack.nackAllBefore(tag, cause)
		} else {
			ch.ack.nack(mm.DeliveryTag, cause)
		}
		return
	case *encoding.BasicCancel:
		ch.handleBrokerCancel(mm.ConsumerTag)
		ch.conn.send(ch.id, &encoding.BasicCancelOk{ConsumerTag: mm.ConsumerTag})
		return
	default:
		ch.deliverReply(m)
	}
}

func (ch *Channel) handleHeader(hf *frames.HeaderFrame) {
	ch.mu.Lock()
	p := ch.partial
	ch.mu.Unlock()
	if p == nil {
		ch.conn.shutdown(newProtocolViolation("content header with no preceding deliver/return/get-ok"))
		return
	}
	p.classID = hf.ClassID
	p.bodySize = hf.BodySize
	p.props = hf.Properties
	if p.complete() {
		ch.finishPartial(p)
	}
}

func (ch *Channel) handleBody(bf *frames.BodyFrame) {
	ch.mu.Lock()
	p := ch.partial
	ch.mu.Unlock()
	if p == nil {
		ch.conn.shutdown(newProtocolViolation("content body with no preceding header"))
		return
	}
	p.body = append(p.body, bf.Body...)
	if p.complete() {
		ch.finishPartial(p)
	}
}

func (ch *Channel) beginPartial(p *partialDelivery) {
	ch.mu.Lock()
	ch.partial = p
	ch.mu.Unlock()
}

func (ch *Channel) finishPartial(p *partialDelivery) {
	ch.mu.Lock()
	ch.partial = nil
	ch.mu.Unlock()

	d := Delivery{
		Channel:         ch,
		ConsumerTag:     p.consumerTag,
		DeliveryTag:     p.deliveryTag,
		Redelivered:     p.redelivered,
		Exchange:        p.exchange,
		RoutingKey:      p.routingKey,
		ContentType:     p.props.ContentType,
		ContentEncoding: p.props.ContentEncoding,
		Headers:         Table(p.props.Headers),
		DeliveryMode:    p.props.DeliveryMode,
		Priority:        p.props.Priority,
		CorrelationID:   p.props.CorrelationID,
		ReplyTo:         p.props.ReplyTo,
		Expiration:      p.props.Expiration,
		MessageID:       p.props.MessageID,
		Timestamp:       p.props.Timestamp,
		Type:            p.props.Type,
		UserID:          p.props.UserID,
		AppID:           p.props.AppID,
		Body:            p.body,
	}

	switch {
	case p.isReturn:
		ret := ch.pendingReturn
		ch.pendingReturn = nil
		if ret != nil {
			ret.Content = p.body
			ch.lastReturn = ret
			ch.returns.publish(ret)
		}
	case p.isGetOk:
		ch.resolvePendingGet(&d)
	default:
		ch.mu.Lock()
		c, ok := ch.consumers[p.consumerTag]
		ch.mu.Unlock()
		if ok {
			c.enqueue(d)
		}
	}
}

func (ch *Channel) resolvePendingGet(d *Delivery) {
	ch.mu.Lock()
	c := ch.pendingGet
	ch.pendingGet = nil
	ch.mu.Unlock()
	if c != nil {
		c <- d
		close(c)
	}
}

func (ch *Channel) handleFlow(active bool) {
	ch.flow.setActive(active)
	ch.conn.send(ch.id, &encoding.ChannelFlowOk{Active: active})
}

func (ch *Channel) handleBrokerCancel(tag string) {
	ch.mu.Lock()
	c, ok := ch.consumers[tag]
	delete(ch.consumers, tag)
	ch.mu.Unlock()
	if ok {
		c.cancel()
	}
}

// takeLastReturn consumes the most recently completed basic.return, if
// any, so the following basic.nack can correlate with it (§9: "nacks
// correlate with stashed returns when available, otherwise nack alone").
// The wire protocol gives basic.return no delivery tag of its own, so
// correlation relies on the broker sending return immediately before the
// nack for the same message with nothing interleaved between them.
func (ch *Channel) takeLastReturn() *Returned {
	ret := ch.lastReturn
	ch.lastReturn = nil
	return ret
}

func (ch *Channel) deliverReply(m encoding.Method) {
	select {
	case ch.replyCh <- m:
	default:
	}
}

// call serializes one synchronous method at a time on this channel
// (§4.3 "at most one synchronous method outstanding per channel") and
// blocks for the matching reply.
func (ch *Channel) call(req encoding.Method) (encoding.Method, error) {
	ch.callMu.Lock()
	defer ch.callMu.Unlock()

	if err := ch.conn.send(ch.id, req); err != nil {
		return nil, err
	}
	select {
	case reply := <-ch.replyCh:
		return reply, nil
	case <-ch.closed:
		return nil, ch.closeErr()
	}
}

func (ch *Channel) closeErr() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closeErrV != nil {
		return ch.closeErrV
	}
	return ErrNotConnected
}

// Close performs channel.close/close-ok and releases this channel's id
// (§4.3 "Channel closure").
func (ch *Channel) Close() error {
	_, err := ch.call(&encoding.ChannelClose{ReplyCode: ReplySuccess, ReplyText: "normal shutdown"})
	ch.shutdown(nil)
	ch.conn.releaseChannel(ch.id)
	return err
}

// connectionLost is invoked by the owning Connection's shutdown when the
// connection itself has gone away, failing every waiter with the
// connection's close reason rather than a channel-local one.
func (ch *Channel) connectionLost(reason *ConnectionClosed) {
	var err error
	if reason != nil {
		err = &ConnectionClosed{Code: reason.Code, Text: reason.Text}
	}
	ch.shutdown(err)
}

func (ch *Channel) shutdown(err error) {
	ch.closeOnce.Do(func() {
		ch.mu.Lock()
		ch.closeErrV = err
		consumers := make([]*consumer, 0, len(ch.consumers))
		for _, c := range ch.consumers {
			consumers = append(consumers, c)
		}
		ch.consumers = nil
		pendingGet := ch.pendingGet
		ch.pendingGet = nil
		ch.mu.Unlock()

		close(ch.closed)
		close(ch.frames)
		ch.flow.releaseAll()

		for _, c := range consumers {
			c.cancel()
		}
		if pendingGet != nil {
			close(pendingGet)
		}

		ch.ack.nackAllPending()
		ch.returns.closeAll()
	})
}

// waitClosed exposes this channel's lifetime signal to types (like
// Confirmation) that need to race a wait against channel closure.
func (ch *Channel) waitClosed() <-chan struct{} { return ch.closed }

func (ch *Channel) background() context.Context { return ch.conn.background() }
