package amqp

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kontrol-systems/amqp091/internal/encoding"
)

var anonymousConsumerSeq uint64

// ExchangeDeclare declares an exchange (§4.3).
func (ch *Channel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args Table) error {
	_, err := ch.call(&encoding.ExchangeDeclare{
		Exchange:   name,
		Type:       kind,
		Durable:    durable,
		AutoDelete: autoDelete,
		Internal:   internal,
		NoWait:     noWait,
		Arguments:  encoding.Table(args),
	})
	return err
}

// ExchangeDelete deletes an exchange.
func (ch *Channel) ExchangeDelete(name string, ifUnused, noWait bool) error {
	_, err := ch.call(&encoding.ExchangeDelete{Exchange: name, IfUnused: ifUnused, NoWait: noWait})
	return err
}

// ExchangeBind binds one exchange to another.
func (ch *Channel) ExchangeBind(destination, routingKey, source string, noWait bool, args Table) error {
	_, err := ch.call(&encoding.ExchangeBind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: encoding.Table(args)})
	return err
}

// ExchangeUnbind removes an exchange-to-exchange binding.
func (ch *Channel) ExchangeUnbind(destination, routingKey, source string, noWait bool, args Table) error {
	_, err := ch.call(&encoding.ExchangeUnbind{Destination: destination, Source: source, RoutingKey: routingKey, NoWait: noWait, Arguments: encoding.Table(args)})
	return err
}

// Queue is the informational snapshot returned by QueueDeclare (§3 "Queue handle").
type Queue struct {
	Name          string
	MessageCount  uint32
	ConsumerCount uint32
}

// QueueDeclare declares a queue and returns its declare-ok snapshot.
func (ch *Channel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args Table) (Queue, error) {
	reply, err := ch.call(&encoding.QueueDeclare{
		Queue:      name,
		Durable:    durable,
		Exclusive:  exclusive,
		AutoDelete: autoDelete,
		NoWait:     noWait,
		Arguments:  encoding.Table(args),
	})
	if err != nil {
		return Queue{}, err
	}
	ok, valid := reply.(*encoding.QueueDeclareOk)
	if !valid {
		return Queue{}, ErrUnexpectedReply
	}
	return Queue{Name: ok.Queue, MessageCount: ok.MessageCount, ConsumerCount: ok.ConsumerCount}, nil
}

// QueueBind binds queue to exchange with routingKey.
func (ch *Channel) QueueBind(queue, routingKey, exchange string, noWait bool, args Table) error {
	_, err := ch.call(&encoding.QueueBind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, NoWait: noWait, Arguments: encoding.Table(args)})
	return err
}

// QueueUnbind removes a queue-to-exchange binding.
func (ch *Channel) QueueUnbind(queue, routingKey, exchange string, args Table) error {
	_, err := ch.call(&encoding.QueueUnbind{Queue: queue, Exchange: exchange, RoutingKey: routingKey, Arguments: encoding.Table(args)})
	return err
}

// QueuePurge removes all ready messages from queue and reports how many
// were purged.
func (ch *Channel) QueuePurge(queue string, noWait bool) (uint32, error) {
	reply, err := ch.call(&encoding.QueuePurge{Queue: queue, NoWait: noWait})
	if err != nil {
		return 0, err
	}
	ok, valid := reply.(*encoding.QueuePurgeOk)
	if !valid {
		return 0, ErrUnexpectedReply
	}
	return ok.MessageCount, nil
}

// QueueDelete deletes a queue and reports how many messages it held.
func (ch *Channel) QueueDelete(queue string, ifUnused, ifEmpty, noWait bool) (uint32, error) {
	reply, err := ch.call(&encoding.QueueDelete{Queue: queue, IfUnused: ifUnused, IfEmpty: ifEmpty, NoWait: noWait})
	if err != nil {
		return 0, err
	}
	ok, valid := reply.(*encoding.QueueDeleteOk)
	if !valid {
		return 0, ErrUnexpectedReply
	}
	return ok.MessageCount, nil
}

// Qos sets the channel's (or, with global=false in 0-9-1, per-consumer)
// prefetch limits (§4.5 QoS).
func (ch *Channel) Qos(prefetchCount uint16, prefetchSize uint32, global bool) error {
	_, err := ch.call(&encoding.BasicQos{PrefetchSize: prefetchSize, PrefetchCount: prefetchCount, Global: global})
	return err
}

// Flow requests the broker pause (active=false) or resume (active=true)
// delivery to this channel's consumers (§4.7).
func (ch *Channel) Flow(active bool) error {
	_, err := ch.call(&encoding.ChannelFlow{Active: active})
	return err
}

// Confirm puts the channel into publisher-confirm mode (confirm.select);
// delivery tags are assigned starting at 1 from this point on (§3 DeliveryTag).
func (ch *Channel) Confirm(noWait bool) error {
	_, err := ch.call(&encoding.ConfirmSelect{NoWait: noWait})
	if err != nil {
		return err
	}
	ch.mu.Lock()
	ch.confirmMode = true
	ch.mu.Unlock()
	return nil
}

// TxSelect puts the channel into transactional mode.
func (ch *Channel) TxSelect() error {
	_, err := ch.call(&encoding.TxSelect{})
	return err
}

// TxCommit commits the current transaction.
func (ch *Channel) TxCommit() error {
	_, err := ch.call(&encoding.TxCommit{})
	return err
}

// TxRollback rolls back the current transaction.
func (ch *Channel) TxRollback() error {
	_, err := ch.call(&encoding.TxRollback{})
	return err
}

// Publish writes p to exchange/routingKey (§4.3 "Publish path"). On a
// confirm-mode channel, the returned Confirmation resolves once the
// broker acks or nacks the message (a nack that directly follows a
// basic.return resolves it with that *Returned); on a non-confirm channel
// it resolves immediately with a nil error once the frames are on the wire.
func (ch *Channel) Publish(ctx context.Context, exchange, routingKey string, mandatory, immediate bool, p Publishing) (*Confirmation, error) {
	ch.mu.Lock()
	confirmMode := ch.confirmMode
	var tag uint64
	if confirmMode {
		ch.nextSeq++
		tag = ch.nextSeq
	}
	ch.mu.Unlock()

	if err := ch.flow.wait(ctx, ch.closed); err != nil {
		return nil, err
	}

	if confirmMode {
		ch.ack.registerPending(tag)
	}

	props := encoding.BasicProperties{
		ContentType:     p.ContentType,
		ContentEncoding: p.ContentEncoding,
		Headers:         encoding.Table(p.Headers),
		DeliveryMode:    p.DeliveryMode,
		Priority:        p.Priority,
		CorrelationID:   p.CorrelationID,
		ReplyTo:         p.ReplyTo,
		Expiration:      p.Expiration,
		MessageID:       p.MessageID,
		Timestamp:       p.Timestamp,
		Type:            p.Type,
		UserID:          p.UserID,
		AppID:           p.AppID,
	}

	method := &encoding.BasicPublish{Exchange: exchange, RoutingKey: routingKey, Mandatory: mandatory, Immediate: immediate}
	if err := ch.conn.sendContent(ch.id, method, method.ClassID(), props, p.Body); err != nil {
		if confirmMode {
			ch.ack.dropPending(tag, ErrUnexpectedReply)
		}
		return nil, err
	}

	if !confirmMode {
		w, h := newWait[struct{}]()
		h.finish(struct{}{})
		return &Confirmation{w: w, ch: ch}, nil
	}

	w, _ := ch.ack.getWait(tag)
	return &Confirmation{deliveryTag: tag, w: w, ch: ch}, nil
}

// Consume registers a new consumer on queue. When sink is nil, deliveries
// are available on the returned channel (pull mode); otherwise sink is
// invoked for each delivery (push mode) and the returned channel is nil
// (§4.5 "Two delivery modes").
func (ch *Channel) Consume(queue, consumerTag string, autoAck, exclusive, noLocal, noWait bool, args Table, sink func(Delivery)) (string, <-chan Delivery, error) {
	if consumerTag == "" {
		consumerTag = fmt.Sprintf("ctag-%d", atomic.AddUint64(&anonymousConsumerSeq, 1))
	}

	c := newConsumer(ch, consumerTag, sink)
	ch.mu.Lock()
	ch.consumers[consumerTag] = c
	ch.mu.Unlock()

	reply, err := ch.call(&encoding.BasicConsume{
		Queue:       queue,
		ConsumerTag: consumerTag,
		NoLocal:     noLocal,
		NoAck:       autoAck,
		Exclusive:   exclusive,
		NoWait:      noWait,
		Arguments:   encoding.Table(args),
	})
	if err != nil {
		ch.mu.Lock()
		delete(ch.consumers, consumerTag)
		ch.mu.Unlock()
		return "", nil, err
	}
	if ok, valid := reply.(*encoding.BasicConsumeOk); valid {
		consumerTag = ok.ConsumerTag
	}

	return consumerTag, c.out, nil
}

// Cancel stops deliveries for consumerTag (§4.5 "basic.cancel from the user").
func (ch *Channel) Cancel(consumerTag string, noWait bool) error {
	_, err := ch.call(&encoding.BasicCancel{ConsumerTag: consumerTag, NoWait: noWait})

	ch.mu.Lock()
	c, ok := ch.consumers[consumerTag]
	delete(ch.consumers, consumerTag)
	ch.mu.Unlock()
	if ok {
		c.cancel()
	}
	return err
}

// Get fetches a single message from queue without establishing a
// consumer, resolving to nil if the queue was empty (basic.get-empty).
func (ch *Channel) Get(queue string, autoAck bool) (*Delivery, error) {
	ch.mu.Lock()
	if ch.pendingGet != nil {
		ch.mu.Unlock()
		return nil, ErrPreconditionFailed
	}
	result := make(chan *Delivery, 1)
	ch.pendingGet = result
	ch.mu.Unlock()

	ch.callMu.Lock()
	err := ch.conn.send(ch.id, &encoding.BasicGet{Queue: queue, NoAck: autoAck})
	ch.callMu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case d, ok := <-result:
		if !ok {
			return nil, ch.closeErr()
		}
		return d, nil
	case <-ch.closed:
		return nil, ch.closeErr()
	}
}

// settleTag records tag as settled, reporting false if it was already
// settled. It guards Delivery.Ack/Nack/Reject against being effective more
// than once for the same delivery, regardless of how many copies of the
// Delivery value the caller is holding.
func (ch *Channel) settleTag(tag uint64) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if _, already := ch.settled[tag]; already {
		return false
	}
	ch.settled[tag] = struct{}{}
	return true
}

// ack/nack/reject are the asynchronous settlement frames issued by
// Delivery.Ack/Nack/Reject (§4.5 "Acknowledgement of consumer deliveries
// is independent of publisher confirms").
func (ch *Channel) ack(tag uint64, multiple bool) error {
	return ch.conn.send(ch.id, &encoding.BasicAck{DeliveryTag: tag, Multiple: multiple})
}

func (ch *Channel) nack(tag uint64, multiple, requeue bool) error {
	return ch.conn.send(ch.id, &encoding.BasicNack{DeliveryTag: tag, Multiple: multiple, Requeue: requeue})
}

func (ch *Channel) reject(tag uint64, requeue bool) error {
	return ch.conn.send(ch.id, &encoding.BasicReject{DeliveryTag: tag, Requeue: requeue})
}

// Recover asks the broker to redeliver unacknowledged messages on this
// channel, waiting for basic.recover-ok when requested synchronously.
func (ch *Channel) Recover(requeue bool) error {
	_, err := ch.call(&encoding.BasicRecover{Requeue: requeue})
	return err
}

// RecoverAsync is the fire-and-forget form of Recover: it asks the broker
// to redeliver unacknowledged messages on this channel without waiting
// for a reply (basic.recover-async has none).
func (ch *Channel) RecoverAsync(requeue bool) error {
	return ch.conn.send(ch.id, &encoding.BasicRecoverAsync{Requeue: requeue})
}

// NotifyReturn registers c to receive basic.return deliveries (§4.6).
func (ch *Channel) NotifyReturn(c chan *Returned) chan *Returned {
	ch.returns.listen(c)
	return c
}
