package amqp

import (
	"time"

	"github.com/pkg/errors"
)

// Delivery is a fully assembled incoming message: a basic.deliver or
// basic.get-ok method plus its content-header and body frames, joined by
// the consumer pipeline (§4.5).
type Delivery struct {
	Channel *Channel

	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string

	ContentType     string
	ContentEncoding string
	Headers         Table
	DeliveryMode    uint8
	Priority        uint8
	CorrelationID   string
	ReplyTo         string
	Expiration      string
	MessageID       string
	Timestamp       time.Time
	Type            string
	UserID          string
	AppID           string

	Body []byte
}

// ErrAlreadyAcknowledged is returned by Ack/Nack/Reject when this delivery
// tag was already settled on its channel.
var ErrAlreadyAcknowledged = errors.New("amqp: delivery already acknowledged")

// Ack acknowledges this delivery with basic.ack. multiple, when true,
// also acknowledges every prior unacknowledged delivery on this channel.
func (d *Delivery) Ack(multiple bool) error {
	if !d.Channel.settleTag(d.DeliveryTag) {
		return ErrAlreadyAcknowledged
	}
	return d.Channel.ack(d.DeliveryTag, multiple)
}

// Nack negatively acknowledges this delivery with basic.nack. requeue
// controls whether the broker should redeliver it elsewhere.
func (d *Delivery) Nack(multiple, requeue bool) error {
	if !d.Channel.settleTag(d.DeliveryTag) {
		return ErrAlreadyAcknowledged
	}
	return d.Channel.nack(d.DeliveryTag, multiple, requeue)
}

// Reject negatively acknowledges this single delivery with basic.reject,
// the pre-confirm-extension predecessor of Nack (§4.3).
func (d *Delivery) Reject(requeue bool) error {
	if !d.Channel.settleTag(d.DeliveryTag) {
		return ErrAlreadyAcknowledged
	}
	return d.Channel.reject(d.DeliveryTag, requeue)
}
