package amqp

import (
	"context"
	"time"
)

// Publishing is the message a caller hands to Channel.Publish, mirroring
// the content-header/body split of the wire format (§3 "content header").
type Publishing struct {
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
	Body            []byte
}

// Delivery modes, passed as Publishing.DeliveryMode (§3).
const (
	Transient  uint8 = 1
	Persistent uint8 = 2
)

// Confirmation is the future returned by Channel.Publish. On a
// confirm-mode channel it is resolved by the matching basic.ack, or failed
// by the matching basic.nack (with the *Returned of a basic.return that
// directly preceded the nack, if any), by the channel closing, or by the
// caller's context being done first. On a channel without confirms it is
// already resolved with a nil error.
type Confirmation struct {
	deliveryTag uint64
	w           *wait[struct{}]
	ch          *Channel
}

// DeliveryTag returns the publish-sequence-number assigned to this
// publish (§4.4 "delivery tags are strictly increasing").
func (c *Confirmation) DeliveryTag() uint64 { return c.deliveryTag }

// Wait blocks until the broker acks or nacks this publish, the channel or
// its connection closes, or ctx is done. A nil error means the broker
// acked; any non-nil error (notably *Returned) means it did not.
func (c *Confirmation) Wait(ctx context.Context) error {
	_, err := c.w.Get(ctx, c.ch.closed, c.ch.closeErr)
	return err
}

// Done returns a channel that's closed once the confirmation resolves,
// for callers that want to select on it directly rather than calling Wait.
func (c *Confirmation) Done() <-chan struct{} {
	return c.w.done
}
