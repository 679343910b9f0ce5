package amqp

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Channel exceptions close only the channel that raised them (§6).
const (
	ReplyCodeContentTooLarge  = 311
	ReplyCodeNoConsumers      = 313
	ReplyCodeAccessRefused    = 403
	ReplyCodeNotFound         = 404
	ReplyCodeResourceLocked   = 405
	ReplyCodePreconditionFail = 406
)

// Connection exceptions close the whole connection (§6).
const (
	ReplyCodeConnectionForced = 320
	ReplyCodeInvalidPath      = 402
	ReplyCodeFrameError       = 501
	ReplyCodeSyntaxError      = 502
	ReplyCodeCommandInvalid   = 503
	ReplyCodeChannelError     = 504
	ReplyCodeUnexpectedFrame  = 505
	ReplyCodeResourceError    = 506
	ReplyCodeNotAllowed       = 530
	ReplyCodeNotImplemented   = 540
	ReplyCodeInternalError    = 541
)

// ReplySuccess is the reply-code this client sends on a graceful
// connection.close / channel.close.
const ReplySuccess = 200

// IOError wraps a transport read/write failure (§7).
type IOError struct{ cause error }

func (e *IOError) Error() string { return fmt.Sprintf("amqp: i/o error: %v", e.cause) }
func (e *IOError) Unwrap() error { return e.cause }

func newIOError(cause error) *IOError { return &IOError{cause: pkgerrors.WithStack(cause)} }

// MalformedFrame is returned by the framing codec (§7).
type MalformedFrame struct{ cause error }

func (e *MalformedFrame) Error() string { return fmt.Sprintf("amqp: malformed frame: %v", e.cause) }
func (e *MalformedFrame) Unwrap() error { return e.cause }

func newMalformedFrame(cause error) *MalformedFrame {
	return &MalformedFrame{cause: pkgerrors.WithStack(cause)}
}

// ProtocolViolation covers unexpected frame sequences, unknown channel
// numbers, and frames that arrive outside the state they're valid in (§7).
type ProtocolViolation struct{ cause error }

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("amqp: protocol violation: %v", e.cause)
}
func (e *ProtocolViolation) Unwrap() error { return e.cause }

func newProtocolViolation(format string, args ...interface{}) *ProtocolViolation {
	return &ProtocolViolation{cause: pkgerrors.Errorf(format, args...)}
}

// HandshakeFailed is returned by Dial/Open when connection establishment
// (§4.2 connect) fails at a named step.
type HandshakeFailed struct {
	Step  string
	cause error
}

func (e *HandshakeFailed) Error() string {
	return fmt.Sprintf("amqp: handshake failed at %s: %v", e.Step, e.cause)
}
func (e *HandshakeFailed) Unwrap() error { return e.cause }

func newHandshakeFailed(step string, cause error) *HandshakeFailed {
	return &HandshakeFailed{Step: step, cause: pkgerrors.WithStack(cause)}
}

// ConnectionClosed is observed by every waiter on every channel once the
// connection closes, gracefully or otherwise (§7).
type ConnectionClosed struct {
	Code int
	Text string
}

func (e *ConnectionClosed) Error() string {
	return fmt.Sprintf("amqp: connection closed: code=%d reason=%q", e.Code, e.Text)
}

// ChannelClosed is observed by every waiter on one channel when the broker
// raises a channel exception (§4.3 channel closure).
type ChannelClosed struct {
	Code     int
	Text     string
	ClassID  uint16
	MethodID uint16
}

func (e *ChannelClosed) Error() string {
	return fmt.Sprintf("amqp: channel closed: code=%d reason=%q class=%d method=%d", e.Code, e.Text, e.ClassID, e.MethodID)
}

// ErrUnexpectedReply is returned when the synchronous reply slot sees the
// wrong class/method, or an ack/nack names an unknown delivery tag (§7).
var ErrUnexpectedReply = pkgerrors.New("amqp: unexpected reply")

// ErrPreconditionFailed is returned for a local precondition violation,
// e.g. awaiting a confirmation on a channel without confirm.select (§7).
var ErrPreconditionFailed = pkgerrors.New("amqp: precondition failed")

// ErrNotConnected is returned for an operation attempted on an
// already-closed channel or connection (§7).
var ErrNotConnected = pkgerrors.New("amqp: not connected")

// ErrHeartbeatTimeout marks the connection dead after no frame arrived
// within 2x the negotiated heartbeat interval (§4.2, §7).
var ErrHeartbeatTimeout = pkgerrors.New("amqp: heartbeat timeout")

// ErrNoAvailableChannel is returned by Connection.Channel when every id in
// 1..=channel_max is already allocated.
var ErrNoAvailableChannel = pkgerrors.New("amqp: no available channel")

// ErrSASL is returned when no mechanism offered by the broker's
// connection.start is supported by the configured Authentication set.
var ErrSASL = pkgerrors.New("amqp: no compatible SASL mechanism")

// Returned describes a publish the broker routed back to the publisher as
// basic.return. When the return can be correlated with the confirm-nack
// for the same publish, it is what that publish's Confirmation resolves
// with; it is always also fanned out to every channel registered with
// Channel.NotifyReturn (§4.6, §7, §9).
type Returned struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
	Content    []byte
}

func (e *Returned) Error() string {
	return fmt.Sprintf("amqp: message returned: code=%d reason=%q exchange=%q routingKey=%q", e.ReplyCode, e.ReplyText, e.Exchange, e.RoutingKey)
}
