// Package frames implements the AMQP 0-9-1 framing codec (§4.1): reading
// and writing the four frame types off a byte stream, and assembling the
// method+header+body triple that makes up one content message. It has no
// connection or channel state of its own.
package frames

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/pkg/errors"
)

// Type is the frame type tag carried in every frame's first octet.
type Type uint8

const (
	TypeMethod    Type = 1
	TypeHeader    Type = 2
	TypeBody      Type = 3
	TypeHeartbeat Type = 8
)

// FrameEnd is the mandatory sentinel octet that terminates every frame.
const FrameEnd = 0xCE

// MinFrameMax is the smallest frame_max a peer may negotiate (§6).
const MinFrameMax = 4096

// ErrMalformedFrame is returned by ReadFrame when the frame terminator is
// missing or a declared length is inconsistent with the negotiated
// frame_max.
var ErrMalformedFrame = errors.New("frames: malformed frame")

// ProtocolHeader is the literal byte sequence exchanged before any framed
// traffic: "AMQP" 0 major minor revision.
var ProtocolHeader = [8]byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

// Frame is a fully decoded, not-yet-interpreted frame: a type tag, the
// channel it belongs to (0 is connection-global), and its raw payload.
// MethodFrame/HeaderFrame/BodyFrame below give the payload a typed shape.
type Frame struct {
	Type    Type
	Channel uint16
	Payload []byte
}

// MethodFrame is a decoded method frame: its payload parsed into a
// concrete encoding.Method.
type MethodFrame struct {
	Channel uint16
	Method  encoding.Method
}

// HeaderFrame is a decoded content-header frame.
type HeaderFrame struct {
	Channel    uint16
	ClassID    uint16
	BodySize   uint64
	Properties encoding.BasicProperties
}

// BodyFrame is one segment of a content message's body.
type BodyFrame struct {
	Channel uint16
	Body    []byte
}

// HeartbeatFrame carries no payload.
type HeartbeatFrame struct{}

// Reader decodes frames off a buffered byte stream. It preserves no state
// across calls to Read beyond what bufio.Reader itself buffers, matching
// the spec's "on partial input, preserve the buffer" requirement: a short
// read on the underlying io.Reader simply blocks bufio.Reader.Read(Full)
// until more bytes arrive or the connection errs.
type Reader struct {
	r        *bufio.Reader
	frameMax uint32
}

// NewReader wraps r. frameMax of 0 means no limit is enforced yet (used
// before connection.tune-ok negotiates one).
func NewReader(r io.Reader, frameMax uint32) *Reader {
	return &Reader{r: bufio.NewReader(r), frameMax: frameMax}
}

// SetFrameMax updates the enforced payload ceiling, called once
// connection.tune-ok has negotiated the final value.
func (d *Reader) SetFrameMax(max uint32) { d.frameMax = max }

// ReadFrame reads one frame: a 7-byte header (type, channel, size),
// `size` bytes of payload, and the 0xCE terminator.
func (d *Reader) ReadFrame() (*Frame, error) {
	var hdr [7]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, err
	}
	typ := Type(hdr[0])
	channel := binary.BigEndian.Uint16(hdr[1:3])
	size := binary.BigEndian.Uint32(hdr[3:7])

	if d.frameMax > 0 && size > d.frameMax {
		return nil, errors.Wrapf(ErrMalformedFrame, "payload of %d bytes exceeds frame_max %d", size, d.frameMax)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, err
	}

	var end [1]byte
	if _, err := io.ReadFull(d.r, end[:]); err != nil {
		return nil, err
	}
	if end[0] != FrameEnd {
		return nil, errors.Wrapf(ErrMalformedFrame, "frame terminator was 0x%x, want 0x%x", end[0], FrameEnd)
	}

	return &Frame{Type: typ, Channel: channel, Payload: payload}, nil
}

// DecodeMethod interprets f as a method frame.
func DecodeMethod(f *Frame) (*MethodFrame, error) {
	if f.Type != TypeMethod {
		return nil, errors.Errorf("frames: frame type %d is not a method frame", f.Type)
	}
	m, err := encoding.DecodeMethod(f.Payload)
	if err != nil {
		return nil, err
	}
	return &MethodFrame{Channel: f.Channel, Method: m}, nil
}

// DecodeHeader interprets f as a content-header frame.
func DecodeHeader(f *Frame) (*HeaderFrame, error) {
	if f.Type != TypeHeader {
		return nil, errors.Errorf("frames: frame type %d is not a content header frame", f.Type)
	}
	if len(f.Payload) < 12 {
		return nil, errors.Wrap(ErrMalformedFrame, "content header payload too short")
	}
	classID := binary.BigEndian.Uint16(f.Payload[0:2])
	// payload[2:4] is weight, reserved, always 0.
	bodySize := binary.BigEndian.Uint64(f.Payload[4:12])
	hf := &HeaderFrame{Channel: f.Channel, ClassID: classID, BodySize: bodySize}
	if err := hf.Properties.ReadProperties(bytes.NewReader(f.Payload[12:])); err != nil {
		return nil, err
	}
	return hf, nil
}

// DecodeBody interprets f as a body frame.
func DecodeBody(f *Frame) (*BodyFrame, error) {
	if f.Type != TypeBody {
		return nil, errors.Errorf("frames: frame type %d is not a body frame", f.Type)
	}
	return &BodyFrame{Channel: f.Channel, Body: f.Payload}, nil
}
