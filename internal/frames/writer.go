package frames

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/kontrol-systems/amqp091/internal/encoding"
)

// Writer serializes frames to an underlying io.Writer. It enforces
// frame_max on body frames by splitting oversize content into multiple
// body frames (§4.1 Encoder).
type Writer struct {
	w        io.Writer
	frameMax uint32
}

// NewWriter wraps w. frameMax of 0 means unlimited (used before tune-ok).
func NewWriter(w io.Writer, frameMax uint32) *Writer {
	return &Writer{w: w, frameMax: frameMax}
}

// SetFrameMax updates the enforced payload ceiling.
func (e *Writer) SetFrameMax(max uint32) { e.frameMax = max }

func writeFrame(w io.Writer, typ Type, channel uint16, payload []byte) error {
	buf := make([]byte, 7+len(payload)+1)
	buf[0] = byte(typ)
	binary.BigEndian.PutUint16(buf[1:3], channel)
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(payload)))
	copy(buf[7:], payload)
	buf[len(buf)-1] = FrameEnd
	_, err := w.Write(buf)
	return err
}

// WriteMethod writes a method frame for m on channel.
func (e *Writer) WriteMethod(channel uint16, m encoding.Method) error {
	payload, err := encoding.EncodeMethod(m)
	if err != nil {
		return err
	}
	return writeFrame(e.w, TypeMethod, channel, payload)
}

// WriteHeartbeat writes an empty heartbeat frame on channel 0.
func (e *Writer) WriteHeartbeat() error {
	return writeFrame(e.w, TypeHeartbeat, 0, nil)
}

func (e *Writer) maxBodyChunk() int {
	const headerOverhead = 7 + 1 // frame header + end byte
	if e.frameMax == 0 {
		return 1 << 20
	}
	size := int(e.frameMax) - headerOverhead
	if size <= 0 {
		size = MinFrameMax - headerOverhead
	}
	return size
}

// WriteContent writes one complete content message: a method frame, a
// content-header frame, and as many body frames as required to carry
// body, none of which may be interleaved with frames from another channel
// submitted to the same transport (§4.2 writer serialization — enforced by
// the caller holding the connection write lock across this call).
func (e *Writer) WriteContent(channel uint16, method encoding.Method, classID uint16, props encoding.BasicProperties, body []byte) error {
	if err := e.WriteMethod(channel, method); err != nil {
		return err
	}

	var hdrBuf bytes.Buffer
	var szBuf [12]byte
	binary.BigEndian.PutUint16(szBuf[0:2], classID)
	// szBuf[2:4] left zero: weight, reserved.
	binary.BigEndian.PutUint64(szBuf[4:12], uint64(len(body)))
	hdrBuf.Write(szBuf[:])
	if err := props.WriteProperties(&hdrBuf); err != nil {
		return err
	}
	if err := writeFrame(e.w, TypeHeader, channel, hdrBuf.Bytes()); err != nil {
		return err
	}

	chunk := e.maxBodyChunk()
	for offset := 0; offset < len(body); offset += chunk {
		end := offset + chunk
		if end > len(body) {
			end = len(body)
		}
		if err := writeFrame(e.w, TypeBody, channel, body[offset:end]); err != nil {
			return err
		}
	}
	// a zero-length body still needs no body frame at all: body-size 0
	// is fully described by the header frame.
	return nil
}
