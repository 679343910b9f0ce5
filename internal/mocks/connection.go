// Package mocks provides a net.Conn double driven by a responder
// callback, adapted from the teacher's mock transport so connection and
// channel engine tests can run the full handshake and method round-trips
// without a real broker.
package mocks

import (
	"bytes"
	"errors"
	"net"
	"time"

	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/kontrol-systems/amqp091/internal/frames"
)

// NewConnection creates a new instance of MockConnection.
// Responder is invoked by Write when a frame is received.
// Return a nil slice/nil error to swallow the frame.
// Return a non-nil error to simulate a write error.
func NewConnection(resp func(Received) ([]byte, error)) *MockConnection {
	return &MockConnection{
		resp: resp,
		// during shutdown, the reader goroutine can return while other
		// goroutines are still writing frames, so there is some
		// non-determinism here. this means writes can still happen but
		// there's no reader to consume them; buffer the channel so those
		// writes don't block shutdown.
		readData:  make(chan []byte, 16),
		readClose: make(chan struct{}),
	}
}

// Received is the decoded frame handed to the responder callback: either a
// protocol-header handshake (Proto != nil) or a fully decoded AMQP frame.
type Received struct {
	Proto  []byte
	Frame  *frames.Frame
	Method encoding.Method // populated when Frame.Type == frames.TypeMethod
}

// MockConnection is a mock net.Conn.
type MockConnection struct {
	resp      func(Received) ([]byte, error)
	readDL    *time.Timer
	readData  chan []byte
	readClose chan struct{}
	closed    bool
}

// NOTE: Read, Write, and Close are all called by separate goroutines!

// Read is invoked by the connection's reader goroutine. It blocks until
// Write or Close are called, or the read deadline expires.
func (m *MockConnection) Read(b []byte) (n int, err error) {
	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	default:
	}

	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	case <-m.readDLChan():
		return 0, errors.New("mock connection read deadline exceeded")
	case rd := <-m.readData:
		return copy(b, rd), nil
	}
}

func (m *MockConnection) readDLChan() <-chan time.Time {
	if m.readDL == nil {
		return nil
	}
	return m.readDL.C
}

// Write is invoked by whichever goroutine is sending a frame, under the
// connection's write lock. Every call decodes the outgoing bytes into a
// Received and invokes the responder.
func (m *MockConnection) Write(b []byte) (n int, err error) {
	select {
	case <-m.readClose:
		return 0, errors.New("mock connection was closed")
	default:
	}

	recv, err := decode(b)
	if err != nil {
		return 0, err
	}
	resp, err := m.resp(recv)
	if err != nil {
		return 0, err
	}
	if resp != nil {
		m.readData <- resp
	}
	return len(b), nil
}

// Close is called when the connection's dispatch loop unwinds.
func (m *MockConnection) Close() error {
	if m.closed {
		return errors.New("double close")
	}
	m.closed = true
	close(m.readClose)
	return nil
}

func (m *MockConnection) LocalAddr() net.Addr {
	return &net.IPAddr{IP: net.IPv4(127, 0, 0, 2)}
}

func (m *MockConnection) RemoteAddr() net.Addr {
	return &net.IPAddr{IP: net.IPv4(127, 0, 0, 2)}
}

func (m *MockConnection) SetDeadline(t time.Time) error {
	return errors.New("not used")
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	if m.readDL != nil && !m.readDL.Stop() {
		select {
		case <-m.readDL.C:
		default:
		}
	}
	if d := time.Until(t); d > 0 {
		m.readDL = time.NewTimer(d)
	} else {
		m.readDL = time.NewTimer(0)
	}
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	return nil
}

// Push queues raw bytes as if they had arrived from the broker, without
// waiting for a Write to trigger the responder. Used to simulate
// broker-initiated frames (basic.deliver, basic.return, channel.close).
func (m *MockConnection) Push(b []byte) {
	m.readData <- b
}

func decode(b []byte) (Received, error) {
	if len(b) >= 8 && bytes.Equal(b[:4], []byte("AMQP")) {
		return Received{Proto: append([]byte(nil), b...)}, nil
	}
	r := frames.NewReader(bytes.NewReader(b), 0)
	f, err := r.ReadFrame()
	if err != nil {
		return Received{}, err
	}
	recv := Received{Frame: f}
	if f.Type == frames.TypeMethod {
		m, err := encoding.DecodeMethod(f.Payload)
		if err != nil {
			return Received{}, err
		}
		recv.Method = m
	}
	return recv, nil
}

// EncodeProtoHeader returns the literal protocol-header handshake bytes.
func EncodeProtoHeader() []byte {
	h := frames.ProtocolHeader
	return h[:]
}

// EncodeMethod encodes m as a standalone method frame on channel.
func EncodeMethod(channel uint16, m encoding.Method) ([]byte, error) {
	var buf bytes.Buffer
	w := frames.NewWriter(&buf, 0)
	if err := w.WriteMethod(channel, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
