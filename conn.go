package amqp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/kontrol-systems/amqp091/internal/debug"
	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/kontrol-systems/amqp091/internal/frames"
)

// clientProductName and clientVersion identify this library in the
// client-properties table sent with connection.start-ok.
const (
	clientProductName = "amqp091"
	clientVersion      = "0.1.0"
)

// Blocking is delivered on a Connection's NotifyBlocked channel when the
// broker's memory/disk alarm throttles or releases this connection — the
// RabbitMQ connection.blocked/unblocked extension (§3 "Supplemented types").
type Blocking struct {
	Active bool
	Reason string
}

// Connection owns one AMQP 0-9-1 transport: a single reader goroutine, a
// single writer serialized by writeMu, the channel table, and the
// heartbeat timers (§4.2). It is the Go-idiomatic restatement of the
// streadway-derived Connection in other_examples/*-amqp__connection.go.go,
// rebuilt over this module's own framing/encoding packages.
type Connection struct {
	conn Conn
	log  debug.Component

	fr *frames.Reader
	fw *frames.Writer

	writeMu sync.Mutex

	mu         sync.Mutex
	channels   map[uint16]*Channel
	nextID     uint16
	channelMax uint16

	rpc      chan encoding.Method
	sentMark chan struct{}

	closeOnce sync.Once
	closed    chan struct{}
	closeErrV error

	closeListeners   []chan *ConnectionClosed
	blockedListeners []chan Blocking

	Config     Config
	Major      int
	Minor      int
	Properties Table
}

// Open performs the protocol-header handshake and connection.{start,tune,open}
// sequence over conn (§4.2 connect), and starts the reader/heartbeat
// goroutines. conn is typically produced by DialConfig, but callers that
// already have a net.Conn (or a test double) can call Open directly.
func Open(conn Conn, cfg Config) (*Connection, error) {
	cfg = cfg.withDefaults()

	c := &Connection{
		conn:     conn,
		log:      debug.With("conn"),
		fr:       frames.NewReader(conn, 0),
		fw:       frames.NewWriter(conn, 0),
		channels: make(map[uint16]*Channel),
		rpc:      make(chan encoding.Method),
		sentMark: make(chan struct{}, 1),
		closed:   make(chan struct{}),
		Config:   cfg,
	}

	go c.reader()

	if err := c.handshake(cfg); err != nil {
		c.shutdown(err)
		return nil, err
	}

	return c, nil
}

func (c *Connection) handshake(cfg Config) error {
	if cfg.HandshakeTimeout > 0 {
		c.conn.SetDeadline(time.Now().Add(cfg.HandshakeTimeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write(func() []byte {
		h := frames.ProtocolHeader
		return h[:]
	}()); err != nil {
		return newHandshakeFailed("protocol-header", err)
	}

	start, err := c.awaitRPC()
	if err != nil {
		return newHandshakeFailed("connection.start", err)
	}
	cs, ok := start.(*encoding.ConnectionStart)
	if !ok {
		return newHandshakeFailed("connection.start", newProtocolViolation("unexpected method %T", start))
	}
	c.Major = int(cs.VersionMajor)
	c.Minor = int(cs.VersionMinor)
	c.Properties = Table(cs.ServerProperties)

	auth, err := pickSASLMechanism(cs.Mechanisms, cfg.SASL)
	if err != nil {
		return newHandshakeFailed("connection.start-ok", err)
	}

	props := Table{
		"product": clientProductName,
		"version": clientVersion,
	}
	for k, v := range cfg.Properties {
		props[k] = v
	}

	if err := c.sendMethod0(&encoding.ConnectionStartOk{
		ClientProperties: encoding.Table(props),
		Mechanism:        auth.Mechanism(),
		Response:         auth.Response(),
		Locale:           cfg.Locale,
	}); err != nil {
		return newHandshakeFailed("connection.start-ok", err)
	}

	tuneReply, err := c.awaitRPC()
	if err != nil {
		return newHandshakeFailed("connection.tune", err)
	}
	tune, ok := tuneReply.(*encoding.ConnectionTune)
	if !ok {
		return newHandshakeFailed("connection.tune", newProtocolViolation("unexpected method %T", tuneReply))
	}

	channelMax := negotiate16(cfg.ChannelMax, tune.ChannelMax)
	frameMax := negotiate32(cfg.FrameMax, tune.FrameMax)
	if frameMax < frames.MinFrameMax {
		frameMax = frames.MinFrameMax
	}
	heartbeat := negotiateHeartbeat(cfg.Heartbeat, tune.Heartbeat)

	c.channelMax = channelMax
	c.fr.SetFrameMax(frameMax)
	c.fw.SetFrameMax(frameMax)
	c.Config.Heartbeat = heartbeat

	if err := c.sendMethod0(&encoding.ConnectionTuneOk{
		ChannelMax: channelMax,
		FrameMax:   frameMax,
		Heartbeat:  uint16(heartbeat / time.Second),
	}); err != nil {
		return newHandshakeFailed("connection.tune-ok", err)
	}

	if heartbeat > 0 {
		go c.heartbeater(heartbeat)
	}

	openReply, err := c.call(&encoding.ConnectionOpen{VirtualHost: cfg.Vhost}, &encoding.ConnectionOpenOk{})
	if err != nil {
		return newHandshakeFailed("connection.open", err)
	}
	_ = openReply

	return nil
}

func negotiate16(client, server uint16) uint16 {
	if client == 0 {
		return server
	}
	if server == 0 {
		return client
	}
	if client < server {
		return client
	}
	return server
}

func negotiate32(client, server uint32) uint32 {
	if client == 0 {
		return server
	}
	if server == 0 {
		return client
	}
	if client < server {
		return client
	}
	return server
}

func negotiateHeartbeat(client time.Duration, server uint16) time.Duration {
	clientSec := uint16(client / time.Second)
	if clientSec == 0 || server == 0 {
		return 0
	}
	if clientSec < server {
		return client
	}
	return time.Duration(server) * time.Second
}

// sendMethod0 writes a method frame on channel 0 without expecting a
// reply (connection.start-ok, connection.tune-ok, connection.close-ok).
func (c *Connection) sendMethod0(m encoding.Method) error {
	return c.send(0, m)
}

// send writes a method frame on channel, serialized against every other
// writer on the connection (§4.2 writer serialization).
func (c *Connection) send(channel uint16, m encoding.Method) error {
	c.writeMu.Lock()
	err := c.fw.WriteMethod(channel, m)
	c.writeMu.Unlock()

	if err != nil {
		c.shutdown(newIOError(err))
		return err
	}
	select {
	case c.sentMark <- struct{}{}:
	default:
	}
	return nil
}

// sendContent writes method+header+body frames atomically under the
// writer lock so no other channel's frames interleave within one content
// message (§4.2 writer serialization).
func (c *Connection) sendContent(channel uint16, method encoding.Method, classID uint16, props encoding.BasicProperties, body []byte) error {
	c.writeMu.Lock()
	err := c.fw.WriteContent(channel, method, classID, props, body)
	c.writeMu.Unlock()

	if err != nil {
		c.shutdown(newIOError(err))
		return err
	}
	select {
	case c.sentMark <- struct{}{}:
	default:
	}
	return nil
}

// awaitRPC blocks for the next channel-0 synchronous reply, used only
// during the handshake before any channel exists.
func (c *Connection) awaitRPC() (encoding.Method, error) {
	select {
	case m := <-c.rpc:
		return m, nil
	case <-c.closed:
		return nil, c.closeErr()
	}
}

// call writes req (if non-nil) then waits for the next channel-0 reply.
func (c *Connection) call(req encoding.Method, _ encoding.Method) (encoding.Method, error) {
	if req != nil {
		if err := c.sendMethod0(req); err != nil {
			return nil, err
		}
	}
	return c.awaitRPC()
}

// Channel allocates the lowest free channel id in 1..=channel_max and
// performs channel.open/open-ok (§4.2 create_channel).
func (c *Connection) Channel() (*Channel, error) {
	c.mu.Lock()
	id, ok := c.allocateChannelID()
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoAvailableChannel
	}
	ch := newChannel(c, id)
	c.channels[id] = ch
	c.mu.Unlock()

	if err := ch.open(); err != nil {
		c.mu.Lock()
		delete(c.channels, id)
		c.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

func (c *Connection) allocateChannelID() (uint16, bool) {
	max := c.channelMax
	if max == 0 {
		max = defaultChannelMax
	}
	for i := 1; i <= int(max); i++ {
		if _, used := c.channels[uint16(i)]; !used {
			return uint16(i), true
		}
	}
	return 0, false
}

func (c *Connection) releaseChannel(id uint16) {
	c.mu.Lock()
	delete(c.channels, id)
	c.mu.Unlock()
}

// NotifyClose registers ch to receive the terminal close reason: a
// *ConnectionClosed describing a graceful or broker-initiated close, or
// nil after Close() completes with no error (§4.2 graceful close).
func (c *Connection) NotifyClose(ch chan *ConnectionClosed) chan *ConnectionClosed {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeListeners = append(c.closeListeners, ch)
	return ch
}

// NotifyBlocked registers ch to receive connection.blocked/unblocked
// notifications (§3 Blocking notifications).
func (c *Connection) NotifyBlocked(ch chan Blocking) chan Blocking {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockedListeners = append(c.blockedListeners, ch)
	return ch
}

// Close requests a graceful shutdown: connection.close / connection.close-ok,
// then releases the transport and every channel (§4.2 close).
func (c *Connection) Close() error {
	_, err := c.call(&encoding.ConnectionClose{ReplyCode: ReplySuccess, ReplyText: "normal shutdown"}, &encoding.ConnectionCloseOk{})
	c.shutdown(nil)
	return err
}

func (c *Connection) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErrV != nil {
		return c.closeErrV
	}
	return ErrNotConnected
}

// shutdown tears the connection down exactly once: every channel is told
// to fail its waiters, every close listener is notified, and the
// transport is closed.
func (c *Connection) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErrV = err
		chans := make([]*Channel, 0, len(c.channels))
		for _, ch := range c.channels {
			chans = append(chans, ch)
		}
		c.channels = make(map[uint16]*Channel)
		listeners := c.closeListeners
		blocked := c.blockedListeners
		c.mu.Unlock()

		close(c.closed)

		var reason *ConnectionClosed
		if ce, ok := err.(*ConnectionClosed); ok {
			reason = ce
		} else if err != nil {
			reason = &ConnectionClosed{Code: ReplyCodeInternalError, Text: err.Error()}
		}

		for _, ch := range chans {
			ch.connectionLost(reason)
		}
		for _, l := range listeners {
			if reason != nil {
				l <- reason
			}
			close(l)
		}
		for _, l := range blocked {
			close(l)
		}

		c.conn.Close()
	})
}

// reader drains the transport, decodes frames, and dispatches them by
// channel id (§4.2 frame router). It is the connection's only reader
// goroutine; channel 0 frames resolve the handshake/close RPC slot or
// fan out blocked/unblocked notifications, nonzero-channel frames are
// handed to the owning Channel's dispatch method.
func (c *Connection) reader() {
	for {
		f, err := c.fr.ReadFrame()
		if err != nil {
			c.shutdown(classifyReadErr(err))
			return
		}

		if c.Config.Heartbeat > 0 {
			c.conn.SetReadDeadline(time.Now().Add(2 * c.Config.Heartbeat))
		}

		if f.Type == frames.TypeHeartbeat {
			continue
		}

		if f.Channel == 0 {
			if err := c.dispatch0(f); err != nil {
				c.shutdown(err)
				return
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.channels[f.Channel]
		c.mu.Unlock()
		if !ok {
			c.shutdown(newProtocolViolation("frame for unknown channel %d", f.Channel))
			return
		}
		ch.dispatch(f)
	}
}

// classifyReadErr maps a ReadFrame failure onto the §7 error taxonomy: a
// read deadline expiring is the heartbeat monitor detecting a dead peer
// (the deadline itself is reset to 2x the negotiated heartbeat on every
// frame received), a wrapped frames.ErrMalformedFrame is a genuinely
// malformed frame off the wire, and everything else is a transport error.
func classifyReadErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrHeartbeatTimeout
	}
	if errors.Is(err, frames.ErrMalformedFrame) {
		return newMalformedFrame(err)
	}
	return newIOError(err)
}

func (c *Connection) dispatch0(f *frames.Frame) error {
	switch f.Type {
	case frames.TypeMethod:
		mf, err := frames.DecodeMethod(f)
		if err != nil {
			return newMalformedFrame(err)
		}
		switch m := mf.Method.(type) {
		case *encoding.ConnectionClose:
			c.sendMethod0(&encoding.ConnectionCloseOk{})
			return &ConnectionClosed{Code: int(m.ReplyCode), Text: m.ReplyText}
		case *encoding.ConnectionCloseOk:
			select {
			case c.rpc <- m:
			case <-c.closed:
			}
			return nil
		case *encoding.ConnectionBlocked:
			c.fanoutBlocked(Blocking{Active: true, Reason: m.Reason})
			return nil
		case *encoding.ConnectionUnblocked:
			c.fanoutBlocked(Blocking{Active: false})
			return nil
		default:
			select {
			case c.rpc <- m:
			case <-c.closed:
			}
			return nil
		}
	default:
		return newProtocolViolation("unexpected frame type %d on channel 0", f.Type)
	}
}

func (c *Connection) fanoutBlocked(b Blocking) {
	c.mu.Lock()
	listeners := append([]chan Blocking(nil), c.blockedListeners...)
	c.mu.Unlock()
	for _, l := range listeners {
		select {
		case l <- b:
		default:
		}
	}
}

// heartbeater emits a heartbeat frame whenever no frame has been written
// for interval, and relies on the reader's read-deadline reset to detect
// the peer going silent (§4.2 heartbeat).
func (c *Connection) heartbeater(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			select {
			case <-c.sentMark:
				// a frame went out within the last tick; skip this beat.
			default:
				c.writeMu.Lock()
				err := c.fw.WriteHeartbeat()
				c.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}
}

// background returns a context bound to the connection's lifetime, used
// by internal waits that don't have a caller-supplied context.
func (c *Connection) background() context.Context { return context.Background() }
