package amqp

import (
	"crypto/tls"
	"time"

	"github.com/kontrol-systems/amqp091/internal/encoding"
)

// Table is a field-table value, re-exported from the internal codec so
// callers can build Config.Properties / Publishing.Headers without
// reaching into internal packages.
type Table = encoding.Table

// Config holds connection tuning parameters, mirroring the teacher's
// Config shape: one struct read once at dial time, never mutated after.
type Config struct {
	// SASL lists offered authentication mechanisms in preference order.
	// Defaults to PlainAuth{"guest", "guest"} when empty.
	SASL []Authentication

	// Vhost overrides the URI's vhost segment, e.g. for DialConfig callers
	// that don't want it baked into the address.
	Vhost string

	// ChannelMax is the client's upper bound on concurrently open
	// channels; the negotiated value is min(client, server), a server
	// value of 0 meaning no server limit. 0 selects defaultChannelMax
	// (2047) (§6).
	ChannelMax uint16

	// FrameMax is the client's upper bound on frame payload size; the
	// negotiated value is min(client, server) and never below
	// frames.MinFrameMax. 0 selects defaultFrameMax (131072) (§6).
	FrameMax uint32

	// Heartbeat is the client's requested heartbeat interval; 0 disables
	// heartbeats on this side of the negotiation. The effective interval
	// is min(client, server) unless either side requested 0, in which
	// case heartbeats are disabled entirely (§4.2, §6).
	Heartbeat time.Duration

	// TLSClientConfig is used by DialTLS and by DialConfig when the URI
	// scheme is amqps. A nil value uses tls.Config{}'s defaults.
	TLSClientConfig *tls.Config

	// Properties are merged into the client-properties table sent with
	// connection.start-ok, alongside this library's own identification.
	Properties Table

	// Locale is offered in connection.start-ok; defaults to "en_US".
	Locale string

	// Dial is used to establish the underlying net.Conn; defaults to
	// (&net.Dialer{Timeout: HandshakeTimeout}).Dial. Supply a custom
	// value to dial through a proxy or a non-TCP transport.
	Dial func(network, addr string) (Conn, error)

	// HandshakeTimeout bounds the TCP dial and the AMQP protocol
	// handshake; the TLS handshake of an amqps connection is not bounded
	// by it. 0 selects defaultHandshakeTimeout (30s).
	HandshakeTimeout time.Duration
}

// Conn is the transport connection interface the engine reads and writes
// frames over; satisfied by *net.TCPConn, *tls.Conn, and test doubles.
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

func (c *Config) withDefaults() Config {
	out := *c
	if len(out.SASL) == 0 {
		out.SASL = []Authentication{&PlainAuth{Username: "guest", Password: "guest"}}
	}
	if out.Vhost == "" {
		out.Vhost = "/"
	}
	if out.ChannelMax == 0 {
		out.ChannelMax = defaultChannelMax
	}
	if out.FrameMax == 0 {
		out.FrameMax = defaultFrameMax
	}
	if out.Locale == "" {
		out.Locale = "en_US"
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = defaultHandshakeTimeout
	}
	return out
}

const (
	defaultChannelMax       = 2047
	defaultFrameMax         = 131072
	defaultHandshakeTimeout = 30 * time.Second
)

// Dial connects to the AMQP broker at the given URI using default
// transport and tuning options. It is shorthand for
// DialConfig(uri, Config{}).
func Dial(uri string) (*Connection, error) {
	return DialConfig(uri, Config{})
}

// DialTLS connects to an amqps:// broker using tlsConfig, overriding
// whatever TLSClientConfig was otherwise set.
func DialTLS(uri string, tlsConfig *tls.Config) (*Connection, error) {
	cfg := Config{TLSClientConfig: tlsConfig}
	return DialConfig(uri, cfg)
}

// DialConfig connects to the AMQP broker at the given URI, applying cfg.
// Credentials and vhost embedded in the URI take precedence over zero
// values left in cfg, matching the teacher's layered-options pattern.
func DialConfig(uri string, cfg Config) (*Connection, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	if len(cfg.SASL) == 0 && u.Username != "" {
		cfg.SASL = []Authentication{&PlainAuth{Username: u.Username, Password: u.Password}}
	}
	if cfg.Vhost == "" {
		cfg.Vhost = u.Vhost
	}

	dial := cfg.Dial
	if dial == nil {
		dial = func(network, addr string) (Conn, error) {
			d := netDialer{timeout: cfg.withDefaults().HandshakeTimeout}
			return d.Dial(network, addr)
		}
	}

	conn, err := dial("tcp", u.Addr())
	if err != nil {
		return nil, newIOError(err)
	}

	if u.Scheme == amqpsURIScheme {
		tlsConn, err := wrapTLS(conn, cfg.TLSClientConfig, u.Host)
		if err != nil {
			conn.Close()
			return nil, newHandshakeFailed("tls", err)
		}
		conn = tlsConn
	}

	return Open(conn, cfg)
}
