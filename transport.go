package amqp

import (
	"crypto/tls"
	"net"
	"time"
)

// netDialer is the default Conn factory used by DialConfig when Config.Dial
// is left nil.
type netDialer struct {
	timeout time.Duration
}

func (d netDialer) Dial(network, addr string) (Conn, error) {
	return net.DialTimeout(network, addr, d.timeout)
}

func wrapTLS(conn Conn, cfg *tls.Config, serverName string) (Conn, error) {
	nc, ok := conn.(net.Conn)
	if !ok {
		return nil, errNotNetConn
	}
	if cfg == nil {
		cfg = &tls.Config{}
	}
	if cfg.ServerName == "" {
		cfg = cfg.Clone()
		cfg.ServerName = serverName
	}
	tlsConn := tls.Client(nc, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

var errNotNetConn = &notNetConnError{}

type notNetConnError struct{}

func (*notNetConnError) Error() string { return "amqp: custom Dial did not return a net.Conn, cannot negotiate TLS" }
