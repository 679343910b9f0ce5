package amqp

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Authentication is a SASL mechanism offered to connection.start-ok.
// Implementations mirror the teacher's credential-provider shape: a
// stateless value that knows its own mechanism name and wire payload.
type Authentication interface {
	// Mechanism returns the SASL mechanism name, e.g. "PLAIN".
	Mechanism() string
	// Response returns the mechanism's initial response bytes.
	Response() string
}

// PlainAuth implements the SASL PLAIN mechanism (RFC 4616): an initial
// response of "\0username\0password".
type PlainAuth struct {
	Username string
	Password string
}

func (a *PlainAuth) Mechanism() string { return "PLAIN" }
func (a *PlainAuth) Response() string  { return "\000" + a.Username + "\000" + a.Password }

// ExternalAuth implements the SASL EXTERNAL mechanism: credentials are
// established out of band (client TLS certificate) and the initial
// response is empty.
type ExternalAuth struct{}

func (a *ExternalAuth) Mechanism() string { return "EXTERNAL" }
func (a *ExternalAuth) Response() string  { return "" }

// pickSASLMechanism chooses the first mechanism in auths whose name
// appears in the broker-offered, space-separated mechanisms string.
func pickSASLMechanism(offered string, auths []Authentication) (Authentication, error) {
	set := make(map[string]bool)
	for _, m := range strings.Fields(offered) {
		set[m] = true
	}
	for _, a := range auths {
		if set[a.Mechanism()] {
			return a, nil
		}
	}
	return nil, ErrSASL
}

// URI is a parsed AMQP broker address: amqp[s]://[user[:pass]@]host[:port]/vhost.
type URI struct {
	Scheme      string
	Host        string
	Port        int
	Username    string
	Password    string
	Vhost       string
}

const (
	defaultURIScheme = "amqp"
	amqpsURIScheme   = "amqps"
	defaultAMQPPort  = 5672
	defaultAMQPSPort = 5671
)

// ParseURI parses an AMQP connection string of the form
// "amqp[s]://[user[:pass]@]host[:port]/vhost" (§6 Connection URI). The
// vhost segment is percent-decoded; an empty or absent path yields "/".
func ParseURI(uri string) (URI, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return URI{}, pkgerrors.Wrap(err, "amqp: malformed uri")
	}

	me := URI{Scheme: u.Scheme}

	switch u.Scheme {
	case defaultURIScheme:
		me.Port = defaultAMQPPort
	case amqpsURIScheme:
		me.Port = defaultAMQPSPort
	default:
		return me, pkgerrors.Errorf("amqp: unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return me, pkgerrors.New("amqp: uri is missing a host")
	}
	me.Host = host

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return me, pkgerrors.Wrap(err, "amqp: malformed port")
		}
		me.Port = n
	}

	if u.User != nil {
		me.Username = u.User.Username()
		me.Password, _ = u.User.Password()
	}

	if u.Path == "" || u.Path == "/" {
		me.Vhost = "/"
	} else {
		me.Vhost = strings.TrimPrefix(u.Path, "/")
	}

	return me, nil
}

// Addr returns the host:port pair suitable for net.Dial.
func (u URI) Addr() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}
