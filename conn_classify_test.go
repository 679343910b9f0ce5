package amqp

import (
	"net"
	"testing"

	"github.com/kontrol-systems/amqp091/internal/frames"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

var _ net.Error = fakeTimeoutErr{}

func TestClassifyReadErrHeartbeatTimeout(t *testing.T) {
	err := classifyReadErr(fakeTimeoutErr{})
	require.ErrorIs(t, err, ErrHeartbeatTimeout)
}

func TestClassifyReadErrMalformedFrame(t *testing.T) {
	wrapped := errors.Wrap(frames.ErrMalformedFrame, "bad terminator")
	err := classifyReadErr(wrapped)

	var mf *MalformedFrame
	require.ErrorAs(t, err, &mf)
}

func TestClassifyReadErrOtherwiseIOError(t *testing.T) {
	err := classifyReadErr(errors.New("connection reset"))

	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
}
