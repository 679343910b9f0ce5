package amqp

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/kontrol-systems/amqp091/internal/mocks"
	"github.com/stretchr/testify/require"
)

// handshakeResponder drives a mock broker through exactly one
// connection.start/tune/open sequence, then hands off to extra for
// whatever the test wants to exercise afterward.
func handshakeResponder(t *testing.T, extra func(mocks.Received) ([]byte, error)) func(mocks.Received) ([]byte, error) {
	step := 0
	return func(recv mocks.Received) ([]byte, error) {
		step++
		switch step {
		case 1:
			require.NotNil(t, recv.Proto, "first write must be the protocol header")
			return mocks.EncodeMethod(0, &encoding.ConnectionStart{
				VersionMajor: 0, VersionMinor: 9,
				ServerProperties: encoding.Table{"product": "mock-broker"},
				Mechanisms:       "PLAIN",
				Locales:          "en_US",
			})
		case 2:
			_, ok := recv.Method.(*encoding.ConnectionStartOk)
			require.True(t, ok, "expected connection.start-ok, got %T", recv.Method)
			return mocks.EncodeMethod(0, &encoding.ConnectionTune{
				ChannelMax: 16, FrameMax: 131072, Heartbeat: 0,
			})
		case 3:
			_, ok := recv.Method.(*encoding.ConnectionTuneOk)
			require.True(t, ok, "expected connection.tune-ok, got %T", recv.Method)
			return nil, nil
		case 4:
			_, ok := recv.Method.(*encoding.ConnectionOpen)
			require.True(t, ok, "expected connection.open, got %T", recv.Method)
			return mocks.EncodeMethod(0, &encoding.ConnectionOpenOk{})
		default:
			if extra != nil {
				return extra(recv)
			}
			return nil, nil
		}
	}
}

func TestOpenPerformsHandshake(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	conn := mocks.NewConnection(handshakeResponder(t, func(recv mocks.Received) ([]byte, error) {
		if _, ok := recv.Method.(*encoding.ConnectionClose); ok {
			return mocks.EncodeMethod(0, &encoding.ConnectionCloseOk{})
		}
		return nil, nil
	}))

	c, err := Open(conn, Config{})
	require.NoError(t, err)
	require.EqualValues(t, 16, c.channelMax)
	require.Equal(t, "mock-broker", c.Properties["product"])

	require.NoError(t, c.Close())
}

func TestChannelOpenAndClose(t *testing.T) {
	defer leaktest.CheckTimeout(t, time.Second)()

	conn := mocks.NewConnection(handshakeResponder(t, func(recv mocks.Received) ([]byte, error) {
		switch recv.Method.(type) {
		case *encoding.ChannelOpen:
			return mocks.EncodeMethod(recv.Frame.Channel, &encoding.ChannelOpenOk{})
		case *encoding.ChannelClose:
			return mocks.EncodeMethod(recv.Frame.Channel, &encoding.ChannelCloseOk{})
		case *encoding.ConnectionClose:
			return mocks.EncodeMethod(0, &encoding.ConnectionCloseOk{})
		}
		return nil, nil
	}))

	c, err := Open(conn, Config{})
	require.NoError(t, err)
	defer c.Close()

	ch, err := c.Channel()
	require.NoError(t, err)
	require.NotZero(t, ch.id)

	require.NoError(t, ch.Close())
}
