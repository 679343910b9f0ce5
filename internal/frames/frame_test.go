package frames

import (
	"bytes"
	"testing"

	"github.com/kontrol-systems/amqp091/internal/encoding"
	"github.com/stretchr/testify/require"
)

func TestMethodFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	method := &encoding.ChannelOpen{}
	require.NoError(t, w.WriteMethod(7, method))

	r := NewReader(&buf, 0)
	f, err := r.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, TypeMethod, f.Type)
	require.EqualValues(t, 7, f.Channel)

	mf, err := DecodeMethod(f)
	require.NoError(t, err)
	require.IsType(t, &encoding.ChannelOpen{}, mf.Method)
}

func TestContentRoundTripSingleBody(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	method := &encoding.BasicPublish{Exchange: "ex", RoutingKey: "rk"}
	props := encoding.BasicProperties{ContentType: "text/plain", DeliveryMode: 2}
	body := []byte("hello world")

	require.NoError(t, w.WriteContent(3, method, method.ClassID(), props, body))

	r := NewReader(&buf, 0)

	mFrame, err := r.ReadFrame()
	require.NoError(t, err)
	_, err = DecodeMethod(mFrame)
	require.NoError(t, err)

	hFrame, err := r.ReadFrame()
	require.NoError(t, err)
	hf, err := DecodeHeader(hFrame)
	require.NoError(t, err)
	require.EqualValues(t, len(body), hf.BodySize)
	require.Equal(t, "text/plain", hf.Properties.ContentType)

	bFrame, err := r.ReadFrame()
	require.NoError(t, err)
	bf, err := DecodeBody(bFrame)
	require.NoError(t, err)
	require.Equal(t, body, bf.Body)
}

func TestWriteContentSplitsOversizeBody(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, MinFrameMax)
	method := &encoding.BasicPublish{Exchange: "ex", RoutingKey: "rk"}
	body := bytes.Repeat([]byte{'a'}, MinFrameMax*2)

	require.NoError(t, w.WriteContent(1, method, method.ClassID(), encoding.BasicProperties{}, body))

	r := NewReader(&buf, MinFrameMax)
	_, err := r.ReadFrame() // method
	require.NoError(t, err)
	_, err = r.ReadFrame() // header
	require.NoError(t, err)

	var reassembled []byte
	for len(reassembled) < len(body) {
		f, err := r.ReadFrame()
		require.NoError(t, err)
		bf, err := DecodeBody(f)
		require.NoError(t, err)
		reassembled = append(reassembled, bf.Body...)
	}
	require.Equal(t, body, reassembled)
}

func TestReadFrameRejectsBadTerminator(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	require.NoError(t, w.WriteHeartbeat())

	raw := buf.Bytes()
	raw[len(raw)-1] = 0x00 // corrupt the terminator

	r := NewReader(bytes.NewReader(raw), 0)
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrMalformedFrame)
}

func TestReadFrameEnforcesFrameMax(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	require.NoError(t, w.WriteMethod(0, &encoding.ChannelOpen{}))

	r := NewReader(&buf, 1) // absurdly small ceiling
	_, err := r.ReadFrame()
	require.ErrorIs(t, err, ErrMalformedFrame)
}
