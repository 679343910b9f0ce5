package amqp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}
	out := cfg.withDefaults()

	require.Len(t, out.SASL, 1)
	require.Equal(t, "PLAIN", out.SASL[0].Mechanism())
	require.Equal(t, "/", out.Vhost)
	require.EqualValues(t, defaultChannelMax, out.ChannelMax)
	require.EqualValues(t, defaultFrameMax, out.FrameMax)
	require.Equal(t, "en_US", out.Locale)
}

func TestConfigWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		SASL:       []Authentication{&ExternalAuth{}},
		Vhost:      "/custom",
		ChannelMax: 10,
		FrameMax:   8192,
		Locale:     "fr_FR",
	}
	out := cfg.withDefaults()

	require.Equal(t, "EXTERNAL", out.SASL[0].Mechanism())
	require.Equal(t, "/custom", out.Vhost)
	require.EqualValues(t, 10, out.ChannelMax)
	require.EqualValues(t, 8192, out.FrameMax)
	require.Equal(t, "fr_FR", out.Locale)
}

func TestDialConfigRejectsMalformedURI(t *testing.T) {
	_, err := DialConfig("not-a-uri", Config{})
	require.Error(t, err)
}
