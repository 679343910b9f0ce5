package amqp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettleTagOnlySucceedsOnce(t *testing.T) {
	ch := &Channel{settled: make(map[uint64]struct{})}

	require.True(t, ch.settleTag(7))
	require.False(t, ch.settleTag(7), "a delivery tag must settle at most once")
	require.True(t, ch.settleTag(8), "a distinct tag is unaffected by another tag settling")
}
