package amqp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcknowledgementsAckResolvesConfirm(t *testing.T) {
	a := newAcknowledgements()
	a.registerPending(1)

	w, ok := a.getWait(1)
	require.True(t, ok)

	require.NoError(t, a.ack(1))

	_, err := w.Get(context.Background(), nil, nil)
	require.NoError(t, err)
}

func TestAcknowledgementsNackFailsConfirm(t *testing.T) {
	a := newAcknowledgements()
	a.registerPending(5)
	w, ok := a.getWait(5)
	require.True(t, ok)

	require.NoError(t, a.nack(5, nil))

	_, err := w.Get(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestAcknowledgementsNackWithReturnAttachesCause(t *testing.T) {
	a := newAcknowledgements()
	a.registerPending(7)
	w, ok := a.getWait(7)
	require.True(t, ok)

	ret := &Returned{ReplyCode: 312, ReplyText: "NO_ROUTE"}
	require.NoError(t, a.nack(7, ret))

	_, err := w.Get(context.Background(), nil, nil)
	require.ErrorIs(t, err, ret)
	var returned *Returned
	require.ErrorAs(t, err, &returned)
	require.Equal(t, uint16(312), returned.ReplyCode)
}

func TestAcknowledgementsNackAllBeforeAttachesCauseOnlyToNamedTag(t *testing.T) {
	a := newAcknowledgements()
	waits := make(map[uint64]*wait[struct{}])
	for _, tag := range []uint64{1, 2, 3} {
		a.registerPending(tag)
		w, ok := a.getWait(tag)
		require.True(t, ok)
		waits[tag] = w
	}

	ret := &Returned{ReplyCode: 312, ReplyText: "NO_ROUTE"}
	a.nackAllBefore(3, ret)

	_, err1 := waits[1].Get(context.Background(), nil, nil)
	_, err2 := waits[2].Get(context.Background(), nil, nil)
	_, err3 := waits[3].Get(context.Background(), nil, nil)
	require.ErrorIs(t, err1, ErrUnexpectedReply)
	require.ErrorIs(t, err2, ErrUnexpectedReply)
	require.ErrorIs(t, err3, ret)
}

func TestAcknowledgementsMultipleAckSettlesAllBefore(t *testing.T) {
	a := newAcknowledgements()
	waits := make(map[uint64]*wait[struct{}])
	for _, tag := range []uint64{1, 2, 3, 4} {
		a.registerPending(tag)
		w, ok := a.getWait(tag)
		require.True(t, ok)
		waits[tag] = w
	}

	a.ackAllBefore(3)

	for _, tag := range []uint64{1, 2, 3} {
		_, err := waits[tag].Get(context.Background(), nil, nil)
		require.NoError(t, err, "tag %d should be settled", tag)
	}

	// tag 4 is still outstanding.
	require.Empty(t, a.listPendingBefore(3))
	require.Len(t, a.listPendingBefore(4), 1)
}

func TestAcknowledgementsDropUnknownTagFails(t *testing.T) {
	a := newAcknowledgements()
	require.ErrorIs(t, a.ack(99), ErrPreconditionFailed)
}

func TestAcknowledgementsNackAllPendingOnClose(t *testing.T) {
	a := newAcknowledgements()
	a.registerPending(1)
	a.registerPending(2)
	w1, _ := a.getWait(1)
	w2, _ := a.getWait(2)

	a.nackAllPending()

	_, err1 := w1.Get(context.Background(), nil, nil)
	_, err2 := w2.Get(context.Background(), nil, nil)
	require.ErrorIs(t, err1, ErrUnexpectedReply)
	require.ErrorIs(t, err2, ErrUnexpectedReply)
}

func TestWaitGetRacesClosed(t *testing.T) {
	w, _ := newWait[struct{}]()
	closed := make(chan struct{})
	close(closed)

	_, err := w.Get(context.Background(), closed, func() error { return ErrNotConnected })
	require.ErrorIs(t, err, ErrNotConnected)
}
