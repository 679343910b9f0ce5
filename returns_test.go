package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReturnedMessagesFanOut(t *testing.T) {
	r := newReturnedMessages()
	a := make(chan *Returned, 1)
	b := make(chan *Returned, 1)
	r.listen(a)
	r.listen(b)

	ret := &Returned{ReplyCode: ReplyCodeNoConsumers, ReplyText: "no consumers", Exchange: "ex", RoutingKey: "rk"}
	r.publish(ret)

	require.Equal(t, ret, <-a)
	require.Equal(t, ret, <-b)
}

func TestReturnedMessagesPublishDoesNotBlockOnFullListener(t *testing.T) {
	r := newReturnedMessages()
	full := make(chan *Returned) // unbuffered, nobody reading
	r.listen(full)

	done := make(chan struct{})
	go func() {
		r.publish(&Returned{ReplyCode: ReplyCodeNoConsumers})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a listener with no reader")
	}
}

func TestReturnedMessagesCloseAll(t *testing.T) {
	r := newReturnedMessages()
	c := make(chan *Returned, 1)
	r.listen(c)

	r.closeAll()

	_, ok := <-c
	require.False(t, ok)
}
