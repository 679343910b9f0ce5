package amqp

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
)

func TestConsumerPullModeDeliversInOrder(t *testing.T) {
	defer leaktest.Check(t)()

	c := newConsumer(nil, "ctag-1", nil)
	defer c.cancel()

	c.enqueue(Delivery{DeliveryTag: 1})
	c.enqueue(Delivery{DeliveryTag: 2})

	d1 := <-c.out
	require.EqualValues(t, 1, d1.DeliveryTag)
	d2 := <-c.out
	require.EqualValues(t, 2, d2.DeliveryTag)
}

func TestConsumerCancelDrainsThenCloses(t *testing.T) {
	defer leaktest.Check(t)()

	c := newConsumer(nil, "ctag-2", nil)
	c.enqueue(Delivery{DeliveryTag: 1})
	c.cancel()

	d, ok := <-c.out
	require.True(t, ok)
	require.EqualValues(t, 1, d.DeliveryTag)

	_, ok = <-c.out
	require.False(t, ok, "out must close once cancelled and drained")
}

func TestConsumerPushModeInvokesSink(t *testing.T) {
	defer leaktest.Check(t)()

	received := make(chan Delivery, 1)
	c := newConsumer(nil, "ctag-3", func(d Delivery) {
		received <- d
	})
	defer c.cancel()

	c.enqueue(Delivery{DeliveryTag: 42})

	select {
	case d := <-received:
		require.EqualValues(t, 42, d.DeliveryTag)
	case <-time.After(time.Second):
		t.Fatal("sink was never invoked")
	}

	require.Nil(t, c.out, "push mode must not expose a pull channel")
}

func TestConsumerPushModeNeverGrowsQueue(t *testing.T) {
	defer leaktest.Check(t)()

	received := make(chan Delivery, 4)
	c := newConsumer(nil, "ctag-4", func(d Delivery) {
		received <- d
	})
	defer c.cancel()

	for i := 0; i < 4; i++ {
		c.enqueue(Delivery{DeliveryTag: uint64(i)})
	}
	for i := 0; i < 4; i++ {
		<-received
	}

	c.mu.Lock()
	item := c.q.Dequeue()
	c.mu.Unlock()
	require.Nil(t, item, "push-mode deliveries must never be enqueued into c.q")
}
