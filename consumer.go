package amqp

import (
	"sync"

	"github.com/kontrol-systems/amqp091/internal/queue"
)

const consumerQueueSegment = 64

// consumer holds one consumer_tag's completed deliveries, matching §4.5:
// an unbounded segmented FIFO (internal/queue.Queue[Delivery], which adds a
// segment whenever the last one is full) drained by a pull-mode channel; a
// push-mode delegate goroutine receives deliveries without the queue.
type consumer struct {
	tag     string
	channel *Channel

	mu        sync.Mutex
	q         *queue.Queue[Delivery]
	cancelled bool
	notify    chan struct{} // signaled on enqueue/cancel, for the pull drain loop

	out chan Delivery // exposed to the caller in pull mode; nil in push mode
	sink func(Delivery)
}

func newConsumer(ch *Channel, tag string, sink func(Delivery)) *consumer {
	c := &consumer{
		tag:     tag,
		channel: ch,
		q:       queue.New[Delivery](consumerQueueSegment),
		notify:  make(chan struct{}, 1),
		sink:    sink,
	}
	if sink == nil {
		c.out = make(chan Delivery)
		go c.drain()
	}
	return c
}

func (c *consumer) enqueue(d Delivery) {
	if c.sink != nil {
		// Push mode: run the sink off the dispatch goroutine so a slow or
		// blocking delegate can never stall the channel's frame router
		// (§4.5 "must not block the frame router"). Deliveries never touch
		// c.q here — it exists only to back the pull-mode drain loop, and
		// holding onto already-dispatched push-mode deliveries would grow
		// it without bound.
		go c.sink(d)
		return
	}

	c.mu.Lock()
	c.q.Enqueue(d)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// drain feeds the pull-mode out channel from the queue as items become
// available, until the consumer is cancelled and drained empty.
func (c *consumer) drain() {
	defer close(c.out)
	for {
		c.mu.Lock()
		item := c.q.Dequeue()
		cancelled := c.cancelled
		c.mu.Unlock()

		if item != nil {
			c.out <- *item
			continue
		}
		if cancelled {
			return
		}
		<-c.notify
	}
}

func (c *consumer) cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
