package amqp

import "sync"

// returnedMessages fans out basic.return frames to every registered
// NotifyReturn channel, grounded on the acknowledgement.rs reference to a
// ReturnedMessages collaborator (see original_source/src/acknowledgement.rs
// line 132) and on the NotifyReturn pattern every streadway-derived client
// in the pack exposes (other_examples/*-amqp__connection.go.go siblings).
type returnedMessages struct {
	mu        sync.Mutex
	listeners []chan *Returned
}

func newReturnedMessages() *returnedMessages {
	return &returnedMessages{}
}

// listen registers c to receive every future basic.return on this channel.
func (r *returnedMessages) listen(c chan *Returned) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, c)
}

// publish delivers ret to every registered listener without blocking: a
// listener that isn't ready to receive misses the notification, matching
// the non-blocking-fanout contract of the teacher's other Notify* methods.
func (r *returnedMessages) publish(ret *Returned) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.listeners {
		select {
		case c <- ret:
		default:
		}
	}
}

func (r *returnedMessages) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.listeners {
		close(c)
	}
	r.listeners = nil
}
