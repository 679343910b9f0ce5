package amqp

import "sync"

// acknowledgements tracks outstanding publisher confirms for one channel,
// grounded on original_source/src/acknowledgement.rs: one Wait[struct{}]
// per pending delivery tag, a pending map handed ack/nack from the
// channel's dispatch loop, and a waits map whose entries are handed out
// exactly once, through getWait or getLastPending.
type acknowledgements struct {
	mu      sync.Mutex
	last    uint64
	waits   map[uint64]*wait[struct{}]
	pending map[uint64]waitHandle[struct{}]
}

func newAcknowledgements() *acknowledgements {
	return &acknowledgements{
		waits:   make(map[uint64]*wait[struct{}]),
		pending: make(map[uint64]waitHandle[struct{}]),
	}
}

// registerPending records deliveryTag as awaiting confirmation, called by
// Channel.Publish immediately before the publish frame is written so the
// tag is known before any ack for it could possibly arrive.
func (a *acknowledgements) registerPending(deliveryTag uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, h := newWait[struct{}]()
	a.waits[deliveryTag] = w
	a.pending[deliveryTag] = h
	a.last = deliveryTag
}

// getWait removes and returns the wait for deliveryTag, handing exclusive
// ownership of it to the caller (Channel.Publish's Confirmation).
func (a *acknowledgements) getWait(deliveryTag uint64) (*wait[struct{}], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.waits[deliveryTag]
	if ok {
		delete(a.waits, deliveryTag)
	}
	return w, ok
}

// getLastPending removes and returns the wait for the most recently
// registered delivery tag, discarding every other outstanding wait, for a
// caller that waits for just the newest publish on the assumption the
// broker confirms in order.
func (a *acknowledgements) getLastPending() (*wait[struct{}], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == 0 {
		return nil, false
	}
	w, ok := a.waits[a.last]
	a.waits = make(map[uint64]*wait[struct{}])
	a.last = 0
	return w, ok
}

// dropPending resolves deliveryTag with success when cause is nil, or with
// cause as the failure observed by the waiter otherwise.
func (a *acknowledgements) dropPending(deliveryTag uint64, cause error) error {
	a.mu.Lock()
	h, ok := a.pending[deliveryTag]
	if ok {
		delete(a.pending, deliveryTag)
	}
	a.mu.Unlock()
	if !ok {
		return ErrPreconditionFailed
	}
	if cause == nil {
		h.finish(struct{}{})
	} else {
		h.cancel(cause)
	}
	return nil
}

// ack resolves the single delivery tag successfully (basic.ack with
// multiple=false).
func (a *acknowledgements) ack(deliveryTag uint64) error {
	return a.dropPending(deliveryTag, nil)
}

// nack resolves the single delivery tag as failed (basic.nack with
// multiple=false). cause is attached when the broker's basic.return for
// this publish was stashed before the nack arrived; a nil cause falls
// back to ErrUnexpectedReply.
func (a *acknowledgements) nack(deliveryTag uint64, cause error) error {
	if cause == nil {
		cause = ErrUnexpectedReply
	}
	return a.dropPending(deliveryTag, cause)
}

func (a *acknowledgements) listPendingBefore(deliveryTag uint64) []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var tags []uint64
	for tag := range a.pending {
		if tag <= deliveryTag {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ackAllBefore resolves every pending tag <= deliveryTag (basic.ack,
// multiple=true).
func (a *acknowledgements) ackAllBefore(deliveryTag uint64) {
	for _, tag := range a.listPendingBefore(deliveryTag) {
		a.ack(tag)
	}
}

// nackAllBefore fails every pending tag <= deliveryTag (basic.nack,
// multiple=true). cause, if any, is attached only to deliveryTag itself —
// the one message the broker's basic.return could plausibly describe;
// every earlier tag swept up by the cumulative nack gets the generic
// ErrUnexpectedReply.
func (a *acknowledgements) nackAllBefore(deliveryTag uint64, cause error) {
	for _, tag := range a.listPendingBefore(deliveryTag) {
		if tag == deliveryTag {
			a.nack(tag, cause)
		} else {
			a.nack(tag, nil)
		}
	}
}

func (a *acknowledgements) drainPending() []waitHandle[struct{}] {
	a.mu.Lock()
	defer a.mu.Unlock()
	handles := make([]waitHandle[struct{}], 0, len(a.pending))
	for tag, h := range a.pending {
		handles = append(handles, h)
		delete(a.pending, tag)
	}
	a.waits = make(map[uint64]*wait[struct{}])
	return handles
}

// ackAllPending resolves every outstanding confirm successfully. Nothing in
// this client calls it: channel shutdown settles outstanding confirms with
// nackAllPending, and a broker basic.ack with tag 0 and multiple set is
// handled as ackAllBefore over every tag.
func (a *acknowledgements) ackAllPending() {
	for _, h := range a.drainPending() {
		h.finish(struct{}{})
	}
}

// nackAllPending fails every outstanding confirm, called when the channel
// or connection closes while publishes are still unconfirmed.
func (a *acknowledgements) nackAllPending() {
	for _, h := range a.drainPending() {
		h.cancel(ErrUnexpectedReply)
	}
}
