package amqp

import "context"

// waitHandle and wait are the two ends of a single-result future, grounded
// on original_source/src/wait.rs's Wait/WaitHandle split: the producer
// side (waitHandle) is handed to whichever goroutine will eventually learn
// the outcome (normally the channel's mailbox goroutine, which handles the
// broker's basic.ack/basic.nack), the consumer side (wait) to
// whichever goroutine is prepared to block for it (a publisher awaiting a
// confirm). Neither side may be used more than once.
type wait[T any] struct {
	done chan struct{}
	val  T
	err  error
}

type waitHandle[T any] struct {
	w *wait[T]
}

// newWait creates a connected wait/waitHandle pair.
func newWait[T any]() (*wait[T], waitHandle[T]) {
	w := &wait[T]{done: make(chan struct{})}
	return w, waitHandle[T]{w: w}
}

// finish resolves the wait successfully with val. Exactly one of finish or
// cancel must be called, exactly once.
func (h waitHandle[T]) finish(val T) {
	h.w.val = val
	close(h.w.done)
}

// cancel resolves the wait with err.
func (h waitHandle[T]) cancel(err error) {
	h.w.err = err
	close(h.w.done)
}

// Get blocks until the wait resolves, ctx is done, or closed fires
// (typically the connection or channel's own closed channel, so a waiter
// never blocks past the lifetime of what it's waiting on).
func (w *wait[T]) Get(ctx context.Context, closed <-chan struct{}, closedErr func() error) (T, error) {
	select {
	case <-w.done:
		return w.val, w.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-closed:
		var zero T
		if closedErr != nil {
			return zero, closedErr()
		}
		return zero, ErrNotConnected
	}
}
