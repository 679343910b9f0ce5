package amqp

import (
	"context"
	"sync"
)

// flowGate gates Channel.Publish on channel.flow, adapted from the
// teacher's manualCreditor: the same mutex-guarded "pending state plus a
// slice of waiters released together" shape, repointed from AMQP 1.0
// link-credit bookkeeping to the AMQP 0-9-1 channel.flow boolean (§4.7).
// channel.flow(false) pauses the gate; every Publish that arrives while
// paused parks on a private channel until channel.flow(true) closes all
// of them at once, mirroring EndDrain's "close and reset" release.
type flowGate struct {
	mu      sync.Mutex
	paused  bool
	waiters []chan struct{}
}

// setActive applies the broker's requested flow state, releasing every
// parked Publish when active transitions to true.
func (g *flowGate) setActive(active bool) {
	g.mu.Lock()
	g.paused = !active
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	if active {
		for _, w := range waiters {
			close(w)
		}
	}
}

// wait blocks the caller until the gate is active, ctx is done, or closed
// fires. It returns immediately if the gate isn't currently paused.
func (g *flowGate) wait(ctx context.Context, closed <-chan struct{}) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	resume := make(chan struct{})
	g.waiters = append(g.waiters, resume)
	g.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		return ErrNotConnected
	}
}

// releaseAll unblocks every parked Publish without marking the gate
// active, used when the channel is closing and no further flow-ok will
// ever arrive.
func (g *flowGate) releaseAll() {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}
