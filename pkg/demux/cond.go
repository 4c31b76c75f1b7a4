//go:build cgo_enabled

package demux

import (
	"context"
	"sync"
)

// backpressureCond is a context-aware broadcast condition: Wait returns
// either when Broadcast is next called or when ctx is done, whichever
// comes first. sync.Cond cannot be interrupted by a context, which is why
// the pump needs this instead.
type backpressureCond struct {
	mu sync.Mutex
	ch chan struct{}
}

func newBackpressureCond() *backpressureCond {
	return &backpressureCond{ch: make(chan struct{})}
}

// Wait blocks until the next Broadcast or until ctx is done.
func (c *backpressureCond) Wait(ctx context.Context) {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
	}
}

// Broadcast wakes every goroutine currently in Wait.
func (c *backpressureCond) Broadcast() {
	c.mu.Lock()
	close(c.ch)
	c.ch = make(chan struct{})
	c.mu.Unlock()
}
