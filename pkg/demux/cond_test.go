//go:build cgo_enabled

package demux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastWakesWaiter(t *testing.T) {
	c := newBackpressureCond()

	woke := make(chan struct{})
	go func() {
		c.Wait(context.Background())
		close(woke)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Broadcast()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Broadcast")
	}
}

func TestWaitReturnsOnContextDone(t *testing.T) {
	c := newBackpressureCond()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	c.Wait(ctx)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBroadcastWakesMultipleWaiters(t *testing.T) {
	c := newBackpressureCond()

	n := 5
	woke := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			c.Wait(context.Background())
			woke <- struct{}{}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	c.Broadcast()

	for i := 0; i < n; i++ {
		select {
		case <-woke:
		case <-time.After(time.Second):
			t.Fatal("not all waiters were woken")
		}
	}
}
