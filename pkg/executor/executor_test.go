package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStarted(t *testing.T, capacity int64) *Executor {
	t.Helper()
	e := New(context.Background(), capacity)
	e.Start()
	t.Cleanup(e.Stop)
	return e
}

func TestNewClampsNonPositiveCapacityToOne(t *testing.T) {
	e := New(context.Background(), 0)
	assert.Equal(t, int64(1), e.Capacity())

	e = New(context.Background(), -3)
	assert.Equal(t, int64(1), e.Capacity())
}

func TestInvokeRunsTaskAndReturnsItsError(t *testing.T) {
	e := newStarted(t, 1)

	require.NoError(t, e.Invoke(func() error { return nil }))

	wantErr := errors.New("boom")
	err := e.Invoke(func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	e := newStarted(t, 4)

	var mu sync.Mutex
	var order []int

	var handles []*Handle
	for i := 0; i < 5; i++ {
		i := i
		h, err := e.BeginInvoke(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	for _, h := range handles {
		require.NoError(t, h.Wait(context.Background()))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHandleWaitReturnsOnCtxDone(t *testing.T) {
	e := newStarted(t, 1)

	release := make(chan struct{})
	h, err := e.BeginInvoke(func() error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestClearDropsPendingTasksWithCanceled(t *testing.T) {
	e := New(context.Background(), 2)
	e.Start()
	defer e.Stop()

	release := make(chan struct{})
	blocking, err := e.BeginInvoke(func() error {
		<-release
		return nil
	})
	require.NoError(t, err)

	var ran atomic.Bool
	pending, err := e.BeginInvoke(func() error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return len(e.queue) == 1
	}, time.Second, time.Millisecond)

	e.Clear()

	err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())

	close(release)
	require.NoError(t, blocking.Wait(context.Background()))
}

func TestStopIsIdempotent(t *testing.T) {
	e := New(context.Background(), 1)
	e.Start()

	e.Stop()
	assert.NotPanics(t, e.Stop)
}

func TestSizeAndCapacityAccounting(t *testing.T) {
	e := newStarted(t, 3)
	assert.Equal(t, int64(3), e.Capacity())
	assert.Equal(t, int64(0), e.Size())

	release := make(chan struct{})
	h, err := e.BeginInvoke(func() error {
		<-release
		return nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return e.Size() == 1 }, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, h.Wait(context.Background()))

	assert.Eventually(t, func() bool { return e.Size() == 0 }, time.Second, time.Millisecond)
}
