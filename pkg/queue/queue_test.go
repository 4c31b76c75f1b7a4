package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToDefaultCapacity(t *testing.T) {
	q := New[int](0)
	assert.Equal(t, DefaultCapacity, q.Capacity())

	q = New[int](-5)
	assert.Equal(t, DefaultCapacity, q.Capacity())
}

func TestFIFOOrdering(t *testing.T) {
	q := New[int](10)
	q.TryPush(1)
	q.TryPush(2)
	q.TryPush(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestTryPushNeverRejects(t *testing.T) {
	q := New[int](2)
	for i := 0; i < 10; i++ {
		q.TryPush(i)
	}
	assert.Equal(t, 10, q.Size())
	assert.True(t, q.OverCapacity())
}

func TestEmptyAndOverCapacity(t *testing.T) {
	q := New[int](1)
	assert.True(t, q.Empty())
	assert.False(t, q.OverCapacity())

	q.TryPush(1)
	assert.False(t, q.Empty())
	assert.False(t, q.OverCapacity())

	q.TryPush(2)
	assert.True(t, q.OverCapacity())
}

func TestPushFromAnotherGoroutineThenPopAll(t *testing.T) {
	q := New[int](1000)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			q.TryPush(i)
		}
	}()
	wg.Wait()

	count := 0
	for {
		if _, ok := q.TryPop(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, 1000, count)
}
