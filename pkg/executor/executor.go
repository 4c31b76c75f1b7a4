// Package executor implements the single-worker, bounded-capacity task
// runner shared by the demux pump's read loop and the frame mixer's tick
// loop (see "Scheduling model" in the concurrency design). Submission is
// non-blocking until the bound is reached, after which the submitting
// caller blocks until a slot frees up.
package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Task is a unit of work submitted to an Executor.
type Task func() error

type job struct {
	fn   Task
	done chan error
}

// Handle is returned by BeginInvoke; it resolves once the task runs.
type Handle struct {
	done chan error
}

// Wait blocks until the task completes or ctx is done, whichever comes
// first.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case err := <-h.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Executor runs submitted Tasks one at a time, in submission order, on a
// single worker goroutine. A semaphore of weight capacity bounds how many
// tasks may be admitted (queued or executing) at once; submitting past
// that bound blocks the caller until a running task completes.
type Executor struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64

	mu     sync.Mutex
	queue  []job
	notify chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates an Executor bounded to capacity concurrently admitted tasks.
// A non-positive capacity is treated as 1.
func New(ctx context.Context, capacity int64) *Executor {
	if capacity < 1 {
		capacity = 1
	}
	ctx2, cancel := context.WithCancel(ctx)
	return &Executor{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		ctx:      ctx2,
		cancel:   cancel,
	}
}

// Start launches the worker goroutine. Safe to call once per Executor.
func (e *Executor) Start() {
	e.wg.Add(1)
	go e.loop()
}

func (e *Executor) loop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.notify:
		}

		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				e.mu.Unlock()
				break
			}
			j := e.queue[0]
			e.queue = e.queue[1:]
			e.mu.Unlock()

			j.done <- j.fn()
			e.inUse.Add(-1)
			e.sem.Release(1)
		}
	}
}

// BeginInvoke admits fn, blocking the caller only if capacity is
// exhausted, and returns immediately afterwards with a Handle that
// resolves once fn has run.
func (e *Executor) BeginInvoke(fn Task) (*Handle, error) {
	if err := e.sem.Acquire(e.ctx, 1); err != nil {
		return nil, err
	}
	e.inUse.Add(1)

	j := job{fn: fn, done: make(chan error, 1)}
	e.mu.Lock()
	e.queue = append(e.queue, j)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}

	return &Handle{done: j.done}, nil
}

// Invoke submits fn and blocks until it has run.
func (e *Executor) Invoke(fn Task) error {
	h, err := e.BeginInvoke(fn)
	if err != nil {
		return err
	}
	return h.Wait(e.ctx)
}

// Clear drops every task still waiting to run (not the one currently
// executing, if any), resolving each dropped task's Handle with
// context.Canceled.
func (e *Executor) Clear() {
	e.mu.Lock()
	dropped := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, j := range dropped {
		j.done <- context.Canceled
		e.inUse.Add(-1)
		e.sem.Release(1)
	}
}

// Stop clears pending work, cancels the worker's context and joins the
// worker goroutine. Safe to call multiple times; only the first call has
// an effect.
func (e *Executor) Stop() {
	e.once.Do(func() {
		e.Clear()
		e.cancel()
		e.wg.Wait()
	})
}

// Size reports the number of tasks currently admitted (queued or
// executing).
func (e *Executor) Size() int64 {
	return e.inUse.Load()
}

// Capacity reports the bound this Executor was created with.
func (e *Executor) Capacity() int64 {
	return e.capacity
}
