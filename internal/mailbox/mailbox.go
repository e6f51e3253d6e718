// Package mailbox provides a single-slot buffer where the latest job wins.
// It is NOT a queue: it holds at most one pending job, so refreshes that
// come due while one is still running coalesce instead of piling up.
package mailbox

import (
	"context"
	"sync"
)

type Mailbox[T any] struct {
	mu sync.Mutex
	ch chan T
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores a job, replacing any job already waiting. It never blocks.
func (m *Mailbox[T]) Put(job T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.ch:
	default:
	}
	m.ch <- job
}

// Take blocks until a job is available, or until ctx is done, in which case
// it reports false.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	select {
	case job := <-m.ch:
		return job, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryTake returns the waiting job, if any. It never blocks.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case job := <-m.ch:
		return job, true
	default:
		var zero T
		return zero, false
	}
}
