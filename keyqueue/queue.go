// Package keyqueue serializes operations per key.
//
// Operations submitted under the same key run one at a time, in submission
// order. Operations under different keys run independently. Bookkeeping for a
// key exists only while it has pending operations.
//
//	q := keyqueue.New[string]()
//	f1 := keyqueue.Submit(q, "user:1", write)
//	f2 := keyqueue.Submit(q, "user:1", read) // starts after write settled
//	v, err := f2.Wait(ctx)
package keyqueue

import (
	"context"
	"fmt"
	"sync"
)

type entry struct {
	pending int
	tail    chan struct{} // closed when the last submitted op settled
}

// Queue tracks in-flight operation chains per key.
// The zero value is not ready to use; construct with New.
type Queue[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

func New[K comparable]() *Queue[K] {
	return &Queue[K]{entries: make(map[K]*entry)}
}

// PanicError is returned by a Future whose operation panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("keyqueue: operation panicked: %v", e.Value)
}

// Submit schedules op to run after every operation previously submitted under
// key has settled. The returned Future settles with op's own result.
// A failing op does not prevent later ops on the same key from running.
func Submit[K comparable, T any](q *Queue[K], key K, op func() (T, error)) *Future[T] {
	f := newFuture[T]()

	q.mu.Lock()
	e, ok := q.entries[key]
	if !ok {
		e = &entry{}
		q.entries[key] = e
	}
	e.pending++
	prev := e.tail
	e.tail = f.done
	q.mu.Unlock()

	go func() {
		if prev != nil {
			<-prev
		}
		v, err := run(op)

		// settle under the lock so a later Submit never sees a tail that is
		// still open for a finished op
		q.mu.Lock()
		e.pending--
		if e.pending == 0 {
			delete(q.entries, key)
		}
		f.settle(v, err)
		q.mu.Unlock()
	}()
	return f
}

// Do is Submit followed by Wait.
func Do[K comparable, T any](ctx context.Context, q *Queue[K], key K, op func() (T, error)) (T, error) {
	return Submit(q, key, op).Wait(ctx)
}

func run[T any](op func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r}
		}
	}()
	return op()
}

// Pending returns the number of submitted, not yet settled ops for key.
func (q *Queue[K]) Pending(key K) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[key]; ok {
		return e.pending
	}
	return 0
}

// Len returns the number of keys with pending ops.
func (q *Queue[K]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
