package keyqueue

import "context"

// Future is the eventual result of a submitted operation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns an already settled Future.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	f.settle(v, err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks until the operation settled.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait blocks until the operation settled or ctx is done.
// Returning early on ctx does not cancel the operation; it still runs in order.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
