package offline

import (
	"context"
	"sync"
)

// Future is a result that becomes available exactly once.
type Future[R any] struct {
	once  sync.Once
	done  chan struct{}
	value R
	err   error
}

// NewFuture creates a pending Future.
func NewFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// Resolve completes the future with a value. It reports whether this call
// completed the future.
func (f *Future[R]) Resolve(v R) bool {
	return f.Complete(v, nil)
}

// Reject completes the future with an error.
func (f *Future[R]) Reject(err error) bool {
	var zero R
	return f.Complete(zero, err)
}

// Complete sets both value and error. Only the first call has any effect.
func (f *Future[R]) Complete(v R, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		completed = true
		close(f.done)
	})
	return completed
}

// Done is closed once the future is complete.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. Giving up on ctx
// leaves the future pending.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking. ok is false while pending.
func (f *Future[R]) Result() (value R, ok bool, err error) {
	select {
	case <-f.done:
		return f.value, true, f.err
	default:
		var zero R
		return zero, false, nil
	}
}
