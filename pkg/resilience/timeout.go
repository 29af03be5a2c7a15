package resilience

import (
	"context"
	"fmt"
	"time"
)

type result[T any] struct {
	val T
	err error
}

// WithTimeout runs fn under a deadline of timeout and returns its value.
// When the deadline passes first, the error wraps context.DeadlineExceeded
// and fn is left to observe the cancelled context on its own.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(tctx)
		done <- result[T]{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-tctx.Done():
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: cancelled: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, timeout)
	}
}
