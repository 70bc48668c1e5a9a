package market

import (
	"context"
	"time"
)

// callWithDeadline runs fn and returns whichever settles first: fn or the
// deadline d. On timeout fn keeps running; its result lands in a buffered
// channel nobody reads. fn receives a context that is cancelled at the
// deadline, which providers may or may not honour. d <= 0 means no deadline.
func callWithDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)

	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	go func() {
		v, err := fn(cctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-cctx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrDeadlineExceeded
	}
}
