package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vigilance/vanguard/internal/adapters/mq/queue"
)

// ErrRejected is returned when the pool queue refuses a task.
var ErrRejected = errors.New("task rejected")

// ErrTaskPanic wraps a panic raised by a submitted function.
var ErrTaskPanic = errors.New("task panicked")

// Future is the pending result of a submitted function.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is ready or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit queues fn on the pool and returns its Future. fn runs with the
// caller's ctx; a task whose ctx has already ended resolves with ctx.Err()
// without running.
func Submit[T any](ctx context.Context, p *Pool, id string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	var zero T

	t := queue.Task{
		ID: id,
		Run: func(context.Context) {
			defer func() {
				if r := recover(); r != nil {
					f.resolve(zero, fmt.Errorf("%w: %s: %v", ErrTaskPanic, id, r))
				}
			}()
			if err := ctx.Err(); err != nil {
				f.resolve(zero, err)
				return
			}
			v, err := fn(ctx)
			f.resolve(v, err)
		},
	}

	if !p.queue.Enqueue(ctx, t) {
		if err := ctx.Err(); err != nil {
			f.resolve(zero, fmt.Errorf("%w: %s: %w", ErrRejected, id, err))
		} else {
			f.resolve(zero, fmt.Errorf("%w: %s", ErrRejected, id))
		}
	}
	return f
}
