package api

import (
	"context"
	"sync"
)

// Future is the eventual result of a method call. It is resolved exactly
// once; later resolutions are ignored.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// NewFuture returns an unresolved future and the function that resolves it.
// The resolve function may be called from any goroutine.
func NewFuture() (*Future, func(value any, err error)) {
	future := &Future{done: make(chan struct{})}
	return future, future.resolve
}

// Resolved returns a future already holding value.
func Resolved(value any) *Future {
	future, resolve := NewFuture()
	resolve(value, nil)
	return future
}

// Failed returns a future already holding err.
func Failed(err error) *Future {
	future, resolve := NewFuture()
	resolve(nil, err)
	return future
}

// Go runs fn in its own goroutine and resolves the future with its result.
// A panic in fn is recovered into an error.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	future, resolve := NewFuture()
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				resolve(nil, &PanicError{Value: recovered})
			}
		}()
		resolve(fn(ctx))
	}()
	return future
}

func (future *Future) resolve(value any, err error) {
	future.once.Do(func() {
		future.value = value
		future.err = err
		close(future.done)
	})
}

func (future *Future) Done() <-chan struct{} {
	return future.done
}

// Await blocks until the future is resolved or ctx is done.
func (future *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-future.done:
		return future.value, future.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
