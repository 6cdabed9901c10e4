// Package workpool runs blocking work on a bounded set of goroutines so
// callers on the interactive path are never starved.
package workpool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many jobs run at once.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a pool running at most workers jobs concurrently.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// PanicError wraps a value recovered from a job so it can be re-raised on
// the caller's goroutine.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workpool job panicked: %v", e.Value)
}

// Run executes fn on a pool goroutine and waits for its result.
//
// ctx only bounds the wait for a free slot. Once fn has started Run waits
// for it to finish, since jobs may be halfway through filesystem changes.
// A panic inside fn is re-raised in the caller as *PanicError.
func Run[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	type result struct {
		value T
		err   error
		panic *PanicError
	}
	done := make(chan result, 1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)

		var r result
		defer func() {
			if v := recover(); v != nil {
				r.panic = &PanicError{Value: v}
			}
			done <- r
		}()
		r.value, r.err = fn(ctx)
	}()

	r := <-done
	if r.panic != nil {
		panic(r.panic)
	}
	return r.value, r.err
}

// Do is Run for jobs without a result.
func Do(ctx context.Context, p *Pool, fn func(ctx context.Context) error) error {
	_, err := Run(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Wait blocks until every started job has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
