// Package dispatch runs homogeneous work items across a bounded pool of
// workers and streams outcomes back in completion order.
package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Result is the outcome of one work item. Index is the item's position in
// the submitted slice, so callers can correlate outcomes with inputs even
// though results arrive in completion order.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Pool fans a slice of work items out to a fixed number of workers.
// Every submitted item yields exactly one Result: worker panics and
// context cancellation surface as item errors, never as lost items.
//
// A Pool tracks progress for its most recent Run.
type Pool[T, R any] struct {
	workers  int
	fn       func(context.Context, T) (R, error)
	progress *Progress
}

// NewPool creates a pool with the given worker count. A count below 1
// falls back to 1.
func NewPool[T, R any](workers int, fn func(context.Context, T) (R, error)) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, fn: fn, progress: &Progress{}}
}

// Run submits all items and returns a channel that delivers one Result per
// item, in completion order. The channel is closed once every item has
// resolved. The channel is buffered to len(items), so workers never block
// on a slow consumer and the caller may drain at its own pace.
func (p *Pool[T, R]) Run(ctx context.Context, items []T) <-chan Result[R] {
	p.progress.reset(len(items))

	type job struct {
		idx  int
		item T
	}

	jobs := make(chan job, len(items))
	for i, it := range items {
		jobs <- job{idx: i, item: it}
	}
	close(jobs)

	out := make(chan Result[R], len(items))

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				var res Result[R]
				if err := ctx.Err(); err != nil {
					res = Result[R]{Index: j.idx, Err: err}
				} else {
					res = p.execute(ctx, j.idx, j.item)
				}
				p.progress.record(res.Err == nil)
				out <- res
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Progress returns the progress tracker for the most recent Run.
func (p *Pool[T, R]) Progress() *Progress {
	return p.progress
}

// execute runs fn for a single item with panic isolation: a panicking
// worker records the item as failed and moves on to the next one.
func (p *Pool[T, R]) execute(ctx context.Context, idx int, item T) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Index: idx, Err: fmt.Errorf("worker panic: %v", r)}
		}
	}()

	v, err := p.fn(ctx, item)
	return Result[R]{Index: idx, Value: v, Err: err}
}
