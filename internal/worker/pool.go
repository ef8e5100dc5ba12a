package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is the outcome of processing one input.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over many inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with at least one worker.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	return &Pool[T, R]{workers: max(workers, 1), process: fn}
}

// Execute processes every input and returns one task per input, in input
// order. Once ctx is cancelled no further inputs are handed out; those
// inputs carry ctx.Err(). Inputs already being processed run to completion.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	tasks := make([]Task[T, R], len(inputs))
	for i, in := range inputs {
		tasks[i].Input = in
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for range min(p.workers, len(inputs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				tasks[idx].Result, tasks[idx].Err = p.process(ctx, inputs[idx])
			}
		}()
	}

	handedOut := 0
feed:
	for handedOut < len(inputs) {
		select {
		case <-ctx.Done():
			break feed
		case next <- handedOut:
			handedOut++
		}
	}
	close(next)
	wg.Wait()

	if handedOut < len(inputs) {
		log.Debug().Int("skipped", len(inputs)-handedOut).Msg("Stopped handing out work after cancellation")
		for i := handedOut; i < len(inputs); i++ {
			tasks[i].Err = ctx.Err()
		}
	}
	return tasks
}

// Batch splits items into consecutive slices of at most batchSize items.
func Batch[T any](items []T, batchSize int) [][]T {
	batchSize = max(batchSize, 1)
	var batches [][]T
	for start := 0; start < len(items); start += batchSize {
		batches = append(batches, items[start:min(start+batchSize, len(items))])
	}
	return batches
}
