// Package parallel provides the order-preserving worker pool used by the
// DataFrame engine.
//
// Work is split into contiguous row ranges, fanned out to a fixed set of
// goroutines and fanned back in by index, so callers observe results in the
// same order a sequential loop would produce. Reductions that combine chunk
// results therefore stay deterministic regardless of scheduling.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/paveg/tabula/internal/config"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NewWorkerPoolFromConfig sizes a pool from the engine configuration.
func NewWorkerPoolFromConfig(cfg config.Config) *WorkerPool {
	return NewWorkerPool(cfg.Workers())
}

// Workers returns the number of goroutines the pool fans out to.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ProcessIndexed executes work items in parallel while preserving order.
// Items left unprocessed after Close keep their zero value.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for range min(wp.numWorkers, len(items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Range is a half-open row interval [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of rows in the range.
func (r Range) Len() int { return r.End - r.Start }

// Chunks splits n rows into at most parts contiguous ranges of near-equal
// size. A positive size overrides parts.
func Chunks(n, parts, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		parts = max(1, min(parts, n))
		size = (n + parts - 1) / parts
	}
	ranges := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, Range{Start: start, End: min(start+size, n)})
	}
	return ranges
}

// ProcessChunks runs worker over contiguous chunks of n rows and returns the
// per-chunk results in row order.
func ProcessChunks[R any](wp *WorkerPool, n, chunkSize int, worker func(Range) R) []R {
	return ProcessIndexed(wp, Chunks(n, wp.numWorkers, chunkSize), func(_ int, r Range) R {
		return worker(r)
	})
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

type indexedItem[T any] struct {
	index int
	value T
}

type indexedResult[R any] struct {
	index  int
	result R
}
