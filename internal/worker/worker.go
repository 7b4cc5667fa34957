// Package worker runs indexed jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/dodgy/pkg/logger"
	"github.com/okian/dodgy/pkg/metrics"
)

// Job processes the item at index. Jobs for different indices run
// concurrently and must only write to state owned by their index.
type Job func(ctx context.Context, index int) error

// Pool fans indexed jobs out to a fixed number of workers.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// NewPool creates a pool with size workers; size < 1 means one per CPU.
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size: size,
		name: "pool",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Nop()
	}
	metrics.UpdateWorkerCount(p.size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Run executes job for every index in [0, n) and waits for completion.
// Job errors are collected per index; the returned slice is nil when every
// job succeeded. A cancelled ctx stops dispatch and is returned as err.
func (p *Pool) Run(ctx context.Context, n int, job Job) (errs []error, err error) {
	if n <= 0 {
		return nil, ctx.Err()
	}
	workers := p.size
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	results := make([]error, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := range indices {
				start := time.Now()
				jerr := job(ctx, i)
				metrics.RecordWorkerJobLatency(p.name, float64(time.Since(start).Microseconds())/1000)
				if jerr != nil {
					p.logger.Debug(ctx, "job failed",
						logger.String("worker", id),
						logger.Int("index", i),
						logger.Error(jerr),
					)
					results[i] = jerr
				}
			}
		}(p.name + "-" + strconv.Itoa(w))
	}

dispatch:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break dispatch
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("%s: %w", p.name, cerr)
	}
	for _, e := range results {
		if e != nil {
			return results, nil
		}
	}
	return nil, nil
}
