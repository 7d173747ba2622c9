// Package parallel runs independent decode and fetch jobs on a bounded set of goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	// MaxWorkers bounds concurrency. Default: NumCPU clamped to [2, 8].
	MaxWorkers int
	// Timeout bounds the whole Execute call. Zero means none.
	Timeout time.Duration
	// CollectMetrics enables per-task timing.
	CollectMetrics bool
}

// DefaultPoolConfig returns the default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxWorkers: DefaultWorkers()}
}

// DefaultWorkers is runtime.NumCPU clamped to [2, 8].
func DefaultWorkers() int {
	return max(2, min(runtime.NumCPU(), 8))
}

// WithWorkers returns a copy with MaxWorkers set.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy with Timeout set.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

// WithMetrics returns a copy with metrics collection enabled.
func (c PoolConfig) WithMetrics() PoolConfig {
	c.CollectMetrics = true
	return c
}

// PoolMetrics holds execution statistics.
type PoolMetrics struct {
	TotalTasks     int64
	CompletedTasks int64
	FailedTasks    int64
	SkippedTasks   int64
	TotalDuration  time.Duration
	MaxTaskTime    time.Duration
}

// Result is the outcome of one input.
type Result[T any, R any] struct {
	Input    T
	Value    R
	Err      error
	Duration time.Duration
}

// WorkerPool applies a function to many inputs concurrently.
type WorkerPool[T any, R any] struct {
	config PoolConfig

	mu      sync.Mutex
	metrics PoolMetrics
}

// NewWorkerPool creates a pool. Non-positive MaxWorkers selects the default.
func NewWorkerPool[T any, R any](config PoolConfig) *WorkerPool[T, R] {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultWorkers()
	}
	return &WorkerPool[T, R]{config: config}
}

// Execute runs fn on every input and returns the results in input order.
// Inputs not started before ctx is done carry ctx.Err().
func (p *WorkerPool[T, R]) Execute(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []Result[T, R] {
	if len(inputs) == 0 {
		return nil
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	results := make([]Result[T, R], len(inputs))
	next := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(p.config.MaxWorkers, len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range next {
				taskStart := time.Now()
				v, err := fn(ctx, inputs[idx])
				d := time.Since(taskStart)
				results[idx] = Result[T, R]{Input: inputs[idx], Value: v, Err: err, Duration: d}
				p.record(d, err)
			}
		}()
	}

	fed := 0
feed:
	for ; fed < len(inputs); fed++ {
		select {
		case <-ctx.Done():
			break feed
		case next <- fed:
		}
	}
	close(next)
	wg.Wait()

	for i := fed; i < len(inputs); i++ {
		results[i] = Result[T, R]{Input: inputs[i], Err: ctx.Err()}
	}
	if p.config.CollectMetrics {
		p.mu.Lock()
		p.metrics.SkippedTasks += int64(len(inputs) - fed)
		p.metrics.TotalDuration += time.Since(start)
		p.mu.Unlock()
	}
	return results
}

func (p *WorkerPool[T, R]) record(d time.Duration, err error) {
	if !p.config.CollectMetrics {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.TotalTasks++
	if err != nil {
		p.metrics.FailedTasks++
	} else {
		p.metrics.CompletedTasks++
	}
	if d > p.metrics.MaxTaskTime {
		p.metrics.MaxTaskTime = d
	}
}

// Metrics returns a snapshot of the execution statistics.
func (p *WorkerPool[T, R]) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// ForEach runs fn on every item and returns the number of successes and the
// first error in input order.
func ForEach[T any](ctx context.Context, items []T, config PoolConfig, fn func(ctx context.Context, item T) error) (int, error) {
	pool := NewWorkerPool[T, struct{}](config)
	results := pool.Execute(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	ok := 0
	var first error
	for _, r := range results {
		if r.Err == nil {
			ok++
		} else if first == nil {
			first = r.Err
		}
	}
	return ok, first
}
