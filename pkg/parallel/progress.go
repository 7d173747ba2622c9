package parallel

import (
	"context"
	"sync/atomic"
	"time"
)

// ProgressTracker periodically reports how many of a known number of jobs are done.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	callback  func(completed, total int64)
	interval  time.Duration
	stopCh    chan struct{}
	stopped   atomic.Bool
}

// NewProgressTracker creates a tracker. A non-positive interval means 500ms.
func NewProgressTracker(total int64, callback func(completed, total int64), interval time.Duration) *ProgressTracker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ProgressTracker{
		total:    total,
		callback: callback,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start reports on a ticker until ctx is done or Stop is called.
func (pt *ProgressTracker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pt.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pt.stopCh:
				return
			case <-ticker.C:
				if pt.callback != nil {
					pt.callback(pt.completed.Load(), pt.total)
				}
			}
		}
	}()
}

// Increment marks one job done.
func (pt *ProgressTracker) Increment() {
	pt.completed.Add(1)
}

// Stop ends reporting and emits a final callback. Safe to call twice.
func (pt *ProgressTracker) Stop() {
	if pt.stopped.CompareAndSwap(false, true) {
		close(pt.stopCh)
		if pt.callback != nil {
			pt.callback(pt.completed.Load(), pt.total)
		}
	}
}

// Completed returns the number of jobs marked done.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}
