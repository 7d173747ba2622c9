package codebase

import (
	"context"
	"time"

	"github.com/hierarchy-analysis/internal/classfile"
	"github.com/hierarchy-analysis/pkg/parallel"
)

// Scanned is the outcome of decoding one class of a code base.
type Scanned struct {
	Name string
	Info *classfile.ClassInfo
	Err  error
}

// Scan decodes the named classes of cb concurrently and returns them in the
// order of names. Decoding is pure, so the results can be fed to a graph
// afterwards from a single goroutine.
func Scan(ctx context.Context, cb CodeBase, names []string, workers int) []Scanned {
	return ScanWithProgress(ctx, cb, names, workers, nil)
}

// ScanWithProgress is Scan with a progress callback, invoked periodically
// while decoding and once more when done. progress may be nil.
func ScanWithProgress(ctx context.Context, cb CodeBase, names []string, workers int, progress func(done, total int64)) []Scanned {
	tracker := parallel.NewProgressTracker(int64(len(names)), progress, 2*time.Second)
	tracker.Start(ctx)
	defer tracker.Stop()

	pool := parallel.NewWorkerPool[string, *classfile.ClassInfo](parallel.DefaultPoolConfig().WithWorkers(workers))
	results := pool.Execute(ctx, names, func(_ context.Context, name string) (*classfile.ClassInfo, error) {
		defer tracker.Increment()
		data, err := cb.ClassBytes(name)
		if err != nil {
			return nil, err
		}
		return classfile.Decode(data, name)
	})

	out := make([]Scanned, len(results))
	for i, r := range results {
		out[i] = Scanned{Name: r.Input, Info: r.Value, Err: r.Err}
	}
	return out
}
