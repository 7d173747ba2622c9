package codebase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/storage"
	"github.com/hierarchy-analysis/pkg/compression"
	"github.com/hierarchy-analysis/pkg/parallel"
)

// Storage is a classpath entry held in object storage. Objects under the
// prefix are either class files, optionally gzip or zstd compressed
// (a/B.class, a/B.class.gz), or jar archives. Everything is downloaded when
// the code base is opened.
type Storage struct {
	name     string
	classes  map[string][]byte
	archives []*Archive
}

// OpenStorage downloads the objects under prefix with at most workers
// concurrent requests.
func OpenStorage(ctx context.Context, store storage.Storage, prefix string, workers int) (*Storage, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = parallel.DefaultWorkers()
	}

	s := &Storage{name: StoragePrefix + prefix, classes: make(map[string][]byte)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, key := range keys {
		rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
		plain := compression.TrimExtension(rel)

		className, isClass := descriptor.ClassNameFromResource(plain)
		if !isClass && !isArchive(plain) {
			continue
		}
		g.Go(func() error {
			data, err := download(gctx, store, key)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if isClass {
				s.classes[className] = data
				return nil
			}
			a, err := NewArchiveFromBytes(key, data)
			if err != nil {
				return err
			}
			s.archives = append(s.archives, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Archive order follows the key, not download completion.
	sort.Slice(s.archives, func(i, j int) bool { return s.archives[i].name < s.archives[j].name })
	return s, nil
}

func download(ctx context.Context, store storage.Storage, key string) ([]byte, error) {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := compression.NewReader(rc)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ClassBytes implements CodeBase. Loose class files shadow archive entries.
func (s *Storage) ClassBytes(className string) ([]byte, error) {
	if data, ok := s.classes[className]; ok {
		return data, nil
	}
	for _, a := range s.archives {
		if _, ok := a.entries[className]; ok {
			return a.ClassBytes(className)
		}
	}
	return nil, notFound(className, s.name)
}

// ClassNames implements CodeBase.
func (s *Storage) ClassNames() []string {
	seen := make(map[string]struct{}, len(s.classes))
	for name := range s.classes {
		seen[name] = struct{}{}
	}
	for _, a := range s.archives {
		for name := range a.entries {
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Name implements CodeBase.
func (s *Storage) Name() string { return s.name }

// Close implements CodeBase.
func (s *Storage) Close() error { return nil }
