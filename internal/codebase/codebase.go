// Package codebase locates class-file bytes on a classpath. Every code base
// is read-only once opened and safe for concurrent ClassBytes calls.
package codebase

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/storage"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// ErrClassNotFound is returned by ClassBytes for classes a code base does not
// define. It matches apperrors.ErrNotFound.
var ErrClassNotFound = apperrors.New(apperrors.CodeNotFound, "class not found")

// StoragePrefix marks a classpath entry that lives in object storage,
// e.g. "storage:classpath/app/".
const StoragePrefix = "storage:"

// CodeBase is one classpath entry.
type CodeBase interface {
	// ClassBytes returns the class file of a slashed class name.
	ClassBytes(className string) ([]byte, error)
	// ClassNames lists the classes defined here, sorted.
	ClassNames() []string
	// Name identifies the code base in logs and reports.
	Name() string
	// Close releases any open files.
	Close() error
}

func notFound(className, where string) error {
	return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("%s not found in %s", className, where), ErrClassNotFound)
}

// Options configures how classpath entries are opened.
type Options struct {
	// Storage backs "storage:" entries. Nil rejects them.
	Storage storage.Storage
	// Workers bounds concurrent object downloads.
	Workers int
}

// Open opens a single classpath entry: a directory, a .jar or .zip archive,
// or a "storage:<prefix>" entry.
func Open(ctx context.Context, entry string, opts Options) (CodeBase, error) {
	if prefix, ok := strings.CutPrefix(entry, StoragePrefix); ok {
		if opts.Storage == nil {
			return nil, apperrors.New(apperrors.CodeConfigError, "no object storage configured for "+entry)
		}
		return OpenStorage(ctx, opts.Storage, prefix, opts.Workers)
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "classpath entry "+entry, err)
	}
	if info.IsDir() {
		return NewDirectory(entry)
	}
	if isArchive(entry) {
		return OpenArchive(entry)
	}
	return nil, apperrors.New(apperrors.CodeInvalidInput, "unsupported classpath entry "+entry)
}

// OpenClasspath opens every entry and chains them in order. Entries opened
// before a failure are closed again.
func OpenClasspath(ctx context.Context, entries []string, opts Options) (*Chain, error) {
	bases := make([]CodeBase, 0, len(entries))
	for _, entry := range entries {
		cb, err := Open(ctx, entry, opts)
		if err != nil {
			for _, b := range bases {
				b.Close()
			}
			return nil, err
		}
		bases = append(bases, cb)
	}
	return NewChain(bases...), nil
}

func isArchive(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".jar") || strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".war")
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map is an in-memory code base.
type Map struct {
	name    string
	classes map[string][]byte
}

// NewMap creates a code base over classes keyed by slashed or dotted name.
func NewMap(name string, classes map[string][]byte) *Map {
	m := &Map{name: name, classes: make(map[string][]byte, len(classes))}
	for k, v := range classes {
		m.classes[descriptor.ToSlashed(k)] = v
	}
	return m
}

// ClassBytes implements CodeBase.
func (m *Map) ClassBytes(className string) ([]byte, error) {
	if data, ok := m.classes[className]; ok {
		return data, nil
	}
	return nil, notFound(className, m.name)
}

// ClassNames implements CodeBase.
func (m *Map) ClassNames() []string { return sortedKeys(m.classes) }

// Name implements CodeBase.
func (m *Map) Name() string { return m.name }

// Close implements CodeBase.
func (m *Map) Close() error { return nil }
