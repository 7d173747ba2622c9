package codebase

import (
	"errors"
	"strings"

	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// Chain searches code bases in order; the first definition of a class wins.
type Chain struct {
	bases []CodeBase
}

// NewChain chains bases in search order.
func NewChain(bases ...CodeBase) *Chain {
	return &Chain{bases: bases}
}

// Append adds bases at the end of the search order.
func (c *Chain) Append(bases ...CodeBase) {
	c.bases = append(c.bases, bases...)
}

// Bases returns the chained code bases in search order.
func (c *Chain) Bases() []CodeBase {
	return c.bases
}

// ClassBytes implements CodeBase. Errors other than absence stop the search.
func (c *Chain) ClassBytes(className string) ([]byte, error) {
	for _, b := range c.bases {
		data, err := b.ClassBytes(className)
		if err == nil {
			return data, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, notFound(className, c.Name())
}

// ClassNames implements CodeBase.
func (c *Chain) ClassNames() []string {
	seen := make(map[string]struct{})
	for _, b := range c.bases {
		for _, name := range b.ClassNames() {
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Locate returns the code base that defines className.
func (c *Chain) Locate(className string) (CodeBase, bool) {
	for _, b := range c.bases {
		if _, err := b.ClassBytes(className); err == nil {
			return b, true
		}
	}
	return nil, false
}

// Name implements CodeBase.
func (c *Chain) Name() string {
	names := make([]string, len(c.bases))
	for i, b := range c.bases {
		names[i] = b.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Close closes every code base and returns their errors joined.
func (c *Chain) Close() error {
	var errs []error
	for _, b := range c.bases {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
