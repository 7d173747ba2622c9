package codebase

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hierarchy-analysis/internal/descriptor"
)

// Directory is a class output directory laid out by package.
type Directory struct {
	root  string
	names []string
}

// NewDirectory indexes the class files under root.
func NewDirectory(root string) (*Directory, error) {
	d := &Directory{root: root}
	err := filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err != nil || e.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if name, ok := descriptor.ClassNameFromResource(filepath.ToSlash(rel)); ok {
			d.names = append(d.names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(d.names)
	return d, nil
}

// ClassBytes implements CodeBase.
func (d *Directory) ClassBytes(className string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(descriptor.ResourceName(className))))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(className, d.root)
		}
		return nil, err
	}
	return data, nil
}

// ClassNames implements CodeBase.
func (d *Directory) ClassNames() []string { return d.names }

// Name implements CodeBase.
func (d *Directory) Name() string { return d.root }

// Close implements CodeBase.
func (d *Directory) Close() error { return nil }
