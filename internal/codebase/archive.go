package codebase

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/hierarchy-analysis/internal/descriptor"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// MaxClassFileSize bounds a single archive entry. Header sizes are not trusted
// beyond it.
const MaxClassFileSize = 64 << 20

// Archive is a jar or zip file. Nested archives are not searched.
type Archive struct {
	name    string
	closer  io.Closer
	entries map[string]*zip.File
}

// OpenArchive opens a jar or zip file on disk.
func OpenArchive(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return newArchive(path, &rc.Reader, rc), nil
}

// NewArchiveFromBytes reads an archive held in memory.
func NewArchiveFromBytes(name string, data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", name, err)
	}
	return newArchive(name, zr, nil), nil
}

func newArchive(name string, zr *zip.Reader, closer io.Closer) *Archive {
	a := &Archive{name: name, closer: closer, entries: make(map[string]*zip.File)}
	for _, f := range zr.File {
		// Versioned copies in multi-release jars live under META-INF and are skipped.
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		if className, ok := descriptor.ClassNameFromResource(f.Name); ok {
			if _, dup := a.entries[className]; !dup {
				a.entries[className] = f
			}
		}
	}
	return a
}

// ClassBytes implements CodeBase.
func (a *Archive) ClassBytes(className string) ([]byte, error) {
	f, ok := a.entries[className]
	if !ok {
		return nil, notFound(className, a.name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in %s: %w", f.Name, a.name, err)
	}
	defer rc.Close()

	if f.UncompressedSize64 > MaxClassFileSize {
		return nil, apperrors.New(apperrors.CodeMalformedClass,
			fmt.Sprintf("%s in %s declares %d bytes", f.Name, a.name, f.UncompressedSize64))
	}
	data, err := io.ReadAll(io.LimitReader(rc, MaxClassFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in %s: %w", f.Name, a.name, err)
	}
	if len(data) > MaxClassFileSize {
		return nil, apperrors.New(apperrors.CodeMalformedClass,
			fmt.Sprintf("%s in %s exceeds %d bytes", f.Name, a.name, MaxClassFileSize))
	}
	return data, nil
}

// ClassNames implements CodeBase.
func (a *Archive) ClassNames() []string { return sortedKeys(a.entries) }

// Name implements CodeBase.
func (a *Archive) Name() string { return a.name }

// Close implements CodeBase.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
