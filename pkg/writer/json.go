// Package writer encodes reports as JSON, optionally compressed.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hierarchy-analysis/pkg/compression"
)

// JSONWriter writes values of T as JSON through an optional compressor.
type JSONWriter[T any] struct {
	// Indent is the per-level indentation. Empty means compact output.
	Indent string
	// Compression is the output format. TypeNone writes plain JSON.
	Compression compression.Type
	// Level is the compression level.
	Level compression.Level
}

// NewJSONWriter creates a compact, uncompressed JSON writer.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Level: compression.LevelDefault}
}

// NewPrettyJSONWriter creates an indented, uncompressed JSON writer.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  ", Level: compression.LevelDefault}
}

// NewCompressedWriter creates a compact JSON writer that compresses with t.
func NewCompressedWriter[T any](t compression.Type, level compression.Level) *JSONWriter[T] {
	return &JSONWriter[T]{Compression: t, Level: level}
}

// WriteResult holds sizes of a written document.
type WriteResult struct {
	Path           string  `json:"path,omitempty"`
	JSONSize       int64   `json:"json_size"`
	CompressedSize int64   `json:"compressed_size"`
	CompressionPct float64 `json:"compression_pct"`
}

// Write encodes data into w and reports the encoded and stored sizes.
func (w *JSONWriter[T]) Write(data T, out io.Writer) (*WriteResult, error) {
	stored := &countingWriter{w: out}
	cw, err := compression.NewWriter(stored, w.Compression, w.Level)
	if err != nil {
		return nil, err
	}
	raw := &countingWriter{w: cw}

	encoder := json.NewEncoder(raw)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	if err := encoder.Encode(data); err != nil {
		cw.Close()
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s stream: %w", w.Compression, err)
	}

	result := &WriteResult{JSONSize: raw.n, CompressedSize: stored.n}
	if raw.n > 0 {
		result.CompressionPct = float64(stored.n) / float64(raw.n) * 100
	}
	return result, nil
}

// WriteToFile writes data to path. When the writer has no compression set,
// the format follows the path suffix (.gz, .zst).
func (w *JSONWriter[T]) WriteToFile(data T, path string) (*WriteResult, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	target := *w
	if target.Compression == compression.TypeNone {
		target.Compression = compression.TypeFromPath(path)
	}
	result, err := target.Write(data, file)
	if err != nil {
		return nil, err
	}
	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync file: %w", err)
	}
	result.Path = path
	return result, nil
}

// ReadFromFile decodes a document written by WriteToFile, in any format.
func ReadFromFile[T any](path string) (T, error) {
	var data T
	file, err := os.Open(path)
	if err != nil {
		return data, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r, err := compression.NewReader(file)
	if err != nil {
		return data, err
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return data, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return data, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
