// Package report defines the end-of-run summary of a hierarchy analysis.
package report

import (
	"sort"
	"time"

	"github.com/hierarchy-analysis/internal/subtypes"
	"github.com/hierarchy-analysis/pkg/utils"
)

// Report is the JSON document written at the end of an analyze run.
type Report struct {
	RunID        string        `json:"run_id"`
	Version      string        `json:"version"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Classpath    []string      `json:"classpath"`
	AuxClasspath []string      `json:"aux_classpath,omitempty"`

	Counts         Counts              `json:"counts"`
	MissingClasses []MissingClass      `json:"missing_classes"`
	DecodeErrors   []DecodeError       `json:"decode_errors,omitempty"`
	CacheStats     subtypes.CacheStats `json:"cache_stats"`
	Stages         []utils.Stage       `json:"stages,omitempty"`
	Outputs        []Output            `json:"outputs,omitempty"`
}

// Counts sizes the inheritance graph.
type Counts struct {
	Vertices           int `json:"vertices"`
	Edges              int `json:"edges"`
	ExtendsEdges       int `json:"extends_edges"`
	ImplementsEdges    int `json:"implements_edges"`
	ResolvedClasses    int `json:"resolved_classes"`
	UnresolvedClasses  int `json:"unresolved_classes"`
	Interfaces         int `json:"interfaces"`
	ApplicationClasses int `json:"application_classes"`
}

// MissingClass is a type that was named but whose class file could not be
// found or decoded.
type MissingClass struct {
	Name string `json:"name"`
	// Category is the package classification, e.g. "platform" or "library".
	Category     string `json:"category"`
	ViaInterface bool   `json:"via_interface"`
	Cause        string `json:"cause,omitempty"`
}

// DecodeError is an application class that failed to decode.
type DecodeError struct {
	Class string `json:"class"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Output is a file produced by the run.
type Output struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

// MissingNames returns the names of the missing classes, sorted.
func (r *Report) MissingNames() []string {
	names := make([]string, len(r.MissingClasses))
	for i, m := range r.MissingClasses {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

// Complete reports whether every named type was resolved and every
// application class decoded.
func (r *Report) Complete() bool {
	return len(r.MissingClasses) == 0 && len(r.DecodeErrors) == 0
}

// MissingByCategory counts missing classes per category.
func (r *Report) MissingByCategory() map[string]int {
	out := make(map[string]int)
	for _, m := range r.MissingClasses {
		out[m.Category]++
	}
	return out
}

// AddOutput records a produced file.
func (r *Report) AddOutput(name, location string, size int64) {
	r.Outputs = append(r.Outputs, Output{Name: name, Location: location, Size: size})
}
