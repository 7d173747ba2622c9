// Package export writes the inheritance graph to external stores.
package export

import (
	"sort"

	"github.com/hierarchy-analysis/internal/hierarchy"
)

// ClassNode is one vertex of an exported graph.
type ClassNode struct {
	Name         string `json:"name"`
	DottedName   string `json:"dotted_name"`
	Package      string `json:"package"`
	Resolved     bool   `json:"resolved"`
	Interface    bool   `json:"interface"`
	Application  bool   `json:"application"`
	Category     string `json:"category,omitempty"`
	MissingCause string `json:"missing_cause,omitempty"`
}

// EdgeRecord is one inheritance edge of an exported graph.
type EdgeRecord struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Kind is EXTENDS or IMPLEMENTS.
	Kind string `json:"kind"`
}

// Snapshot is a detached copy of a graph, safe to export while the graph
// keeps growing.
type Snapshot struct {
	RunID   string       `json:"run_id,omitempty"`
	Classes []ClassNode  `json:"classes"`
	Edges   []EdgeRecord `json:"edges"`
}

// Classifier maps a class name to a category label.
type Classifier func(className string) string

// NewSnapshot copies the vertices and edges of g, sorted by name. classify
// may be nil.
func NewSnapshot(g *hierarchy.Graph, classify Classifier) *Snapshot {
	vertices := g.Vertices()
	snap := &Snapshot{
		Classes: make([]ClassNode, 0, len(vertices)),
		Edges:   make([]EdgeRecord, 0, g.NumEdges()),
	}

	for _, v := range vertices {
		d := v.Descriptor()
		if d.IsArray() {
			continue
		}
		node := ClassNode{
			Name:        d.Name(),
			DottedName:  d.DottedName(),
			Package:     d.PackageName(),
			Resolved:    v.IsResolved(),
			Interface:   v.IsInterface(),
			Application: v.IsApplicationClass(),
		}
		if classify != nil {
			node.Category = classify(d.Name())
		}
		if u, ok := v.State().(hierarchy.Unresolved); ok && u.Cause != nil {
			node.MissingCause = u.Cause.Error()
		}
		snap.Classes = append(snap.Classes, node)

		for _, e := range v.Outgoing() {
			snap.Edges = append(snap.Edges, EdgeRecord{
				Source: d.Name(),
				Target: e.Target.Descriptor().Name(),
				Kind:   e.Kind.String(),
			})
		}
	}

	sort.Slice(snap.Classes, func(i, j int) bool { return snap.Classes[i].Name < snap.Classes[j].Name })
	sort.SliceStable(snap.Edges, func(i, j int) bool {
		a, b := snap.Edges[i], snap.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
	return snap
}

// EdgesOfKind returns the edges with the given kind.
func (s *Snapshot) EdgesOfKind(kind string) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range s.Edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
