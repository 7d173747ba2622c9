// Package hierarchy maintains the inheritance graph of one analysis session.
//
// Vertices are created the first time a type is named, either as a root
// query or as somebody's supertype, and resolved against a ClassSource on
// creation. A type whose bytes cannot be obtained becomes a permanent
// Unresolved vertex and is reported to the MissingClassReporter exactly once.
// Array types are never resolved and never reported.
// The graph only grows. It is not safe for concurrent use.
package hierarchy

import (
	"sort"

	"github.com/hierarchy-analysis/internal/classfile"
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/pkg/collections"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// ClassSource supplies raw class-file bytes by slashed class name.
// Absence should be reported with an error matching apperrors.ErrNotFound.
type ClassSource interface {
	ClassBytes(className string) ([]byte, error)
}

// MissingClassReporter is told once about every type that became Unresolved.
type MissingClassReporter interface {
	ReportMissingClass(className string, cause error)
}

// Option configures a Graph.
type Option func(*Graph)

// WithReporter sets the missing-class reporter.
func WithReporter(r MissingClassReporter) Option {
	return func(g *Graph) {
		g.reporter = r
	}
}

// Graph is the inheritance graph.
type Graph struct {
	factory  *descriptor.Factory
	source   ClassSource
	reporter MissingClassReporter
	object   *descriptor.ClassDescriptor

	vertices   []*Vertex
	numVertex  int
	numEdges   int
	unresolved []*descriptor.ClassDescriptor
}

// New creates an empty graph that interns names through factory and
// resolves types through source. A nil source resolves nothing.
func New(factory *descriptor.Factory, source ClassSource, opts ...Option) *Graph {
	g := &Graph{
		factory: factory,
		source:  source,
		object:  factory.Class(descriptor.ObjectName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Factory returns the intern table the graph keys its vertices by.
func (g *Graph) Factory() *descriptor.Factory { return g.factory }

// Object returns the handle of the root object type.
func (g *Graph) Object() *descriptor.ClassDescriptor { return g.object }

// Lookup returns the vertex for d without creating it.
func (g *Graph) Lookup(d *descriptor.ClassDescriptor) (*Vertex, bool) {
	if d == nil || d.Index() >= len(g.vertices) {
		return nil, false
	}
	v := g.vertices[d.Index()]
	return v, v != nil
}

// Resolve returns the vertex for d, creating and resolving it (and every
// supertype reachable from it) on first use. The result may be Unresolved.
func (g *Graph) Resolve(d *descriptor.ClassDescriptor) *Vertex {
	if v, ok := g.Lookup(d); ok {
		return v
	}
	info, err := g.load(d)
	if err != nil {
		return g.addMissing(d, false, err)
	}
	return g.addClass(d, info)
}

// AddClass inserts an already decoded class and all of its supertypes.
// A type that is already present keeps its existing vertex.
func (g *Graph) AddClass(info *classfile.ClassInfo) *Vertex {
	return g.addClass(g.factory.Class(info.Name), info)
}

// AddApplicationClass is AddClass plus marking the vertex as application code.
func (g *Graph) AddApplicationClass(info *classfile.ClassInfo) *Vertex {
	v := g.AddClass(info)
	v.application = true
	return v
}

// LookupEdge returns the edge from src to dst if one exists.
func (g *Graph) LookupEdge(src, dst *Vertex) *Edge {
	for _, e := range src.out {
		if e.Target == dst {
			return e
		}
	}
	return nil
}

// NumVertices returns the number of vertices, resolved or not.
func (g *Graph) NumVertices() int { return g.numVertex }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return g.numEdges }

// Vertices returns every vertex in creation order of their descriptors.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, g.numVertex)
	for _, v := range g.vertices {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Unresolved returns the types that could not be resolved, sorted by name.
// Array types are not listed.
func (g *Graph) Unresolved() []*descriptor.ClassDescriptor {
	out := make([]*descriptor.ClassDescriptor, len(g.unresolved))
	copy(out, g.unresolved)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ResolvedClasses returns the decoded classes of all resolved vertices.
func (g *Graph) ResolvedClasses() []*classfile.ClassInfo {
	var out []*classfile.ClassInfo
	for _, v := range g.vertices {
		if v != nil && v.IsResolved() {
			out = append(out, v.Info())
		}
	}
	return out
}

func (g *Graph) load(d *descriptor.ClassDescriptor) (*classfile.ClassInfo, error) {
	if d.IsArray() {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "array types have no class file: "+d.Name(), nil)
	}
	if g.source == nil {
		if d == g.object {
			return &classfile.ClassInfo{Name: descriptor.ObjectName}, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "no class source for "+d.Name(), nil)
	}
	data, err := g.source.ClassBytes(d.Name())
	if err != nil {
		// The root type has no supertypes, so standing it in is exact.
		if d == g.object && apperrors.IsNotFound(err) {
			return &classfile.ClassInfo{Name: descriptor.ObjectName}, nil
		}
		return nil, err
	}
	return classfile.Decode(data, d.Name())
}

func (g *Graph) put(v *Vertex) {
	i := v.desc.Index()
	if i >= len(g.vertices) {
		n := 2 * len(g.vertices)
		if n <= i {
			n = i + 1
		}
		grown := make([]*Vertex, n)
		copy(grown, g.vertices)
		g.vertices = grown
	}
	g.vertices[i] = v
	g.numVertex++
}

func newResolved(d *descriptor.ClassDescriptor, info *classfile.ClassInfo, f *descriptor.Factory) *Vertex {
	r := Resolved{Info: info, IsInterface: info.IsInterface()}
	if info.Superclass != "" {
		r.Superclass = f.Class(info.Superclass)
	}
	for _, name := range info.Interfaces {
		r.Interfaces = append(r.Interfaces, f.Class(name))
	}
	return &Vertex{desc: d, state: r}
}

// addClass drains a work list of resolved vertices whose supertype edges
// have not been added yet. Each vertex is finished exactly once.
func (g *Graph) addClass(d *descriptor.ClassDescriptor, info *classfile.ClassInfo) *Vertex {
	start, ok := g.Lookup(d)
	if ok && start.finished {
		return start
	}
	work := collections.NewQueue[*Vertex](8)
	if !ok {
		start = newResolved(d, info, g.factory)
		g.addVertex(start, work)
	}
	work.Enqueue(start)

	for !work.IsEmpty() {
		v, _ := work.Dequeue()
		if v.finished {
			continue
		}
		r := v.state.(Resolved)
		if r.Superclass != nil {
			g.addInheritanceEdge(v, r.Superclass, ClassEdge, work)
		}
		for _, iface := range r.Interfaces {
			g.addInheritanceEdge(v, iface, InterfaceEdge, work)
		}
		v.finished = true
	}
	return start
}

// addVertex registers v. Resolved interfaces also get an edge to the root
// type, which the class file leaves implicit for some compilers.
func (g *Graph) addVertex(v *Vertex, work *collections.Queue[*Vertex]) {
	g.put(v)
	if v.IsInterface() && v.desc != g.object {
		g.addInheritanceEdge(v, g.object, ClassEdge, work)
	}
}

func (g *Graph) addInheritanceEdge(v *Vertex, super *descriptor.ClassDescriptor, kind EdgeKind, work *collections.Queue[*Vertex]) {
	sv, ok := g.Lookup(super)
	if !ok {
		info, err := g.load(super)
		if err != nil {
			sv = g.addMissing(super, kind == InterfaceEdge, err)
		} else {
			sv = newResolved(super, info, g.factory)
			g.addVertex(sv, work)
			work.Enqueue(sv)
		}
	}
	if g.LookupEdge(v, sv) != nil {
		return
	}
	e := &Edge{Source: v, Target: sv, Kind: kind}
	v.out = append(v.out, e)
	sv.in = append(sv.in, e)
	g.numEdges++
}

func (g *Graph) addMissing(d *descriptor.ClassDescriptor, viaInterface bool, cause error) *Vertex {
	v := &Vertex{
		desc:     d,
		state:    Unresolved{Cause: cause, ViaInterfaceEdge: viaInterface},
		finished: true,
	}
	g.put(v)
	// Arrays have no class file to miss.
	if d.IsArray() {
		return v
	}
	g.unresolved = append(g.unresolved, d)
	if g.reporter != nil {
		g.reporter.ReportMissingClass(d.Name(), cause)
	}
	return v
}

// Reported reports whether d is an Unresolved type the graph has already
// passed to its reporter.
func (g *Graph) Reported(d *descriptor.ClassDescriptor) bool {
	if g.reporter == nil || d.IsArray() {
		return false
	}
	v, ok := g.Lookup(d)
	return ok && !v.IsResolved()
}
