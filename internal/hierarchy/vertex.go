package hierarchy

import (
	"github.com/hierarchy-analysis/internal/classfile"
	"github.com/hierarchy-analysis/internal/descriptor"
)

// State is the resolution state of a vertex: either Resolved or Unresolved.
type State interface {
	isState()
}

// Resolved holds the decoded supertypes of a class whose bytes were found.
type Resolved struct {
	Info        *classfile.ClassInfo
	Superclass  *descriptor.ClassDescriptor
	Interfaces  []*descriptor.ClassDescriptor
	IsInterface bool
}

// Unresolved marks a type whose bytes could not be obtained or decoded.
// It is permanent for the life of the graph.
type Unresolved struct {
	Cause error
	// ViaInterfaceEdge records that the type was first referenced as an interface.
	ViaInterfaceEdge bool
}

func (Resolved) isState()   {}
func (Unresolved) isState() {}

// Vertex is one type in the inheritance graph.
type Vertex struct {
	desc        *descriptor.ClassDescriptor
	state       State
	finished    bool
	application bool
	out         []*Edge
	in          []*Edge
}

// Descriptor returns the interned handle of the vertex's type.
func (v *Vertex) Descriptor() *descriptor.ClassDescriptor { return v.desc }

// State returns the resolution state.
func (v *Vertex) State() State { return v.state }

// IsResolved reports whether the type's class file was decoded.
func (v *Vertex) IsResolved() bool {
	_, ok := v.state.(Resolved)
	return ok
}

// IsInterface reports whether the vertex is a resolved interface.
func (v *Vertex) IsInterface() bool {
	r, ok := v.state.(Resolved)
	return ok && r.IsInterface
}

// Superclass returns the direct superclass of a resolved vertex, or nil.
func (v *Vertex) Superclass() *descriptor.ClassDescriptor {
	if r, ok := v.state.(Resolved); ok {
		return r.Superclass
	}
	return nil
}

// Info returns the decoded class of a resolved vertex, or nil.
func (v *Vertex) Info() *classfile.ClassInfo {
	if r, ok := v.state.(Resolved); ok {
		return r.Info
	}
	return nil
}

// IsFinished reports whether all direct-supertype edges have been added.
func (v *Vertex) IsFinished() bool { return v.finished }

// IsApplicationClass reports whether the vertex was added as application code.
func (v *Vertex) IsApplicationClass() bool { return v.application }

// Outgoing returns edges to direct supertypes in insertion order.
func (v *Vertex) Outgoing() []*Edge { return v.out }

// Incoming returns edges from direct subtypes in insertion order.
func (v *Vertex) Incoming() []*Edge { return v.in }

func (v *Vertex) String() string { return v.desc.Name() }

// EdgeKind distinguishes extends edges from implements edges.
type EdgeKind uint8

const (
	// ClassEdge points at a direct superclass.
	ClassEdge EdgeKind = iota + 1
	// InterfaceEdge points at a directly implemented or extended interface.
	InterfaceEdge
)

func (k EdgeKind) String() string {
	switch k {
	case ClassEdge:
		return "EXTENDS"
	case InterfaceEdge:
		return "IMPLEMENTS"
	default:
		return "UNKNOWN"
	}
}

// Edge runs from a subtype to one of its direct supertypes.
type Edge struct {
	Source *Vertex
	Target *Vertex
	Kind   EdgeKind
}
