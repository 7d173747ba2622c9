package hierarchy

import (
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/pkg/collections"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// ErrUnresolvedStart is returned by traversals whose start type is Unresolved.
var ErrUnresolvedStart = apperrors.New(apperrors.CodeMissingClass, "traversal start type is unresolved")

// TraverseSupertypesDepthFirst visits start and each of its ancestors exactly
// once, superclass before interfaces, depth first. visit returning false stops
// expansion past that vertex but not the traversal as a whole. Unresolved
// ancestors are visited but never expanded.
func (g *Graph) TraverseSupertypesDepthFirst(start *descriptor.ClassDescriptor, visit func(v *Vertex) bool) error {
	root := g.Resolve(start)
	if !root.IsResolved() {
		return apperrors.Wrap(apperrors.CodeMissingClass, "traverse "+start.Name(), ErrUnresolvedStart)
	}

	seen := collections.NewBitset(g.factory.Len())
	stack := []*Vertex{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen.TestAndSet(v.desc.Index()) {
			continue
		}
		if !visit(v) || !v.IsResolved() {
			continue
		}
		for i := len(v.out) - 1; i >= 0; i-- {
			if t := v.out[i].Target; !seen.Test(t.desc.Index()) {
				stack = append(stack, t)
			}
		}
	}
	return nil
}

// PathVisitor receives callbacks from TraverseSupertypes.
type PathVisitor interface {
	// VisitClass is called each time a path reaches v. Returning false ends that path.
	VisitClass(v *Vertex) bool
	// VisitEdge is called before a path follows e. Returning false skips the edge.
	VisitEdge(e *Edge) bool
}

// PathVisitorFuncs adapts plain functions to PathVisitor. Nil fields accept everything.
type PathVisitorFuncs struct {
	Class func(v *Vertex) bool
	Edge  func(e *Edge) bool
}

// VisitClass implements PathVisitor.
func (f PathVisitorFuncs) VisitClass(v *Vertex) bool {
	return f.Class == nil || f.Class(v)
}

// VisitEdge implements PathVisitor.
func (f PathVisitorFuncs) VisitEdge(e *Edge) bool {
	return f.Edge == nil || f.Edge(e)
}

type traversalPath struct {
	next *Vertex
	seen *collections.Bitset
}

// TraverseSupertypes explores every distinct inheritance path from start
// toward the root, breadth first. Each path carries its own seen set, forked
// where the path branches, so a type reachable along two routes is visited
// once per route. The number of paths can grow exponentially with interface
// depth; callers needing one visit per type should use
// TraverseSupertypesDepthFirst.
func (g *Graph) TraverseSupertypes(start *descriptor.ClassDescriptor, visitor PathVisitor) error {
	root := g.Resolve(start)
	if !root.IsResolved() {
		return apperrors.Wrap(apperrors.CodeMissingClass, "traverse "+start.Name(), ErrUnresolvedStart)
	}

	work := collections.NewQueue[traversalPath](8)
	work.Enqueue(traversalPath{next: root, seen: collections.NewBitset(g.factory.Len())})
	for !work.IsEmpty() {
		cur, _ := work.Dequeue()
		v := cur.next
		cur.seen.Set(v.desc.Index())

		if !visitor.VisitClass(v) || !v.IsResolved() {
			continue
		}
		for _, e := range v.out {
			if !visitor.VisitEdge(e) {
				continue
			}
			if cur.seen.Test(e.Target.desc.Index()) {
				continue
			}
			work.Enqueue(traversalPath{next: e.Target, seen: cur.seen.Clone()})
		}
	}
	return nil
}
