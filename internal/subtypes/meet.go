package subtypes

import (
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/hierarchy"
	"github.com/hierarchy-analysis/pkg/collections"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// FirstCommonSuperclass returns the meet of a and b in the reference type
// lattice, as used when merging types at control-flow joins. Results are
// cached under the unordered pair.
//
// For object types the superclass chains of a and b are aligned at the root
// and the last type they share wins. When that is only the root type, the
// full supertype sets are intersected and a shared interface is preferred,
// first one in the package of a or b, then the most specific, then by name.
func (e *Engine) FirstCommonSuperclass(a, b Type) (Type, error) {
	if a == b {
		return a, nil
	}
	key := pairOf(a, b)
	if t, ok := e.meets.get(key); ok {
		return t, nil
	}
	t, err := e.computeMeet(a, b)
	if err != nil {
		return Type{}, err
	}
	e.meets.put(key, t)
	return t, nil
}

// FirstCommonSuperclassOf is FirstCommonSuperclass on descriptors.
func (e *Engine) FirstCommonSuperclassOf(a, b *descriptor.ClassDescriptor) (*descriptor.ClassDescriptor, error) {
	t, err := e.FirstCommonSuperclass(ObjectType(e.factory, a), ObjectType(e.factory, b))
	if err != nil {
		return nil, err
	}
	if t.IsArray() {
		return e.factory.Class(t.Signature()), nil
	}
	return t.elem, nil
}

func (e *Engine) objectType() Type { return Type{elem: e.object} }

func (e *Engine) computeMeet(a, b Type) (Type, error) {
	switch {
	case a.IsArray() && b.IsArray():
		if a.dims == b.dims {
			return e.meetSameDimensions(a, b)
		}
		return e.meetDifferentDimensions(a, b), nil
	case a.IsArray() || b.IsArray():
		return e.objectType(), nil
	}
	d, err := e.meetObjects(a.elem, b.elem)
	if err != nil {
		return Type{}, err
	}
	return Type{elem: d}, nil
}

// int[][] and X[][] meet at Object[]; int[] and X[] at Object.
func (e *Engine) meetSameDimensions(a, b Type) (Type, error) {
	if a.IsPrimitiveArray() || b.IsPrimitiveArray() {
		if a.dims > 1 {
			return ArrayOf(e.objectType(), a.dims-1), nil
		}
		return e.objectType(), nil
	}
	elem, err := e.FirstCommonSuperclass(a.BasicType(), b.BasicType())
	if err != nil {
		return Type{}, err
	}
	return ArrayOf(elem, a.dims), nil
}

// int[][] and char[][][] meet at Object[]: the int[] and char[][] elements
// only share the root type. Cat[] and Dog[][] meet at Object[].
func (e *Engine) meetDifferentDimensions(a, b Type) Type {
	lo, hi := a.dims, b.dims
	if lo > hi {
		lo, hi = hi, lo
	}
	if a.IsPrimitiveArray() || b.IsPrimitiveArray() {
		if lo == 1 {
			return e.objectType()
		}
		return ArrayOf(e.objectType(), hi-lo)
	}
	return ArrayOf(e.objectType(), lo)
}

func (e *Engine) meetObjects(a, b *descriptor.ClassDescriptor) (*descriptor.ClassDescriptor, error) {
	av, err := e.resolve(a, "common superclass of "+a.Name()+" and "+b.Name())
	if err != nil {
		return nil, err
	}
	bv, err := e.resolve(b, "common superclass of "+a.Name()+" and "+b.Name())
	if err != nil {
		return nil, err
	}

	aSupers := e.SupertypeSet(a)
	bSupers := e.SupertypeSet(b)
	if bSupers.Contains(a) {
		return a, nil
	}
	if aSupers.Contains(b) {
		return b, nil
	}

	aChain, err := e.superclassChain(av)
	if err != nil {
		return nil, err
	}
	bChain, err := e.superclassChain(bv)
	if err != nil {
		return nil, err
	}
	var common *descriptor.ClassDescriptor
	for i, j := len(aChain)-1, len(bChain)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if aChain[i] != bChain[j] {
			break
		}
		common = aChain[i].Descriptor()
	}
	if common != nil && common != e.object {
		return common, nil
	}
	if refined := e.refineMeet(a, b, aSupers, bSupers); refined != nil {
		return refined, nil
	}
	return e.object, nil
}

// superclassChain lists v and its superclasses up to the root. A chain that
// comes back to a type it already holds is malformed input.
func (e *Engine) superclassChain(v *hierarchy.Vertex) ([]*hierarchy.Vertex, error) {
	var chain []*hierarchy.Vertex
	seen := collections.NewBitset(e.factory.Len())
	for cur := v; cur != nil; {
		if !cur.IsResolved() {
			return nil, unknown("superclass chain of "+v.Descriptor().Name(), []*descriptor.ClassDescriptor{cur.Descriptor()})
		}
		if seen.TestAndSet(cur.Descriptor().Index()) {
			return nil, apperrors.New(apperrors.CodeMalformedClass,
				"superclass cycle through "+cur.Descriptor().Name()+" above "+v.Descriptor().Name())
		}
		chain = append(chain, cur)
		super := cur.Superclass()
		if super == nil {
			break
		}
		cur = e.graph.Resolve(super)
	}
	return chain, nil
}

func (e *Engine) refineMeet(a, b *descriptor.ClassDescriptor, aSupers, bSupers *SupertypeSet) *descriptor.ClassDescriptor {
	var candidates []*descriptor.ClassDescriptor
	for _, d := range aSupers.Members() {
		if d != e.object && bSupers.Contains(d) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	pa, pb := a.PackageName(), b.PackageName()
	var best *descriptor.ClassDescriptor
	bestLocal, bestDepth := false, 0
	for _, c := range candidates {
		local := c.PackageName() == pa || c.PackageName() == pb
		depth := e.SupertypeSet(c).Len()
		switch {
		case best == nil,
			local && !bestLocal,
			local == bestLocal && depth > bestDepth,
			local == bestLocal && depth == bestDepth && c.Name() < best.Name():
			best, bestLocal, bestDepth = c, local, depth
		}
	}
	return best
}
