// Package subtypes answers subtype, common-superclass and subtype-enumeration
// queries over a hierarchy.Graph.
//
// Answers are never silently wrong: when an unresolved type might have been
// the deciding link, queries return an *UnknownSubtypeError instead of false.
// An Engine belongs to one analysis session and is not safe for concurrent use.
package subtypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hierarchy-analysis/internal/classfile"
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/hierarchy"
	"github.com/hierarchy-analysis/pkg/collections"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// Default cache bounds.
const (
	DefaultSupertypeCacheSize        = 500
	DefaultSubtypeCacheSize          = 500
	DefaultCommonSuperclassCacheSize = 2000
)

// Options configures an Engine.
type Options struct {
	SupertypeCacheSize        int
	SubtypeCacheSize          int
	CommonSuperclassCacheSize int
	// DisableCache turns off every cache, including the single-query memo.
	DisableCache bool
	// Reporter receives the missing types behind answers that InstanceOf
	// and IsApplicationClass degrade to false, once per name. Types the graph
	// already passed to its own reporter are not repeated.
	Reporter hierarchy.MissingClassReporter
}

// DefaultOptions returns the default cache bounds with caching enabled.
func DefaultOptions() Options {
	return Options{
		SupertypeCacheSize:        DefaultSupertypeCacheSize,
		SubtypeCacheSize:          DefaultSubtypeCacheSize,
		CommonSuperclassCacheSize: DefaultCommonSuperclassCacheSize,
	}
}

// UnknownSubtypeError reports that a query could not be answered soundly
// because some types involved are unresolved.
type UnknownSubtypeError struct {
	Query   string
	Missing []string
}

func (e *UnknownSubtypeError) Error() string {
	return fmt.Sprintf("%s: %s: missing %s", apperrors.ErrUnknownSubtype.Message, e.Query, strings.Join(e.Missing, ", "))
}

// Unwrap makes the error match apperrors.ErrUnknownSubtype.
func (e *UnknownSubtypeError) Unwrap() error {
	return apperrors.ErrUnknownSubtype
}

func unknown(query string, missing []*descriptor.ClassDescriptor) error {
	names := make([]string, len(missing))
	for i, d := range missing {
		names[i] = d.Name()
	}
	return &UnknownSubtypeError{Query: query, Missing: names}
}

// SupertypeSet is the transitive closure of a type's supertypes, the type
// itself included, plus the unresolved types the walk ran into.
type SupertypeSet struct {
	start   *descriptor.ClassDescriptor
	members *collections.Bitset
	order   []*descriptor.ClassDescriptor
	missing []*descriptor.ClassDescriptor
}

// Contains reports whether d was reached.
func (s *SupertypeSet) Contains(d *descriptor.ClassDescriptor) bool {
	return s.members.Test(d.Index())
}

// HasMissing reports whether the walk touched an unresolved type.
func (s *SupertypeSet) HasMissing() bool { return len(s.missing) > 0 }

// Missing returns the unresolved types reached, in walk order.
func (s *SupertypeSet) Missing() []*descriptor.ClassDescriptor { return s.missing }

// Members returns every type reached in breadth-first order, starting with
// the type itself.
func (s *SupertypeSet) Members() []*descriptor.ClassDescriptor { return s.order }

// Len returns the number of types reached.
func (s *SupertypeSet) Len() int { return len(s.order) }

// ContainsType reports whether d is a known supertype. When it is not and
// the walk touched an unresolved type the answer is unknown.
func (s *SupertypeSet) ContainsType(d *descriptor.ClassDescriptor) (bool, error) {
	if s.Contains(d) {
		return true, nil
	}
	if s.HasMissing() {
		return false, unknown(s.start.Name()+" <: "+d.Name(), s.missing)
	}
	return false, nil
}

// Engine is the subtype query engine of one session.
type Engine struct {
	graph        *hierarchy.Graph
	factory      *descriptor.Factory
	object       *descriptor.ClassDescriptor
	serializable *descriptor.ClassDescriptor
	cloneable    *descriptor.ClassDescriptor
	opts         Options

	supertypes *boundedCache[*descriptor.ClassDescriptor, *SupertypeSet]
	subtypes   *boundedCache[*descriptor.ClassDescriptor, *collections.Bitset]
	meets      *boundedCache[typePair, Type]
	// Edge count the subtype cache was filled against; incoming edges
	// keep arriving as classes are added.
	subtypeEdges int

	memoSub, memoSuper *descriptor.ClassDescriptor
	memoResult         bool

	reported *collections.Bitset

	stats CacheStats
}

// New creates an engine over graph.
func New(graph *hierarchy.Graph, opts Options) *Engine {
	f := graph.Factory()
	e := &Engine{
		graph:        graph,
		factory:      f,
		object:       graph.Object(),
		serializable: f.Class(descriptor.SerializableName),
		cloneable:    f.Class(descriptor.CloneableName),
		opts:         opts,
		reported:     collections.NewBitset(f.Len()),
	}
	enabled := !opts.DisableCache
	e.supertypes = newBoundedCache[*descriptor.ClassDescriptor, *SupertypeSet](
		opts.SupertypeCacheSize, enabled, &e.stats.SupertypeHits, &e.stats.SupertypeMisses)
	e.subtypes = newBoundedCache[*descriptor.ClassDescriptor, *collections.Bitset](
		opts.SubtypeCacheSize, enabled, &e.stats.SubtypeHits, &e.stats.SubtypeMisses)
	e.meets = newBoundedCache[typePair, Type](
		opts.CommonSuperclassCacheSize, enabled, &e.stats.MeetHits, &e.stats.MeetMisses)
	return e
}

// Graph returns the underlying inheritance graph.
func (e *Engine) Graph() *hierarchy.Graph { return e.graph }

// Factory returns the intern table shared with the graph.
func (e *Engine) Factory() *descriptor.Factory { return e.factory }

// CacheStats returns cache hit and miss counts.
func (e *Engine) CacheStats() CacheStats { return e.stats }

// AddClass adds a decoded class and its supertypes to the graph.
func (e *Engine) AddClass(info *classfile.ClassInfo) {
	e.graph.AddClass(info)
}

// AddApplicationClass adds a decoded class and marks it as application code.
func (e *Engine) AddApplicationClass(info *classfile.ClassInfo) {
	e.graph.AddApplicationClass(info)
}

// IsApplicationClass reports whether d was added as application code.
// An unresolvable d is reported and answers false.
func (e *Engine) IsApplicationClass(d *descriptor.ClassDescriptor) bool {
	if d.IsArray() {
		return false
	}
	v := e.graph.Resolve(d)
	if !v.IsResolved() {
		e.report(d, unknown("application class "+d.Name(), []*descriptor.ClassDescriptor{d}))
		return false
	}
	return v.IsApplicationClass()
}

// InstanceOf answers a subtype query on dotted class names. A missing type
// is reported and the answer degrades to false.
func (e *Engine) InstanceOf(dottedSub, dottedSuper string) bool {
	ok, err := e.IsSubtype(e.factory.Class(dottedSub), e.factory.Class(dottedSuper))
	if err != nil {
		var u *UnknownSubtypeError
		if errors.As(err, &u) {
			for _, name := range u.Missing {
				e.report(e.factory.Class(name), err)
			}
		}
		return false
	}
	return ok
}

func (e *Engine) report(d *descriptor.ClassDescriptor, cause error) {
	if e.opts.Reporter == nil || d.IsArray() || e.graph.Reported(d) {
		return
	}
	if e.reported.TestAndSet(d.Index()) {
		return
	}
	e.opts.Reporter.ReportMissingClass(d.Name(), cause)
}

// IsSubtype reports whether sub is equal to or a transitive subtype of super.
// Array descriptors are answered by IsSubtypeType.
func (e *Engine) IsSubtype(sub, super *descriptor.ClassDescriptor) (bool, error) {
	if sub == super || super == e.object {
		return true, nil
	}
	if sub == e.object {
		return false, nil
	}
	if sub.IsArray() || super.IsArray() {
		st, pt := ObjectType(e.factory, sub), ObjectType(e.factory, super)
		// Unparseable array names stay unresolved vertices below.
		if st.IsArray() || pt.IsArray() {
			return e.IsSubtypeType(st, pt)
		}
	}
	if !e.opts.DisableCache && sub == e.memoSub && super == e.memoSuper {
		e.stats.MemoHits++
		return e.memoResult, nil
	}
	ok, err := e.isSubtype(sub, super)
	if err != nil {
		return false, err
	}
	e.memoSub, e.memoSuper, e.memoResult = sub, super, ok
	return ok, nil
}

func (e *Engine) isSubtype(sub, super *descriptor.ClassDescriptor) (bool, error) {
	v := e.graph.Resolve(sub)
	if r, ok := v.State().(hierarchy.Resolved); ok {
		if r.Superclass == super {
			return true, nil
		}
		for _, iface := range r.Interfaces {
			if iface == super {
				return true, nil
			}
		}
		// Only the root above: nothing else can match.
		if len(r.Interfaces) == 0 && (r.Superclass == nil || r.Superclass == e.object) {
			return false, nil
		}
	}
	return e.SupertypeSet(sub).ContainsType(super)
}

// IsSubtypeOfAny reports whether sub is a subtype of at least one of supers.
func (e *Engine) IsSubtypeOfAny(sub *descriptor.ClassDescriptor, supers ...*descriptor.ClassDescriptor) (bool, error) {
	for _, s := range supers {
		if s == sub || s == e.object {
			return true, nil
		}
	}
	if sub.IsArray() {
		var firstErr error
		for _, s := range supers {
			ok, err := e.IsSubtype(sub, s)
			if ok {
				return true, nil
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return false, firstErr
	}
	if v := e.graph.Resolve(sub); v.IsResolved() {
		for _, s := range supers {
			if s == v.Superclass() {
				return true, nil
			}
		}
	}
	set := e.SupertypeSet(sub)
	for _, s := range supers {
		if set.Contains(s) {
			return true, nil
		}
	}
	if set.HasMissing() && len(supers) > 0 {
		names := make([]string, len(supers))
		for i, s := range supers {
			names[i] = s.Name()
		}
		return false, unknown(sub.Name()+" <: any of "+strings.Join(names, ", "), set.missing)
	}
	return false, nil
}

// SupertypeSet returns the transitive supertypes of d. An unresolved d
// yields a set holding only d, flagged as missing.
func (e *Engine) SupertypeSet(d *descriptor.ClassDescriptor) *SupertypeSet {
	if set, ok := e.supertypes.get(d); ok {
		return set
	}
	set := e.computeSupertypes(d)
	e.supertypes.put(d, set)
	return set
}

func (e *Engine) computeSupertypes(d *descriptor.ClassDescriptor) *SupertypeSet {
	set := &SupertypeSet{start: d, members: collections.NewBitset(e.factory.Len())}
	work := collections.NewQueue[*hierarchy.Vertex](16)
	work.Enqueue(e.graph.Resolve(d))
	for !work.IsEmpty() {
		v, _ := work.Dequeue()
		if set.members.TestAndSet(v.Descriptor().Index()) {
			continue
		}
		set.order = append(set.order, v.Descriptor())
		if !v.IsResolved() {
			set.missing = append(set.missing, v.Descriptor())
		}
		for _, edge := range v.Outgoing() {
			work.Enqueue(edge.Target)
		}
	}
	return set
}

// IsSubtypeType extends IsSubtype to array types. Every array is a subtype
// of the root type, Serializable and Cloneable. An array of X is a subtype of
// an array of Y with the same dimensions when X is an object type that is a
// subtype of Y; extra dimensions on the subtype side are treated as arrays
// of the element type.
func (e *Engine) IsSubtypeType(sub, super Type) (bool, error) {
	if sub == super {
		return true, nil
	}
	if !super.IsArray() && super.elem == e.object {
		return true, nil
	}
	if !sub.IsArray() && sub.elem == e.object {
		return false, nil
	}
	if !sub.IsArray() {
		if super.IsArray() {
			return false, nil
		}
		return e.IsSubtype(sub.elem, super.elem)
	}

	if !super.IsArray() {
		return super.elem == e.serializable || super.elem == e.cloneable, nil
	}
	if sub.dims < super.dims || super.IsPrimitiveArray() {
		return false, nil
	}
	if sub.dims > super.dims {
		return e.IsSubtypeType(ArrayOf(sub.BasicType(), sub.dims-super.dims), super.BasicType())
	}
	if sub.IsPrimitiveArray() {
		return false, nil
	}
	return e.IsSubtype(sub.elem, super.elem)
}

// GetSubtypes returns d and every known transitive subtype, sorted by name.
func (e *Engine) GetSubtypes(d *descriptor.ClassDescriptor) ([]*descriptor.ClassDescriptor, error) {
	set, err := e.subtypeSet(d)
	if err != nil {
		return nil, err
	}
	return e.sortedMembers(set), nil
}

func (e *Engine) subtypeSet(d *descriptor.ClassDescriptor) (*collections.Bitset, error) {
	start, err := e.resolve(d, "subtypes of "+d.Name())
	if err != nil {
		return nil, err
	}
	if n := e.graph.NumEdges(); n != e.subtypeEdges {
		e.subtypes.purge()
		e.subtypeEdges = n
	}
	if set, ok := e.subtypes.get(d); ok {
		return set, nil
	}

	set := collections.NewBitset(e.factory.Len())
	work := collections.NewQueue[*hierarchy.Vertex](16)
	work.Enqueue(start)
	for !work.IsEmpty() {
		v, _ := work.Dequeue()
		if set.TestAndSet(v.Descriptor().Index()) {
			continue
		}
		for _, edge := range v.Incoming() {
			work.Enqueue(edge.Source)
		}
	}
	e.subtypes.put(d, set)
	return set, nil
}

// GetDirectSubtypes returns the sources of d's incoming edges, sorted by name.
func (e *Engine) GetDirectSubtypes(d *descriptor.ClassDescriptor) ([]*descriptor.ClassDescriptor, error) {
	v, err := e.resolve(d, "direct subtypes of "+d.Name())
	if err != nil {
		return nil, err
	}
	out := make([]*descriptor.ClassDescriptor, 0, len(v.Incoming()))
	for _, edge := range v.Incoming() {
		out = append(out, edge.Source.Descriptor())
	}
	sortByName(out)
	return out, nil
}

// HasSubtypes reports whether any known type directly extends or implements d.
func (e *Engine) HasSubtypes(d *descriptor.ClassDescriptor) (bool, error) {
	v, err := e.resolve(d, "subtypes of "+d.Name())
	if err != nil {
		return false, err
	}
	return len(v.Incoming()) > 0, nil
}

// HasKnownSubclasses reports whether d, or some known subtype of it, is a
// resolved class rather than an interface. A class d answers true at once.
func (e *Engine) HasKnownSubclasses(d *descriptor.ClassDescriptor) (bool, error) {
	start, err := e.resolve(d, "subclasses of "+d.Name())
	if err != nil {
		return false, err
	}
	if !start.IsInterface() {
		return true, nil
	}
	seen := collections.NewBitset(e.factory.Len())
	work := collections.NewQueue[*hierarchy.Vertex](16)
	work.Enqueue(start)
	for !work.IsEmpty() {
		v, _ := work.Dequeue()
		if seen.TestAndSet(v.Descriptor().Index()) {
			continue
		}
		if v.IsResolved() && !v.IsInterface() {
			return true, nil
		}
		for _, edge := range v.Incoming() {
			work.Enqueue(edge.Source)
		}
	}
	return false, nil
}

// GetTransitiveCommonSubtypes returns the types that are subtypes of both a
// and b, sorted by name.
func (e *Engine) GetTransitiveCommonSubtypes(a, b *descriptor.ClassDescriptor) ([]*descriptor.ClassDescriptor, error) {
	sa, err := e.subtypeSet(a)
	if err != nil {
		return nil, err
	}
	sb, err := e.subtypeSet(b)
	if err != nil {
		return nil, err
	}
	common := sa.Clone()
	common.And(sb)
	return e.sortedMembers(common), nil
}

func (e *Engine) resolve(d *descriptor.ClassDescriptor, query string) (*hierarchy.Vertex, error) {
	v := e.graph.Resolve(d)
	if !v.IsResolved() {
		return nil, unknown(query, []*descriptor.ClassDescriptor{d})
	}
	return v, nil
}

func (e *Engine) sortedMembers(set *collections.Bitset) []*descriptor.ClassDescriptor {
	out := make([]*descriptor.ClassDescriptor, 0, set.Count())
	set.Iterate(func(i int) bool {
		out = append(out, e.factory.ByIndex(i))
		return true
	})
	sortByName(out)
	return out
}

func sortByName(ds []*descriptor.ClassDescriptor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Name() < ds[j].Name() })
}
