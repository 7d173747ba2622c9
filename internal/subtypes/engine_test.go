package subtypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierarchy-analysis/internal/classfile"
	"github.com/hierarchy-analysis/internal/classfile/classfiletest"
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/hierarchy"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

type mapSource map[string][]byte

func (m mapSource) ClassBytes(name string) ([]byte, error) {
	if data, ok := m[name]; ok {
		return data, nil
	}
	return nil, apperrors.Wrap(apperrors.CodeNotFound, name, nil)
}

type missingRecorder map[string]int

func (m missingRecorder) ReportMissingClass(name string, _ error) { m[name]++ }

// fixtures is a small slice of the platform library plus a few test types.
func fixtures() classfiletest.Hierarchy {
	return classfiletest.NewHierarchy().
		Interface("java/io/Serializable").
		Interface("java/lang/Cloneable").
		Interface("java/lang/Comparable").
		Interface("java/lang/CharSequence").
		Interface("java/lang/Iterable").
		Class("java/lang/String", "java/lang/Object", "java/io/Serializable", "java/lang/Comparable", "java/lang/CharSequence").
		Class("java/lang/Number", "java/lang/Object", "java/io/Serializable").
		Class("java/lang/Integer", "java/lang/Number", "java/lang/Comparable").
		Interface("java/util/Collection", "java/lang/Iterable").
		Interface("java/util/List", "java/util/Collection").
		Interface("java/util/Set", "java/util/Collection").
		Class("java/util/AbstractCollection", "java/lang/Object", "java/util/Collection").
		Class("java/util/AbstractSet", "java/util/AbstractCollection", "java/util/Set").
		Class("java/util/HashSet", "java/util/AbstractSet", "java/util/Set", "java/lang/Cloneable", "java/io/Serializable").
		Class("s/A", "java/lang/Object").
		Class("s/B", "s/A").
		Class("s/C", "s/A").
		Interface("s/I").
		Class("z/Animal", "java/lang/Object").
		Class("z/Dog", "z/Animal").
		Class("m/X", "m/Gone").
		Class("m/Y", "java/lang/Object", "m/GoneIface").
		Class("m/Z", "java/lang/Object")
}

func newEngine(t *testing.T, opts Options) (*Engine, missingRecorder) {
	t.Helper()
	rec := missingRecorder{}
	opts.Reporter = rec
	g := hierarchy.New(descriptor.NewFactory(), mapSource(fixtures()), hierarchy.WithReporter(rec))
	return New(g, opts), rec
}

func (e *Engine) cls(name string) *descriptor.ClassDescriptor {
	return e.factory.Class(name)
}

func (e *Engine) typ(t *testing.T, sig string) Type {
	t.Helper()
	ty, err := TypeFromSignature(e.factory, sig)
	require.NoError(t, err)
	return ty
}

func (e *Engine) resolveAll(names ...string) {
	for _, n := range names {
		e.graph.Resolve(e.cls(n))
	}
}

func names(ds []*descriptor.ClassDescriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

func TestEngine_Scenario(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	e.resolveAll("s/A", "s/B", "s/C", "s/I")

	ok, err := e.IsSubtype(e.cls("s/B"), e.cls("s/A"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsSubtype(e.cls("s/B"), e.cls("s/C"))
	require.NoError(t, err)
	assert.False(t, ok)

	meet, err := e.FirstCommonSuperclassOf(e.cls("s/B"), e.cls("s/C"))
	require.NoError(t, err)
	assert.Equal(t, "s/A", meet.Name())

	subs, err := e.GetSubtypes(e.cls("s/A"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s/A", "s/B", "s/C"}, names(subs))

	direct, err := e.GetDirectSubtypes(e.cls("s/A"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s/B", "s/C"}, names(direct))

	has, err := e.HasSubtypes(e.cls("s/I"))
	require.NoError(t, err)
	assert.False(t, has)
	ifaceSubs, err := e.GetSubtypes(e.cls("s/I"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s/I"}, names(ifaceSubs))

	info, err := classfile.Decode(classfiletest.New("s/D").Implements("s/I").Bytes(), "")
	require.NoError(t, err)
	e.AddClass(info)

	has, err = e.HasSubtypes(e.cls("s/I"))
	require.NoError(t, err)
	assert.True(t, has)
	ifaceSubs, err = e.GetSubtypes(e.cls("s/I"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s/D", "s/I"}, names(ifaceSubs))
}

var allFixtureNames = []string{
	"java/lang/Object", "java/io/Serializable", "java/lang/Cloneable", "java/lang/Comparable",
	"java/lang/String", "java/lang/Integer", "java/util/HashSet", "java/util/List",
	"s/A", "s/B", "s/I", "z/Dog",
}

func TestEngine_ReflexiveAndRooted(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	for _, n := range allFixtureNames {
		ok, err := e.IsSubtype(e.cls(n), e.cls(n))
		require.NoError(t, err, n)
		assert.True(t, ok, n)

		ok, err = e.IsSubtype(e.cls(n), e.cls(descriptor.ObjectName))
		require.NoError(t, err, n)
		assert.True(t, ok, n)
	}
}

func TestEngine_IsSubtype(t *testing.T) {
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"java/util/HashSet", "java/lang/Iterable", true},
		{"java/util/HashSet", "java/util/AbstractCollection", true},
		{"java/util/List", "java/lang/Iterable", true},
		{"java/lang/Integer", "java/io/Serializable", true},
		{"java/lang/Integer", "java/lang/String", false},
		{"java/lang/Object", "java/lang/String", false},
		{"java/lang/Iterable", "java/util/List", false},
		{"java/util/AbstractCollection", "java/util/HashSet", false},
		{"z/Dog", "z/Animal", true},
		{"z/Animal", "z/Dog", false},
		{"s/I", "s/A", false},
		{"m/X", "m/Gone", true},
	}
	for _, tt := range tests {
		t.Run(tt.sub+"<:"+tt.super, func(t *testing.T) {
			e, _ := newEngine(t, DefaultOptions())
			got, err := e.IsSubtype(e.cls(tt.sub), e.cls(tt.super))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_IsSubtypeUnknownWhenAncestorMissing(t *testing.T) {
	e, rec := newEngine(t, DefaultOptions())

	_, err := e.IsSubtype(e.cls("m/X"), e.cls("m/Z"))
	require.Error(t, err)
	assert.True(t, apperrors.IsUnknownSubtype(err))
	var u *UnknownSubtypeError
	require.ErrorAs(t, err, &u)
	assert.Equal(t, []string{"m/Gone"}, u.Missing)

	_, err = e.IsSubtype(e.cls("m/Y"), e.cls("java/io/Serializable"))
	assert.True(t, apperrors.IsUnknownSubtype(err))

	_, err = e.IsSubtype(e.cls("m/Gone"), e.cls("m/Z"))
	assert.True(t, apperrors.IsUnknownSubtype(err))

	ok, err := e.IsSubtype(e.cls("m/Gone"), e.cls(descriptor.ObjectName))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 1, rec["m/Gone"])
	assert.False(t, e.InstanceOf("m.X", "m.Z"))
	assert.Equal(t, 1, rec["m/Gone"])
	assert.True(t, e.InstanceOf("m.X", "m.Gone"))
	assert.True(t, e.InstanceOf("java.util.HashSet", "java.util.Collection"))
}

func TestEngine_IsSubtypeOfAny(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())

	ok, err := e.IsSubtypeOfAny(e.cls("java/util/HashSet"), e.cls("java/lang/String"), e.cls("java/lang/Iterable"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsSubtypeOfAny(e.cls("z/Dog"), e.cls("java/lang/String"), e.cls("s/A"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.IsSubtypeOfAny(e.cls("m/X"), e.cls("m/Gone"), e.cls("s/A"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.IsSubtypeOfAny(e.cls("m/X"), e.cls("s/A"), e.cls("z/Dog"))
	assert.True(t, apperrors.IsUnknownSubtype(err))
}

func TestEngine_IsSubtypeType(t *testing.T) {
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"[Lz/Dog;", "[Lz/Animal;", true},
		{"[[Lz/Dog;", "[Lz/Animal;", false},
		{"[[Lz/Dog;", "[Ljava/lang/Object;", true},
		{"[Lz/Animal;", "[Lz/Dog;", false},
		{"[I", "java/lang/Cloneable", true},
		{"[I", "java/io/Serializable", true},
		{"[I", "java/lang/Object", true},
		{"[I", "[Ljava/lang/Object;", false},
		{"[[I", "[Ljava/lang/Object;", true},
		{"[I", "[J", false},
		{"[I", "[I", true},
		{"[[Ljava/lang/String;", "[Ljava/lang/String;", false},
		{"[[Ljava/lang/String;", "[Ljava/lang/Object;", true},
		{"[[Ljava/io/Serializable;", "[Ljava/lang/Object;", true},
		{"[Ljava/lang/Cloneable;", "[Ljava/lang/Cloneable;", true},
		{"[Ljava/lang/Cloneable;", "java/lang/Cloneable", true},
		{"[Ljava/lang/String;", "java/lang/String", false},
		{"z/Dog", "[Lz/Dog;", false},
		{"java/lang/Object", "[Ljava/lang/Object;", false},
		{"[Ljava/lang/String;", "[Ljava/lang/Comparable;", true},
		{"[Ljava/lang/Integer;", "[Ljava/lang/String;", false},
	}
	for _, tt := range tests {
		t.Run(tt.sub+"<:"+tt.super, func(t *testing.T) {
			e, _ := newEngine(t, DefaultOptions())
			got, err := e.IsSubtypeType(e.typ(t, tt.sub), e.typ(t, tt.super))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_FirstCommonSuperclass(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"java/lang/Object", "java/lang/Object", "Ljava/lang/Object;"},
		{"java/lang/String", "java/lang/String", "Ljava/lang/String;"},
		{"java/lang/String", "java/lang/Object", "Ljava/lang/Object;"},
		{"java/lang/String", "java/lang/Integer", "Ljava/lang/Comparable;"},
		{"java/io/Serializable", "java/lang/Object", "Ljava/lang/Object;"},
		{"java/io/Serializable", "java/lang/Cloneable", "Ljava/lang/Object;"},
		{"java/io/Serializable", "java/io/Serializable", "Ljava/io/Serializable;"},
		{"s/B", "s/C", "Ls/A;"},
		{"s/B", "s/A", "Ls/A;"},
		{"z/Dog", "java/lang/String", "Ljava/lang/Object;"},
		{"java/util/Collection", "java/util/HashSet", "Ljava/util/Collection;"},
		{"java/util/List", "java/util/HashSet", "Ljava/util/Collection;"},
		{"[Ljava/lang/Integer;", "java/lang/Object", "Ljava/lang/Object;"},
		{"java/io/Serializable", "[Ljava/lang/Cloneable;", "Ljava/lang/Object;"},
		{"[Ljava/lang/String;", "[Ljava/lang/Integer;", "[Ljava/lang/Comparable;"},
		{"[I", "[I", "[I"},
		{"[C", "[I", "Ljava/lang/Object;"},
		{"[Ljava/lang/String;", "[I", "Ljava/lang/Object;"},
		{"[[Ljava/io/Serializable;", "[Ljava/lang/String;", "[Ljava/lang/Object;"},
		{"[[Ljava/lang/String;", "[I", "Ljava/lang/Object;"},
		{"[[I", "[[C", "[Ljava/lang/Object;"},
		{"[[I", "[[[C", "[Ljava/lang/Object;"},
		{"[[[C", "[[[I", "[[Ljava/lang/Object;"},
		{"[[[C", "[[[C", "[[[C"},
		{"[[Lz/Dog;", "[[Ls/B;", "[[Ljava/lang/Object;"},
		{"[[Lz/Dog;", "[[Lz/Animal;", "[[Lz/Animal;"},
	}
	for _, tt := range tests {
		t.Run(tt.a+"^"+tt.b, func(t *testing.T) {
			e, _ := newEngine(t, DefaultOptions())
			a, b := e.typ(t, tt.a), e.typ(t, tt.b)

			ab, err := e.FirstCommonSuperclass(a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ab.Signature())

			ba, err := e.FirstCommonSuperclass(b, a)
			require.NoError(t, err)
			assert.Equal(t, ab, ba)
		})
	}
}

func TestEngine_FirstCommonSuperclassUnknown(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())

	_, err := e.FirstCommonSuperclassOf(e.cls("m/X"), e.cls("m/Z"))
	assert.True(t, apperrors.IsUnknownSubtype(err))

	_, err = e.FirstCommonSuperclassOf(e.cls("m/Gone"), e.cls("m/Z"))
	assert.True(t, apperrors.IsUnknownSubtype(err))

	arr, err := e.FirstCommonSuperclass(e.typ(t, "[Lm/Gone;"), e.typ(t, "[I"))
	require.NoError(t, err)
	assert.Equal(t, "Ljava/lang/Object;", arr.Signature())
}

func TestEngine_SubtypeEnumeration(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	e.resolveAll("java/util/HashSet", "java/util/List", "java/lang/String")

	subs, err := e.GetSubtypes(e.cls("java/util/Collection"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"java/util/AbstractCollection", "java/util/AbstractSet", "java/util/Collection",
		"java/util/HashSet", "java/util/List", "java/util/Set",
	}, names(subs))

	direct, err := e.GetDirectSubtypes(e.cls("java/util/Set"))
	require.NoError(t, err)
	assert.Equal(t, []string{"java/util/AbstractSet", "java/util/HashSet"}, names(direct))

	common, err := e.GetTransitiveCommonSubtypes(e.cls("java/util/Collection"), e.cls("java/lang/Cloneable"))
	require.NoError(t, err)
	assert.Equal(t, []string{"java/util/HashSet"}, names(common))

	_, err = e.GetSubtypes(e.cls("m/Nowhere"))
	assert.True(t, apperrors.IsUnknownSubtype(err))
	_, err = e.HasSubtypes(e.cls("m/Nowhere"))
	assert.True(t, apperrors.IsUnknownSubtype(err))
}

func TestEngine_HasKnownSubclasses(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	e.resolveAll("java/util/HashSet", "java/util/List", "s/I")

	tests := []struct {
		name string
		want bool
	}{
		{"java/util/Collection", true},
		{"java/util/List", false},
		{"s/I", false},
		{"s/A", true},
	}
	for _, tt := range tests {
		got, err := e.HasKnownSubclasses(e.cls(tt.name))
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := e.HasKnownSubclasses(e.cls("m/Gone"))
	assert.True(t, apperrors.IsUnknownSubtype(err))
}

func TestEngine_IsApplicationClass(t *testing.T) {
	e, rec := newEngine(t, DefaultOptions())
	info, err := classfile.Decode(classfiletest.New("app/Main").Extends("s/A").Bytes(), "app/Main")
	require.NoError(t, err)

	e.AddApplicationClass(info)

	assert.True(t, e.IsApplicationClass(e.cls("app/Main")))
	assert.False(t, e.IsApplicationClass(e.cls("s/A")))
	assert.False(t, e.IsApplicationClass(e.cls("app/Missing")))
	assert.False(t, e.IsApplicationClass(e.cls("app/Missing")))
	assert.False(t, e.IsApplicationClass(e.cls("[Lapp/Main;")))
	assert.Equal(t, missingRecorder{"app/Missing": 1}, rec)
}

func TestEngine_ReporterHearsEachNameOnce(t *testing.T) {
	rec := missingRecorder{}
	g := hierarchy.New(descriptor.NewFactory(), mapSource(fixtures()))
	e := New(g, Options{Reporter: rec})

	assert.False(t, e.InstanceOf("m.X", "m.Z"))
	assert.False(t, e.InstanceOf("m.X", "m.Z"))
	assert.False(t, e.IsApplicationClass(e.cls("m/Gone")))

	assert.Equal(t, missingRecorder{"m/Gone": 1}, rec)
}

func TestEngine_ArrayDescriptors(t *testing.T) {
	tests := []struct {
		sub, super string
		want       bool
	}{
		{"[Lz/Dog;", "[Lz/Animal;", true},
		{"[Lz.Dog;", "[Lz/Animal;", true},
		{"[Lz/Animal;", "[Lz/Dog;", false},
		{"[Ljava/lang/String;", "java/io/Serializable", true},
		{"[Ljava/lang/String;", "java/lang/Cloneable", true},
		{"[I", "java/lang/Cloneable", true},
		{"[Ljava/lang/String;", "java/lang/Comparable", false},
		{"z/Dog", "[Lz/Dog;", false},
	}
	for _, tt := range tests {
		t.Run(tt.sub+"<:"+tt.super, func(t *testing.T) {
			e, rec := newEngine(t, DefaultOptions())
			got, err := e.IsSubtype(e.cls(tt.sub), e.cls(tt.super))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, rec)
		})
	}
}

func TestEngine_InstanceOfArrays(t *testing.T) {
	e, rec := newEngine(t, DefaultOptions())

	assert.True(t, e.InstanceOf("[Ljava.lang.String;", "java.io.Serializable"))
	assert.True(t, e.InstanceOf("[Lz.Dog;", "[Lz.Animal;"))
	assert.False(t, e.InstanceOf("[Lz.Animal;", "[Lz.Dog;"))
	assert.Same(t, e.cls("[Ljava/lang/String;"), e.cls("[Ljava.lang.String;"))

	ok, err := e.IsSubtypeOfAny(e.cls("[Lz/Dog;"), e.cls("java/lang/String"), e.cls("[Lz/Animal;"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.IsSubtypeOfAny(e.cls("[Lm/X;"), e.cls("[Lm/Z;"))
	assert.True(t, apperrors.IsUnknownSubtype(err))

	for name := range rec {
		assert.NotEqual(t, byte('['), name[0], name)
	}
	for _, d := range e.Graph().Unresolved() {
		assert.False(t, d.IsArray(), d.Name())
	}
}

// cyclic holds corrupted input: c/A and c/B extend each other, c/Self
// extends itself.
func cyclic() classfiletest.Hierarchy {
	return classfiletest.NewHierarchy().
		Class("c/A", "c/B").
		Class("c/B", "c/A").
		Class("c/Self", "c/Self").
		Class("c/C", "java/lang/Object")
}

func newCyclicEngine(t *testing.T) *Engine {
	t.Helper()
	g := hierarchy.New(descriptor.NewFactory(), mapSource(cyclic()))
	return New(g, DefaultOptions())
}

func TestEngine_SuperclassCycle(t *testing.T) {
	e := newCyclicEngine(t)

	tests := []struct {
		sub, super string
		want       bool
	}{
		{"c/A", "c/B", true},
		{"c/B", "c/A", true},
		{"c/A", "c/C", false},
		{"c/Self", "c/Self", true},
		{"c/Self", "c/C", false},
		{"c/C", "c/A", false},
	}
	for _, tt := range tests {
		got, err := e.IsSubtype(e.cls(tt.sub), e.cls(tt.super))
		require.NoError(t, err, tt.sub+" <: "+tt.super)
		assert.Equal(t, tt.want, got, tt.sub+" <: "+tt.super)
	}

	assert.Equal(t, []string{"c/A", "c/B"}, names(e.SupertypeSet(e.cls("c/A")).Members()))
	assert.Equal(t, []string{"c/Self"}, names(e.SupertypeSet(e.cls("c/Self")).Members()))
	assert.False(t, e.SupertypeSet(e.cls("c/A")).HasMissing())
}

func TestEngine_FirstCommonSuperclassOnCycle(t *testing.T) {
	e := newCyclicEngine(t)

	type result struct {
		d   *descriptor.ClassDescriptor
		err error
	}
	meet := func(a, b string) result {
		done := make(chan result, 1)
		go func() {
			d, err := e.FirstCommonSuperclassOf(e.cls(a), e.cls(b))
			done <- result{d, err}
		}()
		select {
		case r := <-done:
			return r
		case <-time.After(3 * time.Second):
			t.Fatalf("%s ^ %s did not return", a, b)
			return result{}
		}
	}

	r := meet("c/A", "c/C")
	assert.True(t, apperrors.IsMalformedClass(r.err))
	assert.Nil(t, r.d)

	r = meet("c/Self", "c/C")
	assert.True(t, apperrors.IsMalformedClass(r.err))

	r = meet("c/A", "c/B")
	require.NoError(t, r.err)
	assert.Equal(t, "c/A", r.d.Name())
}

// queryAll runs a fixed battery of queries and renders every answer.
func queryAll(t *testing.T, e *Engine) []string {
	t.Helper()
	var out []string
	render := func(v interface{}, err error) {
		if err != nil {
			out = append(out, "error:"+apperrors.GetErrorCode(err))
			return
		}
		switch x := v.(type) {
		case []*descriptor.ClassDescriptor:
			out = append(out, names(x)...)
			out = append(out, "|")
		case Type:
			out = append(out, x.Signature())
		default:
			out = append(out, boolString(x))
		}
	}
	for _, a := range allFixtureNames {
		for _, b := range append(allFixtureNames, "m/X", "m/Gone") {
			render(e.IsSubtype(e.cls(a), e.cls(b)))
			render(e.IsSubtype(e.cls(b), e.cls(a)))
			render(e.FirstCommonSuperclass(e.typ(t, a), e.typ(t, b)))
			render(e.FirstCommonSuperclass(e.typ(t, "[L"+a+";"), e.typ(t, "[L"+b+";")))
		}
		render(e.GetSubtypes(e.cls(a)))
		render(e.HasKnownSubclasses(e.cls(a)))
	}
	return out
}

func boolString(v interface{}) string {
	if b, ok := v.(bool); ok && b {
		return "true"
	}
	return "false"
}

func TestEngine_CacheTransparency(t *testing.T) {
	cached, _ := newEngine(t, DefaultOptions())
	uncached, _ := newEngine(t, Options{DisableCache: true})
	tiny, _ := newEngine(t, Options{SupertypeCacheSize: 1, SubtypeCacheSize: 1, CommonSuperclassCacheSize: 1})

	want := queryAll(t, uncached)
	assert.Equal(t, want, queryAll(t, cached))
	assert.Equal(t, want, queryAll(t, cached))
	assert.Equal(t, want, queryAll(t, tiny))

	stats := cached.CacheStats()
	assert.Positive(t, stats.SupertypeHits)
	assert.Positive(t, stats.MeetHits)
	assert.Positive(t, stats.SubtypeHits)
	assert.Zero(t, uncached.CacheStats().MeetHits)
	assert.Zero(t, uncached.CacheStats().MemoHits)
}

func TestEngine_MemoHit(t *testing.T) {
	e, _ := newEngine(t, DefaultOptions())
	for i := 0; i < 3; i++ {
		ok, err := e.IsSubtype(e.cls("z/Dog"), e.cls("z/Animal"))
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 2, e.CacheStats().MemoHits)
}
