package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierarchy-analysis/internal/classfile/classfiletest"
	"github.com/hierarchy-analysis/internal/codebase"
	"github.com/hierarchy-analysis/internal/subtypes"
	"github.com/hierarchy-analysis/pkg/config"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

func platform() *codebase.Map {
	return codebase.NewMap("rt", classfiletest.NewHierarchy().
		Interface("java/io/Serializable").
		Interface("java/lang/Cloneable"))
}

func application() *codebase.Map {
	h := classfiletest.Hierarchy{}.
		Class("com/acme/Base", "java/lang/Object").
		Class("com/acme/Impl", "com/acme/Base").
		Class("com/acme/Service", "com/acme/Base", "org/lib/Handler").
		Class("org/other/Util", "java/lang/Object")
	h["com/acme/Bad"] = []byte("not a class file")
	return codebase.NewMap("app", h)
}

func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	opts.Engine = subtypes.DefaultOptions()
	opts.ScanWorkers = 2
	s := NewSession(application(), platform(), opts)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loaded(t *testing.T, opts Options) *Session {
	t.Helper()
	s := newSession(t, opts)
	_, err := s.LoadApplicationClasses(context.Background())
	require.NoError(t, err)
	return s
}

func TestLoadApplicationClasses(t *testing.T) {
	s := newSession(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	n, err := s.LoadApplicationClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	r := s.Report()
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, s.ID(), r.RunID)
	require.Len(t, r.DecodeErrors, 1)
	assert.Equal(t, "com/acme/Bad", r.DecodeErrors[0].Class)
	assert.Equal(t, apperrors.CodeMalformedClass, r.DecodeErrors[0].Code)

	assert.Equal(t, 5, r.Counts.Vertices)
	assert.Equal(t, 4, r.Counts.Edges)
	assert.Equal(t, 3, r.Counts.ExtendsEdges)
	assert.Equal(t, 1, r.Counts.ImplementsEdges)
	assert.Equal(t, 4, r.Counts.ResolvedClasses)
	assert.Equal(t, 1, r.Counts.UnresolvedClasses)
	assert.Equal(t, 3, r.Counts.ApplicationClasses)

	require.Len(t, r.MissingClasses, 1)
	assert.Equal(t, "org/lib/Handler", r.MissingClasses[0].Name)
	assert.Equal(t, "library", r.MissingClasses[0].Category)
	assert.True(t, r.MissingClasses[0].ViaInterface)
	assert.Equal(t, []string{"org/lib/Handler"}, s.MissingClasses())

	stages := make([]string, 0, len(r.Stages))
	for _, st := range r.Stages {
		stages = append(stages, st.Name)
	}
	assert.Equal(t, []string{"decode", "build_graph"}, stages)
}

func TestLoadApplicationClasses_NoPrefixesLoadsEverything(t *testing.T) {
	s := newSession(t, Options{})
	n, err := s.LoadApplicationClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLoadApplicationClasses_ExplicitClasses(t *testing.T) {
	s := newSession(t, Options{
		ApplicationPrefixes: []string{"com/acme/"},
		ApplicationClasses:  []string{"org.other.Util", "org/absent/Nowhere"},
	})
	n, err := s.LoadApplicationClasses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	r := s.Report()
	require.Len(t, r.DecodeErrors, 2)
	assert.Equal(t, "com/acme/Bad", r.DecodeErrors[0].Class)
	assert.Equal(t, "org/absent/Nowhere", r.DecodeErrors[1].Class)
	assert.Equal(t, apperrors.CodeNotFound, r.DecodeErrors[1].Code)
}

func TestLoadApplicationClasses_Canceled(t *testing.T) {
	s := newSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadApplicationClasses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSubtype(t *testing.T) {
	s := loaded(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	tests := []struct {
		name     string
		sub      string
		super    string
		expected bool
		unknown  bool
	}{
		{"direct superclass", "com/acme/Impl", "com/acme/Base", true, false},
		{"dotted names", "com.acme.Impl", "java.lang.Object", true, false},
		{"unrelated", "com/acme/Impl", "com/acme/Service", false, false},
		{"missing interface is a member", "com/acme/Service", "org/lib/Handler", true, false},
		{"missing interface blocks a no", "com/acme/Service", "com/acme/Impl", false, true},
		{"covariant arrays", "[Lcom/acme/Impl;", "[Lcom/acme/Base;", true, false},
		{"array to serializable", "[I", "java/io/Serializable", true, false},
		{"primitive arrays differ", "[I", "[J", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.IsSubtype(tt.sub, tt.super)
			if tt.unknown {
				require.Error(t, err)
				assert.True(t, apperrors.IsUnknownSubtype(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsSubtype_BadSignature(t *testing.T) {
	s := loaded(t, Options{})
	_, err := s.IsSubtype("I", "java/lang/Object")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidSignature(err))
}

func TestFirstCommonSuperclass(t *testing.T) {
	s := loaded(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	tests := []struct {
		a, b     string
		expected string
	}{
		{"com/acme/Impl", "com/acme/Service", "com/acme/Base"},
		{"com/acme/Impl", "com/acme/Base", "com/acme/Base"},
		{"com/acme/Impl", "java/lang/Object", "java/lang/Object"},
		{"[Lcom/acme/Impl;", "[Lcom/acme/Service;", "[Lcom/acme/Base;"},
		{"[I", "[J", "java/lang/Object"},
	}

	for _, tt := range tests {
		got, err := s.FirstCommonSuperclass(tt.a, tt.b)
		require.NoError(t, err, "%s ^ %s", tt.a, tt.b)
		assert.Equal(t, tt.expected, got, "%s ^ %s", tt.a, tt.b)
	}
}

func TestSubtypes(t *testing.T) {
	s := loaded(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	all, err := s.Subtypes("com/acme/Base", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"com/acme/Base", "com/acme/Impl", "com/acme/Service"}, all)

	direct, err := s.Subtypes("com.acme.Base", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"com/acme/Impl", "com/acme/Service"}, direct)

	_, err = s.Subtypes("org/lib/Handler", false)
	assert.True(t, apperrors.IsUnknownSubtype(err))

	_, err = s.Subtypes("", false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = s.Subtypes("[Lcom/acme/Base;", false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSupertypes(t *testing.T) {
	s := loaded(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	res, err := s.Supertypes("com/acme/Service")
	require.NoError(t, err)
	assert.Equal(t, "com/acme/Service", res.Class)
	assert.ElementsMatch(t, []string{"com/acme/Service", "com/acme/Base", "org/lib/Handler", "java/lang/Object"}, res.Supertypes)
	assert.Equal(t, "com/acme/Service", res.Supertypes[0])
	assert.Equal(t, []string{"org/lib/Handler"}, res.Missing)
}

func TestWithEngine(t *testing.T) {
	s := loaded(t, Options{})
	err := s.WithEngine(func(e *subtypes.Engine) error {
		assert.True(t, e.IsApplicationClass(e.Factory().Class("org/other/Util")))
		return nil
	})
	require.NoError(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.AnalysisConfig{
		Classpath:                 []string{"app.jar"},
		AuxClasspath:              []string{"rt.jar"},
		ApplicationPrefixes:       []string{"com/acme/"},
		SupertypeCacheSize:        10,
		SubtypeCacheSize:          20,
		CommonSuperclassCacheSize: 30,
		DisableCache:              true,
		ScanWorkers:               4,
	}
	opts := OptionsFromConfig(cfg, nil)
	assert.Equal(t, 10, opts.Engine.SupertypeCacheSize)
	assert.Equal(t, 20, opts.Engine.SubtypeCacheSize)
	assert.Equal(t, 30, opts.Engine.CommonSuperclassCacheSize)
	assert.True(t, opts.Engine.DisableCache)
	assert.Equal(t, 4, opts.ScanWorkers)
	assert.Equal(t, []string{"app.jar"}, opts.Classpath)
	assert.Equal(t, []string{"rt.jar"}, opts.AuxClasspath)
}

func TestMissingClassCollector(t *testing.T) {
	c := NewMissingClassCollector(nil)
	c.ReportMissingClass("b/B", apperrors.ErrNotFound)
	c.ReportMissingClass("a/A", apperrors.ErrMalformedClass)
	c.ReportMissingClass("b/B", apperrors.ErrMalformedClass)

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, []string{"a/A", "b/B"}, c.Names())
	cause, ok := c.Cause("b/B")
	require.True(t, ok)
	assert.ErrorIs(t, cause, apperrors.ErrNotFound)
	_, ok = c.Cause("c/C")
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	s := loaded(t, Options{ApplicationPrefixes: []string{"com/acme/"}})

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.RunID)
	require.Len(t, snap.Classes, 5)
	assert.Len(t, snap.EdgesOfKind("IMPLEMENTS"), 1)

	byName := make(map[string]bool)
	for _, c := range snap.Classes {
		byName[c.Name] = c.Resolved
		if c.Name == "org/lib/Handler" {
			assert.Equal(t, "library", c.Category)
		}
	}
	assert.False(t, byName["org/lib/Handler"])
	assert.True(t, byName["com/acme/Impl"])
}
