// Package analysis ties a classpath, the inheritance graph and the subtype
// engine into one analysis session.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hierarchy-analysis/internal/codebase"
	"github.com/hierarchy-analysis/internal/descriptor"
	"github.com/hierarchy-analysis/internal/hierarchy"
	"github.com/hierarchy-analysis/internal/report"
	"github.com/hierarchy-analysis/internal/subtypes"
	"github.com/hierarchy-analysis/pkg/config"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
	"github.com/hierarchy-analysis/pkg/filter"
	"github.com/hierarchy-analysis/pkg/telemetry"
	"github.com/hierarchy-analysis/pkg/utils"
)

// Version is stamped into reports.
var Version = "dev"

// Options configures a Session.
type Options struct {
	Engine subtypes.Options
	// ApplicationPrefixes selects application classes of the primary
	// classpath by package. Empty means every class there is application code.
	ApplicationPrefixes []string
	// ApplicationClasses names application classes explicitly. They may live
	// anywhere on the classpath.
	ApplicationClasses []string
	ScanWorkers        int
	Logger             utils.Logger
	// Classpath and AuxClasspath are recorded in the report.
	Classpath    []string
	AuxClasspath []string
}

// OptionsFromConfig maps the analysis section of the configuration.
func OptionsFromConfig(cfg config.AnalysisConfig, logger utils.Logger) Options {
	return Options{
		Engine: subtypes.Options{
			SupertypeCacheSize:        cfg.SupertypeCacheSize,
			SubtypeCacheSize:          cfg.SubtypeCacheSize,
			CommonSuperclassCacheSize: cfg.CommonSuperclassCacheSize,
			DisableCache:              cfg.DisableCache,
		},
		ApplicationPrefixes: cfg.ApplicationPrefixes,
		ApplicationClasses:  cfg.ApplicationClasses,
		ScanWorkers:         cfg.ScanWorkers,
		Logger:              logger,
		Classpath:           cfg.Classpath,
		AuxClasspath:        cfg.AuxClasspath,
	}
}

// Session owns one graph and engine. Its query methods serialize access to
// the engine, so a Session may be shared between goroutines.
type Session struct {
	id      string
	opts    Options
	logger  utils.Logger
	started time.Time

	app       codebase.CodeBase
	classpath *codebase.Chain
	filter    *filter.ClassFilter
	missing   *MissingClassCollector
	timer     *utils.StageTimer

	mu           sync.Mutex
	factory      *descriptor.Factory
	graph        *hierarchy.Graph
	engine       *subtypes.Engine
	decodeErrors []report.DecodeError
}

// NewSession creates a session over the application code base app and the
// auxiliary code base aux, which may be nil. Classes are looked up in app
// first. The session takes ownership of both and closes them in Close.
func NewSession(app, aux codebase.CodeBase, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = &utils.NullLogger{}
	}
	if opts.ScanWorkers < 1 {
		opts.ScanWorkers = config.DefaultScanWorkers()
	}

	id := uuid.NewString()
	logger := opts.Logger.WithField("run_id", id)

	chain := codebase.NewChain(app)
	if aux != nil {
		chain.Append(aux)
	}

	cf := filter.NewClassFilter()
	cf.AddApplicationPrefixes(opts.ApplicationPrefixes)

	missing := NewMissingClassCollector(logger)
	factory := descriptor.NewFactory()
	graph := hierarchy.New(factory, chain, hierarchy.WithReporter(missing))
	engineOpts := opts.Engine
	engineOpts.Reporter = missing

	return &Session{
		id:        id,
		opts:      opts,
		logger:    logger,
		started:   time.Now(),
		app:       app,
		classpath: chain,
		filter:    cf,
		missing:   missing,
		timer:     utils.NewStageTimer("analysis", utils.WithLogger(logger)),
		factory:   factory,
		graph:     graph,
		engine:    subtypes.New(graph, engineOpts),
	}
}

// ID returns the run ID of the session.
func (s *Session) ID() string { return s.id }

// Classpath returns the lookup chain, application code base first.
func (s *Session) Classpath() *codebase.Chain { return s.classpath }

// WithEngine runs fn while holding the session lock.
func (s *Session) WithEngine(fn func(*subtypes.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// applicationClassNames returns the sorted set of classes to load as
// application classes.
func (s *Session) applicationClassNames() []string {
	selected := make(map[string]struct{})
	usePrefixes := len(s.opts.ApplicationPrefixes) > 0
	for _, name := range s.app.ClassNames() {
		if !usePrefixes || s.filter.IsApplication(name) {
			selected[name] = struct{}{}
		}
	}
	for _, name := range s.opts.ApplicationClasses {
		selected[descriptor.ToSlashed(name)] = struct{}{}
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadApplicationClasses decodes the application classes in parallel and
// adds them to the graph in name order. Classes that fail to decode are
// recorded in the report and skipped. It returns the number of classes added.
func (s *Session) LoadApplicationClasses(ctx context.Context) (n int, err error) {
	ctx, span := telemetry.StartSpan(ctx, "analysis.load_application_classes")
	defer func() { telemetry.EndSpan(span, err) }()

	names := s.applicationClassNames()
	span.SetAttributes(attribute.Int("classes.selected", len(names)))
	s.logger.Info("Loading %d application classes with %d workers", len(names), s.opts.ScanWorkers)

	stop := s.timer.Start("decode")
	scanned := codebase.ScanWithProgress(ctx, s.classpath, names, s.opts.ScanWorkers, func(done, total int64) {
		s.logger.Debug("decoded %d/%d classes", done, total)
	})
	stop()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	stop = s.timer.Start("build_graph")
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range scanned {
		if sc.Err != nil {
			s.logger.Debug("skipping %s: %v", sc.Name, sc.Err)
			s.decodeErrors = append(s.decodeErrors, report.DecodeError{
				Class: sc.Name,
				Code:  apperrors.GetErrorCode(sc.Err),
				Error: sc.Err.Error(),
			})
			continue
		}
		s.engine.AddApplicationClass(sc.Info)
		n++
	}

	if len(s.decodeErrors) > 0 {
		s.logger.Warn("%d application classes could not be loaded", len(s.decodeErrors))
	}
	span.SetAttributes(
		attribute.Int("classes.loaded", n),
		attribute.Int("graph.vertices", s.graph.NumVertices()),
	)
	s.logger.Info("Graph built: %d vertices, %d edges", s.graph.NumVertices(), s.graph.NumEdges())
	return n, nil
}

// Report summarizes the session so far.
func (s *Session) Report() *report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &report.Report{
		RunID:          s.id,
		Version:        Version,
		StartedAt:      s.started,
		Duration:       time.Since(s.started),
		Classpath:      s.opts.Classpath,
		AuxClasspath:   s.opts.AuxClasspath,
		MissingClasses: []report.MissingClass{},
		DecodeErrors:   append([]report.DecodeError(nil), s.decodeErrors...),
		CacheStats:     s.engine.CacheStats(),
		Stages:         s.timer.Stages(),
	}

	c := &r.Counts
	for _, v := range s.graph.Vertices() {
		if v.Descriptor().IsArray() {
			continue
		}
		c.Vertices++
		for _, e := range v.Outgoing() {
			c.Edges++
			if e.Kind == hierarchy.InterfaceEdge {
				c.ImplementsEdges++
			} else {
				c.ExtendsEdges++
			}
		}
		if v.IsApplicationClass() {
			c.ApplicationClasses++
		}
		if v.IsInterface() {
			c.Interfaces++
		}

		state, ok := v.State().(hierarchy.Unresolved)
		if !ok {
			c.ResolvedClasses++
			continue
		}
		c.UnresolvedClasses++
		name := v.Descriptor().Name()
		mc := report.MissingClass{
			Name:         name,
			Category:     s.filter.Classify(name).String(),
			ViaInterface: state.ViaInterfaceEdge,
		}
		if state.Cause != nil {
			mc.Cause = state.Cause.Error()
		}
		r.MissingClasses = append(r.MissingClasses, mc)
	}
	sort.Slice(r.MissingClasses, func(i, j int) bool {
		return r.MissingClasses[i].Name < r.MissingClasses[j].Name
	})
	return r
}

// Close releases the code bases and logs the stage summary.
func (s *Session) Close() error {
	if n := s.missing.Count(); n > 0 {
		s.logger.Warn("%d classes could not be resolved; answers involving them may be unknown", n)
	}
	s.logger.Debug("%s", s.timer.Summary())
	if err := s.classpath.Close(); err != nil {
		return fmt.Errorf("failed to close classpath: %w", err)
	}
	return nil
}
