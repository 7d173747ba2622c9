package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hierarchy-analysis/pkg/config"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
	"github.com/hierarchy-analysis/pkg/telemetry"
	"github.com/hierarchy-analysis/pkg/utils"
)

// CypherRunner executes one Cypher statement.
type CypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
	Close(ctx context.Context) error
}

// driverRunner runs statements through a Neo4j driver.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

// Dial connects to the Neo4j server described by cfg and verifies the
// connection.
func Dial(ctx context.Context, cfg config.Neo4jConfig) (CypherRunner, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to create neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.Wrap(apperrors.CodeExportError, "failed to connect to neo4j at "+cfg.URI, err)
	}
	return &driverRunner{driver: driver, database: cfg.Database}, nil
}

func (r *driverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if r.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(r.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

func (r *driverRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

const (
	cypherCleanEdges   = "MATCH (:JavaClass)-[r:EXTENDS|IMPLEMENTS]->(:JavaClass) DELETE r"
	cypherCleanClasses = "MATCH (n:JavaClass) DETACH DELETE n"

	cypherUpsertClasses = `UNWIND $batch AS row
		 MERGE (n:JavaClass {name: row.name})
		 SET n.dotted_name = row.dotted, n.package = row.pkg, n.resolved = row.resolved,
		     n.interface = row.interface, n.application = row.application,
		     n.category = row.category, n.missing_cause = row.cause, n.run_id = $run_id`

	// Relationship types cannot be parameters, hence one statement per kind.
	cypherUpsertEdges = `UNWIND $batch AS row
		 MATCH (s:JavaClass {name: row.source}), (t:JavaClass {name: row.target})
		 MERGE (s)-[:%s]->(t)`
)

var cypherIndexes = []string{
	"CREATE CONSTRAINT java_class_name IF NOT EXISTS FOR (n:JavaClass) REQUIRE n.name IS UNIQUE",
	"CREATE INDEX java_class_package IF NOT EXISTS FOR (n:JavaClass) ON (n.package)",
}

// ExportStats counts what an export wrote.
type ExportStats struct {
	Classes    int `json:"classes"`
	Extends    int `json:"extends"`
	Implements int `json:"implements"`
	Batches    int `json:"batches"`
}

// Neo4jExporter loads snapshots into Neo4j with batched UNWIND statements.
type Neo4jExporter struct {
	runner    CypherRunner
	batchSize int
	clean     bool
	logger    utils.Logger
}

// ExporterOption configures a Neo4jExporter.
type ExporterOption func(*Neo4jExporter)

// WithBatchSize sets the number of rows per statement.
func WithBatchSize(n int) ExporterOption {
	return func(e *Neo4jExporter) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithClean removes previously exported classes before loading.
func WithClean(clean bool) ExporterOption {
	return func(e *Neo4jExporter) { e.clean = clean }
}

// WithLogger sets the exporter logger.
func WithLogger(logger utils.Logger) ExporterOption {
	return func(e *Neo4jExporter) { e.logger = logger }
}

// NewNeo4jExporter creates an exporter over runner.
func NewNeo4jExporter(runner CypherRunner, opts ...ExporterOption) *Neo4jExporter {
	e := &Neo4jExporter{runner: runner, batchSize: 500, logger: &utils.NullLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes snap. Classes are merged by name, so exporting the same
// graph twice is idempotent.
func (e *Neo4jExporter) Export(ctx context.Context, snap *Snapshot) (stats *ExportStats, err error) {
	ctx, span := telemetry.StartSpan(ctx, "export.neo4j",
		attribute.Int("graph.classes", len(snap.Classes)),
		attribute.Int("graph.edges", len(snap.Edges)))
	defer func() { telemetry.EndSpan(span, err) }()

	stats = &ExportStats{}
	fail := func(step string, err error) (*ExportStats, error) {
		return stats, apperrors.Wrap(apperrors.CodeExportError, "neo4j export failed while "+step, err)
	}

	if e.clean {
		e.logger.Info("Cleaning previously exported classes...")
		for _, q := range []string{cypherCleanEdges, cypherCleanClasses} {
			if err := e.runner.Run(ctx, q, nil); err != nil {
				return fail("cleaning", err)
			}
		}
	}

	e.logger.Debug("Creating indexes...")
	for _, q := range cypherIndexes {
		if err := e.runner.Run(ctx, q, nil); err != nil {
			return fail("creating indexes", err)
		}
	}

	e.logger.Info("Loading %d classes...", len(snap.Classes))
	rows := make([]map[string]any, len(snap.Classes))
	for i, c := range snap.Classes {
		rows[i] = map[string]any{
			"name":        c.Name,
			"dotted":      c.DottedName,
			"pkg":         c.Package,
			"resolved":    c.Resolved,
			"interface":   c.Interface,
			"application": c.Application,
			"category":    c.Category,
			"cause":       c.MissingCause,
		}
	}
	if err := e.runBatches(ctx, cypherUpsertClasses, rows, map[string]any{"run_id": snap.RunID}, stats); err != nil {
		return fail("loading classes", err)
	}
	stats.Classes = len(rows)

	for _, kind := range []string{"EXTENDS", "IMPLEMENTS"} {
		edges := snap.EdgesOfKind(kind)
		e.logger.Info("Loading %d %s edges...", len(edges), kind)
		rows := make([]map[string]any, len(edges))
		for i, edge := range edges {
			rows[i] = map[string]any{"source": edge.Source, "target": edge.Target}
		}
		if err := e.runBatches(ctx, fmt.Sprintf(cypherUpsertEdges, kind), rows, nil, stats); err != nil {
			return fail("loading "+kind+" edges", err)
		}
		if kind == "EXTENDS" {
			stats.Extends = len(rows)
		} else {
			stats.Implements = len(rows)
		}
	}

	return stats, nil
}

func (e *Neo4jExporter) runBatches(ctx context.Context, cypher string, rows []map[string]any, extra map[string]any, stats *ExportStats) error {
	for start := 0; start < len(rows); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+e.batchSize, len(rows))
		params := map[string]any{"batch": rows[start:end]}
		for k, v := range extra {
			params[k] = v
		}
		if err := e.runner.Run(ctx, cypher, params); err != nil {
			return err
		}
		stats.Batches++
	}
	return nil
}
