package cmd

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hierarchy-analysis/internal/export"
	"github.com/hierarchy-analysis/pkg/telemetry"
)

var (
	exportClasspath classpathFlags
	exportClean     bool
	exportBatchSize int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inheritance graph",
}

var exportNeo4jCmd = &cobra.Command{
	Use:   "neo4j",
	Short: "Write the inheritance graph to Neo4j",
	Long: `Build the hierarchy and merge it into Neo4j.

Every class becomes a :JavaClass node keyed by name, carrying its package,
category and resolution state. Superclass links become :EXTENDS relationships
and interface links :IMPLEMENTS relationships. Connection settings come from
the neo4j section of the config or HIERARCHY_NEO4J_* variables.`,
	RunE: runExportNeo4j,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportNeo4jCmd)

	exportClasspath.register(exportNeo4jCmd, false)
	exportNeo4jCmd.Flags().BoolVar(&exportClean, "clean", false, "Delete existing :JavaClass nodes first")
	exportNeo4jCmd.Flags().IntVar(&exportBatchSize, "batch-size", 0, "Rows per statement (default neo4j.batch_size)")
}

func runExportNeo4j(cmd *cobra.Command, args []string) (err error) {
	log := GetLogger()
	exportClasspath.apply(cmd, &cfg.Analysis)
	if exportBatchSize > 0 {
		cfg.Neo4j.BatchSize = exportBatchSize
	}

	ctx, span := telemetry.StartSpan(cmd.Context(), "cli.export_neo4j",
		attribute.String("neo4j.uri", cfg.Neo4j.URI))
	defer func() { telemetry.EndSpan(span, err) }()

	store, err := openStorage(cfg, needsStorage(cfg.Analysis.Classpath, cfg.Analysis.AuxClasspath))
	if err != nil {
		return err
	}
	session, err := openSession(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer session.Close()

	runner, err := export.Dial(ctx, cfg.Neo4j)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	exporter := export.NewNeo4jExporter(runner,
		export.WithBatchSize(cfg.Neo4j.BatchSize),
		export.WithClean(exportClean),
		export.WithLogger(log),
	)
	stats, err := exporter.Export(ctx, session.Snapshot())
	if err != nil {
		return err
	}

	log.Info("Exported %d classes, %d extends and %d implements edges to %s",
		stats.Classes, stats.Extends, stats.Implements, cfg.Neo4j.URI)
	return nil
}
