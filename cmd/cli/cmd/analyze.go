package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hierarchy-analysis/internal/export"
	"github.com/hierarchy-analysis/internal/report"
	"github.com/hierarchy-analysis/internal/repository"
	"github.com/hierarchy-analysis/internal/storage"
	"github.com/hierarchy-analysis/pkg/compression"
	"github.com/hierarchy-analysis/pkg/telemetry"
	"github.com/hierarchy-analysis/pkg/utils"
	"github.com/hierarchy-analysis/pkg/writer"
)

var (
	// Analyze command flags
	analyzeClasspath classpathFlags
	outputDir        string
	compressionName  string
	writeGraph       bool
	upload           bool
	persist          bool
	strict           bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build the class hierarchy and write a report",
	Long: `Build the inheritance graph of the application classes and write a run report.

The analyze command:
  - Decodes every application class on the classpath
  - Resolves supertypes through the application and auxiliary classpath
  - Writes a JSON report (optionally gzip or zstd compressed)
  - Optionally writes the graph itself, uploads both files to object storage
    and stores the run in the database

Referenced classes that cannot be found are listed as missing. Use --strict to
fail the run when any class is missing or fails to decode.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	binName := BinName()
	analyzeCmd.Example = `  # Analyze a build directory with the JDK on the auxiliary classpath
  ` + binName + ` analyze --classpath ./build/classes --aux-classpath ./jdk/rt.jar

  # Only classes under com/acme/ are application classes
  ` + binName + ` analyze --classpath app.jar --app-prefix com/acme/

  # Write a zstd compressed report and graph, upload them and store the run
  ` + binName + ` analyze --classpath app.jar --compression zstd --graph --upload --persist`

	analyzeClasspath.register(analyzeCmd, false)
	analyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default output.dir)")
	analyzeCmd.Flags().StringVar(&compressionName, "compression", "", "Report compression: none, gzip, zstd (default output.compression)")
	analyzeCmd.Flags().BoolVar(&writeGraph, "graph", false, "Also write the inheritance graph")
	analyzeCmd.Flags().BoolVar(&upload, "upload", false, "Upload outputs to object storage")
	analyzeCmd.Flags().BoolVar(&persist, "persist", false, "Store the run in the database")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "Fail when classes are missing or undecodable")
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	log := GetLogger()
	analyzeClasspath.apply(cmd, &cfg.Analysis)
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if compressionName != "" {
		cfg.Output.Compression = compressionName
	}
	if upload {
		cfg.Output.Upload = true
	}
	if persist {
		cfg.Database.Enabled = true
	}

	ctype, err := compression.ParseType(cfg.Output.Compression)
	if err != nil {
		return err
	}
	if err := cfg.EnsureOutputDir(); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, span := telemetry.StartSpan(cmd.Context(), "cli.analyze",
		attribute.Int("classpath.entries", len(cfg.Analysis.Classpath)))
	defer func() { telemetry.EndSpan(span, err) }()

	store, err := openStorage(cfg, cfg.Output.Upload || needsStorage(cfg.Analysis.Classpath, cfg.Analysis.AuxClasspath))
	if err != nil {
		return err
	}

	session, err := openSession(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer session.Close()

	var outputs []string
	if writeGraph {
		path := filepath.Join(cfg.Output.Dir, session.ID()+"-graph.json"+ctype.Extension())
		res, err := writer.NewCompressedWriter[*export.Snapshot](ctype, compression.LevelDefault).WriteToFile(session.Snapshot(), path)
		if err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		log.Debug("Graph: %d bytes JSON, %d bytes stored", res.JSONSize, res.CompressedSize)
		outputs = append(outputs, path)
	}

	r := session.Report()
	reportPath := filepath.Join(cfg.Output.Dir, session.ID()+"-report.json"+ctype.Extension())
	for _, path := range outputs {
		r.AddOutput("graph", path, fileSize(path))
	}
	res, err := writer.NewCompressedWriter[*report.Report](ctype, compression.LevelDefault).WriteToFile(r, reportPath)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	r.AddOutput("report", reportPath, res.CompressedSize)
	outputs = append(outputs, reportPath)

	if cfg.Output.Upload {
		if err := uploadOutputs(ctx, store, session.ID(), outputs, log); err != nil {
			return err
		}
	}

	if cfg.Database.Enabled {
		if err := persistRun(ctx, r); err != nil {
			return err
		}
		log.Info("Stored run %s", r.RunID)
	}

	report.Format(r, log)

	if strict && !r.Complete() {
		return fmt.Errorf("%d missing classes, %d decode errors", len(r.MissingClasses), len(r.DecodeErrors))
	}
	return nil
}

func uploadOutputs(ctx context.Context, store storage.Storage, runID string, paths []string, log utils.Logger) error {
	for _, path := range paths {
		key := storage.JoinKey(cfg.Storage.Prefix, runID, filepath.Base(path))
		if err := store.UploadFile(ctx, key, path); err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		log.Info("Uploaded %s", store.GetURL(key))
	}
	return nil
}

func persistRun(ctx context.Context, r *report.Report) error {
	repos, err := repository.Open(ctx, cfg.Database, repository.WithTracing(traceCfg != nil && traceCfg.Enabled))
	if err != nil {
		return err
	}
	defer repos.Close()
	return repos.Runs.SaveRun(ctx, r)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
