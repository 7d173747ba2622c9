package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hierarchy-analysis/pkg/config"
	"github.com/hierarchy-analysis/pkg/telemetry"
	"github.com/hierarchy-analysis/pkg/utils"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	verbose  bool
	logLevel string

	cfg      *config.Config
	logger   utils.Logger
	traceCfg *telemetry.Config
	shutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hierarchy-analysis",
	Short: "Class hierarchy analysis for JVM class files",
	Long: `hierarchy-analysis builds the inheritance graph of a JVM classpath and
answers subtype queries against it.

Class files are read from directories, jar/zip archives or object storage.
Classes that are referenced but cannot be found are reported as missing, and
queries whose answer depends on a missing class fail instead of guessing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		level := utils.ParseLogLevel(cfg.Log.Level)
		if logLevel != "" {
			level = utils.ParseLogLevel(logLevel)
		}
		if verbose {
			level = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			fileLogger, err := utils.NewFileLogger(level, cfg.Log.OutputPath)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			logger = fileLogger
		} else {
			logger = utils.NewDefaultLogger(level, os.Stderr)
		}

		traceCfg = telemetry.LoadFromEnv()
		traceCfg.ServiceVersion = Version
		shutdown, err = telemetry.Init(cmd.Context(), traceCfg)
		if err != nil {
			logger.Warn("Tracing disabled: %v", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown != nil {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush traces: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default ./config.yaml, ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	binName := BinName()
	rootCmd.Example = `  # Build the hierarchy of an application against the JDK
  ` + binName + ` analyze --classpath ./build/classes --aux-classpath $JAVA_HOME/jmods/rt.jar --app-prefix com/acme/

  # Ask a single subtype question
  ` + binName + ` query subtype --classpath app.jar com.acme.Impl java.io.Serializable

  # Export the graph to Neo4j
  ` + binName + ` export neo4j --classpath app.jar

  # Serve queries over HTTP
  ` + binName + ` serve --classpath app.jar --addr :8080`
}

// loadEnvFile loads path into the environment. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetLogger returns the configured logger
func GetLogger() utils.Logger {
	if logger == nil {
		return &utils.NullLogger{}
	}
	return logger
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
