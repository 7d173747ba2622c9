package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hierarchy-analysis/internal/repository"
	"github.com/hierarchy-analysis/internal/server"
)

var (
	// Serve command flags
	serveClasspath classpathFlags
	addr           string
	withRuns       bool
	pprofEnabled   bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve subtype queries over HTTP",
	Long: `Build the hierarchy once and answer queries over a JSON HTTP API.

Endpoints:
  GET /healthz
  GET /api/subtype?sub=&super=
  GET /api/meet?a=&b=
  GET /api/subtypes?class=&direct=
  GET /api/supertypes?class=
  GET /api/missing
  GET /api/report
  GET /api/runs, /api/runs/{id}   (with --runs)

A query that depends on a missing class answers 409 with the missing names.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Serve queries for an application jar
  ` + binName + ` serve --classpath app.jar --aux-classpath rt.jar

  # Listen elsewhere and expose stored runs and runtime profiles
  ` + binName + ` serve --classpath app.jar --addr :9090 --runs --pprof`

	serveClasspath.register(serveCmd, false)
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&withRuns, "runs", false, "Serve stored runs from the database")
	serveCmd.Flags().BoolVar(&pprofEnabled, "pprof", false, "Mount /debug/pprof/")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	serveClasspath.apply(cmd, &cfg.Analysis)
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if pprofEnabled {
		cfg.Server.Pprof = true
	}

	store, err := openStorage(cfg, needsStorage(cfg.Analysis.Classpath, cfg.Analysis.AuxClasspath))
	if err != nil {
		return err
	}
	session, err := openSession(cmd.Context(), cfg, store)
	if err != nil {
		return err
	}
	defer session.Close()

	opts := []server.Option{server.WithProfiling(cfg.Server.Pprof)}
	if withRuns {
		cfg.Database.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
		repos, err := repository.Open(cmd.Context(), cfg.Database, repository.WithTracing(traceCfg != nil && traceCfg.Enabled))
		if err != nil {
			return err
		}
		defer repos.Close()
		opts = append(opts, server.WithRuns(repos.Runs))
	}

	srv := server.NewServer(session, cfg.Server.Addr, log, opts...)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		log.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("Shutdown: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
