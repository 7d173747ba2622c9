package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hierarchy-analysis/internal/analysis"
	"github.com/hierarchy-analysis/internal/codebase"
	"github.com/hierarchy-analysis/internal/storage"
	"github.com/hierarchy-analysis/pkg/config"
)

// classpathFlags are shared by every command that builds a hierarchy.
// Set flags override the config file.
type classpathFlags struct {
	classpath    []string
	auxClasspath []string
	appPrefixes  []string
	appClasses   []string
	noCache      bool
}

func (f *classpathFlags) register(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	flags.StringSliceVar(&f.classpath, "classpath", nil, "Application classpath entries: directories, jars or storage:<prefix>")
	flags.StringSliceVar(&f.auxClasspath, "aux-classpath", nil, "Auxiliary classpath entries searched after the application")
	flags.StringSliceVar(&f.appPrefixes, "app-prefix", nil, "Package prefixes of application classes, e.g. com/acme/")
	flags.StringSliceVar(&f.appClasses, "app-class", nil, "Explicit application classes")
	flags.BoolVar(&f.noCache, "no-cache", false, "Disable the subtype query caches")
}

func (f *classpathFlags) apply(cmd *cobra.Command, a *config.AnalysisConfig) {
	if cmd.Flags().Changed("classpath") {
		a.Classpath = f.classpath
	}
	if cmd.Flags().Changed("aux-classpath") {
		a.AuxClasspath = f.auxClasspath
	}
	if cmd.Flags().Changed("app-prefix") {
		a.ApplicationPrefixes = f.appPrefixes
	}
	if cmd.Flags().Changed("app-class") {
		a.ApplicationClasses = f.appClasses
	}
	if f.noCache {
		a.DisableCache = true
	}
}

// needsStorage reports whether any entry lives in object storage.
func needsStorage(entries ...[]string) bool {
	for _, list := range entries {
		for _, e := range list {
			if strings.HasPrefix(e, codebase.StoragePrefix) {
				return true
			}
		}
	}
	return false
}

// openSession opens the configured classpath and loads the application
// classes into a new session. The caller closes the session.
func openSession(ctx context.Context, c *config.Config, store storage.Storage) (*analysis.Session, error) {
	a := c.Analysis
	if len(a.Classpath) == 0 {
		return nil, fmt.Errorf("no classpath given: use --classpath or analysis.classpath")
	}

	log := GetLogger()
	opts := codebase.Options{Storage: store, Workers: a.ScanWorkers}

	app, err := codebase.OpenClasspath(ctx, a.Classpath, opts)
	if err != nil {
		return nil, err
	}
	var aux codebase.CodeBase
	if len(a.AuxClasspath) > 0 {
		auxChain, err := codebase.OpenClasspath(ctx, a.AuxClasspath, opts)
		if err != nil {
			app.Close()
			return nil, err
		}
		aux = auxChain
	}

	session := analysis.NewSession(app, aux, analysis.OptionsFromConfig(a, log))
	n, err := session.LoadApplicationClasses(ctx)
	if err != nil {
		session.Close()
		return nil, err
	}
	log.Info("Loaded %d application classes from %s (run %s)", n, session.Classpath().Name(), session.ID())
	return session, nil
}

// openStorage creates the configured object storage when required.
func openStorage(c *config.Config, required bool) (storage.Storage, error) {
	if !required {
		return nil, nil
	}
	store, err := storage.NewStorage(&c.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	return store, nil
}
