package report

import (
	"sort"

	"github.com/hierarchy-analysis/pkg/utils"
)

const (
	maxMissingListed = 20
	maxErrorsListed  = 5
)

// Format logs a human-readable summary of r.
func Format(r *Report, log utils.Logger) {
	if r == nil {
		return
	}
	log.Info("=== Hierarchy Analysis ===")
	log.Info("Run ID:       %s", r.RunID)
	log.Info("Duration:     %s", r.Duration)
	log.Info("Classpath:    %d entries (+%d auxiliary)", len(r.Classpath), len(r.AuxClasspath))
	log.Info("")

	c := r.Counts
	log.Info("=== Graph ===")
	log.Info("  Vertices:     %d (%d resolved, %d unresolved)", c.Vertices, c.ResolvedClasses, c.UnresolvedClasses)
	log.Info("  Edges:        %d (%d extends, %d implements)", c.Edges, c.ExtendsEdges, c.ImplementsEdges)
	log.Info("  Interfaces:   %d", c.Interfaces)
	log.Info("  Application:  %d", c.ApplicationClasses)
	log.Info("")

	if len(r.MissingClasses) > 0 {
		log.Info("=== Missing Classes (%d) ===", len(r.MissingClasses))
		byCat := r.MissingByCategory()
		cats := make([]string, 0, len(byCat))
		for cat := range byCat {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			log.Info("  %s: %d", cat, byCat[cat])
		}
		for i, m := range r.MissingClasses {
			if i >= maxMissingListed {
				log.Info("  ... and %d more", len(r.MissingClasses)-maxMissingListed)
				break
			}
			log.Info("  - %s", m.Name)
		}
		log.Info("")
	}

	if len(r.DecodeErrors) > 0 {
		log.Info("=== Decode Errors (%d) ===", len(r.DecodeErrors))
		for i, e := range r.DecodeErrors {
			if i >= maxErrorsListed {
				log.Info("  ... and %d more", len(r.DecodeErrors)-maxErrorsListed)
				break
			}
			log.Info("  - %s: %s", e.Class, truncateString(e.Error, 100))
		}
		log.Info("")
	}

	if len(r.Stages) > 0 {
		log.Info("=== Stages ===")
		for _, s := range r.Stages {
			log.Info("  %-10s %s", s.Name, s.Duration)
		}
		log.Info("")
	}

	for _, o := range r.Outputs {
		log.Info("Output %s: %s (%d bytes)", o.Name, o.Location, o.Size)
	}
}

// Summary returns the headline numbers of r for logs and API responses.
func Summary(r *Report) map[string]interface{} {
	if r == nil {
		return nil
	}
	return map[string]interface{}{
		"run_id":              r.RunID,
		"vertices":            r.Counts.Vertices,
		"edges":               r.Counts.Edges,
		"application_classes": r.Counts.ApplicationClasses,
		"missing_classes":     len(r.MissingClasses),
		"decode_errors":       len(r.DecodeErrors),
		"complete":            r.Complete(),
		"duration_ms":         r.Duration.Milliseconds(),
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
