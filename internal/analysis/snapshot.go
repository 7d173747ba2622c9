package analysis

import "github.com/hierarchy-analysis/internal/export"

// Snapshot copies the current inheritance graph for export, classifying
// each class by the session's package filter.
func (s *Session) Snapshot() *export.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := export.NewSnapshot(s.graph, func(name string) string {
		return s.filter.Classify(name).String()
	})
	snap.RunID = s.id
	return snap
}
