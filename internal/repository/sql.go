package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hierarchy-analysis/internal/report"
)

// sqlDialect holds the statements that differ between database engines.
type sqlDialect struct {
	// bind returns the placeholder for the n-th argument, starting at 1.
	bind      func(n int) string
	upsertRun string
}

// sqlRunRepository implements RunRepository on database/sql.
type sqlRunRepository struct {
	db      *sql.DB
	dialect sqlDialect
}

const runColumns = `run_id, version, started_at, duration_ms, vertices, edges,
	resolved_classes, unresolved_classes, application_classes, decode_errors, complete`

// rebind replaces each '?' in query with the dialect's placeholder.
func (r *sqlRunRepository) rebind(query string) string {
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString(r.dialect.bind(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SaveRun stores the run and replaces its missing classes in one transaction.
func (r *sqlRunRepository) SaveRun(ctx context.Context, rep *report.Report) error {
	row, err := newAnalysisRun(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.dialect.upsertRun,
		row.RunID, row.Version, row.StartedAt, row.DurationMs, row.Vertices, row.Edges,
		row.ResolvedClasses, row.UnresolvedClasses, row.ApplicationClasses,
		row.DecodeErrors, row.Complete, []byte(row.Report),
	)
	if err != nil {
		return dbError("save analysis run", err)
	}

	if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM missing_classes WHERE run_id = ?"), rep.RunID); err != nil {
		return dbError("clear missing classes", err)
	}

	if len(rep.MissingClasses) > 0 {
		stmt, err := tx.PrepareContext(ctx, r.rebind(
			"INSERT INTO missing_classes (run_id, name, category, via_interface, cause) VALUES (?, ?, ?, ?, ?)"))
		if err != nil {
			return dbError("prepare missing class insert", err)
		}
		defer stmt.Close()

		for _, m := range rep.MissingClasses {
			if _, err := stmt.ExecContext(ctx, rep.RunID, m.Name, m.Category, m.ViaInterface, m.Cause); err != nil {
				return dbError("save missing class "+m.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError("commit analysis run", err)
	}
	return nil
}

// GetRun retrieves a run by its ID, including the report.
func (r *sqlRunRepository) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := r.rebind(`SELECT ` + runColumns + `, report FROM analysis_runs WHERE run_id = ?`)

	var row AnalysisRun
	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&row.RunID, &row.Version, &row.StartedAt, &row.DurationMs, &row.Vertices, &row.Edges,
		&row.ResolvedClasses, &row.UnresolvedClasses, &row.ApplicationClasses,
		&row.DecodeErrors, &row.Complete, &row.Report,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, runNotFound(runID)
		}
		return nil, dbError("get analysis run", err)
	}

	run, err := row.ToRun()
	if err != nil {
		return nil, fmt.Errorf("failed to decode report of run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *sqlRunRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := r.rebind(`SELECT ` + runColumns + ` FROM analysis_runs ORDER BY started_at DESC LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbError("list analysis runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var row AnalysisRun
		if err := rows.Scan(
			&row.RunID, &row.Version, &row.StartedAt, &row.DurationMs, &row.Vertices, &row.Edges,
			&row.ResolvedClasses, &row.UnresolvedClasses, &row.ApplicationClasses,
			&row.DecodeErrors, &row.Complete,
		); err != nil {
			return nil, dbError("scan analysis run", err)
		}
		run, err := row.ToRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list analysis runs", err)
	}
	return runs, nil
}

// GetMissingClasses returns the missing classes of a run.
func (r *sqlRunRepository) GetMissingClasses(ctx context.Context, runID string) ([]report.MissingClass, error) {
	query := r.rebind(`
		SELECT name, category, via_interface, COALESCE(cause, '')
		FROM missing_classes
		WHERE run_id = ?
		ORDER BY name
	`)

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, dbError("get missing classes", err)
	}
	defer rows.Close()

	var result []report.MissingClass
	for rows.Next() {
		var m report.MissingClass
		if err := rows.Scan(&m.Name, &m.Category, &m.ViaInterface, &m.Cause); err != nil {
			return nil, dbError("scan missing class", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("get missing classes", err)
	}
	return result, nil
}

// MissingClassFrequency counts runs per missing class.
func (r *sqlRunRepository) MissingClassFrequency(ctx context.Context, limit int) ([]MissingClassCount, error) {
	query := r.rebind(`
		SELECT name, COUNT(DISTINCT run_id) AS runs
		FROM missing_classes
		GROUP BY name
		ORDER BY runs DESC, name
		LIMIT ?
	`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbError("count missing classes", err)
	}
	defer rows.Close()

	var counts []MissingClassCount
	for rows.Next() {
		var c MissingClassCount
		if err := rows.Scan(&c.Name, &c.Runs); err != nil {
			return nil, dbError("scan missing class count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("count missing classes", err)
	}
	return counts, nil
}
