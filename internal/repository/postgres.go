package repository

import (
	"database/sql"
	"strconv"
)

const postgresUpsertRun = `
	INSERT INTO analysis_runs (run_id, version, started_at, duration_ms, vertices, edges,
		resolved_classes, unresolved_classes, application_classes, decode_errors, complete, report)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (run_id) DO UPDATE SET
		version = EXCLUDED.version,
		started_at = EXCLUDED.started_at,
		duration_ms = EXCLUDED.duration_ms,
		vertices = EXCLUDED.vertices,
		edges = EXCLUDED.edges,
		resolved_classes = EXCLUDED.resolved_classes,
		unresolved_classes = EXCLUDED.unresolved_classes,
		application_classes = EXCLUDED.application_classes,
		decode_errors = EXCLUDED.decode_errors,
		complete = EXCLUDED.complete,
		report = EXCLUDED.report
`

// PostgresRunRepository implements RunRepository for PostgreSQL.
type PostgresRunRepository struct {
	sqlRunRepository
}

// NewPostgresRunRepository creates a new PostgresRunRepository.
func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{sqlRunRepository{
		db: db,
		dialect: sqlDialect{
			bind:      func(n int) string { return "$" + strconv.Itoa(n) },
			upsertRun: postgresUpsertRun,
		},
	}}
}
