package repository

import (
	"database/sql"
)

const mysqlUpsertRun = `
	INSERT INTO analysis_runs (run_id, version, started_at, duration_ms, vertices, edges,
		resolved_classes, unresolved_classes, application_classes, decode_errors, complete, report)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		version = VALUES(version),
		started_at = VALUES(started_at),
		duration_ms = VALUES(duration_ms),
		vertices = VALUES(vertices),
		edges = VALUES(edges),
		resolved_classes = VALUES(resolved_classes),
		unresolved_classes = VALUES(unresolved_classes),
		application_classes = VALUES(application_classes),
		decode_errors = VALUES(decode_errors),
		complete = VALUES(complete),
		report = VALUES(report)
`

// MySQLRunRepository implements RunRepository for MySQL.
type MySQLRunRepository struct {
	sqlRunRepository
}

// NewMySQLRunRepository creates a new MySQLRunRepository.
func NewMySQLRunRepository(db *sql.DB) *MySQLRunRepository {
	return &MySQLRunRepository{sqlRunRepository{
		db: db,
		dialect: sqlDialect{
			bind:      func(int) string { return "?" },
			upsertRun: mysqlUpsertRun,
		},
	}}
}
