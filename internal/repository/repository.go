// Package repository persists analysis runs and the classes they could not
// resolve, so missing dependencies can be tracked across builds.
package repository

import (
	"context"
	"time"

	"github.com/hierarchy-analysis/internal/report"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = apperrors.New(apperrors.CodeNotFound, "analysis run not found")

// RunRepository defines the database operations on analysis runs.
type RunRepository interface {
	// SaveRun stores a report. Saving the same run ID again replaces it.
	SaveRun(ctx context.Context, r *report.Report) error

	// GetRun retrieves a run by its ID, including the full report.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns the most recent runs first, without their reports.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// GetMissingClasses returns the missing classes of a run, sorted by name.
	GetMissingClasses(ctx context.Context, runID string) ([]report.MissingClass, error)

	// MissingClassFrequency counts in how many runs each class was missing,
	// most frequent first.
	MissingClassFrequency(ctx context.Context, limit int) ([]MissingClassCount, error)
}

// Run is one stored analysis run.
type Run struct {
	RunID        string         `json:"run_id"`
	Version      string         `json:"version"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration_ns"`
	Counts       report.Counts  `json:"counts"`
	DecodeErrors int            `json:"decode_errors"`
	Complete     bool           `json:"complete"`
	Report       *report.Report `json:"report,omitempty"`
}

// MissingClassCount is the number of runs a class was missing from.
type MissingClassCount struct {
	Name string `json:"name"`
	Runs int    `json:"runs"`
}

func runNotFound(runID string) error {
	return apperrors.Wrap(apperrors.CodeNotFound, "analysis run not found: "+runID, ErrRunNotFound)
}

func dbError(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeDatabaseError, "failed to "+op, err)
}
