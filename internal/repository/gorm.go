package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hierarchy-analysis/internal/report"
)

const missingClassBatchSize = 500

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// AutoMigrate creates or updates the tables used by the repository.
func (r *GormRunRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&AnalysisRun{}, &MissingClassRecord{}); err != nil {
		return dbError("migrate schema", err)
	}
	return nil
}

// SaveRun stores the run row and replaces its missing classes in one transaction.
func (r *GormRunRepository) SaveRun(ctx context.Context, rep *report.Report) error {
	row, err := newAnalysisRun(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	records := missingRecords(rep)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			DoUpdates: clause.AssignmentColumns(runUpdateColumns),
		}).Create(row).Error
		if err != nil {
			return err
		}

		if err := tx.Where("run_id = ?", rep.RunID).Delete(&MissingClassRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, missingClassBatchSize).Error
	})
	if err != nil {
		return dbError("save analysis run", err)
	}
	return nil
}

var runUpdateColumns = []string{
	"version", "started_at", "duration_ms", "vertices", "edges",
	"resolved_classes", "unresolved_classes", "application_classes",
	"decode_errors", "complete", "report",
}

// GetRun retrieves a run by its ID.
func (r *GormRunRepository) GetRun(ctx context.Context, runID string) (*Run, error) {
	var row AnalysisRun

	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
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
func (r *GormRunRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	var rows []AnalysisRun

	err := r.db.WithContext(ctx).
		Omit("report").
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, dbError("list analysis runs", err)
	}

	runs := make([]*Run, 0, len(rows))
	for i := range rows {
		run, err := rows[i].ToRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetMissingClasses returns the missing classes of a run.
func (r *GormRunRepository) GetMissingClasses(ctx context.Context, runID string) ([]report.MissingClass, error) {
	var records []MissingClassRecord

	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("name").
		Find(&records).Error
	if err != nil {
		return nil, dbError("get missing classes", err)
	}

	result := make([]report.MissingClass, len(records))
	for i := range records {
		result[i] = records[i].ToModel()
	}
	return result, nil
}

// MissingClassFrequency counts runs per missing class.
func (r *GormRunRepository) MissingClassFrequency(ctx context.Context, limit int) ([]MissingClassCount, error) {
	var counts []MissingClassCount

	err := r.db.WithContext(ctx).
		Model(&MissingClassRecord{}).
		Select("name, COUNT(DISTINCT run_id) AS runs").
		Group("name").
		Order("runs DESC, name").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, dbError("count missing classes", err)
	}
	return counts, nil
}
