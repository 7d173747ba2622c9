package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hierarchy-analysis/internal/report"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to ":memory:" is a fresh database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, NewGormRunRepository(db).AutoMigrate(context.Background()))
	return db
}

func sampleReport(runID string, started time.Time, missing ...string) *report.Report {
	r := &report.Report{
		RunID:     runID,
		Version:   "1.0.0",
		StartedAt: started,
		Duration:  2 * time.Second,
		Classpath: []string{"app.jar"},
		Counts: report.Counts{
			Vertices: 10, Edges: 12, ExtendsEdges: 9, ImplementsEdges: 3,
			ResolvedClasses: 10 - len(missing), UnresolvedClasses: len(missing), ApplicationClasses: 4,
		},
		MissingClasses: []report.MissingClass{},
	}
	for _, name := range missing {
		r.MissingClasses = append(r.MissingClasses, report.MissingClass{Name: name, Category: "library", Cause: "not found"})
	}
	return r
}

func TestGormRunRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)
	ctx := context.Background()

	t.Run("GetRun_NotFound", func(t *testing.T) {
		run, err := repo.GetRun(ctx, "absent")
		assert.Nil(t, run)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRunNotFound)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("SaveRun_Success", func(t *testing.T) {
		started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SaveRun(ctx, sampleReport("run-1", started, "org/lib/B", "org/lib/A")))

		run, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", run.RunID)
		assert.Equal(t, "1.0.0", run.Version)
		assert.Equal(t, 2*time.Second, run.Duration)
		assert.False(t, run.Complete)
		require.NotNil(t, run.Report)
		assert.Equal(t, 3, run.Counts.ImplementsEdges)
		assert.Equal(t, []string{"org/lib/A", "org/lib/B"}, run.Report.MissingNames())

		missing, err := repo.GetMissingClasses(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, missing, 2)
		assert.Equal(t, "org/lib/A", missing[0].Name)
		assert.Equal(t, "library", missing[0].Category)
	})

	t.Run("SaveRun_ReplacesExisting", func(t *testing.T) {
		started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SaveRun(ctx, sampleReport("run-1", started)))

		run, err := repo.GetRun(ctx, "run-1")
		require.NoError(t, err)
		assert.True(t, run.Complete)

		missing, err := repo.GetMissingClasses(ctx, "run-1")
		require.NoError(t, err)
		assert.Empty(t, missing)

		var count int64
		require.NoError(t, db.Model(&AnalysisRun{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormRunRepository_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "middle", "new"} {
		require.NoError(t, repo.SaveRun(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, "middle", runs[1].RunID)
	assert.Nil(t, runs[0].Report)
	assert.Equal(t, 10, runs[0].Counts.Vertices)
}

func TestGormRunRepository_MissingClassFrequency(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.SaveRun(ctx, sampleReport("r1", now, "a/Gone", "b/Lost")))
	require.NoError(t, repo.SaveRun(ctx, sampleReport("r2", now, "b/Lost")))
	require.NoError(t, repo.SaveRun(ctx, sampleReport("r3", now, "b/Lost", "c/Away")))

	counts, err := repo.MissingClassFrequency(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []MissingClassCount{
		{Name: "b/Lost", Runs: 3},
		{Name: "a/Gone", Runs: 1},
	}, counts)
}

func TestNewRepositories(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	require.NotNil(t, repos)
	assert.NotNil(t, repos.Runs)
	assert.Equal(t, db, repos.GormDB())
	assert.NotNil(t, repos.DB())
	assert.NoError(t, repos.HealthCheck(context.Background()))
	assert.NoError(t, repos.Close())
}
