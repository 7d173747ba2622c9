package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hierarchy-analysis/internal/report"
	"github.com/hierarchy-analysis/internal/repository"
)

// MockRunRepository is a mock implementation of the RunRepository interface.
type MockRunRepository struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method.
func (m *MockRunRepository) SaveRun(ctx context.Context, r *report.Report) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// GetRun mocks the GetRun method.
func (m *MockRunRepository) GetRun(ctx context.Context, runID string) (*repository.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Run), args.Error(1)
}

// ListRuns mocks the ListRuns method.
func (m *MockRunRepository) ListRuns(ctx context.Context, limit int) ([]*repository.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Run), args.Error(1)
}

// GetMissingClasses mocks the GetMissingClasses method.
func (m *MockRunRepository) GetMissingClasses(ctx context.Context, runID string) ([]report.MissingClass, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.MissingClass), args.Error(1)
}

// MissingClassFrequency mocks the MissingClassFrequency method.
func (m *MockRunRepository) MissingClassFrequency(ctx context.Context, limit int) ([]repository.MissingClassCount, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.MissingClassCount), args.Error(1)
}

// ExpectGetRun sets up an expectation for GetRun.
func (m *MockRunRepository) ExpectGetRun(runID string, run *repository.Run, err error) *mock.Call {
	return m.On("GetRun", mock.Anything, runID).Return(run, err)
}

// ExpectListRuns sets up an expectation for ListRuns.
func (m *MockRunRepository) ExpectListRuns(limit int, runs []*repository.Run, err error) *mock.Call {
	return m.On("ListRuns", mock.Anything, limit).Return(runs, err)
}
