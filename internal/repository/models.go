package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/hierarchy-analysis/internal/report"
)

// AnalysisRun represents the analysis_runs table.
type AnalysisRun struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID              string    `gorm:"column:run_id;type:varchar(64);uniqueIndex"`
	Version            string    `gorm:"column:version;type:varchar(32)"`
	StartedAt          time.Time `gorm:"column:started_at;index"`
	DurationMs         int64     `gorm:"column:duration_ms"`
	Vertices           int       `gorm:"column:vertices"`
	Edges              int       `gorm:"column:edges"`
	ResolvedClasses    int       `gorm:"column:resolved_classes"`
	UnresolvedClasses  int       `gorm:"column:unresolved_classes"`
	ApplicationClasses int       `gorm:"column:application_classes"`
	DecodeErrors       int       `gorm:"column:decode_errors"`
	Complete           bool      `gorm:"column:complete"`
	Report             JSONField `gorm:"column:report;type:json"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for AnalysisRun.
func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// newAnalysisRun flattens a report into a row.
func newAnalysisRun(r *report.Report) (*AnalysisRun, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return &AnalysisRun{
		RunID:              r.RunID,
		Version:            r.Version,
		StartedAt:          r.StartedAt,
		DurationMs:         r.Duration.Milliseconds(),
		Vertices:           r.Counts.Vertices,
		Edges:              r.Counts.Edges,
		ResolvedClasses:    r.Counts.ResolvedClasses,
		UnresolvedClasses:  r.Counts.UnresolvedClasses,
		ApplicationClasses: r.Counts.ApplicationClasses,
		DecodeErrors:       len(r.DecodeErrors),
		Complete:           r.Complete(),
		Report:             data,
	}, nil
}

// ToRun converts AnalysisRun to Run. The report is decoded when present.
func (a *AnalysisRun) ToRun() (*Run, error) {
	run := &Run{
		RunID:     a.RunID,
		Version:   a.Version,
		StartedAt: a.StartedAt,
		Duration:  time.Duration(a.DurationMs) * time.Millisecond,
		Counts: report.Counts{
			Vertices:           a.Vertices,
			Edges:              a.Edges,
			ResolvedClasses:    a.ResolvedClasses,
			UnresolvedClasses:  a.UnresolvedClasses,
			ApplicationClasses: a.ApplicationClasses,
		},
		DecodeErrors: a.DecodeErrors,
		Complete:     a.Complete,
	}

	if a.Report != nil {
		run.Report = &report.Report{}
		if err := json.Unmarshal(a.Report, run.Report); err != nil {
			return nil, err
		}
		run.Counts = run.Report.Counts
	}

	return run, nil
}

// MissingClassRecord represents the missing_classes table.
type MissingClassRecord struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID        string `gorm:"column:run_id;type:varchar(64);index"`
	Name         string `gorm:"column:name;type:varchar(512);index"`
	Category     string `gorm:"column:category;type:varchar(32)"`
	ViaInterface bool   `gorm:"column:via_interface"`
	Cause        string `gorm:"column:cause;type:text"`
}

// TableName returns the table name for MissingClassRecord.
func (MissingClassRecord) TableName() string {
	return "missing_classes"
}

// ToModel converts MissingClassRecord to report.MissingClass.
func (m *MissingClassRecord) ToModel() report.MissingClass {
	return report.MissingClass{
		Name:         m.Name,
		Category:     m.Category,
		ViaInterface: m.ViaInterface,
		Cause:        m.Cause,
	}
}

func missingRecords(r *report.Report) []MissingClassRecord {
	records := make([]MissingClassRecord, len(r.MissingClasses))
	for i, m := range r.MissingClasses {
		records[i] = MissingClassRecord{
			RunID:        r.RunID,
			Name:         m.Name,
			Category:     m.Category,
			ViaInterface: m.ViaInterface,
			Cause:        m.Cause,
		}
	}
	return records
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
