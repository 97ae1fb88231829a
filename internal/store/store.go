// Package store persists a bounded history of comparison runs so that match
// rates and quality scores can be trended across exports.
package store

import (
	"context"
	"time"

	"github.com/sells-group/integrity-cli/internal/model"
)

// DefaultHistoryLimit is how many runs a store retains when no limit is
// configured. Older runs are pruned on append.
const DefaultHistoryLimit = 10

// RunRecord is one persisted comparison run: the headline numbers used for
// trend display plus the full summary JSON for drill-down.
type RunRecord struct {
	ID           string             `json:"id"`
	RunAt        time.Time          `json:"run_at"`
	TargetName   string             `json:"target_name"`
	SourceName   string             `json:"source_name"`
	TotalRecords int                `json:"total_records"`
	MatchRate    float64            `json:"match_rate"`
	FieldCount   int                `json:"field_count"`
	QualityScore float64            `json:"quality_score"`
	Grade        string             `json:"grade"`
	Fields       []model.FieldStats `json:"fields,omitempty"`
	Summary      []byte             `json:"-"`
}

// History defines the persistence interface for comparison runs.
type History interface {
	Append(ctx context.Context, rec RunRecord) (*RunRecord, error)
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
	Migrate(ctx context.Context) error
	Close() error
}

// NewRecord builds a RunRecord from a run summary. The caller supplies the
// marshaled summary so the stored JSON matches what was reported.
func NewRecord(s *model.Summary, summaryJSON []byte) RunRecord {
	return RunRecord{
		RunAt:        s.RunAt,
		TargetName:   s.TargetName,
		SourceName:   s.SourceName,
		TotalRecords: s.Matched + s.SourceOnly + s.TargetOnly,
		MatchRate:    s.MatchRate,
		FieldCount:   s.ComparedFields,
		QualityScore: s.QualityScore,
		Grade:        s.Grade,
		Fields:       s.Fields,
		Summary:      summaryJSON,
	}
}
