package model

import "time"

// RecordClass classifies a joined record by which side(s) its key appeared on.
type RecordClass string

const (
	ClassMatched    RecordClass = "matched"
	ClassSourceOnly RecordClass = "source_only"
	ClassTargetOnly RecordClass = "target_only"
)

// FieldComparison is the verdict for one compared field of one matched
// record. Values are carried as an explicit tagged pair rather than by
// column-suffix convention.
type FieldComparison struct {
	Field  string `json:"field"`
	Target Cell   `json:"-"`
	Source Cell   `json:"-"`
	Match  bool   `json:"match"`
}

// JoinedRecord pairs rows from both datasets by key. Orphans carry -1 for
// the row index on the absent side.
type JoinedRecord struct {
	Key       string            `json:"key"` // normalized key value
	Class     RecordClass       `json:"class"`
	TargetRow int               `json:"target_row"`
	SourceRow int               `json:"source_row"`
	Fields    []FieldComparison `json:"fields,omitempty"` // populated for matched records only
}

// JoinedSet is the immutable output of one reconciliation run and the sole
// input to the aggregate calculator.
type JoinedSet struct {
	KeyField      string
	CompareFields []string
	Records       []JoinedRecord
}

// Counts returns the record totals per class.
func (s *JoinedSet) Counts() (matched, sourceOnly, targetOnly int) {
	for _, r := range s.Records {
		switch r.Class {
		case ClassMatched:
			matched++
		case ClassSourceOnly:
			sourceOnly++
		case ClassTargetOnly:
			targetOnly++
		}
	}
	return
}

// FieldStats holds per-field match statistics for the matched population.
type FieldStats struct {
	Field       string  `json:"field" csv:"field"`
	Matches     int     `json:"matches" csv:"matches"`
	Mismatches  int     `json:"mismatches" csv:"mismatches"`
	MatchPct    float64 `json:"match_pct" csv:"match_pct"`
	MismatchPct float64 `json:"mismatch_pct" csv:"mismatch_pct"`
}

// QualityChecks holds single-dataset quality counts for one column. These
// are computed over the target dataset alone and are unrelated to
// cross-dataset matching.
type QualityChecks struct {
	Field      string `json:"field" csv:"field"`
	Nulls      int    `json:"nulls" csv:"nulls"`
	Duplicates int    `json:"duplicates" csv:"duplicates"`
	Negatives  int    `json:"negatives" csv:"negatives"`
	Empties    int    `json:"empties" csv:"empties"`
}

// Severity grades an insight message.
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Insight is an advisory, presentation-level finding derived from the
// summary. Insights are hints, not contracts.
type Insight struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Summary is the aggregate result of one comparison run.
type Summary struct {
	RunAt      time.Time `json:"run_at"`
	TargetName string    `json:"target_name,omitempty"`
	SourceName string    `json:"source_name,omitempty"`

	TargetRows int `json:"target_rows"`
	SourceRows int `json:"source_rows"`
	Matched    int `json:"matched"`
	SourceOnly int `json:"source_only"`
	TargetOnly int `json:"target_only"`

	FieldMatches    int     `json:"field_matches"`
	FieldMismatches int     `json:"field_mismatches"`
	MatchRate       float64 `json:"match_rate"` // percent, 0 when nothing compared

	Fields  []FieldStats    `json:"fields"`  // sorted by mismatches desc, name asc
	Quality []QualityChecks `json:"quality"` // target dataset, column order

	TotalNulls      int `json:"total_nulls"`
	TotalDuplicates int `json:"total_duplicates"`
	TotalNegatives  int `json:"total_negatives"`
	TotalEmpties    int `json:"total_empties"`

	ComparedFields int     `json:"compared_fields"`
	QualityScore   float64 `json:"quality_score"` // [0,100], one decimal
	Grade          string  `json:"grade"`

	Insights []Insight `json:"insights,omitempty"`
}

// TopMismatched returns up to n fields with the most mismatches, in ranking
// order. Fields with zero mismatches are excluded.
func (s *Summary) TopMismatched(n int) []FieldStats {
	var out []FieldStats
	for _, f := range s.Fields {
		if f.Mismatches == 0 {
			continue
		}
		out = append(out, f)
		if len(out) == n {
			break
		}
	}
	return out
}
