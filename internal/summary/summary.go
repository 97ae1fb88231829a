// Package summary folds a joined record set into aggregate statistics:
// match rate, per-field mismatch ranking, single-dataset quality checks, and
// a bounded quality score with a letter grade.
package summary

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sells-group/integrity-cli/internal/model"
)

// smallSampleThreshold is the record count below which the quality score
// takes the small-sample penalty.
const smallSampleThreshold = 100

// coverageBonusFields is the compared-field count at which the score takes
// the coverage bonus.
const coverageBonusFields = 10

// Summarize computes the comparison summary for one run. The quality checks
// are computed over the target dataset alone; they are single-dataset
// findings, not cross-dataset mismatches.
func Summarize(js *model.JoinedSet, target, source *model.Dataset) *model.Summary {
	s := &model.Summary{
		RunAt:          time.Now().UTC(),
		TargetName:     target.Name,
		SourceName:     source.Name,
		TargetRows:     target.Rows(),
		SourceRows:     source.Rows(),
		ComparedFields: len(js.CompareFields),
	}
	s.Matched, s.SourceOnly, s.TargetOnly = js.Counts()

	// Fold field comparisons.
	perField := make(map[string]*model.FieldStats, len(js.CompareFields))
	for _, f := range js.CompareFields {
		perField[f] = &model.FieldStats{Field: f}
	}
	for _, r := range js.Records {
		for _, fc := range r.Fields {
			st, ok := perField[fc.Field]
			if !ok {
				st = &model.FieldStats{Field: fc.Field}
				perField[fc.Field] = st
			}
			if fc.Match {
				st.Matches++
				s.FieldMatches++
			} else {
				st.Mismatches++
				s.FieldMismatches++
			}
		}
	}

	total := s.FieldMatches + s.FieldMismatches
	if total > 0 {
		s.MatchRate = float64(s.FieldMatches) / float64(total) * 100
	}

	for _, st := range perField {
		fieldTotal := st.Matches + st.Mismatches
		if fieldTotal > 0 {
			st.MatchPct = float64(st.Matches) / float64(fieldTotal) * 100
			st.MismatchPct = float64(st.Mismatches) / float64(fieldTotal) * 100
		}
		s.Fields = append(s.Fields, *st)
	}
	// Mismatch count descending, field name ascending for determinism.
	sort.Slice(s.Fields, func(i, j int) bool {
		if s.Fields[i].Mismatches != s.Fields[j].Mismatches {
			return s.Fields[i].Mismatches > s.Fields[j].Mismatches
		}
		return s.Fields[i].Field < s.Fields[j].Field
	})

	s.Quality = qualityChecks(target)
	for _, q := range s.Quality {
		s.TotalNulls += q.Nulls
		s.TotalDuplicates += q.Duplicates
		s.TotalNegatives += q.Negatives
		s.TotalEmpties += q.Empties
	}

	s.QualityScore = score(s.MatchRate, s.Matched+s.SourceOnly+s.TargetOnly, s.ComparedFields)
	s.Grade = Grade(s.QualityScore)
	s.Insights = insights(s)

	return s
}

// qualityChecks computes per-column null, duplicate, negative, and
// empty-string counts in dataset column order.
func qualityChecks(ds *model.Dataset) []model.QualityChecks {
	out := make([]model.QualityChecks, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		q := model.QualityChecks{Field: col.Name}
		seen := make(map[string]bool, len(col.Cells))
		for _, c := range col.Cells {
			if c.IsNull() {
				q.Nulls++
				continue
			}
			if c.Kind == model.KindNumber && c.Num < 0 {
				q.Negatives++
			}
			if c.Kind == model.KindString && c.Str == "" {
				q.Empties++
			}
			// Occurrences after the first of a value count as duplicates.
			// Nulls are counted on their own, never as duplicates.
			key := c.Normalize()
			if seen[key] {
				q.Duplicates++
			}
			seen[key] = true
		}
		out = append(out, q)
	}
	return out
}

// score derives the bounded [0,100] quality score from the match rate, with
// a small-sample penalty and a field-coverage bonus, rounded to one decimal.
func score(matchRate float64, records, comparedFields int) float64 {
	s := matchRate
	if records < smallSampleThreshold {
		s *= 0.9
	}
	if comparedFields >= coverageBonusFields {
		s = math.Min(s*1.05, 100)
	}
	return math.Round(s*10) / 10
}

// Grade maps a quality score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "A-"
	case score >= 80:
		return "B+"
	case score >= 75:
		return "B"
	case score >= 70:
		return "B-"
	case score >= 65:
		return "C+"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// insights derives advisory findings from the summary. These are
// presentation hints keyed on match-rate bands and mismatch concentration.
func insights(s *model.Summary) []model.Insight {
	var out []model.Insight

	switch {
	case s.MatchRate < 50:
		out = append(out, model.Insight{
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("Match rate %.1f%% is critically low; the two systems disagree on most compared values.", s.MatchRate),
		})
	case s.MatchRate < 75:
		out = append(out, model.Insight{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("Match rate %.1f%% is below the healthy range; review the top mismatched fields.", s.MatchRate),
		})
	default:
		out = append(out, model.Insight{
			Severity: model.SeverityHealthy,
			Message:  fmt.Sprintf("Match rate %.1f%% is healthy.", s.MatchRate),
		})
	}

	if s.FieldMismatches > 0 {
		top3 := 0
		for i, f := range s.Fields {
			if i == 3 {
				break
			}
			top3 += f.Mismatches
		}
		if float64(top3) > 0.6*float64(s.FieldMismatches) {
			out = append(out, model.Insight{
				Severity: model.SeverityWarning,
				Message:  fmt.Sprintf("The top 3 mismatched fields account for %d of %d mismatches; the problem is concentrated, not systemic.", top3, s.FieldMismatches),
			})
		}
	}

	if s.SourceOnly+s.TargetOnly > 0 {
		out = append(out, model.Insight{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("%d orphan record(s): %d only in %s, %d only in %s.", s.SourceOnly+s.TargetOnly, s.TargetOnly, s.TargetName, s.SourceOnly, s.SourceName),
		})
	}

	return out
}
