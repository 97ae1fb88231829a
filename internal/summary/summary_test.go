package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/integrity-cli/internal/model"
	"github.com/sells-group/integrity-cli/internal/recon"
)

func ds(name string, header []string, rows ...[]string) *model.Dataset {
	out := &model.Dataset{Name: name, Columns: make([]model.Column, len(header))}
	for i, h := range header {
		out.Columns[i].Name = h
	}
	for _, row := range rows {
		for i := range header {
			var c model.Cell
			switch {
			case i >= len(row) || row[i] == "":
				c = model.NullCell()
			default:
				c = model.StringCell(row[i])
			}
			out.Columns[i].Cells = append(out.Columns[i].Cells, c)
		}
	}
	return out
}

func reconcile(t *testing.T, target, source *model.Dataset, fields []string) *model.JoinedSet {
	t.Helper()
	js, err := recon.Reconcile(target, source, &model.RunConfig{
		KeyField:      "id",
		CompareFields: fields,
	})
	require.NoError(t, err)
	return js
}

func TestSummarizeScenario(t *testing.T) {
	target := ds("ns", []string{"id", "amt"}, []string{"1", "10"}, []string{"2", "20"})
	source := ds("sf", []string{"id", "amt"}, []string{"1", "10"}, []string{"3", "30"})

	js := reconcile(t, target, source, []string{"amt"})
	s := Summarize(js, target, source)

	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 1, s.SourceOnly)
	assert.Equal(t, 1, s.TargetOnly)
	assert.Equal(t, 100.0, s.MatchRate, "1 of 1 matched-field comparisons")

	// small-sample penalty: 3 records < 100
	assert.Equal(t, 90.0, s.QualityScore)
	assert.Equal(t, "A", s.Grade)
}

func TestSummarizeZeroDenominator(t *testing.T) {
	target := ds("ns", []string{"id"})
	source := ds("sf", []string{"id"})

	js := reconcile(t, target, source, []string{"id"})
	s := Summarize(js, target, source)

	assert.Equal(t, 0.0, s.MatchRate, "empty comparison must be 0, not NaN")
	assert.Equal(t, 0.0, s.QualityScore)
	assert.Equal(t, "F", s.Grade)
}

func TestSummarizeFieldRanking(t *testing.T) {
	target := ds("ns", []string{"id", "a", "b", "c"},
		[]string{"1", "x", "p", "k"},
		[]string{"2", "x", "p", "k"},
	)
	source := ds("sf", []string{"id", "a", "b", "c"},
		[]string{"1", "x", "DIFF", "DIFF"},
		[]string{"2", "x", "DIFF", "k"},
	)

	js := reconcile(t, target, source, []string{"a", "b", "c"})
	s := Summarize(js, target, source)

	require.Len(t, s.Fields, 3)
	assert.Equal(t, "b", s.Fields[0].Field) // 2 mismatches
	assert.Equal(t, "c", s.Fields[1].Field) // 1 mismatch
	assert.Equal(t, "a", s.Fields[2].Field) // 0 mismatches

	assert.Equal(t, 2, s.Fields[0].Mismatches)
	assert.Equal(t, 100.0, s.Fields[0].MismatchPct)
}

func TestSummarizeRankingTieBreaksByName(t *testing.T) {
	target := ds("ns", []string{"id", "z", "a"}, []string{"1", "x", "y"})
	source := ds("sf", []string{"id", "z", "a"}, []string{"1", "DIFF", "DIFF"})

	js := reconcile(t, target, source, []string{"z", "a"})
	s := Summarize(js, target, source)

	assert.Equal(t, "a", s.Fields[0].Field)
	assert.Equal(t, "z", s.Fields[1].Field)
}

func TestQualityChecks(t *testing.T) {
	target := &model.Dataset{
		Name: "ns",
		Columns: []model.Column{
			{Name: "Amount", Cells: []model.Cell{
				model.NumberCell(-5),
				model.NumberCell(10),
				model.NumberCell(10),
				model.NullCell(),
			}},
			{Name: "Note", Cells: []model.Cell{
				model.StringCell(""),
				model.StringCell("ok"),
				model.NullCell(),
				model.NullCell(),
			}},
		},
	}
	source := &model.Dataset{Name: "sf"}

	js := &model.JoinedSet{}
	s := Summarize(js, target, source)

	require.Len(t, s.Quality, 2)

	amount := s.Quality[0]
	assert.Equal(t, 1, amount.Nulls)
	assert.Equal(t, 1, amount.Duplicates, "second 10 is a duplicate")
	assert.Equal(t, 1, amount.Negatives)
	assert.Equal(t, 0, amount.Empties)

	note := s.Quality[1]
	assert.Equal(t, 2, note.Nulls)
	assert.Equal(t, 1, note.Empties)
	assert.Equal(t, 0, note.Duplicates, "nulls are not duplicates of the empty string or of each other")

	assert.Equal(t, 3, s.TotalNulls)
	assert.Equal(t, 1, s.TotalNegatives)
}

func TestScoreAdjustments(t *testing.T) {
	tests := []struct {
		name           string
		matchRate      float64
		records        int
		comparedFields int
		want           float64
	}{
		{"no adjustments", 80, 500, 5, 80},
		{"small sample penalty", 80, 50, 5, 72},
		{"coverage bonus", 80, 500, 10, 84},
		{"bonus capped at 100", 99, 500, 12, 100},
		{"penalty then bonus", 100, 3, 10, 94.5},
		{"zero stays zero", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, score(tt.matchRate, tt.records, tt.comparedFields), 0.001)
		})
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{97, "A+"}, {95, "A+"}, {92, "A"}, {86, "A-"}, {81, "B+"},
		{76, "B"}, {71, "B-"}, {66, "C+"}, {61, "C"}, {55, "D"}, {20, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %.0f", tt.score)
	}
}

func TestInsightsBands(t *testing.T) {
	mk := func(rate float64) *model.Summary {
		return &model.Summary{MatchRate: rate, TargetName: "ns", SourceName: "sf"}
	}

	assert.Equal(t, model.SeverityCritical, insights(mk(30))[0].Severity)
	assert.Equal(t, model.SeverityWarning, insights(mk(60))[0].Severity)
	assert.Equal(t, model.SeverityHealthy, insights(mk(90))[0].Severity)
}

func TestInsightsConcentration(t *testing.T) {
	s := &model.Summary{
		MatchRate:       80,
		FieldMismatches: 10,
		Fields: []model.FieldStats{
			{Field: "a", Mismatches: 4},
			{Field: "b", Mismatches: 2},
			{Field: "c", Mismatches: 1},
			{Field: "d", Mismatches: 1},
			{Field: "e", Mismatches: 1},
			{Field: "f", Mismatches: 1},
		},
		TargetName: "ns",
		SourceName: "sf",
	}

	found := false
	for _, in := range insights(s) {
		if in.Severity == model.SeverityWarning && in.Message != "" {
			found = true
		}
	}
	assert.True(t, found, "top-3 carrying 7 of 10 mismatches should flag concentration")
}

func TestTopMismatched(t *testing.T) {
	s := &model.Summary{
		Fields: []model.FieldStats{
			{Field: "a", Mismatches: 5},
			{Field: "b", Mismatches: 2},
			{Field: "c", Mismatches: 0},
		},
	}

	top := s.TopMismatched(5)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Field)
}
