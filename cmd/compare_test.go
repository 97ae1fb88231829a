package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/integrity-cli/internal/model"
)

func testDataset(name string, header []string, rows ...[]string) *model.Dataset {
	out := &model.Dataset{Name: name, Columns: make([]model.Column, len(header))}
	for i, h := range header {
		out.Columns[i].Name = h
	}
	for _, row := range rows {
		for i := range header {
			if i >= len(row) || row[i] == "" {
				out.Columns[i].Cells = append(out.Columns[i].Cells, model.NullCell())
				continue
			}
			out.Columns[i].Cells = append(out.Columns[i].Cells, model.StringCell(row[i]))
		}
	}
	return out
}

func TestExecuteCompare(t *testing.T) {
	target := testDataset("ns.xlsx", []string{"id", "amt", "status"},
		[]string{"1", "10", "open"},
		[]string{"2", "20", "closed"},
	)
	source := testDataset("sf.csv", []string{"id", "amt", "status"},
		[]string{"1", "10", "open"},
		[]string{"3", "30", "open"},
	)

	js, s, _, _, err := executeCompare(target, source, &model.RunConfig{KeyField: "id"})
	require.NoError(t, err)

	// defaulted to all shared non-key columns
	assert.ElementsMatch(t, []string{"amt", "status"}, js.CompareFields)
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 1, s.TargetOnly)
	assert.Equal(t, 1, s.SourceOnly)
	assert.Equal(t, 100.0, s.MatchRate)
}

func TestExecuteCompareByNameMapping(t *testing.T) {
	target := testDataset("ns", []string{"id", "Amount"}, []string{"1", "10"})
	source := testDataset("sf", []string{"id", "Amt__c"}, []string{"1", "10"})

	_, s, _, _, err := executeCompare(target, source, &model.RunConfig{
		KeyField: "id",
		Mapping:  model.MapByName,
		Pairs: []model.FieldPair{
			{Target: "id", Source: "id"},
			{Target: "Amount", Source: "Amt__c"},
		},
	})
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "Amount", s.Fields[0].Field)
	assert.Equal(t, 1, s.Fields[0].Matches)
	assert.Equal(t, 100.0, s.MatchRate)
}

func TestExecuteCompareMissingKey(t *testing.T) {
	target := testDataset("ns", []string{"id"}, []string{"1"})
	source := testDataset("sf", []string{"id"}, []string{"1"})

	_, _, _, _, err := executeCompare(target, source, &model.RunConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key field")
}

func TestExecuteCompareAlignRows(t *testing.T) {
	target := testDataset("ns", []string{"amt"}, []string{"10"}, []string{"20"})
	source := testDataset("sf", []string{"amt"}, []string{"10"})

	js, s, _, _, err := executeCompare(target, source, &model.RunConfig{
		AlignRows:     true,
		CompareFields: []string{"amt"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 1, s.TargetOnly)
	assert.Len(t, js.Records, 2)
}

func TestDefaultCompareFields(t *testing.T) {
	target := testDataset("ns", []string{"id", "a", "b", "only_target"})
	source := testDataset("sf", []string{"id", "a", "b", "only_source"})

	fields := defaultCompareFields(target, source, "id")
	assert.Equal(t, []string{"a", "b"}, fields)
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"Amount=Amt__c", "Status=StageName"})
	require.NoError(t, err)
	assert.Equal(t, []model.FieldPair{
		{Target: "Amount", Source: "Amt__c"},
		{Target: "Status", Source: "StageName"},
	}, pairs)

	_, err = parsePairs([]string{"Amount"})
	assert.Error(t, err)

	_, err = parsePairs([]string{"=Amt__c"})
	assert.Error(t, err)
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("from", "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())

	d, err = parseDateFlag("from", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDateFlag("from", "not-a-date")
	assert.Error(t, err)
}

func TestFormatSummary(t *testing.T) {
	s := &model.Summary{
		TargetName:   "ns.xlsx",
		SourceName:   "sf.csv",
		TargetRows:   10,
		SourceRows:   12,
		Matched:      8,
		TargetOnly:   2,
		SourceOnly:   4,
		MatchRate:    87.5,
		QualityScore: 78.8,
		Grade:        "B",
		Fields: []model.FieldStats{
			{Field: "amount", Mismatches: 3, MismatchPct: 37.5},
		},
		Insights: []model.Insight{
			{Severity: model.SeverityHealthy, Message: "Match rate 87.5% is healthy."},
		},
	}

	var buf bytes.Buffer
	formatSummary(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "ns.xlsx")
	assert.Contains(t, out, "87.5%")
	assert.Contains(t, out, "78.8 (B)")
	assert.Contains(t, out, "amount")
	assert.True(t, strings.Contains(out, "healthy"))
}
