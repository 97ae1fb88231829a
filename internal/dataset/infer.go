// Package dataset loads tabular files (CSV, XLSX) into typed datasets and
// applies pre-reconciliation row filters.
package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/integrity-cli/internal/model"
)

// InferCell converts a raw text field into a typed cell. Empty (after
// trimming) becomes null, numeric text becomes a number, everything else
// stays a string with its original spacing.
func InferCell(s string) model.Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return model.NullCell()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return model.NumberCell(n)
	}
	return model.StringCell(s)
}

// dateLayouts are tried in order when coercing date columns. The mix covers
// ISO, US slash, and spreadsheet-style forms seen in system exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseDate attempts to parse a date in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsDateColumn reports whether a column name marks a date column
// (case-insensitive substring "date").
func IsDateColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// NormalizeDateColumns coerces every cell of every date-named column to a
// date cell. Unparseable values become null rather than failing the column;
// partial data quality is a finding, not an error.
func NormalizeDateColumns(ds *model.Dataset) {
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if !IsDateColumn(col.Name) {
			continue
		}
		for j, c := range col.Cells {
			switch c.Kind {
			case model.KindDate, model.KindNull:
				// already canonical
			case model.KindString:
				if t, ok := ParseDate(c.Str); ok {
					col.Cells[j] = model.DateCell(t)
				} else {
					col.Cells[j] = model.NullCell()
				}
			default:
				// numbers in a date column carry no usable calendar value
				col.Cells[j] = model.NullCell()
			}
		}
	}
}
