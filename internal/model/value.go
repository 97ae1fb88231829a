// Package model defines the core data types shared across the reconciliation
// pipeline: typed cell values, datasets, run configuration, and results.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Cell is a single typed value in a dataset column. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
	Date time.Time
}

// NullCell returns a cell holding no value.
func NullCell() Cell { return Cell{Kind: KindNull} }

// StringCell returns a string cell.
func StringCell(s string) Cell { return Cell{Kind: KindString, Str: s} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell { return Cell{Kind: KindDate, Date: t} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == KindNull }

// Normalize returns the canonical textual form of the cell, the single
// primitive used for key grouping and field equality. Strings are trimmed,
// numbers use the shortest exact decimal form, dates use YYYY-MM-DD, and
// null normalizes to the empty string.
func (c Cell) Normalize() string {
	switch c.Kind {
	case KindString:
		return strings.TrimSpace(c.Str)
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// Equal reports whether two cells compare equal under the reconciliation
// rule: two nulls always match, otherwise the normalized forms must be
// identical. A typed value therefore matches its textual representation
// ("10" vs 10) but never matches a null.
func (c Cell) Equal(other Cell) bool {
	if c.IsNull() && other.IsNull() {
		return true
	}
	if c.IsNull() || other.IsNull() {
		return false
	}
	return c.Normalize() == other.Normalize()
}
