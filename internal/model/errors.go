package model

import "fmt"

// ConfigError reports a setup mistake: a key field or mapping target that
// does not exist after mapping, or a duplicate key under the reject policy.
// It is surfaced to the caller verbatim and never retried.
type ConfigError struct {
	Field   string // the offending field or key value
	Dataset string // which dataset the problem was found in, if any
	Reason  string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Dataset != "" && e.Field != "":
		return fmt.Sprintf("configuration error: %s (field %q, dataset %q)", e.Reason, e.Field, e.Dataset)
	case e.Field != "":
		return fmt.Sprintf("configuration error: %s (field %q)", e.Reason, e.Field)
	default:
		return "configuration error: " + e.Reason
	}
}

// ShapeError reports ragged input: either a column whose length disagrees
// with the rest of the dataset, or a raw row whose field count disagrees
// with the header. Loaders reject such input before it reaches the engine.
type ShapeError struct {
	Dataset string
	Column  string // set when a column length disagrees
	Row     int    // set (1-based) when a raw row is ragged
	Want    int
	Got     int
}

func (e *ShapeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("shape error: dataset %q column %q has %d rows, want %d", e.Dataset, e.Column, e.Got, e.Want)
	}
	return fmt.Sprintf("shape error: dataset %q row %d has %d fields, want %d", e.Dataset, e.Row, e.Got, e.Want)
}
