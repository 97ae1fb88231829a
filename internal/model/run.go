package model

import "time"

// MappingMethod selects how source columns are aligned to target columns.
type MappingMethod string

const (
	MapPositional MappingMethod = "positional"
	MapByName     MappingMethod = "name"
)

// DuplicatePolicy controls how duplicate key values on one side are paired.
type DuplicatePolicy string

const (
	// DupCross emits one matched record per (target row, source row)
	// combination sharing the key. This mirrors an outer join and can
	// inflate counts when keys repeat.
	DupCross DuplicatePolicy = "cross"
	// DupFirst pairs only the first row per side for a repeated key;
	// remaining rows become orphans on their own side.
	DupFirst DuplicatePolicy = "first"
	// DupReject fails the run with a ConfigError naming the repeated key.
	DupReject DuplicatePolicy = "reject"
)

// FieldPair maps a target column name to a source column name.
type FieldPair struct {
	Target string
	Source string
}

// RunConfig is the full configuration of one comparison run. It is built
// once per invocation and never mutated mid-run; there is no ambient state.
type RunConfig struct {
	KeyField      string
	CompareFields []string
	Mapping       MappingMethod
	Pairs         []FieldPair // used when Mapping == MapByName
	Duplicates    DuplicatePolicy

	// Optional pre-reconciliation row filters, applied to both datasets.
	DateColumn    string
	DateFrom      time.Time
	DateTo        time.Time
	AccountColumn string
	Accounts      []string

	// AlignRows enables the degraded positional row-alignment mode instead
	// of the key-based join. Never chosen implicitly.
	AlignRows bool
}

// Validate checks that the run configuration is internally consistent.
func (c *RunConfig) Validate() error {
	if c.KeyField == "" && !c.AlignRows {
		return &ConfigError{Reason: "a key field is required for key-based reconciliation"}
	}
	switch c.Duplicates {
	case "", DupCross, DupFirst, DupReject:
	default:
		return &ConfigError{Field: string(c.Duplicates), Reason: "unknown duplicate-key policy"}
	}
	switch c.Mapping {
	case "", MapPositional, MapByName:
	default:
		return &ConfigError{Field: string(c.Mapping), Reason: "unknown mapping method"}
	}
	return nil
}
