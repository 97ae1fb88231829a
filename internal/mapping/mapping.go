// Package mapping aligns columns between two datasets, either positionally
// or via explicit name pairs, and applies the alignment by renaming a copy
// of the source dataset.
package mapping

import (
	"github.com/sells-group/integrity-cli/internal/model"
)

// Mapping is an ordered set of target←source column pairs, unique on both
// sides.
type Mapping struct {
	pairs []model.FieldPair
}

// Pairs returns the mapping's pairs in order.
func (m Mapping) Pairs() []model.FieldPair { return m.pairs }

// Len returns the number of mapped columns.
func (m Mapping) Len() int { return len(m.pairs) }

// Positional pairs the i-th target column with the i-th source column, up to
// the shorter list. Columns beyond that are left unmapped: extra target
// columns keep no counterpart, extra source columns keep their own names.
func Positional(targetCols, sourceCols []string) Mapping {
	n := min(len(targetCols), len(sourceCols))
	pairs := make([]model.FieldPair, n)
	for i := 0; i < n; i++ {
		pairs[i] = model.FieldPair{Target: targetCols[i], Source: sourceCols[i]}
	}
	return Mapping{pairs: pairs}
}

// ByName builds a mapping from caller-specified pairs. Repeating a target or
// source name is a configuration mistake and is rejected rather than letting
// a later pair silently win.
func ByName(pairs []model.FieldPair) (Mapping, error) {
	seenTarget := make(map[string]bool, len(pairs))
	seenSource := make(map[string]bool, len(pairs))
	out := make([]model.FieldPair, 0, len(pairs))

	for _, p := range pairs {
		if seenTarget[p.Target] {
			return Mapping{}, &model.ConfigError{Field: p.Target, Reason: "duplicate target column in mapping"}
		}
		if seenSource[p.Source] {
			return Mapping{}, &model.ConfigError{Field: p.Source, Reason: "duplicate source column in mapping"}
		}
		seenTarget[p.Target] = true
		seenSource[p.Source] = true
		out = append(out, p)
	}
	return Mapping{pairs: out}, nil
}

// Apply renames the mapped source columns to their target names on a copy;
// the original dataset is never mutated. Unmapped source columns keep their
// original names and simply will not align when compared.
func (m Mapping) Apply(source *model.Dataset) *model.Dataset {
	rename := make(map[string]string, len(m.pairs))
	for _, p := range m.pairs {
		rename[p.Source] = p.Target
	}

	out := source.Clone()
	for i := range out.Columns {
		orig := out.Columns[i].Name
		if to, ok := rename[orig]; ok {
			out.Columns[i].Name = to
			delete(rename, orig) // rename first occurrence only
		}
	}
	return out
}

// ForConfig builds and applies the mapping named by the run configuration,
// returning the aligned source dataset.
func ForConfig(target, source *model.Dataset, cfg *model.RunConfig) (*model.Dataset, error) {
	switch cfg.Mapping {
	case model.MapByName:
		m, err := ByName(cfg.Pairs)
		if err != nil {
			return nil, err
		}
		return m.Apply(source), nil
	default: // positional is the default alignment
		m := Positional(target.ColumnNames(), source.ColumnNames())
		return m.Apply(source), nil
	}
}
