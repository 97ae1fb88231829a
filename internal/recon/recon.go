// Package recon implements the record reconciliation engine: a key-based
// outer join over two datasets with per-field comparison of matched rows.
package recon

import (
	"go.uber.org/zap"

	"github.com/sells-group/integrity-cli/internal/model"
)

// Reconcile joins target and source rows on the configured key field and
// classifies every row as matched, source_only, or target_only. Matched
// records carry one comparison verdict per configured field.
//
// The key must exist in both datasets after mapping; a missing key is a
// ConfigError, never a silent fallback. Rows with a null key cannot match
// anything and are emitted as orphans on their own side. Empty inputs are a
// valid, uninteresting run, not an error.
//
// Under the default cross policy a key repeated on one side emits one
// matched record per row pair, so matched records can outnumber the rows
// that produced them; exact row accounting (matched*2 + orphans == total
// rows) holds only under the first and reject policies.
func Reconcile(target, source *model.Dataset, cfg *model.RunConfig) (*model.JoinedSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key := cfg.KeyField
	if !target.HasColumn(key) {
		return nil, &model.ConfigError{Field: key, Dataset: target.Name, Reason: "key field not found"}
	}
	if !source.HasColumn(key) {
		return nil, &model.ConfigError{Field: key, Dataset: source.Name, Reason: "key field not found"}
	}

	tGroups := groupByKey(target, key)
	sGroups := groupByKey(source, key)

	policy := cfg.Duplicates
	if policy == "" {
		policy = model.DupCross
	}
	if policy == model.DupReject {
		if err := rejectDuplicates(target.Name, tGroups); err != nil {
			return nil, err
		}
		if err := rejectDuplicates(source.Name, sGroups); err != nil {
			return nil, err
		}
	}

	js := &model.JoinedSet{KeyField: key, CompareFields: cfg.CompareFields}

	// Keys seen on the target side first, in first-occurrence order, then
	// source-only keys. The output order is deterministic for a given input.
	for _, k := range tGroups.keys {
		tRows := tGroups.rows[k]
		sRows, both := sGroups.rows[k]
		if !both {
			for _, tr := range tRows {
				js.Records = append(js.Records, orphan(k, model.ClassTargetOnly, tr))
			}
			continue
		}

		switch policy {
		case model.DupFirst:
			js.Records = append(js.Records, matched(target, source, cfg.CompareFields, k, tRows[0], sRows[0]))
			for _, tr := range tRows[1:] {
				js.Records = append(js.Records, orphan(k, model.ClassTargetOnly, tr))
			}
			for _, sr := range sRows[1:] {
				js.Records = append(js.Records, orphan(k, model.ClassSourceOnly, sr))
			}
		default: // cross product, the outer-join semantics
			for _, tr := range tRows {
				for _, sr := range sRows {
					js.Records = append(js.Records, matched(target, source, cfg.CompareFields, k, tr, sr))
				}
			}
		}
	}
	for _, k := range sGroups.keys {
		if _, both := tGroups.rows[k]; both {
			continue
		}
		for _, sr := range sGroups.rows[k] {
			js.Records = append(js.Records, orphan(k, model.ClassSourceOnly, sr))
		}
	}

	// Null keys never match across datasets.
	for _, tr := range tGroups.nullRows {
		js.Records = append(js.Records, orphan("", model.ClassTargetOnly, tr))
	}
	for _, sr := range sGroups.nullRows {
		js.Records = append(js.Records, orphan("", model.ClassSourceOnly, sr))
	}

	m, so, to := js.Counts()
	zap.L().Debug("recon: join complete",
		zap.String("key", key),
		zap.Int("matched", m),
		zap.Int("source_only", so),
		zap.Int("target_only", to),
	)

	return js, nil
}

// AlignByPosition is the degraded row-alignment mode for datasets with no
// shared key: row i of the target is paired with row i of the source, and
// rows beyond the shorter dataset become orphans on their own side. It is a
// weaker algorithm than the key-based join and must be requested explicitly.
func AlignByPosition(target, source *model.Dataset, compareFields []string) *model.JoinedSet {
	js := &model.JoinedSet{CompareFields: compareFields}

	tn, sn := target.Rows(), source.Rows()
	n := min(tn, sn)

	for i := 0; i < n; i++ {
		js.Records = append(js.Records, matched(target, source, compareFields, "", i, i))
	}
	for i := n; i < tn; i++ {
		js.Records = append(js.Records, orphan("", model.ClassTargetOnly, i))
	}
	for i := n; i < sn; i++ {
		js.Records = append(js.Records, orphan("", model.ClassSourceOnly, i))
	}

	return js
}

// keyGroups holds row indices grouped by normalized key value, with the key
// order of first appearance and the rows whose key was null.
type keyGroups struct {
	keys     []string
	rows     map[string][]int
	nullRows []int
}

func groupByKey(ds *model.Dataset, key string) keyGroups {
	g := keyGroups{rows: make(map[string][]int)}
	n := ds.Rows()
	for i := 0; i < n; i++ {
		c := ds.Cell(key, i)
		if c.IsNull() {
			g.nullRows = append(g.nullRows, i)
			continue
		}
		k := c.Normalize()
		if _, seen := g.rows[k]; !seen {
			g.keys = append(g.keys, k)
		}
		g.rows[k] = append(g.rows[k], i)
	}
	return g
}

func rejectDuplicates(dataset string, g keyGroups) error {
	for _, k := range g.keys {
		if len(g.rows[k]) > 1 {
			return &model.ConfigError{
				Field:   k,
				Dataset: dataset,
				Reason:  "duplicate key value under reject policy",
			}
		}
	}
	return nil
}

func matched(target, source *model.Dataset, fields []string, key string, tRow, sRow int) model.JoinedRecord {
	rec := model.JoinedRecord{
		Key:       key,
		Class:     model.ClassMatched,
		TargetRow: tRow,
		SourceRow: sRow,
	}
	for _, f := range fields {
		// A field missing from one dataset reads as null, so a value
		// compared against a missing counterpart is a mismatch unless
		// both sides are null.
		tc := target.Cell(f, tRow)
		sc := source.Cell(f, sRow)
		rec.Fields = append(rec.Fields, model.FieldComparison{
			Field:  f,
			Target: tc,
			Source: sc,
			Match:  tc.Equal(sc),
		})
	}
	return rec
}

func orphan(key string, class model.RecordClass, row int) model.JoinedRecord {
	rec := model.JoinedRecord{Key: key, Class: class, TargetRow: -1, SourceRow: -1}
	if class == model.ClassTargetOnly {
		rec.TargetRow = row
	} else {
		rec.SourceRow = row
	}
	return rec
}
