// Package profile ranks dataset columns by uniqueness to suggest candidate
// key and category-tier fields.
package profile

import (
	"sort"
	"strings"

	"github.com/sells-group/integrity-cli/internal/model"
)

// ColumnScore is one column's uniqueness score: distinct non-null values
// over row count.
type ColumnScore struct {
	Name       string  `json:"name"`
	Uniqueness float64 `json:"uniqueness"`
	Distinct   int     `json:"distinct"`
}

// Profile is the result of profiling one dataset.
type Profile struct {
	Ranked []ColumnScore `json:"ranked"` // descending uniqueness, original order on ties

	// Suggested UI default tiers: top 3 primary, next 5 secondary, rest
	// tertiary. Callers may override freely.
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Tertiary  []string `json:"tertiary"`

	DateColumns    []string `json:"date_columns"`
	AccountColumns []string `json:"account_columns"`
}

// Dataset profiles ds. Pure function: the dataset is not modified.
func Dataset(ds *model.Dataset) Profile {
	rows := ds.Rows()
	scores := make([]ColumnScore, 0, len(ds.Columns))

	for _, col := range ds.Columns {
		distinct := countDistinct(col.Cells)
		score := 0.0
		if rows > 0 {
			score = float64(distinct) / float64(rows)
		}
		scores = append(scores, ColumnScore{Name: col.Name, Uniqueness: score, Distinct: distinct})
	}

	// Stable: ties keep original column order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Uniqueness > scores[j].Uniqueness
	})

	p := Profile{Ranked: scores}
	for i, s := range scores {
		switch {
		case i < 3:
			p.Primary = append(p.Primary, s.Name)
		case i < 8:
			p.Secondary = append(p.Secondary, s.Name)
		default:
			p.Tertiary = append(p.Tertiary, s.Name)
		}
	}

	for _, col := range ds.Columns {
		lower := strings.ToLower(col.Name)
		if strings.Contains(lower, "date") {
			p.DateColumns = append(p.DateColumns, col.Name)
		}
		if strings.Contains(lower, "account") {
			p.AccountColumns = append(p.AccountColumns, col.Name)
		}
	}

	return p
}

// SuggestedKey returns the highest-uniqueness column, or "" for an empty
// dataset. The engine never infers a key itself; this is a caller-side
// default.
func (p Profile) SuggestedKey() string {
	if len(p.Ranked) == 0 {
		return ""
	}
	return p.Ranked[0].Name
}

func countDistinct(cells []model.Cell) int {
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if c.IsNull() {
			continue
		}
		seen[c.Normalize()] = true
	}
	return len(seen)
}
