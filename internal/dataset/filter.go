package dataset

import (
	"time"

	"github.com/sells-group/integrity-cli/internal/model"
)

// FilterDateRange returns a copy keeping rows whose date cell in column
// falls within [from, to]. Rows with a null or unparsed date are dropped
// while the filter is active. Datasets lacking the column pass through
// unchanged, so the same filter can be applied to both sides.
func FilterDateRange(ds *model.Dataset, column string, from, to time.Time) *model.Dataset {
	col, ok := ds.Column(column)
	if !ok {
		return ds
	}

	var keep []int
	for i, c := range col.Cells {
		if c.Kind != model.KindDate {
			continue
		}
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		keep = append(keep, i)
	}
	return ds.SelectRows(keep)
}

// FilterAccounts returns a copy keeping rows whose normalized cell value in
// column matches one of values. Datasets lacking the column pass through
// unchanged. An empty values list means no filtering.
func FilterAccounts(ds *model.Dataset, column string, values []string) *model.Dataset {
	if len(values) == 0 {
		return ds
	}
	col, ok := ds.Column(column)
	if !ok {
		return ds
	}

	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[model.StringCell(v).Normalize()] = true
	}

	var keep []int
	for i, c := range col.Cells {
		if c.IsNull() {
			continue
		}
		if wanted[c.Normalize()] {
			keep = append(keep, i)
		}
	}
	return ds.SelectRows(keep)
}

// ApplyFilters runs the date-range and account filters named by the run
// configuration against one dataset.
func ApplyFilters(ds *model.Dataset, cfg *model.RunConfig) *model.Dataset {
	out := ds
	if cfg.DateColumn != "" && !cfg.DateFrom.IsZero() && !cfg.DateTo.IsZero() {
		out = FilterDateRange(out, cfg.DateColumn, cfg.DateFrom, cfg.DateTo)
	}
	if cfg.AccountColumn != "" && len(cfg.Accounts) > 0 {
		out = FilterAccounts(out, cfg.AccountColumn, cfg.Accounts)
	}
	return out
}
