// Package report renders a comparison run as export artifacts: orphan CSVs,
// per-field summary CSV, and a self-contained HTML report.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/model"
)

// OrphanRows returns the dataset row indices of orphans on one side, in
// record order.
func OrphanRows(js *model.JoinedSet, class model.RecordClass) []int {
	var rows []int
	for _, r := range js.Records {
		if r.Class != class {
			continue
		}
		switch class {
		case model.ClassTargetOnly:
			rows = append(rows, r.TargetRow)
		case model.ClassSourceOnly:
			rows = append(rows, r.SourceRow)
		}
	}
	return rows
}

// WriteOrphans writes the given rows of a dataset as CSV, using normalized
// cell values and the dataset's column names as the header.
func WriteOrphans(w io.Writer, ds *model.Dataset, rows []int) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ds.ColumnNames()); err != nil {
		return eris.Wrap(err, "report: write orphan header")
	}
	record := make([]string, len(ds.Columns))
	for _, r := range rows {
		for i := range ds.Columns {
			record[i] = ds.Cell(ds.Columns[i].Name, r).Normalize()
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "report: write orphan row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush orphans")
}

// WriteFieldSummary writes the per-field match statistics as CSV.
func WriteFieldSummary(w io.Writer, fields []model.FieldStats) error {
	data, err := csvutil.Marshal(fields)
	if err != nil {
		return eris.Wrap(err, "report: marshal field summary")
	}
	_, err = w.Write(data)
	return eris.Wrap(err, "report: write field summary")
}

// WriteQualityChecks writes the per-column quality counts as CSV.
func WriteQualityChecks(w io.Writer, checks []model.QualityChecks) error {
	data, err := csvutil.Marshal(checks)
	if err != nil {
		return eris.Wrap(err, "report: marshal quality checks")
	}
	_, err = w.Write(data)
	return eris.Wrap(err, "report: write quality checks")
}

// WriteAll writes every report artifact for one run into dir, creating it if
// needed. Returns the paths written.
func WriteAll(dir string, js *model.JoinedSet, target, source *model.Dataset, s *model.Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "report: create output dir")
	}

	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "report: create %s", name)
		}
		defer f.Close() //nolint:errcheck
		if err := fn(f); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	steps := []struct {
		name string
		fn   func(io.Writer) error
	}{
		{"target_orphans.csv", func(w io.Writer) error {
			return WriteOrphans(w, target, OrphanRows(js, model.ClassTargetOnly))
		}},
		{"source_orphans.csv", func(w io.Writer) error {
			return WriteOrphans(w, source, OrphanRows(js, model.ClassSourceOnly))
		}},
		{"field_summary.csv", func(w io.Writer) error {
			return WriteFieldSummary(w, s.Fields)
		}},
		{"quality_checks.csv", func(w io.Writer) error {
			return WriteQualityChecks(w, s.Quality)
		}},
		{"report.html", func(w io.Writer) error {
			return RenderHTML(w, s)
		}},
	}
	for _, step := range steps {
		if err := write(step.name, step.fn); err != nil {
			return written, err
		}
	}

	return written, nil
}
