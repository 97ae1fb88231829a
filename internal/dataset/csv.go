package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/model"
)

// LoadCSV reads a CSV file into a typed dataset. The first row is the
// header; ragged rows are rejected with a ShapeError.
func LoadCSV(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	return LoadCSVReader(f, filepath.Base(path))
}

// LoadCSVReader reads CSV data from r into a dataset labeled name.
func LoadCSVReader(r io.Reader, name string) (*model.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // raggedness is reported as a ShapeError below
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return &model.Dataset{Name: name}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	ds := &model.Dataset{Name: name, Columns: make([]model.Column, len(header))}
	for i, col := range header {
		ds.Columns[i].Name = strings.TrimSpace(col)
	}

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %d", row+1)
		}
		row++

		if len(record) != len(header) {
			return nil, &model.ShapeError{
				Dataset: name,
				Row:     row,
				Want:    len(header),
				Got:     len(record),
			}
		}
		for i, field := range record {
			ds.Columns[i].Cells = append(ds.Columns[i].Cells, InferCell(field))
		}
	}

	NormalizeDateColumns(ds)
	return ds, nil
}
