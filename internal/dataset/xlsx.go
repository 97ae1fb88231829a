package dataset

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/integrity-cli/internal/model"
)

// XLSXOptions configures the XLSX loader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// LoadXLSX reads an XLSX file into a typed dataset. The first row of the
// selected sheet is the header. Short rows are padded with nulls (the format
// drops trailing empty cells); rows longer than the header are a ShapeError.
func LoadXLSX(path string, opts XLSXOptions) (*model.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return sheetToDataset(f, filepath.Base(path), opts)
}

// LoadXLSXBytes reads XLSX data from memory, for upload handlers.
func LoadXLSXBytes(data []byte, name string, opts XLSXOptions) (*model.Dataset, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}
	return sheetToDataset(f, name, opts)
}

func sheetToDataset(f *xlsx.File, name string, opts XLSXOptions) (*model.Dataset, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return &model.Dataset{Name: name}, nil
	}

	header := rowToStrings(sheet.Rows[0])
	ds := &model.Dataset{Name: name, Columns: make([]model.Column, len(header))}
	for i, col := range header {
		ds.Columns[i].Name = strings.TrimSpace(col)
	}

	for r, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if len(cells) > len(header) {
			return nil, &model.ShapeError{
				Dataset: name,
				Row:     r + 1,
				Want:    len(header),
				Got:     len(cells),
			}
		}
		for i := range header {
			if i < len(cells) {
				ds.Columns[i].Cells = append(ds.Columns[i].Cells, InferCell(cells[i]))
			} else {
				ds.Columns[i].Cells = append(ds.Columns[i].Cells, model.NullCell())
			}
		}
	}

	NormalizeDateColumns(ds)
	return ds, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
