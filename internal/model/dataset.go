package model

// Column is a named, ordered sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// Dataset is an ordered set of equal-length named columns. A dataset is
// treated as read-only once loaded; transformations (mapping, filtering)
// operate on copies so a loaded dataset can be reused across runs.
type Dataset struct {
	Name    string // label for error messages, usually the file basename
	Columns []Column
}

// Rows returns the row count. All columns share it by invariant.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the first column with the given name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether a column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Cell returns the cell at (column, row). Missing columns and out-of-range
// rows read as null, which matches the comparison rule for absent
// counterpart values.
func (d *Dataset) Cell(column string, row int) Cell {
	col, ok := d.Column(column)
	if !ok || row < 0 || row >= len(col.Cells) {
		return NullCell()
	}
	return col.Cells[row]
}

// Clone returns a deep copy. Column renames on the copy never touch the
// original.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// SelectRows returns a copy containing only the given row indices, in order.
// Out-of-range indices are skipped.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]Column, len(d.Columns))}
	n := d.Rows()
	for i, c := range d.Columns {
		cells := make([]Cell, 0, len(rows))
		for _, r := range rows {
			if r >= 0 && r < n {
				cells = append(cells, c.Cells[r])
			}
		}
		out.Columns[i] = Column{Name: c.Name, Cells: cells}
	}
	return out
}

// Validate checks the equal-length invariant. Loaders call this before
// handing a dataset to the engine.
func (d *Dataset) Validate() error {
	if len(d.Columns) == 0 {
		return nil
	}
	want := len(d.Columns[0].Cells)
	for _, c := range d.Columns[1:] {
		if len(c.Cells) != want {
			return &ShapeError{
				Dataset: d.Name,
				Column:  c.Name,
				Want:    want,
				Got:     len(c.Cells),
			}
		}
	}
	return nil
}
