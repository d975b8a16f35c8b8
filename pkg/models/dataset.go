package models

// Dataset is the full ordered sequence of rows plus the header they were
// read with.
type Dataset struct {
	// Columns is the header in file order
	Columns []string
	// Rows holds the records in file order
	Rows []*Row
}

// NewDataset creates a dataset for the given header.
func NewDataset(columns []string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols}
}

// Append adds a row.
func (d *Dataset) Append(r *Row) {
	d.Rows = append(d.Rows, r)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// HasColumn reports whether name is part of the header.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; no row is shared with the original.
func (d *Dataset) Clone() *Dataset {
	c := NewDataset(d.Columns)
	c.Rows = make([]*Row, len(d.Rows))
	for i, r := range d.Rows {
		c.Rows[i] = r.Clone()
	}
	return c
}
