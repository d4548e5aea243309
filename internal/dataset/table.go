package dataset

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "foodpulse/internal/errors"
)

// Table is a rectangular, in-memory snapshot of a worksheet. Every row has
// exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New returns an empty table with the given header.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Append adds a row. The row must match the header width.
func (t *Table) Append(row ...Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	r := make([]Value, len(row))
	copy(r, row)
	t.Rows = append(t.Rows, r)
	return nil
}

// ColumnIndex returns the position of the named column, or a SchemaError.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, apperrors.NewSchemaError(name)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

// Column returns the cells of the named column in row order.
func (t *Table) Column(name string) ([]Value, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NullCount returns the number of null cells in the named column.
func (t *Table) NullCount(name string) (int, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range t.Rows {
		if row[idx].IsNull() {
			n++
		}
	}
	return n, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New(t.Columns...)
	c.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Value, len(row))
		copy(r, row)
		c.Rows[i] = r
	}
	return c
}

// Equal reports whether both tables have the same header and cells.
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// RowKey encodes a row so that two rows share a key exactly when every
// cell is equal.
func RowKey(row []Value) string {
	var b strings.Builder
	for _, v := range row {
		k := v.key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
