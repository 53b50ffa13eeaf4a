package dataprocessing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrColumnNotFound is returned when a value or attribute column is missing
	ErrColumnNotFound = errors.New("column not found")
	// ErrYearNotFound is returned when no month column falls in the requested year
	ErrYearNotFound = errors.New("year not found")
	// ErrDuplicateColumn is returned when a join or append would repeat a column
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is a rectangular frame of float64 values keyed by row labels.
// Attrs is column-major (Attrs[a][row]); Values is row-major (Values[row][col]).
type Table struct {
	Name      string
	IndexName string
	Index     []string
	AttrNames []string
	Attrs     [][]string
	Columns   []string
	Values    [][]float64
}

// NewTable allocates a table with every cell set to NaN
func NewTable(name, indexName string, index, columns []string) *Table {
	t := &Table{
		Name:      name,
		IndexName: indexName,
		Index:     append([]string(nil), index...),
		Columns:   append([]string(nil), columns...),
		Values:    make([][]float64, len(index)),
	}
	for i := range t.Values {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		t.Values[i] = row
	}
	return t
}

// NumRows returns the number of rows
func (t *Table) NumRows() int { return len(t.Index) }

// NumColumns returns the number of value columns
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnIndex returns the position of a value column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// RowIndex returns the position of the first row with the given label, or -1
func (t *Table) RowIndex(label string) int {
	for i, l := range t.Index {
		if l == label {
			return i
		}
	}
	return -1
}

// Column returns a copy of a value column
func (t *Table) Column(name string) ([]float64, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, name, t.Name)
	}
	out := make([]float64, len(t.Values))
	for i, row := range t.Values {
		out[i] = row[j]
	}
	return out, nil
}

// HasAttr reports whether the table carries the attribute column
func (t *Table) HasAttr(name string) bool {
	return t.attrIndex(name) >= 0
}

// Attr returns a copy of an attribute column
func (t *Table) Attr(name string) ([]string, error) {
	a := t.attrIndex(name)
	if a < 0 {
		return nil, fmt.Errorf("%w: attribute %q in %s", ErrColumnNotFound, name, t.Name)
	}
	return append([]string(nil), t.Attrs[a]...), nil
}

func (t *Table) attrIndex(name string) int {
	for i, n := range t.AttrNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := &Table{
		Name:      t.Name,
		IndexName: t.IndexName,
		Index:     append([]string(nil), t.Index...),
		AttrNames: append([]string(nil), t.AttrNames...),
		Attrs:     make([][]string, len(t.Attrs)),
		Columns:   append([]string(nil), t.Columns...),
		Values:    make([][]float64, len(t.Values)),
	}
	for a, col := range t.Attrs {
		c.Attrs[a] = append([]string(nil), col...)
	}
	for i, row := range t.Values {
		c.Values[i] = append([]float64(nil), row...)
	}
	return c
}

// FilterRows returns the rows for which keep returns true
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	out := &Table{
		Name:      t.Name,
		IndexName: t.IndexName,
		AttrNames: append([]string(nil), t.AttrNames...),
		Attrs:     make([][]string, len(t.Attrs)),
		Columns:   append([]string(nil), t.Columns...),
	}
	for i := range t.Index {
		if !keep(i) {
			continue
		}
		out.Index = append(out.Index, t.Index[i])
		out.Values = append(out.Values, append([]float64(nil), t.Values[i]...))
		for a := range t.Attrs {
			out.Attrs[a] = append(out.Attrs[a], t.Attrs[a][i])
		}
	}
	return out
}

// FilterAttr keeps rows whose attribute value satisfies keep
func (t *Table) FilterAttr(name string, keep func(value string) bool) (*Table, error) {
	a := t.attrIndex(name)
	if a < 0 {
		return nil, fmt.Errorf("%w: attribute %q in %s", ErrColumnNotFound, name, t.Name)
	}
	return t.FilterRows(func(row int) bool { return keep(t.Attrs[a][row]) }), nil
}

// SelectColumns returns a table with only the named value columns, in order
func (t *Table) SelectColumns(names []string) (*Table, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, name, t.Name)
		}
		idx[k] = j
	}

	out := t.Clone()
	out.Columns = append([]string(nil), names...)
	for i, row := range t.Values {
		selected := make([]float64, len(idx))
		for k, j := range idx {
			selected[k] = row[j]
		}
		out.Values[i] = selected
	}
	return out, nil
}

// RenameColumn returns a copy with one value column renamed
func (t *Table) RenameColumn(from, to string) (*Table, error) {
	j := t.ColumnIndex(from)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, from, t.Name)
	}
	if from != to && t.ColumnIndex(to) >= 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateColumn, to, t.Name)
	}
	out := t.Clone()
	out.Columns[j] = to
	return out, nil
}

// WithColumn returns a copy with an extra value column appended
func (t *Table) WithColumn(name string, values []float64) (*Table, error) {
	if t.ColumnIndex(name) >= 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateColumn, name, t.Name)
	}
	if len(values) != t.NumRows() {
		return nil, fmt.Errorf("column %q has %d values, table %s has %d rows", name, len(values), t.Name, t.NumRows())
	}
	out := t.Clone()
	out.Columns = append(out.Columns, name)
	for i := range out.Values {
		out.Values[i] = append(out.Values[i], values[i])
	}
	return out, nil
}

// DropNaN removes rows with a NaN in any of the named columns, or in any
// column when none are named.
func (t *Table) DropNaN(columns ...string) (*Table, error) {
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, name, t.Name)
		}
		idx = append(idx, j)
	}
	if len(columns) == 0 {
		for j := range t.Columns {
			idx = append(idx, j)
		}
	}

	return t.FilterRows(func(row int) bool {
		for _, j := range idx {
			if math.IsNaN(t.Values[row][j]) {
				return false
			}
		}
		return true
	}), nil
}

// tableJSON is the wire form of a Table. Non-finite cells encode as null.
type tableJSON struct {
	Name       string              `json:"name"`
	IndexName  string              `json:"index_name"`
	Index      []string            `json:"index"`
	Attributes map[string][]string `json:"attributes,omitempty"`
	Columns    []string            `json:"columns"`
	Values     [][]*float64        `json:"values"`
}

// MarshalJSON encodes the table with NaN and ±Inf as null
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		Name:      t.Name,
		IndexName: t.IndexName,
		Index:     t.Index,
		Columns:   t.Columns,
		Values:    make([][]*float64, len(t.Values)),
	}
	if out.Index == nil {
		out.Index = []string{}
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if len(t.AttrNames) > 0 {
		out.Attributes = make(map[string][]string, len(t.AttrNames))
		for a, name := range t.AttrNames {
			out.Attributes[name] = t.Attrs[a]
		}
	}
	for i, row := range t.Values {
		cells := make([]*float64, len(row))
		for j := range row {
			if v := row[j]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				cells[j] = &v
			}
		}
		out.Values[i] = cells
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form; null cells become NaN
func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Table{
		Name:      in.Name,
		IndexName: in.IndexName,
		Index:     in.Index,
		Columns:   in.Columns,
		Values:    make([][]float64, len(in.Values)),
	}
	for name, values := range in.Attributes {
		t.AttrNames = append(t.AttrNames, name)
		t.Attrs = append(t.Attrs, values)
	}
	for i, row := range in.Values {
		t.Values[i] = make([]float64, len(row))
		for j, cell := range row {
			if cell == nil {
				t.Values[i][j] = math.NaN()
			} else {
				t.Values[i][j] = *cell
			}
		}
	}
	return nil
}
