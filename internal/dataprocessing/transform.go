package dataprocessing

import (
	"fmt"
	"math"
	"sort"
)

// Transpose swaps rows and value columns. Attribute columns are dropped
// because they describe rows that no longer exist.
func (t *Table) Transpose() *Table {
	out := NewTable(t.Name, "Date", t.Columns, t.Index)
	for i, row := range t.Values {
		for j, v := range row {
			out.Values[j][i] = v
		}
	}
	return out
}

// GroupRowsByYear groups rows by the year prefix of their label and averages
// each column over the rows of that year, skipping NaN cells. Rows come out
// in ascending year order.
func (t *Table) GroupRowsByYear() (*Table, error) {
	byYear := make(map[int][]int)
	for i, label := range t.Index {
		year, err := YearOf(label)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		byYear[year] = append(byYear[year], i)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	labels := make([]string, len(years))
	for k, y := range years {
		labels[k] = YearLabel(y)
	}

	out := NewTable(t.Name, "Year", labels, t.Columns)
	for k, y := range years {
		rows := byYear[y]
		for j := range t.Columns {
			cells := make([]float64, len(rows))
			for n, i := range rows {
				cells[n] = t.Values[i][j]
			}
			out.Values[k][j] = Mean(cells)
		}
	}
	return out, nil
}

// Years returns the distinct years found in month column labels, ascending
func (t *Table) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, c := range t.Columns {
		y, err := YearOf(c)
		if err != nil || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ColumnsForYear returns the month columns that fall in year
func (t *Table) ColumnsForYear(year int) []string {
	var cols []string
	for _, c := range t.Columns {
		if y, err := YearOf(c); err == nil && y == year {
			cols = append(cols, c)
		}
	}
	return cols
}

// YearMean returns, per row, the NaN-skipping mean of the year's month columns
func (t *Table) YearMean(year int) ([]float64, error) {
	var idx []int
	for j, c := range t.Columns {
		if y, err := YearOf(c); err == nil && y == year {
			idx = append(idx, j)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: %d in %s", ErrYearNotFound, year, t.Name)
	}

	out := make([]float64, len(t.Values))
	cells := make([]float64, len(idx))
	for i, row := range t.Values {
		for k, j := range idx {
			cells[k] = row[j]
		}
		out[i] = Mean(cells)
	}
	return out, nil
}

// Log applies the natural logarithm to the named value columns, or to every
// value column when none are named. It also returns how many finite inputs
// were non-positive.
func (t *Table) Log(columns ...string) (*Table, int, error) {
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, 0, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, name, t.Name)
		}
		idx = append(idx, j)
	}
	if len(columns) == 0 {
		for j := range t.Columns {
			idx = append(idx, j)
		}
	}

	out := t.Clone()
	nonPositive := 0
	for _, row := range out.Values {
		for _, j := range idx {
			if row[j] <= 0 {
				nonPositive++
			}
			row[j] = math.Log(row[j])
		}
	}
	return out, nonPositive, nil
}

// Join inner-joins right onto t by row label, keeping t's row order and
// attributes. Value column names must not overlap.
func (t *Table) Join(right *Table) (*Table, error) {
	for _, c := range right.Columns {
		if t.ColumnIndex(c) >= 0 {
			return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateColumn, c, t.Name, right.Name)
		}
	}

	rightRows := make(map[string]int, len(right.Index))
	for i, label := range right.Index {
		if _, dup := rightRows[label]; !dup {
			rightRows[label] = i
		}
	}

	out := &Table{
		Name:      t.Name,
		IndexName: t.IndexName,
		AttrNames: append([]string(nil), t.AttrNames...),
		Attrs:     make([][]string, len(t.Attrs)),
		Columns:   append(append([]string(nil), t.Columns...), right.Columns...),
	}
	for i, label := range t.Index {
		ri, ok := rightRows[label]
		if !ok {
			continue
		}
		row := make([]float64, 0, len(out.Columns))
		row = append(row, t.Values[i]...)
		row = append(row, right.Values[ri]...)

		out.Index = append(out.Index, label)
		out.Values = append(out.Values, row)
		for a := range t.Attrs {
			out.Attrs[a] = append(out.Attrs[a], t.Attrs[a][i])
		}
	}
	return out, nil
}

// Ratio appends a column holding num / den for every row
func (t *Table) Ratio(name, num, den string) (*Table, error) {
	n, err := t.Column(num)
	if err != nil {
		return nil, err
	}
	d, err := t.Column(den)
	if err != nil {
		return nil, err
	}
	ratio := make([]float64, len(n))
	for i := range n {
		ratio[i] = n[i] / d[i]
	}
	return t.WithColumn(name, ratio)
}
