package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrDuplicateColumn is returned when merged tables share a column name.
var ErrDuplicateColumn = errors.New("duplicate column")

// IndicatorTable is a date-indexed table of named float columns.
// Missing values are NaN. Dates are strictly increasing.
type IndicatorTable struct {
	Dates   []time.Time
	Columns []string
	values  map[string][]float64
}

// NewIndicatorTable creates an empty table over the given dates.
func NewIndicatorTable(dates []time.Time) *IndicatorTable {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &IndicatorTable{Dates: d, values: make(map[string][]float64)}
}

// Len returns the number of rows.
func (t *IndicatorTable) Len() int { return len(t.Dates) }

// AddColumn appends a column. vals must have one entry per row.
func (t *IndicatorTable) AddColumn(name string, vals []float64) error {
	if _, ok := t.values[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
	}
	if len(vals) != len(t.Dates) {
		return fmt.Errorf("column %s: %d values for %d rows", name, len(vals), len(t.Dates))
	}
	c := make([]float64, len(vals))
	copy(c, vals)
	t.Columns = append(t.Columns, name)
	t.values[name] = c
	return nil
}

// Column returns the values of a column and whether it exists.
func (t *IndicatorTable) Column(name string) ([]float64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// HasColumn reports whether the table carries the named column.
func (t *IndicatorTable) HasColumn(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Value returns the value at row i of the named column (NaN when absent).
func (t *IndicatorTable) Value(name string, i int) float64 {
	v, ok := t.values[name]
	if !ok || i < 0 || i >= len(v) {
		return math.NaN()
	}
	return v[i]
}

// Row returns a read-only view of row i.
func (t *IndicatorTable) Row(i int) Row {
	return Row{table: t, index: i}
}

// Filter returns a new table holding only the rows for which keep returns true.
func (t *IndicatorTable) Filter(keep func(i int) bool) *IndicatorTable {
	var idx []int
	for i := range t.Dates {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := &IndicatorTable{
		Dates:   make([]time.Time, len(idx)),
		Columns: append([]string(nil), t.Columns...),
		values:  make(map[string][]float64, len(t.Columns)),
	}
	for j, i := range idx {
		out.Dates[j] = t.Dates[i]
	}
	for _, c := range t.Columns {
		src := t.values[c]
		dst := make([]float64, len(idx))
		for j, i := range idx {
			dst[j] = src[i]
		}
		out.values[c] = dst
	}
	return out
}

// Row is a single date of an IndicatorTable.
type Row struct {
	table *IndicatorTable
	index int
}

// Date returns the row date.
func (r Row) Date() time.Time { return r.table.Dates[r.index] }

// Index returns the row position within its table.
func (r Row) Index() int { return r.index }

// Get returns the value of a column; ok is false when the column does not exist.
// An existing column may still hold NaN for this row.
func (r Row) Get(name string) (v float64, ok bool) {
	col, ok := r.table.values[name]
	if !ok {
		return math.NaN(), false
	}
	return col[r.index], true
}

// Merge outer-joins tables on date. Column sets must be disjoint;
// cells with no source row are NaN.
func Merge(tables ...*IndicatorTable) (*IndicatorTable, error) {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, t := range tables {
		for _, d := range t.Dates {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	pos := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}

	out := NewIndicatorTable(dates)
	for _, t := range tables {
		for _, c := range t.Columns {
			col := make([]float64, len(dates))
			for i := range col {
				col[i] = math.NaN()
			}
			for i, d := range t.Dates {
				col[pos[d]] = t.values[c][i]
			}
			if err := out.AddColumn(c, col); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
