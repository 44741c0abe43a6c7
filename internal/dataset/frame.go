// Package dataset holds the tabular data model shared by the pipeline stages:
// a Frame of named columns over string-valued cells, with the cleaning and
// splitting operations the stages need. Cells are strings because raw sensor
// snapshots mix numeric readings with a textual label column and the "na"
// missing-value sentinel; numeric interpretation happens at the call site.
package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Sentinel is the literal marker used for missing values in raw sensor data.
const Sentinel = "na"

// Frame is an ordered set of named columns over row-major string cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows (header excluded).
func (f *Frame) NumRows() int { return len(f.Rows) }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the cell values of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// NumericColumn returns the values of the named column that parse as floats.
// Sentinel and empty cells are skipped; the second return is the count of
// skipped cells.
func (f *Frame) NumericColumn(name string) ([]float64, int, error) {
	cells, err := f.Column(name)
	if err != nil {
		return nil, 0, err
	}
	vals := make([]float64, 0, len(cells))
	skipped := 0
	for _, c := range cells {
		if c == "" || c == Sentinel {
			skipped++
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			skipped++
			continue
		}
		vals = append(vals, v)
	}
	return vals, skipped, nil
}

// ReplaceSentinel blanks every cell equal to the given sentinel, in place.
func (f *Frame) ReplaceSentinel(sentinel string) {
	for _, row := range f.Rows {
		for j, cell := range row {
			if cell == sentinel {
				row[j] = ""
			}
		}
	}
}

// DropNullTarget removes rows whose target-column cell is empty, in place.
func (f *Frame) DropNullTarget(target string) error {
	idx := f.ColumnIndex(target)
	if idx < 0 {
		return fmt.Errorf("target column %q not found", target)
	}
	kept := f.Rows[:0]
	for _, row := range f.Rows {
		if row[idx] != "" {
			kept = append(kept, row)
		}
	}
	f.Rows = kept
	return nil
}

// FeaturesTarget splits the frame into a numeric feature matrix (all columns
// except target, in column order) and a label vector. Empty feature cells
// become NaN for the imputer downstream. Target cells go through the label
// mapping; unmapped targets must parse as floats.
func (f *Frame) FeaturesTarget(target string) ([][]float64, []float64, error) {
	idx := f.ColumnIndex(target)
	if idx < 0 {
		return nil, nil, fmt.Errorf("target column %q not found", target)
	}
	x := make([][]float64, len(f.Rows))
	y := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		feats := make([]float64, 0, len(row)-1)
		for j, cell := range row {
			if j == idx {
				continue
			}
			if cell == "" {
				feats = append(feats, math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %q: non-numeric feature %q", i, f.Columns[j], cell)
			}
			feats = append(feats, v)
		}
		label, err := MapTarget(row[idx])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}
		x[i] = feats
		y[i] = label
	}
	return x, y, nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	cols := append([]string(nil), f.Columns...)
	rows := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return &Frame{Columns: cols, Rows: rows}
}
