// Package ml implements the numeric collaborators of the pipeline: the
// fitted preprocessing transform, class rebalancing, the gradient-boosted
// classifier, classification metrics, and artifact persistence helpers.
package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Preprocessor is a two-stage fitted transform: constant-value imputation
// (NaN → FillValue) followed by robust scaling on per-column median and IQR
// learned at Fit time. Fit on training features only; Transform applies the
// learned parameters without refitting.
type Preprocessor struct {
	FillValue float64
	Medians   []float64
	Scales    []float64
	Fitted    bool
}

// NewPreprocessor returns an unfitted preprocessor with the given fill value.
func NewPreprocessor(fillValue float64) *Preprocessor {
	return &Preprocessor{FillValue: fillValue}
}

// Fit learns per-column medians and interquartile ranges from X after
// imputation. Columns with zero IQR get scale 1 (center only).
func (p *Preprocessor) Fit(x [][]float64) error {
	if len(x) == 0 || len(x[0]) == 0 {
		return errors.New("preprocessor: empty fit matrix")
	}
	cols := len(x[0])
	p.Medians = make([]float64, cols)
	p.Scales = make([]float64, cols)

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			v := x[i][j]
			if math.IsNaN(v) {
				v = p.FillValue
			}
			col[i] = v
		}
		sort.Float64s(col)
		p.Medians[j] = percentileSorted(col, 50)
		iqr := percentileSorted(col, 75) - percentileSorted(col, 25)
		if iqr == 0 {
			iqr = 1
		}
		p.Scales[j] = iqr
	}
	p.Fitted = true
	return nil
}

// Transform imputes and scales X with the fitted parameters.
func (p *Preprocessor) Transform(x [][]float64) ([][]float64, error) {
	if !p.Fitted {
		return nil, errors.New("preprocessor: transform before fit")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(p.Medians) {
			return nil, fmt.Errorf("preprocessor: row has %d features, fitted on %d", len(row), len(p.Medians))
		}
		o := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				v = p.FillValue
			}
			o[j] = (v - p.Medians[j]) / p.Scales[j]
		}
		out[i] = o
	}
	return out, nil
}

// percentileSorted computes the q-th percentile (0–100) of sorted data with
// linear interpolation, matching the scaler the transform was modeled on.
func percentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
