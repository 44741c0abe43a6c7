package validate

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sensorpipe/internal/dataset"
)

// DefaultDriftThreshold is the p-value below which a column counts as drifted.
const DefaultDriftThreshold = 0.05

// ColumnDrift is one column's entry in the drift report.
type ColumnDrift struct {
	PValue  float64 `yaml:"pvalue" json:"pvalue"`
	Drifted bool    `yaml:"is_drifted" json:"is_drifted"`
}

// DetectDrift runs a two-sample Kolmogorov–Smirnov test per base column
// against the corresponding current column. A column drifts when its p-value
// falls below threshold; the overall verdict is true iff nothing drifted.
// Columns without numeric values in either frame are skipped.
func DetectDrift(base, current *dataset.Frame, threshold float64, logger *slog.Logger) (bool, map[string]ColumnDrift) {
	if threshold <= 0 {
		threshold = DefaultDriftThreshold
	}
	passed := true
	report := make(map[string]ColumnDrift, base.NumCols())

	for _, col := range base.Columns {
		baseVals, _, err := base.NumericColumn(col)
		if err != nil || len(baseVals) == 0 {
			logger.Debug("drift check skipped, no numeric values in base", "column", col)
			continue
		}
		curVals, _, err := current.NumericColumn(col)
		if err != nil || len(curVals) == 0 {
			logger.Debug("drift check skipped, no numeric values in current", "column", col)
			continue
		}

		p := ksTwoSample(baseVals, curVals)
		drifted := p < threshold
		if drifted {
			passed = false
		}
		report[col] = ColumnDrift{PValue: p, Drifted: drifted}
	}
	return passed, report
}

// ksTwoSample returns the asymptotic p-value of the two-sample KS test.
func ksTwoSample(a, b []float64) float64 {
	x := append([]float64(nil), a...)
	y := append([]float64(nil), b...)
	sort.Float64s(x)
	sort.Float64s(y)
	d := stat.KolmogorovSmirnov(x, nil, y, nil)
	return ksPValue(d, len(x), len(y))
}

// ksPValue evaluates the Kolmogorov distribution tail Q(λ) with the usual
// finite-sample correction λ = (√en + 0.12 + 0.11/√en)·D.
func ksPValue(d float64, n1, n2 int) float64 {
	if d <= 0 {
		return 1
	}
	en := math.Sqrt(float64(n1) * float64(n2) / float64(n1+n2))
	lambda := (en + 0.12 + 0.11/en) * d

	sum := 0.0
	sign := 1.0
	for j := 1; j <= 100; j++ {
		term := 2 * sign * math.Exp(-2*float64(j)*float64(j)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-10 {
			break
		}
		sign = -sign
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}
