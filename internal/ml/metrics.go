package ml

// Classification holds binary classification metrics for the positive class.
type Classification struct {
	F1        float64 `json:"f1" yaml:"f1"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
}

// EvaluateBinary computes f1/precision/recall with label 1 as positive.
// Undefined ratios (zero denominators) score 0.
func EvaluateBinary(yTrue []float64, yPred []int) Classification {
	var tp, fp, fn float64
	for i := range yTrue {
		truth := yTrue[i] == 1
		pred := yPred[i] == 1
		switch {
		case truth && pred:
			tp++
		case !truth && pred:
			fp++
		case truth && !pred:
			fn++
		}
	}

	var m Classification
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
