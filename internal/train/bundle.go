package train

import (
	"fmt"

	"sensorpipe/internal/ml"
)

// Bundle pairs the fitted preprocessing transform with the fitted
// classifier behind a single prediction capability. Callers feed raw
// feature rows; preprocessing is internal.
type Bundle struct {
	Preprocessor *ml.Preprocessor
	Classifier   *ml.GradientBoosting
}

// Predict transforms the rows with the embedded preprocessor and classifies
// them, returning 0/1 labels.
func (b *Bundle) Predict(rows [][]float64) ([]int, error) {
	transformed, err := b.Preprocessor.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("bundle transform: %w", err)
	}
	labels, err := b.Classifier.Predict(transformed)
	if err != nil {
		return nil, fmt.Errorf("bundle predict: %w", err)
	}
	return labels, nil
}

// LoadBundle reloads a persisted bundle for inference outside the pipeline.
func LoadBundle(path string) (*Bundle, error) {
	return ml.LoadGob[Bundle](path)
}
