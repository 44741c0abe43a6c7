// Package transform implements the transformation stage: clean the validated
// partitions, fit the preprocessing transform on training features only,
// rebalance classes, and persist the numeric matrices plus the fitted
// transform object.
package transform

import (
	"errors"
	"fmt"
	"log/slog"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/logging"
	"sensorpipe/internal/ml"
)

// ErrEmptyAfterClean means a partition had no rows left once rows with a
// null target were dropped; the input data is unusable.
var ErrEmptyAfterClean = errors.New("transform: partition empty after dropping null targets")

// Config holds the stage's immutable inputs.
type Config struct {
	TrainArrayPath string
	TestArrayPath  string
	ObjectPath     string
	TargetColumn   string
	Seed           int64
}

// Artifact records where the transformed outputs landed.
type Artifact struct {
	TrainArrayPath string `json:"train_array_path"`
	TestArrayPath  string `json:"test_array_path"`
	ObjectPath     string `json:"transform_object_path"`
}

// Transformer is the stage runner.
type Transformer struct {
	cfg    Config
	logger *slog.Logger
}

// New builds the stage; logger nil means the component default.
func New(cfg Config, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = logging.New("transformation")
	}
	return &Transformer{cfg: cfg, logger: logger}
}

// Run loads both partitions, cleans them, fits the preprocessor on the train
// features, applies it to both, rebalances each partition independently, and
// persists the matrices and the fitted transform.
func (t *Transformer) Run(trainPath, testPath string) (*Artifact, error) {
	trainX, trainY, err := t.loadClean(trainPath, "train")
	if err != nil {
		return nil, err
	}
	testX, testY, err := t.loadClean(testPath, "test")
	if err != nil {
		return nil, err
	}

	pre := ml.NewPreprocessor(0)
	if err := pre.Fit(trainX); err != nil {
		return nil, fmt.Errorf("fit preprocessor: %w", err)
	}
	// fitted on train only; test goes through the same learned parameters
	trainX, err = pre.Transform(trainX)
	if err != nil {
		return nil, fmt.Errorf("transform train features: %w", err)
	}
	testX, err = pre.Transform(testX)
	if err != nil {
		return nil, fmt.Errorf("transform test features: %w", err)
	}

	resampler := &ml.Resampler{K: 5, Seed: t.cfg.Seed}
	trainX, trainY = resampler.Resample(trainX, trainY)
	testX, testY = resampler.Resample(testX, testY)
	t.logger.Info("partitions rebalanced", "train_rows", len(trainX), "test_rows", len(testX))

	trainMat, err := ml.JoinMatrix(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("assemble train matrix: %w", err)
	}
	testMat, err := ml.JoinMatrix(testX, testY)
	if err != nil {
		return nil, fmt.Errorf("assemble test matrix: %w", err)
	}

	if err := ml.SaveMatrix(trainMat, t.cfg.TrainArrayPath); err != nil {
		return nil, err
	}
	if err := ml.SaveMatrix(testMat, t.cfg.TestArrayPath); err != nil {
		return nil, err
	}
	if err := ml.SaveGob(t.cfg.ObjectPath, pre); err != nil {
		return nil, err
	}
	t.logger.Info("transformation artifacts written",
		"train", t.cfg.TrainArrayPath, "test", t.cfg.TestArrayPath, "object", t.cfg.ObjectPath)

	return &Artifact{
		TrainArrayPath: t.cfg.TrainArrayPath,
		TestArrayPath:  t.cfg.TestArrayPath,
		ObjectPath:     t.cfg.ObjectPath,
	}, nil
}

// loadClean reads a partition, blanks the missing-value sentinel, drops rows
// with a null target, and splits features from labels.
func (t *Transformer) loadClean(path, name string) ([][]float64, []float64, error) {
	frame, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s partition: %w", name, err)
	}
	frame.ReplaceSentinel(dataset.Sentinel)
	if err := frame.DropNullTarget(t.cfg.TargetColumn); err != nil {
		return nil, nil, fmt.Errorf("%s partition: %w", name, err)
	}
	if frame.NumRows() == 0 {
		return nil, nil, fmt.Errorf("%s partition: %w", name, ErrEmptyAfterClean)
	}

	x, y, err := frame.FeaturesTarget(t.cfg.TargetColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s partition: %w", name, err)
	}
	return x, y, nil
}
