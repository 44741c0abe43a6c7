// Package train implements the model training stage: fit the classifier on
// the transformed matrices, gate on classification metrics, and persist the
// model bundle.
package train

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"sensorpipe/internal/logging"
	"sensorpipe/internal/ml"
	"sensorpipe/internal/transform"
)

// ErrGateFailed means the trained model violated an acceptance threshold;
// no bundle is persisted and the run aborts.
var ErrGateFailed = errors.New("train: acceptance gate failed")

// Config holds the stage's immutable inputs.
type Config struct {
	ModelPath          string
	ExpectedScore      float64 // minimum acceptable train f1
	MaxScoreDivergence float64 // maximum |train f1 - test f1|
}

// Artifact records the persisted bundle and both metric sets.
type Artifact struct {
	ModelPath    string            `json:"model_path"`
	TrainMetrics ml.Classification `json:"train_metrics"`
	TestMetrics  ml.Classification `json:"test_metrics"`
}

// Trainer is the stage runner.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
}

// New builds the stage; logger nil means the component default.
func New(cfg Config, logger *slog.Logger) *Trainer {
	if logger == nil {
		logger = logging.New("training")
	}
	return &Trainer{cfg: cfg, logger: logger}
}

// Run loads the transformed matrices, fits the classifier, applies the
// acceptance gates and persists the bundle.
func (t *Trainer) Run(art *transform.Artifact) (*Artifact, error) {
	if art == nil {
		return nil, errors.New("train: nil transformation artifact")
	}

	trainMat, err := ml.LoadMatrix(art.TrainArrayPath)
	if err != nil {
		return nil, fmt.Errorf("load train matrix: %w", err)
	}
	testMat, err := ml.LoadMatrix(art.TestArrayPath)
	if err != nil {
		return nil, fmt.Errorf("load test matrix: %w", err)
	}
	trainX, trainY := ml.SplitMatrix(trainMat)
	testX, testY := ml.SplitMatrix(testMat)

	clf := ml.NewGradientBoosting()
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	t.logger.Info("classifier fitted", "train_rows", len(trainX), "trees", clf.NumTrees)

	trainPred, err := clf.Predict(trainX)
	if err != nil {
		return nil, fmt.Errorf("predict train: %w", err)
	}
	testPred, err := clf.Predict(testX)
	if err != nil {
		return nil, fmt.Errorf("predict test: %w", err)
	}
	trainMetrics := ml.EvaluateBinary(trainY, trainPred)
	testMetrics := ml.EvaluateBinary(testY, testPred)
	t.logger.Info("metrics computed",
		"train_f1", trainMetrics.F1, "test_f1", testMetrics.F1)

	if err := t.applyGates(trainMetrics, testMetrics); err != nil {
		return nil, err
	}

	pre, err := ml.LoadGob[ml.Preprocessor](art.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("load preprocessor: %w", err)
	}
	bundle := &Bundle{Preprocessor: pre, Classifier: clf}
	if err := ml.SaveGob(t.cfg.ModelPath, bundle); err != nil {
		return nil, err
	}
	t.logger.Info("model bundle written", "path", t.cfg.ModelPath)

	return &Artifact{
		ModelPath:    t.cfg.ModelPath,
		TrainMetrics: trainMetrics,
		TestMetrics:  testMetrics,
	}, nil
}

// applyGates enforces the minimum-score gate and the over/underfitting
// divergence gate.
func (t *Trainer) applyGates(trainM, testM ml.Classification) error {
	if trainM.F1 < t.cfg.ExpectedScore {
		t.logger.Error("minimum score gate failed",
			"train_f1", trainM.F1, "expected", t.cfg.ExpectedScore)
		return fmt.Errorf("%w: train f1 %.4f below expected %.4f",
			ErrGateFailed, trainM.F1, t.cfg.ExpectedScore)
	}
	diff := math.Abs(trainM.F1 - testM.F1)
	if diff > t.cfg.MaxScoreDivergence {
		t.logger.Error("divergence gate failed",
			"train_f1", trainM.F1, "test_f1", testM.F1, "max", t.cfg.MaxScoreDivergence)
		return fmt.Errorf("%w: train/test f1 divergence %.4f exceeds %.4f",
			ErrGateFailed, diff, t.cfg.MaxScoreDivergence)
	}
	return nil
}
