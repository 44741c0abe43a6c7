package train

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"sensorpipe/internal/ml"
	"sensorpipe/internal/transform"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// separable returns a two-feature binary problem with well-separated classes.
func separable(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = []float64{rng.Float64(), rng.Float64()}
			y[i] = 0
		} else {
			x[i] = []float64{10 + rng.Float64(), 10 + rng.Float64()}
			y[i] = 1
		}
	}
	return x, y
}

// stageInputs persists the transformed matrices and the fitted transform the
// way the previous stage would, and returns its artifact.
func stageInputs(t *testing.T, dir string, trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) *transform.Artifact {
	t.Helper()
	art := &transform.Artifact{
		TrainArrayPath: filepath.Join(dir, "transformed", "train.npb"),
		TestArrayPath:  filepath.Join(dir, "transformed", "test.npb"),
		ObjectPath:     filepath.Join(dir, "object", "preprocess.gob"),
	}

	pre := ml.NewPreprocessor(0)
	if err := pre.Fit(trainX); err != nil {
		t.Fatal(err)
	}
	scaledTrain, err := pre.Transform(trainX)
	if err != nil {
		t.Fatal(err)
	}
	scaledTest, err := pre.Transform(testX)
	if err != nil {
		t.Fatal(err)
	}

	trainMat, err := ml.JoinMatrix(scaledTrain, trainY)
	if err != nil {
		t.Fatal(err)
	}
	testMat, err := ml.JoinMatrix(scaledTest, testY)
	if err != nil {
		t.Fatal(err)
	}
	if err := ml.SaveMatrix(trainMat, art.TrainArrayPath); err != nil {
		t.Fatal(err)
	}
	if err := ml.SaveMatrix(testMat, art.TestArrayPath); err != nil {
		t.Fatal(err)
	}
	if err := ml.SaveGob(art.ObjectPath, pre); err != nil {
		t.Fatal(err)
	}
	return art
}

func TestTrainer_Run(t *testing.T) {
	dir := t.TempDir()
	trainX, trainY := separable(120, 1)
	testX, testY := separable(40, 2)
	prev := stageInputs(t, dir, trainX, trainY, testX, testY)

	cfg := Config{
		ModelPath:          filepath.Join(dir, "model", "model.gob"),
		ExpectedScore:      0.6,
		MaxScoreDivergence: 0.1,
	}
	art, err := New(cfg, discard()).Run(prev)
	if err != nil {
		t.Fatal(err)
	}

	if art.TrainMetrics.F1 < cfg.ExpectedScore {
		t.Errorf("train f1 = %v, want >= %v", art.TrainMetrics.F1, cfg.ExpectedScore)
	}
	if _, err := os.Stat(art.ModelPath); err != nil {
		t.Fatalf("expected model bundle: %v", err)
	}

	// the reloaded bundle classifies raw feature rows end to end
	bundle, err := LoadBundle(art.ModelPath)
	if err != nil {
		t.Fatal(err)
	}
	labels, err := bundle.Predict(testX)
	if err != nil {
		t.Fatal(err)
	}
	correct := 0
	for i, label := range labels {
		if float64(label) == testY[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(labels)); acc < 0.95 {
		t.Errorf("bundle accuracy on held-out rows = %v, want >= 0.95", acc)
	}
}

func TestTrainer_DivergenceGateAbortsRun(t *testing.T) {
	dir := t.TempDir()
	trainX, trainY := separable(120, 3)
	testX, testY := separable(40, 4)
	// invert the held-out labels so train and test scores diverge
	for i := range testY {
		testY[i] = 1 - testY[i]
	}
	prev := stageInputs(t, dir, trainX, trainY, testX, testY)

	cfg := Config{
		ModelPath:          filepath.Join(dir, "model", "model.gob"),
		ExpectedScore:      0.6,
		MaxScoreDivergence: 0.1,
	}
	_, err := New(cfg, discard()).Run(prev)
	if !errors.Is(err, ErrGateFailed) {
		t.Fatalf("err = %v, want ErrGateFailed", err)
	}
	if _, statErr := os.Stat(cfg.ModelPath); statErr == nil {
		t.Error("no bundle may be written when a gate fails")
	}
}

func TestTrainer_MinimumScoreGate(t *testing.T) {
	tr := New(Config{ExpectedScore: 0.6, MaxScoreDivergence: 0.05}, discard())

	below := ml.Classification{F1: 0.59}
	if err := tr.applyGates(below, ml.Classification{F1: 0.58}); !errors.Is(err, ErrGateFailed) {
		t.Errorf("f1 0.59 against expected 0.6: err = %v, want ErrGateFailed", err)
	}

	above := ml.Classification{F1: 0.61}
	if err := tr.applyGates(above, ml.Classification{F1: 0.60}); err != nil {
		t.Errorf("f1 0.61 against expected 0.6: unexpected err %v", err)
	}
}

func TestTrainer_DivergenceGateBoundary(t *testing.T) {
	tr := New(Config{ExpectedScore: 0.5, MaxScoreDivergence: 0.1}, discard())

	if err := tr.applyGates(ml.Classification{F1: 0.95}, ml.Classification{F1: 0.70}); !errors.Is(err, ErrGateFailed) {
		t.Errorf("divergence 0.25 over max 0.1: err = %v, want ErrGateFailed", err)
	}
	if err := tr.applyGates(ml.Classification{F1: 0.95}, ml.Classification{F1: 0.90}); err != nil {
		t.Errorf("divergence 0.05 under max 0.1: unexpected err %v", err)
	}
}

func TestTrainer_NilArtifact(t *testing.T) {
	if _, err := New(Config{}, discard()).Run(nil); err == nil {
		t.Error("nil transformation artifact must error")
	}
}
