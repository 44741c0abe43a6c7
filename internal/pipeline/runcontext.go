package pipeline

import (
	"path/filepath"
	"time"

	"sensorpipe/internal/ingest"
	"sensorpipe/internal/train"
	"sensorpipe/internal/transform"
	"sensorpipe/internal/validate"
)

// runIDLayout names runs by their start timestamp, month first.
const runIDLayout = "01_02_2006_15_04_05"

// RunContext fixes a run's identity and its directory tree. Two contexts
// with the same root and start time derive identical paths.
type RunContext struct {
	RunID string
	Dir   string
}

// NewRunContext derives the run identity from the start time and roots the
// run's artifact tree under root.
func NewRunContext(root string, start time.Time) RunContext {
	id := start.Format(runIDLayout)
	return RunContext{RunID: id, Dir: filepath.Join(root, id)}
}

// IngestConfig derives the acquisition stage configuration.
func (rc RunContext) IngestConfig(cfg Config) ingest.Config {
	base := filepath.Join(rc.Dir, "ingestion")
	return ingest.Config{
		FeatureStorePath: filepath.Join(base, "feature_store", "sensor.csv"),
		TrainPath:        filepath.Join(base, "ingested", "train.csv"),
		TestPath:         filepath.Join(base, "ingested", "test.csv"),
		FallbackPath:     cfg.FallbackPath,
		SplitRatio:       cfg.SplitRatio,
		Seed:             cfg.Seed,
	}
}

// ValidateConfig derives the validation stage configuration.
func (rc RunContext) ValidateConfig(cfg Config) validate.Config {
	base := filepath.Join(rc.Dir, "validation")
	return validate.Config{
		SchemaPath:       cfg.SchemaPath,
		ValidTrainPath:   filepath.Join(base, "validated", "train.csv"),
		ValidTestPath:    filepath.Join(base, "validated", "test.csv"),
		InvalidTrainPath: filepath.Join(base, "invalid", "train.csv"),
		InvalidTestPath:  filepath.Join(base, "invalid", "test.csv"),
		DriftReportPath:  filepath.Join(base, "drift_report", "drift_report.yaml"),
		DriftThreshold:   cfg.DriftThreshold,
	}
}

// TransformConfig derives the transformation stage configuration.
func (rc RunContext) TransformConfig(cfg Config) transform.Config {
	base := filepath.Join(rc.Dir, "transformation")
	return transform.Config{
		TrainArrayPath: filepath.Join(base, "transformed", "train.npb"),
		TestArrayPath:  filepath.Join(base, "transformed", "test.npb"),
		ObjectPath:     filepath.Join(base, "object", "preprocess.gob"),
		TargetColumn:   cfg.TargetColumn,
		Seed:           cfg.Seed,
	}
}

// TrainConfig derives the training stage configuration.
func (rc RunContext) TrainConfig(cfg Config) train.Config {
	return train.Config{
		ModelPath:          filepath.Join(rc.Dir, "training", "model", "model.gob"),
		ExpectedScore:      cfg.ExpectedScore,
		MaxScoreDivergence: cfg.MaxScoreDivergence,
	}
}
