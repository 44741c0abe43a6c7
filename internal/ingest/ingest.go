// Package ingest implements the data acquisition stage: fetch all records
// from the primary source, fall back to the local snapshot on any failure,
// persist the feature-store copy and the train/test split.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/logging"
	"sensorpipe/internal/source"
)

// ErrBothSourcesFailed means neither the primary source nor the fallback
// snapshot produced a dataset; there is nothing to run the pipeline on.
var ErrBothSourcesFailed = errors.New("ingest: primary and fallback sources failed")

// Config holds the stage's immutable inputs, derived once from the run context.
type Config struct {
	FeatureStorePath string
	TrainPath        string
	TestPath         string
	FallbackPath     string
	SplitRatio       float64
	Seed             int64
}

// Artifact records where the ingested partitions landed.
type Artifact struct {
	TrainPath string `json:"train_path"`
	TestPath  string `json:"test_path"`
}

// Acquisition is the stage runner.
type Acquisition struct {
	cfg     Config
	fetcher source.Fetcher
	logger  *slog.Logger
}

// New builds the stage. fetcher is the primary source; logger nil means the
// component default.
func New(cfg Config, fetcher source.Fetcher, logger *slog.Logger) *Acquisition {
	if logger == nil {
		logger = logging.New("ingestion")
	}
	return &Acquisition{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Run acquires the dataset, writes the feature-store copy, splits it and
// persists both partitions.
func (a *Acquisition) Run(ctx context.Context) (*Artifact, error) {
	frame, err := a.acquire(ctx)
	if err != nil {
		return nil, err
	}

	if err := dataset.WriteCSV(frame, a.cfg.FeatureStorePath); err != nil {
		return nil, fmt.Errorf("feature store: %w", err)
	}
	a.logger.Info("feature store written", "path", a.cfg.FeatureStorePath, "rows", frame.NumRows())

	train, test, err := dataset.Split(frame, a.cfg.SplitRatio, a.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("train/test split: %w", err)
	}
	if err := dataset.WriteCSV(train, a.cfg.TrainPath); err != nil {
		return nil, fmt.Errorf("train partition: %w", err)
	}
	if err := dataset.WriteCSV(test, a.cfg.TestPath); err != nil {
		return nil, fmt.Errorf("test partition: %w", err)
	}
	a.logger.Info("partitions written",
		"train_rows", train.NumRows(), "test_rows", test.NumRows(), "ratio", a.cfg.SplitRatio)

	return &Artifact{TrainPath: a.cfg.TrainPath, TestPath: a.cfg.TestPath}, nil
}

// acquire tries the primary source and on any failure (including an empty
// result) loads the fallback snapshot. It errors only when both fail.
func (a *Acquisition) acquire(ctx context.Context) (*dataset.Frame, error) {
	frame, primaryErr := a.fetcher.FetchAll(ctx)
	if primaryErr == nil && frame.NumRows() > 0 {
		a.logger.Info("acquired from primary source", "rows", frame.NumRows())
		return frame, nil
	}
	if primaryErr == nil {
		primaryErr = source.ErrNoRecords
	}
	a.logger.Warn("primary source failed, using fallback snapshot",
		"error", primaryErr, "fallback", a.cfg.FallbackPath)

	fallback := source.NewSnapshotFetcher(a.cfg.FallbackPath)
	frame, fallbackErr := fallback.FetchAll(ctx)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrBothSourcesFailed, primaryErr, fallbackErr)
	}
	a.logger.Info("acquired from fallback snapshot", "rows", frame.NumRows())
	return frame, nil
}
