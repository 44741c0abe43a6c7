// Package pipeline wires the four stages into a fail-fast run: acquisition,
// validation, transformation, training. Stages communicate only through the
// artifacts recorded in the run ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sensorpipe/internal/ingest"
	"sensorpipe/internal/ledger"
	"sensorpipe/internal/logging"
	"sensorpipe/internal/source"
	"sensorpipe/internal/train"
	"sensorpipe/internal/transform"
	"sensorpipe/internal/validate"
)

// State names the orchestrator's position in a run.
type State string

const (
	StateIngesting    State = "ingesting"
	StateValidating   State = "validating"
	StateTransforming State = "transforming"
	StateTraining     State = "training"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Result carries the run identity, the terminal state and every stage
// artifact produced before the run ended.
type Result struct {
	RunID     string
	State     State
	Ingest    *ingest.Artifact
	Validate  *validate.Artifact
	Transform *transform.Artifact
	Train     *train.Artifact
}

// Runner executes pipeline runs.
type Runner struct {
	cfg     Config
	fetcher source.Fetcher
	store   *ledger.Store
	logger  *slog.Logger
}

// NewRunner builds a runner. The fetcher is the primary record source; the
// store receives one lineage row per completed stage. logger nil means the
// component default.
func NewRunner(cfg Config, fetcher source.Fetcher, store *ledger.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.New("pipeline")
	}
	return &Runner{cfg: cfg, fetcher: fetcher, store: store, logger: logger}
}

// Run executes a full run identified by the current time.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunAt(ctx, time.Now())
}

// RunAt executes a full run identified by start. The first stage error aborts
// the run; later stages never execute after a failure.
func (r *Runner) RunAt(ctx context.Context, start time.Time) (*Result, error) {
	rc := NewRunContext(r.cfg.ArtifactRoot, start)
	res := &Result{RunID: rc.RunID}
	r.logger.Info("run started", "run_id", rc.RunID, "dir", rc.Dir)

	res.State = StateIngesting
	ingestArt, err := ingest.New(rc.IngestConfig(r.cfg), r.fetcher, nil).Run(ctx)
	if err != nil {
		return r.fail(res, "ingestion", err)
	}
	res.Ingest = ingestArt
	if err := r.record(rc.RunID, "ingestion", ingestArt); err != nil {
		return r.fail(res, "ingestion", err)
	}

	res.State = StateValidating
	validateArt, err := validate.New(rc.ValidateConfig(r.cfg), nil).Run(ingestArt.TrainPath, ingestArt.TestPath)
	if err != nil {
		return r.fail(res, "validation", err)
	}
	res.Validate = validateArt
	if err := r.record(rc.RunID, "validation", validateArt); err != nil {
		return r.fail(res, "validation", err)
	}
	// the drift verdict is advisory: it is recorded and logged, never routed on
	if !validateArt.Passed {
		r.logger.Warn("validation verdict negative, continuing", "run_id", rc.RunID)
	}

	res.State = StateTransforming
	transformArt, err := transform.New(rc.TransformConfig(r.cfg), nil).Run(
		validateArt.ValidTrainPath, validateArt.ValidTestPath)
	if err != nil {
		return r.fail(res, "transformation", err)
	}
	res.Transform = transformArt
	if err := r.record(rc.RunID, "transformation", transformArt); err != nil {
		return r.fail(res, "transformation", err)
	}

	res.State = StateTraining
	trainArt, err := train.New(rc.TrainConfig(r.cfg), nil).Run(transformArt)
	if err != nil {
		return r.fail(res, "training", err)
	}
	res.Train = trainArt
	if err := r.record(rc.RunID, "training", trainArt); err != nil {
		return r.fail(res, "training", err)
	}

	res.State = StateDone
	r.logger.Info("run complete", "run_id", rc.RunID,
		"model", trainArt.ModelPath, "train_f1", trainArt.TrainMetrics.F1, "test_f1", trainArt.TestMetrics.F1)
	return res, nil
}

func (r *Runner) record(runID, stage string, artifact any) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.Record(runID, stage, artifact); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return nil
}

func (r *Runner) fail(res *Result, stage string, err error) (*Result, error) {
	res.State = StateFailed
	r.logger.Error("run failed", "run_id", res.RunID, "stage", stage, "error", err)
	return res, fmt.Errorf("%s stage: %w", stage, err)
}
