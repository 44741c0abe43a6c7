// Package validate implements the validation gate: structural conformance
// against the declared schema, per-column distributional drift between the
// train and test partitions, and routing of the partitions into validated
// storage.
package validate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/logging"
)

// Config holds the stage's immutable inputs.
type Config struct {
	SchemaPath       string
	ValidTrainPath   string
	ValidTestPath    string
	InvalidTrainPath string
	InvalidTestPath  string
	DriftReportPath  string
	DriftThreshold   float64
}

// Artifact records the verdicts and where the partitions landed.
type Artifact struct {
	Passed           bool   `json:"passed"`
	SchemaOK         bool   `json:"schema_ok"`
	ValidTrainPath   string `json:"valid_train_path"`
	ValidTestPath    string `json:"valid_test_path"`
	InvalidTrainPath string `json:"invalid_train_path"`
	InvalidTestPath  string `json:"invalid_test_path"`
	DriftReportPath  string `json:"drift_report_path"`
}

// Gate is the stage runner.
type Gate struct {
	cfg    Config
	logger *slog.Logger
}

// New builds the stage; logger nil means the component default.
func New(cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = logging.New("validation")
	}
	return &Gate{cfg: cfg, logger: logger}
}

// Run validates the two partitions. Missing or unreadable inputs are fatal;
// structural mismatches are advisory; the pass/fail verdict comes from the
// drift check alone. Both partitions are routed to the validated location
// regardless of the verdict; the verdict travels on the artifact only.
func (g *Gate) Run(trainPath, testPath string) (*Artifact, error) {
	train, err := dataset.ReadCSV(trainPath)
	if err != nil {
		return nil, fmt.Errorf("load train partition: %w", err)
	}
	test, err := dataset.ReadCSV(testPath)
	if err != nil {
		return nil, fmt.Errorf("load test partition: %w", err)
	}

	schema, err := LoadSchema(g.cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	schemaOK := g.checkStructure(train, "train", schema) && g.checkStructure(test, "test", schema)

	passed, report := DetectDrift(train, test, g.cfg.DriftThreshold, g.logger)
	g.logger.Info("drift check complete", "passed", passed, "columns", len(report))

	if err := g.writeDriftReport(report); err != nil {
		return nil, err
	}

	if err := dataset.WriteCSV(train, g.cfg.ValidTrainPath); err != nil {
		return nil, fmt.Errorf("route train partition: %w", err)
	}
	if err := dataset.WriteCSV(test, g.cfg.ValidTestPath); err != nil {
		return nil, fmt.Errorf("route test partition: %w", err)
	}

	return &Artifact{
		Passed:           passed,
		SchemaOK:         schemaOK,
		ValidTrainPath:   g.cfg.ValidTrainPath,
		ValidTestPath:    g.cfg.ValidTestPath,
		InvalidTrainPath: g.cfg.InvalidTrainPath,
		InvalidTestPath:  g.cfg.InvalidTestPath,
		DriftReportPath:  g.cfg.DriftReportPath,
	}, nil
}

// checkStructure reports whether the partition matches the schema. Failures
// are logged, not fatal.
func (g *Gate) checkStructure(frame *dataset.Frame, name string, schema *Schema) bool {
	ok := true
	if frame.NumCols() != schema.Columns {
		g.logger.Warn("column count mismatch",
			"partition", name, "got", frame.NumCols(), "want", schema.Columns)
		ok = false
	}
	for _, col := range schema.NumericalColumns {
		vals, _, err := frame.NumericColumn(col)
		if err != nil {
			g.logger.Warn("declared numeric column missing", "partition", name, "column", col)
			ok = false
			continue
		}
		if len(vals) == 0 {
			g.logger.Warn("declared numeric column has no numeric values",
				"partition", name, "column", col)
			ok = false
		}
	}
	return ok
}

func (g *Gate) writeDriftReport(report map[string]ColumnDrift) error {
	if err := os.MkdirAll(filepath.Dir(g.cfg.DriftReportPath), 0755); err != nil {
		return fmt.Errorf("create drift report dir: %w", err)
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal drift report: %w", err)
	}
	if err := os.WriteFile(g.cfg.DriftReportPath, data, 0644); err != nil {
		return fmt.Errorf("write drift report: %w", err)
	}
	return nil
}
