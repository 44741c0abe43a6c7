package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything a pipeline run needs that is not derived from the
// run identity: data source locators, gate thresholds and output roots.
type Config struct {
	MongoURI        string `yaml:"mongo_uri" json:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database" json:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection" json:"mongo_collection"`
	FallbackPath    string `yaml:"fallback_path" json:"fallback_path"`

	SchemaPath   string `yaml:"schema_path" json:"schema_path"`
	ArtifactRoot string `yaml:"artifact_root" json:"artifact_root"`
	LedgerPath   string `yaml:"ledger_path" json:"ledger_path"`

	TargetColumn string  `yaml:"target_column" json:"target_column"`
	SplitRatio   float64 `yaml:"split_ratio" json:"split_ratio"`
	Seed         int64   `yaml:"seed" json:"seed"`

	DriftThreshold     float64 `yaml:"drift_threshold" json:"drift_threshold"`
	ExpectedScore      float64 `yaml:"expected_score" json:"expected_score"`
	MaxScoreDivergence float64 `yaml:"max_score_divergence" json:"max_score_divergence"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		FallbackPath:       "data/sensor.csv",
		SchemaPath:         "config/schema.yaml",
		ArtifactRoot:       "artifacts",
		LedgerPath:         "artifacts/lineage.db",
		TargetColumn:       "class",
		SplitRatio:         0.2,
		Seed:               42,
		DriftThreshold:     0.05,
		ExpectedScore:      0.6,
		MaxScoreDivergence: 0.1,
	}
}

// LoadConfig reads a config file (YAML or JSON) over the defaults.
// Format is detected by extension (.yaml/.yml → YAML, .json → JSON) or by
// content (first non-whitespace char).
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}
	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		return fmt.Errorf("config: split_ratio %v outside (0, 1)", c.SplitRatio)
	}
	if c.DriftThreshold < 0 || c.DriftThreshold > 1 {
		return fmt.Errorf("config: drift_threshold %v outside [0, 1]", c.DriftThreshold)
	}
	if c.ArtifactRoot == "" {
		return fmt.Errorf("config: artifact_root is required")
	}
	if c.TargetColumn == "" {
		return fmt.Errorf("config: target_column is required")
	}
	return nil
}
