package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	body := `
mongo_uri: mongodb://localhost:27017
mongo_database: sensors
mongo_collection: waferfault
expected_score: 0.8
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("mongo_uri = %q", cfg.MongoURI)
	}
	if cfg.ExpectedScore != 0.8 {
		t.Errorf("expected_score = %v, want overridden 0.8", cfg.ExpectedScore)
	}
	// unset keys keep their defaults
	if cfg.SplitRatio != Default().SplitRatio {
		t.Errorf("split_ratio = %v, want default %v", cfg.SplitRatio, Default().SplitRatio)
	}
}

func TestLoadConfig_JSONDetectedByContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.conf")
	if err := os.WriteFile(path, []byte(`{"target_column": "fault"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TargetColumn != "fault" {
		t.Errorf("target_column = %q, want fault", cfg.TargetColumn)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	for name, body := range map[string]string{
		"bad_ratio.yaml":  "split_ratio: 1.5\n",
		"bad_thresh.yaml": "drift_threshold: -0.1\n",
		"no_root.yaml":    "artifact_root: \"\"\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_FullRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Seed = 7
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
