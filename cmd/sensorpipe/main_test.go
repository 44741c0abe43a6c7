package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/validate"
)

func writeSnapshot(t *testing.T, path string, rows int) {
	t.Helper()
	f := &dataset.Frame{Columns: []string{"s1", "s2", "class"}}
	for i := 0; i < rows; i++ {
		label := "neg"
		s1 := fmt.Sprintf("%d", i)
		if i%2 == 0 {
			label = "pos"
			s1 = fmt.Sprintf("%d", i+1000)
		}
		f.Rows = append(f.Rows, []string{s1, "1.5", label})
	}
	if err := dataset.WriteCSV(f, path); err != nil {
		t.Fatal(err)
	}
}

func TestTrainCommand_SnapshotSource(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "sensor.csv")
	writeSnapshot(t, snapshot, 120)

	schemaPath := filepath.Join(dir, "schema.yaml")
	data, err := yaml.Marshal(validate.Schema{Columns: 3, NumericalColumns: []string{"s1", "s2"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(schemaPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "pipeline.yaml")
	body := fmt.Sprintf(
		"fallback_path: %s\nschema_path: %s\nartifact_root: %s\nledger_path: %s\n",
		snapshot, schemaPath,
		filepath.Join(dir, "artifacts"), filepath.Join(dir, "lineage.db"))
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"train", "-c", configPath, "--log-level", "error"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("train command: %v", err)
	}

	models, err := filepath.Glob(filepath.Join(dir, "artifacts", "*", "training", "model", "model.gob"))
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 1 {
		t.Fatalf("model bundles found = %d, want 1", len(models))
	}
}
