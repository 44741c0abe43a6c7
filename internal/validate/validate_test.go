package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"sensorpipe/internal/dataset"
)

func writeSchema(t *testing.T, dir string, columns int, numeric []string) string {
	t.Helper()
	path := filepath.Join(dir, "schema.yaml")
	data, err := yaml.Marshal(Schema{Columns: columns, NumericalColumns: numeric})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePartition(t *testing.T, path string, offset int) {
	t.Helper()
	f := &dataset.Frame{Columns: []string{"s1", "class"}}
	for i := 0; i < 30; i++ {
		label := "neg"
		if i%2 == 0 {
			label = "pos"
		}
		f.Rows = append(f.Rows, []string{fmt.Sprintf("%d", i+offset), label})
	}
	if err := dataset.WriteCSV(f, path); err != nil {
		t.Fatal(err)
	}
}

func gateConfig(dir, schemaPath string) Config {
	return Config{
		SchemaPath:       schemaPath,
		ValidTrainPath:   filepath.Join(dir, "validated", "train.csv"),
		ValidTestPath:    filepath.Join(dir, "validated", "test.csv"),
		InvalidTrainPath: filepath.Join(dir, "invalid", "train.csv"),
		InvalidTestPath:  filepath.Join(dir, "invalid", "test.csv"),
		DriftReportPath:  filepath.Join(dir, "drift_report", "drift_report.yaml"),
		DriftThreshold:   0.05,
	}
}

func TestGate_PassingRun(t *testing.T) {
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writePartition(t, trainPath, 0)
	writePartition(t, testPath, 0)
	cfg := gateConfig(dir, writeSchema(t, dir, 2, []string{"s1"}))

	art, err := New(cfg, discard()).Run(trainPath, testPath)
	if err != nil {
		t.Fatal(err)
	}

	if !art.Passed {
		t.Error("identical partitions should pass the drift gate")
	}
	if !art.SchemaOK {
		t.Error("conforming partitions should pass the structural check")
	}
	for _, p := range []string{cfg.ValidTrainPath, cfg.ValidTestPath, cfg.DriftReportPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected output %s: %v", p, err)
		}
	}

	var report map[string]ColumnDrift
	data, err := os.ReadFile(cfg.DriftReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := yaml.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if report["s1"].Drifted {
		t.Error("report should show s1 undrifted")
	}
}

func TestGate_DriftedStillRoutesToValidated(t *testing.T) {
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writePartition(t, trainPath, 0)
	writePartition(t, testPath, 100000)
	cfg := gateConfig(dir, writeSchema(t, dir, 2, []string{"s1"}))

	art, err := New(cfg, discard()).Run(trainPath, testPath)
	if err != nil {
		t.Fatal(err)
	}

	if art.Passed {
		t.Error("shifted test partition should fail the drift gate")
	}
	// routing does not depend on the verdict: data still lands in validated
	if _, err := os.Stat(cfg.ValidTrainPath); err != nil {
		t.Errorf("train partition not routed to validated: %v", err)
	}
	if _, err := os.Stat(cfg.ValidTestPath); err != nil {
		t.Errorf("test partition not routed to validated: %v", err)
	}
	if _, err := os.Stat(cfg.InvalidTrainPath); err == nil {
		t.Error("invalid path should never be written")
	}
}

func TestGate_StructuralMismatchIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train.csv")
	testPath := filepath.Join(dir, "test.csv")
	writePartition(t, trainPath, 0)
	writePartition(t, testPath, 0)
	// schema expects more columns than the data carries
	cfg := gateConfig(dir, writeSchema(t, dir, 5, []string{"s1", "missing"}))

	art, err := New(cfg, discard()).Run(trainPath, testPath)
	if err != nil {
		t.Fatal(err)
	}
	if art.SchemaOK {
		t.Error("structural mismatch should be reported")
	}
	if !art.Passed {
		t.Error("structural mismatch must not flip the drift verdict")
	}
}

func TestGate_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	cfg := gateConfig(dir, writeSchema(t, dir, 2, nil))

	if _, err := New(cfg, discard()).Run(filepath.Join(dir, "no.csv"), filepath.Join(dir, "no2.csv")); err == nil {
		t.Error("missing input must be fatal")
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, 3, []string{"a", "b"})

	s, err := LoadSchema(path)
	if err != nil {
		t.Fatal(err)
	}
	want := &Schema{Columns: 3, NumericalColumns: []string{"a", "b"}}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadSchema(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing schema")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("columns: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSchema(bad); err == nil {
		t.Error("expected error for non-positive column count")
	}
}
