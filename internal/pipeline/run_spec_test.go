package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/ingest"
	"sensorpipe/internal/ledger"
	"sensorpipe/internal/source"
	"sensorpipe/internal/validate"
)

// sensorFrame builds a separable binary dataset with the missing-value
// sentinel sprinkled into one feature column.
func sensorFrame(rows int) *dataset.Frame {
	f := &dataset.Frame{Columns: []string{"s1", "s2", "class"}}
	for i := 0; i < rows; i++ {
		label := "neg"
		s1 := fmt.Sprintf("%d", i)
		if i%2 == 0 {
			label = "pos"
			s1 = fmt.Sprintf("%d", i+1000)
		}
		s2 := "1.5"
		if i%9 == 0 {
			s2 = "na"
		}
		f.Rows = append(f.Rows, []string{s1, s2, label})
	}
	return f
}

var _ = ginkgo.Describe("Runner", func() {
	var (
		dir   string
		cfg   Config
		store *ledger.Store
		start time.Time
	)

	ginkgo.BeforeEach(func() {
		dir = ginkgo.GinkgoT().TempDir()

		schemaPath := filepath.Join(dir, "schema.yaml")
		data, err := yaml.Marshal(validate.Schema{Columns: 3, NumericalColumns: []string{"s1", "s2"}})
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(schemaPath, data, 0644)).To(gomega.Succeed())

		cfg = Default()
		cfg.SchemaPath = schemaPath
		cfg.ArtifactRoot = filepath.Join(dir, "artifacts")
		cfg.FallbackPath = filepath.Join(dir, "missing_fallback.csv")

		store, err = ledger.Open(filepath.Join(dir, "lineage.db"))
		gomega.Expect(err).To(gomega.Succeed())
		ginkgo.DeferCleanup(func() { _ = store.Close() })

		start = time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	})

	ginkgo.It("runs all four stages and records the lineage", func() {
		fetcher := source.NewStubFetcher(sensorFrame(120))
		runner := NewRunner(cfg, fetcher, store, nil)

		res, err := runner.RunAt(context.Background(), start)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(res.State).To(gomega.Equal(StateDone))
		gomega.Expect(res.RunID).To(gomega.Equal("08_23_2026_10_30_00"))

		runDir := filepath.Join(cfg.ArtifactRoot, res.RunID)
		for _, rel := range []string{
			filepath.Join("ingestion", "feature_store", "sensor.csv"),
			filepath.Join("ingestion", "ingested", "train.csv"),
			filepath.Join("ingestion", "ingested", "test.csv"),
			filepath.Join("validation", "validated", "train.csv"),
			filepath.Join("validation", "validated", "test.csv"),
			filepath.Join("validation", "drift_report", "drift_report.yaml"),
			filepath.Join("transformation", "transformed", "train.npb"),
			filepath.Join("transformation", "transformed", "test.npb"),
			filepath.Join("transformation", "object", "preprocess.gob"),
			filepath.Join("training", "model", "model.gob"),
		} {
			_, err := os.Stat(filepath.Join(runDir, rel))
			gomega.Expect(err).To(gomega.Succeed(), "expected artifact %s", rel)
		}

		// the invalid branch is a path only, never materialized
		_, err = os.Stat(filepath.Join(runDir, "validation", "invalid"))
		gomega.Expect(os.IsNotExist(err)).To(gomega.BeTrue())

		entries, err := store.Artifacts(res.RunID)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(entries).To(gomega.HaveLen(4))
		stages := []string{entries[0].Stage, entries[1].Stage, entries[2].Stage, entries[3].Stage}
		gomega.Expect(stages).To(gomega.Equal([]string{"ingestion", "validation", "transformation", "training"}))

		gomega.Expect(res.Train.TrainMetrics.F1).To(gomega.BeNumerically(">=", cfg.ExpectedScore))
	})

	ginkgo.It("aborts at ingestion when both record sources fail", func() {
		fetcher := &source.StubFetcher{Err: errors.New("primary down")}
		runner := NewRunner(cfg, fetcher, store, nil)

		res, err := runner.RunAt(context.Background(), start)
		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(errors.Is(err, ingest.ErrBothSourcesFailed)).To(gomega.BeTrue())
		gomega.Expect(res.State).To(gomega.Equal(StateFailed))

		entries, lerr := store.Artifacts(res.RunID)
		gomega.Expect(lerr).To(gomega.Succeed())
		gomega.Expect(entries).To(gomega.BeEmpty())

		// no downstream artifact may exist after a first-stage failure
		_, serr := os.Stat(filepath.Join(cfg.ArtifactRoot, res.RunID, "training"))
		gomega.Expect(os.IsNotExist(serr)).To(gomega.BeTrue())
	})
})
