package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sensorpipe/internal/ledger"
	"sensorpipe/internal/logging"
	"sensorpipe/internal/pipeline"
	"sensorpipe/internal/source"
)

var trainFlags struct {
	configPath   string
	artifactRoot string
	mongoURI     string
	fallbackPath string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the full pipeline and train a model",
	Long: `Run all four stages for a new run id: acquire sensor records, validate
them, transform them into matrices, and train the gated classifier.

Records come from MongoDB when a locator is configured, with the CSV
snapshot as fallback. Every stage artifact is recorded in the lineage
ledger under the new run id.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainFlags.configPath, "config", "c", "", "Pipeline config file (YAML/JSON; defaults apply without it)")
	f.StringVar(&trainFlags.artifactRoot, "artifact-root", "", "Override the artifact output root")
	f.StringVar(&trainFlags.mongoURI, "mongo-uri", "", "Override the MongoDB connection URI")
	f.StringVar(&trainFlags.fallbackPath, "fallback", "", "Override the snapshot CSV fallback path")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := pipeline.Default()
	if trainFlags.configPath != "" {
		loaded, err := pipeline.LoadConfig(trainFlags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if trainFlags.artifactRoot != "" {
		cfg.ArtifactRoot = trainFlags.artifactRoot
	}
	if trainFlags.mongoURI != "" {
		cfg.MongoURI = trainFlags.mongoURI
	}
	if trainFlags.fallbackPath != "" {
		cfg.FallbackPath = trainFlags.fallbackPath
	}

	logger := logging.New("cli")
	var fetcher source.Fetcher
	if cfg.MongoURI != "" {
		mf, err := source.NewMongoFetcher(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection,
			source.WithLogger(logger))
		if err != nil {
			return err
		}
		fetcher = mf
	} else {
		logger.Info("no mongo locator configured, reading the snapshot directly",
			"path", cfg.FallbackPath)
		fetcher = source.NewSnapshotFetcher(cfg.FallbackPath)
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := pipeline.NewRunner(cfg, fetcher, store, nil).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run %s: %w", res.RunID, err)
	}

	out := map[string]any{
		"run_id":        res.RunID,
		"model_path":    res.Train.ModelPath,
		"train_metrics": res.Train.TrainMetrics,
		"test_metrics":  res.Train.TestMetrics,
		"drift_passed":  res.Validate.Passed,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
