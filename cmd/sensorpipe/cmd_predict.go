package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"sensorpipe/internal/dataset"
	"sensorpipe/internal/train"
)

var predictFlags struct {
	modelPath string
}

var predictCmd = &cobra.Command{
	Use:   "predict <records.csv>",
	Short: "Classify raw sensor records with a trained model bundle",
	Long: `Load a persisted model bundle and classify the sensor records in the
given CSV. Every column is treated as a feature; missing values ('na' or
empty cells) are imputed by the bundle's preprocessing transform.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictFlags.modelPath, "model", "m", "", "Path to the model bundle (required)")
	_ = predictCmd.MarkFlagRequired("model")
}

func runPredict(cmd *cobra.Command, args []string) error {
	bundle, err := train.LoadBundle(predictFlags.modelPath)
	if err != nil {
		return err
	}

	frame, err := dataset.ReadCSV(args[0])
	if err != nil {
		return err
	}
	frame.ReplaceSentinel(dataset.Sentinel)

	rows := make([][]float64, frame.NumRows())
	for i, raw := range frame.Rows {
		row := make([]float64, len(raw))
		for j, cell := range raw {
			if cell == "" {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", i, frame.Columns[j], err)
			}
			row[j] = v
		}
		rows[i] = row
	}

	labels, err := bundle.Predict(rows)
	if err != nil {
		return err
	}

	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = dataset.ReverseTarget(label)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
