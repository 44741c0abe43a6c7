package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sensorpipe/internal/ledger"
	"sensorpipe/internal/pipeline"
)

var lineageFlags struct {
	ledgerPath string
}

var lineageCmd = &cobra.Command{
	Use:   "lineage <run-id>",
	Short: "Show the recorded stage artifacts for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runLineage,
}

func init() {
	lineageCmd.Flags().StringVar(&lineageFlags.ledgerPath, "ledger", pipeline.Default().LedgerPath, "Lineage ledger path")
}

func runLineage(cmd *cobra.Command, args []string) error {
	store, err := ledger.Open(lineageFlags.ledgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Artifacts(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no recorded stages for run %s", args[0])
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"stage":      e.Stage,
			"created_at": e.CreatedAt,
			"artifact":   json.RawMessage(e.Artifact),
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
