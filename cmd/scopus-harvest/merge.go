// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/scopus-harvest/internal/dataset"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [results-file]",
	Short: "Fold a results file into an existing dataset",
	Long: `Merge reads publication records from a results file (either a full
dataset or a bare JSON array of records) and folds them into the target
dataset. Records whose email already appears in the dataset are dropped,
existing records keep their positions, and the stored summary statistics
are updated additively, so re-merging the same file is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("out", defaultDatasetPath, "dataset file to merge into")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	results, err := loadResults(args[0])
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	before, err := dataset.Load(outPath)
	if err != nil {
		return err
	}

	ds, err := dataset.MergeFile(outPath, results)
	if err != nil {
		return err
	}

	added := len(ds.Results) - len(before.Results)
	fmt.Printf("Merged %d new record(s) into %s (%d duplicates dropped, %d total)\n",
		added, outPath, len(results)-added, len(ds.Results))
	return nil
}

// loadResults accepts either a full dataset file or a bare JSON array of
// publication records.
func loadResults(path string) ([]types.PublicationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}

	var records []types.PublicationRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ds.Results, nil
}
