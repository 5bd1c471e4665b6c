// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/scopus-harvest/internal/archive"
	"github.com/meshintel/scopus-harvest/internal/dataset"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

const defaultArchiveDir = "archive"

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Mirror datasets into a local SQLite database",
	Long: `Archive maintains a SQLite mirror of harvested datasets for ad-hoc
queries. The store subcommand ingests a dataset file; query reads records
back filtered by faculty, department, or minimum publication count.`,
}

var archiveStoreCmd = &cobra.Command{
	Use:   "store [dataset-file]",
	Short: "Ingest a dataset file into the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveStore,
}

var archiveQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query archived records, most published first",
	RunE:  runArchiveQuery,
}

func init() {
	archiveCmd.PersistentFlags().String("archive-dir", defaultArchiveDir, "directory containing harvest.db")

	archiveQueryCmd.Flags().String("faculty", "", "filter by faculty")
	archiveQueryCmd.Flags().String("department", "", "filter by department")
	archiveQueryCmd.Flags().Int("min-publications", 0, "minimum total publication count")
	archiveQueryCmd.Flags().Int("limit", 0, "maximum number of results (default 20)")

	archiveCmd.AddCommand(archiveStoreCmd)
	archiveCmd.AddCommand(archiveQueryCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openStore(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	return archive.NewStore(types.ArchiveConfig{ArchiveDir: dir})
}

func runArchiveStore(cmd *cobra.Command, args []string) error {
	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	if len(ds.Results) == 0 {
		return fmt.Errorf("dataset %s holds no records", args[0])
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), ds, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("Archived %d record(s) from %s", summary.Stored, args[0])
	if summary.Failed > 0 {
		fmt.Printf(", %d failed", summary.Failed)
	}
	fmt.Println()

	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed ingestion", summary.Failed)
	}
	return nil
}

func runArchiveQuery(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	faculty, _ := cmd.Flags().GetString("faculty")
	department, _ := cmd.Flags().GetString("department")
	minPublications, _ := cmd.Flags().GetInt("min-publications")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := store.Query(cmd.Context(), archive.QueryOptions{
		Faculty:         faculty,
		Department:      department,
		MinPublications: minPublications,
		Limit:           limit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No matching records.")
		return nil
	}

	for i, rec := range records {
		fmt.Printf("%d. %s <%s> (%s, %s)\n", i+1, rec.Name, rec.Email, rec.Faculty, rec.Department)
		fmt.Printf("   author %s, %d publications", rec.ScopusAuthorID, rec.TotalPublications)
		if rec.Metrics != nil {
			fmt.Printf(", h-index %d, %d citations", rec.Metrics.HIndex, rec.Metrics.CitationCount)
		}
		fmt.Println()
	}
	return nil
}
