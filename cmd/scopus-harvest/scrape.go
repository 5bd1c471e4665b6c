// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/scopus-harvest/internal/dataset"
	"github.com/meshintel/scopus-harvest/internal/pipeline"
	"github.com/meshintel/scopus-harvest/internal/scopus"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultDelay        = 500 * time.Millisecond
	defaultUserAgent    = "scopus-harvest/0.1"
	defaultArtifactsDir = "artifacts"
	defaultDatasetPath  = "data/publications.json"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Harvest per-year publication counts for a staff population",
	Long: `Scrape runs the full pipeline: it loads the staff population, resolves
each member to a Scopus author ID, queries publication counts for every
year in the range, and merges the results into the output dataset.
Unresolvable staff are kept in the dataset with an NA author ID; ambiguous
matches and roster/directory ID disagreements are written to the artifacts
directory for human review and never committed automatically.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().String("roster", "", "CSV staff roster (name, email or ORCID, Scopus ID or NA, department)")
	scrapeCmd.Flags().String("directory", "", "JSON staff directory exported from the faculty site")
	scrapeCmd.Flags().String("faculty", "", "restrict the run to one faculty (directory input only)")
	scrapeCmd.Flags().Int("from-year", 0, "first year of the range (inclusive)")
	scrapeCmd.Flags().Int("to-year", 0, "last year of the range (inclusive, default: current year)")
	scrapeCmd.Flags().String("out", defaultDatasetPath, "dataset file to merge results into")
	scrapeCmd.Flags().Duration("delay", 0, "minimum interval between Scopus requests (default 500ms)")
	scrapeCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	scrapeCmd.Flags().Bool("with-metrics", false, "also compute h-index and citation totals per author")
	scrapeCmd.Flags().String("artifacts-dir", defaultArtifactsDir, "directory for review artifacts")
	scrapeCmd.Flags().String("institution", "", "home institution name for affiliation checks")
	scrapeCmd.Flags().String("name-rules", "", "YAML file overriding the built-in honorific and surname tables")
	scrapeCmd.Flags().String("api-key", "", "Scopus API key (default: .secrets/scopus-api-key)")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	rosterPath, _ := cmd.Flags().GetString("roster")
	directoryPath, _ := cmd.Flags().GetString("directory")
	if rosterPath == "" && directoryPath == "" {
		return fmt.Errorf("provide a staff population via --roster or --directory")
	}
	if rosterPath != "" && directoryPath != "" {
		return fmt.Errorf("--roster and --directory are mutually exclusive")
	}

	fromYear, _ := cmd.Flags().GetInt("from-year")
	toYear, _ := cmd.Flags().GetInt("to-year")
	if toYear == 0 {
		toYear = time.Now().Year()
	}
	if fromYear == 0 {
		return fmt.Errorf("provide the first year of the range via --from-year")
	}
	if fromYear > toYear {
		return fmt.Errorf("--from-year %d is after --to-year %d", fromYear, toYear)
	}

	client, err := newScopusClient(cmd)
	if err != nil {
		return err
	}

	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	withMetrics, _ := cmd.Flags().GetBool("with-metrics")
	artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")
	institution, _ := cmd.Flags().GetString("institution")
	outPath, _ := cmd.Flags().GetString("out")

	nameRulesPath, _ := cmd.Flags().GetString("name-rules")

	staff, err := loadStaff(cmd, rosterPath, directoryPath)
	if err != nil {
		return err
	}
	if len(staff) == 0 {
		return fmt.Errorf("staff population is empty")
	}

	cfg := types.PipelineConfig{
		InterRequestDelay: delay,
		FromYear:          fromYear,
		ToYear:            toYear,
		Institution:       institution,
		WithMetrics:       withMetrics,
		ArtifactsDir:      artifactsDir,
		NameRulesPath:     nameRulesPath,
	}

	orch, err := pipeline.New(client, cfg)
	if err != nil {
		return fmt.Errorf("loading name rules: %w", err)
	}
	outcome, err := orch.Run(cmd.Context(), staff, os.Stdout)
	if err != nil {
		return err
	}

	if err := writeArtifacts(artifactsDir, outcome); err != nil {
		return err
	}

	ds, err := dataset.MergeFile(outPath, outcome.Results)
	if err != nil {
		return err
	}
	fmt.Printf("Dataset %s now holds %d staff records (scrape %s)\n",
		outPath, len(ds.Results), ds.Metadata.ScrapeID)
	return nil
}

// newScopusClient assembles the search client from flags and secrets.
func newScopusClient(cmd *cobra.Command) (*scopus.Client, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault("scopus-api-key", apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("no Scopus API key: pass --api-key or create .secrets/scopus-api-key")
	}

	cfg := types.ScopusConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		APIKey:    apiKey,
		InstToken: secretDefault("scopus-inst-token", ""),
	}
	return scopus.NewClient(&http.Client{Timeout: timeout}, cfg), nil
}

// loadStaff reads the population from whichever input was given.
func loadStaff(cmd *cobra.Command, rosterPath, directoryPath string) ([]types.StaffRecord, error) {
	if rosterPath != "" {
		staff, err := pipeline.LoadCSVRoster(rosterPath)
		if err != nil {
			return nil, fmt.Errorf("loading roster: %w", err)
		}
		return staff, nil
	}

	staff, err := pipeline.LoadDirectory(directoryPath)
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}
	faculty, _ := cmd.Flags().GetString("faculty")
	return pipeline.FilterFaculty(staff, faculty), nil
}

// writeArtifacts records the review artifacts from a run. Empty artifact
// lists are skipped so a clean run leaves nothing behind.
func writeArtifacts(dir string, outcome pipeline.Outcome) error {
	if len(outcome.Inaccessible) > 0 {
		path := filepath.Join(dir, "inaccessible-staff.json")
		if err := dataset.WriteArtifact(path, outcome.Inaccessible); err != nil {
			return err
		}
		fmt.Printf("Wrote %d inaccessible staff to %s\n", len(outcome.Inaccessible), path)
	}
	if len(outcome.Ambiguities) > 0 {
		path := filepath.Join(dir, "ambiguous-matches.json")
		if err := dataset.WriteArtifact(path, outcome.Ambiguities); err != nil {
			return err
		}
		fmt.Printf("Wrote %d ambiguous matches to %s\n", len(outcome.Ambiguities), path)
	}
	if len(outcome.Mismatches) > 0 {
		path := filepath.Join(dir, "id-mismatches.json")
		if err := dataset.WriteArtifact(path, outcome.Mismatches); err != nil {
			return err
		}
		fmt.Printf("Wrote %d roster ID mismatches to %s\n", len(outcome.Mismatches), path)
	}
	return nil
}
