// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/meshintel/scopus-harvest/internal/dataset"
	"github.com/meshintel/scopus-harvest/internal/resolve"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Map staff to Scopus author IDs without harvesting",
	Long: `Resolve applies the identifier ladder (profile URL, then ORCID lookup,
then surname/affiliation search) to each staff member and reports the
outcome, without querying publication counts. Ambiguous matches are
written to the artifacts directory for review.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("roster", "", "CSV staff roster (name, email or ORCID, Scopus ID or NA, department)")
	resolveCmd.Flags().String("directory", "", "JSON staff directory exported from the faculty site")
	resolveCmd.Flags().String("faculty", "", "restrict the run to one faculty (directory input only)")
	resolveCmd.Flags().Duration("delay", 0, "minimum interval between Scopus requests (default 500ms)")
	resolveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	resolveCmd.Flags().String("artifacts-dir", defaultArtifactsDir, "directory for review artifacts")
	resolveCmd.Flags().String("institution", "", "home institution name for affiliation checks")
	resolveCmd.Flags().String("name-rules", "", "YAML file overriding the built-in honorific and surname tables")
	resolveCmd.Flags().String("api-key", "", "Scopus API key (default: .secrets/scopus-api-key)")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	rosterPath, _ := cmd.Flags().GetString("roster")
	directoryPath, _ := cmd.Flags().GetString("directory")
	if rosterPath == "" && directoryPath == "" {
		return fmt.Errorf("provide a staff population via --roster or --directory")
	}
	if rosterPath != "" && directoryPath != "" {
		return fmt.Errorf("--roster and --directory are mutually exclusive")
	}

	client, err := newScopusClient(cmd)
	if err != nil {
		return err
	}

	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	rules := resolve.DefaultNameRules()
	if path, _ := cmd.Flags().GetString("name-rules"); path != "" {
		rules, err = resolve.LoadNameRules(path)
		if err != nil {
			return fmt.Errorf("loading name rules: %w", err)
		}
	}

	institution, _ := cmd.Flags().GetString("institution")
	resolver := &resolve.Resolver{
		Client:      client,
		Institution: institution,
		Rules:       rules,
		Wait:        limiter.Wait,
	}

	staff, err := loadStaff(cmd, rosterPath, directoryPath)
	if err != nil {
		return err
	}

	var resolved, unresolved int
	var ambiguities []types.AmbiguityCase

	for _, member := range staff {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		if member.KnownAuthorID != "" {
			fmt.Printf("%s <%s>: %s (roster)\n", member.Name, member.Email, member.KnownAuthorID)
			resolved++
			continue
		}

		res, err := resolver.Resolve(cmd.Context(), member)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s <%s>: resolution failed: %v\n", member.Name, member.Email, err)
			unresolved++
			continue
		}

		switch {
		case res.Ambiguity != nil:
			fmt.Printf("%s <%s>: ambiguous, %d candidates (recommended %s)\n",
				member.Name, member.Email, len(res.Ambiguity.Candidates), res.Ambiguity.Recommended)
			ambiguities = append(ambiguities, *res.Ambiguity)
			unresolved++
		case res.Resolved():
			fmt.Printf("%s <%s>: %s (%s)\n", member.Name, member.Email, res.Identifier.ID, res.Identifier.Method)
			resolved++
		default:
			fmt.Printf("%s <%s>: not found\n", member.Name, member.Email)
			unresolved++
		}
	}

	if len(ambiguities) > 0 {
		artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")
		path := filepath.Join(artifactsDir, "ambiguous-matches.json")
		if err := dataset.WriteArtifact(path, ambiguities); err != nil {
			return err
		}
		fmt.Printf("Wrote %d ambiguous matches to %s\n", len(ambiguities), path)
	}

	fmt.Printf("\n%d resolved, %d unresolved of %d staff\n", resolved, unresolved, len(staff))
	return nil
}
