// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/meshintel/scopus-harvest/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [author-ids...]",
	Short: "Compute h-index and citation totals for Scopus author IDs",
	Long: `Metrics pages through each author's works in descending citation order
and computes the h-index and total citation count. The page budget caps
how much of the author's output is fetched, so both figures are
approximations based on the most-cited works.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().Duration("delay", 0, "minimum interval between Scopus requests (default 500ms)")
	metricsCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	metricsCmd.Flags().String("api-key", "", "Scopus API key (default: .secrets/scopus-api-key)")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more Scopus author IDs")
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

	var failed int
	for _, authorID := range args {
		m, err := metrics.AuthorMetrics(cmd.Context(), client, authorID, limiter.Wait, os.Stderr)
		if err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s: metrics failed: %v\n", authorID, err)
			failed++
			continue
		}
		fmt.Printf("%s: h-index %d, %d citations\n", authorID, m.HIndex, m.CitationCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d author(s) failed", failed)
	}
	return nil
}
