// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics computes citation metrics for resolved authors by
// paginating citation-sorted document lists.
package metrics

import (
	"context"
	"fmt"
	"io"

	"github.com/meshintel/scopus-harvest/internal/scopus"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

// AuthorMetrics computes the h-index and total citation count for one
// author from citedby-sorted pages. Both values are bounded by the page
// budget (pages × page size papers), a deliberate accuracy/cost tradeoff:
// fetching an author's entire corpus is expensive, and papers beyond the
// top N rarely move either number.
//
// A page fetch error aborts further pagination but returns the totals
// accumulated so far; the partial result is reported to w, not retried.
// wait, when set, paces the per-page requests.
func AuthorMetrics(ctx context.Context, client *scopus.Client, authorID string, wait func(context.Context) error, w io.Writer) (types.AuthorMetrics, error) {
	var m types.AuthorMetrics
	rank := 0 // global rank across pages, 1-indexed once incremented

	for page := 0; page < client.MaxMetricsPages(); page++ {
		if wait != nil {
			if err := wait(ctx); err != nil {
				return m, err
			}
		}

		entries, err := client.WorksPage(ctx, authorID, page)
		if err != nil {
			if ctx.Err() != nil {
				return m, ctx.Err()
			}
			fmt.Fprintf(w, "  warning: metrics page %d for %s failed, keeping partial totals: %v\n", page, authorID, err)
			return m, nil
		}

		for _, entry := range entries {
			rank++
			citations := entry.Citations()
			m.CitationCount += citations

			// Papers arrive sorted by descending citations, so the
			// h-index is the deepest rank whose paper still has at
			// least rank citations.
			if citations >= rank {
				m.HIndex = rank
			}
		}

		// A short page means the corpus is exhausted.
		if len(entries) < client.PageSize() {
			break
		}
	}

	return m, nil
}
