// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the harvest: it walks the staff population in
// input order, resolves each member to a Scopus author ID, queries every
// year in the configured range, and assembles per-staff publication
// records. The whole run is sequential on purpose — Scopus's usage policy
// asks for low concurrency, so a single rate limiter paces every external
// call rather than fanning out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/time/rate"

	"github.com/meshintel/scopus-harvest/internal/metrics"
	"github.com/meshintel/scopus-harvest/internal/resolve"
	"github.com/meshintel/scopus-harvest/internal/scopus"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

// Stats aggregates run-level numbers across the batch.
type Stats struct {
	TotalStaff        int
	Resolved          int
	Unresolved        int
	TotalPublications int
	SuccessfulQueries int
	FailedQueries     int
	YearTotals        map[int]int
}

// AveragePerResolved returns publications per resolvable staff member.
func (s Stats) AveragePerResolved() float64 {
	if s.Resolved == 0 {
		return 0
	}
	return float64(s.TotalPublications) / float64(s.Resolved)
}

// Outcome holds everything one run produces: the publication records in
// processing order, the review artifacts, and the summary statistics.
type Outcome struct {
	Results      []types.PublicationRecord
	Inaccessible []types.StaffRecord
	Ambiguities  []types.AmbiguityCase
	Mismatches   []types.IDMismatch
	Stats        Stats
}

// Orchestrator runs the harvest for a staff population.
type Orchestrator struct {
	client   *scopus.Client
	resolver *resolve.Resolver
	cfg      types.PipelineConfig
	limiter  *rate.Limiter
}

// New builds an orchestrator. The inter-request delay becomes a rate
// limiter shared by resolution lookups, count queries, and metrics pages.
// Name rules come from cfg.NameRulesPath when set, otherwise the built-in
// tables.
func New(client *scopus.Client, cfg types.PipelineConfig) (*Orchestrator, error) {
	rules := resolve.DefaultNameRules()
	if cfg.NameRulesPath != "" {
		var err error
		rules, err = resolve.LoadNameRules(cfg.NameRulesPath)
		if err != nil {
			return nil, err
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.InterRequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.InterRequestDelay), 1)
	}

	o := &Orchestrator{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
	}
	o.resolver = &resolve.Resolver{
		Client:      client,
		Institution: cfg.Institution,
		Rules:       rules,
		Wait:        limiter.Wait,
	}
	return o, nil
}

// Run processes the staff list sequentially, reporting progress to w.
// Per-staff and per-year failures are captured in the outcome and the
// batch continues; only context cancellation stops the run early.
func (o *Orchestrator) Run(ctx context.Context, staff []types.StaffRecord, w io.Writer) (Outcome, error) {
	out := Outcome{Stats: Stats{YearTotals: make(map[int]int)}}

	for _, member := range staff {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Stats.TotalStaff++

		fmt.Fprintf(w, "resolving: %s <%s>\n", member.Name, member.Email)

		id, mismatch, ambiguity := o.resolveStaff(ctx, member, w)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if mismatch != nil {
			out.Mismatches = append(out.Mismatches, *mismatch)
		}
		if ambiguity != nil {
			out.Ambiguities = append(out.Ambiguities, *ambiguity)
		}

		if id.ID == "" {
			fmt.Fprintf(w, "  no identifier found\n")
			out.Stats.Unresolved++
			out.Inaccessible = append(out.Inaccessible, member)
			out.Results = append(out.Results, types.PublicationRecord{
				Name:           member.Name,
				Email:          member.Email,
				Faculty:        member.Faculty,
				Department:     member.Department,
				ScopusAuthorID: types.NASentinel,
				Years:          []types.YearlyPublicationCount{},
			})
			continue
		}

		fmt.Fprintf(w, "  resolved %s (%s)\n", id.ID, id.Method)
		out.Stats.Resolved++

		rec := o.harvestYears(ctx, member, id, w, &out.Stats)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		if o.cfg.WithMetrics {
			m, err := metrics.AuthorMetrics(ctx, o.client, id.ID, o.limiter.Wait, w)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return out, err
				}
				fmt.Fprintf(w, "  warning: metrics for %s failed: %v\n", id.ID, err)
			} else {
				rec.Metrics = &m
			}
		}

		out.Results = append(out.Results, rec)
	}

	fmt.Fprintf(w, "\nRun summary: %d staff, %d resolved, %d unresolved, %d publications (%.1f per resolved), %d/%d queries failed\n",
		out.Stats.TotalStaff, out.Stats.Resolved, out.Stats.Unresolved,
		out.Stats.TotalPublications, out.Stats.AveragePerResolved(),
		out.Stats.FailedQueries, out.Stats.SuccessfulQueries+out.Stats.FailedQueries)

	return out, nil
}

// resolveStaff applies the resolution ladder for one staff member. A
// roster-carried author ID short-circuits the network lookups: only the
// free profile-URL extraction runs alongside it, to surface mismatches
// between the roster and the directory.
func (o *Orchestrator) resolveStaff(ctx context.Context, member types.StaffRecord, w io.Writer) (types.AuthorIdentifier, *types.IDMismatch, *types.AmbiguityCase) {
	if member.KnownAuthorID != "" {
		id := types.AuthorIdentifier{ID: member.KnownAuthorID, Method: types.ResolvedFromProfileURL}
		if urlID, ok := resolve.FromProfileURL(member.ScopusURL); ok && urlID != member.KnownAuthorID {
			return id, &types.IDMismatch{
				Name:       member.Name,
				Email:      member.Email,
				RosterID:   member.KnownAuthorID,
				ResolvedID: urlID,
			}, nil
		}
		return id, nil, nil
	}

	res, err := o.resolver.Resolve(ctx, member)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(w, "  warning: resolution failed: %v\n", err)
		}
		return types.AuthorIdentifier{}, nil, nil
	}

	if res.Ambiguity != nil {
		fmt.Fprintf(w, "  ambiguous: %d candidates, flagged for review (recommended %s)\n",
			len(res.Ambiguity.Candidates), res.Ambiguity.Recommended)
		return types.AuthorIdentifier{}, nil, res.Ambiguity
	}

	return res.Identifier, nil, nil
}

// harvestYears queries each year in ascending order for one resolved
// staff member. Failed years are recorded with their error message and
// contribute nothing to the totals.
func (o *Orchestrator) harvestYears(ctx context.Context, member types.StaffRecord, id types.AuthorIdentifier, w io.Writer, stats *Stats) types.PublicationRecord {
	rec := types.PublicationRecord{
		Name:           member.Name,
		Email:          member.Email,
		Faculty:        member.Faculty,
		Department:     member.Department,
		ScopusAuthorID: id.ID,
		Method:         id.Method,
		Years:          []types.YearlyPublicationCount{},
	}

	for year := o.cfg.FromYear; year <= o.cfg.ToYear; year++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return rec
		}

		count, err := o.client.CountForYear(ctx, id.ID, year)
		if err != nil {
			if ctx.Err() != nil {
				return rec
			}
			fmt.Fprintf(w, "  %d: query failed: %v\n", year, err)
			rec.Years = append(rec.Years, types.YearlyPublicationCount{
				Year:  year,
				Error: err.Error(),
			})
			stats.FailedQueries++
			continue
		}

		fmt.Fprintf(w, "  %d: %d publications\n", year, count)
		rec.Years = append(rec.Years, types.YearlyPublicationCount{
			Year:    year,
			Count:   count,
			Success: true,
		})
		rec.TotalPublications += count
		stats.SuccessfulQueries++
		stats.TotalPublications += count
		stats.YearTotals[year] += count
	}

	return rec
}
