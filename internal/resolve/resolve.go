// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps staff records to Scopus author identifiers. Three
// methods are tried in order: extraction from a Scopus profile URL (no
// network), ORCID lookup, and surname-plus-affiliation search. Lookups
// that fan out to several plausible profiles are surfaced as ambiguity
// cases for human review, never committed automatically.
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/meshintel/scopus-harvest/internal/scopus"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

// authorIDPattern matches Scopus's numeric author ID format.
var authorIDPattern = regexp.MustCompile(`^\d+$`)

// orcidPattern matches a normalized ORCID: four hyphen-separated groups
// of four characters, the final character optionally the "X" checksum.
var orcidPattern = regexp.MustCompile(`^[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{3}[0-9A-Za-zX]$`)

// Resolver resolves staff identities against the Scopus author catalogue.
type Resolver struct {
	Client *scopus.Client

	// Institution is the home-institution name; name and ORCID matches
	// must carry an affiliation containing it (case-insensitive).
	Institution string

	Rules NameRules

	// Wait, when set, is called before every network lookup so the
	// orchestrator's pacing covers resolver traffic too.
	Wait func(context.Context) error
}

// Result is the outcome of one resolution attempt. A zero Identifier.ID
// means no identifier was committed; Ambiguity is set when several
// plausible candidates were found.
type Result struct {
	Identifier types.AuthorIdentifier
	Ambiguity  *types.AmbiguityCase
}

// Resolved reports whether an identifier was committed.
func (r Result) Resolved() bool { return r.Identifier.ID != "" }

// FromProfileURL extracts the numeric authorId query parameter from a
// Scopus profile URL. An empty string, the "NA" sentinel, a URL without
// the parameter, or a non-numeric value all yield ok=false, never an
// error: absence of an identifier is an expected state, not a failure.
func FromProfileURL(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || rawURL == types.NASentinel {
		return "", false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	id := u.Query().Get("authorId")
	if !authorIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// NormalizeORCID extracts a bare ORCID from a profile URL or free-form
// value and validates it against the ORCID pattern.
func NormalizeORCID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == types.NASentinel {
		return "", false
	}

	// Accept full profile URLs: take the last path segment.
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if seg := strings.Trim(u.Path, "/"); seg != "" {
			parts := strings.Split(seg, "/")
			raw = parts[len(parts)-1]
		}
	}

	raw = strings.ToUpper(raw)
	if !orcidPattern.MatchString(raw) {
		return "", false
	}
	return raw, true
}

// Resolve tries each method in order for one staff record. Methods that
// find nothing fall through to the next; an ambiguous lookup stops the
// ladder and reports the case instead of committing an identifier.
func (r *Resolver) Resolve(ctx context.Context, staff types.StaffRecord) (Result, error) {
	if id, ok := FromProfileURL(staff.ScopusURL); ok {
		return Result{Identifier: types.AuthorIdentifier{
			ID:     id,
			Method: types.ResolvedFromProfileURL,
		}}, nil
	}

	if orcid, ok := NormalizeORCID(staff.ORCIDURL); ok {
		res, err := r.fromORCID(ctx, staff, orcid)
		if err != nil {
			return Result{}, err
		}
		if res.Resolved() || res.Ambiguity != nil {
			return res, nil
		}
	}

	return r.fromNameSearch(ctx, staff)
}

// fromORCID queries documents by ORCID and collects every distinct author
// ID appearing across the result entries' author lists. One ORCID can fan
// out to multiple duplicate Scopus profiles; that data-quality problem is
// surfaced as an ambiguity case rather than silently picking one.
func (r *Resolver) fromORCID(ctx context.Context, staff types.StaffRecord, orcid string) (Result, error) {
	if err := r.pause(ctx); err != nil {
		return Result{}, err
	}

	entries, err := r.Client.WorksByORCID(ctx, orcid)
	if err != nil {
		return Result{}, fmt.Errorf("ORCID lookup for %s: %w", staff.Email, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		for _, author := range entry.Authors {
			if author.AuthID != "" && !seen[author.AuthID] {
				seen[author.AuthID] = true
				ids = append(ids, author.AuthID)
			}
		}
	}
	if len(ids) == 0 {
		return Result{}, nil
	}

	candidates, err := r.lookupCandidates(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("ORCID candidate lookup for %s: %w", staff.Email, err)
	}

	plausible := filterByAffiliation(candidates, r.Institution)
	switch len(plausible) {
	case 0:
		return Result{}, nil
	case 1:
		return Result{Identifier: types.AuthorIdentifier{
			ID:     plausible[0].ID,
			Method: types.ResolvedFromORCID,
		}}, nil
	default:
		return Result{Ambiguity: ambiguityCase(staff, types.ResolvedFromORCID, plausible)}, nil
	}
}

// fromNameSearch derives a surname from the staff name and searches for
// authors with that surname at the home institution.
func (r *Resolver) fromNameSearch(ctx context.Context, staff types.StaffRecord) (Result, error) {
	surname, err := Surname(staff.Name, r.Rules)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", staff.Email, err)
	}

	if err := r.pause(ctx); err != nil {
		return Result{}, err
	}

	query := fmt.Sprintf("AUTHLASTNAME(%s) AND AFFIL(%s)", surname, r.Institution)
	entries, err := r.Client.SearchAuthors(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("name search for %s: %w", staff.Email, err)
	}

	var candidates []types.AuthorCandidate
	for _, e := range entries {
		candidates = append(candidates, entryCandidate(e))
	}
	plausible := filterByAffiliation(candidates, r.Institution)

	switch len(plausible) {
	case 0:
		return Result{}, nil
	case 1:
		return Result{Identifier: types.AuthorIdentifier{
			ID:     plausible[0].ID,
			Method: types.ResolvedFromNameSearch,
		}}, nil
	default:
		return Result{Ambiguity: ambiguityCase(staff, types.ResolvedFromNameSearch, plausible)}, nil
	}
}

// lookupCandidates fetches name, affiliation, and document count for each
// author ID via the author search endpoint.
func (r *Resolver) lookupCandidates(ctx context.Context, ids []string) ([]types.AuthorCandidate, error) {
	var candidates []types.AuthorCandidate
	for _, id := range ids {
		if err := r.pause(ctx); err != nil {
			return nil, err
		}
		entries, err := r.Client.SearchAuthors(ctx, fmt.Sprintf("AU-ID(%s)", id))
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			candidates = append(candidates, types.AuthorCandidate{ID: id})
			continue
		}
		candidates = append(candidates, entryCandidate(entries[0]))
	}
	return candidates, nil
}

func (r *Resolver) pause(ctx context.Context) error {
	if r.Wait == nil {
		return nil
	}
	return r.Wait(ctx)
}

func entryCandidate(e scopus.Entry) types.AuthorCandidate {
	name := strings.TrimSpace(e.PreferredName.GivenName + " " + e.PreferredName.Surname)
	return types.AuthorCandidate{
		ID:            e.AuthorID(),
		Name:          name,
		Affiliation:   e.AffiliationCurrent.Name,
		DocumentCount: e.Documents(),
	}
}

// filterByAffiliation keeps candidates whose current affiliation contains
// the institution name, case-insensitively. Candidates with no affiliation
// on record are dropped: an identifier is only plausible when the
// affiliation matches.
func filterByAffiliation(candidates []types.AuthorCandidate, institution string) []types.AuthorCandidate {
	inst := strings.ToLower(institution)
	var kept []types.AuthorCandidate
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Affiliation), inst) {
			kept = append(kept, c)
		}
	}
	return kept
}

// ambiguityCase builds the review record, recommending the candidate with
// the highest document count.
func ambiguityCase(staff types.StaffRecord, method types.ResolutionMethod, candidates []types.AuthorCandidate) *types.AmbiguityCase {
	sorted := make([]types.AuthorCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DocumentCount > sorted[j].DocumentCount
	})

	return &types.AmbiguityCase{
		Name:        staff.Name,
		Email:       staff.Email,
		Method:      method,
		Candidates:  sorted,
		Recommended: sorted[0].ID,
	}
}
