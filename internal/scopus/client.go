// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scopus implements the Scopus Search API client used by the
// harvest pipeline. The client is stateless per call: request pacing is
// the orchestrator's responsibility, while 429 throttling is handled here
// with a bounded fixed-backoff retry.
package scopus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meshintel/scopus-harvest/internal/httputil"
	"github.com/meshintel/scopus-harvest/pkg/types"
)

// API base URLs. Declared as vars so tests can substitute httptest servers.
var (
	searchBase = "https://api.elsevier.com/content/search/scopus"
	authorBase = "https://api.elsevier.com/content/search/author"
)

// Client issues queries against the Scopus Search API.
type Client struct {
	HTTP *http.Client
	Cfg  types.ScopusConfig
}

// NewClient builds a client from config, applying defaults for page size,
// metrics page budget, and endpoints.
func NewClient(httpClient *http.Client, cfg types.ScopusConfig) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if cfg.MaxMetricsPages <= 0 {
		cfg.MaxMetricsPages = 4
	}
	if cfg.SearchEndpoint == "" {
		cfg.SearchEndpoint = searchBase
	}
	if cfg.AuthorEndpoint == "" {
		cfg.AuthorEndpoint = authorBase
	}
	return &Client{HTTP: httpClient, Cfg: cfg}
}

// PageSize returns the configured rows-per-page for paged queries.
func (c *Client) PageSize() int { return c.Cfg.PageSize }

// MaxMetricsPages returns the page budget for the metrics aggregator.
func (c *Client) MaxMetricsPages() int { return c.Cfg.MaxMetricsPages }

// CountForYear returns the number of documents for the author in one
// calendar year. The query requests zero rows and reads only the reported
// total-results count.
func (c *Client) CountForYear(ctx context.Context, authorID string, year int) (int, error) {
	params := url.Values{
		"query": {fmt.Sprintf("AU-ID(%s) AND PUBYEAR IS %d", authorID, year)},
		"count": {"0"},
	}
	sr, err := c.do(ctx, c.Cfg.SearchEndpoint, params)
	if err != nil {
		return 0, err
	}
	return atoiLoose(sr.TotalResults), nil
}

// WorksPage fetches one page of the author's documents sorted by
// descending citation count. Page numbering starts at zero. A page
// shorter than the configured page size signals exhaustion.
func (c *Client) WorksPage(ctx context.Context, authorID string, page int) ([]Entry, error) {
	params := url.Values{
		"query": {fmt.Sprintf("AU-ID(%s)", authorID)},
		"count": {strconv.Itoa(c.Cfg.PageSize)},
		"start": {strconv.Itoa(page * c.Cfg.PageSize)},
		"sort":  {"-citedby-count"},
	}
	sr, err := c.do(ctx, c.Cfg.SearchEndpoint, params)
	if err != nil {
		return nil, err
	}
	return sr.Entries, nil
}

// SearchAuthors queries the author search endpoint with a raw query in
// the Scopus query language (e.g. "AUTHLASTNAME(Tan) AND AFFIL(...)").
func (c *Client) SearchAuthors(ctx context.Context, query string) ([]Entry, error) {
	params := url.Values{
		"query": {query},
		"count": {strconv.Itoa(c.Cfg.PageSize)},
	}
	sr, err := c.do(ctx, c.Cfg.AuthorEndpoint, params)
	if err != nil {
		return nil, err
	}
	return sr.Entries, nil
}

// WorksByORCID queries the document search endpoint by ORCID. The caller
// inspects each entry's author list, not just the top record, because one
// ORCID can fan out to multiple duplicate author profiles.
func (c *Client) WorksByORCID(ctx context.Context, orcid string) ([]Entry, error) {
	params := url.Values{
		"query": {fmt.Sprintf("ORCID(%s)", orcid)},
		"count": {strconv.Itoa(c.Cfg.PageSize)},
	}
	sr, err := c.do(ctx, c.Cfg.SearchEndpoint, params)
	if err != nil {
		return nil, err
	}
	return sr.Entries, nil
}

// do issues one GET against endpoint with the shared parameters applied
// (apiKey, httpAccept) and decodes the search-results envelope. HTTP 429
// is retried up to MaxRetries with a fixed backoff; any other non-200
// status is surfaced immediately as an error.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (*searchResults, error) {
	params.Set("httpAccept", "application/json")
	if c.Cfg.APIKey != "" {
		params.Set("apiKey", c.Cfg.APIKey)
	}
	if c.Cfg.InstToken != "" {
		params.Set("insttoken", c.Cfg.InstToken)
	}

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Cfg.MaxRetries, c.Cfg.RetryBackoff)
	if err != nil {
		return nil, fmt.Errorf("Scopus API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("Scopus API rate limit persisted after %d retries", maxRetriesOrDefault(c.Cfg.MaxRetries))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Scopus API returned HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		SearchResults searchResults `json:"search-results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing Scopus response: %w", err)
	}
	return &envelope.SearchResults, nil
}

func maxRetriesOrDefault(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

// Scopus Search API JSON structures. Numeric fields arrive as strings.
type searchResults struct {
	TotalResults string  `json:"opensearch:totalResults"`
	Entries      []Entry `json:"entry"`
}

// Entry is one record from either search endpoint. Document entries carry
// citedby-count and an author list; author entries carry dc:identifier,
// preferred-name, affiliation-current and document-count.
type Entry struct {
	Identifier         string             `json:"dc:identifier"`
	CitedByCount       string             `json:"citedby-count"`
	DocumentCount      string             `json:"document-count"`
	PreferredName      PreferredName      `json:"preferred-name"`
	AffiliationCurrent AffiliationCurrent `json:"affiliation-current"`
	Authors            []EntryAuthor      `json:"author"`
}

type PreferredName struct {
	Surname   string `json:"surname"`
	GivenName string `json:"given-name"`
}

type AffiliationCurrent struct {
	Name string `json:"affiliation-name"`
}

type EntryAuthor struct {
	AuthID string `json:"authid"`
}

// AuthorID strips the "AUTHOR_ID:" prefix from an author entry's
// dc:identifier, returning the bare numeric ID.
func (e Entry) AuthorID() string {
	const prefix = "AUTHOR_ID:"
	if len(e.Identifier) > len(prefix) && e.Identifier[:len(prefix)] == prefix {
		return e.Identifier[len(prefix):]
	}
	return e.Identifier
}

// Citations parses the entry's citedby-count, treating absent or
// malformed values as zero.
func (e Entry) Citations() int { return atoiLoose(e.CitedByCount) }

// Documents parses the entry's document-count, treating absent or
// malformed values as zero.
func (e Entry) Documents() int { return atoiLoose(e.DocumentCount) }

// atoiLoose parses string-encoded integers from API responses. Scopus
// reports counts as JSON strings; anything unparsable counts as zero.
func atoiLoose(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
