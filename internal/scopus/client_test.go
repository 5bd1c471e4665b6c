// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scopus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/scopus-harvest/pkg/types"
)

func testClient(ts *httptest.Server) *Client {
	return NewClient(ts.Client(), types.ScopusConfig{
		HTTPConfig:   types.HTTPConfig{UserAgent: "scopus-harvest/test"},
		APIKey:       "test-key",
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})
}

func TestCountForYear(t *testing.T) {
	var gotQuery, gotCount, gotKey, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("query")
		gotCount = q.Get("count")
		gotKey = q.Get("apiKey")
		gotAccept = q.Get("httpAccept")
		fmt.Fprint(w, `{"search-results": {"opensearch:totalResults": "42"}}`)
	}))
	defer ts.Close()

	oldBase := searchBase
	searchBase = ts.URL
	defer func() { searchBase = oldBase }()

	c := testClient(ts)
	n, err := c.CountForYear(context.Background(), "7004212771", 2023)
	require.NoError(t, err)

	assert.Equal(t, 42, n)
	assert.Equal(t, "AU-ID(7004212771) AND PUBYEAR IS 2023", gotQuery)
	assert.Equal(t, "0", gotCount)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotAccept)
}

func TestCountForYear_RetryBound(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	oldBase := searchBase
	searchBase = ts.URL
	defer func() { searchBase = oldBase }()

	c := testClient(ts)
	_, err := c.CountForYear(context.Background(), "123", 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	// 1 initial + 3 retries, never an unbounded loop.
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestCountForYear_Non2xxNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	oldBase := searchBase
	searchBase = ts.URL
	defer func() { searchBase = oldBase }()

	c := testClient(ts)
	_, err := c.CountForYear(context.Background(), "123", 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWorksPage_PaginationParams(t *testing.T) {
	var gotStart, gotCount, gotSort string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotStart = q.Get("start")
		gotCount = q.Get("count")
		gotSort = q.Get("sort")
		fmt.Fprint(w, `{"search-results": {
			"opensearch:totalResults": "2",
			"entry": [
				{"citedby-count": "10"},
				{"citedby-count": "8"}
			]
		}}`)
	}))
	defer ts.Close()

	oldBase := searchBase
	searchBase = ts.URL
	defer func() { searchBase = oldBase }()

	c := testClient(ts)
	entries, err := c.WorksPage(context.Background(), "123", 2)
	require.NoError(t, err)

	assert.Equal(t, "50", gotStart) // page 2 × page size 25
	assert.Equal(t, "25", gotCount)
	assert.Equal(t, "-citedby-count", gotSort)
	require.Len(t, entries, 2)
	assert.Equal(t, 10, entries[0].Citations())
	assert.Equal(t, 8, entries[1].Citations())
}

func TestSearchAuthors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"search-results": {
			"opensearch:totalResults": "1",
			"entry": [{
				"dc:identifier": "AUTHOR_ID:57190",
				"preferred-name": {"surname": "Rahman", "given-name": "A."},
				"affiliation-current": {"affiliation-name": "Example University"},
				"document-count": "50"
			}]
		}}`)
	}))
	defer ts.Close()

	oldBase := authorBase
	authorBase = ts.URL
	defer func() { authorBase = oldBase }()

	c := testClient(ts)
	entries, err := c.SearchAuthors(context.Background(), "AUTHLASTNAME(Rahman) AND AFFIL(Example University)")
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "57190", entries[0].AuthorID())
	assert.Equal(t, "Example University", entries[0].AffiliationCurrent.Name)
	assert.Equal(t, 50, entries[0].Documents())
}

func TestWorksByORCID_AuthorLists(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ORCID(0000-0002-1825-0097)", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"search-results": {
			"opensearch:totalResults": "2",
			"entry": [
				{"author": [{"authid": "111"}, {"authid": "222"}]},
				{"author": [{"authid": "111"}, {"authid": "333"}]}
			]
		}}`)
	}))
	defer ts.Close()

	oldBase := searchBase
	searchBase = ts.URL
	defer func() { searchBase = oldBase }()

	c := testClient(ts)
	entries, err := c.WorksByORCID(context.Background(), "0000-0002-1825-0097")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Len(t, entries[0].Authors, 2)
}

func TestEntryHelpers(t *testing.T) {
	e := Entry{Identifier: "AUTHOR_ID:12345", CitedByCount: "7", DocumentCount: ""}
	assert.Equal(t, "12345", e.AuthorID())
	assert.Equal(t, 7, e.Citations())
	assert.Equal(t, 0, e.Documents())

	bare := Entry{Identifier: "12345", CitedByCount: "not-a-number"}
	assert.Equal(t, "12345", bare.AuthorID())
	assert.Equal(t, 0, bare.Citations())
}
