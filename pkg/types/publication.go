// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// YearlyPublicationCount is the outcome of one count query for one staff
// member and one calendar year. Failed queries keep Count zero and carry
// the error message; the batch continues.
type YearlyPublicationCount struct {
	Year    int    `json:"year"`
	Count   int    `json:"count"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthorMetrics holds citation-derived metrics for one author. Both values
// are top-N approximations bounded by the metrics page budget.
type AuthorMetrics struct {
	HIndex        int `json:"hIndex"`
	CitationCount int `json:"citationCount"`
}

// PublicationRecord is the per-staff output unit. Created once per staff
// member per run; immutable after creation within a run. Unresolvable
// staff still get a record with ScopusAuthorID "NA" and zero counts.
type PublicationRecord struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Faculty    string `json:"faculty,omitempty"`
	Department string `json:"department,omitempty"`

	// ScopusAuthorID is the resolved identifier, or "NA" when no method
	// produced one.
	ScopusAuthorID string           `json:"scopusAuthorId"`
	Method         ResolutionMethod `json:"resolutionMethod,omitempty"`

	Years []YearlyPublicationCount `json:"yearlyPublications"`

	// TotalPublications sums the counts of successful years only.
	TotalPublications int `json:"totalPublications"`

	// Metrics is present only when the run computed h-index and citations.
	Metrics *AuthorMetrics `json:"metrics,omitempty"`
}

// DatasetMetadata describes a scraped dataset. Totals are maintained
// additively by the merge writer: each merge adds the new batch's numbers
// on top of the stored ones rather than recomputing from all records.
type DatasetMetadata struct {
	// ScrapeID identifies the most recent run that wrote the file.
	ScrapeID  string    `json:"scrapeId"`
	ScrapedAt time.Time `json:"scrapedAt"`

	StartYear int `json:"startYear"`
	EndYear   int `json:"endYear"`

	TotalStaff      int `json:"totalStaff"`
	ResolvedStaff   int `json:"resolvedStaff"`
	UnresolvedStaff int `json:"unresolvedStaff"`

	TotalPublications int `json:"totalPublications"`

	// AveragePerStaff is total publications divided by resolved staff.
	AveragePerStaff float64 `json:"averagePerStaff"`

	// YearTotals maps calendar year to the summed publication count.
	YearTotals map[int]int `json:"yearTotals,omitempty"`

	SuccessfulQueries int `json:"successfulQueries"`
	FailedQueries     int `json:"failedQueries"`
}

// Dataset is the persisted publication document: metadata plus one record
// per distinct email. Mutated only by the merge writer, which rewrites the
// whole file.
type Dataset struct {
	Metadata DatasetMetadata     `json:"metadata"`
	Results  []PublicationRecord `json:"results"`
}
