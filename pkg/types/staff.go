// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scopus-harvest pipeline.
package types

// NASentinel marks a staff member with no usable Scopus author ID. Roster
// files use the same literal, so it round-trips through input and output.
const NASentinel = "NA"

// ResolutionMethod records how an author identifier was obtained.
type ResolutionMethod string

const (
	ResolvedFromProfileURL ResolutionMethod = "from_profile_url"
	ResolvedFromNameSearch ResolutionMethod = "from_name_search"
	ResolvedFromORCID      ResolutionMethod = "from_orcid_lookup"
)

// StaffRecord is one university staff member as known to the directory.
// Records are read-only input to the pipeline; email is the identity key.
type StaffRecord struct {
	// Name is the full name as listed in the directory. May carry
	// honorifics and parenthetical remarks.
	Name string `json:"name" yaml:"name"`

	// Email is the primary identity key across the dataset. Roster rows
	// that carry an ORCID instead of an email leave it empty.
	Email string `json:"email" yaml:"email"`

	Faculty     string `json:"faculty,omitempty" yaml:"faculty,omitempty"`
	Department  string `json:"department,omitempty" yaml:"department,omitempty"`
	Designation string `json:"designation,omitempty" yaml:"designation,omitempty"`

	// ScopusURL is the staff member's Scopus profile URL, when the
	// directory carries one. The numeric author ID is embedded in its
	// authorId query parameter.
	ScopusURL string `json:"scopus_url,omitempty" yaml:"scopus_url,omitempty"`

	// ORCIDURL is the staff member's ORCID profile URL or bare ORCID.
	ORCIDURL string `json:"orcid_url,omitempty" yaml:"orcid_url,omitempty"`

	// ProfileURL is any other scholarly-profile link (Google Scholar etc.).
	// Not used for resolution; carried through for the review artifacts.
	ProfileURL string `json:"profile_url,omitempty" yaml:"profile_url,omitempty"`

	// KnownAuthorID is a Scopus author ID carried by the roster itself
	// ("NA" when absent). Compared against freshly resolved IDs to detect
	// mismatches.
	KnownAuthorID string `json:"known_author_id,omitempty" yaml:"known_author_id,omitempty"`
}

// AuthorIdentifier is a resolved Scopus author identifier plus the method
// that produced it.
type AuthorIdentifier struct {
	ID     string           `json:"id" yaml:"id"`
	Method ResolutionMethod `json:"method" yaml:"method"`
}

// AuthorCandidate is one plausible Scopus author profile returned by a
// name or ORCID lookup.
type AuthorCandidate struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Affiliation   string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	DocumentCount int    `json:"document_count" yaml:"document_count"`
}

// AmbiguityCase records a resolution that produced more than one plausible
// identifier. The recommended candidate is the one with the highest
// document count, but the case is written to the review artifact rather
// than committed automatically.
type AmbiguityCase struct {
	Name        string            `json:"name" yaml:"name"`
	Email       string            `json:"email" yaml:"email"`
	Method      ResolutionMethod  `json:"method" yaml:"method"`
	Candidates  []AuthorCandidate `json:"candidates" yaml:"candidates"`
	Recommended string            `json:"recommended" yaml:"recommended"`
}

// IDMismatch records a disagreement between the roster's stored author ID
// and the freshly resolved one. A data-quality anomaly for human review,
// not an error.
type IDMismatch struct {
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	RosterID   string `json:"roster_id" yaml:"roster_id"`
	ResolvedID string `json:"resolved_id" yaml:"resolved_id"`
}
