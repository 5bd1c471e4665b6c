// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"time"

	"github.com/google/uuid"

	"github.com/meshintel/scopus-harvest/pkg/types"
)

// Merge appends new records onto an existing dataset, skipping any email
// already present, and updates the metadata additively: the new batch's
// totals are added on top of the stored totals rather than recomputed
// from all records. The additive policy means hand-edits to stored totals
// survive merges, at the cost of drift if records are ever hand-deleted.
// Records already in the dataset keep their position; new records follow
// in batch order.
func Merge(existing types.Dataset, newResults []types.PublicationRecord, scrapeID string, now time.Time) types.Dataset {
	seen := make(map[string]bool, len(existing.Results))
	for _, rec := range existing.Results {
		seen[dedupKey(rec)] = true
	}

	var added []types.PublicationRecord
	for _, rec := range newResults {
		key := dedupKey(rec)
		if seen[key] {
			continue
		}
		seen[key] = true
		added = append(added, rec)
	}

	merged := existing
	merged.Results = append(append([]types.PublicationRecord{}, existing.Results...), added...)
	merged.Metadata = mergeMetadata(existing.Metadata, added, scrapeID, now)
	return merged
}

// dedupKey is the identity of one record within a dataset. Email is the
// primary key, but roster rows that carry an ORCID instead of an email
// produce records with no email at all; those fall back to the resolved
// author ID, then to the name, so distinct identity-less staff are never
// collapsed into one.
func dedupKey(rec types.PublicationRecord) string {
	if rec.Email != "" {
		return "email:" + rec.Email
	}
	if rec.ScopusAuthorID != "" && rec.ScopusAuthorID != types.NASentinel {
		return "author:" + rec.ScopusAuthorID
	}
	return "name:" + rec.Name
}

// MergeFile loads the dataset at path, merges newResults into it, and
// writes the result back atomically. Any read, parse, or write error
// aborts the merge with the original file untouched.
func MergeFile(path string, newResults []types.PublicationRecord) (types.Dataset, error) {
	existing, err := Load(path)
	if err != nil {
		return types.Dataset{}, err
	}

	merged := Merge(existing, newResults, uuid.NewString(), time.Now().UTC())
	if err := Write(path, merged); err != nil {
		return types.Dataset{}, err
	}
	return merged, nil
}

// mergeMetadata folds the added batch's totals into the stored metadata.
func mergeMetadata(meta types.DatasetMetadata, added []types.PublicationRecord, scrapeID string, now time.Time) types.DatasetMetadata {
	meta.ScrapeID = scrapeID
	meta.ScrapedAt = now

	if meta.YearTotals == nil && len(added) > 0 {
		meta.YearTotals = make(map[int]int)
	}

	for _, rec := range added {
		meta.TotalStaff++
		if rec.ScopusAuthorID == types.NASentinel || rec.ScopusAuthorID == "" {
			meta.UnresolvedStaff++
		} else {
			meta.ResolvedStaff++
		}
		meta.TotalPublications += rec.TotalPublications

		for _, y := range rec.Years {
			if y.Success {
				meta.SuccessfulQueries++
				meta.YearTotals[y.Year] += y.Count
			} else {
				meta.FailedQueries++
			}
			if meta.StartYear == 0 || y.Year < meta.StartYear {
				meta.StartYear = y.Year
			}
			if y.Year > meta.EndYear {
				meta.EndYear = y.Year
			}
		}
	}

	if meta.ResolvedStaff > 0 {
		meta.AveragePerStaff = float64(meta.TotalPublications) / float64(meta.ResolvedStaff)
	} else {
		meta.AveragePerStaff = 0
	}
	return meta
}
