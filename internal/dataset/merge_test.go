// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/scopus-harvest/pkg/types"
)

func record(email, authorID string, years ...types.YearlyPublicationCount) types.PublicationRecord {
	total := 0
	for _, y := range years {
		if y.Success {
			total += y.Count
		}
	}
	return types.PublicationRecord{
		Name:              email,
		Email:             email,
		ScopusAuthorID:    authorID,
		Years:             years,
		TotalPublications: total,
	}
}

func okYear(year, count int) types.YearlyPublicationCount {
	return types.YearlyPublicationCount{Year: year, Count: count, Success: true}
}

func failedYear(year int) types.YearlyPublicationCount {
	return types.YearlyPublicationCount{Year: year, Success: false, Error: "HTTP 500"}
}

var mergeTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMerge_AppendsAndDeduplicates(t *testing.T) {
	existing := types.Dataset{
		Results: []types.PublicationRecord{
			record("a@example.edu", "100", okYear(2024, 3)),
		},
		Metadata: types.DatasetMetadata{
			TotalStaff: 1, ResolvedStaff: 1, TotalPublications: 3,
			SuccessfulQueries: 1, StartYear: 2024, EndYear: 2024,
			YearTotals:      map[int]int{2024: 3},
			AveragePerStaff: 3,
		},
	}

	batch := []types.PublicationRecord{
		record("a@example.edu", "100", okYear(2024, 3)), // already present
		record("b@example.edu", "200", okYear(2024, 5), okYear(2025, 2)),
	}

	merged := Merge(existing, batch, "run-2", mergeTime)

	require.Len(t, merged.Results, 2)
	assert.Equal(t, "a@example.edu", merged.Results[0].Email, "existing records keep their position")
	assert.Equal(t, "b@example.edu", merged.Results[1].Email)

	assert.Equal(t, 2, merged.Metadata.TotalStaff)
	assert.Equal(t, 10, merged.Metadata.TotalPublications)
	assert.Equal(t, map[int]int{2024: 8, 2025: 2}, merged.Metadata.YearTotals)
	assert.Equal(t, 2025, merged.Metadata.EndYear)
	assert.Equal(t, "run-2", merged.Metadata.ScrapeID)
}

func TestMerge_Idempotent(t *testing.T) {
	batch := []types.PublicationRecord{
		record("a@example.edu", "100", okYear(2024, 3)),
		record("b@example.edu", "NA"),
	}

	once := Merge(types.Dataset{}, batch, "run-1", mergeTime)
	twice := Merge(once, batch, "run-2", mergeTime)

	assert.Equal(t, len(once.Results), len(twice.Results))

	emails := make(map[string]int)
	for _, rec := range twice.Results {
		emails[rec.Email]++
	}
	for email, n := range emails {
		assert.Equal(t, 1, n, "email %s appears %d times", email, n)
	}

	// Totals unchanged by the no-op second merge.
	assert.Equal(t, once.Metadata.TotalPublications, twice.Metadata.TotalPublications)
	assert.Equal(t, once.Metadata.TotalStaff, twice.Metadata.TotalStaff)
}

func TestMerge_AdditiveOnTopOfStoredTotals(t *testing.T) {
	// Stored totals were hand-edited and no longer match the records.
	// The additive policy adds the new batch on top rather than fixing
	// them up from scratch.
	existing := types.Dataset{
		Results:  []types.PublicationRecord{record("a@example.edu", "100", okYear(2024, 3))},
		Metadata: types.DatasetMetadata{TotalStaff: 1, ResolvedStaff: 1, TotalPublications: 99},
	}

	merged := Merge(existing, []types.PublicationRecord{
		record("b@example.edu", "200", okYear(2024, 1)),
	}, "run-2", mergeTime)

	assert.Equal(t, 100, merged.Metadata.TotalPublications)
}

func TestMerge_FailedYearsCountedAsFailures(t *testing.T) {
	batch := []types.PublicationRecord{
		record("a@example.edu", "100", okYear(2023, 2), failedYear(2024), okYear(2025, 4)),
	}

	merged := Merge(types.Dataset{}, batch, "run-1", mergeTime)

	assert.Equal(t, 2, merged.Metadata.SuccessfulQueries)
	assert.Equal(t, 1, merged.Metadata.FailedQueries)
	assert.Equal(t, 6, merged.Metadata.TotalPublications)
	// The failed year contributes nothing to the year totals but still
	// widens the recorded year range.
	assert.Equal(t, map[int]int{2023: 2, 2025: 4}, merged.Metadata.YearTotals)
	assert.Equal(t, 2023, merged.Metadata.StartYear)
	assert.Equal(t, 2025, merged.Metadata.EndYear)
}

func TestMerge_EmptyEmailRecordsKept(t *testing.T) {
	// Roster rows whose identifier column held an ORCID instead of an
	// email produce records with no email. They must not collapse into
	// one another during dedup.
	batch := []types.PublicationRecord{
		{
			Name: "Lim Wei Keong", ScopusAuthorID: "100",
			Years:             []types.YearlyPublicationCount{okYear(2024, 3)},
			TotalPublications: 3,
		},
		{
			Name: "Tan Mei Ling", ScopusAuthorID: "200",
			Years:             []types.YearlyPublicationCount{okYear(2024, 5)},
			TotalPublications: 5,
		},
	}

	merged := Merge(types.Dataset{}, batch, "run-1", mergeTime)

	require.Len(t, merged.Results, 2)
	assert.Equal(t, "Lim Wei Keong", merged.Results[0].Name)
	assert.Equal(t, "Tan Mei Ling", merged.Results[1].Name)
	assert.Equal(t, 8, merged.Metadata.TotalPublications)

	// Re-merging the same batch is still a no-op.
	twice := Merge(merged, batch, "run-2", mergeTime)
	assert.Len(t, twice.Results, 2)
	assert.Equal(t, 8, twice.Metadata.TotalPublications)
}

func TestMerge_EmptyEmailUnresolvedKeyedByName(t *testing.T) {
	// No email and no author ID: the name is the last-resort key.
	batch := []types.PublicationRecord{
		{Name: "Lim Wei Keong", ScopusAuthorID: "NA", Years: []types.YearlyPublicationCount{}},
		{Name: "Tan Mei Ling", ScopusAuthorID: "NA", Years: []types.YearlyPublicationCount{}},
		{Name: "Lim Wei Keong", ScopusAuthorID: "NA", Years: []types.YearlyPublicationCount{}},
	}

	merged := Merge(types.Dataset{}, batch, "run-1", mergeTime)

	require.Len(t, merged.Results, 2)
	assert.Equal(t, 2, merged.Metadata.UnresolvedStaff)
}

func TestMerge_UnresolvedStaffPreserved(t *testing.T) {
	merged := Merge(types.Dataset{}, []types.PublicationRecord{
		record("ghost@example.edu", "NA"),
	}, "run-1", mergeTime)

	require.Len(t, merged.Results, 1)
	assert.Equal(t, "NA", merged.Results[0].ScopusAuthorID)
	assert.Equal(t, 0, merged.Results[0].TotalPublications)
	assert.Equal(t, 1, merged.Metadata.UnresolvedStaff)
	assert.Equal(t, 0, merged.Metadata.ResolvedStaff)
	assert.Equal(t, float64(0), merged.Metadata.AveragePerStaff)
}

func TestMergeFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.json")

	first, err := MergeFile(path, []types.PublicationRecord{
		record("a@example.edu", "100", okYear(2024, 3)),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Metadata.ScrapeID)

	second, err := MergeFile(path, []types.PublicationRecord{
		record("a@example.edu", "100", okYear(2024, 3)),
		record("b@example.edu", "200", okYear(2024, 7)),
	})
	require.NoError(t, err)

	require.Len(t, second.Results, 2)
	assert.Equal(t, 10, second.Metadata.TotalPublications)
	assert.NotEqual(t, first.Metadata.ScrapeID, second.Metadata.ScrapeID)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, second.Results, loaded.Results)
}

func TestMergeFile_CorruptDatasetAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := MergeFile(path, []types.PublicationRecord{record("a@example.edu", "100")})
	require.Error(t, err)

	// The original file is untouched.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))
}

func TestLoad_MissingFileIsEmptyDataset(t *testing.T) {
	ds, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, ds.Results)
}
