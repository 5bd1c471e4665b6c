// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive mirrors harvested publication records into a local
// SQLite database keyed by email, so dashboard widgets and ad-hoc queries
// don't have to re-parse the whole JSON dataset. The JSON file stays the
// source of truth; the archive is rebuilt from it at any time.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/scopus-harvest/pkg/types"
)

const dbFile = "harvest.db"

// Store manages the publication archive database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive at archiveDir/harvest.db,
// creating the schema if needed.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.ArchiveDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS staff (
			email TEXT PRIMARY KEY,
			name TEXT,
			faculty TEXT,
			department TEXT,
			scopus_author_id TEXT,
			resolution_method TEXT,
			total_publications INTEGER NOT NULL DEFAULT 0,
			h_index INTEGER,
			citation_count INTEGER,
			scrape_id TEXT,
			scraped_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS yearly_counts (
			email TEXT NOT NULL REFERENCES staff(email),
			year INTEGER NOT NULL,
			count INTEGER NOT NULL,
			success INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (email, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_department ON staff(department)`,
		`CREATE INDEX IF NOT EXISTS idx_staff_faculty ON staff(faculty)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from one archive ingest run.
type IngestSummary struct {
	Stored int
	Failed int
}

// Ingest upserts every record of a dataset into the archive, replacing
// previous yearly counts for each staff member. Per-record failures are
// reported to w and counted; the ingest continues.
func (s *Store) Ingest(ctx context.Context, ds types.Dataset, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, rec := range ds.Results {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if err := s.upsert(ctx, rec, ds.Metadata); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.Email, err)
			summary.Failed++
			continue
		}
		summary.Stored++
	}

	fmt.Fprintf(w, "\narchived: %d, failed: %d\n", summary.Stored, summary.Failed)
	return summary, nil
}

func (s *Store) upsert(ctx context.Context, rec types.PublicationRecord, meta types.DatasetMetadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var hIndex, citations sql.NullInt64
	if rec.Metrics != nil {
		hIndex = sql.NullInt64{Int64: int64(rec.Metrics.HIndex), Valid: true}
		citations = sql.NullInt64{Int64: int64(rec.Metrics.CitationCount), Valid: true}
	}

	scrapedAt := ""
	if !meta.ScrapedAt.IsZero() {
		scrapedAt = meta.ScrapedAt.UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO staff (email, name, faculty, department, scopus_author_id,
			resolution_method, total_publications, h_index, citation_count,
			scrape_id, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			name=excluded.name, faculty=excluded.faculty,
			department=excluded.department,
			scopus_author_id=excluded.scopus_author_id,
			resolution_method=excluded.resolution_method,
			total_publications=excluded.total_publications,
			h_index=excluded.h_index, citation_count=excluded.citation_count,
			scrape_id=excluded.scrape_id, scraped_at=excluded.scraped_at`,
		rec.Email, rec.Name, rec.Faculty, rec.Department, rec.ScopusAuthorID,
		string(rec.Method), rec.TotalPublications, hIndex, citations,
		meta.ScrapeID, scrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting staff: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM yearly_counts WHERE email = ?`, rec.Email); err != nil {
		return fmt.Errorf("clearing yearly counts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO yearly_counts (email, year, count, success, error)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, y := range rec.Years {
		if _, err := stmt.ExecContext(ctx, rec.Email, y.Year, y.Count, y.Success, y.Error); err != nil {
			return fmt.Errorf("inserting year %d: %w", y.Year, err)
		}
	}

	return tx.Commit()
}

// QueryOptions filters archive queries. Zero values mean no filter.
type QueryOptions struct {
	Faculty         string
	Department      string
	MinPublications int
	Limit           int
}

// Query returns staff records matching the filters, most published first,
// with their yearly counts attached.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.PublicationRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	where := "WHERE total_publications >= ?"
	args := []any{opts.MinPublications}
	if opts.Faculty != "" {
		where += " AND faculty = ?"
		args = append(args, opts.Faculty)
	}
	if opts.Department != "" {
		where += " AND department = ?"
		args = append(args, opts.Department)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT email, name, faculty, department, scopus_author_id,
			resolution_method, total_publications, h_index, citation_count
		 FROM staff `+where+`
		 ORDER BY total_publications DESC, email ASC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var records []types.PublicationRecord
	for rows.Next() {
		var rec types.PublicationRecord
		var method string
		var hIndex, citations sql.NullInt64
		if err := rows.Scan(&rec.Email, &rec.Name, &rec.Faculty, &rec.Department,
			&rec.ScopusAuthorID, &method, &rec.TotalPublications,
			&hIndex, &citations); err != nil {
			return nil, fmt.Errorf("scanning staff row: %w", err)
		}
		rec.Method = types.ResolutionMethod(method)
		if hIndex.Valid || citations.Valid {
			rec.Metrics = &types.AuthorMetrics{
				HIndex:        int(hIndex.Int64),
				CitationCount: int(citations.Int64),
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating staff rows: %w", err)
	}

	for i := range records {
		years, err := s.yearlyCounts(ctx, records[i].Email)
		if err != nil {
			return nil, err
		}
		records[i].Years = years
	}
	return records, nil
}

func (s *Store) yearlyCounts(ctx context.Context, email string) ([]types.YearlyPublicationCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, count, success, error FROM yearly_counts
		 WHERE email = ? ORDER BY year ASC`, email)
	if err != nil {
		return nil, fmt.Errorf("querying yearly counts: %w", err)
	}
	defer rows.Close()

	var years []types.YearlyPublicationCount
	for rows.Next() {
		var y types.YearlyPublicationCount
		if err := rows.Scan(&y.Year, &y.Count, &y.Success, &y.Error); err != nil {
			return nil, fmt.Errorf("scanning yearly count: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
