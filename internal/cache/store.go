package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/accessdoc/internal/model"
)

// DBFileName is the database file created inside the cache directory.
const DBFileName = "accessdoc.db"

// timeLayout is how fetched_at is stored. It sorts lexicographically.
const timeLayout = "2006-01-02 15:04:05"

// Store is the SQLite-backed scrape cache.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Entry describes one cached scrape without its payload.
type Entry struct {
	URL           string
	FetchedAt     time.Time
	HTMLBytes     int
	HasScreenshot bool
	ContentHash   string
}

// Open opens or creates the cache database in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, DBFileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("cache database not found at %s: %w", dbPath, err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrapes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		fetched_at TEXT NOT NULL,
		html TEXT NOT NULL,
		screenshot TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scrapes_fetched_at ON scrapes(fetched_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// ContentHash returns the hex SHA3-256 digest of html.
func ContentHash(html string) string {
	sum := sha3.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

// Put inserts or replaces the cached scrape for result.URL.
func (s *Store) Put(ctx context.Context, result *model.ScrapeResult) error {
	if !result.HasHTML() {
		return errors.New("refusing to cache a scrape without HTML")
	}
	fetchedAt := result.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	query := `
	INSERT INTO scrapes (url, fetched_at, html, screenshot, content_hash)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		fetched_at = excluded.fetched_at,
		html = excluded.html,
		screenshot = excluded.screenshot,
		content_hash = excluded.content_hash
	`
	_, err := s.db.ExecContext(ctx, query,
		result.URL,
		fetchedAt.UTC().Format(timeLayout),
		result.HTML,
		result.Screenshot,
		ContentHash(result.HTML),
	)
	if err != nil {
		return fmt.Errorf("failed to store scrape: %w", err)
	}
	return nil
}

// Get returns the cached scrape for url if it is younger than maxAge.
// It returns nil without error on a miss. A non-positive maxAge accepts any age.
func (s *Store) Get(ctx context.Context, url string, maxAge time.Duration) (*model.ScrapeResult, error) {
	query := `
	SELECT fetched_at, html, screenshot, content_hash
	FROM scrapes
	WHERE url = ?
	`
	var (
		fetchedAt string
		hash      string
		result    = &model.ScrapeResult{URL: url}
	)
	err := s.db.QueryRowContext(ctx, query, url).Scan(&fetchedAt, &result.HTML, &result.Screenshot, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape: %w", err)
	}

	result.FetchedAt = parseTimestamp(fetchedAt)
	if maxAge > 0 && time.Since(result.FetchedAt) > maxAge {
		return nil, nil
	}
	if ContentHash(result.HTML) != hash {
		return nil, fmt.Errorf("cached scrape for %s is corrupted", url)
	}
	result.Cached = true
	return result, nil
}

// Entries lists cached scrapes, newest first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	query := `
	SELECT url, fetched_at, length(html), screenshot != '', content_hash
	FROM scrapes
	ORDER BY fetched_at DESC, url
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrapes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			fetchedAt string
		)
		if err := rows.Scan(&e.URL, &fetchedAt, &e.HTMLBytes, &e.HasScreenshot, &e.ContentHash); err != nil {
			return nil, fmt.Errorf("failed to scan scrape entry: %w", err)
		}
		e.FetchedAt = parseTimestamp(fetchedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Purge deletes entries older than olderThan and returns how many were
// removed. A non-positive olderThan deletes everything.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if olderThan <= 0 {
		res, err = s.db.ExecContext(ctx, "DELETE FROM scrapes")
	} else {
		cutoff := time.Now().Add(-olderThan).UTC().Format(timeLayout)
		res, err = s.db.ExecContext(ctx, "DELETE FROM scrapes WHERE fetched_at < ?", cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to purge scrapes: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the formats fetched_at may have been written in.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestamp parses a stored UTC timestamp, returning zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
