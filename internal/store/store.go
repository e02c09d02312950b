// Package store persists which article URLs have already completed a
// pipeline run. It is the only durable state of the system.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store maps hashed URLs to the time they were first processed.
//
// Identity is the SHA-256 of the raw URL string; no canonicalization is
// performed, so two syntactically different URLs for the same resource
// count as distinct items.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func New(ctx context.Context, dbPath string, log *slog.Logger) (*Store, error) {
	dbFile, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	dbInstance, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		log.InfoContext(ctx, "No migrations to apply",
			"dbPath", dbPath)
	} else {
		log.InfoContext(ctx, "DB is migrated",
			"dbPath", dbPath)
	}

	return &Store{db: dbFile, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// IsSeen reports whether the URL has already completed a run.
func (s *Store) IsSeen(ctx context.Context, url string) (bool, error) {
	query := "select 1 from seen_urls where url_hash = ?"

	var one int
	err := s.db.QueryRowContext(ctx, query, hashURL(url)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen_urls: %w", err)
	}

	return true, nil
}

// FilterNew returns the subsequence of urls with no existing entry,
// preserving input order. Lookups are batched into a single query.
func (s *Store) FilterNew(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	hashes := make([]any, 0, len(urls))
	for _, u := range urls {
		hashes = append(hashes, hashURL(u))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")
	query := fmt.Sprintf(
		"select url_hash from seen_urls where url_hash in (%s)",
		placeholders,
	)

	rows, err := s.db.QueryContext(ctx, query, hashes...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "FilterNew")
		}
	}()

	seen := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		seen[h] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	var newURLs []string
	for _, u := range urls {
		if _, ok := seen[hashURL(u)]; !ok {
			newURLs = append(newURLs, u)
		}
	}

	return newURLs, nil
}

// MarkSeen records the URLs as processed. Inserting an already-present
// URL is a no-op, never an error.
func (s *Store) MarkSeen(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	query := "insert or ignore into seen_urls (url_hash, first_seen) values (?, ?)"
	now := time.Now().UTC().Format(time.RFC3339)

	for _, u := range urls {
		if _, err := tx.ExecContext(ctx, query, hashURL(u), now); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				s.log.ErrorContext(ctx, "Failed to rollback tx",
					"error", rollbackErr,
					"operation", "MarkSeen")
			}

			return fmt.Errorf("insert seen URL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.log.InfoContext(ctx, "Marked URLs as seen",
		"count", len(urls))

	return nil
}

// Cleanup deletes entries whose first_seen is older than now-retention
// and returns the number of deleted rows.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)

	query := "delete from seen_urls where first_seen < ?"

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted rows: %w", err)
	}

	if deleted > 0 {
		s.log.InfoContext(ctx, "Cleaned up expired entries",
			"deleted", deleted,
			"retention", retention.String())
	}

	return deleted, nil
}

func hashURL(url string) string {
	sum := sha256.Sum256([]byte(url))

	return hex.EncodeToString(sum[:])
}
