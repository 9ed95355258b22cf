// Package sqlite persists endpoints, playlists and media assets in a single
// SQLite file through the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// Open initialises the database at path (":memory:" for an ephemeral one)
// and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewRepositoryError("open", "sqlite", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			logger.Warn("pragma failed", slog.String("pragma", p), slog.Any("error", err))
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("migrate", "sqlite", "schema creation failed", err)
	}
	return db, nil
}

// Store bundles the three repositories over one connection pool.
type Store struct {
	db        *sql.DB
	Endpoints *EndpointRepository
	Playlists *PlaylistRepository
	Assets    *AssetRepository
}

// NewStore opens path and builds the repositories.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := Open(path, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:        db,
		Endpoints: &EndpointRepository{db: db},
		Playlists: &PlaylistRepository{db: db},
		Assets:    &AssetRepository{db: db},
	}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
