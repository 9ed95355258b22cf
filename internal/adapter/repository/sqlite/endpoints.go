package sqlite

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const endpointColumns = `id, name, slug, status, playlist_id, player_variant, visualizer,
	last_sync, latency_ms, created_at, updated_at`

// EndpointRepository implements ports.EndpointRepository.
type EndpointRepository struct {
	db *sql.DB
}

// NewEndpointRepository wraps an opened database.
func NewEndpointRepository(db *sql.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

// GetBySlug implements ports.EndpointRepository.
func (r *EndpointRepository) GetBySlug(ctx context.Context, slug string) (*domain.Endpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+endpointColumns+` FROM endpoints WHERE slug = ?`, slug)
	return scanEndpoint(row, "get_by_slug")
}

// Get implements ports.EndpointRepository.
func (r *EndpointRepository) Get(ctx context.Context, id string) (*domain.Endpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+endpointColumns+` FROM endpoints WHERE id = ?`, id)
	return scanEndpoint(row, "get")
}

// List implements ports.EndpointRepository.
func (r *EndpointRepository) List(ctx context.Context) ([]*domain.Endpoint, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+endpointColumns+` FROM endpoints ORDER BY rowid`)
	if err != nil {
		return nil, domain.NewRepositoryError("list", "endpoint", "query failed", err)
	}
	defer rows.Close()

	var out []*domain.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows, "list")
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list", "endpoint", "iteration failed", err)
	}
	return out, nil
}

// Save implements ports.EndpointRepository.
func (r *EndpointRepository) Save(ctx context.Context, e *domain.Endpoint) error {
	visualizer, err := json.Marshal(e.Visualizer)
	if err != nil {
		return domain.NewRepositoryError("save", "endpoint", "encode visualizer settings", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewRepositoryError("save", "endpoint", "begin", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT id FROM endpoints WHERE slug = ? AND id != ?`, e.Slug, e.ID).Scan(&owner)
	switch {
	case err == nil:
		return domain.ErrSlugConflict
	case !isNoRows(err):
		return domain.NewRepositoryError("save", "endpoint", "slug check", err)
	}

	var latency sql.NullInt64
	if e.LatencyMs != nil {
		latency = sql.NullInt64{Int64: int64(*e.LatencyMs), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO endpoints (`+endpointColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			status = excluded.status,
			playlist_id = excluded.playlist_id,
			player_variant = excluded.player_variant,
			visualizer = excluded.visualizer,
			last_sync = excluded.last_sync,
			latency_ms = excluded.latency_ms,
			updated_at = excluded.updated_at`,
		e.ID, e.Name, e.Slug, string(e.Status), nullString(e.PlaylistID), string(e.PlayerVariant),
		string(visualizer), nullTime(e.LastSync), latency, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return domain.NewRepositoryError("save", "endpoint", e.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.NewRepositoryError("save", "endpoint", "commit", err)
	}
	return nil
}

// SlugExists implements ports.EndpointRepository.
func (r *EndpointRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM endpoints WHERE slug = ?`, slug).Scan(&n); err != nil {
		return false, domain.NewRepositoryError("slug_exists", "endpoint", slug, err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(s scanner, op string) (*domain.Endpoint, error) {
	var (
		e                    domain.Endpoint
		status, variant      string
		visualizer           string
		playlistID, lastSync sql.NullString
		latency              sql.NullInt64
		createdAt, updatedAt string
	)
	err := s.Scan(&e.ID, &e.Name, &e.Slug, &status, &playlistID, &variant, &visualizer,
		&lastSync, &latency, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, domain.ErrEndpointNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError(op, "endpoint", "scan failed", err)
	}

	e.Status = domain.EndpointStatus(status)
	e.PlayerVariant = domain.PlayerVariant(variant)
	e.PlaylistID = stringPtr(playlistID)
	e.LastSync = timePtr(lastSync)
	if latency.Valid {
		ms := int(latency.Int64)
		e.LatencyMs = &ms
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(visualizer), &e.Visualizer); err != nil {
		return nil, domain.NewRepositoryError(op, "endpoint", "decode visualizer settings", err)
	}
	return &e, nil
}

var _ ports.EndpointRepository = (*EndpointRepository)(nil)
