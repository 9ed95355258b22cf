package sqlite

import (
	"context"
	"database/sql"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository wraps an opened database.
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Get implements ports.PlaylistRepository.
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*domain.Playlist, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, created_at, updated_at FROM playlists WHERE id = ?`, id)
	return scanPlaylist(row, "get")
}

// List implements ports.PlaylistRepository.
func (r *PlaylistRepository) List(ctx context.Context) ([]*domain.Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, created_at, updated_at FROM playlists ORDER BY rowid`)
	if err != nil {
		return nil, domain.NewRepositoryError("list", "playlist", "query failed", err)
	}
	defer rows.Close()

	var out []*domain.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows, "list")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Save implements ports.PlaylistRepository.
func (r *PlaylistRepository) Save(ctx context.Context, p *domain.Playlist) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO playlists (id, name, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(p.Type), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", p.ID, err)
	}
	return nil
}

func scanPlaylist(s scanner, op string) (*domain.Playlist, error) {
	var (
		p                    domain.Playlist
		mediaType            string
		createdAt, updatedAt string
	)
	err := s.Scan(&p.ID, &p.Name, &mediaType, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, domain.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError(op, "playlist", "scan failed", err)
	}
	p.Type = domain.MediaType(mediaType)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
