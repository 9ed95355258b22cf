package sqlite

import (
	"context"
	"database/sql"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const assetColumns = `id, playlist_id, type, title, filename, original_name, mime_type, size,
	status, duration_seconds, artist, album, genre, year, artwork_filename, created_at, updated_at`

// AssetRepository implements ports.AssetRepository.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository wraps an opened database.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Get implements ports.AssetRepository.
func (r *AssetRepository) Get(ctx context.Context, id string) (*domain.MediaAsset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM media_assets WHERE id = ?`, id)
	return scanAsset(row, "get")
}

// ListByPlaylist implements ports.AssetRepository. Store order is insertion order.
func (r *AssetRepository) ListByPlaylist(ctx context.Context, playlistID string) ([]*domain.MediaAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM media_assets WHERE playlist_id = ? ORDER BY rowid`, playlistID)
	if err != nil {
		return nil, domain.NewRepositoryError("list_by_playlist", "asset", "query failed", err)
	}
	defer rows.Close()

	out := make([]*domain.MediaAsset, 0)
	for rows.Next() {
		a, err := scanAsset(rows, "list_by_playlist")
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryError("list_by_playlist", "asset", "iteration failed", err)
	}
	return out, nil
}

// Save implements ports.AssetRepository.
func (r *AssetRepository) Save(ctx context.Context, a *domain.MediaAsset) error {
	var duration sql.NullFloat64
	if a.DurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *a.DurationSeconds, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			playlist_id = excluded.playlist_id,
			type = excluded.type,
			title = excluded.title,
			filename = excluded.filename,
			original_name = excluded.original_name,
			mime_type = excluded.mime_type,
			size = excluded.size,
			status = excluded.status,
			duration_seconds = excluded.duration_seconds,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			year = excluded.year,
			artwork_filename = excluded.artwork_filename,
			updated_at = excluded.updated_at`,
		a.ID, a.PlaylistID, string(a.Type), a.Title, a.Filename, a.OriginalName, a.MimeType, a.Size,
		string(a.Status), duration, a.Artist, a.Album, a.Genre, a.Year, a.ArtworkFilename,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return domain.NewRepositoryError("save", "asset", a.ID, err)
	}
	return nil
}

func scanAsset(s scanner, op string) (*domain.MediaAsset, error) {
	var (
		a                    domain.MediaAsset
		mediaType, status    string
		duration             sql.NullFloat64
		createdAt, updatedAt string
	)
	err := s.Scan(&a.ID, &a.PlaylistID, &mediaType, &a.Title, &a.Filename, &a.OriginalName,
		&a.MimeType, &a.Size, &status, &duration, &a.Artist, &a.Album, &a.Genre, &a.Year,
		&a.ArtworkFilename, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError(op, "asset", "scan failed", err)
	}
	a.Type = domain.MediaType(mediaType)
	a.Status = domain.AssetStatus(status)
	if duration.Valid {
		d := duration.Float64
		a.DurationSeconds = &d
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

var _ ports.AssetRepository = (*AssetRepository)(nil)
