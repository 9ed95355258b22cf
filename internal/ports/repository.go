// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// EndpointRepository handles the persistence of endpoints.
//
// Thread-safety: Implementations must be thread-safe.
type EndpointRepository interface {
	// GetBySlug retrieves an endpoint by its public slug.
	// If no endpoint matches, returns (nil, domain.ErrEndpointNotFound).
	GetBySlug(ctx context.Context, slug string) (*domain.Endpoint, error)

	// Get retrieves an endpoint by ID.
	// If the endpoint doesn't exist, returns (nil, domain.ErrEndpointNotFound).
	Get(ctx context.Context, id string) (*domain.Endpoint, error)

	// List returns all endpoints in creation order.
	List(ctx context.Context) ([]*domain.Endpoint, error)

	// Save persists an endpoint. An endpoint with the same ID is replaced.
	// Returns domain.ErrSlugConflict when another endpoint owns the slug.
	Save(ctx context.Context, endpoint *domain.Endpoint) error

	// SlugExists reports whether any endpoint uses the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// PlaylistRepository handles the persistence of playlists.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Get retrieves a playlist by ID.
	// If the playlist doesn't exist, returns (nil, domain.ErrPlaylistNotFound).
	Get(ctx context.Context, id string) (*domain.Playlist, error)

	// List returns all playlists in creation order.
	List(ctx context.Context) ([]*domain.Playlist, error)

	// Save persists a playlist. A playlist with the same ID is replaced.
	Save(ctx context.Context, playlist *domain.Playlist) error
}

// AssetRepository handles the persistence of media assets.
//
// Thread-safety: Implementations must be thread-safe.
type AssetRepository interface {
	// Get retrieves an asset by ID.
	// If the asset doesn't exist, returns (nil, domain.ErrAssetNotFound).
	Get(ctx context.Context, id string) (*domain.MediaAsset, error)

	// ListByPlaylist returns the assets of a playlist in store order,
	// regardless of status.
	ListByPlaylist(ctx context.Context, playlistID string) ([]*domain.MediaAsset, error)

	// Save persists an asset. An asset with the same ID is replaced in place.
	Save(ctx context.Context, asset *domain.MediaAsset) error
}

// MonitorPreferences persists the desktop monitor's last used connection.
//
// Thread-safety: Implementations must be thread-safe.
type MonitorPreferences interface {
	// SaveServerURL persists the stream server base URL.
	SaveServerURL(url string) error

	// LoadServerURL returns the saved URL, or "" when none was saved.
	LoadServerURL() (string, error)

	// SaveSlug persists the last opened endpoint slug.
	SaveSlug(slug string) error

	// LoadSlug returns the saved slug, or "" when none was saved.
	LoadSlug() (string, error)

	// Clear removes all saved preferences.
	Clear() error
}
