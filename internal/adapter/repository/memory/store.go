// Package memory provides in-process repository implementations: map-backed
// catalog stores for tests and ephemeral servers, and Fyne-preferences-backed
// monitor settings.
package memory

import (
	"context"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// EndpointRepository implements ports.EndpointRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type EndpointRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Endpoint
	order  []string
	bySlug map[string]string
}

// NewEndpointRepository creates an empty endpoint store.
func NewEndpointRepository() *EndpointRepository {
	return &EndpointRepository{
		byID:   make(map[string]*domain.Endpoint),
		bySlug: make(map[string]string),
	}
}

// GetBySlug implements ports.EndpointRepository.
func (r *EndpointRepository) GetBySlug(_ context.Context, slug string) (*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySlug[slug]
	if !ok {
		return nil, domain.ErrEndpointNotFound
	}
	return cloneEndpoint(r.byID[id]), nil
}

// Get implements ports.EndpointRepository.
func (r *EndpointRepository) Get(_ context.Context, id string) (*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrEndpointNotFound
	}
	return cloneEndpoint(e), nil
}

// List implements ports.EndpointRepository.
func (r *EndpointRepository) List(_ context.Context) ([]*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Endpoint, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneEndpoint(r.byID[id]))
	}
	return out, nil
}

// Save implements ports.EndpointRepository.
func (r *EndpointRepository) Save(_ context.Context, endpoint *domain.Endpoint) error {
	if endpoint == nil || endpoint.ID == "" {
		return domain.NewValidationError("ID", nil, "endpoint id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.bySlug[endpoint.Slug]; ok && owner != endpoint.ID {
		return domain.ErrSlugConflict
	}
	if prev, ok := r.byID[endpoint.ID]; ok {
		delete(r.bySlug, prev.Slug)
	} else {
		r.order = append(r.order, endpoint.ID)
	}
	r.byID[endpoint.ID] = cloneEndpoint(endpoint)
	r.bySlug[endpoint.Slug] = endpoint.ID
	return nil
}

// SlugExists implements ports.EndpointRepository.
func (r *EndpointRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySlug[slug]
	return ok, nil
}

// PlaylistRepository implements ports.PlaylistRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.Playlist
	order []string
}

// NewPlaylistRepository creates an empty playlist store.
func NewPlaylistRepository() *PlaylistRepository {
	return &PlaylistRepository{byID: make(map[string]domain.Playlist)}
}

// Get implements ports.PlaylistRepository.
func (r *PlaylistRepository) Get(_ context.Context, id string) (*domain.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}
	return &p, nil
}

// List implements ports.PlaylistRepository.
func (r *PlaylistRepository) List(_ context.Context) ([]*domain.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Playlist, 0, len(r.order))
	for _, id := range r.order {
		p := r.byID[id]
		out = append(out, &p)
	}
	return out, nil
}

// Save implements ports.PlaylistRepository.
func (r *PlaylistRepository) Save(_ context.Context, playlist *domain.Playlist) error {
	if playlist == nil || playlist.ID == "" {
		return domain.NewValidationError("ID", nil, "playlist id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[playlist.ID]; !ok {
		r.order = append(r.order, playlist.ID)
	}
	r.byID[playlist.ID] = *playlist
	return nil
}

// AssetRepository implements ports.AssetRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type AssetRepository struct {
	mu     sync.RWMutex
	assets []domain.MediaAsset
}

// NewAssetRepository creates an empty asset store.
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{}
}

// Get implements ports.AssetRepository.
func (r *AssetRepository) Get(_ context.Context, id string) (*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.assets {
		if a.ID == id {
			return cloneAsset(a), nil
		}
	}
	return nil, domain.ErrAssetNotFound
}

// ListByPlaylist implements ports.AssetRepository.
func (r *AssetRepository) ListByPlaylist(_ context.Context, playlistID string) ([]*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.MediaAsset, 0)
	for _, a := range r.assets {
		if a.PlaylistID == playlistID {
			out = append(out, cloneAsset(a))
		}
	}
	return out, nil
}

// Save implements ports.AssetRepository.
func (r *AssetRepository) Save(_ context.Context, asset *domain.MediaAsset) error {
	if asset == nil || asset.ID == "" {
		return domain.NewValidationError("ID", nil, "asset id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.assets {
		if r.assets[i].ID == asset.ID {
			r.assets[i] = *cloneAsset(*asset)
			return nil
		}
	}
	r.assets = append(r.assets, *cloneAsset(*asset))
	return nil
}

func cloneEndpoint(e *domain.Endpoint) *domain.Endpoint {
	c := *e
	if e.PlaylistID != nil {
		id := *e.PlaylistID
		c.PlaylistID = &id
	}
	if e.LastSync != nil {
		t := *e.LastSync
		c.LastSync = &t
	}
	if e.LatencyMs != nil {
		ms := *e.LatencyMs
		c.LatencyMs = &ms
	}
	if o := e.Visualizer.Overrides; o != nil {
		oc := *o
		if o.Palette != nil {
			p := *o.Palette
			oc.Palette = &p
		}
		c.Visualizer.Overrides = &oc
	}
	return &c
}

func cloneAsset(a domain.MediaAsset) *domain.MediaAsset {
	if a.DurationSeconds != nil {
		d := *a.DurationSeconds
		a.DurationSeconds = &d
	}
	return &a
}

// Verify interface implementation
var (
	_ ports.EndpointRepository = (*EndpointRepository)(nil)
	_ ports.PlaylistRepository = (*PlaylistRepository)(nil)
	_ ports.AssetRepository    = (*AssetRepository)(nil)
)
