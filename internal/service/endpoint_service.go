package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

const (
	slugMin          = 100000000
	slugMax          = 999999999
	maxSlugAttempts  = 32
	endpointNameHint = "Endpoint name is required."
)

// NewEndpoint describes an endpoint to create.
type NewEndpoint struct {
	Name       string
	PlaylistID string // optional
	Variant    domain.PlayerVariant
	Visualizer any // raw settings, normalized on create
}

// EndpointUpdate lists the fields to change. Nil fields are left alone.
type EndpointUpdate struct {
	Name *string

	// PlaylistID assigns a playlist; a pointer to "" clears the assignment.
	PlaylistID *string

	Status     *domain.EndpointStatus
	Variant    *domain.PlayerVariant
	Visualizer any
}

// EndpointService creates and updates endpoints.
type EndpointService struct {
	// Dependencies (injected)
	endpoints ports.EndpointRepository
	playlists ports.PlaylistRepository
	catalog   *visualizer.Catalog
	clock     ports.Clock
	logger    *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEndpointService creates an endpoint service.
func NewEndpointService(
	endpoints ports.EndpointRepository,
	playlists ports.PlaylistRepository,
	catalog *visualizer.Catalog,
	clock ports.Clock,
	logger *slog.Logger,
) *EndpointService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndpointService{
		endpoints: endpoints,
		playlists: playlists,
		catalog:   catalog,
		clock:     clock,
		logger:    logger.With(slog.String("component", "endpoints")),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetRand replaces the slug generator source.
func (s *EndpointService) SetRand(r *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = r
}

// Create stores a new pending endpoint with a fresh numeric slug.
func (s *EndpointService) Create(ctx context.Context, in NewEndpoint) (*domain.Endpoint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", in.Name, endpointNameHint)
	}

	var playlistID *string
	if id := strings.TrimSpace(in.PlaylistID); id != "" {
		if _, err := s.playlists.Get(ctx, id); err != nil {
			return nil, err
		}
		playlistID = &id
	}

	slug, err := s.uniqueSlug(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	endpoint := &domain.Endpoint{
		ID:            uuid.NewString(),
		Name:          name,
		Slug:          slug,
		Status:        domain.StatusPending,
		PlaylistID:    playlistID,
		PlayerVariant: domain.NormalizePlayerVariant(in.Variant),
		Visualizer:    s.catalog.NormalizeSettings(in.Visualizer),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.endpoints.Save(ctx, endpoint); err != nil {
		return nil, domain.NewServiceError("EndpointService", "Create", "failed to save endpoint", err)
	}

	s.logger.Info("endpoint created", slog.String("id", endpoint.ID), slog.String("slug", slug))
	return endpoint, nil
}

// Update applies the changes in upd. Setting the status to operational
// stamps LastSync; UpdatedAt is always refreshed.
func (s *EndpointService) Update(ctx context.Context, id string, upd EndpointUpdate) (*domain.Endpoint, error) {
	endpoint, err := s.endpoints.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", *upd.Name, endpointNameHint)
		}
		endpoint.Name = name
	}

	if upd.PlaylistID != nil {
		id := strings.TrimSpace(*upd.PlaylistID)
		if id == "" {
			endpoint.PlaylistID = nil
		} else {
			if _, err := s.playlists.Get(ctx, id); err != nil {
				return nil, err
			}
			endpoint.PlaylistID = &id
		}
	}

	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, domain.NewValidationError("status", *upd.Status, "unknown endpoint status")
		}
		endpoint.Status = *upd.Status
		if endpoint.Status == domain.StatusOperational {
			endpoint.LastSync = &now
		}
	}

	if upd.Variant != nil {
		endpoint.PlayerVariant = domain.NormalizePlayerVariant(*upd.Variant)
	}
	if upd.Visualizer != nil {
		endpoint.Visualizer = s.catalog.NormalizeSettings(upd.Visualizer)
	}

	endpoint.UpdatedAt = now
	if err := s.endpoints.Save(ctx, endpoint); err != nil {
		return nil, domain.NewServiceError("EndpointService", "Update", "failed to save endpoint", err)
	}
	return endpoint, nil
}

// Get returns the endpoint with id.
func (s *EndpointService) Get(ctx context.Context, id string) (*domain.Endpoint, error) {
	return s.endpoints.Get(ctx, id)
}

// GetBySlug returns the endpoint owning slug.
func (s *EndpointService) GetBySlug(ctx context.Context, slug string) (*domain.Endpoint, error) {
	return s.endpoints.GetBySlug(ctx, slug)
}

// List returns every endpoint in creation order.
func (s *EndpointService) List(ctx context.Context) ([]*domain.Endpoint, error) {
	return s.endpoints.List(ctx)
}

func (s *EndpointService) uniqueSlug(ctx context.Context) (string, error) {
	for range maxSlugAttempts {
		slug := s.nextSlug()
		exists, err := s.endpoints.SlugExists(ctx, slug)
		if err != nil {
			return "", domain.NewServiceError("EndpointService", "Create", "slug lookup failed", err)
		}
		if !exists {
			return slug, nil
		}
	}
	return "", domain.NewServiceError("EndpointService", "Create", "no free slug", errors.New("slug space exhausted"))
}

func (s *EndpointService) nextSlug() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(slugMin + s.rng.IntN(slugMax-slugMin+1))
}
