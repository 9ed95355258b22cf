package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// PlaylistService creates and lists playlists.
type PlaylistService struct {
	// Dependencies (injected)
	repository ports.PlaylistRepository
	clock      ports.Clock
	logger     *slog.Logger
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(repository ports.PlaylistRepository, clock ports.Clock, logger *slog.Logger) *PlaylistService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistService{
		repository: repository,
		clock:      clock,
		logger:     logger.With(slog.String("component", "playlists")),
	}
}

// Create stores an empty playlist. The name is trimmed and required;
// an empty media type defaults to music.
func (s *PlaylistService) Create(ctx context.Context, name string, mediaType domain.MediaType) (*domain.Playlist, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, domain.NewValidationError("name", name, "Playlist name is required.")
	}
	switch mediaType {
	case "":
		mediaType = domain.MediaMusic
	case domain.MediaMusic, domain.MediaVideo:
	default:
		return nil, domain.NewValidationError("type", mediaType, "unknown media type")
	}

	now := s.clock.Now().UTC()
	playlist := &domain.Playlist{
		ID:        uuid.NewString(),
		Name:      trimmed,
		Type:      mediaType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.Save(ctx, playlist); err != nil {
		return nil, domain.NewServiceError("PlaylistService", "Create", "failed to save playlist", err)
	}
	s.logger.Info("playlist created", slog.String("id", playlist.ID), slog.String("type", string(mediaType)))
	return playlist, nil
}

// Get returns the playlist with id.
func (s *PlaylistService) Get(ctx context.Context, id string) (*domain.Playlist, error) {
	return s.repository.Get(ctx, id)
}

// List returns every playlist in creation order.
func (s *PlaylistService) List(ctx context.Context) ([]*domain.Playlist, error) {
	return s.repository.List(ctx)
}
