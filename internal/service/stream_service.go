// Package service provides the business logic of the streaming platform:
// stream resolution, endpoint and playlist management, library import and
// the playback controller that drives embed players.
package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

// StreamService resolves endpoint slugs into stream payloads.
//
// The only availability rule is the gate below: an endpoint streams when its
// status is operational or degraded and a playlist is assigned. Everything
// else yields an empty track list.
type StreamService struct {
	// Dependencies (injected)
	endpoints ports.EndpointRepository
	playlists ports.PlaylistRepository
	assets    ports.AssetRepository
	catalog   *visualizer.Catalog
	bus       ports.EventBus
	logger    *slog.Logger
}

// NewStreamService creates a stream service. catalog normalizes the
// visualizer settings returned to players and may be nil.
func NewStreamService(
	endpoints ports.EndpointRepository,
	playlists ports.PlaylistRepository,
	assets ports.AssetRepository,
	catalog *visualizer.Catalog,
	bus ports.EventBus,
	logger *slog.Logger,
) *StreamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamService{
		endpoints: endpoints,
		playlists: playlists,
		assets:    assets,
		catalog:   catalog,
		bus:       bus,
		logger:    logger.With(slog.String("component", "stream")),
	}
}

// Resolve builds the payload for slug. Unknown slugs return
// domain.ErrEndpointNotFound; store failures are wrapped in a ServiceError.
func (s *StreamService) Resolve(ctx context.Context, slug string) (*domain.StreamPayload, error) {
	start := time.Now()

	payload, err := s.resolve(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrEndpointNotFound):
		s.publish(domain.NewStreamResolvedEvent(slug, domain.OutcomeNotFound, 0, time.Since(start)))
		return nil, err
	case err != nil:
		s.logger.Error("stream resolution failed", slog.String("slug", slug), slog.Any("error", err))
		s.publish(domain.NewStreamResolvedEvent(slug, domain.OutcomeError, 0, time.Since(start)))
		return nil, domain.NewServiceError("StreamService", "Resolve", "stream resolution failed", err)
	}

	outcome := domain.OutcomeIdle
	if len(payload.Tracks) > 0 {
		outcome = domain.OutcomeStreaming
	}
	s.logger.Debug("stream resolved",
		slog.String("slug", slug),
		slog.String("status", string(payload.Endpoint.Status)),
		slog.Int("tracks", len(payload.Tracks)))
	s.publish(domain.NewStreamResolvedEvent(slug, outcome, len(payload.Tracks), time.Since(start)))
	return payload, nil
}

func (s *StreamService) resolve(ctx context.Context, slug string) (*domain.StreamPayload, error) {
	endpoint, err := s.endpoints.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	payload := &domain.StreamPayload{
		Endpoint: domain.StreamEndpoint{
			Name:          endpoint.Name,
			Slug:          endpoint.Slug,
			Status:        endpoint.Status,
			LastSync:      endpoint.LastSync,
			PlayerVariant: domain.NormalizePlayerVariant(endpoint.PlayerVariant),
			Visualizer:    s.catalog.NormalizeSettings(endpoint.Visualizer),
		},
		Tracks: []domain.Track{},
	}

	var playlist *domain.Playlist
	if endpoint.PlaylistID != nil && *endpoint.PlaylistID != "" {
		playlist, err = s.playlists.Get(ctx, *endpoint.PlaylistID)
		switch {
		case errors.Is(err, domain.ErrPlaylistNotFound):
			// A dangling assignment reads as "no playlist".
			s.logger.Warn("endpoint references missing playlist",
				slog.String("slug", slug), slog.String("playlist_id", *endpoint.PlaylistID))
			playlist = nil
		case err != nil:
			return nil, err
		}
	}
	if playlist != nil {
		payload.Playlist = &domain.StreamPlaylist{ID: playlist.ID, Name: playlist.Name, Type: playlist.Type}
	}

	if !endpoint.Status.ShouldStream() || playlist == nil {
		return payload, nil
	}

	assets, err := s.assets.ListByPlaylist(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if asset.PlaylistID != playlist.ID || asset.Status != domain.AssetReady {
			continue
		}
		payload.Tracks = append(payload.Tracks, TrackFromAsset(asset))
	}
	return payload, nil
}

func (s *StreamService) publish(e domain.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// TrackFromAsset maps a ready asset to its public track.
func TrackFromAsset(asset *domain.MediaAsset) domain.Track {
	track := domain.Track{
		ID:              asset.ID,
		Title:           asset.Title,
		Src:             MediaURL(asset.Type, asset.PlaylistID, asset.Filename),
		MimeType:        asset.MimeType,
		DurationSeconds: asset.DurationSeconds,
	}
	if asset.Artist != "" {
		artist := asset.Artist
		track.Artist = &artist
	}
	if asset.ArtworkFilename != "" {
		url := ArtworkURL(asset.PlaylistID, asset.ArtworkFilename)
		track.ArtworkURL = &url
	}
	return track
}

// MediaURL is the public path of an asset file: /media/{type}/{playlistId}/{filename}.
func MediaURL(mediaType domain.MediaType, playlistID, filename string) string {
	return "/" + path.Join("media", string(mediaType), playlistID, filename)
}

// ArtworkURL is the public path of extracted artwork: /media/artwork/{playlistId}/{filename}.
func ArtworkURL(playlistID, filename string) string {
	return "/" + path.Join("media", "artwork", playlistID, filename)
}

var _ ports.StreamSource = (*StreamService)(nil)
