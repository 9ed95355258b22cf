package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Status panels rendered instead of the player.
var (
	StatusMissing     = ports.StatusMessage{Title: "Endpoint missing.", Message: "Unable to determine the requested playlist."}
	StatusLoading     = ports.StatusMessage{Title: "Loading stream.", Message: "Fetching playlist metadata."}
	StatusUnavailable = ports.StatusMessage{Title: "Playback unavailable.", Message: "The player could not reach the media service. Please try again later."}
	StatusDisabled    = ports.StatusMessage{Title: "Endpoint disabled.", Message: "This endpoint has been deactivated in the admin console."}
	StatusNoPlaylist  = ports.StatusMessage{Title: "Playlist required.", Message: "Assign a playlist to this endpoint to start playback."}
	StatusPending     = ports.StatusMessage{Title: "Activation pending.", Message: "Enable this endpoint from the admin console to begin streaming."}
	StatusNoMedia     = ports.StatusMessage{Title: "No media available.", Message: "Upload ready tracks to the assigned playlist."}
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,64}$`)

// ValidSlug reports whether slug is acceptable in an embed URL.
func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// PlayerConfig holds the collaborators of a PlayerController.
type PlayerConfig struct {
	Source  ports.StreamSource
	View    ports.PlayerView
	Element ports.MediaElement
	Clock   ports.Clock

	// Visualizers builds the large variant's visualizer. Optional.
	Visualizers ports.VisualizerFactory

	Bus    ports.EventBus
	Logger *slog.Logger
}

// PlayerController turns a stream payload into a player: it picks the
// status panel or playback layout, builds the track deck and mounts the
// visualizer for the large variant.
//
// Thread-safety: all methods may be called concurrently. The controller
// never holds its lock while the media element is asked to play.
type PlayerController struct {
	// Dependencies (injected)
	source      ports.StreamSource
	view        ports.PlayerView
	element     ports.MediaElement
	clock       ports.Clock
	visualizers ports.VisualizerFactory
	bus         ports.EventBus
	logger      *slog.Logger

	mu         sync.Mutex
	slug       string
	payload    *domain.StreamPayload
	deck       *TrackDeck
	visualizer ports.Visualizer
	seq        int
	closed     bool
}

// NewPlayerController creates a controller. Source, View, Element and Clock are required.
func NewPlayerController(cfg PlayerConfig) (*PlayerController, error) {
	switch {
	case cfg.Source == nil:
		return nil, domain.NewValidationError("source", nil, "stream source is required")
	case cfg.View == nil:
		return nil, domain.NewValidationError("view", nil, "player view is required")
	case cfg.Element == nil:
		return nil, domain.NewValidationError("element", nil, "media element is required")
	case cfg.Clock == nil:
		return nil, domain.NewValidationError("clock", nil, "clock is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PlayerController{
		source:      cfg.Source,
		view:        cfg.View,
		element:     cfg.Element,
		clock:       cfg.Clock,
		visualizers: cfg.Visualizers,
		bus:         cfg.Bus,
		logger:      logger.With(slog.String("component", "player")),
	}, nil
}

// Load fetches the payload for slug and renders it. Loading again replaces
// the previous player. Status panels are not errors; Load only fails when
// the slug is missing, the payload cannot be fetched, or the controller is closed.
func (c *PlayerController) Load(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	c.teardownLocked()
	c.seq++
	seq := c.seq
	c.slug = slug
	c.payload = nil

	if slug == "" {
		c.showStatusLocked(StatusMissing)
		c.mu.Unlock()
		return domain.ErrInvalidSlug
	}
	c.view.SetSubtitle("Endpoint " + slug)
	c.showStatusLocked(StatusLoading)
	c.mu.Unlock()

	payload, err := c.source.Resolve(ctx, slug)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		// Closed or superseded while the fetch was in flight.
		c.mu.Unlock()
		return nil
	}
	if err != nil || payload == nil {
		c.logger.Warn("stream payload unavailable", slog.String("slug", slug), slog.Any("error", err))
		c.showStatusLocked(StatusUnavailable)
		c.mu.Unlock()
		if err == nil {
			err = fmt.Errorf("empty payload")
		}
		return fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	c.payload = payload

	deck := c.renderLocked(payload)
	c.mu.Unlock()

	if deck != nil {
		deck.TryPlay()
	}
	return nil
}

// renderLocked applies the status precedence and, when the endpoint can
// play, builds the player. It returns the deck to start, or nil.
func (c *PlayerController) renderLocked(payload *domain.StreamPayload) *TrackDeck {
	endpoint := payload.Endpoint
	if payload.Playlist != nil {
		c.view.SetSubtitle(payload.Playlist.Name + " • " + endpoint.Name)
	} else {
		c.view.SetSubtitle(endpoint.Name)
	}

	switch {
	case endpoint.Status == domain.StatusDisabled:
		c.showStatusLocked(StatusDisabled)
		return nil
	case payload.Playlist == nil:
		c.showStatusLocked(StatusNoPlaylist)
		return nil
	case endpoint.Status == domain.StatusPending:
		c.showStatusLocked(StatusPending)
		return nil
	case len(payload.Tracks) == 0:
		c.showStatusLocked(StatusNoMedia)
		return nil
	}

	variant := domain.NormalizePlayerVariant(endpoint.PlayerVariant)
	degraded := endpoint.Status == domain.StatusDegraded
	c.view.ShowPlayback(ports.PlaybackLayout{
		Variant:  variant,
		Title:    endpoint.Name,
		Subtitle: payload.Playlist.Name,
		Tracks:   payload.Tracks,
		Degraded: degraded,
	})

	deck := newTrackDeck(c.element, c.view, c.clock, c.bus, c.logger, variant, payload.Tracks)
	c.deck = deck
	if degraded {
		deck.ShowDegraded()
	}
	if variant == domain.VariantLarge {
		c.attachVisualizerLocked(endpoint.Visualizer)
	}
	if err := deck.Select(0); err != nil {
		c.logger.Error("failed to select first track", slog.Any("error", err))
		return nil
	}
	c.logger.Info("playback ready",
		slog.String("slug", endpoint.Slug),
		slog.String("variant", string(variant)),
		slog.Int("tracks", len(payload.Tracks)))
	return deck
}

func (c *PlayerController) attachVisualizerLocked(settings domain.VisualizerSettings) {
	if c.visualizers == nil {
		return
	}
	v, err := c.visualizers(c.element, settings)
	if err != nil {
		// The player still works without a visualizer.
		c.logger.Warn("visualizer unavailable", slog.Any("error", err))
		return
	}
	c.visualizer = v
	c.view.AttachVisualizer(v)
}

// SelectTrack makes track i current and tries to play it, as a click on
// the track list does.
func (c *PlayerController) SelectTrack(i int) error {
	c.mu.Lock()
	deck := c.deck
	c.mu.Unlock()
	if deck == nil {
		return domain.ErrNoSource
	}
	if err := deck.Select(i); err != nil {
		return err
	}
	deck.TryPlay()
	return nil
}

// Resume retries playback of the current track, as a press on play does.
func (c *PlayerController) Resume() error {
	c.mu.Lock()
	deck := c.deck
	c.mu.Unlock()
	if deck == nil {
		return domain.ErrNoSource
	}
	deck.TryPlay()
	return nil
}

// Pause pauses the media element.
func (c *PlayerController) Pause() {
	c.element.Pause()
}

// Payload returns the last loaded payload, nil before a successful fetch.
func (c *PlayerController) Payload() *domain.StreamPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload
}

// Slug returns the slug of the last Load.
func (c *PlayerController) Slug() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slug
}

// CurrentIndex returns the selected track index, or -1 without a player.
func (c *PlayerController) CurrentIndex() int {
	c.mu.Lock()
	deck := c.deck
	c.mu.Unlock()
	if deck == nil {
		return -1
	}
	return deck.Index()
}

// Visualizer returns the mounted visualizer, or nil.
func (c *PlayerController) Visualizer() ports.Visualizer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visualizer
}

// Close tears down the player. Pending fetches are ignored when they return.
func (c *PlayerController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.teardownLocked()
	c.logger.Debug("player closed")
}

func (c *PlayerController) teardownLocked() {
	if c.visualizer != nil {
		c.visualizer.Dispose()
		c.visualizer = nil
	}
	if c.deck != nil {
		c.deck.Close()
		c.deck = nil
	}
}

func (c *PlayerController) showStatusLocked(msg ports.StatusMessage) {
	c.view.ShowStatus(msg)
	if c.bus != nil {
		c.bus.Publish(domain.NewPlayerStatusEvent(c.slug, msg.Title, msg.Message))
	}
}
