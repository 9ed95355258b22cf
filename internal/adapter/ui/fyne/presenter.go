// Package fyne provides the Fyne desktop monitor: a window that renders an
// endpoint's player like the embed page does, driven by the same playback
// controller.
package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/service"
)

// MonitorView defines the interface for UI updates.
// The actual UI implementation (PlayerWindow) must implement this interface.
type MonitorView interface {
	ports.PlayerView

	// SetPlayState highlights the play or the pause control.
	SetPlayState(playing bool)

	// ShowNotification displays a system notification.
	ShowNotification(title, message string)
}

// Player is the part of service.PlayerController the presenter drives.
type Player interface {
	Load(ctx context.Context, slug string) error
	SelectTrack(i int) error
	Resume() error
	Pause()
	Close()
}

// PlayerFactory builds a player that fetches from serverURL and renders into view.
type PlayerFactory func(serverURL string, view ports.PlayerView) (Player, error)

// Presenter coordinates the monitor window, the saved connection and the
// player. A player is bound to one server; opening an endpoint on another
// server replaces it.
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	// Dependencies
	logger      *slog.Logger
	preferences *service.PreferenceService
	newPlayer   PlayerFactory
	bus         ports.EventBus
	view        MonitorView

	// Presentation state
	player        Player
	serverURL     string
	subscriptions []domain.SubscriptionID

	// Concurrency control
	mu           sync.Mutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter and subscribes it to playback events.
func NewPresenter(
	logger *slog.Logger,
	preferences *service.PreferenceService,
	newPlayer PlayerFactory,
	bus ports.EventBus,
	view MonitorView,
) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{
		logger:      logger.With(slog.String("component", "presenter")),
		preferences: preferences,
		newPlayer:   newPlayer,
		bus:         bus,
		view:        view,
	}
	p.subscribeToEvents()
	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	if p.bus == nil {
		return
	}
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventTrackStarted:    p.onTrackStarted,
		domain.EventTrackEnded:      p.onTrackEnded,
		domain.EventPlaybackBlocked: p.onPlaybackBlocked,
		domain.EventPlayerStatus:    p.onPlayerStatus,
	}
	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.bus.Subscribe(eventType, handler))
	}
}

// Event handlers

func (p *Presenter) onTrackStarted(domain.Event) {
	p.view.SetPlayState(true)
}

func (p *Presenter) onTrackEnded(event domain.Event) {
	e, ok := event.(domain.TrackEndedEvent)
	if !ok {
		return
	}
	if e.Next < 0 {
		p.view.SetPlayState(false)
		p.view.ShowNotification("Playlist finished", e.Track.DisplayLabel())
	}
}

func (p *Presenter) onPlaybackBlocked(domain.Event) {
	p.view.SetPlayState(false)
}

func (p *Presenter) onPlayerStatus(event domain.Event) {
	if _, ok := event.(domain.PlayerStatusEvent); ok {
		p.view.SetPlayState(false)
	}
}

// UI Command handlers (called by UI)

// OnOpen saves the connection and loads the endpoint. It blocks on the
// stream request, so UI callbacks run it on a goroutine.
func (p *Presenter) OnOpen(ctx context.Context, serverURL, slug string) error {
	if err := p.preferences.SetServerURL(serverURL); err != nil {
		return err
	}
	if err := p.preferences.SetSlug(slug); err != nil {
		return err
	}
	serverURL = p.preferences.ServerURL()

	player, err := p.playerFor(serverURL)
	if err != nil {
		return err
	}
	p.logger.Info("opening endpoint", slog.String("server", serverURL), slog.String("slug", slug))
	return player.Load(ctx, strings.TrimSpace(slug))
}

// playerFor returns the player bound to serverURL, replacing a player bound
// to another server.
func (p *Presenter) playerFor(serverURL string) (Player, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil && p.serverURL == serverURL {
		return p.player, nil
	}
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	player, err := p.newPlayer(serverURL, p.view)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	p.player = player
	p.serverURL = serverURL
	return player, nil
}

// RestoreSession reopens the last endpoint, if one was saved.
// It reports whether there was one.
func (p *Presenter) RestoreSession(ctx context.Context) (bool, error) {
	slug := p.preferences.Slug()
	if slug == "" {
		return false, nil
	}
	return true, p.OnOpen(ctx, p.preferences.ServerURL(), slug)
}

// OnPlayClicked handles the play button click.
func (p *Presenter) OnPlayClicked() {
	player := p.currentPlayer()
	if player == nil {
		return
	}
	if err := player.Resume(); err != nil {
		p.logger.Debug("nothing to play", slog.Any("error", err))
	}
}

// OnPauseClicked handles the pause button click.
func (p *Presenter) OnPauseClicked() {
	player := p.currentPlayer()
	if player == nil {
		return
	}
	player.Pause()
	p.view.SetPlayState(false)
}

// OnTrackSelected handles a click on the track list.
func (p *Presenter) OnTrackSelected(index int) {
	player := p.currentPlayer()
	if player == nil {
		return
	}
	if err := player.SelectTrack(index); err != nil {
		p.logger.Warn("track selection failed", slog.Int("index", index), slog.Any("error", err))
	}
}

func (p *Presenter) currentPlayer() Player {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player
}

// ServerURL returns the server of the current player, or "".
func (p *Presenter) ServerURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.serverURL
}

// Shutdown unsubscribes from the bus and closes the player.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		if p.bus != nil {
			for _, id := range p.subscriptions {
				p.bus.Unsubscribe(id)
			}
		}
		p.mu.Lock()
		player := p.player
		p.player = nil
		p.mu.Unlock()
		if player != nil {
			player.Close()
		}
	})
}
