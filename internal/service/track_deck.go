package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Feedback texts shown under the player.
const (
	FeedbackPressPlay = "Press play to start the stream."
	FeedbackDegraded  = "Streaming in degraded mode. Playback issues may occur."
)

// ArtworkDimDelay is how long artwork stays revealed after a track change.
const ArtworkDimDelay = 4 * time.Second

// TrackDeck drives one media element through a fixed track list.
//
// Standard variants stop after the last track; the background variant wraps
// to the first track and loops forever. The deck never calls the element's
// Play or Pause while holding its own lock, since the element delivers
// play/pause/ended events synchronously to the deck's listener.
type TrackDeck struct {
	// Dependencies (injected)
	element ports.MediaElement
	view    ports.PlayerView
	clock   ports.Clock
	bus     ports.EventBus
	logger  *slog.Logger

	variant domain.PlayerVariant
	tracks  []domain.Track

	// Plays started by the deck itself are bound to ctx, canceled on Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	index          int
	persistent     bool
	artworkTimer   ports.Timer
	artworkGen     int
	removeListener func()
	closed         bool
}

func newTrackDeck(
	element ports.MediaElement,
	view ports.PlayerView,
	clock ports.Clock,
	bus ports.EventBus,
	logger *slog.Logger,
	variant domain.PlayerVariant,
	tracks []domain.Track,
) *TrackDeck {
	ctx, cancel := context.WithCancel(context.Background())
	d := &TrackDeck{
		element: element,
		view:    view,
		clock:   clock,
		bus:     bus,
		logger:  logger,
		variant: variant,
		tracks:  tracks,
		ctx:     ctx,
		cancel:  cancel,
	}
	d.removeListener = element.AddListener(d.handleMediaEvent)
	return d
}

// Len returns the number of tracks.
func (d *TrackDeck) Len() int {
	return len(d.tracks)
}

// Index returns the selected track index.
func (d *TrackDeck) Index() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Current returns the selected track.
func (d *TrackDeck) Current() domain.Track {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracks[d.index]
}

// Select makes track i current: it sets the element source, updates the
// now-playing label and, for the large variant, reveals the artwork.
func (d *TrackDeck) Select(i int) error {
	if i < 0 || i >= len(d.tracks) {
		return domain.NewValidationError("index", i, "track index out of range")
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return domain.ErrClosed
	}
	d.index = i
	track := d.tracks[i]
	if err := d.element.SetSource(track.Src, track.MimeType); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.variant != domain.VariantBackground {
		d.view.SetNowPlaying(i, track.DisplayLabel())
	}
	if d.variant == domain.VariantLarge {
		d.revealArtworkLocked(track)
	}
	d.mu.Unlock()

	d.logger.Debug("track selected", slog.Int("index", i), slog.String("title", track.Title))
	d.publish(domain.NewTrackSelectedEvent(track, i))
	return nil
}

// TryPlay asks the element to play. A refusal, typically the autoplay
// policy, surfaces as a non-persistent "press play" hint and is not
// returned to the caller.
func (d *TrackDeck) TryPlay() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	track := d.tracks[d.index]
	d.mu.Unlock()

	err := d.element.Play(d.ctx)
	if err == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	// A persistent notice stays in place; the hint only fills an empty slot.
	if d.variant != domain.VariantBackground && !d.persistent {
		d.view.ShowFeedback(FeedbackPressPlay, false)
	}
	d.mu.Unlock()

	d.logger.Info("playback did not start", slog.String("track", track.ID), slog.Any("error", err))
	d.publish(domain.NewPlaybackBlockedEvent(track, err))
}

// ShowDegraded pins the degraded-mode notice. The background variant has no
// feedback line, so the notice only reaches the log there.
func (d *TrackDeck) ShowDegraded() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.persistent = true
	if d.variant == domain.VariantBackground {
		d.logger.Warn(FeedbackDegraded)
		return
	}
	d.view.ShowFeedback(FeedbackDegraded, true)
}

// Close detaches from the element, stops the artwork timer and pauses playback.
func (d *TrackDeck) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopArtworkTimerLocked()
	remove := d.removeListener
	d.removeListener = nil
	d.mu.Unlock()

	if remove != nil {
		remove()
	}
	d.cancel()
	d.element.Pause()
}

func (d *TrackDeck) handleMediaEvent(event ports.MediaEvent) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	index := d.index
	track := d.tracks[index]
	if event.Src != "" && event.Src != track.Src {
		d.mu.Unlock()
		return
	}

	switch event.Type {
	case ports.MediaPlay:
		if !d.persistent && d.variant != domain.VariantBackground {
			d.view.HideFeedback()
		}
		d.mu.Unlock()
		d.publish(domain.NewTrackStartedEvent(track, index))

	case ports.MediaEnded:
		next := -1
		switch {
		case index < len(d.tracks)-1:
			next = index + 1
		case d.variant == domain.VariantBackground:
			next = 0
		}
		d.mu.Unlock()

		d.publish(domain.NewTrackEndedEvent(track, index, next))
		if next < 0 {
			d.logger.Debug("playlist finished", slog.Int("tracks", len(d.tracks)))
			return
		}
		if err := d.Select(next); err != nil {
			return
		}
		d.TryPlay()

	default:
		d.mu.Unlock()
	}
}

// revealArtworkLocked must be called with d.mu held.
func (d *TrackDeck) revealArtworkLocked(track domain.Track) {
	d.stopArtworkTimerLocked()
	if track.ArtworkURL == nil || *track.ArtworkURL == "" {
		d.view.SetArtwork("")
		return
	}
	d.view.SetArtwork(*track.ArtworkURL)
	d.view.SetArtworkRevealed(true)

	d.artworkGen++
	gen := d.artworkGen
	d.artworkTimer = d.clock.AfterFunc(ArtworkDimDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed || gen != d.artworkGen {
			return
		}
		d.artworkTimer = nil
		d.view.SetArtworkRevealed(false)
	})
}

func (d *TrackDeck) stopArtworkTimerLocked() {
	if d.artworkTimer != nil {
		d.artworkTimer.Stop()
		d.artworkTimer = nil
	}
	d.artworkGen++
}

func (d *TrackDeck) publish(e domain.Event) {
	if d.bus != nil {
		d.bus.Publish(e)
	}
}
