// Package ports define the UI interface for view abstraction.
// These interfaces let the playback controller drive an HTML page or a desktop window alike.
package ports

import (
	"context"
	"image"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// StreamSource resolves a slug into a stream payload.
// Implemented by the stream service (in-process) and the HTTP stream client.
type StreamSource interface {
	// Resolve returns domain.ErrEndpointNotFound for unknown slugs.
	Resolve(ctx context.Context, slug string) (*domain.StreamPayload, error)
}

// StatusMessage is a title/message pair shown instead of the player.
type StatusMessage struct {
	Title   string
	Message string
}

// PlaybackLayout describes the player to build for a streaming endpoint.
type PlaybackLayout struct {
	Variant  domain.PlayerVariant
	Title    string
	Subtitle string
	Tracks   []domain.Track
	Degraded bool
}

// Visualizer is a running visualizer instance that a view can display.
type Visualizer interface {
	// Resize sets the display size in logical pixels and the device pixel ratio.
	Resize(width, height int, pixelRatio float64)

	// Snapshot returns the most recently drawn frame, nil before the first draw.
	Snapshot() image.Image

	// Status returns the current status text ("" while actively drawing).
	Status() string

	// Dispose stops rendering and releases listeners and timers.
	Dispose()
}

// VisualizerFactory creates a visualizer bound to a media element.
type VisualizerFactory func(element MediaElement, settings domain.VisualizerSettings) (Visualizer, error)

// PlayerView is the presentation surface driven by the playback controller.
//
// Thread-safety: the controller serializes calls; implementations that render
// on a UI thread must hop to it themselves.
type PlayerView interface {
	// SetSubtitle sets the header line ("{playlist} • {endpoint}").
	SetSubtitle(text string)

	// ShowStatus replaces any player with a status panel.
	ShowStatus(msg StatusMessage)

	// ShowPlayback builds the player for a streaming endpoint.
	ShowPlayback(layout PlaybackLayout)

	// SetNowPlaying updates the now-playing label and highlights index.
	SetNowPlaying(index int, label string)

	// SetArtwork shows the artwork at url, or clears it when url is "".
	SetArtwork(url string)

	// SetArtworkRevealed toggles the artwork between revealed and dimmed.
	SetArtworkRevealed(revealed bool)

	// ShowFeedback displays a feedback line.
	ShowFeedback(text string, persistent bool)

	// HideFeedback clears the feedback line.
	HideFeedback()

	// AttachVisualizer mounts a visualizer in the player (large variant only).
	AttachVisualizer(v Visualizer)
}
