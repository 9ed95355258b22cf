// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"
	"time"
)

// MediaEventType identifies a media element lifecycle notification.
type MediaEventType string

const (
	MediaPlay  MediaEventType = "play"
	MediaPause MediaEventType = "pause"
	MediaEnded MediaEventType = "ended"
)

// MediaEvent is delivered to media element listeners.
type MediaEvent struct {
	Type MediaEventType
	Src  string
}

// MediaListener receives media element events.
type MediaListener func(event MediaEvent)

// MediaElement is a single playable media source, the equivalent of an
// audio/video element in an embed page.
//
// Implementations must be thread-safe. Listeners are invoked without any
// implementation lock held, so a listener may call back into the element.
type MediaElement interface {
	// SetSource replaces the current source and resets playback to the start.
	SetSource(src, mimeType string) error

	// Source returns the current source URL ("" when none).
	Source() string

	// Play starts or resumes playback.
	// Returns domain.ErrPlaybackBlocked when the runtime refuses to start
	// without a user gesture, domain.ErrNoSource when no source is set.
	Play(ctx context.Context) error

	// Pause pauses playback. Pausing a paused element is a no-op.
	Pause()

	// Paused reports whether the element is not playing.
	Paused() bool

	// Ended reports whether the current source played to completion.
	Ended() bool

	// Position returns the current playback position.
	Position() time.Duration

	// AddListener registers a listener and returns a function that removes it.
	AddListener(listener MediaListener) (remove func())
}

// Analyser exposes frequency and time-domain snapshots of playing audio,
// mirroring a Web Audio AnalyserNode.
type Analyser interface {
	// FrequencyBinCount is half the FFT size.
	FrequencyBinCount() int

	// SetSmoothingTimeConstant sets the spectral averaging constant in [0, 1).
	SetSmoothingTimeConstant(value float64)

	// ByteFrequencyData fills dst with dB-scaled magnitudes mapped to 0..255.
	ByteFrequencyData(dst []byte)

	// ByteTimeDomainData fills dst with waveform samples centered on 128.
	ByteTimeDomainData(dst []byte)
}

// AudioGraph builds analysers attached to media elements.
type AudioGraph interface {
	// Connect wires an analyser to the element's output.
	// Returns domain.ErrAudioUnsupported when the runtime cannot analyse audio;
	// any other error means the graph exists but construction failed.
	Connect(element MediaElement) (Analyser, error)

	// Close releases every analyser created by the graph.
	Close() error
}

// MediaProber reads container metadata without decoding.
type MediaProber interface {
	// Duration returns the playable length of the file at path.
	Duration(path string) (time.Duration, error)
}
