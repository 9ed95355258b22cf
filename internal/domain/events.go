// Package domain defines events for the event-driven architecture.
// Events let services, metrics and UI adapters react to each other without direct references.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Stream resolution events
	EventStreamResolved EventType = "stream.resolved"

	// Player events
	EventPlayerStatus    EventType = "player.status"
	EventTrackSelected   EventType = "track.selected"
	EventTrackStarted    EventType = "track.started"
	EventTrackEnded      EventType = "track.ended"
	EventPlaybackBlocked EventType = "playback.blocked"

	// Visualizer events
	EventVisualizerState  EventType = "visualizer.state"
	EventVisualizerPreset EventType = "visualizer.preset"

	// Library import events
	EventImportStarted   EventType = "import.started"
	EventAssetImported   EventType = "import.asset"
	EventImportCompleted EventType = "import.completed"
	EventImportCancelled EventType = "import.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// StreamOutcome classifies the result of a stream resolution.
type StreamOutcome string

const (
	OutcomeStreaming StreamOutcome = "streaming"
	OutcomeIdle      StreamOutcome = "idle"
	OutcomeNotFound  StreamOutcome = "not_found"
	OutcomeError     StreamOutcome = "error"
)

// StreamResolvedEvent is published after every stream resolution attempt.
type StreamResolvedEvent struct {
	baseEvent
	Slug     string
	Outcome  StreamOutcome
	Tracks   int
	Duration time.Duration
}

// Type returns the event type.
func (e StreamResolvedEvent) Type() EventType {
	return EventStreamResolved
}

// NewStreamResolvedEvent creates a new StreamResolvedEvent.
func NewStreamResolvedEvent(slug string, outcome StreamOutcome, tracks int, duration time.Duration) StreamResolvedEvent {
	return StreamResolvedEvent{
		baseEvent: newBaseEvent(),
		Slug:      slug,
		Outcome:   outcome,
		Tracks:    tracks,
		Duration:  duration,
	}
}

// PlayerStatusEvent is published when the player shows a status panel instead of playback.
type PlayerStatusEvent struct {
	baseEvent
	Slug    string
	Title   string
	Message string
}

// Type returns the event type.
func (e PlayerStatusEvent) Type() EventType {
	return EventPlayerStatus
}

// NewPlayerStatusEvent creates a new PlayerStatusEvent.
func NewPlayerStatusEvent(slug, title, message string) PlayerStatusEvent {
	return PlayerStatusEvent{
		baseEvent: newBaseEvent(),
		Slug:      slug,
		Title:     title,
		Message:   message,
	}
}

// TrackSelectedEvent is published when the track deck selects a track.
type TrackSelectedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackSelectedEvent) Type() EventType {
	return EventTrackSelected
}

// NewTrackSelectedEvent creates a new TrackSelectedEvent.
func NewTrackSelectedEvent(track Track, index int) TrackSelectedEvent {
	return TrackSelectedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackStartedEvent is published when the media element reports playback.
type TrackStartedEvent struct {
	baseEvent
	Track Track
	Index int
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, index int) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
	}
}

// TrackEndedEvent is published when a track finishes. Next is -1 when the deck stops.
type TrackEndedEvent struct {
	baseEvent
	Track Track
	Index int
	Next  int
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(track Track, index, next int) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Next:      next,
	}
}

// PlaybackBlockedEvent is published when autoplay is refused.
type PlaybackBlockedEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e PlaybackBlockedEvent) Type() EventType {
	return EventPlaybackBlocked
}

// NewPlaybackBlockedEvent creates a new PlaybackBlockedEvent.
func NewPlaybackBlockedEvent(track Track, err error) PlaybackBlockedEvent {
	return PlaybackBlockedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// VisualizerStateEvent is published on every visualizer state transition.
type VisualizerStateEvent struct {
	baseEvent
	State   string
	Message string
}

// Type returns the event type.
func (e VisualizerStateEvent) Type() EventType {
	return EventVisualizerState
}

// NewVisualizerStateEvent creates a new VisualizerStateEvent.
func NewVisualizerStateEvent(state, message string) VisualizerStateEvent {
	return VisualizerStateEvent{
		baseEvent: newBaseEvent(),
		State:     state,
		Message:   message,
	}
}

// VisualizerPresetEvent is published when the active preset changes.
type VisualizerPresetEvent struct {
	baseEvent
	PresetID string
	Random   bool
}

// Type returns the event type.
func (e VisualizerPresetEvent) Type() EventType {
	return EventVisualizerPreset
}

// NewVisualizerPresetEvent creates a new VisualizerPresetEvent.
func NewVisualizerPresetEvent(presetID string, random bool) VisualizerPresetEvent {
	return VisualizerPresetEvent{
		baseEvent: newBaseEvent(),
		PresetID:  presetID,
		Random:    random,
	}
}

// ImportStartedEvent is published when a directory import begins.
type ImportStartedEvent struct {
	baseEvent
	PlaylistID string
	Path       string
}

// Type returns the event type.
func (e ImportStartedEvent) Type() EventType {
	return EventImportStarted
}

// NewImportStartedEvent creates a new ImportStartedEvent.
func NewImportStartedEvent(playlistID, path string) ImportStartedEvent {
	return ImportStartedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
		Path:       path,
	}
}

// AssetImportedEvent is published for each file processed during an import.
type AssetImportedEvent struct {
	baseEvent
	Asset   MediaAsset
	Current int
	Total   int
}

// Type returns the event type.
func (e AssetImportedEvent) Type() EventType {
	return EventAssetImported
}

// NewAssetImportedEvent creates a new AssetImportedEvent.
func NewAssetImportedEvent(asset MediaAsset, current, total int) AssetImportedEvent {
	return AssetImportedEvent{
		baseEvent: newBaseEvent(),
		Asset:     asset,
		Current:   current,
		Total:     total,
	}
}

// ImportCompletedEvent is published when an import finishes.
type ImportCompletedEvent struct {
	baseEvent
	PlaylistID string
	Imported   int
	Failed     int
	Duration   time.Duration
}

// Type returns the event type.
func (e ImportCompletedEvent) Type() EventType {
	return EventImportCompleted
}

// NewImportCompletedEvent creates a new ImportCompletedEvent.
func NewImportCompletedEvent(playlistID string, imported, failed int, duration time.Duration) ImportCompletedEvent {
	return ImportCompletedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
		Imported:   imported,
		Failed:     failed,
		Duration:   duration,
	}
}

// ImportCancelledEvent is published when an import is canceled.
type ImportCancelledEvent struct {
	baseEvent
	PlaylistID string
	Reason     string
}

// Type returns the event type.
func (e ImportCancelledEvent) Type() EventType {
	return EventImportCancelled
}

// NewImportCancelledEvent creates a new ImportCancelledEvent.
func NewImportCancelledEvent(playlistID, reason string) ImportCancelledEvent {
	return ImportCancelledEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: playlistID,
		Reason:     reason,
	}
}
