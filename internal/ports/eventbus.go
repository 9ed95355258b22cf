package ports

import (
	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Producers (stream service, playback controller, visualizer manager, library
// import) publish; consumers (metrics, logging, UI adapters) subscribe without
// knowing who produced the event.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
//	subID := bus.Subscribe(domain.EventTrackSelected, func(event domain.Event) {
//	    e := event.(domain.TrackSelectedEvent)
//	    log.Info("selected", "title", e.Track.Title)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type, then to
	// wildcard subscribers. Handlers must return quickly.
	Publish(event domain.Event)

	// Subscribe registers a handler for one event type.
	// Each call returns a distinct SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a handler. Unknown IDs are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether publishing eventType would reach anyone.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Publishing after Close is a no-op.
	Close() error
}
