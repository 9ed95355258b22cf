// Package eventbus provides the in-process implementation of ports.EventBus.
package eventbus

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// errBusClosed is returned by Close on a closed bus.
var errBusClosed = errors.New("event bus already closed")

// SyncEventBus delivers events on the publishing goroutine: subscribers of
// the event's type first, then wildcard subscribers, each group in
// subscription order.
//
// Thread-safety: This implementation is thread-safe. The subscriber list is
// copied before delivery, so handlers may publish, subscribe or unsubscribe.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

// subscription with an empty eventType receives every event.
type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	handler   domain.EventHandler
}

// NewSyncEventBus creates an empty bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{}
}

// SetLogger sets the logger used for delivery tracing and handler panics.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish implements ports.EventBus. A panicking handler is logged and does
// not stop delivery to the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	targets := make([]domain.EventHandler, 0, len(bus.subs))
	for _, s := range bus.subs {
		if s.eventType == eventType {
			targets = append(targets, s.handler)
		}
	}
	for _, s := range bus.subs {
		if s.eventType == "" {
			targets = append(targets, s.handler)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	if logger != nil {
		logger.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("handlers", len(targets)))
	}
	for _, h := range targets {
		bus.deliver(logger, h, event)
	}
}

func (bus *SyncEventBus) deliver(logger *slog.Logger, handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()
	handler(event)
}

// Subscribe implements ports.EventBus. It panics on a nil handler and
// returns an empty ID once the bus is closed.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if eventType == "" {
		panic("eventbus: empty event type, use SubscribeAll")
	}
	return bus.add(eventType, handler)
}

// SubscribeAll implements ports.EventBus.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", handler)
}

func (bus *SyncEventBus) add(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("eventbus: nil handler")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return ""
	}

	bus.nextID++
	prefix := "sub-"
	if eventType == "" {
		prefix = "sub-all-"
	}
	id := domain.SubscriptionID(prefix + strconv.FormatUint(bus.nextID, 10))
	bus.subs = append(bus.subs, subscription{id: id, eventType: eventType, handler: handler})
	return id
}

// Unsubscribe implements ports.EventBus.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, s := range bus.subs {
		if s.id == id {
			// Keep order for the remaining subscribers.
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

// HasSubscribers implements ports.EventBus.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, s := range bus.subs {
		if s.eventType == eventType || s.eventType == "" {
			return true
		}
	}
	return false
}

// Close implements ports.EventBus.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		return errBusClosed
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

var _ ports.EventBus = (*SyncEventBus)(nil)
