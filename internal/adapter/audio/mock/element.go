// Package mock provides in-memory implementations of the media element and
// audio graph ports. They simulate playback without decoding or output and
// expose knobs for exercising error paths in tests.
package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Element is a mock ports.MediaElement.
//
// Thread-safety: This implementation is thread-safe. Listeners are invoked
// after the element lock is released.
type Element struct {
	// Dependencies
	logger *slog.Logger

	mu        sync.Mutex
	src       string
	mimeType  string
	paused    bool
	ended     bool
	position  time.Duration
	listeners map[int]ports.MediaListener
	nextID    int

	// Behavior configuration (for testing error scenarios)
	blockAutoplay bool
	gesture       bool
	failPlay      error

	// Call history
	sources   []string
	playCalls int
}

// NewElement creates a paused element with no source.
func NewElement() *Element {
	return &Element{
		paused:    true,
		listeners: make(map[int]ports.MediaListener),
	}
}

// SetLogger sets the logger for this element.
func (e *Element) SetLogger(logger *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger = logger
}

// SetBlockAutoplay makes Play fail with domain.ErrPlaybackBlocked until
// Gesture is called, like a browser autoplay policy.
func (e *Element) SetBlockAutoplay(block bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blockAutoplay = block
}

// SetFailPlay makes Play return err (nil restores normal behavior).
func (e *Element) SetFailPlay(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failPlay = err
}

// Gesture records a user interaction, lifting the autoplay block.
func (e *Element) Gesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gesture = true
}

// SetSource implements ports.MediaElement.
func (e *Element) SetSource(src, mimeType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
	e.mimeType = mimeType
	e.paused = true
	e.ended = false
	e.position = 0
	e.sources = append(e.sources, src)
	return nil
}

// Source implements ports.MediaElement.
func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// MimeType returns the MIME type passed with the current source.
func (e *Element) MimeType() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mimeType
}

// Play implements ports.MediaElement.
func (e *Element) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.playCalls++
	switch {
	case e.src == "":
		e.mu.Unlock()
		return domain.ErrNoSource
	case e.failPlay != nil:
		err := e.failPlay
		e.mu.Unlock()
		return err
	case e.blockAutoplay && !e.gesture:
		e.mu.Unlock()
		return domain.ErrPlaybackBlocked
	case !e.paused:
		e.mu.Unlock()
		return nil
	}
	e.paused = false
	e.ended = false
	event := ports.MediaEvent{Type: ports.MediaPlay, Src: e.src}
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, event)
	return nil
}

// Pause implements ports.MediaElement.
func (e *Element) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	event := ports.MediaEvent{Type: ports.MediaPause, Src: e.src}
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, event)
}

// Finish simulates the current source playing to completion: a pause event
// followed by an ended event.
func (e *Element) Finish() {
	e.mu.Lock()
	if e.src == "" || e.ended {
		e.mu.Unlock()
		return
	}
	wasPlaying := !e.paused
	e.paused = true
	e.ended = true
	src := e.src
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	if wasPlaying {
		dispatch(listeners, ports.MediaEvent{Type: ports.MediaPause, Src: src})
	}
	dispatch(listeners, ports.MediaEvent{Type: ports.MediaEnded, Src: src})
}

// Emit delivers an event to the listeners without changing the element's
// state, for events that disagree with it.
func (e *Element) Emit(eventType ports.MediaEventType) {
	e.mu.Lock()
	event := ports.MediaEvent{Type: eventType, Src: e.src}
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, event)
}

// Advance moves the playback position forward while playing.
func (e *Element) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		e.position += d
	}
}

// Paused implements ports.MediaElement.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Ended implements ports.MediaElement.
func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// Position implements ports.MediaElement.
func (e *Element) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// AddListener implements ports.MediaElement.
func (e *Element) AddListener(listener ports.MediaListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *Element) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Sources returns every source set so far, in order.
func (e *Element) Sources() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sources...)
}

// PlayCalls returns how many times Play was called.
func (e *Element) PlayCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playCalls
}

// snapshotListeners must be called with e.mu held.
func (e *Element) snapshotListeners() []ports.MediaListener {
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	// Registration order.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	out := make([]ports.MediaListener, len(ids))
	for i, id := range ids {
		out[i] = e.listeners[id]
	}
	return out
}

func dispatch(listeners []ports.MediaListener, event ports.MediaEvent) {
	for _, l := range listeners {
		l(event)
	}
}

var _ ports.MediaElement = (*Element)(nil)
