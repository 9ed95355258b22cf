package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

func testTrack() domain.Track {
	return domain.Track{ID: "a1", Title: "Night Drive", Src: "/media/music/p1/a1.mp3"}
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received []domain.Event
	id := bus.Subscribe(domain.EventTrackStarted, func(e domain.Event) {
		received = append(received, e)
	})
	require.NotEmpty(t, id)

	bus.Publish(domain.NewTrackStartedEvent(testTrack(), 2))
	bus.Publish(domain.NewTrackSelectedEvent(testTrack(), 2))

	require.Len(t, received, 1)
	started, ok := received[0].(domain.TrackStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "a1", started.Track.ID)
	assert.Equal(t, 2, started.Index)
}

func TestDeliveryOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventPlayerStatus, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventPlayerStatus, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewPlayerStatusEvent("123456789", "Endpoint disabled.", ""))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int
	first := bus.Subscribe(domain.EventTrackEnded, func(domain.Event) { calls++ })
	bus.Subscribe(domain.EventTrackEnded, func(domain.Event) { calls += 10 })
	all := bus.SubscribeAll(func(domain.Event) { calls += 100 })

	bus.Unsubscribe(first)
	bus.Unsubscribe(all)
	bus.Unsubscribe("sub-unknown")

	bus.Publish(domain.NewTrackEndedEvent(testTrack(), 0, 1))
	assert.Equal(t, 10, calls)
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.False(t, bus.HasSubscribers(domain.EventVisualizerState))

	id := bus.Subscribe(domain.EventVisualizerState, func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventVisualizerState))
	assert.False(t, bus.HasSubscribers(domain.EventVisualizerPreset))

	bus.Unsubscribe(id)
	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventVisualizerPreset))
}

func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	defer bus.Close()

	var calls int32
	bus.Subscribe(domain.EventImportStarted, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventImportStarted, func(domain.Event) { atomic.AddInt32(&calls, 1) })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewImportStartedEvent("p1", "/music"))
	})
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestHandlerMaySubscribeDuringPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var nested int
	bus.Subscribe(domain.EventTrackSelected, func(domain.Event) {
		bus.Subscribe(domain.EventTrackSelected, func(domain.Event) { nested++ })
	})

	bus.Publish(domain.NewTrackSelectedEvent(testTrack(), 0))
	assert.Zero(t, nested, "new subscribers only see later events")

	bus.Publish(domain.NewTrackSelectedEvent(testTrack(), 0))
	assert.Equal(t, 1, nested)
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	var calls int
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { calls++ })
	bus.SubscribeAll(func(domain.Event) { calls++ })

	require.NoError(t, bus.Close())
	assert.Zero(t, bus.SubscriberCount())

	bus.Publish(domain.NewTrackStartedEvent(testTrack(), 0))
	assert.Zero(t, calls)

	assert.Error(t, bus.Close())
	assert.Empty(t, bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {}))
}

func TestNilEventAndHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.NotPanics(t, func() { bus.Publish(nil) })
	assert.Panics(t, func() { bus.Subscribe(domain.EventTrackStarted, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var delivered int32
	bus.Subscribe(domain.EventStreamResolved, func(domain.Event) { atomic.AddInt32(&delivered, 1) })

	const publishers, perPublisher = 8, 100
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				bus.Publish(domain.NewStreamResolvedEvent("123456789", domain.OutcomeStreaming, 3, time.Millisecond))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := bus.SubscribeAll(func(domain.Event) {})
				bus.Unsubscribe(id)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, publishers*perPublisher, atomic.LoadInt32(&delivered))
	assert.Equal(t, 1, bus.SubscriberCount())
}
