package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

type playerFixture struct {
	controller  *PlayerController
	source      *fakeSource
	view        *fakeView
	element     *mock.Element
	clock       *clock.Manual
	events      func() []domain.Event
	visualizers []*fakeVisualizer
}

func newPlayerFixture(t *testing.T, payload *domain.StreamPayload) *playerFixture {
	t.Helper()
	bus := newTestBus(t)
	f := &playerFixture{
		source:  &fakeSource{payload: payload},
		view:    newFakeView(),
		element: mock.NewElement(),
		clock:   newTestClock(),
		events:  recordEvents(bus),
	}
	controller, err := NewPlayerController(PlayerConfig{
		Source:  f.source,
		View:    f.view,
		Element: f.element,
		Clock:   f.clock,
		Visualizers: func(element ports.MediaElement, settings domain.VisualizerSettings) (ports.Visualizer, error) {
			v := &fakeVisualizer{settings: settings}
			f.visualizers = append(f.visualizers, v)
			return v, nil
		},
		Bus:    bus,
		Logger: logger.NewTestLogger(),
	})
	require.NoError(t, err)
	f.controller = controller
	t.Cleanup(controller.Close)
	return f
}

func eventsOfType[T domain.Event](events []domain.Event) []T {
	var out []T
	for _, e := range events {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func TestNewPlayerController_RequiresCollaborators(t *testing.T) {
	_, err := NewPlayerController(PlayerConfig{})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestPlayerController_MissingSlug(t *testing.T) {
	f := newPlayerFixture(t, nil)

	err := f.controller.Load(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)
	assert.Equal(t, StatusMissing, *f.view.Status())
	assert.Zero(t, f.source.calls)
}

func TestPlayerController_ShowsLoadingWhileFetching(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusPending, domain.VariantMedium, "warmup"))

	var during ports.StatusMessage
	var subtitle string
	f.source.hook = func() {
		during = *f.view.Status()
		subtitle = f.view.Subtitle()
	}
	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	assert.Equal(t, StatusLoading, during)
	assert.Equal(t, "Endpoint 123456789", subtitle)
	assert.Equal(t, "Morning • Lobby", f.view.Subtitle())
}

func TestPlayerController_FetchFailure(t *testing.T) {
	f := newPlayerFixture(t, nil)
	f.source.err = domain.ErrEndpointNotFound

	err := f.controller.Load(context.Background(), "123456789")
	assert.ErrorIs(t, err, domain.ErrStreamUnavailable)
	assert.Equal(t, StatusUnavailable, *f.view.Status())
	assert.Equal(t, "Endpoint 123456789", f.view.Subtitle())
	assert.Nil(t, f.controller.Payload())
}

func TestPlayerController_StatusPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		payload  func() *domain.StreamPayload
		want     ports.StatusMessage
		subtitle string
	}{
		{
			name: "disabled wins over missing playlist",
			payload: func() *domain.StreamPayload {
				p := tracksPayload(domain.StatusDisabled, domain.VariantMedium, "warmup")
				p.Playlist = nil
				return p
			},
			want:     StatusDisabled,
			subtitle: "Lobby",
		},
		{
			name: "missing playlist wins over pending",
			payload: func() *domain.StreamPayload {
				p := tracksPayload(domain.StatusPending, domain.VariantMedium)
				p.Playlist = nil
				return p
			},
			want:     StatusNoPlaylist,
			subtitle: "Lobby",
		},
		{
			name: "pending wins over tracks",
			payload: func() *domain.StreamPayload {
				return tracksPayload(domain.StatusPending, domain.VariantMedium, "warmup")
			},
			want:     StatusPending,
			subtitle: "Morning • Lobby",
		},
		{
			name: "no tracks",
			payload: func() *domain.StreamPayload {
				return tracksPayload(domain.StatusOperational, domain.VariantMedium)
			},
			want:     StatusNoMedia,
			subtitle: "Morning • Lobby",
		},
		{
			name: "no tracks wins over degraded notice",
			payload: func() *domain.StreamPayload {
				return tracksPayload(domain.StatusDegraded, domain.VariantMedium)
			},
			want:     StatusNoMedia,
			subtitle: "Morning • Lobby",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPlayerFixture(t, tt.payload())
			require.NoError(t, f.controller.Load(context.Background(), "123456789"))

			require.NotNil(t, f.view.Status())
			assert.Equal(t, tt.want, *f.view.Status())
			assert.Equal(t, tt.subtitle, f.view.Subtitle())
			assert.Nil(t, f.view.Layout())
			assert.Zero(t, f.element.PlayCalls())
			assert.Equal(t, -1, f.controller.CurrentIndex())

			assert.NotContains(t, f.view.Calls(), "feedback "+FeedbackDegraded)
			_, _, visible := f.view.Feedback()
			assert.False(t, visible)

			statuses := eventsOfType[domain.PlayerStatusEvent](f.events())
			require.NotEmpty(t, statuses)
			assert.Equal(t, tt.want.Title, statuses[len(statuses)-1].Title)
		})
	}
}

func TestPlayerController_PlaysFirstTrack(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantMedium, "warmup", "cooldown"))
	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	layout := f.view.Layout()
	require.NotNil(t, layout)
	assert.Equal(t, domain.VariantMedium, layout.Variant)
	assert.Len(t, layout.Tracks, 2)
	assert.False(t, layout.Degraded)

	index, label := f.view.NowPlaying()
	assert.Equal(t, 0, index)
	assert.Equal(t, "warmup", label)
	assert.Equal(t, "/media/music/pl-1/t0.mp3", f.element.Source())
	assert.Equal(t, "audio/mpeg", f.element.MimeType())
	assert.False(t, f.element.Paused())
	_, _, visible := f.view.Feedback()
	assert.False(t, visible)
	assert.Empty(t, f.visualizers, "only the large variant mounts a visualizer")

	started := eventsOfType[domain.TrackStartedEvent](f.events())
	require.Len(t, started, 1)
	assert.Equal(t, "t0", started[0].Track.ID)
}

func TestPlayerController_AutoplayBlocked(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantSmall, "warmup"))
	f.element.SetBlockAutoplay(true)

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	text, persistent, visible := f.view.Feedback()
	assert.Equal(t, FeedbackPressPlay, text)
	assert.False(t, persistent)
	assert.True(t, visible)
	assert.True(t, f.element.Paused())

	blocked := eventsOfType[domain.PlaybackBlockedEvent](f.events())
	require.Len(t, blocked, 1)
	assert.ErrorIs(t, blocked[0].Error, domain.ErrPlaybackBlocked)

	// The user presses play.
	f.element.Gesture()
	require.NoError(t, f.controller.Resume())
	_, _, visible = f.view.Feedback()
	assert.False(t, visible)
	assert.False(t, f.element.Paused())
}

func TestPlayerController_PlayFailureIsNotAnError(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantMedium, "warmup"))
	f.element.SetFailPlay(errors.New("decode failed"))

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	text, _, visible := f.view.Feedback()
	assert.Equal(t, FeedbackPressPlay, text)
	assert.True(t, visible)
}

func TestPlayerController_DegradedNoticeIsPersistent(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusDegraded, domain.VariantMedium, "warmup", "cooldown"))
	f.element.SetBlockAutoplay(true)

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	require.True(t, f.view.Layout().Degraded)

	text, persistent, visible := f.view.Feedback()
	assert.Equal(t, FeedbackDegraded, text)
	assert.True(t, persistent)
	assert.True(t, visible)

	f.element.Gesture()
	require.NoError(t, f.controller.SelectTrack(1))
	assert.False(t, f.element.Paused())
	text, _, visible = f.view.Feedback()
	assert.Equal(t, FeedbackDegraded, text)
	assert.True(t, visible)
	assert.NotContains(t, f.view.Calls(), "hide-feedback")
}

func TestPlayerController_AdvancesWithoutWraparound(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantMedium, "one", "two"))
	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	f.element.Finish()
	assert.Equal(t, 1, f.controller.CurrentIndex())
	assert.Equal(t, "/media/music/pl-1/t1.mp3", f.element.Source())
	assert.False(t, f.element.Paused())
	assert.Equal(t, 2, f.element.PlayCalls())

	f.element.Finish()
	assert.Equal(t, 1, f.controller.CurrentIndex())
	assert.True(t, f.element.Paused())
	assert.Equal(t, 2, f.element.PlayCalls())

	ended := eventsOfType[domain.TrackEndedEvent](f.events())
	require.Len(t, ended, 2)
	assert.Equal(t, 1, ended[0].Next)
	assert.Equal(t, -1, ended[1].Next)
}

func TestPlayerController_BackgroundLoops(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusDegraded, domain.VariantBackground, "one", "two"))
	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	f.element.Finish()
	f.element.Finish()
	assert.Equal(t, 0, f.controller.CurrentIndex())
	assert.Equal(t, "/media/music/pl-1/t0.mp3", f.element.Source())
	assert.False(t, f.element.Paused())
	assert.Equal(t, 3, f.element.PlayCalls())

	// No visible feedback or track list in the background variant.
	_, _, visible := f.view.Feedback()
	assert.False(t, visible)
	index, _ := f.view.NowPlaying()
	assert.Equal(t, -1, index)
}

func TestPlayerController_SelectTrack(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantMedium, "one", "two", "three"))

	assert.ErrorIs(t, f.controller.SelectTrack(0), domain.ErrNoSource)

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	require.NoError(t, f.controller.SelectTrack(2))
	assert.Equal(t, 2, f.controller.CurrentIndex())
	assert.Equal(t, "/media/music/pl-1/t2.mp3", f.element.Source())
	assert.False(t, f.element.Paused())

	var validation *domain.ValidationError
	assert.ErrorAs(t, f.controller.SelectTrack(3), &validation)
}

func TestPlayerController_LargeVariant(t *testing.T) {
	payload := tracksPayload(domain.StatusOperational, domain.VariantLarge, "one", "two")
	payload.Tracks[0].ArtworkURL = strPtr("/media/artwork/pl-1/t0.jpg")
	f := newPlayerFixture(t, payload)

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	require.Len(t, f.visualizers, 1)
	assert.Equal(t, "bars-classic", f.visualizers[0].settings.Mode)
	assert.Same(t, f.visualizers[0], f.controller.Visualizer())

	url, revealed := f.view.Artwork()
	assert.Equal(t, "/media/artwork/pl-1/t0.jpg", url)
	assert.True(t, revealed)

	f.clock.Advance(ArtworkDimDelay - 1)
	_, revealed = f.view.Artwork()
	assert.True(t, revealed)
	f.clock.Advance(1)
	_, revealed = f.view.Artwork()
	assert.False(t, revealed)

	// A track without artwork clears it.
	require.NoError(t, f.controller.SelectTrack(1))
	url, _ = f.view.Artwork()
	assert.Empty(t, url)
	assert.Zero(t, f.clock.ActiveTimers())
}

func TestPlayerController_CloseTearsDown(t *testing.T) {
	payload := tracksPayload(domain.StatusOperational, domain.VariantLarge, "one")
	payload.Tracks[0].ArtworkURL = strPtr("/media/artwork/pl-1/t0.jpg")
	f := newPlayerFixture(t, payload)

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	require.Equal(t, 1, f.element.ListenerCount())
	require.Equal(t, 1, f.clock.ActiveTimers())

	f.controller.Close()
	assert.True(t, f.visualizers[0].Disposed())
	assert.Zero(t, f.element.ListenerCount())
	assert.Zero(t, f.clock.ActiveTimers())
	assert.True(t, f.element.Paused())

	assert.ErrorIs(t, f.controller.Load(context.Background(), "123456789"), domain.ErrClosed)
	f.controller.Close()
}

func TestPlayerController_ReloadReplacesPlayer(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantLarge, "one"))

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	require.NoError(t, f.controller.Load(context.Background(), "123456789"))

	require.Len(t, f.visualizers, 2)
	assert.True(t, f.visualizers[0].Disposed())
	assert.False(t, f.visualizers[1].Disposed())
	assert.Equal(t, 1, f.element.ListenerCount())
}

func TestPlayerController_CloseDuringFetch(t *testing.T) {
	f := newPlayerFixture(t, tracksPayload(domain.StatusOperational, domain.VariantMedium, "one"))
	f.source.hook = f.controller.Close

	require.NoError(t, f.controller.Load(context.Background(), "123456789"))
	assert.Equal(t, StatusLoading, *f.view.Status())
	assert.Nil(t, f.view.Layout())
	assert.Zero(t, f.element.PlayCalls())
}

func TestPlayerController_VisualizerFailureKeepsPlayer(t *testing.T) {
	bus := newTestBus(t)
	view := newFakeView()
	element := mock.NewElement()
	controller, err := NewPlayerController(PlayerConfig{
		Source:  &fakeSource{payload: tracksPayload(domain.StatusOperational, domain.VariantLarge, "one")},
		View:    view,
		Element: element,
		Clock:   newTestClock(),
		Visualizers: func(ports.MediaElement, domain.VisualizerSettings) (ports.Visualizer, error) {
			return nil, domain.ErrSurfaceUnavailable
		},
		Bus:    bus,
		Logger: logger.NewTestLogger(),
	})
	require.NoError(t, err)
	defer controller.Close()

	require.NoError(t, controller.Load(context.Background(), "123456789"))
	assert.NotNil(t, view.Layout())
	assert.Nil(t, controller.Visualizer())
	assert.NotContains(t, view.Calls(), "visualizer")
	assert.False(t, element.Paused())
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("123456789"))
	assert.True(t, ValidSlug("lobby-screen"))
	assert.False(t, ValidSlug("ab"))
	assert.False(t, ValidSlug("bad slug"))
	assert.False(t, ValidSlug("../etc"))
}
