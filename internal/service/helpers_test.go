package service

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testStores struct {
	endpoints *memory.EndpointRepository
	playlists *memory.PlaylistRepository
	assets    *memory.AssetRepository
}

func newTestStores() testStores {
	return testStores{
		endpoints: memory.NewEndpointRepository(),
		playlists: memory.NewPlaylistRepository(),
		assets:    memory.NewAssetRepository(),
	}
}

func testCatalog() *visualizer.Catalog {
	return visualizer.NewCatalog([]domain.Preset{
		{ID: "bars-classic", Label: "Classic bars", Type: domain.RendererBars},
		{ID: "wave-soft", Label: "Soft wave", Type: domain.RendererWaveform},
	})
}

func (s testStores) addPlaylist(t *testing.T, id, name string) *domain.Playlist {
	t.Helper()
	p := &domain.Playlist{ID: id, Name: name, Type: domain.MediaMusic, CreatedAt: testEpoch, UpdatedAt: testEpoch}
	require.NoError(t, s.playlists.Save(context.Background(), p))
	return p
}

func (s testStores) addAsset(t *testing.T, id, playlistID, title string, status domain.AssetStatus) *domain.MediaAsset {
	t.Helper()
	a := &domain.MediaAsset{
		ID:         id,
		PlaylistID: playlistID,
		Type:       domain.MediaMusic,
		Title:      title,
		Filename:   id + ".mp3",
		MimeType:   "audio/mpeg",
		Status:     status,
		CreatedAt:  testEpoch,
		UpdatedAt:  testEpoch,
	}
	require.NoError(t, s.assets.Save(context.Background(), a))
	return a
}

func (s testStores) addEndpoint(t *testing.T, slug string, status domain.EndpointStatus, playlistID string) *domain.Endpoint {
	t.Helper()
	e := &domain.Endpoint{
		ID:        "ep-" + slug,
		Name:      "Lobby",
		Slug:      slug,
		Status:    status,
		CreatedAt: testEpoch,
		UpdatedAt: testEpoch,
	}
	if playlistID != "" {
		e.PlaylistID = &playlistID
	}
	require.NoError(t, s.endpoints.Save(context.Background(), e))
	return e
}

func newTestBus(t *testing.T) *eventbus.SyncEventBus {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func newTestClock() *clock.Manual {
	return clock.NewManual(testEpoch)
}

// recordEvents collects every event published on bus.
func recordEvents(bus ports.EventBus) func() []domain.Event {
	var mu sync.Mutex
	var events []domain.Event
	bus.SubscribeAll(func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})
	return func() []domain.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]domain.Event(nil), events...)
	}
}

// fakeView records what the controller renders.
type fakeView struct {
	mu                 sync.Mutex
	calls              []string
	subtitle           string
	status             *ports.StatusMessage
	layout             *ports.PlaybackLayout
	nowPlayingIndex    int
	nowPlayingLabel    string
	artwork            string
	artworkRevealed    bool
	feedback           string
	feedbackPersistent bool
	feedbackVisible    bool
	visualizer         ports.Visualizer
}

func newFakeView() *fakeView {
	return &fakeView{nowPlayingIndex: -1}
}

func (v *fakeView) record(format string, args ...any) {
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

func (v *fakeView) SetSubtitle(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("subtitle %s", text)
	v.subtitle = text
}

func (v *fakeView) ShowStatus(msg ports.StatusMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("status %s", msg.Title)
	v.status = &msg
	v.layout = nil
}

func (v *fakeView) ShowPlayback(layout ports.PlaybackLayout) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("playback %s", layout.Variant)
	v.layout = &layout
	v.status = nil
	v.feedbackVisible = false
}

func (v *fakeView) SetNowPlaying(index int, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("now-playing %d", index)
	v.nowPlayingIndex = index
	v.nowPlayingLabel = label
}

func (v *fakeView) SetArtwork(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("artwork %s", url)
	v.artwork = url
}

func (v *fakeView) SetArtworkRevealed(revealed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("artwork-revealed %t", revealed)
	v.artworkRevealed = revealed
}

func (v *fakeView) ShowFeedback(text string, persistent bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("feedback %s", text)
	v.feedback = text
	v.feedbackPersistent = persistent
	v.feedbackVisible = true
}

func (v *fakeView) HideFeedback() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("hide-feedback")
	v.feedbackVisible = false
}

func (v *fakeView) AttachVisualizer(vis ports.Visualizer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("visualizer")
	v.visualizer = vis
}

func (v *fakeView) Status() *ports.StatusMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *fakeView) Layout() *ports.PlaybackLayout {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layout
}

func (v *fakeView) Subtitle() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.subtitle
}

func (v *fakeView) Feedback() (text string, persistent, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.feedback, v.feedbackPersistent, v.feedbackVisible
}

func (v *fakeView) NowPlaying() (int, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.nowPlayingIndex, v.nowPlayingLabel
}

func (v *fakeView) Artwork() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.artwork, v.artworkRevealed
}

func (v *fakeView) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

// fakeSource returns a fixed payload or error.
type fakeSource struct {
	payload *domain.StreamPayload
	err     error
	calls   int
	hook    func()
}

func (s *fakeSource) Resolve(_ context.Context, _ string) (*domain.StreamPayload, error) {
	s.calls++
	if s.hook != nil {
		s.hook()
	}
	return s.payload, s.err
}

// fakeVisualizer records disposal.
type fakeVisualizer struct {
	mu       sync.Mutex
	settings domain.VisualizerSettings
	disposed bool
}

func (f *fakeVisualizer) Resize(int, int, float64) {}
func (f *fakeVisualizer) Snapshot() image.Image   { return nil }
func (f *fakeVisualizer) Status() string          { return "" }

func (f *fakeVisualizer) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

func (f *fakeVisualizer) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed
}

func strPtr(s string) *string { return &s }

func tracksPayload(status domain.EndpointStatus, variant domain.PlayerVariant, titles ...string) *domain.StreamPayload {
	payload := &domain.StreamPayload{
		Endpoint: domain.StreamEndpoint{
			Name:          "Lobby",
			Slug:          "123456789",
			Status:        status,
			PlayerVariant: variant,
			Visualizer:    domain.VisualizerSettings{Mode: "bars-classic", RandomizeIntervalSeconds: 30},
		},
		Playlist: &domain.StreamPlaylist{ID: "pl-1", Name: "Morning", Type: domain.MediaMusic},
		Tracks:   []domain.Track{},
	}
	for i, title := range titles {
		payload.Tracks = append(payload.Tracks, domain.Track{
			ID:       fmt.Sprintf("t%d", i),
			Title:    title,
			Src:      fmt.Sprintf("/media/music/pl-1/t%d.mp3", i),
			MimeType: "audio/mpeg",
		})
	}
	return payload
}
