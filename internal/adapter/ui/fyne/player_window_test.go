package fyne

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/testutil"
)

func newTestWindow(t *testing.T, loader ArtworkLoader) *PlayerWindow {
	t.Helper()
	app := test.NewTempApp(t)
	w := NewPlayerWindow(app, loader, logger.NewTestLogger())
	t.Cleanup(w.Close)
	return w
}

func testLayout(variant domain.PlayerVariant, titles ...string) ports.PlaybackLayout {
	layout := ports.PlaybackLayout{Variant: variant, Title: "Lobby", Subtitle: "Morning"}
	for _, title := range titles {
		layout.Tracks = append(layout.Tracks, domain.Track{ID: title, Title: title, Src: "/media/music/pl-1/" + title + ".mp3"})
	}
	return layout
}

// stubVisualizer serves a fixed frame.
type stubVisualizer struct {
	mu      sync.Mutex
	sizes   [][2]int
	frame   image.Image
	status  string
	dispose int
}

func (s *stubVisualizer) Resize(w, h int, _ float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, [2]int{w, h})
}

func (s *stubVisualizer) Snapshot() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *stubVisualizer) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *stubVisualizer) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispose++
}

func TestPlayerWindow_ShowStatus(t *testing.T) {
	w := newTestWindow(t, nil)

	w.SetSubtitle("Endpoint 123456789")
	w.ShowStatus(ports.StatusMessage{Title: "Activation pending.", Message: "Enable this endpoint."})

	assert.Equal(t, "Endpoint 123456789", w.subtitle.Text)
	assert.True(t, w.statusCard.Visible())
	assert.Equal(t, "Activation pending.", w.statusCard.Title)
	assert.Equal(t, "Enable this endpoint.", w.statusCard.Subtitle)
	assert.False(t, w.player.Visible())
	assert.Nil(t, w.Layout())
}

func TestPlayerWindow_ShowPlaybackVariants(t *testing.T) {
	tests := []struct {
		variant      domain.PlayerVariant
		title        string
		artwork      bool
		controls     bool
		nowPlaying   bool
		trackListVis bool
	}{
		{domain.VariantSmall, "Lobby", false, true, true, true},
		{domain.VariantMedium, "Lobby", false, true, true, true},
		{domain.VariantLarge, "Lobby", true, true, true, true},
		{domain.VariantBackground, APPNAME, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.variant), func(t *testing.T) {
			w := newTestWindow(t, nil)
			w.ShowStatus(ports.StatusMessage{Title: "Loading stream."})
			w.ShowPlayback(testLayout(tt.variant, "intro", "outro"))

			assert.False(t, w.statusCard.Visible())
			assert.True(t, w.player.Visible())
			assert.Equal(t, tt.title, w.title.Text)
			assert.Equal(t, tt.artwork, w.artworkBox.Visible())
			assert.Equal(t, tt.controls, w.controls.Visible())
			assert.Equal(t, tt.nowPlaying, w.nowPlaying.Visible())
			assert.Equal(t, tt.trackListVis, w.trackList.Visible())
			assert.False(t, w.feedback.Visible())
			require.NotNil(t, w.Layout())
			assert.Equal(t, tt.variant, w.Layout().Variant)
		})
	}
}

func TestPlayerWindow_NowPlayingDoesNotEchoSelection(t *testing.T) {
	w := newTestWindow(t, nil)
	var selected []int
	w.SetHandlers(PlayerHandlers{OnSelect: func(i int) { selected = append(selected, i) }})
	w.ShowPlayback(testLayout(domain.VariantMedium, "intro", "middle", "outro"))

	w.SetNowPlaying(1, "middle")
	assert.Equal(t, "middle", w.nowPlaying.Text)
	assert.Equal(t, 1, w.CurrentIndex())
	assert.Empty(t, selected, "programmatic highlight is not a user selection")

	w.trackList.Select(2)
	assert.Equal(t, []int{2}, selected)
}

func TestPlayerWindow_Controls(t *testing.T) {
	w := newTestWindow(t, nil)
	var calls []string
	w.SetHandlers(PlayerHandlers{
		OnPlay:  func() { calls = append(calls, "play") },
		OnPause: func() { calls = append(calls, "pause") },
	})
	w.ShowPlayback(testLayout(domain.VariantSmall, "intro"))

	test.Tap(w.playButton)
	test.Tap(w.pauseButton)
	assert.Equal(t, []string{"play", "pause"}, calls)

	w.SetPlayState(true)
	assert.Equal(t, widget.HighImportance, w.pauseButton.Importance)
	w.SetPlayState(false)
	assert.Equal(t, widget.HighImportance, w.playButton.Importance)
}

func TestPlayerWindow_Feedback(t *testing.T) {
	w := newTestWindow(t, nil)
	w.ShowPlayback(testLayout(domain.VariantSmall, "intro"))

	w.ShowFeedback("Press play to start the stream.", false)
	assert.True(t, w.feedback.Visible())
	assert.Equal(t, "Press play to start the stream.", w.feedback.Text)
	assert.Equal(t, widget.MediumImportance, w.feedback.Importance)

	w.HideFeedback()
	assert.False(t, w.feedback.Visible())

	w.ShowFeedback("Endpoint is degraded.", true)
	assert.Equal(t, widget.WarningImportance, w.feedback.Importance)
}

func TestPlayerWindow_Artwork(t *testing.T) {
	cover := image.NewRGBA(image.Rect(0, 0, 4, 4))
	loader := func(_ context.Context, url string) (image.Image, error) {
		if url == "/media/artwork/pl-1/missing.jpg" {
			return nil, errors.New("404")
		}
		return cover, nil
	}
	w := newTestWindow(t, loader)
	w.ShowPlayback(testLayout(domain.VariantLarge, "intro"))

	w.SetArtwork("/media/artwork/pl-1/a1.jpg")
	assert.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.artwork.Image == cover
	}, time.Second, 5*time.Millisecond)
	assert.InDelta(t, dimmedArtwork, w.artwork.Translucency, 1e-9)

	w.SetArtworkRevealed(true)
	assert.Zero(t, w.artwork.Translucency)
	url, revealed := w.Artwork()
	assert.Equal(t, "/media/artwork/pl-1/a1.jpg", url)
	assert.True(t, revealed)

	w.SetArtwork("")
	assert.Nil(t, w.artwork.Image)
}

func TestPlayerWindow_VisualizerLifecycle(t *testing.T) {
	w := newTestWindow(t, nil)
	defer testutil.LeakCheck(t)()
	w.ShowPlayback(testLayout(domain.VariantLarge, "intro"))

	vis := &stubVisualizer{status: "Press play to start the visualizer."}
	w.AttachVisualizer(vis)
	view := w.Visualizer()
	require.NotNil(t, view)
	assert.True(t, w.visualBox.Visible())
	assert.Same(t, vis, view.Source())

	w.ShowStatus(ports.StatusMessage{Title: "Endpoint disabled."})
	assert.Nil(t, w.Visualizer())
	assert.False(t, w.visualBox.Visible())
	assert.Zero(t, vis.dispose, "the controller owns disposal")
}

func TestVisualizerView_Render(t *testing.T) {
	test.NewTempApp(t)
	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	frame.Set(1, 1, color.White)
	vis := &stubVisualizer{}
	view := NewVisualizerView(vis, 60)
	defer view.Stop()

	blank := view.render(40, 20)
	assert.Equal(t, 40, blank.Bounds().Dx())
	view.render(40, 20)
	vis.mu.Lock()
	assert.Equal(t, [][2]int{{40, 20}}, vis.sizes, "only size changes are forwarded")
	vis.frame = frame
	vis.mu.Unlock()

	assert.Same(t, frame, view.render(40, 20))

	view.repaint()
	assert.False(t, view.status.Visible())
	vis.mu.Lock()
	vis.status = "Visualizer paused."
	vis.mu.Unlock()
	view.repaint()
	assert.True(t, view.status.Visible())
	assert.Equal(t, "Visualizer paused.", view.status.Text)
}

func TestVisualizerView_StartStop(t *testing.T) {
	test.NewTempApp(t)
	defer testutil.LeakCheck(t)()

	vis := &stubVisualizer{status: "Visualizer paused."}
	view := NewVisualizerView(vis, 120)
	view.Start()
	assert.Eventually(t, func() bool {
		return view.status.Text == "Visualizer paused."
	}, time.Second, 5*time.Millisecond)

	view.Stop()
	assert.NotPanics(t, view.Stop)
}
