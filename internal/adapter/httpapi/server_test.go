package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/metrics"
	"github.com/tejashwikalptaru/tunecast/internal/service"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	endpoints *memory.EndpointRepository
	playlists *memory.PlaylistRepository
	assets    *memory.AssetRepository
	metrics   *metrics.Metrics
	mediaRoot string
	server    *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		endpoints: memory.NewEndpointRepository(),
		playlists: memory.NewPlaylistRepository(),
		assets:    memory.NewAssetRepository(),
		metrics:   metrics.New(),
		mediaRoot: t.TempDir(),
	}
	catalog := visualizer.NewCatalog([]domain.Preset{
		{ID: "bars-classic", Label: "Classic bars", Type: domain.RendererBars},
		{ID: "wave-soft", Label: "Soft wave", Type: domain.RendererWaveform},
	})
	stream := service.NewStreamService(f.endpoints, f.playlists, f.assets, catalog, nil, logger.NewTestLogger())

	server, err := NewServer(Config{
		Stream:    stream,
		Catalog:   catalog,
		MediaRoot: f.mediaRoot,
		Clock:     clock.NewManual(testEpoch),
		Metrics:   f.metrics,
		Logger:    logger.NewTestLogger(),
	})
	require.NoError(t, err)
	f.server = server
	return f
}

func (f *fixture) seed(t *testing.T, status domain.EndpointStatus, variant domain.PlayerVariant, titles ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.playlists.Save(ctx, &domain.Playlist{ID: "pl-1", Name: "Morning", Type: domain.MediaMusic, CreatedAt: testEpoch}))
	for i, title := range titles {
		id := string(rune('a'+i)) + "1"
		require.NoError(t, f.assets.Save(ctx, &domain.MediaAsset{
			ID:         id,
			PlaylistID: "pl-1",
			Type:       domain.MediaMusic,
			Title:      title,
			Filename:   id + ".mp3",
			MimeType:   "audio/mpeg",
			Status:     domain.AssetReady,
			CreatedAt:  testEpoch,
		}))
	}
	playlistID := "pl-1"
	require.NoError(t, f.endpoints.Save(ctx, &domain.Endpoint{
		ID:            "ep-1",
		Name:          "Lobby",
		Slug:          "123456789",
		Status:        status,
		PlaylistID:    &playlistID,
		PlayerVariant: variant,
		CreatedAt:     testEpoch,
	}))
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(Config{Clock: clock.NewManual(testEpoch)})
	assert.Error(t, err)

	_, err = NewServer(Config{Stream: service.NewStreamService(nil, nil, nil, nil, nil, nil)})
	assert.Error(t, err)
}

func TestStream_ReturnsPayload(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusOperational, domain.VariantLarge, "warmup", "cooldown")

	rec := f.get(t, "/api/embed/123456789/stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var payload domain.StreamPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Lobby", payload.Endpoint.Name)
	assert.Equal(t, domain.VariantLarge, payload.Endpoint.PlayerVariant)
	require.NotNil(t, payload.Playlist)
	assert.Equal(t, "Morning", payload.Playlist.Name)
	require.Len(t, payload.Tracks, 2)
	assert.Equal(t, "/media/music/pl-1/a1.mp3", payload.Tracks[0].Src)
}

func TestStream_UnknownSlug(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/embed/000000000/stream")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Endpoint not found."}`, rec.Body.String())
}

func TestStream_PendingEndpointHasEmptyTracks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusPending, domain.VariantMedium, "warmup")

	rec := f.get(t, "/api/embed/123456789/stream")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tracks":[]`)
}

func TestStream_ResolverFailure(t *testing.T) {
	server, err := NewServer(Config{
		Stream: failingSource{err: errors.New("store down")},
		Clock:  clock.NewManual(testEpoch),
		Logger: logger.NewTestLogger(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/embed/123456789/stream", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestEmbed_ShellForUnknownEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/embed/123456789")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, "window.__UX_EMBED_SLUG__ = '123456789'")
	assert.Contains(t, body, "Playback unavailable.")
	assert.Contains(t, body, `<p class="player-subtitle">Endpoint 123456789</p>`)
	assert.NotContains(t, body, "player-playback")
}

func TestEmbed_InvalidSlug(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/embed/ab", "/embed/bad_slug", "/embed/" + strings.Repeat("a", 65)} {
		assert.Equal(t, http.StatusNotFound, f.get(t, path).Code, path)
	}
}

func TestEmbed_RendersPlayback(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusOperational, domain.VariantMedium, "warmup", "cooldown")

	rec := f.get(t, "/embed/123456789")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `data-variant="medium"`)
	assert.Contains(t, body, `<p class="player-subtitle">Morning • Lobby</p>`)
	assert.Contains(t, body, `<p class="now-playing">warmup</p>`)
	assert.Contains(t, body, `src="/media/music/pl-1/a1.mp3"`)
	assert.Contains(t, body, `data-index="0" data-src="/media/music/pl-1/a1.mp3" data-type="audio/mpeg" data-label="warmup" aria-current="true"`)
	assert.Contains(t, body, `data-src="/media/music/pl-1/b1.mp3"`)
	assert.Contains(t, body, `<p class="playback-feedback" role="status">Press play to start the stream.</p>`)
	assert.NotContains(t, body, "player-visualizer")
}

func TestEmbed_StatusPrecedence(t *testing.T) {
	tests := []struct {
		status domain.EndpointStatus
		titles []string
		want   string
	}{
		{domain.StatusDisabled, []string{"warmup"}, "Endpoint disabled."},
		{domain.StatusPending, []string{"warmup"}, "Activation pending."},
		{domain.StatusOperational, nil, "No media available."},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, tt.status, domain.VariantMedium, tt.titles...)

			body := f.get(t, "/embed/123456789").Body.String()
			assert.Contains(t, body, tt.want)
			assert.Contains(t, body, `data-state="status"`)
		})
	}
}

func TestEmbed_DegradedNoticeIsPersistent(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusDegraded, domain.VariantLarge, "warmup")

	body := f.get(t, "/embed/123456789").Body.String()
	assert.Contains(t, body, `<p class="playback-feedback" role="status" data-persistent>`+service.FeedbackDegraded+`</p>`)
	assert.NotContains(t, body, "Press play to start the stream.</p>")
	assert.Contains(t, body, "player-visualizer")
	assert.Contains(t, body, `<figure class="player-artwork" data-revealed="false"></figure>`)
}

func TestEmbed_BackgroundVariantHidesControls(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusOperational, domain.VariantBackground, "warmup")

	body := f.get(t, "/embed/123456789").Body.String()
	assert.Contains(t, body, `<audio class="player-audio" preload="metadata" playsinline hidden`)
	assert.Contains(t, body, `<ol class="track-list" hidden>`)
	assert.NotContains(t, body, `class="now-playing"`)
	assert.Contains(t, body, `<p class="playback-feedback" role="status" hidden></p>`)
}

func TestEmbed_EscapesText(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusOperational, domain.VariantMedium, "<b>loud</b>")

	body := f.get(t, "/embed/123456789").Body.String()
	assert.NotContains(t, body, "<b>loud</b>")
	assert.Contains(t, body, "&lt;b&gt;loud&lt;/b&gt;")
}

func TestPresets(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/api/visualizer/presets")
	require.Equal(t, http.StatusOK, rec.Code)

	var presets []domain.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	require.Len(t, presets, 2)
	assert.Equal(t, "bars-classic", presets[0].ID)
}

func TestPresets_NilCatalog(t *testing.T) {
	server, err := NewServer(Config{Stream: failingSource{}, Clock: clock.NewManual(testEpoch)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/visualizer/presets", nil))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestMedia(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.mediaRoot, "music", "pl-1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a1.mp3"), []byte("audio"), 0o644))

	rec := f.get(t, "/media/music/pl-1/a1.mp3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get(t, "/media/music/pl-1/").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/media/music/pl-1/missing.mp3").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.get(t, "/embed/123456789")
	rec = f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tunecast_http_requests_total{method="GET",route="/embed/{slug}",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	f.seed(t, domain.StatusOperational, domain.VariantMedium, "warmup")

	req := httptest.NewRequest(http.MethodGet, "/api/embed/123456789/stream", nil)
	req.Header.Set("Origin", "https://venue.example")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

type failingSource struct {
	err error
}

func (s failingSource) Resolve(context.Context, string) (*domain.StreamPayload, error) {
	if s.err == nil {
		return nil, domain.ErrEndpointNotFound
	}
	return nil, s.err
}
