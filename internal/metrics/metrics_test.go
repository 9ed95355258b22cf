package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/embed/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	for _, path := range []string{"/embed/abc", "/embed/def", "/healthz"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/embed/{slug}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/healthz", "GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPInFlight))
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequestSeconds))
}

func TestObserve_DomainEvents(t *testing.T) {
	m := New()

	m.Observe(domain.NewStreamResolvedEvent("123456789", domain.OutcomeStreaming, 3, 2*time.Millisecond))
	m.Observe(domain.NewStreamResolvedEvent("123456789", domain.OutcomeNotFound, 0, time.Millisecond))
	m.Observe(domain.NewPlayerStatusEvent("123456789", "Loading stream.", ""))
	m.Observe(domain.NewTrackStartedEvent(domain.Track{}, 0))
	m.Observe(domain.NewTrackEndedEvent(domain.Track{}, 0, 1))
	m.Observe(domain.NewTrackEndedEvent(domain.Track{}, 1, -1))
	m.Observe(domain.NewPlaybackBlockedEvent(domain.Track{}, domain.ErrPlaybackBlocked))
	m.Observe(domain.NewVisualizerStateEvent("active", ""))
	m.Observe(domain.NewVisualizerPresetEvent("bars-classic", true))
	m.Observe(domain.NewAssetImportedEvent(domain.MediaAsset{Status: domain.AssetReady}, 1, 2))
	m.Observe(domain.NewAssetImportedEvent(domain.MediaAsset{Status: domain.AssetError}, 2, 2))
	m.Observe(domain.NewImportCompletedEvent("pl-1", 1, 1, time.Second))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamResolutions.WithLabelValues("streaming")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamResolutions.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlayerStatuses.WithLabelValues("Loading stream.")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksEnded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksEnded.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlaybackBlocked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisualizerStates.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VisualizerPresets.WithLabelValues("bars-classic", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportedAssets.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportedAssets.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("completed")))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m := New()
	bus := eventbus.NewSyncEventBus()
	defer bus.Close()

	unsubscribe := m.Subscribe(bus)
	bus.Publish(domain.NewTrackStartedEvent(domain.Track{}, 0))
	unsubscribe()
	bus.Publish(domain.NewTrackStartedEvent(domain.Track{}, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TracksStarted))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.TracksStarted.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "tunecast_tracks_started_total 1"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.TracksStarted.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.TracksStarted))
}
