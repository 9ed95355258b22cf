// Package metrics exposes Prometheus instrumentation for the HTTP surface and
// for the domain events published on the event bus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const namespace = "tunecast"

// Metrics holds every collector, registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge

	// Stream resolution
	StreamResolutions       *prometheus.CounterVec
	StreamResolutionSeconds prometheus.Histogram
	StreamTracks            prometheus.Histogram

	// Players
	PlayerStatuses  *prometheus.CounterVec
	TracksStarted   prometheus.Counter
	TracksEnded     *prometheus.CounterVec
	PlaybackBlocked prometheus.Counter

	// Visualizer
	VisualizerStates  *prometheus.CounterVec
	VisualizerPresets *prometheus.CounterVec

	// Library import
	ImportedAssets *prometheus.CounterVec
	Imports        *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		HTTPInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being served",
			},
		),

		StreamResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_resolutions_total",
				Help:      "Stream payload resolutions by outcome (streaming, idle, not_found, error)",
			},
			[]string{"outcome"},
		),
		StreamResolutionSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stream_resolution_duration_seconds",
				Help:      "Time spent resolving a stream payload",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
		),
		StreamTracks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stream_tracks",
				Help:      "Number of tracks in resolved payloads",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),

		PlayerStatuses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "player_status_total",
				Help:      "Status panels shown by players, by title",
			},
			[]string{"title"},
		),
		TracksStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracks_started_total",
				Help:      "Tracks that started playing",
			},
		),
		TracksEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracks_ended_total",
				Help:      "Tracks that played to completion, by whether the deck advanced",
			},
			[]string{"advanced"},
		),
		PlaybackBlocked: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "playback_blocked_total",
				Help:      "Play attempts refused by the media element",
			},
		),

		VisualizerStates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visualizer_state_transitions_total",
				Help:      "Visualizer state transitions by target state",
			},
			[]string{"state"},
		),
		VisualizerPresets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "visualizer_preset_activations_total",
				Help:      "Visualizer preset activations by preset and selection mode",
			},
			[]string{"preset", "random"},
		),

		ImportedAssets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imported_assets_total",
				Help:      "Media files processed by library imports, by resulting asset status",
			},
			[]string{"status"},
		),
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Library imports by result (completed, cancelled)",
			},
			[]string{"result"},
		),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPRequestSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded: slugs and media paths
// collapse into their route pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Subscribe records domain events from bus. The returned function removes
// the subscription.
func (m *Metrics) Subscribe(bus ports.EventBus) func() {
	id := bus.SubscribeAll(m.Observe)
	return func() { bus.Unsubscribe(id) }
}

// Observe updates the collectors for one event.
func (m *Metrics) Observe(event domain.Event) {
	switch e := event.(type) {
	case domain.StreamResolvedEvent:
		m.StreamResolutions.WithLabelValues(string(e.Outcome)).Inc()
		m.StreamResolutionSeconds.Observe(e.Duration.Seconds())
		if e.Outcome == domain.OutcomeStreaming || e.Outcome == domain.OutcomeIdle {
			m.StreamTracks.Observe(float64(e.Tracks))
		}
	case domain.PlayerStatusEvent:
		m.PlayerStatuses.WithLabelValues(e.Title).Inc()
	case domain.TrackStartedEvent:
		m.TracksStarted.Inc()
	case domain.TrackEndedEvent:
		m.TracksEnded.WithLabelValues(strconv.FormatBool(e.Next >= 0)).Inc()
	case domain.PlaybackBlockedEvent:
		m.PlaybackBlocked.Inc()
	case domain.VisualizerStateEvent:
		m.VisualizerStates.WithLabelValues(e.State).Inc()
	case domain.VisualizerPresetEvent:
		m.VisualizerPresets.WithLabelValues(e.PresetID, strconv.FormatBool(e.Random)).Inc()
	case domain.AssetImportedEvent:
		m.ImportedAssets.WithLabelValues(string(e.Asset.Status)).Inc()
	case domain.ImportCompletedEvent:
		m.Imports.WithLabelValues("completed").Inc()
	case domain.ImportCancelledEvent:
		m.Imports.WithLabelValues("cancelled").Inc()
	}
}
