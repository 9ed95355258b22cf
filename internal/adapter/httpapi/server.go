// Package httpapi serves the stream resolution API, the embed page, the
// visualizer preset catalog and the media files over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tejashwikalptaru/tunecast/internal/metrics"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

// Config holds the collaborators of a Server.
type Config struct {
	// Stream resolves slugs. Required.
	Stream ports.StreamSource

	// Catalog is served at /api/visualizer/presets. May be nil.
	Catalog *visualizer.Catalog

	// MediaRoot is served at /media/. Empty disables the route.
	MediaRoot string

	// CORSOrigins defaults to every origin.
	CORSOrigins []string

	// Clock drives the player of server renders. Required.
	Clock ports.Clock

	Metrics *metrics.Metrics
	Bus     ports.EventBus
	Logger  *slog.Logger
}

// Server is the HTTP surface of the platform.
type Server struct {
	stream    ports.StreamSource
	catalog   *visualizer.Catalog
	mediaRoot string
	clock     ports.Clock
	bus       ports.EventBus
	logger    *slog.Logger

	router chi.Router
}

// NewServer builds the router.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Stream == nil {
		return nil, errors.New("httpapi: stream source is required")
	}
	if cfg.Clock == nil {
		return nil, errors.New("httpapi: clock is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		stream:    cfg.Stream,
		catalog:   cfg.Catalog,
		mediaRoot: cfg.MediaRoot,
		clock:     cfg.Clock,
		bus:       cfg.Bus,
		logger:    logger.With(slog.String("component", "http")),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/embed/{slug}", s.handleEmbed)
	r.Route("/api", func(r chi.Router) {
		r.Get("/embed/{slug}/stream", s.handleStream)
		r.Get("/visualizer/presets", s.handlePresets)
	})
	if s.mediaRoot != "" {
		r.Get("/media/*", s.handleMedia())
	}

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs every request at debug level, and server errors at warn.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())))
		})
	}
}
