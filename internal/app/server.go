// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/httpapi"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunecast/internal/config"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/metrics"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/service"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

// Server is the root structure of the streaming server. It holds every
// dependency of the HTTP surface and the admin operations (seed, import).
//
// The Server struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the lifecycle (startup, shutdown)
// - Providing a clean entry point for cmd/tunecast
type Server struct {
	// Core dependencies
	config *config.Config
	logger *slog.Logger
	clock  ports.Clock

	// Infrastructure
	eventBus         *eventbus.SyncEventBus
	metrics          *metrics.Metrics
	unsubscribeStats func()
	store            *sqlite.Store // nil with an in-memory database

	// Repositories
	endpointRepo ports.EndpointRepository
	playlistRepo ports.PlaylistRepository
	assetRepo    ports.AssetRepository

	// Services
	catalog         *visualizer.Catalog
	streamService   *service.StreamService
	endpointService *service.EndpointService
	playlistService *service.PlaylistService
	libraryService  *service.LibraryService

	http *httpapi.Server
}

// ServerOption customizes NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger *slog.Logger
	clock  ports.Clock
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// WithClock replaces the system clock.
func WithClock(c ports.Clock) ServerOption {
	return func(o *serverOptions) { o.clock = c }
}

// NewServer creates a server with all dependencies wired.
// This is the main dependency injection function.
func NewServer(cfg *config.Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("app: configuration is required")
	}
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{config: cfg, logger: o.logger, clock: o.clock}

	// Step 1: Create logger
	if s.logger == nil {
		s.logger = logger.NewLogger(cfg.LoggerConfig())
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	s.logger.Info("initializing server",
		slog.String("version", GetVersionInfo().FullString()),
		slog.String("database", cfg.Database.Path),
		slog.String("media_root", cfg.Media.Root))

	// Step 2: Create an event bus and count what flows through it
	s.eventBus = eventbus.NewSyncEventBus()
	s.eventBus.SetLogger(s.logger.With(slog.String("component", "eventbus")))
	s.metrics = metrics.New()
	s.unsubscribeStats = s.metrics.Subscribe(s.eventBus)

	// Step 3: Create repositories
	if cfg.InMemoryDatabase() {
		s.endpointRepo = memory.NewEndpointRepository()
		s.playlistRepo = memory.NewPlaylistRepository()
		s.assetRepo = memory.NewAssetRepository()
	} else {
		store, err := sqlite.NewStore(cfg.Database.Path, s.logger.With(slog.String("component", "sqlite")))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.store = store
		s.endpointRepo = store.Endpoints
		s.playlistRepo = store.Playlists
		s.assetRepo = store.Assets
	}

	// Step 4: Load the preset catalog
	s.catalog = visualizer.LoadCatalog(cfg.Visualizer.PresetsPath, s.logger.With(slog.String("component", "catalog")))

	// Step 5: Create services (with dependency injection)
	s.streamService = service.NewStreamService(s.endpointRepo, s.playlistRepo, s.assetRepo, s.catalog, s.eventBus, s.logger)
	s.endpointService = service.NewEndpointService(s.endpointRepo, s.playlistRepo, s.catalog, s.clock, s.logger)
	s.playlistService = service.NewPlaylistService(s.playlistRepo, s.clock, s.logger)
	s.libraryService = service.NewLibraryService(
		s.logger,
		cfg.Media.Root,
		s.playlistRepo,
		s.assetRepo,
		decoder.FileProber{},
		s.clock,
		s.eventBus,
	)

	// Step 6: Create the HTTP surface
	httpServer, err := httpapi.NewServer(httpapi.Config{
		Stream:      s.streamService,
		Catalog:     s.catalog,
		MediaRoot:   cfg.Media.Root,
		CORSOrigins: cfg.Server.CORSOrigins,
		Clock:       s.clock,
		Metrics:     s.metrics,
		Bus:         s.eventBus,
		Logger:      s.logger,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}
	s.http = httpServer

	return s, nil
}

// Run serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			return fmt.Errorf("database unavailable: %w", err)
		}
	}
	s.logger.Info("server listening", slog.String("addr", s.config.Server.Addr))
	return s.http.ListenAndServe(ctx, s.config.Server.Addr, s.config.Server.ReadTimeout, s.config.Server.ShutdownTimeout)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() *httpapi.Server {
	return s.http
}

// Endpoints returns the endpoint service.
func (s *Server) Endpoints() *service.EndpointService {
	return s.endpointService
}

// Playlists returns the playlist service.
func (s *Server) Playlists() *service.PlaylistService {
	return s.playlistService
}

// Library returns the library service.
func (s *Server) Library() *service.LibraryService {
	return s.libraryService
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Close releases the database and stops event collection.
// It's safe to call multiple times.
func (s *Server) Close() {
	s.logger.Info("shutting down server")

	if s.libraryService != nil {
		if err := s.libraryService.Shutdown(); err != nil {
			s.logger.Warn("failed to shutdown library service", slog.Any("error", err))
		}
	}
	if s.unsubscribeStats != nil {
		s.unsubscribeStats()
		s.unsubscribeStats = nil
	}
	if s.eventBus != nil {
		_ = s.eventBus.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("failed to close database", slog.Any("error", err))
		}
		s.store = nil
	}
}
