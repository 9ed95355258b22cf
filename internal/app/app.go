package app

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // artwork decoders
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	_ "golang.org/x/image/webp"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/streamclient"
	fyneui "github.com/tejashwikalptaru/tunecast/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/service"
	"github.com/tejashwikalptaru/tunecast/internal/visualizer"
)

// maxArtworkBytes bounds an artwork download.
const maxArtworkBytes = 8 << 20

// Monitor is the root structure of the desktop monitor. It renders an
// endpoint's player the way the embed page does, fetched from a server.
type Monitor struct {
	// Core dependencies
	logger     *slog.Logger
	fyneApp    fyne.App
	clock      ports.Clock
	httpClient *http.Client

	// Infrastructure
	eventBus *eventbus.SyncEventBus

	// Services
	preferenceService *service.PreferenceService

	// UI
	presenter *fyneui.Presenter
	window    *fyneui.PlayerWindow

	config MonitorConfig
	closed atomic.Bool
}

// MonitorConfig holds monitor configuration.
type MonitorConfig struct {
	// AppID is the unique application identifier
	AppID string

	// ServerURL and Slug open an endpoint at startup instead of the saved one.
	ServerURL string
	Slug      string

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// HTTPClient fetches payloads, presets, audio and artwork. Nil uses a default client.
	HTTPClient *http.Client

	// MaxDecode limits how much audio of a track is decoded for the visualizer.
	MaxDecode time.Duration

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultMonitorConfig returns the default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		AppID:     "com.tunecast.monitor",
		LogLevel:  logger.DefaultConfig().Level,
		MaxDecode: 15 * time.Minute,
	}
}

// NewMonitor creates the monitor with all dependencies wired.
func NewMonitor(config MonitorConfig) (*Monitor, error) {
	m := &Monitor{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		m.fyneApp = config.TestFyneApp
	} else {
		m.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	m.logger = logger.NewLogger(logger.Config{Level: config.LogLevel, Format: "text"})
	m.logger.Info("initializing monitor",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	m.clock = clock.NewSystem()
	m.httpClient = config.HTTPClient
	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	// Step 3: Create an event bus
	m.eventBus = eventbus.NewSyncEventBus()
	m.eventBus.SetLogger(m.logger.With(slog.String("component", "eventbus")))

	// Step 4: Saved connection
	m.preferenceService = service.NewPreferenceService(
		m.logger,
		memory.NewPreferencesRepository(m.fyneApp.Preferences()),
	)

	// Step 5: Create UI and presenter
	m.window = fyneui.NewPlayerWindow(m.fyneApp, m.loadArtwork, m.logger)
	m.presenter = fyneui.NewPresenter(m.logger, m.preferenceService, m.newPlayer, m.eventBus, m.window)
	m.window.SetHandlers(fyneui.PlayerHandlers{
		// Play and select may download and decode audio, so they leave the UI goroutine.
		OnPlay:   func() { go m.presenter.OnPlayClicked() },
		OnPause:  m.presenter.OnPauseClicked,
		OnSelect: func(i int) { go m.presenter.OnTrackSelected(i) },
		OnOpen:   func(u, s string) { go m.open(u, s) },
	})
	m.window.SetOnClosed(m.Shutdown)

	return m, nil
}

// monitorPlayer closes the element together with its controller.
type monitorPlayer struct {
	*service.PlayerController
	element *decoder.Element
}

func (p monitorPlayer) Close() {
	p.PlayerController.Close()
	p.element.Close()
}

// newPlayer is the presenter's factory: one stream client, decoding media
// element and preset catalog per server.
func (m *Monitor) newPlayer(serverURL string, view ports.PlayerView) (fyneui.Player, error) {
	client, err := streamclient.New(serverURL, m.httpClient, m.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	catalog, err := client.Presets(ctx)
	if err != nil {
		m.logger.Warn("visualizer presets unavailable", slog.String("server", serverURL), slog.Any("error", err))
		catalog = visualizer.NewCatalog(nil)
	}

	element := decoder.NewElement(decoder.ElementConfig{
		BaseURL:    client.BaseURL(),
		HTTPClient: m.httpClient,
		Clock:      m.clock,
		Logger:     m.logger,
		Decode:     decoder.Options{MaxDuration: m.config.MaxDecode},
	})

	controller, err := service.NewPlayerController(service.PlayerConfig{
		Source:      client,
		View:        view,
		Element:     element,
		Clock:       m.clock,
		Visualizers: m.visualizerFactory(catalog),
		Bus:         m.eventBus,
		Logger:      m.logger,
	})
	if err != nil {
		element.Close()
		return nil, err
	}
	return monitorPlayer{PlayerController: controller, element: element}, nil
}

// visualizerFactory builds managers that analyse the decoded audio of
// the element and draw at the frame ticker's rate.
func (m *Monitor) visualizerFactory(catalog *visualizer.Catalog) ports.VisualizerFactory {
	return func(element ports.MediaElement, settings domain.VisualizerSettings) (ports.Visualizer, error) {
		return visualizer.NewManager(visualizer.ManagerConfig{
			Catalog:    catalog,
			Element:    element,
			Graph:      decoder.NewGraph(),
			Scheduler:  clock.NewFrameTicker(0),
			Clock:      m.clock,
			Logger:     m.logger,
			Bus:        m.eventBus,
			Settings:   settings,
			Width:      320,
			Height:     180,
			PixelRatio: 1,
		})
	}
}

// loadArtwork fetches and decodes an artwork image. Relative URLs are
// resolved against the current server.
func (m *Monitor) loadArtwork(ctx context.Context, raw string) (image.Image, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !ref.IsAbs() {
		base, err := url.Parse(m.presenter.ServerURL() + "/")
		if err != nil {
			return nil, err
		}
		ref = base.ResolveReference(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork %s: server answered %d", ref, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("artwork %s: %w", ref, err)
	}
	return img, nil
}

func (m *Monitor) open(serverURL, slug string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := m.presenter.OnOpen(ctx, serverURL, slug); err != nil {
		m.logger.Warn("failed to open endpoint",
			slog.String("server", serverURL),
			slog.String("slug", slug),
			slog.Any("error", err))
	}
}

// Start opens the configured endpoint, the saved one, or asks for one.
// It does not block.
func (m *Monitor) Start() {
	if m.config.Slug != "" {
		serverURL := m.config.ServerURL
		if serverURL == "" {
			serverURL = m.preferenceService.ServerURL()
		}
		go m.open(serverURL, m.config.Slug)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		restored, err := m.presenter.RestoreSession(ctx)
		if err != nil {
			m.logger.Warn("failed to restore session", slog.Any("error", err))
		}
		if !restored {
			serverURL := m.preferenceService.ServerURL()
			fyne.Do(func() { m.window.ShowOpenDialog(serverURL, "") })
		}
	}()
}

// Run starts the monitor and blocks until the window is closed.
func (m *Monitor) Run() {
	m.logger.Info("TuneCast Monitor started")
	m.Start()
	m.window.ShowAndRun()
}

// Presenter returns the presenter.
func (m *Monitor) Presenter() *fyneui.Presenter {
	return m.presenter
}

// Window returns the player window.
func (m *Monitor) Window() *fyneui.PlayerWindow {
	return m.window
}

// Shutdown gracefully shuts down the monitor. It's safe to call multiple
// times; closing the window calls it again.
func (m *Monitor) Shutdown() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.logger.Info("shutting down monitor")

	m.presenter.Shutdown()
	if err := m.preferenceService.Shutdown(); err != nil {
		m.logger.Warn("failed to shutdown preference service", slog.Any("error", err))
	}
	m.window.Close()

	m.logger.Info("monitor shutdown complete")
}
