package visualizer

import (
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// State is the lifecycle state of a Manager.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateActive        State = "active"
	StatePaused        State = "paused"
	StateError         State = "error"
	StateUnsupported   State = "unsupported"
)

// Status texts shown next to the visualizer.
const (
	StatusIdle               = "Press play to start the visualizer."
	StatusPaused             = "Visualizer paused."
	StatusFinished           = "Playback finished."
	StatusPresetsUnavailable = "Visualizer presets unavailable."
	StatusUnsupported        = "Audio visualizer not supported on this device."
	StatusError              = "Visualizer unavailable."
)

// defaultAnalyserSmoothing is applied when a preset has no analyserSmoothing option.
const defaultAnalyserSmoothing = 0.8

// ManagerConfig holds the dependencies of a Manager.
type ManagerConfig struct {
	Catalog   *Catalog
	Element   ports.MediaElement
	Graph     ports.AudioGraph // nil means audio analysis is unsupported; closed by Dispose
	Scheduler ports.FrameScheduler
	Clock     ports.Clock
	Logger    *slog.Logger
	Bus       ports.EventBus // optional
	Rand      *rand.Rand     // optional, seeded from the clock when nil

	// Settings is normalized with Catalog before use.
	Settings any

	Width      int
	Height     int
	PixelRatio float64
}

// Manager owns one visualizer instance: it reacts to media element events,
// builds the audio graph lazily, rotates presets in random mode and drives
// the render loop.
//
// Thread-safety: all methods are safe for concurrent use. Frame and timer
// callbacks re-enter through the same mutex, so at most one frame draws at a time.
type Manager struct {
	catalog   *Catalog
	element   ports.MediaElement
	graph     ports.AudioGraph
	scheduler ports.FrameScheduler
	clock     ports.Clock
	logger    *slog.Logger
	bus       ports.EventBus
	rng       *rand.Rand

	mu      sync.Mutex
	state   State
	status  string
	pending []domain.Event

	settings  domain.VisualizerSettings
	preset    domain.Preset
	hasPreset bool
	runtime   RuntimeState

	analyser   ports.Analyser
	frequency  []byte
	timeDomain []byte

	surface *ImageSurface
	drawn   bool

	loop         *animationLoop
	loopStarted  time.Time
	lastFrame    time.Time
	rotation     ports.Timer
	rotationGen  int
	stopListener func()
	disposed     bool
}

// animationLoop is the handle of a running render loop. stop is idempotent
// and a stopped handle never schedules again.
type animationLoop struct {
	cancel  func()
	stopped bool
}

func (l *animationLoop) stop() {
	if l == nil || l.stopped {
		return
	}
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *animationLoop) running() bool {
	return l != nil && !l.stopped
}

// NewManager creates a manager in the ready state and applies cfg.Settings.
// An empty catalog is not fatal: the manager stays ready and reports
// StatusPresetsUnavailable.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Element == nil {
		return nil, domain.NewValidationError("Element", nil, "media element is required")
	}
	if cfg.Scheduler == nil || cfg.Clock == nil {
		return nil, domain.NewValidationError("Scheduler", nil, "frame scheduler and clock are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = NewCatalog(nil)
	}
	if cfg.Rand == nil {
		seed := uint64(cfg.Clock.Now().UnixNano())
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>17|1))
	}

	m := &Manager{
		catalog:   cfg.Catalog,
		element:   cfg.Element,
		graph:     cfg.Graph,
		scheduler: cfg.Scheduler,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With(slog.String("component", "visualizer")),
		bus:       cfg.Bus,
		rng:       cfg.Rand,
		state:     StateUninitialized,
		surface:   NewImageSurface(cfg.Width, cfg.Height, cfg.PixelRatio),
	}

	m.mu.Lock()
	if m.catalog.Len() == 0 {
		m.setStateLocked(StateReady, StatusPresetsUnavailable)
	} else {
		m.setStateLocked(StateReady, StatusIdle)
	}
	m.applySettingsLocked(cfg.Settings)
	m.unlock()

	m.stopListener = cfg.Element.AddListener(m.handleMediaEvent)
	return m, nil
}

// unlock releases the mutex and publishes events queued while it was held,
// so subscribers may call back into the manager.
func (m *Manager) unlock() {
	events := m.pending
	m.pending = nil
	m.mu.Unlock()
	if m.bus == nil {
		return
	}
	for _, e := range events {
		m.bus.Publish(e)
	}
}

func (m *Manager) emit(e domain.Event) {
	m.pending = append(m.pending, e)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the status text ("" while actively drawing).
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Settings returns the normalized settings in effect.
func (m *Manager) Settings() domain.VisualizerSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Preset returns the active preset; ok is false when none is active.
func (m *Manager) Preset() (domain.Preset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preset, m.hasPreset
}

// Snapshot returns a copy of the last drawn frame, or nil before the first draw.
func (m *Manager) Snapshot() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.drawn {
		return nil
	}
	return m.surface.Snapshot()
}

// ApplySettings normalizes and applies new settings. In random mode a preset
// is picked immediately and then every RandomizeIntervalSeconds.
func (m *Manager) ApplySettings(input any) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed {
		return
	}
	m.applySettingsLocked(input)
}

// SetPreset selects a preset manually, leaving random rotation.
// Unknown IDs are ignored.
func (m *Manager) SetPreset(id string) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed {
		return
	}
	if _, ok := m.catalog.Get(id); !ok {
		m.logger.Debug("ignoring unknown preset", slog.String("preset", id))
		return
	}
	next := m.settings
	next.Mode = id
	m.applySettingsLocked(next)
}

func (m *Manager) applySettingsLocked(input any) {
	m.settings = m.catalog.NormalizeSettings(input)
	m.stopRotationLocked()

	if m.settings.IsRandom() {
		m.rotateLocked()
		if m.catalog.Len() > 0 {
			gen := m.rotationGen
			interval := time.Duration(m.settings.RandomizeIntervalSeconds) * time.Second
			m.rotation = m.clock.Every(interval, func() { m.handleRotation(gen) })
		}
		return
	}
	m.selectPresetLocked(m.settings.Mode, false)
}

func (m *Manager) stopRotationLocked() {
	m.rotationGen++
	if m.rotation != nil {
		m.rotation.Stop()
		m.rotation = nil
	}
}

func (m *Manager) handleRotation(gen int) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed || gen != m.rotationGen || !m.settings.IsRandom() {
		return
	}
	m.rotateLocked()
}

// rotateLocked picks a random preset, avoiding the current one when possible.
func (m *Manager) rotateLocked() {
	presets := m.catalog.Presets()
	if len(presets) == 0 {
		m.hasPreset = false
		m.runtime = nil
		return
	}
	candidates := presets
	if m.hasPreset && len(presets) > 1 {
		candidates = make([]domain.Preset, 0, len(presets)-1)
		for _, p := range presets {
			if p.ID != m.preset.ID {
				candidates = append(candidates, p)
			}
		}
	}
	m.selectPresetLocked(candidates[m.rng.IntN(len(candidates))].ID, true)
}

func (m *Manager) selectPresetLocked(id string, random bool) {
	preset, ok := m.catalog.Get(id)
	if !ok {
		preset, ok = m.catalog.Fallback()
	}
	if !ok {
		m.hasPreset = false
		m.runtime = nil
		if m.state == StateReady || m.state == StatePaused {
			m.status = StatusPresetsUnavailable
		}
		return
	}

	changed := !m.hasPreset || m.preset.ID != preset.ID
	m.preset = preset
	m.hasPreset = true
	if changed {
		m.runtime = NewRuntimeState(preset, m.rng)
		m.emit(domain.NewVisualizerPresetEvent(preset.ID, random))
		m.logger.Debug("preset selected", slog.String("preset", preset.ID), slog.Bool("random", random))
	} else {
		m.runtime = EnsureRuntimeState(m.runtime, preset, m.rng)
	}
	m.applyAnalyserSmoothingLocked()
}

func (m *Manager) applyAnalyserSmoothingLocked() {
	if m.analyser == nil || !m.hasPreset {
		return
	}
	v := options(m.preset.Options).float("analyserSmoothing", defaultAnalyserSmoothing)
	m.analyser.SetSmoothingTimeConstant(clamp(v, 0, 0.99))
}

// EnsureAudioGraph builds the analyser once. ErrAudioUnsupported moves the
// manager to unsupported; any other failure moves it to error. Both are terminal.
func (m *Manager) EnsureAudioGraph() error {
	m.mu.Lock()
	defer m.unlock()
	return m.ensureAudioGraphLocked()
}

func (m *Manager) ensureAudioGraphLocked() error {
	if m.disposed {
		return domain.ErrClosed
	}
	switch m.state {
	case StateUnsupported:
		return domain.ErrAudioUnsupported
	case StateError:
		return domain.NewServiceError("Visualizer", "EnsureAudioGraph", "visualizer failed earlier", nil)
	}
	if m.analyser != nil {
		return nil
	}
	if m.graph == nil {
		m.setStateLocked(StateUnsupported, StatusUnsupported)
		return domain.ErrAudioUnsupported
	}

	analyser, err := m.graph.Connect(m.element)
	if err != nil {
		if errors.Is(err, domain.ErrAudioUnsupported) {
			m.logger.Info("audio analysis unsupported")
			m.setStateLocked(StateUnsupported, StatusUnsupported)
			return err
		}
		m.logger.Error("audio graph creation failed", slog.Any("error", err))
		m.setStateLocked(StateError, StatusError)
		return err
	}

	bins := analyser.FrequencyBinCount()
	m.analyser = analyser
	m.frequency = make([]byte, bins)
	m.timeDomain = make([]byte, 2*bins)
	m.applyAnalyserSmoothingLocked()
	return nil
}

// Resize sets the logical size and device pixel ratio of the drawing surface.
func (m *Manager) Resize(width, height int, pixelRatio float64) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed {
		return
	}
	m.surface.Resize(width, height, pixelRatio)
	m.drawn = false
}

// Dispose stops the render loop and rotation timer, detaches from the
// media element and closes the audio graph. It is idempotent.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.loop.stop()
	m.loop = nil
	m.stopRotationLocked()
	stop := m.stopListener
	m.stopListener = nil
	graph := m.graph
	m.unlock()

	if stop != nil {
		stop()
	}
	if graph != nil {
		if err := graph.Close(); err != nil {
			m.logger.Debug("audio graph close failed", slog.Any("error", err))
		}
	}
	m.logger.Debug("visualizer disposed")
}

func (m *Manager) handleMediaEvent(event ports.MediaEvent) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed {
		return
	}

	switch event.Type {
	case ports.MediaPlay:
		if m.state == StateUnsupported || m.state == StateError {
			return
		}
		if err := m.ensureAudioGraphLocked(); err != nil {
			return
		}
		if !m.hasPreset {
			m.setStateLocked(StateActive, StatusPresetsUnavailable)
			return
		}
		m.setStateLocked(StateActive, "")
		m.startLoopLocked()
	case ports.MediaPause:
		if m.state != StateActive {
			return
		}
		m.stopLoopLocked()
		switch {
		case m.element.Ended():
			m.setStateLocked(StatePaused, StatusFinished)
		case m.element.Paused():
			m.setStateLocked(StatePaused, StatusPaused)
		default:
			// A pause reported while the element still plays, as after a seek.
			m.setStateLocked(StateReady, StatusIdle)
		}
	case ports.MediaEnded:
		if m.state == StateActive || m.state == StatePaused {
			m.stopLoopLocked()
			m.setStateLocked(StatePaused, StatusFinished)
		}
	}
}

func (m *Manager) setStateLocked(state State, status string) {
	if m.state == state && m.status == status {
		return
	}
	m.state = state
	m.status = status
	m.emit(domain.NewVisualizerStateEvent(string(state), status))
}

func (m *Manager) startLoopLocked() {
	if m.loop.running() {
		return
	}
	loop := &animationLoop{}
	m.loop = loop
	m.loopStarted = m.clock.Now()
	m.lastFrame = time.Time{}
	m.scheduleLocked(loop)
}

func (m *Manager) stopLoopLocked() {
	m.loop.stop()
	m.loop = nil
}

func (m *Manager) scheduleLocked(loop *animationLoop) {
	loop.cancel = m.scheduler.RequestFrame(func(now time.Time) {
		m.tick(loop, now)
	})
}

// tick draws one frame and requests the next one after the draw completes.
func (m *Manager) tick(loop *animationLoop, now time.Time) {
	m.mu.Lock()
	defer m.unlock()
	if m.disposed || loop.stopped || m.loop != loop {
		return
	}
	m.drawLocked(now)
	if !loop.stopped {
		m.scheduleLocked(loop)
	}
}

func (m *Manager) drawLocked(now time.Time) {
	if !m.hasPreset || m.analyser == nil {
		return
	}

	delta := 0.0
	if !m.lastFrame.IsZero() {
		delta = now.Sub(m.lastFrame).Seconds()
	}
	m.lastFrame = now

	m.analyser.ByteFrequencyData(m.frequency)
	m.analyser.ByteTimeDomainData(m.timeDomain)
	m.runtime = EnsureRuntimeState(m.runtime, m.preset, m.rng)

	width, height := m.surface.Size()
	Render(&Frame{
		Surface:    m.surface,
		Width:      width,
		Height:     height,
		Frequency:  m.frequency,
		TimeDomain: m.timeDomain,
		Delta:      delta,
		Time:       now.Sub(m.loopStarted).Seconds(),
		Preset:     m.preset,
		Settings:   m.settings,
		State:      m.runtime,
		Rand:       m.rng,
	})
	m.drawn = true
}

var _ ports.Visualizer = (*Manager)(nil)
