package decoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// endedPollInterval is how often a playing element checks for the end of its audio.
const endedPollInterval = 100 * time.Millisecond

// ElementConfig configures an Element.
type ElementConfig struct {
	// BaseURL resolves relative sources such as /media/music/{playlist}/{file}.
	BaseURL    string
	HTTPClient *http.Client
	Clock      ports.Clock
	Logger     *slog.Logger
	Decode     Options
}

// Element is a ports.MediaElement whose playback position is driven by the
// clock over decoded PCM. It produces no sound output; it exists so the
// analyser sees the same samples a speaker would play at that moment.
//
// Thread-safety: This implementation is thread-safe. Listeners are invoked
// after the element lock is released.
type Element struct {
	cfg    ElementConfig
	logger *slog.Logger

	mu        sync.Mutex
	src       string
	pcm       *PCM
	paused    bool
	ended     bool
	offset    time.Duration // position when playback last started
	startedAt time.Time
	watcher   ports.Timer
	listeners map[int]ports.MediaListener
	nextID    int
}

// NewElement creates a paused element with no source.
func NewElement(cfg ElementConfig) *Element {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.Decode.Logger == nil {
		cfg.Decode.Logger = cfg.Logger
	}
	return &Element{
		cfg:       cfg,
		logger:    cfg.Logger.With(slog.String("component", "media-element")),
		paused:    true,
		listeners: make(map[int]ports.MediaListener),
	}
}

// SetSource implements ports.MediaElement. Decoding is deferred to Play.
func (e *Element) SetSource(src, mimeType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopWatcherLocked()
	e.src = src
	e.pcm = nil
	e.paused = true
	e.ended = false
	e.offset = 0
	e.logger.Debug("source set", slog.String("src", src), slog.String("mime", mimeType))
	return nil
}

// Source implements ports.MediaElement.
func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// Play implements ports.MediaElement. The first Play after SetSource fetches
// and decodes the source.
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	src := e.src
	loaded := e.pcm != nil
	e.mu.Unlock()

	if src == "" {
		return domain.ErrNoSource
	}
	if !loaded {
		pcm, err := e.load(ctx, src)
		if err != nil {
			return err
		}
		e.mu.Lock()
		if e.src != src {
			// Source changed while decoding.
			e.mu.Unlock()
			return nil
		}
		e.pcm = pcm
		e.mu.Unlock()
	}

	e.mu.Lock()
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	if e.ended {
		e.offset = 0
		e.ended = false
	}
	e.paused = false
	e.startedAt = e.cfg.Clock.Now()
	e.watcher = e.cfg.Clock.Every(endedPollInterval, e.checkEnded)
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, ports.MediaEvent{Type: ports.MediaPlay, Src: src})
	return nil
}

// Pause implements ports.MediaElement.
func (e *Element) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.offset = e.positionLocked()
	e.paused = true
	e.stopWatcherLocked()
	src := e.src
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, ports.MediaEvent{Type: ports.MediaPause, Src: src})
}

func (e *Element) checkEnded() {
	e.mu.Lock()
	if e.paused || e.pcm == nil || e.positionLocked() < e.pcm.Duration() {
		e.mu.Unlock()
		return
	}
	e.offset = e.pcm.Duration()
	e.paused = true
	e.ended = true
	e.stopWatcherLocked()
	src := e.src
	listeners := e.snapshotListeners()
	e.mu.Unlock()

	dispatch(listeners, ports.MediaEvent{Type: ports.MediaPause, Src: src})
	dispatch(listeners, ports.MediaEvent{Type: ports.MediaEnded, Src: src})
}

// Paused implements ports.MediaElement.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Ended implements ports.MediaElement.
func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// Position implements ports.MediaElement.
func (e *Element) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Element) positionLocked() time.Duration {
	pos := e.offset
	if !e.paused {
		pos += e.cfg.Clock.Now().Sub(e.startedAt)
	}
	if e.pcm != nil {
		pos = min(pos, e.pcm.Duration())
	}
	return pos
}

// ReadWindow implements analysis.SampleSource: it copies the samples that end
// at the current position into dst, right-aligned.
func (e *Element) ReadWindow(dst []float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pcm == nil || len(e.pcm.Samples) == 0 {
		return 0
	}
	end := int(e.positionLocked().Seconds() * float64(e.pcm.SampleRate))
	end = min(end, len(e.pcm.Samples))
	start := max(0, end-len(dst))
	n := copy(dst[len(dst)-(end-start):], e.pcm.Samples[start:end])
	return n
}

// AddListener implements ports.MediaElement.
func (e *Element) AddListener(listener ports.MediaListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[id] = listener
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Close stops the end-of-track watcher.
func (e *Element) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopWatcherLocked()
	e.paused = true
}

func (e *Element) stopWatcherLocked() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
}

func (e *Element) snapshotListeners() []ports.MediaListener {
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]ports.MediaListener, len(ids))
	for i, id := range ids {
		out[i] = e.listeners[id]
	}
	return out
}

func dispatch(listeners []ports.MediaListener, event ports.MediaEvent) {
	for _, l := range listeners {
		l(event)
	}
}

func (e *Element) load(ctx context.Context, src string) (*PCM, error) {
	data, err := e.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	pcm, err := Decode(bytes.NewReader(data), e.cfg.Decode)
	if err != nil {
		return nil, &domain.DecodeError{Path: src, Err: err}
	}
	e.logger.Info("source decoded",
		slog.String("src", src),
		slog.Int("sample_rate", pcm.SampleRate),
		slog.Duration("duration", pcm.Duration()))
	return pcm, nil
}

// fetch reads src from HTTP when it is (or resolves to) an http(s) URL and
// from the filesystem otherwise.
func (e *Element) fetch(ctx context.Context, src string) ([]byte, error) {
	target := src
	if e.cfg.BaseURL != "" && !strings.Contains(src, "://") {
		base, err := url.Parse(e.cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		ref, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse source: %w", err)
		}
		target = base.ResolveReference(ref).String()
	}

	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return os.ReadFile(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var _ ports.MediaElement = (*Element)(nil)
