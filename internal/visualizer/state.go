package visualizer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// RuntimeState is the per-renderer mutable state carried between frames.
// It is a closed variant: *BarsState, *WaveformState, *RadialState,
// *GridState or *DotsState.
type RuntimeState interface {
	Renderer() domain.RendererType

	// fits reports whether the state can keep serving a preset with these options.
	fits(opts options) bool
}

// gradientCache memoizes one gradient by key (surface size plus palette).
type gradientCache struct {
	key      string
	gradient *LinearGradient
}

func (c *gradientCache) get(key string, build func() *LinearGradient) *LinearGradient {
	if c.gradient == nil || c.key != key {
		c.key = key
		c.gradient = build()
	}
	return c.gradient
}

func gradientKey(w, h float64, pal palette) string {
	return fmt.Sprintf("%gx%g|%s", w, h, pal.key())
}

// BarsState holds smoothed bar heights and decaying peaks, both in [0, 1].
type BarsState struct {
	Values   []float64
	Peaks    []float64
	gradient gradientCache
}

func (s *BarsState) Renderer() domain.RendererType { return domain.RendererBars }

func (s *BarsState) fits(o options) bool { return len(s.Values) == barCount(o) }

// WaveformState only caches the stroke gradient.
type WaveformState struct {
	gradient gradientCache
}

func (s *WaveformState) Renderer() domain.RendererType { return domain.RendererWaveform }

func (s *WaveformState) fits(options) bool { return true }

// RadialState holds smoothed spoke levels and the current rotation in radians.
type RadialState struct {
	Levels   []float64
	Rotation float64
}

func (s *RadialState) Renderer() domain.RendererType { return domain.RendererRadial }

func (s *RadialState) fits(o options) bool { return len(s.Levels) == spokeCount(o) }

// GridState holds smoothed per-cell energy, row-major.
type GridState struct {
	Columns int
	Rows    int
	Energy  []float64
}

func (s *GridState) Renderer() domain.RendererType { return domain.RendererGrid }

func (s *GridState) fits(o options) bool {
	c, r := gridSize(o)
	return s.Columns == c && s.Rows == r
}

// Particle is one orbiting dot.
type Particle struct {
	Angle float64
	Speed float64
	Level float64
}

// DotsState holds the particle field.
type DotsState struct {
	Particles []Particle
}

func (s *DotsState) Renderer() domain.RendererType { return domain.RendererDots }

func (s *DotsState) fits(o options) bool { return len(s.Particles) == dotCount(o) }

// NewRuntimeState allocates state sized to the preset's options.
// It returns nil for unknown renderer types.
func NewRuntimeState(preset domain.Preset, rng *rand.Rand) RuntimeState {
	opts := options(preset.Options)
	switch preset.Type {
	case domain.RendererBars:
		n := barCount(opts)
		return &BarsState{Values: make([]float64, n), Peaks: make([]float64, n)}
	case domain.RendererWaveform:
		return &WaveformState{}
	case domain.RendererRadial:
		return &RadialState{Levels: make([]float64, spokeCount(opts))}
	case domain.RendererGrid:
		c, r := gridSize(opts)
		return &GridState{Columns: c, Rows: r, Energy: make([]float64, c*r)}
	case domain.RendererDots:
		if rng == nil {
			rng = rand.New(rand.NewPCG(1, 2))
		}
		n := dotCount(opts)
		spin := opts.float("spin", 0.5)
		particles := make([]Particle, n)
		for i := range particles {
			particles[i] = Particle{
				Angle: float64(i) / float64(n) * 2 * math.Pi,
				Speed: (rng.Float64() - 0.5) * spin,
			}
		}
		return &DotsState{Particles: particles}
	}
	return nil
}

// EnsureRuntimeState keeps state when it still fits preset, otherwise allocates a new one.
func EnsureRuntimeState(state RuntimeState, preset domain.Preset, rng *rand.Rand) RuntimeState {
	if state != nil && state.Renderer() == preset.Type && state.fits(options(preset.Options)) {
		return state
	}
	return NewRuntimeState(preset, rng)
}

func barCount(o options) int   { return max(8, o.int("barCount", 64)) }
func spokeCount(o options) int { return max(8, o.int("spokes", 96)) }
func dotCount(o options) int   { return max(4, o.int("count", 48)) }

func gridSize(o options) (int, int) {
	return max(2, o.int("columns", 16)), max(2, o.int("rows", 9))
}
