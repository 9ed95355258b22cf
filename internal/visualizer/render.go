package visualizer

import (
	"math"
	"math/rand/v2"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// defaultDelta is the frame time assumed when the measured one is unusable.
const defaultDelta = 1.0 / 60

// Default background fade alpha: trailing renderers keep most of the previous
// frame, the others mostly clear it.
const (
	trailingFade = 0.18
	clearingFade = 0.85
)

// Frame is everything a renderer needs to draw one frame.
type Frame struct {
	Surface Surface
	Width   float64
	Height  float64

	// Frequency holds byte magnitudes (0..255) from low to high frequency.
	Frequency []byte
	// TimeDomain holds waveform bytes centered on 128.
	TimeDomain []byte

	// Delta is the time since the previous frame in seconds.
	Delta float64
	// Time is the time since the render loop started in seconds.
	Time float64

	Preset   domain.Preset
	Settings domain.VisualizerSettings
	State    RuntimeState
	Rand     *rand.Rand
}

// NormalizeDelta replaces non-finite or non-positive frame times with 1/60 s.
func NormalizeDelta(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return defaultDelta
	}
	return seconds
}

// Render draws one frame with the renderer selected by the preset type.
// Unknown types, or a state that does not belong to the preset, draw nothing.
func Render(f *Frame) {
	if f == nil || f.Surface == nil {
		return
	}
	f.Delta = NormalizeDelta(f.Delta)
	if f.Rand == nil {
		f.Rand = rand.New(rand.NewPCG(uint64(f.Time*1000), 7))
	}

	switch f.Preset.Type {
	case domain.RendererBars:
		if s, ok := f.State.(*BarsState); ok {
			renderBars(f, s)
		}
	case domain.RendererWaveform:
		if s, ok := f.State.(*WaveformState); ok {
			renderWaveform(f, s)
		}
	case domain.RendererRadial:
		if s, ok := f.State.(*RadialState); ok {
			renderRadial(f, s)
		}
	case domain.RendererGrid:
		if s, ok := f.State.(*GridState); ok {
			renderGrid(f, s)
		}
	case domain.RendererDots:
		if s, ok := f.State.(*DotsState); ok {
			renderDots(f, s)
		}
	default:
	}
}

// paintBackground runs the shared background pass.
//
// An endpoint background override fills solid. Otherwise a backgroundAlpha
// option fills translucently (0 clears), and without it the renderer's
// default fade alpha applies. Translucent fills use the preset background
// color when set.
func paintBackground(f *Frame, pal palette, defaultFade float64) {
	if pal.backgroundOverride && pal.background != nil {
		f.Surface.Clear()
		f.Surface.FillRect(0, 0, f.Width, f.Height, Solid(*pal.background))
		return
	}

	tint := fadeTint
	if pal.background != nil {
		tint = *pal.background
	}

	opts := options(f.Preset.Options)
	alpha := defaultFade
	if opts.has("backgroundAlpha") {
		alpha = clamp(opts.float("backgroundAlpha", defaultFade), 0, 1)
		if alpha == 0 {
			f.Surface.Clear()
			return
		}
	}
	f.Surface.FillRect(0, 0, f.Width, f.Height, Solid(tint).WithOpacity(alpha))
}

// intensityOf returns the amplitude factor of the endpoint intensity override.
func intensityOf(f *Frame) float64 {
	return f.Settings.Intensity().Factor()
}
