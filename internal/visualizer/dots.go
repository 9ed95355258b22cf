package visualizer

import (
	"math"
)

// liftSquash is how far a full-level particle flattens its orbit's vertical axis.
const liftSquash = 0.5

// renderDots draws particles orbiting the center; their orbit radius, size and
// opacity follow the spectrum band assigned to each particle.
func renderDots(f *Frame, s *DotsState) {
	opts := options(f.Preset.Options)
	pal := resolvePalette(f.Preset, f.Settings)
	paintBackground(f, pal, trailingFade)

	n := len(s.Particles)
	if n == 0 {
		return
	}

	smoothing := smoothingFactor(opts, 0.6)
	spin := opts.float("spin", 0.5)
	size := math.Max(0.5, opts.float("size", 3))
	lift := opts.bool("lift", false)
	intensity := intensityOf(f)

	cx, cy := f.Width/2, f.Height/2
	base := math.Min(f.Width, f.Height) / 2 * clamp(opts.float("orbitRadius", 0.34), 0.05, 1)
	stride := strideFor(len(f.Frequency), n)

	for i := range s.Particles {
		p := &s.Particles[i]
		amplitude := clamp(magnitudeAt(f.Frequency, i, stride)*intensity, 0, 1)
		p.Level = ema(p.Level, amplitude, smoothing)
		p.Angle = math.Mod(p.Angle+(spin+p.Speed)*f.Delta, 2*math.Pi)

		x, y := orbitPosition(cx, cy, base*(0.6+0.8*p.Level), p.Angle, p.Level, lift)

		f.Surface.FillCircle(x, y, size*(1+2*p.Level), Solid(pal.at(i)).WithOpacity(0.35+0.65*p.Level))
	}
}

// orbitPosition places a particle on its orbit. With lift the vertical
// axis is compressed in proportion to level.
func orbitPosition(cx, cy, r, angle, level float64, lift bool) (x, y float64) {
	ry := r
	if lift {
		ry *= 1 - liftSquash*clamp(level, 0, 1)
	}
	return cx + math.Cos(angle)*r, cy + math.Sin(angle)*ry
}
