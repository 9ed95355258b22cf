package visualizer

import (
	"math"
)

// renderRadial draws rotating spokes whose length follows the spectrum.
// Rotation advances by rotationSpeed radians per second of frame time.
func renderRadial(f *Frame, s *RadialState) {
	opts := options(f.Preset.Options)
	pal := resolvePalette(f.Preset, f.Settings)
	paintBackground(f, pal, clearingFade)

	n := len(s.Levels)
	if n == 0 {
		return
	}

	smoothing := smoothingFactor(opts, 0.6)
	lineWidth := math.Max(0.5, opts.float("lineWidth", 3))
	dots := opts.bool("dots", false)
	intensity := intensityOf(f)

	cx, cy := f.Width/2, f.Height/2
	base := math.Min(f.Width, f.Height) / 2
	inner := base * clamp(opts.float("innerRadius", 0.28), 0, 1)
	outer := base * clamp(opts.float("outerRadius", 0.92), 0, 1)
	if outer < inner {
		inner, outer = outer, inner
	}

	s.Rotation = math.Mod(s.Rotation+opts.float("rotationSpeed", 0.35)*f.Delta, 2*math.Pi)
	stride := strideFor(len(f.Frequency), n)

	for i := 0; i < n; i++ {
		amplitude := clamp(magnitudeAt(f.Frequency, i, stride)*intensity, 0, 1)
		s.Levels[i] = ema(s.Levels[i], amplitude, smoothing)
		level := s.Levels[i]

		angle := s.Rotation + float64(i)/float64(n)*2*math.Pi
		cos, sin := math.Cos(angle), math.Sin(angle)
		length := (outer - inner) * math.Pow(level, 1.1)
		start := Point{cx + cos*inner, cy + sin*inner}
		end := Point{cx + cos*(inner+length), cy + sin*(inner+length)}

		c := pal.at(i)
		if length > 0.25 {
			f.Surface.StrokeLine(start, end, lineWidth, Solid(c))
		}
		if dots && level > 0 {
			f.Surface.FillCircle(end.X, end.Y, lineWidth*0.75, Solid(c).WithOpacity(level))
		}
	}
}
