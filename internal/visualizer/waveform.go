package visualizer

import (
	"math"
)

// renderWaveform draws the time-domain signal as a line, optionally mirrored,
// filled toward the center line, and decorated with sparkles.
func renderWaveform(f *Frame, s *WaveformState) {
	opts := options(f.Preset.Options)
	pal := resolvePalette(f.Preset, f.Settings)
	paintBackground(f, pal, trailingFade)

	samples := f.TimeDomain
	if len(samples) < 2 {
		return
	}

	amplify := clamp(opts.float("amplify", 1), 0.2, 3) * intensityOf(f)
	lineWidth := math.Max(0.5, opts.float("lineWidth", 2))
	mid := f.Height / 2

	points := make([]Point, len(samples))
	last := float64(len(samples) - 1)
	for i, b := range samples {
		v := clamp((float64(b)-128)/128*amplify, -1, 1)
		points[i] = Point{X: float64(i) / last * f.Width, Y: mid - v*mid}
	}

	gradient := s.gradient.get(gradientKey(f.Width, f.Height, pal), func() *LinearGradient {
		return NewLinearGradient(0, 0, f.Width, 0, pal.colors)
	})
	stroke := Fill(gradient)

	if opts.bool("fill", false) {
		poly := make([]Point, 0, len(points)+2)
		poly = append(poly, points...)
		poly = append(poly, Point{f.Width, mid}, Point{0, mid})
		f.Surface.FillPolygon(poly, stroke.WithOpacity(0.35))
	}

	f.Surface.StrokePolyline(points, lineWidth, stroke)

	if opts.bool("mirror", false) {
		mirrored := make([]Point, len(points))
		for i, p := range points {
			mirrored[i] = Point{X: p.X, Y: f.Height - p.Y}
		}
		f.Surface.StrokePolyline(mirrored, lineWidth, stroke.WithOpacity(0.5))
	}

	sparkles := max(0, opts.int("sparkles", 0))
	sparkle := Solid(pal.at(2)).WithOpacity(0.35)
	for k := 0; k < sparkles; k++ {
		x := f.Rand.Float64() * f.Width
		idx := clampInt(int(x/f.Width*last), 0, len(points)-1)
		r := 1 + f.Rand.Float64()*2
		f.Surface.FillCircle(x, points[idx].Y, r, sparkle)
	}
}
