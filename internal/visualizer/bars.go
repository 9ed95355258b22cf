package visualizer

import (
	"math"
)

// renderBars draws a frequency bar chart with optional mirroring and peak caps.
func renderBars(f *Frame, s *BarsState) {
	opts := options(f.Preset.Options)
	pal := resolvePalette(f.Preset, f.Settings)
	paintBackground(f, pal, clearingFade)

	n := len(s.Values)
	if n == 0 {
		return
	}

	smoothing := smoothingFactor(opts, 0.7)
	gap := math.Max(0, opts.float("gap", 2))
	radius := math.Max(0, opts.float("cornerRadius", 4))
	mirror := opts.bool("mirror", false)
	peakHold := opts.bool("peakHold", true)
	peakDecay := math.Max(0, opts.float("peakDecay", 0.6))
	heightScale := clamp(opts.float("heightScale", 0.92), 0.1, 1)
	intensity := intensityOf(f)

	barWidth := math.Max(1, (f.Width-gap*float64(n-1))/float64(n))
	stride := strideFor(len(f.Frequency), n)

	gradient := s.gradient.get(gradientKey(f.Width, f.Height, pal), func() *LinearGradient {
		if mirror {
			return NewLinearGradient(0, f.Height/2, 0, 0, pal.colors)
		}
		return NewLinearGradient(0, f.Height, 0, 0, pal.colors)
	})
	fill := Fill(gradient)
	peakPaint := Solid(pal.at(2)).WithOpacity(0.9)

	maxHeight := f.Height * heightScale
	if mirror {
		maxHeight /= 2
	}

	for i := 0; i < n; i++ {
		amplitude := clamp(magnitudeAt(f.Frequency, i, stride)*intensity, 0, 1)
		s.Values[i] = ema(s.Values[i], amplitude, smoothing)
		v := s.Values[i]
		h := math.Pow(v, 1.15) * maxHeight
		x := float64(i) * (barWidth + gap)

		if h >= 0.5 {
			if mirror {
				f.Surface.FillRoundedRect(x, f.Height/2-h, barWidth, 2*h, radius, fill)
			} else {
				f.Surface.FillRoundedRect(x, f.Height-h, barWidth, h, radius, fill)
			}
		}

		if !peakHold {
			continue
		}
		if v > s.Peaks[i] {
			s.Peaks[i] = v
		} else {
			s.Peaks[i] = math.Max(0, s.Peaks[i]-peakDecay*f.Delta)
		}
		ph := math.Pow(s.Peaks[i], 1.15) * maxHeight
		if ph < 1 {
			continue
		}
		if mirror {
			f.Surface.FillRect(x, f.Height/2-ph-2, barWidth, 2, peakPaint)
			f.Surface.FillRect(x, f.Height/2+ph, barWidth, 2, peakPaint)
		} else {
			f.Surface.FillRect(x, f.Height-ph-2, barWidth, 2, peakPaint)
		}
	}
}
