package visualizer

import (
	"math"
)

// Grid pulse modes.
const (
	pulseColumn   = "column"
	pulseDiagonal = "diagonal"
	pulseSwirl    = "swirl"
	pulseRadial   = "radial"
)

// renderGrid draws a matrix of cells whose size and opacity follow per-cell
// energy, modulated by the pulse mode.
func renderGrid(f *Frame, s *GridState) {
	opts := options(f.Preset.Options)
	pal := resolvePalette(f.Preset, f.Settings)
	paintBackground(f, pal, clearingFade)

	cols, rows := s.Columns, s.Rows
	if cols <= 0 || rows <= 0 || len(s.Energy) != cols*rows {
		return
	}

	smoothing := smoothingFactor(opts, 0.65)
	gap := math.Max(0, opts.float("gap", 4))
	pulse := opts.string("pulse", pulseColumn)
	intensity := intensityOf(f)

	cellW := math.Max(1, (f.Width-gap*float64(cols-1))/float64(cols))
	cellH := math.Max(1, (f.Height-gap*float64(rows-1))/float64(rows))
	stride := strideFor(len(f.Frequency), cols*rows)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			amplitude := clamp(magnitudeAt(f.Frequency, i, stride)*intensity, 0, 1)
			s.Energy[i] = ema(s.Energy[i], amplitude, smoothing)

			level := clamp(s.Energy[i]*pulseModulation(pulse, c, r, cols, rows, f.Time), 0, 1)
			scale := 0.35 + 0.65*level
			w, h := cellW*scale, cellH*scale
			x := float64(c)*(cellW+gap) + (cellW-w)/2
			y := float64(r)*(cellH+gap) + (cellH-h)/2

			paint := Solid(pal.at(c + r)).WithOpacity(clamp(level, 0.05, 1))
			f.Surface.FillRoundedRect(x, y, w, h, math.Min(w, h)*0.2, paint)
		}
	}
}

// pulseModulation returns a factor in [0, 1] that shapes the grid pattern.
func pulseModulation(mode string, col, row, cols, rows int, t float64) float64 {
	switch mode {
	case pulseDiagonal:
		return 0.5 + 0.5*float64(col+row)/float64(cols+rows-2)
	case pulseSwirl:
		return 0.5 + 0.5*math.Sin(float64(col)*0.6+float64(row)*0.4+t*2)
	case pulseRadial:
		cx, cy := float64(cols-1)/2, float64(rows-1)/2
		maxDist := math.Hypot(cx, cy)
		if maxDist == 0 {
			return 1
		}
		return 1 - 0.6*math.Hypot(float64(col)-cx, float64(row)-cy)/maxDist
	default:
		return 0.5 + 0.5*float64(col)/float64(cols-1)
	}
}
