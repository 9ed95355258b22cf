// Package analysis computes spectrum and waveform snapshots from decoded PCM,
// following the conventions of a Web Audio AnalyserNode: Blackman window,
// exponential smoothing across frames and decibel scaling to bytes.
package analysis

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/madelynnblue/go-dsp/fft"

	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const (
	// DefaultFFTSize yields 1024 frequency bins.
	DefaultFFTSize = 2048

	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
	DefaultSmoothing   = 0.8
)

// SampleSource provides the most recent mono samples in [-1, 1].
type SampleSource interface {
	// ReadWindow fills dst with the samples ending at the current playback
	// position and returns how many were written. Missing samples are silence.
	ReadWindow(dst []float32) int
}

// Analyser is a ports.Analyser over a SampleSource.
type Analyser struct {
	source SampleSource

	mu          sync.Mutex
	fftSize     int
	smoothing   float64
	minDecibels float64
	maxDecibels float64
	window      []float64
	samples     []float32
	buf         []float64
	previous    []float64
}

// New creates an analyser with the default FFT size and decibel range.
func New(source SampleSource) *Analyser {
	a := &Analyser{
		source:      source,
		smoothing:   DefaultSmoothing,
		minDecibels: DefaultMinDecibels,
		maxDecibels: DefaultMaxDecibels,
	}
	a.setFFTSize(DefaultFFTSize)
	return a
}

// SetFFTSize changes the transform length. Sizes that are not a power of two
// in [32, 32768] are ignored.
func (a *Analyser) SetFFTSize(size int) {
	if size < 32 || size > 32768 || size&(size-1) != 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setFFTSize(size)
}

func (a *Analyser) setFFTSize(size int) {
	a.fftSize = size
	a.window = blackman(size)
	a.samples = make([]float32, size)
	a.buf = make([]float64, size)
	a.previous = make([]float64, size/2)
}

// SetDecibelRange sets the range mapped onto 0..255. Invalid ranges are ignored.
func (a *Analyser) SetDecibelRange(minDB, maxDB float64) {
	if !(minDB < maxDB) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.minDecibels, a.maxDecibels = minDB, maxDB
}

// FrequencyBinCount implements ports.Analyser.
func (a *Analyser) FrequencyBinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize / 2
}

// SetSmoothingTimeConstant implements ports.Analyser.
func (a *Analyser) SetSmoothingTimeConstant(value float64) {
	if math.IsNaN(value) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smoothing = math.Max(0, math.Min(1, value))
}

// ByteFrequencyData implements ports.Analyser.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.readLocked()
	for i, s := range a.samples {
		a.buf[i] = float64(s) * a.window[i]
	}
	spectrum := fft.FFTReal(a.buf)

	scale := 1 / float64(a.fftSize)
	span := a.maxDecibels - a.minDecibels
	for i := range a.previous {
		magnitude := cmplx.Abs(spectrum[i]) * scale
		a.previous[i] = a.smoothing*a.previous[i] + (1-a.smoothing)*magnitude
		if i >= len(dst) {
			continue
		}
		db := math.Inf(-1)
		if a.previous[i] > 0 {
			db = 20 * math.Log10(a.previous[i])
		}
		dst[i] = toByte(255 * (db - a.minDecibels) / span)
	}
	for i := len(a.previous); i < len(dst); i++ {
		dst[i] = 0
	}
}

// ByteTimeDomainData implements ports.Analyser.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.readLocked()
	for i := range dst {
		if i >= len(a.samples) {
			dst[i] = 128
			continue
		}
		dst[i] = toByte(128 * (float64(a.samples[i]) + 1))
	}
}

func (a *Analyser) readLocked() {
	clear(a.samples)
	if a.source != nil {
		a.source.ReadWindow(a.samples)
	}
}

func toByte(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}

// blackman returns the window used by AnalyserNode (alpha 0.16).
func blackman(n int) []float64 {
	const alpha = 0.16
	a0, a1, a2 := (1-alpha)/2, 0.5, alpha/2
	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}

var _ ports.Analyser = (*Analyser)(nil)
