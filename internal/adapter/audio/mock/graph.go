package mock

import (
	"errors"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// DefaultBinCount matches a 2048-point FFT.
const DefaultBinCount = 1024

// Graph is a mock ports.AudioGraph handing out Analyser values.
type Graph struct {
	mu          sync.Mutex
	unsupported bool
	failConnect error
	binCount    int
	analysers   []*Analyser
	closed      bool
}

// NewGraph creates a graph whose analysers report DefaultBinCount bins.
func NewGraph() *Graph {
	return &Graph{binCount: DefaultBinCount}
}

// SetUnsupported makes Connect fail with domain.ErrAudioUnsupported.
func (g *Graph) SetUnsupported(unsupported bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unsupported = unsupported
}

// SetFailConnect makes Connect return err (nil restores normal behavior).
func (g *Graph) SetFailConnect(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failConnect = err
}

// SetBinCount changes the bin count of analysers created afterwards.
func (g *Graph) SetBinCount(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > 0 {
		g.binCount = n
	}
}

// Connect implements ports.AudioGraph.
func (g *Graph) Connect(element ports.MediaElement) (ports.Analyser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.closed:
		return nil, domain.ErrClosed
	case g.unsupported:
		return nil, domain.ErrAudioUnsupported
	case g.failConnect != nil:
		return nil, g.failConnect
	case element == nil:
		return nil, errors.New("mock graph: nil element")
	}
	a := NewAnalyser(g.binCount)
	g.analysers = append(g.analysers, a)
	return a, nil
}

// Analysers returns the analysers created so far.
func (g *Graph) Analysers() []*Analyser {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Analyser(nil), g.analysers...)
}

// Close implements ports.AudioGraph.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Closed reports whether Close was called.
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Analyser is a mock ports.Analyser returning fixed data.
type Analyser struct {
	mu         sync.Mutex
	bins       int
	smoothing  float64
	frequency  []byte
	timeDomain []byte
}

// NewAnalyser creates an analyser reporting silence.
func NewAnalyser(bins int) *Analyser {
	td := make([]byte, 2*bins)
	for i := range td {
		td[i] = 128
	}
	return &Analyser{bins: bins, frequency: make([]byte, bins), timeDomain: td}
}

// SetFrequency sets the data copied out by ByteFrequencyData.
func (a *Analyser) SetFrequency(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frequency = append([]byte(nil), data...)
}

// SetTimeDomain sets the data copied out by ByteTimeDomainData.
func (a *Analyser) SetTimeDomain(data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeDomain = append([]byte(nil), data...)
}

// Fill sets every frequency bin to level.
func (a *Analyser) Fill(level byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.frequency {
		a.frequency[i] = level
	}
}

// Smoothing returns the last smoothing constant set.
func (a *Analyser) Smoothing() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smoothing
}

// FrequencyBinCount implements ports.Analyser.
func (a *Analyser) FrequencyBinCount() int {
	return a.bins
}

// SetSmoothingTimeConstant implements ports.Analyser.
func (a *Analyser) SetSmoothingTimeConstant(value float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smoothing = value
}

// ByteFrequencyData implements ports.Analyser.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(dst)
	copy(dst, a.frequency)
}

// ByteTimeDomainData implements ports.Analyser.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range dst {
		dst[i] = 128
	}
	copy(dst, a.timeDomain)
}

var (
	_ ports.AudioGraph = (*Graph)(nil)
	_ ports.Analyser   = (*Analyser)(nil)
)
