package decoder

import (
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/analysis"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// Graph is a ports.AudioGraph that analyses decoder elements. Any other
// element implementation is reported as unsupported.
type Graph struct {
	mu        sync.Mutex
	analysers map[*Element]*analysis.Analyser
	closed    bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{analysers: make(map[*Element]*analysis.Analyser)}
}

// Connect implements ports.AudioGraph. Connecting the same element twice
// returns the same analyser.
func (g *Graph) Connect(element ports.MediaElement) (ports.Analyser, error) {
	el, ok := element.(*Element)
	if !ok {
		return nil, domain.ErrAudioUnsupported
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, domain.ErrClosed
	}
	if a, ok := g.analysers[el]; ok {
		return a, nil
	}
	a := analysis.New(el)
	g.analysers[el] = a
	return a, nil
}

// Close implements ports.AudioGraph.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	clear(g.analysers)
	return nil
}

var _ ports.AudioGraph = (*Graph)(nil)
