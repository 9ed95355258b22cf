package fyne

import (
	"image"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// defaultRefreshRate is how many times per second the view repaints.
const defaultRefreshRate = 30

// VisualizerView displays the frames of a running visualizer. The visualizer
// draws on its own schedule; the view only copies the latest snapshot into a
// canvas.Raster and shows the status text while nothing is drawing.
type VisualizerView struct {
	widget.BaseWidget

	source   ports.Visualizer
	raster   *canvas.Raster
	status   *widget.Label
	interval time.Duration

	mu     sync.Mutex
	width  int
	height int
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewVisualizerView wraps source. fps <= 0 uses defaultRefreshRate.
func NewVisualizerView(source ports.Visualizer, fps int) *VisualizerView {
	if fps <= 0 {
		fps = defaultRefreshRate
	}
	v := &VisualizerView{
		source:   source,
		interval: time.Second / time.Duration(fps),
		done:     make(chan struct{}),
	}
	v.raster = canvas.NewRaster(v.render)
	v.status = widget.NewLabelWithStyle(source.Status(), fyneapp.TextAlignCenter, fyneapp.TextStyle{Italic: true})
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *VisualizerView) CreateRenderer() fyneapp.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(v.raster, container.NewCenter(v.status)))
}

// MinSize returns the minimum size of the visualizer.
func (v *VisualizerView) MinSize() fyneapp.Size {
	return fyneapp.NewSize(320, 180)
}

// render is the raster generator. A size change is forwarded to the
// visualizer, which redraws at the new size on its next frame.
func (v *VisualizerView) render(w, h int) image.Image {
	v.mu.Lock()
	resized := w != v.width || h != v.height
	v.width, v.height = w, h
	v.mu.Unlock()

	if resized {
		v.source.Resize(w, h, 1)
	}
	if snap := v.source.Snapshot(); snap != nil {
		return snap
	}
	return image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
}

// Start repaints the view on a ticker until Stop.
func (v *VisualizerView) Start() {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ticker := time.NewTicker(v.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fyneapp.Do(v.repaint)
			case <-v.done:
				return
			}
		}
	}()
}

func (v *VisualizerView) repaint() {
	text := v.source.Status()
	if v.status.Text != text {
		v.status.SetText(text)
	}
	if text == "" {
		v.status.Hide()
	} else {
		v.status.Show()
	}
	v.raster.Refresh()
}

// Stop ends repainting and waits for the ticker goroutine. It does not
// dispose the visualizer, which belongs to the player controller.
// It's safe to call multiple times.
func (v *VisualizerView) Stop() {
	v.once.Do(func() { close(v.done) })
	v.wg.Wait()
}

// Source returns the displayed visualizer.
func (v *VisualizerView) Source() ports.Visualizer {
	return v.source
}
