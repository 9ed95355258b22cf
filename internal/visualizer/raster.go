package visualizer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// circleSegments is the polygon resolution used for discs and round caps.
const circleSegments = 28

// ImageSurface is a Surface backed by an *image.RGBA, rasterized with
// golang.org/x/image/vector. The backing store is width*ratio by height*ratio.
type ImageSurface struct {
	img    *image.RGBA
	width  int
	height int
	ratio  float64
	raster *vector.Rasterizer
}

// NewImageSurface allocates a surface of the given logical size.
func NewImageSurface(width, height int, pixelRatio float64) *ImageSurface {
	s := &ImageSurface{raster: &vector.Rasterizer{}}
	s.Resize(width, height, pixelRatio)
	return s
}

// Resize reallocates the backing store. Non-positive sizes become 1 and an
// invalid ratio becomes 1.
func (s *ImageSurface) Resize(width, height int, pixelRatio float64) {
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) || math.IsInf(pixelRatio, 0) {
		pixelRatio = 1
	}
	s.width = max(1, width)
	s.height = max(1, height)
	s.ratio = pixelRatio
	pw := max(1, int(math.Round(float64(s.width)*pixelRatio)))
	ph := max(1, int(math.Round(float64(s.height)*pixelRatio)))
	s.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
}

// Size implements Surface.
func (s *ImageSurface) Size() (float64, float64) {
	return float64(s.width), float64(s.height)
}

// PixelRatio returns the device pixel ratio of the backing store.
func (s *ImageSurface) PixelRatio() float64 {
	return s.ratio
}

// Image exposes the backing store. Callers must not retain it across draws.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// Snapshot copies the backing store.
func (s *ImageSurface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Clear implements Surface.
func (s *ImageSurface) Clear() {
	clear(s.img.Pix)
}

// FillRect implements Surface.
func (s *ImageSurface) FillRect(x, y, w, h float64, p Paint) {
	if w <= 0 || h <= 0 {
		return
	}
	s.fill([][]Point{{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}}, p)
}

// FillRoundedRect implements Surface.
func (s *ImageSurface) FillRoundedRect(x, y, w, h, radius float64, p Paint) {
	if w <= 0 || h <= 0 {
		return
	}
	radius = clamp(radius, 0, math.Min(w, h)/2)
	if radius < 0.5 {
		s.FillRect(x, y, w, h, p)
		return
	}

	const steps = 6
	path := make([]Point, 0, 4*(steps+1))
	corner := func(cx, cy, start float64) {
		for i := 0; i <= steps; i++ {
			a := start + float64(i)/steps*math.Pi/2
			path = append(path, Point{cx + math.Cos(a)*radius, cy + math.Sin(a)*radius})
		}
	}
	corner(x+w-radius, y+h-radius, 0)
	corner(x+radius, y+h-radius, math.Pi/2)
	corner(x+radius, y+radius, math.Pi)
	corner(x+w-radius, y+radius, 3*math.Pi/2)
	s.fill([][]Point{path}, p)
}

// FillCircle implements Surface.
func (s *ImageSurface) FillCircle(cx, cy, r float64, p Paint) {
	if r <= 0 {
		return
	}
	s.fill([][]Point{circlePath(cx, cy, r)}, p)
}

// FillPolygon implements Surface.
func (s *ImageSurface) FillPolygon(points []Point, p Paint) {
	if len(points) < 3 {
		return
	}
	s.fill([][]Point{points}, p)
}

// StrokeLine implements Surface.
func (s *ImageSurface) StrokeLine(a, b Point, width float64, p Paint) {
	s.StrokePolyline([]Point{a, b}, width, p)
}

// StrokePolyline implements Surface. Segments are joined with round joins.
func (s *ImageSurface) StrokePolyline(points []Point, width float64, p Paint) {
	if len(points) < 2 || width <= 0 {
		return
	}
	hw := width / 2
	paths := make([][]Point, 0, 2*len(points))
	for i := 1; i < len(points); i++ {
		if quad := segmentQuad(points[i-1], points[i], hw); quad != nil {
			paths = append(paths, quad)
		}
	}
	if width >= 2 {
		for i := 1; i < len(points)-1; i++ {
			paths = append(paths, circlePath(points[i].X, points[i].Y, hw))
		}
	}
	s.fill(paths, p)
}

// segmentQuad returns the rectangle covering a thick segment, wound the same
// way as circlePath so overlapping pieces merge instead of cancelling.
func segmentQuad(a, b Point, hw float64) []Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	nx, ny := -dy/length*hw, dx/length*hw
	return []Point{
		{a.X - nx, a.Y - ny},
		{b.X - nx, b.Y - ny},
		{b.X + nx, b.Y + ny},
		{a.X + nx, a.Y + ny},
	}
}

func circlePath(cx, cy, r float64) []Point {
	path := make([]Point, circleSegments)
	for i := range path {
		a := float64(i) / circleSegments * 2 * math.Pi
		path[i] = Point{cx + math.Cos(a)*r, cy + math.Sin(a)*r}
	}
	return path
}

// fill rasterizes the union of paths and composites p over the backing store.
// The rasterizer is sized to the clipped bounding box of the paths.
func (s *ImageSurface) fill(paths [][]Point, p Paint) {
	if p.Opacity <= 0 || len(paths) == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range paths {
		for _, pt := range path {
			x, y := pt.X*s.ratio, pt.Y*s.ratio
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
	}
	if math.IsInf(minX, 0) || math.IsNaN(minX+minY+maxX+maxY) {
		return
	}

	r := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(s.img.Bounds())
	if r.Empty() {
		return
	}

	s.raster.Reset(r.Dx(), r.Dy())
	s.raster.DrawOp = draw.Over
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		s.raster.MoveTo(float32(path[0].X*s.ratio-ox), float32(path[0].Y*s.ratio-oy))
		for _, pt := range path[1:] {
			s.raster.LineTo(float32(pt.X*s.ratio-ox), float32(pt.Y*s.ratio-oy))
		}
		s.raster.ClosePath()
	}
	s.raster.Draw(s.img, r, s.source(p), r.Min)
}

func (s *ImageSurface) source(p Paint) image.Image {
	if p.Gradient == nil {
		c := p.Color
		c.A = uint8(math.Round(float64(c.A) * p.Opacity))
		return image.NewUniform(c)
	}
	return &gradientImage{gradient: p.Gradient, ratio: s.ratio, opacity: p.Opacity}
}

// gradientImage adapts a LinearGradient in logical coordinates to device pixels.
type gradientImage struct {
	gradient *LinearGradient
	ratio    float64
	opacity  float64
}

func (g *gradientImage) ColorModel() color.Model { return color.NRGBAModel }

func (g *gradientImage) Bounds() image.Rectangle {
	return image.Rect(-1<<20, -1<<20, 1<<20, 1<<20)
}

func (g *gradientImage) At(x, y int) color.Color {
	c := g.gradient.At((float64(x)+0.5)/g.ratio, (float64(y)+0.5)/g.ratio)
	c.A = uint8(math.Round(float64(c.A) * g.opacity))
	return c
}

var _ Surface = (*ImageSurface)(nil)
