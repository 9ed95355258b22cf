package visualizer

import (
	"image/color"
	"math"
)

// Point is a position in logical (CSS) pixels.
type Point struct {
	X, Y float64
}

// GradientStop is a color at a relative offset along a gradient.
type GradientStop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient interpolates stops along the segment (X0,Y0)-(X1,Y1).
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []GradientStop
}

// NewLinearGradient spreads colors evenly between two points.
func NewLinearGradient(x0, y0, x1, y1 float64, colors []color.NRGBA) *LinearGradient {
	g := &LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1}
	switch len(colors) {
	case 0:
		return g
	case 1:
		g.Stops = []GradientStop{{0, colors[0]}, {1, colors[0]}}
		return g
	}
	for i, c := range colors {
		g.Stops = append(g.Stops, GradientStop{Offset: float64(i) / float64(len(colors)-1), Color: c})
	}
	return g
}

// At returns the gradient color at a logical point.
func (g *LinearGradient) At(x, y float64) color.NRGBA {
	if len(g.Stops) == 0 {
		return color.NRGBA{}
	}
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	length2 := dx*dx + dy*dy
	t := 0.0
	if length2 > 0 {
		t = clamp(((x-g.X0)*dx+(y-g.Y0)*dy)/length2, 0, 1)
	}

	if t <= g.Stops[0].Offset {
		return g.Stops[0].Color
	}
	for i := 1; i < len(g.Stops); i++ {
		a, b := g.Stops[i-1], g.Stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return lerpColor(a.Color, b.Color, (t-a.Offset)/span)
		}
	}
	return g.Stops[len(g.Stops)-1].Color
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Paint is a fill or stroke style: a solid color or a gradient, times an opacity.
type Paint struct {
	Color    color.NRGBA
	Gradient *LinearGradient
	Opacity  float64
}

// Solid returns an opaque paint of c.
func Solid(c color.NRGBA) Paint {
	return Paint{Color: c, Opacity: 1}
}

// Fill returns an opaque gradient paint.
func Fill(g *LinearGradient) Paint {
	return Paint{Gradient: g, Opacity: 1}
}

// WithOpacity returns a copy of p with its opacity set to a, clamped to [0, 1].
func (p Paint) WithOpacity(a float64) Paint {
	p.Opacity = clamp(a, 0, 1)
	return p
}

// Surface is a 2D drawing target addressed in logical pixels.
// Implementations apply the device pixel ratio internally.
type Surface interface {
	// Size returns the logical width and height.
	Size() (width, height float64)

	// Resize changes the logical size and the pixel ratio, discarding content.
	Resize(width, height int, pixelRatio float64)

	// Clear makes every pixel transparent.
	Clear()

	// FillRect composites p over the rectangle.
	FillRect(x, y, w, h float64, p Paint)

	// FillRoundedRect composites p over a rectangle with rounded corners.
	FillRoundedRect(x, y, w, h, radius float64, p Paint)

	// FillCircle composites p over a disc.
	FillCircle(cx, cy, r float64, p Paint)

	// FillPolygon composites p over a closed polygon.
	FillPolygon(points []Point, p Paint)

	// StrokeLine draws a segment of the given width.
	StrokeLine(a, b Point, width float64, p Paint)

	// StrokePolyline draws connected segments of the given width.
	StrokePolyline(points []Point, width float64, p Paint)
}
