package visualizer

import (
	"image/color"
	"strings"

	"github.com/mazznoer/csscolorparser"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

var defaultColors = []string{"#38bdf8", "#818cf8", "#c084fc"}

// fadeTint colors the translucent background fill when no background is configured.
var fadeTint = color.NRGBA{R: 2, G: 6, B: 23, A: 255}

// palette is the resolved set of colors for one frame.
type palette struct {
	names  []string
	colors []color.NRGBA

	// background is the override background, or the preset's background option.
	background *color.NRGBA
	// backgroundOverride is true when background came from the endpoint override.
	backgroundOverride bool
}

// at returns the i-th color, cycling through the palette.
func (p palette) at(i int) color.NRGBA {
	if i < 0 {
		i = -i
	}
	return p.colors[i%len(p.colors)]
}

// key identifies the palette for gradient caching.
func (p palette) key() string {
	return strings.Join(p.names, ",")
}

// parseColor parses any CSS color string.
func parseColor(s string) (color.NRGBA, bool) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, true
}

// resolvePalette merges the preset's colors option with the endpoint palette
// overrides: primary replaces index 0, secondary index 1 and accent index 2,
// each appending when the list is shorter.
func resolvePalette(preset domain.Preset, settings domain.VisualizerSettings) palette {
	opts := options(preset.Options)

	var pal palette
	add := func(name string) {
		if c, ok := parseColor(name); ok {
			pal.names = append(pal.names, name)
			pal.colors = append(pal.colors, c)
		}
	}
	for _, name := range opts.strings("colors") {
		add(name)
	}
	if len(pal.colors) == 0 {
		for _, name := range defaultColors {
			add(name)
		}
	}

	overrides := settings.Palette()
	for i, name := range []string{overrides.Primary, overrides.Secondary, overrides.Accent} {
		if name == "" {
			continue
		}
		c, ok := parseColor(name)
		if !ok {
			continue
		}
		if i < len(pal.colors) {
			pal.names[i] = name
			pal.colors[i] = c
		} else {
			pal.names = append(pal.names, name)
			pal.colors = append(pal.colors, c)
		}
	}

	if overrides.Background != "" {
		if c, ok := parseColor(overrides.Background); ok {
			pal.background = &c
			pal.backgroundOverride = true
		}
	}
	if pal.background == nil {
		if name := opts.string("background", ""); name != "" {
			if c, ok := parseColor(name); ok {
				pal.background = &c
			}
		}
	}
	return pal
}
