package domain

// RendererType names one of the closed set of visualizer renderers.
type RendererType string

const (
	RendererBars     RendererType = "bars"
	RendererWaveform RendererType = "waveform"
	RendererRadial   RendererType = "radial"
	RendererGrid     RendererType = "grid"
	RendererDots     RendererType = "dots"
)

// Valid reports whether t is a known renderer type.
func (t RendererType) Valid() bool {
	switch t {
	case RendererBars, RendererWaveform, RendererRadial, RendererGrid, RendererDots:
		return true
	}
	return false
}

// Visualizer settings constants.
const (
	// RandomVisualizerMode rotates through every preset on a timer.
	RandomVisualizerMode = "random"

	// FallbackPresetID is used when the catalog is empty.
	FallbackPresetID = "bars-classic"

	DefaultRandomizeIntervalSeconds = 30
	MinRandomizeIntervalSeconds     = 10
	MaxRandomizeIntervalSeconds     = 600
)

// Preset is a named renderer configuration from the catalog.
type Preset struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Group       string         `json:"group,omitempty"`
	Description string         `json:"description,omitempty"`
	Type        RendererType   `json:"type"`
	Options     map[string]any `json:"options,omitempty"`
}

// Intensity scales renderer amplitude. The empty value means "unset".
type Intensity string

const (
	IntensityCalm     Intensity = "calm"
	IntensityBalanced Intensity = "balanced"
	IntensityDynamic  Intensity = "dynamic"
)

// Factor returns the amplitude multiplier for the intensity.
func (i Intensity) Factor() float64 {
	switch i {
	case IntensityCalm:
		return 0.75
	case IntensityDynamic:
		return 1.35
	default:
		return 1.0
	}
}

// PaletteOverrides replaces colors of the active preset. Empty fields are unset.
type PaletteOverrides struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
}

// IsZero reports whether no palette field is set.
func (p PaletteOverrides) IsZero() bool {
	return p.Primary == "" && p.Secondary == "" && p.Accent == "" && p.Background == ""
}

// VisualizerOverrides holds optional per-endpoint tweaks to the active preset.
type VisualizerOverrides struct {
	Palette   *PaletteOverrides `json:"palette,omitempty"`
	Intensity Intensity         `json:"intensity,omitempty"`
}

// VisualizerSettings is the normalized visualizer configuration of an endpoint.
type VisualizerSettings struct {
	Mode                     string               `json:"mode"`
	RandomizeIntervalSeconds int                  `json:"randomizeIntervalSeconds"`
	Overrides                *VisualizerOverrides `json:"overrides,omitempty"`
}

// IsRandom reports whether the settings select random rotation.
func (s VisualizerSettings) IsRandom() bool {
	return s.Mode == RandomVisualizerMode
}

// Palette returns the palette overrides, or the zero value when unset.
func (s VisualizerSettings) Palette() PaletteOverrides {
	if s.Overrides == nil || s.Overrides.Palette == nil {
		return PaletteOverrides{}
	}
	return *s.Overrides.Palette
}

// Intensity returns the intensity override, or the empty value when unset.
func (s VisualizerSettings) Intensity() Intensity {
	if s.Overrides == nil {
		return ""
	}
	return s.Overrides.Intensity
}

// RandomModeOption describes the pseudo-preset offered by selection UIs.
var RandomModeOption = Preset{
	ID:          RandomVisualizerMode,
	Label:       "Random rotation",
	Group:       "Rotation",
	Description: "Rotate through visualizers every 30 seconds.",
}
