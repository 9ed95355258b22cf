package visualizer

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// NormalizeSettings coerces arbitrary input into valid visualizer settings.
//
// input may be decoded JSON (map[string]any), raw JSON bytes, a
// domain.VisualizerSettings value or pointer, nil, or anything else; the
// function never fails and NormalizeSettings(NormalizeSettings(x)) equals
// NormalizeSettings(x).
func (c *Catalog) NormalizeSettings(input any) domain.VisualizerSettings {
	fields := settingsFields(input)

	settings := domain.VisualizerSettings{
		Mode:                     c.normalizeMode(fields["mode"]),
		RandomizeIntervalSeconds: domain.DefaultRandomizeIntervalSeconds,
	}
	if fields == nil {
		return settings
	}

	if raw, ok := fields["randomizeIntervalSeconds"]; ok {
		settings.RandomizeIntervalSeconds = clampInterval(raw)
	}
	settings.Overrides = normalizeOverrides(fields["overrides"])
	return settings
}

// DefaultSettings returns the settings used when an endpoint has none.
func (c *Catalog) DefaultSettings() domain.VisualizerSettings {
	return c.NormalizeSettings(nil)
}

func (c *Catalog) normalizeMode(v any) string {
	s, ok := v.(string)
	if !ok {
		return c.FallbackID()
	}
	if s == domain.RandomVisualizerMode || c.Has(s) {
		return s
	}
	return c.FallbackID()
}

// settingsFields turns supported inputs into a field map; nil means "not an object".
func settingsFields(input any) map[string]any {
	switch v := input.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case []byte:
		return decodeObject(v)
	case json.RawMessage:
		return decodeObject(v)
	case domain.VisualizerSettings:
		return settingsToMap(v)
	case *domain.VisualizerSettings:
		if v == nil {
			return nil
		}
		return settingsToMap(*v)
	case string, bool, float64, int:
		return nil
	default:
		// Round-trip any other Go value through JSON so structs with matching tags work.
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return decodeObject(data)
	}
}

func decodeObject(data []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func settingsToMap(s domain.VisualizerSettings) map[string]any {
	m := map[string]any{
		"mode":                     s.Mode,
		"randomizeIntervalSeconds": float64(s.RandomizeIntervalSeconds),
	}
	if s.Overrides != nil {
		o := map[string]any{}
		if s.Overrides.Palette != nil {
			p := s.Overrides.Palette
			o["palette"] = map[string]any{
				"primary":    p.Primary,
				"secondary":  p.Secondary,
				"accent":     p.Accent,
				"background": p.Background,
			}
		}
		if s.Overrides.Intensity != "" {
			o["intensity"] = string(s.Overrides.Intensity)
		}
		m["overrides"] = o
	}
	return m
}

// clampInterval applies numeric coercion, rounding and the [10, 600] clamp.
// Non-numeric input falls back to the default interval.
func clampInterval(v any) int {
	n := toNumber(v)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return domain.DefaultRandomizeIntervalSeconds
	}
	r := math.Round(n)
	switch {
	case r < domain.MinRandomizeIntervalSeconds:
		return domain.MinRandomizeIntervalSeconds
	case r > domain.MaxRandomizeIntervalSeconds:
		return domain.MaxRandomizeIntervalSeconds
	}
	return int(r)
}

// toNumber coerces scalars the way loosely typed JSON clients do:
// null and blank strings are zero, booleans are 0/1, numeric strings parse,
// everything else is NaN.
func toNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func normalizeOverrides(v any) *domain.VisualizerOverrides {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	var overrides domain.VisualizerOverrides
	if palette := normalizePalette(m["palette"]); palette != nil {
		overrides.Palette = palette
	}
	if s, ok := m["intensity"].(string); ok {
		switch i := domain.Intensity(s); i {
		case domain.IntensityCalm, domain.IntensityBalanced, domain.IntensityDynamic:
			overrides.Intensity = i
		}
	}

	if overrides.Palette == nil && overrides.Intensity == "" {
		return nil
	}
	return &overrides
}

func normalizePalette(v any) *domain.PaletteOverrides {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	field := func(key string) string {
		s, _ := m[key].(string)
		return strings.TrimSpace(s)
	}
	p := domain.PaletteOverrides{
		Primary:    field("primary"),
		Secondary:  field("secondary"),
		Accent:     field("accent"),
		Background: field("background"),
	}
	if p.IsZero() {
		return nil
	}
	return &p
}
