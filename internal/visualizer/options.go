package visualizer

import (
	"math"
	"strings"
)

// options reads typed values out of a preset's free-form option map.
// Every accessor falls back to def when the key is missing or has the wrong type.
type options map[string]any

func (o options) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o options) float(key string, def float64) float64 {
	v, ok := o[key]
	if !ok {
		return def
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func (o options) int(key string, def int) int {
	f := o.float(key, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	return int(math.Round(f))
}

func (o options) bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

func (o options) string(key, def string) string {
	if s, ok := o[key].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return def
}

func (o options) strings(key string) []string {
	switch list := o[key].(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// smoothingFactor reads a smoothing option clamped to [0, 0.99].
func smoothingFactor(o options, def float64) float64 {
	return clamp(o.float("smoothing", def), 0, 0.99)
}

// ema blends value into previous with weight (1 - smoothing).
// The blend is per frame and deliberately not scaled by frame time.
func ema(previous, value, smoothing float64) float64 {
	return smoothing*previous + (1-smoothing)*value
}

// magnitudeAt samples a byte spectrum with a fixed stride and returns a value in [0, 1].
func magnitudeAt(data []byte, index, stride int) float64 {
	i := index * stride
	if i < 0 || i >= len(data) {
		return 0
	}
	return float64(data[i]) / 255
}

// strideFor returns the sampling stride that spreads count samples over n bins.
func strideFor(n, count int) int {
	if count <= 0 {
		return 1
	}
	return max(1, n/count)
}
