// Package visualizer implements the audio visualizer engine: the preset
// catalog, the settings normalizer, the five signal renderers and the
// manager that drives them from a media element.
package visualizer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
)

// Catalog is an immutable, ordered set of presets keyed by ID.
// A nil or empty Catalog is valid and yields the fallback preset ID.
type Catalog struct {
	presets []domain.Preset
	byID    map[string]int
}

// NewCatalog builds a catalog from already decoded presets, dropping entries
// with an empty ID or an unknown renderer type. The first occurrence of an ID wins.
func NewCatalog(presets []domain.Preset) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(presets))}
	for _, p := range presets {
		if p.ID == "" || !p.Type.Valid() {
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		if p.Options == nil {
			p.Options = map[string]any{}
		}
		c.byID[p.ID] = len(c.presets)
		c.presets = append(c.presets, p)
	}
	return c
}

// ParseCatalog decodes a JSON array of presets. Malformed entries are dropped.
// When the document is not an array the returned catalog is empty and err describes why.
func ParseCatalog(data []byte) (*Catalog, error) {
	var entries []any
	if err := json.Unmarshal(data, &entries); err != nil {
		return NewCatalog(nil), fmt.Errorf("parse preset catalog: %w", err)
	}

	presets := make([]domain.Preset, 0, len(entries))
	for _, entry := range entries {
		if p, ok := presetFromEntry(entry); ok {
			presets = append(presets, p)
		}
	}
	return NewCatalog(presets), nil
}

// LoadCatalog reads the catalog file at path. It never fails: a missing or
// unreadable file yields an empty catalog and a warning.
func LoadCatalog(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("preset catalog not found", slog.String("path", path))
		} else {
			logger.Warn("preset catalog unreadable", slog.String("path", path), slog.Any("error", err))
		}
		return NewCatalog(nil)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		logger.Warn("preset catalog malformed", slog.String("path", path), slog.Any("error", err))
	}
	logger.Info("preset catalog loaded", slog.String("path", path), slog.Int("presets", catalog.Len()))
	return catalog
}

// presetFromEntry validates a decoded JSON entry: id, label, group,
// description and type must be strings and the type a known renderer.
func presetFromEntry(entry any) (domain.Preset, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return domain.Preset{}, false
	}

	id, ok1 := m["id"].(string)
	label, ok2 := m["label"].(string)
	group, ok3 := m["group"].(string)
	description, ok4 := m["description"].(string)
	typ, ok5 := m["type"].(string)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return domain.Preset{}, false
	}
	if !domain.RendererType(typ).Valid() {
		return domain.Preset{}, false
	}

	opts := map[string]any{}
	if raw, ok := m["options"].(map[string]any); ok {
		for k, v := range raw {
			opts[k] = v
		}
	}

	return domain.Preset{
		ID:          id,
		Label:       label,
		Group:       group,
		Description: description,
		Type:        domain.RendererType(typ),
		Options:     opts,
	}, true
}

// Len returns the number of presets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.presets)
}

// Presets returns a copy of the presets in catalog order.
func (c *Catalog) Presets() []domain.Preset {
	if c == nil {
		return nil
	}
	out := make([]domain.Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Get looks up a preset by ID.
func (c *Catalog) Get(id string) (domain.Preset, bool) {
	if c == nil {
		return domain.Preset{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return domain.Preset{}, false
	}
	return c.presets[i], true
}

// Has reports whether id names a preset.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// FallbackID is the first preset's ID, or domain.FallbackPresetID when empty.
func (c *Catalog) FallbackID() string {
	if c.Len() == 0 {
		return domain.FallbackPresetID
	}
	return c.presets[0].ID
}

// Fallback returns the first preset; ok is false for an empty catalog.
func (c *Catalog) Fallback() (domain.Preset, bool) {
	if c.Len() == 0 {
		return domain.Preset{}, false
	}
	return c.presets[0], true
}

// ModeOptions lists the selectable modes: random rotation first, then every preset.
func (c *Catalog) ModeOptions() []domain.Preset {
	out := make([]domain.Preset, 0, c.Len()+1)
	out = append(out, domain.RandomModeOption)
	return append(out, c.Presets()...)
}
