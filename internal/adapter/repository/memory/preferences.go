package memory

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const (
	prefServerURL = "monitor.server_url"
	prefSlug      = "monitor.slug"
)

// PreferencesRepository implements ports.MonitorPreferences using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository wraps fyne.CurrentApp().Preferences() or a test app's preferences.
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{prefs: prefs}
}

// SaveServerURL persists the server URL without a trailing slash.
func (r *PreferencesRepository) SaveServerURL(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(prefServerURL, strings.TrimRight(strings.TrimSpace(url), "/"))
	return nil
}

// LoadServerURL implements ports.MonitorPreferences.
func (r *PreferencesRepository) LoadServerURL() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.String(prefServerURL), nil
}

// SaveSlug implements ports.MonitorPreferences.
func (r *PreferencesRepository) SaveSlug(slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.SetString(prefSlug, strings.TrimSpace(slug))
	return nil
}

// LoadSlug implements ports.MonitorPreferences.
func (r *PreferencesRepository) LoadSlug() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs.String(prefSlug), nil
}

// Clear implements ports.MonitorPreferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range []string{prefServerURL, prefSlug} {
		r.prefs.RemoveValue(key)
	}
	return nil
}

var _ ports.MonitorPreferences = (*PreferencesRepository)(nil)
