package service

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// DefaultServerURL is used by the monitor before a server was saved.
const DefaultServerURL = "http://localhost:8080"

// PreferenceService manages the monitor's saved connection.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.MonitorPreferences

	// Cached preferences
	serverURL  string
	slug       string
	cacheValid bool

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service and loads the
// saved values into its cache.
func NewPreferenceService(logger *slog.Logger, repository ports.MonitorPreferences) *PreferenceService {
	if logger == nil {
		logger = slog.Default()
	}
	service := &PreferenceService{
		logger:     logger.With(slog.String("component", "preferences")),
		repository: repository,
		serverURL:  DefaultServerURL,
	}
	service.loadPreferences()
	return service
}

func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, err := s.repository.LoadServerURL(); err == nil && u != "" {
		s.serverURL = u
	}
	if slug, err := s.repository.LoadSlug(); err == nil {
		s.slug = slug
	}
	s.cacheValid = true
}

// ServerURL returns the saved server URL, or DefaultServerURL.
func (s *PreferenceService) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.cacheValid {
		if u, err := s.repository.LoadServerURL(); err == nil && u != "" {
			return u
		}
	}
	return s.serverURL
}

// SetServerURL validates and saves an absolute http(s) URL.
func (s *PreferenceService) SetServerURL(raw string) error {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.NewValidationError("server_url", raw, "must be an absolute http(s) URL")
	}

	s.mu.Lock()
	s.serverURL = trimmed
	s.mu.Unlock()

	return s.repository.SaveServerURL(trimmed)
}

// Slug returns the last opened endpoint slug.
func (s *PreferenceService) Slug() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slug
}

// SetSlug saves the last opened endpoint slug.
func (s *PreferenceService) SetSlug(slug string) error {
	slug = strings.TrimSpace(slug)
	if !ValidSlug(slug) {
		return domain.NewValidationError("slug", slug, domain.ErrInvalidSlug.Error())
	}

	s.mu.Lock()
	s.slug = slug
	s.mu.Unlock()

	return s.repository.SaveSlug(slug)
}

// ResetToDefaults clears the saved connection.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.serverURL = DefaultServerURL
	s.slug = ""
	s.mu.Unlock()

	return s.repository.Clear()
}

// Shutdown performs cleanup.
func (s *PreferenceService) Shutdown() error {
	s.logger.Debug("preference service shutting down")
	return nil
}
