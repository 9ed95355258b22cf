package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/service"
)

// handleStream serves GET /api/embed/{slug}/stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	payload, err := s.stream.Resolve(r.Context(), slug)
	switch {
	case errors.Is(err, domain.ErrEndpointNotFound):
		respondError(w, s.logger, http.StatusNotFound, "Endpoint not found.")
		return
	case err != nil:
		s.logger.Error("stream resolution failed", slog.String("slug", slug), slog.Any("error", err))
		respondError(w, s.logger, http.StatusInternalServerError, "Unable to load stream.")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, s.logger, http.StatusOK, payload)
}

// handleEmbed serves GET /embed/{slug}: the page shell with the player
// rendered as a first paint. Unknown endpoints still get a page, which
// shows the unavailable panel.
func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !service.ValidSlug(slug) {
		http.NotFound(w, r)
		return
	}

	view := newHTMLView()
	element := &staticElement{}
	player, err := service.NewPlayerController(service.PlayerConfig{
		Source:  s.stream,
		View:    view,
		Element: element,
		Clock:   s.clock,
		Bus:     s.bus,
		Logger:  s.logger,
	})
	if err != nil {
		s.logger.Error("failed to create player", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := player.Load(r.Context(), slug); err != nil {
		s.logger.Debug("embed rendered without playback", slog.String("slug", slug), slog.Any("error", err))
	}
	player.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := embedPage(slug, view.snapshot(element)).Render(r.Context(), w); err != nil {
		s.logger.Debug("failed to write embed page", slog.Any("error", err))
	}
}

// handlePresets serves GET /api/visualizer/presets.
func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.catalog.Presets()
	if presets == nil {
		presets = []domain.Preset{}
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	respondJSON(w, s.logger, http.StatusOK, presets)
}

// handleMedia serves files below the media root without directory listings.
func (s *Server) handleMedia() http.HandlerFunc {
	files := http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaRoot)))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}
