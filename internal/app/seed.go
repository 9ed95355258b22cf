package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/service"
)

// SeedFile describes playlists and endpoints to create in one go:
//
//	playlists:
//	  - key: morning
//	    name: Morning
//	    type: music
//	    import: [./music/morning]
//	endpoints:
//	  - name: Lobby
//	    playlist: morning
//	    status: operational
//	    variant: large
//	    visualizer: {mode: random, randomizeIntervalSeconds: 45}
type SeedFile struct {
	Playlists []SeedPlaylist `koanf:"playlists"`
	Endpoints []SeedEndpoint `koanf:"endpoints"`

	// dir resolves relative import paths; it is the directory of the file.
	dir string
}

// SeedPlaylist is a playlist entry. Key is how endpoints refer to it.
type SeedPlaylist struct {
	Key    string   `koanf:"key"`
	Name   string   `koanf:"name"`
	Type   string   `koanf:"type"`
	Import []string `koanf:"import"`
}

// SeedEndpoint is an endpoint entry.
type SeedEndpoint struct {
	Name       string         `koanf:"name"`
	Playlist   string         `koanf:"playlist"`
	Status     string         `koanf:"status"`
	Variant    string         `koanf:"variant"`
	Visualizer map[string]any `koanf:"visualizer"`
}

// SeedReport lists what ApplySeed created.
type SeedReport struct {
	Playlists []*domain.Playlist
	Endpoints []*domain.Endpoint
	Imported  int
	Failed    int
}

// LoadSeed parses a YAML seed file.
func LoadSeed(path string) (*SeedFile, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}

	seed := &SeedFile{dir: filepath.Dir(path)}
	if err := k.Unmarshal("", seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return seed, nil
}

func (f *SeedFile) validate() error {
	keys := make(map[string]bool, len(f.Playlists))
	for i, p := range f.Playlists {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return domain.NewValidationError(fmt.Sprintf("playlists[%d].key", i), p.Key, "key is required")
		}
		if keys[key] {
			return domain.NewValidationError(fmt.Sprintf("playlists[%d].key", i), p.Key, "duplicate key")
		}
		keys[key] = true
	}
	for i, e := range f.Endpoints {
		if e.Playlist != "" && !keys[strings.TrimSpace(e.Playlist)] {
			return domain.NewValidationError(fmt.Sprintf("endpoints[%d].playlist", i), e.Playlist, "unknown playlist key")
		}
		if e.Status != "" && !domain.EndpointStatus(e.Status).Valid() {
			return domain.NewValidationError(fmt.Sprintf("endpoints[%d].status", i), e.Status, "unknown endpoint status")
		}
	}
	return nil
}

// ApplySeed creates the playlists, imports their directories and then
// creates the endpoints. It stops at the first error; what was created
// before it stays.
func (s *Server) ApplySeed(ctx context.Context, seed *SeedFile) (*SeedReport, error) {
	report := &SeedReport{}
	ids := make(map[string]string, len(seed.Playlists))

	for _, p := range seed.Playlists {
		playlist, err := s.playlistService.Create(ctx, p.Name, domain.MediaType(p.Type))
		if err != nil {
			return report, fmt.Errorf("playlist %q: %w", p.Key, err)
		}
		ids[strings.TrimSpace(p.Key)] = playlist.ID
		report.Playlists = append(report.Playlists, playlist)

		for _, dir := range p.Import {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(seed.dir, dir)
			}
			result, err := s.libraryService.ImportDirectory(ctx, playlist.ID, dir)
			if err != nil {
				return report, fmt.Errorf("playlist %q: import %s: %w", p.Key, dir, err)
			}
			report.Imported += result.Imported
			report.Failed += result.Failed
		}
	}

	for _, e := range seed.Endpoints {
		in := service.NewEndpoint{
			Name:    e.Name,
			Variant: domain.PlayerVariant(e.Variant),
		}
		if e.Playlist != "" {
			in.PlaylistID = ids[strings.TrimSpace(e.Playlist)]
		}
		if e.Visualizer != nil {
			in.Visualizer = e.Visualizer
		}
		endpoint, err := s.endpointService.Create(ctx, in)
		if err != nil {
			return report, fmt.Errorf("endpoint %q: %w", e.Name, err)
		}

		if status := domain.EndpointStatus(e.Status); status != "" && status != endpoint.Status {
			endpoint, err = s.endpointService.Update(ctx, endpoint.ID, service.EndpointUpdate{Status: &status})
			if err != nil {
				return report, fmt.Errorf("endpoint %q: %w", e.Name, err)
			}
		}
		report.Endpoints = append(report.Endpoints, endpoint)
		s.logger.Info("seeded endpoint",
			slog.String("name", endpoint.Name),
			slog.String("slug", endpoint.Slug),
			slog.String("status", string(endpoint.Status)))
	}
	return report, nil
}

// ImportDirectory imports dir into the playlist with id playlistID.
func (s *Server) ImportDirectory(ctx context.Context, playlistID, dir string) (*service.ImportResult, error) {
	return s.libraryService.ImportDirectory(ctx, playlistID, dir)
}
