package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// supportedFormats maps file extensions to MIME types per media type.
var supportedFormats = map[domain.MediaType]map[string]string{
	domain.MediaMusic: {
		".mp3":  "audio/mpeg",
		".m4a":  "audio/mp4",
		".mp4":  "audio/mp4",
		".aac":  "audio/aac",
		".ogg":  "audio/ogg",
		".oga":  "audio/ogg",
		".opus": "audio/ogg",
		".flac": "audio/flac",
		".wav":  "audio/wav",
	},
	domain.MediaVideo: {
		".mp4":  "video/mp4",
		".m4v":  "video/mp4",
		".webm": "video/webm",
		".mov":  "video/quicktime",
	},
}

// ImportResult summarizes a directory import.
type ImportResult struct {
	Assets   []*domain.MediaAsset
	Imported int
	Failed   int
}

// LibraryService ingests media files into the media root and records them
// as assets of a playlist.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	playlists ports.PlaylistRepository
	assets    ports.AssetRepository
	clock     ports.Clock
	bus       ports.EventBus
	prober    ports.MediaProber
	mediaRoot string

	// State
	scanning   bool
	cancelScan context.CancelFunc

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service writing under mediaRoot.
// prober fills in MP4 durations and may be nil.
func NewLibraryService(
	logger *slog.Logger,
	mediaRoot string,
	playlists ports.PlaylistRepository,
	assets ports.AssetRepository,
	prober ports.MediaProber,
	clock ports.Clock,
	bus ports.EventBus,
) *LibraryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{
		logger:    logger.With(slog.String("component", "library")),
		playlists: playlists,
		assets:    assets,
		clock:     clock,
		bus:       bus,
		prober:    prober,
		mediaRoot: mediaRoot,
	}
}

// IsFormatSupported reports whether filePath can be imported into a
// playlist of mediaType.
func (s *LibraryService) IsFormatSupported(mediaType domain.MediaType, filePath string) bool {
	_, ok := supportedFormats[mediaType][strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// ImportDirectory imports every supported file below dir, in lexical path
// order, into the playlist. Files that cannot be copied are recorded as
// assets with status error and counted as failed.
func (s *LibraryService) ImportDirectory(ctx context.Context, playlistID, dir string) (*ImportResult, error) {
	playlist, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.NewServiceError("LibraryService", "ImportDirectory", "import already in progress", nil)
	}
	s.scanning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	start := s.clock.Now()
	s.publish(domain.NewImportStartedEvent(playlist.ID, dir))
	s.logger.Info("import started", slog.String("playlist_id", playlist.ID), slog.String("dir", dir))

	files, err := s.collectFiles(ctx, playlist.Type, dir)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.publish(domain.NewImportCancelledEvent(playlist.ID, "canceled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ImportDirectory", "failed to read directory", err)
	}

	result := &ImportResult{Assets: make([]*domain.MediaAsset, 0, len(files))}
	for i, file := range files {
		if ctx.Err() != nil {
			s.publish(domain.NewImportCancelledEvent(playlist.ID, "canceled"))
			return result, domain.ErrScanCancelled
		}

		asset, err := s.importFile(ctx, playlist, file)
		if err != nil {
			return result, err
		}
		result.Assets = append(result.Assets, asset)
		if asset.Status == domain.AssetReady {
			result.Imported++
		} else {
			result.Failed++
		}
		s.publish(domain.NewAssetImportedEvent(*asset, i+1, len(files)))
	}

	elapsed := s.clock.Now().Sub(start)
	s.logger.Info("import completed",
		slog.String("playlist_id", playlist.ID),
		slog.Int("imported", result.Imported),
		slog.Int("failed", result.Failed))
	s.publish(domain.NewImportCompletedEvent(playlist.ID, result.Imported, result.Failed, elapsed))
	return result, nil
}

// CancelImport cancels the running import.
func (s *LibraryService) CancelImport() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelImport", "no import in progress", nil)
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// IsImporting returns true while an import runs.
func (s *LibraryService) IsImporting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

func (s *LibraryService) collectFiles(ctx context.Context, mediaType domain.MediaType, dir string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			if path == dir {
				return err
			}
			// Skip entries we can't access
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(mediaType, path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// importFile copies one file into the media root and saves its asset.
// Only repository failures are returned as errors.
func (s *LibraryService) importFile(ctx context.Context, playlist *domain.Playlist, src string) (*domain.MediaAsset, error) {
	ext := strings.ToLower(filepath.Ext(src))
	id := uuid.NewString()
	now := s.clock.Now().UTC()

	asset := &domain.MediaAsset{
		ID:           id,
		PlaylistID:   playlist.ID,
		Type:         playlist.Type,
		Title:        strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Filename:     id + ext,
		OriginalName: filepath.Base(src),
		MimeType:     supportedFormats[playlist.Type][ext],
		Status:       domain.AssetReady,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dest := filepath.Join(s.mediaRoot, string(playlist.Type), playlist.ID, asset.Filename)
	size, err := copyFile(src, dest)
	if err != nil {
		s.logger.Warn("failed to copy media file", slog.String("path", src), slog.Any("error", err))
		asset.Status = domain.AssetError
	}
	asset.Size = size

	if asset.Status == domain.AssetReady {
		s.readTags(asset, src)
		if s.prober != nil && (ext == ".mp4" || ext == ".m4a" || ext == ".m4v") {
			s.probeDuration(asset, dest)
		}
	}

	if err := s.assets.Save(ctx, asset); err != nil {
		return nil, domain.NewServiceError("LibraryService", "ImportDirectory", "failed to save asset", err)
	}
	return asset, nil
}

func (s *LibraryService) readTags(asset *domain.MediaAsset, src string) {
	file, err := os.Open(src)
	if err != nil {
		return
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		// Untagged files keep the filename title
		return
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		asset.Title = title
	}
	asset.Artist = strings.TrimSpace(metadata.Artist())
	asset.Album = strings.TrimSpace(metadata.Album())
	asset.Genre = strings.TrimSpace(metadata.Genre())
	if year := metadata.Year(); year > 0 {
		asset.Year = year
	}

	if picture := metadata.Picture(); picture != nil && len(picture.Data) > 0 {
		name := asset.ID + artworkExt(picture)
		dest := filepath.Join(s.mediaRoot, "artwork", asset.PlaylistID, name)
		if err := writeFile(dest, picture.Data); err != nil {
			s.logger.Warn("failed to write artwork", slog.String("path", src), slog.Any("error", err))
			return
		}
		asset.ArtworkFilename = name
	}
}

func (s *LibraryService) probeDuration(asset *domain.MediaAsset, path string) {
	duration, err := s.prober.Duration(path)
	if err != nil {
		s.logger.Debug("duration probe failed", slog.String("path", path), slog.Any("error", err))
		return
	}
	if duration > 0 {
		seconds := duration.Round(time.Millisecond).Seconds()
		asset.DurationSeconds = &seconds
	}
}

func (s *LibraryService) publish(e domain.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// Shutdown cancels a running import.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

func artworkExt(picture *tag.Picture) string {
	if ext := strings.TrimSpace(picture.Ext); ext != "" {
		return "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	}
	switch picture.MIMEType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return n, nil
}

func writeFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
