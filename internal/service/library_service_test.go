package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

type fakeProber struct {
	duration time.Duration
	err      error
	paths    []string
}

func (p *fakeProber) Duration(path string) (time.Duration, error) {
	p.paths = append(p.paths, path)
	return p.duration, p.err
}

func newTestLibraryService(t *testing.T, mediaRoot string) (*LibraryService, testStores, *fakeProber, func() []domain.Event) {
	t.Helper()
	stores := newTestStores()
	bus := newTestBus(t)
	prober := &fakeProber{duration: 90 * time.Second}
	svc := NewLibraryService(logger.NewTestLogger(), mediaRoot, stores.playlists, stores.assets, prober, newTestClock(), bus)
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc, stores, prober, recordEvents(bus)
}

// createTestMusicFolder writes a small folder of media and non-media files.
func createTestMusicFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"a-warmup.mp3":       []byte("not really audio"),
		"b-tagged.mp3":       id3Tag(t, "Sunrise", "Quartet", []byte("\x89PNG fake image")),
		"c-notes.txt":        []byte("ignore me"),
		"sub/d-clip.m4a":     []byte("ftyp"),
		"sub/e-cover.jpg":    []byte("image"),
		"sub/f-FINALE.MP3":   []byte("loud"),
		"sub/deeper/g.video": []byte("?"),
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return dir
}

func TestLibraryService_IsFormatSupported(t *testing.T) {
	svc, _, _, _ := newTestLibraryService(t, t.TempDir())

	assert.True(t, svc.IsFormatSupported(domain.MediaMusic, "song.mp3"))
	assert.True(t, svc.IsFormatSupported(domain.MediaMusic, "/path/to/SONG.M4A"))
	assert.True(t, svc.IsFormatSupported(domain.MediaVideo, "clip.webm"))

	assert.False(t, svc.IsFormatSupported(domain.MediaMusic, "clip.webm"))
	assert.False(t, svc.IsFormatSupported(domain.MediaVideo, "song.mp3"))
	assert.False(t, svc.IsFormatSupported(domain.MediaMusic, "readme.txt"))
}

func TestLibraryService_ImportDirectory(t *testing.T) {
	mediaRoot := t.TempDir()
	svc, stores, prober, events := newTestLibraryService(t, mediaRoot)
	stores.addPlaylist(t, "pl-1", "Morning")
	src := createTestMusicFolder(t)

	result, err := svc.ImportDirectory(context.Background(), "pl-1", src)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Imported)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Assets, 4)

	titles := make([]string, 0, len(result.Assets))
	for _, a := range result.Assets {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"a-warmup", "Sunrise", "d-clip", "f-FINALE"}, titles)

	warmup := result.Assets[0]
	assert.Equal(t, domain.AssetReady, warmup.Status)
	assert.Equal(t, "a-warmup.mp3", warmup.OriginalName)
	assert.Equal(t, "audio/mpeg", warmup.MimeType)
	assert.True(t, strings.HasSuffix(warmup.Filename, ".mp3"))
	assert.Equal(t, int64(len("not really audio")), warmup.Size)
	copied, err := os.ReadFile(filepath.Join(mediaRoot, "music", "pl-1", warmup.Filename))
	require.NoError(t, err)
	assert.Equal(t, "not really audio", string(copied))

	tagged := result.Assets[1]
	assert.Equal(t, "Quartet", tagged.Artist)
	require.NotEmpty(t, tagged.ArtworkFilename)
	assert.FileExists(t, filepath.Join(mediaRoot, "artwork", "pl-1", tagged.ArtworkFilename))

	clip := result.Assets[2]
	assert.Equal(t, "audio/mp4", clip.MimeType)
	require.NotNil(t, clip.DurationSeconds)
	assert.InDelta(t, 90.0, *clip.DurationSeconds, 0.001)
	assert.Len(t, prober.paths, 1)

	assert.True(t, strings.HasSuffix(result.Assets[3].Filename, ".mp3"), "extensions are lower-cased")

	stored, err := stores.assets.ListByPlaylist(context.Background(), "pl-1")
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	recorded := events()
	require.NotEmpty(t, recorded)
	assert.IsType(t, domain.ImportStartedEvent{}, recorded[0])
	assert.Len(t, eventsOfType[domain.AssetImportedEvent](recorded), 4)
	completed := eventsOfType[domain.ImportCompletedEvent](recorded)
	require.Len(t, completed, 1)
	assert.Equal(t, 4, completed[0].Imported)
	assert.False(t, svc.IsImporting())
}

func TestLibraryService_ImportDirectory_CopyFailure(t *testing.T) {
	// A regular file where the media root should be makes every copy fail.
	mediaRoot := filepath.Join(t.TempDir(), "media")
	require.NoError(t, os.WriteFile(mediaRoot, nil, 0o644))

	svc, stores, _, _ := newTestLibraryService(t, mediaRoot)
	stores.addPlaylist(t, "pl-1", "Morning")
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "song.mp3"), []byte("x"), 0o644))

	result, err := svc.ImportDirectory(context.Background(), "pl-1", src)
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, domain.AssetError, result.Assets[0].Status)
}

func TestLibraryService_ImportDirectory_Errors(t *testing.T) {
	svc, stores, _, _ := newTestLibraryService(t, t.TempDir())

	_, err := svc.ImportDirectory(context.Background(), "missing", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)

	stores.addPlaylist(t, "pl-1", "Morning")
	_, err = svc.ImportDirectory(context.Background(), "pl-1", filepath.Join(t.TempDir(), "nope"))
	var svcErr *domain.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestLibraryService_ImportDirectory_Cancelled(t *testing.T) {
	svc, stores, _, events := newTestLibraryService(t, t.TempDir())
	stores.addPlaylist(t, "pl-1", "Morning")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ImportDirectory(ctx, "pl-1", createTestMusicFolder(t))
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
	assert.Len(t, eventsOfType[domain.ImportCancelledEvent](events()), 1)
}

func TestLibraryService_CancelImport_NoImportInProgress(t *testing.T) {
	svc, _, _, _ := newTestLibraryService(t, t.TempDir())

	err := svc.CancelImport()
	var svcErr *domain.ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

// id3Tag builds an ID3v2.3 tag with title, artist and a PNG picture.
func id3Tag(t *testing.T, title, artist string, picture []byte) []byte {
	t.Helper()
	var frames bytes.Buffer
	writeFrame := func(id string, body []byte) {
		frames.WriteString(id)
		require.NoError(t, binary.Write(&frames, binary.BigEndian, uint32(len(body))))
		frames.Write([]byte{0, 0})
		frames.Write(body)
	}
	writeFrame("TIT2", append([]byte{0}, title...))
	writeFrame("TPE1", append([]byte{0}, artist...))

	var apic bytes.Buffer
	apic.WriteByte(0)
	apic.WriteString("image/png")
	apic.WriteByte(0)
	apic.WriteByte(3) // front cover
	apic.WriteByte(0) // empty description
	apic.Write(picture)
	writeFrame("APIC", apic.Bytes())

	size := frames.Len()
	var out bytes.Buffer
	out.WriteString("ID3")
	out.Write([]byte{3, 0, 0})
	out.Write([]byte{
		byte(size >> 21 & 0x7f),
		byte(size >> 14 & 0x7f),
		byte(size >> 7 & 0x7f),
		byte(size & 0x7f),
	})
	out.Write(frames.Bytes())
	out.WriteString("audio payload")
	return out.Bytes()
}
