package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

// page is the snapshot of a player that the embed template renders.
type page struct {
	Subtitle string
	Status   *ports.StatusMessage
	Layout   *ports.PlaybackLayout

	NowPlayingIndex int
	NowPlayingLabel string

	Artwork         string
	ArtworkRevealed bool

	Feedback           string
	FeedbackPersistent bool
	FeedbackVisible    bool

	Source   string
	MimeType string
}

// htmlView is a ports.PlayerView that records the calls of one controller
// run so the result can be written out as markup.
type htmlView struct {
	mu   sync.Mutex
	page page
}

func newHTMLView() *htmlView {
	return &htmlView{page: page{NowPlayingIndex: -1}}
}

func (v *htmlView) SetSubtitle(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Subtitle = text
}

func (v *htmlView) ShowStatus(msg ports.StatusMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Status = &msg
	v.page.Layout = nil
	v.page.FeedbackVisible = false
}

func (v *htmlView) ShowPlayback(layout ports.PlaybackLayout) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Layout = &layout
	v.page.Status = nil
	v.page.FeedbackVisible = false
}

func (v *htmlView) SetNowPlaying(index int, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.NowPlayingIndex = index
	v.page.NowPlayingLabel = label
}

func (v *htmlView) SetArtwork(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Artwork = url
}

func (v *htmlView) SetArtworkRevealed(revealed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.ArtworkRevealed = revealed
}

func (v *htmlView) ShowFeedback(text string, persistent bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.Feedback = text
	v.page.FeedbackPersistent = persistent
	v.page.FeedbackVisible = true
}

func (v *htmlView) HideFeedback() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page.FeedbackVisible = false
}

// AttachVisualizer is a no-op: the large layout always carries the
// visualizer canvas and the browser drives it.
func (v *htmlView) AttachVisualizer(ports.Visualizer) {}

// snapshot returns the recorded page with the element's source filled in.
func (v *htmlView) snapshot(element *staticElement) page {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.page
	p.Source, p.MimeType = element.current()
	return p
}

// staticElement is the media element of a server render. It holds a source
// but never plays: Play always reports that a user gesture is needed.
type staticElement struct {
	mu       sync.Mutex
	src      string
	mimeType string
}

func (e *staticElement) SetSource(src, mimeType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src, e.mimeType = src, mimeType
	return nil
}

func (e *staticElement) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *staticElement) Play(context.Context) error {
	if e.Source() == "" {
		return domain.ErrNoSource
	}
	return domain.ErrPlaybackBlocked
}

func (e *staticElement) Pause()                  {}
func (e *staticElement) Paused() bool            { return true }
func (e *staticElement) Ended() bool             { return false }
func (e *staticElement) Position() time.Duration { return 0 }

func (e *staticElement) AddListener(ports.MediaListener) func() {
	return func() {}
}

func (e *staticElement) current() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src, e.mimeType
}

var (
	_ ports.PlayerView   = (*htmlView)(nil)
	_ ports.MediaElement = (*staticElement)(nil)
)
