package fyne

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
)

const (
	APPNAME = "TuneCast Monitor"
	WIDTH   = 720
	HEIGHT  = 560
)

// dimmedArtwork is the translucency of artwork before its track starts playing.
const dimmedArtwork = 0.65

// ArtworkLoader fetches the image behind an artwork URL.
type ArtworkLoader func(ctx context.Context, url string) (image.Image, error)

// PlayerHandlers are the user commands forwarded by the window.
type PlayerHandlers struct {
	OnPlay   func()
	OnPause  func()
	OnSelect func(index int)
	OnOpen   func(serverURL, slug string)
}

// PlayerWindow is the desktop rendition of the embed player. It implements
// ports.PlayerView and mirrors the page layout: a header, then either a
// status card or the player for the endpoint's variant.
//
// It is a "dumb view": every method only changes widgets, on the Fyne
// main goroutine, and user input is forwarded through PlayerHandlers.
type PlayerWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	loader ArtworkLoader

	// UI components
	title       *widget.Label
	subtitle    *widget.Label
	statusCard  *widget.Card
	player      *fyneapp.Container
	nowPlaying  *widget.Label
	feedback    *widget.Label
	artwork     *canvas.Image
	artworkBox  *fyneapp.Container
	visualBox   *fyneapp.Container
	controls    *fyneapp.Container
	playButton  *widget.Button
	pauseButton *widget.Button
	trackList   *widget.List

	// State
	mu              sync.Mutex
	layout          *ports.PlaybackLayout
	tracks          []domain.Track
	current         int
	artworkURL      string
	artworkRevealed bool
	artworkSeq      int
	visualizer      *VisualizerView
	syncing         bool
	handlers        PlayerHandlers

	closed atomic.Bool
}

// NewPlayerWindow creates the window. loader may be nil, in which case
// artwork is never shown.
func NewPlayerWindow(app fyneapp.App, loader ArtworkLoader, logger *slog.Logger) *PlayerWindow {
	if logger == nil {
		logger = slog.Default()
	}
	w := &PlayerWindow{
		app:     app,
		logger:  logger.With(slog.String("component", "player-window")),
		loader:  loader,
		current: -1,
	}
	w.window = app.NewWindow(APPNAME)
	w.buildUI()
	w.window.Resize(fyneapp.NewSize(WIDTH, HEIGHT))
	return w
}

// SetHandlers connects the user commands. It must be called before the
// window is shown.
func (w *PlayerWindow) SetHandlers(h PlayerHandlers) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = h
}

func (w *PlayerWindow) buildUI() {
	w.title = widget.NewLabelWithStyle(APPNAME, fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true})
	w.subtitle = widget.NewLabel("")
	w.subtitle.Truncation = fyneapp.TextTruncateEllipsis
	header := container.NewVBox(w.title, w.subtitle)

	w.statusCard = widget.NewCard("", "", nil)
	w.statusCard.Hide()

	w.artwork = canvas.NewImageFromImage(nil)
	w.artwork.FillMode = canvas.ImageFillContain
	w.artwork.SetMinSize(fyneapp.NewSize(160, 160))
	w.artwork.Translucency = dimmedArtwork
	w.artworkBox = container.NewStack(w.artwork)

	w.visualBox = container.NewStack()
	w.visualBox.Hide()

	w.nowPlaying = widget.NewLabelWithStyle("", fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true, Italic: true})
	w.nowPlaying.Truncation = fyneapp.TextTruncateClip

	w.feedback = widget.NewLabel("")
	w.feedback.Wrapping = fyneapp.TextWrapWord
	w.feedback.Hide()

	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		if h := w.currentHandlers(); h.OnPlay != nil {
			h.OnPlay()
		}
	})
	w.pauseButton = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), func() {
		if h := w.currentHandlers(); h.OnPause != nil {
			h.OnPause()
		}
	})
	w.controls = container.NewHBox(w.playButton, w.pauseButton)

	w.trackList = widget.NewList(
		func() int {
			w.mu.Lock()
			defer w.mu.Unlock()
			return len(w.tracks)
		},
		func() fyneapp.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, item fyneapp.CanvasObject) {
			w.mu.Lock()
			label := ""
			if id >= 0 && id < len(w.tracks) {
				label = w.tracks[id].DisplayLabel()
			}
			w.mu.Unlock()
			item.(*widget.Label).SetText(label)
		},
	)
	w.trackList.OnSelected = func(id widget.ListItemID) {
		w.mu.Lock()
		syncing := w.syncing
		h := w.handlers
		w.mu.Unlock()
		if !syncing && h.OnSelect != nil {
			h.OnSelect(id)
		}
	}

	media := container.NewHBox(w.artworkBox, w.visualBox)
	top := container.NewVBox(media, w.nowPlaying, container.NewBorder(nil, nil, w.controls, nil, w.feedback))
	w.player = container.NewBorder(top, nil, nil, nil, w.trackList)
	w.player.Hide()

	body := container.NewStack(w.statusCard, w.player)
	w.window.SetContent(container.NewPadded(container.NewBorder(header, nil, nil, nil, body)))
	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

func (w *PlayerWindow) createMenu() []*fyneapp.Menu {
	openEndpoint := fyneapp.NewMenuItem("Open Endpoint…", func() {
		w.ShowOpenDialog("", "")
	})
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.Close()
	})
	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openEndpoint, fyneapp.NewMenuItemSeparator(), exitMenu),
	}
}

// ShowOpenDialog asks for a server URL and an endpoint slug, prefilled
// with the given values.
func (w *PlayerWindow) ShowOpenDialog(serverURL, slug string) {
	NewOpenDialog(w.window, serverURL, slug, func(u, s string) {
		if h := w.currentHandlers(); h.OnOpen != nil {
			h.OnOpen(u, s)
		}
	}).Show()
}

func (w *PlayerWindow) currentHandlers() PlayerHandlers {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handlers
}

// ShowAndRun shows the window and runs the application.
func (w *PlayerWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// SetOnClosed registers a callback run when the window closes.
func (w *PlayerWindow) SetOnClosed(fn func()) {
	w.window.SetOnClosed(fn)
}

// Close stops the visualizer view and closes the window. It's safe to call
// multiple times, including from the window's OnClosed callback.
func (w *PlayerWindow) Close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.mu.Lock()
	v := w.detachVisualizerLocked()
	w.mu.Unlock()
	if v != nil {
		v.Stop()
	}
	fyneapp.Do(w.window.Close)
}

// Window returns the underlying Fyne window.
func (w *PlayerWindow) Window() fyneapp.Window {
	return w.window
}

// PlayerView interface implementation

// SetSubtitle implements ports.PlayerView.
func (w *PlayerWindow) SetSubtitle(text string) {
	fyneapp.Do(func() {
		w.subtitle.SetText(text)
	})
}

// ShowStatus implements ports.PlayerView.
func (w *PlayerWindow) ShowStatus(msg ports.StatusMessage) {
	w.mu.Lock()
	w.layout = nil
	w.tracks = nil
	w.current = -1
	v := w.detachVisualizerLocked()
	w.mu.Unlock()
	if v != nil {
		v.Stop()
	}

	fyneapp.Do(func() {
		w.title.SetText(APPNAME)
		w.player.Hide()
		w.visualBox.Objects = nil
		w.visualBox.Hide()
		w.statusCard.SetTitle(msg.Title)
		w.statusCard.SetSubTitle(msg.Message)
		w.statusCard.Show()
	})
}

// ShowPlayback implements ports.PlayerView.
func (w *PlayerWindow) ShowPlayback(layout ports.PlaybackLayout) {
	w.mu.Lock()
	w.layout = &layout
	w.tracks = append([]domain.Track(nil), layout.Tracks...)
	w.current = -1
	w.artworkURL = ""
	w.artworkRevealed = false
	w.artworkSeq++
	v := w.detachVisualizerLocked()
	w.mu.Unlock()
	if v != nil {
		v.Stop()
	}

	background := layout.Variant == domain.VariantBackground
	large := layout.Variant == domain.VariantLarge

	fyneapp.Do(func() {
		w.statusCard.Hide()

		if background {
			w.title.SetText(APPNAME)
		} else {
			w.title.SetText(layout.Title)
		}

		w.artwork.Image = nil
		w.artwork.Translucency = dimmedArtwork
		w.artwork.Refresh()
		w.visualBox.Objects = nil
		w.visualBox.Hide()
		if large {
			w.artworkBox.Show()
		} else {
			w.artworkBox.Hide()
		}

		w.nowPlaying.SetText("")
		if background {
			w.nowPlaying.Hide()
			w.controls.Hide()
			w.trackList.Hide()
		} else {
			w.nowPlaying.Show()
			w.controls.Show()
			w.trackList.Show()
		}

		w.feedback.Hide()
		w.trackList.UnselectAll()
		w.trackList.Refresh()
		w.player.Show()
	})
}

// SetNowPlaying implements ports.PlayerView.
func (w *PlayerWindow) SetNowPlaying(index int, label string) {
	w.mu.Lock()
	w.current = index
	w.mu.Unlock()

	fyneapp.Do(func() {
		w.nowPlaying.SetText(label)

		w.mu.Lock()
		w.syncing = true
		w.mu.Unlock()
		if index >= 0 {
			w.trackList.Select(index)
			w.trackList.ScrollTo(index)
		} else {
			w.trackList.UnselectAll()
		}
		w.mu.Lock()
		w.syncing = false
		w.mu.Unlock()
	})
}

// SetArtwork implements ports.PlayerView. The image is fetched in the
// background; a newer call wins over a slower earlier fetch.
func (w *PlayerWindow) SetArtwork(url string) {
	w.mu.Lock()
	w.artworkURL = url
	w.artworkSeq++
	seq := w.artworkSeq
	loader := w.loader
	w.mu.Unlock()

	if url == "" || loader == nil {
		fyneapp.Do(func() {
			w.artwork.Image = nil
			w.artwork.Refresh()
		})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		img, err := loader(ctx, url)
		if err != nil {
			w.logger.Warn("artwork unavailable", slog.String("url", url), slog.Any("error", err))
			img = nil
		}

		w.mu.Lock()
		stale := seq != w.artworkSeq
		w.mu.Unlock()
		if stale {
			return
		}
		fyneapp.Do(func() {
			w.artwork.Image = img
			w.artwork.Refresh()
		})
	}()
}

// SetArtworkRevealed implements ports.PlayerView.
func (w *PlayerWindow) SetArtworkRevealed(revealed bool) {
	w.mu.Lock()
	w.artworkRevealed = revealed
	w.mu.Unlock()

	fyneapp.Do(func() {
		if revealed {
			w.artwork.Translucency = 0
		} else {
			w.artwork.Translucency = dimmedArtwork
		}
		w.artwork.Refresh()
	})
}

// ShowFeedback implements ports.PlayerView. Persistent feedback is drawn
// with warning importance.
func (w *PlayerWindow) ShowFeedback(text string, persistent bool) {
	fyneapp.Do(func() {
		if persistent {
			w.feedback.Importance = widget.WarningImportance
		} else {
			w.feedback.Importance = widget.MediumImportance
		}
		w.feedback.SetText(text)
		w.feedback.Show()
	})
}

// HideFeedback implements ports.PlayerView.
func (w *PlayerWindow) HideFeedback() {
	fyneapp.Do(func() {
		w.feedback.Hide()
	})
}

// AttachVisualizer implements ports.PlayerView.
func (w *PlayerWindow) AttachVisualizer(v ports.Visualizer) {
	view := NewVisualizerView(v, 0)

	w.mu.Lock()
	previous := w.detachVisualizerLocked()
	w.visualizer = view
	w.mu.Unlock()
	if previous != nil {
		previous.Stop()
	}

	fyneapp.Do(func() {
		w.visualBox.Objects = []fyneapp.CanvasObject{view}
		w.visualBox.Show()
		w.visualBox.Refresh()
	})
	view.Start()
}

func (w *PlayerWindow) detachVisualizerLocked() *VisualizerView {
	v := w.visualizer
	w.visualizer = nil
	return v
}

// SetPlayState highlights the control that matches the playback state.
func (w *PlayerWindow) SetPlayState(playing bool) {
	fyneapp.Do(func() {
		if playing {
			w.playButton.Importance = widget.MediumImportance
			w.pauseButton.Importance = widget.HighImportance
		} else {
			w.playButton.Importance = widget.HighImportance
			w.pauseButton.Importance = widget.MediumImportance
		}
		w.playButton.Refresh()
		w.pauseButton.Refresh()
	})
}

// ShowNotification displays a system notification.
func (w *PlayerWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

// CurrentIndex returns the highlighted track, or -1.
func (w *PlayerWindow) CurrentIndex() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Layout returns the layout of the player on screen, nil while a status
// card is shown.
func (w *PlayerWindow) Layout() *ports.PlaybackLayout {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.layout
}

// Artwork returns the artwork URL and whether it is revealed.
func (w *PlayerWindow) Artwork() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.artworkURL, w.artworkRevealed
}

// Visualizer returns the mounted visualizer view, or nil.
func (w *PlayerWindow) Visualizer() *VisualizerView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visualizer
}

var _ MonitorView = (*PlayerWindow)(nil)
