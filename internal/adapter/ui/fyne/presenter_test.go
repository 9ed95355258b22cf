package fyne

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
	"github.com/tejashwikalptaru/tunecast/internal/ports"
	"github.com/tejashwikalptaru/tunecast/internal/service"
)

type fakePlayer struct {
	mu        sync.Mutex
	serverURL string
	loaded    []string
	selected  []int
	resumed   int
	paused    int
	closed    int
	resumeErr error
}

func (p *fakePlayer) Load(_ context.Context, slug string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = append(p.loaded, slug)
	return nil
}

func (p *fakePlayer) SelectTrack(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = append(p.selected, i)
	return nil
}

func (p *fakePlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumed++
	return p.resumeErr
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused++
}

func (p *fakePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

// fakeMonitorView records the monitor-only calls; the embedded PlayerView
// is never used by the presenter.
type fakeMonitorView struct {
	ports.PlayerView

	mu            sync.Mutex
	playStates    []bool
	notifications []string
}

func (v *fakeMonitorView) SetPlayState(playing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playStates = append(v.playStates, playing)
}

func (v *fakeMonitorView) ShowNotification(title, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notifications = append(v.notifications, title+": "+message)
}

type presenterFixture struct {
	presenter   *Presenter
	preferences *service.PreferenceService
	view        *fakeMonitorView
	bus         *eventbus.SyncEventBus
	players     *[]*fakePlayer
}

func newPresenterFixture(t *testing.T) presenterFixture {
	t.Helper()
	app := test.NewTempApp(t)
	prefs := service.NewPreferenceService(logger.NewTestLogger(), memory.NewPreferencesRepository(app.Preferences()))
	bus := eventbus.NewSyncEventBus()
	view := &fakeMonitorView{}

	players := &[]*fakePlayer{}
	factory := func(serverURL string, _ ports.PlayerView) (Player, error) {
		if serverURL == "http://broken.example" {
			return nil, errors.New("no route")
		}
		p := &fakePlayer{serverURL: serverURL}
		*players = append(*players, p)
		return p, nil
	}

	presenter := NewPresenter(logger.NewTestLogger(), prefs, factory, bus, view)
	t.Cleanup(presenter.Shutdown)
	return presenterFixture{presenter: presenter, preferences: prefs, view: view, bus: bus, players: players}
}

func TestPresenter_OnOpenSavesConnection(t *testing.T) {
	f := newPresenterFixture(t)

	require.NoError(t, f.presenter.OnOpen(context.Background(), "http://radio.example/ ", " 123456789 "))

	assert.Equal(t, "http://radio.example", f.preferences.ServerURL())
	assert.Equal(t, "123456789", f.preferences.Slug())
	assert.Equal(t, "http://radio.example", f.presenter.ServerURL())
	require.Len(t, *f.players, 1)
	assert.Equal(t, []string{"123456789"}, (*f.players)[0].loaded)
}

func TestPresenter_OnOpenReusesPlayerPerServer(t *testing.T) {
	f := newPresenterFixture(t)
	ctx := context.Background()

	require.NoError(t, f.presenter.OnOpen(ctx, "http://radio.example", "123456789"))
	require.NoError(t, f.presenter.OnOpen(ctx, "http://radio.example", "987654321"))
	require.Len(t, *f.players, 1)
	first := (*f.players)[0]
	assert.Equal(t, []string{"123456789", "987654321"}, first.loaded)

	require.NoError(t, f.presenter.OnOpen(ctx, "https://other.example", "987654321"))
	require.Len(t, *f.players, 2)
	assert.Equal(t, 1, first.closed, "a player bound to another server is closed")
	assert.Equal(t, "https://other.example", (*f.players)[1].serverURL)
}

func TestPresenter_OnOpenValidation(t *testing.T) {
	f := newPresenterFixture(t)
	ctx := context.Background()

	var validation *domain.ValidationError
	assert.ErrorAs(t, f.presenter.OnOpen(ctx, "radio.example", "123456789"), &validation)
	assert.ErrorAs(t, f.presenter.OnOpen(ctx, "http://radio.example", "12"), &validation)
	assert.Empty(t, *f.players)

	err := f.presenter.OnOpen(ctx, "http://broken.example", "123456789")
	assert.ErrorContains(t, err, "failed to create player")
	assert.Empty(t, f.presenter.ServerURL())
}

func TestPresenter_RestoreSession(t *testing.T) {
	f := newPresenterFixture(t)
	ctx := context.Background()

	restored, err := f.presenter.RestoreSession(ctx)
	require.NoError(t, err)
	assert.False(t, restored)

	require.NoError(t, f.preferences.SetServerURL("http://radio.example"))
	require.NoError(t, f.preferences.SetSlug("123456789"))
	restored, err = f.presenter.RestoreSession(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	require.Len(t, *f.players, 1)
	assert.Equal(t, []string{"123456789"}, (*f.players)[0].loaded)
}

func TestPresenter_Commands(t *testing.T) {
	f := newPresenterFixture(t)

	// Nothing is open yet.
	f.presenter.OnPlayClicked()
	f.presenter.OnPauseClicked()
	f.presenter.OnTrackSelected(1)
	assert.Empty(t, f.view.playStates)

	require.NoError(t, f.presenter.OnOpen(context.Background(), "http://radio.example", "123456789"))
	player := (*f.players)[0]
	player.resumeErr = errors.New("nothing loaded")

	f.presenter.OnPlayClicked()
	f.presenter.OnTrackSelected(2)
	f.presenter.OnPauseClicked()

	assert.Equal(t, 1, player.resumed)
	assert.Equal(t, []int{2}, player.selected)
	assert.Equal(t, 1, player.paused)
	assert.Equal(t, []bool{false}, f.view.playStates)
}

func TestPresenter_PlaybackEvents(t *testing.T) {
	f := newPresenterFixture(t)
	track := domain.Track{ID: "a1", Title: "Sunrise"}

	f.bus.Publish(domain.NewTrackStartedEvent(track, 0))
	f.bus.Publish(domain.NewTrackEndedEvent(track, 0, 1))
	f.bus.Publish(domain.NewTrackStartedEvent(track, 1))
	f.bus.Publish(domain.NewTrackEndedEvent(track, 1, -1))
	f.bus.Publish(domain.NewPlaybackBlockedEvent(track, errors.New("autoplay")))
	f.bus.Publish(domain.NewPlayerStatusEvent("123456789", "Endpoint disabled.", ""))

	assert.Equal(t, []bool{true, true, false, false, false}, f.view.playStates)
	assert.Equal(t, []string{"Playlist finished: Sunrise"}, f.view.notifications)
}

func TestPresenter_Shutdown(t *testing.T) {
	f := newPresenterFixture(t)
	require.NoError(t, f.presenter.OnOpen(context.Background(), "http://radio.example", "123456789"))

	f.presenter.Shutdown()
	f.presenter.Shutdown()

	assert.Equal(t, 1, (*f.players)[0].closed)
	assert.Zero(t, f.bus.SubscriberCount())

	f.bus.Publish(domain.NewTrackStartedEvent(domain.Track{Title: "late"}, 0))
	assert.Empty(t, f.view.playStates)
}

func TestOpenDialog_Validators(t *testing.T) {
	assert.NoError(t, validateServerURL("http://localhost:8080"))
	assert.NoError(t, validateServerURL(" https://radio.example "))
	assert.Error(t, validateServerURL("ftp://radio.example"))
	assert.Error(t, validateServerURL(""))

	assert.NoError(t, validateSlug("123456789"))
	assert.NoError(t, validateSlug(" 123456789 "))
	assert.Error(t, validateSlug("a b"))
	assert.Error(t, validateSlug(""))
}

func TestOpenDialog_SubmitTrims(t *testing.T) {
	app := test.NewTempApp(t)
	window := app.NewWindow("test")
	defer window.Close()

	var gotURL, gotSlug string
	d := NewOpenDialog(window, " http://radio.example ", "123456789 ", func(u, s string) {
		gotURL, gotSlug = u, s
	})
	assert.Equal(t, service.DefaultServerURL, d.serverURL.PlaceHolder)

	d.submit()
	assert.Equal(t, "http://radio.example", gotURL)
	assert.Equal(t, "123456789", gotSlug)
}
