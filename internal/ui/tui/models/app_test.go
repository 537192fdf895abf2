package models

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Seek(_ context.Context, seek kodi.Seek) (kodi.SeekResult, error) {
	return kodi.SeekResult{}, f.record("seek " + seek.String())
}

func (f *fakeController) PlayPause(context.Context, kodi.Toggle) (int, error) {
	return 0, f.record("playpause")
}

func (f *fakeController) Next(ctx context.Context) error {
	return f.GoTo(ctx, kodi.GoToNext)
}

func (f *fakeController) Previous(ctx context.Context) error {
	return f.GoTo(ctx, kodi.GoToPrevious)
}

func (f *fakeController) GoTo(_ context.Context, to kodi.GoTo) error {
	return f.record("goto " + to.String())
}

func (f *fakeController) Properties(context.Context) (kodi.PlayerProperties, error) {
	return kodi.PlayerProperties{}, f.record("properties")
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestApp(names ...string) (AppModel, *fakeController) {
	ctrl := &fakeController{}
	m := NewAppModel(Options{
		Controller: ctrl,
		Updates:    make(chan control.Status),
		Done:       make(chan struct{}),
		Host:       "kodi.local",
		Names:      names,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(AppModel), ctrl
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

// started feeds a status that puts the app on the player view
func started(t *testing.T, m AppModel, pos kodi.PlaylistPosition) AppModel {
	t.Helper()
	m, _ = update(t, m, StatusMsg{Status: control.Status{
		Started:        true,
		Position:       pos,
		PlaylistLength: len(m.opts.Names),
		Title:          "Some Film",
		Time:           &kodi.GlobalTime{Minutes: 1, Seconds: 5},
		TotalTime:      &kodi.GlobalTime{Minutes: 20},
		Percentage:     5.4,
	}})
	return m
}

// execute runs a command and the commands it batches, returning the messages produced
func execute(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, execute(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestStartsOnLoadingView(t *testing.T) {
	m, _ := newTestApp("a.mkv")
	assert.Equal(t, ViewLoading, m.activeView)
	assert.Contains(t, m.View(), "Waiting for Kodi")

	m = started(t, m, kodi.NoPosition)
	assert.Equal(t, ViewPlayer, m.activeView)
	view := m.View()
	assert.Contains(t, view, "Some Film")
	assert.Contains(t, view, "0:01:05 / 0:20:00")
	assert.NotContains(t, view, "#1", "a single item has no playlist position")
}

func TestPlayerKeysDriveController(t *testing.T) {
	m, ctrl := newTestApp("a.mkv", "b.mkv")
	m = started(t, m, 0)

	for _, key := range []tea.KeyMsg{
		runeKey('<'), runeKey('.'),
		{Type: tea.KeySpace, Runes: []rune{' '}},
		runeKey(']'), runeKey('['),
	} {
		var cmd tea.Cmd
		m, cmd = update(t, m, key)
		require.NotNil(t, cmd, key.String())
		for _, msg := range execute(cmd) {
			m, _ = update(t, m, msg)
		}
	}

	assert.Equal(t, []string{
		"seek bigbackward",
		"seek smallforward",
		"playpause",
		"goto next",
		"goto previous",
	}, ctrl.recorded())
}

func TestSingleItemHasNoPlaylistKeys(t *testing.T) {
	m, ctrl := newTestApp("a.mkv")
	m = started(t, m, kodi.NoPosition)

	m, cmd := update(t, m, runeKey(']'))
	execute(cmd)
	m, _ = update(t, m, runeKey('/'))

	assert.Equal(t, ModalNone, m.activeModal)
	assert.Empty(t, ctrl.recorded())
}

func TestSeekDialog(t *testing.T) {
	m, ctrl := newTestApp("a.mkv")

	// Nothing to seek before playback starts
	m, _ = update(t, m, runeKey('1'))
	assert.Equal(t, ModalNone, m.activeModal)

	m = started(t, m, kodi.NoPosition)
	m, _ = update(t, m, runeKey('-'))
	require.Equal(t, ModalSeek, m.activeModal)
	assert.Equal(t, "-", m.seekModel.Value())

	for _, r := range "130" {
		m, _ = update(t, m, runeKey(r))
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := execute(cmd)
	require.Equal(t, []tea.Msg{SeekRequestedMsg{Seconds: -90}}, msgs)

	m, cmd = update(t, m, msgs[0])
	assert.Equal(t, ModalNone, m.activeModal)
	execute(cmd)
	assert.Equal(t, []string{"seek by -90s"}, ctrl.recorded())
}

func TestSeekDialogRejectsGarbage(t *testing.T) {
	m, ctrl := newTestApp("a.mkv")
	m = started(t, m, kodi.NoPosition)

	m, _ = update(t, m, runeKey('5'))
	m, _ = update(t, m, runeKey('x'))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range execute(cmd) {
		m, _ = update(t, m, msg)
	}

	assert.Equal(t, ModalSeek, m.activeModal, "the dialog stays open on a bad time")
	assert.Contains(t, m.View(), "5x")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	for _, msg := range execute(cmd) {
		m, _ = update(t, m, msg)
	}
	assert.Equal(t, ModalNone, m.activeModal)
	assert.Empty(t, ctrl.recorded())
}

func TestPlaylistPicker(t *testing.T) {
	m, ctrl := newTestApp("Alpha.mkv", "Beta.mkv", "Gamma.mkv")
	m = started(t, m, 0)

	m, _ = update(t, m, runeKey('/'))
	require.Equal(t, ModalPlaylist, m.activeModal)
	assert.Contains(t, m.View(), "Beta.mkv")

	// Filter down to one item, then play it
	m, _ = update(t, m, runeKey('/'))
	for _, r := range "gmm" {
		m, _ = update(t, m, runeKey(r))
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := execute(cmd)
	require.Equal(t, []tea.Msg{GoToRequestedMsg{Position: 2}}, msgs)

	m, cmd = update(t, m, msgs[0])
	execute(cmd)
	assert.Equal(t, ModalNone, m.activeModal)
	assert.Equal(t, []string{"goto position 2"}, ctrl.recorded())
}

func TestPlaylistCursorStartsOnPlayingItem(t *testing.T) {
	m, _ := newTestApp("a.mkv", "b.mkv", "c.mkv")
	m = started(t, m, 1)

	m, _ = update(t, m, runeKey('/'))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	pos, ok := m.playlistModel.Selected()
	require.True(t, ok)
	assert.Equal(t, kodi.PlaylistPosition(2), pos)
}

func TestHelpToggles(t *testing.T) {
	m, _ := newTestApp("a.mkv")
	m = started(t, m, kodi.NoPosition)

	m, _ = update(t, m, runeKey('?'))
	require.Equal(t, ModalHelp, m.activeModal)
	assert.Contains(t, m.View(), "Help: Playback")
	assert.Contains(t, m.View(), "Stop playback and quit")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	for _, msg := range execute(cmd) {
		m, _ = update(t, m, msg)
	}
	assert.Equal(t, ModalNone, m.activeModal)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlH})
	assert.Equal(t, ModalHelp, m.activeModal)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlH})
	assert.Equal(t, ModalNone, m.activeModal)
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestApp("a.mkv")

	// Quitting works while still waiting for Kodi
	_, cmd := update(t, m, runeKey('q'))
	assert.Equal(t, []tea.Msg{tea.QuitMsg{}}, execute(cmd))

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, []tea.Msg{tea.QuitMsg{}}, execute(cmd))
}

func TestSessionEndQuits(t *testing.T) {
	done := make(chan struct{})
	close(done)
	m := NewAppModel(Options{Controller: &fakeController{}, Updates: make(chan control.Status), Done: done})

	msg := waitForStatus(m.opts.Updates, m.opts.Done)()
	require.Equal(t, SessionEndedMsg{}, msg)

	_, cmd := update(t, m, msg)
	assert.Equal(t, []tea.Msg{tea.QuitMsg{}}, execute(cmd))
}

func TestPollOnlyWhilePlaying(t *testing.T) {
	m, ctrl := newTestApp("a.mkv")

	_, cmd := update(t, m, PollTickMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, ctrl.recorded())

	m = started(t, m, kodi.NoPosition)
	_, cmd = update(t, m, PollTickMsg{})
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	// The poll itself is the first command, the second is the next tick
	batch[0]()
	assert.Equal(t, []string{"properties"}, ctrl.recorded())
}

func TestCommandErrorsAreShown(t *testing.T) {
	m, ctrl := newTestApp("a.mkv")
	m = started(t, m, kodi.NoPosition)
	ctrl.err = errors.New("kodi said no")

	m, cmd := update(t, m, runeKey(','))
	for _, msg := range execute(cmd) {
		m, _ = update(t, m, msg)
	}
	assert.Contains(t, m.View(), "seek failed: kodi said no")

	// Not having a player yet is not worth shouting about
	m, _ = update(t, m, CommandResultMsg{Action: "seek", Err: control.ErrNoPlayer})
	ctrl.err = nil
	m, cmd = update(t, m, runeKey(','))
	for _, msg := range execute(cmd) {
		m, _ = update(t, m, msg)
	}
	assert.NotContains(t, m.View(), "failed")
}

func TestWaitingAndPausedIndicators(t *testing.T) {
	m, _ := newTestApp("a.mkv", "b.mkv")
	m, _ = update(t, m, StatusMsg{Status: control.Status{
		Started:        true,
		Position:       1,
		PlaylistLength: 2,
		Paused:         true,
		Waiting:        true,
	}})

	view := m.View()
	assert.Contains(t, view, "#2 of 2")
	assert.Contains(t, view, "paused")
	assert.Contains(t, view, "waiting to see if another item starts")
	// Without a title from Kodi the exposed name is shown
	assert.Contains(t, view, "b.mkv")
}
