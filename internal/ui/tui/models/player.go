package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/styles"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxProgressWidth = 80

var playerBarActions = []kb.Action{
	kb.ActionPlayPause,
	kb.ActionSmallBackward,
	kb.ActionSmallForward,
	kb.ActionOpenSeek,
	kb.ActionToggleHelp,
	kb.ActionQuit,
}

var playlistBarActions = []kb.Action{
	kb.ActionPrevious,
	kb.ActionNext,
	kb.ActionOpenPlaylist,
}

var barDescriptions = map[kb.Action]string{
	kb.ActionPlayPause:     "pause",
	kb.ActionSmallBackward: "back",
	kb.ActionSmallForward:  "forward",
	kb.ActionOpenSeek:      "seek",
	kb.ActionToggleHelp:    "help",
	kb.ActionQuit:          "quit",
	kb.ActionPrevious:      "prev",
	kb.ActionNext:          "next",
	kb.ActionOpenPlaylist:  "playlist",
}

// PlayerModel is the playback screen: what is playing, where it is at, and the remote control keys
type PlayerModel struct {
	width, height int
	controller    Controller
	host          string
	names         []string
	status        control.Status
	progress      progress.Model
	lastErr       string
}

// NewPlayerModel creates the playback screen for the exposed item names
func NewPlayerModel(controller Controller, host string, names []string) *PlayerModel {
	return &PlayerModel{
		controller: controller,
		host:       host,
		names:      names,
		status:     control.Status{Position: kodi.NoPosition, PlaylistLength: len(names)},
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewPlayer
}

// Status returns the last status received
func (m *PlayerModel) Status() control.Status {
	return m.status
}

func (m *PlayerModel) isPlaylist() bool {
	return len(m.names) > 1
}

func (m *PlayerModel) Init() tea.Cmd {
	return nil
}

func (m *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusMsg:
		m.status = msg.Status
		return m, nil
	case CommandResultMsg:
		m.noteResult(msg)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *PlayerModel) noteResult(msg CommandResultMsg) {
	switch {
	case msg.Err == nil:
		if msg.Action != "poll" {
			m.lastErr = ""
		}
	case errors.Is(msg.Err, control.ErrNoPlayer):
		// Kodi has not started yet, or is between items
	case errors.Is(msg.Err, control.ErrStopped):
		m.lastErr = "Playback is over"
	default:
		m.lastErr = fmt.Sprintf("%s failed: %v", strings.ReplaceAll(msg.Action, "_", " "), msg.Err)
	}
}

func (m *PlayerModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	action := kb.GetActionByKey(msg, kb.ContextPlayer)
	switch action {
	case kb.ActionBigBackward:
		return seekCmd(m.controller, "seek", kodi.SeekStep(kodi.StepBigBackward))
	case kb.ActionSmallBackward:
		return seekCmd(m.controller, "seek", kodi.SeekStep(kodi.StepSmallBackward))
	case kb.ActionSmallForward:
		return seekCmd(m.controller, "seek", kodi.SeekStep(kodi.StepSmallForward))
	case kb.ActionBigForward:
		return seekCmd(m.controller, "seek", kodi.SeekStep(kodi.StepBigForward))
	case kb.ActionPlayPause:
		return playPauseCmd(m.controller)
	case kb.ActionPrevious:
		if !m.isPlaylist() {
			return Handled("previous:single_item")
		}
		return goToCmd(m.controller, "previous", kodi.GoToPrevious)
	case kb.ActionNext:
		if !m.isPlaylist() {
			return Handled("next:single_item")
		}
		return goToCmd(m.controller, "next", kodi.GoToNext)
	}

	log.Trace("Player ignoring key", "key", msg.String())
	return nil
}

func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.progress.Width = min(max(width-10, 10), maxProgressWidth)
}

// title prefers what Kodi reports, falling back to the exposed file name
func (m *PlayerModel) title() string {
	if m.status.Title != "" {
		return m.status.Title
	}
	pos := int(m.status.Position)
	if pos < 0 {
		pos = 0
	}
	if pos < len(m.names) {
		return m.names[pos]
	}
	return ""
}

func (m *PlayerModel) View() string {
	header := styles.Header(m.width, "kodicast → "+m.host)

	lines := []string{styles.ItemTitle.Render(util.TruncateString(m.title(), max(m.width-4, 10)))}

	if m.isPlaylist() && m.status.Position != kodi.NoPosition {
		lines = append(lines, styles.Info.Render(fmt.Sprintf("#%d of %d", m.status.Position+1, m.status.PlaylistLength)))
	}

	clock := styles.Clock.Render(util.FormatClock(m.status.Time) + " / " + util.FormatClock(m.status.TotalTime))
	if m.status.Paused {
		clock += "  " + styles.Paused.Render("❚❚ paused")
	}
	lines = append(lines, "", clock, "", m.progress.ViewAs(m.status.Percentage/100))

	if m.status.Waiting {
		lines = append(lines, "", styles.Muted.Render("Playback stopped, waiting to see if another item starts..."))
	}
	if m.lastErr != "" {
		lines = append(lines, "", styles.Error.Render(m.lastErr))
	}

	body := lipgloss.JoinVertical(lipgloss.Center, lines...)

	actions := playerBarActions
	if m.isPlaylist() {
		actions = append(append([]kb.Action{}, playlistBarActions...), playerBarActions...)
	}
	footer := components.KeyBindingsBar(m.width, components.BarFor(kb.ContextPlayer, actions, barDescriptions))

	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-2, 1)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		styles.CenteredView(m.width, bodyHeight, body),
		"",
		footer,
	)
}
