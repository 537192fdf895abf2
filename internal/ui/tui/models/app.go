package models

import (
	"time"

	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/PizzaHomicide/kodicast/internal/timecode"
	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultPollInterval is used when no poll interval is configured
const DefaultPollInterval = time.Second

// Options are what the app model needs from the running cast session
type Options struct {
	Controller Controller
	// Updates receives the controller's status updates
	Updates <-chan control.Status
	// Done is closed once the session is over
	Done         <-chan struct{}
	Host         string
	Names        []string
	PollInterval time.Duration
}

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	opts          Options
	activeView    View  // Track the current active 'main view'
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	// Models used for various views
	loadingModel  *LoadingModel
	playerModel   *PlayerModel
	helpModel     *HelpModel
	seekModel     *SeekModel
	playlistModel *PlaylistModel
}

// NewAppModel creates a new instance of the main application model
func NewAppModel(opts Options) AppModel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return AppModel{
		opts:          opts,
		activeView:    ViewLoading,
		activeModal:   ModalNone,
		loadingModel:  NewLoadingModel(opts.Host, opts.Names),
		playerModel:   NewPlayerModel(opts.Controller, opts.Host, opts.Names),
		seekModel:     NewSeekModel(),
		playlistModel: NewPlaylistModel(opts.Names),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising kodicast TUI", "items", len(m.opts.Names))
	return tea.Batch(
		m.loadingModel.Init(),
		waitForStatus(m.opts.Updates, m.opts.Done),
		tickCmd(m.opts.PollInterval),
	)
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		// Propagate new window size to all views so they are aware and can render correctly
		m.loadingModel.Resize(msg.Width, msg.Height)
		m.playerModel.Resize(msg.Width, msg.Height)
		m.seekModel.Resize(msg.Width, msg.Height)
		m.playlistModel.Resize(msg.Width, msg.Height)
		if m.helpModel != nil {
			m.helpModel.Resize(msg.Width, msg.Height)
		}
		return m, nil

	case StatusMsg:
		m.playerModel.Update(msg)
		m.playlistModel.SetCurrent(msg.Status.Position)
		if msg.Status.Started && m.activeView == ViewLoading {
			log.Debug("Playback started, switching to player view")
			m.activeView = ViewPlayer
		}
		return m, waitForStatus(m.opts.Updates, m.opts.Done)

	case SessionEndedMsg:
		log.Info("Cast session over, closing the TUI")
		return m, tea.Quit

	case PollTickMsg:
		if m.activeView == ViewPlayer {
			return m, tea.Batch(pollCmd(m.opts.Controller), tickCmd(m.opts.PollInterval))
		}
		return m, tickCmd(m.opts.PollInterval)

	case CommandResultMsg:
		m.playerModel.Update(msg)
		return m, nil

	case SeekRequestedMsg:
		m.activeModal = ModalNone
		log.Debug("Seek requested", "offset", timecode.Format(msg.Seconds))
		return m, seekCmd(m.opts.Controller, "seek", kodi.SeekBy(msg.Seconds))

	case GoToRequestedMsg:
		m.activeModal = ModalNone
		log.Debug("Playlist item requested", "position", msg.Position)
		return m, goToCmd(m.opts.Controller, "go_to", kodi.GoToPosition(msg.Position))

	case ModalClosedMsg:
		m.activeModal = ModalNone
		return m, nil

	case HandledMsg:
		log.Trace("Key handled", "action", msg.Action)
		return m, nil

	case spinner.TickMsg:
		if m.activeView != ViewLoading {
			// Let the spinner die out once playback has started
			return m, nil
		}
		_, cmd := m.loadingModel.Update(msg)
		return m, cmd
	}

	// Anything else (cursor blinks mostly) goes to the active modal
	if model := m.modalModel(); model != nil {
		_, cmd := model.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m AppModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kb.GetActionByKey(msg, kb.ContextGlobal) {
	case kb.ActionQuit:
		log.Info("Quit command received.  Shutting down...")
		return m, tea.Quit
	case kb.ActionToggleHelp:
		return m.toggleHelp()
	}

	// Prioritise delegating messages to a modal if one is active
	if model := m.modalModel(); model != nil {
		_, cmd := model.Update(msg)
		return m, cmd
	}

	if kb.IsSeekStart(msg) {
		if m.activeView != ViewPlayer {
			return m, Handled("seek:not_started")
		}
		m.activeModal = ModalSeek
		return m, m.seekModel.Open(msg.String())
	}

	switch kb.GetActionByKey(msg, kb.ContextPlayer) {
	case kb.ActionQuit:
		log.Info("Quit command received.  Shutting down...")
		return m, tea.Quit
	case kb.ActionToggleHelp:
		return m.toggleHelp()
	case kb.ActionOpenPlaylist:
		if len(m.opts.Names) < 2 || m.activeView != ViewPlayer {
			return m, Handled("playlist:unavailable")
		}
		m.playlistModel.Open()
		m.activeModal = ModalPlaylist
		return m, Handled("playlist:open")
	}

	if m.activeView != ViewPlayer {
		return m, nil
	}
	_, cmd := m.playerModel.Update(msg)
	return m, cmd
}

func (m AppModel) toggleHelp() (tea.Model, tea.Cmd) {
	log.Debug("Help requested", "active_view", m.activeView)
	if m.activeModal == ModalHelp {
		m.activeModal = ModalNone
		return m, nil
	}

	context := m.activeView
	switch m.activeModal {
	case ModalSeek:
		context = ViewSeek
	case ModalPlaylist:
		context = ViewPlaylist
	}
	m.helpModel = NewHelpModel(context)
	m.helpModel.Resize(m.width, m.height)
	m.activeModal = ModalHelp
	return m, m.helpModel.Init()
}

func (m AppModel) modalModel() Model {
	switch m.activeModal {
	case ModalHelp:
		return m.helpModel
	case ModalSeek:
		return m.seekModel
	case ModalPlaylist:
		return m.playlistModel
	}
	return nil
}

func (m AppModel) View() string {
	// If there is an active modal it takes presedence
	if model := m.modalModel(); model != nil {
		return model.View()
	}

	// Else display the actual view
	switch m.activeView {
	case ViewLoading:
		return m.loadingModel.View()
	case ViewPlayer:
		return m.playerModel.View()
	default:
		return "Unknown view\nPress ctrl+c to quit."
	}
}
