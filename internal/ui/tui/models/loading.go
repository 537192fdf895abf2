package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/log"
	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/styles"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// slowStartAfter is when the start screen begins showing how long it has been waiting
const slowStartAfter = 5 * time.Second

// LoadingModel is shown from the moment Kodi is asked to play until it reports the first item started
type LoadingModel struct {
	width, height int
	host          string
	names         []string
	spinner       spinner.Model
	startTime     time.Time
}

func NewLoadingModel(host string, names []string) *LoadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &LoadingModel{
		host:      host,
		names:     names,
		spinner:   s,
		startTime: time.Now(),
	}
}

func (m *LoadingModel) ViewType() View {
	return ViewLoading
}

func (m *LoadingModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *LoadingModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	log.Trace("Loading model ignoring message", "message", msg)
	return m, nil
}

func (m *LoadingModel) View() string {
	contentWidth := min(m.width-20, 80)
	if contentWidth < 40 {
		contentWidth = min(m.width-4, 40)
	}
	inner := max(contentWidth-6, 10)

	var b strings.Builder
	b.WriteString(styles.CenteredText(inner, m.spinner.View()+" "+styles.ItemTitle.Render("Waiting for Kodi to start playback")))
	b.WriteString("\n\n")
	b.WriteString(styles.CenteredText(inner, styles.Muted.Render(util.TruncateString(m.target(), inner))))

	// Kodi can take a while to buffer a remote file
	if elapsed := m.GetElapsedTime(); elapsed >= slowStartAfter {
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(inner, styles.Muted.Render(
			fmt.Sprintf("Waiting for %s", elapsed.Truncate(time.Second)))))
	}

	if quit := kb.GetActionKey(kb.ActionQuit, kb.ContextBindings[kb.ContextPlayer]); quit != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.CenteredText(inner, styles.Hint.Render(fmt.Sprintf("Press %s to cancel", kb.DisplayKey(quit)))))
	}

	view := lipgloss.JoinVertical(lipgloss.Center, styles.Header(contentWidth, "kodicast"), styles.DialogBox(contentWidth, b.String()))
	return styles.CenteredView(m.width, m.height, view)
}

// target describes what is being cast and where
func (m *LoadingModel) target() string {
	switch len(m.names) {
	case 0:
		return "Casting to " + m.host
	case 1:
		return fmt.Sprintf("Casting %s to %s", m.names[0], m.host)
	default:
		return fmt.Sprintf("Casting %d items to %s", len(m.names), m.host)
	}
}

func (m *LoadingModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// GetElapsedTime returns the time elapsed since loading started
func (m *LoadingModel) GetElapsedTime() time.Duration {
	return time.Since(m.startTime)
}
