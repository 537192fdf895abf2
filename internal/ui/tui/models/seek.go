package models

import (
	"github.com/PizzaHomicide/kodicast/internal/timecode"
	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const seekDialogWidth = 44

// SeekModel is the dialog used to jump by a typed amount of time
type SeekModel struct {
	width, height int
	input         textinput.Model
	err           string
}

// NewSeekModel creates the seek dialog
func NewSeekModel() *SeekModel {
	input := textinput.New()
	input.Placeholder = "-1:30, 90, 2m"
	input.CharLimit = 16
	input.Width = 20
	input.Prompt = "> "

	return &SeekModel{input: input}
}

func (m *SeekModel) ViewType() View {
	return ViewSeek
}

// Open resets the dialog, optionally pre-filled with the key that opened it
func (m *SeekModel) Open(initial string) tea.Cmd {
	m.err = ""
	m.input.SetValue(initial)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Value returns the text entered so far
func (m *SeekModel) Value() string {
	return m.input.Value()
}

func (m *SeekModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *SeekModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch kb.GetActionByKey(keyMsg, kb.ContextSeek) {
	case kb.ActionConfirm:
		seconds, err := timecode.ParseClock(m.input.Value())
		if err != nil {
			m.err = err.Error()
			return m, Handled("seek:invalid")
		}
		m.input.Blur()
		if seconds == 0 {
			return m, func() tea.Msg { return ModalClosedMsg{} }
		}
		return m, func() tea.Msg { return SeekRequestedMsg{Seconds: seconds} }
	case kb.ActionBack:
		m.input.Blur()
		return m, func() tea.Msg { return ModalClosedMsg{} }
	}

	// Typing clears a previous complaint
	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

func (m *SeekModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

func (m *SeekModel) View() string {
	hint := styles.Muted.Render("h:m:s, 1h2m3s or digits, negative to go back")
	if m.err != "" {
		hint = styles.Error.Render(m.err)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ItemTitle.Render("Seek by"),
		"",
		m.input.View(),
		"",
		hint,
		styles.Muted.Render("enter: seek • esc: cancel"),
	)
	return styles.CenteredView(m.width, m.height, styles.DialogBox(seekDialogWidth, content))
}
