package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel displays contextual help with scrolling
type HelpModel struct {
	width, height int
	context       View
	viewport      viewport.Model
}

// NewHelpModel creates a new help model for the given context
func NewHelpModel(context View) *HelpModel {
	return &HelpModel{
		context:  context,
		viewport: viewport.New(0, 0),
	}
}

func (m *HelpModel) ViewType() View {
	return ViewHelp
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	// Set initial content if dimensions are available
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		case kb.ActionBack:
			return m, func() tea.Msg { return ModalClosedMsg{} }
		}

	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Update viewport dimensions
	contentWidth := width - 4    // Account for borders
	contentHeight := height - 10 // Account for header, footer, spacing

	// Ensure we don't set negative dimensions
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight

	// Update content for new dimensions
	m.updateContent()
}

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	content := m.generateHelpContent()
	m.viewport.SetContent(content)
	// Reset to top when content changes
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	title := m.getContextTitle()

	// Create header
	header := styles.Header(m.width, "Help: "+title)

	// Main content area with viewport
	contentView := m.viewport.View()

	// Footer with navigation help
	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	// Combine elements
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"", // Spacing
		styles.ContentBox(m.width-2, contentView, 1),
		"", // Spacing
		footer,
	)
}

// getContextTitle returns a user-friendly title for the context
func (m *HelpModel) getContextTitle() string {
	switch m.context {
	case ViewLoading:
		return "Starting Playback"
	case ViewPlayer:
		return "Playback"
	case ViewPlaylist:
		return "Playlist"
	case ViewSeek:
		return "Seek"
	default:
		return "General"
	}
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func (m *HelpModel) formatKeybindingSection(title string, bindings []kb.Binding, skipActions map[kb.Action]bool) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	// First pass: determine the maximum key width for alignment
	maxKeyWidth := 0
	for _, binding := range bindings {
		if skipActions != nil && skipActions[binding.Action] {
			continue
		}

		keyText := bindingKeys(binding)

		if width := utf8.RuneCountInString(keyText); width > maxKeyWidth {
			maxKeyWidth = width
		}
	}

	// Second pass: format each binding with aligned colons
	for _, binding := range bindings {
		if skipActions != nil && skipActions[binding.Action] {
			continue
		}

		keyText := bindingKeys(binding)

		// Create padding for alignment
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(keyText))

		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(keyText),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

func bindingKeys(binding kb.Binding) string {
	keyText := kb.DisplayKey(binding.KeyMap.Primary)
	if binding.KeyMap.Secondary != "" {
		keyText += " or " + kb.DisplayKey(binding.KeyMap.Secondary)
	}
	return keyText
}

// contextFor maps a view to the keybinding context active in it
func contextFor(view View) kb.ContextName {
	switch view {
	case ViewLoading, ViewPlayer:
		return kb.ContextPlayer
	case ViewPlaylist:
		return kb.ContextPlaylist
	case ViewSeek:
		return kb.ContextSeek
	}
	return ""
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	// Title style for sections
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	// Add context description section
	b.WriteString(titleStyle.Render(m.getContextTitle()))
	b.WriteString("\n\n")
	b.WriteString(m.getContextDescription())
	b.WriteString("\n\n")

	// Add keybindings section
	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")

	// Global keybindings
	globalBindings := m.formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal], nil)
	b.WriteString(globalBindings)

	// Global keys are listed once, context bindings reusing them are left out
	globalKeys := make(map[kb.Action]bool)
	for _, binding := range kb.ContextBindings[kb.ContextGlobal] {
		for _, ctxBinding := range kb.ContextBindings[contextFor(m.context)] {
			if ctxBinding.KeyMap == binding.KeyMap {
				globalKeys[ctxBinding.Action] = true
			}
		}
	}

	// Context-specific keybindings
	if contextName := contextFor(m.context); contextName != "" {
		// Add spacing between sections
		if globalBindings != "" {
			b.WriteString("\n")
		}

		sectionTitle := fmt.Sprintf("%s commands:", m.getContextTitle())
		contextBindings := m.formatKeybindingSection(sectionTitle, kb.ContextBindings[contextName], globalKeys)
		b.WriteString(contextBindings)
	}

	// Search mode keybindings if applicable
	if m.context == ViewPlaylist {
		b.WriteString("\n")
		searchBindings := m.formatKeybindingSection("When filtering:", kb.ContextBindings[kb.ContextSearchMode], nil)
		b.WriteString(searchBindings)
	}

	if m.context == ViewSeek || m.context == ViewPlayer {
		b.WriteString("\n")
		b.WriteString(m.getSeekDetails())
	}

	return b.String()
}

// getSeekDetails explains what the seek dialog accepts
func (m *HelpModel) getSeekDetails() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	b.WriteString(titleStyle.Render("Seeking"))
	b.WriteString("\n\n")

	b.WriteString("Typing a digit or '-' opens the seek dialog.  The time entered is relative to the current position:\n\n")
	b.WriteString("• 1:30     : ninety seconds forward\n")
	b.WriteString("• -45      : forty five seconds back\n")
	b.WriteString("• 130      : digits fill a clock from the right, so one minute thirty\n")
	b.WriteString("• 1h2m     : units can be combined\n")

	return b.String()
}

// getContextDescription returns help text for the current context
func (m *HelpModel) getContextDescription() string {
	switch m.context {
	case ViewLoading:
		return "Kodi has been asked to play the files and kodicast is waiting for playback to start.\n\n" +
			"Quitting now stops whatever Kodi managed to start and returns Kodi to its home screen."

	case ViewPlayer:
		return "The playback screen shows what Kodi is playing, how far along it is and whether it is paused.\n\n" +
			"When several files are cast they play as a Kodi playlist.  Playback ends when the last item " +
			"finishes or when you quit, after which Kodi is stopped and returned to its home screen."

	case ViewPlaylist:
		return "The playlist shows every file being cast.  The playing item is marked with '▶'.\n\n" +
			"Select an item and press Enter to jump to it.  The filter matches names fuzzily or an item number exactly."

	case ViewSeek:
		return "The seek dialog moves playback by the amount of time typed."

	default:
		return "kodicast plays local files on Kodi and acts as a remote while they play."
	}
}
