package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PizzaHomicide/kodicast/internal/kodi"
	kb "github.com/PizzaHomicide/kodicast/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/styles"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type playlistEntry struct {
	position kodi.PlaylistPosition
	name     string
}

// PlaylistModel lets the user jump to another item of the playlist
type PlaylistModel struct {
	width, height  int
	entries        []playlistEntry
	filtered       []playlistEntry
	current        kodi.PlaylistPosition
	cursor         int
	searchInput    textinput.Model
	searchMode     bool
	viewportOffset int // For scrolling
}

// NewPlaylistModel creates the picker for the exposed item names, in playlist order
func NewPlaylistModel(names []string) *PlaylistModel {
	input := textinput.New()
	input.Placeholder = "Filter items..."
	input.Width = 30

	entries := make([]playlistEntry, len(names))
	for i, name := range names {
		entries[i] = playlistEntry{position: kodi.PlaylistPosition(i), name: name}
	}

	return &PlaylistModel{
		entries:     entries,
		filtered:    entries,
		current:     kodi.NoPosition,
		searchInput: input,
	}
}

func (m *PlaylistModel) ViewType() View {
	return ViewPlaylist
}

// SetCurrent records which item is playing
func (m *PlaylistModel) SetCurrent(pos kodi.PlaylistPosition) {
	m.current = pos
}

// Open clears any filter and puts the cursor on the playing item
func (m *PlaylistModel) Open() {
	m.searchMode = false
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	m.filtered = m.entries
	m.cursor = 0
	if m.current >= 0 && int(m.current) < len(m.filtered) {
		m.cursor = int(m.current)
	}
	m.ensureCursorVisible()
}

// Selected returns the item under the cursor
func (m *PlaylistModel) Selected() (kodi.PlaylistPosition, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return kodi.NoPosition, false
	}
	return m.filtered[m.cursor].position, true
}

func (m *PlaylistModel) Init() tea.Cmd {
	return nil
}

func (m *PlaylistModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If in search mode, handle input differently
		if cmd := m.handleSearchModeKeyMsg(msg); cmd != nil {
			return m, cmd
		}

		if cmd := m.handleKeyMsg(msg); cmd != nil {
			return m, cmd
		}
	}

	return m, nil
}

func (m *PlaylistModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextPlaylist) {
	case kb.ActionConfirm:
		pos, ok := m.Selected()
		if !ok {
			return Handled("playlist:empty_selection")
		}
		return func() tea.Msg {
			return GoToRequestedMsg{Position: pos}
		}
	case kb.ActionBack:
		return func() tea.Msg { return ModalClosedMsg{} }
	case kb.ActionEnableSearch:
		m.searchMode = true
		return m.searchInput.Focus()
	case kb.ActionMoveDown:
		if len(m.filtered) > 0 && m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		return Handled("cursor_move:down")
	case kb.ActionMoveUp:
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		return Handled("cursor_move:up")
	case kb.ActionPageDown:
		m.cursor = min(m.cursor+m.pageSize(), len(m.filtered)-1)
		m.ensureCursorVisible()
		return Handled("cursor_move:pgdown")
	case kb.ActionPageUp:
		m.cursor = max(m.cursor-m.pageSize(), 0)
		m.ensureCursorVisible()
		return Handled("cursor_move:pgup")
	case kb.ActionMoveTop:
		m.cursor = 0
		m.ensureCursorVisible()
		return Handled("cursor_move:top")
	case kb.ActionMoveBottom:
		m.cursor = len(m.filtered) - 1
		m.ensureCursorVisible()
		return Handled("cursor_move:bottom")
	}

	return nil
}

func (m *PlaylistModel) handleSearchModeKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if !m.searchMode {
		return nil
	}
	switch kb.GetActionByKey(msg, kb.ContextSearchMode) {
	case kb.ActionBack:
		// Cancels search, clearing the filter
		m.searchMode = false
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.applyFilter()
		return Handled("search:exit")
	case kb.ActionSearchComplete:
		m.searchMode = false
		m.searchInput.Blur()
		m.applyFilter()
		return Handled("search:apply")
	}

	// Let the text input model handle other keys
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Apply filters as we type
	m.applyFilter()

	if cmd == nil {
		cmd = Handled("search:input")
	}
	return cmd
}

// applyFilter narrows the items to those matching the search input, by name or by item number
func (m *PlaylistModel) applyFilter() {
	query := m.searchInput.Value()
	if query == "" {
		m.filtered = m.entries
		m.ensureCursorVisible()
		return
	}

	var filtered []playlistEntry
	for _, e := range m.entries {
		if fuzzy.MatchFold(query, e.name) || query == strconv.Itoa(int(e.position)+1) {
			filtered = append(filtered, e)
		}
	}
	m.filtered = filtered
	m.ensureCursorVisible()
}

func (m *PlaylistModel) pageSize() int {
	return max(m.height-11, 1)
}

// listHeight is the number of rows available to items
func (m *PlaylistModel) listHeight() int {
	return max(m.height-10, 2) - 1
}

// ensureCursorVisible adjusts the viewport offset to keep the cursor visible
func (m *PlaylistModel) ensureCursorVisible() {
	if len(m.filtered) == 0 {
		m.cursor = 0
		m.viewportOffset = 0
		return
	}
	m.cursor = min(max(m.cursor, 0), len(m.filtered)-1)

	visibleCount := min(len(m.filtered), m.listHeight())
	if len(m.filtered) <= visibleCount {
		m.viewportOffset = 0
		return
	}

	if m.cursor < m.viewportOffset {
		m.viewportOffset = m.cursor
	}
	if m.cursor >= m.viewportOffset+visibleCount {
		m.viewportOffset = m.cursor - visibleCount + 1
	}
	m.viewportOffset = min(m.viewportOffset, len(m.filtered)-visibleCount)
}

func (m *PlaylistModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.ensureCursorVisible()
}

func (m *PlaylistModel) View() string {
	header := styles.Header(m.width, fmt.Sprintf("Playlist - %d items", len(m.entries)))
	content := m.renderList()

	if m.searchMode || m.searchInput.Value() != "" {
		searchPrompt := styles.Title.Render("Filter: ") + m.searchInput.View()
		content = lipgloss.JoinVertical(lipgloss.Left, searchPrompt, content)
	}

	footer := styles.FilterStatus.Render(" ↑/↓: Navigate • Enter: Play • /: Filter • Esc: Close ")

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, content, footer)
}

func (m *PlaylistModel) renderList() string {
	if len(m.filtered) == 0 {
		return styles.CenteredText(m.width, "No items match your filter")
	}

	visibleCount := min(len(m.filtered), m.listHeight())
	startIdx := m.viewportOffset
	endIdx := min(startIdx+visibleCount, len(m.filtered))

	rowWidth := max(m.width-6, 10)
	normalStyle := lipgloss.NewStyle().Padding(0, 1)
	selectedStyle := styles.Selected.Padding(0, 1)

	var b strings.Builder
	for i := startIdx; i < endIdx; i++ {
		e := m.filtered[i]
		marker := "  "
		if e.position == m.current {
			marker = "▶ "
		}
		row := util.FitString(fmt.Sprintf("%s%3d  %s", marker, e.position+1, e.name), rowWidth-2)

		if i == m.cursor {
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(normalStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(m.filtered) > visibleCount {
		b.WriteString(styles.CenteredText(rowWidth, fmt.Sprintf("Showing %d-%d of %d", startIdx+1, endIdx, len(m.filtered))))
	}

	return styles.ContentBox(m.width-2, b.String(), 0)
}
