package models

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Model is implemented by every screen the app model delegates to
type Model interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Model, tea.Cmd)
	View() string
	Resize(width, height int)
	ViewType() View
}

// Handled marks a key press as consumed.  The returned command only feeds a HandledMsg back for tracing.
func Handled(action string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Action: action}
	}
}
