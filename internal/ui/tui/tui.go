// Package tui is the terminal remote control shown while a cast is playing.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/PizzaHomicide/kodicast/internal/app"
	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// statusBuffer is how many status updates can queue up while the TUI is busy rendering
const statusBuffer = 16

// Run shows the remote until the session is over, the user quits or ctx ends
func Run(ctx context.Context, s app.Session) error {
	updates := make(chan control.Status, statusBuffer)
	if err := s.Commands.Listen(updates); err != nil {
		if errors.Is(err, control.ErrStopped) {
			return nil
		}
		return fmt.Errorf("listening for playback status: %w", err)
	}

	model := models.NewAppModel(models.Options{
		Controller:   s.Commands,
		Updates:      updates,
		Done:         s.Exit.Done(),
		Host:         s.Host,
		Names:        s.Names,
		PollInterval: s.PollInterval,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
