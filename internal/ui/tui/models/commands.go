package models

import (
	"context"
	"errors"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
	tea "github.com/charmbracelet/bubbletea"
)

// commandTimeout bounds how long a key press may wait for Kodi
const commandTimeout = 10 * time.Second

// Controller is the part of the playback controller the screens drive
type Controller interface {
	Seek(ctx context.Context, seek kodi.Seek) (kodi.SeekResult, error)
	PlayPause(ctx context.Context, play kodi.Toggle) (int, error)
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	GoTo(ctx context.Context, to kodi.GoTo) error
	Properties(ctx context.Context) (kodi.PlayerProperties, error)
}

func runCommand(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := fn(ctx)
		if err != nil && !errors.Is(err, control.ErrNoPlayer) {
			log.Warn("Player command failed", "action", action, "error", err)
		}
		return CommandResultMsg{Action: action, Err: err}
	}
}

func seekCmd(c Controller, action string, seek kodi.Seek) tea.Cmd {
	return runCommand(action, func(ctx context.Context) error {
		_, err := c.Seek(ctx, seek)
		return err
	})
}

func playPauseCmd(c Controller) tea.Cmd {
	return runCommand("play_pause", func(ctx context.Context) error {
		_, err := c.PlayPause(ctx, kodi.ToggleSwitch)
		return err
	})
}

func goToCmd(c Controller, action string, to kodi.GoTo) tea.Cmd {
	return runCommand(action, func(ctx context.Context) error {
		return c.GoTo(ctx, to)
	})
}

func pollCmd(c Controller) tea.Cmd {
	return runCommand("poll", func(ctx context.Context) error {
		_, err := c.Properties(ctx)
		return err
	})
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return PollTickMsg(t)
	})
}

// waitForStatus delivers the next status update, or SessionEndedMsg once done is closed
func waitForStatus(updates <-chan control.Status, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-updates:
			return StatusMsg{Status: st}
		case <-done:
			return SessionEndedMsg{}
		}
	}
}
