package models

import (
	"time"

	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
)

// HandledMsg is fed back after a key press was consumed
type HandledMsg struct {
	Action string
}

// StatusMsg carries a playback status published by the controller
type StatusMsg struct {
	Status control.Status
}

// SessionEndedMsg is sent once the cast session is over and the UI should go away
type SessionEndedMsg struct{}

// PollTickMsg asks for the player properties to be refreshed
type PollTickMsg time.Time

// CommandResultMsg is sent when a request to the controller has completed
type CommandResultMsg struct {
	Action string
	Err    error
}

// SeekRequestedMsg is sent by the seek dialog when a relative seek was entered
type SeekRequestedMsg struct {
	Seconds int
}

// GoToRequestedMsg is sent by the playlist picker when an item was chosen
type GoToRequestedMsg struct {
	Position kodi.PlaylistPosition
}

// ModalClosedMsg is sent when a modal closes itself without a result
type ModalClosedMsg struct{}
