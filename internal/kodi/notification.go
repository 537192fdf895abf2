package kodi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NotificationKind is the JSON-RPC method name of a notification pushed by Kodi
type NotificationKind string

const (
	NotifyPlay     NotificationKind = "Player.OnPlay"
	NotifyAVChange NotificationKind = "Player.OnAVChange"
	NotifyAVStart  NotificationKind = "Player.OnAVStart"
	NotifyPause    NotificationKind = "Player.OnPause"
	NotifyResume   NotificationKind = "Player.OnResume"
	NotifyStop     NotificationKind = "Player.OnStop"
)

// PlayerRef is the player section of a player notification
type PlayerRef struct {
	ID    PlayerID `json:"playerid"`
	Speed float64  `json:"speed"`
}

// Item is Kodi's Notifications.Item.  Which fields are populated depends on Type.
type Item struct {
	Type        string `json:"type"`
	ID          int    `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Year        int    `json:"year,omitempty"`
	Episode     int    `json:"episode,omitempty"`
	Season      int    `json:"season,omitempty"`
	ShowTitle   string `json:"showtitle,omitempty"`
	Album       string `json:"album,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Track       int    `json:"track,omitempty"`
	File        string `json:"file,omitempty"`
	ChannelType string `json:"channeltype,omitempty"`
}

var knownItemTypes = map[string]bool{
	"unknown":    true,
	"movie":      true,
	"episode":    true,
	"musicvideo": true,
	"song":       true,
	"picture":    true,
	"channel":    true,
}

// Describe returns a short human readable description of the item
func (i Item) Describe() string {
	switch i.Type {
	case "episode":
		if i.ShowTitle != "" {
			return fmt.Sprintf("%s S%02dE%02d %s", i.ShowTitle, i.Season, i.Episode, i.Title)
		}
	case "song", "musicvideo":
		if i.Artist != "" {
			return i.Artist + " - " + i.Title
		}
	case "movie":
		if i.Year > 0 {
			return fmt.Sprintf("%s (%d)", i.Title, i.Year)
		}
	case "picture":
		return i.File
	}
	if i.Title != "" {
		return i.Title
	}
	return i.File
}

// Notification is a push message from Kodi.  Player carries data for every kind but NotifyStop, End is only
// meaningful for NotifyStop.
type Notification struct {
	Kind   NotificationKind
	Sender string
	Item   Item
	Player PlayerRef
	End    bool
}

var errUnknownNotification = errors.New("unknown notification")

type notificationFrame struct {
	Method string `json:"method"`
	Params struct {
		Data   json.RawMessage `json:"data"`
		Sender string          `json:"sender"`
	} `json:"params"`
}

// parseNotification decodes a raw notification frame.  Frames outside the known catalog return an error and are
// expected to be skipped by the caller.
func parseNotification(raw []byte) (Notification, error) {
	var frame notificationFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Notification{}, err
	}

	n := Notification{
		Kind:   NotificationKind(frame.Method),
		Sender: frame.Params.Sender,
	}

	switch n.Kind {
	case NotifyPlay, NotifyAVChange, NotifyAVStart, NotifyPause, NotifyResume:
		var data struct {
			Item   *Item      `json:"item"`
			Player *PlayerRef `json:"player"`
		}
		if err := json.Unmarshal(frame.Params.Data, &data); err != nil {
			return Notification{}, fmt.Errorf("%s: %w", n.Kind, err)
		}
		if data.Item == nil || data.Player == nil {
			return Notification{}, fmt.Errorf("%s: missing item or player", n.Kind)
		}
		n.Item = *data.Item
		n.Player = *data.Player
	case NotifyStop:
		var data struct {
			Item *Item `json:"item"`
			End  *bool `json:"end"`
		}
		if err := json.Unmarshal(frame.Params.Data, &data); err != nil {
			return Notification{}, fmt.Errorf("%s: %w", n.Kind, err)
		}
		if data.Item == nil || data.End == nil {
			return Notification{}, fmt.Errorf("%s: missing item or end", n.Kind)
		}
		n.Item = *data.Item
		n.End = *data.End
	default:
		return Notification{}, fmt.Errorf("%w: %q", errUnknownNotification, frame.Method)
	}

	if !knownItemTypes[n.Item.Type] {
		return Notification{}, fmt.Errorf("%s: unknown item type %q", n.Kind, n.Item.Type)
	}

	return n, nil
}
