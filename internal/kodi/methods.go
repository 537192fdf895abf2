package kodi

import (
	"context"
	"encoding/json"
)

// requiredParameter fills GUI.ActivateWindow's parameters, which the schema demands to be non-empty even though
// the windows used here ignore it
const requiredParameter = "required parameter"

type fileItem struct {
	File string `json:"file"`
}

type playlistPosItem struct {
	PlaylistID PlaylistID       `json:"playlistid"`
	Position   PlaylistPosition `json:"position"`
}

// PlayerOpenItem starts playing a single file or URL
func (s *Session) PlayerOpenItem(ctx context.Context, file string) error {
	params := struct {
		Item fileItem `json:"item"`
	}{fileItem{File: file}}
	return s.Call(ctx, "Player.Open", params, nil)
}

// PlayerOpenPlaylist starts playing a playlist from the given position
func (s *Session) PlayerOpenPlaylist(ctx context.Context, id PlaylistID, pos PlaylistPosition) error {
	params := struct {
		Item playlistPosItem `json:"item"`
	}{playlistPosItem{PlaylistID: id, Position: pos}}
	return s.Call(ctx, "Player.Open", params, nil)
}

// PlayerStop stops the player
func (s *Session) PlayerStop(ctx context.Context, pid PlayerID) error {
	params := struct {
		PlayerID PlayerID `json:"playerid"`
	}{pid}
	return s.Call(ctx, "Player.Stop", params, nil)
}

// PlayerSeek moves the playback position and returns the position Kodi ended up at
func (s *Session) PlayerSeek(ctx context.Context, pid PlayerID, seek Seek) (SeekResult, error) {
	params := struct {
		PlayerID PlayerID `json:"playerid"`
		Value    Seek     `json:"value"`
	}{pid, seek}
	var result SeekResult
	err := s.Call(ctx, "Player.Seek", params, &result)
	return result, err
}

// PlayerPlayPause pauses, resumes or toggles playback.  It returns the resulting speed, 0 meaning paused.
func (s *Session) PlayerPlayPause(ctx context.Context, pid PlayerID, play Toggle) (int, error) {
	params := struct {
		PlayerID PlayerID `json:"playerid"`
		Play     Toggle   `json:"play"`
	}{pid, play}
	var result struct {
		Speed int `json:"speed"`
	}
	err := s.Call(ctx, "Player.PlayPause", params, &result)
	return result.Speed, err
}

// PlayerGoTo moves to another playlist entry
func (s *Session) PlayerGoTo(ctx context.Context, pid PlayerID, to GoTo) error {
	params := struct {
		PlayerID PlayerID `json:"playerid"`
		To       GoTo     `json:"to"`
	}{pid, to}
	return s.Call(ctx, "Player.GoTo", params, nil)
}

// PlayerGetProperties fetches the named player properties
func (s *Session) PlayerGetProperties(ctx context.Context, pid PlayerID, names ...PropertyName) (PlayerProperties, error) {
	params := struct {
		PlayerID   PlayerID       `json:"playerid"`
		Properties []PropertyName `json:"properties"`
	}{pid, names}
	var props PlayerProperties
	err := s.Call(ctx, "Player.GetProperties", params, &props)
	return props, err
}

// PlayerGetActivePlayers lists the players that are currently active
func (s *Session) PlayerGetActivePlayers(ctx context.Context) ([]ActivePlayer, error) {
	var players []ActivePlayer
	err := s.Call(ctx, "Player.GetActivePlayers", nil, &players)
	return players, err
}

// PlayerGetPlayers lists every player Kodi knows about
func (s *Session) PlayerGetPlayers(ctx context.Context) ([]PlayerInfo, error) {
	var players []PlayerInfo
	err := s.Call(ctx, "Player.GetPlayers", nil, &players)
	return players, err
}

// PlaylistAdd appends files to a playlist, in order
func (s *Session) PlaylistAdd(ctx context.Context, id PlaylistID, files ...string) error {
	items := make([]fileItem, 0, len(files))
	for _, f := range files {
		items = append(items, fileItem{File: f})
	}
	params := struct {
		PlaylistID PlaylistID `json:"playlistid"`
		Items      []fileItem `json:"item"`
	}{id, items}
	return s.Call(ctx, "Playlist.Add", params, nil)
}

// PlaylistClear empties a playlist
func (s *Session) PlaylistClear(ctx context.Context, id PlaylistID) error {
	params := struct {
		PlaylistID PlaylistID `json:"playlistid"`
	}{id}
	return s.Call(ctx, "Playlist.Clear", params, nil)
}

// GUIActivateWindow switches Kodi's user interface to the named window
func (s *Session) GUIActivateWindow(ctx context.Context, window Window) error {
	params := struct {
		Window     Window   `json:"window"`
		Parameters []string `json:"parameters"`
	}{window, []string{requiredParameter}}
	return s.Call(ctx, "GUI.ActivateWindow", params, nil)
}

// Introspect returns the JSON schema Kodi describes its API with
func (s *Session) Introspect(ctx context.Context) (json.RawMessage, error) {
	var schema json.RawMessage
	err := s.Call(ctx, "JSONRPC.Introspect", nil, &schema)
	return schema, err
}
