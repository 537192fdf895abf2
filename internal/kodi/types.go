package kodi

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlayerID identifies an active player instance on the Kodi side.
type PlayerID int

// PlaylistID identifies one of Kodi's playlists.  0 is audio, 1 is video, 2 is pictures.
type PlaylistID int

// PlaylistPosition is a zero based index into a playlist.
type PlaylistPosition int

const (
	// NoPlaylist is what Kodi reports when the player is not driven by a playlist
	NoPlaylist PlaylistID = -1
	// NoPosition is what Kodi reports when there is no current playlist entry
	NoPosition PlaylistPosition = -1

	VideoPlaylist PlaylistID = 1
)

// GlobalTime is Kodi's Global.Time.  Milliseconds has been observed to be negative at times, so it is kept signed.
type GlobalTime struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	Seconds      int `json:"seconds"`
	Milliseconds int `json:"milliseconds"`
}

// GlobalTimeFromDuration converts a duration into Kodi's time representation
func GlobalTimeFromDuration(d time.Duration) GlobalTime {
	if d < 0 {
		d = 0
	}
	return GlobalTime{
		Hours:        int(d / time.Hour),
		Minutes:      int(d % time.Hour / time.Minute),
		Seconds:      int(d % time.Minute / time.Second),
		Milliseconds: int(d % time.Second / time.Millisecond),
	}
}

// Duration returns the time as a time.Duration
func (t GlobalTime) Duration() time.Duration {
	return time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second +
		time.Duration(t.Milliseconds)*time.Millisecond
}

// String formats the time as h:mm:ss
func (t GlobalTime) String() string {
	return fmt.Sprintf("%d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// VideoStream is Kodi's Player.Video.Stream
type VideoStream struct {
	Codec    string `json:"codec"`
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	Index    int    `json:"index"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

// PropertyName is a property that can be requested through Player.GetProperties
type PropertyName string

const (
	PropType               PropertyName = "type"
	PropPartyMode          PropertyName = "partymode"
	PropSpeed              PropertyName = "speed"
	PropTime               PropertyName = "time"
	PropPercentage         PropertyName = "percentage"
	PropTotalTime          PropertyName = "totaltime"
	PropPlaylistID         PropertyName = "playlistid"
	PropPosition           PropertyName = "position"
	PropRepeat             PropertyName = "repeat"
	PropShuffled           PropertyName = "shuffled"
	PropCanSeek            PropertyName = "canseek"
	PropCanChangeSpeed     PropertyName = "canchangespeed"
	PropCanMove            PropertyName = "canmove"
	PropCanZoom            PropertyName = "canzoom"
	PropCanRotate          PropertyName = "canrotate"
	PropCanShuffle         PropertyName = "canshuffle"
	PropCanRepeat          PropertyName = "canrepeat"
	PropSubtitleEnabled    PropertyName = "subtitleenabled"
	PropLive               PropertyName = "live"
	PropCurrentVideoStream PropertyName = "currentvideostream"
	PropVideoStreams       PropertyName = "videostreams"
)

// PlayerProperties is the subset of Player.Property.Value that is understood.  Anything not requested is left at
// its zero value, except for the playlist id and position which default to -1.
type PlayerProperties struct {
	Type               string           `json:"type"`
	PartyMode          bool             `json:"partymode"`
	Speed              int              `json:"speed"`
	Time               *GlobalTime      `json:"time"`
	TotalTime          *GlobalTime      `json:"totaltime"`
	Percentage         float64          `json:"percentage"`
	PlaylistID         PlaylistID       `json:"playlistid"`
	Position           PlaylistPosition `json:"position"`
	Shuffled           bool             `json:"shuffled"`
	CanSeek            bool             `json:"canseek"`
	CanChangeSpeed     bool             `json:"canchangespeed"`
	CanMove            bool             `json:"canmove"`
	CanZoom            bool             `json:"canzoom"`
	CanRotate          bool             `json:"canrotate"`
	CanShuffle         bool             `json:"canshuffle"`
	CanRepeat          bool             `json:"canrepeat"`
	SubtitleEnabled    bool             `json:"subtitleenabled"`
	Live               bool             `json:"live"`
	CurrentVideoStream *VideoStream     `json:"currentvideostream"`
	VideoStreams       []VideoStream    `json:"videostreams"`
}

func (p *PlayerProperties) UnmarshalJSON(data []byte) error {
	type plain PlayerProperties
	v := plain{PlaylistID: NoPlaylist, Position: NoPosition}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PlayerProperties(v)
	return nil
}

// HasVideoStream reports whether Kodi still has a current video stream.  Kodi reports an empty stream once the last
// item of a playlist has finished, which is what separates a real end of playback from a playlist advance.
func (p PlayerProperties) HasVideoStream() bool {
	return p.CurrentVideoStream != nil && p.CurrentVideoStream.Codec != ""
}

// SeekResult is the reply of Player.Seek
type SeekResult struct {
	Percentage float64     `json:"percentage"`
	Time       *GlobalTime `json:"time"`
	TotalTime  *GlobalTime `json:"totaltime"`
}

// Step is one of Kodi's predefined seek jumps
type Step string

const (
	StepSmallForward  Step = "smallforward"
	StepSmallBackward Step = "smallbackward"
	StepBigForward    Step = "bigforward"
	StepBigBackward   Step = "bigbackward"
)

type seekKind int

const (
	seekTime seekKind = iota
	seekSeconds
	seekStep
)

// Seek describes where Player.Seek should move to.  Build one with SeekTo, SeekBy or SeekStep.
type Seek struct {
	kind    seekKind
	time    GlobalTime
	seconds int
	step    Step
}

// SeekTo seeks to an absolute position
func SeekTo(t GlobalTime) Seek {
	return Seek{kind: seekTime, time: t}
}

// SeekBy seeks relative to the current position.  Negative values move backwards.
func SeekBy(seconds int) Seek {
	return Seek{kind: seekSeconds, seconds: seconds}
}

// SeekStep seeks by one of the predefined jumps
func SeekStep(step Step) Seek {
	return Seek{kind: seekStep, step: step}
}

func (s Seek) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case seekTime:
		return json.Marshal(struct {
			Time GlobalTime `json:"time"`
		}{s.time})
	case seekSeconds:
		return json.Marshal(struct {
			Seconds int `json:"seconds"`
		}{s.seconds})
	case seekStep:
		return json.Marshal(struct {
			Step Step `json:"step"`
		}{s.step})
	}
	return nil, fmt.Errorf("unknown seek kind %d", s.kind)
}

func (s Seek) String() string {
	switch s.kind {
	case seekTime:
		return "to " + s.time.String()
	case seekSeconds:
		return fmt.Sprintf("by %+ds", s.seconds)
	default:
		return string(s.step)
	}
}

// Toggle is Kodi's Global.Toggle: false, true or "toggle"
type Toggle int

const (
	ToggleSwitch Toggle = iota
	ToggleOff
	ToggleOn
)

func (t Toggle) MarshalJSON() ([]byte, error) {
	switch t {
	case ToggleOff:
		return []byte("false"), nil
	case ToggleOn:
		return []byte("true"), nil
	default:
		return []byte(`"toggle"`), nil
	}
}

// GoTo is the target of Player.GoTo.  Either "next", "previous" or an absolute playlist position.
type GoTo struct {
	relative string
	position PlaylistPosition
}

var (
	GoToNext     = GoTo{relative: "next"}
	GoToPrevious = GoTo{relative: "previous"}
)

// GoToPosition jumps to an absolute playlist position
func GoToPosition(pos PlaylistPosition) GoTo {
	return GoTo{position: pos}
}

func (g GoTo) MarshalJSON() ([]byte, error) {
	if g.relative != "" {
		return json.Marshal(g.relative)
	}
	return json.Marshal(int(g.position))
}

func (g GoTo) String() string {
	if g.relative != "" {
		return g.relative
	}
	return fmt.Sprintf("position %d", g.position)
}

// Window is a GUI window name accepted by GUI.ActivateWindow
type Window string

const (
	WindowHome            Window = "home"
	WindowFullscreenVideo Window = "fullscreenvideo"
	WindowVideoPlaylist   Window = "videoplaylist"
)

// ActivePlayer is an entry of Player.GetActivePlayers
type ActivePlayer struct {
	PlayerID   PlayerID `json:"playerid"`
	Type       string   `json:"type"`
	PlayerType string   `json:"playertype"`
}

// PlayerInfo is an entry of Player.GetPlayers
type PlayerInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PlaysAudio bool   `json:"playsaudio"`
	PlaysVideo bool   `json:"playsvideo"`
}
