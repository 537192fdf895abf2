package control

import "github.com/PizzaHomicide/kodicast/internal/kodi"

// Status is the playback state published to listeners
type Status struct {
	// Started is false until Kodi has reported the first playback start
	Started bool
	// Position is the current playlist entry, kodi.NoPosition unless several items are playing
	Position       kodi.PlaylistPosition
	PlaylistLength int
	Title          string
	Time           *kodi.GlobalTime
	TotalTime      *kodi.GlobalTime
	Percentage     float64
	Paused         bool
	// Waiting is set while a stop is being waited out in case the next playlist entry starts
	Waiting bool
}

// statusProperties are the properties fetched whenever the status is refreshed
var statusProperties = []kodi.PropertyName{
	kodi.PropCurrentVideoStream,
	kodi.PropPosition,
	kodi.PropPlaylistID,
	kodi.PropTime,
	kodi.PropTotalTime,
	kodi.PropPercentage,
	kodi.PropSpeed,
}

func (s *Status) applyProperties(props kodi.PlayerProperties, usePlaylist bool) {
	if usePlaylist {
		s.Position = props.Position
	}
	s.Time = props.Time
	s.TotalTime = props.TotalTime
	s.Percentage = props.Percentage
	s.Paused = props.Speed == 0
}

func (s *Status) applySeek(res kodi.SeekResult) {
	if res.Time != nil {
		s.Time = res.Time
	}
	if res.TotalTime != nil {
		s.TotalTime = res.TotalTime
	}
	s.Percentage = res.Percentage
}
