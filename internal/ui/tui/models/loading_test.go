package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadingDescribesTarget(t *testing.T) {
	tests := []struct {
		names []string
		want  string
	}{
		{names: nil, want: "Casting to kodi.local"},
		{names: []string{"film.mkv"}, want: "Casting film.mkv to kodi.local"},
		{names: []string{"a.mkv", "b.mkv", "c.mkv"}, want: "Casting 3 items to kodi.local"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := NewLoadingModel("kodi.local", tt.names)
			m.Resize(120, 30)
			assert.Equal(t, tt.want, m.target())
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestLoadingShowsCancelKeyAndSlowStart(t *testing.T) {
	m := NewLoadingModel("kodi.local", []string{"film.mkv"})
	m.Resize(120, 30)

	view := m.View()
	assert.Contains(t, view, "Press q to cancel")
	assert.NotContains(t, view, "Waiting for 0s")

	m.startTime = time.Now().Add(-7 * time.Second)
	assert.Contains(t, m.View(), "Waiting for 7s")
}
