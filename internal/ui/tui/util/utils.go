package util

import (
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/mattn/go-runewidth"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		// Check if adding this rune would exceed maxWidth
		if width+charWidth > maxWidth-3 { // Reserve space for "..."
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s // Return as is if it fits
}

// FitString truncates or pads s so it occupies exactly width cells
func FitString(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = TruncateString(s, width)
	}
	return runewidth.FillRight(s, width)
}

// FormatClock renders a playback time, or a placeholder while it is unknown
func FormatClock(t *kodi.GlobalTime) string {
	if t == nil {
		return "-:--:--"
	}
	return t.String()
}
