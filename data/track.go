package data

import "fmt"

// Tracks are not stored in their own table; an album's track listing lives in
// its release group document.
type Track struct {
	Disc       int    `json:"disc"`
	Position   int    `json:"position"`
	Title      string `json:"title"`
	DurationMS int64  `json:"length"`
	Duration   string `json:"duration"`
}

// FormatDuration renders milliseconds as M:SS.
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0:00"
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
