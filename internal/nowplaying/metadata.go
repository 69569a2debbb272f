// Package nowplaying polls the station for the current track and listener count.
package nowplaying

import (
	"strconv"
	"strings"
)

const (
	// Placeholder is shown until the first successful poll.
	Placeholder = "Connecting..."

	separator    = " - "
	defaultTitle = "Spaz Radio"
)

type StreamMetadata struct {
	Title     string
	Artist    string
	Listeners int
}

// NowPlaying is the single display line: "artist - title", the title alone,
// or "Loading..." when both are empty.
func (m StreamMetadata) NowPlaying() string {
	if m.Artist != "" {
		return m.Artist + separator + m.Title
	}
	if m.Title != "" {
		return m.Title
	}
	return "Loading..."
}

// ListenersLine is empty when there is nothing worth showing.
func (m StreamMetadata) ListenersLine() string {
	if m.Listeners <= 0 {
		return ""
	}
	return "Listeners: " + strconv.Itoa(m.Listeners)
}

// newMetadata splits "Artist - Track" titles when no artist is known. Only the
// first separator splits; the rest stays in the title.
func newMetadata(title, artist string, listeners int) StreamMetadata {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if artist == "" && strings.Contains(title, separator) {
		parts := strings.Split(title, separator)
		artist = strings.TrimSpace(parts[0])
		title = strings.TrimSpace(strings.Join(parts[1:], separator))
	}
	if listeners < 0 {
		listeners = 0
	}
	return StreamMetadata{Title: title, Artist: artist, Listeners: listeners}
}
