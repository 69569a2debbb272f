package config

import (
	"path"
	"strings"
)

/* ─────────────  Station Data  ───────────── */

// Source is one stream rendition of the station. Sources are tried in order.
type Source struct {
	URL  string `mapstructure:"url"`
	Type string `mapstructure:"type"` // "audio/ogg", "audio/mpeg" or "audio/wav"; guessed from the URL when empty
}

type Station struct {
	Name    string   `mapstructure:"name"`
	Tagline string   `mapstructure:"tagline"`
	Link    string   `mapstructure:"link"`
	Sources []Source `mapstructure:"sources"`
}

var defaultStation = Station{
	Name:    "Radio Spaz",
	Tagline: "RADIO STREAM",
	Link:    "https://radio.spaz.org/",
	Sources: []Source{
		{URL: "https://radio.spaz.org:8060/radio.ogg?type=.ogg", Type: "audio/ogg"},
		{URL: "https://radio.spaz.org:8060/radio", Type: "audio/mpeg"},
	},
}

// MediaType returns the declared type or a guess based on the URL.
func (s Source) MediaType() string {
	if s.Type != "" {
		return s.Type
	}
	u := strings.ToLower(s.URL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch path.Ext(u) {
	case ".ogg", ".oga", ".opus":
		return "audio/ogg"
	case ".wav":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// Key is the last path element of the first source, e.g. "radio.ogg".
func (s Station) Key() string {
	if len(s.Sources) == 0 {
		return strings.ToLower(s.Name)
	}
	u := s.Sources[0].URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u[strings.LastIndex(u, "/")+1:]
}
