package nowplaying

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrParse = errors.New("now playing: no metadata in payload")

var (
	titleRe     = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	artistRe    = regexp.MustCompile(`"artist"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	listenersRe = regexp.MustCompile(`"listeners"\s*:\s*"?(\d+)"?`)
)

// count accepts a JSON number or a numeric string.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*c = count(f)
	return nil
}

type mount struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	CurrentSong string `json:"current_song"`
	Listeners   count  `json:"listeners"`
}

type payload struct {
	Mounts    map[string]mount `json:"mounts"`
	Playing   *string          `json:"playing"`
	Title     *string          `json:"title"`
	Artist    string           `json:"artist"`
	Listeners count            `json:"listeners"`
}

// Parse reads a now-playing document. text may be bare JSON or wrapped in a
// JSONP call like `parseMusic({...});`. The entry for mountPath wins; a bare
// object with title or playing is accepted next; as a last resort the fields
// are pulled out of the raw text.
func Parse(text, mountPath string) (StreamMetadata, error) {
	if obj, ok := extractObject(text); ok {
		var p payload
		if err := json.Unmarshal([]byte(obj), &p); err == nil {
			if m, ok := p.Mounts[mountPath]; ok {
				title := firstNonEmpty(m.Title, m.CurrentSong, defaultTitle)
				return newMetadata(title, m.Artist, int(m.Listeners)), nil
			}
			if p.Mounts == nil {
				switch {
				case p.Title != nil:
					return newMetadata(*p.Title, p.Artist, int(p.Listeners)), nil
				case p.Playing != nil:
					return newMetadata(firstNonEmpty(*p.Playing, "Radio Spaz"), p.Artist, int(p.Listeners)), nil
				}
			}
		}
	}
	return parseLoose(text)
}

func parseLoose(text string) (StreamMetadata, error) {
	tm := titleRe.FindStringSubmatch(text)
	if tm == nil {
		return StreamMetadata{}, ErrParse
	}
	var artist string
	if am := artistRe.FindStringSubmatch(text); am != nil {
		artist = unescape(am[1])
	}
	var listeners int
	if lm := listenersRe.FindStringSubmatch(text); lm != nil {
		listeners, _ = strconv.Atoi(lm[1])
	}
	return newMetadata(unescape(tm[1]), artist, listeners), nil
}

// extractObject returns the text between the first '{' and the last '}'.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// unescape resolves JSON string escapes, keeping the raw text when it is not valid JSON.
func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
