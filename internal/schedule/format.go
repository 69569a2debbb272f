package schedule

import (
	"fmt"
	"html"
	"time"
)

// RawShow is one entry of the schedule endpoint.
type RawShow struct {
	StartTimestamp int64  `json:"start_timestamp"` // ms
	EndTimestamp   int64  `json:"end_timestamp"`   // ms
	Name           string `json:"name"`
	URL            string `json:"url"`
}

// Item is a show ready for display.
type Item struct {
	DatePart  string // "Mon 01-02"
	StartTime string // "09:00p"
	EndTime   string
	ShowName  string
}

func (i Item) String() string {
	return fmt.Sprintf("%s %s – %s — %s", i.DatePart, i.StartTime, i.EndTime, i.ShowName)
}

// FormatShowItem renders the show in loc. The date comes from the start time only.
func FormatShowItem(startMs, endMs int64, name string, loc *time.Location) Item {
	start := time.UnixMilli(startMs).In(loc)
	end := time.UnixMilli(endMs).In(loc)

	return Item{
		DatePart:  start.Format("Mon 01-02"),
		StartTime: clock(start),
		EndTime:   clock(end),
		ShowName:  html.UnescapeString(name),
	}
}

// FormatShows maps every show, keeping the source order.
func FormatShows(shows []RawShow, loc *time.Location) []Item {
	items := make([]Item, 0, len(shows))
	for _, s := range shows {
		items = append(items, FormatShowItem(s.StartTimestamp, s.EndTimestamp, s.Name, loc))
	}
	return items
}

// clock is 12-hour zero padded time with a one letter lowercase meridiem: 09:05a, 12:30p.
func clock(t time.Time) string {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	meridiem := "a"
	if t.Hour() >= 12 {
		meridiem = "p"
	}
	return fmt.Sprintf("%02d:%02d%s", h, t.Minute(), meridiem)
}
