// Package presence mirrors what is playing into Discord rich presence.
package presence

import (
	"strings"
	"time"

	"github.com/babycommando/rich-go/client"
	"github.com/rs/zerolog/log"

	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/babycommando/spazradio-cli/internal/nowplaying"
)

// activityListening is the Discord activity type rendered as "Listening to".
const activityListening = 2

// Replaced in tests.
var (
	login       = client.Login
	logout      = client.Logout
	setActivity = client.SetActivity
)

// Presence publishes the current track while playing. A nil *Presence is a
// valid disabled presence.
type Presence struct {
	station config.Station
	since   time.Time
	last    client.Activity
	active  bool
}

// Connect logs into the local Discord client. Failures are logged and
// return nil, leaving presence disabled.
func Connect(clientID string, station config.Station) *Presence {
	if clientID == "" {
		return nil
	}
	if err := login(clientID); err != nil {
		log.Warn().Err(err).Msg("discord rpc unavailable")
		return nil
	}
	return &Presence{station: station}
}

// Playing publishes meta. The start timestamp is kept across track changes
// until Clear.
func (p *Presence) Playing(meta nowplaying.StreamMetadata) {
	if p == nil {
		return
	}
	if !p.active {
		p.since = time.Now()
		p.active = true
	}

	since := p.since
	act := client.Activity{
		Type:       activityListening,
		Details:    "Listening to " + p.station.Name,
		State:      meta.Artist,
		LargeText:  meta.Title,
		LargeImage: "spaz",
		Timestamps: &client.Timestamps{Start: &since},
	}
	if meta.Title == "" {
		act.LargeText = nowplaying.Placeholder
	}
	if link := strings.TrimSpace(p.station.Link); link != "" {
		act.Buttons = []*client.Button{{Label: "Listen to " + p.station.Name, Url: link}}
	}
	if sameActivity(act, p.last) {
		return
	}
	p.last = act
	if err := setActivity(act); err != nil {
		log.Warn().Err(err).Msg("discord rpc error")
	}
}

// Clear removes the activity after a pause.
func (p *Presence) Clear() {
	if p == nil || !p.active {
		return
	}
	p.active = false
	p.last = client.Activity{}
	if err := setActivity(client.Activity{}); err != nil {
		log.Warn().Err(err).Msg("discord rpc error")
	}
}

// Close clears the activity and logs out.
func (p *Presence) Close() {
	if p == nil {
		return
	}
	p.Clear()
	logout()
}

func sameActivity(a, b client.Activity) bool {
	return a.Details == b.Details && a.State == b.State && a.LargeText == b.LargeText &&
		a.Timestamps != nil && b.Timestamps != nil && a.Timestamps.Start.Equal(*b.Timestamps.Start)
}
