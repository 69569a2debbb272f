package presence

import (
	"errors"
	"testing"

	"github.com/babycommando/rich-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/babycommando/spazradio-cli/internal/nowplaying"
)

type fakeRPC struct {
	logins     []string
	logouts    int
	activities []client.Activity
	loginErr   error
}

func stub(t *testing.T) *fakeRPC {
	t.Helper()
	f := &fakeRPC{}
	prevLogin, prevLogout, prevSet := login, logout, setActivity
	login = func(id string) error {
		f.logins = append(f.logins, id)
		return f.loginErr
	}
	logout = func() { f.logouts++ }
	setActivity = func(a client.Activity) error {
		f.activities = append(f.activities, a)
		return nil
	}
	t.Cleanup(func() { login, logout, setActivity = prevLogin, prevLogout, prevSet })
	return f
}

var station = config.Station{Name: "Spaz Radio", Link: "https://spaz.org/radio"}

func TestConnectDisabled(t *testing.T) {
	f := stub(t)
	p := Connect("", station)
	assert.Nil(t, p)
	assert.Empty(t, f.logins)

	// A nil presence is inert.
	p.Playing(nowplaying.StreamMetadata{Title: "x"})
	p.Clear()
	p.Close()
	assert.Empty(t, f.activities)
	assert.Zero(t, f.logouts)
}

func TestConnectLoginFailure(t *testing.T) {
	f := stub(t)
	f.loginErr = errors.New("no discord")
	assert.Nil(t, Connect("123", station))
	assert.Equal(t, []string{"123"}, f.logins)
}

func TestPlayingPublishesOncePerTrack(t *testing.T) {
	f := stub(t)
	p := Connect("123", station)
	require.NotNil(t, p)

	meta := nowplaying.StreamMetadata{Artist: "Autechre", Title: "Gantz Graf", Listeners: 3}
	p.Playing(meta)
	p.Playing(meta)
	require.Len(t, f.activities, 1)

	act := f.activities[0]
	assert.EqualValues(t, activityListening, act.Type)
	assert.Equal(t, "Listening to Spaz Radio", act.Details)
	assert.Equal(t, "Autechre", act.State)
	assert.Equal(t, "Gantz Graf", act.LargeText)
	require.NotNil(t, act.Timestamps)
	require.Len(t, act.Buttons, 1)
	assert.Equal(t, "https://spaz.org/radio", act.Buttons[0].Url)

	p.Playing(nowplaying.StreamMetadata{Artist: "Autechre", Title: "Parhelic Triangle"})
	require.Len(t, f.activities, 2)
	assert.True(t, f.activities[1].Timestamps.Start.Equal(*act.Timestamps.Start))
}

func TestClearAndClose(t *testing.T) {
	f := stub(t)
	p := Connect("123", station)
	require.NotNil(t, p)

	p.Clear()
	assert.Empty(t, f.activities, "nothing to clear before playing")

	p.Playing(nowplaying.StreamMetadata{})
	assert.Equal(t, nowplaying.Placeholder, f.activities[0].LargeText)

	p.Close()
	require.Len(t, f.activities, 2)
	assert.Equal(t, client.Activity{}, f.activities[1])
	assert.Equal(t, 1, f.logouts)
}
