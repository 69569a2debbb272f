package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babycommando/spazradio-cli/internal/audio"
	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/babycommando/spazradio-cli/internal/nowplaying"
	"github.com/babycommando/spazradio-cli/internal/playback"
	"github.com/babycommando/spazradio-cli/internal/schedule"
	"github.com/babycommando/spazradio-cli/internal/visualizer"
)

type fakePlayer struct {
	state   playback.State
	toggles int
	pauses  int
	events  []audio.Event
	unsubs  int
}

func (p *fakePlayer) Toggle(context.Context) (playback.State, error) {
	p.toggles++
	if p.state == playback.StatePlaying {
		p.state = playback.StatePaused
	} else {
		p.state = playback.StatePlaying
	}
	return p.state, nil
}

func (p *fakePlayer) Pause()                { p.pauses++; p.state = playback.StatePaused }
func (p *fakePlayer) State() playback.State { return p.state }

func (p *fakePlayer) Subscribe(func(audio.Analysis)) func() {
	return func() { p.unsubs++ }
}

func (p *fakePlayer) HandleEvent(ev audio.Event) {
	p.events = append(p.events, ev)
	p.state = playback.StatePaused
}

type scheduleFunc func(context.Context) ([]schedule.Item, error)

func (f scheduleFunc) Fetch(ctx context.Context) ([]schedule.Item, error) { return f(ctx) }

type metadataFunc func(context.Context) (nowplaying.StreamMetadata, error)

func (f metadataFunc) FetchNowPlaying(ctx context.Context) (nowplaying.StreamMetadata, error) {
	return f(ctx)
}

type flatAnalysis struct{}

func (flatAnalysis) FFTSize() int { return 64 }

func (flatAnalysis) ByteTimeDomainData(dst []byte) {
	for i := range dst {
		dst[i] = byte(100 + i%50)
	}
}

func (flatAnalysis) ByteFrequencyData(dst []byte) {
	for i := range dst {
		dst[i] = 200
	}
}

var shows = []schedule.Item{
	{DatePart: "Mon 10-19", StartTime: "09:00p", EndTime: "11:00p", ShowName: "Dub Session"},
	{DatePart: "Tue 10-20", StartTime: "12:00a", EndTime: "02:00a", ShowName: "Noise & Friends"},
}

func newTestModel(t *testing.T, mode visualizer.Mode, sched schedule.Fetcher) (Model, *fakePlayer) {
	t.Helper()
	if sched == nil {
		sched = scheduleFunc(func(context.Context) ([]schedule.Item, error) { return shows, nil })
	}
	p := &fakePlayer{state: playback.StateIdle}
	m := New(Options{
		Station: config.Station{Name: "Spaz Radio", Tagline: "RADIO STREAM"},
		Player:  p,
		Metadata: metadataFunc(func(context.Context) (nowplaying.StreamMetadata, error) {
			return nowplaying.StreamMetadata{}, errors.New("offline")
		}),
		Interval:  time.Hour,
		Callbacks: nowplaying.NewCallbacks(time.Second),
		Schedule:  sched,
		Mode:      mode,
		FPS:       1000,
		Color:     "#00FF00",
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	return m, p
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// drainSchedule feeds the loader's updates into the model until it is done.
func drainSchedule(t *testing.T, m Model) Model {
	t.Helper()
	for {
		msg := waitSchedule(m.loaderID, m.scheduleCh)().(scheduleMsg)
		if msg.done {
			return m
		}
		m = update(t, m, msg)
	}
}

func TestInitialView(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, nil)

	view := m.View()
	assert.Contains(t, view, "Spaz Radio")
	assert.Contains(t, view, nowplaying.Placeholder)
	assert.Contains(t, view, "Loading schedule...")
	assert.Contains(t, view, "VIS OSCILLOSCOPE")
	assert.Contains(t, view, "RADIO STREAM", "backdrop until an analyser exists")
}

func TestScheduleStates(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, nil)
	_, before := m.renderer.Margins()

	m = drainSchedule(t, m)
	view := m.View()
	assert.NotContains(t, view, "Loading schedule...")
	assert.Contains(t, view, "Upcoming Shows")
	assert.Contains(t, view, "Mon 10-19 09:00p – 11:00p — Dub Session")
	assert.Contains(t, view, "Noise & Friends")

	_, after := m.renderer.Margins()
	assert.Greater(t, after, before, "bottom margin follows the panel height")
	assert.Equal(t, float64(len(splitLines(m.footer()))*visualizer.CellHeight), after)
}

func TestScheduleEmptyAndFailed(t *testing.T) {
	empty := scheduleFunc(func(context.Context) ([]schedule.Item, error) { return nil, nil })
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, empty)
	m = drainSchedule(t, m)
	assert.Contains(t, m.View(), "No upcoming shows found.")

	failing := scheduleFunc(func(context.Context) ([]schedule.Item, error) {
		return nil, &schedule.HTTPStatusError{Code: 503}
	})
	m, _ = newTestModel(t, visualizer.ModeOscilloscope, failing)
	m = drainSchedule(t, m)
	view := m.View()
	assert.Contains(t, view, "Schedule unavailable")
	assert.NotContains(t, view, "No upcoming shows found.")
}

func TestScheduleReloadDropsStaleUpdates(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, nil)
	oldID, oldCh := m.loaderID, m.scheduleCh

	m = update(t, m, keyMsg("r"))
	require.NotEqual(t, oldID, m.loaderID)

	stale := scheduleMsg{id: oldID, state: schedule.State{Status: schedule.StatusFailed, Err: errors.New("late")}, ch: oldCh}
	m = update(t, m, stale)
	assert.True(t, m.sched.Loading())

	m = drainSchedule(t, m)
	assert.Equal(t, schedule.StatusLoaded, m.sched.Status)
}

func TestTogglePlayback(t *testing.T) {
	m, p := newTestModel(t, visualizer.ModeOscilloscope, nil)

	next, cmd := m.Update(keyMsg(" "))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), "CONNECTING")

	// A second press while connecting is ignored.
	_, again := m.Update(keyMsg("enter"))
	assert.Nil(t, again)

	m = update(t, m, cmd())
	assert.Equal(t, 1, p.toggles)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "▶ Spaz Radio")
	assert.Contains(t, m.View(), "LIVE")
}

func TestMediaEventPauses(t *testing.T) {
	m, p := newTestModel(t, visualizer.ModeOscilloscope, nil)
	p.state = playback.StatePlaying
	m.state = playback.StatePlaying

	next, cmd := m.Update(mediaEventMsg{event: audio.Event{Kind: audio.Ended}})
	m = next.(Model)
	assert.Nil(t, cmd, "no events channel to wait on")
	require.Len(t, p.events, 1)
	assert.Equal(t, playback.StatePaused, m.state)
	assert.Contains(t, m.View(), "PAUSED")
}

func TestMetadataShown(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, nil)
	m = update(t, m, nowplaying.MetadataMsg{Meta: nowplaying.StreamMetadata{Artist: "Coil", Title: "Ostia", Listeners: 12}})

	view := m.View()
	assert.Contains(t, view, "Coil - Ostia")
	assert.Contains(t, view, "Listeners: 12")

	// A failed poll keeps what was there.
	m = update(t, m, nowplaying.MetadataMsg{Err: errors.New("timeout")})
	assert.Contains(t, m.View(), "Coil - Ostia")
}

func TestVisualizerFrames(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOscilloscope, nil)
	m = update(t, m, analyserMsg{analysis: flatAnalysis{}})
	require.True(t, m.renderer.Active())
	require.True(t, m.loop.Running())

	// Cycling the mode restarts the loop; its first tick draws a frame.
	next, cmd := m.Update(keyMsg("v"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, visualizer.ModeSpectrum, m.renderer.Mode())

	frame, ok := cmd().(visualizer.FrameMsg)
	require.True(t, ok)
	next, after := m.Update(frame)
	m = next.(Model)
	assert.NotNil(t, after)
	assert.Positive(t, m.canvas.DrawCalls())
	assert.NotContains(t, m.View(), "RADIO STREAM")
}

func TestVisualizerOffDrawsNothing(t *testing.T) {
	m, _ := newTestModel(t, visualizer.ModeOff, nil)
	m = update(t, m, analyserMsg{analysis: flatAnalysis{}})

	assert.False(t, m.loop.Running())
	assert.Zero(t, m.canvas.DrawCalls())
	assert.Contains(t, m.View(), "RADIO STREAM")
	assert.Contains(t, m.View(), "VIS OFF")

	// Back on: the loop starts again.
	next, cmd := m.Update(keyMsg("v"))
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.True(t, m.loop.Running())
}

func TestQuitTearsDown(t *testing.T) {
	hang := scheduleFunc(func(ctx context.Context) ([]schedule.Item, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m, p := newTestModel(t, visualizer.ModeOscilloscope, hang)
	cb := m.opts.Callbacks
	_, err := cb.Register("update_meta", func(string) {})
	require.NoError(t, err)

	next, cmd := m.Update(keyMsg("q"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	assert.Equal(t, 1, p.pauses)
	assert.Equal(t, 1, p.unsubs)
	assert.Zero(t, cb.Len())
	assert.Error(t, m.ctx.Err())
	assert.Empty(t, m.View())

	// Nothing is published by the stopped loader.
	m = drainSchedule(t, m)
	assert.True(t, m.sched.Loading())
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func splitLines(s string) []string {
	out := []string{}
	start := 0
	for i := range len(s) {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
