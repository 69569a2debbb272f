// Package ui is the bubbletea shell: control bar, visualizer and schedule panel.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/babycommando/spazradio-cli/internal/audio"
	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/babycommando/spazradio-cli/internal/nowplaying"
	"github.com/babycommando/spazradio-cli/internal/playback"
	"github.com/babycommando/spazradio-cli/internal/presence"
	"github.com/babycommando/spazradio-cli/internal/schedule"
	"github.com/babycommando/spazradio-cli/internal/visualizer"
)

// Player is the playback controller as seen by the shell.
type Player interface {
	Toggle(ctx context.Context) (playback.State, error)
	Pause()
	State() playback.State
	Subscribe(fn func(audio.Analysis)) func()
	HandleEvent(audio.Event)
}

type Options struct {
	Station config.Station
	Player  Player
	// Events reports streams that stop on their own. May be nil.
	Events <-chan audio.Event

	Metadata nowplaying.Fetcher
	Interval time.Duration
	// Callbacks is closed on quit when the JSONP strategy is in use.
	Callbacks *nowplaying.Callbacks

	Schedule schedule.Fetcher
	Presence *presence.Presence

	Mode  visualizer.Mode
	FPS   int
	Color string
}

/* ─────────────  messages  ───────────── */

type (
	playbackMsg struct {
		state playback.State
		err   error
	}
	analyserMsg struct {
		analysis audio.Analysis
	}
	mediaEventMsg struct {
		event audio.Event
	}
	scheduleMsg struct {
		id    int
		state schedule.State
		done  bool
		ch    <-chan schedule.State
	}
)

/* ─────────────  model  ───────────── */

type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	state playback.State
	busy  bool

	poller *nowplaying.Poller

	loader     *schedule.Loader
	loaderID   int
	scheduleCh <-chan schedule.State
	sched      schedule.State

	canvas      *visualizer.Canvas
	renderer    *visualizer.Renderer
	loop        *visualizer.Loop
	analysis    chan audio.Analysis
	unsubscribe func()

	width, height int
	quitting      bool
}

func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	canvas := visualizer.NewCanvas(0, 0, opts.Color)
	m := Model{
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		state:    opts.Player.State(),
		poller:   nowplaying.NewPoller(opts.Metadata, opts.Interval),
		canvas:   canvas,
		renderer: visualizer.NewRenderer(canvas, opts.Mode),
		loop:     visualizer.NewLoop(opts.FPS),
		analysis: make(chan audio.Analysis, 1),
	}

	ch := m.analysis
	m.unsubscribe = opts.Player.Subscribe(func(a audio.Analysis) {
		select {
		case ch <- a:
		default:
		}
	})
	m.startSchedule()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.poller.Init(),
		waitSchedule(m.loaderID, m.scheduleCh),
		waitAnalysis(m.analysis),
		waitMediaEvent(m.opts.Events),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.canvas.Resize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Play):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, togglePlayback(m.ctx, m.opts.Player)
		case key.Matches(msg, m.keys.Vis):
			m.renderer.SetMode(m.renderer.Mode().Next())
			return m, m.restartLoop()
		case key.Matches(msg, m.keys.Schedule):
			return m, m.startSchedule()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.layout()
		}
		return m, nil

	case playbackMsg:
		m.busy = false
		m.state = msg.state
		m.syncPresence()
		m.layout()
		return m, nil

	case mediaEventMsg:
		m.opts.Player.HandleEvent(msg.event)
		m.state = m.opts.Player.State()
		m.syncPresence()
		m.layout()
		return m, waitMediaEvent(m.opts.Events)

	case analyserMsg:
		m.renderer.SetSource(msg.analysis)
		return m, tea.Batch(m.restartLoop(), waitAnalysis(m.analysis))

	case visualizer.FrameMsg:
		ok, next := m.loop.Next(msg)
		if ok {
			m.renderer.Frame()
		}
		return m, next

	case nowplaying.MetadataMsg:
		cmd := m.poller.Update(msg)
		m.syncPresence()
		m.layout()
		return m, cmd

	case scheduleMsg:
		if msg.id != m.loaderID || msg.done {
			return m, nil
		}
		m.sched = msg.state
		m.layout()
		return m, waitSchedule(msg.id, msg.ch)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

/* ─────────────  helpers  ───────────── */

// startSchedule replaces the running loader with a fresh one.
func (m *Model) startSchedule() tea.Cmd {
	if m.loader != nil {
		m.loader.Stop()
	}
	m.loaderID++
	m.loader = schedule.NewLoader(m.opts.Schedule)
	m.scheduleCh = m.loader.Start(m.ctx)
	m.sched = schedule.State{Status: schedule.StatusLoading}
	return waitSchedule(m.loaderID, m.scheduleCh)
}

// restartLoop starts a new frame loop for the current source and mode.
func (m *Model) restartLoop() tea.Cmd {
	return m.loop.Restart(m.renderer.Active())
}

// layout keeps the trace clear of the control bar and the schedule panel.
func (m *Model) layout() {
	top := lipgloss.Height(m.header())
	bottom := lipgloss.Height(m.footer())
	m.renderer.SetMargins(float64(top*visualizer.CellHeight), float64(bottom*visualizer.CellHeight))
}

func (m *Model) syncPresence() {
	if m.state == playback.StatePlaying {
		m.opts.Presence.Playing(m.poller.Metadata())
		return
	}
	m.opts.Presence.Clear()
}

func (m *Model) shutdown() {
	m.quitting = true
	m.loop.Stop()
	if m.loader != nil {
		m.loader.Stop()
	}
	m.poller.Stop()
	if m.opts.Callbacks != nil {
		m.opts.Callbacks.Close()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.cancel()
	m.opts.Player.Pause()
	m.opts.Presence.Close()
	log.Debug().Msg("Shut down")
}

/* ─────────────  commands  ───────────── */

func togglePlayback(ctx context.Context, p Player) tea.Cmd {
	return func() tea.Msg {
		st, err := p.Toggle(ctx)
		return playbackMsg{state: st, err: err}
	}
}

func waitAnalysis(ch <-chan audio.Analysis) tea.Cmd {
	return func() tea.Msg {
		return analyserMsg{analysis: <-ch}
	}
}

func waitMediaEvent(ch <-chan audio.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return mediaEventMsg{event: ev}
	}
}

func waitSchedule(id int, ch <-chan schedule.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		return scheduleMsg{id: id, state: st, done: !ok, ch: ch}
	}
}
