package visualizer

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FrameMsg asks for the next frame of loop generation gen.
type FrameMsg struct {
	gen uint64
}

// Loop schedules frames. Restart bumps the generation so ticks from the
// previous run are dropped; an inactive loop schedules nothing.
type Loop struct {
	interval time.Duration
	gen      uint64
	running  bool
}

func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{interval: time.Second / time.Duration(fps)}
}

func (l *Loop) Restart(active bool) tea.Cmd {
	l.gen++
	l.running = active
	if !active {
		return nil
	}
	return l.tick()
}

func (l *Loop) Stop() {
	l.gen++
	l.running = false
}

func (l *Loop) Running() bool { return l.running }

// Next accepts msg when it belongs to the current run and returns the tick for
// the frame after it.
func (l *Loop) Next(msg FrameMsg) (bool, tea.Cmd) {
	if !l.running || msg.gen != l.gen {
		return false, nil
	}
	return true, l.tick()
}

func (l *Loop) tick() tea.Cmd {
	gen := l.gen
	return tea.Tick(l.interval, func(time.Time) tea.Msg {
		return FrameMsg{gen: gen}
	})
}
