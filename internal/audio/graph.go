package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

var ErrNoOutput = errors.New("audio: output not available")

type ContextState int

const (
	Suspended ContextState = iota
	Running
)

func (s ContextState) String() string {
	if s == Running {
		return "running"
	}
	return "suspended"
}

// Output is the sound device. Speaker is the real one.
type Output interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
}

// Speaker plays through the beep speaker package.
type Speaker struct{}

func (Speaker) Init(sr beep.SampleRate, bufferSize int) error { return speaker.Init(sr, bufferSize) }
func (Speaker) Play(s ...beep.Streamer)                      { speaker.Play(s...) }
func (Speaker) Lock()                                         { speaker.Lock() }
func (Speaker) Unlock()                                       { speaker.Unlock() }

// Sink accepts the decoded stream of a media element.
type Sink interface {
	SampleRate() beep.SampleRate
	Connect(s beep.Streamer, done func(error))
	Disconnect()
}

// Graph is source slot -> analyser -> ctrl -> output. The output keeps pulling
// from it for the rest of the process, so it is built once and never torn down.
type Graph struct {
	out      Output
	rate     beep.SampleRate
	slot     *slot
	analyser *Analyser
	ctrl     *beep.Ctrl
}

// NewGraph initialises the output and wires the graph into it. The graph starts suspended.
func NewGraph(out Output, rate beep.SampleRate, buffer time.Duration) (*Graph, error) {
	if out == nil {
		return nil, ErrNoOutput
	}
	if err := out.Init(rate, rate.N(buffer)); err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}

	g := &Graph{out: out, rate: rate, slot: &slot{}}
	g.analyser = NewAnalyser(g.slot, FFTSize)
	g.ctrl = &beep.Ctrl{Streamer: g.analyser, Paused: true}
	out.Play(g.ctrl)
	return g, nil
}

func (g *Graph) SampleRate() beep.SampleRate { return g.rate }

// Analyser returns the read-only analysis handle.
func (g *Graph) Analyser() Analysis { return g.analyser }

func (g *Graph) State() ContextState {
	g.out.Lock()
	defer g.out.Unlock()
	if g.ctrl.Paused {
		return Suspended
	}
	return Running
}

func (g *Graph) Resume() {
	g.out.Lock()
	g.ctrl.Paused = false
	g.out.Unlock()
}

func (g *Graph) Suspend() {
	g.out.Lock()
	g.ctrl.Paused = true
	g.out.Unlock()
}

// Connect replaces the current source. done runs once, on its own goroutine,
// when s is drained or fails; it does not run for a source replaced by
// Connect or Disconnect.
func (g *Graph) Connect(s beep.Streamer, done func(error)) {
	g.out.Lock()
	g.slot.src, g.slot.done = s, done
	g.out.Unlock()
}

func (g *Graph) Disconnect() {
	g.Connect(nil, nil)
}

// slot plays its source or silence. It never ends.
type slot struct {
	src  beep.Streamer
	done func(error)
}

func (s *slot) Stream(samples [][2]float64) (int, bool) {
	n := 0
	if s.src != nil {
		var ok bool
		n, ok = s.src.Stream(samples)
		if !ok || n < len(samples) {
			err := s.src.Err()
			if done := s.done; done != nil {
				go done(err)
			}
			s.src, s.done = nil, nil
		}
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (s *slot) Err() error { return nil }
