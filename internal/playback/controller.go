// Package playback owns the media element and the audio graph and exposes
// play/pause to the UI.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/babycommando/spazradio-cli/internal/audio"
	"github.com/rs/zerolog/log"
)

var ErrBusy = errors.New("playback: already starting")

type State int

const (
	StateIdle State = iota
	StateReady
	StateStarting
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateStarting:
		return "CONNECTING"
	case StatePlaying:
		return "LIVE"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Media is the element side: it gets attached to the graph once and then
// started and stopped.
type Media interface {
	Attach(audio.Sink)
	Play(ctx context.Context) error
	Pause()
}

// GraphFactory builds the audio graph. The controller calls it at most once per session.
type GraphFactory func() (*audio.Graph, error)

type Controller struct {
	media    Media
	newGraph GraphFactory

	mu        sync.Mutex
	graph     *audio.Graph
	state     State
	observers map[int]func(audio.Analysis)
	nextID    int
}

func New(media Media, newGraph GraphFactory) *Controller {
	return &Controller{
		media:     media,
		newGraph:  newGraph,
		state:     StateIdle,
		observers: make(map[int]func(audio.Analysis)),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Playing() bool {
	return c.State() == StatePlaying
}

// InitGraph builds the graph and attaches the media to it. It is a no-op once
// a graph exists.
func (c *Controller) InitGraph() error {
	c.mu.Lock()
	if c.graph != nil {
		c.mu.Unlock()
		return nil
	}
	g, err := c.newGraph()
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("audio graph init: %w", err)
	}
	c.graph = g
	c.media.Attach(g)
	if c.state == StateIdle {
		c.state = StateReady
	}
	observers := make([]func(audio.Analysis), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	log.Debug().Int("fft_size", audio.FFTSize).Msg("Audio graph ready")
	for _, fn := range observers {
		fn(g.Analyser())
	}
	return nil
}

// Subscribe registers fn to receive the analyser once the graph exists; fn is
// called right away when it already does. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(audio.Analysis)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	g := c.graph
	c.mu.Unlock()

	if g != nil {
		fn(g.Analyser())
	}
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Toggle pauses when playing and plays otherwise. It returns the resulting state.
func (c *Controller) Toggle(ctx context.Context) (State, error) {
	if c.State() == StatePlaying {
		c.Pause()
		return c.State(), nil
	}
	err := c.Play(ctx)
	return c.State(), err
}

// Play initialises the graph on first use, resumes it when suspended and
// starts the media. Failures are logged and leave the controller not playing.
func (c *Controller) Play(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StatePlaying:
		c.mu.Unlock()
		return nil
	case StateStarting:
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	if err := c.InitGraph(); err != nil {
		log.Error().Err(err).Msg("Audio output unavailable")
		return err
	}

	c.mu.Lock()
	prev := c.state
	c.state = StateStarting
	g := c.graph
	c.mu.Unlock()

	if g.State() == audio.Suspended {
		g.Resume()
	}

	if err := c.media.Play(ctx); err != nil {
		log.Error().Err(err).Msg("Playback failed")
		c.mu.Lock()
		c.state = prev
		c.mu.Unlock()
		return fmt.Errorf("playback: %w", err)
	}

	c.mu.Lock()
	c.state = StatePlaying
	c.mu.Unlock()
	return nil
}

func (c *Controller) Pause() {
	c.media.Pause()
	c.mu.Lock()
	if c.graph != nil {
		c.state = StatePaused
	}
	c.mu.Unlock()
}

// HandleEvent applies an end-of-stream or media error: both leave the controller paused.
func (c *Controller) HandleEvent(ev audio.Event) {
	if ev.Kind == audio.Failed {
		log.Error().Err(ev.Err).Msg("Audio error")
	} else {
		log.Info().Msg("Stream ended")
	}
	c.mu.Lock()
	if c.state == StatePlaying || c.state == StateStarting {
		c.state = StatePaused
	}
	c.mu.Unlock()
}
