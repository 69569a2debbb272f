package schedule

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

type Status int

const (
	StatusLoading Status = iota
	StatusLoaded
	StatusFailed
)

// State is exactly one of loading, loaded (possibly empty) or failed.
type State struct {
	Status Status
	Items  []Item
	Err    error
}

func (s State) Loading() bool { return s.Status == StatusLoading }

// Reason is the failure message, empty unless failed.
func (s State) Reason() string {
	if s.Status != StatusFailed || s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// Loader fetches once and publishes Loading followed by the outcome. After
// Stop returns nothing more is published and the request is aborted.
type Loader struct {
	fetcher Fetcher

	mu      sync.Mutex
	mounted bool
	cancel  context.CancelFunc
	updates chan State
}

func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f, updates: make(chan State, 2)}
}

// Start kicks off the fetch. The channel is closed once the loader is done.
func (l *Loader) Start(parent context.Context) <-chan State {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	l.mounted = true
	l.cancel = cancel
	l.mu.Unlock()

	l.publish(State{Status: StatusLoading})
	go l.run(ctx)
	return l.updates
}

func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mounted = false
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Loader) run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		close(l.updates)
		l.mu.Unlock()
	}()

	items, err := l.fetcher.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Schedule unavailable")
		l.publish(State{Status: StatusFailed, Err: err})
		return
	}
	log.Debug().Int("shows", len(items)).Msg("Schedule loaded")
	l.publish(State{Status: StatusLoaded, Items: items})
}

func (l *Loader) publish(s State) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return false
	}
	l.updates <- s
	return true
}
