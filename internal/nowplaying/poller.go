package nowplaying

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

// MetadataMsg carries one poll result.
type MetadataMsg struct {
	Meta StreamMetadata
	Err  error
}

// Poller drives the fetcher from the bubbletea loop: one request at a time,
// the next one scheduled when the previous result arrives.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	meta    StreamMetadata
	loaded  bool
	stopped bool
}

func NewPoller(f Fetcher, interval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{fetcher: f, interval: interval, ctx: ctx, cancel: cancel}
}

// Init fetches right away.
func (p *Poller) Init() tea.Cmd {
	return p.fetchCmd()
}

// Update applies a result and schedules the next poll. Failures keep the
// previous metadata.
func (p *Poller) Update(msg MetadataMsg) tea.Cmd {
	if p.stopped {
		return nil
	}
	if msg.Err != nil {
		log.Debug().Err(msg.Err).Msg("Now playing poll failed")
	} else {
		p.meta, p.loaded = msg.Meta, true
	}
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return p.fetch()
	})
}

// Metadata returns the latest metadata, or the placeholder before the first success.
func (p *Poller) Metadata() StreamMetadata {
	if !p.loaded {
		return StreamMetadata{Title: Placeholder}
	}
	return p.meta
}

func (p *Poller) Loaded() bool { return p.loaded }

// Stop cancels the request in flight; later results are ignored.
func (p *Poller) Stop() {
	p.stopped = true
	p.cancel()
}

func (p *Poller) fetchCmd() tea.Cmd {
	return func() tea.Msg { return p.fetch() }
}

func (p *Poller) fetch() tea.Msg {
	meta, err := p.fetcher.FetchNowPlaying(p.ctx)
	return MetadataMsg{Meta: meta, Err: err}
}
