package main

import (
	"context"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faiface/beep"
	"github.com/rs/zerolog/log"

	"github.com/babycommando/spazradio-cli/internal/audio"
	"github.com/babycommando/spazradio-cli/internal/config"
	"github.com/babycommando/spazradio-cli/internal/logging"
	"github.com/babycommando/spazradio-cli/internal/nowplaying"
	"github.com/babycommando/spazradio-cli/internal/playback"
	"github.com/babycommando/spazradio-cli/internal/presence"
	"github.com/babycommando/spazradio-cli/internal/schedule"
	"github.com/babycommando/spazradio-cli/internal/ui"
	"github.com/babycommando/spazradio-cli/internal/visualizer"
)

/* ─────────────  wiring  ───────────── */

func run(ctx context.Context, cfg *config.Config) error {
	logFile, err := logging.Setup(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	mode, err := visualizer.ParseMode(cfg.Visualizer.Mode)
	if err != nil {
		return err
	}

	element := audio.NewElement(cfg.Station.Sources, cfg.Audio.Attempts)
	rate := beep.SampleRate(cfg.Audio.SampleRate)
	player := playback.New(element, func() (*audio.Graph, error) {
		return audio.NewGraph(audio.Speaker{}, rate, cfg.Audio.Buffer)
	})

	httpClient := &http.Client{}
	fetcher, callbacks := newFetcher(cfg.NowPlaying, httpClient)

	var pres *presence.Presence
	if cfg.Presence.Enabled {
		if cfg.Presence.ClientID == "" {
			log.Warn().Msg("presence enabled without presence.client_id")
		}
		pres = presence.Connect(cfg.Presence.ClientID, cfg.Station)
	}

	model := ui.New(ui.Options{
		Station:   cfg.Station,
		Player:    player,
		Events:    element.Events(),
		Metadata:  fetcher,
		Interval:  cfg.NowPlaying.Interval,
		Callbacks: callbacks,
		Schedule: &schedule.Client{
			URL:      cfg.Schedule.URL,
			Timeout:  cfg.Schedule.Timeout,
			Location: loc,
			HTTP:     httpClient,
		},
		Presence: pres,
		Mode:     mode,
		FPS:      cfg.Visualizer.FPS,
		Color:    cfg.Visualizer.Color,
	})

	log.Info().
		Str("station", cfg.Station.Name).
		Str("strategy", cfg.NowPlaying.Strategy).
		Str("visualizer", mode.String()).
		Msg("Starting")

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// newFetcher picks the metadata strategy. The callback registry only exists
// for jsonp and is closed by the UI on quit.
func newFetcher(c config.NowPlayingConfig, client *http.Client) (nowplaying.Fetcher, *nowplaying.Callbacks) {
	if c.Strategy == "jsonp" {
		callbacks := nowplaying.NewCallbacks(c.Grace)
		return &nowplaying.JSONPFetcher{
			URL:       c.URL,
			Mount:     c.Mount,
			StatusURL: c.StatusURL,
			Timeout:   c.Timeout,
			Client:    client,
			Callbacks: callbacks,
		}, callbacks
	}
	return &nowplaying.HTTPFetcher{
		URL:       c.URL,
		Mount:     c.Mount,
		StatusURL: c.StatusURL,
		Timeout:   c.Timeout,
		Client:    client,
	}, nil
}
