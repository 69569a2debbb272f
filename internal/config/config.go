package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const AppName = "spazradio"

type Config struct {
	Station    Station          `mapstructure:"station"`
	NowPlaying NowPlayingConfig `mapstructure:"now_playing"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Visualizer VisualizerConfig `mapstructure:"visualizer"`
	Presence   PresenceConfig   `mapstructure:"presence"`
	Log        LogConfig        `mapstructure:"log"`
}

type NowPlayingConfig struct {
	URL       string        `mapstructure:"url"`
	Strategy  string        `mapstructure:"strategy"` // "json" or "jsonp"
	Mount     string        `mapstructure:"mount"`
	StatusURL string        `mapstructure:"status_url"`
	Interval  time.Duration `mapstructure:"interval"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Grace     time.Duration `mapstructure:"grace"`
}

type ScheduleConfig struct {
	URL      string        `mapstructure:"url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Timezone string        `mapstructure:"timezone"`
}

type AudioConfig struct {
	SampleRate int           `mapstructure:"sample_rate"`
	Buffer     time.Duration `mapstructure:"buffer"`
	Attempts   int           `mapstructure:"attempts"`
}

type VisualizerConfig struct {
	Mode  string `mapstructure:"mode"` // "oscilloscope", "spectrum" or "off"
	FPS   int    `mapstructure:"fps"`
	Color string `mapstructure:"color"`
}

type PresenceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	ClientID string `mapstructure:"client_id"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// SetDefaults registers every key so that env overrides work for all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("station.name", defaultStation.Name)
	v.SetDefault("station.tagline", defaultStation.Tagline)
	v.SetDefault("station.link", defaultStation.Link)
	sources := make([]map[string]any, 0, len(defaultStation.Sources))
	for _, s := range defaultStation.Sources {
		sources = append(sources, map[string]any{"url": s.URL, "type": s.Type})
	}
	v.SetDefault("station.sources", sources)

	v.SetDefault("now_playing.url", "https://radio.spaz.org/streams/playing-jsonp")
	v.SetDefault("now_playing.strategy", "json")
	v.SetDefault("now_playing.mount", "/radio")
	v.SetDefault("now_playing.status_url", "https://radio.spaz.org:8060/status-json.xsl")
	v.SetDefault("now_playing.interval", 15*time.Second)
	v.SetDefault("now_playing.timeout", 5*time.Second)
	v.SetDefault("now_playing.grace", time.Second)

	v.SetDefault("schedule.url", "https://radio.spaz.org/djdash/droid")
	v.SetDefault("schedule.timeout", 8*time.Second)
	v.SetDefault("schedule.timezone", "Local")

	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.buffer", 100*time.Millisecond)
	v.SetDefault("audio.attempts", 2)

	v.SetDefault("visualizer.mode", "oscilloscope")
	v.SetDefault("visualizer.fps", 30)
	v.SetDefault("visualizer.color", "#00FF00")

	v.SetDefault("presence.enabled", false)
	v.SetDefault("presence.client_id", "")

	v.SetDefault("log.file", filepath.Join(os.TempDir(), AppName+".log"))
	v.SetDefault("log.level", "info")
}

// Load reads the optional config file and the SPAZRADIO_* environment on top of the defaults.
// An explicit file that cannot be read is an error; a missing default file is not.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, AppName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Station.Sources) == 0 {
		return errors.New("config: station.sources must not be empty")
	}
	switch c.NowPlaying.Strategy {
	case "json", "jsonp":
	default:
		return fmt.Errorf("config: unknown now_playing.strategy %q", c.NowPlaying.Strategy)
	}
	if c.NowPlaying.Interval < 10*time.Second || c.NowPlaying.Interval > 15*time.Second {
		return fmt.Errorf("config: now_playing.interval %v outside 10s..15s", c.NowPlaying.Interval)
	}
	if c.Schedule.Timeout <= 0 {
		return errors.New("config: schedule.timeout must be positive")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("config: audio.sample_rate must be positive")
	}
	if c.Visualizer.FPS <= 0 {
		return errors.New("config: visualizer.fps must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves schedule.timezone ("Local", "UTC" or an IANA name).
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: schedule.timezone: %w", err)
	}
	return loc, nil
}
