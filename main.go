package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/babycommando/spazradio-cli/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "Spaz Radio in your terminal",
		Version:      appVersion(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./spazradio.yaml or the user config dir)")
	flags.String("log-file", "", "log file path")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringP("visualizer", "V", "", "visualizer mode: oscilloscope, spectrum or off")
	flags.String("strategy", "", "now playing strategy: json or jsonp")
	flags.String("timezone", "", "schedule timezone, e.g. UTC or Europe/Berlin")
	flags.Bool("presence", false, "publish Discord rich presence")

	for key, flag := range map[string]string{
		"log.file":             "log-file",
		"log.level":            "log-level",
		"visualizer.mode":      "visualizer",
		"now_playing.strategy": "strategy",
		"schedule.timezone":    "timezone",
		"presence.enabled":     "presence",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.AppName, appVersion())
		},
	}
}

func appVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-(no build info)"
	}
	if bi.Main.Version == "" {
		return "unknown-(no version)"
	}
	return bi.Main.Version
}
