package main

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/config"
)

var cfg config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moodboard",
		Short:         "Turn a story idea into a storyboard and a text-to-video prompt",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			setLogLevel(cfg.LogLevel)
			return nil
		},
		RunE: runServe,
	}
	root.AddCommand(newServeCmd(), newGenerateCmd(), newDiffCmd())
	return root
}

func setLogLevel(s string) {
	lvl, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		log.Warn("unknown LOG_LEVEL, using info", "value", s)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// echoLevel maps LOG_LEVEL onto the echo logger.
func echoLevel(s string) gommon.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return gommon.DEBUG
	case "warn":
		return gommon.WARN
	case "error", "fatal":
		return gommon.ERROR
	default:
		return gommon.INFO
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
