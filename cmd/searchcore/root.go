package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avkrylov/searchcore/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "searchcore",
	Short: "A multi-site crawler and search index",
	Long:  "searchcore crawls a set of configured sites, builds a lemma-based inverted index, and serves ranked search results over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		setupLogging()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (not read: configuration is loaded from ./config.yaml or <user config dir>/searchcore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func setupLogging() {
	level := slog.LevelInfo
	if cfg != nil {
		// An unrecognised log.level leaves the level at info.
		_ = level.UnmarshalText([]byte(cfg.Log.Level))
	}
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
