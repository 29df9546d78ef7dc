// Package cmd provides the compass CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/northbound-labs/compass/core/config"
	"github.com/northbound-labs/compass/core/storage"
)

var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "Compass - a conversational strategy coach",
	Long: `Compass guides leadership teams through a four-phase strategy
methodology: discovery, research, synthesis, and planning.`,
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves directories, ensures they exist, and loads the layered
// configuration. Shared by every command that touches config or storage.
func loadConfig() (*config.Config, *storage.Dirs, error) {
	dirs := storage.ResolveDirs()
	if err := dirs.EnsureAll(); err != nil {
		return nil, nil, fmt.Errorf("prepare directories: %w", err)
	}
	mgr := config.NewManager(dirs)
	if err := mgr.Load(); err != nil {
		return nil, nil, err
	}
	return mgr.Get(), dirs, nil
}

// newLogger builds the CLI logger. Verbose output goes to stderr so it never
// interleaves with the conversation on stdout.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
