// Package cli implements the areo command-line interface.
//
// The default command opens the full-screen map viewer. The remaining
// commands run the tile proxy daemon, query it, and manage the layer list,
// saved places and tile cache from the shell. The CLI is built using cobra
// and logs through charmbracelet/log.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/internal/config"
	"github.com/Mr-Dark-debug/areo/internal/database"
	"github.com/Mr-Dark-debug/areo/internal/tiles"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "areo"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Run without a subcommand it opens the viewer.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Areo is a terminal map viewer for Mars imagery",
		Long:         `Areo renders NASA Mars imagery layers in the terminal, lets you stack and blend base maps and overlays, and flies the camera to named places.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd)
		},
	}

	root.SetVersionTemplate(versionTemplate())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.areo/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	// Register all subcommands
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.placesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// =============================================================================
// Shared setup
// =============================================================================

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if !c.verbose {
		c.SetLogLevel(cfg.Level())
	}
	return cfg, nil
}

// openStore opens the SQLite database, creating its directory first.
func openStore(cfg config.Config) (*database.DBService, error) {
	dir := filepath.Dir(cfg.Tiles.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}
	store, err := database.NewDBService(cfg.Tiles.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Tiles.DBPath, err)
	}
	return store, nil
}

func newFetcher(cfg config.Config, cache tiles.Cache, logger *log.Logger) *tiles.Fetcher {
	return tiles.NewFetcher(tiles.Config{
		RequestsPerSecond: cfg.Tiles.RequestsPerSecond,
		Burst:             cfg.Tiles.Burst,
		Timeout:           cfg.Tiles.Timeout(),
		MaxAge:            cfg.Tiles.MaxAge(),
		UserAgent:         cfg.Tiles.UserAgent,
		Cache:             cache,
		Logger:            logger,
	})
}
