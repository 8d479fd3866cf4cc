package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/internal/config"
	"github.com/Mr-Dark-debug/areo/internal/globe"
	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/internal/reconcile"
	"github.com/Mr-Dark-debug/areo/internal/tui"
	"github.com/Mr-Dark-debug/areo/internal/viewer"
)

func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the map viewer (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd)
		},
	}
}

func (c *CLI) runView(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file.
	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           c.Logger.GetLevel(),
	})

	reg, err := cfg.NewRegistry()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	bg, err := cfg.Viewer.BackgroundColor()
	if err != nil {
		return err
	}
	mgr := viewer.NewManager(viewer.Config{
		Loader:     newFetcher(cfg, store, logger),
		Background: bg,
		Start: globe.Cartographic{
			Longitude: cfg.Viewer.StartLongitude,
			Latitude:  cfg.Viewer.StartLatitude,
			Height:    cfg.Viewer.StartHeight,
		},
		Logger: logger,
	})

	ctx := layers.WithRegistry(cmd.Context(), reg)
	ctx = viewer.WithManager(ctx, mgr)
	logger.Info("viewer starting", "layers", len(reg.Layers()), "db", store.Path())

	return runProgram(ctx, tui.Options{
		Store:     store,
		Gazetteer: cfg.Places,
		Logger:    logger,
	})
}

// runProgram runs the TUI against the registry and manager carried by ctx
// and tears the viewer down when the program exits.
func runProgram(ctx context.Context, opts tui.Options) error {
	reg, err := layers.FromContext(ctx)
	if err != nil {
		return err
	}
	mgr, err := viewer.FromContext(ctx)
	if err != nil {
		return err
	}
	defer mgr.Destroy()

	opts.Registry = reg
	opts.Manager = mgr
	opts.Reconciler = reconcile.New(opts.Logger)

	p := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		path = filepath.Join(config.Dir(), "areo.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
