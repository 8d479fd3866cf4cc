package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/internal/tileserver"
	"github.com/Mr-Dark-debug/areo/pkg/jsonutil"
	"github.com/Mr-Dark-debug/areo/pkg/timeutil"
)

// serveCommand runs the tile proxy daemon until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the caching tile proxy daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddr = listen
			}

			reg, err := cfg.NewRegistry()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := tileserver.New(tileserver.Config{ListenAddr: cfg.Server.ListenAddr},
				reg, newFetcher(cfg, store, c.Logger), c.Logger)

			ctx := cmd.Context()
			if err := srv.Start(ctx); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			fmt.Fprintln(w, "  "+styleTitle.Render("AREO TILE DAEMON"))
			fmt.Fprintln(w)
			printKV(w, "Listen", "http://"+srv.Addr())
			printKV(w, "Tiles", "http://"+srv.Addr()+"/tiles/{layer}/{z}/{x}/{y}")
			printKV(w, "Metrics", "http://"+srv.Addr()+"/metrics")
			printKV(w, "DB", store.Path())
			fmt.Fprintln(w)
			printDetail(w, "Press Ctrl+C to stop.")

			<-ctx.Done()
			c.Logger.Info("shutting down tile daemon")
			if err := srv.Stop(); err != nil {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen_addr)")
	return cmd
}

// statusCommand reports whether a daemon is running and what it has served.
func (c *CLI) statusCommand() *cobra.Command {
	var addr string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tile daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.ListenAddr
			}

			w := cmd.OutOrStdout()
			m, err := tileserver.FetchMetrics(cmd.Context(), addr)
			if err != nil {
				printWarning(w, "Areo tile daemon is not running.")
				printDetail(w, "Start it with: areo serve")
				printDetail(w, "(tried: %s)", addr)
				return errors.New("daemon unreachable")
			}

			if asJSON {
				return jsonutil.Encode(w, m)
			}
			printSuccess(w, "Areo tile daemon is running.")
			fmt.Fprintln(w)
			printKV(w, "Layers", m.Layers)
			printKV(w, "Tiles served", m.TilesServed)
			printKV(w, "Not found", m.NotFound)
			printKV(w, "Bad requests", m.BadRequests)
			printKV(w, "Upstream errors", m.UpstreamError)
			printKV(w, "Uptime", timeutil.FormatDuration(time.Duration(m.Uptime)*time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "daemon address (default server.listen_addr)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the daemon metrics as JSON")
	return cmd
}
