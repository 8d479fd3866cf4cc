package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/pkg/jsonutil"
	"github.com/Mr-Dark-debug/areo/pkg/timeutil"
)

// cacheCommand creates the tile cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the tile cache",
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePruneCommand())

	return cmd
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tile cache size and age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.TileStats()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return jsonutil.Encode(w, stats)
			}
			printInfo(w, "%d tiles, %s", stats.Count, formatBytes(stats.Bytes))
			if stats.Count > 0 {
				printKV(w, "Oldest", timeutil.FormatTimestampFull(stats.Oldest))
				printKV(w, "Newest", timeutil.FormatTimestampFull(stats.Newest))
			}
			printDetail(w, "Database: %s", store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete tiles older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = cfg.Tiles.MaxAge()
			}
			if olderThan <= 0 {
				return fmt.Errorf("no age given and tiles.max_age_hours is 0")
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.PruneTiles(time.Now().Add(-olderThan).UnixNano())
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Pruned %d tiles older than %s", n, timeutil.FormatDuration(olderThan))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (default tiles.max_age_hours)")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
