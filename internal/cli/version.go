package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the build information injected via ldflags.
func SetVersion(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

func versionTemplate() string {
	return fmt.Sprintf("areo %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), versionTemplate())
			return nil
		},
	}
}
