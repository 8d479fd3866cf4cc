// Areo is a terminal map viewer for Mars imagery.
//
// Usage:
//
//	areo [command] [flags]
//
// Run without a command to open the viewer. See "areo --help" for the
// daemon, layer, place and cache commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mr-Dark-debug/areo/internal/cli"
)

var (
	Version   = ""
	BuildTime = ""
	GitCommit = ""
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli.SetVersion(Version, GitCommit, BuildTime)
	c := cli.New(os.Stderr, cli.LogInfo)

	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
