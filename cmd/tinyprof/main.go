// Command tinyprof replays, checks and demonstrates manual gap profiling
// sessions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tinyprof/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
