// Command syncer converts, maps and simulates tick/frame timing.
package main

import (
	"fmt"
	"os"

	"github.com/TomatoPi/5FX-Syncer/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
