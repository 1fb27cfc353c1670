// Command fountain is the command line entry point for the feedback
// survey engine: survey validation, template listing, scenario replay,
// and store resets.
package main

import (
	"fmt"
	"os"

	"github.com/fountainhq/fountain/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
