// Command rv64im is a minimal host for the embeddable RV64IM VM: it loads a
// flat binary (and optional data file), seeds argument registers, runs the
// program, and prints the resulting register and stack state.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	cmd "github.com/nstephens/rv64im/cmd/rv64im/internal"
)

func main() {
	app := &cli.App{
		Name:  "rv64im",
		Usage: "run a flat RV64IM binary against the embeddable VM",
		Commands: []*cli.Command{
			cmd.RunCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
