// Command strand is the operator tool for strand record streams.
package main

import (
	"fmt"
	"os"

	"github.com/strandkit/strand/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
