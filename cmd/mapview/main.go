// Command mapview validates conceptual-to-store mappings and compiles them
// into query views.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/mapview/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Commands report their own ExitErrors; anything else comes from flag
	// or argument parsing.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
