package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cyphergremlin/internal/cli"
)

var version = "dev"

func main() {
	cmd := cli.NewRootCommand()
	cmd.Version = version

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Commands report their own errors; anything else is a cobra
		// usage problem.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(cli.ExitCommandError)
		}
		os.Exit(exitErr.Code)
	}
}
