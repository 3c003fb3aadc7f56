// Package main is the entry point for the spine command.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/spine/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Argument and flag errors from cobra itself.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitCommandError
	}
	if !exitErr.Reported {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitErr.Code
}
