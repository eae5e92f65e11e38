// Package main is the entry point for the nori CLI.
package main

import (
	"fmt"
	"os"

	"github.com/tilework-tech/nori-profiles/cmd/nori/commands"
	"github.com/tilework-tech/nori-profiles/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintln(os.Stderr, exitErr.Suggestion)
	}
	os.Exit(errors.ExitCode(err))
}
