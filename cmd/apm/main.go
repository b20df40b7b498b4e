// Package main is the entry point for the apm CLI.
package main

import (
	"os"

	"github.com/thoreinstein/apm/cmd/apm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ReportError(os.Stderr, err))
	}
}
