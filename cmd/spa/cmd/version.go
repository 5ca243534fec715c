package cmd

import (
	"fmt"

	"github.com/docopt/docopt-go"
)

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Show version information",
		Usage: `Show version information.

Usage:
  spa version`,
		Run: func(docopt.Opts) error {
			return printVersion()
		},
	})
}

func printVersion() error {
	_, err := fmt.Fprintf(stdout, "spa version %s (built %s)\n", Version, BuildTime)
	return err
}
