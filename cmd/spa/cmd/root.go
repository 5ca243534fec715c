// Package cmd implements the spa CLI commands.
//
// The command structure follows standard Go CLI patterns with a root command
// that dispatches to subcommands (init, render, routes, serve, version).
// Each subcommand declares a docopt usage string that doubles as its help
// text and argument parser.
package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/docopt/docopt-go"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Command represents a CLI command.
type Command struct {
	Name  string
	Short string
	// Usage is the docopt usage text, e.g. "Usage:\n  spa routes [--dir=<dir>]".
	Usage string
	Run   func(opts docopt.Opts) error
}

var rootUsage = `spa - observable view-models, directives and hash routing in Go.

Usage:
  spa <command> [<args>...]

Use "spa <command> --help" for more information about a command.`

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return execute(os.Args[1:])
}

func execute(args []string) error {
	if len(args) == 0 {
		printHelp()
		return nil
	}
	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return nil
	case "-v", "--version":
		return printVersion()
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", args[0])
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}

	for _, arg := range args[1:] {
		if arg == "-h" || arg == "--help" {
			fmt.Fprintln(stdout, cmd.Usage)
			return nil
		}
	}

	opts, err := parse(cmd, args)
	if err != nil {
		return err
	}
	return cmd.Run(opts)
}

// parse matches args, command name included, against the command usage.
func parse(cmd *Command, args []string) (docopt.Opts, error) {
	parser := &docopt.Parser{
		HelpHandler:   docopt.NoHelpHandler,
		SkipHelpFlags: true,
	}
	opts, err := parser.ParseArgs(cmd.Usage, args, "")
	if err != nil {
		return nil, fmt.Errorf("invalid arguments for %s\n\n%s", cmd.Name, cmd.Usage)
	}
	return opts, nil
}

func printHelp() {
	fmt.Fprintln(stdout, rootUsage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-14s %s\n", name, commands[name].Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Examples:")
	fmt.Fprintln(stdout, "  spa init todo                 Create a new project")
	fmt.Fprintln(stdout, "  spa render --hash=/about      Print the page routed to #/about")
	fmt.Fprintln(stdout, "  spa serve --addr=:8080        Preview in the browser")
}

// stringOpt returns the string value of key, or def when it was not given.
func stringOpt(opts docopt.Opts, key, def string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}

// stringsOpt returns the values of a repeatable option.
func stringsOpt(opts docopt.Opts, key string) []string {
	v, _ := opts[key].([]string)
	return v
}
