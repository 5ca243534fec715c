package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/docopt/docopt-go"
)

func init() {
	RegisterCommand(&Command{
		Name:  "routes",
		Short: "Print the route table",
		Usage: `Print the route table of an spa project.

Usage:
  spa routes [--dir=<dir>]

Options:
  --dir=<dir>  Project directory (default: the enclosing project).`,
		Run: runRoutes,
	})
}

func runRoutes(opts docopt.Opts) error {
	cfg, _, err := resolveProject(stringOpt(opts, "--dir", ""))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATTERN\tTEMPLATE\tMODEL")
	for _, r := range cfg.Routes {
		model := "-"
		if r.Model != "" {
			model = relative(cfg.Root, r.Model)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Pattern, relative(cfg.Root, r.Template), model)
	}
	return w.Flush()
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
