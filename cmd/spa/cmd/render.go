package cmd

import (
	"fmt"

	"github.com/docopt/docopt-go"

	"github.com/go-drift/spa/cmd/spa/internal/project"
	"github.com/go-drift/spa/pkg/router"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render the page for one or more hashes",
		Usage: `Render the page of an spa project.

Every hash is routed in order. After each one the change queue is drained
and the page is printed. Without --hash the "/" route is rendered.

Usage:
  spa render [--dir=<dir>] [--hash=<hash>...]

Options:
  --dir=<dir>    Project directory (default: the enclosing project).
  --hash=<hash>  Location hash to route, e.g. /user/42?tab=posts.`,
		Run: runRender,
	})
}

func runRender(opts docopt.Opts) error {
	cfg, logger, err := resolveProject(stringOpt(opts, "--dir", ""))
	if err != nil {
		return err
	}

	p, err := project.Load(cfg, project.WithLogger(logger))
	if err != nil {
		return err
	}
	defer p.Close()

	hashes := stringsOpt(opts, "--hash")
	if len(hashes) == 0 {
		hashes = []string{router.FallbackPattern}
	}
	for _, hash := range hashes {
		p.Navigate(hash)
		n := p.Settle()
		logger.Debug("rendered", "hash", hash, "events", n)
		if len(hashes) > 1 {
			fmt.Fprintf(stdout, "<!-- #%s -->\n", hash)
		}
		fmt.Fprintln(stdout, p.HTML())
	}
	return nil
}
