package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"

	"github.com/go-drift/spa/cmd/spa/internal/devserver"
)

func init() {
	RegisterCommand(&Command{
		Name:  "serve",
		Short: "Serve a live preview",
		Usage: `Serve a live preview of an spa project.

Open the printed address in a browser. Each tab gets its own session;
templates and scripts are reloaded when a tab connects.

Usage:
  spa serve [--dir=<dir>] [--addr=<addr>]

Options:
  --dir=<dir>    Project directory (default: the enclosing project).
  --addr=<addr>  Listen address (default: server.addr, or 127.0.0.1:8080).`,
		Run: runServe,
	})
}

func runServe(opts docopt.Opts) error {
	cfg, logger, err := resolveProject(stringOpt(opts, "--dir", ""))
	if err != nil {
		return err
	}
	cfg.Addr = stringOpt(opts, "--addr", cfg.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return devserver.New(cfg, devserver.WithLogger(logger)).ListenAndServe(ctx)
}
