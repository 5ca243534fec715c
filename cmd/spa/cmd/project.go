package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-drift/spa/cmd/spa/internal/config"
	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
)

// resolveProject resolves the configuration of dir, or of the enclosing
// project when dir is empty, and installs a logger built from it as the
// default logger and error handler.
func resolveProject(dir string) (*config.Resolved, *slog.Logger, error) {
	if dir == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			return nil, nil, err
		}
		dir = root
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, nil, err
	}

	logOpts := cfg.Log
	logOpts.Output = os.Stderr
	logger := logging.New(logOpts).With("app", cfg.AppName)
	slog.SetDefault(logger)
	errors.SetHandler(&errors.LogHandler{Logger: logger})
	return cfg, logger, nil
}
