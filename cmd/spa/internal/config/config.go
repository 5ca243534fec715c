package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/spa/pkg/errors"
	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/observe"
	"github.com/go-drift/spa/pkg/router"
)

// FileName is the project configuration file.
const FileName = "spa.yaml"

// DefaultAddr is the dev server listen address.
const DefaultAddr = "127.0.0.1:8080"

// DefaultLayout is used when app.layout is not set.
const DefaultLayout = `<div id="app"><router-view></router-view></div>`

// Config represents the optional spa.yaml configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Dispatch IntervalConfig `yaml:"dispatch"`
	Poll     IntervalConfig `yaml:"poll"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Routes   []RouteConfig  `yaml:"routes"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
	// Layout is the page template holding the router-view placeholder.
	Layout string `yaml:"layout,omitempty"`
}

// IntervalConfig holds a duration such as "100ms".
type IntervalConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Journal bool   `yaml:"journal,omitempty"`
}

// ServerConfig contains dev server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// RouteConfig maps a hash pattern to a template and an optional Starlark
// model script. Paths are relative to the project root.
type RouteConfig struct {
	Pattern  string `yaml:"pattern"`
	Template string `yaml:"template"`
	Model    string `yaml:"model,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root             string
	ModulePath       string
	AppName          string
	Layout           string
	DispatchInterval time.Duration
	PollInterval     time.Duration
	Log              logging.Options
	Addr             string
	// Routes has template and model paths made absolute.
	Routes []RouteConfig
}

// LoadOptional reads spa.yaml if present and validates it against the
// schema.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return Parse(path, data)
}

// Parse decodes and validates configuration data read from path.
func Parse(path string, data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, configError("config.Parse", path, fmt.Errorf("failed to parse %s: %w", FileName, err))
	}
	if err := Validate(path, raw); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, configError("config.Parse", path, fmt.Errorf("failed to parse %s: %w", FileName, err))
	}
	return &cfg, nil
}

// Resolve loads spa.yaml (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, FileName)

	modulePath := modulePath(dir)
	appName := strings.TrimSpace(cfg.App.Name)
	if appName == "" {
		appName = defaultAppName(modulePath, dir)
	}

	dispatch, err := interval(path, "dispatch.interval", cfg.Dispatch.Interval, observe.DefaultInterval)
	if err != nil {
		return nil, err
	}
	poll, err := interval(path, "poll.interval", cfg.Poll.Interval, router.DefaultPollInterval)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, configError("config.Resolve", path, err)
	}

	layout := DefaultLayout
	if cfg.App.Layout != "" {
		data, err := os.ReadFile(filepath.Join(dir, cfg.App.Layout))
		if err != nil {
			return nil, configError("config.Resolve", path, fmt.Errorf("failed to read layout: %w", err))
		}
		layout = string(data)
	}

	addr := strings.TrimSpace(cfg.Server.Addr)
	if addr == "" {
		addr = DefaultAddr
	}

	routes := make([]RouteConfig, len(cfg.Routes))
	for i, r := range cfg.Routes {
		r.Template = filepath.Join(dir, r.Template)
		if r.Model != "" {
			r.Model = filepath.Join(dir, r.Model)
		}
		routes[i] = r
	}

	return &Resolved{
		Root:             dir,
		ModulePath:       modulePath,
		AppName:          appName,
		Layout:           layout,
		DispatchInterval: dispatch,
		PollInterval:     poll,
		Log: logging.Options{
			Level:   level,
			Format:  logging.Format(cfg.Log.Format),
			Journal: cfg.Log.Journal,
		},
		Addr:   addr,
		Routes: routes,
	}, nil
}

// FindProjectRoot walks up from the current directory to find spa.yaml or
// go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findProjectRoot(dir)
}

func findProjectRoot(dir string) (string, error) {
	for {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in an spa project (no %s or go.mod found)", FileName)
		}
		dir = parent
	}
}

// modulePath returns the module path from go.mod, or "" without one.
func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		modName, _, ok := module.SplitPathVersion(modulePath)
		if ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "spa_app"
	}
	return base
}

func interval(path, key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, configError("config.Resolve", path, fmt.Errorf("%s: %w", key, err))
	}
	if d <= 0 {
		return 0, configError("config.Resolve", path, fmt.Errorf("%s must be positive (got %s)", key, value))
	}
	return d, nil
}

func configError(op, path string, err error) error {
	return &errors.Error{Op: op, Kind: errors.KindConfig, Err: err, Key: path}
}
