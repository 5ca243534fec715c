package router

import (
	"log/slog"
	"time"

	"github.com/go-drift/spa/pkg/logging"
	"github.com/go-drift/spa/pkg/runloop"
)

// DefaultPollInterval is how often a started App reads the location.
const DefaultPollInterval = 200 * time.Millisecond

// AppOption configures an App.
type AppOption func(*App)

// WithPollInterval sets the location poll interval.
func WithPollInterval(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithAppLogger sets the app logger.
func WithAppLogger(l *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// App polls a Location and runs the middleware chain with a fresh Context
// on every poll. The chain starts with a Listener, so later middleware only
// runs when the hash changed.
type App struct {
	location    Location
	interval    time.Duration
	logger      *slog.Logger
	middlewares []Middleware
	chain       Next
	ticker      *runloop.Ticker
}

// NewApp creates an app reading loc.
func NewApp(loc Location, opts ...AppOption) *App {
	a := &App{
		location: loc,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrDefault(a.logger)
	a.middlewares = []Middleware{Listener()}
	return a
}

// Use appends mw to the chain. Call Init again after Use on a started app.
func (a *App) Use(mw Middleware) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// Init composes the chain.
func (a *App) Init() *App {
	a.chain = Compose(a.middlewares...)
	return a
}

// Location returns the location the app reads.
func (a *App) Location() Location {
	return a.location
}

// Poll runs the chain once for the current hash.
func (a *App) Poll() {
	if a.chain == nil {
		a.Init()
	}
	a.chain(NewContext(a.location.Hash(), a.location))
}

// Start composes the chain and polls on loop every poll interval.
// Starting a started app is a no-op.
func (a *App) Start(loop *runloop.Loop) *App {
	if a.ticker != nil {
		return a
	}
	a.Init()
	a.ticker = loop.NewTicker(a.interval, a.Poll)
	a.ticker.Start()
	a.logger.Debug("app started", "interval", a.interval)
	return a
}

// Stop stops polling.
func (a *App) Stop() {
	if a.ticker != nil {
		a.ticker.Stop()
		a.ticker = nil
	}
}
