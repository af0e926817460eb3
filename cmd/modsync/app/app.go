// Package app wires configuration, logging and the modsync client into the
// CLI commands.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/modsync"
	"github.com/agentstation/modsync/internal/config"
	"github.com/agentstation/modsync/pkg/logging"
)

// Flags are the global command line flags.
type Flags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	NoColor    bool
	Format     string
	LogLevel   string
}

// App holds the dependencies shared by every command.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	viper  *viper.Viper
	flags  Flags
	config *config.Config
	logger *zerolog.Logger

	out           io.Writer
	clientOptions []modsync.Option

	mu     sync.Mutex
	client modsync.Client
}

// Option customizes an App.
type Option func(*App) error

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithClientOptions adds options applied after the configuration when the
// client is created.
func WithClientOptions(opts ...modsync.Option) Option {
	return func(a *App) error {
		a.clientOptions = append(a.clientOptions, opts...)
		return nil
	}
}

// New creates an App. Configuration is loaded once flags are parsed.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   viper.New(),
		config:  config.Default(),
		logger:  logging.Default(),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Client returns the modsync client, creating it on first use.
func (a *App) Client() (modsync.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts := append([]modsync.Option{
		modsync.FromConfig(a.config),
		modsync.WithLogger(*a.logger),
	}, a.clientOptions...)
	c, err := modsync.New(opts...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// Shutdown closes the client if one was created.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	c := a.client
	a.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
