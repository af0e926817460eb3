// Package logging provides structured logging for modsync using zerolog.
//
// Components never create their own loggers. They pull one from the context
// with FromContext, which falls back to the process default:
//
//	ctx = logging.WithCatalog(ctx, "lethal-company")
//	logging.FromContext(ctx).Info().Int("chunks", n).Msg("Fetched chunk index")
//
// Until the CLI installs a configured logger, the default reads
// MODSYNC_LOG_LEVEL (or LOG_LEVEL), LOG_FORMAT and NO_COLOR from the
// environment. Console output is used when stderr is a terminal.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultLogger = NewLoggerFromConfig(envConfig())

	// Nop discards everything.
	Nop = zerolog.Nop()
)

// envConfig builds the default logger configuration from the environment.
func envConfig() *Config {
	cfg := DefaultConfig()
	cfg.Level = firstEnv("MODSYNC_LOG_LEVEL", "LOG_LEVEL")
	if cfg.Level == "" && os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if f := firstEnv("MODSYNC_LOG_FORMAT", "LOG_FORMAT"); f != "" {
		cfg.Format = f
	}
	return cfg
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Default returns the process default logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process default logger, including zerolog's
// global log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New returns a JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.GlobalLevel()).With().Timestamp().Logger()
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warn event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
