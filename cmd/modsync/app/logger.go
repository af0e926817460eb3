package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/modsync/internal/config"
	"github.com/agentstation/modsync/pkg/logging"
)

// NewLogger creates the application logger.
// Log level precedence (highest to lowest):
//  1. --log-level flag
//  2. -v/--verbose (debug) and -q/--quiet (warn)
//  3. log_level from env or config file
//  4. Default (info)
func NewLogger(flags Flags, cfg *config.Config) zerolog.Logger {
	level := determineLogLevel(flags, cfg)
	format := cfg.LogFormat
	if flags.NoColor && (format == "" || format == "auto") {
		format = "console"
	}
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    format,
		Output:    cfg.LogOutput,
		NoColor:   flags.NoColor,
		AddCaller: level == "debug" || level == "trace",
	})
}

func determineLogLevel(flags Flags, cfg *config.Config) string {
	if flags.LogLevel != "" {
		validated := validateLogLevel(flags.LogLevel)
		if validated != flags.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", flags.LogLevel, validated)
		}
		return validated
	}

	if flags.Verbose && flags.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if flags.Verbose {
		return "debug"
	}
	if flags.Quiet {
		return "warn"
	}

	if cfg != nil && cfg.LogLevel != "" {
		return validateLogLevel(cfg.LogLevel)
	}
	return "info"
}

func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "info"
}
