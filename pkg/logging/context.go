package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// HasLogger reports whether ctx carries a logger of its own.
func HasLogger(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	logger, ok := ctx.Value(loggerKey).(*zerolog.Logger)
	return ok && logger != nil
}

// WithField adds a single string field to the logger in the context.
func WithField(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithCatalog adds catalog context to the logger.
func WithCatalog(ctx context.Context, catalogID string) context.Context {
	return WithField(ctx, "catalog", catalogID)
}

// WithChunk adds chunk context to the logger.
func WithChunk(ctx context.Context, hash string) context.Context {
	return WithField(ctx, "chunk", hash)
}

// WithProfile adds profile directory context to the logger.
func WithProfile(ctx context.Context, profileDir string) context.Context {
	return WithField(ctx, "profile", profileDir)
}

// WithTarget adds deployment target context to the logger.
func WithTarget(ctx context.Context, targetDir string) context.Context {
	return WithField(ctx, "target", targetDir)
}

// WithStep adds deployment step context to the logger.
func WithStep(ctx context.Context, step string) context.Context {
	return WithField(ctx, "step", step)
}
