package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.DebugLevel))

	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	assert.Contains(t, buf.String(), "info message")
	assert.Contains(t, buf.String(), "warning message")
}

func TestContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithCatalog(ctx, "lethal-company")
	ctx = logging.WithChunk(ctx, "abc123")
	ctx = logging.WithStep(ctx, "CopyingEnabled")

	logging.FromContext(ctx).Info().Msg("test message")

	tl.AssertContains(t, `"catalog":"lethal-company"`)
	tl.AssertContains(t, `"chunk":"abc123"`)
	tl.AssertContains(t, `"step":"CopyingEnabled"`)
	tl.AssertContains(t, "test message")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
}

func TestNewLoggerFromConfig(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(originalLevel) })

	tests := []struct {
		name     string
		level    string
		contains []string
		missing  []string
	}{
		{name: "debug level", level: "debug", contains: []string{`"level":"debug"`, `"level":"info"`}},
		{name: "error level only", level: "error", contains: []string{`"level":"error"`}, missing: []string{`"level":"info"`}},
		{name: "unknown falls back to info", level: "loud", contains: []string{`"level":"info"`}, missing: []string{`"level":"debug"`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.json")
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tc.level, Format: "json", Output: path})

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Error().Msg("error")

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, s := range tc.contains {
				assert.Contains(t, string(content), s)
			}
			for _, s := range tc.missing {
				assert.NotContains(t, string(content), s)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warning"))
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel("WARN"))
	assert.Equal(t, zerolog.Disabled, logging.ParseLevel("off"))
	assert.Equal(t, zerolog.TraceLevel, logging.ParseLevel("trace"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	tl.Info().Msg("message 1")
	tl.Error().Msg("message 2")

	tl.AssertContains(t, "message 1")
	tl.AssertContains(t, "message 2")
	assert.Equal(t, 2, tl.Count())

	tl.Clear()
	assert.Equal(t, 0, tl.Count())
	tl.AssertNotContains(t, "message 1")
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("chunk", "ff00").Msg("chunk failed")
	tl.AssertContains(t, "chunk failed")
	tl.AssertContains(t, "ff00")
}
