package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/internal/config"
	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
)

// isolate runs the test from an empty directory with an empty HOME so no
// stray .env or config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, constants.DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, constants.DefaultChunkConcurrency, cfg.ChunkConcurrency)
	assert.Equal(t, time.Hour, cfg.IndexCacheTTL)
	assert.Equal(t, "BepInEx", cfg.RuntimeDir)
	assert.Equal(t, "plugins", cfg.PluginsDir)
	assert.Equal(t, "winhttp.dll", cfg.LoaderMarker)
	assert.Equal(t, constants.DefaultRootFiles, cfg.RootFiles)
	assert.Equal(t, matcher.Substring, cfg.Mode())
	assert.False(t, cfg.PruneMods)
	assert.NotEmpty(t, cfg.CacheDir)
	require.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "modsync.yaml")
	require.NoError(t, os.WriteFile(file, []byte(
		"chunk_concurrency: 8\nmatch_mode: exact\ncache_dir: /from/file\nprune_mod_files: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"MODSYNC_USER_AGENT=from-dotenv\n"), 0o644))
	t.Setenv("MODSYNC_CACHE_DIR", "/from/env")
	t.Cleanup(func() { _ = os.Unsetenv("MODSYNC_USER_AGENT") })

	v := viper.New()
	v.Set("config", file)
	v.Set("index_cache_ttl", "5m")

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, file, cfg.ConfigFile)
	assert.Equal(t, 8, cfg.ChunkConcurrency)
	assert.True(t, cfg.PruneMods)
	assert.Equal(t, matcher.Exact, cfg.Mode())
	assert.Equal(t, "/from/env", cfg.CacheDir)
	assert.Equal(t, "from-dotenv", cfg.UserAgent)
	assert.Equal(t, 5*time.Minute, cfg.IndexCacheTTL)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	isolate(t)
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, constants.DefaultAPIBaseURL, cfg.APIBaseURL)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		isolate(t)
		v := viper.New()
		v.Set("config", "/does/not/exist.yaml")
		_, err := config.Load(v)
		assert.True(t, errors.IsFormat(err))
	})

	t.Run("invalid value", func(t *testing.T) {
		isolate(t)
		t.Setenv("MODSYNC_MATCH_MODE", "fuzzy")
		_, err := config.Load(viper.New())
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"empty cache dir", func(c *config.Config) { c.CacheDir = " " }, "cache_dir"},
		{"empty base url", func(c *config.Config) { c.APIBaseURL = "" }, "api_base_url"},
		{"zero concurrency", func(c *config.Config) { c.ChunkConcurrency = 0 }, "chunk_concurrency"},
		{"too much concurrency", func(c *config.Config) { c.ChunkConcurrency = 99 }, "chunk_concurrency"},
		{"negative timeout", func(c *config.Config) { c.HTTPTimeout = -1 }, "http_timeout"},
		{"negative ttl", func(c *config.Config) { c.IndexCacheTTL = -1 }, "index_cache_ttl"},
		{"empty runtime dir", func(c *config.Config) { c.RuntimeDir = "" }, "runtime_dir"},
		{"empty plugins dir", func(c *config.Config) { c.PluginsDir = "" }, "plugins_dir"},
		{"empty marker", func(c *config.Config) { c.LoaderMarker = "" }, "loader_marker"},
		{"unknown match mode", func(c *config.Config) { c.MatchMode = "fuzzy" }, "match_mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
