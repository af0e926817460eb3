// Package config loads modsync settings from flags, environment, .env files
// and an optional YAML config file through viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
)

// EnvPrefix prefixes every environment variable, e.g. MODSYNC_CACHE_DIR.
const EnvPrefix = "MODSYNC"

// Config holds the resolved settings.
type Config struct {
	ConfigFile string `mapstructure:"-" yaml:"config_file,omitempty"`

	// Catalog cache
	CacheDir         string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	APIBaseURL       string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	ChunkConcurrency int           `mapstructure:"chunk_concurrency" yaml:"chunk_concurrency"`
	IndexCacheTTL    time.Duration `mapstructure:"index_cache_ttl" yaml:"index_cache_ttl"`

	// Deployment
	MatchMode    string   `mapstructure:"match_mode" yaml:"match_mode"`
	RuntimeDir   string   `mapstructure:"runtime_dir" yaml:"runtime_dir"`
	PluginsDir   string   `mapstructure:"plugins_dir" yaml:"plugins_dir"`
	LoaderMarker string   `mapstructure:"loader_marker" yaml:"loader_marker"`
	RootFiles    []string `mapstructure:"root_files" yaml:"root_files"`
	PruneMods    bool     `mapstructure:"prune_mod_files" yaml:"prune_mod_files"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`
}

// DefaultCacheDir returns the per-user cache directory for modsync, falling
// back to a directory under the system temp dir.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache_dir", DefaultCacheDir())
	v.SetDefault("api_base_url", constants.DefaultAPIBaseURL)
	v.SetDefault("user_agent", constants.DefaultUserAgent)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("chunk_concurrency", constants.DefaultChunkConcurrency)
	v.SetDefault("index_cache_ttl", constants.IndexCacheTTL)
	v.SetDefault("match_mode", string(matcher.Substring))
	v.SetDefault("runtime_dir", constants.RuntimeDir)
	v.SetDefault("plugins_dir", constants.PluginsDir)
	v.SetDefault("loader_marker", constants.LoaderMarker)
	v.SetDefault("root_files", constants.DefaultRootFiles)
	v.SetDefault("prune_mod_files", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, _ := decode(v)
	return cfg
}

// Load resolves configuration in order of precedence:
//  1. Flags bound to v by the caller
//  2. MODSYNC_* environment variables
//  3. .env and .env.local in the working directory
//  4. The config file (the "config" key, or ~/.modsync.yaml)
//  5. Defaults
func Load(v *viper.Viper) (*Config, error) {
	LoadEnvFiles()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapFormat("yaml", file, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("." + constants.AppName)
		// A missing default config file is fine.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.WrapFormat("yaml", v.ConfigFileUsed(), err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapFormat("config", v.ConfigFileUsed(), err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return cfg, nil
}

// LoadEnvFiles loads .env then .env.local. Variables already set win.
func LoadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// Validate checks the settings a run cannot work without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.CacheDir) == "":
		return errors.NewValidationError("cache_dir", c.CacheDir, "must not be empty")
	case strings.TrimSpace(c.APIBaseURL) == "":
		return errors.NewValidationError("api_base_url", c.APIBaseURL, "must not be empty")
	case c.ChunkConcurrency < 1 || c.ChunkConcurrency > constants.MaxChunkConcurrency:
		return errors.NewValidationError("chunk_concurrency", c.ChunkConcurrency, "must be between 1 and 32")
	case c.HTTPTimeout < 0:
		return errors.NewValidationError("http_timeout", c.HTTPTimeout, "must not be negative")
	case c.IndexCacheTTL < 0:
		return errors.NewValidationError("index_cache_ttl", c.IndexCacheTTL, "must not be negative")
	case strings.TrimSpace(c.RuntimeDir) == "":
		return errors.NewValidationError("runtime_dir", c.RuntimeDir, "must not be empty")
	case strings.TrimSpace(c.PluginsDir) == "":
		return errors.NewValidationError("plugins_dir", c.PluginsDir, "must not be empty")
	case strings.TrimSpace(c.LoaderMarker) == "":
		return errors.NewValidationError("loader_marker", c.LoaderMarker, "must not be empty")
	}
	if _, err := matcher.ParseMode(c.MatchMode); err != nil {
		return err
	}
	return nil
}

// Mode returns the parsed match mode.
func (c *Config) Mode() matcher.Mode {
	m, err := matcher.ParseMode(c.MatchMode)
	if err != nil {
		return matcher.Substring
	}
	return m
}
