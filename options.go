package modsync

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/agentstation/modsync/internal/config"
	"github.com/agentstation/modsync/internal/deploy"
	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/errors"
)

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the settings New composes the components from.
type options struct {
	cacheDir         string
	fs               afero.Fs
	fetcher          transport.Fetcher
	baseURL          string
	userAgent        string
	httpTimeout      time.Duration
	chunkConcurrency int
	indexCacheTTL    time.Duration
	matchMode        matcher.Mode
	layout           deploy.Layout
	pruneMods        bool
	logger           *zerolog.Logger
}

func defaultOptions() *options {
	cfg := config.Default()
	o := &options{}
	_ = FromConfig(cfg)(o)
	return o
}

// FromConfig applies every setting of a loaded configuration.
func FromConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.NewValidationError("config", nil, "config is nil")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.cacheDir = cfg.CacheDir
		o.baseURL = cfg.APIBaseURL
		o.userAgent = cfg.UserAgent
		o.httpTimeout = cfg.HTTPTimeout
		o.chunkConcurrency = cfg.ChunkConcurrency
		o.indexCacheTTL = cfg.IndexCacheTTL
		o.matchMode = cfg.Mode()
		o.layout = deploy.Layout{
			RuntimeDir:   cfg.RuntimeDir,
			PluginsDir:   cfg.PluginsDir,
			LoaderMarker: cfg.LoaderMarker,
			RootFiles:    cfg.RootFiles,
		}
		o.pruneMods = cfg.PruneMods
		return nil
	}
}

// WithCacheDir sets the directory chunk files are persisted under.
func WithCacheDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.NewValidationError("cache_dir", dir, "must not be empty")
		}
		o.cacheDir = dir
		return nil
	}
}

// WithFs sets the filesystem used for the chunk cache and deployments.
func WithFs(fs afero.Fs) Option {
	return func(o *options) error {
		o.fs = fs
		return nil
	}
}

// WithFetcher replaces the HTTP client used to download the index and chunks.
func WithFetcher(f transport.Fetcher) Option {
	return func(o *options) error {
		o.fetcher = f
		return nil
	}
}

// WithBaseURL sets the package repository root, e.g. https://thunderstore.io.
func WithBaseURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return errors.NewValidationError("api_base_url", url, "must not be empty")
		}
		o.baseURL = url
		return nil
	}
}

// WithChunkConcurrency bounds the number of chunks loaded at once.
func WithChunkConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("chunk_concurrency", n, "must be at least 1")
		}
		o.chunkConcurrency = n
		return nil
	}
}

// WithIndexCacheTTL sets how long a fetched index is reused. Zero disables reuse.
func WithIndexCacheTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.indexCacheTTL = ttl
		return nil
	}
}

// WithMatchMode selects how disabled mod names are compared to folder names.
func WithMatchMode(mode MatchMode) Option {
	return func(o *options) error {
		m, err := matcher.ParseMode(string(mode))
		if err != nil {
			return err
		}
		o.matchMode = m
		return nil
	}
}

// WithLayout overrides the mod loader layout.
func WithLayout(l Layout) Option {
	return func(o *options) error {
		o.layout = l
		return nil
	}
}

// WithPruneModFiles makes deployed plugin folders exact copies of the
// profile's, deleting files a mod update no longer ships.
func WithPruneModFiles(prune bool) Option {
	return func(o *options) error {
		o.pruneMods = prune
		return nil
	}
}

// WithLogger sets the logger used when a call's context carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = &l
		return nil
	}
}
