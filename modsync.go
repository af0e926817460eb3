// Package modsync keeps a local, queryable cache of a Thunderstore-style
// package catalog and deploys mod profiles into game directories.
//
// A Client loads a catalog as a chunked index: the first chunk is merged
// before LoadCatalog returns and the rest stream in the background, so
// queries work immediately and see more entries over time. Deploy mirrors a
// profile's enabled plugin folders into a game install and removes the
// ones that are disabled or gone.
package modsync

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/agentstation/modsync/internal/catalog/chunks"
	"github.com/agentstation/modsync/internal/catalog/index"
	"github.com/agentstation/modsync/internal/catalog/loader"
	"github.com/agentstation/modsync/internal/catalog/memory"
	"github.com/agentstation/modsync/internal/catalog/query"
	"github.com/agentstation/modsync/internal/deploy"
	"github.com/agentstation/modsync/internal/matcher"
	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

// Public names for the component types a Client exposes.
type (
	LoadResult    = loader.Result
	LoadSummary   = loader.Summary
	LoadHandle    = loader.Handle
	QueryOptions  = query.Options
	SortDirection = query.Direction
	DeployResult  = deploy.Result
	DeployState   = deploy.State
	ProfileMod    = deploy.ProfileMod
	Layout        = deploy.Layout
	MatchMode     = matcher.Mode
)

// Sort directions for QueryOptions.
const (
	Ascending  = query.Ascending
	Descending = query.Descending
)

// Match modes for disabled mod names.
const (
	MatchSubstring = matcher.Substring
	MatchExact     = matcher.Exact
	MatchGlob      = matcher.Glob
)

// DefaultLayout returns the BepInEx layout.
func DefaultLayout() Layout {
	return deploy.DefaultLayout()
}

// Client manages catalog caches and profile deployments
type Client interface {
	// LoadCatalog makes a catalog queryable and returns once its first
	// chunk is merged. The result's Handle reports when loading finishes.
	LoadCatalog(ctx context.Context, id catalog.ID) (*LoadResult, error)

	// LoadCatalogs loads several catalogs concurrently and waits for each
	// to finish completely.
	LoadCatalogs(ctx context.Context, ids ...catalog.ID) ([]LoadSummary, error)

	// Query returns one page of matching entries.
	Query(id catalog.ID, opts QueryOptions) []catalog.Entry

	// Count returns the number of entries matching opts' filters.
	Count(id catalog.ID, opts QueryOptions) int

	// Lookup resolves versioned package identifiers to entries.
	Lookup(id catalog.ID, names []string) (found []catalog.Entry, unknown []string)

	// FindPackage finds an entry by name or full name, ignoring case.
	FindPackage(id catalog.ID, name string) (catalog.Entry, bool)

	// Categories lists the distinct categories of a loaded catalog.
	Categories(id catalog.ID) []string

	// Deploy mirrors a profile into a game directory.
	Deploy(ctx context.Context, profileDir, targetDir string, disabled []string) (*DeployResult, error)

	// ListMods lists the plugin folders of a profile.
	ListMods(profileDir string, disabled []string) ([]ProfileMod, error)

	// RemoveMod deletes a profile plugin folder by partial name.
	RemoveMod(profileDir, name string) (string, error)

	// ClearCache deletes persisted chunks and forgets fetched indexes.
	ClearCache() (int, error)

	// OnEntriesAppended registers a callback for merged chunks
	OnEntriesAppended(EntriesAppendedHook)

	// OnDeployed registers a callback for finished deployments
	OnDeployed(DeployedHook)

	// Close stops accepting new catalog data. Background loads already
	// running finish without adding entries.
	Close() error
}

// client is the internal implementation of the Client interface
type client struct {
	opts     *options
	logger   *zerolog.Logger
	index    *index.Fetcher
	chunks   *chunks.Store
	store    *memory.Store
	loader   *loader.Loader
	deployer *deploy.Deployer
	hooks    *hooks

	mu        sync.Mutex
	deploying map[string]bool
	closed    bool
}

// New creates a Client with the given options
func New(opts ...Option) (Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.fetcher == nil {
		o.fetcher = transport.New(
			transport.WithHTTPClient(&http.Client{Timeout: o.httpTimeout}),
			transport.WithUserAgent(o.userAgent),
		)
	}

	c := &client{
		opts:      o,
		logger:    o.logger,
		index:     index.New(o.fetcher, o.baseURL, o.indexCacheTTL),
		chunks:    chunks.New(o.fs, filepath.Join(o.cacheDir, constants.ChunksDir)),
		store:     memory.New(),
		hooks:     newHooks(),
		deploying: make(map[string]bool),
	}
	c.loader = loader.New(c.index, c.chunks, o.fetcher, c.store,
		loader.WithConcurrency(o.chunkConcurrency),
		loader.WithChunkHook(func(id catalog.ID, _ catalog.ChunkRef, appended, total int) {
			c.hooks.triggerEntriesAppended(id, appended, total)
		}),
	)
	c.deployer = deploy.New(o.fs,
		deploy.WithLayout(o.layout),
		deploy.WithMatchMode(o.matchMode),
		deploy.WithPrune(o.pruneMods),
	)
	return c, nil
}

// withLogger attaches the client logger unless ctx already has one.
func (c *client) withLogger(ctx context.Context) context.Context {
	if c.logger == nil || logging.HasLogger(ctx) {
		return ctx
	}
	return logging.WithLogger(ctx, c.logger)
}

// LoadCatalog implements Client.
func (c *client) LoadCatalog(ctx context.Context, id catalog.ID) (*LoadResult, error) {
	if id == "" {
		return nil, errors.NewValidationError("catalog", id, "catalog id is required")
	}
	if c.isClosed() {
		return nil, &errors.LockError{Resource: "client", Message: "closed"}
	}
	return c.loader.Load(c.withLogger(ctx), id)
}

// LoadCatalogs implements Client.
func (c *client) LoadCatalogs(ctx context.Context, ids ...catalog.ID) ([]LoadSummary, error) {
	summaries := make([]LoadSummary, len(ids))
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.LoadCatalog(ctx, id)
			if err != nil {
				errs[i] = err
				return
			}
			summaries[i], errs[i] = res.Handle.WaitContext(ctx)
		}()
	}
	wg.Wait()

	return summaries, errors.Join(errs...)
}

// Query implements Client.
func (c *client) Query(id catalog.ID, opts QueryOptions) []catalog.Entry {
	return query.Query(c.store, id, opts)
}

// Count implements Client.
func (c *client) Count(id catalog.ID, opts QueryOptions) int {
	return query.Count(c.store, id, opts)
}

// Lookup implements Client.
func (c *client) Lookup(id catalog.ID, names []string) ([]catalog.Entry, []string) {
	return query.Lookup(c.store, id, names)
}

// FindPackage implements Client.
func (c *client) FindPackage(id catalog.ID, name string) (catalog.Entry, bool) {
	return query.FindByName(c.store, id, name)
}

// Categories implements Client.
func (c *client) Categories(id catalog.ID) []string {
	return query.Categories(c.store, id)
}

// Deploy implements Client. A second deployment to a target that is still
// being deployed fails with ErrDeployInProgress.
func (c *client) Deploy(ctx context.Context, profileDir, targetDir string, disabled []string) (*DeployResult, error) {
	key := filepath.Clean(targetDir)

	c.mu.Lock()
	if c.deploying[key] {
		c.mu.Unlock()
		return nil, errors.WrapDeploy(deploy.StateStart.String(), targetDir, errors.ErrDeployInProgress)
	}
	c.deploying[key] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.deploying, key)
		c.mu.Unlock()
	}()

	res, err := c.deployer.Deploy(c.withLogger(ctx), profileDir, targetDir, disabled)
	c.hooks.triggerDeployed(res, err)
	return res, err
}

// ListMods implements Client.
func (c *client) ListMods(profileDir string, disabled []string) ([]ProfileMod, error) {
	return c.deployer.ListMods(profileDir, disabled)
}

// RemoveMod implements Client.
func (c *client) RemoveMod(profileDir, name string) (string, error) {
	return c.deployer.RemoveMod(profileDir, name)
}

// ClearCache implements Client.
func (c *client) ClearCache() (int, error) {
	c.index.InvalidateAll()
	return c.chunks.Clear()
}

// OnEntriesAppended implements Client.
func (c *client) OnEntriesAppended(fn EntriesAppendedHook) {
	c.hooks.OnEntriesAppended(fn)
}

// OnDeployed implements Client.
func (c *client) OnDeployed(fn DeployedHook) {
	c.hooks.OnDeployed(fn)
}

// Close implements Client.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.Close()
	return nil
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
