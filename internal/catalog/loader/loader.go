// Package loader orchestrates a catalog load: fetch the chunk index, merge
// the first chunk before returning, then merge the rest in the background.
package loader

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/modsync/internal/catalog/memory"
	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

// IndexFetcher returns the ordered chunk references of a catalog.
type IndexFetcher interface {
	Fetch(ctx context.Context, id catalog.ID) ([]catalog.ChunkRef, error)
}

// ChunkSource loads a chunk through the disk cache.
type ChunkSource interface {
	LoadThrough(ctx context.Context, ref catalog.ChunkRef, f transport.Fetcher) ([]catalog.Entry, bool, error)
}

// ChunkHook is called after a chunk's entries were appended to the store.
type ChunkHook func(id catalog.ID, ref catalog.ChunkRef, appended, total int)

// Result is returned by Load once the first chunk has been merged.
type Result struct {
	Count  int     // Entries available right now
	Cached bool    // Served by the in-memory fast path
	Handle *Handle // Completion of the background chunks
}

// Loader loads catalogs into a shared memory store.
type Loader struct {
	index       IndexFetcher
	chunks      ChunkSource
	fetcher     transport.Fetcher
	store       *memory.Store
	concurrency int
	onChunk     ChunkHook

	mu       sync.Mutex
	inflight map[catalog.ID]chan struct{}
	handles  map[catalog.ID]*Handle
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds how many background chunks load at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = min(n, constants.MaxChunkConcurrency)
		}
	}
}

// WithChunkHook registers a callback for every merged chunk.
func WithChunkHook(h ChunkHook) Option {
	return func(l *Loader) {
		l.onChunk = h
	}
}

// New creates a loader.
func New(index IndexFetcher, chunks ChunkSource, fetcher transport.Fetcher, store *memory.Store, opts ...Option) *Loader {
	l := &Loader{
		index:       index,
		chunks:      chunks,
		fetcher:     fetcher,
		store:       store,
		concurrency: constants.DefaultChunkConcurrency,
		inflight:    make(map[catalog.ID]chan struct{}),
		handles:     make(map[catalog.ID]*Handle),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load makes a catalog available in the store and returns the number of
// entries usable immediately. When the store already holds entries for id
// nothing is fetched. Otherwise the index is fetched, the first chunk is
// merged synchronously, and the remaining chunks are merged in the
// background; the returned Handle reports when they are done.
//
// Only an index failure is returned as an error. Chunk failures are logged
// and leave the chunk's entries out of the store.
func (l *Loader) Load(ctx context.Context, id catalog.ID) (*Result, error) {
	for {
		l.mu.Lock()
		if n := l.store.Len(id); n > 0 {
			h := l.handleLocked(id, n)
			l.mu.Unlock()
			return &Result{Count: n, Cached: true, Handle: h}, nil
		}
		// A previous load may still be merging chunks after an empty first
		// chunk; loading again would append those chunks twice.
		if h, ok := l.handles[id]; ok && !h.finished() {
			l.mu.Unlock()
			return &Result{Count: l.store.Len(id), Cached: true, Handle: h}, nil
		}
		wait, busy := l.inflight[id]
		if !busy {
			wait = make(chan struct{})
			l.inflight[id] = wait
			l.mu.Unlock()
			break
		}
		l.mu.Unlock()

		// Another caller is in its synchronous phase for this id.
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		l.mu.Lock()
		h, loaded := l.handles[id]
		l.mu.Unlock()
		if loaded && l.store.Len(id) == 0 {
			return &Result{Count: 0, Handle: h}, nil
		}
	}

	res, err := l.load(ctx, id)

	l.mu.Lock()
	if err == nil {
		l.handles[id] = res.Handle
	}
	close(l.inflight[id])
	delete(l.inflight, id)
	l.mu.Unlock()

	return res, err
}

// Handle returns the background handle of the most recent load of id.
func (l *Loader) Handle(id catalog.ID) (*Handle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[id]
	return h, ok
}

// handleLocked returns the known handle of id or a completed one.
func (l *Loader) handleLocked(id catalog.ID, n int) *Handle {
	if h, ok := l.handles[id]; ok {
		return h
	}
	now := utc.Now()
	return completedHandle(Summary{Catalog: id, Entries: n, StartedAt: now, FinishedAt: now})
}

func (l *Loader) load(ctx context.Context, id catalog.ID) (*Result, error) {
	ctx = logging.WithCatalog(ctx, string(id))
	logger := logging.FromContext(ctx)
	started := utc.Now()

	refs, err := l.index.Fetch(ctx, id)
	if err != nil {
		return nil, &errors.IndexError{Catalog: string(id), Err: err}
	}

	tally := &tally{}
	if len(refs) == 0 {
		logger.Warn().Msg("Chunk index is empty")
		return &Result{Handle: completedHandle(Summary{
			Catalog: id, StartedAt: started, FinishedAt: utc.Now(),
		})}, nil
	}

	l.loadChunk(ctx, id, refs[0], tally)
	count := l.store.Len(id)
	logger.Info().Int("entries", count).Int("remaining_chunks", len(refs)-1).Msg("First chunk ready")

	h := newHandle()
	// Background work outlives the caller and has no cancellation.
	bg := context.WithoutCancel(ctx)
	go func() {
		g := new(errgroup.Group)
		g.SetLimit(l.concurrency)
		for _, ref := range refs[1:] {
			g.Go(func() error {
				l.loadChunk(bg, id, ref, tally)
				return nil
			})
		}
		_ = g.Wait()

		s := Summary{
			Catalog:    id,
			Chunks:     len(refs),
			Loaded:     int(tally.loaded.Load()),
			FromCache:  int(tally.cached.Load()),
			Failed:     int(tally.failed.Load()),
			Entries:    l.store.Len(id),
			StartedAt:  started,
			FinishedAt: utc.Now(),
		}
		logging.FromContext(bg).Info().
			Int("chunks", s.Chunks).
			Int("failed", s.Failed).
			Int("entries", s.Entries).
			Dur("elapsed", s.Duration()).
			Msg("Catalog fully loaded")
		h.finish(s)
	}()

	return &Result{Count: count, Handle: h}, nil
}

type tally struct {
	loaded, cached, failed atomic.Int64
}

// loadChunk loads one chunk through the cache and appends it. The store
// lock is only taken inside Append, never across I/O.
func (l *Loader) loadChunk(ctx context.Context, id catalog.ID, ref catalog.ChunkRef, t *tally) {
	ctx = logging.WithChunk(ctx, ref.Hash)
	logger := logging.FromContext(ctx)

	entries, cached, err := l.chunks.LoadThrough(ctx, ref, l.fetcher)
	if err != nil {
		t.failed.Add(1)
		logger.Warn().Err(err).Str("url", ref.URL).Msg("Chunk failed to load")
		return
	}

	total, err := l.store.Append(id, entries)
	if err != nil {
		t.failed.Add(1)
		logger.Error().Err(err).Msg("Chunk could not be merged")
		return
	}

	t.loaded.Add(1)
	if cached {
		t.cached.Add(1)
	}
	logger.Debug().Bool("cached", cached).Int("entries", len(entries)).Msg("Chunk merged")

	if l.onChunk != nil {
		l.onChunk(id, ref, len(entries), total)
	}
}
