package loader_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/internal/catalog/chunks"
	"github.com/agentstation/modsync/internal/catalog/index"
	"github.com/agentstation/modsync/internal/catalog/loader"
	"github.com/agentstation/modsync/internal/catalog/memory"
	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

const base = "https://thunderstore.test"

// fakeRemote serves a gzip index and gzip chunks from memory.
type fakeRemote struct {
	mu      sync.Mutex
	bodies  map[string][]byte
	fails   map[string]bool
	calls   map[string]int
	release chan struct{} // when set, chunk fetches after the first block on it
}

func newFakeRemote(t *testing.T, id string, chunkSizes ...int) *fakeRemote {
	t.Helper()
	r := &fakeRemote{bodies: map[string][]byte{}, fails: map[string]bool{}, calls: map[string]int{}}

	var locators []string
	for i, size := range chunkSizes {
		url := fmt.Sprintf("%s/chunks/chunk%d.json.gz", base, i)
		locators = append(locators, url)

		entries := make([]map[string]any, size)
		for j := range entries {
			entries[j] = map[string]any{
				"name":      fmt.Sprintf("Mod%d_%d", i, j),
				"full_name": fmt.Sprintf("Owner-Mod%d_%d", i, j),
			}
		}
		r.bodies[url] = gz(t, entries)
	}
	r.bodies[base+fmt.Sprintf("/c/%s/api/v1/package-listing-index/", id)] = gz(t, locators)
	return r
}

func gz(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	data, err := transport.Compress(raw)
	require.NoError(t, err)
	return data
}

func (r *fakeRemote) Fetch(ctx context.Context, url string) ([]byte, error) {
	r.mu.Lock()
	r.calls[url]++
	body, ok := r.bodies[url]
	fail := r.fails[url]
	release := r.release
	r.mu.Unlock()

	if release != nil && url != chunkURL(0) && url[len(url)-1] != '/' {
		<-release
	}
	if fail || !ok {
		return nil, errors.NewTransportError(url, 503, nil)
	}
	return body, nil
}

func (r *fakeRemote) callCount(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[url]
}

func chunkURL(i int) string {
	return fmt.Sprintf("%s/chunks/chunk%d.json.gz", base, i)
}

func newLoader(remote *fakeRemote, store *memory.Store, opts ...loader.Option) *loader.Loader {
	idx := index.New(remote, base, 0)
	cs := chunks.New(afero.NewMemMapFs(), "/cache/chunks")
	return loader.New(idx, cs, remote, store, opts...)
}

func TestLoadFirstChunkThenBackground(t *testing.T) {
	remote := newFakeRemote(t, "lethal-company", 3, 4, 5)
	store := memory.New()
	l := newLoader(remote, store, loader.WithConcurrency(2))

	res, err := l.Load(context.Background(), "lethal-company")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.GreaterOrEqual(t, res.Count, 3)

	summary := res.Handle.Wait()
	assert.Equal(t, 3, summary.Chunks)
	assert.Equal(t, 3, summary.Loaded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 12, summary.Entries)
	assert.Equal(t, 12, store.Len("lethal-company"))
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))

	// First chunk entries come first.
	entries := store.Get("lethal-company")
	assert.Equal(t, "Owner-Mod0_0", entries[0].FullName)
}

func TestLoadReturnsAfterFirstChunk(t *testing.T) {
	remote := newFakeRemote(t, "lc", 2, 2)
	remote.release = make(chan struct{})
	store := memory.New()
	l := newLoader(remote, store)

	res, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	select {
	case <-res.Handle.Done():
		t.Fatal("background chunks finished before they were released")
	default:
	}

	close(remote.release)
	assert.Equal(t, 4, res.Handle.Wait().Entries)
}

func TestLoadFastPath(t *testing.T) {
	remote := newFakeRemote(t, "lc", 2, 3)
	store := memory.New()
	l := newLoader(remote, store)
	ctx := context.Background()

	first, err := l.Load(ctx, "lc")
	require.NoError(t, err)
	first.Handle.Wait()

	second, err := l.Load(ctx, "lc")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 5, second.Count)
	assert.Equal(t, 1, remote.callCount(base+"/c/lc/api/v1/package-listing-index/"))
	assert.Equal(t, 1, remote.callCount(chunkURL(1)))
}

func TestLoadIndexFailure(t *testing.T) {
	remote := newFakeRemote(t, "lc", 1)
	remote.fails[base+"/c/lc/api/v1/package-listing-index/"] = true
	store := memory.New()
	l := newLoader(remote, store)

	res, err := l.Load(context.Background(), "lc")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsIndex(err))
	assert.True(t, errors.IsTransport(err))

	var idxErr *errors.IndexError
	require.True(t, errors.As(err, &idxErr))
	assert.Equal(t, "lc", idxErr.Catalog)
	assert.Equal(t, 0, store.Len("lc"))
}

func TestLoadChunkFailureIsLogged(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	remote := newFakeRemote(t, "lc", 2, 3, 4)
	remote.fails[chunkURL(1)] = true
	store := memory.New()
	l := newLoader(remote, store)

	res, err := l.Load(ctx, "lc")
	require.NoError(t, err)

	summary := res.Handle.Wait()
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 6, summary.Entries)
	tl.AssertContains(t, "Chunk failed to load")
}

func TestLoadFirstChunkFailure(t *testing.T) {
	remote := newFakeRemote(t, "lc", 2, 3)
	remote.fails[chunkURL(0)] = true
	store := memory.New()
	l := newLoader(remote, store)

	res, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, 3, res.Handle.Wait().Entries)
}

func TestLoadWhileBackgroundRunsDoesNotDuplicate(t *testing.T) {
	remote := newFakeRemote(t, "lc", 2, 3)
	remote.fails[chunkURL(0)] = true
	remote.release = make(chan struct{})
	store := memory.New()
	l := newLoader(remote, store)

	first, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)
	assert.Equal(t, 0, first.Count)

	second, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)
	assert.Same(t, first.Handle, second.Handle)

	close(remote.release)
	assert.Equal(t, 3, first.Handle.Wait().Entries)
	<-second.Handle.Done()
	assert.Equal(t, 3, store.Len("lc"))
	assert.Equal(t, 1, remote.callCount(chunkURL(1)))
}

func TestLoadEmptyIndex(t *testing.T) {
	remote := newFakeRemote(t, "lc")
	l := newLoader(remote, memory.New())

	res, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	select {
	case <-res.Handle.Done():
	case <-time.After(time.Second):
		t.Fatal("empty load should complete immediately")
	}
}

func TestLoadCountIsMonotonic(t *testing.T) {
	remote := newFakeRemote(t, "lc", 1, 1, 1, 1, 1, 1, 1, 1)
	store := memory.New()

	var mu sync.Mutex
	var totals []int
	l := newLoader(remote, store, loader.WithConcurrency(3), loader.WithChunkHook(
		func(_ catalog.ID, _ catalog.ChunkRef, appended, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 1, appended)
			totals = append(totals, total)
		}))

	res, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)

	last := res.Count
	for {
		n := store.Len("lc")
		assert.GreaterOrEqual(t, n, last)
		last = n
		select {
		case <-res.Handle.Done():
			assert.Equal(t, 8, store.Len("lc"))
			mu.Lock()
			defer mu.Unlock()
			assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, totals)
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestLoadConcurrentCallersCollapse(t *testing.T) {
	remote := newFakeRemote(t, "lc", 5, 5)
	store := memory.New()
	l := newLoader(remote, store)

	var wg sync.WaitGroup
	var errs atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Load(context.Background(), "lc")
			if err != nil {
				errs.Add(1)
				return
			}
			res.Handle.Wait()
		}()
	}
	wg.Wait()

	assert.Zero(t, errs.Load())
	assert.Equal(t, 10, store.Len("lc"))
	assert.Equal(t, 1, remote.callCount(chunkURL(0)))
	assert.Equal(t, 1, remote.callCount(chunkURL(1)))
}

func TestLoadUsesDiskCache(t *testing.T) {
	remote := newFakeRemote(t, "lc", 2, 2)
	fs := afero.NewMemMapFs()
	idx := index.New(remote, base, 0)

	first := loader.New(idx, chunks.New(fs, "/c"), remote, memory.New())
	res, err := first.Load(context.Background(), "lc")
	require.NoError(t, err)
	res.Handle.Wait()

	second := loader.New(idx, chunks.New(fs, "/c"), remote, memory.New())
	res, err = second.Load(context.Background(), "lc")
	require.NoError(t, err)
	summary := res.Handle.Wait()
	assert.Equal(t, 2, summary.FromCache)
	assert.Equal(t, 1, remote.callCount(chunkURL(0)))
}

func TestWaitContext(t *testing.T) {
	remote := newFakeRemote(t, "lc", 1, 1)
	remote.release = make(chan struct{})
	l := newLoader(remote, memory.New())

	res, err := l.Load(context.Background(), "lc")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = res.Handle.WaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(remote.release)
	s, err := res.Handle.WaitContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries)

	h, ok := l.Handle("lc")
	require.True(t, ok)
	assert.Same(t, res.Handle, h)
}
