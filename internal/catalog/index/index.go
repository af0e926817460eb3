// Package index retrieves the ordered list of chunk locators for a catalog.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

// Fetcher retrieves chunk indexes. Successful results are memoized for a
// TTL so repeated loads within the freshness window skip the network.
// A failed fetch is never cached and never retried.
type Fetcher struct {
	transport transport.Fetcher
	baseURL   string
	memo      *gocache.Cache
}

// New creates an index fetcher. A ttl <= 0 disables memoization.
func New(t transport.Fetcher, baseURL string, ttl time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = constants.DefaultAPIBaseURL
	}
	f := &Fetcher{
		transport: t,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
	if ttl > 0 {
		f.memo = gocache.New(ttl, constants.IndexCacheCleanupInterval)
	}
	return f
}

// URL returns the index location for a catalog.
func (f *Fetcher) URL(id catalog.ID) string {
	return f.baseURL + fmt.Sprintf(constants.PackageListingIndexPath, id)
}

// Fetch returns the chunk references for a catalog, in index order.
func (f *Fetcher) Fetch(ctx context.Context, id catalog.ID) ([]catalog.ChunkRef, error) {
	if f.memo != nil {
		if cached, ok := f.memo.Get(string(id)); ok {
			refs := cached.([]catalog.ChunkRef)
			return append([]catalog.ChunkRef(nil), refs...), nil
		}
	}

	url := f.URL(id)
	logger := logging.FromContext(ctx)
	logger.Debug().Str("url", url).Msg("Fetching chunk index")

	data, err := transport.FetchDecompressed(ctx, f.transport, url)
	if err != nil {
		return nil, err
	}

	refs, err := Parse(data)
	if err != nil {
		return nil, errors.WrapFormat("json", url, err)
	}

	logger.Info().Int("chunks", len(refs)).Msg("Fetched chunk index")

	if f.memo != nil {
		f.memo.SetDefault(string(id), refs)
	}
	return append([]catalog.ChunkRef(nil), refs...), nil
}

// Invalidate drops the memoized index of a catalog.
func (f *Fetcher) Invalidate(id catalog.ID) {
	if f.memo != nil {
		f.memo.Delete(string(id))
	}
}

// InvalidateAll drops every memoized index.
func (f *Fetcher) InvalidateAll() {
	if f.memo != nil {
		f.memo.Flush()
	}
}

// Parse decodes a decompressed index document: a JSON array of locator strings.
func Parse(data []byte) ([]catalog.ChunkRef, error) {
	var locators []string
	if err := json.Unmarshal(data, &locators); err != nil {
		return nil, err
	}
	refs := make([]catalog.ChunkRef, 0, len(locators))
	for _, loc := range locators {
		if loc = strings.TrimSpace(loc); loc == "" {
			continue
		}
		refs = append(refs, catalog.NewChunkRef(loc))
	}
	return refs, nil
}
