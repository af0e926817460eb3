package index_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/internal/catalog/index"
	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/errors"
)

func gz(t *testing.T, s string) []byte {
	t.Helper()
	b, err := transport.Compress([]byte(s))
	require.NoError(t, err)
	return b
}

func TestFetch(t *testing.T) {
	body := gz(t, `["https://cdn.example.com/chunks/aaa.json.gz", "", "https://cdn.example.com/chunks/bbb.json.gz"]`)

	var requested string
	f := index.New(transport.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		requested = url
		return body, nil
	}), "https://example.com/", 0)

	refs, err := f.Fetch(context.Background(), catalog.ID("valheim"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/c/valheim/api/v1/package-listing-index/", requested)
	assert.Equal(t, []catalog.ChunkRef{
		{URL: "https://cdn.example.com/chunks/aaa.json.gz", Hash: "aaa"},
		{URL: "https://cdn.example.com/chunks/bbb.json.gz", Hash: "bbb"},
	}, refs)
}

func TestFetchErrors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		f := index.New(transport.FetcherFunc(func(_ context.Context, url string) ([]byte, error) {
			return nil, errors.NewTransportError(url, 502, nil)
		}), "", 0)
		_, err := f.Fetch(context.Background(), "x")
		assert.True(t, errors.IsTransport(err))
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		f := index.New(transport.FetcherFunc(func(context.Context, string) ([]byte, error) {
			return []byte{0x1f, 0x8b, 0x08, 0x00}, nil
		}), "", 0)
		_, err := f.Fetch(context.Background(), "x")
		assert.True(t, errors.IsFormat(err))
	})

	t.Run("not a list", func(t *testing.T) {
		f := index.New(transport.FetcherFunc(func(context.Context, string) ([]byte, error) {
			return gz(t, `{"chunks": []}`), nil
		}), "", 0)
		_, err := f.Fetch(context.Background(), "x")
		assert.True(t, errors.IsFormat(err))
	})
}

func TestFetchMemoizes(t *testing.T) {
	var calls atomic.Int32
	body := gz(t, `["https://cdn.example.com/c1.json.gz"]`)
	f := index.New(transport.FetcherFunc(func(context.Context, string) ([]byte, error) {
		calls.Add(1)
		return body, nil
	}), "", time.Hour)

	ctx := context.Background()
	first, err := f.Fetch(ctx, "riskofrain2")
	require.NoError(t, err)
	second, err := f.Fetch(ctx, "riskofrain2")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	// Mutating a returned slice must not leak into the memo.
	first[0].Hash = "mutated"
	third, err := f.Fetch(ctx, "riskofrain2")
	require.NoError(t, err)
	assert.Equal(t, "c1", third[0].Hash)

	f.Invalidate("riskofrain2")
	_, err = f.Fetch(ctx, "riskofrain2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
