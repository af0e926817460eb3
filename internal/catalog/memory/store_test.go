package memory_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/modsync/internal/catalog/memory"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/errors"
)

func entries(prefix string, n int) []catalog.Entry {
	out := make([]catalog.Entry, n)
	for i := range out {
		out[i] = catalog.Entry{Name: fmt.Sprintf("%s%d", prefix, i), FullName: fmt.Sprintf("Owner-%s%d", prefix, i)}
	}
	return out
}

func TestAppendAndGet(t *testing.T) {
	s := memory.New()
	assert.Nil(t, s.Get("valheim"))
	assert.Zero(t, s.Len("valheim"))

	n, err := s.Append("valheim", entries("a", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Append("valheim", entries("b", 2))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got := s.Get("valheim")
	require.Len(t, got, 5)
	assert.Equal(t, "a0", got[0].Name)
	assert.Equal(t, "b1", got[4].Name)
	assert.Zero(t, s.Len("lethal-company"), "catalogs are independent")
}

func TestGetReturnsCopy(t *testing.T) {
	s := memory.New()
	_, err := s.Append("c", entries("x", 2))
	require.NoError(t, err)

	snapshot := s.Get("c")
	snapshot[0].Name = "changed"

	_, err = s.Append("c", entries("y", 1))
	require.NoError(t, err)

	assert.Len(t, snapshot, 2, "snapshots do not grow")
	assert.Equal(t, "x0", s.Get("c")[0].Name, "stored entries are never mutated by callers")
}

func TestIDs(t *testing.T) {
	s := memory.New()
	_, _ = s.Append("valheim", entries("a", 1))
	_, _ = s.Append("empty", nil)
	_, _ = s.Append("content-warning", entries("b", 1))

	assert.Equal(t, []catalog.ID{"content-warning", "valheim"}, s.IDs())
}

func TestClose(t *testing.T) {
	s := memory.New()
	_, _ = s.Append("c", entries("a", 1))
	s.Close()

	_, err := s.Append("c", entries("b", 1))
	assert.ErrorIs(t, err, errors.ErrLock)
	assert.Equal(t, 1, s.Len("c"))
}

func TestConcurrentAppendAndRead(t *testing.T) {
	s := memory.New()
	const writers, perWriter = 16, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := s.Append("c", entries(fmt.Sprintf("w%d-", w), 1))
				assert.NoError(t, err)
			}
		}(w)
	}

	// Readers observe a monotonically growing sequence.
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := 0
		for i := 0; i < 200; i++ {
			n := len(s.Get("c"))
			assert.GreaterOrEqual(t, n, last)
			last = n
		}
	}()

	wg.Wait()
	assert.Equal(t, writers*perWriter, s.Len("c"))
}
