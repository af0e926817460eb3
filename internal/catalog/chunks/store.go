// Package chunks persists decompressed catalog chunks on disk, one file per
// content hash. Chunks are immutable, so files are never evicted.
package chunks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/agentstation/modsync/internal/transport"
	"github.com/agentstation/modsync/pkg/catalog"
	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

const fileExt = ".json"

// Store reads and writes chunk files under a single directory.
type Store struct {
	fs  afero.Fs
	dir string
}

// New creates a chunk store rooted at dir on the given filesystem.
func New(fs afero.Fs, dir string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dir: dir}
}

// Dir returns the directory holding chunk files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the cache file location for a chunk.
func (s *Store) Path(ref catalog.ChunkRef) string {
	return filepath.Join(s.dir, ref.Hash+fileExt)
}

// Load returns the cached entries of a chunk. Any read or decode failure is
// a cache miss, never an error.
func (s *Store) Load(ctx context.Context, ref catalog.ChunkRef) ([]catalog.Entry, bool) {
	path := s.Path(ref)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, false
	}

	var entries []catalog.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.FromContext(ctx).Debug().
			Err(errors.WrapCache("decode", ref.Hash, err)).
			Str("path", path).
			Msg("Ignoring unreadable chunk cache file")
		return nil, false
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	return entries, true
}

// Save persists the entries of a chunk. It is best-effort: failures are
// logged and swallowed so callers keep the data they already have.
func (s *Store) Save(ctx context.Context, ref catalog.ChunkRef, entries []catalog.Entry) {
	if err := s.save(ref, entries); err != nil {
		logging.FromContext(ctx).Warn().
			Err(err).
			Str("chunk", ref.Hash).
			Msg("Failed to persist chunk")
	}
}

func (s *Store) save(ref catalog.ChunkRef, entries []catalog.Entry) error {
	if entries == nil {
		entries = []catalog.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.WrapCache("encode", ref.Hash, err)
	}

	if err := s.fs.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return errors.WrapCache("mkdir", ref.Hash, err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, ref.Hash+"_*.tmp")
	if err != nil {
		return errors.WrapCache("write", ref.Hash, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return errors.WrapCache("write", ref.Hash, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return errors.WrapCache("write", ref.Hash, err)
	}

	if err := s.fs.Rename(tmpPath, s.Path(ref)); err != nil {
		_ = s.fs.Remove(tmpPath)
		return errors.WrapCache("rename", ref.Hash, err)
	}
	return nil
}

// LoadThrough returns a chunk from disk, or fetches, decompresses, parses
// and persists it. The bool reports whether the disk cache served it.
func (s *Store) LoadThrough(ctx context.Context, ref catalog.ChunkRef, f transport.Fetcher) ([]catalog.Entry, bool, error) {
	if entries, ok := s.Load(ctx, ref); ok {
		return entries, true, nil
	}

	data, err := transport.FetchDecompressed(ctx, f, ref.URL)
	if err != nil {
		return nil, false, err
	}

	entries, err := catalog.ParseEntries(data)
	if err != nil {
		return nil, false, errors.WrapFormat("json", ref.URL, err)
	}

	s.Save(ctx, ref, entries)
	return entries, false, nil
}

// Clear removes every chunk file and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if exists, _ := afero.DirExists(s.fs, s.dir); !exists {
			return 0, nil
		}
		return 0, errors.WrapFS("read", s.dir, err)
	}

	removed := 0
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !(strings.HasSuffix(name, fileExt) || strings.HasSuffix(name, ".tmp")) {
			continue
		}
		path := filepath.Join(s.dir, name)
		if err := s.fs.Remove(path); err != nil {
			return removed, errors.WrapFS("remove", path, err)
		}
		removed++
	}
	return removed, nil
}
