// Package mirror copies a directory tree onto another, copying a file only
// when the destination is missing it or holds a different size (or, with
// CompareContent, different bytes).
package mirror

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/agentstation/modsync/pkg/constants"
	"github.com/agentstation/modsync/pkg/errors"
	"github.com/agentstation/modsync/pkg/logging"
)

// Options changes how files are compared and what happens to extra entries.
type Options struct {
	// CompareContent also compares the bytes of same-size files, so an edit
	// that keeps the size is still copied.
	CompareContent bool
	// SkipExisting copies only files the destination does not have.
	SkipExisting bool
	// Prune removes destination entries that the source does not have.
	Prune bool
	// Skip excludes a source path, relative to the mirror root.
	// Returning true for a directory skips its whole subtree.
	Skip func(rel string, info fs.FileInfo) bool
}

// Stats counts the work a mirror did.
type Stats struct {
	FilesCopied  int   `json:"files_copied" yaml:"files_copied"`
	FilesSkipped int   `json:"files_skipped" yaml:"files_skipped"`
	DirsCreated  int   `json:"dirs_created" yaml:"dirs_created"`
	Removed      int   `json:"removed" yaml:"removed"`
	BytesCopied  int64 `json:"bytes_copied" yaml:"bytes_copied"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.FilesCopied += o.FilesCopied
	s.FilesSkipped += o.FilesSkipped
	s.DirsCreated += o.DirsCreated
	s.Removed += o.Removed
	s.BytesCopied += o.BytesCopied
}

// Mirror copies the tree at src into dst. Directories are created as
// needed. Without Prune nothing in dst is ever deleted except a file about
// to be replaced.
//
// Files whose content changed but whose size did not are not copied.
func Mirror(ctx context.Context, afs afero.Fs, src, dst string, opts Options) (Stats, error) {
	var stats Stats

	info, err := afs.Stat(src)
	if err != nil {
		return stats, errors.WrapFS("stat", src, err)
	}
	if !info.IsDir() {
		return stats, errors.WrapFS("stat", src, errors.New("not a directory"))
	}

	m := &mirrorer{fs: afs, opts: opts, stats: &stats, log: logging.FromContext(ctx)}
	if err := m.ensureDir(dst); err != nil {
		return stats, err
	}
	err = m.dir(ctx, src, dst, "")
	return stats, err
}

type mirrorer struct {
	fs    afero.Fs
	opts  Options
	stats *Stats
	log   *zerolog.Logger
}

func (m *mirrorer) dir(ctx context.Context, src, dst, rel string) error {
	entries, err := afero.ReadDir(m.fs, src)
	if err != nil {
		return errors.WrapFS("read", src, err)
	}

	kept := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := e.Name()
		childRel := filepath.Join(rel, name)
		// Skipped entries are left alone in dst, never pruned.
		kept[name] = true
		if m.opts.Skip != nil && m.opts.Skip(childRel, e) {
			continue
		}

		s, d := filepath.Join(src, name), filepath.Join(dst, name)
		if e.IsDir() {
			if err := m.ensureDir(d); err != nil {
				return err
			}
			if err := m.dir(ctx, s, d, childRel); err != nil {
				return err
			}
			continue
		}
		if err := m.file(s, d, e); err != nil {
			return err
		}
	}

	if m.opts.Prune {
		return m.prune(dst, kept)
	}
	return nil
}

// ensureDir creates dst when absent. A file in the way is replaced.
func (m *mirrorer) ensureDir(dst string) error {
	info, err := m.fs.Stat(dst)
	if err == nil && info.IsDir() {
		return nil
	}
	if err == nil {
		if err := m.fs.Remove(dst); err != nil {
			return errors.WrapFS("remove", dst, err)
		}
	}
	if err := m.fs.MkdirAll(dst, constants.DirPermissions); err != nil {
		return errors.WrapFS("mkdir", dst, err)
	}
	m.stats.DirsCreated++
	return nil
}

// File applies the mirror rules of opts to a single file. Skip and Prune
// do not apply.
func File(ctx context.Context, afs afero.Fs, src, dst string, opts Options) (Stats, error) {
	var stats Stats
	info, err := afs.Stat(src)
	if err != nil {
		return stats, errors.WrapFS("stat", src, err)
	}
	if info.IsDir() {
		return stats, errors.WrapFS("stat", src, errors.New("is a directory"))
	}
	if err := afs.MkdirAll(filepath.Dir(dst), constants.DirPermissions); err != nil {
		return stats, errors.WrapFS("mkdir", filepath.Dir(dst), err)
	}
	m := &mirrorer{fs: afs, opts: opts, stats: &stats, log: logging.FromContext(ctx)}
	return stats, m.file(src, dst, info)
}

func (m *mirrorer) file(src, dst string, info fs.FileInfo) error {
	existing, err := m.fs.Stat(dst)
	exists := err == nil

	if exists && !existing.IsDir() {
		current, err := m.current(src, dst, info, existing)
		if err != nil {
			return err
		}
		if current {
			m.stats.FilesSkipped++
			return nil
		}
	}

	if exists {
		if err := m.fs.RemoveAll(dst); err != nil {
			return errors.WrapFS("remove", dst, err)
		}
	}

	n, err := copyFile(m.fs, src, dst, info.Mode().Perm())
	if err != nil {
		return err
	}
	m.stats.FilesCopied++
	m.stats.BytesCopied += n
	m.log.Trace().Str("src", src).Str("dst", dst).Int64("bytes", n).Msg("Copied file")
	return nil
}

// current reports whether the existing dst file needs no copy.
func (m *mirrorer) current(src, dst string, info, existing fs.FileInfo) (bool, error) {
	switch {
	case m.opts.SkipExisting:
		return true, nil
	case existing.Size() != info.Size():
		return false, nil
	case !m.opts.CompareContent:
		return true, nil
	}
	want, err := afero.ReadFile(m.fs, src)
	if err != nil {
		return false, errors.WrapFS("read", src, err)
	}
	got, err := afero.ReadFile(m.fs, dst)
	if err != nil {
		return false, errors.WrapFS("read", dst, err)
	}
	return bytes.Equal(want, got), nil
}

func (m *mirrorer) prune(dst string, kept map[string]bool) error {
	entries, err := afero.ReadDir(m.fs, dst)
	if err != nil {
		return errors.WrapFS("read", dst, err)
	}
	for _, e := range entries {
		if kept[e.Name()] {
			continue
		}
		p := filepath.Join(dst, e.Name())
		if err := m.fs.RemoveAll(p); err != nil {
			return errors.WrapFS("remove", p, err)
		}
		m.stats.Removed++
		m.log.Debug().Str("path", p).Msg("Pruned entry")
	}
	return nil
}

// CopyFile copies a single file, creating the destination's parent
// directories and keeping the source permission bits.
func CopyFile(afs afero.Fs, src, dst string) (int64, error) {
	info, err := afs.Stat(src)
	if err != nil {
		return 0, errors.WrapFS("stat", src, err)
	}
	if err := afs.MkdirAll(filepath.Dir(dst), constants.DirPermissions); err != nil {
		return 0, errors.WrapFS("mkdir", filepath.Dir(dst), err)
	}
	return copyFile(afs, src, dst, info.Mode().Perm())
}

func copyFile(afs afero.Fs, src, dst string, perm fs.FileMode) (int64, error) {
	in, err := afs.Open(src)
	if err != nil {
		return 0, errors.WrapFS("read", src, err)
	}
	defer in.Close()

	if perm == 0 {
		perm = constants.FilePermissions
	}
	out, err := afs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, errors.WrapFS("copy", dst, err)
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.WrapFS("copy", dst, err)
	}
	return n, nil
}
