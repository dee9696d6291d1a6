// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

// EnvCacheDir names the environment variable holding the cache root.
const EnvCacheDir = "PUBDATA_CACHE_DIR"

// ErrNoCacheRoot is returned when the cache root is not configured.
var ErrNoCacheRoot = errors.New(EnvCacheDir + " is not set")

// Root resolves the cache root directory from PUBDATA_CACHE_DIR. There is no
// fallback; callers should treat an error as fatal at startup.
func Root() (string, error) {
	c, ok := os.LookupEnv(EnvCacheDir)
	if !ok || c == "" {
		return "", ErrNoCacheRoot
	}
	abs, err := filepath.Abs(c)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache root %s: %w", c, err)
	}
	return abs, nil
}

// Store is the on-disk cache. Artifacts live at
// <root>/<collection>/<resolved path>. Raw files are written by the
// downloader, tables by Write. There is no eviction.
type Store struct {
	root string
}

// NewStore returns a store rooted at root, creating the directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// EntryPath returns the absolute location of an artifact and whether a file
// currently exists there. Paths escaping the collection directory are
// rejected.
func (s *Store) EntryPath(collection, rel string) (string, bool, error) {
	dir := filepath.Join(s.root, collection)
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if p == dir || !strings.HasPrefix(p, dir+string(filepath.Separator)) {
		return "", false, fmt.Errorf("cache path %q escapes collection directory", rel)
	}
	info, err := os.Stat(p)
	if err == nil && !info.IsDir() {
		return p, true, nil
	}
	return p, false, nil
}

// Read returns the cached artifact: the file path for raw entries, the
// decoded table for table entries. A table file that cannot be decoded is
// reported as a miss so it gets rebuilt.
func (s *Store) Read(ctx context.Context, collection, rel string, kind catalog.Kind) (any, bool, error) {
	p, ok, err := s.EntryPath(collection, rel)
	if err != nil || !ok {
		return nil, false, err
	}

	switch kind {
	case catalog.KindRaw:
		return p, true, nil
	case catalog.KindTable:
		t, err := table.ReadFile(ctx, p)
		if err != nil {
			log.WithError(err).Warnf("unreadable cache file %s, rebuilding", p)
			return nil, false, nil
		}
		return t, true, nil
	}
	return nil, false, fmt.Errorf("unknown entry kind %q", kind)
}

// Write stores a table artifact. Raw values are already on disk and are
// ignored.
func (s *Store) Write(ctx context.Context, collection, rel string, value any) error {
	t, ok := value.(*table.Table)
	if !ok {
		return nil
	}
	p, _, err := s.EntryPath(collection, rel)
	if err != nil {
		return err
	}
	if err := WriteAtomic(p, func(tmp string) error {
		// SQLite wants to create the file itself.
		if err := os.Remove(tmp); err != nil {
			return err
		}
		return table.WriteFile(ctx, tmp, t)
	}); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	log.Debugf("cached table %s", p)
	return nil
}

// Remove deletes an artifact. Missing files are not an error.
func (s *Store) Remove(collection, rel string) error {
	p, ok, err := s.EntryPath(collection, rel)
	if err != nil || !ok {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	log.Debugf("removed cache file %s", p)
	return nil
}

// Walk calls fn with the slash separated relative path of every artifact in
// a collection. Temporary files from interrupted writes are skipped.
func (s *Store) Walk(collection string, fn func(rel string) error) error {
	dir := filepath.Join(s.root, collection)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || isTemp(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
	return err
}

// Purge removes files older than the provided number of hours.
// If hours <= 0 it is a no-op.
func (s *Store) Purge(hours int) (int, error) {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}
	maxAge := time.Duration(hours) * time.Hour
	removed := 0
	if err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				removed++
				log.Debugf("removed cache file %s", path)
			} else {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			}
		}
		return nil
	}); err != nil {
		return removed, fmt.Errorf("failed to purge cache: %w", err)
	}
	return removed, nil
}

const tempMarker = ".tmp-"

func isTemp(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, tempMarker)
}

// WriteAtomic creates the parent directories of dest, lets fill write a
// temporary file next to it and renames the result into place. On failure
// the temporary file is removed and dest is left untouched.
func WriteAtomic(dest string, fill func(tmp string) error) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+tempMarker+"*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}
