// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return s
}

func TestRoot(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	_, err := Root()
	assert.ErrorIs(t, err, ErrNoCacheRoot)

	dir := t.TempDir()
	t.Setenv(EnvCacheDir, dir)
	got, err := Root()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestEntryPath(t *testing.T) {
	s := newStore(t)

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{name: "nested", rel: "raw/bds2021.csv", want: filepath.Join(s.Root(), "bds", "raw", "bds2021.csv")},
		{name: "cleaned", rel: "proc/../proc/economy.db", want: filepath.Join(s.Root(), "bds", "proc", "economy.db")},
		{name: "escape", rel: "../other/file", wantErr: true},
		{name: "empty", rel: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, exists, err := s.EntryPath("bds", tt.rel)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, exists)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadWrite_Table(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, ok, err := s.Read(ctx, "bds", "proc/economy.db", catalog.KindTable)
	require.NoError(t, err)
	assert.False(t, ok)

	tbl, err := table.New(
		&table.Column{Name: "year", Type: table.Int, Values: []any{int64(1978), int64(1979)}},
		&table.Column{Name: "firms", Type: table.Float, Values: []any{3.6e6, nil}},
	)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "bds", "proc/economy.db", tbl))

	v, ok, err := s.Read(ctx, "bds", "proc/economy.db", catalog.KindTable)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tbl.Equal(v.(*table.Table)))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(s.Root(), "bds", "proc"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadWrite_Raw(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// Raw values are already on disk; Write does nothing.
	require.NoError(t, s.Write(ctx, "bds", "raw/bds2021.csv", "/somewhere/else"))
	_, ok, err := s.Read(ctx, "bds", "raw/bds2021.csv", catalog.KindRaw)
	require.NoError(t, err)
	assert.False(t, ok)

	p, _, err := s.EntryPath("bds", "raw/bds2021.csv")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("year\n1978\n"), 0o600))

	v, ok, err := s.Read(ctx, "bds", "raw/bds2021.csv", catalog.KindRaw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, v)
}

func TestRead_CorruptTableIsMiss(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	p, _, err := s.EntryPath("bds", "proc/economy.db")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("not a database"), 0o600))

	_, ok, err := s.Read(ctx, "bds", "proc/economy.db", catalog.KindTable)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteAtomic_Failure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sub", "out.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o600))

	boom := errors.New("boom")
	err := WriteAtomic(dest, func(tmp string) error {
		require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0o600))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWalkRemove(t *testing.T) {
	s := newStore(t)

	for _, rel := range []string{"raw/a.csv", "raw/b.csv", "proc/a.db", "proc/.a.db.tmp-123"} {
		p := filepath.Join(s.Root(), "bds", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}

	var got []string
	require.NoError(t, s.Walk("bds", func(rel string) error {
		got = append(got, rel)
		return nil
	}))
	sort.Strings(got)
	assert.Equal(t, []string{"proc/a.db", "raw/a.csv", "raw/b.csv"}, got)

	require.NoError(t, s.Remove("bds", "raw/a.csv"))
	require.NoError(t, s.Remove("bds", "raw/a.csv"))
	_, exists, err := s.EntryPath("bds", "raw/a.csv")
	require.NoError(t, err)
	assert.False(t, exists)

	// Unknown collections walk as empty.
	assert.NoError(t, s.Walk("nope", func(string) error {
		t.Fatal("unexpected file")
		return nil
	}))
}

func TestPurge(t *testing.T) {
	s := newStore(t)

	old := filepath.Join(s.Root(), "bds", "raw", "old.csv")
	fresh := filepath.Join(s.Root(), "bds", "raw", "fresh.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0o755))
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	n, err := s.Purge(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Purge(24)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}
