// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package bds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

const sampleCSV = "year,st,firms,estabs_entry_rate\n" +
	"1978,01,3600000,(D)\n" +
	"1979,02,.,12.5\n"

func TestReadCSV(t *testing.T) {
	schema := []catalog.Field{{Name: "year", Type: "int"}, {Name: "st", Type: "string"}}
	got, err := ReadCSV(strings.NewReader(sampleCSV), schema, []string{"(D)", "."})
	require.NoError(t, err)

	want, err := table.New(
		&table.Column{Name: "year", Type: table.Int, Values: []any{int64(1978), int64(1979)}},
		&table.Column{Name: "st", Type: table.String, Values: []any{"01", "02"}},
		&table.Column{Name: "firms", Type: table.Float, Values: []any{3600000.0, nil}},
		&table.Column{Name: "estabs_entry_rate", Type: table.Float, Values: []any{nil, 12.5}},
	)
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "got %+v", got.Columns)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		schema []catalog.Field
		errMsg string
	}{
		{name: "empty", in: "", errMsg: "empty csv"},
		{name: "bad number", in: "firms\nlots\n", errMsg: "line 2, column firms"},
		{name: "bad type", in: "a\n1\n", schema: []catalog.Field{{Name: "a", Type: "decimal"}}, errMsg: "unknown column type"},
		{name: "ragged", in: "a,b\n1\n", errMsg: "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), tt.schema, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

type fakeFetcher struct {
	body  string
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, dest string) error {
	f.calls++
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(f.body), 0o600)
}

// rawGetter serves every dependency by building it as a raw entry.
type rawGetter struct {
	c   *catalog.Catalog
	b   *Builder
	dir string
}

func (g rawGetter) Get(ctx context.Context, collection, key string) (builder.Value, error) {
	e, err := g.c.Resolve(key)
	if err != nil {
		return builder.Value{}, err
	}
	return g.b.Build(ctx, builder.Request{
		Collection: collection,
		Key:        key,
		Entry:      e,
		Path:       filepath.Join(g.dir, e.Path()),
		Getter:     g,
	})
}

func TestBuild_EmbeddedCatalog(t *testing.T) {
	c, err := catalog.NewLoader(catalog.Embedded(), Name).Load(Name)
	require.NoError(t, err)

	f := &fakeFetcher{body: sampleCSV}
	b := New(f)
	g := rawGetter{c: c, b: b, dir: t.TempDir()}

	e, err := c.Resolve("by_st")
	require.NoError(t, err)
	v, err := b.Build(context.Background(), builder.Request{
		Collection: Name, Key: "by_st", Entry: e, Path: filepath.Join(g.dir, e.Path()), Getter: g,
	})
	require.NoError(t, err)
	require.Equal(t, catalog.KindTable, v.Kind)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 2, v.Table.NumRows())
	assert.Equal(t, table.Int, v.Table.Column("year").Type)
	assert.Equal(t, table.String, v.Table.Column("st").Type)
	assert.Equal(t, []any{nil, 12.5}, v.Table.Column("estabs_entry_rate").Values)

	raw, err := g.Get(context.Background(), Name, "raw_st")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(g.dir, "raw", "bds2021_st.csv"), raw.Path)
}

type errGetter struct{ err error }

func (g errGetter) Get(context.Context, string, string) (builder.Value, error) {
	return builder.Value{}, g.err
}

func TestBuild_DependencyError(t *testing.T) {
	c, err := catalog.NewLoader(catalog.Embedded(), Name).Load(Name)
	require.NoError(t, err)
	e, err := c.Resolve("economy")
	require.NoError(t, err)

	cause := errors.New("offline")
	_, err = New(&fakeFetcher{}).Build(context.Background(), builder.Request{
		Collection: Name, Key: "economy", Entry: e, Getter: errGetter{err: cause},
	})
	assert.ErrorIs(t, err, cause)
}
