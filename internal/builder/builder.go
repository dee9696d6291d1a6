// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

// Value is a resolved data object: the path of a raw file, or a table.
// Values returned by the resolver carry the cache file path for both kinds.
type Value struct {
	Kind  catalog.Kind
	Path  string
	Table *table.Table
}

// Raw returns a raw file value.
func Raw(path string) Value {
	return Value{Kind: catalog.KindRaw, Path: path}
}

// Tabular returns a table value.
func Tabular(t *table.Table) Value {
	return Value{Kind: catalog.KindTable, Table: t}
}

// Size reports the memory footprint used for cache accounting.
func (v Value) Size() int64 {
	if v.Table != nil {
		return v.Table.Size()
	}
	return int64(len(v.Path))
}

// Getter resolves dependencies through the caches.
type Getter interface {
	Get(ctx context.Context, collection, key string) (Value, error)
}

// Request is everything a builder gets to produce one object.
type Request struct {
	Collection string
	Key        string
	// Entry is the resolved catalog entry.
	Entry *catalog.Entry
	// Path is the absolute on-disk location of the object. Raw builders
	// write here; table results are written by the caller.
	Path   string
	Getter Getter
}

// Builder produces the object described by a request.
type Builder interface {
	Build(ctx context.Context, req Request) (Value, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, req Request) (Value, error) //nolint:revive

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, req Request) (Value, error) {
	return f(ctx, req)
}

// Fetcher downloads a URL to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// RawFetcher is the default raw behavior: download the entry url to the
// request path.
type RawFetcher struct {
	Fetcher Fetcher
}

// Build implements Builder.
func (r RawFetcher) Build(ctx context.Context, req Request) (Value, error) {
	if req.Entry.Type() != catalog.KindRaw {
		return Value{}, fmt.Errorf("%s is not a raw entry", req.Key)
	}
	if err := r.Fetcher.Fetch(ctx, req.Entry.URL(), req.Path); err != nil {
		return Value{}, err
	}
	return Raw(req.Path), nil
}

// Registry maps collection names to builders. It is built explicitly at
// startup.
type Registry map[string]Builder

// Names returns the registered collections, sorted.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the builder for a collection.
func (r Registry) Lookup(collection string) (Builder, error) {
	b, ok := r[collection]
	if !ok || b == nil {
		return nil, &UnregisteredBuilderError{Collection: collection}
	}
	return b, nil
}

// Validate checks that the registry and the catalog set name the same
// collections.
func (r Registry) Validate(catalogs []string) error {
	var missing, orphan []string
	have := map[string]bool{}
	for _, c := range catalogs {
		have[c] = true
		if _, ok := r[c]; !ok {
			missing = append(missing, c)
		}
	}
	for _, c := range r.Names() {
		if !have[c] {
			orphan = append(orphan, c)
		}
	}
	switch {
	case len(missing) > 0:
		return fmt.Errorf("no builder registered for: %s", strings.Join(missing, ", "))
	case len(orphan) > 0:
		return fmt.Errorf("no catalog for: %s", strings.Join(orphan, ", "))
	}
	return nil
}
