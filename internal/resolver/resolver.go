// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/cache"
	"github.com/antonbabkin/pubdata-sub000/internal/cacheutil"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/download"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

// ErrDependencyCycle is returned when resolving a key requires itself.
var ErrDependencyCycle = errors.New("dependency cycle")

// Resolver serves data objects by (collection, key), in front of the memory
// cache, the disk cache and the collection builders. Safe for concurrent
// use.
type Resolver struct {
	catalogs *catalog.Loader
	builders builder.Registry
	memory   *cache.Memory
	disk     *cacheutil.Store

	group singleflight.Group
}

// New returns a Resolver over the given collaborators.
func New(catalogs *catalog.Loader, builders builder.Registry, memory *cache.Memory, disk *cacheutil.Store) *Resolver {
	return &Resolver{
		catalogs: catalogs,
		builders: builders,
		memory:   memory,
		disk:     disk,
	}
}

// CacheKey is the memory cache key of an object.
func CacheKey(collection, key string) string {
	return collection + "/" + key
}

// Get returns the object for key, building it and its dependencies when it
// is in neither cache.
func (r *Resolver) Get(ctx context.Context, collection, key string) (builder.Value, error) {
	ck := CacheKey(collection, key)
	if v, ok := r.memory.Get(ck); ok {
		log.Debugf("memory hit %s", ck)
		return v.(builder.Value), nil
	}

	chain := chainOf(ctx)
	for _, c := range chain {
		if c == ck {
			return builder.Value{}, fmt.Errorf("%w: %s -> %s", ErrDependencyCycle, strings.Join(chain, " -> "), ck)
		}
	}

	v, err, _ := r.group.Do(ck, func() (any, error) {
		return r.load(withChain(ctx, ck), collection, key, ck)
	})
	if err != nil {
		return builder.Value{}, err
	}
	return v.(builder.Value), nil
}

func (r *Resolver) load(ctx context.Context, collection, key, ck string) (builder.Value, error) {
	if v, ok := r.memory.Get(ck); ok {
		return v.(builder.Value), nil
	}

	c, err := r.catalogs.Load(collection)
	if err != nil {
		return builder.Value{}, err
	}
	e, err := resolve(c, collection, key)
	if err != nil {
		return builder.Value{}, err
	}

	path, _, err := r.disk.EntryPath(collection, e.Path())
	if err != nil {
		return builder.Value{}, err
	}

	cached, ok, err := r.disk.Read(ctx, collection, e.Path(), e.Type())
	if err != nil {
		return builder.Value{}, err
	}
	if ok {
		log.Debugf("disk hit %s", ck)
		v := wrap(e.Type(), cached)
		v.Path = path
		r.memory.Set(ck, v)
		return v, nil
	}

	if err := checkChain(c, collection, e); err != nil {
		return builder.Value{}, err
	}

	b, err := r.builders.Lookup(collection)
	if err != nil {
		return builder.Value{}, err
	}

	log.Debugf("building %s", ck)
	v, err := b.Build(ctx, builder.Request{
		Collection: collection,
		Key:        key,
		Entry:      e,
		Path:       path,
		Getter:     r,
	})
	if err != nil {
		return builder.Value{}, buildError(collection, key, err)
	}
	if v.Kind != e.Type() {
		return builder.Value{}, &builder.BuildError{
			Collection: collection,
			Key:        key,
			Err:        fmt.Errorf("builder returned %q value for %q entry", v.Kind, e.Type()),
		}
	}

	if v.Kind == catalog.KindTable {
		if err := r.disk.Write(ctx, collection, e.Path(), v.Table); err != nil {
			return builder.Value{}, err
		}
	}
	v.Path = path
	r.memory.Set(ck, v)
	return v, nil
}

// resolve looks key up in c. A masked catalog key is a pattern, not an
// object, and is reported as unknown.
func resolve(c *catalog.Catalog, collection, key string) (*catalog.Entry, error) {
	if e, ok := c.Entry(key); ok && e.Mask() != nil {
		return nil, &catalog.UnknownKeyError{Collection: collection, Key: key}
	}
	return c.Resolve(key)
}

// checkChain follows the depends chain of e down to a raw entry and fails on
// a repeated key. It runs before building, independent of the context chain.
func checkChain(c *catalog.Catalog, collection string, e *catalog.Entry) error {
	chain := []string{CacheKey(collection, e.Key)}
	seen := map[string]bool{e.Key: true}
	for e.Type() == catalog.KindTable {
		dep := e.Depends()
		if seen[dep] {
			return fmt.Errorf("%w: %s -> %s", ErrDependencyCycle, strings.Join(chain, " -> "), CacheKey(collection, dep))
		}
		next, err := resolve(c, collection, dep)
		if err != nil {
			return err
		}
		seen[dep] = true
		chain = append(chain, CacheKey(collection, dep))
		e = next
	}
	return nil
}

// Meta returns the resolved catalog entry for key. For the literal key of a
// masked entry, e.g. "by_{breakdown}", the unresolved entry is returned.
func (r *Resolver) Meta(collection, key string) (*catalog.Entry, error) {
	c, err := r.catalogs.Load(collection)
	if err != nil {
		return nil, err
	}
	if e, ok := c.Entry(key); ok && e.Mask() != nil {
		return e, nil
	}
	return c.Resolve(key)
}

// Summary describes a collection.
func (r *Resolver) Summary(collection string) (catalog.Summary, error) {
	c, err := r.catalogs.Load(collection)
	if err != nil {
		return catalog.Summary{}, err
	}
	return c.Summary(), nil
}

func wrap(kind catalog.Kind, cached any) builder.Value {
	if kind == catalog.KindRaw {
		return builder.Raw(cached.(string))
	}
	return builder.Tabular(cached.(*table.Table))
}

// buildError wraps a builder failure once. Failures of dependencies are
// already wrapped and pass through unchanged, as do download failures.
func buildError(collection, key string, err error) error {
	var be *builder.BuildError
	if errors.As(err, &be) {
		return err
	}
	var ue *catalog.UnknownKeyError
	var de *download.DownloadError
	if errors.Is(err, ErrDependencyCycle) || errors.As(err, &ue) || errors.As(err, &de) {
		return err
	}
	return &builder.BuildError{Collection: collection, Key: key, Err: err}
}

type chainKey struct{}

func chainOf(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey{}).([]string)
	return chain
}

func withChain(ctx context.Context, ck string) context.Context {
	prev := chainOf(ctx)
	chain := make([]string, len(prev), len(prev)+1)
	copy(chain, prev)
	return context.WithValue(ctx, chainKey{}, append(chain, ck))
}
