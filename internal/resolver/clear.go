// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/match"

	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/tmpl"
)

// Ls lists the keys of a collection matching a glob pattern ("*" and "?").
// With an empty collection it lists collection names instead. An empty
// pattern matches everything.
func (r *Resolver) Ls(collection, pattern string) ([]string, error) {
	var candidates []string
	if collection == "" {
		candidates = r.catalogs.Names()
	} else {
		c, err := r.catalogs.Load(collection)
		if err != nil {
			return nil, err
		}
		candidates = c.Keys()
	}

	out := []string{}
	for _, k := range candidates {
		if matches(k, pattern) {
			out = append(out, k)
		}
	}
	return out, nil
}

// ClearOptions controls Clear.
type ClearOptions struct {
	// IncludeRaw also removes downloaded raw files.
	IncludeRaw bool
}

// ClearResult reports what Clear removed.
type ClearResult struct {
	Memory int      `json:"memory" yaml:"memory"`
	Files  []string `json:"files" yaml:"files"`
}

// Clear invalidates cached objects of a collection whose keys match
// pattern, in memory and on disk. Tables are always removed, raw downloads
// only with IncludeRaw.
func (r *Resolver) Clear(ctx context.Context, collection, pattern string, opts ClearOptions) (ClearResult, error) {
	res := ClearResult{Files: []string{}}

	c, err := r.catalogs.Load(collection)
	if err != nil {
		return res, err
	}

	prefix := CacheKey(collection, "")
	for _, ck := range r.memory.Keys() {
		key, ok := strings.CutPrefix(ck, prefix)
		if !ok || !matches(key, pattern) {
			continue
		}
		if v, ok := r.memory.Get(ck); ok && v.(builder.Value).Kind == catalog.KindRaw && !opts.IncludeRaw {
			continue
		}
		if r.memory.Remove(ck) {
			res.Memory++
		}
	}

	err = r.disk.Walk(collection, func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, kind, ok := owner(c, rel)
		if !ok || !matches(key, pattern) {
			return nil
		}
		if kind == catalog.KindRaw && !opts.IncludeRaw {
			return nil
		}
		if err := r.disk.Remove(collection, rel); err != nil {
			log.WithError(err).Warnf("failed to clear %s/%s", collection, rel)
			return nil
		}
		res.Files = append(res.Files, rel)
		return nil
	})
	return res, err
}

// owner finds the key whose resolved path is rel. Concrete entries are
// compared directly; for masked entries the path template is used as a mask
// and the key rebuilt from the components.
func owner(c *catalog.Catalog, rel string) (string, catalog.Kind, bool) {
	for _, k := range c.Keys() {
		e, _ := c.Entry(k)
		if e.Mask() == nil {
			if e.Path() == rel {
				return k, e.Type(), true
			}
			continue
		}
		pm, err := tmpl.ParseMask(e.Path())
		if err != nil {
			continue
		}
		env, err := pm.Match(rel)
		if err != nil {
			continue
		}
		key, err := tmpl.Substitute(e.Mask().String(), env)
		if err != nil || !e.Mask().Matches(key) {
			continue
		}
		// The key may be served by an earlier entry; only the owner counts.
		if l, err := c.Lookup(key); err != nil || l != e {
			continue
		}
		return key, e.Type(), true
	}
	return "", "", false
}

func matches(key, pattern string) bool {
	if pattern == "" {
		return true
	}
	return match.Match(key, pattern)
}

// Purge removes cache files older than hours from every collection and
// empties the memory cache, since it may hold objects whose files are gone.
func (r *Resolver) Purge(hours int) (int, error) {
	n, err := r.disk.Purge(hours)
	if n > 0 {
		r.memory.Purge()
	}
	return n, err
}
