// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/antonbabkin/pubdata-sub000/internal/tmpl"
)

//go:embed data/*.yaml
var embedded embed.FS

// Embedded returns the catalog documents compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Catalog is the parsed metadata document of one collection.
type Catalog struct {
	Name        string
	Description string

	keys    []string
	entries map[string]*Entry
	masked  []*Entry
}

// Summary is a short description of a collection.
type Summary struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Entries     int            `json:"entries" yaml:"entries"`
	Kinds       map[string]int `json:"kinds" yaml:"kinds"`
}

// Keys returns the catalog keys in document order. Masked entries appear as
// their catalog key, e.g. "raw_{breakdown}".
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Entry returns the entry stored under the exact catalog key.
func (c *Catalog) Entry(key string) (*Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Lookup finds the entry responsible for key: an exact catalog key first,
// then the first masked entry, in document order, whose mask matches.
func (c *Catalog) Lookup(key string) (*Entry, error) {
	if e, ok := c.entries[key]; ok {
		return e, nil
	}
	for _, e := range c.masked {
		if e.mask.Matches(key) {
			return e, nil
		}
	}
	return nil, &UnknownKeyError{Collection: c.Name, Key: key}
}

// Resolve looks key up and expands its entry.
func (c *Catalog) Resolve(key string) (*Entry, error) {
	e, err := c.Lookup(key)
	if err != nil {
		return nil, err
	}
	r, err := e.Resolve(key)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", c.Name, key, err)
	}
	return r, nil
}

// Summary returns entry counts per kind.
func (c *Catalog) Summary() Summary {
	s := Summary{
		Name:        c.Name,
		Description: c.Description,
		Entries:     len(c.keys),
		Kinds:       map[string]int{},
	}
	for _, k := range c.keys {
		s.Kinds[string(c.entries[k].Type())]++
	}
	return s
}

// Parse reads a catalog document:
//
//	description: ...
//	entries:
//	  <key>: {type, path, url, depends, mask, schema, ...}
func Parse(name string, doc []byte) (*Catalog, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	tree, err := tmpl.FromYAML(&root)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}
	top, ok := tree.(*tmpl.Map)
	if !ok {
		return nil, fmt.Errorf("catalog %s: document must be a mapping", name)
	}

	c := &Catalog{
		Name:        name,
		Description: top.Text("description"),
		entries:     map[string]*Entry{},
	}

	en, _ := top.Get("entries")
	entries, ok := en.(*tmpl.Map)
	if !ok {
		return nil, fmt.Errorf("catalog %s: missing entries mapping", name)
	}

	for _, key := range entries.Keys() {
		n, _ := entries.Get(key)
		fields, ok := n.(*tmpl.Map)
		if !ok {
			return nil, fmt.Errorf("catalog %s: entry %q must be a mapping", name, key)
		}
		e := &Entry{Key: key, Fields: fields}
		if raw := fields.Text(tmpl.MaskField); raw != "" {
			m, err := tmpl.ParseMask(raw)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: entry %q: %w", name, key, err)
			}
			e.mask = m
			c.masked = append(c.masked, e)
		}
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		c.keys = append(c.keys, key)
		c.entries[key] = e
	}

	if err := c.checkChains(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", name, err)
	}

	return c, nil
}

// checkChains verifies that the depends chain of every concrete table entry
// ends at a raw entry. Masked entries can only be checked once a key is
// known.
func (c *Catalog) checkChains() error {
	for _, key := range c.keys {
		e := c.entries[key]
		if e.mask != nil || e.Type() != KindTable {
			continue
		}
		seen := map[string]bool{key: true}
		cur := e
		for cur.Type() == KindTable {
			dep := cur.Depends()
			if seen[dep] {
				return fmt.Errorf("entry %q: depends cycle through %q", key, dep)
			}
			seen[dep] = true
			next, err := c.Resolve(dep)
			if err != nil {
				return fmt.Errorf("entry %q: %w", key, err)
			}
			cur = next
		}
	}
	return nil
}

// Loader loads catalogs from a fixed set of collection names. Each document
// is parsed at most once.
type Loader struct {
	fsys  fs.FS
	names []string

	mu    sync.Mutex
	cache map[string]*Catalog
}

// NewLoader returns a loader reading <name>.yaml documents from fsys for the
// given collections.
func NewLoader(fsys fs.FS, names ...string) *Loader {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return &Loader{
		fsys:  fsys,
		names: sorted,
		cache: map[string]*Catalog{},
	}
}

// Names returns the known collection names, sorted.
func (l *Loader) Names() []string {
	return append([]string(nil), l.names...)
}

// Load returns the catalog of the named collection.
func (l *Loader) Load(name string) (*Catalog, error) {
	if !l.known(name) {
		return nil, &UnknownCollectionError{Name: name, Known: l.Names()}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.cache[name]; ok {
		return c, nil
	}

	doc, err := fs.ReadFile(l.fsys, name+".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog for %s: %w", name, err)
	}
	c, err := Parse(name, doc)
	if err != nil {
		return nil, err
	}
	log.Debugf("loaded catalog %s with %d entries", name, len(c.keys))

	l.cache[name] = c
	return c, nil
}

func (l *Loader) known(name string) bool {
	i := sort.SearchStrings(l.names, name)
	return i < len(l.names) && l.names[i] == name
}
