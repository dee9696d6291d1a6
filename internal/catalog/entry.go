// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"

	"github.com/antonbabkin/pubdata-sub000/internal/tmpl"
)

// Kind is the type of a data object.
type Kind string

const (
	// KindRaw is an opaque downloaded file.
	KindRaw Kind = "raw"
	// KindTable is a tidy table derived from other entries.
	KindTable Kind = "table"
)

// Field describes one column of a table entry.
type Field struct {
	Name        string
	Type        string
	Description string
}

// Entry is one row of a catalog, or the resolved form of one. Fields holds
// the whole entry tree, including collection specific settings the typed
// accessors do not cover.
type Entry struct {
	// Key is the catalog key for source entries, and the concrete requested
	// key for resolved ones.
	Key    string
	Fields *tmpl.Map

	mask *tmpl.Mask
}

// Type returns the entry kind.
func (e *Entry) Type() Kind {
	return Kind(e.Fields.Text("type"))
}

// Path returns the cache relative path of the object.
func (e *Entry) Path() string {
	return e.Fields.Text("path")
}

// URL returns the download source of raw entries.
func (e *Entry) URL() string {
	return e.Fields.Text("url")
}

// Depends returns the key this entry is derived from.
func (e *Entry) Depends() string {
	return e.Fields.Text("depends")
}

// Description returns the human description, if any.
func (e *Entry) Description() string {
	return e.Fields.Text("description")
}

// Mask returns the key mask, or nil when the entry is used as-is.
func (e *Entry) Mask() *tmpl.Mask {
	return e.mask
}

// Keys returns the decomposed key components of a resolved entry.
func (e *Entry) Keys() map[string]string {
	return tmpl.Keys(e.Fields)
}

// Strings returns a list of strings stored under name, e.g. na_values.
func (e *Entry) Strings(name string) []string {
	n, ok := e.Fields.Get(name)
	if !ok {
		return nil
	}
	seq, ok := n.(*tmpl.Seq)
	if !ok {
		if s, ok := tmpl.Text(n); ok {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range seq.Items {
		switch v := item.(type) {
		case tmpl.Scalar:
			out = append(out, v.Value)
		default:
			if s, ok := tmpl.Text(v); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Schema returns the column descriptions of a table entry.
func (e *Entry) Schema() []Field {
	n, ok := e.Fields.Get("schema")
	if !ok {
		return nil
	}
	seq, ok := n.(*tmpl.Seq)
	if !ok {
		return nil
	}
	fields := make([]Field, 0, len(seq.Items))
	for _, item := range seq.Items {
		m, ok := item.(*tmpl.Map)
		if !ok {
			continue
		}
		fields = append(fields, Field{
			Name:        m.Text("name"),
			Type:        m.Text("type"),
			Description: m.Text("description"),
		})
	}
	return fields
}

// Resolve expands the entry for key. The result is a new Entry; e is not
// modified.
func (e *Entry) Resolve(key string) (*Entry, error) {
	fields, err := tmpl.Resolve(key, e.Fields)
	if err != nil {
		return nil, err
	}
	return &Entry{Key: key, Fields: fields}, nil
}

// validate checks the fields every entry of a given kind needs.
func (e *Entry) validate() error {
	switch e.Type() {
	case KindRaw:
		if e.URL() == "" {
			return fmt.Errorf("raw entry %q has no url", e.Key)
		}
		if e.Depends() != "" {
			return fmt.Errorf("raw entry %q must not have depends", e.Key)
		}
	case KindTable:
		if e.Depends() == "" {
			return fmt.Errorf("table entry %q has no depends", e.Key)
		}
	default:
		return fmt.Errorf("entry %q has unknown type %q", e.Key, e.Type())
	}
	if e.Path() == "" {
		return fmt.Errorf("entry %q has no path", e.Key)
	}
	return nil
}
