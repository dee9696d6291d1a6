// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmpl

import (
	"fmt"
	"sort"
)

const (
	// MaskField is the entry field holding the key mask.
	MaskField = "mask"
	// KeysField is the field attached to resolved entries holding the key
	// components.
	KeysField = "keys"
)

// Resolve expands entry for key. When the entry has no mask it is returned
// unchanged. Otherwise the key is decomposed with the mask and every string
// leaf, except the mask text itself, is substituted with the components. The
// result has no mask field and carries the components under "keys", so
// resolving it again is a no-op.
func Resolve(key string, entry *Map) (*Map, error) {
	mn, ok := entry.Get(MaskField)
	if !ok {
		return entry, nil
	}
	raw, ok := Text(mn)
	if !ok {
		return nil, fmt.Errorf("%w: mask must be a string", ErrInvalidMask)
	}

	mask, err := ParseMask(raw)
	if err != nil {
		return nil, err
	}
	env, err := mask.Match(key)
	if err != nil {
		return nil, err
	}

	out, err := substitute(entry.without(MaskField), raw, env)
	if err != nil {
		return nil, err
	}
	resolved := out.(*Map)
	resolved.Set(KeysField, keysNode(env))

	return resolved, nil
}

// Keys returns the key components attached to a resolved entry.
func Keys(resolved *Map) map[string]string {
	out := map[string]string{}
	n, ok := resolved.Get(KeysField)
	if !ok {
		return out
	}
	m, ok := n.(*Map)
	if !ok {
		return out
	}
	for _, k := range m.keys {
		if s, ok := Text(m.values[k]); ok {
			out[k] = s
		}
	}
	return out
}

func keysNode(env map[string]string) *Map {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)

	m := NewMap()
	for _, k := range names {
		m.Set(k, String{Value: env[k]})
	}
	return m
}

// substitute returns a copy of n with every template executed against env.
// Leaves equal to mask are kept verbatim.
func substitute(n Node, mask string, env map[string]string) (Node, error) {
	switch v := n.(type) {
	case String, Scalar:
		return v, nil
	case Template:
		if v.Raw == mask {
			return v, nil
		}
		s, err := v.Execute(env)
		if err != nil {
			return nil, err
		}
		return String{Value: s}, nil
	case *Map:
		out := NewMap()
		for _, k := range v.keys {
			c, err := substitute(v.values[k], mask, env)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out.Set(k, c)
		}
		return out, nil
	case *Seq:
		out := &Seq{Items: make([]Node, 0, len(v.Items))}
		for i, item := range v.Items {
			c, err := substitute(item, mask, env)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out.Items = append(out.Items, c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected node type %T", n)
}
