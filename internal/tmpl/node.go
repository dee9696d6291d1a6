// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmpl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one element of a catalog entry tree. The set of implementations is
// closed: String, Template, *Map, *Seq and Scalar.
type Node interface {
	node()
}

// String is literal text with no placeholders.
type String struct {
	Value string
}

// Template is text containing one or more {name} placeholders.
type Template struct {
	Raw   string
	parts []part
}

// Scalar is any non-string leaf (int, float, bool, null). Tag is the YAML
// tag, Value the source text.
type Scalar struct {
	Tag   string
	Value string
}

// Map is an ordered mapping of string keys to nodes.
type Map struct {
	keys   []string
	values map[string]Node
}

// Seq is an ordered list of nodes.
type Seq struct {
	Items []Node
}

func (String) node()   {}
func (Template) node() {}
func (Scalar) node()   {}
func (*Map) node()     {}
func (*Seq) node()     {}

// part is a fragment of a Template: either literal text or a placeholder.
type part struct {
	text  string
	isVar bool
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: map[string]Node{}}
}

// Set adds or replaces k. Insertion order is kept for new keys.
func (m *Map) Set(k string, n Node) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = n
}

// Get returns the node stored under k.
func (m *Map) Get(k string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	n, ok := m.values[k]
	return n, ok
}

// Text returns the raw text stored under k, or "" when k is absent or not a
// string.
func (m *Map) Text(k string) string {
	n, ok := m.Get(k)
	if !ok {
		return ""
	}
	s, _ := Text(n)
	return s
}

// Keys returns the map keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// without returns a shallow copy of m with k removed.
func (m *Map) without(k string) *Map {
	out := NewMap()
	for _, key := range m.keys {
		if key != k {
			out.Set(key, m.values[key])
		}
	}
	return out
}

// Text returns the source text of a String or Template node.
func Text(n Node) (string, bool) {
	switch v := n.(type) {
	case String:
		return v.Value, true
	case Template:
		return v.Raw, true
	}
	return "", false
}

// NewText returns a Template when s contains placeholders and a String
// otherwise.
func NewText(s string) (Node, error) {
	if !strings.ContainsAny(s, "{}") {
		return String{Value: s}, nil
	}
	parts, err := parseTemplate(s)
	if err != nil {
		return nil, err
	}
	return Template{Raw: s, parts: parts}, nil
}

// FromYAML converts a decoded YAML node into a typed tree.
func FromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return NewMap(), nil
		}
		return FromYAML(n.Content[0])
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			v, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, v)
		}
		return m, nil
	case yaml.SequenceNode:
		s := &Seq{Items: make([]Node, 0, len(n.Content))}
		for _, c := range n.Content {
			v, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, v)
		}
		return s, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			t, err := NewText(n.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return t, nil
		}
		return Scalar{Tag: n.ShortTag(), Value: n.Value}, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node kind %d", n.Line, n.Kind)
}

// Interface converts a tree into plain Go values (map[string]any, []any,
// string, int64, float64, bool, nil) suitable for JSON encoding.
func Interface(n Node) any {
	switch v := n.(type) {
	case String:
		return v.Value
	case Template:
		return v.Raw
	case Scalar:
		return v.Interface()
	case *Map:
		out := make(map[string]any, v.Len())
		for _, k := range v.keys {
			out[k] = Interface(v.values[k])
		}
		return out
	case *Seq:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			out = append(out, Interface(item))
		}
		return out
	}
	return nil
}

// Interface decodes the scalar text according to its tag.
func (s Scalar) Interface() any {
	switch s.Tag {
	case "!!int":
		if i, err := strconv.ParseInt(s.Value, 0, 64); err == nil {
			return i
		}
	case "!!float":
		if f, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return f
		}
	case "!!bool":
		if b, err := strconv.ParseBool(s.Value); err == nil {
			return b
		}
	case "!!null":
		return nil
	}
	return s.Value
}

// ToYAML converts a tree back into a yaml.Node, keeping map key order.
func ToYAML(n Node) *yaml.Node {
	switch v := n.(type) {
	case String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Value}
	case Template:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Raw}
	case Scalar:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: v.Tag, Value: v.Value}
	case *Map:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.keys {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				ToYAML(v.values[k]))
		}
		return out
	case *Seq:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items {
			out.Content = append(out.Content, ToYAML(item))
		}
		return out
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// MarshalYAML keeps key order when a Map is encoded with yaml.v3.
func (m *Map) MarshalYAML() (interface{}, error) {
	return ToYAML(m), nil
}

// MarshalJSON encodes the map as a plain JSON object.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(Interface(m))
}
