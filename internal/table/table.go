// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type is the logical type of a column.
type Type string

const (
	Int    Type = "int"
	Float  Type = "float"
	String Type = "string"
	Bool   Type = "bool"
)

// ParseType maps a schema type name to a Type. Empty means Float, which is
// the default for unlisted numeric columns.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "int", "int16", "int32", "int64", "integer":
		return Int, nil
	case "", "float", "float64", "double", "number":
		return Float, nil
	case "str", "string", "text":
		return String, nil
	case "bool", "boolean":
		return Bool, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// Column is a named, typed vector. A nil value is NA. Non-nil values are
// int64, float64, string or bool according to Type.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// Table is a columnar, tidy table.
type Table struct {
	Columns []*Column
}

// New builds a table after checking that columns have distinct names and
// equal lengths.
func New(cols ...*Column) (*Table, error) {
	seen := map[string]bool{}
	for i, c := range cols {
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = true
		if i > 0 && len(c.Values) != len(cols[0].Values) {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), len(cols[0].Values))
		}
	}
	return &Table{Columns: cols}, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// Size estimates the in-memory footprint of the table in bytes.
func (t *Table) Size() int64 {
	var n int64
	for _, c := range t.Columns {
		n += int64(len(c.Name)) + 16
		for _, v := range c.Values {
			n += 16
			if s, ok := v.(string); ok {
				n += int64(len(s))
			}
		}
	}
	return n
}

// Equal reports whether both tables have the same columns, types and values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) {
		return false
	}
	for i, c := range t.Columns {
		d := o.Columns[i]
		if c.Name != d.Name || c.Type != d.Type || len(c.Values) != len(d.Values) {
			return false
		}
		for j := range c.Values {
			if c.Values[j] != d.Values[j] {
				return false
			}
		}
	}
	return true
}

// ParseValue converts text into a value of type typ. Empty text and NaN are
// NA.
func ParseValue(typ Type, s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch typ {
	case Int:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, err
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			return nil, nil
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		return v, nil
	case String:
		return s, nil
	}
	return nil, fmt.Errorf("unknown column type %q", typ)
}
