// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package tmpl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustTree(t *testing.T, doc string) *Map {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &n))
	tree, err := FromYAML(&n)
	require.NoError(t, err)
	m, ok := tree.(*Map)
	require.True(t, ok, "document root should be a map")
	return m
}

func TestParseMask(t *testing.T) {
	tests := []struct {
		name    string
		mask    string
		names   []string
		wantErr bool
	}{
		{name: "single", mask: "{revision}_met", names: []string{"revision"}},
		{name: "two", mask: "{a}_{b}", names: []string{"a", "b"}},
		{name: "no placeholders", mask: "economy", names: nil},
		{name: "adjacent", mask: "{a}{b}", wantErr: true},
		{name: "repeated", mask: "{a}_{a}", wantErr: true},
		{name: "unclosed", mask: "{a_met", wantErr: true},
		{name: "empty name", mask: "{}_met", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMask(tt.mask)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMask)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mask, m.String())
			if tt.names == nil {
				assert.Empty(t, m.Names())
			} else {
				assert.Equal(t, tt.names, m.Names())
			}
		})
	}
}

func TestMaskMatch(t *testing.T) {
	tests := []struct {
		name string
		mask string
		key  string
		want map[string]string
	}{
		{
			name: "revision",
			mask: "{revision}_met",
			key:  "2022_met",
			want: map[string]string{"revision": "2022"},
		},
		{
			name: "left to right",
			mask: "{a}_{b}",
			key:  "x_y_z",
			want: map[string]string{"a": "x", "b": "y_z"},
		},
		{
			name: "prefix literal",
			mask: "raw_{breakdown}",
			key:  "raw_st_cty",
			want: map[string]string{"breakdown": "st_cty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMask(tt.mask)
			require.NoError(t, err)
			got, err := m.Match(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskMatch_Mismatch(t *testing.T) {
	m, err := ParseMask("{revision}_met")
	require.NoError(t, err)

	for _, key := range []string{"2022_mets", "2022", "_met", "x2022_met_"} {
		_, err := m.Match(key)
		var kme *KeyMismatchError
		assert.True(t, errors.As(err, &kme), "key %q", key)
	}
}

func TestSubstitute(t *testing.T) {
	env := map[string]string{"a": "one", "b": "two"}

	got, err := Substitute("prefix_{a}_{b}_suffix", env)
	require.NoError(t, err)
	assert.Equal(t, "prefix_one_two_suffix", got)

	got, err = Substitute("{{literal}} {a}", env)
	require.NoError(t, err)
	assert.Equal(t, "{literal} one", got)

	_, err = Substitute("{c}", env)
	var upe *UnknownPlaceholderError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "c", upe.Name)
	assert.Equal(t, []string{"a", "b"}, upe.Known)
}

func TestRoundTrip(t *testing.T) {
	cases := []struct{ a, b string }{
		{"x", "y"},
		{"2020", "st"},
		{"first", "with_underscores"},
		{"a-b", "c.d"},
	}
	m, err := ParseMask("{a}_{b}")
	require.NoError(t, err)

	for _, c := range cases {
		key := c.a + "_" + c.b
		env, err := m.Match(key)
		require.NoError(t, err)
		got, err := Substitute("prefix_{a}_{b}_suffix", env)
		require.NoError(t, err)
		assert.Equal(t, "prefix_"+key+"_suffix", got)
	}
}

func TestResolve(t *testing.T) {
	entry := mustTree(t, `
type: table
mask: "{revision}_met"
path: proc/{revision}/met.pq
depends: "{revision}_src"
size: 12
enabled: true
schema:
  - name: year
    description: "year of {revision}"
tags: [a, "{revision}"]
`)

	resolved, err := Resolve("2022_met", entry)
	require.NoError(t, err)

	assert.Equal(t, "proc/2022/met.pq", resolved.Text("path"))
	assert.Equal(t, "2022_src", resolved.Text("depends"))
	assert.Equal(t, "table", resolved.Text("type"))
	_, hasMask := resolved.Get(MaskField)
	assert.False(t, hasMask)
	assert.Equal(t, map[string]string{"revision": "2022"}, Keys(resolved))

	size, _ := resolved.Get("size")
	assert.Equal(t, Scalar{Tag: "!!int", Value: "12"}, size)

	plain := Interface(resolved).(map[string]any)
	assert.Equal(t, true, plain["enabled"])
	assert.Equal(t, []any{"a", "2022"}, plain["tags"])
	schema := plain["schema"].([]any)
	assert.Equal(t, "year of 2022", schema[0].(map[string]any)["description"])

	// The source entry is untouched.
	assert.Equal(t, "proc/{revision}/met.pq", entry.Text("path"))
}

func TestResolve_KeepsMaskText(t *testing.T) {
	entry := mustTree(t, `
mask: "{revision}_met"
pattern: "{revision}_met"
`)
	resolved, err := Resolve("2022_met", entry)
	require.NoError(t, err)
	assert.Equal(t, "{revision}_met", resolved.Text("pattern"))
}

func TestResolve_Idempotent(t *testing.T) {
	entry := mustTree(t, `
mask: "{a}_{b}"
path: "{a}/{b}.db"
`)
	first, err := Resolve("x_y", entry)
	require.NoError(t, err)

	second, err := Resolve("x_y", first)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "x/y.db", second.Text("path"))
}

func TestResolve_NoMask(t *testing.T) {
	entry := mustTree(t, `
path: "raw/{unused}.csv"
`)
	resolved, err := Resolve("anything", entry)
	require.NoError(t, err)
	assert.Same(t, entry, resolved)
	assert.Empty(t, Keys(resolved))
}

func TestResolve_Errors(t *testing.T) {
	entry := mustTree(t, `
mask: "{revision}_met"
path: "proc/{year}.db"
`)

	_, err := Resolve("2022_met", entry)
	var upe *UnknownPlaceholderError
	assert.True(t, errors.As(err, &upe))

	_, err = Resolve("2022", entry)
	var kme *KeyMismatchError
	assert.True(t, errors.As(err, &kme))
}

func TestFromYAML_InvalidTemplate(t *testing.T) {
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`path: "a/{b"`), &n))
	_, err := FromYAML(&n)
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestMapMarshalYAML_KeepsOrder(t *testing.T) {
	entry := mustTree(t, "zeta: 1\nalpha: two\n")
	out, err := yaml.Marshal(entry)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1\nalpha: two\n", string(out))
}
