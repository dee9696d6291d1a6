// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "exact match",
			spec: "type=table",
			want: []Filter{{Key: "type", Operand: "=", Target: "table"}},
		},
		{
			name: "prefix match",
			spec: "key^by_",
			want: []Filter{{Key: "key", Operand: "^", Target: "by_"}},
		},
		{
			name: "negated contains",
			spec: "path!@raw",
			want: []Filter{{Key: "path", Operand: "@", Target: "raw", Negate: true}},
		},
		{
			name: "multiple",
			spec: "type=table,key/^by_",
			want: []Filter{
				{Key: "type", Operand: "=", Target: "table"},
				{Key: "key", Operand: "/", Target: "^by_"},
			},
		},
		{
			name:      "custom delimiter",
			spec:      "description@a,b;type=raw",
			delimiter: ";",
			want: []Filter{
				{Key: "description", Operand: "@", Target: "a,b"},
				{Key: "type", Operand: "=", Target: "raw"},
			},
		},
		{
			name: "invalid skipped",
			spec: "nooperator,=novalue,type=raw",
			want: []Filter{{Key: "type", Operand: "=", Target: "raw"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv(EnvFilterDelim, tt.delimiter)
			}
			got := BuildFilters(tt.spec)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{name: "exact", value: "table", filter: Filter{Operand: "=", Target: "table"}, want: true},
		{name: "exact miss", value: "raw", filter: Filter{Operand: "=", Target: "table"}, want: false},
		{name: "negated exact", value: "raw", filter: Filter{Operand: "=", Target: "table", Negate: true}, want: true},
		{name: "fold", value: "BDS", filter: Filter{Operand: "~", Target: "bds"}, want: true},
		{name: "prefix", value: "by_st", filter: Filter{Operand: "^", Target: "by_"}, want: true},
		{name: "contains", value: "raw/bds2021.csv", filter: Filter{Operand: "@", Target: "2021"}, want: true},
		{name: "regex", value: "by_fagefsize", filter: Filter{Operand: "/", Target: `^by_f\w+$`}, want: true},
		{name: "negated regex", value: "economy", filter: Filter{Operand: "/", Target: "^by_", Negate: true}, want: true},
		{name: "greater", value: "z", filter: Filter{Operand: ">", Target: "a"}, want: true},
		{name: "less", value: "z", filter: Filter{Operand: "<", Target: "a"}, want: false},
		{name: "invalid regex", value: "x", filter: Filter{Operand: "/", Target: "[bad"}, want: false},
		{name: "unsupported operand", value: "x", filter: Filter{Operand: "?", Target: "x"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{name: "equal", value: 4, filter: Filter{Operand: "=", Target: "4"}, want: true},
		{name: "not equal", value: 4, filter: Filter{Operand: "=", Target: "4", Negate: true}, want: false},
		{name: "greater", value: 10, filter: Filter{Operand: ">", Target: "9.5"}, want: true},
		{name: "less", value: 10, filter: Filter{Operand: "<", Target: "9.5"}, want: false},
		{name: "prefix falls back to string", value: 2021, filter: Filter{Operand: "^", Target: "20"}, want: true},
		{name: "non numeric target", value: 3, filter: Filter{Operand: "=", Target: "three"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkNumericOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	doc := gjson.Parse(`{"na":["(D)","(S)"],"kinds":{"raw":2}}`)

	assert.True(t, checkContainsOperand(doc.Get("na"), Filter{Operand: "@", Target: "(D)"}))
	assert.False(t, checkContainsOperand(doc.Get("na"), Filter{Operand: "@", Target: "N"}))
	assert.True(t, checkContainsOperand(doc.Get("na"), Filter{Operand: "@", Target: "N", Negate: true}))
	assert.True(t, checkContainsOperand(doc.Get("kinds"), Filter{Operand: "@", Target: "raw"}))
	assert.False(t, checkContainsOperand(doc.Get("kinds"), Filter{Operand: "@", Target: "table"}))
}

func TestApplyFilters(t *testing.T) {
	candidate := gjson.Parse(`{
		"key": "by_st",
		"type": "table",
		"entries": 4,
		"masked": true,
		"description": null,
		"kinds": {"raw": 2, "table": 2},
		"na": ["(D)", "N"]
	}`)

	tests := []struct {
		name    string
		filters []Filter
		want    bool
	}{
		{name: "no filters", want: true},
		{name: "string", filters: []Filter{{Key: "type", Operand: "=", Target: "table"}}, want: true},
		{name: "string miss", filters: []Filter{{Key: "type", Operand: "=", Target: "raw"}}, want: false},
		{name: "number", filters: []Filter{{Key: "entries", Operand: ">", Target: "3"}}, want: true},
		{name: "bool", filters: []Filter{{Key: "masked", Operand: "=", Target: "true"}}, want: true},
		{name: "nested path", filters: []Filter{{Key: "kinds.raw", Operand: "=", Target: "2"}}, want: true},
		{name: "null never matches", filters: []Filter{{Key: "description", Operand: "=", Target: "x"}}, want: false},
		{name: "missing key ignored", filters: []Filter{{Key: "nope", Operand: "=", Target: "x"}}, want: true},
		{name: "array contains", filters: []Filter{{Key: "na", Operand: "@", Target: "N"}}, want: true},
		{name: "array other operand passes", filters: []Filter{{Key: "na", Operand: "=", Target: "zzz"}}, want: true},
		{
			name: "all must match",
			filters: []Filter{
				{Key: "type", Operand: "=", Target: "table"},
				{Key: "key", Operand: "^", Target: "raw_"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyFilters(candidate, tt.filters))
		})
	}
}

func TestFilterRows(t *testing.T) {
	rows := []map[string]interface{}{
		{"key": "raw_economy", "type": "raw"},
		{"key": "raw_{breakdown}", "type": "raw"},
		{"key": "economy", "type": "table"},
		{"key": "by_{breakdown}", "type": "table"},
	}

	tests := []struct {
		spec string
		want []string
	}{
		{spec: "", want: []string{"raw_economy", "raw_{breakdown}", "economy", "by_{breakdown}"}},
		{spec: "type=table", want: []string{"economy", "by_{breakdown}"}},
		{spec: "type=raw,key@{", want: []string{"raw_{breakdown}"}},
		{spec: "key=nothing", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := FilterRows(rows, tt.spec)
			keys := make([]string, 0, len(got))
			for _, r := range got {
				keys = append(keys, r["key"].(string))
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}
