// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

// parseSortSpec splits a --sort value. Each field may carry a '-' prefix for
// descending order and a '!' prefix for case sensitive string comparison, in
// either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		k := sortKey{}
		for len(f) > 0 && (f[0] == '-' || f[0] == '!') {
			if f[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			f = f[1:]
		}
		if f == "" {
			continue
		}
		k.name = f
		keys = append(keys, k)
	}
	return keys
}

// SortDataset sorts rows in place by the fields named in spec. The sort is
// stable, so an empty spec leaves the order untouched.
func SortDataset(rows []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.name], rows[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders nil first, then numbers numerically, then everything
// else by its string form.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
