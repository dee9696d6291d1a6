// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"encoding/json"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// EnvFilterDelim overrides the "," between filter expressions.
const EnvFilterDelim = "PUBDATA_FILTER_DELIM"

// filterRegex splits an expression into key, operator and target. Operators
// are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Malformed expressions are logged and skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	delim := ","
	if d, ok := os.LookupEnv(EnvFilterDelim); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil || strings.TrimSpace(parts[1]) == "" {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		op := parts[2]
		negate := strings.HasPrefix(op, "!")
		filters = append(filters, Filter{
			Key:     strings.TrimSpace(parts[1]),
			Negate:  negate,
			Operand: strings.TrimPrefix(op, "!"),
			Target:  parts[3],
		})
	}

	return filters
}

// FilterRows returns the rows matching every expression in spec. Keys are
// gjson paths into the row, so nested values such as "kinds.table" can be
// tested.
func FilterRows(rows []map[string]interface{}, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return rows
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			log.WithError(err).Error("failed to encode row for filtering")
			continue
		}
		if applyFilters(gjson.ParseBytes(b), filters) {
			out = append(out, row)
		}
	}
	return out
}

// applyFilters reports whether the candidate matches all filters. A filter
// naming a key the candidate does not have is ignored; a null value never
// matches.
func applyFilters(candidate gjson.Result, filters []Filter) bool {
	for _, filter := range filters {
		value := candidate.Get(filter.Key)
		if !value.Exists() {
			log.Debugf("filter key not found: %s", filter.Key)
			continue
		}

		var ok bool
		switch value.Type {
		case gjson.Null:
			ok = false
		case gjson.String:
			ok = checkStringOperand(value.Str, filter)
		case gjson.True, gjson.False:
			ok = checkStringOperand(value.String(), filter)
		case gjson.Number:
			ok = checkNumericOperand(value.Num, filter)
		default:
			ok = filter.Operand != "@" || checkContainsOperand(value, filter)
		}
		if !ok {
			return false
		}
	}
	return true
}

// checkContainsOperand tests membership in an array or key presence in an
// object.
func checkContainsOperand(value gjson.Result, filter Filter) bool {
	found := false
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.String() == filter.Target {
				found = true
				break
			}
		}
	case value.IsObject():
		found = value.Get(gjson.Escape(filter.Target)).Exists()
	}
	return found == !filter.Negate
}

// checkNumericOperand compares numerically. Operands other than = > < fall
// back to string comparison of the formatted number.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	}
	return checkStringOperand(strconv.FormatFloat(value, 'f', -1, 64), filter)
}

// checkStringOperand evaluates a string comparison style filter.
func checkStringOperand(value string, filter Filter) bool {
	var result bool
	switch filter.Operand {
	case "=":
		result = value == filter.Target
	case "~":
		result = strings.EqualFold(value, filter.Target)
	case "^":
		result = strings.HasPrefix(value, filter.Target)
	case ">":
		result = value > filter.Target
	case "<":
		result = value < filter.Target
	case "@":
		result = strings.Contains(value, filter.Target)
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		result = matched
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
	return result == !filter.Negate
}
