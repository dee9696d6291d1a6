// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

// Query evaluates a gjson path against the JSON form of v.
func Query(v any, path string) (gjson.Result, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode document: %w", err)
	}
	res := gjson.GetBytes(b, path)
	if !res.Exists() {
		return res, fmt.Errorf("query %q matched nothing", path)
	}
	return res, nil
}

// EmitQuery renders a query result. Text output prints strings bare and
// everything else as JSON.
func EmitQuery(res gjson.Result, format string, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	switch format {
	case "json":
		_, err := fmt.Fprintln(w, res.Raw)
		return err
	case "yaml":
		return writeYAML(w, res.Value())
	default:
		_, err := fmt.Fprintln(w, res.String())
		return err
	}
}

// TableRows converts the first limit rows of t into row maps, plus the
// column order. A limit of zero or less keeps every row.
func TableRows(t *table.Table, limit int) ([]string, []map[string]interface{}) {
	n := t.NumRows()
	if limit > 0 && limit < n {
		n = limit
	}

	rows := make([]map[string]interface{}, n)
	for i := range rows {
		row := make(map[string]interface{}, len(t.Columns))
		for _, c := range t.Columns {
			row[c.Name] = c.Values[i]
		}
		rows[i] = row
	}
	return t.Names(), rows
}
