// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Tables are stored as SQLite files with two tables: _columns holds the
// column names and logical types in order, data holds the rows with one
// positional column (c0, c1, ...) per table column.
const columnsSchema = `
CREATE TABLE _columns (
	position INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL
);`

func affinity(t Type) string {
	switch t {
	case Int, Bool:
		return "INTEGER"
	case Float:
		return "REAL"
	}
	return "TEXT"
}

// WriteFile stores t at path. The file must not exist yet; callers wanting
// atomic replacement write to a temporary path and rename.
func WriteFile(ctx context.Context, path string, t *Table) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, columnsSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for i, c := range t.Columns {
		if _, err = tx.ExecContext(ctx, "INSERT INTO _columns (position, name, type) VALUES (?, ?, ?)",
			i, c.Name, string(c.Type)); err != nil {
			return err
		}
	}

	if len(t.Columns) > 0 {
		if err = writeRows(ctx, tx, t); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func writeRows(ctx context.Context, tx *sql.Tx, t *Table) error {
	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = fmt.Sprintf("c%d %s", i, affinity(c.Type))
		marks[i] = "?"
	}

	if _, err := tx.ExecContext(ctx, "CREATE TABLE data ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("create data table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO data VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for row := 0; row < t.NumRows(); row++ {
		for i, c := range t.Columns {
			v := c.Values[row]
			if b, ok := v.(bool); ok {
				if b {
					v = int64(1)
				} else {
					v = int64(0)
				}
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", row, err)
		}
	}
	return nil
}

// ReadFile loads a table written by WriteFile. The file is opened read-only
// and never created.
func ReadFile(ctx context.Context, path string) (*Table, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT name, type FROM _columns ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%s is not a table file: %w", path, err)
	}
	var cols []*Column
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			rows.Close()
			return nil, err
		}
		cols = append(cols, &Column{Name: name, Type: Type(typ), Values: []any{}})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(cols) == 0 {
		return &Table{}, nil
	}

	data, err := db.QueryContext(ctx, "SELECT * FROM data ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer data.Close()

	dest := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for data.Next() {
		if err := data.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, c := range cols {
			v, err := fromSQL(c.Type, dest[i])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			c.Values = append(c.Values, v)
		}
	}
	if err := data.Err(); err != nil {
		return nil, err
	}

	return New(cols...)
}

func fromSQL(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	switch t {
	case Int:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		}
	case Float:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		}
	case Bool:
		if x, ok := v.(int64); ok {
			return x != 0, nil
		}
	case String:
		if x, ok := v.(string); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("unexpected %T value for %s column", v, t)
}
