// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bds

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/table"
)

// Name is the collection name.
const Name = "bds"

// Builder builds Business Dynamics Statistics objects. Raw entries are
// downloaded, table entries are parsed from the CSV they depend on.
type Builder struct {
	raw builder.RawFetcher
}

// New returns a Builder downloading through f.
func New(f builder.Fetcher) *Builder {
	return &Builder{raw: builder.RawFetcher{Fetcher: f}}
}

// Build implements builder.Builder.
func (b *Builder) Build(ctx context.Context, req builder.Request) (builder.Value, error) {
	switch req.Entry.Type() {
	case catalog.KindRaw:
		return b.raw.Build(ctx, req)
	case catalog.KindTable:
		return buildTable(ctx, req)
	}
	return builder.Value{}, fmt.Errorf("unsupported entry type %q", req.Entry.Type())
}

func buildTable(ctx context.Context, req builder.Request) (builder.Value, error) {
	dep, err := req.Getter.Get(ctx, req.Collection, req.Entry.Depends())
	if err != nil {
		return builder.Value{}, err
	}
	if dep.Kind != catalog.KindRaw {
		return builder.Value{}, fmt.Errorf("%s depends on %s, which is not a raw file", req.Key, req.Entry.Depends())
	}

	f, err := os.Open(dep.Path)
	if err != nil {
		return builder.Value{}, err
	}
	defer f.Close()

	t, err := ReadCSV(f, req.Entry.Schema(), req.Entry.Strings("na_values"))
	if err != nil {
		return builder.Value{}, fmt.Errorf("%s: %w", dep.Path, err)
	}
	log.Debugf("parsed %s: %d columns, %d rows", req.Key, len(t.Columns), t.NumRows())
	return builder.Tabular(t), nil
}

// ReadCSV parses a CSV with a header row into a table. Columns named in
// schema get its type, all others are float. Cells equal to one of
// naValues, or empty, are NA.
func ReadCSV(r io.Reader, schema []catalog.Field, naValues []string) (*table.Table, error) {
	types := map[string]table.Type{}
	for _, f := range schema {
		typ, err := table.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		types[f.Name] = typ
	}
	na := map[string]bool{}
	for _, v := range naValues {
		na[v] = true
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, err
	}

	cols := make([]*table.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		typ, ok := types[name]
		if !ok {
			typ = table.Float
		}
		cols[i] = &table.Column{Name: name, Type: typ, Values: []any{}}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, cell := range rec {
			var v any
			if !na[strings.TrimSpace(cell)] {
				v, err = table.ParseValue(cols[i].Type, cell)
				if err != nil {
					return nil, fmt.Errorf("line %d, column %s: %w", line, cols[i].Name, err)
				}
			}
			cols[i].Values = append(cols[i].Values, v)
		}
	}

	return table.New(cols...)
}
