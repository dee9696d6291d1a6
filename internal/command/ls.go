// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/output"
	"github.com/antonbabkin/pubdata-sub000/internal/resolver"
)

// LsCommandAction lists collections, or the keys of one collection matching
// an optional glob pattern.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	r, err := OpenResolver(cmd)
	if err != nil {
		return err
	}

	collection, pattern := Arg(cmd, 0), Arg(cmd, 1)
	opts := output.OptionsFromCommand(cmd)

	if collection == "" {
		rows, err := collectionRows(r, pattern)
		if err != nil {
			return err
		}
		return output.SliceDiceSpit(rows, []string{"name", "entries", "description"}, opts, cmd.Root().Writer)
	}

	rows, err := keyRows(r, collection, pattern)
	if err != nil {
		return err
	}
	return output.SliceDiceSpit(rows, []string{"key", "type", "description"}, opts, cmd.Root().Writer)
}

func collectionRows(r *resolver.Resolver, pattern string) ([]map[string]interface{}, error) {
	names, err := r.Ls("", pattern)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		s, err := r.Summary(name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, map[string]interface{}{
			"name":        s.Name,
			"description": s.Description,
			"entries":     s.Entries,
			"kinds":       s.Kinds,
		})
	}
	return rows, nil
}

func keyRows(r *resolver.Resolver, collection, pattern string) ([]map[string]interface{}, error) {
	keys, err := r.Ls(collection, pattern)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(keys))
	for _, key := range keys {
		e, err := r.Meta(collection, key)
		if err != nil {
			return nil, err
		}
		rows = append(rows, map[string]interface{}{
			"key":         key,
			"type":        string(e.Type()),
			"path":        e.Path(),
			"depends":     e.Depends(),
			"description": e.Description(),
			"masked":      e.Mask() != nil,
		})
	}
	return rows, nil
}

// LsCommandBuilder constructs the cli.Command definition for the "ls"
// command.
func LsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "ls",
		Usage:     "list collections or the keys of a collection",
		UsageText: `pubdata ls [collection] [pattern] [options]`,
		Action:    LsCommandAction,
		Meta:      meta,
	}).Build()
}
