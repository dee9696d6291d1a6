// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/output"
)

// MetaCommandAction prints the resolved metadata of a key, or the summary of
// a collection when no key is given. --query narrows the document with a
// gjson path.
func MetaCommandAction(ctx context.Context, cmd *cli.Command) error {
	r, err := OpenResolver(cmd)
	if err != nil {
		return err
	}

	collection, key := Arg(cmd, 0), Arg(cmd, 1)

	var doc any
	if key == "" {
		s, err := r.Summary(collection)
		if err != nil {
			return err
		}
		doc = s
	} else {
		e, err := r.Meta(collection, key)
		if err != nil {
			return err
		}
		doc = e.Fields
	}

	format := cmd.String("output")
	w := cmd.Root().Writer

	if q := cmd.String("query"); q != "" {
		res, err := output.Query(doc, q)
		if err != nil {
			return err
		}
		return output.EmitQuery(res, format, w)
	}
	return output.Emit(doc, format, w)
}

// MetaCommandBuilder constructs the cli.Command definition for the "meta"
// command.
func MetaCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "meta",
		Usage:     "show catalog metadata of a key or a collection",
		UsageText: `pubdata meta <collection> [key] [options]`,
		MinArgs:   1,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "gjson path selecting part of the metadata",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
		},
		Action: MetaCommandAction,
		Meta:   meta,
	}).Build()
}
