// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/output"
)

// GetCommandAction resolves one or more keys of a collection. A single
// table is previewed; anything else is reported as one row per object.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	r, err := OpenResolver(cmd)
	if err != nil {
		return err
	}

	collection := Arg(cmd, 0)
	keys := cmd.Args().Slice()[1:]
	values := make([]builder.Value, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	if n := cmd.Int("jobs"); n > 0 {
		g.SetLimit(n)
	}
	for i, key := range keys {
		g.Go(func() error {
			v, err := r.Get(gctx, collection, key)
			if err != nil {
				return err
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	opts := output.OptionsFromCommand(cmd)

	if len(values) == 1 && values[0].Kind == catalog.KindTable {
		cols, rows := output.TableRows(values[0].Table, cmd.Int("limit"))
		return output.SliceDiceSpit(rows, cols, opts, cmd.Root().Writer)
	}

	rows := make([]map[string]interface{}, 0, len(values))
	for i, v := range values {
		row := map[string]interface{}{
			"key":  keys[i],
			"type": string(v.Kind),
			"path": v.Path,
		}
		if v.Table != nil {
			row["rows"] = v.Table.NumRows()
			row["columns"] = len(v.Table.Columns)
		}
		rows = append(rows, row)
	}
	return output.SliceDiceSpit(rows, []string{"key", "type", "path"}, opts, cmd.Root().Writer)
}

// GetCommandBuilder constructs the cli.Command definition for the "get"
// command.
func GetCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "get",
		Usage:     "resolve data objects, building and caching them as needed",
		UsageText: `pubdata get <collection> <key> [key...] [options]`,
		MinArgs:   2,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "rows to preview from a table, 0 for all",
				Value:   10,
				Sources: cli.NewValueSourceChain(
					yaml.YAML("get.limit", altsrc.StringSourcer(meta.Config.Source)),
				),
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeValidator)
				},
			},
			NameSpacedValueChainFlagFromConfigFile("get", meta.Config.Source, &cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "keys resolved in parallel, 0 for no limit",
				Value:   4,
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("PUBDATA_JOBS"),
				),
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeValidator)
				},
			}),
		},
		Action: GetCommandAction,
		Meta:   meta,
	}).Build()
}
