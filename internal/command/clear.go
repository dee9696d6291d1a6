// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/output"
	"github.com/antonbabkin/pubdata-sub000/internal/resolver"
)

// ClearCommandAction invalidates cached objects. With --older-than it
// removes stale files from every collection instead.
func ClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	r, err := OpenResolver(cmd)
	if err != nil {
		return err
	}

	format := cmd.String("output")
	w := cmd.Root().Writer

	if hours := cmd.Int("older-than"); hours > 0 {
		n, err := r.Purge(hours)
		if err != nil {
			return err
		}
		if format == "text" {
			_, err = fmt.Fprintf(w, "removed %d files older than %dh\n", n, hours)
			return err
		}
		return output.Emit(map[string]int{"files": n}, format, w)
	}

	collection, pattern := Arg(cmd, 0), Arg(cmd, 1)
	if collection == "" {
		return errors.New("usage: pubdata clear <collection> [pattern] [options]")
	}

	res, err := r.Clear(ctx, collection, pattern, resolver.ClearOptions{
		IncludeRaw: cmd.Bool("raw"),
	})
	if err != nil {
		return err
	}
	log.Debugf("cleared %s %q: %d memory entries, %d files", collection, pattern, res.Memory, len(res.Files))

	if format != "text" {
		return output.Emit(res, format, w)
	}

	rows := make([]map[string]interface{}, 0, len(res.Files))
	for _, f := range res.Files {
		rows = append(rows, map[string]interface{}{"file": f})
	}
	return output.SliceDiceSpit(rows, []string{"file"}, output.OptionsFromCommand(cmd), w)
}

// ClearCommandBuilder constructs the cli.Command definition for the "clear"
// command.
func ClearCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "clear",
		Usage:     "remove cached objects from memory and disk",
		UsageText: `pubdata clear <collection> [pattern] [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "also remove downloaded raw files",
			},
			NameSpacedValueChainFlagFromConfigFile("clear", meta.Config.Source, &cli.IntFlag{
				Name:    "older-than",
				Usage:   "remove files of any collection not modified for this many hours",
				Sources: cli.NewValueSourceChain(),
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeValidator)
				},
			}),
		},
		Action: ClearCommandAction,
		Meta:   meta,
	}).Build()
}
