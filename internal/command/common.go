// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/resolver"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr pubdata <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "pubdata", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// OpenResolver returns the resolver of the invocation.
func OpenResolver(cmd *cli.Command) (*resolver.Resolver, error) {
	m := GetMeta(cmd)
	if m.Resolver == nil {
		return nil, errors.New("no resolver configured")
	}
	return m.Resolver()
}

// Arg returns the nth positional argument, or "".
func Arg(cmd *cli.Command, n int) string {
	return cmd.Args().Get(n)
}

// QueryCommandBuilder constructs a cli.Command for the resolver subcommands
// (get, meta, ls, clear) using a consistent pattern. It wires metadata, adds
// the tldr flag, applies global flags, and sets up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	MinArgs   int
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			newTLDRFlag(),
		}, NewGlobalFlags(qcb.Name, qcb.Meta.Config.Source)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log.Debugf("Executing action for %s %v", qcb.Name, c.Args().Slice())

			if ShortCircuitTLDR(ctx, c, qcb.Name) {
				return nil
			}
			if c.Args().Len() < qcb.MinArgs {
				return fmt.Errorf("usage: %s", qcb.UsageText)
			}
			return qcb.Action(ctx, c)
		},
	}
}
