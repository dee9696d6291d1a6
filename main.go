// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/antonbabkin/pubdata-sub000/internal/cacheutil"
	"github.com/antonbabkin/pubdata-sub000/internal/command"
	mylog "github.com/antonbabkin/pubdata-sub000/internal/log"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version/-v.
	for _, a := range args[1:] {
		if a == "--version" || a == "-v" {
			fmt.Println(Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// A missing cache root is a setup problem, not a failed run.
		if errors.Is(err, cacheutil.ErrNoCacheRoot) {
			return 1
		}
		return 2
	}

	return 0
}
