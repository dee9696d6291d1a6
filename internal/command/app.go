// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/antonbabkin/pubdata-sub000/internal/aws"
	"github.com/antonbabkin/pubdata-sub000/internal/builder"
	"github.com/antonbabkin/pubdata-sub000/internal/cache"
	"github.com/antonbabkin/pubdata-sub000/internal/cacheutil"
	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
	"github.com/antonbabkin/pubdata-sub000/internal/collections/bds"
	"github.com/antonbabkin/pubdata-sub000/internal/config"
	"github.com/antonbabkin/pubdata-sub000/internal/download"
	"github.com/antonbabkin/pubdata-sub000/internal/meta"
	"github.com/antonbabkin/pubdata-sub000/internal/resolver"
)

const (
	// EnvCatalogDir points at a directory of catalog documents to use
	// instead of the embedded ones.
	EnvCatalogDir = "PUBDATA_CATALOG_DIR"
	// EnvCacheMemory overrides the cache.memory config value.
	EnvCacheMemory = "PUBDATA_CACHE_MEMORY"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the pubdata
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	if err != nil {
		log.Debugf("no config loaded: %v", err)
	}

	catalogs, err := NewCatalogLoader()
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(NewFetcher())
	if err := registry.Validate(catalogs.Names()); err != nil {
		return nil, err
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Resolver: sync.OnceValues(func() (*resolver.Resolver, error) {
			return NewResolver(catalogs, registry)
		}),
	}

	app := &cli.Command{
		Name:  "pubdata",
		Usage: "public data collections, downloaded, built and cached on demand",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "pubdata version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		GetCommandBuilder(app, meta),
		MetaCommandBuilder(app, meta),
		LsCommandBuilder(app, meta),
		ClearCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}

// NewRegistry returns the builders of every supported collection.
func NewRegistry(f builder.Fetcher) builder.Registry {
	return builder.Registry{
		bds.Name: bds.New(f),
	}
}

// NewCatalogLoader serves the embedded catalogs, or the documents in the
// configured catalog directory. Collection names are the document names.
func NewCatalogLoader() (*catalog.Loader, error) {
	fsys := catalog.Embedded()

	dir := os.Getenv(EnvCatalogDir)
	if dir == "" {
		dir, _ = config.GetString("catalog.dir", "")
	}
	if dir != "" {
		log.Debugf("reading catalogs from %s", dir)
		fsys = os.DirFS(dir)
	}

	docs, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, strings.TrimSuffix(path.Base(d), ".yaml"))
	}
	return catalog.NewLoader(fsys, names...), nil
}

// NewFetcher builds the downloader from the download.* config keys.
func NewFetcher() *download.Fetcher {
	retries, _ := config.GetInt("download.retries", download.DefaultRetries)

	var s3opts []aws.Option
	if v, _ := config.GetString("download.s3.profile", ""); v != "" {
		s3opts = append(s3opts, aws.WithProfile(v))
	}
	if v, _ := config.GetString("download.s3.region", ""); v != "" {
		s3opts = append(s3opts, aws.WithRegion(v))
	}
	if v, _ := config.GetString("download.s3.endpoint", ""); v != "" {
		pathStyle, _ := config.GetBool("download.s3.path_style", true)
		s3opts = append(s3opts, aws.WithEndpoint(v, pathStyle))
	}
	if anon, _ := config.GetBool("download.s3.anonymous", false); anon {
		s3opts = append(s3opts, aws.WithAnonymous())
	}

	return download.New(
		download.WithRetries(retries),
		download.WithS3Options(s3opts...),
	)
}

// NewResolver opens the disk cache under PUBDATA_CACHE_DIR and assembles a
// resolver around it.
func NewResolver(catalogs *catalog.Loader, registry builder.Registry) (*resolver.Resolver, error) {
	root, err := cacheutil.Root()
	if err != nil {
		return nil, err
	}
	disk, err := cacheutil.NewStore(root)
	if err != nil {
		return nil, err
	}

	budget, err := config.GetBytes("cache.memory", cache.DefaultBudget)
	if err != nil {
		return nil, fmt.Errorf("invalid cache.memory: %w", err)
	}
	if s := os.Getenv(EnvCacheMemory); s != "" {
		if budget, err = cache.ParseBudget(s); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvCacheMemory, err)
		}
	}
	log.Debugf("cache root %s, memory budget %d", root, budget)

	return resolver.New(catalogs, registry, cache.NewMemory(budget), disk), nil
}
