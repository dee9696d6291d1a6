// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/antonbabkin/pubdata-sub000/internal/config"
	"github.com/antonbabkin/pubdata-sub000/internal/resolver"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	// Resolver opens the object resolver on first use, so --help works
	// without a cache root.
	Resolver func() (*resolver.Resolver, error)
}
