// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders listings, metadata documents and table previews as
// text tables, JSON or YAML, after filtering and sorting them.
package output
