// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package tmpl holds the typed tree used for catalog entries and the key mask
// machinery that expands a compact key into a fully substituted entry.
package tmpl
