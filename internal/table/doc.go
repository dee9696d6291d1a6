// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package table provides the columnar table type produced by table builders
// and its on-disk SQLite encoding.
package table
