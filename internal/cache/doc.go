// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache provides the in-memory tier in front of the disk cache: a
// byte-budgeted LRU keyed by collection and key.
package cache
