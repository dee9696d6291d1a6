// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package bds is the builder for the Census Business Dynamics Statistics
// collection.
package bds
