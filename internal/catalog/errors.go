// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"strings"
)

// UnknownCollectionError is returned for a collection name outside the
// fixed set the loader was built with.
type UnknownCollectionError struct {
	Name  string
	Known []string
}

func (e *UnknownCollectionError) Error() string {
	return fmt.Sprintf("unknown collection %q, must be one of: %s", e.Name, strings.Join(e.Known, ", "))
}

// UnknownKeyError is returned when no catalog entry serves a key.
type UnknownKeyError struct {
	Collection string
	Key        string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("key %q not found in collection %q, run \"pubdata ls %s\" to list valid keys",
		e.Key, e.Collection, e.Collection)
}
