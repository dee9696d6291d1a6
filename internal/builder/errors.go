// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package builder

import "fmt"

// UnregisteredBuilderError is returned when a collection has no builder.
type UnregisteredBuilderError struct {
	Collection string
}

func (e *UnregisteredBuilderError) Error() string {
	return fmt.Sprintf("no builder registered for collection %q", e.Collection)
}

// BuildError wraps a builder failure with the object it was building.
type BuildError struct {
	Collection string
	Key        string
	Err        error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s/%s: %v", e.Collection, e.Key, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
