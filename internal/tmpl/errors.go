// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmpl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidMask is a catalog configuration error: the mask cannot be
	// decomposed deterministically.
	ErrInvalidMask = errors.New("invalid mask")
	// ErrInvalidTemplate is returned for strings with malformed placeholders.
	ErrInvalidTemplate = errors.New("invalid template")
)

// KeyMismatchError is returned when a key does not have the shape of the
// mask it is resolved against.
type KeyMismatchError struct {
	Key  string
	Mask string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("key %q does not match mask %q", e.Key, e.Mask)
}

// UnknownPlaceholderError is returned when a template refers to a name that
// is not a component of the key.
type UnknownPlaceholderError struct {
	Name     string
	Template string
	Known    []string
}

func (e *UnknownPlaceholderError) Error() string {
	return fmt.Sprintf("unknown placeholder {%s} in %q (key components: %s)",
		e.Name, e.Template, strings.Join(e.Known, ", "))
}

func sortedNames(env map[string]string) []string {
	names := make([]string, 0, len(env))
	for k := range env {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
