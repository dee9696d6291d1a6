// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmpl

import (
	"fmt"
	"regexp"
	"strings"
)

// Mask describes how a compound key decomposes into named components, e.g.
// "{revision}_met".
type Mask struct {
	raw   string
	names []string
	re    *regexp.Regexp
}

// ParseMask compiles a mask. Placeholders must be separated by literal text,
// otherwise the decomposition would be ambiguous.
func ParseMask(s string) (*Mask, error) {
	parts, err := parseTemplate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMask, err)
	}

	var (
		expr  strings.Builder
		names []string
		seen  = map[string]bool{}
	)
	expr.WriteString("^")
	for i, p := range parts {
		if !p.isVar {
			expr.WriteString(regexp.QuoteMeta(p.text))
			continue
		}
		if i > 0 && parts[i-1].isVar {
			return nil, fmt.Errorf("%w: placeholders {%s} and {%s} in %q are not separated",
				ErrInvalidMask, parts[i-1].text, p.text, s)
		}
		if seen[p.text] {
			return nil, fmt.Errorf("%w: placeholder {%s} repeated in %q", ErrInvalidMask, p.text, s)
		}
		seen[p.text] = true
		names = append(names, p.text)
		expr.WriteString("(.+?)")
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMask, err)
	}

	return &Mask{raw: s, names: names, re: re}, nil
}

// String returns the mask source text.
func (m *Mask) String() string {
	return m.raw
}

// Names returns the placeholder names in order.
func (m *Mask) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Matches reports whether key has the shape of the mask.
func (m *Mask) Matches(key string) bool {
	return m.re.MatchString(key)
}

// Match decomposes key into its named components. Decomposition is left to
// right: each component takes the shortest text that lets the rest of the key
// match.
func (m *Mask) Match(key string) (map[string]string, error) {
	sub := m.re.FindStringSubmatch(key)
	if sub == nil {
		return nil, &KeyMismatchError{Key: key, Mask: m.raw}
	}
	out := make(map[string]string, len(m.names))
	for i, name := range m.names {
		out[name] = sub[i+1]
	}
	return out, nil
}
