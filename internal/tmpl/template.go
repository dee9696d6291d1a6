// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmpl

import (
	"fmt"
	"strings"
)

// parseTemplate splits s into literal and placeholder parts. "{{" and "}}"
// are literal braces.
func parseTemplate(s string) ([]part, error) {
	var (
		parts []part
		lit   strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, part{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed '{' in %q", ErrInvalidTemplate, s)
			}
			name := s[i+1 : i+1+end]
			if !validName(name) {
				return nil, fmt.Errorf("%w: bad placeholder name %q in %q", ErrInvalidTemplate, name, s)
			}
			flush()
			parts = append(parts, part{text: name, isVar: true})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("%w: unmatched '}' in %q", ErrInvalidTemplate, s)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return parts, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Placeholders returns the placeholder names used by t, in order of
// appearance.
func (t Template) Placeholders() []string {
	var names []string
	for _, p := range t.parts {
		if p.isVar {
			names = append(names, p.text)
		}
	}
	return names
}

// Execute substitutes env into t. A placeholder missing from env is an
// *UnknownPlaceholderError.
func (t Template) Execute(env map[string]string) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		if !p.isVar {
			b.WriteString(p.text)
			continue
		}
		v, ok := env[p.text]
		if !ok {
			return "", &UnknownPlaceholderError{Name: p.text, Template: t.Raw, Known: sortedNames(env)}
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// Substitute parses s as a template and executes it against env.
func Substitute(s string, env map[string]string) (string, error) {
	parts, err := parseTemplate(s)
	if err != nil {
		return "", err
	}
	return Template{Raw: s, parts: parts}.Execute(env)
}
