// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"

	"github.com/antonbabkin/pubdata-sub000/internal/catalog"
)

// Minimal collection doc generator:
// - Reads the embedded catalogs, or *.yaml under -catalogs
// - Generates:
//   - docs/collections/<name>.md, the collection reference
//   - docs/man/share/man7/pubdata-<name>.7 via md2man
//   - docs/tldr/pubdata-<name>.md with a few invocations

func main() {
	var (
		repoRoot           string
		catalogDir         string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.StringVar(&catalogDir, "catalogs", "", "directory of catalog documents (default embedded)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	mdOutDir := filepath.Join(repoRoot, "docs", "collections")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man7")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, d := range []string{mdOutDir, manOutDir, tldrOutDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fatalf("creating output dir %s: %v", d, err)
		}
	}

	fsys := catalog.Embedded()
	if catalogDir != "" {
		fsys = os.DirFS(catalogDir)
	}
	loader, err := newLoader(fsys)
	if err != nil {
		fatalf("listing catalogs: %v", err)
	}

	var processed int
	for _, name := range loader.Names() {
		c, err := loader.Load(name)
		if err != nil {
			fatalf("loading %s: %v", name, err)
		}

		md := buildMarkdown(c)
		mdPath := filepath.Join(mdOutDir, name+".md")
		if err := writeFileIfChanged(mdPath, []byte(md), writeOnlyIfChanged); err != nil {
			fatalf("writing reference for %s: %v", name, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("pubdata-%s.7", name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", name, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("pubdata-%s.md", name))
		if err := writeFileIfChanged(tldrPath, []byte(buildTLDR(c)), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no catalogs found")
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func newLoader(fsys fs.FS) (*catalog.Loader, error) {
	docs, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, strings.TrimSuffix(path.Base(d), ".yaml"))
	}
	return catalog.NewLoader(fsys, names...), nil
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

// buildMarkdown renders the reference page of a collection. Masked entries
// are listed under their catalog key.
func buildMarkdown(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("# pubdata-" + c.Name + "\n\n")
	if c.Description != "" {
		b.WriteString(strings.TrimSpace(c.Description) + "\n\n")
	}

	b.WriteString("## Entries\n\n")
	b.WriteString("| Key | Type | Depends | Path | Description |\n")
	b.WriteString("|-----|------|---------|------|-------------|\n")
	for _, k := range c.Keys() {
		e, _ := c.Entry(k)
		fmt.Fprintf(&b, "| `%s` | %s | %s | `%s` | %s |\n",
			k, e.Type(), code(e.Depends()), e.Path(), cell(e.Description()))
	}

	for _, k := range c.Keys() {
		e, _ := c.Entry(k)
		fields := e.Schema()
		if len(fields) == 0 {
			continue
		}
		b.WriteString("\n## Schema of " + k + "\n\n")
		b.WriteString("| Column | Type | Description |\n")
		b.WriteString("|--------|------|-------------|\n")
		for _, f := range fields {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n", f.Name, f.Type, cell(f.Description))
		}
	}

	b.WriteString("\n## See also\n\n")
	b.WriteString("`pubdata ls " + c.Name + "`, `pubdata meta " + c.Name + " <key>`, `pubdata get " + c.Name + " <key>`\n")
	return b.String()
}

type example struct {
	Desc string
	Cmd  string
}

// examples picks invocations for the first table entry, or the first entry
// when the collection has no tables.
func examples(c *catalog.Catalog) []example {
	exs := []example{
		{Desc: "List the entries of the collection", Cmd: "pubdata ls " + c.Name},
	}
	keys := c.Keys()
	if len(keys) == 0 {
		return exs
	}
	pick := keys[0]
	for _, k := range keys {
		if e, _ := c.Entry(k); e.Type() == catalog.KindTable && e.Mask() == nil {
			pick = k
			break
		}
	}
	return append(exs,
		example{Desc: "Show the metadata of an entry", Cmd: "pubdata meta " + c.Name + " " + pick},
		example{Desc: "Fetch an entry into the cache", Cmd: "pubdata get " + c.Name + " " + pick},
	)
}

func buildTLDR(c *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("# pubdata-" + c.Name + "\n\n")
	if short := firstSentence(c.Description); short != "" {
		b.WriteString("> " + short + "\n")
	} else {
		b.WriteString("> pubdata " + c.Name + " collection.\n")
	}
	b.WriteString("> More information: https://github.com/antonbabkin/pubdata.\n")

	for _, ex := range examples(c) {
		b.WriteString("\n- " + ex.Desc + ":\n\n")
		b.WriteString("`" + sanitizeCommand(ex.Cmd) + "`\n")
	}
	return b.String()
}

func firstSentence(s string) string {
	s = sanitizeCommand(s)
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}

func cell(s string) string {
	return strings.ReplaceAll(sanitizeCommand(s), "|", `\|`)
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}

func sanitizeCommand(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
