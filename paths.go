package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/typguide/internal/discover"
	"github.com/phobologic/typguide/internal/toon"
	"github.com/phobologic/typguide/internal/ty"
)

// runPaths implements `typguide paths`, which lists the files a path
// argument of the given kind could name.
func runPaths(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("typguide paths", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var kind string
	fs.StringVar(&kind, "k", "None", "path kind to complete")
	fs.StringVar(&kind, "kind", "None", "path kind to complete")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: typguide paths [flags] [root]

List path-completion candidates under root whose extension fits the
requested kind. Kinds: %s.

Flags:
`, strings.Join(kindNames(), ", "))
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	pref, err := parseKind(kind)
	if err != nil {
		return err
	}
	root, err := workspaceRoot(fs)
	if err != nil {
		return err
	}

	entries, err := discover.Paths(root, pref)
	if err != nil {
		return fmt.Errorf("discovering paths: %w", err)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Path, e.Kind.Kind.String()})
	}
	_, _ = fmt.Fprintln(stdout, toon.Table("paths", []string{"path", "kind"}, rows))
	return nil
}

func kindNames() []string {
	prefs := ty.AllPathPreferences()
	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, p.Kind.String())
	}
	return out
}

// parseKind maps a kind name such as "image" onto its preference. Source
// paths may name package files.
func parseKind(name string) (ty.PathPreference, error) {
	for _, p := range ty.AllPathPreferences() {
		if strings.EqualFold(p.Kind.String(), name) {
			if p.Kind == ty.PathSource {
				p.AllowPackage = true
			}
			return p, nil
		}
	}
	return ty.PathPreference{}, fmt.Errorf("unknown path kind %q (have %s)", name, strings.Join(kindNames(), ", "))
}
