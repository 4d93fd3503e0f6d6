package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/typguide/internal/discover"
	"github.com/phobologic/typguide/internal/model"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSampleWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "lib.typ", `/// Adds one.
#let helper(x) = x + 1
#let gap = 12pt
`)
	writeTestFile(t, dir, "main.typ", `#import "lib.typ": helper
= Intro <intro>
#helper(1)
See @intro.
`)
	return dir
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "workspace:") {
		t.Errorf("missing workspace: header:\n%s", out)
	}
	if !strings.Contains(out, "files[2]{path,language,revision,rank}:") {
		t.Errorf("expected 2 files, got:\n%s", out)
	}
	if !strings.Contains(out, "lib.typ,typst,1,") {
		t.Error("missing lib.typ")
	}
	if !strings.Contains(out, "main.typ,typst,1,") {
		t.Error("missing main.typ")
	}
}

func TestRunVerbose(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-v", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stderr.String(), "level=DEBUG msg=\"loaded workspace\"") {
		t.Errorf("expected debug log on stderr, got:\n%s", stderr.String())
	}

	stderr.Reset()
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(stderr.String(), "level=DEBUG") {
		t.Errorf("debug log without -v:\n%s", stderr.String())
	}
}

func TestRunMapSubcommand(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var plain, explicit bytes.Buffer
	if err := run([]string{dir}, &plain, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := run([]string{"map", dir}, &explicit, io.Discard); err != nil {
		t.Fatalf("run map: %v", err)
	}
	if plain.String() != explicit.String() {
		t.Errorf("map subcommand differs from default:\n%s\n---\n%s", plain.String(), explicit.String())
	}
}

func TestRunSymbols(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"lib.typ,helper,function,2,helper(x),",
		"lib.typ,gap,variable,3,",
		"main.typ,intro,reference,2,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing symbol row %q:\n%s", want, out)
		}
	}
}

func TestRunDependencies(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	// main.typ uses helper from lib.typ
	if !strings.Contains(out, "main.typ,lib.typ,helper") {
		t.Errorf("missing dependency main.typ -> lib.typ:\n%s", out)
	}
}

func TestRunJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--format", "json", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var ws model.Workspace
	if err := json.Unmarshal(stdout.Bytes(), &ws); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(ws.Files) != 2 {
		t.Errorf("expected 2 files, got %+v", ws.Files)
	}
	if len(ws.Dependencies) != 1 || ws.Dependencies[0].Source != "main.typ" || ws.Dependencies[0].Target != "lib.typ" {
		t.Errorf("unexpected dependencies: %+v", ws.Dependencies)
	}
}

func TestRunBadFormat(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--format", "yaml", t.TempDir()}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestRunMaxFiles(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-n", "1", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "files[1]") {
		t.Errorf("expected 1 file, got:\n%s", out)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"-V"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "typguide") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for no parseable files")
	}
	if !strings.Contains(err.Error(), "no parseable files") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"-l", "rust", t.TempDir()}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
	if !strings.Contains(err.Error(), "unsupported language") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)
	cachePath := filepath.Join(t.TempDir(), "test.cache")

	var stdout1, stderr1 bytes.Buffer
	err := run([]string{"--cache", cachePath, dir}, &stdout1, &stderr1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Cache file should exist
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not created: %v", err)
	}

	// Second run should use cache
	var stdout2, stderr2 bytes.Buffer
	err = run([]string{"--cache", cachePath, dir}, &stdout2, &stderr2)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stdout1.String() != stdout2.String() {
		t.Errorf("cache mismatch:\nfirst:\n%s\nsecond:\n%s", stdout1.String(), stdout2.String())
	}
}

func TestRunSymbolFilterCacheSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "main.typ", "#let greet(name) = [Hello #name]\n#let other = 1\n")
	cachePath := filepath.Join(t.TempDir(), "cache.toon")

	// First run: no filter, write cache.
	var stdout1 bytes.Buffer
	if err := run([]string{"--cache", cachePath, dir}, &stdout1, &bytes.Buffer{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	// Second run: with --symbol filter. Cache should be bypassed (filter still works).
	var stdout2 bytes.Buffer
	if err := run([]string{"--symbol", "greet", "--cache", cachePath, dir}, &stdout2, &bytes.Buffer{}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(stdout2.String(), "greet") || strings.Contains(stdout2.String(), "other") {
		t.Errorf("filter should work even when cache exists:\n%s", stdout2.String())
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{f}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "small.typ", "#let x = 1")
	writeTestFile(t, dir, "big.typ", strings.Repeat("#let x = 1\n", 200))

	var stdout, stderr bytes.Buffer
	err := run([]string{"--max-file-size", "100", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "small.typ") {
		t.Error("missing small.typ")
	}
	if strings.Contains(out, "big.typ") {
		t.Error("big.typ should be filtered out")
	}
	if !strings.Contains(stderr.String(), "Warning") {
		t.Error("expected warning about skipped file")
	}
}

func TestRunSymbolFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--symbol", "helper", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "lib.typ,helper,function") {
		t.Errorf("helper definition should appear in symbols:\n%s", out)
	}
	// main.typ uses helper, so it is included through its dependency.
	if !strings.Contains(out, "main.typ,typst") {
		t.Errorf("main.typ should be in output:\n%s", out)
	}
	if strings.Contains(out, ",gap,") {
		t.Errorf("gap should be trimmed from symbols:\n%s", out)
	}
	// The definition, the import and the call.
	if !strings.Contains(out, "references[3]{file,line,col,name,kind}:") {
		t.Errorf("expected 3 references:\n%s", out)
	}
}

func TestRunSymbolFilterLabel(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-s", "intro", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "main.typ,intro,reference,2,") {
		t.Errorf("label should appear in symbols:\n%s", out)
	}
	if !strings.Contains(out, "references[2]") {
		t.Errorf("expected the label and its reference:\n%s", out)
	}
}

func TestRunSymbolFilterNoMatch(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--symbol", "NoSuchSymbol", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "files[0]") {
		t.Errorf("expected empty files table:\n%s", out)
	}
}

func TestRunFileFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleWorkspace(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--file", "lib", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "files[1]") {
		t.Errorf("expected only lib.typ:\n%s", out)
	}
	if strings.Contains(out, "main.typ,typst") {
		t.Errorf("main.typ should not appear as a file:\n%s", out)
	}
	if !strings.Contains(out, "main.typ,lib.typ,helper") {
		t.Errorf("dependencies touching lib.typ should be kept:\n%s", out)
	}
}

func TestRunPython(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "utils.py", "def helper():\n    pass\n")
	writeTestFile(t, dir, "main.py", "from utils import helper\n\ndef greet():\n    helper()\n")
	writeTestFile(t, dir, "doc.typ", "= Ignored")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-l", "python", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if strings.Contains(out, "doc.typ") {
		t.Errorf("typst files should be filtered out:\n%s", out)
	}
	if !strings.Contains(out, "utils.py,helper,function,1,helper()") {
		t.Errorf("missing helper definition:\n%s", out)
	}
	if !strings.Contains(out, "main.py,utils.py,helper") {
		t.Errorf("missing dependency main.py -> utils.py:\n%s", out)
	}
}

func TestRunPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "main.typ", "")
	writeTestFile(t, dir, "fig/plot.png", "")
	writeTestFile(t, dir, "refs.bib", "")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"paths", dir, "--kind", "image"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	want := "paths[1]{path,kind}:\n  fig/plot.png,Image\n"
	if stdout.String() != want {
		t.Errorf("paths output = %q, want %q", stdout.String(), want)
	}
}

func TestRunPathsUnknownKind(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"paths", "-k", "movie", t.TempDir()}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown path kind") {
		t.Errorf("expected unknown path kind error, got %v", err)
	}
}

func TestRunSig(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"sig", "rect"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"function: rect\n", "kind: element\n", "returns: ", "params[", "\n  fill,", "\n  body,"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunSigUnknown(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"sig", "no-such-function"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown builtin function") {
		t.Errorf("expected unknown function error, got %v", err)
	}
}

type fakePrompter struct {
	lines   []string
	history []string
}

func (p *fakePrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *fakePrompter) AppendHistory(item string) {
	p.history = append(p.history, item)
}

func openSample(t *testing.T) *workspace {
	t.Helper()
	dir := createSampleWorkspace(t)
	files, err := discover.Files(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	w, err := openWorkspace(context.Background(), dir, files, nil, io.Discard)
	if err != nil {
		t.Fatalf("openWorkspace: %v", err)
	}
	return w
}

func TestQueryLoop(t *testing.T) {
	t.Parallel()
	w := openSample(t)

	p := &fakePrompter{lines: []string{
		"files",
		"",
		"exports lib.typ",
		"def main.typ 3 2",
		"refs main.typ 3 2",
		"bogus",
		"quit",
		"files",
	}}
	var out bytes.Buffer
	queryLoop(context.Background(), w, p, &out)

	got := out.String()
	for _, want := range []string{
		"files[2]{path,language,revision}:",
		"exports[2]{name,target}:",
		"lib.typ:2:",
		"function helper",
		"references[3]{file,line,col,name,kind}:",
		`error: unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if len(p.lines) != 1 {
		t.Errorf("quit should stop the loop, %d lines left", len(p.lines))
	}
	if len(p.history) != 6 {
		t.Errorf("history = %q", p.history)
	}
}

func TestQueryCommandErrors(t *testing.T) {
	t.Parallel()
	w := openSample(t)

	tests := []struct {
		name   string
		fields []string
		want   string
	}{
		{"unknown file", []string{"exports", "nope.typ"}, "unknown file"},
		{"bad line", []string{"def", "main.typ", "x", "1"}, "line"},
		{"out of range", []string{"def", "main.typ", "99", "1"}, "no such position"},
		{"usage", []string{"refs", "main.typ"}, "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := w.command(context.Background(), tt.fields)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("command(%v) error = %v, want %q", tt.fields, err, tt.want)
			}
		})
	}
}

func TestOffsetOf(t *testing.T) {
	t.Parallel()

	text := "ab\ncde\n"
	tests := []struct {
		line, col int
		want      int
		ok        bool
	}{
		{1, 1, 0, true},
		{1, 3, 2, true},
		{2, 1, 3, true},
		{2, 3, 5, true},
		{2, 5, 0, false},
		{3, 1, 7, true},
		{4, 1, 0, false},
		{0, 1, 0, false},
	}
	for _, tt := range tests {
		got, ok := offsetOf(text, tt.line, tt.col)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("offsetOf(%d, %d) = %d, %v; want %d, %v", tt.line, tt.col, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags first", []string{"-n", "5", "."}, []string{"-n", "5", "."}},
		{"positional first", []string{".", "-n", "5"}, []string{"-n", "5", "."}},
		{"mixed", []string{"-l", "python", ".", "-n", "5"}, []string{"-l", "python", "-n", "5", "."}},
		{"format value", []string{".", "--format", "json"}, []string{"--format", "json", "."}},
		{"symbol value", []string{"-s", "helper", "."}, []string{"-s", "helper", "."}},
		{"multi-lang", []string{"-l", "typst,python", "."}, []string{"-l", "typst,python", "."}},
		{"no flags", []string{"."}, []string{"."}},
		{"no args", nil, nil},
		{"bool flag", []string{"-V"}, []string{"-V"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reorderArgs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q (full: %v)", i, got[i], tt.want[i], got)
					break
				}
			}
		})
	}
}
