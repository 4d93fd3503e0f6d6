package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/discover"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/model"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/toon"
	"github.com/phobologic/typguide/internal/ty"
)

const queryHelp = `Commands:
  files                      list analyzed files
  exports FILE               list the names FILE exports
  def FILE LINE COL          show the definition of the name at LINE:COL
  refs FILE LINE COL         list every reference to the name at LINE:COL
  help                       show this help
  quit                       leave the shell`

// prompter reads lines interactively.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// runQuery implements `typguide query`, an interactive shell over an
// analyzed workspace.
func runQuery(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("typguide query", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		langs   string
		history string
		verbose bool
	)
	fs.StringVar(&langs, "l", "", "comma-separated languages to include")
	fs.StringVar(&langs, "langs", "", "comma-separated languages to include")
	fs.StringVar(&history, "history", "", "history file (default ~/.typguide_history)")
	fs.BoolVar(&verbose, "v", false, "log analysis progress to stderr")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	root, err := workspaceRoot(fs)
	if err != nil {
		return err
	}
	langFilter, err := parseLangs(langs)
	if err != nil {
		return err
	}
	files, err := discover.Files(root, langFilter)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	ctx := context.Background()
	w, err := openWorkspace(ctx, root, files, newLogger(stderr, verbose), stderr)
	if err != nil {
		return err
	}

	if history == "" {
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".typguide_history")
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// History is best-effort.
	if f, err := os.Open(history); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	_, _ = fmt.Fprintf(stdout, "typguide %s: %d files in %s (type help)\n", version, len(w.entries), filepath.Base(root))
	queryLoop(ctx, w, ln, stdout)

	if history != "" {
		if f, err := os.Create(history); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	return nil
}

// queryLoop answers commands until the prompter reports end of input or
// the user quits.
func queryLoop(ctx context.Context, w *workspace, p prompter, out io.Writer) {
	for {
		line, err := p.Prompt("typguide> ")
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(out)
			return
		}
		if err != nil {
			// Ctrl+C aborts the current line only.
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		p.AppendHistory(line)

		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		res, err := w.command(ctx, fields)
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, res)
	}
}

// command runs one shell command and returns its output.
func (w *workspace) command(ctx context.Context, fields []string) (string, error) {
	switch cmd, args := fields[0], fields[1:]; cmd {
	case "help":
		return queryHelp, nil
	case "files":
		rows := make([][]any, 0, len(w.entries))
		for _, e := range w.entries {
			rows = append(rows, []any{filepath.ToSlash(e.Path), e.Language, w.a.Revision(e.fid)})
		}
		return toon.Table("files", []string{"path", "language", "revision"}, rows), nil
	case "exports":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: exports FILE")
		}
		return w.exports(args[0])
	case "def", "refs":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: %s FILE LINE COL", cmd)
		}
		fid, ref, err := w.refAt(args[0], args[1], args[2])
		if err != nil {
			return "", err
		}
		if ref == nil {
			return "no name at that position", nil
		}
		if cmd == "def" {
			return w.definition(fid, ref)
		}
		fid, d := w.canonical(fid, ref.Decl)
		locs, err := w.a.References(ctx, fid, d)
		if err != nil {
			return "", err
		}
		var out []model.Location
		for _, loc := range locs {
			if l, ok := w.location(loc.File, loc.Span, loc.Ref.Decl); ok {
				out = append(out, l)
			}
		}
		return toon.Locations("references", out), nil
	}
	return "", fmt.Errorf("unknown command %q (type help)", fields[0])
}

func (w *workspace) exports(path string) (string, error) {
	fid, err := w.lookup(path)
	if err != nil {
		return "", err
	}
	scope, err := w.a.ExportsOf(fid)
	if err != nil {
		return "", err
	}
	var rows [][]any
	for name, e := range scope.All() {
		rows = append(rows, []any{name, expr.Describe(e)})
	}
	return toon.Table("exports", []string{"name", "target"}, rows), nil
}

// refAt resolves the name at a 1-based line and column of path.
func (w *workspace) refAt(path, line, col string) (source.FileID, *expr.Ref, error) {
	fid, err := w.lookup(path)
	if err != nil {
		return source.FileID{}, nil, err
	}
	l, err := strconv.Atoi(line)
	if err != nil {
		return source.FileID{}, nil, fmt.Errorf("line %q: %w", line, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return source.FileID{}, nil, fmt.Errorf("column %q: %w", col, err)
	}
	info, err := w.a.Analyze(fid)
	if err != nil {
		return source.FileID{}, nil, err
	}
	offset, ok := offsetOf(info.Source.Text(), l, c)
	if !ok {
		return source.FileID{}, nil, fmt.Errorf("%s:%d:%d: no such position", path, l, c)
	}
	ref, err := w.a.At(fid, offset)
	return fid, ref, err
}

func (w *workspace) definition(fid source.FileID, ref *expr.Ref) (string, error) {
	def, ok, err := w.a.Definition(fid, ref.Decl)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%s: unresolved", ref.Decl.Name()), nil
	}
	d, isDecl := def.(*expr.Decl)
	if !isDecl {
		return fmt.Sprintf("%s: builtin %s", ref.Decl.Name(), expr.Describe(def)), nil
	}
	target, ok := d.Decl.FileID()
	if !ok {
		return fmt.Sprintf("%s: %s", ref.Decl.Name(), expr.Describe(def)), nil
	}
	loc, ok := w.location(target, d.Decl.Span(), d.Decl)
	if !ok {
		return fmt.Sprintf("%s: %s", ref.Decl.Name(), expr.Describe(def)), nil
	}
	out := fmt.Sprintf("%s:%d:%d: %s %s", loc.File, loc.Line, loc.Col, loc.Kind, loc.Name)
	if ref.Term != nil {
		out += " : " + ty.Describe(ref.Term)
	}
	return out, nil
}

// canonical returns the definition a name use refers to along with its
// file, so references are collected from the definition outward. Uses that
// do not lead to a workspace definition are returned unchanged.
func (w *workspace) canonical(fid source.FileID, d *decl.Decl) (source.FileID, *decl.Decl) {
	def, ok, err := w.a.Definition(fid, d)
	if err != nil || !ok {
		return fid, d
	}
	target, isDecl := def.(*expr.Decl)
	if !isDecl {
		return fid, d
	}
	f, ok := target.Decl.FileID()
	if !ok || w.a.Revision(f) == 0 {
		return fid, d
	}
	return f, target.Decl
}

// offsetOf converts a 1-based line and column into a byte offset of text.
func offsetOf(text string, line, col int) (int, bool) {
	if line < 1 || col < 1 {
		return 0, false
	}
	start := 0
	for range line - 1 {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return 0, false
		}
		start += i + 1
	}
	end := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		end = start + i
	}
	if start+col-1 > end {
		return 0, false
	}
	return start + col - 1, true
}
