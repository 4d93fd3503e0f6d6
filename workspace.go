package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/typguide/internal/analysis"
	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/discover"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/lang"
	"github.com/phobologic/typguide/internal/model"
	"github.com/phobologic/typguide/internal/parse"
	"github.com/phobologic/typguide/internal/report"
	"github.com/phobologic/typguide/internal/source"
)

// workspace is a set of discovered files loaded into an analyzer.
type workspace struct {
	root    string
	reg     *source.Registry
	a       *analysis.Analyzer
	entries []entry
}

type entry struct {
	discover.FileEntry
	fid source.FileID
}

// openWorkspace reads files concurrently and hands them to a fresh
// analyzer. Files that cannot be read or parsed are reported on stderr and
// left out.
func openWorkspace(ctx context.Context, root string, files []discover.FileEntry, log *slog.Logger, stderr io.Writer) (*workspace, error) {
	if log == nil {
		log = slog.Default()
	}
	reg := source.NewRegistry()
	a := analysis.New(reg, log)
	for _, name := range lang.Names() {
		l := lang.Languages[name]
		if !l.HasGrammar() {
			continue
		}
		for _, ext := range l.Extensions {
			a.RegisterFrontend(ext, parse.Frontend(l))
		}
	}

	loaded := make([]bool, len(files))
	fids := make([]source.FileID, len(files))
	var stderrMu sync.Mutex
	warn := func(path string, err error) {
		stderrMu.Lock()
		defer stderrMu.Unlock()
		_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", path, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := os.ReadFile(filepath.Join(root, f.Path))
			if err != nil {
				warn(f.Path, err)
				return nil
			}
			fid := reg.File("/" + filepath.ToSlash(f.Path))
			if _, err := a.Update(fid, string(text)); err != nil {
				warn(f.Path, err)
				return nil
			}
			fids[i], loaded[i] = fid, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	w := &workspace{root: root, reg: reg, a: a}
	for i, f := range files {
		if loaded[i] {
			w.entries = append(w.entries, entry{FileEntry: f, fid: fids[i]})
		}
	}
	log.Debug("loaded workspace", "root", root, "files", len(w.entries))
	return w, nil
}

// lookup finds a loaded file by its workspace-relative path.
func (w *workspace) lookup(path string) (source.FileID, error) {
	want := filepath.ToSlash(filepath.Clean(path))
	for _, e := range w.entries {
		if filepath.ToSlash(e.Path) == want {
			return e.fid, nil
		}
	}
	return source.FileID{}, fmt.Errorf("%s: %w", path, analysis.ErrUnknownFile)
}

// definitions lists the top-level definitions and labels of fid whose name
// contains substr (case-insensitive).
func (w *workspace) definitions(fid source.FileID, substr string) ([]*decl.Decl, error) {
	info, err := w.a.Analyze(fid)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(substr)
	matches := func(d *decl.Decl) bool {
		return strings.Contains(strings.ToLower(d.Name()), lower)
	}

	var out []*decl.Decl
	for _, e := range info.Exports.All() {
		d, ok := e.(*expr.Decl)
		if !ok || d.Decl.Tag() == decl.TagModule {
			continue
		}
		if f, ok := d.Decl.FileID(); ok && f == fid && matches(d.Decl) {
			out = append(out, d.Decl)
		}
	}
	for span, ref := range info.Resolves {
		if ref.Decl.Tag() == decl.TagLabel && ref.Decl.Span() == span && matches(ref.Decl) {
			out = append(out, ref.Decl)
		}
	}
	slices.SortFunc(out, (*decl.Decl).Compare)
	return slices.CompactFunc(out, func(a, b *decl.Decl) bool { return a == b }), nil
}

// references collects every use of the definitions whose name contains
// substr, across the workspace.
func (w *workspace) references(ctx context.Context, substr string) ([]model.Location, error) {
	var out []model.Location
	for _, e := range w.entries {
		defs, err := w.definitions(e.fid, substr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Path, err)
		}
		for _, d := range defs {
			locs, err := w.a.References(ctx, e.fid, d)
			if err != nil {
				return nil, fmt.Errorf("references of %s: %w", d.Name(), err)
			}
			for _, loc := range locs {
				if l, ok := w.location(loc.File, loc.Span, loc.Ref.Decl); ok {
					out = append(out, l)
				}
			}
		}
	}
	slices.SortFunc(out, func(a, b model.Location) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Col, b.Col),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return out, nil
}

// location renders span of fid with 1-based line and column.
func (w *workspace) location(fid source.FileID, span source.Span, d *decl.Decl) (model.Location, bool) {
	info, err := w.a.Analyze(fid)
	if err != nil {
		return model.Location{}, false
	}
	r, ok := info.Source.Range(span)
	if !ok {
		return model.Location{}, false
	}
	line, col := info.Source.Position(r.Start)
	return model.Location{
		File: report.Path(fid),
		Line: line,
		Col:  col + 1,
		Name: d.Name(),
		Kind: d.Kind().String(),
	}, true
}
