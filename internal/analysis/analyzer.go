package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/query"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/syntax"
)

// ErrUnknownFile is returned for files that were never added.
var ErrUnknownFile = errors.New("analysis: unknown file")

// Frontend parses the text of one file type into a syntax tree.
type Frontend func(text string) (*syntax.Node, error)

// Analyzer holds the latest revision of every file of a workspace and
// computes each revision's ExprInfo at most once.
type Analyzer struct {
	reg *source.Registry
	log *slog.Logger

	mu        sync.Mutex
	files     map[source.FileID]*fileState
	frontends map[string]Frontend
}

type fileState struct {
	revision int
	src      *source.Source
	root     *syntax.Node
	cell     *query.Ref[*expr.ExprInfo, buildInput]
}

type buildInput struct {
	src      *source.Source
	root     *syntax.Node
	revision int
}

// New creates an analyzer for files of reg. A nil logger means
// slog.Default(). Files ending in .typ are parsed with syntax.Parse; other
// extensions need a Frontend.
func New(reg *source.Registry, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{
		reg:   reg,
		log:   log,
		files: make(map[source.FileID]*fileState),
		frontends: map[string]Frontend{
			".typ": func(text string) (*syntax.Node, error) { return syntax.Parse(text), nil },
		},
	}
}

// RegisterFrontend parses files with extension ext using f.
func (a *Analyzer) RegisterFrontend(ext string, f Frontend) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frontends[strings.ToLower(ext)] = f
}

// Update replaces the text of fid and returns the new revision. Readers of
// earlier revisions keep their results.
func (a *Analyzer) Update(fid source.FileID, text string) (int, error) {
	ext := strings.ToLower(path.Ext(fid.VPath()))
	a.mu.Lock()
	front, ok := a.frontends[ext]
	a.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%s: no frontend for %q files", fid, ext)
	}

	root, err := front(text)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", fid, err)
	}
	src, err := syntax.Number(root, fid, text)
	if err != nil {
		return 0, fmt.Errorf("numbering %s: %w", fid, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	revision := 1
	if old, ok := a.files[fid]; ok {
		revision = old.revision + 1
	}
	a.files[fid] = &fileState{
		revision: revision,
		src:      src,
		root:     root,
		cell:     query.WithContext[*expr.ExprInfo](buildInput{src: src, root: root, revision: revision}),
	}
	return revision, nil
}

// Revision returns the current revision of fid, or 0 if it is unknown.
func (a *Analyzer) Revision(fid source.FileID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.files[fid]; ok {
		return st.revision
	}
	return 0
}

// Files returns the known files in reproducible order.
func (a *Analyzer) Files() []source.FileID {
	a.mu.Lock()
	defer a.mu.Unlock()
	files := make([]source.FileID, 0, len(a.files))
	for fid := range a.files {
		files = append(files, fid)
	}
	slices.SortFunc(files, source.FileID.StrictCompare)
	return files
}

func (a *Analyzer) state(fid source.FileID) (*fileState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.files[fid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", fid, ErrUnknownFile)
	}
	return st, nil
}

// Analyze returns the ExprInfo of the current revision of fid. Imported
// files are analyzed first. Inside an import cycle only imports of files
// greater in strict order are followed; an import of a lesser member stays
// unresolved. The greatest member of a cycle therefore never sees the
// others' exports, regardless of the order files are analyzed in.
func (a *Analyzer) Analyze(fid source.FileID) (*expr.ExprInfo, error) {
	st, err := a.state(fid)
	if err != nil {
		return nil, err
	}
	var cut map[source.FileID]bool
	if _, ok := st.cell.Peek(); !ok {
		for _, dep := range a.dependencies(fid, st.root) {
			if dep == fid || (dep.StrictCompare(fid) < 0 && a.reaches(dep, fid)) {
				if cut == nil {
					cut = make(map[source.FileID]bool)
				}
				cut[dep] = true
				continue
			}
			if _, err := a.Analyze(dep); err != nil && !errors.Is(err, ErrUnknownFile) {
				a.log.Warn("analyzing import failed", "file", fid, "import", dep, "err", err)
			}
		}
	}
	return st.cell.ComputeWithContext(func(in buildInput) (*expr.ExprInfo, error) {
		start := time.Now()
		info := Build(in.src, in.root, in.revision, cutResolver{a, cut}, a.log)
		a.log.Debug("built expr info", "file", fid, "revision", in.revision, "duration", time.Since(start))
		return info, nil
	})
}

// reaches reports whether to is reachable from from along imports.
func (a *Analyzer) reaches(from, to source.FileID) bool {
	seen := map[source.FileID]bool{from: true}
	stack := []source.FileID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		st, err := a.state(cur)
		if err != nil {
			continue
		}
		for _, dep := range a.dependencies(cur, st.root) {
			if dep == to {
				return true
			}
			if !seen[dep] {
				seen[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false
}

// cutResolver hides the exports of imports that close a cycle.
type cutResolver struct {
	*Analyzer
	cut map[source.FileID]bool
}

func (r cutResolver) Exports(fid source.FileID) (expr.LexicalScope, bool) {
	if r.cut[fid] {
		return expr.LexicalScope{}, false
	}
	return r.Analyzer.Exports(fid)
}

// dependencies lists the files root imports that the analyzer knows.
func (a *Analyzer) dependencies(from source.FileID, root *syntax.Node) []source.FileID {
	var deps []source.FileID
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind != syntax.Import && n.Kind != syntax.Include {
			return true
		}
		if src := n.Child(0); src != nil && src.Kind == syntax.Str {
			if fid, ok := a.Resolve(from, src.Text); ok && !slices.Contains(deps, fid) {
				deps = append(deps, fid)
			}
		}
		return false
	})
	return deps
}

// Resolve maps an import path to a known file. Paths starting with a slash
// are relative to the workspace root, others to the importing file.
// Package paths resolve to the package's lib.typ. A missing "x.py" falls
// back to "x/__init__.py".
func (a *Analyzer) Resolve(from source.FileID, p string) (source.FileID, bool) {
	fid, ok := a.resolve(from, p)
	if !ok && path.Ext(p) == ".py" {
		return a.resolve(from, strings.TrimSuffix(p, ".py")+"/__init__.py")
	}
	return fid, ok
}

func (a *Analyzer) resolve(from source.FileID, p string) (source.FileID, bool) {
	var fid source.FileID
	if strings.HasPrefix(p, "@") {
		spec, err := source.ParsePackageSpec(p)
		if err != nil {
			return source.FileID{}, false
		}
		fid = a.reg.PackageFile(spec, "/lib.typ")
	} else {
		if !strings.HasPrefix(p, "/") {
			p = path.Join(path.Dir(from.VPath()), p)
		}
		if pkg, ok := from.Package(); ok {
			fid = a.reg.PackageFile(pkg, p)
		} else {
			fid = a.reg.File(p)
		}
	}
	a.mu.Lock()
	_, ok := a.files[fid]
	a.mu.Unlock()
	return fid, ok
}

// Exports returns the exports of fid's current revision if it has been
// analyzed. It never blocks on a computation.
func (a *Analyzer) Exports(fid source.FileID) (expr.LexicalScope, bool) {
	st, err := a.state(fid)
	if err != nil {
		return expr.LexicalScope{}, false
	}
	r, ok := st.cell.Peek()
	if !ok || r.Err != nil {
		return expr.LexicalScope{}, false
	}
	return r.Value.Exports, true
}

// AnalyzeAll analyzes every known file concurrently.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (map[source.FileID]*expr.ExprInfo, error) {
	files := a.Files()
	infos := make([]*expr.ExprInfo, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, fid := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := a.Analyze(fid)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[source.FileID]*expr.ExprInfo, len(files))
	for i, fid := range files {
		out[fid] = infos[i]
	}
	return out, nil
}

// At returns the resolution of the innermost name use or definition
// covering offset in fid, or nil if there is none.
func (a *Analyzer) At(fid source.FileID, offset int) (*expr.Ref, error) {
	info, err := a.Analyze(fid)
	if err != nil {
		return nil, err
	}
	var best *expr.Ref
	var bestSpan source.Span
	bestLen := -1
	for span, ref := range info.Resolves {
		r, ok := info.Source.Range(span)
		if !ok || offset < r.Start || offset >= r.End {
			continue
		}
		if n := r.End - r.Start; bestLen < 0 || n < bestLen || (n == bestLen && span.Compare(bestSpan) < 0) {
			best, bestSpan, bestLen = ref, span, n
		}
	}
	return best, nil
}

// Definition returns what d ultimately refers to. ok is false when d is
// not resolved in fid.
func (a *Analyzer) Definition(fid source.FileID, d *decl.Decl) (e expr.Expr, ok bool, err error) {
	info, err := a.Analyze(fid)
	if err != nil {
		return nil, false, err
	}
	def, ok := info.GetDef(d)
	if !ok {
		return nil, false, nil
	}
	if r, isRef := def.(*expr.Ref); isRef {
		if r.Root == nil {
			return nil, false, nil
		}
		return r.Root, true, nil
	}
	return def, true, nil
}

// Location is one reference found by References.
type Location struct {
	File source.FileID
	Span source.Span
	Ref  *expr.Ref
}

// References returns every resolution of d across the workspace, ordered
// by file and then by span. fid is the file d was found in and must be
// known.
func (a *Analyzer) References(ctx context.Context, fid source.FileID, d *decl.Decl) ([]Location, error) {
	if _, err := a.state(fid); err != nil {
		return nil, err
	}
	infos, err := a.AnalyzeAll(ctx)
	if err != nil {
		return nil, err
	}
	var locs []Location
	for _, f := range a.Files() {
		info, ok := infos[f]
		if !ok {
			continue
		}
		for span, ref := range info.GetRefs(d) {
			locs = append(locs, Location{File: f, Span: span, Ref: ref})
		}
	}
	slices.SortStableFunc(locs, func(x, y Location) int {
		if c := x.File.StrictCompare(y.File); c != 0 {
			return c
		}
		return cmp.Compare(x.Span.Number(), y.Span.Number())
	})
	return locs, nil
}

// ExportsOf returns the exports of fid, analyzing it if needed.
func (a *Analyzer) ExportsOf(fid source.FileID) (expr.LexicalScope, error) {
	info, err := a.Analyze(fid)
	if err != nil {
		return expr.LexicalScope{}, err
	}
	return info.Exports, nil
}

// IsExported reports whether fid exports d under its own name.
func (a *Analyzer) IsExported(fid source.FileID, d *decl.Decl) (bool, error) {
	info, err := a.Analyze(fid)
	if err != nil {
		return false, err
	}
	return info.IsExported(d), nil
}
