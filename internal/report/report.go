// Package report turns analysis results into workspace report records.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/model"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/ty"
)

// Input is one analyzed file.
type Input struct {
	Info     *expr.ExprInfo
	Language string
}

// Files summarizes every input. Reference counts cover all inputs, so a
// symbol used from another file counts that use. The result follows the
// order of inputs.
func Files(inputs []Input) []model.FileInfo {
	uses := make(map[*decl.Decl]int)
	for _, in := range inputs {
		for _, ref := range in.Info.Resolves {
			if ref.Decl.IsDef() {
				continue
			}
			if root, ok := ref.Root.(*expr.Decl); ok {
				uses[root.Decl]++
			}
		}
	}

	out := make([]model.FileInfo, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, file(in, uses))
	}
	return out
}

// Path renders a file id as a workspace-relative path.
func Path(fid source.FileID) string {
	p := strings.TrimPrefix(fid.VPath(), "/")
	if pkg, ok := fid.Package(); ok {
		return pkg.String() + "/" + p
	}
	return p
}

func file(in Input, uses map[*decl.Decl]int) model.FileInfo {
	info := in.Info
	fi := model.FileInfo{
		Path:     Path(info.FileID),
		Language: in.Language,
		Revision: info.Revision,
	}
	if info.ModuleDocstring != nil {
		fi.Docs = firstLine(info.ModuleDocstring.Docs)
	}

	funcs := make(map[*decl.Decl]*expr.Func)
	collectFuncs(info.Root, funcs)

	for name, e := range info.Exports.All() {
		d, ok := e.(*expr.Decl)
		if !ok || !definedIn(d.Decl, info.FileID) {
			continue
		}
		fi.Symbols = append(fi.Symbols, symbol(info, name, d.Decl, funcs[d.Decl], true, uses[d.Decl]))
	}
	for span, ref := range info.Resolves {
		if ref.Decl.Tag() == decl.TagLabel && ref.Decl.Span() == span {
			fi.Symbols = append(fi.Symbols, symbol(info, ref.Decl.Name(), ref.Decl, nil, false, uses[ref.Decl]))
		}
	}
	slices.SortFunc(fi.Symbols, func(a, b model.Symbol) int {
		return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Name, b.Name))
	})

	for span, ref := range info.Resolves {
		if ref.Decl.IsDef() {
			continue
		}
		root, ok := ref.Root.(*expr.Decl)
		if !ok {
			continue
		}
		target, ok := root.Decl.FileID()
		if !ok || target == info.FileID {
			continue
		}
		fi.Uses = append(fi.Uses, model.Use{
			Name:   ref.Decl.Name(),
			Line:   info.Source.Line(span),
			Target: Path(target),
		})
	}
	slices.SortFunc(fi.Uses, func(a, b model.Use) int {
		return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Name, b.Name), cmp.Compare(a.Target, b.Target))
	})

	for fid := range info.Imports {
		fi.Imports = append(fi.Imports, Path(fid))
	}
	slices.Sort(fi.Imports)
	return fi
}

func definedIn(d *decl.Decl, fid source.FileID) bool {
	f, ok := d.FileID()
	return ok && f == fid && d.Tag() != decl.TagModule
}

func symbol(info *expr.ExprInfo, name string, d *decl.Decl, fn *expr.Func, exported bool, refs int) model.Symbol {
	s := model.Symbol{
		Name:     name,
		Kind:     kindOf(d),
		Line:     info.Source.Line(d.Span()),
		Exported: exported,
		Refs:     refs,
	}
	if fn != nil {
		s.Signature = Signature(name, fn.Params)
	}
	if ref, ok := info.Resolves[d.Span()]; ok && ref.Term != nil {
		s.Type = ty.Describe(ref.Term)
	}
	if ds, ok := info.Docstrings[d]; ok {
		s.Docs = firstLine(ds.Docs)
	}
	return s
}

func kindOf(d *decl.Decl) model.SymbolKind {
	switch d.Kind() {
	case decl.DefFunction:
		return model.Function
	case decl.DefVariable:
		return model.Variable
	case decl.DefModule:
		return model.Module
	case decl.DefReference:
		return model.Reference
	}
	return model.Constant
}

// collectFuncs finds the closures bound by top-level lets, including lets
// nested in blocks that do not open a scope.
func collectFuncs(e expr.Expr, out map[*decl.Decl]*expr.Func) {
	switch e := e.(type) {
	case *expr.Block:
		for _, item := range e.Items {
			collectFuncs(item, out)
		}
	case *expr.Let:
		if e.Pattern != nil && e.Pattern.Of == expr.PatSimple {
			if fn, ok := e.Body.(*expr.Func); ok {
				out[e.Pattern.Simple] = fn
			}
		}
	}
}

// Signature renders a parameter list such as "f(x, size: 12pt, ..rest)".
func Signature(name string, sig expr.PatternSig) string {
	var parts []string
	if sig.SpreadLeft != nil {
		parts = append(parts, ".."+sig.SpreadLeft.Decl.Name())
	}
	for _, p := range sig.Pos {
		parts = append(parts, patternName(p))
	}
	for _, np := range sig.Named {
		part := np.Decl.Name()
		if np.Pattern != nil && np.Pattern.Of == expr.PatExpr && np.Pattern.Expr != nil {
			part += ": " + expr.Describe(np.Pattern.Expr)
		}
		parts = append(parts, part)
	}
	if sig.SpreadRight != nil {
		parts = append(parts, ".."+sig.SpreadRight.Decl.Name())
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func patternName(p *expr.Pattern) string {
	switch {
	case p == nil:
		return "_"
	case p.Of == expr.PatSimple:
		if n := p.Simple.Name(); n != "" {
			return n
		}
		return "_"
	case p.Of == expr.PatSig:
		return Signature("", p.Sig)
	}
	return "_"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// JSON writes ws as indented JSON.
func JSON(w io.Writer, ws *model.Workspace) error {
	data, err := sonic.ConfigStd.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing workspace: %w", err)
	}
	return nil
}
