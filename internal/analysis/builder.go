// Package analysis lowers syntax trees into the expression IR and answers
// definition, reference and export queries over a set of files.
package analysis

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/syntax"
	"github.com/phobologic/typguide/internal/ty"
)

// Resolver supplies other files to a build.
type Resolver interface {
	// Resolve maps an import path written in file from to a file.
	Resolve(from source.FileID, path string) (source.FileID, bool)
	// Exports returns the exports of fid if they are already known. It
	// must not block.
	Exports(fid source.FileID) (expr.LexicalScope, bool)
}

// Build lowers root into an ExprInfo. root must have been numbered against
// src with syntax.Number. r may be nil, in which case no file import
// resolves.
func Build(src *source.Source, root *syntax.Node, revision int, r Resolver, log *slog.Logger) *expr.ExprInfo {
	if log == nil {
		log = slog.Default()
	}
	b := &builder{
		fid:        src.ID(),
		log:        log,
		resolver:   r,
		global:     expr.ModuleScope{Module: host.Std().Global()},
		scopes:     []expr.LexicalScope{expr.NewLexicalScope()},
		labels:     make(map[string]*decl.Decl),
		modules:    make(map[*decl.Decl]expr.ExprScope),
		funcs:      make(map[*decl.Decl]expr.PatternSig),
		terms:      make(map[*decl.Decl]ty.Ty),
		resolves:   make(map[source.Span]*expr.Ref),
		exprs:      make(map[source.Span]expr.Expr),
		docstrings: make(map[*decl.Decl]*expr.DocString),
		imports:    make(map[source.FileID]expr.LexicalScope),
	}
	b.collectLabels(root)
	body := b.block(root)

	var moduleDocs *expr.DocString
	if ds := parseDocString(root.Docs); !ds.IsEmpty() {
		moduleDocs = ds
	}
	return expr.NewExprInfo(expr.ExprInfoRepr{
		FileID:          b.fid,
		Revision:        revision,
		Source:          src,
		Resolves:        b.resolves,
		ModuleDocstring: moduleDocs,
		Docstrings:      b.docstrings,
		Exprs:           b.exprs,
		Imports:         b.imports,
		Exports:         b.scopes[0],
		Root:            body,
	})
}

type builder struct {
	fid      source.FileID
	log      *slog.Logger
	resolver Resolver
	global   expr.ExprScope

	// scopes[0] is the file scope and becomes the export scope.
	scopes []expr.LexicalScope
	labels map[string]*decl.Decl
	// modules maps module declarations to their member scope.
	modules map[*decl.Decl]expr.ExprScope
	funcs   map[*decl.Decl]expr.PatternSig
	terms   map[*decl.Decl]ty.Ty

	resolves   map[source.Span]*expr.Ref
	exprs      map[source.Span]expr.Expr
	docstrings map[*decl.Decl]*expr.DocString
	imports    map[source.FileID]expr.LexicalScope
}

func (b *builder) push() { b.scopes = append(b.scopes, expr.NewLexicalScope()) }
func (b *builder) pop()  { b.scopes = b.scopes[:len(b.scopes)-1] }

func (b *builder) bind(name string, e expr.Expr) {
	if name == "" || name == "_" {
		return
	}
	top := len(b.scopes) - 1
	b.scopes[top] = b.scopes[top].Insert(name, e)
}

func (b *builder) define(d *decl.Decl, term ty.Ty) *expr.Decl {
	b.resolves[d.Span()] = expr.AsDef(d, term)
	if term != nil {
		b.terms[d] = term
	}
	return expr.DeclOf(d)
}

func (b *builder) lookup(name string) (expr.Expr, ty.Ty, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if e, ok := b.scopes[i].Lookup(name); ok {
			return e, b.termOf(e), true
		}
	}
	if _, t := b.global.Get(name); t != nil {
		return expr.TypeOf(t), t, true
	}
	return nil, nil, false
}

func (b *builder) termOf(e expr.Expr) ty.Ty {
	switch e := e.(type) {
	case *expr.Ref:
		return e.Term
	case *expr.Type:
		return e.Ty
	case *expr.Decl:
		return b.terms[e.Decl]
	}
	return nil
}

// rootOf follows a reference to its transitive target.
func rootOf(e expr.Expr) expr.Expr {
	if r, ok := e.(*expr.Ref); ok {
		return r.Root
	}
	return e
}

// target is rootOf extended to resolved field selections.
func (b *builder) target(e expr.Expr) expr.Expr {
	if sel, ok := e.(*expr.Select); ok {
		if ref, ok := b.resolves[sel.Key.Span()]; ok && ref.Decl == sel.Key {
			return rootOf(ref)
		}
		return nil
	}
	return rootOf(e)
}

// memberScope returns the scope of the module, function or type e names.
func (b *builder) memberScope(e expr.Expr) expr.ExprScope {
	switch r := b.target(e).(type) {
	case *expr.Decl:
		if s, ok := b.modules[r.Decl]; ok {
			return s
		}
	case *expr.Type:
		if v, ok := r.Ty.(*ty.Value); ok {
			if s, ok := expr.ScopeOf(v.Val()); ok {
				return s
			}
		}
	}
	return nil
}

func (b *builder) scopeGet(s expr.ExprScope, name string) (expr.Expr, ty.Ty) {
	if s == nil {
		return nil, nil
	}
	e, t := s.Get(name)
	switch {
	case e != nil:
		return e, b.termOf(e)
	case t != nil:
		return expr.TypeOf(t), t
	}
	return nil, nil
}

func (b *builder) collectLabels(root *syntax.Node) {
	root.Walk(func(n *syntax.Node) bool {
		if n.Kind == syntax.Label {
			if _, ok := b.labels[n.Text]; !ok {
				b.labels[n.Text] = decl.Label(n.Text, n.Span())
			}
		}
		return true
	})
}

func (b *builder) block(n *syntax.Node) expr.Expr {
	var items []expr.Expr
	for _, c := range n.Children {
		if e := b.lower(c); e != nil {
			items = append(items, e)
		}
	}
	return expr.NewBlock(items...)
}

func (b *builder) scoped(n *syntax.Node) expr.Expr {
	b.push()
	defer b.pop()
	var e expr.Expr
	if n.Kind == syntax.Content {
		e = b.block(n.Child(0))
	} else {
		e = b.block(n)
	}
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) lowerOpt(n *syntax.Node) expr.Expr {
	if n == nil {
		return nil
	}
	return b.lower(n)
}

func (b *builder) lower(n *syntax.Node) expr.Expr {
	switch n.Kind {
	case syntax.Markup:
		return b.block(n)
	case syntax.Code, syntax.Content:
		return b.scoped(n)
	case syntax.Strong, syntax.Emph, syntax.Heading:
		return b.element(n)
	case syntax.Label:
		return b.define(decl.Label(n.Text, n.Span()), ty.Lit(ty.KindLabel))
	case syntax.Ref:
		return b.contentRef(n)
	case syntax.Ident:
		return b.ident(n)
	case syntax.None:
		return expr.TypeOf(ty.NewValue(host.NoneValue{}))
	case syntax.Auto:
		return expr.TypeOf(ty.NewValue(host.AutoValue{}))
	case syntax.Bool:
		return expr.TypeOf(ty.BoolLit(n.Text == "true"))
	case syntax.Int, syntax.Float, syntax.Numeric:
		return expr.TypeOf(numeric(n))
	case syntax.Str:
		return expr.TypeOf(ty.NewValue(host.Str(n.Text)))
	case syntax.Array:
		return b.args(n, expr.ArgsArray, paramSite{})
	case syntax.Dict:
		return b.args(n, expr.ArgsDict, paramSite{})
	case syntax.Paren:
		return b.lowerOpt(n.Child(0))
	case syntax.Unary:
		return expr.NewUnary(unaryOp(n.Text), b.lowerOpt(n.Child(0)))
	case syntax.Binary:
		op, ok := expr.BinaryOpFromSymbol(n.Text)
		if !ok {
			return nil
		}
		return expr.NewBinary(op, b.lowerOpt(n.Child(0)), b.lowerOpt(n.Child(1)))
	case syntax.Field:
		return b.field(n)
	case syntax.Call:
		return b.call(n)
	case syntax.Closure:
		return b.closure(n, decl.Closure(n.Span()))
	case syntax.Let:
		return b.let(n)
	case syntax.Set:
		return b.set(n)
	case syntax.Show:
		return b.show(n)
	case syntax.Import:
		return b.importStmt(n)
	case syntax.Include:
		return b.include(n)
	case syntax.If:
		return expr.NewConditional(b.lowerOpt(n.Child(0)), b.lowerOpt(n.Child(1)), b.lowerOpt(n.Child(2)))
	case syntax.While:
		return expr.NewWhile(b.lowerOpt(n.Child(0)), b.lowerOpt(n.Child(1)))
	case syntax.For:
		return b.forLoop(n)
	case syntax.Contextual:
		return expr.NewContextual(b.lowerOpt(n.Child(0)))
	case syntax.Return:
		return expr.NewUnary(expr.OpReturn, b.lowerOpt(n.Child(0)))
	case syntax.Break:
		return expr.TypeOf(ty.Lit(ty.KindBreak))
	case syntax.Continue:
		return expr.TypeOf(ty.Lit(ty.KindContinue))
	}
	return nil
}

func unaryOp(text string) expr.UnaryOp {
	switch text {
	case "-":
		return expr.OpNeg
	case "not":
		return expr.OpNot
	}
	return expr.OpPos
}

var absoluteUnits = map[string]float64{"pt": 1, "mm": 72 / 25.4, "cm": 72 / 2.54, "in": 72}

func numeric(n *syntax.Node) ty.Ty {
	switch n.Kind {
	case syntax.Int:
		if v, err := strconv.ParseInt(n.Text, 10, 64); err == nil {
			return ty.NewValue(host.Int(v))
		}
	case syntax.Float:
		if v, err := strconv.ParseFloat(n.Text, 64); err == nil {
			return ty.NewValue(host.Float(v))
		}
		return ty.Lit(ty.KindFloat)
	}
	num := strings.TrimRightFunc(n.Text, func(r rune) bool { return r == '%' || (r >= 'a' && r <= 'z') })
	unit := n.Text[len(num):]
	if scale, ok := absoluteUnits[unit]; ok {
		if v, err := strconv.ParseFloat(num, 64); err == nil {
			return ty.NewValue(host.Length(v * scale))
		}
	}
	if unit == "%" {
		return ty.Lit(ty.KindFloat)
	}
	return ty.Lit(ty.KindLength)
}

func (b *builder) element(n *syntax.Node) expr.Expr {
	name := map[syntax.Kind]string{syntax.Strong: "strong", syntax.Emph: "emph", syntax.Heading: "heading"}[n.Kind]
	var elem host.Element
	if f, ok := host.Std().Func(name); ok {
		elem, _ = f.Element()
	}
	var content []expr.Expr
	if body := n.Child(0); body != nil {
		content = append(content, b.block(body))
	}
	return expr.NewElement(elem, content...)
}

func (b *builder) ident(n *syntax.Node) expr.Expr {
	d := decl.IdentRef(n.Text, n.Span())
	e, t, ok := b.lookup(n.Text)
	ref := expr.NewRef(d, nil, nil, nil)
	if ok {
		ref = expr.NewRef(d, e, rootOf(e), t)
	}
	b.resolves[n.Span()] = ref
	return ref
}

func (b *builder) contentRef(n *syntax.Node) expr.Expr {
	d := decl.ContentRef(n.Text, n.Span())
	label := b.labels[n.Text]
	var supplement expr.Expr
	if c := n.Child(0); c != nil {
		supplement = b.lower(c)
	}
	if label != nil {
		b.resolves[n.Span()] = expr.NewRef(d, expr.DeclOf(label), expr.DeclOf(label), nil)
	} else {
		b.resolves[n.Span()] = expr.NewRef(d, nil, nil, nil)
	}
	return expr.NewContentRef(d, label, supplement)
}

func (b *builder) field(n *syntax.Node) expr.Expr {
	lhs := b.lowerOpt(n.Child(0))
	key := n.Child(1)
	if key == nil || key.Kind != syntax.Ident {
		return lhs
	}
	kd := decl.IdentRef(key.Text, key.Span())
	if s := b.memberScope(lhs); s != nil {
		if e, t := b.scopeGet(s, key.Text); e != nil {
			b.resolves[key.Span()] = expr.NewRef(kd, e, rootOf(e), t)
		}
	}
	return expr.NewSelect(lhs, kd, n.Span())
}

// paramSite types named arguments of a call: either a host function or a
// function defined in the file.
type paramSite struct {
	fn  *host.Func
	sig *expr.PatternSig
}

func (b *builder) paramSite(callee expr.Expr) paramSite {
	switch r := b.target(callee).(type) {
	case *expr.Type:
		if v, ok := r.Ty.(*ty.Value); ok {
			if f, ok := v.Val().(*host.Func); ok {
				return paramSite{fn: f}
			}
		}
	case *expr.Decl:
		if sig, ok := b.funcs[r.Decl]; ok {
			return paramSite{sig: &sig}
		}
	}
	return paramSite{}
}

// resolve returns the reference of a named argument, or nil when the
// callee is unknown or has no such parameter.
func (s paramSite) resolve(d *decl.Decl, terms map[*decl.Decl]ty.Ty) *expr.Ref {
	switch {
	case s.fn != nil:
		p, ok := s.fn.Param(d.Name())
		if !ok {
			return nil
		}
		t := ty.FromParamSite(s.fn, p)
		site := expr.TypeOf(t)
		return expr.NewRef(d, site, site, t)
	case s.sig != nil:
		for _, np := range s.sig.Named {
			if np.Decl.Name() == d.Name() {
				def := expr.DeclOf(np.Decl)
				return expr.NewRef(d, def, def, terms[np.Decl])
			}
		}
	}
	return nil
}

func (b *builder) call(n *syntax.Node) expr.Expr {
	callee := b.lowerOpt(n.Child(0))
	args := b.args(n.Child(1), expr.ArgsCall, b.paramSite(callee))
	e := expr.NewApply(callee, args, n.Span())
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) args(n *syntax.Node, kind expr.ArgsKind, site paramSite) *expr.Args {
	if n == nil {
		return expr.NewArgs(kind, source.Detached())
	}
	var args []expr.Arg
	for _, c := range n.Children {
		switch c.Kind {
		case syntax.Named:
			args = append(args, b.namedArg(c, kind, site))
		case syntax.Spread:
			args = append(args, expr.SpreadArg(b.lowerOpt(c.Child(0))))
		case syntax.Error:
		default:
			args = append(args, expr.PosArg(b.lower(c)))
		}
	}
	return expr.NewArgs(kind, n.Span(), args...)
}

func (b *builder) namedArg(n *syntax.Node, kind expr.ArgsKind, site paramSite) expr.Arg {
	key, value := n.Child(0), b.lowerOpt(n.Child(1))
	switch {
	case key.Kind == syntax.Ident && kind == expr.ArgsDict:
		return expr.NamedArg(decl.StrName(key.Text, key.Span()), value)
	case key.Kind == syntax.Ident:
		d := decl.IdentRef(key.Text, key.Span())
		if ref := site.resolve(d, b.terms); ref != nil {
			b.resolves[key.Span()] = ref
		}
		return expr.NamedArg(d, value)
	case key.Kind == syntax.Str:
		return expr.NamedRtArg(expr.TypeOf(ty.NewValue(host.Str(key.Text))), value)
	}
	return expr.NamedRtArg(b.lower(key), value)
}

func (b *builder) closure(n *syntax.Node, d *decl.Decl) *expr.Func {
	params, body := n.Child(len(n.Children)-2), n.Child(len(n.Children)-1)
	b.push()
	defer b.pop()
	var sig expr.PatternSig
	if params != nil {
		sig = b.params(params)
	}
	b.funcs[d] = sig
	e := expr.NewFunc(d, sig, b.lowerOpt(body))
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) params(n *syntax.Node) expr.PatternSig {
	var sig expr.PatternSig
	for _, c := range n.Children {
		switch c.Kind {
		case syntax.Named:
			key := c.Child(0)
			if key.Kind != syntax.Ident {
				continue
			}
			def := b.lowerOpt(c.Child(1))
			d := decl.Var(key.Text, key.Span())
			b.define(d, b.termOf(def))
			b.bind(key.Text, expr.DeclOf(d))
			sig.Named = append(sig.Named, expr.NamedPattern{Decl: d, Pattern: expr.ExprPattern(def)})
		case syntax.Spread:
			np := b.spread(c)
			if len(sig.Pos) == 0 && len(sig.Named) == 0 {
				sig.SpreadLeft = np
			} else {
				sig.SpreadRight = np
			}
		case syntax.Error:
		default:
			sig.Pos = append(sig.Pos, b.pattern(c, nil))
		}
	}
	return sig
}

func (b *builder) spread(n *syntax.Node) *expr.NamedPattern {
	if c := n.Child(0); c != nil && c.Kind == syntax.Ident {
		d := decl.Var(c.Text, c.Span())
		b.define(d, nil)
		b.bind(c.Text, expr.DeclOf(d))
		return &expr.NamedPattern{Decl: d, Pattern: expr.SimplePattern(d)}
	}
	return &expr.NamedPattern{Decl: decl.Spread(n.Span())}
}

// pattern lowers a binding pattern and binds its names in the innermost
// scope. term types a simple binding.
func (b *builder) pattern(n *syntax.Node, term ty.Ty) *expr.Pattern {
	switch n.Kind {
	case syntax.Ident:
		d := decl.Var(n.Text, n.Span())
		b.bind(n.Text, b.define(d, term))
		return expr.SimplePattern(d)
	case syntax.Underscore:
		return expr.SimplePattern(decl.Pattern(n.Span()))
	case syntax.Destructuring:
		var sig expr.PatternSig
		for _, c := range n.Children {
			switch c.Kind {
			case syntax.Named:
				key := c.Child(0)
				sig.Named = append(sig.Named, expr.NamedPattern{
					Decl:    decl.StrName(key.Text, key.Span()),
					Pattern: b.pattern(c.Child(1), nil),
				})
			case syntax.Spread:
				np := b.spread(c)
				if len(sig.Pos) == 0 && len(sig.Named) == 0 {
					sig.SpreadLeft = np
				} else {
					sig.SpreadRight = np
				}
			default:
				sig.Pos = append(sig.Pos, b.pattern(c, nil))
			}
		}
		return expr.SigPattern(sig)
	}
	return expr.ExprPattern(b.lower(n))
}

func (b *builder) let(n *syntax.Node) expr.Expr {
	first := n.Child(0)
	if first == nil {
		return nil
	}
	if first.Kind == syntax.Closure && len(first.Children) == 3 && first.Child(0).Kind == syntax.Ident {
		name := first.Child(0)
		d := decl.Func(name.Text, name.Span())
		b.bind(name.Text, b.define(d, nil))
		fn := b.closure(first, d)
		b.attachDocs(d, n.Docs)
		e := expr.NewLet(n.Span(), expr.SimplePattern(d), fn)
		b.exprs[n.Span()] = e
		return e
	}

	body := b.lowerOpt(n.Child(1))
	pat := b.pattern(first, b.termOf(body))
	if pat.Of == expr.PatSimple {
		b.attachDocs(pat.Simple, n.Docs)
	}
	e := expr.NewLet(n.Span(), pat, body)
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) attachDocs(d *decl.Decl, text string) {
	if ds := parseDocString(text); !ds.IsEmpty() {
		b.docstrings[d] = ds
	}
}

func (b *builder) set(n *syntax.Node) expr.Expr {
	target := n.Child(0)
	cond := b.lowerOpt(n.Child(1))
	if target == nil {
		return nil
	}
	var e expr.Expr
	if target.Kind == syntax.Call {
		callee := b.lowerOpt(target.Child(0))
		args := b.args(target.Child(1), expr.ArgsCall, b.paramSite(callee))
		e = expr.NewSet(callee, args, cond)
	} else {
		e = expr.NewSet(b.lower(target), nil, cond)
	}
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) show(n *syntax.Node) expr.Expr {
	var selector, edit expr.Expr
	switch len(n.Children) {
	case 1:
		edit = b.lower(n.Child(0))
	case 2:
		selector = b.lower(n.Child(0))
		edit = b.lower(n.Child(1))
	}
	e := expr.NewShow(selector, edit)
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) forLoop(n *syntax.Node) expr.Expr {
	iter := b.lowerOpt(n.Child(1))
	b.push()
	defer b.pop()
	pat := b.pattern(n.Child(0), nil)
	e := expr.NewFor(pat, iter, b.lowerOpt(n.Child(2)))
	b.exprs[n.Span()] = e
	return e
}

func (b *builder) include(n *syntax.Node) expr.Expr {
	src := n.Child(0)
	if src == nil {
		return nil
	}
	if src.Kind != syntax.Str {
		return expr.NewInclude(b.lower(src))
	}
	d := decl.IncludePath(src.Text, src.Span())
	if b.resolver != nil {
		if _, ok := b.resolver.Resolve(b.fid, src.Text); !ok {
			b.log.Debug("unresolved include", "file", b.fid, "path", src.Text)
		}
	}
	return expr.NewInclude(b.define(d, ty.PathOf(ty.Path(ty.PathSource))))
}

func (b *builder) importStmt(n *syntax.Node) expr.Expr {
	src := n.Child(0)
	if src == nil {
		return nil
	}
	var alias, items *syntax.Node
	star := false
	for _, c := range n.Children[1:] {
		switch c.Kind {
		case syntax.ModuleAlias:
			alias = c
		case syntax.ImportItems:
			items = c
		case syntax.Star:
			star = true
		}
	}

	var (
		module expr.Expr
		term   ty.Ty
		scope  expr.ExprScope
		ref    *expr.Ref
	)
	if src.Kind == syntax.Str {
		var pathDecl *decl.Decl
		stem := decl.CalcPathStem(src.Text)
		if alias == nil && items == nil && !star && stem != "" {
			pathDecl = decl.PathStem(stem, src.Span())
		} else {
			pathDecl = decl.ImportPath(src.Text, src.Span())
		}
		module, term, scope = b.fileModule(src.Text, pathDecl)
		ref = expr.NewRef(pathDecl, module, rootOf(module), term)
		b.resolves[src.Span()] = ref
		if pathDecl.Tag() == decl.TagPathStem {
			b.bind(stem, ref)
		}
	} else {
		lowered := b.lower(src)
		module = b.target(lowered)
		term = b.termOf(lowered)
		scope = b.memberScope(lowered)
		ref = expr.NewRef(decl.ModuleImport(src.Span()), lowered, module, term)
	}

	if alias != nil {
		if name := alias.Child(0); name != nil && name.Kind == syntax.Ident {
			d := decl.ModuleAlias(name.Text, name.Span())
			aref := expr.NewRef(d, ref, rootOf(ref), term)
			b.resolves[name.Span()] = aref
			b.bind(name.Text, aref)
		}
	}

	if items != nil {
		for _, item := range items.Children {
			b.importItem(item, scope)
		}
	}
	if star {
		if scope == nil {
			b.log.Debug("star import of unknown module", "file", b.fid)
		} else {
			top := len(b.scopes) - 1
			b.scopes[top] = scope.MergeInto(b.scopes[top])
		}
	}

	e := expr.NewImport(ref)
	b.exprs[n.Span()] = e
	return e
}

// fileModule resolves an import path to the imported file's module
// declaration and exports. Unresolved paths fall back to the path
// declaration itself.
func (b *builder) fileModule(path string, pathDecl *decl.Decl) (expr.Expr, ty.Ty, expr.ExprScope) {
	if b.resolver == nil {
		return expr.DeclOf(pathDecl), nil, nil
	}
	fid, ok := b.resolver.Resolve(b.fid, path)
	if !ok {
		b.log.Debug("unresolved import", "file", b.fid, "path", path)
		return expr.DeclOf(pathDecl), nil, nil
	}
	md := decl.Module(decl.CalcPathStem(path), fid)
	term := ty.ModuleOf(md)
	exports, ok := b.resolver.Exports(fid)
	if !ok {
		b.log.Debug("import not analyzed yet", "file", b.fid, "target", fid)
		return expr.DeclOf(md), term, nil
	}
	b.imports[fid] = exports
	b.modules[md] = exports
	return expr.DeclOf(md), term, exports
}

func (b *builder) importItem(n *syntax.Node, scope expr.ExprScope) {
	resolve := func(name *syntax.Node) *expr.Ref {
		d := decl.Import(name.Text, name.Span())
		ref := expr.NewRef(d, nil, nil, nil)
		if e, t := b.scopeGet(scope, name.Text); e != nil {
			ref = expr.NewRef(d, e, rootOf(e), t)
		}
		b.resolves[name.Span()] = ref
		return ref
	}
	switch n.Kind {
	case syntax.Ident:
		b.bind(n.Text, resolve(n))
	case syntax.Renamed:
		orig, alias := n.Child(0), n.Child(1)
		if orig == nil || alias == nil || orig.Kind != syntax.Ident || alias.Kind != syntax.Ident {
			return
		}
		ref := resolve(orig)
		d := decl.ImportAlias(alias.Text, alias.Span())
		aref := expr.NewRef(d, ref, ref.Root, ref.Term)
		b.resolves[alias.Span()] = aref
		b.bind(alias.Text, aref)
	}
}
