package analysis

import (
	"testing"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/syntax"
	"github.com/phobologic/typguide/internal/ty"
)

type built struct {
	info *expr.ExprInfo
	root *syntax.Node
}

func build(t *testing.T, reg *source.Registry, vpath, text string, r Resolver) built {
	t.Helper()
	root := syntax.Parse(text)
	src, err := syntax.Number(root, reg.File(vpath), text)
	if err != nil {
		t.Fatalf("Number(%s): %v", vpath, err)
	}
	return built{info: Build(src, root, 1, r, nil), root: root}
}

// nth returns the n-th node (0-based, in tree order) of kind k with text.
func (b built) nth(t *testing.T, k syntax.Kind, text string, n int) *syntax.Node {
	t.Helper()
	var found *syntax.Node
	b.root.Walk(func(node *syntax.Node) bool {
		if found != nil {
			return false
		}
		if node.Kind == k && node.Text == text {
			if n == 0 {
				found = node
				return false
			}
			n--
		}
		return true
	})
	if found == nil {
		t.Fatalf("no %s %q in %s", k, text, b.root)
	}
	return found
}

func (b built) resolve(t *testing.T, n *syntax.Node) *expr.Ref {
	t.Helper()
	ref, ok := b.info.Resolves[n.Span()]
	if !ok {
		t.Fatalf("%s %q at %d is not resolved", n.Kind, n.Text, n.Start)
	}
	return ref
}

func TestBuildResolvesLocalNames(t *testing.T) {
	t.Parallel()
	reg := source.NewRegistry()

	tests := []struct {
		name string
		text string
		// use is the n-th identifier named ident; def is the identifier it
		// should resolve to, or -1 when it must stay unresolved.
		ident string
		use   int
		def   int
		tag   decl.Tag
	}{
		{"let binding", "#let x = 1\n#let y = x", "x", 1, 0, decl.TagVar},
		{"function", "#let f(a) = a\n#f(1)", "f", 1, 0, decl.TagFunc},
		{"recursion", "#let f(n) = f(n)", "f", 1, 0, decl.TagFunc},
		{"parameter shadows", "#let x = 1\n#let g(x) = x", "x", 2, 1, decl.TagVar},
		{"block scope ends", "#{ let z = 1 }\n#let w = z", "z", 1, -1, 0},
		{"destructuring", "#let (a, b) = (1, 2)\n#let c = b", "b", 1, 0, decl.TagVar},
		{"for binding", "#for i in (1, 2) { i }", "i", 1, 0, decl.TagVar},
		{"unknown", "#let y = nope", "nope", 0, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := build(t, reg, "/"+tt.name+".typ", tt.text, nil)
			ref := b.resolve(t, b.nth(t, syntax.Ident, tt.ident, tt.use))
			if ref.Decl.Tag() != decl.TagIdentRef {
				t.Errorf("use decl tag = %v, want IdentRef", ref.Decl.Tag())
			}
			if tt.def < 0 {
				if ref.Root != nil {
					t.Errorf("Root = %v, want unresolved", ref.Root)
				}
				return
			}
			def := b.nth(t, syntax.Ident, tt.ident, tt.def)
			root, ok := ref.Root.(*expr.Decl)
			if !ok {
				t.Fatalf("Root = %T, want *expr.Decl", ref.Root)
			}
			if root.Decl.Span() != def.Span() || root.Decl.Tag() != tt.tag {
				t.Errorf("Root = %v, want %v defined at %d", root.Decl, tt.tag, def.Start)
			}
		})
	}
}

func TestBuildStdLookup(t *testing.T) {
	t.Parallel()
	b := build(t, source.NewRegistry(), "/main.typ", "#let t = text", nil)
	ref := b.resolve(t, b.nth(t, syntax.Ident, "text", 0))
	if _, ok := ref.Root.(*expr.Type); !ok {
		t.Fatalf("Root = %T, want *expr.Type", ref.Root)
	}
	if ref.Term == nil {
		t.Error("std function has no term")
	}
}

func TestBuildNamedArguments(t *testing.T) {
	t.Parallel()
	reg := source.NewRegistry()

	t.Run("host parameter", func(t *testing.T) {
		t.Parallel()
		b := build(t, reg, "/host.typ", "#set text(size: 12pt)", nil)
		ref := b.resolve(t, b.nth(t, syntax.Ident, "size", 0))
		if ref.Term == nil || ref.Term.String() != ty.Lit(ty.KindTextSize).String() {
			t.Errorf("size term = %v, want %v", ref.Term, ty.Lit(ty.KindTextSize))
		}
	})

	t.Run("user parameter", func(t *testing.T) {
		t.Parallel()
		b := build(t, reg, "/user.typ", "#let f(a, b: 2) = a + b\n#f(1, b: 3)", nil)
		def := b.nth(t, syntax.Ident, "b", 0)
		arg := b.nth(t, syntax.Ident, "b", 2)
		ref := b.resolve(t, arg)
		if root, ok := ref.Root.(*expr.Decl); !ok || root.Decl.Span() != def.Span() {
			t.Errorf("b: Root = %v, want parameter at %d", ref.Root, def.Start)
		}
	})

	t.Run("dict keys are not references", func(t *testing.T) {
		t.Parallel()
		b := build(t, reg, "/dict.typ", "#let d = (k: 1)", nil)
		if _, ok := b.info.Resolves[b.nth(t, syntax.Ident, "k", 0).Span()]; ok {
			t.Error("dict key should not be resolved")
		}
	})
}

func TestBuildLabels(t *testing.T) {
	t.Parallel()
	b := build(t, source.NewRegistry(), "/main.typ", "= Intro <intro>\nSee @intro and @intro.", nil)

	labelNode := b.nth(t, syntax.Label, "intro", 0)
	label := decl.Label("intro", labelNode.Span())
	var spans []source.Span
	for span := range b.info.GetRefs(label) {
		spans = append(spans, span)
	}
	if len(spans) != 3 {
		t.Fatalf("GetRefs(label) = %d spans, want label plus two references", len(spans))
	}
	if spans[0] != labelNode.Span() {
		t.Errorf("first reference should be the label itself")
	}

	// A content reference only finds itself.
	refNode := b.nth(t, syntax.Ref, "intro", 0)
	cr := decl.ContentRef("intro", refNode.Span())
	n := 0
	for range b.info.GetRefs(cr) {
		n++
	}
	if n != 1 {
		t.Errorf("GetRefs(content ref) = %d, want 1", n)
	}
	if ref := b.resolve(t, refNode); ref.Root == nil {
		t.Error("content reference is not resolved to its label")
	}
}

func TestBuildExports(t *testing.T) {
	t.Parallel()
	b := build(t, source.NewRegistry(), "/main.typ", "#let a = 1\n#let f(x) = x\n#{ let hidden = 2 }", nil)

	tests := []struct {
		d    *decl.Decl
		want bool
	}{
		{decl.Var("a", b.nth(t, syntax.Ident, "a", 0).Span()), true},
		{decl.Func("f", b.nth(t, syntax.Ident, "f", 0).Span()), true},
		{decl.Var("x", b.nth(t, syntax.Ident, "x", 0).Span()), false},
		{decl.Var("hidden", b.nth(t, syntax.Ident, "hidden", 0).Span()), false},
	}
	for _, tt := range tests {
		if got := b.info.IsExported(tt.d); got != tt.want {
			t.Errorf("IsExported(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestBuildStepChainsTerminate(t *testing.T) {
	t.Parallel()
	text := "#let a = 1\n#let b = a\n#let f(x) = x + b\n#f(a)\n#{ let c = f; c(2) }\n= Top <top>\n@top\n#rect(fill: red)"
	b := build(t, source.NewRegistry(), "/chain.typ", text, nil)
	if len(b.info.Resolves) == 0 {
		t.Fatal("nothing resolved")
	}

	for span, ref := range b.info.Resolves {
		var e expr.Expr = ref
		for hops := 0; ; hops++ {
			if hops > len(b.info.Resolves) {
				t.Fatalf("step chain from %v (span %v) does not terminate", ref.Decl, span)
			}
			next, ok := e.(*expr.Ref)
			if !ok || next.Step == nil {
				break
			}
			if _, isRef := next.Root.(*expr.Ref); isRef {
				t.Errorf("%v: Root is itself a reference", next.Decl)
			}
			e = next.Step
		}
	}
}

type fakeResolver struct {
	files   map[string]source.FileID
	exports map[source.FileID]expr.LexicalScope
}

func (r fakeResolver) Resolve(_ source.FileID, p string) (source.FileID, bool) {
	fid, ok := r.files[p]
	return fid, ok
}

func (r fakeResolver) Exports(fid source.FileID) (expr.LexicalScope, bool) {
	s, ok := r.exports[fid]
	return s, ok
}

func TestBuildImports(t *testing.T) {
	t.Parallel()
	reg := source.NewRegistry()
	lib := build(t, reg, "/lib.typ", "#let helper(x) = x\n#let other = 1", nil)
	libID := reg.File("/lib.typ")
	helperDef := decl.Func("helper", lib.nth(t, syntax.Ident, "helper", 0).Span())
	r := fakeResolver{
		files:   map[string]source.FileID{"lib.typ": libID},
		exports: map[source.FileID]expr.LexicalScope{libID: lib.info.Exports},
	}

	tests := []struct {
		name  string
		text  string
		ident string
		use   int
	}{
		{"item", "#import \"lib.typ\": helper\n#helper(1)", "helper", 1},
		{"renamed", "#import \"lib.typ\": helper as h\n#h(1)", "h", 1},
		{"star", "#import \"lib.typ\": *\n#helper(1)", "helper", 0},
		{"alias field", "#import \"lib.typ\" as m\n#m.helper(1)", "helper", 0},
		{"stem field", "#import \"lib.typ\"\n#lib.helper(1)", "helper", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := build(t, reg, "/"+tt.name+".typ", tt.text, r)
			ref := b.resolve(t, b.nth(t, syntax.Ident, tt.ident, tt.use))
			if root, ok := ref.Root.(*expr.Decl); !ok || root.Decl != helperDef {
				t.Errorf("Root = %v, want %v", ref.Root, helperDef)
			}
			if _, ok := b.info.Imports[libID]; !ok {
				t.Error("lib.typ missing from Imports")
			}
			n := 0
			for range b.info.GetRefs(helperDef) {
				n++
			}
			if n == 0 {
				t.Error("GetRefs(helper) found nothing in the importing file")
			}
		})
	}

	t.Run("unresolved", func(t *testing.T) {
		t.Parallel()
		b := build(t, reg, "/missing.typ", "#import \"gone.typ\": x\n#x", r)
		ref := b.resolve(t, b.nth(t, syntax.Ident, "x", 1))
		if ref.Root != nil {
			t.Errorf("Root = %v, want unresolved", ref.Root)
		}
	})
}

func TestBuildDocstrings(t *testing.T) {
	t.Parallel()
	text := "/// A module.\n\n/// Adds one.\n/// - x (int): the value\n///   to increment\n/// -> int\n#let inc(x) = x + 1\n"
	b := build(t, source.NewRegistry(), "/main.typ", text, nil)

	if b.info.ModuleDocstring == nil || b.info.ModuleDocstring.Docs != "A module." {
		t.Errorf("ModuleDocstring = %+v, want %q", b.info.ModuleDocstring, "A module.")
	}
	inc := decl.Func("inc", b.nth(t, syntax.Ident, "inc", 0).Span())
	ds, ok := b.info.Docstrings[inc]
	if !ok {
		t.Fatal("inc has no docstring")
	}
	if ds.Docs != "Adds one." {
		t.Errorf("Docs = %q, want %q", ds.Docs, "Adds one.")
	}
	if v := ds.Vars["x"]; v.Docs != "the value to increment" || v.Ty == nil {
		t.Errorf("Vars[x] = %+v", v)
	}
	if ds.Res == nil {
		t.Error("Res is nil")
	}
}

func TestParseDocType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantNil bool
	}{
		{"int", false},
		{"int | none", false},
		{"str, auto", false},
		{"no-such-type", true},
		{"", true},
	}
	for _, tt := range tests {
		if got := parseDocType(tt.in); (got == nil) != tt.wantNil {
			t.Errorf("parseDocType(%q) = %v, want nil %v", tt.in, got, tt.wantNil)
		}
	}
}

func TestBuildRecordsScopedExprs(t *testing.T) {
	t.Parallel()
	b := build(t, source.NewRegistry(), "/main.typ", "#let f(x) = x\n#f(1)", nil)
	call := b.root.Find(syntax.Call)
	if _, ok := b.info.Exprs[call.Span()].(*expr.Apply); !ok {
		t.Errorf("Exprs[call] = %T, want *expr.Apply", b.info.Exprs[call.Span()])
	}
	if b.info.Root == nil {
		t.Error("Root is nil")
	}
}
