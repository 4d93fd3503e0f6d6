package report

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/phobologic/typguide/internal/analysis"
	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/expr"
	"github.com/phobologic/typguide/internal/model"
	"github.com/phobologic/typguide/internal/source"
)

func analyze(t *testing.T, files [][2]string) []Input {
	t.Helper()
	reg := source.NewRegistry()
	a := analysis.New(reg, nil)
	var inputs []Input
	for _, f := range files {
		fid := reg.File(f[0])
		if _, err := a.Update(fid, f[1]); err != nil {
			t.Fatalf("Update(%s): %v", f[0], err)
		}
	}
	for _, f := range files {
		info, err := a.Analyze(reg.File(f[0]))
		if err != nil {
			t.Fatalf("Analyze(%s): %v", f[0], err)
		}
		inputs = append(inputs, Input{Info: info, Language: "typst"})
	}
	return inputs
}

func TestFiles(t *testing.T) {
	t.Parallel()
	files := Files(analyze(t, [][2]string{
		{"/lib.typ", "/// The library.\n\n/// Adds one.\n#let helper(x) = x + 1\n#let gap = 12pt\n"},
		{"/main.typ", "#import \"lib.typ\": helper\n= Intro <intro>\n#helper(1)\nSee @intro.\n"},
	}))

	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	lib, main := files[0], files[1]
	if lib.Path != "lib.typ" || main.Path != "main.typ" {
		t.Errorf("paths = %q, %q; want input order", lib.Path, main.Path)
	}
	if lib.Language != "typst" || lib.Revision != 1 {
		t.Errorf("lib = %s rev %d, want typst rev 1", lib.Language, lib.Revision)
	}
	if lib.Docs != "The library." {
		t.Errorf("lib docs = %q", lib.Docs)
	}

	tests := []struct {
		file string
		got  []model.Symbol
		want []model.Symbol
	}{
		{
			"lib.typ",
			lib.Symbols,
			[]model.Symbol{
				{Name: "helper", Kind: model.Function, Line: 4, Signature: "helper(x)", Docs: "Adds one.", Exported: true, Refs: 2},
				{Name: "gap", Kind: model.Variable, Line: 5, Exported: true},
			},
		},
		{
			"main.typ",
			main.Symbols,
			[]model.Symbol{
				{Name: "intro", Kind: model.Reference, Line: 2, Refs: 1},
			},
		},
	}
	for _, tt := range tests {
		if len(tt.got) != len(tt.want) {
			t.Errorf("%s: got %d symbols %+v, want %d", tt.file, len(tt.got), tt.got, len(tt.want))
			continue
		}
		for i, want := range tt.want {
			got := tt.got[i]
			// Types depend on value rendering and are covered elsewhere.
			got.Type = ""
			if got != want {
				t.Errorf("%s symbol %d = %+v, want %+v", tt.file, i, got, want)
			}
		}
	}

	for _, want := range []model.Use{
		{Name: "helper", Line: 1, Target: "lib.typ"},
		{Name: "helper", Line: 3, Target: "lib.typ"},
	} {
		if !slices.Contains(main.Uses, want) {
			t.Errorf("main uses %+v, missing %+v", main.Uses, want)
		}
	}
	if len(lib.Uses) != 0 {
		t.Errorf("lib uses = %+v, want none", lib.Uses)
	}
	if !slices.Equal(main.Imports, []string{"lib.typ"}) {
		t.Errorf("main imports = %v", main.Imports)
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()
	f := source.NewRegistry().File("/sig.typ")
	at := func(n uint64) source.Span { return source.NewSpan(f, n) }
	x := expr.SimplePattern(decl.Var("x", at(2)))
	gap := decl.Var("gap", at(3))

	tests := []struct {
		name string
		sig  expr.PatternSig
		want string
	}{
		{"empty", expr.PatternSig{}, "f()"},
		{"positional", expr.PatternSig{Pos: []*expr.Pattern{x}}, "f(x)"},
		{
			"named default",
			expr.PatternSig{
				Pos:   []*expr.Pattern{x},
				Named: []expr.NamedPattern{{Decl: decl.Var("size", at(4)), Pattern: expr.ExprPattern(expr.DeclOf(gap))}},
			},
			"f(x, size: gap)",
		},
		{
			"spreads",
			expr.PatternSig{
				SpreadLeft:  &expr.NamedPattern{Decl: decl.Var("head", at(5))},
				Pos:         []*expr.Pattern{x},
				SpreadRight: &expr.NamedPattern{Decl: decl.Var("rest", at(6))},
			},
			"f(..head, x, ..rest)",
		},
		{"placeholder", expr.PatternSig{Pos: []*expr.Pattern{expr.SimplePattern(decl.Pattern(at(7)))}}, "f(_)"},
		{
			"destructuring",
			expr.PatternSig{Pos: []*expr.Pattern{expr.SigPattern(expr.PatternSig{Pos: []*expr.Pattern{x, expr.SimplePattern(gap)}})}},
			"f((x, gap))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Signature("f", tt.sig); got != tt.want {
				t.Errorf("Signature = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()
	reg := source.NewRegistry()
	pkg := source.PackageSpec{Namespace: "preview", Name: "cetz", Version: "0.2.0"}

	tests := []struct {
		fid  source.FileID
		want string
	}{
		{reg.File("/main.typ"), "main.typ"},
		{reg.File("/chapters/intro.typ"), "chapters/intro.typ"},
		{reg.PackageFile(pkg, "/lib.typ"), "@preview/cetz:0.2.0/lib.typ"},
	}
	for _, tt := range tests {
		if got := Path(tt.fid); got != tt.want {
			t.Errorf("Path(%v) = %q, want %q", tt.fid, got, tt.want)
		}
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()
	ws := &model.Workspace{
		Name: "demo",
		Root: "demo",
		Files: []model.FileInfo{{
			Path:     "lib.typ",
			Language: "typst",
			Revision: 1,
			Symbols:  []model.Symbol{{Name: "helper", Kind: model.Function, Line: 2, Exported: true, Refs: 3}},
		}},
		Dependencies: []model.Dependency{{Source: "main.typ", Target: "lib.typ", Symbols: []string{"helper"}}},
	}

	var buf bytes.Buffer
	if err := JSON(&buf, ws); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "}\n") {
		t.Errorf("output should end with a newline:\n%s", out)
	}
	if strings.Contains(out, `"references"`) {
		t.Errorf("empty references should be omitted:\n%s", out)
	}

	var got model.Workspace
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decoding: %v\n%s", err, out)
	}
	if got.Name != "demo" || len(got.Files) != 1 || len(got.Dependencies) != 1 {
		t.Fatalf("decoded %+v", got)
	}
	if s := got.Files[0].Symbols[0]; s != ws.Files[0].Symbols[0] {
		t.Errorf("symbol = %+v, want %+v", s, ws.Files[0].Symbols[0])
	}
	if !slices.Equal(got.Dependencies[0].Symbols, []string{"helper"}) {
		t.Errorf("dependency symbols = %v", got.Dependencies[0].Symbols)
	}
}
