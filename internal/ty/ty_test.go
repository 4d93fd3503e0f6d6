package ty

import (
	"sync"
	"testing"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/source"
)

func TestPathFromExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want PathKind
		ok   bool
	}{
		{"a.png", PathImage, true},
		{"a.PNG", PathImage, true},
		{"TEST.PNG", PathImage, true},
		{"x.csv", PathCsv, true},
		{"main.typ", PathSource, true},
		{"lib.TYPC", PathSource, true},
		{"plugin.wasm", PathWasm, true},
		{"data.json5", PathJSON, true},
		{"refs.yml", PathYAML, true},
		{"refs.bib", PathBibliography, true},
		{"theme.tmTheme", PathRawTheme, true},
		{"theme.TMTHEME", PathRawTheme, true},
		{"lang.sublime-syntax", PathRawSyntax, true},
		{"style.csl", PathCsl, true},
		{"feed.xml", PathXML, true},
		{"x.unknown", PathNone, true},
		{"dir/archive.tar.gz", PathNone, true},
		{"trailing.", PathNone, true},
		{"noext", 0, false},
		{".hidden", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := PathFromExt(tt.path)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Kind != tt.want {
				t.Errorf("kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestPathIsMatch(t *testing.T) {
	t.Parallel()

	if !Path(PathSpecial).IsMatch("a.tmLanguage") {
		t.Error("special should match every concrete extension")
	}
	if Path(PathSpecial).IsMatch("a.exe") {
		t.Error("special should not match unknown extensions")
	}
	if !Path(PathBibliography).IsMatch("refs.yaml") || !Path(PathYAML).IsMatch("refs.yaml") {
		t.Error("yaml belongs to both yaml and bibliography")
	}
	if Path(PathNone).IsMatch("Makefile") {
		t.Error("paths without an extension never match")
	}
}

func TestUnionFlattening(t *testing.T) {
	t.Parallel()

	a, b, c := host.Of(host.TypeStr), host.Of(host.TypeInt), host.Is(host.NoneValue{}, "")
	got := FromCastInfo(host.OneOf(host.OneOf(a, b), c))

	u, ok := got.(*Union)
	if !ok {
		t.Fatalf("got %T, want *Union", got)
	}
	if len(u.Types()) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(u.Types()), u)
	}
	for _, alt := range u.Types() {
		if _, nested := alt.(*Union); nested {
			t.Errorf("nested union %v", alt)
		}
	}

	deep := host.OneOf(host.OneOf(host.OneOf(host.OneOf(a)), b), host.OneOf(c, a))
	if FromCastInfo(deep) != got {
		t.Error("deep nesting should canonicalize to the same union")
	}
}

func TestUnionCanonical(t *testing.T) {
	t.Parallel()

	x := NewUnion(Lit(KindColor), Lit(KindLength), Lit(KindColor))
	y := NewUnion(Lit(KindLength), Lit(KindColor))
	if x != y {
		t.Errorf("%v != %v", x, y)
	}
	if got := NewUnion(); got != (Never{}) {
		t.Errorf("empty union = %v", got)
	}
	if got := NewUnion(Lit(KindDir)); got != Lit(KindDir) {
		t.Errorf("single union = %v", got)
	}
	if got := NewUnion(x, Lit(KindDir)); len(got.(*Union).Types()) != 3 {
		t.Errorf("union of union = %v", got)
	}
}

func TestFromCastInfoLeaves(t *testing.T) {
	t.Parallel()

	if got := FromCastInfo(host.Any()); got != (Any{}) {
		t.Errorf("any = %v", got)
	}
	if got := FromCastInfo(host.Of(host.TypeStr)); got != TypeOf(host.TypeStr) {
		t.Errorf("type = %v", got)
	}
	v := FromCastInfo(host.Is(host.Str("dotted"), "a dotted line"))
	if vv, ok := v.(*Value); !ok || vv.Doc() != "a dotted line" || vv.Val() != host.Str("dotted") {
		t.Errorf("value = %v", v)
	}
}

func TestParamMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fn, param string
		want      Ty
	}{
		{"csv", "path", PathOf(Path(PathCsv))},
		{"csv", "source", PathOf(Path(PathCsv))},
		{"image", "source", PathOf(Path(PathImage))},
		{"plugin", "source", PathOf(Path(PathWasm))},
		{"raw", "theme", PathOf(Path(PathRawTheme))},
		{"cite", "key", Lit(KindCiteLabel)},
		{"rect", "fill", Lit(KindColor)},
		{"regular", "stroke", Lit(KindStroke)},
		{"page", "margin", Lit(KindMargin)},
		{"text", "dir", Lit(KindDir)},
		{"stroke", "dash", StrokeDash()},
		{"text", "feature", textFeature()},
	}
	for _, tt := range tests {
		t.Run(tt.fn+"."+tt.param, func(t *testing.T) {
			t.Parallel()
			got, ok := ParamMapping(tt.fn, host.ParamInfo{Name: tt.param})
			if !ok {
				t.Fatal("no mapping")
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	for _, miss := range [][2]string{{"unknown_fn", "path"}, {"csv", "delimiter"}, {"plugin", "path"}, {"text", "features"}} {
		if got, ok := ParamMapping(miss[0], host.ParamInfo{Name: miss[1]}); ok {
			t.Errorf("%s.%s mapped to %v", miss[0], miss[1], got)
		}
	}
}

func TestParamMappingUnionsWithCastInfo(t *testing.T) {
	t.Parallel()

	p := host.ParamInfo{Name: "style", Input: host.OneOf(host.Of(host.TypeStr), host.Of(host.TypeBytes))}
	got, ok := ParamMapping("bibliography", p)
	if !ok {
		t.Fatal("no mapping")
	}
	want := NewUnion(PathOf(Path(PathCsl)), TypeOf(host.TypeStr), TypeOf(host.TypeBytes))
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLazyShapesBuiltOnce(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	results := make([]Ty, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = ParamMapping("link", host.ParamInfo{Name: "dest"})
		}()
	}
	wg.Wait()
	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("lazy constant rebuilt")
		}
	}
	if StrokeDict() != StrokeDict() {
		t.Error("stroke dict rebuilt")
	}
	if _, ok := StrokeDict().Field("miter-limit"); !ok {
		t.Error("stroke dict lacks miter-limit")
	}
	if len(RadiusDict().Fields()) != 9 || len(InsetDict().Fields()) != 7 || len(MarginDict().Fields()) != 9 {
		t.Error("unexpected side dictionary sizes")
	}
	if r, ok := Lit(KindOutset).Record(); !ok || r != OutsetDict() {
		t.Error("outset record mismatch")
	}
}

func TestFromParamSite(t *testing.T) {
	t.Parallel()

	lib := host.Std()
	csv, _ := lib.Func("csv")
	src, _ := csv.Param("source")
	if got := FromParamSite(csv, src); got != PathOf(Path(PathCsv)) {
		t.Errorf("csv.source = %v", got)
	}
	if got := FromParamSite(csv.With(), src); got != PathOf(Path(PathCsv)) {
		t.Errorf("with(csv).source = %v", got)
	}

	// Closures never consult the override table, whatever their name.
	closure := host.NewClosure("csv", []host.ParamInfo{{Name: "source", Input: host.Of(host.TypeStr)}})
	p, _ := closure.Param("source")
	if got := FromParamSite(closure, p); got != TypeOf(host.TypeStr) {
		t.Errorf("closure.source = %v", got)
	}

	heading, _ := lib.Func("heading")
	lvl, _ := heading.Param("level")
	if got := FromParamSite(heading, lvl); got != NewUnion(NewValue(host.AutoValue{}), TypeOf(host.TypeInt)) {
		t.Errorf("heading.level = %v", got)
	}
}

func TestFromReturnSite(t *testing.T) {
	t.Parallel()

	lib := host.Std()
	image, _ := lib.Func("image")
	elem, _ := image.Element()
	if got := FromReturnSite(image, image.Returns()); got != ContentOf(elem) {
		t.Errorf("image returns %v", got)
	}
	if got := FromReturnSite(image.With(), host.Any()); got != ContentOf(elem) {
		t.Errorf("with(image) returns %v", got)
	}
	pow, _ := lib.Func("calc.pow")
	if got := FromReturnSite(pow, pow.Returns()); got != NewUnion(TypeOf(host.TypeInt), TypeOf(host.TypeFloat)) {
		t.Errorf("pow returns %v", got)
	}
}

func TestFromBuiltin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   host.Type
		want Ty
	}{
		{host.TypeAuto, Lit(KindAuto)},
		{host.TypeNone, Lit(KindNone)},
		{host.TypeColor, Lit(KindColor)},
		{host.TypeBool, Bool()},
		{host.TypeFloat, Lit(KindFloat)},
		{host.TypeLength, Lit(KindLength)},
		{host.TypeContent, ContentOf(host.Element{})},
		{host.TypeStr, TypeOf(host.TypeStr)},
	}
	for _, tt := range tests {
		if got := FromBuiltin(tt.in); got != tt.want {
			t.Errorf("FromBuiltin(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := BuiltinFromValue(host.Bool(true)); got != BoolLit(true) {
		t.Errorf("true = %v", got)
	}
	if got := BuiltinFromValue(host.Int(3)); got != TypeOf(host.TypeInt) {
		t.Errorf("3 = %v", got)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	mod := decl.Module("utils", source.NewRegistry().File("utils.typ"))
	pkg := PackageID{Namespace: "preview", Name: "cetz"}
	tests := []struct {
		in   Ty
		want string
	}{
		{PathOf(Path(PathImage)), "[image]"},
		{PathOf(Path(PathBibliography)), "[bib]"},
		{PathOf(Path(PathRawTheme)), "[theme]"},
		{PathOf(Path(PathSpecial)), "[any]"},
		{PathOf(Path(PathNone)), "[any]"},
		{PathOf(PathPreference{Kind: PathSource, AllowPackage: true}), "[source]"},
		{ModuleOf(mod), "module(utils)"},
		{ContentOf(host.Element{}), "content"},
		{Lit(KindSpace), "content"},
		{Lit(KindFlowNone), "none"},
		{Lit(KindClause), "any"},
		{Lit(KindArgs), "arguments"},
		{Lit(KindTextSize), "text.size"},
		{Lit(KindRefLabel), "ref-label"},
		{TypeTypeOf(host.TypeStr), "type"},
		{TypeOf(host.TypeStr), "str"},
		{TagOf("marker", nil), "tag marker"},
		{TagOf("marker", &pkg), "tag marker of @preview/cetz"},
		{NewArray(Lit(KindLength)), "array<length>"},
		{NewUnion(Lit(KindAuto), Lit(KindLength)), "auto | length"},
		{NewSelect(TypeOf(host.TypeStr), "len"), "str.len"},
		{BoolLit(false), "false"},
	}
	for _, tt := range tests {
		if got := Describe(tt.in); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	image, _ := host.Std().Func("image")
	elem, _ := image.Element()
	if got := Describe(ContentOf(elem)); got != "content(image)" {
		t.Errorf("content(image) = %q", got)
	}
}

func TestSigOf(t *testing.T) {
	t.Parallel()

	rect, _ := host.Std().Func("rect")
	sig := SigOf(rect)
	if len(sig.Inputs()) != 1 {
		t.Errorf("inputs = %v", sig.Inputs())
	}
	var fill Ty
	for _, f := range sig.Named() {
		if f.Name == "fill" {
			fill = f.Ty
		}
	}
	if fill != Lit(KindColor) {
		t.Errorf("fill = %v", fill)
	}
	if sig != SigOf(rect) {
		t.Error("signatures should be interned")
	}
}

func TestTypeVarIdentity(t *testing.T) {
	t.Parallel()

	u := NewTypeVar("u", decl.Lit("u"))
	v := NewTypeVar("v", decl.Lit("v"))
	mapper := NewSig([]Ty{u}, nil, nil, v)
	mapFn := NewSig([]Ty{mapper}, nil, nil, v)
	if mapFn.Inputs()[0] != mapper {
		t.Error("nested signature lost identity")
	}
	if NewTypeVar("u", decl.Lit("u")) != u {
		t.Error("type variables should be interned")
	}
	if Compare(u, v) >= 0 {
		t.Error("type variables order by name")
	}
}
