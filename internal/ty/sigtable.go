package ty

import (
	"sync"

	"github.com/phobologic/typguide/internal/host"
)

func str(s string) Ty { return NewValue(host.Str(s)) }

func path(k PathKind) Ty { return PathOf(Path(k)) }

func lengths() Ty { return Lit(KindLength) }

// Shared shapes of the override table. Each is built once on first use.
var (
	dotOrFloat = sync.OnceValue(func() Ty { return NewUnion(str("dot"), Lit(KindFloat)) })

	StrokeDash = sync.OnceValue(func() Ty {
		dashes := []Ty{
			str("solid"),
			str("dotted"),
			str("densely-dotted"),
			str("loosely-dotted"),
			str("dashed"),
			str("densely-dashed"),
			str("loosely-dashed"),
			str("dash-dotted"),
			str("densely-dash-dotted"),
			str("loosely-dash-dotted"),
			NewArray(dotOrFloat()),
			NewRecord(
				Field{"array", NewArray(dotOrFloat())},
				Field{"phase", lengths()},
			),
		}
		return NewUnion(dashes...)
	})

	StrokeDict = sync.OnceValue(func() *Record {
		return NewRecord(
			Field{"paint", Lit(KindColor)},
			Field{"thickness", lengths()},
			Field{"cap", NewUnion(str("butt"), str("round"), str("square"))},
			Field{"join", NewUnion(str("miter"), str("round"), str("bevel"))},
			Field{"dash", StrokeDash()},
			Field{"miter-limit", Lit(KindFloat)},
		)
	})

	MarginDict = sync.OnceValue(func() *Record {
		return sides("top", "right", "bottom", "left", "inside", "outside", "x", "y", "rest")
	})

	InsetDict = sync.OnceValue(func() *Record {
		return sides("top", "right", "bottom", "left", "x", "y", "rest")
	})

	OutsetDict = sync.OnceValue(func() *Record {
		return sides("top", "right", "bottom", "left", "x", "y", "rest")
	})

	RadiusDict = sync.OnceValue(func() *Record {
		return sides("top", "right", "bottom", "left", "top-left", "top-right", "bottom-left", "bottom-right", "rest")
	})

	TextFontDict = sync.OnceValue(func() *Record {
		return NewRecord(
			Field{"name", Lit(KindTextFont)},
			Field{"covers", NewUnion(str("latin-in-cjk"), TypeOf(host.TypeRegex))},
		)
	})

	linkDest = sync.OnceValue(func() Ty {
		return NewUnion(
			Lit(KindRefLabel),
			TypeOf(host.TypeStr),
			TypeOf(host.TypeLocation),
			NewRecord(Field{"x", lengths()}, Field{"y", lengths()}),
		)
	})

	bibPath = sync.OnceValue(func() Ty {
		p := path(PathBibliography)
		return NewUnion(p, NewArray(p))
	})

	textFont = sync.OnceValue(func() Ty {
		return NewUnion(Lit(KindTextFont), NewArray(Lit(KindTextFont)))
	})

	textFeature = sync.OnceValue(func() Ty {
		return NewUnion(TypeOf(host.TypeDict), NewArray(Lit(KindTextFeature)))
	})

	textCosts = sync.OnceValue(func() Ty {
		ratio := TypeOf(host.TypeRatio)
		return NewRecord(
			Field{"hyphenation", ratio},
			Field{"runt", ratio},
			Field{"widow", ratio},
			Field{"orphan", ratio},
		)
	})

	firstLineIndent = sync.OnceValue(func() Ty {
		return NewUnion(lengths(), NewRecord(Field{"amount", lengths()}, Field{"all", Bool()}))
	})

	trackSizes = sync.OnceValue(func() Ty {
		return NewUnion(
			NewValue(host.AutoValue{}),
			NewValue(host.TypeValue{T: host.TypeInt}),
			lengths(),
			NewArray(lengths()),
		)
	})

	tilingSize = sync.OnceValue(func() Ty {
		return NewUnion(NewValue(host.AutoValue{}), NewArray(lengths()))
	})
)

func sides(names ...string) *Record {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Field{Name: n, Ty: lengths()}
	}
	return NewRecord(fields...)
}

func oneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ParamMapping returns a refined type for parameter p of the builtin
// function named fn, or false when the generic cast info conversion
// should be used.
func ParamMapping(fn string, p host.ParamInfo) (Ty, bool) {
	param := p.Name
	isPath := oneOf(param, "path", "source")

	switch {
	case fn == "embed" && param == "path":
		return path(PathNone), true
	case fn == "cbor" && isPath:
		return path(PathNone), true
	case fn == "plugin" && param == "source":
		return path(PathWasm), true
	case fn == "csv" && isPath:
		return path(PathCsv), true
	case fn == "image" && isPath:
		return path(PathImage), true
	case fn == "read" && isPath:
		return path(PathNone), true
	case fn == "json" && isPath:
		return path(PathJSON), true
	case fn == "yaml" && isPath:
		return path(PathYAML), true
	case fn == "xml" && isPath:
		return path(PathXML), true
	case fn == "toml" && isPath:
		return path(PathTOML), true
	case fn == "raw" && param == "theme":
		return path(PathRawTheme), true
	case fn == "raw" && param == "syntaxes":
		return path(PathRawSyntax), true
	case oneOf(fn, "bibliography", "cite") && param == "style":
		return NewUnion(path(PathCsl), FromCastInfo(p.Input)), true
	case fn == "cite" && param == "key":
		return Lit(KindCiteLabel), true
	case fn == "ref" && param == "target":
		return Lit(KindRefLabel), true
	case fn == "footnote" && param == "body":
		return NewUnion(Lit(KindRefLabel), FromCastInfo(p.Input)), true
	case fn == "link" && param == "dest":
		return linkDest(), true
	case fn == "bibliography" && oneOf(param, "path", "sources"):
		return bibPath(), true
	case fn == "text" && param == "size":
		return Lit(KindTextSize), true
	case fn == "text" && param == "font":
		return textFont(), true
	case fn == "text" && param == "feature":
		return textFeature(), true
	case fn == "text" && param == "costs":
		return textCosts(), true
	case fn == "text" && param == "lang":
		return Lit(KindTextLang), true
	case fn == "text" && param == "region":
		return Lit(KindTextRegion), true
	case oneOf(fn, "text", "stack") && param == "dir":
		return Lit(KindDir), true
	case fn == "par" && param == "first-line-indent":
		return firstLineIndent(), true
	case param == "fill" && oneOf(fn, "page", "highlight", "text", "path", "curve", "rect",
		"ellipse", "circle", "polygon", "box", "block", "table", "regular"):
		return Lit(KindColor), true
	case param == "inset" && oneOf(fn, "table", "cell", "block", "box", "circle", "ellipse", "rect", "square"):
		return Lit(KindInset), true
	case param == "outset" && oneOf(fn, "block", "box", "circle", "ellipse", "rect", "square"):
		return Lit(KindOutset), true
	case param == "radius" && oneOf(fn, "block", "box", "rect", "square", "highlight"):
		return Lit(KindRadius), true
	case oneOf(fn, "grid", "table") && oneOf(param, "columns", "rows", "gutter", "column-gutter", "row-gutter"):
		return trackSizes(), true
	case oneOf(fn, "pattern", "tiling") && param == "size":
		return tilingSize(), true
	case fn == "stroke" && param == "dash":
		return StrokeDash(), true
	case param == "stroke" && oneOf(fn, "cancel", "highlight", "overline", "strike", "underline",
		"text", "path", "curve", "rect", "ellipse", "circle", "polygon", "box", "block", "table",
		"line", "cell", "hline", "vline", "regular"):
		return Lit(KindStroke), true
	case fn == "page" && param == "margin":
		return Lit(KindMargin), true
	}
	return nil, false
}
