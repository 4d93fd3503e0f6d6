package host

import "sync"

// Library is the set of globally visible builtins.
type Library struct {
	global *Module
}

// NewLibrary wraps a global module.
func NewLibrary(global *Module) *Library {
	return &Library{global: global}
}

// Global returns the module whose scope is visible in every file.
func (l *Library) Global() *Module { return l.global }

// Func looks up a global function by name. Dotted names such as
// "table.cell" descend into function scopes.
func (l *Library) Func(name string) (*Func, bool) {
	scope := l.global.Scope()
	for {
		head, rest, dotted := cut(name)
		v, ok := scope.Get(head)
		if !ok {
			return nil, false
		}
		f, isFunc := v.(*Func)
		if !dotted {
			return f, isFunc
		}
		switch v := v.(type) {
		case *Func:
			s, ok := v.Scope()
			if !ok {
				return nil, false
			}
			scope = s
		case *Module:
			scope = v.Scope()
		case TypeValue:
			scope = v.T.Scope()
		default:
			return nil, false
		}
		name = rest
	}
}

func cut(name string) (head, rest string, ok bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}

// Std returns the builtin library. It is built once on first use and is
// read-only afterwards.
var Std = sync.OnceValue(buildStd)

func named(name string, input CastInfo) ParamInfo {
	return ParamInfo{Name: name, Input: input, Named: true, Settable: true}
}

func positional(name string, input CastInfo) ParamInfo {
	return ParamInfo{Name: name, Input: input, Positional: true, Required: true}
}

func body() ParamInfo {
	return ParamInfo{Name: "body", Input: Of(TypeContent), Positional: true}
}

var (
	strOrBytes = OneOf(Of(TypeStr), Of(TypeBytes))
	paintCast  = OneOf(Is(NoneValue{}, "no fill"), Of(TypeColor))
	strokeCast = OneOf(Is(NoneValue{}, "no stroke"), Is(AutoValue{}, "default stroke"), Of(TypeLength), Of(TypeColor), Of(TypeDict))
	sidesCast  = OneOf(Of(TypeLength), Of(TypeDict))
	trackCast  = OneOf(Is(AutoValue{}, "automatic"), Of(TypeInt), Of(TypeLength), Of(TypeArray))
	dirCast    = Of(TypeDir)
)

func element(name string, params ...ParamInfo) *Func {
	return NewElementFunc(NewElement(name), params)
}

func shape(name string, extra ...ParamInfo) *Func {
	params := []ParamInfo{
		named("width", OneOf(Is(AutoValue{}, ""), Of(TypeLength))),
		named("height", OneOf(Is(AutoValue{}, ""), Of(TypeLength))),
		named("fill", paintCast),
		named("stroke", strokeCast),
		named("inset", sidesCast),
		named("outset", sidesCast),
	}
	params = append(params, extra...)
	params = append(params, body())
	return element(name, params...)
}

func dataLoader(name string) *Func {
	return NewNative(name, []ParamInfo{positional("source", strOrBytes)}, Any())
}

func buildStd() *Library {
	g := NewScope()

	define := func(f *Func) { g.Define(f.Name(), f) }

	for _, name := range []string{"csv", "json", "yaml", "xml", "toml", "cbor", "read"} {
		define(dataLoader(name))
	}
	define(NewNative("plugin", []ParamInfo{positional("source", strOrBytes)}, Of(TypeModule)))

	define(element("text",
		named("font", OneOf(Of(TypeStr), Of(TypeArray))),
		named("size", Of(TypeLength)),
		named("fill", paintCast),
		named("stroke", strokeCast),
		named("lang", Of(TypeStr)),
		named("region", OneOf(Is(NoneValue{}, ""), Of(TypeStr))),
		named("dir", OneOf(Is(AutoValue{}, ""), dirCast)),
		named("features", OneOf(Of(TypeArray), Of(TypeDict))),
		named("costs", Of(TypeDict)),
		named("weight", OneOf(Of(TypeInt), Of(TypeStr))),
		body(),
	))
	define(element("par",
		named("leading", Of(TypeLength)),
		named("justify", Of(TypeBool)),
		named("first-line-indent", OneOf(Of(TypeLength), Of(TypeDict))),
		body(),
	))
	define(element("page",
		named("paper", Of(TypeStr)),
		named("fill", OneOf(paintCast, Is(AutoValue{}, ""))),
		named("margin", OneOf(Is(AutoValue{}, ""), sidesCast)),
		body(),
	))
	define(element("heading",
		named("level", OneOf(Is(AutoValue{}, ""), Of(TypeInt))),
		named("numbering", OneOf(Is(NoneValue{}, ""), Of(TypeStr), Of(TypeFunc))),
		body(),
	))
	define(element("strong", named("delta", Of(TypeInt)), body()))
	define(element("emph", body()))
	define(element("image",
		positional("source", strOrBytes),
		named("width", OneOf(Is(AutoValue{}, ""), Of(TypeLength))),
		named("alt", OneOf(Is(NoneValue{}, ""), Of(TypeStr))),
	))
	define(element("raw",
		positional("text", Of(TypeStr)),
		named("lang", OneOf(Is(NoneValue{}, ""), Of(TypeStr))),
		named("theme", OneOf(Is(AutoValue{}, ""), Is(NoneValue{}, ""), Of(TypeStr))),
		named("syntaxes", OneOf(Of(TypeStr), Of(TypeArray))),
	))
	define(element("bibliography",
		positional("sources", OneOf(Of(TypeStr), Of(TypeArray))),
		named("style", OneOf(Of(TypeStr), Of(TypeBytes))),
	))
	define(element("cite",
		positional("key", Of(TypeLabel)),
		named("style", OneOf(Is(AutoValue{}, ""), Of(TypeStr))),
	))
	define(element("ref", positional("target", Of(TypeLabel))))
	define(element("footnote", ParamInfo{Name: "body", Input: OneOf(Of(TypeLabel), Of(TypeContent)), Positional: true, Required: true}))
	define(element("link",
		positional("dest", OneOf(Of(TypeStr), Of(TypeLabel), Of(TypeLocation), Of(TypeDict))),
		body(),
	))
	define(element("highlight",
		named("fill", paintCast),
		named("stroke", strokeCast),
		named("radius", sidesCast),
		body(),
	))
	for _, name := range []string{"overline", "strike", "underline"} {
		define(element(name, named("stroke", strokeCast), body()))
	}
	define(element("line",
		named("length", Of(TypeLength)),
		named("stroke", strokeCast),
	))
	define(element("stack",
		named("dir", dirCast),
		named("spacing", OneOf(Is(NoneValue{}, ""), Of(TypeLength))),
	))

	define(shape("rect", named("radius", sidesCast)))
	define(shape("square", named("radius", sidesCast)))
	define(shape("box", named("radius", sidesCast)))
	define(shape("block", named("radius", sidesCast), named("breakable", Of(TypeBool))))
	define(shape("circle"))
	define(shape("ellipse"))

	define(element("polygon", named("fill", paintCast), named("stroke", strokeCast)).WithScope(scopeOf(
		element("regular", named("fill", paintCast), named("stroke", strokeCast), named("size", Of(TypeLength))),
	)))
	define(element("path", named("fill", paintCast), named("stroke", strokeCast)))
	define(element("curve", named("fill", paintCast), named("stroke", strokeCast)))

	define(element("table",
		named("columns", trackCast),
		named("rows", trackCast),
		named("gutter", trackCast),
		named("column-gutter", trackCast),
		named("row-gutter", trackCast),
		named("fill", OneOf(paintCast, Of(TypeFunc))),
		named("stroke", OneOf(strokeCast, Of(TypeFunc))),
		named("inset", OneOf(sidesCast, Of(TypeFunc))),
	).WithScope(scopeOf(
		element("cell", named("fill", paintCast), named("stroke", strokeCast), named("inset", sidesCast), body()),
		element("hline", named("stroke", strokeCast)),
		element("vline", named("stroke", strokeCast)),
	)))
	define(element("grid",
		named("columns", trackCast),
		named("rows", trackCast),
		named("gutter", trackCast),
		named("column-gutter", trackCast),
		named("row-gutter", trackCast),
	))
	define(element("figure",
		body(),
		named("caption", OneOf(Is(NoneValue{}, ""), Of(TypeContent))),
	))

	tiling := NewType("tiling", "tiling", nil)
	define(NewNative("tiling", []ParamInfo{named("size", OneOf(Is(AutoValue{}, ""), Of(TypeArray))), body()}, Of(tiling)))

	strokeType := NewType("stroke", "stroke", nil)
	define(NewNative("stroke", []ParamInfo{
		named("paint", Of(TypeColor)),
		named("thickness", Of(TypeLength)),
		named("dash", OneOf(Is(NoneValue{}, ""), Of(TypeStr), Of(TypeArray), Of(TypeDict))),
	}, Of(strokeType)))

	for _, t := range []Type{TypeInt, TypeFloat, TypeStr, TypeBool, TypeContent, TypeArray, TypeDict, TypeColor, TypeLength, TypeLabel, TypeRegex} {
		g.Define(t.ShortName(), TypeValue{T: t})
	}
	g.Define("auto", AutoValue{})
	g.Define("none", NoneValue{})
	g.Define("ltr", Str("ltr"))
	g.Define("rtl", Str("rtl"))
	g.Define("ttb", Str("ttb"))
	g.Define("btt", Str("btt"))
	g.Define("red", Color{R: 0xff, G: 0x41, B: 0x36, A: 0xff})
	g.Define("blue", Color{R: 0x00, G: 0x74, B: 0xd9, A: 0xff})
	g.Define("black", Color{A: 0xff})

	calc := NewScope()
	calc.Define("pi", Float(3.141592653589793))
	for _, f := range []*Func{
		NewNative("abs", []ParamInfo{positional("value", OneOf(Of(TypeInt), Of(TypeFloat), Of(TypeLength)))}, OneOf(Of(TypeInt), Of(TypeFloat), Of(TypeLength))),
		NewNative("pow", []ParamInfo{positional("base", OneOf(Of(TypeInt), Of(TypeFloat))), positional("exponent", OneOf(Of(TypeInt), Of(TypeFloat)))}, OneOf(Of(TypeInt), Of(TypeFloat))),
		NewNative("max", []ParamInfo{{Name: "values", Input: Any(), Positional: true, Variadic: true}}, Any()),
	} {
		calc.Define(f.Name(), f)
	}
	g.Define("calc", NewModule("calc", calc))

	return NewLibrary(NewModule("std", g))
}

func scopeOf(funcs ...*Func) *Scope {
	s := NewScope()
	for _, f := range funcs {
		s.Define(f.Name(), f)
	}
	return s
}
