package ty

import (
	"cmp"
	"fmt"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/intern"
	"github.com/phobologic/typguide/internal/source"
)

// BuiltinKind is the tag of a Builtin type.
type BuiltinKind uint8

const (
	KindClause BuiltinKind = iota
	KindUndef
	KindSpace
	KindNone
	KindBreak
	KindContinue
	KindInfer
	KindFlowNone
	KindAuto

	KindArgs
	KindColor
	KindTextSize
	KindTextFont
	KindTextFeature
	KindTextLang
	KindTextRegion

	KindLabel
	KindCiteLabel
	KindRefLabel
	KindDir
	KindLength
	KindFloat

	KindStroke
	KindMargin
	KindInset
	KindOutset
	KindRadius

	KindTag
	KindType
	KindTypeType
	KindContent
	KindElement
	KindModule
	KindPath
)

var kindNames = [...]string{
	KindClause:      "Clause",
	KindUndef:       "Undef",
	KindSpace:       "Space",
	KindNone:        "None",
	KindBreak:       "Break",
	KindContinue:    "Continue",
	KindInfer:       "Infer",
	KindFlowNone:    "FlowNone",
	KindAuto:        "Auto",
	KindArgs:        "Args",
	KindColor:       "Color",
	KindTextSize:    "TextSize",
	KindTextFont:    "TextFont",
	KindTextFeature: "TextFeature",
	KindTextLang:    "TextLang",
	KindTextRegion:  "TextRegion",
	KindLabel:       "Label",
	KindCiteLabel:   "CiteLabel",
	KindRefLabel:    "RefLabel",
	KindDir:         "Dir",
	KindLength:      "Length",
	KindFloat:       "Float",
	KindStroke:      "Stroke",
	KindMargin:      "Margin",
	KindInset:       "Inset",
	KindOutset:      "Outset",
	KindRadius:      "Radius",
	KindTag:         "Tag",
	KindType:        "Type",
	KindTypeType:    "TypeType",
	KindContent:     "Content",
	KindElement:     "Element",
	KindModule:      "Module",
	KindPath:        "Path",
}

func (k BuiltinKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("BuiltinKind(%d)", k)
}

// PackageID names a package without its version.
type PackageID struct {
	Namespace string
	Name      string
}

func (p PackageID) String() string { return "@" + p.Namespace + "/" + p.Name }

// PackageIDOf returns the package that owns f.
func PackageIDOf(f source.FileID) (PackageID, bool) {
	spec, ok := f.Package()
	if !ok {
		return PackageID{}, false
	}
	return PackageID{Namespace: spec.Namespace, Name: spec.Name}, true
}

// Builtin is a tagged domain type. The payload fields are only meaningful
// for the kinds that use them.
type Builtin struct {
	Kind BuiltinKind

	// KindType, KindTypeType
	Type host.Type
	// KindContent (zero for any content), KindElement
	Elem host.Element
	// KindModule
	Module *decl.Decl
	// KindPath
	Path PathPreference
	// KindTag
	Tag    string
	Pkg    PackageID
	HasPkg bool
}

// Lit returns the payload-free builtin of kind k.
func Lit(k BuiltinKind) Builtin { return Builtin{Kind: k} }

// TypeOf is a value of host type t.
func TypeOf(t host.Type) Builtin { return Builtin{Kind: KindType, Type: t} }

// TypeTypeOf is the host type t used as a value.
func TypeTypeOf(t host.Type) Builtin { return Builtin{Kind: KindTypeType, Type: t} }

// ContentOf is content produced by elem. A zero elem means any content.
func ContentOf(elem host.Element) Builtin { return Builtin{Kind: KindContent, Elem: elem} }

// ElementOf is the element type elem.
func ElementOf(elem host.Element) Builtin { return Builtin{Kind: KindElement, Elem: elem} }

// ModuleOf is the module declared by d.
func ModuleOf(d *decl.Decl) Builtin { return Builtin{Kind: KindModule, Module: d} }

// PathOf is a path argument with preference p.
func PathOf(p PathPreference) Builtin { return Builtin{Kind: KindPath, Path: p} }

// TagOf is a named tag, optionally owned by a package.
func TagOf(name string, pkg *PackageID) Builtin {
	b := Builtin{Kind: KindTag, Tag: name}
	if pkg != nil {
		b.Pkg, b.HasPkg = *pkg, true
	}
	return b
}

func (Builtin) rank() int { return rankBuiltin }

func (b Builtin) appendKey(buf []byte) []byte {
	buf = intern.AppendTag(buf, byte(b.Kind))
	buf = intern.AppendUint(buf, b.Type.ID())
	buf = intern.AppendUint(buf, b.Elem.ID())
	buf = intern.AppendUint(buf, b.Module.ID())
	buf = intern.AppendTag(buf, byte(b.Path.Kind))
	buf = intern.AppendBool(buf, b.Path.AllowPackage)
	buf = intern.AppendString(buf, b.Tag)
	buf = intern.AppendBool(buf, b.HasPkg)
	buf = intern.AppendString(buf, b.Pkg.Namespace)
	return intern.AppendString(buf, b.Pkg.Name)
}

// Compare orders builtins by kind, then payload.
func (b Builtin) Compare(o Builtin) int {
	if c := cmp.Compare(b.Kind, o.Kind); c != 0 {
		return c
	}
	switch b.Kind {
	case KindType, KindTypeType:
		return cmp.Compare(b.Type.Name(), o.Type.Name())
	case KindContent, KindElement:
		switch {
		case b.Elem == o.Elem:
			return 0
		case b.Elem.IsZero():
			return -1
		case o.Elem.IsZero():
			return 1
		}
		return cmp.Compare(b.Elem.Name(), o.Elem.Name())
	case KindModule:
		return compareDecl(b.Module, o.Module)
	case KindPath:
		return b.Path.Compare(o.Path)
	case KindTag:
		if c := cmp.Compare(b.Tag, o.Tag); c != 0 {
			return c
		}
		if c := compareBool(b.HasPkg, o.HasPkg); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Pkg.Namespace, o.Pkg.Namespace); c != 0 {
			return c
		}
		return cmp.Compare(b.Pkg.Name, o.Pkg.Name)
	}
	return 0
}

func (b Builtin) String() string {
	switch b.Kind {
	case KindContent:
		if b.Elem.IsZero() {
			return "Content"
		}
		return "Content(" + b.Elem.Name() + ")"
	case KindTypeType:
		return "TypeType(" + b.Type.ShortName() + ")"
	case KindType:
		return "Type(" + b.Type.ShortName() + ")"
	case KindElement:
		return b.Elem.Name()
	case KindTag:
		if b.HasPkg {
			return fmt.Sprintf("Tag(%q) of %s", b.Tag, b.Pkg)
		}
		return fmt.Sprintf("Tag(%q)", b.Tag)
	case KindModule:
		return b.Module.String()
	case KindPath:
		return "Path(" + b.Path.String() + ")"
	}
	return b.Kind.String()
}

// Describe renders b as a short label for hover and diagnostics.
func (b Builtin) Describe() string {
	switch b.Kind {
	case KindClause, KindUndef, KindInfer:
		return "any"
	case KindContent:
		if b.Elem.IsZero() {
			return "content"
		}
		return "content(" + b.Elem.Name() + ")"
	case KindSpace:
		return "content"
	case KindNone, KindFlowNone:
		return "none"
	case KindBreak:
		return "break"
	case KindContinue:
		return "continue"
	case KindAuto:
		return "auto"
	case KindArgs:
		return "arguments"
	case KindColor:
		return "color"
	case KindTextSize:
		return "text.size"
	case KindTextFont:
		return "text.font"
	case KindTextFeature:
		return "text.feature"
	case KindTextLang:
		return "text.lang"
	case KindTextRegion:
		return "text.region"
	case KindDir:
		return "dir"
	case KindLength:
		return "length"
	case KindFloat:
		return "float"
	case KindLabel:
		return "label"
	case KindCiteLabel:
		return "cite-label"
	case KindRefLabel:
		return "ref-label"
	case KindStroke:
		return "stroke"
	case KindMargin:
		return "margin"
	case KindInset:
		return "inset"
	case KindOutset:
		return "outset"
	case KindRadius:
		return "radius"
	case KindTypeType:
		return "type"
	case KindType:
		return b.Type.ShortName()
	case KindElement:
		return b.Elem.Name()
	case KindTag:
		if b.HasPkg {
			return "tag " + b.Tag + " of " + b.Pkg.String()
		}
		return "tag " + b.Tag
	case KindModule:
		return "module(" + b.Module.Name() + ")"
	case KindPath:
		return describePath(b.Path.Kind)
	}
	return b.Kind.String()
}

func describePath(k PathKind) string {
	switch k {
	case PathSource:
		return "[source]"
	case PathWasm:
		return "[wasm]"
	case PathCsv:
		return "[csv]"
	case PathImage:
		return "[image]"
	case PathJSON:
		return "[json]"
	case PathYAML:
		return "[yaml]"
	case PathXML:
		return "[xml]"
	case PathTOML:
		return "[toml]"
	case PathCsl:
		return "[csl]"
	case PathBibliography:
		return "[bib]"
	case PathRawTheme:
		return "[theme]"
	case PathRawSyntax:
		return "[syntax]"
	}
	return "[any]"
}

// Record returns the dictionary shape accepted by the Stroke, Margin,
// Inset, Outset and Radius kinds.
func (b Builtin) Record() (*Record, bool) {
	switch b.Kind {
	case KindStroke:
		return StrokeDict(), true
	case KindMargin:
		return MarginDict(), true
	case KindInset:
		return InsetDict(), true
	case KindOutset:
		return OutsetDict(), true
	case KindRadius:
		return RadiusDict(), true
	}
	return nil, false
}

// BuiltinFromValue returns the type of a host value. Booleans keep their
// literal value.
func BuiltinFromValue(v host.Value) Ty {
	if b, ok := v.(host.Bool); ok {
		return BoolLit(bool(b))
	}
	return FromBuiltin(v.Type())
}

// FromBuiltin maps a host type to its dedicated tag where one exists and to
// a plain Type tag otherwise.
func FromBuiltin(t host.Type) Ty {
	switch t {
	case host.TypeAuto:
		return Lit(KindAuto)
	case host.TypeNone:
		return Lit(KindNone)
	case host.TypeColor:
		return Lit(KindColor)
	case host.TypeBool:
		return Bool()
	case host.TypeFloat:
		return Lit(KindFloat)
	case host.TypeLength:
		return Lit(KindLength)
	case host.TypeContent:
		return ContentOf(host.Element{})
	}
	return TypeOf(t)
}
