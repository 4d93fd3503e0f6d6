// Package decl models declaration sites: the places in source where a name
// is bound or used. Declarations are interned, so two structurally equal
// declarations share one *Decl and compare equal with ==.
package decl

import (
	"cmp"
	"fmt"
	"path"
	"strings"

	"github.com/phobologic/typguide/internal/intern"
	"github.com/phobologic/typguide/internal/source"
)

// Tag is the declaration variant.
type Tag uint8

const (
	TagFunc Tag = iota
	TagImportAlias
	TagVar
	TagIdentRef
	TagModule
	TagModuleAlias
	TagPathStem
	TagImportPath
	TagIncludePath
	TagImport
	TagContentRef
	TagLabel
	TagStrName
	TagModuleImport
	TagClosure
	TagPattern
	TagSpread
	TagContent
	TagConstant
	TagBibEntry
	TagDocs
	TagGenerated
)

var tagNames = [...]string{
	TagFunc:         "Func",
	TagImportAlias:  "ImportAlias",
	TagVar:          "Var",
	TagIdentRef:     "IdentRef",
	TagModule:       "Module",
	TagModuleAlias:  "ModuleAlias",
	TagPathStem:     "PathStem",
	TagImportPath:   "ImportPath",
	TagIncludePath:  "IncludePath",
	TagImport:       "Import",
	TagContentRef:   "ContentRef",
	TagLabel:        "Label",
	TagStrName:      "StrName",
	TagModuleImport: "ModuleImport",
	TagClosure:      "Closure",
	TagPattern:      "Pattern",
	TagSpread:       "Spread",
	TagContent:      "Content",
	TagConstant:     "Constant",
	TagBibEntry:     "BibEntry",
	TagDocs:         "Docs",
	TagGenerated:    "Generated",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", t)
}

// DefKind classifies what a declaration defines.
type DefKind uint8

const (
	DefConstant DefKind = iota
	DefFunction
	DefVariable
	DefModule
	DefStruct
	DefReference
)

func (k DefKind) String() string {
	switch k {
	case DefFunction:
		return "function"
	case DefVariable:
		return "variable"
	case DefModule:
		return "module"
	case DefStruct:
		return "struct"
	case DefReference:
		return "reference"
	default:
		return "constant"
	}
}

// DefID identifies a generated definition.
type DefID uint64

// Decl is a declaration site. Only the fields relevant to its Tag are set.
type Decl struct {
	intern.Ident

	tag  Tag
	name string
	at   source.Span

	// Module and BibEntry
	file source.FileID

	// BibEntry
	nameRange source.Range
	fullRange source.Range
	hasFull   bool

	// Docs
	base    *Decl
	varName string
	varDef  *Decl

	// Generated
	def DefID
}

var table = intern.NewTable[Decl]("decl")

// ID returns the interning identity, or 0 for a nil declaration.
func (d *Decl) ID() uint64 {
	if d == nil {
		return 0
	}
	return d.Ident.ID()
}

// AppendKey implements intern.Value.
func (d *Decl) AppendKey(b []byte) []byte {
	b = intern.AppendTag(b, byte(d.tag))
	b = intern.AppendString(b, d.name)
	b = intern.AppendUint(b, d.at.File().UID())
	b = intern.AppendUint(b, d.at.Number())
	b = intern.AppendUint(b, d.file.UID())
	b = intern.AppendInt(b, int64(d.nameRange.Start))
	b = intern.AppendInt(b, int64(d.nameRange.End))
	b = intern.AppendBool(b, d.hasFull)
	b = intern.AppendInt(b, int64(d.fullRange.Start))
	b = intern.AppendInt(b, int64(d.fullRange.End))
	b = intern.AppendUint(b, d.base.ID())
	b = intern.AppendString(b, d.varName)
	b = intern.AppendUint(b, d.varDef.ID())
	return intern.AppendUint(b, uint64(d.def))
}

func spanned(tag Tag, name string, at source.Span) *Decl {
	return table.Intern(Decl{tag: tag, name: name, at: at})
}

func anon(tag Tag, at source.Span) *Decl {
	return table.Intern(Decl{tag: tag, at: at})
}

// Func declares a named function.
func Func(name string, at source.Span) *Decl { return spanned(TagFunc, name, at) }

// Var declares a variable.
func Var(name string, at source.Span) *Decl { return spanned(TagVar, name, at) }

// Lit is a variable with no source position.
func Lit(name string) *Decl { return spanned(TagVar, name, source.Detached()) }

// ImportAlias is the new name in `import "a.typ": x as y`.
func ImportAlias(name string, at source.Span) *Decl { return spanned(TagImportAlias, name, at) }

// IdentRef is a use of a name.
func IdentRef(name string, at source.Span) *Decl { return spanned(TagIdentRef, name, at) }

// Module is a whole file seen as a module.
func Module(name string, file source.FileID) *Decl {
	return table.Intern(Decl{tag: TagModule, name: name, file: file})
}

// ModuleAlias is the name in `import "a.typ" as m`.
func ModuleAlias(name string, at source.Span) *Decl { return spanned(TagModuleAlias, name, at) }

// Import is an item name in `import "a.typ": x`.
func Import(name string, at source.Span) *Decl { return spanned(TagImport, name, at) }

// Label declares a label such as <fig>.
func Label(name string, at source.Span) *Decl { return spanned(TagLabel, name, at) }

// ContentRef is a reference such as @fig.
func ContentRef(name string, at source.Span) *Decl { return spanned(TagContentRef, name, at) }

// StrName is a name given by a string literal.
func StrName(name string, at source.Span) *Decl { return spanned(TagStrName, name, at) }

// PathStem is the implicit module name taken from an import path.
func PathStem(name string, at source.Span) *Decl { return spanned(TagPathStem, name, at) }

// ImportPath is the path literal of an import.
func ImportPath(name string, at source.Span) *Decl { return spanned(TagImportPath, name, at) }

// IncludePath is the path literal of an include.
func IncludePath(name string, at source.Span) *Decl { return spanned(TagIncludePath, name, at) }

// ModuleImport is an anonymous import statement.
func ModuleImport(at source.Span) *Decl { return anon(TagModuleImport, at) }

// Closure is an anonymous function.
func Closure(at source.Span) *Decl { return anon(TagClosure, at) }

// Pattern is a destructuring pattern.
func Pattern(at source.Span) *Decl { return anon(TagPattern, at) }

// Spread is a spread argument or parameter.
func Spread(at source.Span) *Decl { return anon(TagSpread, at) }

// Content is a content block.
func Content(at source.Span) *Decl { return anon(TagContent, at) }

// Constant is a literal constant.
func Constant(at source.Span) *Decl { return anon(TagConstant, at) }

// Docs attaches a documented type variable, named varName and defined by
// varDef, to base.
func Docs(base *Decl, varName string, varDef *Decl) *Decl {
	return table.Intern(Decl{tag: TagDocs, base: base, varName: varName, varDef: varDef})
}

// Generated is a declaration synthesized by analysis.
func Generated(def DefID) *Decl {
	return table.Intern(Decl{tag: TagGenerated, def: def})
}

// BibEntry is an entry of a bibliography file. full may be nil.
func BibEntry(name string, file source.FileID, nameRange source.Range, full *source.Range) *Decl {
	d := Decl{tag: TagBibEntry, name: name, file: file, nameRange: nameRange}
	if full != nil {
		d.fullRange, d.hasFull = *full, true
	}
	return table.Intern(d)
}

// CalcPathStem derives the implicit module name of an import source:
// the package name for "@ns/name:version", the file stem otherwise.
func CalcPathStem(s string) string {
	if strings.HasPrefix(s, "@") {
		spec, err := source.ParsePackageSpec(s)
		if err != nil {
			return ""
		}
		return spec.Name
	}
	base := path.Base(strings.ReplaceAll(s, "\\", "/"))
	if base == "/" || base == "." || base == ".." {
		return ""
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Tag returns the declaration variant.
func (d *Decl) Tag() Tag { return d.tag }

// Name returns the declared name. Anonymous declarations return "".
func (d *Decl) Name() string { return d.name }

// Span returns where the declaration appears, or a detached span.
func (d *Decl) Span() source.Span { return d.at }

// Base returns the documented declaration of a Docs declaration.
func (d *Decl) Base() *Decl { return d.base }

// DocsVar returns the type variable of a Docs declaration.
func (d *Decl) DocsVar() (name string, def *Decl) { return d.varName, d.varDef }

// DefID returns the id of a Generated declaration.
func (d *Decl) DefID() DefID { return d.def }

// NameRange returns the byte range of a BibEntry name.
func (d *Decl) NameRange() (source.Range, bool) {
	return d.nameRange, d.tag == TagBibEntry
}

// IsDef reports whether d introduces a binding rather than referring to one.
func (d *Decl) IsDef() bool {
	switch d.tag {
	case TagFunc, TagBibEntry, TagClosure, TagVar, TagLabel, TagStrName, TagModule,
		TagModuleImport, TagPathStem, TagImportPath, TagIncludePath, TagSpread, TagGenerated:
		return true
	}
	return false
}

// Kind classifies what d defines.
func (d *Decl) Kind() DefKind {
	switch d.tag {
	case TagModuleAlias, TagModule, TagPathStem, TagImportPath, TagIncludePath:
		return DefModule
	case TagFunc, TagClosure:
		return DefFunction
	case TagLabel, TagBibEntry, TagContentRef:
		return DefReference
	case TagIdentRef, TagImportAlias, TagImport, TagVar:
		return DefVariable
	default:
		return DefConstant
	}
}

// FileID returns the file that holds the declaration, if known.
func (d *Decl) FileID() (source.FileID, bool) {
	switch d.tag {
	case TagModule, TagBibEntry:
		return d.file, true
	}
	f := d.at.File()
	return f, !f.IsZero()
}

// FullRange returns the full text range of the declaration. Only
// bibliography entries carry one.
func (d *Decl) FullRange() (source.Range, bool) {
	if d.tag != TagBibEntry {
		return source.Range{}, false
	}
	return d.fullRange, d.hasFull
}

// Compare is the fast order. It depends on span encodings and therefore on
// file registration order; use StrictCompare for reproducible output.
func (d *Decl) Compare(o *Decl) int {
	var c int
	switch {
	case d.tag == TagGenerated && o.tag == TagGenerated:
		c = cmp.Compare(d.def, o.def)
	case d.tag == TagModule && o.tag == TagModule:
		c = cmp.Compare(d.file.Seq(), o.file.Seq())
	case d.tag == TagDocs && o.tag == TagDocs:
		c = d.compareVar(o, (*Decl).Compare)
		if c == 0 {
			c = d.base.Compare(o.base)
		}
	default:
		c = d.at.Compare(o.at)
	}
	if c != 0 {
		return c
	}
	if c = cmp.Compare(d.name, o.name); c != 0 {
		return c
	}
	return d.tiebreak(o, func(a, b source.FileID) int { return cmp.Compare(a.Seq(), b.Seq()) })
}

// StrictCompare is like Compare but orders files by package and path, so
// the result is the same in every process given the same inputs.
func (d *Decl) StrictCompare(o *Decl) int {
	var c int
	switch {
	case d.tag == TagGenerated && o.tag == TagGenerated:
		c = cmp.Compare(d.def, o.def)
	case d.tag == TagModule && o.tag == TagModule:
		c = d.file.StrictCompare(o.file)
	case d.tag == TagDocs && o.tag == TagDocs:
		c = d.compareVar(o, (*Decl).StrictCompare)
		if c == 0 {
			c = d.base.StrictCompare(o.base)
		}
	default:
		c = d.at.StrictCompare(o.at)
	}
	if c != 0 {
		return c
	}
	if c = cmp.Compare(d.name, o.name); c != 0 {
		return c
	}
	return d.tiebreak(o, source.FileID.StrictCompare)
}

func (d *Decl) compareVar(o *Decl, defs func(a, b *Decl) int) int {
	if c := cmp.Compare(d.varName, o.varName); c != 0 {
		return c
	}
	switch {
	case d.varDef == o.varDef:
		return 0
	case d.varDef == nil:
		return -1
	case o.varDef == nil:
		return 1
	}
	return defs(d.varDef, o.varDef)
}

// tiebreak separates declarations that share span and name, such as a
// variable and a function synthesized at the same node.
func (d *Decl) tiebreak(o *Decl, files func(a, b source.FileID) int) int {
	if c := cmp.Compare(d.tag, o.tag); c != 0 {
		return c
	}
	if c := files(d.file, o.file); c != 0 {
		return c
	}
	if c := cmp.Compare(d.nameRange.Start, o.nameRange.Start); c != 0 {
		return c
	}
	return cmp.Compare(d.nameRange.End, o.nameRange.End)
}

func (d *Decl) String() string {
	switch d.tag {
	case TagDocs:
		return fmt.Sprintf("Docs(%s, %s)", d.base, d.varName)
	case TagGenerated:
		return fmt.Sprintf("Generated(%d)", d.def)
	}
	if d.name == "" {
		return d.tag.String() + "(..)"
	}
	return d.tag.String() + "(" + d.name + ")"
}
