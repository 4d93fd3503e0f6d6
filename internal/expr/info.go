package expr

import (
	"cmp"
	"encoding/binary"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/ty"
)

// VarDoc documents one parameter or field.
type VarDoc struct {
	Docs string
	Ty   ty.Ty
}

// DocString is the documentation attached to a declaration.
type DocString struct {
	Docs string
	Vars map[string]VarDoc
	Res  ty.Ty
}

// IsEmpty reports whether d carries nothing.
func (d *DocString) IsEmpty() bool {
	return d == nil || (d.Docs == "" && len(d.Vars) == 0 && d.Res == nil)
}

// ExprInfoRepr is everything known about one revision of a file.
type ExprInfoRepr struct {
	FileID   source.FileID
	Revision int
	Source   *source.Source

	// Resolves maps the span of every name use to its resolution.
	Resolves        map[source.Span]*Ref
	ModuleDocstring *DocString
	Docstrings      map[*decl.Decl]*DocString
	// Exprs maps spans of scoped syntax to their lowered expression.
	Exprs   map[source.Span]Expr
	Imports map[source.FileID]LexicalScope
	Exports LexicalScope
	Root    Expr
}

// ExprInfo is an immutable, shareable ExprInfoRepr with a lazily computed
// structural hash.
type ExprInfo struct {
	ExprInfoRepr
	hash func() uint64
}

// NewExprInfo freezes repr. The maps in repr must not be modified afterwards.
func NewExprInfo(repr ExprInfoRepr) *ExprInfo {
	info := &ExprInfo{ExprInfoRepr: repr}
	info.hash = sync.OnceValue(info.ExprInfoRepr.Hash)
	return info
}

// Hash returns the structural hash, computed once.
func (i *ExprInfo) Hash() uint64 { return i.hash() }

// GetDef returns the definition d refers to. A definition is its own
// definition; any other declaration is looked up by span.
func (r *ExprInfoRepr) GetDef(d *decl.Decl) (Expr, bool) {
	if d.IsDef() {
		return DeclOf(d), true
	}
	ref, ok := r.Resolves[d.Span()]
	if !ok {
		return nil, false
	}
	return ref, true
}

// GetRefs iterates the resolutions that refer to d, in span order.
//
// A label matches label uses of the same declaration and content
// references with the same name. Content references and every other
// declaration match resolutions of the same declaration or resolutions
// rooted at it.
func (r *ExprInfoRepr) GetRefs(d *decl.Decl) iter.Seq2[source.Span, *Ref] {
	of := Expr(DeclOf(d))
	match := func(ref *Ref) bool {
		if d.Tag() == decl.TagLabel {
			switch ref.Decl.Tag() {
			case decl.TagLabel:
				return ref.Decl == d
			case decl.TagContentRef:
				return ref.Decl.Name() == d.Name()
			default:
				return false
			}
		}
		return ref.Decl == d || ref.Root == of
	}
	return func(yield func(source.Span, *Ref) bool) {
		for _, span := range sortedSpans(r.Resolves) {
			ref := r.Resolves[span]
			if match(ref) && !yield(span, ref) {
				return
			}
		}
	}
}

// IsExported reports whether the file exports d under its own name.
func (r *ExprInfoRepr) IsExported(d *decl.Decl) bool {
	e, ok := r.Exports.Lookup(d.Name())
	return ok && exportOf(e, d)
}

// Hash computes a structural hash of the revision. Map contents are
// hashed in key order, so the result does not depend on how the maps were
// populated. Docstrings and the per-span expression table are derived from
// the root and are not hashed.
func (r *ExprInfoRepr) Hash() uint64 {
	h := xxh3.New()
	var buf []byte
	u64 := func(v uint64) {
		buf = binary.LittleEndian.AppendUint64(buf[:0], v)
		_, _ = h.Write(buf)
	}

	u64(uint64(r.Revision))
	if r.Source != nil {
		u64(r.Source.Hash())
	}
	hashScope(u64, h, r.Exports)
	u64(idOf(r.Root))

	spans := sortedSpans(r.Resolves)
	u64(uint64(len(spans)))
	for _, s := range spans {
		u64(s.Raw())
		u64(r.Resolves[s].ID())
	}

	files := slices.SortedFunc(maps.Keys(r.Imports), func(a, b source.FileID) int {
		return cmp.Compare(a.Seq(), b.Seq())
	})
	u64(uint64(len(files)))
	for _, f := range files {
		u64(uint64(f.Seq()))
		hashScope(u64, h, r.Imports[f])
	}
	return h.Sum64()
}

func hashScope(u64 func(uint64), h *xxh3.Hasher, s LexicalScope) {
	u64(uint64(s.Len()))
	for name, e := range s.All() {
		u64(uint64(len(name)))
		_, _ = h.WriteString(name)
		u64(idOf(e))
	}
}

func idOf(e Expr) uint64 {
	if e == nil {
		return 0
	}
	return e.ID()
}

func sortedSpans(m map[source.Span]*Ref) []source.Span {
	return slices.SortedFunc(maps.Keys(m), source.Span.Compare)
}
