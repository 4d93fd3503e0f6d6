package ty

import (
	"iter"
	"slices"
	"strings"

	"github.com/phobologic/typguide/internal/host"
)

// FromCastInfo converts a host cast descriptor. Nested unions collapse into
// one flat union.
func FromCastInfo(c host.CastInfo) Ty {
	switch c.Kind {
	case host.CastValue:
		return NewValueDoc(c.Value, c.Doc)
	case host.CastType:
		return TypeOf(c.Type)
	case host.CastUnion:
		return IterUnion(func(yield func(Ty) bool) {
			for leaf := range castLeaves(c.Union) {
				if !yield(FromCastInfo(leaf)) {
					return
				}
			}
		})
	}
	return Any{}
}

// castLeaves walks nested union alternatives depth first, using an explicit
// stack so arbitrarily deep nesting does not grow the call stack.
func castLeaves(alts []host.CastInfo) iter.Seq[host.CastInfo] {
	return func(yield func(host.CastInfo) bool) {
		stack := [][]host.CastInfo{alts}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if len(*top) == 0 {
				stack = stack[:len(stack)-1]
				continue
			}
			next := (*top)[0]
			*top = (*top)[1:]
			if next.Kind == host.CastUnion {
				stack = append(stack, next.Union)
				continue
			}
			if !yield(next) {
				return
			}
		}
	}
}

// FromParamSite types parameter p of f. Builtin functions consult the
// override table first; closures always use the declared cast info.
func FromParamSite(f *host.Func, p host.ParamInfo) Ty {
	switch f.Kind() {
	case host.FuncElement, host.FuncNative, host.FuncPlugin:
		if t, ok := ParamMapping(f.Name(), p); ok {
			return t
		}
	case host.FuncWith:
		if inner, ok := f.Wrapped(); ok {
			return FromParamSite(inner, p)
		}
	}
	return FromCastInfo(p.Input)
}

// FromReturnSite types the return value of f described by c. Element
// functions always produce content of their element.
func FromReturnSite(f *host.Func, c host.CastInfo) Ty {
	switch f.Kind() {
	case host.FuncElement:
		elem, _ := f.Element()
		return ContentOf(elem)
	case host.FuncWith:
		if inner, ok := f.Wrapped(); ok {
			return FromReturnSite(inner, c)
		}
	}
	return FromCastInfo(c)
}

// SigOf builds the signature of a host function from its parameter sites.
func SigOf(f *host.Func) *Sig {
	var inputs []Ty
	var named []Field
	var rest Ty
	for _, p := range f.Params() {
		t := FromParamSite(f, p)
		switch {
		case p.Variadic:
			rest = NewArray(t)
		case p.Positional:
			inputs = append(inputs, t)
		default:
			named = append(named, Field{Name: p.Name, Ty: t})
		}
	}
	return NewSig(inputs, named, rest, FromReturnSite(f, f.Returns()))
}

// Describe renders t as a short label for hover and diagnostics.
func Describe(t Ty) string {
	switch t := t.(type) {
	case nil:
		return "any"
	case Any:
		return "any"
	case Never:
		return "never"
	case Boolean:
		if t.Known {
			if t.Value {
				return "true"
			}
			return "false"
		}
		return "bool"
	case *Value:
		return t.val.Repr()
	case Builtin:
		return t.Describe()
	case *Union:
		var parts []string
		for _, alt := range t.types {
			d := Describe(alt)
			if !slices.Contains(parts, d) {
				parts = append(parts, d)
			}
		}
		return strings.Join(parts, " | ")
	case *Array:
		return "array<" + Describe(t.elem) + ">"
	case *Record:
		return "(" + joinFields(t.fields, Describe) + ")"
	case *Sig:
		var parts []string
		for _, in := range t.inputs {
			parts = append(parts, Describe(in))
		}
		if len(t.named) > 0 {
			parts = append(parts, joinFields(t.named, Describe))
		}
		if t.rest != nil {
			parts = append(parts, ".."+Describe(t.rest))
		}
		return "(" + strings.Join(parts, ", ") + ") => " + Describe(t.body)
	case *Select:
		return Describe(t.base) + "." + t.field
	case *TypeVar:
		return t.name
	}
	return t.String()
}
