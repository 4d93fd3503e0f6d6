// Package ty is the structural type lattice used for completion and hover.
//
// Composite types are interned: a structurally equal type is always the
// same pointer, so every Ty is comparable with == and usable as a map key.
package ty

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/intern"
)

// Ty is a type. The set of implementations is closed.
type Ty interface {
	fmt.Stringer
	rank() int
}

const (
	rankAny = iota
	rankNever
	rankBoolean
	rankValue
	rankBuiltin
	rankUnion
	rankArray
	rankRecord
	rankSig
	rankSelect
	rankVar
)

// Any accepts every value.
type Any struct{}

// Never is the empty union.
type Never struct{}

// Boolean is a boolean, optionally with a known literal value.
type Boolean struct {
	Known bool
	Value bool
}

// Bool returns the boolean type with an unknown value.
func Bool() Boolean { return Boolean{} }

// BoolLit returns the literal boolean type v.
func BoolLit(v bool) Boolean { return Boolean{Known: true, Value: v} }

func (Any) rank() int     { return rankAny }
func (Never) rank() int   { return rankNever }
func (Boolean) rank() int { return rankBoolean }

func (Any) String() string   { return "Any" }
func (Never) String() string { return "Never" }

func (b Boolean) String() string {
	if !b.Known {
		return "Boolean"
	}
	return fmt.Sprintf("Boolean(%t)", b.Value)
}

// Value is the type of exactly one host value.
type Value struct {
	intern.Ident
	val host.Value
	doc string
}

var values = intern.NewTable[Value]("ty.value")

// NewValue returns the singleton type of v.
func NewValue(v host.Value) *Value { return values.Intern(Value{val: v}) }

// NewValueDoc is like NewValue but attaches documentation for the value.
func NewValueDoc(v host.Value, doc string) *Value { return values.Intern(Value{val: v, doc: doc}) }

// Val returns the host value.
func (v *Value) Val() host.Value { return v.val }

// Doc returns the value documentation, if any.
func (v *Value) Doc() string { return v.doc }

func (v *Value) AppendKey(b []byte) []byte {
	b = appendHostValue(b, v.val)
	return intern.AppendString(b, v.doc)
}

func (*Value) rank() int { return rankValue }

func (v *Value) String() string { return "Value(" + v.val.Repr() + ")" }

// Union is a canonical set of at least two alternatives.
type Union struct {
	intern.Ident
	types []Ty
}

var unions = intern.NewTable[Union]("ty.union")

// Types returns the alternatives in canonical order. The slice must not be
// modified.
func (u *Union) Types() []Ty { return u.types }

func (u *Union) AppendKey(b []byte) []byte {
	b = intern.AppendUint(b, uint64(len(u.types)))
	for _, t := range u.types {
		b = appendTy(b, t)
	}
	return b
}

func (*Union) rank() int { return rankUnion }

func (u *Union) String() string {
	parts := make([]string, len(u.types))
	for i, t := range u.types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// NewUnion builds the canonical union of ts: nested unions are flattened,
// alternatives sorted by Compare and duplicates dropped. An empty union is
// Never and a single alternative is returned as is.
func NewUnion(ts ...Ty) Ty {
	return IterUnion(slices.Values(ts))
}

// IterUnion is NewUnion over a sequence.
func IterUnion(seq iter.Seq[Ty]) Ty {
	var flat []Ty
	seen := make(map[Ty]struct{})
	add := func(t Ty) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		flat = append(flat, t)
	}
	for t := range seq {
		switch t := t.(type) {
		case nil, Never:
		case *Union:
			for _, inner := range t.types {
				add(inner)
			}
		default:
			add(t)
		}
	}
	switch len(flat) {
	case 0:
		return Never{}
	case 1:
		return flat[0]
	}
	slices.SortStableFunc(flat, Compare)
	return unions.Intern(Union{types: flat})
}

// Array is a homogeneous array.
type Array struct {
	intern.Ident
	elem Ty
}

var arrays = intern.NewTable[Array]("ty.array")

// NewArray returns the array type with elements of type elem.
func NewArray(elem Ty) *Array { return arrays.Intern(Array{elem: elem}) }

// Elem returns the element type.
func (a *Array) Elem() Ty { return a.elem }

func (a *Array) AppendKey(b []byte) []byte { return appendTy(b, a.elem) }

func (*Array) rank() int { return rankArray }

func (a *Array) String() string { return "Array<" + a.elem.String() + ">" }

// Field is a named member of a record or a named parameter.
type Field struct {
	Name string
	Ty   Ty
}

// Record is a dictionary with known keys.
type Record struct {
	intern.Ident
	fields []Field
}

var records = intern.NewTable[Record]("ty.record")

// NewRecord returns the record type with the given fields, in order.
func NewRecord(fields ...Field) *Record {
	return records.Intern(Record{fields: slices.Clone(fields)})
}

// Fields returns the record fields. The slice must not be modified.
func (r *Record) Fields() []Field { return r.fields }

// Field looks up a field type by name.
func (r *Record) Field(name string) (Ty, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Ty, true
		}
	}
	return nil, false
}

func (r *Record) AppendKey(b []byte) []byte { return appendFields(b, r.fields) }

func (*Record) rank() int { return rankRecord }

func (r *Record) String() string { return "{" + joinFields(r.fields, Ty.String) + "}" }

// Sig is a function signature. Rest and Body may be nil.
type Sig struct {
	intern.Ident
	inputs []Ty
	named  []Field
	rest   Ty
	body   Ty
}

var sigs = intern.NewTable[Sig]("ty.sig")

// NewSig returns a signature with positional inputs, named parameters, an
// optional rest parameter and an optional return type.
func NewSig(inputs []Ty, named []Field, rest, body Ty) *Sig {
	return sigs.Intern(Sig{inputs: slices.Clone(inputs), named: slices.Clone(named), rest: rest, body: body})
}

func (s *Sig) Inputs() []Ty   { return s.inputs }
func (s *Sig) Named() []Field { return s.named }
func (s *Sig) Rest() Ty       { return s.rest }
func (s *Sig) Body() Ty       { return s.body }

func (s *Sig) AppendKey(b []byte) []byte {
	b = intern.AppendUint(b, uint64(len(s.inputs)))
	for _, t := range s.inputs {
		b = appendTy(b, t)
	}
	b = appendFields(b, s.named)
	b = appendTy(b, s.rest)
	return appendTy(b, s.body)
}

func (*Sig) rank() int { return rankSig }

func (s *Sig) String() string {
	var parts []string
	for _, t := range s.inputs {
		parts = append(parts, t.String())
	}
	if len(s.named) > 0 {
		parts = append(parts, joinFields(s.named, Ty.String))
	}
	if s.rest != nil {
		parts = append(parts, ".."+s.rest.String())
	}
	out := "Sig(" + strings.Join(parts, ", ") + ")"
	if s.body != nil {
		out += " => " + s.body.String()
	}
	return out
}

// Select is the type of field of base.
type Select struct {
	intern.Ident
	base  Ty
	field string
}

var selects = intern.NewTable[Select]("ty.select")

// NewSelect returns the type of base.field.
func NewSelect(base Ty, field string) *Select {
	return selects.Intern(Select{base: base, field: field})
}

func (s *Select) Base() Ty      { return s.base }
func (s *Select) Field() string { return s.field }

func (s *Select) AppendKey(b []byte) []byte {
	b = appendTy(b, s.base)
	return intern.AppendString(b, s.field)
}

func (*Select) rank() int { return rankSelect }

func (s *Select) String() string { return s.base.String() + "." + s.field }

// TypeVar is a named type variable introduced by def.
type TypeVar struct {
	intern.Ident
	name string
	def  *decl.Decl
}

var vars = intern.NewTable[TypeVar]("ty.var")

// NewTypeVar returns the type variable name defined at def.
func NewTypeVar(name string, def *decl.Decl) *TypeVar {
	return vars.Intern(TypeVar{name: name, def: def})
}

func (v *TypeVar) Name() string    { return v.name }
func (v *TypeVar) Def() *decl.Decl { return v.def }

func (v *TypeVar) AppendKey(b []byte) []byte {
	b = intern.AppendString(b, v.name)
	return intern.AppendUint(b, v.def.ID())
}

func (*TypeVar) rank() int { return rankVar }

func (v *TypeVar) String() string { return "@" + v.name }

func appendFields(b []byte, fields []Field) []byte {
	b = intern.AppendUint(b, uint64(len(fields)))
	for _, f := range fields {
		b = intern.AppendString(b, f.Name)
		b = appendTy(b, f.Ty)
	}
	return b
}

func joinFields(fields []Field, str func(Ty) string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + ": " + str(f.Ty)
	}
	return strings.Join(parts, ", ")
}

// AppendKey appends the interning key of t, for types embedded in other
// interned values.
func AppendKey(b []byte, t Ty) []byte { return appendTy(b, t) }

// appendTy encodes a child type. Interned children are identified by their
// intern id, which is equivalent to structural identity.
func appendTy(b []byte, t Ty) []byte {
	if t == nil {
		return intern.AppendTag(b, 0xff)
	}
	b = intern.AppendTag(b, byte(t.rank()))
	switch t := t.(type) {
	case Any, Never:
		return b
	case Boolean:
		b = intern.AppendBool(b, t.Known)
		return intern.AppendBool(b, t.Value)
	case Builtin:
		return t.appendKey(b)
	case *Value:
		return intern.AppendUint(b, t.ID())
	case *Union:
		return intern.AppendUint(b, t.ID())
	case *Array:
		return intern.AppendUint(b, t.ID())
	case *Record:
		return intern.AppendUint(b, t.ID())
	case *Sig:
		return intern.AppendUint(b, t.ID())
	case *Select:
		return intern.AppendUint(b, t.ID())
	case *TypeVar:
		return intern.AppendUint(b, t.ID())
	}
	panic(fmt.Sprintf("ty: unknown type %T", t))
}

// appendHostValue encodes the identity of a host value. Reference values
// (functions, modules) are identified by address.
func appendHostValue(b []byte, v host.Value) []byte {
	switch v := v.(type) {
	case nil:
		return intern.AppendTag(b, 0)
	case host.TypeValue:
		b = intern.AppendTag(b, 1)
		return intern.AppendUint(b, v.T.ID())
	case *host.Func, *host.Module:
		b = intern.AppendTag(b, 2)
		return intern.AppendString(b, fmt.Sprintf("%p", v))
	}
	b = intern.AppendTag(b, 3)
	b = intern.AppendUint(b, v.Type().ID())
	return intern.AppendString(b, v.Repr())
}

// Compare is a deterministic total order over types. It does not depend on
// interning order, so canonical unions print the same in every process.
func Compare(a, b Ty) int {
	if a == b {
		return 0
	}
	if a == nil || b == nil {
		if a == nil {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.rank(), b.rank()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case Boolean:
		b := b.(Boolean)
		if c := compareBool(a.Known, b.Known); c != 0 {
			return c
		}
		return compareBool(a.Value, b.Value)
	case Builtin:
		return a.Compare(b.(Builtin))
	case *Value:
		b := b.(*Value)
		if c := compareHostValue(a.val, b.val); c != 0 {
			return c
		}
		return cmp.Compare(a.doc, b.doc)
	case *Union:
		return compareSlices(a.types, b.(*Union).types)
	case *Array:
		return Compare(a.elem, b.(*Array).elem)
	case *Record:
		return compareFields(a.fields, b.(*Record).fields)
	case *Sig:
		b := b.(*Sig)
		if c := compareSlices(a.inputs, b.inputs); c != 0 {
			return c
		}
		if c := compareFields(a.named, b.named); c != 0 {
			return c
		}
		if c := Compare(a.rest, b.rest); c != 0 {
			return c
		}
		return Compare(a.body, b.body)
	case *Select:
		b := b.(*Select)
		if c := Compare(a.base, b.base); c != 0 {
			return c
		}
		return cmp.Compare(a.field, b.field)
	case *TypeVar:
		b := b.(*TypeVar)
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		return compareDecl(a.def, b.def)
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareSlices(a, b []Ty) int {
	return slices.CompareFunc(a, b, Compare)
}

func compareFields(a, b []Field) int {
	return slices.CompareFunc(a, b, func(x, y Field) int {
		if c := cmp.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return Compare(x.Ty, y.Ty)
	})
}

func compareHostValue(a, b host.Value) int {
	if c := cmp.Compare(a.Type().Name(), b.Type().Name()); c != 0 {
		return c
	}
	return cmp.Compare(a.Repr(), b.Repr())
}

func compareDecl(a, b *decl.Decl) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.StrictCompare(b)
}
