// Package host models the reflection surface of the host runtime: builtin
// types, values, functions, elements and modules. Analysis consults it to
// resolve names that are not defined in user code; it never evaluates.
package host

import (
	"fmt"
	"iter"
	"strconv"
	"sync/atomic"
)

var nextID atomic.Uint64

// Type is a builtin type. Types are compared by identity.
type Type struct {
	t *typeInfo
}

type typeInfo struct {
	id    uint64
	name  string
	short string
	scope *Scope
}

// NewType declares a builtin type. short is the name used in short
// descriptions (e.g. "str" for the string type).
func NewType(name, short string, scope *Scope) Type {
	if scope == nil {
		scope = NewScope()
	}
	return Type{t: &typeInfo{id: nextID.Add(1), name: name, short: short, scope: scope}}
}

// ID returns a process-unique identity for t, or 0 for the zero Type.
func (t Type) ID() uint64 {
	if t.t == nil {
		return 0
	}
	return t.t.id
}

// IsZero reports whether t is the zero Type.
func (t Type) IsZero() bool { return t.t == nil }

// Name returns the long type name.
func (t Type) Name() string {
	if t.t == nil {
		return ""
	}
	return t.t.name
}

// ShortName returns the short type name.
func (t Type) ShortName() string {
	if t.t == nil {
		return ""
	}
	return t.t.short
}

// Scope returns the type's associated definitions.
func (t Type) Scope() *Scope {
	if t.t == nil {
		return NewScope()
	}
	return t.t.scope
}

func (t Type) String() string { return t.ShortName() }

// Well-known types.
var (
	TypeAny      = NewType("any", "any", nil)
	TypeNone     = NewType("none", "none", nil)
	TypeAuto     = NewType("auto", "auto", nil)
	TypeBool     = NewType("boolean", "bool", nil)
	TypeInt      = NewType("integer", "int", nil)
	TypeFloat    = NewType("float", "float", nil)
	TypeStr      = NewType("string", "str", nil)
	TypeBytes    = NewType("bytes", "bytes", nil)
	TypeLength   = NewType("length", "length", nil)
	TypeRatio    = NewType("ratio", "ratio", nil)
	TypeColor    = NewType("color", "color", nil)
	TypeContent  = NewType("content", "content", nil)
	TypeArray    = NewType("array", "array", nil)
	TypeDict     = NewType("dictionary", "dict", nil)
	TypeFunc     = NewType("function", "func", nil)
	TypeModule   = NewType("module", "module", nil)
	TypeType     = NewType("type", "type", nil)
	TypeLabel    = NewType("label", "label", nil)
	TypeLocation = NewType("location", "location", nil)
	TypeRegex    = NewType("regex", "regex", nil)
	TypeDir      = NewType("direction", "direction", nil)
)

// Element is a builtin content element such as heading or rect.
type Element struct {
	e *elementInfo
}

type elementInfo struct {
	id   uint64
	name string
}

// NewElement declares an element.
func NewElement(name string) Element {
	return Element{e: &elementInfo{id: nextID.Add(1), name: name}}
}

// ID returns a process-unique identity for e, or 0 for the zero Element.
func (e Element) ID() uint64 {
	if e.e == nil {
		return 0
	}
	return e.e.id
}

// IsZero reports whether e is the zero Element.
func (e Element) IsZero() bool { return e.e == nil }

// Name returns the element name.
func (e Element) Name() string {
	if e.e == nil {
		return ""
	}
	return e.e.name
}

func (e Element) String() string { return e.Name() }

// Value is a runtime value as seen by analysis.
type Value interface {
	Type() Type
	Repr() string
}

type (
	// Bool is a boolean value.
	Bool bool
	// Int is an integer value.
	Int int64
	// Float is a float value.
	Float float64
	// Str is a string value.
	Str string
	// AutoValue is the auto value.
	AutoValue struct{}
	// NoneValue is the none value.
	NoneValue struct{}
	// Length is a length in points.
	Length float64
	// Color is an RGBA color.
	Color struct{ R, G, B, A uint8 }
	// TypeValue is a type used as a value.
	TypeValue struct{ T Type }
)

func (Bool) Type() Type      { return TypeBool }
func (Int) Type() Type       { return TypeInt }
func (Float) Type() Type     { return TypeFloat }
func (Str) Type() Type       { return TypeStr }
func (AutoValue) Type() Type { return TypeAuto }
func (NoneValue) Type() Type { return TypeNone }
func (Length) Type() Type    { return TypeLength }
func (Color) Type() Type     { return TypeColor }
func (TypeValue) Type() Type { return TypeType }

func (v Bool) Repr() string      { return strconv.FormatBool(bool(v)) }
func (v Int) Repr() string       { return strconv.FormatInt(int64(v), 10) }
func (v Float) Repr() string     { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Str) Repr() string       { return strconv.Quote(string(v)) }
func (AutoValue) Repr() string   { return "auto" }
func (NoneValue) Repr() string   { return "none" }
func (v Length) Repr() string    { return strconv.FormatFloat(float64(v), 'g', -1, 64) + "pt" }
func (v Color) Repr() string     { return fmt.Sprintf("rgb(%d, %d, %d, %d)", v.R, v.G, v.B, v.A) }
func (v TypeValue) Repr() string { return v.T.ShortName() }

// Scope is an ordered name to value mapping. Scopes are built once and
// then only read.
type Scope struct {
	names  []string
	values map[string]Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]Value)}
}

// Define binds name, replacing an earlier binding in place.
func (s *Scope) Define(name string, v Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get looks up name.
func (s *Scope) Get(name string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Len returns the number of bindings.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// All iterates bindings in definition order.
func (s *Scope) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if s == nil {
			return
		}
		for _, name := range s.names {
			if !yield(name, s.values[name]) {
				return
			}
		}
	}
}

// Module is a named scope, such as the standard library or calc.
type Module struct {
	name  string
	scope *Scope
}

// NewModule creates a module.
func NewModule(name string, scope *Scope) *Module {
	if scope == nil {
		scope = NewScope()
	}
	return &Module{name: name, scope: scope}
}

func (m *Module) Name() string   { return m.name }
func (m *Module) Scope() *Scope  { return m.scope }
func (m *Module) Type() Type     { return TypeModule }
func (m *Module) Repr() string   { return "<module " + m.name + ">" }
func (m *Module) String() string { return m.name }
