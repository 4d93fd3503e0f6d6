package host

import "strings"

// CastKind enumerates the shapes of a CastInfo.
type CastKind uint8

const (
	CastAny CastKind = iota
	CastValue
	CastType
	CastUnion
)

// CastInfo describes what a parameter accepts or what a function returns.
type CastInfo struct {
	Kind  CastKind
	Value Value
	Doc   string
	Type  Type
	Union []CastInfo
}

// Any accepts anything.
func Any() CastInfo { return CastInfo{Kind: CastAny} }

// Is accepts exactly v. doc explains the value.
func Is(v Value, doc string) CastInfo { return CastInfo{Kind: CastValue, Value: v, Doc: doc} }

// Of accepts any value of type t.
func Of(t Type) CastInfo { return CastInfo{Kind: CastType, Type: t} }

// OneOf accepts any of the alternatives. Alternatives may themselves be unions.
func OneOf(alts ...CastInfo) CastInfo { return CastInfo{Kind: CastUnion, Union: alts} }

func (c CastInfo) String() string {
	switch c.Kind {
	case CastValue:
		return c.Value.Repr()
	case CastType:
		return c.Type.ShortName()
	case CastUnion:
		parts := make([]string, len(c.Union))
		for i, alt := range c.Union {
			parts[i] = alt.String()
		}
		return strings.Join(parts, " | ")
	default:
		return "any"
	}
}

// ParamInfo describes one function parameter.
type ParamInfo struct {
	Name       string
	Docs       string
	Input      CastInfo
	Default    Value
	Positional bool
	Named      bool
	Variadic   bool
	Required   bool
	Settable   bool
}

// FuncKind distinguishes how a function is implemented.
type FuncKind uint8

const (
	FuncNative FuncKind = iota
	FuncElement
	FuncClosure
	FuncPlugin
	FuncWith
)

func (k FuncKind) String() string {
	switch k {
	case FuncNative:
		return "native"
	case FuncElement:
		return "element"
	case FuncClosure:
		return "closure"
	case FuncPlugin:
		return "plugin"
	case FuncWith:
		return "with"
	default:
		return "unknown"
	}
}

// Func is a callable value.
type Func struct {
	kind    FuncKind
	name    string
	docs    string
	params  []ParamInfo
	returns CastInfo
	scope   *Scope
	elem    Element
	wrapped *Func
}

// NewNative declares a native function.
func NewNative(name string, params []ParamInfo, returns CastInfo) *Func {
	return &Func{kind: FuncNative, name: name, params: params, returns: returns}
}

// NewElementFunc declares the constructor function of an element.
func NewElementFunc(elem Element, params []ParamInfo) *Func {
	return &Func{kind: FuncElement, name: elem.Name(), params: params, returns: Of(TypeContent), elem: elem}
}

// NewClosure declares a user-defined function. name may be empty.
func NewClosure(name string, params []ParamInfo) *Func {
	return &Func{kind: FuncClosure, name: name, params: params, returns: Any()}
}

// NewPlugin declares a function exported by a plugin.
func NewPlugin(name string, params []ParamInfo, returns CastInfo) *Func {
	return &Func{kind: FuncPlugin, name: name, params: params, returns: returns}
}

// With returns f with some arguments pre-applied.
func (f *Func) With() *Func {
	return &Func{kind: FuncWith, wrapped: f}
}

// WithScope attaches associated definitions and returns f.
func (f *Func) WithScope(scope *Scope) *Func {
	f.scope = scope
	return f
}

// WithDocs attaches documentation and returns f.
func (f *Func) WithDocs(docs string) *Func {
	f.docs = docs
	return f
}

// Kind returns how f is implemented.
func (f *Func) Kind() FuncKind { return f.kind }

// Name returns the function name, following With wrappers.
func (f *Func) Name() string {
	if f.kind == FuncWith {
		return f.wrapped.Name()
	}
	return f.name
}

// Docs returns the function documentation.
func (f *Func) Docs() string {
	if f.kind == FuncWith {
		return f.wrapped.Docs()
	}
	return f.docs
}

// Params returns the parameters, following With wrappers.
func (f *Func) Params() []ParamInfo {
	if f.kind == FuncWith {
		return f.wrapped.Params()
	}
	return f.params
}

// Param looks up a parameter by name.
func (f *Func) Param(name string) (ParamInfo, bool) {
	for _, p := range f.Params() {
		if p.Name == name {
			return p, true
		}
	}
	return ParamInfo{}, false
}

// Returns describes the return value.
func (f *Func) Returns() CastInfo {
	if f.kind == FuncWith {
		return f.wrapped.Returns()
	}
	return f.returns
}

// Scope returns associated definitions, if any.
func (f *Func) Scope() (*Scope, bool) {
	if f.kind == FuncWith {
		return f.wrapped.Scope()
	}
	return f.scope, f.scope != nil
}

// Element returns the element constructed by an element function.
func (f *Func) Element() (Element, bool) {
	return f.elem, f.kind == FuncElement
}

// Wrapped returns the function inside a With wrapper.
func (f *Func) Wrapped() (*Func, bool) {
	return f.wrapped, f.kind == FuncWith
}

func (f *Func) Type() Type { return TypeFunc }

func (f *Func) Repr() string {
	if name := f.Name(); name != "" {
		return name
	}
	return "(..) => .."
}
