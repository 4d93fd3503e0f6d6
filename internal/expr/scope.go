package expr

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/benbjohnson/immutable"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/ty"
)

type nameComparer struct{}

func (nameComparer) Compare(a, b string) int { return strings.Compare(a, b) }

// LexicalScope is a persistent name to Expr map ordered by name. Insert
// returns a new version and leaves the receiver untouched, so old versions
// stay valid for concurrent readers. The zero value is an empty scope.
type LexicalScope struct {
	m *immutable.SortedMap[string, Expr]
}

// NewLexicalScope returns an empty scope.
func NewLexicalScope() LexicalScope { return LexicalScope{} }

// Lookup returns the expression bound to name.
func (s LexicalScope) Lookup(name string) (Expr, bool) {
	if s.m == nil {
		return nil, false
	}
	return s.m.Get(name)
}

// Insert returns a version of s with name bound to e.
func (s LexicalScope) Insert(name string, e Expr) LexicalScope {
	m := s.m
	if m == nil {
		m = immutable.NewSortedMap[string, Expr](nameComparer{})
	}
	return LexicalScope{m: m.Set(name, e)}
}

// Len returns the number of bindings.
func (s LexicalScope) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// All iterates bindings in name order.
func (s LexicalScope) All() iter.Seq2[string, Expr] {
	return func(yield func(string, Expr) bool) {
		if s.m == nil {
			return
		}
		itr := s.m.Iterator()
		for !itr.Done() {
			name, e, _ := itr.Next()
			if !yield(name, e) {
				return
			}
		}
	}
}

// ExprScope is a scope names can be resolved in: a lexical scope of the
// analyzed source or a scope owned by the host runtime.
type ExprScope interface {
	// Get resolves name. Lexical scopes answer with an expression, host
	// scopes with the value's type.
	Get(name string) (Expr, ty.Ty)
	// MergeInto binds every member of the scope into exports and returns
	// the new version. Host members become field selections on the owner.
	MergeInto(exports LexicalScope) LexicalScope
	IsEmpty() bool
}

var (
	_ ExprScope = LexicalScope{}
	_ ExprScope = ModuleScope{}
	_ ExprScope = FuncScope{}
	_ ExprScope = TypeScope{}
)

func (s LexicalScope) Get(name string) (Expr, ty.Ty) {
	slog.Debug("scope lookup", "name", name, "scope", "lexical", "size", s.Len())
	e, _ := s.Lookup(name)
	return e, nil
}

func (s LexicalScope) MergeInto(exports LexicalScope) LexicalScope {
	for name, e := range s.All() {
		exports = exports.Insert(name, e)
	}
	return exports
}

func (s LexicalScope) IsEmpty() bool { return s.Len() == 0 }

// ModuleScope resolves names in a host module.
type ModuleScope struct {
	Module *host.Module
}

func (s ModuleScope) Get(name string) (Expr, ty.Ty) {
	slog.Debug("scope lookup", "name", name, "module", s.Module.Name())
	return nil, hostMember(s.Module.Scope(), name)
}

func (s ModuleScope) MergeInto(exports LexicalScope) LexicalScope {
	slog.Debug("star import", "module", s.Module.Name(), "members", s.Module.Scope().Len())
	return mergeHost(exports, s.Module, s.Module.Scope())
}

func (s ModuleScope) IsEmpty() bool { return s.Module.Scope().Len() == 0 }

// FuncScope resolves names in the scope attached to a host function, such
// as the variants of a figure kind.
type FuncScope struct {
	Func *host.Func
}

func (s FuncScope) Get(name string) (Expr, ty.Ty) {
	scope, _ := s.Func.Scope()
	slog.Debug("scope lookup", "name", name, "func", s.Func.Name())
	return nil, hostMember(scope, name)
}

func (s FuncScope) MergeInto(exports LexicalScope) LexicalScope {
	scope, ok := s.Func.Scope()
	if !ok {
		return exports
	}
	return mergeHost(exports, s.Func, scope)
}

func (s FuncScope) IsEmpty() bool {
	scope, _ := s.Func.Scope()
	return scope.Len() == 0
}

// TypeScope resolves names in the scope of a host type, such as str.
type TypeScope struct {
	Type host.Type
}

func (s TypeScope) Get(name string) (Expr, ty.Ty) {
	slog.Debug("scope lookup", "name", name, "type", s.Type.Name())
	return nil, hostMember(s.Type.Scope(), name)
}

func (s TypeScope) MergeInto(exports LexicalScope) LexicalScope {
	return mergeHost(exports, host.TypeValue{T: s.Type}, s.Type.Scope())
}

func (s TypeScope) IsEmpty() bool { return s.Type.Scope().Len() == 0 }

func hostMember(scope *host.Scope, name string) ty.Ty {
	v, ok := scope.Get(name)
	if !ok {
		return nil
	}
	return ty.NewValue(v)
}

func mergeHost(exports LexicalScope, owner host.Value, scope *host.Scope) LexicalScope {
	base := ty.NewValue(owner)
	for name := range scope.All() {
		exports = exports.Insert(name, SelectOf(base, name))
	}
	return exports
}

// SelectOf returns the expression naming member name of a host value
// without materializing it.
func SelectOf(base ty.Ty, name string) *Type {
	return TypeOf(ty.NewSelect(base, name))
}

// ScopeOf wraps a host value that owns a scope. ok is false for values
// without one.
func ScopeOf(v host.Value) (ExprScope, bool) {
	switch v := v.(type) {
	case *host.Module:
		return ModuleScope{Module: v}, true
	case *host.Func:
		return FuncScope{Func: v}, true
	case host.TypeValue:
		return TypeScope{Type: v.T}, true
	}
	return nil, false
}

// exportOf reports whether e exports d: either directly or through a
// reference whose root is d.
func exportOf(e Expr, d *decl.Decl) bool {
	of := DeclOf(d)
	if r, ok := e.(*Ref); ok {
		return r.Root == Expr(of)
	}
	return e == Expr(of)
}
