// Package expr is the resolved expression IR of a source file.
//
// Every node is interned, so structurally equal subtrees share one
// allocation and two nodes are equal iff they are the same pointer. Nodes
// are immutable once built; their exported fields must not be modified.
package expr

import (
	"slices"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/host"
	"github.com/phobologic/typguide/internal/intern"
	"github.com/phobologic/typguide/internal/source"
	"github.com/phobologic/typguide/internal/ty"
)

// Kind identifies the variant of an Expr.
type Kind uint8

const (
	KindBlock Kind = iota + 1
	KindArgs
	KindPattern
	KindElement
	KindUnary
	KindBinary
	KindApply
	KindFunc
	KindLet
	KindShow
	KindSet
	KindRef
	KindContentRef
	KindSelect
	KindImport
	KindInclude
	KindContextual
	KindConditional
	KindWhile
	KindFor
	KindType
	KindDecl
	KindStar
)

// Expr is a node of the IR. The set of implementations is closed.
type Expr interface {
	// ID is the interning identity, 0 for Star.
	ID() uint64
	// Span is the syntax node the expression was lowered from. Only
	// declarations, applications and field selections carry one.
	Span() source.Span
	Kind() Kind
	String() string
}

// FileID returns the file an expression belongs to, if known.
func FileID(e Expr) (source.FileID, bool) {
	if d, ok := e.(*Decl); ok {
		return d.Decl.FileID()
	}
	if e == nil || e.Span().IsDetached() {
		return source.FileID{}, false
	}
	return e.Span().File(), true
}

func appendExpr(b []byte, e Expr) []byte {
	if e == nil {
		return intern.AppendTag(b, 0)
	}
	b = intern.AppendTag(b, byte(e.Kind()))
	return intern.AppendUint(b, e.ID())
}

func appendExprs(b []byte, es []Expr) []byte {
	b = intern.AppendUint(b, uint64(len(es)))
	for _, e := range es {
		b = appendExpr(b, e)
	}
	return b
}

func appendDecl(b []byte, d *decl.Decl) []byte { return intern.AppendUint(b, d.ID()) }

func appendSpan(b []byte, s source.Span) []byte {
	b = intern.AppendUint(b, s.File().UID())
	return intern.AppendUint(b, s.Number())
}

// detached is embedded by variants without a span of their own.
type detached struct{}

func (detached) Span() source.Span { return source.Detached() }

// Block is a sequence of expressions.
type Block struct {
	intern.Ident
	detached
	Items []Expr
}

var blocks = intern.NewTable[Block]("expr.block")

func NewBlock(items ...Expr) *Block { return blocks.Intern(Block{Items: slices.Clone(items)}) }

func (e *Block) AppendKey(b []byte) []byte { return appendExprs(b, e.Items) }
func (*Block) Kind() Kind                  { return KindBlock }
func (e *Block) String() string            { return Print(e) }

// ArgsKind distinguishes the three argument list literals.
type ArgsKind uint8

const (
	ArgsArray ArgsKind = iota
	ArgsDict
	ArgsCall
)

// ArgKind is the shape of a single argument.
type ArgKind uint8

const (
	// ArgPos is a positional argument.
	ArgPos ArgKind = iota
	// ArgNamed is a named argument with a literal name.
	ArgNamed
	// ArgNamedRt is a dictionary entry whose key is computed at runtime.
	ArgNamedRt
	// ArgSpread is `..value`.
	ArgSpread
)

// Arg is one argument. Name is set for ArgNamed, Key for ArgNamedRt.
type Arg struct {
	Kind  ArgKind
	Name  *decl.Decl
	Key   Expr
	Value Expr
}

func PosArg(v Expr) Arg                    { return Arg{Kind: ArgPos, Value: v} }
func NamedArg(name *decl.Decl, v Expr) Arg { return Arg{Kind: ArgNamed, Name: name, Value: v} }
func NamedRtArg(key, v Expr) Arg           { return Arg{Kind: ArgNamedRt, Key: key, Value: v} }
func SpreadArg(v Expr) Arg                 { return Arg{Kind: ArgSpread, Value: v} }

// Args is an array, dictionary or call argument literal.
type Args struct {
	intern.Ident
	detached
	Of   ArgsKind
	Args []Arg
	At   source.Span
}

var argLists = intern.NewTable[Args]("expr.args")

func NewArgs(kind ArgsKind, at source.Span, args ...Arg) *Args {
	return argLists.Intern(Args{Of: kind, Args: slices.Clone(args), At: at})
}

func (e *Args) AppendKey(b []byte) []byte {
	b = intern.AppendTag(b, byte(e.Of))
	b = appendSpan(b, e.At)
	b = intern.AppendUint(b, uint64(len(e.Args)))
	for _, a := range e.Args {
		b = intern.AppendTag(b, byte(a.Kind))
		b = appendDecl(b, a.Name)
		b = appendExpr(b, a.Key)
		b = appendExpr(b, a.Value)
	}
	return b
}
func (*Args) Kind() Kind       { return KindArgs }
func (e *Args) String() string { return Print(e) }

// Element is an element literal such as markup emphasis.
type Element struct {
	intern.Ident
	detached
	Elem    host.Element
	Content []Expr
}

var elements = intern.NewTable[Element]("expr.element")

func NewElement(elem host.Element, content ...Expr) *Element {
	return elements.Intern(Element{Elem: elem, Content: slices.Clone(content)})
}

func (e *Element) AppendKey(b []byte) []byte {
	b = intern.AppendUint(b, e.Elem.ID())
	return appendExprs(b, e.Content)
}
func (*Element) Kind() Kind       { return KindElement }
func (e *Element) String() string { return Print(e) }

// UnaryOp is the operator of a Unary expression.
type UnaryOp uint8

const (
	OpPos UnaryOp = iota
	OpNeg
	OpNot
	OpReturn
	OpContext
	OpSpread
	OpNotElementOf
	OpElementOf
	OpTypeOf
)

// Unary is a unary operation.
type Unary struct {
	intern.Ident
	detached
	Op  UnaryOp
	Lhs Expr
}

var unaries = intern.NewTable[Unary]("expr.unary")

func NewUnary(op UnaryOp, lhs Expr) *Unary { return unaries.Intern(Unary{Op: op, Lhs: lhs}) }

func (e *Unary) AppendKey(b []byte) []byte {
	return appendExpr(intern.AppendTag(b, byte(e.Op)), e.Lhs)
}
func (*Unary) Kind() Kind       { return KindUnary }
func (e *Unary) String() string { return Print(e) }

// BinaryOp is the operator of a Binary expression.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
	OpAssign
	OpIn
	OpNotIn
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
)

var binarySymbols = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpAnd: "and", OpOr: "or",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLeq: "<=", OpGt: ">", OpGeq: ">=",
	OpAssign: "=", OpIn: "in", OpNotIn: "not in",
	OpAddAssign: "+=", OpSubAssign: "-=", OpMulAssign: "*=", OpDivAssign: "/=",
}

// Symbol returns the operator as written in source.
func (op BinaryOp) Symbol() string {
	if int(op) < len(binarySymbols) {
		return binarySymbols[op]
	}
	return "?"
}

// BinaryOpFromSymbol maps source text to an operator.
func BinaryOpFromSymbol(s string) (BinaryOp, bool) {
	for i, sym := range binarySymbols {
		if sym == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// Binary is a binary operation.
type Binary struct {
	intern.Ident
	detached
	Op       BinaryOp
	Lhs, Rhs Expr
}

var binaries = intern.NewTable[Binary]("expr.binary")

func NewBinary(op BinaryOp, lhs, rhs Expr) *Binary {
	return binaries.Intern(Binary{Op: op, Lhs: lhs, Rhs: rhs})
}

func (e *Binary) AppendKey(b []byte) []byte {
	b = intern.AppendTag(b, byte(e.Op))
	b = appendExpr(b, e.Lhs)
	return appendExpr(b, e.Rhs)
}
func (*Binary) Kind() Kind       { return KindBinary }
func (e *Binary) String() string { return Print(e) }

// Apply is a function call.
type Apply struct {
	intern.Ident
	Callee Expr
	Args   Expr
	At     source.Span
}

var applies = intern.NewTable[Apply]("expr.apply")

func NewApply(callee, args Expr, at source.Span) *Apply {
	return applies.Intern(Apply{Callee: callee, Args: args, At: at})
}

func (e *Apply) AppendKey(b []byte) []byte {
	b = appendExpr(b, e.Callee)
	b = appendExpr(b, e.Args)
	return appendSpan(b, e.At)
}
func (e *Apply) Span() source.Span { return e.At }
func (*Apply) Kind() Kind          { return KindApply }
func (e *Apply) String() string    { return Print(e) }

// Func is a function literal, named or anonymous.
type Func struct {
	intern.Ident
	detached
	Decl   *decl.Decl
	Params PatternSig
	Body   Expr
}

var funcs = intern.NewTable[Func]("expr.func")

func NewFunc(d *decl.Decl, params PatternSig, body Expr) *Func {
	return funcs.Intern(Func{Decl: d, Params: params.clone(), Body: body})
}

func (e *Func) AppendKey(b []byte) []byte {
	b = appendDecl(b, e.Decl)
	b = e.Params.appendKey(b)
	return appendExpr(b, e.Body)
}
func (*Func) Kind() Kind       { return KindFunc }
func (e *Func) String() string { return Print(e) }

// Let is a let binding. At is the span of the pattern.
type Let struct {
	intern.Ident
	detached
	At      source.Span
	Pattern *Pattern
	Body    Expr
}

var lets = intern.NewTable[Let]("expr.let")

func NewLet(at source.Span, p *Pattern, body Expr) *Let {
	return lets.Intern(Let{At: at, Pattern: p, Body: body})
}

func (e *Let) AppendKey(b []byte) []byte {
	b = appendSpan(b, e.At)
	b = appendPattern(b, e.Pattern)
	return appendExpr(b, e.Body)
}
func (*Let) Kind() Kind       { return KindLet }
func (e *Let) String() string { return Print(e) }

// Show is a show rule. Selector is nil for `show: edit`.
type Show struct {
	intern.Ident
	detached
	Selector Expr
	Edit     Expr
}

var shows = intern.NewTable[Show]("expr.show")

func NewShow(selector, edit Expr) *Show { return shows.Intern(Show{Selector: selector, Edit: edit}) }

func (e *Show) AppendKey(b []byte) []byte {
	return appendExpr(appendExpr(b, e.Selector), e.Edit)
}
func (*Show) Kind() Kind       { return KindShow }
func (e *Show) String() string { return Print(e) }

// Set is a set rule with an optional condition.
type Set struct {
	intern.Ident
	detached
	Target Expr
	Args   Expr
	Cond   Expr
}

var sets = intern.NewTable[Set]("expr.set")

func NewSet(target, args, cond Expr) *Set {
	return sets.Intern(Set{Target: target, Args: args, Cond: cond})
}

func (e *Set) AppendKey(b []byte) []byte {
	b = appendExpr(b, e.Target)
	b = appendExpr(b, e.Args)
	return appendExpr(b, e.Cond)
}
func (*Set) Kind() Kind       { return KindSet }
func (e *Set) String() string { return Print(e) }

// Ref records the resolution of a name. Step is what the name refers to
// directly, Root the definition reached by following steps to the end.
// Step, Root and Term may each be nil.
type Ref struct {
	intern.Ident
	detached
	Decl *decl.Decl
	Step Expr
	Root Expr
	Term ty.Ty
}

var refs = intern.NewTable[Ref]("expr.ref")

func NewRef(d *decl.Decl, step, root Expr, term ty.Ty) *Ref {
	return refs.Intern(Ref{Decl: d, Step: step, Root: root, Term: term})
}

// AsDef returns the reference of a definition to itself: both Step and Root
// are the declaration's own expression.
func AsDef(d *decl.Decl, term ty.Ty) *Ref {
	self := DeclOf(d)
	return NewRef(d, self, self, term)
}

func (e *Ref) AppendKey(b []byte) []byte {
	b = appendDecl(b, e.Decl)
	b = appendExpr(b, e.Step)
	b = appendExpr(b, e.Root)
	return ty.AppendKey(b, e.Term)
}
func (*Ref) Kind() Kind       { return KindRef }
func (e *Ref) String() string { return Print(e) }

// ContentRef is a `@name` reference, optionally with a supplement body.
type ContentRef struct {
	intern.Ident
	detached
	Use  *decl.Decl
	Of   *decl.Decl
	Body Expr
}

var contentRefs = intern.NewTable[ContentRef]("expr.contentref")

func NewContentRef(use, of *decl.Decl, body Expr) *ContentRef {
	return contentRefs.Intern(ContentRef{Use: use, Of: of, Body: body})
}

func (e *ContentRef) AppendKey(b []byte) []byte {
	b = appendDecl(b, e.Use)
	b = appendDecl(b, e.Of)
	return appendExpr(b, e.Body)
}
func (*ContentRef) Kind() Kind       { return KindContentRef }
func (e *ContentRef) String() string { return Print(e) }

// Select is a field access `lhs.key`.
type Select struct {
	intern.Ident
	Lhs Expr
	Key *decl.Decl
	At  source.Span
}

var selects = intern.NewTable[Select]("expr.select")

func NewSelect(lhs Expr, key *decl.Decl, at source.Span) *Select {
	return selects.Intern(Select{Lhs: lhs, Key: key, At: at})
}

func (e *Select) AppendKey(b []byte) []byte {
	b = appendExpr(b, e.Lhs)
	b = appendDecl(b, e.Key)
	return appendSpan(b, e.At)
}
func (e *Select) Span() source.Span { return e.At }
func (*Select) Kind() Kind          { return KindSelect }
func (e *Select) String() string    { return Print(e) }

// Import is a module import, resolved through its reference.
type Import struct {
	intern.Ident
	detached
	Decl *Ref
}

var imports = intern.NewTable[Import]("expr.import")

func NewImport(r *Ref) *Import { return imports.Intern(Import{Decl: r}) }

func (e *Import) AppendKey(b []byte) []byte { return appendExpr(b, e.Decl) }
func (*Import) Kind() Kind                  { return KindImport }
func (e *Import) String() string            { return Print(e) }

// Include includes another file's content.
type Include struct {
	intern.Ident
	detached
	Source Expr
}

var includes = intern.NewTable[Include]("expr.include")

func NewInclude(src Expr) *Include { return includes.Intern(Include{Source: src}) }

func (e *Include) AppendKey(b []byte) []byte { return appendExpr(b, e.Source) }
func (*Include) Kind() Kind                  { return KindInclude }
func (e *Include) String() string            { return Print(e) }

// Contextual wraps an expression evaluated with access to context.
type Contextual struct {
	intern.Ident
	detached
	Body Expr
}

var contextuals = intern.NewTable[Contextual]("expr.contextual")

func NewContextual(body Expr) *Contextual { return contextuals.Intern(Contextual{Body: body}) }

func (e *Contextual) AppendKey(b []byte) []byte { return appendExpr(b, e.Body) }
func (*Contextual) Kind() Kind                  { return KindContextual }
func (e *Contextual) String() string            { return Print(e) }

// Conditional is an if expression. Else is nil without an else branch.
type Conditional struct {
	intern.Ident
	detached
	Cond, Then, Else Expr
}

var conditionals = intern.NewTable[Conditional]("expr.conditional")

func NewConditional(cond, then, els Expr) *Conditional {
	return conditionals.Intern(Conditional{Cond: cond, Then: then, Else: els})
}

func (e *Conditional) AppendKey(b []byte) []byte {
	b = appendExpr(b, e.Cond)
	b = appendExpr(b, e.Then)
	return appendExpr(b, e.Else)
}
func (*Conditional) Kind() Kind       { return KindConditional }
func (e *Conditional) String() string { return Print(e) }

// While is a while loop.
type While struct {
	intern.Ident
	detached
	Cond, Body Expr
}

var whiles = intern.NewTable[While]("expr.while")

func NewWhile(cond, body Expr) *While { return whiles.Intern(While{Cond: cond, Body: body}) }

func (e *While) AppendKey(b []byte) []byte { return appendExpr(appendExpr(b, e.Cond), e.Body) }
func (*While) Kind() Kind                  { return KindWhile }
func (e *While) String() string            { return Print(e) }

// For is a for loop.
type For struct {
	intern.Ident
	detached
	Pattern *Pattern
	Iter    Expr
	Body    Expr
}

var fors = intern.NewTable[For]("expr.for")

func NewFor(p *Pattern, iter, body Expr) *For {
	return fors.Intern(For{Pattern: p, Iter: iter, Body: body})
}

func (e *For) AppendKey(b []byte) []byte {
	b = appendPattern(b, e.Pattern)
	b = appendExpr(b, e.Iter)
	return appendExpr(b, e.Body)
}
func (*For) Kind() Kind       { return KindFor }
func (e *For) String() string { return Print(e) }

// Type embeds a type as an expression leaf.
type Type struct {
	intern.Ident
	detached
	Ty ty.Ty
}

var types = intern.NewTable[Type]("expr.type")

func TypeOf(t ty.Ty) *Type { return types.Intern(Type{Ty: t}) }

func (e *Type) AppendKey(b []byte) []byte { return ty.AppendKey(b, e.Ty) }
func (*Type) Kind() Kind                  { return KindType }
func (e *Type) String() string            { return Print(e) }

// Decl is a declaration leaf.
type Decl struct {
	intern.Ident
	Decl *decl.Decl
}

var decls = intern.NewTable[Decl]("expr.decl")

// DeclOf returns the expression form of d.
func DeclOf(d *decl.Decl) *Decl { return decls.Intern(Decl{Decl: d}) }

func (e *Decl) AppendKey(b []byte) []byte { return appendDecl(b, e.Decl) }
func (e *Decl) Span() source.Span         { return e.Decl.Span() }
func (*Decl) Kind() Kind                  { return KindDecl }
func (e *Decl) String() string            { return Print(e) }

// Star marks a wildcard import.
type Star struct{}

func (Star) ID() uint64        { return 0 }
func (Star) Span() source.Span { return source.Detached() }
func (Star) Kind() Kind        { return KindStar }
func (Star) String() string    { return "*" }
