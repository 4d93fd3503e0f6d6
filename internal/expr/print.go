package expr

import (
	"strings"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/ty"
)

var unarySymbols = [...]string{
	OpPos:          "+",
	OpNeg:          "-",
	OpNot:          "not ",
	OpReturn:       "return ",
	OpContext:      "context ",
	OpSpread:       "..",
	OpNotElementOf: "not in ",
	OpElementOf:    "in ",
	OpTypeOf:       "type(",
}

// Print renders e as an indented tree. The output depends only on the
// structure of e, never on spans or interning order.
func Print(e Expr) string {
	p := printer{}
	p.expr(e)
	return p.String()
}

type printer struct {
	strings.Builder
	indent int
}

func (p *printer) line() {
	p.WriteByte('\n')
	p.WriteString(strings.Repeat("  ", p.indent))
}

func (p *printer) decl(d *decl.Decl) {
	if d == nil {
		p.WriteString("_")
		return
	}
	p.WriteString(d.Tag().String())
	p.WriteByte('(')
	switch {
	case d.Tag() == decl.TagGenerated:
		p.WriteString("generated")
	case d.Name() == "":
		p.WriteString("..")
	default:
		p.WriteString(d.Name())
	}
	p.WriteByte(')')
}

func (p *printer) ty(t ty.Ty) {
	if t == nil {
		p.WriteString("_")
		return
	}
	p.WriteString(t.String())
}

func (p *printer) exprs(es []Expr, sep string) {
	for i, e := range es {
		if i > 0 {
			p.WriteString(sep)
		}
		p.expr(e)
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case nil:
		p.WriteString("none")
	case *Block:
		p.WriteString("{")
		p.indent++
		for _, item := range e.Items {
			p.line()
			p.expr(item)
		}
		p.indent--
		p.line()
		p.WriteString("}")
	case *Args:
		p.args(e)
	case *Pattern:
		p.pattern(e)
	case *Element:
		p.WriteString("elem(")
		p.WriteString(e.Elem.Name())
		if len(e.Content) > 0 {
			p.WriteString(", ")
			p.exprs(e.Content, ", ")
		}
		p.WriteString(")")
	case *Unary:
		p.WriteString(unarySymbols[e.Op])
		p.expr(e.Lhs)
		if e.Op == OpTypeOf {
			p.WriteString(")")
		}
	case *Binary:
		p.expr(e.Lhs)
		p.WriteString(" " + e.Op.Symbol() + " ")
		p.expr(e.Rhs)
	case *Apply:
		p.expr(e.Callee)
		p.expr(e.Args)
	case *Func:
		p.WriteString("func[")
		p.decl(e.Decl)
		p.WriteString("]")
		p.sig(e.Params)
		p.WriteString(" = ")
		p.expr(e.Body)
	case *Let:
		p.WriteString("let ")
		p.pattern(e.Pattern)
		if e.Body != nil {
			p.WriteString(" = ")
			p.expr(e.Body)
		}
	case *Show:
		p.WriteString("show ")
		if e.Selector != nil {
			p.expr(e.Selector)
		}
		p.WriteString(": ")
		p.expr(e.Edit)
	case *Set:
		p.WriteString("set ")
		p.expr(e.Target)
		p.expr(e.Args)
		if e.Cond != nil {
			p.WriteString(" if ")
			p.expr(e.Cond)
		}
	case *Ref:
		p.WriteString("ref(")
		p.decl(e.Decl)
		if e.Step != nil {
			p.WriteString(", step = ")
			p.expr(e.Step)
		}
		if e.Root != nil {
			p.WriteString(", root = ")
			p.expr(e.Root)
		}
		if e.Term != nil {
			p.WriteString(", val = ")
			p.ty(e.Term)
		}
		p.WriteString(")")
	case *ContentRef:
		p.WriteString("@")
		p.decl(e.Use)
		if e.Of != nil {
			p.WriteString(":")
			p.decl(e.Of)
		}
		if e.Body != nil {
			p.WriteString("[")
			p.expr(e.Body)
			p.WriteString("]")
		}
	case *Select:
		p.expr(e.Lhs)
		p.WriteString(".")
		p.decl(e.Key)
	case *Import:
		p.WriteString("import(")
		p.expr(e.Decl)
		p.WriteString(")")
	case *Include:
		p.WriteString("include(")
		p.expr(e.Source)
		p.WriteString(")")
	case *Contextual:
		p.WriteString("context(")
		p.expr(e.Body)
		p.WriteString(")")
	case *Conditional:
		p.WriteString("if(")
		p.expr(e.Cond)
		p.WriteString(", then = ")
		p.expr(e.Then)
		if e.Else != nil {
			p.WriteString(", else = ")
			p.expr(e.Else)
		}
		p.WriteString(")")
	case *While:
		p.WriteString("while(")
		p.expr(e.Cond)
		p.WriteString(", ")
		p.expr(e.Body)
		p.WriteString(")")
	case *For:
		p.WriteString("for(")
		p.pattern(e.Pattern)
		p.WriteString(", in = ")
		p.expr(e.Iter)
		p.WriteString(", ")
		p.expr(e.Body)
		p.WriteString(")")
	case *Type:
		p.ty(e.Ty)
	case *Decl:
		p.decl(e.Decl)
	case Star:
		p.WriteString("*")
	}
}

func (p *printer) args(e *Args) {
	switch e.Of {
	case ArgsArray:
		p.WriteString("(")
	case ArgsDict:
		p.WriteString("(:")
		if len(e.Args) > 0 {
			p.WriteString(" ")
		}
	case ArgsCall:
		p.WriteString("(")
	}
	for i, a := range e.Args {
		if i > 0 {
			p.WriteString(", ")
		}
		switch a.Kind {
		case ArgPos:
			p.expr(a.Value)
		case ArgNamed:
			p.decl(a.Name)
			p.WriteString(": ")
			p.expr(a.Value)
		case ArgNamedRt:
			p.expr(a.Key)
			p.WriteString(": ")
			p.expr(a.Value)
		case ArgSpread:
			p.WriteString("..")
			p.expr(a.Value)
		}
	}
	if e.Of == ArgsArray && len(e.Args) == 1 {
		p.WriteString(",")
	}
	p.WriteString(")")
}

func (p *printer) pattern(pat *Pattern) {
	if pat == nil {
		p.WriteString("_")
		return
	}
	switch pat.Of {
	case PatExpr:
		p.expr(pat.Expr)
	case PatSimple:
		p.decl(pat.Simple)
	case PatSig:
		p.sig(pat.Sig)
	}
}

func (p *printer) sig(s PatternSig) {
	p.WriteString("pat(")
	first := true
	sep := func() {
		if !first {
			p.WriteString(", ")
		}
		first = false
	}
	if s.SpreadLeft != nil {
		sep()
		p.named("..", s.SpreadLeft)
	}
	for _, pos := range s.Pos {
		sep()
		p.pattern(pos)
	}
	for i := range s.Named {
		sep()
		p.named("", &s.Named[i])
	}
	if s.SpreadRight != nil {
		sep()
		p.named("..", s.SpreadRight)
	}
	p.WriteString(")")
}

func (p *printer) named(prefix string, n *NamedPattern) {
	p.WriteString(prefix)
	p.decl(n.Decl)
	p.WriteString(": ")
	p.pattern(n.Pattern)
}

// Describe renders e as a short, single line label for hover text. Long
// subexpressions are elided.
func Describe(e Expr) string {
	var b strings.Builder
	describe(&b, e, 0)
	return b.String()
}

const describeDepth = 3

func describe(b *strings.Builder, e Expr, depth int) {
	if depth > describeDepth {
		b.WriteString("..")
		return
	}
	switch e := e.(type) {
	case nil:
		b.WriteString("none")
	case *Decl:
		describeDecl(b, e.Decl)
	case *Ref:
		switch {
		case e.Root != nil && e.Root != Expr(DeclOf(e.Decl)):
			describe(b, e.Root, depth+1)
		case e.Term != nil:
			b.WriteString(ty.Describe(e.Term))
		default:
			describeDecl(b, e.Decl)
		}
	case *Select:
		describe(b, e.Lhs, depth+1)
		b.WriteString(".")
		b.WriteString(e.Key.Name())
	case *Apply:
		describe(b, e.Callee, depth+1)
		b.WriteString("(..)")
	case *Func:
		b.WriteString("(")
		var params []string
		for _, d := range SigPattern(e.Params).Bindings() {
			params = append(params, d.Name())
		}
		b.WriteString(strings.Join(params, ", "))
		b.WriteString(") => ..")
	case *Type:
		b.WriteString(ty.Describe(e.Ty))
	case *Pattern:
		if e.Of == PatSimple {
			describeDecl(b, e.Simple)
			return
		}
		b.WriteString("pattern")
	case *Block:
		b.WriteString("{ .. }")
	case *Args:
		b.WriteString(map[ArgsKind]string{ArgsArray: "array", ArgsDict: "dictionary", ArgsCall: "arguments"}[e.Of])
	case *Element:
		b.WriteString(e.Elem.Name())
	case *ContentRef:
		b.WriteString("@" + e.Use.Name())
	case *Import:
		b.WriteString("import ")
		describeDecl(b, e.Decl.Decl)
	case *Include:
		b.WriteString("include")
	case Star:
		b.WriteString("*")
	default:
		b.WriteString(Print(e))
	}
}

func describeDecl(b *strings.Builder, d *decl.Decl) {
	if d.Name() != "" {
		b.WriteString(d.Name())
		return
	}
	b.WriteString(d.Kind().String())
}
