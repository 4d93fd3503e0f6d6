package expr

import (
	"slices"

	"github.com/phobologic/typguide/internal/decl"
	"github.com/phobologic/typguide/internal/intern"
)

// PatternKind is the shape of a Pattern.
type PatternKind uint8

const (
	// PatExpr binds nothing and matches by value, like `(x.y) = 1`.
	PatExpr PatternKind = iota
	// PatSimple binds a single name.
	PatSimple
	// PatSig destructures into positional, named and spread parts.
	PatSig
)

// Pattern is the left-hand side of a binding or a parameter list.
type Pattern struct {
	intern.Ident
	detached
	Of     PatternKind
	Expr   Expr
	Simple *decl.Decl
	Sig    PatternSig
}

var patterns = intern.NewTable[Pattern]("expr.pattern")

// ExprPattern returns a pattern matching the value of e.
func ExprPattern(e Expr) *Pattern { return patterns.Intern(Pattern{Of: PatExpr, Expr: e}) }

// SimplePattern returns a pattern binding d.
func SimplePattern(d *decl.Decl) *Pattern {
	return patterns.Intern(Pattern{Of: PatSimple, Simple: d})
}

// SigPattern returns a destructuring pattern.
func SigPattern(sig PatternSig) *Pattern {
	return patterns.Intern(Pattern{Of: PatSig, Sig: sig.clone()})
}

func (p *Pattern) AppendKey(b []byte) []byte {
	b = intern.AppendTag(b, byte(p.Of))
	b = appendExpr(b, p.Expr)
	b = appendDecl(b, p.Simple)
	return p.Sig.appendKey(b)
}
func (*Pattern) Kind() Kind       { return KindPattern }
func (p *Pattern) String() string { return Print(p) }

// Bindings returns the declarations a pattern introduces, depth first.
func (p *Pattern) Bindings() []*decl.Decl {
	var out []*decl.Decl
	var walk func(*Pattern)
	walk = func(p *Pattern) {
		if p == nil {
			return
		}
		switch p.Of {
		case PatSimple:
			out = append(out, p.Simple)
		case PatSig:
			for _, sub := range p.Sig.Pos {
				walk(sub)
			}
			for _, n := range p.Sig.Named {
				walk(n.Pattern)
			}
			if p.Sig.SpreadLeft != nil {
				walk(p.Sig.SpreadLeft.Pattern)
			}
			if p.Sig.SpreadRight != nil {
				walk(p.Sig.SpreadRight.Pattern)
			}
		}
	}
	walk(p)
	return out
}

// NamedPattern pairs a name with the pattern bound under it.
type NamedPattern struct {
	Decl    *decl.Decl
	Pattern *Pattern
}

// PatternSig is a destructuring or parameter signature: positional parts,
// named parts and at most one spread on each side of the positionals.
type PatternSig struct {
	Pos         []*Pattern
	Named       []NamedPattern
	SpreadLeft  *NamedPattern
	SpreadRight *NamedPattern
}

func (s PatternSig) clone() PatternSig {
	out := PatternSig{Pos: slices.Clone(s.Pos), Named: slices.Clone(s.Named)}
	if s.SpreadLeft != nil {
		v := *s.SpreadLeft
		out.SpreadLeft = &v
	}
	if s.SpreadRight != nil {
		v := *s.SpreadRight
		out.SpreadRight = &v
	}
	return out
}

func (s PatternSig) appendKey(b []byte) []byte {
	b = intern.AppendUint(b, uint64(len(s.Pos)))
	for _, p := range s.Pos {
		b = appendPattern(b, p)
	}
	b = intern.AppendUint(b, uint64(len(s.Named)))
	for _, n := range s.Named {
		b = appendNamed(b, &n)
	}
	b = appendNamed(b, s.SpreadLeft)
	return appendNamed(b, s.SpreadRight)
}

func appendPattern(b []byte, p *Pattern) []byte {
	if p == nil {
		return intern.AppendUint(b, 0)
	}
	return intern.AppendUint(b, p.ID())
}

func appendNamed(b []byte, n *NamedPattern) []byte {
	if n == nil {
		return intern.AppendTag(b, 0)
	}
	b = intern.AppendTag(b, 1)
	b = appendDecl(b, n.Decl)
	return appendPattern(b, n.Pattern)
}
