// Package syntax holds the syntax tree consumed by the expression builder
// and a parser for the markup-and-code document language.
package syntax

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/phobologic/typguide/internal/source"
)

// Kind is the type of a syntax node.
type Kind uint8

const (
	Markup Kind = iota + 1
	Text
	Raw
	Heading
	Strong
	Emph
	Label
	Ref
	Code
	Content
	Ident
	Underscore
	None
	Auto
	Bool
	Int
	Float
	Numeric
	Str
	Array
	Dict
	Paren
	Named
	Spread
	Unary
	Binary
	Field
	Call
	Args
	Closure
	Params
	Destructuring
	Let
	Set
	Show
	Import
	ImportItems
	Renamed
	ModuleAlias
	Star
	Include
	If
	While
	For
	Contextual
	Return
	Break
	Continue
	Error
)

var kindNames = [...]string{
	Markup: "markup", Text: "text", Raw: "raw", Heading: "heading", Strong: "strong", Emph: "emph",
	Label: "label", Ref: "ref", Code: "code", Content: "content", Ident: "ident",
	Underscore: "underscore", None: "none", Auto: "auto", Bool: "bool", Int: "int", Float: "float",
	Numeric: "numeric", Str: "str", Array: "array", Dict: "dict", Paren: "paren", Named: "named",
	Spread: "spread", Unary: "unary", Binary: "binary", Field: "field", Call: "call", Args: "args",
	Closure: "closure", Params: "params", Destructuring: "destructuring", Let: "let", Set: "set",
	Show: "show", Import: "import", ImportItems: "import-items", Renamed: "renamed",
	ModuleAlias: "module-alias", Star: "star", Include: "include", If: "if", While: "while",
	For: "for", Contextual: "contextual", Return: "return", Break: "break", Continue: "continue",
	Error: "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Node is a syntax tree node. Leaves carry their value in Text: the name
// of identifiers, labels and references, the decoded value of strings, the
// literal of numbers and the operator of unary and binary expressions.
type Node struct {
	Kind     Kind
	Text     string
	Start    int
	End      int
	Children []*Node
	// Docs is the doc comment preceding a let binding, or the module
	// documentation on the root.
	Docs string

	span source.Span
}

// Span returns the node's span, detached until the tree is numbered.
func (n *Node) Span() source.Span { return n.span }

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Find returns the first child of kind k.
func (n *Node) Find(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// String renders the tree as an S-expression, for debugging and tests.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteString("(")
	b.WriteString(n.Kind.String())
	if n.Text != "" {
		fmt.Fprintf(b, " %q", n.Text)
	}
	for _, c := range n.Children {
		b.WriteByte(' ')
		c.write(b)
	}
	b.WriteString(")")
}

// Number assigns spans of file id to every node of the tree in pre-order,
// starting at 2, and returns the source with the matching byte ranges.
func Number(root *Node, id source.FileID, text string) (*source.Source, error) {
	ranges := make(map[uint64]source.Range)
	next := 2
	var err error
	root.Walk(func(n *Node) bool {
		if err != nil {
			return false
		}
		num, convErr := safecast.Conv[uint64](next)
		if convErr != nil {
			err = fmt.Errorf("numbering node %d: %w", next, convErr)
			return false
		}
		n.span = source.NewSpan(id, num)
		ranges[num] = source.Range{Start: n.Start, End: n.End}
		next++
		return true
	})
	if err != nil {
		return nil, err
	}
	return source.New(id, text, ranges), nil
}
