// Package parse converts tree-sitter parse trees into syntax trees the
// expression builder understands.
package parse

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/typguide/internal/lang"
	"github.com/phobologic/typguide/internal/syntax"
)

// ErrNoGrammar is returned for languages that are not parsed with
// tree-sitter.
var ErrNoGrammar = errors.New("parse: language has no grammar")

type converter interface {
	convert(c *cursor, root *sitter.Node) *syntax.Node
}

var converters = map[string]converter{
	"python": python{},
}

// Parse parses source with the grammar of l and converts the result. A
// tree with syntax errors still converts; error nodes become syntax.Error.
func Parse(l *lang.Language, source []byte) (*syntax.Node, error) {
	if !l.HasGrammar() {
		return nil, fmt.Errorf("%s: %w", l.Name, ErrNoGrammar)
	}
	conv, ok := converters[l.Name]
	if !ok {
		return nil, fmt.Errorf("%s: no converter", l.Name)
	}

	parser := l.NewParser()
	defer parser.Close()
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", l.Name, err)
	}
	defer tree.Close()

	c := &cursor{lang: l, src: source}
	root := conv.convert(c, tree.RootNode())
	if c.err != nil {
		return nil, c.err
	}
	return root, nil
}

// Frontend adapts Parse to a text-based front end.
func Frontend(l *lang.Language) func(text string) (*syntax.Node, error) {
	return func(text string) (*syntax.Node, error) {
		return Parse(l, []byte(text))
	}
}

// cursor carries the state shared by a conversion.
type cursor struct {
	lang *lang.Language
	src  []byte
	err  error
}

func (c *cursor) text(n *sitter.Node) string {
	return lang.NodeText(n, c.src)
}

func (c *cursor) offset(b uint32) int {
	v, err := safecast.Conv[int](b)
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("byte offset %d: %w", b, err)
	}
	return v
}

// node creates a syntax node covering n.
func (c *cursor) node(k syntax.Kind, n *sitter.Node, text string, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{
		Kind:     k,
		Text:     text,
		Start:    c.offset(n.StartByte()),
		End:      c.offset(n.EndByte()),
		Children: compact(children),
	}
}

// around creates a syntax node spanning its children, for nodes that have
// no single tree-sitter counterpart.
func around(k syntax.Kind, text string, children ...*syntax.Node) *syntax.Node {
	children = compact(children)
	n := &syntax.Node{Kind: k, Text: text, Children: children}
	if len(children) > 0 {
		n.Start, n.End = children[0].Start, children[len(children)-1].End
	}
	return n
}

func compact(nodes []*syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// named returns the named children of n.
func named(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := range count {
		out = append(out, n.NamedChild(i))
	}
	return out
}
