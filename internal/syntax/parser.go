package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse parses a document in markup mode. It never fails: malformed input
// produces Error nodes and parsing continues after them.
func Parse(text string) *Node {
	p := &parser{src: text}
	root := p.markup(0)
	root.Start, root.End = 0, len(text)
	return root
}

// ParseCode parses text as the body of a code block.
func ParseCode(text string) *Node {
	p := &parser{src: text}
	n := p.codeBody(0)
	n.Start, n.End = 0, len(text)
	return n
}

type parser struct {
	src string
	pos int
	// embedded is set while parsing code that follows a hash in markup;
	// a newline then ends the expression.
	embedded bool
	// content counts the open content blocks; a closing bracket ends
	// every markup run inside one.
	content int
	docs    string
}

var keywords = map[string]bool{
	"let": true, "set": true, "show": true, "import": true, "include": true,
	"if": true, "else": true, "for": true, "in": true, "while": true,
	"context": true, "return": true, "break": true, "continue": true,
	"none": true, "auto": true, "true": true, "false": true,
	"not": true, "and": true, "or": true, "as": true,
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) at(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

func (p *parser) eat(s string) bool {
	if p.at(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) node(k Kind, start int, children ...*Node) *Node {
	return &Node{Kind: k, Start: start, End: p.pos, Children: children}
}

func (p *parser) leaf(k Kind, start int, text string) *Node {
	return &Node{Kind: k, Text: text, Start: start, End: p.pos}
}

func (p *parser) errorNode(start int) *Node {
	if p.pos == start && !p.eof() {
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
	}
	return p.leaf(Error, start, p.src[start:p.pos])
}

// nested runs f with newline sensitivity turned off.
func nested[T any](p *parser, f func() T) T {
	saved := p.embedded
	p.embedded = false
	defer func() { p.embedded = saved }()
	return f()
}

// Markup

func (p *parser) markup(until byte) *Node {
	start := p.pos
	n := &Node{Kind: Markup, Start: start}
	textStart := -1
	flush := func() {
		if textStart < 0 {
			return
		}
		if t := strings.TrimSpace(p.src[textStart:p.pos]); t != "" {
			n.Children = append(n.Children, &Node{Kind: Text, Text: t, Start: textStart, End: p.pos})
			p.docs = ""
		}
		textStart = -1
	}
	add := func(c *Node) {
		n.Children = append(n.Children, c)
	}
	lineStart := true

	for !p.eof() {
		c := p.peek()
		if (until != 0 && c == until) || (c == ']' && p.content > 0) {
			break
		}
		switch {
		case c == '\n':
			flush()
			if lineStart {
				p.closeDocs(n)
			}
			p.pos++
			lineStart = true
			continue
		case p.at("///"):
			flush()
			p.docComment()
			lineStart = true
			continue
		case p.at("//"):
			flush()
			p.lineComment()
			continue
		case p.at("/*"):
			flush()
			p.blockComment()
			continue
		case c == '\\':
			if textStart < 0 {
				textStart = p.pos
			}
			p.pos++
			if !p.eof() {
				_, size := utf8.DecodeRuneInString(p.src[p.pos:])
				p.pos += size
			}
			continue
		case c == '`':
			flush()
			add(p.raw())
		case c == '#':
			flush()
			if e := p.embeddedExpr(); e != nil {
				add(e)
			}
		case c == '<' && p.labelAhead():
			flush()
			add(p.label())
		case c == '@' && isIdentStartByte(p.peekAt(1)):
			flush()
			add(p.ref())
		case c == '[':
			flush()
			add(p.contentBlock())
		case c == ']':
			flush()
			start := p.pos
			p.pos++
			add(p.leaf(Error, start, "]"))
		case (c == '*' || c == '_') && !p.intraword():
			flush()
			add(p.delimited(c))
		case c == '=' && lineStart:
			flush()
			add(p.heading())
		default:
			if c != ' ' && c != '\t' && c != '\r' {
				lineStart = false
			}
			if textStart < 0 {
				textStart = p.pos
			}
			_, size := utf8.DecodeRuneInString(p.src[p.pos:])
			p.pos += size
			continue
		}
		lineStart = false
	}
	flush()
	n.End = p.pos
	return n
}

// intraword reports whether the cursor sits between two word characters,
// where strong and emphasis markers are plain text.
func (p *parser) intraword() bool {
	if p.pos == 0 || p.pos+1 >= len(p.src) {
		return false
	}
	isWord := func(c byte) bool { return isDigit(c) || isIdentStartByte(c) }
	return isWord(p.src[p.pos-1]) && isWord(p.src[p.pos+1])
}

// closeDocs ends the pending doc comment at a blank line. A comment that
// precedes everything else documents the module.
func (p *parser) closeDocs(root *Node) {
	if p.docs == "" {
		return
	}
	if root.Start == 0 && len(root.Children) == 0 && root.Docs == "" {
		root.Docs = p.docs
	}
	p.docs = ""
}

func (p *parser) docComment() {
	p.pos += 3
	start := p.pos
	for !p.eof() && p.peek() != '\n' {
		p.pos++
	}
	line := strings.TrimPrefix(p.src[start:p.pos], " ")
	if p.docs == "" {
		p.docs = line
	} else {
		p.docs += "\n" + line
	}
	if !p.eof() {
		p.pos++
	}
}

func (p *parser) lineComment() {
	for !p.eof() && p.peek() != '\n' {
		p.pos++
	}
}

func (p *parser) blockComment() {
	p.pos += 2
	depth := 1
	for !p.eof() && depth > 0 {
		switch {
		case p.at("/*"):
			depth++
			p.pos += 2
		case p.at("*/"):
			depth--
			p.pos += 2
		default:
			p.pos++
		}
	}
}

func (p *parser) raw() *Node {
	start := p.pos
	ticks := 0
	for p.peek() == '`' {
		ticks++
		p.pos++
	}
	fence := strings.Repeat("`", ticks)
	bodyStart := p.pos
	end := strings.Index(p.src[p.pos:], fence)
	if end < 0 {
		p.pos = len(p.src)
		return p.leaf(Raw, start, p.src[bodyStart:])
	}
	p.pos += end
	body := p.src[bodyStart:p.pos]
	p.pos += ticks
	return p.leaf(Raw, start, body)
}

func (p *parser) labelAhead() bool {
	i := p.pos + 1
	j := i
	for j < len(p.src) && isLabelByte(p.src[j]) {
		j++
	}
	return j > i && j < len(p.src) && p.src[j] == '>'
}

func (p *parser) label() *Node {
	start := p.pos
	p.pos++
	nameStart := p.pos
	for isLabelByte(p.peek()) {
		p.pos++
	}
	name := p.src[nameStart:p.pos]
	p.pos++
	return p.leaf(Label, start, name)
}

func (p *parser) ref() *Node {
	start := p.pos
	p.pos++
	nameStart := p.pos
	for isLabelByte(p.peek()) {
		p.pos++
	}
	// Trailing punctuation belongs to the sentence.
	for p.pos > nameStart && (p.src[p.pos-1] == '.' || p.src[p.pos-1] == ':') {
		p.pos--
	}
	n := p.leaf(Ref, start, p.src[nameStart:p.pos])
	if p.peek() == '[' {
		n.Children = append(n.Children, p.contentBlock())
		n.End = p.pos
	}
	return n
}

func (p *parser) delimited(c byte) *Node {
	start := p.pos
	p.pos++
	body := p.markup(c)
	p.eat(string(c))
	kind := Strong
	if c == '_' {
		kind = Emph
	}
	return p.node(kind, start, body)
}

func (p *parser) heading() *Node {
	start := p.pos
	level := 0
	for p.peek() == '=' {
		level++
		p.pos++
	}
	body := p.markup('\n')
	n := p.node(Heading, start, body)
	n.Text = strings.Repeat("=", level)
	return n
}

func (p *parser) contentBlock() *Node {
	start := p.pos
	p.pos++
	savedDocs := p.docs
	p.docs = ""
	p.content++
	body := nested(p, func() *Node { return p.markup(']') })
	p.content--
	p.docs = savedDocs
	if !p.eat("]") {
		return p.node(Content, start, body, p.leaf(Error, p.pos, "unclosed content block"))
	}
	return p.node(Content, start, body)
}

// embeddedExpr parses the expression after a hash. Statements run to the
// end of the line; other expressions end after their last call or field.
func (p *parser) embeddedExpr() *Node {
	start := p.pos
	p.pos++
	if !isIdentStartByte(p.peek()) && p.peek() != '(' && p.peek() != '{' && p.peek() != '[' {
		return p.leaf(Text, start, "#")
	}
	saved := p.embedded
	p.embedded = true
	defer func() { p.embedded = saved }()

	docs := p.docs
	p.docs = ""
	var n *Node
	if word := p.peekWord(); keywords[word] {
		n = p.statement()
	} else {
		n = p.postfix(p.primary())
	}
	if n != nil && n.Kind == Let {
		n.Docs = docs
	}
	p.eat(";")
	return n
}

// Code

func (p *parser) codeBody(until byte) *Node {
	n := &Node{Kind: Code, Start: p.pos}
	for {
		p.skipCode(true)
		if p.eof() || (until != 0 && p.peek() == until) {
			break
		}
		if p.eat(";") {
			continue
		}
		if p.at("///") {
			p.docComment()
			continue
		}
		before := p.pos
		docs := p.docs
		p.docs = ""
		stmt := p.statement()
		if stmt.Kind == Let {
			stmt.Docs = docs
		}
		n.Children = append(n.Children, stmt)
		if p.pos == before {
			n.Children = append(n.Children, p.errorNode(before))
		}
	}
	n.End = p.pos
	return n
}

// skipCode skips whitespace and comments. Newlines are only skipped when
// the parser is not embedded in markup or when force is set.
func (p *parser) skipCode(force bool) {
	for !p.eof() {
		switch c := p.peek(); {
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case c == '\n':
			if p.embedded && !force {
				return
			}
			p.pos++
		case p.at("///") && force:
			return
		case p.at("//"):
			p.lineComment()
		case p.at("/*"):
			p.blockComment()
		default:
			return
		}
	}
}

func (p *parser) skip() { p.skipCode(false) }

func (p *parser) peekWord() string {
	i := p.pos
	if i >= len(p.src) {
		return ""
	}
	r, size := utf8.DecodeRuneInString(p.src[i:])
	if !isIdentStart(r) {
		return ""
	}
	i += size
	for i < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[i:])
		if !isIdentContinue(r) || (r == '-' && !p.identDashAt(i)) {
			break
		}
		i += size
	}
	return p.src[p.pos:i]
}

func (p *parser) identDashAt(i int) bool {
	if i+1 >= len(p.src) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(p.src[i+1:])
	return isIdentStart(r) || unicode.IsDigit(r)
}

func (p *parser) keyword(word string) bool {
	if p.peekWord() != word {
		return false
	}
	p.pos += len(word)
	return true
}

func (p *parser) ident() *Node {
	start := p.pos
	word := p.peekWord()
	if word == "" || keywords[word] {
		return p.errorNode(start)
	}
	p.pos += len(word)
	if word == "_" {
		return p.leaf(Underscore, start, word)
	}
	return p.leaf(Ident, start, word)
}

func (p *parser) statement() *Node {
	start := p.pos
	switch p.peekWord() {
	case "let":
		return p.letBinding()
	case "set":
		return p.setRule()
	case "show":
		return p.showRule()
	case "import":
		return p.importStmt()
	case "include":
		p.keyword("include")
		p.skip()
		return p.node(Include, start, p.expr(0))
	case "return":
		p.keyword("return")
		p.skip()
		if p.eof() || p.peek() == '\n' || p.peek() == '}' || p.peek() == ';' || p.peek() == ']' {
			return p.node(Return, start)
		}
		return p.node(Return, start, p.expr(0))
	case "break":
		p.keyword("break")
		return p.node(Break, start)
	case "continue":
		p.keyword("continue")
		return p.node(Continue, start)
	}
	return p.expr(0)
}

func (p *parser) letBinding() *Node {
	start := p.pos
	p.keyword("let")
	p.skip()

	// let f(x) = body
	if word := p.peekWord(); word != "" && !keywords[word] && p.peekAt(len(word)) == '(' {
		name := p.ident()
		params := p.params()
		p.skip()
		var body *Node
		if p.eat("=") {
			p.skip()
			body = p.expr(0)
		} else {
			body = p.leaf(Error, p.pos, "expected body")
		}
		closure := p.node(Closure, name.Start, name, params, body)
		return p.node(Let, start, closure)
	}

	pattern := p.pattern()
	p.skip()
	if p.eat("=") {
		p.skip()
		return p.node(Let, start, pattern, p.expr(0))
	}
	return p.node(Let, start, pattern)
}

func (p *parser) pattern() *Node {
	if p.peek() == '(' {
		group := p.group()
		return toPattern(group)
	}
	return p.ident()
}

// toPattern reinterprets a parenthesized group as a destructuring pattern.
func toPattern(n *Node) *Node {
	switch n.Kind {
	case Ident, Underscore, Error:
		return n
	case Paren:
		return toPattern(n.Children[0])
	case Array, Dict:
		out := &Node{Kind: Destructuring, Start: n.Start, End: n.End}
		for _, c := range n.Children {
			switch c.Kind {
			case Named:
				named := &Node{Kind: Named, Start: c.Start, End: c.End, Children: []*Node{c.Children[0], toPattern(c.Children[1])}}
				out.Children = append(out.Children, named)
			case Spread:
				out.Children = append(out.Children, c)
			default:
				out.Children = append(out.Children, toPattern(c))
			}
		}
		return out
	}
	return &Node{Kind: Error, Text: "invalid pattern", Start: n.Start, End: n.End}
}

func (p *parser) params() *Node {
	group := p.group()
	out := &Node{Kind: Params, Start: group.Start, End: group.End}
	if group.Kind == Paren {
		out.Children = []*Node{toPattern(group.Children[0])}
		return out
	}
	for _, c := range group.Children {
		switch c.Kind {
		case Named:
			// A named parameter keeps its default value.
			out.Children = append(out.Children, c)
		case Spread:
			out.Children = append(out.Children, c)
		default:
			out.Children = append(out.Children, toPattern(c))
		}
	}
	return out
}

func (p *parser) setRule() *Node {
	start := p.pos
	p.keyword("set")
	p.skip()
	target := p.postfix(p.primary())
	p.skip()
	var cond *Node
	if p.keyword("if") {
		p.skip()
		cond = p.expr(0)
	}
	n := p.node(Set, start, target)
	if cond != nil {
		n.Children = append(n.Children, cond)
	}
	return n
}

func (p *parser) showRule() *Node {
	start := p.pos
	p.keyword("show")
	p.skip()
	// Children are the optional selector followed by the transform.
	n := &Node{Kind: Show, Start: start}
	if p.peek() != ':' {
		n.Children = append(n.Children, p.expr(0))
		p.skip()
	}
	if !p.eat(":") {
		n.Children = append(n.Children, p.leaf(Error, p.pos, "expected colon"))
		n.End = p.pos
		return n
	}
	p.skip()
	n.Children = append(n.Children, p.expr(0))
	n.End = p.pos
	return n
}

func (p *parser) importStmt() *Node {
	start := p.pos
	p.keyword("import")
	p.skip()
	n := p.node(Import, start, p.postfix(p.primary()))
	p.skip()
	if p.keyword("as") {
		p.skip()
		aliasStart := p.pos
		n.Children = append(n.Children, p.node(ModuleAlias, aliasStart, p.ident()))
		p.skip()
	}
	if p.eat(":") {
		p.skip()
		if p.peek() == '*' {
			starStart := p.pos
			p.pos++
			n.Children = append(n.Children, p.leaf(Star, starStart, "*"))
		} else if p.peek() == '(' {
			p.pos++
			items := nested(p, func() *Node { return p.importItems(')') })
			p.eat(")")
			n.Children = append(n.Children, items)
		} else {
			n.Children = append(n.Children, p.importItems(0))
		}
	}
	n.End = p.pos
	return n
}

func (p *parser) importItems(until byte) *Node {
	start := p.pos
	items := &Node{Kind: ImportItems, Start: start}
	for {
		p.skip()
		if p.eof() || (until != 0 && p.peek() == until) || p.peek() == '\n' {
			break
		}
		itemStart := p.pos
		path := p.ident()
		// Nested paths such as a.b are flattened to the last segment.
		for p.peek() == '.' && isIdentStartByte(p.peekAt(1)) {
			p.pos++
			path = p.ident()
		}
		p.skip()
		if p.keyword("as") {
			p.skip()
			alias := p.ident()
			items.Children = append(items.Children, p.node(Renamed, itemStart, path, alias))
		} else {
			items.Children = append(items.Children, path)
		}
		p.skip()
		if !p.eat(",") {
			break
		}
	}
	items.End = p.pos
	return items
}

// Expressions

type binop struct {
	text  string
	prec  int
	right bool
}

var binops = []binop{
	{"+=", 0, true}, {"-=", 0, true}, {"*=", 0, true}, {"/=", 0, true},
	{"==", 4, false}, {"!=", 4, false}, {"<=", 4, false}, {">=", 4, false},
	{"=>", -1, false},
	{"=", 0, true},
	{"<", 4, false}, {">", 4, false},
	{"+", 5, false}, {"-", 5, false}, {"*", 6, false}, {"/", 6, false},
}

func (p *parser) peekBinop() (binop, bool) {
	if w := p.peekWord(); w != "" {
		switch w {
		case "or":
			return binop{"or", 1, false}, true
		case "and":
			return binop{"and", 2, false}, true
		case "in":
			return binop{"in", 4, false}, true
		case "not":
			rest := strings.TrimLeft(p.src[p.pos+3:], " \t")
			if strings.HasPrefix(rest, "in") && (len(rest) == 2 || !isIdentContinueByte(rest[2])) {
				return binop{"not in", 4, false}, true
			}
		}
		return binop{}, false
	}
	for _, op := range binops {
		if p.at(op.text) && op.prec >= 0 {
			return op, true
		}
	}
	return binop{}, false
}

func (p *parser) eatBinop(op binop) {
	if op.text == "not in" {
		p.keyword("not")
		p.skip()
		p.keyword("in")
		return
	}
	p.pos += len(op.text)
}

func (p *parser) expr(min int) *Node {
	start := p.pos
	var lhs *Node
	switch {
	case p.peek() == '-' || p.peek() == '+':
		op := string(p.peek())
		p.pos++
		p.skip()
		lhs = p.node(Unary, start, p.expr(7))
		lhs.Text = op
	case p.peekWord() == "not":
		p.keyword("not")
		p.skip()
		lhs = p.node(Unary, start, p.expr(3))
		lhs.Text = "not"
	case p.peekWord() == "context":
		p.keyword("context")
		p.skip()
		return p.node(Contextual, start, p.expr(0))
	default:
		lhs = p.postfix(p.primary())
	}

	for {
		save := p.pos
		p.skip()
		if lhs.Kind == Ident && p.at("=>") {
			p.pos += 2
			p.skip()
			params := &Node{Kind: Params, Start: lhs.Start, End: lhs.End, Children: []*Node{lhs}}
			lhs = p.node(Closure, start, params, p.expr(0))
			continue
		}
		op, ok := p.peekBinop()
		if !ok || op.prec < min {
			p.pos = save
			break
		}
		p.eatBinop(op)
		p.skip()
		next := op.prec + 1
		if op.right {
			next = op.prec
		}
		rhs := p.expr(next)
		lhs = p.node(Binary, start, lhs, rhs)
		lhs.Text = op.text
	}
	return lhs
}

func (p *parser) postfix(n *Node) *Node {
	for !p.eof() {
		switch p.peek() {
		case '(':
			args := p.args()
			n = p.node(Call, n.Start, n, args)
		case '[':
			content := p.contentBlock()
			if n.Kind == Call {
				args := n.Children[1]
				args.Children = append(args.Children, content)
				args.End = p.pos
				n.End = p.pos
			} else {
				n = p.node(Call, n.Start, n, &Node{Kind: Args, Start: content.Start, End: content.End, Children: []*Node{content}})
			}
		case '.':
			if !isIdentStartByte(p.peekAt(1)) {
				return n
			}
			p.pos++
			field := p.ident()
			n = p.node(Field, n.Start, n, field)
		default:
			return n
		}
	}
	return n
}

func (p *parser) args() *Node {
	group := p.group()
	return &Node{Kind: Args, Start: group.Start, End: group.End, Children: group.Children}
}

func (p *parser) primary() *Node {
	start := p.pos
	c := p.peek()
	switch {
	case c == '"':
		return p.str()
	case c >= '0' && c <= '9':
		return p.number()
	case c == '.' && p.peekAt(1) >= '0' && p.peekAt(1) <= '9':
		return p.number()
	case c == '(':
		group := p.group()
		save := p.pos
		p.skip()
		if p.at("=>") {
			p.pos += 2
			p.skip()
			params := &Node{Kind: Params, Start: group.Start, End: group.End}
			switch group.Kind {
			case Paren:
				params.Children = []*Node{toPattern(group.Children[0])}
			default:
				for _, c := range group.Children {
					if c.Kind == Named || c.Kind == Spread {
						params.Children = append(params.Children, c)
					} else {
						params.Children = append(params.Children, toPattern(c))
					}
				}
			}
			return p.node(Closure, start, params, p.expr(0))
		}
		p.pos = save
		return group
	case c == '{':
		p.pos++
		body := nested(p, func() *Node { return p.codeBody('}') })
		if !p.eat("}") {
			body.Children = append(body.Children, p.leaf(Error, p.pos, "unclosed code block"))
		}
		body.Start, body.End = start, p.pos
		return body
	case c == '[':
		return p.contentBlock()
	case c == '<' && p.labelAhead():
		return p.label()
	}

	switch word := p.peekWord(); word {
	case "":
		return p.errorNode(start)
	case "none":
		p.pos += len(word)
		return p.leaf(None, start, word)
	case "auto":
		p.pos += len(word)
		return p.leaf(Auto, start, word)
	case "true", "false":
		p.pos += len(word)
		return p.leaf(Bool, start, word)
	case "let", "set", "show", "import", "include", "return", "break", "continue":
		return p.statement()
	case "if":
		return p.conditional()
	case "while":
		p.keyword("while")
		p.skip()
		cond := p.expr(0)
		p.skip()
		return p.node(While, start, cond, p.block())
	case "for":
		p.keyword("for")
		p.skip()
		pat := p.pattern()
		p.skip()
		if !p.keyword("in") {
			return p.node(For, start, pat, p.leaf(Error, p.pos, "expected in"))
		}
		p.skip()
		iter := p.expr(0)
		p.skip()
		return p.node(For, start, pat, iter, p.block())
	case "context":
		p.keyword("context")
		p.skip()
		return p.node(Contextual, start, p.expr(0))
	}
	return p.ident()
}

func (p *parser) conditional() *Node {
	start := p.pos
	p.keyword("if")
	p.skip()
	cond := p.expr(0)
	p.skip()
	then := p.block()
	n := p.node(If, start, cond, then)
	save := p.pos
	p.skipCode(true)
	if !p.keyword("else") {
		p.pos = save
		return n
	}
	p.skip()
	if p.peekWord() == "if" {
		n.Children = append(n.Children, p.conditional())
	} else {
		n.Children = append(n.Children, p.block())
	}
	n.End = p.pos
	return n
}

func (p *parser) block() *Node {
	switch p.peek() {
	case '{', '[':
		return p.primary()
	}
	return p.errorNode(p.pos)
}

// group parses a parenthesized list. It yields Paren for a single item
// without a trailing comma, Dict when any item is named, Array otherwise.
func (p *parser) group() *Node {
	start := p.pos
	p.pos++
	return nested(p, func() *Node {
		var items []*Node
		named, trailing := false, false
		p.skip()
		if p.eat(":") {
			p.skip()
			p.eat(")")
			return p.node(Dict, start)
		}
		for {
			p.skip()
			if p.eof() || p.peek() == ')' {
				break
			}
			before := p.pos
			itemStart := p.pos
			var item *Node
			if p.eat("..") {
				p.skip()
				if p.peek() == ',' || p.peek() == ')' {
					item = p.node(Spread, itemStart)
				} else {
					item = p.node(Spread, itemStart, p.expr(0))
				}
			} else {
				item = p.expr(0)
				p.skip()
				if p.peek() == ':' {
					p.pos++
					p.skip()
					value := p.expr(0)
					item = p.node(Named, itemStart, item, value)
					named = true
				}
			}
			items = append(items, item)
			p.skip()
			trailing = false
			if p.eat(",") {
				trailing = true
				continue
			}
			if p.pos == before {
				items = append(items, p.errorNode(before))
			}
			if p.peek() != ')' {
				items = append(items, p.errorNode(p.pos))
			}
		}
		if !p.eat(")") {
			items = append(items, p.leaf(Error, p.pos, "unclosed group"))
		}
		switch {
		case len(items) == 1 && !trailing && items[0].Kind != Named && items[0].Kind != Spread:
			return p.node(Paren, start, items...)
		case named:
			return p.node(Dict, start, items...)
		default:
			return p.node(Array, start, items...)
		}
	})
}

func (p *parser) str() *Node {
	start := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() && p.peek() != '"' {
		c := p.peek()
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch e := p.peek(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	if !p.eat(`"`) {
		return p.leaf(Error, start, "unclosed string")
	}
	return p.leaf(Str, start, b.String())
}

var units = []string{"pt", "mm", "cm", "in", "em", "fr", "deg", "rad", "%"}

func (p *parser) number() *Node {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	kind := Int
	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		kind = Float
		p.pos++
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	if p.peek() == 'e' && (isDigit(p.peekAt(1)) || (p.peekAt(1) == '-' && isDigit(p.peekAt(2)))) {
		kind = Float
		p.pos += 2
		for isDigit(p.peek()) {
			p.pos++
		}
	}
	for _, u := range units {
		if p.at(u) && !isIdentContinueByte(p.peekAt(len(u))) {
			p.pos += len(u)
			kind = Numeric
			break
		}
	}
	return p.leaf(kind, start, p.src[start:p.pos])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLabelByte(c byte) bool {
	return c == '_' || c == '-' || c == ':' || c == '.' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentContinue(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentContinueByte(c byte) bool { return isIdentStartByte(c) || isDigit(c) || c == '-' }
