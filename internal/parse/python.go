package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/typguide/internal/lang"
	"github.com/phobologic/typguide/internal/syntax"
)

// python maps a tree-sitter-python tree onto syntax nodes. Function and
// class definitions become let-bound closures, assignments become let
// bindings and imports become file imports of .py paths. Statement blocks
// other than function bodies do not open a scope, as in Python.
type python struct{}

var pythonBinaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true,
	"and": true, "or": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"in": true, "not in": true,
	"+=": true, "-=": true, "*=": true, "/=": true,
}

func (p python) convert(c *cursor, root *sitter.Node) *syntax.Node {
	n := c.node(syntax.Code, root, "", p.statements(c, named(root))...)
	// The extent of the module node excludes leading comments.
	n.Start, n.End = 0, len(c.src)
	if first := root.NamedChild(0); first != nil && first.Type() == "expression_statement" {
		if s := first.NamedChild(0); s != nil && s.Type() == "string" {
			n.Docs = strings.TrimSpace(lang.StringValue(c.text(s)))
		}
	}
	return n
}

func (p python) statements(c *cursor, nodes []*sitter.Node) []*syntax.Node {
	out := make([]*syntax.Node, 0, len(nodes))
	for _, n := range nodes {
		if s := p.statement(c, n); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// block converts a statement block without opening a scope.
func (p python) block(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	return c.node(syntax.Markup, n, "", p.statements(c, named(n))...)
}

func (p python) statement(c *cursor, n *sitter.Node) *syntax.Node {
	switch n.Type() {
	case "comment", "pass_statement", "global_statement", "nonlocal_statement":
		return nil
	case "function_definition":
		return p.function(c, n)
	case "class_definition":
		return p.class(c, n)
	case "decorated_definition":
		var parts []*syntax.Node
		for _, d := range named(n) {
			if d.Type() == "decorator" {
				parts = append(parts, p.generic(c, d))
			}
		}
		if def := n.ChildByFieldName("definition"); def != nil {
			parts = append(parts, p.statement(c, def))
		}
		return c.node(syntax.Markup, n, "", parts...)
	case "expression_statement":
		parts := p.statements(c, named(n))
		if len(parts) == 1 {
			return parts[0]
		}
		return c.node(syntax.Markup, n, "", parts...)
	case "assignment":
		return p.assignment(c, n)
	case "augmented_assignment":
		op := c.text(n.ChildByFieldName("operator"))
		left, right := p.expr(c, n.ChildByFieldName("left")), p.expr(c, n.ChildByFieldName("right"))
		if !pythonBinaryOps[op] {
			return c.node(syntax.Markup, n, "", left, right)
		}
		return c.node(syntax.Binary, n, op, left, right)
	case "import_statement":
		return p.importStmt(c, n)
	case "import_from_statement":
		return p.importFrom(c, n)
	case "if_statement":
		return p.ifStmt(c, n)
	case "for_statement":
		return c.node(syntax.For, n, "",
			p.pattern(c, n.ChildByFieldName("left")),
			p.expr(c, n.ChildByFieldName("right")),
			p.block(c, n.ChildByFieldName("body")))
	case "while_statement":
		return c.node(syntax.While, n, "",
			p.expr(c, n.ChildByFieldName("condition")),
			p.block(c, n.ChildByFieldName("body")))
	case "return_statement":
		var value *syntax.Node
		if n.NamedChildCount() > 0 {
			value = p.expr(c, n.NamedChild(0))
		}
		return c.node(syntax.Return, n, "", value)
	case "break_statement":
		return c.node(syntax.Break, n, "")
	case "continue_statement":
		return c.node(syntax.Continue, n, "")
	case "block":
		return p.block(c, n)
	}
	return p.expr(c, n)
}

// function converts "def name(params): body" into a let-bound closure.
func (p python) function(c *cursor, n *sitter.Node) *syntax.Node {
	name := n.ChildByFieldName("name")
	if name == nil {
		return p.generic(c, n)
	}
	closure := c.node(syntax.Closure, n, "",
		c.node(syntax.Ident, name, c.text(name)),
		p.params(c, n.ChildByFieldName("parameters")),
		p.body(c, n.ChildByFieldName("body")))
	let := c.node(syntax.Let, n, "", closure)
	let.Docs = c.lang.Docstring(n, c.src)
	return let
}

// class converts a class into a let-bound closure whose body is the class
// body, so the class name is callable and members stay local.
func (p python) class(c *cursor, n *sitter.Node) *syntax.Node {
	name := n.ChildByFieldName("name")
	if name == nil {
		return p.generic(c, n)
	}
	var bases *syntax.Node
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		bases = p.generic(c, sup)
	}
	params := &syntax.Node{Kind: syntax.Params, Start: c.offset(name.EndByte()), End: c.offset(name.EndByte())}
	closure := c.node(syntax.Closure, n, "",
		c.node(syntax.Ident, name, c.text(name)),
		params,
		p.body(c, n.ChildByFieldName("body")))
	let := c.node(syntax.Let, n, "", closure)
	let.Docs = c.lang.Docstring(n, c.src)
	if bases == nil {
		return let
	}
	return c.node(syntax.Markup, n, "", bases, let)
}

func (p python) body(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	return c.node(syntax.Code, n, "", p.statements(c, named(n))...)
}

func (p python) params(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	var out []*syntax.Node
	for _, param := range named(n) {
		switch param.Type() {
		case "identifier":
			out = append(out, c.node(syntax.Ident, param, c.text(param)))
		case "typed_parameter":
			if id := firstOfType(param, "identifier"); id != nil {
				out = append(out, c.node(syntax.Ident, id, c.text(id)))
			} else if splat := firstOfType(param, "list_splat_pattern", "dictionary_splat_pattern"); splat != nil {
				out = append(out, p.splat(c, splat))
			}
		case "default_parameter", "typed_default_parameter":
			name := param.ChildByFieldName("name")
			if name == nil {
				continue
			}
			out = append(out, c.node(syntax.Named, param, "",
				c.node(syntax.Ident, name, c.text(name)),
				p.expr(c, param.ChildByFieldName("value"))))
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, p.splat(c, param))
		}
	}
	return c.node(syntax.Params, n, "", out...)
}

func (p python) splat(c *cursor, n *sitter.Node) *syntax.Node {
	var name *syntax.Node
	if id := firstOfType(n, "identifier"); id != nil {
		name = c.node(syntax.Ident, id, c.text(id))
	}
	return c.node(syntax.Spread, n, "", name)
}

func (p python) assignment(c *cursor, n *sitter.Node) *syntax.Node {
	left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
	if left == nil {
		return p.generic(c, n)
	}
	var value *syntax.Node
	if right != nil {
		if right.Type() == "assignment" {
			// a = b = 1 binds b first.
			value = p.assignment(c, right)
		} else {
			value = p.expr(c, right)
		}
	}
	switch left.Type() {
	case "identifier", "pattern_list", "tuple_pattern", "list_pattern":
		return c.node(syntax.Let, n, "", p.pattern(c, left), value)
	}
	return c.node(syntax.Binary, n, "=", p.expr(c, left), value)
}

// pattern converts an assignment or loop target.
func (p python) pattern(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		if c.text(n) == "_" {
			return c.node(syntax.Underscore, n, "_")
		}
		return c.node(syntax.Ident, n, c.text(n))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list":
		var items []*syntax.Node
		for _, item := range named(n) {
			items = append(items, p.pattern(c, item))
		}
		return c.node(syntax.Destructuring, n, "", items...)
	case "list_splat_pattern":
		return p.splat(c, n)
	}
	return p.expr(c, n)
}

func (p python) ifStmt(c *cursor, n *sitter.Node) *syntax.Node {
	cond := p.expr(c, n.ChildByFieldName("condition"))
	then := p.block(c, n.ChildByFieldName("consequence"))
	var alternatives []*sitter.Node
	for _, child := range named(n) {
		if t := child.Type(); t == "elif_clause" || t == "else_clause" {
			alternatives = append(alternatives, child)
		}
	}
	return c.node(syntax.If, n, "", cond, then, p.elseChain(c, alternatives))
}

func (p python) elseChain(c *cursor, clauses []*sitter.Node) *syntax.Node {
	if len(clauses) == 0 {
		return nil
	}
	clause := clauses[0]
	if clause.Type() == "else_clause" {
		return p.block(c, clause.ChildByFieldName("body"))
	}
	return c.node(syntax.If, clause, "",
		p.expr(c, clause.ChildByFieldName("condition")),
		p.block(c, clause.ChildByFieldName("consequence")),
		p.elseChain(c, clauses[1:]))
}

// modulePath turns a dotted module name into a workspace path. Absolute
// modules resolve from the workspace root, relative ones from the
// importing file's directory.
func modulePath(dotted string, level int) string {
	rel := strings.ReplaceAll(dotted, ".", "/")
	switch {
	case level == 0:
		return "/" + rel + ".py"
	case rel == "":
		rel = "__init__"
	}
	prefix := "./"
	if level > 1 {
		prefix = strings.Repeat("../", level-1)
	}
	return prefix + rel + ".py"
}

// importStmt converts "import a.b" and "import a.b as c". Each imported
// module becomes its own import.
func (p python) importStmt(c *cursor, n *sitter.Node) *syntax.Node {
	var imports []*syntax.Node
	for _, name := range named(n) {
		switch name.Type() {
		case "dotted_name":
			imports = append(imports, c.node(syntax.Import, name, "",
				c.node(syntax.Str, name, modulePath(c.text(name), 0))))
		case "aliased_import":
			mod, alias := name.ChildByFieldName("name"), name.ChildByFieldName("alias")
			if mod == nil || alias == nil {
				continue
			}
			imports = append(imports, c.node(syntax.Import, name, "",
				c.node(syntax.Str, mod, modulePath(c.text(mod), 0)),
				c.node(syntax.ModuleAlias, alias, "", c.node(syntax.Ident, alias, c.text(alias)))))
		}
	}
	if len(imports) == 1 {
		return imports[0]
	}
	return c.node(syntax.Markup, n, "", imports...)
}

// importFrom converts "from m import a, b as c" and "from m import *".
func (p python) importFrom(c *cursor, n *sitter.Node) *syntax.Node {
	mod := n.ChildByFieldName("module_name")
	if mod == nil {
		return p.generic(c, n)
	}
	dotted, level := c.text(mod), 0
	if mod.Type() == "relative_import" {
		level = len(dotted) - len(strings.TrimLeft(dotted, "."))
		dotted = strings.TrimLeft(dotted, ".")
	}
	parts := []*syntax.Node{c.node(syntax.Str, mod, modulePath(dotted, level))}

	var items []*syntax.Node
	for _, child := range named(n) {
		if child.StartByte() == mod.StartByte() && child.Type() == mod.Type() {
			continue
		}
		switch child.Type() {
		case "wildcard_import":
			parts = append(parts, c.node(syntax.Star, child, "*"))
		case "dotted_name":
			items = append(items, c.node(syntax.Ident, child, c.text(child)))
		case "aliased_import":
			name, alias := child.ChildByFieldName("name"), child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			items = append(items, c.node(syntax.Renamed, child, "",
				c.node(syntax.Ident, name, c.text(name)),
				c.node(syntax.Ident, alias, c.text(alias))))
		}
	}
	if len(items) > 0 {
		parts = append(parts, around(syntax.ImportItems, "", items...))
	}
	return c.node(syntax.Import, n, "", parts...)
}

func (p python) expr(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return c.node(syntax.Ident, n, c.text(n))
	case "integer":
		text := strings.ReplaceAll(c.text(n), "_", "")
		if strings.ContainsAny(text, "xXoObBjJlL") {
			return c.node(syntax.Numeric, n, text)
		}
		return c.node(syntax.Int, n, text)
	case "float":
		return c.node(syntax.Float, n, strings.ReplaceAll(c.text(n), "_", ""))
	case "string":
		str := c.node(syntax.Str, n, lang.StringValue(c.text(n)))
		if interps := p.interpolations(c, n); len(interps) > 0 {
			return c.node(syntax.Markup, n, "", append([]*syntax.Node{str}, interps...)...)
		}
		return str
	case "concatenated_string":
		var b strings.Builder
		for _, s := range named(n) {
			b.WriteString(lang.StringValue(c.text(s)))
		}
		return c.node(syntax.Str, n, b.String())
	case "true", "false":
		return c.node(syntax.Bool, n, c.text(n))
	case "none":
		return c.node(syntax.None, n, "none")
	case "attribute":
		obj, attr := n.ChildByFieldName("object"), n.ChildByFieldName("attribute")
		if attr == nil {
			return p.expr(c, obj)
		}
		return c.node(syntax.Field, n, "", p.expr(c, obj), c.node(syntax.Ident, attr, c.text(attr)))
	case "call":
		return c.node(syntax.Call, n, "",
			p.expr(c, n.ChildByFieldName("function")),
			p.args(c, n.ChildByFieldName("arguments")))
	case "binary_operator", "boolean_operator":
		op := c.text(n.ChildByFieldName("operator"))
		left, right := p.expr(c, n.ChildByFieldName("left")), p.expr(c, n.ChildByFieldName("right"))
		if !pythonBinaryOps[op] {
			return c.node(syntax.Markup, n, "", left, right)
		}
		return c.node(syntax.Binary, n, op, left, right)
	case "comparison_operator":
		return p.comparison(c, n)
	case "not_operator":
		return c.node(syntax.Unary, n, "not", p.expr(c, n.ChildByFieldName("argument")))
	case "unary_operator":
		op := c.text(n.ChildByFieldName("operator"))
		arg := p.expr(c, n.ChildByFieldName("argument"))
		if op != "-" && op != "+" {
			return arg
		}
		return c.node(syntax.Unary, n, op, arg)
	case "list", "tuple", "set":
		var items []*syntax.Node
		for _, item := range named(n) {
			items = append(items, p.element(c, item))
		}
		return c.node(syntax.Array, n, "", items...)
	case "dictionary":
		return p.dict(c, n)
	case "parenthesized_expression":
		if n.NamedChildCount() == 0 {
			return nil
		}
		return c.node(syntax.Paren, n, "", p.expr(c, n.NamedChild(0)))
	case "lambda":
		var params *syntax.Node
		if ps := n.ChildByFieldName("parameters"); ps != nil {
			params = p.params(c, ps)
		} else {
			params = &syntax.Node{Kind: syntax.Params, Start: c.offset(n.StartByte()), End: c.offset(n.StartByte())}
		}
		return c.node(syntax.Closure, n, "", params, p.expr(c, n.ChildByFieldName("body")))
	case "conditional_expression":
		parts := named(n)
		if len(parts) != 3 {
			return p.generic(c, n)
		}
		return c.node(syntax.If, n, "", p.expr(c, parts[1]), p.expr(c, parts[0]), p.expr(c, parts[2]))
	case "assignment", "augmented_assignment", "named_expression":
		return p.statement(c, n)
	case "ERROR":
		return c.node(syntax.Error, n, "", p.children(c, n)...)
	}
	return p.generic(c, n)
}

func (p python) element(c *cursor, n *sitter.Node) *syntax.Node {
	if n.Type() == "list_splat" || n.Type() == "dictionary_splat" {
		var inner *syntax.Node
		if n.NamedChildCount() > 0 {
			inner = p.expr(c, n.NamedChild(0))
		}
		return c.node(syntax.Spread, n, "", inner)
	}
	return p.expr(c, n)
}

func (p python) args(c *cursor, n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	var out []*syntax.Node
	for _, arg := range named(n) {
		switch arg.Type() {
		case "comment":
		case "keyword_argument":
			name := arg.ChildByFieldName("name")
			if name == nil {
				continue
			}
			out = append(out, c.node(syntax.Named, arg, "",
				c.node(syntax.Ident, name, c.text(name)),
				p.expr(c, arg.ChildByFieldName("value"))))
		default:
			out = append(out, p.element(c, arg))
		}
	}
	return c.node(syntax.Args, n, "", out...)
}

func (p python) dict(c *cursor, n *sitter.Node) *syntax.Node {
	var out []*syntax.Node
	for _, item := range named(n) {
		switch item.Type() {
		case "pair":
			key, value := item.ChildByFieldName("key"), item.ChildByFieldName("value")
			if key == nil {
				continue
			}
			out = append(out, c.node(syntax.Named, item, "", p.expr(c, key), p.expr(c, value)))
		case "dictionary_splat":
			out = append(out, p.element(c, item))
		}
	}
	return c.node(syntax.Dict, n, "", out...)
}

// comparison converts a single comparison. Chains such as a < b < c keep
// their operands without an operator.
func (p python) comparison(c *cursor, n *sitter.Node) *syntax.Node {
	operands := named(n)
	var ops []string
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		if !child.IsNamed() {
			ops = append(ops, c.text(child))
		}
	}
	op := strings.Join(ops, " ")
	if len(operands) == 2 && pythonBinaryOps[op] {
		return c.node(syntax.Binary, n, op, p.expr(c, operands[0]), p.expr(c, operands[1]))
	}
	return c.node(syntax.Markup, n, "", p.children(c, n)...)
}

// interpolations returns the expressions embedded in an f-string.
func (p python) interpolations(c *cursor, n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, child := range named(n) {
		if child.Type() == "interpolation" {
			out = append(out, p.children(c, child)...)
		}
	}
	return out
}

// generic keeps the names used inside a construct without modelling it.
func (p python) generic(c *cursor, n *sitter.Node) *syntax.Node {
	return c.node(syntax.Markup, n, "", p.children(c, n)...)
}

func (p python) children(c *cursor, n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, child := range named(n) {
		if child.Type() == "comment" {
			continue
		}
		out = append(out, p.statement(c, child))
	}
	return out
}

func firstOfType(n *sitter.Node, types ...string) *sitter.Node {
	for _, child := range named(n) {
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}
