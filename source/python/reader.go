// Package python implements the source reader: a tree-sitter–backed
// parser that turns project source text into the translator's own
// ast.Module shape. The DSL is Python syntax, so the real Python grammar
// is the correct concrete syntax tree to walk rather than a hand-rolled
// tokenizer.
package python

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/flowc/ast"
)

// Reader parses Python source into ast.Module values.
type Reader struct {
	parser *sitter.Parser
}

// NewReader constructs a Reader with the Python grammar loaded.
func NewReader() *Reader {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Reader{parser: p}
}

// Parse parses a single project file's source text into an ast.Module.
func (r *Reader) Parse(ctx context.Context, src []byte) (*ast.Module, error) {
	tree, err := r.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	defer tree.Close()

	b := &builder{content: src}
	return b.buildModule(tree.RootNode()), nil
}

// builder walks a tree-sitter concrete syntax tree and emits the
// translator's own ast node shapes. It never evaluates the tree; only
// node kind, field, and source-range inspection.
type builder struct {
	content []byte
}

func (b *builder) pos(n *sitter.Node) ast.Pos {
	p := n.StartPoint()
	return ast.Pos{Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}

func (b *builder) text(n *sitter.Node) string {
	return string(b.content[n.StartByte():n.EndByte()])
}

// buildModule classifies every module-scope definition into the DSL's two
// recognized shapes: task classes and state-machine functions. Anything
// else at module scope (plain imports, module-level constants) is
// silently ignored — module-level assignments never feed into a state
// machine.
func (b *builder) buildModule(root *sitter.Node) *ast.Module {
	mod := &ast.Module{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "class_definition":
			mod.Classes = append(mod.Classes, b.buildClass(child, nil))
		case "function_definition":
			mod.Functions = append(mod.Functions, b.buildFunction(child, nil))
		case "decorated_definition":
			decorators := b.buildDecorators(child)
			def := b.definitionIn(child)
			if def == nil {
				continue
			}
			switch def.Type() {
			case "class_definition":
				mod.Classes = append(mod.Classes, b.buildClass(def, decorators))
			case "function_definition":
				mod.Functions = append(mod.Functions, b.buildFunction(def, decorators))
			}
		}
	}
	return mod
}

func (b *builder) definitionIn(decorated *sitter.Node) *sitter.Node {
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() == "class_definition" || child.Type() == "function_definition" {
			return child
		}
	}
	return nil
}

func (b *builder) buildDecorators(decorated *sitter.Node) []ast.Decorator {
	var decorators []ast.Decorator
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		decorators = append(decorators, b.buildDecorator(child))
	}
	return decorators
}

// buildDecorator lowers `@name(...)` or the bare `@name` form.
func (b *builder) buildDecorator(node *sitter.Node) ast.Decorator {
	if node.NamedChildCount() == 0 {
		return ast.Decorator{Pos: b.pos(node)}
	}
	inner := node.NamedChild(0)
	if inner.Type() == "call" {
		call := b.buildCall(inner)
		name := ""
		if n, ok := call.Func.(*ast.Name); ok {
			name = n.Id
		}
		return ast.Decorator{Name: name, Args: call.Args, Keywords: call.Keywords, Pos: b.pos(node)}
	}
	return ast.Decorator{Name: b.text(inner), Pos: b.pos(node)}
}

// buildClass lowers a task class definition: attribute assignments plus
// (at most one) entry method.
func (b *builder) buildClass(node *sitter.Node, _ []ast.Decorator) *ast.ClassDef {
	cls := &ast.ClassDef{NodePos: b.pos(node)}
	if name := node.ChildByFieldName("name"); name != nil {
		cls.Name = b.text(name)
	}
	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		for i := 0; i < int(bases.NamedChildCount()); i++ {
			cls.Bases = append(cls.Bases, b.text(bases.NamedChild(i)))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for _, stmt := range b.blockChildren(body) {
		switch stmt.Type() {
		case "expression_statement":
			if attr, ok := b.classAttr(stmt); ok {
				cls.Attrs = append(cls.Attrs, attr)
			}
		case "function_definition":
			cls.Methods = append(cls.Methods, b.buildFunction(stmt, nil))
		case "decorated_definition":
			if def := b.definitionIn(stmt); def != nil && def.Type() == "function_definition" {
				cls.Methods = append(cls.Methods, b.buildFunction(def, nil))
			}
		}
	}
	return cls
}

// classAttr recognizes a `name = literal` statement inside a task class
// body.
func (b *builder) classAttr(exprStmt *sitter.Node) (ast.ClassAttr, bool) {
	if exprStmt.NamedChildCount() == 0 {
		return ast.ClassAttr{}, false
	}
	assign := exprStmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return ast.ClassAttr{}, false
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return ast.ClassAttr{}, false
	}
	return ast.ClassAttr{Name: b.text(left), Value: b.buildExpr(right), Pos: b.pos(exprStmt)}, true
}

// buildFunction lowers a module-scope state-machine function or a task
// class's entry method. Async methods keep their verbatim source instead
// of a parsed Body: a task body is lifted as an opaque string for
// downstream packaging, never parsed.
func (b *builder) buildFunction(node *sitter.Node, decorators []ast.Decorator) *ast.FunctionDef {
	fn := &ast.FunctionDef{NodePos: b.pos(node), Decorators: decorators}
	if name := node.ChildByFieldName("name"); name != nil {
		fn.Name = b.text(name)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			fn.Params = append(fn.Params, b.text(params.NamedChild(i)))
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			fn.IsAsync = true
			break
		}
	}

	if fn.IsAsync {
		fn.RawSource = b.text(node)
		return fn
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return fn
	}
	for _, stmt := range b.blockChildren(body) {
		// `pass` is Python's syntactic placeholder for an empty block;
		// dropping it here (rather than lowering to ast.Unsupported)
		// lets an all-pass body reach the visitor as an empty function
		// body, since the concrete grammar never allows a truly empty
		// block.
		if stmt.Type() == "pass_statement" {
			continue
		}
		fn.Body = append(fn.Body, b.buildStmt(stmt))
	}
	return fn
}

// blockChildren flattens a `block` node's statements, unwrapping the
// `simple_statements` grouping tree-sitter-python uses for
// semicolon/newline-separated simple statements on one logical line.
func (b *builder) blockChildren(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "simple_statements" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				out = append(out, child.NamedChild(j))
			}
			continue
		}
		out = append(out, child)
	}
	return out
}

// buildStmt lowers one statement-shaped node into the translator's Stmt
// grammar; unrecognized shapes become *ast.Unsupported so the statement
// visitor can report SyntaxUnsupported at the point of use rather than
// failing the whole parse.
func (b *builder) buildStmt(node *sitter.Node) ast.Stmt {
	switch node.Type() {
	case "if_statement":
		return b.buildIf(node)
	case "try_statement":
		return b.buildTry(node)
	case "with_statement":
		return b.buildWith(node)
	case "raise_statement":
		return b.buildRaise(node)
	case "return_statement":
		return b.buildReturn(node)
	case "expression_statement":
		return b.buildExprStatement(node)
	default:
		return &ast.Unsupported{Description: node.Type(), NodePos: b.pos(node)}
	}
}

func (b *builder) buildExprStatement(node *sitter.Node) ast.Stmt {
	if node.NamedChildCount() == 0 {
		return &ast.Unsupported{Description: "empty expression statement", NodePos: b.pos(node)}
	}
	inner := node.NamedChild(0)
	if inner.Type() == "assignment" {
		left := inner.ChildByFieldName("left")
		right := inner.ChildByFieldName("right")
		if left == nil || right == nil {
			return &ast.Unsupported{Description: "malformed assignment", NodePos: b.pos(node)}
		}
		return &ast.Assign{Target: b.buildExpr(left), Value: b.buildExpr(right), NodePos: b.pos(node)}
	}
	return &ast.ExprStmt{Value: b.buildExpr(inner), NodePos: b.pos(node)}
}

func (b *builder) buildIf(node *sitter.Node) ast.Stmt {
	out := &ast.If{NodePos: b.pos(node)}
	if cond := node.ChildByFieldName("condition"); cond != nil {
		out.Test = b.buildExpr(cond)
	}
	if body := node.ChildByFieldName("consequence"); body != nil {
		out.Body = b.buildStmts(body)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			elif := ast.ElifClause{Pos: b.pos(child)}
			if cond := child.ChildByFieldName("condition"); cond != nil {
				elif.Test = b.buildExpr(cond)
			}
			if body := child.ChildByFieldName("consequence"); body != nil {
				elif.Body = b.buildStmts(body)
			}
			out.Elifs = append(out.Elifs, elif)
		case "else_clause":
			out.HasElse = true
			if body := child.ChildByFieldName("body"); body != nil {
				out.Else = b.buildStmts(body)
			}
		}
	}
	return out
}

func (b *builder) buildStmts(block *sitter.Node) []ast.Stmt {
	var out []ast.Stmt
	for _, stmt := range b.blockChildren(block) {
		if stmt.Type() == "pass_statement" {
			continue
		}
		out = append(out, b.buildStmt(stmt))
	}
	return out
}

func (b *builder) buildTry(node *sitter.Node) ast.Stmt {
	out := &ast.Try{NodePos: b.pos(node)}
	if body := node.ChildByFieldName("body"); body != nil {
		out.Body = b.buildStmts(body)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "except_clause" {
			continue
		}
		clause := ast.ExceptClause{Pos: b.pos(child)}
		// The exception expression, if any, is the clause's first named
		// child; the handler body is its block child.
		for j := 0; j < int(child.NamedChildCount()); j++ {
			part := child.NamedChild(j)
			switch {
			case part.Type() == "block":
				clause.Body = b.buildStmts(part)
			case j == 0:
				clause.Types = b.exceptionTypeNames(part)
			}
		}
		out.Handlers = append(out.Handlers, clause)
	}
	return out
}

// exceptionTypeNames reads the names out of `except Err:` (single name)
// or `except (A, B):` (tuple); tuple members become the Catch's error
// list.
func (b *builder) exceptionTypeNames(value *sitter.Node) []string {
	if value.Type() == "tuple" {
		var names []string
		for i := 0; i < int(value.NamedChildCount()); i++ {
			names = append(names, b.text(value.NamedChild(i)))
		}
		return names
	}
	return []string{b.text(value)}
}

func (b *builder) buildWith(node *sitter.Node) ast.Stmt {
	out := &ast.With{NodePos: b.pos(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "with_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			item := child.NamedChild(j)
			if item.Type() != "with_item" {
				continue
			}
			if value := item.ChildByFieldName("value"); value != nil {
				if call, ok := b.buildExpr(value).(*ast.Call); ok {
					out.Item = *call
				}
			}
		}
	}
	if body := node.ChildByFieldName("body"); body != nil {
		out.Body = b.buildStmts(body)
	}
	return out
}

func (b *builder) buildRaise(node *sitter.Node) ast.Stmt {
	out := &ast.Raise{NodePos: b.pos(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if call, ok := b.buildExpr(node.NamedChild(i)).(*ast.Call); ok {
			out.Exc = *call
			break
		}
	}
	return out
}

func (b *builder) buildReturn(node *sitter.Node) ast.Stmt {
	out := &ast.Return{NodePos: b.pos(node)}
	if node.NamedChildCount() > 0 {
		out.Value = b.buildExpr(node.NamedChild(0))
	}
	return out
}

// buildExpr lowers one expression-shaped node into the translator's Expr
// grammar; unrecognized shapes become *ast.UnsupportedExpr.
func (b *builder) buildExpr(node *sitter.Node) ast.Expr {
	switch node.Type() {
	case "parenthesized_expression":
		if node.NamedChildCount() > 0 {
			return b.buildExpr(node.NamedChild(0))
		}
		return &ast.UnsupportedExpr{Description: "empty parenthesized expression", NodePos: b.pos(node)}
	case "call":
		return b.castOrCall(node)
	case "attribute":
		return &ast.Attribute{Value: b.buildExpr(node.ChildByFieldName("object")), Attr: b.text(node.ChildByFieldName("attribute")), NodePos: b.pos(node)}
	case "subscript":
		return &ast.Subscript{Value: b.buildExpr(node.ChildByFieldName("value")), Index: b.buildExpr(node.ChildByFieldName("subscript")), NodePos: b.pos(node)}
	case "identifier":
		return &ast.Name{Id: b.text(node), NodePos: b.pos(node)}
	case "string":
		return &ast.Str{Value: b.stringContent(node), NodePos: b.pos(node)}
	case "integer":
		return &ast.Num{Raw: b.text(node), IsFloat: false, NodePos: b.pos(node)}
	case "float":
		return &ast.Num{Raw: b.text(node), IsFloat: true, NodePos: b.pos(node)}
	case "true":
		return &ast.BoolLit{Value: true, NodePos: b.pos(node)}
	case "false":
		return &ast.BoolLit{Value: false, NodePos: b.pos(node)}
	case "none":
		return &ast.NoneLit{NodePos: b.pos(node)}
	case "comparison_operator":
		return b.buildCompare(node)
	case "boolean_operator":
		return b.buildBoolOp(node)
	case "not_operator":
		return &ast.UnaryNot{Value: b.buildExpr(node.ChildByFieldName("argument")), NodePos: b.pos(node)}
	case "dictionary":
		return b.buildDict(node)
	case "list":
		return b.buildList(node)
	default:
		return &ast.UnsupportedExpr{Description: node.Type(), NodePos: b.pos(node)}
	}
}

// castOrCall recognizes the four cast-wrapper calls (str/int/float/bool)
// the choice-expression grammar allows as an operand; everything else
// lowers to a plain Call.
func (b *builder) castOrCall(node *sitter.Node) ast.Expr {
	call := b.buildCall(node)
	if n, ok := call.Func.(*ast.Name); ok {
		switch n.Id {
		case "str", "int", "float", "bool":
			if len(call.Args) == 1 && len(call.Keywords) == 0 {
				return &ast.Cast{To: n.Id, Value: call.Args[0], NodePos: call.NodePos}
			}
		}
	}
	return call
}

func (b *builder) buildCall(node *sitter.Node) *ast.Call {
	call := &ast.Call{NodePos: b.pos(node)}
	if fn := node.ChildByFieldName("function"); fn != nil {
		call.Func = b.buildExpr(fn)
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return call
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "keyword_argument" {
			name := arg.ChildByFieldName("name")
			value := arg.ChildByFieldName("value")
			if name == nil || value == nil {
				continue
			}
			call.Keywords = append(call.Keywords, ast.Keyword{Arg: b.text(name), Value: b.buildExpr(value), Pos: b.pos(arg)})
			continue
		}
		call.Args = append(call.Args, b.buildExpr(arg))
	}
	return call
}

// buildCompare lowers a single binary comparison. The DSL grammar does
// not include chained comparisons (`a < b < c`); a
// comparison_operator node with more than one operator pair is reported
// as unsupported rather than silently taking only the first pair.
func (b *builder) buildCompare(node *sitter.Node) ast.Expr {
	if node.NamedChildCount() != 2 {
		return &ast.UnsupportedExpr{Description: "chained comparison", NodePos: b.pos(node)}
	}
	left := node.NamedChild(0)
	right := node.NamedChild(1)
	op := b.compareOperator(node, left, right)
	return &ast.Compare{Left: b.buildExpr(left), Op: op, Right: b.buildExpr(right), NodePos: b.pos(node)}
}

// compareOperator recovers the operator token text, which sits between the
// two named operand children as one or more anonymous children — "is not"
// and "not in" are each two separate tokens, so every matching child
// between the operands must be joined, not just the first one.
func (b *builder) compareOperator(node, left, right *sitter.Node) string {
	var parts []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.StartByte() >= left.EndByte() && child.EndByte() <= right.StartByte() {
			parts = append(parts, strings.TrimSpace(b.text(child)))
		}
	}
	return strings.Join(parts, " ")
}

// buildBoolOp folds nested same-operator boolean_operator nodes into a
// flat ast.BoolOp (doc comment on ast.BoolOp).
func (b *builder) buildBoolOp(node *sitter.Node) ast.Expr {
	op := "and"
	for i := 0; i < int(node.ChildCount()); i++ {
		if t := node.Child(i).Type(); t == "and" || t == "or" {
			op = t
			break
		}
	}
	var values []ast.Expr
	b.flattenBoolOp(node, op, &values)
	return &ast.BoolOp{Op: op, Values: values, NodePos: b.pos(node)}
}

func (b *builder) flattenBoolOp(node *sitter.Node, op string, out *[]ast.Expr) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left != nil && left.Type() == "boolean_operator" && b.boolOpOperator(left) == op {
		b.flattenBoolOp(left, op, out)
	} else if left != nil {
		*out = append(*out, b.buildExpr(left))
	}
	if right != nil {
		*out = append(*out, b.buildExpr(right))
	}
}

func (b *builder) boolOpOperator(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if t := node.Child(i).Type(); t == "and" || t == "or" {
			return t
		}
	}
	return ""
}

func (b *builder) buildDict(node *sitter.Node) ast.Expr {
	out := &ast.DictLit{NodePos: b.pos(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		pair := node.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}
		keyStr := b.text(key)
		if key.Type() == "string" {
			keyStr = b.stringContent(key)
		}
		out.Keys = append(out.Keys, keyStr)
		out.Values = append(out.Values, b.buildExpr(value))
	}
	return out
}

func (b *builder) buildList(node *sitter.Node) ast.Expr {
	out := &ast.ListLit{NodePos: b.pos(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out.Values = append(out.Values, b.buildExpr(node.NamedChild(i)))
	}
	return out
}

// stringContent strips the Python string node's quote delimiters. Modern
// tree-sitter-python represents a string as a `string` node wrapping
// `string_start`/`string_content`/`string_end`; older grammars emit a
// single token. Handle both.
func (b *builder) stringContent(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if node.NamedChild(i).Type() == "string_content" {
			return b.text(node.NamedChild(i))
		}
	}
	raw := b.text(node)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return raw
}
