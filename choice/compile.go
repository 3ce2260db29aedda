package choice

import (
	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
)

// operand is a resolved Cmp operand: either a data reference (optionally
// cast to a concrete type) or a literal value. invalid marks an operand
// already reported to the sink, so callers bail without a second
// diagnostic.
type operand struct {
	isDataRef bool
	path      string
	casted    bool
	typ       string // "string" | "number" | "bool"; "" if not yet known
	isNone    bool
	litValue  any
	invalid   bool
}

// Compile lowers a boolean expression into an ASL choice-operator tree.
// Diagnostics abort compilation of the enclosing branch; the caller
// (visitor) treats a nil result as fatal for that ChoiceBranch.
func Compile(e ast.Expr, sink *diag.Sink) *Node {
	n := compile(e, sink)
	if n == nil {
		return nil
	}
	return flatten(n)
}

func compile(e ast.Expr, sink *diag.Sink) *Node {
	switch v := e.(type) {
	case *ast.BoolOp:
		children := make([]*Node, 0, len(v.Values))
		for _, c := range v.Values {
			cn := compile(c, sink)
			if cn == nil {
				return nil
			}
			children = append(children, cn)
		}
		if v.Op == "and" {
			return &Node{And: children}
		}
		return &Node{Or: children}

	case *ast.UnaryNot:
		inner := compile(v.Value, sink)
		if inner == nil {
			return nil
		}
		return &Node{Not: inner}

	case *ast.Compare:
		return compileCompare(v, sink)

	default:
		sink.Add(diag.SyntaxUnsupported, e.Position(), "expression shape %T is not a valid choice predicate", e)
		return nil
	}
}

func compileCompare(c *ast.Compare, sink *diag.Sink) *Node {
	left := resolveOperand(c.Left, sink)
	right := resolveOperand(c.Right, sink)
	if left.invalid || right.invalid {
		return nil
	}

	if c.Op == "is" || c.Op == "is not" {
		return compileIsNone(c, left, right, sink)
	}

	if left.isNone || right.isNone {
		sink.Add(diag.ShapeError, c.Position(), "comparison with None requires 'is' or 'is not', not %q", c.Op)
		return nil
	}

	switch {
	case left.isDataRef && !right.isDataRef:
		return compileLeaf(c, left, right, sink)
	case right.isDataRef && !left.isDataRef:
		// Normalize so the DataRef is always the Variable operand.
		flipped := *c
		flipped.Op = flipOp(c.Op)
		return compileLeaf(&flipped, right, left, sink)
	case left.isDataRef && right.isDataRef:
		if !left.casted && !right.casted {
			sink.Add(diag.SyntaxUnsupported, c.Position(), "type of comparison between two untyped data references cannot be inferred without a cast")
			return nil
		}
		return compilePathLeaf(c, left, right, sink)
	default:
		sink.Add(diag.ShapeError, c.Position(), "comparison requires at least one data-reference operand")
		return nil
	}
}

func compileIsNone(c *ast.Compare, left, right operand, sink *diag.Sink) *Node {
	var ref operand
	switch {
	case left.isDataRef && right.isNone:
		ref = left
	case right.isDataRef && left.isNone:
		ref = right
	default:
		sink.Add(diag.ShapeError, c.Position(), "'is'/'is not' is only supported between a data reference and None")
		return nil
	}
	leaf := &Node{Variable: ref.path, Comparator: "IsNull", Value: true}
	if c.Op == "is not" {
		return &Node{Not: leaf}
	}
	return leaf
}

// compileLeaf builds the comparator leaf for `ref CmpOp lit`, where ref is
// already known to be the DataRef-side operand.
func compileLeaf(c *ast.Compare, ref, lit operand, sink *diag.Sink) *Node {
	typ := ref.typ
	if typ == "" {
		typ = lit.typ
	}
	if typ == "" {
		typ = "string"
	}

	op, err := mapOperator(c.Op, typ)
	if err != "" {
		sink.Add(diag.SyntaxUnsupported, c.Position(), "%s", err)
		return nil
	}

	leaf := &Node{Variable: ref.path, Comparator: op, Value: lit.litValue}
	if c.Op == "!=" {
		return &Node{Not: &Node{Variable: ref.path, Comparator: equalsOp(typ), Value: lit.litValue}}
	}
	return leaf
}

// compilePathLeaf builds the "...Path" comparator for `ref CmpOp ref`:
// both operands are data references, at least one carrying a cast that
// fixes the operator family. The right-hand path becomes the comparator's
// value operand.
func compilePathLeaf(c *ast.Compare, left, right operand, sink *diag.Sink) *Node {
	typ := left.typ
	if typ == "" {
		typ = right.typ
	}

	op, err := mapOperator(c.Op, typ)
	if err != "" {
		sink.Add(diag.SyntaxUnsupported, c.Position(), "%s", err)
		return nil
	}

	if c.Op == "!=" {
		return &Node{Not: &Node{Variable: left.path, Comparator: equalsOp(typ) + "Path", Value: right.path}}
	}
	return &Node{Variable: left.path, Comparator: op + "Path", Value: right.path}
}

func equalsOp(typ string) string {
	switch typ {
	case "number":
		return "NumericEquals"
	case "bool":
		return "BooleanEquals"
	default:
		return "StringEquals"
	}
}

// mapOperator maps a host comparison operator and operand type to the ASL
// comparator name. Returns ("", message) when the (op, type) pair has no
// ASL equivalent.
func mapOperator(op, typ string) (string, string) {
	switch op {
	case "==":
		return equalsOp(typ), ""
	case "!=":
		// Handled by the caller via Not{Equals}; placeholder so the
		// switch stays exhaustive for documentation purposes.
		return equalsOp(typ), ""
	case "<", "<=", ">", ">=":
		if typ == "bool" {
			return "", "boolean operands do not support ordering comparisons"
		}
		prefix := "String"
		if typ == "number" {
			prefix = "Numeric"
		}
		switch op {
		case "<":
			return prefix + "LessThan", ""
		case "<=":
			return prefix + "LessThanEquals", ""
		case ">":
			return prefix + "GreaterThan", ""
		default:
			return prefix + "GreaterThanEquals", ""
		}
	default:
		return "", "unrecognized comparison operator " + op
	}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op // == and != are symmetric
	}
}

// resolveOperand classifies a comparison operand: explicit cast wrapper >
// literal type > default string/data-ref.
func resolveOperand(e ast.Expr, sink *diag.Sink) operand {
	switch v := e.(type) {
	case *ast.Cast:
		path, ok := ast.JSONPath(v.Value)
		if !ok {
			sink.Add(diag.SyntaxUnsupported, v.Position(), "cast argument must be a data reference")
			return operand{invalid: true}
		}
		return operand{isDataRef: true, path: path, casted: true, typ: castType(v.To)}
	case *ast.Str:
		return operand{typ: "string", litValue: v.Value}
	case *ast.Num:
		if v.IsFloat {
			return operand{typ: "number", litValue: parseFloatOrRaw(v.Raw)}
		}
		return operand{typ: "number", litValue: parseIntOrRaw(v.Raw)}
	case *ast.BoolLit:
		return operand{typ: "bool", litValue: v.Value}
	case *ast.NoneLit:
		return operand{isNone: true}
	default:
		if path, ok := ast.JSONPath(e); ok {
			return operand{isDataRef: true, path: path}
		}
		return operand{}
	}
}

func castType(to string) string {
	switch to {
	case "int", "float":
		return "number"
	case "bool":
		return "bool"
	default:
		return "string"
	}
}
