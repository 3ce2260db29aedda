package choice

import (
	"testing"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
)

func dataRef(key string) ast.Expr {
	return &ast.Subscript{Value: &ast.Name{Id: "data"}, Index: &ast.Str{Value: key}}
}

func TestCompileNumericComparison(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{
		Left:  &ast.Cast{To: "int", Value: dataRef("count")},
		Op:    ">",
		Right: &ast.Num{Raw: "5"},
	}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if !n.IsLeaf() {
		t.Fatalf("expected a leaf node, got %+v", n)
	}
	if n.Comparator != "NumericGreaterThan" {
		t.Errorf("Comparator = %q, want %q", n.Comparator, "NumericGreaterThan")
	}
	if n.Variable != "$['count']" {
		t.Errorf("Variable = %q, want %q", n.Variable, "$['count']")
	}
}

func TestCompileFlipsLiteralOnLeft(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{
		Left:  &ast.Str{Value: "open"},
		Op:    "==",
		Right: dataRef("status"),
	}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if n.Variable != "$['status']" {
		t.Errorf("Variable = %q, want %q", n.Variable, "$['status']")
	}
	if n.Comparator != "StringEquals" {
		t.Errorf("Comparator = %q, want %q", n.Comparator, "StringEquals")
	}
}

func TestCompileNotEqualsWrapsInNot(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{Left: dataRef("status"), Op: "!=", Right: &ast.Str{Value: "done"}}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if n.Not == nil {
		t.Fatalf("expected a Not wrapper, got %+v", n)
	}
	if n.Not.Comparator != "StringEquals" {
		t.Errorf("inner Comparator = %q, want %q", n.Not.Comparator, "StringEquals")
	}
}

func TestCompileIsNone(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{Left: dataRef("err"), Op: "is not", Right: &ast.NoneLit{}}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if n.Not == nil || n.Not.Comparator != "IsNull" {
		t.Fatalf("expected Not{IsNull}, got %+v", n)
	}
}

func TestCompileTwoUncastedDataRefsIsSyntaxUnsupported(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{Left: dataRef("a"), Op: "==", Right: dataRef("b")}, sink)

	if n != nil {
		t.Fatalf("expected nil node, got %+v", n)
	}
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for uncasted data-ref comparison")
	}
	if sink.Items()[0].Kind != diag.SyntaxUnsupported {
		t.Errorf("Kind = %q, want %q", sink.Items()[0].Kind, diag.SyntaxUnsupported)
	}
}

func TestCompileCastOfNonDataRefIsDiagnostic(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{
		Left:  &ast.Cast{To: "str", Value: &ast.Num{Raw: "5"}},
		Op:    "==",
		Right: &ast.Str{Value: "5"},
	}, sink)

	if n != nil {
		t.Fatalf("expected nil node, got %+v", n)
	}
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for a cast of a non-data-reference")
	}
	if sink.Items()[0].Kind != diag.SyntaxUnsupported {
		t.Errorf("Kind = %q, want %q", sink.Items()[0].Kind, diag.SyntaxUnsupported)
	}
	if len(sink.Items()) != 1 {
		t.Errorf("diagnostics = %d, want exactly 1", len(sink.Items()))
	}
}

func TestCompileCastedDataRefPairUsesPathComparator(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{
		Left:  &ast.Cast{To: "int", Value: dataRef("a")},
		Op:    "<",
		Right: dataRef("b"),
	}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if n.Comparator != "NumericLessThanPath" {
		t.Errorf("Comparator = %q, want %q", n.Comparator, "NumericLessThanPath")
	}
	if n.Variable != "$['a']" {
		t.Errorf("Variable = %q, want %q", n.Variable, "$['a']")
	}
	if n.Value != "$['b']" {
		t.Errorf("Value = %v, want %q", n.Value, "$['b']")
	}
}

func TestCompileBoolOpFlattensNestedAnd(t *testing.T) {
	sink := diag.NewSink()
	leaf := func(key string) ast.Expr {
		return &ast.Compare{Left: dataRef(key), Op: "==", Right: &ast.Str{Value: "x"}}
	}
	n := Compile(&ast.BoolOp{Op: "and", Values: []ast.Expr{
		&ast.BoolOp{Op: "and", Values: []ast.Expr{leaf("a"), leaf("b")}},
		leaf("c"),
	}}, sink)

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Items())
	}
	if len(n.And) != 3 {
		t.Fatalf("And = %d children, want 3 (flattened)", len(n.And))
	}
}

func TestCompileOrderingOnBoolIsUnsupported(t *testing.T) {
	sink := diag.NewSink()
	n := Compile(&ast.Compare{Left: &ast.Cast{To: "bool", Value: dataRef("flag")}, Op: "<", Right: &ast.BoolLit{Value: true}}, sink)

	if n != nil {
		t.Fatalf("expected nil node, got %+v", n)
	}
	if !sink.HasErrors() {
		t.Fatal("expected a diagnostic for ordering comparison on bool")
	}
}
