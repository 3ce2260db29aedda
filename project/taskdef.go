package project

import (
	"unicode"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// buildTaskDefinition lowers a task class body (a flat list of attribute
// assignments plus, for every service but ecs:worker, a single async entry
// method) into an ir.TaskDefinition. ok is false only when the
// class cannot be used at all (never the case today; kept for symmetry
// with the other builder functions and in case a future hard-reject
// attribute shape is added).
func buildTaskDefinition(cls *ast.ClassDef, sink *diag.Sink) (def *ir.TaskDefinition, ok bool) {
	if !isPascalCase(cls.Name) {
		sink.Add(diag.AttributeError, cls.NodePos, "task class name %q must be PascalCase", cls.Name)
	}

	def = ir.DefaultTaskDefinition(cls.Name, "lambda")

	for _, attr := range cls.Attrs {
		applyAttr(def, attr, sink)
	}

	if def.Service != "ecs:worker" {
		if method := runMethod(cls); method != nil {
			def.RunBody = method.RawSource
		} else {
			sink.Add(diag.ShapeError, cls.NodePos, "task %q: missing async entry method", cls.Name)
		}
	}

	return def, true
}

func applyAttr(def *ir.TaskDefinition, attr ast.ClassAttr, sink *diag.Sink) {
	switch attr.Name {
	case "service":
		s, ok := stringLiteral(attr.Value)
		if !ok {
			sink.Add(diag.AttributeError, attr.Pos, "task %q: service must be a string literal", def.Name)
			return
		}
		if !validService(s) {
			sink.Add(diag.AttributeError, attr.Pos, "task %q: unrecognized service %q", def.Name, s)
			return
		}
		def.Service = s
	case "timeout":
		if n, ok := intLiteral(attr.Value); ok {
			def.Timeout = n
		}
	case "cpu":
		if n, ok := intLiteral(attr.Value); ok {
			def.CPU = n
		}
	case "memory":
		if n, ok := intLiteral(attr.Value); ok {
			def.Memory = n
		}
	case "spec":
		if s, ok := stringLiteral(attr.Value); ok {
			def.Spec = s
		}
	case "concurrency":
		if n, ok := intLiteral(attr.Value); ok {
			def.Concurrency = n
		}
	case "heartbeat_interval":
		if n, ok := intLiteral(attr.Value); ok {
			def.HeartbeatInterval = &n
		}
	case "autoscaling_min":
		if n, ok := intLiteral(attr.Value); ok {
			def.AutoscalingMin = &n
		}
	case "autoscaling_max":
		if n, ok := intLiteral(attr.Value); ok {
			def.AutoscalingMax = &n
		}
	default:
		sink.Add(diag.AttributeError, attr.Pos, "task %q: unrecognized attribute %q", def.Name, attr.Name)
	}
}

// runMethod returns the task class's single entry method, if any. The DSL
// subset allows at most one; the reader keeps every method def in source
// order, and any after the first is simply ignored here.
func runMethod(cls *ast.ClassDef) *ast.FunctionDef {
	if len(cls.Methods) == 0 {
		return nil
	}
	return cls.Methods[0]
}

func validService(s string) bool {
	switch s {
	case "lambda", "ecs", "lambda:pexpm-runner", "ecs:worker":
		return true
	default:
		return false
	}
}

func stringLiteral(e ast.Expr) (string, bool) {
	s, ok := e.(*ast.Str)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func intLiteral(e ast.Expr) (int, bool) {
	n, ok := e.(*ast.Num)
	if !ok || n.IsFloat {
		return 0, false
	}
	var v int
	for _, r := range n.Raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int(r-'0')
	}
	return v, true
}

func isPascalCase(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	return unicode.IsUpper(r[0])
}
