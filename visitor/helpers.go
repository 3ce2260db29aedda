package visitor

import (
	"strconv"

	"github.com/c360studio/flowc/ast"
)

func calledName(call *ast.Call) (string, bool) {
	n, ok := call.Func.(*ast.Name)
	if !ok {
		return "", false
	}
	return n.Id, true
}

func callName(call *ast.Call) string {
	if name, ok := calledName(call); ok {
		return name
	}
	return ""
}

func isName(e ast.Expr, name string) bool {
	n, ok := e.(*ast.Name)
	return ok && n.Id == name
}

func isAttrCall(call *ast.Call, recv, attr string) bool {
	a, ok := call.Func.(*ast.Attribute)
	if !ok || a.Attr != attr {
		return false
	}
	return isName(a.Value, recv)
}

func isDataUpdate(call *ast.Call) bool {
	return isAttrCall(call, "data", "update")
}

func mustInt(raw string) int64 {
	n, _ := strconv.ParseInt(raw, 10, 64)
	return n
}

func mustFloat(raw string) float64 {
	f, _ := strconv.ParseFloat(raw, 64)
	return f
}

// literalValue converts a literal expression into a plain Go value
// suitable for ir.Pass.Result. ok is false if e is not a literal shape.
func literalValue(e ast.Expr) (any, bool) {
	switch v := e.(type) {
	case *ast.Str:
		return v.Value, true
	case *ast.Num:
		if v.IsFloat {
			return mustFloat(v.Raw), true
		}
		return mustInt(v.Raw), true
	case *ast.BoolLit:
		return v.Value, true
	case *ast.NoneLit:
		return nil, true
	case *ast.DictLit:
		out := make(map[string]any, len(v.Keys))
		for i, k := range v.Keys {
			val, ok := literalValue(v.Values[i])
			if !ok {
				return nil, false
			}
			out[k] = val
		}
		return out, true
	case *ast.ListLit:
		out := make([]any, 0, len(v.Values))
		for _, item := range v.Values {
			val, ok := literalValue(item)
			if !ok {
				return nil, false
			}
			out = append(out, val)
		}
		return out, true
	default:
		return nil, false
	}
}
