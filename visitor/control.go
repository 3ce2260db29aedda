package visitor

import (
	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// visitMap lowers `map(items_expr, iterator_fn, max_concurrency=?)`. The
// iterator function's body becomes its own isolated SubMachine.
func (v *StatementVisitor) visitMap(call *ast.Call, sm *ir.SubMachine, cont continuation) string {
	if len(call.Args) != 2 {
		v.Sink.Add(diag.ShapeError, call.Position(), "map() requires exactly two positional arguments")
		return v.resolveKey(sm, cont)
	}

	itemsPath, ok := ast.JSONPath(call.Args[0])
	if !ok {
		v.Sink.Add(diag.ShapeError, call.Position(), "map() items argument must be a data reference")
		return v.resolveKey(sm, cont)
	}

	fn, ok := v.lookupFunction(call.Args[1])
	if !ok {
		v.Sink.Add(diag.ReferenceError, call.Position(), "map() iterator must name a function defined at module scope")
		return v.resolveKey(sm, cont)
	}

	m := &ir.Map{
		StateHeader: ir.StateHeader{KeyName: v.nextPlaceholder()},
		ItemsPath:   itemsPath,
		Iterator:    v.VisitBody(fn.Body),
	}
	for _, kw := range call.Keywords {
		if kw.Arg == "max_concurrency" {
			if n, ok := kw.Value.(*ast.Num); ok && !n.IsFloat {
				val := int(mustInt(n.Raw))
				m.MaxConcurrency = &val
			}
		}
	}

	v.wireNext(&m.StateHeader, sm, cont)
	sm.Add(m)
	return m.KeyName
}

// visitParallel lowers `parallel(fn1, fn2, ...)`. Branch count is fixed
// at compile time; each argument must name a function defined at module
// scope — naming a task class instead is a ReferenceError.
func (v *StatementVisitor) visitParallel(call *ast.Call, sm *ir.SubMachine, cont continuation) string {
	if len(call.Args) == 0 {
		v.Sink.Add(diag.ShapeError, call.Position(), "parallel() requires at least one branch function")
		return v.resolveKey(sm, cont)
	}

	p := &ir.Parallel{StateHeader: ir.StateHeader{KeyName: v.nextPlaceholder()}}
	for _, arg := range call.Args {
		fn, ok := v.lookupFunction(arg)
		if !ok {
			v.Sink.Add(diag.ReferenceError, arg.Position(), "parallel() branch must name a function defined at module scope")
			continue
		}
		p.Branches = append(p.Branches, v.VisitBody(fn.Body))
	}

	v.wireNext(&p.StateHeader, sm, cont)
	sm.Add(p)
	return p.KeyName
}

// lookupFunction resolves a Name expression to a module-scope function
// definition. It deliberately rejects task-class references: a *ast.Name
// that resolves to a TaskDefinition instead of a function is not a valid
// map/parallel argument.
func (v *StatementVisitor) lookupFunction(e ast.Expr) (*ast.FunctionDef, bool) {
	n, ok := e.(*ast.Name)
	if !ok {
		return nil, false
	}
	fn, ok := v.Functions[n.Id]
	return fn, ok
}
