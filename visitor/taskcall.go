package visitor

import (
	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
	"github.com/c360studio/flowc/task"
)

// resolveTask returns the TaskDefinition a call site references, or nil
// if the call is not a reference to any known task class (in which case
// the caller treats it as some other statement shape, not an error by
// itself — callers that require a task reference raise ReferenceError).
func (v *StatementVisitor) resolveTask(call *ast.Call) *ir.TaskDefinition {
	name, ok := calledName(call)
	if !ok {
		return nil
	}
	return v.Project.Tasks[name]
}

// emitTask lowers a task-class call site into a Task state, honoring the
// call-site `key=` and `timeout=` keyword overrides, the single optional
// positional argument (the InputPath source), and an enclosing retry
// scope.
func (v *StatementVisitor) emitTask(def *ir.TaskDefinition, call *ast.Call, sm *ir.SubMachine, retry *retryCtx, resultPath string, cont continuation) string {
	effective := *def
	explicitKey := ""
	for _, kw := range call.Keywords {
		switch kw.Arg {
		case "key":
			if str, ok := kw.Value.(*ast.Str); ok {
				explicitKey = str.Value
			}
		case "timeout":
			if n, ok := kw.Value.(*ast.Num); ok && !n.IsFloat {
				effective.Timeout = int(mustInt(n.Raw))
			}
		}
	}

	inputPath := ""
	if len(call.Args) == 1 {
		path, ok := ast.JSONPath(call.Args[0])
		if !ok {
			v.Sink.Add(diag.ShapeError, call.Position(), "task argument must be a data reference")
		} else {
			inputPath = path
		}
	} else if len(call.Args) > 1 {
		v.Sink.Add(diag.ShapeError, call.Position(), "task calls accept at most one positional argument")
	}

	key := explicitOrAuto(explicitKey, v)
	t := task.New(v.Config, &effective, call.Position(), resultPath != "", resultPath, inputPath, v.Sink)
	if t == nil {
		return key
	}
	t.KeyName = key
	if retry != nil {
		t.Retry = append(t.Retry, retry.entry)
	}
	v.wireNext(&t.StateHeader, sm, cont)
	sm.Add(t)
	return key
}
