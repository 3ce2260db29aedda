package visitor

import (
	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/choice"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// retryCtx carries the enclosing `with retry(...):` scope, if any, so the
// single task call it wraps can have a Retry entry attached.
type retryCtx struct {
	entry ir.Retry
}

// VisitBody walks a state-machine function's body and returns an unlinked
// SubMachine: every fragment has been created and its Next/End edges
// resolved via continuation-passing, but keys may still be placeholders
// pending the Linker's renaming pass.
func (v *StatementVisitor) VisitBody(body []ast.Stmt) *ir.SubMachine {
	sm := ir.NewSubMachine()
	if len(body) == 0 {
		// Boundary behavior: empty function body => one Succeed state.
		key := v.nextPlaceholder()
		sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: key}})
		sm.StartKey = key
		return sm
	}
	first := v.emitStmts(body, sm, nil, endCont)
	sm.StartKey = first
	return sm
}

// emitStmts visits a statement list right-to-left so each statement's
// continuation is the first key of whatever follows it (or cont, for the
// last statement in the list).
func (v *StatementVisitor) emitStmts(stmts []ast.Stmt, sm *ir.SubMachine, retry *retryCtx, cont continuation) string {
	next := cont
	var first string
	for i := len(stmts) - 1; i >= 0; i-- {
		key := v.visitStmt(stmts[i], sm, retry, next)
		first = key
		next = toKey(key)
	}
	return first
}

// visitStmt emits the fragment(s) for one statement and wires its Next/End
// edge from cont. It returns the key of the first fragment emitted for
// this statement (the target other fragments should link to).
func (v *StatementVisitor) visitStmt(stmt ast.Stmt, sm *ir.SubMachine, retry *retryCtx, cont continuation) string {
	switch s := stmt.(type) {
	case *ast.Assign:
		return v.visitAssign(s, sm, retry, cont)
	case *ast.ExprStmt:
		return v.visitExprStmt(s, sm, retry, cont)
	case *ast.If:
		return v.visitIf(s, sm, cont)
	case *ast.Try:
		return v.visitTry(s, sm, cont)
	case *ast.With:
		return v.visitWith(s, sm, cont)
	case *ast.Raise:
		return v.visitRaise(s, sm)
	case *ast.Return:
		return v.visitReturn(s, sm)
	case *ast.Unsupported:
		v.Sink.Add(diag.SyntaxUnsupported, s.Position(), "unsupported statement: %s", s.Description)
		return v.resolveKey(sm, cont)
	default:
		v.Sink.Add(diag.SyntaxUnsupported, stmt.Position(), "unrecognized statement shape %T", stmt)
		return v.resolveKey(sm, cont)
	}
}

func (v *StatementVisitor) visitReturn(s *ast.Return, sm *ir.SubMachine) string {
	key := v.nextPlaceholder()
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: key}})
	return key
}

func (v *StatementVisitor) visitRaise(s *ast.Raise, sm *ir.SubMachine) string {
	key := v.nextPlaceholder()
	fail := &ir.Fail{StateHeader: ir.StateHeader{KeyName: key}, Error: callName(&s.Exc)}
	if len(s.Exc.Args) > 0 {
		if str, ok := s.Exc.Args[0].(*ast.Str); ok {
			fail.Cause = str.Value
		}
	}
	sm.Add(fail)
	return key
}

func (v *StatementVisitor) wireNext(h *ir.StateHeader, sm *ir.SubMachine, cont continuation) {
	if cont.key != "" {
		h.Next = cont.key
		return
	}
	h.End = true
}

// visitAssign handles `data[K] = TaskClass(...)`, `data[K] = <literal>`,
// and rejects any other assignment target/value shape.
func (v *StatementVisitor) visitAssign(s *ast.Assign, sm *ir.SubMachine, retry *retryCtx, cont continuation) string {
	resultPath, ok := ast.JSONPath(s.Target)
	if !ok {
		v.Sink.Add(diag.ShapeError, s.Position(), "assignment target must be a subscript on data")
		return v.resolveKey(sm, cont)
	}

	if call, ok := s.Value.(*ast.Call); ok {
		if def := v.resolveTask(call); def != nil {
			return v.emitTask(def, call, sm, retry, resultPath, cont)
		}
	}

	lit, ok := literalValue(s.Value)
	if !ok {
		v.Sink.Add(diag.SyntaxUnsupported, s.Position(), "assignment value must be a task call or a literal")
		return v.resolveKey(sm, cont)
	}
	key := explicitOrAuto("", v)
	pass := &ir.Pass{StateHeader: ir.StateHeader{KeyName: key}, Result: lit, ResultPath: resultPath}
	v.wireNext(&pass.StateHeader, sm, cont)
	sm.Add(pass)
	return key
}

// visitExprStmt handles bare task calls, `data.update({...})`, `map(...)`,
// `parallel(...)`, `wait(...)`, and `context.stop_execution(...)`.
func (v *StatementVisitor) visitExprStmt(s *ast.ExprStmt, sm *ir.SubMachine, retry *retryCtx, cont continuation) string {
	call, ok := s.Value.(*ast.Call)
	if !ok {
		v.Sink.Add(diag.SyntaxUnsupported, s.Position(), "expression statement must be a call")
		return v.resolveKey(sm, cont)
	}

	if isDataUpdate(call) {
		return v.visitDataUpdate(call, sm, cont)
	}
	if isAttrCall(call, "context", "stop_execution") {
		return v.visitStopExecution(call, sm)
	}
	if name, ok := calledName(call); ok {
		switch name {
		case "map":
			return v.visitMap(call, sm, cont)
		case "parallel":
			return v.visitParallel(call, sm, cont)
		case "wait":
			return v.visitWait(call, sm, cont)
		}
	}
	if def := v.resolveTask(call); def != nil {
		return v.emitTask(def, call, sm, retry, "", cont)
	}

	v.Sink.Add(diag.ReferenceError, s.Position(), "call does not reference a known task class or builtin")
	return v.resolveKey(sm, cont)
}

func (v *StatementVisitor) visitDataUpdate(call *ast.Call, sm *ir.SubMachine, cont continuation) string {
	if len(call.Args) != 1 {
		v.Sink.Add(diag.ShapeError, call.Position(), "data.update() takes exactly one dict argument")
		return v.resolveKey(sm, cont)
	}
	lit, ok := literalValue(call.Args[0])
	if !ok {
		v.Sink.Add(diag.SyntaxUnsupported, call.Position(), "data.update() argument must be a literal dict")
		return v.resolveKey(sm, cont)
	}
	key := v.nextPlaceholder()
	pass := &ir.Pass{StateHeader: ir.StateHeader{KeyName: key}, Result: lit, ResultPath: "$"}
	v.wireNext(&pass.StateHeader, sm, cont)
	sm.Add(pass)
	return key
}

func (v *StatementVisitor) visitStopExecution(call *ast.Call, sm *ir.SubMachine) string {
	key := v.nextPlaceholder()
	fail := &ir.Fail{StateHeader: ir.StateHeader{KeyName: key}}
	for _, kw := range call.Keywords {
		str, ok := kw.Value.(*ast.Str)
		if !ok {
			continue
		}
		switch kw.Arg {
		case "error":
			fail.Error = str.Value
		case "cause":
			fail.Cause = str.Value
		}
	}
	sm.Add(fail)
	return key
}

func (v *StatementVisitor) visitWait(call *ast.Call, sm *ir.SubMachine, cont continuation) string {
	w := &ir.Wait{StateHeader: ir.StateHeader{KeyName: v.nextPlaceholder()}}
	for _, kw := range call.Keywords {
		switch kw.Arg {
		case "seconds":
			if n, ok := kw.Value.(*ast.Num); ok {
				val := int(mustInt(n.Raw))
				w.Seconds = &val
			} else if path, ok := ast.JSONPath(kw.Value); ok {
				w.SecondsPath = &path
			}
		case "timestamp":
			if str, ok := kw.Value.(*ast.Str); ok {
				w.Timestamp = &str.Value
			} else if path, ok := ast.JSONPath(kw.Value); ok {
				w.TimestampPath = &path
			}
		}
	}
	if w.Seconds == nil && w.SecondsPath == nil && w.Timestamp == nil && w.TimestampPath == nil {
		v.Sink.Add(diag.ShapeError, call.Position(), "wait() requires seconds or timestamp")
	}
	v.wireNext(&w.StateHeader, sm, cont)
	sm.Add(w)
	return w.KeyName
}

// visitIf lowers an if/elif*/else chain into one Choice state.
func (v *StatementVisitor) visitIf(s *ast.If, sm *ir.SubMachine, cont continuation) string {
	key := v.nextPlaceholder()
	ch := &ir.Choice{StateHeader: ir.StateHeader{KeyName: key}}

	addBranch := func(test ast.Expr, body []ast.Stmt) {
		if len(body) == 0 {
			v.Sink.Add(diag.ShapeError, test.Position(), "choice branch body must not be empty")
			return
		}
		pred := choice.Compile(test, v.Sink)
		target := v.emitStmts(body, sm, nil, cont)
		if pred == nil {
			return
		}
		ch.Branches = append(ch.Branches, ir.ChoiceBranch{Predicate: pred, NextKey: target})
	}

	addBranch(s.Test, s.Body)
	for _, elif := range s.Elifs {
		addBranch(elif.Test, elif.Body)
	}

	if s.HasElse {
		ch.Default = v.emitStmts(s.Else, sm, nil, cont)
	} else {
		ch.Default = v.resolveKey(sm, cont)
	}

	sm.Add(ch)
	return key
}

// visitTry lowers a try/except chain: the try-body's first state gets a
// Catch pointing at each handler's first state. A try-body with multiple
// statements is legal; only the first receives the Catch (subsequent
// statements run only if the first succeeds).
func (v *StatementVisitor) visitTry(s *ast.Try, sm *ir.SubMachine, cont continuation) string {
	if len(s.Body) == 0 {
		v.Sink.Add(diag.ShapeError, s.Position(), "try body must not be empty")
		return v.resolveKey(sm, cont)
	}

	var catches []ir.Catch
	for _, h := range s.Handlers {
		if len(h.Body) == 0 {
			v.Sink.Add(diag.ShapeError, h.Pos, "except body must not be empty")
			continue
		}
		target := v.emitStmts(h.Body, sm, nil, cont)
		errs := h.Types
		if len(errs) == 0 {
			errs = []string{"States.ALL"}
		}
		catches = append(catches, ir.Catch{Errors: errs, NextKey: target})
	}

	firstKey := v.emitStmts(s.Body, sm, nil, cont)
	if first, ok := sm.States[firstKey]; ok && len(catches) > 0 {
		if !attachCatch(first, catches) {
			v.Sink.Add(diag.ShapeError, s.Position(), "try body must begin with a task call for except handlers to attach to")
		}
	}
	return firstKey
}

// visitWith lowers `with retry(...): <single task call>`.
func (v *StatementVisitor) visitWith(s *ast.With, sm *ir.SubMachine, cont continuation) string {
	if !isName(s.Item.Func, "retry") {
		v.Sink.Add(diag.SyntaxUnsupported, s.Position(), "only 'with retry(...):' is supported")
		return v.resolveKey(sm, cont)
	}
	if len(s.Body) != 1 {
		v.Sink.Add(diag.ShapeError, s.Position(), "retry() must wrap exactly one statement")
		return v.resolveKey(sm, cont)
	}

	entry := ir.Retry{IntervalSeconds: 1, MaxAttempts: 3, BackoffRate: 2.0, Errors: []string{"States.ALL"}}
	for _, kw := range s.Item.Keywords {
		n, isNum := kw.Value.(*ast.Num)
		switch kw.Arg {
		case "interval":
			if isNum {
				entry.IntervalSeconds = int(mustInt(n.Raw))
			}
		case "max_attempts":
			if isNum {
				entry.MaxAttempts = int(mustInt(n.Raw))
			}
		case "backoff_rate":
			if isNum {
				entry.BackoffRate = mustFloat(n.Raw)
			}
		}
	}

	key := v.emitStmts(s.Body, sm, &retryCtx{entry: entry}, cont)
	return key
}

// attachCatch reports whether the state can carry the catch list; only
// Task states can fail into a handler.
func attachCatch(state ir.State, catches []ir.Catch) bool {
	t, ok := state.(*ir.Task)
	if !ok {
		return false
	}
	t.Catch = append(t.Catch, catches...)
	return true
}

func explicitOrAuto(explicit string, v *StatementVisitor) string {
	if explicit != "" {
		return explicit
	}
	return v.nextPlaceholder()
}
