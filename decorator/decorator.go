// Package decorator reads a state-machine function's decorator list and
// attaches the schedule/subscription/export metadata the assembler needs
// before the function body itself is visited.
package decorator

import (
	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// Process reads decorators and populates sm's schedule/subscription/export
// fields. Exactly three decorator names are recognized; any other name is
// a DecoratorError. Applying schedule or subscribe implicitly marks the
// state machine exported.
func Process(decorators []ast.Decorator, sm *ir.StateMachine, sink *diag.Sink) {
	for _, d := range decorators {
		switch d.Name {
		case "schedule":
			processSchedule(d, sm, sink)
		case "subscribe":
			processSubscribe(d, sm, sink)
		case "export":
			sm.Exported = true
		default:
			sink.Add(diag.DecoratorError, d.Pos, "unrecognized decorator %q", d.Name)
		}
	}
}

func processSchedule(d ast.Decorator, sm *ir.StateMachine, sink *diag.Sink) {
	expr, ok := stringKeyword(d.Keywords, "expression")
	if !ok {
		sink.Add(diag.DecoratorError, d.Pos, "schedule() requires a string expression= argument")
		return
	}
	sm.ScheduleExpression = &expr
	sm.Exported = true
}

func processSubscribe(d ast.Decorator, sm *ir.StateMachine, sink *diag.Sink) {
	project, ok := stringKeyword(d.Keywords, "project")
	if !ok {
		sink.Add(diag.DecoratorError, d.Pos, "subscribe() requires a string project= argument")
		return
	}

	sub := &ir.Subscription{
		Project:         project,
		StateMachineRef: "main",
		Status:          "success",
	}
	if ref, ok := stringKeyword(d.Keywords, "state_machine"); ok {
		sub.StateMachineRef = ref
	}
	if status, ok := stringKeyword(d.Keywords, "status"); ok {
		if status != "success" && status != "failure" {
			sink.Add(diag.DecoratorError, d.Pos, "subscribe() status must be \"success\" or \"failure\", got %q", status)
			return
		}
		sub.Status = status
	}
	if arn, ok := stringKeyword(d.Keywords, "topic_arn_import_value"); ok {
		sub.TopicArnImportValue = &arn
	}

	sm.Subscription = sub
	sm.Exported = true
}

func stringKeyword(keywords []ast.Keyword, name string) (string, bool) {
	for _, kw := range keywords {
		if kw.Arg != name {
			continue
		}
		str, ok := kw.Value.(*ast.Str)
		if !ok {
			return "", false
		}
		return str.Value, true
	}
	return "", false
}
