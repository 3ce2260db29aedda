// Package visitor walks the statement list of a state-machine function
// body and produces a connected graph of IR fragments.
package visitor

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
	"github.com/c360studio/flowc/task"
)

// StatementVisitor carries the shared state a single translation pass
// needs: the project being assembled (for resolving task-class and
// function references), the diagnostics sink, and an injectable logger.
type StatementVisitor struct {
	Project   *ir.Project
	Functions map[string]*ast.FunctionDef
	Sink      *diag.Sink
	Config    *task.Config
	Logger    *slog.Logger

	autoCounter  int
	implicitEnds map[*ir.SubMachine]string
}

// New builds a StatementVisitor. logger may be nil, in which case a
// discard logger is used.
func New(project *ir.Project, functions map[string]*ast.FunctionDef, cfg *task.Config, sink *diag.Sink, logger *slog.Logger) *StatementVisitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg == nil {
		cfg = task.DefaultConfig()
	}
	return &StatementVisitor{
		Project:      project,
		Functions:    functions,
		Sink:         sink,
		Config:       cfg,
		Logger:       logger,
		implicitEnds: make(map[*ir.SubMachine]string),
	}
}

// continuation tells a statement how to wire its own "what happens next"
// edge: either a concrete target key, or the end-of-sub-machine marker.
type continuation struct {
	key string
	end bool
}

func toKey(key string) continuation { return continuation{key: key} }

var endCont = continuation{end: true}

// nextPlaceholder returns a fresh key guaranteed not to collide with any
// explicit user-chosen key; the Linker replaces it with a synthesized
// "<Kind>-<n>" key during its renaming pass.
func (v *StatementVisitor) nextPlaceholder() string {
	v.autoCounter++
	return fmt.Sprintf("\x00auto%d", v.autoCounter)
}

// implicitEnd lazily creates (and memoizes per sub-machine) a Succeed
// state used as the fallthrough target when a branch or handler body
// needs a concrete key but there is no following statement — e.g. an
// if-statement with no else that is the last statement in its body.
func (v *StatementVisitor) implicitEnd(sm *ir.SubMachine) string {
	if key, ok := v.implicitEnds[sm]; ok {
		return key
	}
	key := v.nextPlaceholder()
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: key}})
	v.implicitEnds[sm] = key
	return key
}

// resolveKey turns a continuation into a concrete key, synthesizing an
// implicit Succeed if needed.
func (v *StatementVisitor) resolveKey(sm *ir.SubMachine, cont continuation) string {
	if cont.key != "" {
		return cont.key
	}
	return v.implicitEnd(sm)
}
