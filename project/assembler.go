// Package project assembles a parsed module into an ir.Project: a
// two-pass walk that classifies module-scope class and function
// definitions, then drives the statement visitor and linker over every
// state-machine function in turn.
package project

import (
	"log/slog"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/decorator"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
	"github.com/c360studio/flowc/linker"
	"github.com/c360studio/flowc/task"
	"github.com/c360studio/flowc/visitor"
)

// Assembler collects module-scope definitions into a Project and
// translates each state-machine function: collect definitions first, then
// resolve references.
type Assembler struct {
	Config *task.Config
	Logger *slog.Logger
}

// New returns an Assembler. cfg may be nil (task.DefaultConfig applies);
// logger may be nil (a discard logger is used).
func New(cfg *task.Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{Config: cfg, Logger: logger}
}

// Assemble classifies mod's module-scope definitions into TaskDefinitions
// and candidate state-machine functions (pass 1), then visits and links
// each function (pass 2, which also resolves task and function
// references — the callers of resolveTask and lookupFunction in package
// visitor raise ReferenceError inline as each call site is visited, rather
// than in a separate walk). Translation of a function is abandoned on its first
// hard error; the Assembler continues with the next one, accumulating
// diagnostics from all of them into sink.
func (a *Assembler) Assemble(mod *ast.Module, sink *diag.Sink) *ir.Project {
	proj := ir.NewProject()

	for _, cls := range mod.Classes {
		def, ok := buildTaskDefinition(cls, sink)
		if !ok {
			continue
		}
		if _, exists := proj.Tasks[def.Name]; exists {
			sink.Add(diag.KeyCollision, cls.NodePos, "duplicate task class %q", def.Name)
			continue
		}
		proj.AddTask(def)
	}

	functions := make(map[string]*ast.FunctionDef, len(mod.Functions))
	for _, fn := range mod.Functions {
		if _, exists := functions[fn.Name]; exists {
			sink.Add(diag.KeyCollision, fn.NodePos, "duplicate state machine %q", fn.Name)
			continue
		}
		functions[fn.Name] = fn
	}

	for _, fn := range mod.Functions {
		if functions[fn.Name] != fn {
			continue
		}
		a.translateFunction(fn, functions, proj, sink)
	}

	return proj
}

func (a *Assembler) translateFunction(fn *ast.FunctionDef, functions map[string]*ast.FunctionDef, proj *ir.Project, sink *diag.Sink) {
	logger := a.Logger.With(slog.String("state_machine", fn.Name))
	local := sink.Fork()

	sm := &ir.StateMachine{Name: fn.Name}
	decorator.Process(fn.Decorators, sm, local)

	v := visitor.New(proj, functions, a.Config, local, logger)
	sm.SubMachine = v.VisitBody(fn.Body)
	linker.New().Link(sm.SubMachine, local)

	sink.Extend(local.Items())
	if local.HasErrors() {
		logger.Error("abandoning state machine translation", slog.Int("diagnostics", len(local.Items())))
		return
	}
	logger.Info("translated state machine", slog.Int("states", len(sm.Keys)))
	proj.AddStateMachine(sm)
}
