// Package translate wires the source reader, project assembler, and the
// rest of the pipeline into a single entry point:
// source -> AST -> assembler -> statement visitor (per function)
// -> fragment tree -> linker -> IR graph.
package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
	"github.com/c360studio/flowc/project"
	"github.com/c360studio/flowc/source/python"
	"github.com/c360studio/flowc/task"
)

// Options configures a single Translate call. All fields are optional.
type Options struct {
	Config *task.Config
	Logger *slog.Logger
}

// Result is the outcome of translating one project source file: the
// (possibly partial) Project plus every diagnostic recorded along the
// way. The translator always returns what it built.
type Result struct {
	Project     *ir.Project
	Diagnostics []diag.Diagnostic
	RunID       string
}

// Translate parses src as a DSL project file and lowers it into an
// ir.Project. A non-nil error is only returned for a failure in reading
// the source itself (a tree-sitter parse error); diagnostics recorded
// during translation never surface as a Go error.
func Translate(ctx context.Context, src []byte, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sink := diag.NewSink()
	logger = logger.With(slog.String("run_id", sink.RunID))

	mod, err := python.NewReader().Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	asm := project.New(opts.Config, logger)
	proj := asm.Assemble(mod, sink)

	for _, d := range sink.Items() {
		level := slog.LevelError
		if d.Severity == diag.SeverityWarning {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "diagnostic", slog.String("kind", string(d.Kind)), slog.Int("line", d.Pos.Line), slog.Int("col", d.Pos.Col), slog.String("message", d.Message))
	}

	return &Result{Project: proj, Diagnostics: sink.Items(), RunID: sink.RunID}, nil
}

// HasErrors reports whether any error-severity diagnostic was recorded;
// warnings alone leave it false.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

// CheckInvariants verifies structural invariants against an already-built
// Project: key uniqueness, edge closure, single start state, choice
// totality, and task-reference resolution. It is verification tooling;
// callers may use it to sanity-check a Project before rendering it.
func CheckInvariants(p *ir.Project) []error {
	var errs []error
	for name, sm := range p.StateMachines {
		errs = append(errs, checkSubMachine(p, name, sm.SubMachine)...)
	}
	return errs
}

func checkSubMachine(p *ir.Project, label string, sm *ir.SubMachine) []error {
	var errs []error

	seen := make(map[string]bool, len(sm.Keys))
	for _, key := range sm.Keys {
		if seen[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate state key %q", label, key))
		}
		seen[key] = true
	}

	if sm.StartKey == "" {
		errs = append(errs, fmt.Errorf("%s: no start state", label))
	} else if _, ok := sm.States[sm.StartKey]; !ok {
		errs = append(errs, fmt.Errorf("%s: start state %q not in states table", label, sm.StartKey))
	}

	checkEdge := func(from, to string) {
		if to == "" {
			return
		}
		if _, ok := sm.States[to]; !ok {
			errs = append(errs, fmt.Errorf("%s: %s references missing state %q", label, from, to))
		}
	}

	for key, state := range sm.States {
		h := state.Header()
		if h.Next != "" {
			checkEdge(key, h.Next)
		}
		switch st := state.(type) {
		case *ir.Choice:
			if st.Default == "" {
				errs = append(errs, fmt.Errorf("%s: choice %q has no Default", label, key))
			}
			checkEdge(key, st.Default)
			for _, branch := range st.Branches {
				checkEdge(key, branch.NextKey)
			}
		case *ir.Task:
			for _, c := range st.Catch {
				checkEdge(key, c.NextKey)
			}
			if _, ok := p.Tasks[st.TaskClass]; !ok {
				errs = append(errs, fmt.Errorf("%s: %s references undefined task class %q", label, key, st.TaskClass))
			}
		case *ir.Map:
			errs = append(errs, checkSubMachine(p, label+"."+key, st.Iterator)...)
		case *ir.Parallel:
			for i, branch := range st.Branches {
				errs = append(errs, checkSubMachine(p, fmt.Sprintf("%s.%s[%d]", label, key, i), branch)...)
			}
		}
	}

	return errs
}
