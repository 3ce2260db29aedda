// Package diag implements the translator's diagnostics sink: the only
// user-visible side channel a state-machine translation produces.
// Diagnostics never carry exceptional control flow; callers inspect the
// returned slice.
package diag

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/c360studio/flowc/ast"
)

// Kind classifies a diagnostic.
type Kind string

const (
	// SyntaxUnsupported marks a DSL statement or expression shape the
	// reader or translator does not recognize.
	SyntaxUnsupported Kind = "SyntaxUnsupported"
	// ReferenceError marks a task class, iterator function, or branch
	// function referenced but not defined at module scope.
	ReferenceError Kind = "ReferenceError"
	// AttributeError marks an invalid or out-of-range task attribute.
	AttributeError Kind = "AttributeError"
	// KeyCollision marks two states in the same sub-machine sharing a key.
	KeyCollision Kind = "KeyCollision"
	// ShapeError marks a structural misuse of an otherwise-recognized
	// statement shape.
	ShapeError Kind = "ShapeError"
	// DecoratorError marks an unknown decorator or conflicting
	// decorator combination.
	DecoratorError Kind = "DecoratorError"
)

// Severity ranks a diagnostic. Errors abandon the enclosing state
// machine's translation; warnings are reported and the machine is kept —
// e.g. assigning the result of a service that cannot return a value.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single translator finding.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Pos      ast.Pos
	Message  string
	// RunID correlates every diagnostic produced by one Translate call in
	// structured logs; it has no bearing on IR content.
	RunID string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s: %s", d.RunID, d.Pos.Line, d.Pos.Col, d.Severity, d.Kind, d.Message)
}

// Sink accumulates diagnostics for a single Translate call.
type Sink struct {
	RunID string
	items []Diagnostic
}

// NewSink creates a Sink stamped with a fresh run correlation ID.
func NewSink() *Sink {
	return &Sink{RunID: uuid.New().String()}
}

// Add appends an error-severity diagnostic, stamping it with the sink's
// RunID.
func (s *Sink) Add(kind Kind, pos ast.Pos, format string, args ...any) {
	s.add(kind, SeverityError, pos, format, args...)
}

// Warn appends a warning-severity diagnostic: reported to the caller but
// never grounds for abandoning the enclosing state machine.
func (s *Sink) Warn(kind Kind, pos ast.Pos, format string, args ...any) {
	s.add(kind, SeverityWarning, pos, format, args...)
}

func (s *Sink) add(kind Kind, sev Severity, pos ast.Pos, format string, args ...any) {
	s.items = append(s.items, Diagnostic{
		Kind:     kind,
		Severity: sev,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
		RunID:    s.RunID,
	})
}

// Items returns the accumulated diagnostics in emission order.
func (s *Sink) Items() []Diagnostic {
	return s.items
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Warnings alone never abandon a state machine.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Extend appends diagnostics produced elsewhere (e.g. a nested sub-machine
// Sink) onto this one, preserving their original RunID.
func (s *Sink) Extend(items []Diagnostic) {
	s.items = append(s.items, items...)
}

// Fork returns a fresh Sink stamped with the same RunID, for translating
// one state machine in isolation: the Assembler inspects the fork's
// HasErrors before deciding whether to abandon that machine, then folds
// its diagnostics back with Extend regardless of the outcome.
func (s *Sink) Fork() *Sink {
	return &Sink{RunID: s.RunID}
}
