// Package ir implements the translator's intermediate representation: the
// Project/TaskDefinition/StateMachine data model as a closed set of State
// variants plus non-state helper types. Edges are represented as string
// keys into a states table, never as direct pointers, so the graph stays
// serializable and acyclic in the value domain.
package ir

import "github.com/c360studio/flowc/choice"

// StateKind tags the concrete State variant. The statement visitor and
// linker dispatch on Kind via an explicit switch, never on dynamic method
// lookup.
type StateKind string

const (
	KindTask     StateKind = "Task"
	KindChoice   StateKind = "Choice"
	KindMap      StateKind = "Map"
	KindParallel StateKind = "Parallel"
	KindPass     StateKind = "Pass"
	KindWait     StateKind = "Wait"
	KindSucceed  StateKind = "Succeed"
	KindFail     StateKind = "Fail"
)

// State is implemented by every concrete state variant.
type State interface {
	Kind() StateKind
	Header() *StateHeader
}

// StateHeader carries the fields every state variant shares: its key, an
// optional comment, and the linked/terminal edge the Linker assigns.
type StateHeader struct {
	KeyName string
	Comment string

	// Next is the key of the successor state. Empty when End is true or
	// when the state is inherently terminal (Succeed, Fail).
	Next string
	// End marks the last state in this sub-machine. Mutually exclusive
	// with Next being non-empty.
	End bool
}

func (h *StateHeader) Key() string { return h.KeyName }

// Task is a service-backed unit of work.
type Task struct {
	StateHeader

	TaskClass string // name of the resolved TaskDefinition
	Resource  string // ASL Resource ARN, computed by the task family

	ResultPath *string // nil if the task's result is discarded
	InputPath  *string // nil defaults to "$" at render time

	TimeoutSeconds   int
	HeartbeatSeconds *int // ecs:worker only

	Retry []Retry
	Catch []Catch

	// Parameters carries service-specific ASL Parameters (e.g. the ECS
	// task token for ecs:worker, the cpu/memory overrides for ecs).
	Parameters map[string]any
}

func (t *Task) Kind() StateKind      { return KindTask }
func (t *Task) Header() *StateHeader { return &t.StateHeader }

// Choice fans out on a compiled predicate tree.
type Choice struct {
	StateHeader

	Branches []ChoiceBranch
	Default  string
}

func (c *Choice) Kind() StateKind      { return KindChoice }
func (c *Choice) Header() *StateHeader { return &c.StateHeader }

// ChoiceBranch is a compiled predicate plus the state it transitions to.
type ChoiceBranch struct {
	Predicate *choice.Node
	NextKey   string
}

// Map iterates ItemsPath through a nested SubMachine.
type Map struct {
	StateHeader

	ItemsPath      string
	MaxConcurrency *int
	Iterator       *SubMachine
}

func (m *Map) Kind() StateKind      { return KindMap }
func (m *Map) Header() *StateHeader { return &m.StateHeader }

// Parallel fans out into a fixed set of branch sub-machines.
type Parallel struct {
	StateHeader

	Branches []*SubMachine
}

func (p *Parallel) Kind() StateKind      { return KindParallel }
func (p *Parallel) Header() *StateHeader { return &p.StateHeader }

// Pass assigns a literal payload into the rolling data document.
type Pass struct {
	StateHeader

	Result     any
	ResultPath string
}

func (p *Pass) Kind() StateKind      { return KindPass }
func (p *Pass) Header() *StateHeader { return &p.StateHeader }

// Wait pauses for a literal or path-referenced duration/timestamp.
type Wait struct {
	StateHeader

	Seconds       *int
	SecondsPath   *string
	Timestamp     *string
	TimestampPath *string
}

func (w *Wait) Kind() StateKind      { return KindWait }
func (w *Wait) Header() *StateHeader { return &w.StateHeader }

// Succeed is a terminal success state; it never receives Next/End.
type Succeed struct {
	StateHeader
}

func (s *Succeed) Kind() StateKind      { return KindSucceed }
func (s *Succeed) Header() *StateHeader { return &s.StateHeader }

// Fail is a terminal failure state; it never receives Next/End.
type Fail struct {
	StateHeader

	Error string
	Cause string
}

func (f *Fail) Kind() StateKind      { return KindFail }
func (f *Fail) Header() *StateHeader { return &f.StateHeader }

// Catch attaches an error handler to a Task (or, transitively, any state
// that can fail). Errors holds "States.ALL" for a bare `except:`.
type Catch struct {
	Errors  []string
	NextKey string
}

// Retry describes a single retrier attached to a task call inside a
// `with retry(...):` block.
type Retry struct {
	Errors          []string
	IntervalSeconds int
	MaxAttempts     int
	BackoffRate     float64
}

// SubMachine is an isolated {start_key, states} scope: the top-level state
// machine body, a Map iterator, or one Parallel branch.
type SubMachine struct {
	StartKey string
	Keys     []string // insertion order, for deterministic rendering
	States   map[string]State
}

// NewSubMachine returns an empty SubMachine ready for the statement
// visitor to populate.
func NewSubMachine() *SubMachine {
	return &SubMachine{States: make(map[string]State)}
}

// Add inserts a state into the table, recording insertion order. It does
// not check for key collisions; that is the linker's job. A repeated key is
// recorded in Keys again so the linker can see and report it.
func (m *SubMachine) Add(s State) {
	key := s.Header().KeyName
	m.Keys = append(m.Keys, key)
	m.States[key] = s
}
