// Package linker assigns final keys to every state a StatementVisitor
// pass produced and rewrites the placeholder keys
// Next/Default/Catch/ChoiceBranch edges still carry.
//
// Next/End edge assignment itself already happens inline in the
// StatementVisitor via continuation-passing (package visitor), so the
// Linker's remaining job is strictly key synthesis, collision detection,
// and reference rewriting. It is handed a state machine's top-level
// SubMachine and recurses into the nested SubMachines of the Map and
// Parallel states it finds in each table; if/try bodies are emitted into
// their enclosing table and need no separate pass.
package linker

import (
	"fmt"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// placeholderPrefix matches the out-of-band marker the visitor stamps on
// every key it synthesizes itself (visitor.nextPlaceholder), chosen so it
// can never collide with a user-chosen explicit key.
const placeholderPrefix = "\x00auto"

func isPlaceholder(key string) bool {
	return len(key) > 0 && key[0] == 0
}

// Linker assigns synthesized "<Kind>-<n>" keys. n is a single monotonic
// counter shared across an entire StateMachine, including every nested
// SubMachine within it (Map iterators, Parallel branches).
// One Linker is constructed per StateMachine and then recurses with Link.
type Linker struct {
	counter int
}

// New returns a Linker scoped to a single StateMachine.
func New() *Linker {
	return &Linker{}
}

// Link synthesizes keys and rewrites references within sm and, recursively,
// within every nested SubMachine reachable from it.
func (l *Linker) Link(sm *ir.SubMachine, sink *diag.Sink) {
	l.linkTable(sm, sink)
}

func (l *Linker) linkTable(sm *ir.SubMachine, sink *diag.Sink) {
	l.detectCollisions(sm, sink)

	rename := make(map[string]string, len(sm.Keys))
	newKeys := make([]string, 0, len(sm.Keys))
	newStates := make(map[string]ir.State, len(sm.States))

	for _, key := range sm.Keys {
		state := sm.States[key]
		finalKey := key
		if isPlaceholder(key) {
			l.counter++
			finalKey = fmt.Sprintf("%s-%d", state.Kind(), l.counter)
			rename[key] = finalKey
			state.Header().KeyName = finalKey
		}
		newKeys = append(newKeys, finalKey)
		newStates[finalKey] = state
	}
	sm.Keys = newKeys
	sm.States = newStates
	if renamed, ok := rename[sm.StartKey]; ok {
		sm.StartKey = renamed
	}

	for _, state := range newStates {
		rewriteRefs(state, rename)
	}

	// Recurse in insertion order, not map order: the counter is shared
	// across the whole machine, so sibling sub-machines must be visited
	// deterministically or their synthesized numbers swap between runs.
	for _, key := range newKeys {
		switch st := newStates[key].(type) {
		case *ir.Map:
			l.linkTable(st.Iterator, sink)
		case *ir.Parallel:
			for _, branch := range st.Branches {
				l.linkTable(branch, sink)
			}
		}
	}
}

// detectCollisions flags two explicit (non-synthesized) keys sharing the
// same states table; that is a hard error. Synthesized keys never collide
// with each other or with explicit keys because of the placeholder
// prefix.
func (l *Linker) detectCollisions(sm *ir.SubMachine, sink *diag.Sink) {
	seen := make(map[string]bool, len(sm.Keys))
	for _, key := range sm.Keys {
		if isPlaceholder(key) {
			continue
		}
		if seen[key] {
			sink.Add(diag.KeyCollision, ast.Pos{}, "duplicate state key %q", key)
			continue
		}
		seen[key] = true
	}
}

// rewriteRefs rewrites every placeholder edge a state carries to its final
// synthesized key. Explicit keys are left untouched since rename never
// contains an entry for them.
func rewriteRefs(state ir.State, rename map[string]string) {
	resolve := func(key string) string {
		if renamed, ok := rename[key]; ok {
			return renamed
		}
		return key
	}

	h := state.Header()
	if h.Next != "" {
		h.Next = resolve(h.Next)
	}

	switch st := state.(type) {
	case *ir.Task:
		for i := range st.Catch {
			st.Catch[i].NextKey = resolve(st.Catch[i].NextKey)
		}
	case *ir.Choice:
		for i := range st.Branches {
			st.Branches[i].NextKey = resolve(st.Branches[i].NextKey)
		}
		if st.Default != "" {
			st.Default = resolve(st.Default)
		}
	}
}
