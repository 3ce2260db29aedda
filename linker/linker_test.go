package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

func placeholder(n int) string {
	return string([]byte{0}) + "p" + string(rune('0'+n))
}

func TestLinkSynthesizesKeysInOrder(t *testing.T) {
	sm := ir.NewSubMachine()
	sm.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), Next: placeholder(2)}})
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: placeholder(2)}})
	sm.StartKey = placeholder(1)

	sink := diag.NewSink()
	New().Link(sm, sink)

	assert.False(t, sink.HasErrors())
	assert.Equal(t, "Task-1", sm.StartKey)
	_, hasTask := sm.States["Task-1"]
	require.True(t, hasTask)
	succeed, hasSucceed := sm.States["Succeed-2"]
	require.True(t, hasSucceed)
	assert.Equal(t, "", succeed.Header().Next)

	task := sm.States["Task-1"].(*ir.Task)
	assert.Equal(t, "Succeed-2", task.Next)
}

func TestLinkPreservesExplicitKeys(t *testing.T) {
	sm := ir.NewSubMachine()
	sm.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: "fetch", Next: placeholder(1)}})
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: placeholder(1)}})
	sm.StartKey = "fetch"

	sink := diag.NewSink()
	New().Link(sm, sink)

	assert.False(t, sink.HasErrors())
	assert.Equal(t, "fetch", sm.StartKey)
	task := sm.States["fetch"].(*ir.Task)
	assert.Equal(t, "Succeed-1", task.Next)
}

func TestLinkDetectsKeyCollision(t *testing.T) {
	sm := ir.NewSubMachine()
	sm.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: "step", End: true}})
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: "step"}})

	sink := diag.NewSink()
	New().Link(sm, sink)

	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.KeyCollision, sink.Items()[0].Kind)
}

func TestLinkRewritesChoiceBranches(t *testing.T) {
	sm := ir.NewSubMachine()
	sm.Add(&ir.Choice{
		StateHeader: ir.StateHeader{KeyName: placeholder(1)},
		Branches:    []ir.ChoiceBranch{{NextKey: placeholder(2)}},
		Default:     placeholder(3),
	})
	sm.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(2), End: true}})
	sm.Add(&ir.Succeed{StateHeader: ir.StateHeader{KeyName: placeholder(3)}})
	sm.StartKey = placeholder(1)

	sink := diag.NewSink()
	New().Link(sm, sink)

	require.False(t, sink.HasErrors())
	choice := sm.States["Choice-1"].(*ir.Choice)
	assert.Equal(t, "Task-2", choice.Branches[0].NextKey)
	assert.Equal(t, "Succeed-3", choice.Default)
}

func TestLinkRecursesIntoMapIterator(t *testing.T) {
	iter := ir.NewSubMachine()
	iter.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), End: true}})
	iter.StartKey = placeholder(1)

	sm := ir.NewSubMachine()
	sm.Add(&ir.Map{StateHeader: ir.StateHeader{KeyName: placeholder(2), End: true}, Iterator: iter})
	sm.StartKey = placeholder(2)

	sink := diag.NewSink()
	New().Link(sm, sink)

	require.False(t, sink.HasErrors())
	outer := sm.States["Map-1"].(*ir.Map)
	assert.Equal(t, "Task-2", outer.Iterator.StartKey)
}

func TestLinkSiblingSubMachinesNumberDeterministically(t *testing.T) {
	build := func() *ir.SubMachine {
		iterA := ir.NewSubMachine()
		iterA.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), End: true}})
		iterA.StartKey = placeholder(1)

		iterB := ir.NewSubMachine()
		iterB.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), End: true}})
		iterB.StartKey = placeholder(1)

		sm := ir.NewSubMachine()
		sm.Add(&ir.Map{StateHeader: ir.StateHeader{KeyName: placeholder(2), Next: placeholder(3)}, Iterator: iterA})
		sm.Add(&ir.Map{StateHeader: ir.StateHeader{KeyName: placeholder(3), End: true}, Iterator: iterB})
		sm.StartKey = placeholder(2)
		return sm
	}

	for i := 0; i < 20; i++ {
		sm := build()
		sink := diag.NewSink()
		New().Link(sm, sink)

		require.False(t, sink.HasErrors())
		assert.Equal(t, []string{"Map-1", "Map-2"}, sm.Keys)
		first := sm.States["Map-1"].(*ir.Map)
		second := sm.States["Map-2"].(*ir.Map)
		assert.Equal(t, "Map-2", first.Next)
		assert.Equal(t, "Task-3", first.Iterator.StartKey)
		assert.Equal(t, "Task-4", second.Iterator.StartKey)
	}
}

func TestLinkCounterSharedAcrossParallelBranches(t *testing.T) {
	branchA := ir.NewSubMachine()
	branchA.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), End: true}})
	branchA.StartKey = placeholder(1)

	branchB := ir.NewSubMachine()
	branchB.Add(&ir.Task{StateHeader: ir.StateHeader{KeyName: placeholder(1), End: true}})
	branchB.StartKey = placeholder(1)

	sm := ir.NewSubMachine()
	sm.Add(&ir.Parallel{StateHeader: ir.StateHeader{KeyName: placeholder(2), End: true}, Branches: []*ir.SubMachine{branchA, branchB}})
	sm.StartKey = placeholder(2)

	sink := diag.NewSink()
	New().Link(sm, sink)

	require.False(t, sink.HasErrors())
	assert.NotEqual(t, branchA.StartKey, branchB.StartKey)
}
