package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
)

func strAttr(name, value string) ast.ClassAttr {
	return ast.ClassAttr{Name: name, Value: &ast.Str{Value: value}}
}

func numAttr(name, raw string) ast.ClassAttr {
	return ast.ClassAttr{Name: name, Value: &ast.Num{Raw: raw}}
}

func dataAssign(key string, value ast.Expr) *ast.Assign {
	return &ast.Assign{
		Target: &ast.Subscript{Value: &ast.Name{Id: "data"}, Index: &ast.Str{Value: key}},
		Value:  value,
	}
}

func TestAssembleSimpleTask(t *testing.T) {
	cls := &ast.ClassDef{
		Name:    "Foo",
		Attrs:   []ast.ClassAttr{strAttr("service", "lambda")},
		Methods: []*ast.FunctionDef{{Name: "run", IsAsync: true, RawSource: "async def run(self, data): ..."}},
	}
	fn := &ast.FunctionDef{
		Name: "main",
		Body: []ast.Stmt{dataAssign("r", &ast.Call{
			Func:     &ast.Name{Id: "Foo"},
			Keywords: []ast.Keyword{{Arg: "key", Value: &ast.Str{Value: "do_foo"}}},
		})},
	}
	mod := &ast.Module{Classes: []*ast.ClassDef{cls}, Functions: []*ast.FunctionDef{fn}}

	sink := diag.NewSink()
	proj := New(nil, nil).Assemble(mod, sink)

	assert.False(t, sink.HasErrors())
	require.Contains(t, proj.Tasks, "Foo")
	require.Contains(t, proj.StateMachines, "main")
	sm := proj.StateMachines["main"]
	require.Len(t, sm.Keys, 1)
	assert.Equal(t, "do_foo", sm.StartKey)
}

func TestAssembleUnknownTaskAttributeIsDiagnostic(t *testing.T) {
	cls := &ast.ClassDef{
		Name:  "Foo",
		Attrs: []ast.ClassAttr{strAttr("not_a_real_attr", "x")},
		Methods: []*ast.FunctionDef{
			{Name: "run", IsAsync: true, RawSource: "async def run(self, data): ..."},
		},
	}
	mod := &ast.Module{Classes: []*ast.ClassDef{cls}}

	sink := diag.NewSink()
	New(nil, nil).Assemble(mod, sink)

	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.AttributeError, sink.Items()[0].Kind)
}

func TestAssembleEcsWorkerRequiresSpec(t *testing.T) {
	cls := &ast.ClassDef{
		Name:  "Worker",
		Attrs: []ast.ClassAttr{strAttr("service", "ecs:worker")},
	}
	fn := &ast.FunctionDef{
		Name: "main",
		Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Call{Func: &ast.Name{Id: "Worker"}}}},
	}
	mod := &ast.Module{Classes: []*ast.ClassDef{cls}, Functions: []*ast.FunctionDef{fn}}

	sink := diag.NewSink()
	proj := New(nil, nil).Assemble(mod, sink)

	require.True(t, sink.HasErrors())
	var sawShape bool
	for _, d := range sink.Items() {
		if d.Kind == diag.ShapeError {
			sawShape = true
		}
	}
	assert.True(t, sawShape)
	// the state machine itself still abandons since the task is invalid.
	assert.NotContains(t, proj.StateMachines, "main")
}

func TestAssembleUnresolvedTaskReferenceDoesNotAbortOtherMachines(t *testing.T) {
	foo := &ast.ClassDef{
		Name:    "Foo",
		Methods: []*ast.FunctionDef{{Name: "run", IsAsync: true, RawSource: "..."}},
	}
	badFn := &ast.FunctionDef{
		Name: "broken",
		Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Call{Func: &ast.Name{Id: "Nope"}}}},
	}
	goodFn := &ast.FunctionDef{
		Name: "main",
		Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Call{Func: &ast.Name{Id: "Foo"}}}},
	}
	mod := &ast.Module{Classes: []*ast.ClassDef{foo}, Functions: []*ast.FunctionDef{badFn, goodFn}}

	sink := diag.NewSink()
	proj := New(nil, nil).Assemble(mod, sink)

	require.True(t, sink.HasErrors())
	assert.NotContains(t, proj.StateMachines, "broken")
	assert.Contains(t, proj.StateMachines, "main")
}

func TestAssembleScheduleDecoratorMarksExported(t *testing.T) {
	foo := &ast.ClassDef{
		Name:    "Foo",
		Methods: []*ast.FunctionDef{{Name: "run", IsAsync: true, RawSource: "..."}},
	}
	fn := &ast.FunctionDef{
		Name: "nightly",
		Decorators: []ast.Decorator{{
			Name:     "schedule",
			Keywords: []ast.Keyword{{Arg: "expression", Value: &ast.Str{Value: "rate(1 day)"}}},
		}},
		Body: []ast.Stmt{&ast.ExprStmt{Value: &ast.Call{Func: &ast.Name{Id: "Foo"}}}},
	}
	mod := &ast.Module{Classes: []*ast.ClassDef{foo}, Functions: []*ast.FunctionDef{fn}}

	sink := diag.NewSink()
	proj := New(nil, nil).Assemble(mod, sink)

	require.False(t, sink.HasErrors())
	sm := proj.StateMachines["nightly"]
	require.NotNil(t, sm)
	assert.True(t, sm.Exported)
	assert.True(t, sm.Eligible())
	require.NotNil(t, sm.ScheduleExpression)
	assert.Equal(t, "rate(1 day)", *sm.ScheduleExpression)
}

func TestBuildTaskDefinitionDefaults(t *testing.T) {
	cls := &ast.ClassDef{
		Name:    "Bar",
		Attrs:   []ast.ClassAttr{numAttr("timeout", "45")},
		Methods: []*ast.FunctionDef{{Name: "run", IsAsync: true, RawSource: "body"}},
	}
	sink := diag.NewSink()
	def, ok := buildTaskDefinition(cls, sink)

	require.True(t, ok)
	assert.False(t, sink.HasErrors())
	assert.Equal(t, "lambda", def.Service)
	assert.Equal(t, 45, def.Timeout)
	assert.Equal(t, "body", def.RunBody)
}
