package decorator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

func strKw(name, value string) ast.Keyword {
	return ast.Keyword{Arg: name, Value: &ast.Str{Value: value}}
}

func TestProcessExport(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{Name: "export"}}, sm, sink)

	assert.False(t, sink.HasErrors())
	assert.True(t, sm.Exported)
}

func TestProcessSchedule(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{
		Name:     "schedule",
		Keywords: []ast.Keyword{strKw("expression", "rate(1 hour)")},
	}}, sm, sink)

	require.False(t, sink.HasErrors())
	require.NotNil(t, sm.ScheduleExpression)
	assert.Equal(t, "rate(1 hour)", *sm.ScheduleExpression)
	assert.True(t, sm.Exported)
}

func TestProcessScheduleMissingExpression(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{Name: "schedule"}}, sm, sink)

	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.DecoratorError, sink.Items()[0].Kind)
}

func TestProcessSubscribeDefaults(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{
		Name:     "subscribe",
		Keywords: []ast.Keyword{strKw("project", "orders")},
	}}, sm, sink)

	require.False(t, sink.HasErrors())
	require.NotNil(t, sm.Subscription)
	assert.Equal(t, "orders", sm.Subscription.Project)
	assert.Equal(t, "main", sm.Subscription.StateMachineRef)
	assert.Equal(t, "success", sm.Subscription.Status)
	assert.Nil(t, sm.Subscription.TopicArnImportValue)
	assert.True(t, sm.Exported)
}

func TestProcessSubscribeInvalidStatus(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{
		Name: "subscribe",
		Keywords: []ast.Keyword{
			strKw("project", "orders"),
			strKw("status", "maybe"),
		},
	}}, sm, sink)

	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.DecoratorError, sink.Items()[0].Kind)
}

func TestProcessUnknownDecorator(t *testing.T) {
	sm := &ir.StateMachine{SubMachine: ir.NewSubMachine()}
	sink := diag.NewSink()

	Process([]ast.Decorator{{Name: "retry_forever"}}, sm, sink)

	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.DecoratorError, sink.Items()[0].Kind)
	assert.Contains(t, sink.Items()[0].Message, "retry_forever")
}
