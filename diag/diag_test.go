package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/flowc/ast"
)

func TestWarningsDoNotCountAsErrors(t *testing.T) {
	s := NewSink()
	s.Warn(AttributeError, ast.Pos{Line: 3}, "result discarded")

	assert.False(t, s.HasErrors())
	require.Len(t, s.Items(), 1)
	assert.Equal(t, SeverityWarning, s.Items()[0].Severity)

	s.Add(ShapeError, ast.Pos{Line: 4}, "bad shape")
	assert.True(t, s.HasErrors())
}

func TestForkSharesRunIDAndExtendFoldsBack(t *testing.T) {
	s := NewSink()
	fork := s.Fork()
	assert.Equal(t, s.RunID, fork.RunID)

	fork.Add(KeyCollision, ast.Pos{}, "duplicate key %q", "step")
	assert.False(t, s.HasErrors())

	s.Extend(fork.Items())
	require.True(t, s.HasErrors())
	assert.Equal(t, s.RunID, s.Items()[0].RunID)
	assert.Contains(t, s.Items()[0].Message, `"step"`)
}
