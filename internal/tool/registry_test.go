package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acta-run/acta-core/internal/orchestrator"
	"github.com/acta-run/acta-core/internal/tool"
)

func TestRegistry_GetAndList(t *testing.T) {
	r := tool.NewRegistry()
	r.Register(tool.EchoTool{})
	r.Register(tool.FailingTool{})

	got, ok := r.Get("echo.respond")
	require.True(t, ok)
	assert.Equal(t, "echo.respond", got.ID())

	_, ok = r.Get("nonexistent.tool")
	assert.False(t, ok)

	summaries := r.List()
	assert.Len(t, summaries, 2)
}

func TestEchoTool_Invoke(t *testing.T) {
	result, err := (tool.EchoTool{}).Invoke(context.Background(), map[string]any{"message": "hi"}, orchestrator.ToolContext{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "hi", result.Output)
}

func TestFailingTool_Invoke(t *testing.T) {
	result, err := (tool.FailingTool{Reason: "nope"}).Invoke(context.Background(), nil, orchestrator.ToolContext{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "nope", result.Error)
}

func TestPanickingTool_Invoke(t *testing.T) {
	_, err := (tool.PanickingTool{}).Invoke(context.Background(), nil, orchestrator.ToolContext{})
	require.Error(t, err)
}
