package agentscope

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T, model *fakeModel) *Agent {
	t.Helper()
	dialect := NewDialect(model, FormatSingleAgent, "assistant")
	return NewAgent("assistant", dialect, NewToolRegistry(), NewHookPipeline())
}

func TestSimpleCall(t *testing.T) {
	model := newFakeModel("gpt-4o", textResponse("2 + 2 = 4"))
	agent := newTestAgent(t, model)

	user := UserMsg("What is 2+2?")
	result, err := agent.Call(context.Background(), &user, nil)
	require.NoError(t, err)

	assert.Equal(t, FinishStop, result.FinishReason)
	assert.Contains(t, result.Message.ExtractText(), "4")
	assert.GreaterOrEqual(t, agent.Memory.Len(), 2)
}

func TestToolCall(t *testing.T) {
	model := newFakeModel("gpt-4o",
		toolCallResponse("call-1", "add", map[string]any{"a": float64(15), "b": float64(27)}),
		textResponse("The sum is 42"),
	)
	agent := newTestAgent(t, model)

	var addCalled bool
	err := agent.Tools.Register(ToolSchema{
		Name:        "add",
		Description: "add two numbers",
		Parameters:  map[string]any{"type": "object"},
	}, func(ctx ToolContext, input map[string]any) (ToolResult, error) {
		addCalled = true
		return ToolResult{ID: ctx.CallID, Name: "add", Output: []ContentBlock{TextBlock("42")}}, nil
	})
	require.NoError(t, err)

	user := UserMsg("add 15 and 27")
	result, err := agent.Call(context.Background(), &user, nil)
	require.NoError(t, err)

	assert.True(t, addCalled)
	assert.Contains(t, result.Message.ExtractText(), "42")

	msgs := agent.Memory.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	require.True(t, msgs[1].HasToolUses())
	assert.Equal(t, RoleTool, msgs[2].Role)
	assert.Equal(t, msgs[1].ToolUses()[0].ID, msgs[2].ToolResults()[0].ID)
	assert.Equal(t, RoleAssistant, msgs[3].Role)
}

func TestHITLStopAndResume(t *testing.T) {
	model := newFakeModel("gpt-4o",
		toolCallResponse("call-1", "delete_file", map[string]any{"path": "temp.txt"}),
		textResponse("file deleted"),
	)
	agent := newTestAgent(t, model)

	var deleteCalled bool
	require.NoError(t, agent.Tools.Register(ToolSchema{
		Name:       "delete_file",
		Parameters: map[string]any{"type": "object"},
	}, func(ctx ToolContext, input map[string]any) (ToolResult, error) {
		deleteCalled = true
		return ToolResult{ID: ctx.CallID, Name: "delete_file", Output: []ContentBlock{TextBlock("ok")}}, nil
	}))

	stopActive := true
	agent.Hooks.AddHook(0, func(event *HookEvent) error {
		if event.Kind != EventPostReasoning || !stopActive {
			return nil
		}
		for _, tu := range event.ReasoningMessage.ToolUses() {
			if tu.Name == "delete_file" {
				event.StopAgent()
			}
		}
		return nil
	})

	user := UserMsg("delete temp.txt")
	result, err := agent.Call(context.Background(), &user, nil)
	require.NoError(t, err)

	assert.Equal(t, FinishStopped, result.FinishReason)
	assert.False(t, deleteCalled)
	require.True(t, result.Message.HasToolUses())

	last, ok := agent.Memory.Last()
	require.True(t, ok)
	assert.True(t, last.HasToolUses())

	stopActive = false
	result, err = agent.Call(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.True(t, deleteCalled)
	assert.Equal(t, FinishStop, result.FinishReason)
	assert.Contains(t, strings.ToLower(result.Message.ExtractText()), "deleted")
}

func TestStructuredOutput(t *testing.T) {
	model := newFakeModel("gpt-4o",
		toolCallResponse("call-1", structuredToolName, map[string]any{"answer": "42"}),
	)
	agent := newTestAgent(t, model)

	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"answer": map[string]any{"type": "string"}},
	}
	user := UserMsg("what is the answer?")
	result, err := agent.Call(context.Background(), &user, schema)
	require.NoError(t, err)

	assert.Equal(t, "42", result.Structured["answer"])
	assert.False(t, result.Message.HasToolUses())
}

func TestMaxIterations(t *testing.T) {
	model := newFakeModel("gpt-4o")
	for i := 0; i < 20; i++ {
		model.responses = append(model.responses, toolCallResponse("x", "loop", map[string]any{}))
	}
	agent := newTestAgent(t, model)
	agent.MaxIterations = 3
	require.NoError(t, agent.Tools.Register(ToolSchema{Name: "loop", Parameters: map[string]any{"type": "object"}},
		func(ctx ToolContext, input map[string]any) (ToolResult, error) {
			return ToolResult{ID: ctx.CallID, Name: "loop", Output: []ContentBlock{TextBlock("again")}}, nil
		}))

	user := UserMsg("loop forever")
	result, err := agent.Call(context.Background(), &user, nil)
	require.NoError(t, err)
	assert.Equal(t, FinishMaxIterations, result.FinishReason)
}

func TestInterruptIdempotent(t *testing.T) {
	agent := newTestAgent(t, newFakeModel("gpt-4o", textResponse("hi")))
	agent.Interrupt()
	agent.Interrupt()
	agent.Interrupt()
	assert.True(t, agent.isInterrupted())

	user := UserMsg("hello")
	result, err := agent.Call(context.Background(), &user, nil)
	require.NoError(t, err)
	assert.NotEqual(t, FinishInterrupted, result.FinishReason, "Interrupt before Call should be cleared on entry")
}
