package agentscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjf2671/agentscope-go/llm"
)

func TestChunkMergerReassemblesText(t *testing.T) {
	m := newChunkMerger()
	m.feed(llm.Chunk{Delta: llm.WireMessage{Content: "Hel"}})
	m.feed(llm.Chunk{Delta: llm.WireMessage{Content: "lo "}})
	m.feed(llm.Chunk{Delta: llm.WireMessage{Content: "world"}, FinishReason: "stop"})

	msg := m.finalize()
	assert.Equal(t, "Hello world", msg.ExtractText())
	assert.Equal(t, RoleAssistant, msg.Role)
}

// TestChunkMergerReassemblesFragmentedToolCall covers §4.5: provider
// streams split a tool call's name and argument JSON across several
// chunks, addressed by a stable Index.
func TestChunkMergerReassemblesFragmentedToolCall(t *testing.T) {
	m := newChunkMerger()
	m.feed(llm.Chunk{Delta: llm.WireMessage{ToolCalls: []llm.ToolCall{
		{Index: 0, ID: "call-1", Function: llm.FunctionCall{Name: "search"}},
	}}})
	m.feed(llm.Chunk{Delta: llm.WireMessage{ToolCalls: []llm.ToolCall{
		{Index: 0, Function: llm.FunctionCall{Arguments: `{"query":`}},
	}}})
	m.feed(llm.Chunk{Delta: llm.WireMessage{ToolCalls: []llm.ToolCall{
		{Index: 0, Function: llm.FunctionCall{Arguments: `"go modules"}`}},
	}}, FinishReason: "tool_calls"})

	msg := m.finalize()
	toolUses := msg.GetContentBlocks(ContentToolUse)
	require.Len(t, toolUses, 1)
	assert.Equal(t, "search", toolUses[0].ToolUse.Name)
	assert.Equal(t, "go modules", toolUses[0].ToolUse.Input["query"])
	assert.Equal(t, "call-1", toolUses[0].ToolUse.ID)
}

func TestChunkMergerSurfacesInvalidJSONToolCallAsErrorResult(t *testing.T) {
	m := newChunkMerger()
	m.feed(llm.Chunk{Delta: llm.WireMessage{ToolCalls: []llm.ToolCall{
		{Index: 0, ID: "call-1", Function: llm.FunctionCall{Name: "search", Arguments: `{"query": not valid`}},
	}}, FinishReason: "tool_calls"})

	msg := m.finalize()
	assert.Empty(t, msg.GetContentBlocks(ContentToolUse))

	results := msg.GetContentBlocks(ContentToolResult)
	require.Len(t, results, 1)
	assert.Equal(t, "call-1", results[0].ToolResult.ID)
	assert.Equal(t, "search", results[0].ToolResult.Name)
	assert.True(t, results[0].ToolResult.IsError)
}

func TestChunkMergerInterleavesMultipleToolCallsByIndex(t *testing.T) {
	m := newChunkMerger()
	m.feed(llm.Chunk{Delta: llm.WireMessage{ToolCalls: []llm.ToolCall{
		{Index: 0, ID: "a", Function: llm.FunctionCall{Name: "first", Arguments: `{}`}},
		{Index: 1, ID: "b", Function: llm.FunctionCall{Name: "second", Arguments: `{}`}},
	}}, FinishReason: "tool_calls"})

	msg := m.finalize()
	toolUses := msg.GetContentBlocks(ContentToolUse)
	require.Len(t, toolUses, 2)
	assert.Equal(t, "first", toolUses[0].ToolUse.Name)
	assert.Equal(t, "second", toolUses[1].ToolUse.Name)
}

func TestToStreamChunk(t *testing.T) {
	sc := toStreamChunk(llm.Chunk{
		Delta:        llm.WireMessage{Content: "partial", ToolCalls: []llm.ToolCall{{Function: llm.FunctionCall{Name: "f", Arguments: "{}"}}}},
		FinishReason: "",
	})
	assert.Equal(t, "partial", sc.Text)
	assert.Equal(t, "f", sc.ToolCallName)
	assert.False(t, sc.Done)

	done := toStreamChunk(llm.Chunk{FinishReason: "stop"})
	assert.True(t, done.Done)
}
