package agentscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatParseRoundTrip covers §8's round-trip property: formatting
// then parsing a message without media or tool calls yields an
// equivalent Msg (same role, same concatenated text, same name).
func TestFormatParseRoundTrip(t *testing.T) {
	cases := []Msg{
		UserMsg("hello there"),
		SystemMsg("you are a helpful assistant"),
		AssistantMsg("bot", TextBlock("sure, I can help")),
	}
	for _, original := range cases {
		wire, ok := formatOne(original, FormatSingleAgent)
		require.True(t, ok)

		var parsed Msg
		if original.Role == RoleAssistant {
			parsed = parseWireMessage(wire, original.Name)
		} else {
			parsed = NewMsg(original.Role, original.Name, TextBlock(contentString(wire.Content)))
		}

		assert.Equal(t, original.Role, parsed.Role)
		assert.Equal(t, original.ExtractText(), parsed.ExtractText())
		assert.Equal(t, original.Name, parsed.Name)
	}
}

// TestDeepSeekReasoningStrip covers scenario 5: formatting
// [user/assistant(reasoning="A")/user/assistant(reasoning="B")] drops
// the first assistant's reasoning_content (it precedes the most recent
// user turn) while keeping the second's.
func TestDeepSeekReasoningStrip(t *testing.T) {
	first := AssistantMsg("assistant", TextBlock("first answer"), ThinkingBlock("A"))
	second := AssistantMsg("assistant", TextBlock("second answer"), ThinkingBlock("B"))
	msgs := []Msg{
		UserMsg("question one"),
		first,
		UserMsg("question two"),
		second,
	}

	wire := FormatMessages(msgs, FormatSingleAgent, CapabilityDeepSeek, "deepseek-chat")

	require.Len(t, wire, 4)
	assert.Empty(t, wire[1].ReasoningContent, "first assistant turn precedes the last user turn")
	assert.Equal(t, "B", wire[3].ReasoningContent)
}

func TestDeepSeekStripsNameAndRewritesSystem(t *testing.T) {
	msgs := []Msg{
		SystemMsg("be nice"),
		UserMsg("hi"),
		AssistantMsg("bot", TextBlock("hello")),
		SystemMsg("be nicer"),
	}
	wire := FormatMessages(msgs, FormatMultiAgent, CapabilityDeepSeek, "deepseek-chat")

	require.Len(t, wire, 3, "the user/assistant run between the two SYSTEM turns collapses into one USER message")
	assert.Equal(t, "system", wire[0].Role)
	assert.Equal(t, "user", wire[1].Role)
	assert.Equal(t, "user", wire[2].Role, "second SYSTEM turn is rewritten to user for DeepSeek")
	for _, m := range wire {
		assert.Empty(t, m.Name)
	}
}

// TestFormatMultiAgentCollapsesHistory covers §4.5's formatMultiAgent:
// a run of USER/ASSISTANT turns collapses into one <history>-wrapped
// USER message, while a SYSTEM turn and a tool-call sequence each stay
// separate, one-to-one wire messages.
func TestFormatMultiAgentCollapsesHistory(t *testing.T) {
	toolUse := AssistantMsg("researcher", ToolUseBlock(ToolUse{ID: "call-1", Name: "search", Input: map[string]any{}, Content: "{}"}))
	toolResult := ToolResultMsg(ToolResult{ID: "call-1", Name: "search", Output: []ContentBlock{TextBlock("3 results")}})
	msgs := []Msg{
		SystemMsg("be nice"),
		UserMsg("find me something"),
		AssistantMsg("researcher", TextBlock("sure, one moment")),
		toolUse,
		toolResult,
		AssistantMsg("researcher", TextBlock("done")),
	}

	wire := FormatMessages(msgs, FormatMultiAgent, CapabilityOpenAI, "gpt-4o")

	require.Len(t, wire, 5)
	assert.Equal(t, "system", wire[0].Role)

	assert.Equal(t, "user", wire[1].Role, "the two leading non-tool turns collapse into one USER message")
	assert.Contains(t, wire[1].Content, "<history>")
	assert.Contains(t, wire[1].Content, "</history>")
	assert.Contains(t, wire[1].Content, "[User]: find me something")
	assert.Contains(t, wire[1].Content, "[researcher]: sure, one moment")

	assert.Equal(t, "assistant", wire[2].Role, "the tool-call turn passes through untouched")
	require.Len(t, wire[2].ToolCalls, 1)
	assert.Equal(t, "tool", wire[3].Role)
	assert.Equal(t, "call-1", wire[3].ToolCallID)

	assert.Equal(t, "user", wire[4].Role, "the trailing single turn still collapses into its own USER message")
	assert.Contains(t, wire[4].Content, "[researcher]: done")
}

func TestGLMEnsuresUserTurnExists(t *testing.T) {
	msgs := []Msg{SystemMsg("be nice"), AssistantMsg("bot", TextBlock("hi"))}
	wire := FormatMessages(msgs, FormatSingleAgent, CapabilityGLM, "glm-4")

	require.Len(t, wire, 3)
	assert.Equal(t, "user", wire[2].Role)
	assert.Empty(t, wire[2].Content)
}
