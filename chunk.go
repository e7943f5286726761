package agentscope

import (
	"encoding/json"
	"fmt"

	"github.com/zjf2671/agentscope-go/llm"
)

// StreamChunk is the reasoning-chunk view handed to EventReasoningChunk
// hooks: a simplified, hook-facing projection of one llm.Chunk (§4.4).
type StreamChunk struct {
	Text         string
	ToolCallName string
	ToolCallArgs string
	FinishReason string
	Done         bool
}

// toStreamChunk narrows a transport chunk down to the hook-facing shape.
func toStreamChunk(c llm.Chunk) StreamChunk {
	sc := StreamChunk{
		Text:         contentString(c.Delta.Content),
		FinishReason: c.FinishReason,
		Done:         c.FinishReason != "",
	}
	if len(c.Delta.ToolCalls) > 0 {
		sc.ToolCallName = c.Delta.ToolCalls[0].Function.Name
		sc.ToolCallArgs = c.Delta.ToolCalls[0].Function.Arguments
	}
	return sc
}

func contentString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toolCallAccumulator reassembles one in-progress tool call from its
// streamed index-addressed fragments (§4.5: providers split name and
// arguments across several chunks, keyed by ToolCall.Index).
type toolCallAccumulator struct {
	id   string
	name string
	args string
}

// chunkMerger reassembles a full assistant turn (text + tool calls) out
// of a sequence of llm.Chunk fragments, by position for text and by
// ToolCall.Index for tool-call argument fragments.
type chunkMerger struct {
	text    string
	reason  string
	calls   map[int]*toolCallAccumulator
	order   []int
	usage   *llm.Usage
}

func newChunkMerger() *chunkMerger {
	return &chunkMerger{calls: make(map[int]*toolCallAccumulator)}
}

// feed folds one chunk's delta into the running reassembly.
func (m *chunkMerger) feed(c llm.Chunk) {
	if s := contentString(c.Delta.Content); s != "" {
		m.text += s
	}
	if c.FinishReason != "" {
		m.reason = c.FinishReason
	}
	if c.Usage != nil {
		m.usage = c.Usage
	}
	for _, tc := range c.Delta.ToolCalls {
		acc, ok := m.calls[tc.Index]
		if !ok {
			acc = &toolCallAccumulator{}
			m.calls[tc.Index] = acc
			m.order = append(m.order, tc.Index)
		}
		if tc.ID != "" {
			acc.id = tc.ID
		}
		if tc.Function.Name != "" {
			acc.name = tc.Function.Name
		}
		acc.args += tc.Function.Arguments
	}
}

// finalize builds the reassembled Msg once the stream has ended. Tool
// calls whose argument fragments never form valid JSON surface as an
// error ToolResultBlock for that call's ID rather than being dropped;
// act() never sees a ToolUse for that index, so it can't be invoked.
func (m *chunkMerger) finalize() Msg {
	var blocks []ContentBlock
	if m.text != "" {
		blocks = append(blocks, TextBlock(m.text))
	}
	for _, idx := range m.order {
		acc := m.calls[idx]
		if acc.name == "" {
			continue
		}
		id := acc.id
		if id == "" {
			id = acc.name
		}
		input := map[string]any{}
		args := acc.args
		if args == "" {
			args = "{}"
		}
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			blocks = append(blocks, ErrorToolResult(id, acc.name, fmt.Errorf("malformed tool call arguments: %w", err)))
			continue
		}
		blocks = append(blocks, ToolUseBlock(ToolUse{ID: id, Name: acc.name, Input: input, Content: args}))
	}
	return AssistantMsg("", blocks...)
}
