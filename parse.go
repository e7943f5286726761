package agentscope

import (
	"encoding/json"

	"github.com/zjf2671/agentscope-go/llm"
)

// ParseResponse converts a non-streaming transport Response into a
// canonical ASSISTANT Msg (§4.5). name is the agent's own speaker name,
// stamped onto the result for multi-agent attribution.
func ParseResponse(resp *llm.Response, name string) Msg {
	if resp == nil || len(resp.Choices) == 0 {
		return AssistantMsg(name)
	}
	return parseWireMessage(resp.Choices[0].Message, name)
}

func parseWireMessage(wm llm.WireMessage, name string) Msg {
	var blocks []ContentBlock
	if wm.ReasoningContent != "" {
		blocks = append(blocks, ThinkingBlock(wm.ReasoningContent))
	}
	if text, ok := wm.Content.(string); ok && text != "" {
		blocks = append(blocks, TextBlock(text))
	}
	for _, tc := range wm.ToolCalls {
		input := map[string]any{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		id := tc.ID
		if id == "" {
			id = tc.Function.Name
		}
		blocks = append(blocks, ToolUseBlock(ToolUse{
			ID:      id,
			Name:    tc.Function.Name,
			Input:   input,
			Content: tc.Function.Arguments,
		}))
	}
	return AssistantMsg(name, blocks...)
}

// ParseChunk folds one streaming chunk into merger and returns the
// hook-facing StreamChunk view plus whether the stream has now ended
// (FinishReason set). Callers finalize the full Msg via
// merger.finalize() once done is true.
func ParseChunk(merger *chunkMerger, c llm.Chunk) (StreamChunk, bool) {
	merger.feed(c)
	sc := toStreamChunk(c)
	return sc, sc.Done
}

// NewChunkMerger builds a fresh reassembly buffer for one streaming call.
func NewChunkMerger() *chunkMerger { return newChunkMerger() }

// FinalizeChunks builds the reassembled assistant Msg once streaming
// has ended, stamping name for multi-agent attribution.
func FinalizeChunks(merger *chunkMerger, name string) Msg {
	msg := merger.finalize()
	msg.Name = name
	return msg
}
