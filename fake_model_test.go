package agentscope

import (
	"context"
	"encoding/json"

	"github.com/zjf2671/agentscope-go/llm"
)

// fakeModel is a scripted llm.ChatModel: each call to Complete/Stream
// pops the next scripted llm.Response, a hand-rolled test double
// rather than a mocking framework.
type fakeModel struct {
	name      string
	baseURL   string
	responses []llm.Response
	calls     int
	requests  []llm.Request
}

func newFakeModel(name string, responses ...llm.Response) *fakeModel {
	return &fakeModel{name: name, responses: responses}
}

func (m *fakeModel) Name() string    { return m.name }
func (m *fakeModel) BaseURL() string { return m.baseURL }

func (m *fakeModel) next() llm.Response {
	if m.calls >= len(m.responses) {
		return llm.Response{Choices: []llm.Choice{{Message: llm.WireMessage{Role: "assistant", Content: "done"}, FinishReason: "stop"}}}
	}
	r := m.responses[m.calls]
	m.calls++
	return r
}

func (m *fakeModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	r := m.next()
	return &r, nil
}

// Stream replays the scripted Response as a single chunk carrying the
// whole content/tool calls, then closes — enough to exercise the
// kernel's chunk-merge path without needing real fragment splitting.
func (m *fakeModel) Stream(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	m.requests = append(m.requests, req)
	resp := m.next()

	out := make(chan llm.Chunk, 4)
	go func() {
		defer close(out)
		if len(resp.Choices) == 0 {
			out <- llm.Chunk{FinishReason: "stop"}
			return
		}
		choice := resp.Choices[0]
		out <- llm.Chunk{Delta: choice.Message, FinishReason: choice.FinishReason, Usage: resp.Usage}
	}()
	return out, nil
}

func toolCallResponse(id, name string, args map[string]any) llm.Response {
	raw, _ := json.Marshal(args)
	return llm.Response{
		Choices: []llm.Choice{{
			Message: llm.WireMessage{
				Role: "assistant",
				ToolCalls: []llm.ToolCall{{
					ID:       id,
					Type:     "function",
					Function: llm.FunctionCall{Name: name, Arguments: string(raw)},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}
}

func textResponse(text string) llm.Response {
	return llm.Response{
		Choices: []llm.Choice{{
			Message:      llm.WireMessage{Role: "assistant", Content: text},
			FinishReason: "stop",
		}},
	}
}
