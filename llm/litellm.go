package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/voocel/litellm"
	"github.com/voocel/litellm/providers"
)

// LiteLLMModel is the default ChatModel, backed by litellm's
// multi-provider client. One instance talks to exactly one
// model+baseURL pair, which is all the dialect layer's capability
// detection needs.
type LiteLLMModel struct {
	client  *litellm.Client
	model   string
	baseURL string
}

// NewLiteLLMModel builds a LiteLLMModel against an explicit litellm
// provider (providers.NewOpenAI, providers.NewAnthropic, ...).
func NewLiteLLMModel(model string, provider providers.Provider, baseURL string) (*LiteLLMModel, error) {
	client, err := litellm.New(provider)
	if err != nil {
		return nil, fmt.Errorf("litellm: new client: %w", err)
	}
	return &LiteLLMModel{client: client, model: model, baseURL: baseURL}, nil
}

// NewOpenAIModel builds a LiteLLMModel against the OpenAI dialect.
func NewOpenAIModel(model, apiKey, baseURL string) (*LiteLLMModel, error) {
	cfg := providers.ProviderConfig{APIKey: apiKey, BaseURL: baseURL}
	return NewLiteLLMModel(model, providers.NewOpenAI(cfg), baseURL)
}

// NewAnthropicModel builds a LiteLLMModel against the Anthropic dialect.
func NewAnthropicModel(model, apiKey, baseURL string) (*LiteLLMModel, error) {
	cfg := providers.ProviderConfig{APIKey: apiKey, BaseURL: baseURL}
	return NewLiteLLMModel(model, providers.NewAnthropic(cfg), baseURL)
}

// NewGeminiModel builds a LiteLLMModel against the Gemini dialect.
func NewGeminiModel(model, apiKey, baseURL string) (*LiteLLMModel, error) {
	cfg := providers.ProviderConfig{APIKey: apiKey, BaseURL: baseURL}
	return NewLiteLLMModel(model, providers.NewGemini(cfg), baseURL)
}

func (m *LiteLLMModel) Name() string    { return m.model }
func (m *LiteLLMModel) BaseURL() string { return m.baseURL }

func (m *LiteLLMModel) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := m.client.Chat(ctx, toLiteLLMRequest(m.model, req))
	if err != nil {
		return nil, fmt.Errorf("litellm: chat: %w", err)
	}
	return fromLiteLLMResponse(resp), nil
}

func (m *LiteLLMModel) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	stream, err := m.client.Stream(ctx, toLiteLLMRequest(m.model, req))
	if err != nil {
		return nil, fmt.Errorf("litellm: stream: %w", err)
	}

	out := make(chan Chunk, 32)
	go func() {
		defer close(out)
		defer stream.Close()

		builders := make(map[int]*toolCallBuilder)
		for {
			chunk, err := stream.Next()
			if err != nil {
				if err != io.EOF {
					out <- Chunk{Error: &ProviderError{Message: err.Error()}}
				}
				break
			}
			if chunk == nil {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- fromLiteLLMChunk(chunk, builders):
			}
		}
	}()
	return out, nil
}

func toLiteLLMRequest(model string, req Request) *litellm.Request {
	out := &litellm.Request{
		Model:    model,
		Messages: make([]litellm.Message, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		content, _ := msg.Content.(string)
		out.Messages[i] = litellm.Message{
			Role:       msg.Role,
			Content:    content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
	}
	if req.Temperature != nil {
		out.Temperature = req.Temperature
	}
	if req.MaxTokens != nil {
		out.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		out.Tools = make([]litellm.Tool, len(req.Tools))
		for i, t := range req.Tools {
			out.Tools[i] = litellm.Tool{
				Type: t.Type,
				Function: litellm.FunctionSchema{
					Name:        t.Function.Name,
					Description: t.Function.Description,
					Parameters:  t.Function.Parameters,
				},
			}
		}
		out.ToolChoice = string(req.ToolChoice.Kind)
		if req.ToolChoice.Kind == "" {
			out.ToolChoice = "auto"
		}
	}
	return out
}

func fromLiteLLMResponse(resp *litellm.Response) *Response {
	msg := WireMessage{Role: "assistant", Content: resp.Content}
	if resp.Reasoning != nil {
		msg.ReasoningContent = resp.Reasoning.Content
	}
	finish := "stop"
	if len(resp.ToolCalls) > 0 {
		msg.ToolCalls = make([]ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			msg.ToolCalls[i] = ToolCall{
				Index: i,
				ID:    tc.ID,
				Type:  "function",
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			}
		}
		finish = "tool_calls"
	}
	var usage *Usage
	if resp.Usage.TotalTokens > 0 {
		usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return &Response{
		ID:      resp.ID,
		Choices: []Choice{{Message: msg, FinishReason: finish}},
		Usage:   usage,
	}
}

// toolCallBuilder accumulates a streamed tool call's arguments across
// fragment chunks, matched by delta index (§4.5 chunk reassembly).
type toolCallBuilder struct {
	id, name string
	args     []byte
}

func fromLiteLLMChunk(chunk *litellm.StreamChunk, builders map[int]*toolCallBuilder) Chunk {
	c := Chunk{Delta: WireMessage{Role: "assistant"}}
	if chunk.Reasoning != nil {
		c.Delta.ReasoningContent = chunk.Reasoning.Content
	}
	c.Delta.Content = chunk.Content
	if chunk.ToolCallDelta != nil {
		d := chunk.ToolCallDelta
		b, ok := builders[d.Index]
		if !ok {
			b = &toolCallBuilder{}
			builders[d.Index] = b
		}
		if d.ID != "" {
			b.id = d.ID
		}
		if d.FunctionName != "" {
			b.name = d.FunctionName
		}
		if d.ArgumentsDelta != "" {
			b.args = append(b.args, d.ArgumentsDelta...)
		}
		c.Delta.ToolCalls = []ToolCall{{
			Index: d.Index,
			ID:    b.id,
			Type:  "function",
			Function: FunctionCall{
				Name:      b.name,
				Arguments: d.ArgumentsDelta,
			},
		}}
	}
	if chunk.FinishReason != "" {
		c.FinishReason = chunk.FinishReason
	}
	return c
}
