package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel talks to the OpenAI chat-completions API directly via
// go-openai, exercising the OPENAI capability row without going
// through litellm's multiplexing.
type OpenAIModel struct {
	client *openai.Client
	model  string
	base   string
}

func NewOpenAIDirectModel(model, apiKey, baseURL string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model, base: baseURL}
}

func (m *OpenAIModel) Name() string    { return m.model }
func (m *OpenAIModel) BaseURL() string { return m.base }

func (m *OpenAIModel) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := m.client.CreateChatCompletion(ctx, toOpenAIRequest(m.model, req))
	if err != nil {
		return nil, fmt.Errorf("openai: create chat completion: %w", err)
	}
	return fromOpenAIResponse(&resp), nil
}

func (m *OpenAIModel) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	wireReq := toOpenAIRequest(m.model, req)
	wireReq.Stream = true
	stream, err := m.client.CreateChatCompletionStream(ctx, wireReq)
	if err != nil {
		return nil, fmt.Errorf("openai: create chat completion stream: %w", err)
	}

	out := make(chan Chunk, 32)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if err != nil {
				if err.Error() != "EOF" {
					out <- Chunk{Error: &ProviderError{Message: err.Error()}}
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			delta := WireMessage{Role: "assistant", Content: choice.Delta.Content}
			for i, tc := range choice.Delta.ToolCalls {
				idx := i
				if tc.Index != nil {
					idx = *tc.Index
				}
				delta.ToolCalls = append(delta.ToolCalls, ToolCall{
					Index: idx,
					ID:    tc.ID,
					Type:  string(tc.Type),
					Function: FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			select {
			case <-ctx.Done():
				return
			case out <- Chunk{Delta: delta, FinishReason: string(choice.FinishReason)}:
			}
		}
	}()
	return out, nil
}

func toOpenAIRequest(model string, req Request) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		content, _ := msg.Content.(string)
		out.Messages[i] = openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if req.Seed != nil {
		out.Seed = req.Seed
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
				Strict:      t.Function.Strict != nil && *t.Function.Strict,
			},
		})
	}
	return out
}

func fromOpenAIResponse(resp *openai.ChatCompletionResponse) *Response {
	if len(resp.Choices) == 0 {
		return &Response{ID: resp.ID}
	}
	choice := resp.Choices[0]
	msg := WireMessage{Role: "assistant", Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return &Response{
		ID: resp.ID,
		Choices: []Choice{{
			Message:      msg,
			FinishReason: string(choice.FinishReason),
		}},
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}
