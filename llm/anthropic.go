package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel talks to the Messages API directly via
// anthropic-sdk-go, exercising the ANTHROPIC capability row (no strict
// schema, specific tool-choice via {type:"tool",name}).
type AnthropicModel struct {
	client anthropic.Client
	model  string
	base   string
}

func NewAnthropicDirectModel(model, apiKey, baseURL string) *AnthropicModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicModel{client: anthropic.NewClient(opts...), model: model, base: baseURL}
}

func (m *AnthropicModel) Name() string    { return m.model }
func (m *AnthropicModel) BaseURL() string { return m.base }

func (m *AnthropicModel) buildParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: 4000,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = int64(*req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	for _, msg := range req.Messages {
		text, _ := msg.Content.(string)
		switch msg.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: text})
		case "user":
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		case "tool":
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, text, false),
			))
		}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Function.Name,
				Description: anthropic.String(t.Function.Description),
			},
		})
	}

	switch req.ToolChoice.Kind {
	case ToolChoiceRequired:
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case ToolChoiceSpecific:
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice.Name},
		}
	}

	return params
}

func (m *AnthropicModel) Complete(ctx context.Context, req Request) (*Response, error) {
	msg, err := m.client.Messages.New(ctx, m.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	out := WireMessage{Role: "assistant"}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if s, _ := out.Content.(string); s == "" {
				out.Content = b.Text
			} else {
				out.Content = s + b.Text
			}
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   b.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      b.Name,
					Arguments: string(b.Input),
				},
			})
		}
	}
	finish := "stop"
	if len(out.ToolCalls) > 0 {
		finish = "tool_calls"
	}
	return &Response{
		ID:      msg.ID,
		Choices: []Choice{{Message: out, FinishReason: finish}},
		Usage: &Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func (m *AnthropicModel) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	stream := m.client.Messages.NewStreaming(ctx, m.buildParams(req))

	out := make(chan Chunk, 32)
	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			c := Chunk{Delta: WireMessage{Role: "assistant"}}
			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch d := e.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					c.Delta.Content = d.Text
				case anthropic.InputJSONDelta:
					c.Delta.ToolCalls = []ToolCall{{
						Index:    int(e.Index),
						Function: FunctionCall{Arguments: d.PartialJSON},
					}}
				}
			case anthropic.MessageDeltaEvent:
				if e.Delta.StopReason != "" {
					c.FinishReason = string(e.Delta.StopReason)
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- c:
			}
		}
		if err := stream.Err(); err != nil {
			out <- Chunk{Error: &ProviderError{Message: err.Error()}}
		}
	}()
	return out, nil
}
