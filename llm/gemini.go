package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel talks to Google's Gemini API directly via google.golang.org/genai,
// exercising the GEMINI capability row (specific tool-choice degrades to
// required).
type GeminiModel struct {
	client *genai.Client
	model  string
	base   string
}

func NewGeminiDirectModel(ctx context.Context, model, apiKey, baseURL string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiModel{client: client, model: model, base: baseURL}, nil
}

func (m *GeminiModel) Name() string    { return m.model }
func (m *GeminiModel) BaseURL() string { return m.base }

func (m *GeminiModel) buildContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	cfg := &genai.GenerateContentConfig{}

	for _, msg := range req.Messages {
		text, _ := msg.Content.(string)
		switch msg.Role {
		case "system":
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: text}}}
		case "user", "tool":
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: text}}})
		case "assistant":
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}})
		}
	}

	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	for _, t := range req.Tools {
		cfg.Tools = append(cfg.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Function.Name,
				Description: t.Function.Description,
			}},
		})
	}
	if req.ToolChoice.Kind == ToolChoiceRequired || req.ToolChoice.Kind == ToolChoiceSpecific {
		cfg.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny},
		}
	}
	return contents, cfg
}

func (m *GeminiModel) Complete(ctx context.Context, req Request) (*Response, error) {
	contents, cfg := m.buildContents(req)
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	return fromGeminiResponse(resp), nil
}

func (m *GeminiModel) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	contents, cfg := m.buildContents(req)

	out := make(chan Chunk, 32)
	go func() {
		defer close(out)
		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, cfg) {
			if err != nil {
				out <- Chunk{Error: &ProviderError{Message: err.Error()}}
				return
			}
			r := fromGeminiResponse(resp)
			if len(r.Choices) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- Chunk{Delta: r.Choices[0].Message, FinishReason: r.Choices[0].FinishReason, Usage: r.Usage}:
			}
		}
	}()
	return out, nil
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) *Response {
	msg := WireMessage{Role: "assistant"}
	finish := "stop"
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part.Text != "" {
					if s, _ := msg.Content.(string); s == "" {
						msg.Content = part.Text
					} else {
						msg.Content = s + part.Text
					}
				}
				if part.FunctionCall != nil {
					args, _ := jsonMarshal(part.FunctionCall.Args)
					msg.ToolCalls = append(msg.ToolCalls, ToolCall{
						ID:   part.FunctionCall.Name,
						Type: "function",
						Function: FunctionCall{
							Name:      part.FunctionCall.Name,
							Arguments: args,
						},
					})
				}
			}
		}
		if len(msg.ToolCalls) > 0 {
			finish = "tool_calls"
		}
	}
	var usage *Usage
	if resp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return &Response{
		Choices: []Choice{{Message: msg, FinishReason: finish}},
		Usage:   usage,
	}
}

func jsonMarshal(v map[string]any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
