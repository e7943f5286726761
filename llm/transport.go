// Package llm implements the model-transport contract: the shape the
// kernel expects from a concrete LLM transport, independent of how
// that transport actually talks to a provider over the wire. The core
// package (agentscope) never imports a provider SDK directly; it only
// depends on the ChatModel interface declared here. Concrete transports
// are adapters around real client libraries (litellm, go-openai,
// anthropic-sdk-go, genai).
package llm

import "context"

// Request is the wire-shape-agnostic request the kernel hands to a
// ChatModel. Fields mirror §6 exactly; omitted pointer/zero fields are
// simply not sent.
type Request struct {
	Model  string
	Stream bool

	Messages []WireMessage

	Temperature       *float64
	TopP              *float64
	FrequencyPenalty  *float64
	PresencePenalty   *float64
	MaxTokens         *int
	MaxCompletionTokens *int
	Seed              *int
	Stop              []string
	ResponseFormat    map[string]any
	ReasoningEffort   string

	Tools      []ToolDefinition
	ToolChoice ToolChoice

	Extra map[string]any
}

// WireMessage is one already-formatted provider message as produced by
// the dialect layer's formatter (§4.5). The transport forwards it
// verbatim; it never re-interprets canonical Msg content.
type WireMessage struct {
	Role             string
	Content          any // string or []map[string]any (content-parts)
	Name             string
	ToolCalls        []ToolCall
	ToolCallID       string
	ReasoningContent string
	ReasoningDetails any
}

// ToolDefinition is a single tool exposed to the model, in OpenAI-style
// function-calling shape (the shape every capability in §4.5's table
// degrades toward).
type ToolDefinition struct {
	Type     string
	Function FunctionDef
}

type FunctionDef struct {
	Name        string
	Description string
	Parameters  map[string]any
	Strict      *bool
}

// ToolChoiceKind is the caller-requested tool-choice mode before
// capability degradation (§4.5).
type ToolChoiceKind string

const (
	ToolChoiceAuto     ToolChoiceKind = "auto"
	ToolChoiceNone     ToolChoiceKind = "none"
	ToolChoiceRequired ToolChoiceKind = "required"
	ToolChoiceSpecific ToolChoiceKind = "specific"
)

// ToolChoice carries the requested kind plus, for ToolChoiceSpecific,
// the target tool name.
type ToolChoice struct {
	Kind ToolChoiceKind
	Name string
}

// ToolCall is an assistant-issued tool invocation as returned by the
// provider, prior to being parsed into a canonical ToolUse.
type ToolCall struct {
	Index    int
	ID       string
	Type     string
	Function FunctionCall
}

type FunctionCall struct {
	Name      string
	Arguments string
}

// Response is the non-streaming reply shape of §6.
type Response struct {
	ID      string
	Choices []Choice
	Usage   *Usage
	Error   *ProviderError
}

// Choice is one non-streaming completion choice.
type Choice struct {
	Index        int
	Message      WireMessage
	FinishReason string
}

// Chunk is one streaming delta, mirroring Response's shape with Delta
// in place of Message (§6).
type Chunk struct {
	ID           string
	Index        int
	Delta        WireMessage
	FinishReason string
	Usage        *Usage
	Error        *ProviderError
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ProviderError is the error payload a provider may embed in a
// response or a stream chunk; its presence aborts the stream with
// PROVIDER_ERROR (§6, §7).
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string { return e.Code + ": " + e.Message }

// ChatModel is the contract a concrete transport must satisfy. Stream
// returns a channel of Chunk; the channel is closed when the stream
// ends (normally or via ctx cancellation) and never sends after a
// Chunk carrying a non-nil Error.
type ChatModel interface {
	// Complete issues a single non-streaming request.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream issues a streaming request. The returned channel is
	// closed by the implementation once the stream is exhausted or
	// ctx is done; callers must drain it to avoid a goroutine leak.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)

	// Name identifies the model this ChatModel talks to, used by the
	// dialect layer's capability detection (model-name prefix match).
	Name() string

	// BaseURL identifies the endpoint this ChatModel talks to, used by
	// the dialect layer's capability detection (base-URL substring
	// match), which is tried before model-name prefix match.
	BaseURL() string
}
