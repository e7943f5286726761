package agentscope

import (
	"context"

	"github.com/zjf2671/agentscope-go/llm"
)

// Dialect wraps a transport ChatModel with the provider-aware
// formatting, option/tool-choice degradation, and response/chunk
// parsing of C5 (§4.5). It is the only thing the kernel talks to for
// model calls; it never knows which concrete SDK backs model.
type Dialect struct {
	model      llm.ChatModel
	cap        Capability
	mode       FormatMode
	name       string // this agent's own speaker name, for ParseResponse/FinalizeChunks
}

// NewDialect detects model's Capability from its BaseURL/Name and
// wraps it for use by the kernel. agentName is stamped onto every
// parsed assistant Msg.
func NewDialect(model llm.ChatModel, mode FormatMode, agentName string) *Dialect {
	return &Dialect{
		model: model,
		cap:   DetectCapability(model.BaseURL(), model.Name()),
		mode:  mode,
		name:  agentName,
	}
}

// Capability exposes the detected dialect, mainly for tests and hooks
// that want to log or branch on it.
func (d *Dialect) Capability() Capability { return d.cap }

// CallRequest bundles everything a kernel iteration needs to issue one
// model call, ahead of format/degrade being applied.
type CallRequest struct {
	Messages   []Msg
	Tools      []ToolSchema
	ToolChoice ToolChoiceRequest
	Options    GenerateOptions
}

func (d *Dialect) buildRequest(ctx context.Context, cr CallRequest, stream bool) llm.Request {
	req := llm.Request{
		Model:    d.model.Name(),
		Stream:   stream,
		Messages: FormatMessages(cr.Messages, d.mode, d.cap, d.model.Name()),
	}
	ApplyOptions(&req, cr.Options, d.model.Name(), d.cap)
	ApplyTools(&req, cr.Tools, d.cap)
	ApplyToolChoice(&req, cr.ToolChoice, d.cap, func(note string) {
		Log("dialect").Warn().Str("capability", string(d.cap)).Msg(note)
	})
	return req
}

// Complete issues one non-streaming call and returns the parsed
// canonical assistant Msg.
func (d *Dialect) Complete(ctx context.Context, cr CallRequest) (Msg, error) {
	req := d.buildRequest(ctx, cr, false)
	resp, err := d.model.Complete(ctx, req)
	if err != nil {
		return Msg{}, NewDialectError(string(d.cap), "complete", err)
	}
	if resp.Error != nil {
		return Msg{}, NewDialectError(string(d.cap), "complete", resp.Error)
	}
	return ParseResponse(resp, d.name), nil
}

// StreamResult is delivered on each iteration of a streaming call: Chunk
// is the hook-facing delta, Done reports stream completion, and Final
// is only populated once Done is true. Err is set, with Done true and
// no Final, when the provider aborted the stream mid-flight.
type StreamResult struct {
	Chunk StreamChunk
	Done  bool
	Final Msg
	Err   error
}

// Stream issues a streaming call and returns a channel of StreamResult,
// closed when the underlying transport channel closes. The final
// element, if the stream completed without error, carries Done=true
// and the fully reassembled Final Msg.
func (d *Dialect) Stream(ctx context.Context, cr CallRequest) (<-chan StreamResult, error) {
	req := d.buildRequest(ctx, cr, true)
	chunks, err := d.model.Stream(ctx, req)
	if err != nil {
		return nil, NewDialectError(string(d.cap), "stream", err)
	}

	out := make(chan StreamResult, 8)
	go func() {
		defer close(out)
		merger := NewChunkMerger()
		for c := range chunks {
			if c.Error != nil {
				err := NewDialectError(string(d.cap), "stream", c.Error)
				select {
				case <-ctx.Done():
				case out <- StreamResult{Done: true, Err: err}:
				}
				return
			}
			sc, done := ParseChunk(merger, c)
			result := StreamResult{Chunk: sc, Done: done}
			if done {
				result.Final = FinalizeChunks(merger, d.name)
			}
			select {
			case <-ctx.Done():
				return
			case out <- result:
			}
		}
	}()
	return out, nil
}
