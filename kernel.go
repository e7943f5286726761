package agentscope

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agentscope/kernel")

const (
	structuredToolName = "generate_structured_response"

	// DefaultMaxIterations bounds a single call()'s REASONING/ACTING
	// cycles (§4.6); overflow returns the last reasoning Msg with
	// FinishReason "max_iterations" rather than looping forever.
	DefaultMaxIterations = 10
)

// FinishReason tags why a call() returned.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishMaxIterations FinishReason = "max_iterations"
	FinishStopped       FinishReason = "stopped"
	FinishInterrupted   FinishReason = "interrupted"
)

// CallResult is what call() returns: the final assistant Msg, why the
// loop ended, and — for a structured-output call — the captured
// structured payload.
type CallResult struct {
	Message      Msg
	FinishReason FinishReason
	Structured   map[string]any
}

// Agent is the C6 reasoning-acting kernel: one ReAct loop bound to its
// own Memory, ToolRegistry, HookPipeline, and Dialect. One in-flight
// call() per Agent is a precondition (§5); concurrent calls on the same
// Agent are undefined behavior, not guarded against.
type Agent struct {
	Name    string
	Memory  *Memory
	Tools   *ToolRegistry
	Hooks   *HookPipeline
	Dialect *Dialect

	MaxIterations int
	Execution     ExecutionConfig

	interrupted atomic.Bool

	hub       *Hub
	hubToken  subscriberToken
}

// NewAgent wires the four always-present components into one kernel.
// hooks/tools may be nil, in which case empty defaults are created.
func NewAgent(name string, dialect *Dialect, tools *ToolRegistry, hooks *HookPipeline) *Agent {
	if tools == nil {
		tools = NewToolRegistry()
	}
	if hooks == nil {
		hooks = NewHookPipeline()
	}
	return &Agent{
		Name:          name,
		Memory:        NewMemory(),
		Tools:         tools,
		Hooks:         hooks,
		Dialect:       dialect,
		MaxIterations: DefaultMaxIterations,
		Execution:     DefaultExecutionConfig,
	}
}

// Interrupt requests that the current (or next) call() stop at the
// nearest suspension point. Idempotent, cooperative, never blocks; the
// flag is auto-cleared when the next call() begins (§5).
func (a *Agent) Interrupt() { a.interrupted.Store(true) }

func (a *Agent) isInterrupted() bool { return a.interrupted.Load() }

// Call drives one pass of the ReAct loop (§4.6). userMsg may be nil to
// re-enter the loop against existing memory (HITL resume after a
// STOPPED or INTERRUPTED return). schema, if non-nil, requests
// structured output via a synthetic tool injected for the duration of
// this call only.
func (a *Agent) Call(ctx context.Context, userMsg *Msg, schema map[string]any) (result CallResult, err error) {
	a.interrupted.Store(false)

	ctx, span := tracer.Start(ctx, "agentscope.call", trace.WithAttributes(
		attribute.String("agent.name", a.Name),
	))
	defer span.End()

	chain := a.Hooks.newChain()

	// Covers every return path below, successful or not, so PostCall
	// always balances the PreCall dispatched just after it.
	defer func() {
		if dispatchErr := chain.dispatch(&HookEvent{Kind: EventPostCall, FinalMessage: result.Message}); dispatchErr != nil && err == nil {
			err = NewKernelError("call", ErrInvalidInput, dispatchErr)
		}
	}()

	if dispatchErr := chain.dispatch(&HookEvent{Kind: EventPreCall}); dispatchErr != nil {
		return CallResult{}, NewKernelError("call", ErrInvalidInput, dispatchErr)
	}

	if userMsg != nil {
		a.Memory.Append(*userMsg)
	}

	var structuredTool *ToolSchema
	if schema != nil {
		structuredTool = &ToolSchema{
			Name:        structuredToolName,
			Description: "Emit the final structured result for this call.",
			Parameters:  schema,
			Group:       defaultGroup,
		}
	}

	// HITL resume: a nil userMsg after a STOPPED return first runs the tool
	// calls the stopped reasoning turn left pending at the end of memory.
	if userMsg == nil {
		if last, ok := a.Memory.Last(); ok && last.Role == RoleAssistant && last.HasToolUses() {
			res, actErr := a.act(ctx, chain, last, structuredTool)
			if actErr != nil {
				return CallResult{}, actErr
			}
			if res != nil {
				a.broadcastResult(ctx, res.Message)
				return *res, nil
			}
		}
	}

	var lastReasoning Msg
	finish := FinishMaxIterations

	for iteration := 0; iteration < a.MaxIterations; iteration++ {
		if a.isInterrupted() {
			span.SetAttributes(attribute.String("finish_reason", string(FinishInterrupted)))
			return CallResult{Message: lastReasoning, FinishReason: FinishInterrupted}, nil
		}

		iterCtx, iterSpan := tracer.Start(ctx, "agentscope.iteration", trace.WithAttributes(
			attribute.Int("iteration", iteration),
		))

		reasoning, interrupted, stopped, iterResult, iterErr := a.runIteration(iterCtx, chain, structuredTool)
		iterSpan.End()
		if iterErr != nil {
			return CallResult{}, iterErr
		}
		if interrupted {
			span.SetAttributes(attribute.String("finish_reason", string(FinishInterrupted)))
			return CallResult{Message: lastReasoning, FinishReason: FinishInterrupted}, nil
		}
		lastReasoning = reasoning

		if stopped {
			finish = FinishStopped
			break
		}
		if iterResult != nil {
			finish = FinishStop
			a.broadcastResult(ctx, iterResult.Message)
			span.SetAttributes(attribute.String("finish_reason", string(finish)))
			return *iterResult, nil
		}
		if !reasoning.HasToolUses() {
			finish = FinishStop
			break
		}
	}

	span.SetAttributes(attribute.String("finish_reason", string(finish)))
	if finish == FinishStop {
		a.broadcastResult(ctx, lastReasoning)
	}
	return CallResult{Message: lastReasoning, FinishReason: finish}, nil
}

// runIteration runs exactly one REASONING step followed by ACTING (if
// any tool calls were requested). It returns the reasoning Msg, whether
// the agent was interrupted before a reasoning Msg was produced, whether
// a PostReasoning hook requested a stop, and — for a structured-output
// call whose synthetic tool was invoked — the final CallResult to
// return immediately.
func (a *Agent) runIteration(ctx context.Context, chain *chain, structuredTool *ToolSchema) (Msg, bool, bool, *CallResult, error) {
	if a.isInterrupted() {
		return Msg{}, true, false, nil, nil
	}

	if err := chain.dispatch(&HookEvent{Kind: EventPreReasoning, InputMessages: a.Memory.Messages()}); err != nil {
		return Msg{}, false, false, nil, NewKernelError("reasoning", ErrInvalidInput, err)
	}

	schemas := a.Tools.GetActiveSchemas()
	if structuredTool != nil {
		schemas = append(schemas, *structuredTool)
	}

	reasoning, interrupted, err := a.streamReasoning(ctx, chain, schemas)
	if err != nil {
		return Msg{}, false, false, nil, err
	}
	if interrupted {
		return Msg{}, true, false, nil, nil
	}
	a.Memory.Append(reasoning)

	event := &HookEvent{Kind: EventPostReasoning, ReasoningMessage: reasoning, FinalMessage: reasoning}
	if err := chain.dispatch(event); err != nil {
		return reasoning, false, false, nil, NewKernelError("reasoning", ErrInvalidInput, err)
	}
	if event.Stopped() {
		pending := reasoning.GetContentBlocks(ContentToolUse)
		ids := make([]string, 0, len(pending))
		for _, b := range pending {
			ids = append(ids, b.ToolUse.ID)
		}
		Log("kernel").Info().Str("agent", a.Name).Strs("pending_tool_use_ids", ids).Msg("hook requested stop after reasoning")
		return reasoning, false, true, nil, nil
	}

	if !reasoning.HasToolUses() {
		return reasoning, false, false, nil, nil
	}

	result, err := a.act(ctx, chain, reasoning, structuredTool)
	if err != nil {
		return reasoning, false, false, nil, err
	}
	return reasoning, false, false, result, nil
}

// streamOutcome is streamReasoning's retry unit: either a completed Msg
// or a report that the agent was interrupted mid-stream (never both, and
// never a zero Msg passed off as a real one).
type streamOutcome struct {
	msg         Msg
	interrupted bool
}

// streamReasoning issues one model call via Dialect.Stream under the
// agent's ExecutionConfig (§4.10: PROVIDER_ERROR and TIMEOUT retry with
// backoff, everything else doesn't), dispatching EventReasoningChunk for
// each delta and honoring interrupt at chunk boundaries. The bool result
// reports an interrupt with no usable Msg, distinct from a normal error.
func (a *Agent) streamReasoning(ctx context.Context, chain *chain, schemas []ToolSchema) (Msg, bool, error) {
	cr := CallRequest{
		Messages:   a.Memory.Messages(),
		Tools:      schemas,
		ToolChoice: ToolChoiceRequest{Kind: ToolChoiceKindAuto},
	}

	outcome, err := WithRetry(ctx, a.Execution, func(ctx context.Context) (streamOutcome, error) {
		results, err := a.Dialect.Stream(ctx, cr)
		if err != nil {
			return streamOutcome{}, NewKernelError("reasoning", ErrProviderError, err)
		}

		var final Msg
		for r := range results {
			if a.isInterrupted() {
				return streamOutcome{interrupted: true}, nil
			}
			if r.Err != nil {
				return streamOutcome{}, NewKernelError("reasoning", ErrProviderError, r.Err)
			}
			if err := chain.dispatch(&HookEvent{Kind: EventReasoningChunk, Chunk: r.Chunk}); err != nil {
				return streamOutcome{}, NewKernelError("reasoning", ErrInvalidInput, err)
			}
			if r.Done {
				final = r.Final
			}
		}
		return streamOutcome{msg: final}, nil
	})
	if err != nil {
		return Msg{}, false, err
	}
	if outcome.interrupted {
		return Msg{}, true, nil
	}
	outcome.msg.Name = a.Name
	return outcome.msg, false, nil
}

// act invokes every ToolUse requested by reasoning, appending matching
// ToolResultMsgs to memory in order (§8 pairing invariant), and detects
// an invocation of the synthetic structured-output tool.
func (a *Agent) act(ctx context.Context, chain *chain, reasoning Msg, structuredTool *ToolSchema) (*CallResult, error) {
	for _, tu := range reasoning.ToolUses() {
		if a.isInterrupted() {
			return nil, nil
		}

		if err := chain.dispatch(&HookEvent{Kind: EventPreActing, ToolUse: tu}); err != nil {
			return nil, NewKernelError("acting", ErrInvalidInput, err)
		}

		if structuredTool != nil && tu.Name == structuredTool.Name {
			final := a.stripStructuredTrace(reasoning)
			return &CallResult{Message: final, FinishReason: FinishStop, Structured: tu.Input}, nil
		}

		result := a.Tools.Invoke(ctx, tu.ID, tu.Name, tu.Input)
		a.Memory.Append(ToolResultMsg(result))

		if err := chain.dispatch(&HookEvent{Kind: EventPostActing, ToolUse: tu, ToolResult: result}); err != nil {
			return nil, NewKernelError("acting", ErrInvalidInput, err)
		}
	}
	return nil, nil
}

// stripStructuredTrace removes the synthetic tool's ToolUseBlock from
// reasoning, leaving any accompanying text intact (§4.6): the synthetic
// call never appears in the Msg returned to the caller.
func (a *Agent) stripStructuredTrace(reasoning Msg) Msg {
	var kept []ContentBlock
	for _, b := range reasoning.Content {
		if b.Type == ContentToolUse && b.ToolUse != nil && b.ToolUse.Name == structuredToolName {
			continue
		}
		kept = append(kept, b)
	}
	reasoning.Content = kept
	return reasoning
}

// broadcastResult delivers the final assistant Msg of a successful call
// to the agent's hub subscribers, if any and auto-broadcast is enabled
// (§4.6, §4.7).
func (a *Agent) broadcastResult(ctx context.Context, msg Msg) {
	if a.hub == nil || msg.IsEmpty() {
		return
	}
	a.hub.autoBroadcastFrom(ctx, a, msg)
}
