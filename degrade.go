package agentscope

import "github.com/zjf2671/agentscope-go/llm"

// GenerateOptions carries the sampling/limit parameters a caller may
// request for one kernel call (§4.5); nil fields are simply omitted
// from the wire request.
type GenerateOptions struct {
	Temperature     *float64
	TopP            *float64
	MaxTokens       *int
	Seed            *int
	Stop            []string
	ReasoningEffort string
}

// reasoningDefaultMaxTokens is the mandatory floor applied to reasoning
// models that omit MaxTokens (§4.5): their responses are unusably
// truncated under typical default limits.
const reasoningDefaultMaxTokens = 4000

// ApplyOptions copies opts into req, honoring the reasoning-model quirk
// of §4.5: sampling parameters (temperature/top_p/seed) are omitted
// entirely for reasoning models, and the token limit defaults to a
// floor instead of being left unset. GEMINI and reasoning models take
// the limit via MaxCompletionTokens; every other capability takes it
// via MaxTokens (§4.5, §9).
func ApplyOptions(req *llm.Request, opts GenerateOptions, model string, cap Capability) {
	reasoning := IsReasoningModel(model)

	if !reasoning {
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.Seed = opts.Seed
	}

	limit := opts.MaxTokens
	if limit == nil && reasoning {
		n := reasoningDefaultMaxTokens
		limit = &n
	}
	if reasoning || cap == CapabilityGemini {
		req.MaxCompletionTokens = limit
	} else {
		req.MaxTokens = limit
	}

	req.Stop = opts.Stop
	req.ReasoningEffort = opts.ReasoningEffort
}

// ApplyTools attaches active tool schemas to req as OpenAI-style
// function definitions, applying the `strict` flag only when cap
// supports strict schemas (§4.5).
func ApplyTools(req *llm.Request, schemas []ToolSchema, cap Capability) {
	if len(schemas) == 0 {
		return
	}
	strictOK := cap.SupportsStrictSchema()
	req.Tools = make([]llm.ToolDefinition, 0, len(schemas))
	for _, s := range schemas {
		def := llm.ToolDefinition{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		}
		if s.Strict && strictOK {
			strict := true
			def.Function.Strict = &strict
		}
		req.Tools = append(req.Tools, def)
	}
}

// ApplyToolChoice resolves a caller's tool-choice request into req's
// wire-level ToolChoice, first degrading against cap's capability row
// (§4.5), then applying any provider-specific override (GLM forces
// auto whenever tools are present). log, if non-nil, is called with a
// human-readable note whenever degradation actually changed the
// requested choice — callers typically wire this to the component
// logger.
func ApplyToolChoice(req *llm.Request, choice ToolChoiceRequest, cap Capability, log func(note string)) {
	degraded, changed := degradeToolChoice(choice, cap)
	if changed && log != nil {
		log("tool_choice degraded: " + string(choice.Kind) + " -> " + string(degraded.Kind) + " (capability " + string(cap) + ")")
	}

	if forceAutoToolChoice(cap, len(req.Tools) > 0) && degraded.Kind != ToolChoiceKindAuto {
		if log != nil {
			log("tool_choice forced to auto (capability " + string(cap) + ")")
		}
		degraded = ToolChoiceRequest{Kind: ToolChoiceKindAuto}
	}

	req.ToolChoice = llm.ToolChoice{Kind: llm.ToolChoiceKind(degraded.Kind), Name: degraded.Name}
}
