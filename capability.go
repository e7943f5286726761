package agentscope

import "strings"

// Capability names a provider dialect bundle (§4.5). Detection is
// closed over this enum; an unrecognized provider defaults to full
// support (CapabilityUnknown behaves like OPENAI's row).
type Capability string

const (
	CapabilityOpenAI    Capability = "openai"
	CapabilityAnthropic Capability = "anthropic"
	CapabilityGemini    Capability = "gemini"
	CapabilityGLM       Capability = "glm"
	CapabilityDashScope Capability = "dashscope"
	CapabilityDeepSeek  Capability = "deepseek"
	CapabilityUnknown   Capability = "unknown"
)

// toolChoiceSupport is one row of the capability table in §4.5.
type toolChoiceSupport struct {
	none     bool
	required bool
	specific bool
	strict   bool
}

var capabilityTable = map[Capability]toolChoiceSupport{
	CapabilityOpenAI:    {none: true, required: true, specific: true, strict: true},
	CapabilityAnthropic: {none: true, required: true, specific: true, strict: false},
	CapabilityGemini:    {none: true, required: true, specific: false, strict: false},
	CapabilityGLM:       {none: false, required: true, specific: true, strict: false},
	CapabilityDashScope: {none: true, required: true, specific: true, strict: false},
	CapabilityDeepSeek:  {none: true, required: true, specific: true, strict: false},
	CapabilityUnknown:   {none: true, required: true, specific: true, strict: true},
}

func (c Capability) support() toolChoiceSupport {
	if s, ok := capabilityTable[c]; ok {
		return s
	}
	return capabilityTable[CapabilityUnknown]
}

// SupportsStrictSchema reports whether c's provider accepts the
// `strict` flag on a tool's JSON schema.
func (c Capability) SupportsStrictSchema() bool { return c.support().strict }

// baseURLHints maps a base-URL substring to the capability it implies;
// checked before the model-name prefix table (§4.5).
var baseURLHints = []struct {
	substr string
	cap    Capability
}{
	{"anthropic.com", CapabilityAnthropic},
	{"generativelanguage.googleapis.com", CapabilityGemini},
	{"bigmodel.cn", CapabilityGLM},
	{"dashscope.aliyuncs.com", CapabilityDashScope},
	{"deepseek.com", CapabilityDeepSeek},
	{"openai.com", CapabilityOpenAI},
}

// modelPrefixHints maps a model-name prefix to its capability, tried
// only when no base-URL hint matched.
var modelPrefixHints = []struct {
	prefix string
	cap    Capability
}{
	{"claude-", CapabilityAnthropic},
	{"gemini-", CapabilityGemini},
	{"glm-", CapabilityGLM},
	{"qwen-", CapabilityDashScope},
	{"deepseek-", CapabilityDeepSeek},
	{"gpt-", CapabilityOpenAI},
	{"o1-", CapabilityOpenAI},
	{"o3-", CapabilityOpenAI},
	{"o4-", CapabilityOpenAI},
}

// DetectCapability resolves a Capability first by base-URL substring
// match, then by model-name prefix match, defaulting to
// CapabilityUnknown (full support) when neither matches (§4.5).
func DetectCapability(baseURL, model string) Capability {
	lowerURL := strings.ToLower(baseURL)
	for _, h := range baseURLHints {
		if lowerURL != "" && strings.Contains(lowerURL, h.substr) {
			return h.cap
		}
	}
	lowerModel := strings.ToLower(model)
	for _, h := range modelPrefixHints {
		if strings.HasPrefix(lowerModel, h.prefix) {
			return h.cap
		}
	}
	return CapabilityUnknown
}

// IsReasoningModel reports whether model belongs to the reasoning-model
// set of §4.5: sampling parameters must be omitted and max_tokens is
// mandatory for these.
func IsReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "deepseek-reasoner") ||
		strings.Contains(lower, "deepseek-r1") ||
		strings.HasPrefix(lower, "o1-")
}

// degradeToolChoice resolves a requested ToolChoice against cap's
// support row, per §4.5: specific → (required if supported else auto),
// required → auto, none → auto. Returns the degraded choice and
// whether degradation actually occurred (used to decide whether to
// log it).
func degradeToolChoice(choice ToolChoiceRequest, cap Capability) (ToolChoiceRequest, bool) {
	s := cap.support()
	switch choice.Kind {
	case ToolChoiceKindNone:
		if s.none {
			return choice, false
		}
		return ToolChoiceRequest{Kind: ToolChoiceKindAuto}, true
	case ToolChoiceKindRequired:
		if s.required {
			return choice, false
		}
		return ToolChoiceRequest{Kind: ToolChoiceKindAuto}, true
	case ToolChoiceKindSpecific:
		if s.specific {
			return choice, false
		}
		if s.required {
			return ToolChoiceRequest{Kind: ToolChoiceKindRequired}, true
		}
		return ToolChoiceRequest{Kind: ToolChoiceKindAuto}, true
	default:
		return choice, false
	}
}

// ToolChoiceKind is the canonical, capability-independent request a
// caller makes; it is degraded to a wire-level llm.ToolChoice by
// ApplyToolChoice.
type ToolChoiceKind string

const (
	ToolChoiceKindAuto     ToolChoiceKind = "auto"
	ToolChoiceKindNone     ToolChoiceKind = "none"
	ToolChoiceKindRequired ToolChoiceKind = "required"
	ToolChoiceKindSpecific ToolChoiceKind = "specific"
)

// ToolChoiceRequest is the caller's tool-choice intent before
// degradation; Name is only meaningful for ToolChoiceKindSpecific.
type ToolChoiceRequest struct {
	Kind ToolChoiceKind
	Name string
}
