package agentscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCapability(t *testing.T) {
	cases := []struct {
		name    string
		baseURL string
		model   string
		want    Capability
	}{
		{"anthropic by url", "https://api.anthropic.com/v1", "custom-model", CapabilityAnthropic},
		{"claude by model prefix", "", "claude-3-5-sonnet", CapabilityAnthropic},
		{"gemini by model prefix", "", "gemini-1.5-pro", CapabilityGemini},
		{"glm by model prefix", "", "glm-4-plus", CapabilityGLM},
		{"deepseek by url", "https://api.deepseek.com", "my-model", CapabilityDeepSeek},
		{"unknown falls back", "https://example.com", "mystery-model", CapabilityUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectCapability(tc.baseURL, tc.model))
		})
	}
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, IsReasoningModel("deepseek-reasoner"))
	assert.True(t, IsReasoningModel("deepseek-r1-distill"))
	assert.True(t, IsReasoningModel("o1-preview"))
	assert.False(t, IsReasoningModel("gpt-4o"))
	assert.False(t, IsReasoningModel("deepseek-chat"))
}

// TestToolChoiceDegradation checks that every capability's degraded
// choice is within {its supported kinds} ∪ {"auto"} (§8
// capability-degradation testable property). GLM's forced-auto override
// is covered by TestGLMForcesAutoToolChoice.
func TestToolChoiceDegradation(t *testing.T) {
	for cap, support := range capabilityTable {
		for _, kind := range []ToolChoiceKind{ToolChoiceKindNone, ToolChoiceKindRequired, ToolChoiceKindSpecific} {
			degraded, _ := degradeToolChoice(ToolChoiceRequest{Kind: kind, Name: "x"}, cap)
			switch degraded.Kind {
			case ToolChoiceKindAuto:
				// always a valid fallback
			case ToolChoiceKindNone:
				assert.True(t, support.none, "%s degraded to none but doesn't support it", cap)
			case ToolChoiceKindRequired:
				assert.True(t, support.required, "%s degraded to required but doesn't support it", cap)
			case ToolChoiceKindSpecific:
				assert.True(t, support.specific, "%s degraded to specific but doesn't support it", cap)
			}
		}
	}
}

func TestGLMForcesAutoToolChoice(t *testing.T) {
	degraded, changed := degradeToolChoice(ToolChoiceRequest{Kind: ToolChoiceKindSpecific, Name: "x"}, CapabilityGLM)
	assert.False(t, changed, "GLM's capability row supports specific tool-choice directly")
	assert.Equal(t, ToolChoiceKindSpecific, degraded.Kind)

	assert.True(t, forceAutoToolChoice(CapabilityGLM, true))
	assert.False(t, forceAutoToolChoice(CapabilityGLM, false))
	assert.False(t, forceAutoToolChoice(CapabilityOpenAI, true))
}
