package agentscope

import "github.com/zjf2671/agentscope-go/llm"

// applyDeepSeekQuirks rewrites a formatted transcript for DeepSeek's
// dialect (§4.5):
//   - the "name" field is rejected outright, so it is stripped from
//     every message (other capabilities are returned untouched).
//   - DeepSeek has no SYSTEM role beyond the first turn; any SYSTEM
//     message after the first is rewritten to USER.
//   - when deepSeekAppendEmptyUser is set, a trailing ASSISTANT turn is
//     followed by an appended empty USER turn so the transcript ends on
//     a turn the model can continue from. The flag is off by default.
func applyDeepSeekQuirks(msgs []llm.WireMessage, cap Capability) []llm.WireMessage {
	if cap != CapabilityDeepSeek {
		return msgs
	}
	seenSystem := false
	lastUser := -1
	for i := range msgs {
		msgs[i].Name = ""
		if msgs[i].Role == "system" {
			if seenSystem {
				msgs[i].Role = "user"
			}
			seenSystem = true
		}
		if msgs[i].Role == "user" {
			lastUser = i
		}
	}
	// reasoning_content only makes sense attached to the turns that
	// followed the most recent user input; earlier assistant turns keep
	// their visible content but drop the (by now stale) reasoning trace.
	for i := range msgs {
		if i < lastUser {
			msgs[i].ReasoningContent = ""
		}
	}
	if deepSeekAppendEmptyUser && len(msgs) > 0 && msgs[len(msgs)-1].Role == "assistant" {
		msgs = append(msgs, llm.WireMessage{Role: "user", Content: ""})
	}
	return msgs
}

// deepSeekAppendEmptyUser enables applyDeepSeekQuirks' trailing empty
// USER turn; off by default.
const deepSeekAppendEmptyUser = false

// applyGLMQuirks appends an empty USER turn when the transcript has no
// USER message at all; GLM's endpoint rejects a transcript that opens
// with only SYSTEM/ASSISTANT turns (§4.5).
func applyGLMQuirks(msgs []llm.WireMessage, cap Capability) []llm.WireMessage {
	if cap != CapabilityGLM {
		return msgs
	}
	for _, m := range msgs {
		if m.Role == "user" {
			return msgs
		}
	}
	return append(msgs, llm.WireMessage{Role: "user", Content: ""})
}

// forceAutoToolChoice reports whether cap overrides any requested
// tool-choice to "auto" whenever tools are present, independent of the
// capability table's per-kind support (§4.5 GLM quirk: GLM supports
// "required" and a specific-tool choice in principle, but its function
// router misbehaves unless the model is left to decide on its own).
func forceAutoToolChoice(cap Capability, hasTools bool) bool {
	return cap == CapabilityGLM && hasTools
}
