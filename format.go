package agentscope

import (
	"encoding/json"
	"strings"

	"github.com/zjf2671/agentscope-go/llm"
)

// conversationHistoryPrompt introduces the collapsed <history> block a
// multi-agent formatMultiAgent run wraps every non-system, non-tool-
// sequence stretch of turns in.
const conversationHistoryPrompt = "The following is the conversation history so far:\n"

// FormatMode selects how Msg.Name is surfaced on the wire, per §4.5:
// a single agent needs no speaker labeling, while a multi-agent
// transcript must disambiguate turns by name.
type FormatMode int

const (
	FormatSingleAgent FormatMode = iota
	FormatMultiAgent
)

// FormatMessages renders a dialog as wire messages for cap/model, in
// the order the provider expects (§4.5). Single-agent mode maps each Msg
// one-to-one. Multi-agent mode collapses every stretch of turns that
// isn't a SYSTEM message or an ASSISTANT/TOOL tool-call sequence into a
// single <history>-wrapped USER message, since only one voice can occupy
// a role slot and several agents' turns must be disambiguated by name
// instead.
func FormatMessages(msgs []Msg, mode FormatMode, cap Capability, model string) []llm.WireMessage {
	var out []llm.WireMessage
	if mode == FormatMultiAgent {
		out = formatMultiAgent(msgs)
	} else {
		out = make([]llm.WireMessage, 0, len(msgs))
		for _, m := range msgs {
			if wm, ok := formatOne(m, mode); ok {
				out = append(out, wm)
			}
		}
	}
	out = applyDeepSeekQuirks(out, cap)
	out = applyGLMQuirks(out, cap)
	return out
}

// formatMultiAgent walks msgs, passing SYSTEM messages and ASSISTANT/TOOL
// tool-call sequences through one-to-one, and collapsing every other
// maximal run of turns into one <history>-wrapped USER message (§4.5).
func formatMultiAgent(msgs []Msg) []llm.WireMessage {
	out := make([]llm.WireMessage, 0, len(msgs))
	var run []Msg

	flush := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, collapseHistory(run))
		run = nil
	}

	for i := 0; i < len(msgs); i++ {
		m := msgs[i]

		if m.Role == RoleSystem {
			flush()
			if wm, ok := formatOne(m, FormatMultiAgent); ok {
				out = append(out, wm)
			}
			continue
		}

		if m.Role == RoleAssistant && m.HasToolUses() {
			flush()
			if wm, ok := formatOne(m, FormatMultiAgent); ok {
				out = append(out, wm)
			}
			for i+1 < len(msgs) && msgs[i+1].Role == RoleTool {
				i++
				if wm, ok := formatOne(msgs[i], FormatMultiAgent); ok {
					out = append(out, wm)
				}
			}
			continue
		}

		run = append(run, m)
	}
	flush()
	return out
}

// collapseHistory renders run (never empty) as one USER wire message:
// every turn but the last becomes a labeled <history> line, the last
// turn's text stands alone as the live turn being responded to.
func collapseHistory(run []Msg) llm.WireMessage {
	var sb strings.Builder
	sb.WriteString(conversationHistoryPrompt)
	sb.WriteString("<history>\n")
	for _, m := range run[:len(run)-1] {
		sb.WriteString(historyLine(m))
		sb.WriteString("\n")
	}
	sb.WriteString("</history>\n")
	sb.WriteString(historyLine(run[len(run)-1]))
	return llm.WireMessage{Role: "user", Content: sb.String()}
}

// historyLine renders one collapsed turn as "[Label]: text", falling
// back to the role name when the Msg carries no speaker Name. Media
// blocks are flushed inline as "[… unsupported]"-style placeholders
// rather than as separate content parts, since a collapsed history turn
// is always plain text on the wire.
func historyLine(m Msg) string {
	label := m.Name
	if label == "" {
		switch m.Role {
		case RoleUser:
			label = "User"
		case RoleAssistant:
			label = "Assistant"
		default:
			label = string(m.Role)
		}
	}
	text := m.ExtractText()
	for _, kind := range []ContentType{ContentImage, ContentAudio, ContentVideo} {
		for range m.GetContentBlocks(kind) {
			if text != "" {
				text += " "
			}
			text += "[" + string(kind) + " omitted]"
		}
	}
	return "[" + label + "]: " + text
}

func formatOne(m Msg, mode FormatMode) (llm.WireMessage, bool) {
	switch m.Role {
	case RoleSystem:
		return llm.WireMessage{Role: "system", Content: m.ExtractText()}, true

	case RoleUser:
		return llm.WireMessage{Role: "user", Content: m.ExtractText()}, true

	case RoleAssistant:
		wm := llm.WireMessage{Role: "assistant", Content: m.ExtractText(), ReasoningContent: m.ExtractThinking()}
		for _, tu := range m.ToolUses() {
			args := tu.Content
			if args == "" {
				args, _ = marshalInput(tu.Input)
			}
			wm.ToolCalls = append(wm.ToolCalls, llm.ToolCall{
				ID:   tu.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name:      tu.Name,
					Arguments: args,
				},
			})
		}
		if mode == FormatMultiAgent {
			wm.Name = sanitizeName(m.Name)
		}
		return wm, true

	case RoleTool:
		results := m.ToolResults()
		if len(results) == 0 {
			return llm.WireMessage{}, false
		}
		// A canonical TOOL Msg carries exactly one ToolResult (§4.1
		// pairing invariant); multiple results would need one wire
		// message each, which the kernel already guarantees by never
		// building a multi-result TOOL Msg.
		tr := results[0]
		return llm.WireMessage{
			Role:       "tool",
			Content:    resultText(tr),
			ToolCallID: tr.ID,
		}, true
	}
	return llm.WireMessage{}, false
}

func resultText(tr ToolResult) string {
	var text string
	for _, b := range tr.Output {
		if b.Type == ContentText {
			if text != "" {
				text += "\n"
			}
			text += b.Text
		}
	}
	if tr.IsError && text == "" {
		text = "error"
	}
	return text
}

func marshalInput(input map[string]any) (string, error) {
	if input == nil {
		return "{}", nil
	}
	b, err := json.Marshal(input)
	return string(b), err
}

// sanitizeName strips characters several providers reject in the
// assistant "name" field (§4.5 DeepSeek/OpenAI quirk: letters, digits,
// underscore and dash only).
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	return string(out)
}
