package agentscope

import (
	"encoding/json"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Memory is the C3 ordered, append-only dialog buffer for one agent.
// Append order is exactly preserved; the kernel is the only writer
// during a call, but external callers may append (e.g. hub delivery,
// session restore) under the same lock.
type Memory struct {
	mu   sync.RWMutex
	msgs []Msg
}

// NewMemory builds an empty Memory.
func NewMemory() *Memory { return &Memory{} }

// Append adds one Msg to the end of the buffer.
func (m *Memory) Append(msg Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
}

// AppendAll adds each Msg in order.
func (m *Memory) AppendAll(msgs []Msg) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msgs...)
}

// Clear empties the buffer.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = nil
}

// Messages returns a defensive copy of the buffer in order.
func (m *Memory) Messages() []Msg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Msg, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Len reports the number of messages currently held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.msgs)
}

// Last returns the most recently appended Msg, if any.
func (m *Memory) Last() (Msg, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.msgs) == 0 {
		return Msg{}, false
	}
	return m.msgs[len(m.msgs)-1], true
}

// Snapshot serializes the whole buffer as a JSON document (§4.3).
func (m *Memory) Snapshot() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.msgs)
}

// Restore replaces the buffer wholesale from a Snapshot document.
func (m *Memory) Restore(data []byte) error {
	var msgs []Msg
	if err := json.Unmarshal(data, &msgs); err != nil {
		return NewKernelError("memory.restore", ErrParseError, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = msgs
	return nil
}

// tokenEncoding is shared across EstimateTokens calls; tiktoken-go's
// encoders are safe for concurrent use once built.
var (
	tokenEncodingOnce sync.Once
	tokenEncoding     *tiktoken.Tiktoken
)

func getTokenEncoding() *tiktoken.Tiktoken {
	tokenEncodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tokenEncoding = enc
		}
	})
	return tokenEncoding
}

// EstimateTokens approximates the context-window occupancy of msg,
// counting extracted text and thinking content plus a small per-block
// overhead for structural tokens (role markers, tool-call wrappers).
// It is an estimate, not an exact provider token count; the kernel
// itself does not call it.
func EstimateTokens(msg Msg) int {
	enc := getTokenEncoding()
	if enc == nil {
		return len(msg.ExtractText())/4 + 1
	}

	total := 0
	for _, b := range msg.Content {
		switch b.Type {
		case ContentText:
			total += len(enc.Encode(b.Text, nil, nil))
		case ContentThinking:
			total += len(enc.Encode(b.Thinking, nil, nil))
		case ContentToolUse:
			if b.ToolUse != nil {
				total += len(enc.Encode(b.ToolUse.Name, nil, nil))
				total += len(enc.Encode(b.ToolUse.Content, nil, nil))
			}
		case ContentToolResult:
			if b.ToolResult != nil {
				for _, o := range b.ToolResult.Output {
					total += len(enc.Encode(o.Text, nil, nil))
				}
			}
		}
		total += 4 // structural overhead per block
	}
	return total
}

// EstimateTotal sums EstimateTokens across every message in msgs.
func EstimateTotal(msgs []Msg) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m)
	}
	return total
}
