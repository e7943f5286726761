package agentscope

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a Msg.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentType tags the variant carried by a ContentBlock.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentThinking   ContentType = "thinking"
	ContentImage      ContentType = "image"
	ContentAudio      ContentType = "audio"
	ContentVideo      ContentType = "video"
	ContentToolUse    ContentType = "tool_use"
	ContentToolResult ContentType = "tool_result"
)

// SourceKind tags a media Source.
type SourceKind string

const (
	SourceURL    SourceKind = "url"
	SourceBase64 SourceKind = "base64"
)

// Source is the payload of an image/audio/video block: either a URL
// reference or inline base64 data with a media type.
type Source struct {
	Kind      SourceKind `json:"kind"`
	URL       string     `json:"url,omitempty"`
	Data      string     `json:"data,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
}

// URLSource builds a URL-referenced media Source.
func URLSource(url string) Source {
	return Source{Kind: SourceURL, URL: url}
}

// Base64Source builds an inline base64 media Source.
func Base64Source(data, mediaType string) Source {
	return Source{Kind: SourceBase64, Data: data, MediaType: mediaType}
}

// ToolUse is an assistant's request to invoke a tool. Content holds the
// raw (possibly still-assembling) JSON argument string; Input is the
// parsed form once Content is valid JSON.
type ToolUse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Input    map[string]any  `json:"input,omitempty"`
	Content  string          `json:"content"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ToolResult is a tool's reply to a ToolUse with a matching ID. Output
// may itself carry text/image/audio content blocks.
type ToolResult struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Output  []ContentBlock `json:"output"`
	IsError bool          `json:"is_error,omitempty"`
}

// ContentBlock is the tagged union carried by Msg.Content. Exactly the
// fields matching Type are meaningful; the rest are zero.
type ContentBlock struct {
	Type ContentType `json:"type"`

	Text string `json:"text,omitempty"`

	Thinking         string          `json:"thinking,omitempty"`
	ThinkingMetadata json.RawMessage `json:"thinking_metadata,omitempty"`

	Source *Source `json:"source,omitempty"`

	ToolUse    *ToolUse    `json:"tool_use,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// ThinkingBlock builds a model-internal reasoning block.
func ThinkingBlock(thinking string) ContentBlock {
	return ContentBlock{Type: ContentThinking, Thinking: thinking}
}

// ImageBlock builds an image content block from a media source.
func ImageBlock(src Source) ContentBlock {
	return ContentBlock{Type: ContentImage, Source: &src}
}

// AudioBlock builds an audio content block from a media source.
func AudioBlock(src Source) ContentBlock {
	return ContentBlock{Type: ContentAudio, Source: &src}
}

// VideoBlock builds a video content block from a media source.
func VideoBlock(src Source) ContentBlock {
	return ContentBlock{Type: ContentVideo, Source: &src}
}

// ToolUseBlock builds a tool-invocation request block.
func ToolUseBlock(tu ToolUse) ContentBlock {
	return ContentBlock{Type: ContentToolUse, ToolUse: &tu}
}

// ToolResultBlock builds a tool-reply block.
func ToolResultBlock(tr ToolResult) ContentBlock {
	return ContentBlock{Type: ContentToolResult, ToolResult: &tr}
}

// ErrorToolResult builds the standard "[tool error: ...]" result block
// used whenever the registry or an invoker fails; the kernel never
// treats this as fatal, it simply feeds it back to the model.
func ErrorToolResult(id, name string, err error) ContentBlock {
	return ToolResultBlock(ToolResult{
		ID:      id,
		Name:    name,
		Output:  []ContentBlock{TextBlock("[tool error: " + err.Error() + "]")},
		IsError: true,
	})
}

// Msg is the canonical dialog unit. It is immutable after construction;
// callers that need to change a Msg build a new one (see WithMetadata
// and Clone).
type Msg struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Role      Role              `json:"role"`
	Content   []ContentBlock    `json:"content"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newID() string { return uuid.NewString() }

// NewMsg builds a Msg with a fresh ID and current timestamp. content is
// never nil, matching the "content never null" invariant.
func NewMsg(role Role, name string, content ...ContentBlock) Msg {
	if content == nil {
		content = []ContentBlock{}
	}
	return Msg{
		ID:        newID(),
		Name:      name,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// UserMsg builds a plain-text USER message.
func UserMsg(text string) Msg {
	return NewMsg(RoleUser, "", TextBlock(text))
}

// SystemMsg builds a plain-text SYSTEM message.
func SystemMsg(text string) Msg {
	return NewMsg(RoleSystem, "", TextBlock(text))
}

// AssistantMsg builds an ASSISTANT message from arbitrary content blocks.
func AssistantMsg(name string, content ...ContentBlock) Msg {
	return NewMsg(RoleAssistant, name, content...)
}

// ToolResultMsg wraps a ToolResult in a TOOL-role Msg, pairing with the
// ToolUseBlock of the same ID emitted earlier (in the same call, or in
// a stopped call that a nil-input Call resumes).
func ToolResultMsg(tr ToolResult) Msg {
	return NewMsg(RoleTool, "", ToolResultBlock(tr))
}

// WithMetadata returns a copy of m with metadata merged in; m itself is
// untouched, preserving Msg immutability.
func (m Msg) WithMetadata(metadata map[string]any) Msg {
	merged := make(map[string]any, len(m.Metadata)+len(metadata))
	for k, v := range m.Metadata {
		merged[k] = v
	}
	for k, v := range metadata {
		merged[k] = v
	}
	m.Metadata = merged
	return m
}

// getContentBlocks returns all blocks of the given kind, in order.
func (m Msg) getContentBlocks(kind ContentType) []ContentBlock {
	var out []ContentBlock
	for _, b := range m.Content {
		if b.Type == kind {
			out = append(out, b)
		}
	}
	return out
}

// GetContentBlocks is the exported form of getContentBlocks; this and
// its siblings below are the only sanctioned way for code outside this
// package to inspect Msg content.
func (m Msg) GetContentBlocks(kind ContentType) []ContentBlock { return m.getContentBlocks(kind) }

// GetFirstContentBlock returns the first block of kind, if any.
func (m Msg) GetFirstContentBlock(kind ContentType) (ContentBlock, bool) {
	for _, b := range m.Content {
		if b.Type == kind {
			return b, true
		}
	}
	return ContentBlock{}, false
}

// HasContentBlocks reports whether any block of kind is present.
func (m Msg) HasContentBlocks(kind ContentType) bool {
	for _, b := range m.Content {
		if b.Type == kind {
			return true
		}
	}
	return false
}

// ExtractText concatenates every TextBlock's text in order, joined by
// "\n"; it returns "" if there are none.
func (m Msg) ExtractText() string {
	blocks := m.getContentBlocks(ContentText)
	if len(blocks) == 0 {
		return ""
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n")
}

// ExtractThinking concatenates every ThinkingBlock's text in order,
// joined by "\n".
func (m Msg) ExtractThinking() string {
	blocks := m.getContentBlocks(ContentThinking)
	if len(blocks) == 0 {
		return ""
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Thinking
	}
	return strings.Join(parts, "\n")
}

// ToolUses returns every ToolUse requested by this Msg, in order.
func (m Msg) ToolUses() []ToolUse {
	blocks := m.getContentBlocks(ContentToolUse)
	if len(blocks) == 0 {
		return nil
	}
	out := make([]ToolUse, 0, len(blocks))
	for _, b := range blocks {
		if b.ToolUse != nil {
			out = append(out, *b.ToolUse)
		}
	}
	return out
}

// HasToolUses reports whether this Msg requests any tool calls.
func (m Msg) HasToolUses() bool { return m.HasContentBlocks(ContentToolUse) }

// ToolResults returns every ToolResult carried by this Msg, in order.
func (m Msg) ToolResults() []ToolResult {
	blocks := m.getContentBlocks(ContentToolResult)
	if len(blocks) == 0 {
		return nil
	}
	out := make([]ToolResult, 0, len(blocks))
	for _, b := range blocks {
		if b.ToolResult != nil {
			out = append(out, *b.ToolResult)
		}
	}
	return out
}

// IsEmpty reports whether the Msg carries no content blocks at all.
func (m Msg) IsEmpty() bool { return len(m.Content) == 0 }

// Clone returns a deep-enough copy safe to store independently; Content
// slices and maps are copied, ContentBlock values are themselves copied
// by value (their pointer fields are re-pointed at copied structs).
func (m Msg) Clone() Msg {
	clone := m
	clone.Content = make([]ContentBlock, len(m.Content))
	copy(clone.Content, m.Content)
	for i, b := range clone.Content {
		if b.Source != nil {
			src := *b.Source
			clone.Content[i].Source = &src
		}
		if b.ToolUse != nil {
			tu := *b.ToolUse
			clone.Content[i].ToolUse = &tu
		}
		if b.ToolResult != nil {
			tr := *b.ToolResult
			tr.Output = append([]ContentBlock(nil), b.ToolResult.Output...)
			clone.Content[i].ToolResult = &tr
		}
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
