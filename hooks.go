package agentscope

import (
	"sort"
	"sync"
)

// HookEventKind tags the loop edge a HookEvent was raised at, in the
// fixed per-iteration order of §4.4.
type HookEventKind string

const (
	EventPreCall       HookEventKind = "pre_call"
	EventPreReasoning  HookEventKind = "pre_reasoning"
	EventReasoningChunk HookEventKind = "reasoning_chunk"
	EventPostReasoning HookEventKind = "post_reasoning"
	EventPreActing     HookEventKind = "pre_acting"
	EventPostActing    HookEventKind = "post_acting"
	EventPostCall      HookEventKind = "post_call"
)

// HookEvent is the mutable payload passed through the hook chain. Only
// the fields relevant to Kind are populated; a handler mutates the
// fields it cares about in place.
type HookEvent struct {
	Kind HookEventKind

	// PreReasoning
	InputMessages []Msg

	// ReasoningChunk
	Chunk StreamChunk

	// PostReasoning / PostCall
	ReasoningMessage Msg
	FinalMessage     Msg

	// PreActing / PostActing
	ToolUse    ToolUse
	ToolResult ToolResult

	// set by a handler on PostReasoning to request an HITL pause; the
	// kernel checks this after the chain finishes running.
	stop bool
}

// StopAgent requests that the kernel pause after the current
// PostReasoning event instead of invoking any pending tool calls. Only
// meaningful when called from a PostReasoning handler.
func (e *HookEvent) StopAgent() { e.stop = true }

// Stopped reports whether a handler called StopAgent on this event.
func (e *HookEvent) Stopped() bool { return e.stop }

// HookFunc observes (and may mutate) a HookEvent in place, returning an
// error only to abort the call entirely (rare; normal control flow is
// via StopAgent, not errors).
type HookFunc func(event *HookEvent) error

// Hook is a registered interceptor: lower Priority runs earlier, ties
// break by registration order.
type Hook struct {
	Priority int
	Handler  HookFunc

	seq int64
}

// HookHandle identifies a registered hook for later removal.
type HookHandle struct{ id int64 }

// HookPipeline holds the mutable, priority-ordered hook list for one
// agent. It is safe for concurrent registration; each call() snapshots
// the sorted chain at PreCall time so in-flight mutations never affect
// a call already underway (§4.4).
type HookPipeline struct {
	mu     sync.Mutex
	hooks  []Hook
	nextID int64
}

// NewHookPipeline constructs an empty pipeline.
func NewHookPipeline() *HookPipeline { return &HookPipeline{} }

// AddHook registers handler at priority and returns a handle for
// RemoveHook. Lower priority values run earlier; among equal
// priorities, registration order is preserved.
func (p *HookPipeline) AddHook(priority int, handler HookFunc) HookHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.hooks = append(p.hooks, Hook{Priority: priority, Handler: handler, seq: id})
	return HookHandle{id: id}
}

// RemoveHook unregisters a previously added hook. A no-op if the handle
// is unknown or was already removed.
func (p *HookPipeline) RemoveHook(handle HookHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, h := range p.hooks {
		if h.seq == handle.id {
			p.hooks = append(p.hooks[:i], p.hooks[i+1:]...)
			return
		}
	}
}

// snapshot returns the current chain sorted by (priority, insertion
// order), independent of further mutation to p.
func (p *HookPipeline) snapshot() []Hook {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := make([]Hook, len(p.hooks))
	copy(snap, p.hooks)
	sort.SliceStable(snap, func(i, j int) bool {
		return snap[i].Priority < snap[j].Priority
	})
	return snap
}

// chain is a snapshot of the hook list taken at the start of one call()
// and dispatched to for every event raised during that call.
type chain struct {
	hooks []Hook
}

func (p *HookPipeline) newChain() *chain { return &chain{hooks: p.snapshot()} }

// dispatch runs every hook in order against event, in place, stopping
// early only if a hook returns an error.
func (c *chain) dispatch(event *HookEvent) error {
	for _, h := range c.hooks {
		if err := h.Handler(event); err != nil {
			return err
		}
	}
	return nil
}
