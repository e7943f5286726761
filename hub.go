package agentscope

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// subscriberToken identifies one agent's subscription to a Hub. It is
// stamped by Add and cleared by Delete/Close; Close recognizes this
// Hub's wiring by the agent's hub pointer, so an agent that has since
// joined another Hub is left untouched (§4.7).
type subscriberToken struct{ id int64 }

// Hub is the C7 in-process message hub: a scoped set of participants
// with bidirectional subscription wiring, an announcement delivered
// once on enter, and broadcast fan-out. It is not a network bus (§1) —
// delivery is a direct Memory.Append on each subscriber.
type Hub struct {
	mu           sync.Mutex
	participants map[string]*Agent // by Agent.Name
	announcement *Msg
	autoBroadcast bool
	opened       bool
	nextToken    int64
}

// NewHub builds a Hub that will deliver announcement to every
// participant exactly once, the first time enter() is called.
// Auto-broadcast is enabled by default (§4.7).
func NewHub(announcement *Msg) *Hub {
	return &Hub{
		participants:  make(map[string]*Agent),
		announcement:  announcement,
		autoBroadcast: true,
	}
}

// EnableAutoBroadcast toggles whether a successful Agent.Call
// automatically broadcasts its result to the hub.
func (h *Hub) EnableAutoBroadcast(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.autoBroadcast = enabled
}

// Add wires agent into the hub: every existing participant gains agent
// as a subscriber and vice versa (§4.7). Safe to call before or after
// Enter; the announcement is only delivered by Enter.
func (h *Hub) Add(agent *Agent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextToken++
	agent.hub = h
	agent.hubToken = subscriberToken{id: h.nextToken}
	h.participants[agent.Name] = agent
}

// Delete removes agent from the hub, reversing the subscription wiring
// Add established; other participants' unrelated subscriptions are
// untouched.
func (h *Hub) Delete(agent *Agent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.participants[agent.Name]; ok && existing == agent {
		delete(h.participants, agent.Name)
		agent.hub = nil
		agent.hubToken = subscriberToken{}
	}
}

// Participants returns the current participant set, in no particular
// order (§4.7: the set's order is irrelevant).
func (h *Hub) Participants() []*Agent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Agent, 0, len(h.participants))
	for _, a := range h.participants {
		out = append(out, a)
	}
	return out
}

// Enter delivers the announcement to every current participant exactly
// once. Calling Enter more than once is a no-op after the first.
func (h *Hub) Enter(ctx context.Context) error {
	h.mu.Lock()
	if h.opened || h.announcement == nil {
		h.opened = true
		h.mu.Unlock()
		return nil
	}
	h.opened = true
	participants := make([]*Agent, 0, len(h.participants))
	for _, a := range h.participants {
		participants = append(participants, a)
	}
	announcement := *h.announcement
	h.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, p := range participants {
		p := p
		g.Go(func() error {
			p.Memory.Append(announcement)
			return nil
		})
	}
	return g.Wait()
}

// Broadcast appends msg to every participant's memory except the
// sender (identified by msg.Name), concurrently (§4.7).
func (h *Hub) Broadcast(ctx context.Context, msg Msg) error {
	h.mu.Lock()
	participants := make([]*Agent, 0, len(h.participants))
	for _, a := range h.participants {
		participants = append(participants, a)
	}
	h.mu.Unlock()

	asUser := NewMsg(RoleUser, msg.Name, msg.Content...)

	g, _ := errgroup.WithContext(ctx)
	for _, p := range participants {
		p := p
		if p.Name == msg.Name {
			continue
		}
		g.Go(func() error {
			p.Memory.Append(asUser)
			return nil
		})
	}
	return g.Wait()
}

// autoBroadcastFrom is called by Agent.Call after a successful return,
// delivering msg to the hub if auto-broadcast is enabled.
func (h *Hub) autoBroadcastFrom(ctx context.Context, sender *Agent, msg Msg) {
	h.mu.Lock()
	auto := h.autoBroadcast
	h.mu.Unlock()
	if !auto {
		return
	}
	labeled := msg
	labeled.Name = sender.Name
	_ = h.Broadcast(ctx, labeled)
}

// Close tears down every subscription this Hub added; participants'
// unrelated subscriptions (e.g. to a different Hub) are untouched.
// Guaranteed safe to call on every exit path, including after a failed
// Enter.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, a := range h.participants {
		if a.hub == h {
			a.hub = nil
			a.hubToken = subscriberToken{}
		}
	}
	h.participants = make(map[string]*Agent)
}
