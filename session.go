package agentscope

import (
	"context"
	"encoding/json"
	"sync"
)

// sessionVersion is stamped into every saved document; bumped only if
// the document shape changes incompatibly. No migration is performed
// between versions (§4.8: no partial merges, no migration).
const sessionVersion = 1

// SessionFlags carries the small bits of agent state that live outside
// Memory but still need to survive a save/load round trip.
type SessionFlags struct {
	Stopped bool `json:"stopped"`
}

// SessionDocument is the exact JSON shape persisted for one agent
// (§6): version, the full Memory snapshot, and flags. Extra fields an
// older or newer writer added are preserved verbatim via Extra.
type SessionDocument struct {
	Version int             `json:"version"`
	Memory  []Msg           `json:"memory"`
	Flags   SessionFlags    `json:"flags"`
	Extra   json.RawMessage `json:"-"`
}

// MarshalJSON merges Extra's unknown top-level fields back in alongside
// the known ones, so round-tripping a document written by a different
// version doesn't silently drop fields (§6: "unknown fields preserved
// on reserialization").
func (d SessionDocument) MarshalJSON() ([]byte, error) {
	merged := map[string]any{}
	if len(d.Extra) > 0 {
		_ = json.Unmarshal(d.Extra, &merged)
	}
	merged["version"] = d.Version
	merged["memory"] = d.Memory
	merged["flags"] = d.Flags
	return json.Marshal(merged)
}

// UnmarshalJSON captures every top-level field into Extra before
// decoding the known ones on top, so unknown fields survive even
// though SessionDocument only models version/memory/flags.
func (d *SessionDocument) UnmarshalJSON(data []byte) error {
	d.Extra = append(json.RawMessage(nil), data...)
	type known struct {
		Version int          `json:"version"`
		Memory  []Msg        `json:"memory"`
		Flags   SessionFlags `json:"flags"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	d.Version, d.Memory, d.Flags = k.Version, k.Memory, k.Flags
	return nil
}

// Store is the C8 session-store contract: a key-addressed blob table
// holding one SessionDocument per key.
type Store interface {
	Save(ctx context.Context, key string, doc SessionDocument) error
	Load(ctx context.Context, key string) (SessionDocument, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// SaveAgent snapshots agent's Memory and stopped-flag into store under
// key.
func SaveAgent(ctx context.Context, store Store, key string, agent *Agent, stopped bool) error {
	doc := SessionDocument{
		Version: sessionVersion,
		Memory:  agent.Memory.Messages(),
		Flags:   SessionFlags{Stopped: stopped},
	}
	return store.Save(ctx, key, doc)
}

// LoadAgent replaces agent's Memory wholesale from the document stored
// under key (§4.8: "no partial merges"). Returns the document's
// SessionFlags so the caller can decide whether to resume via
// Agent.Call(nil, ...).
func LoadAgent(ctx context.Context, store Store, key string, agent *Agent) (SessionFlags, error) {
	doc, err := store.Load(ctx, key)
	if err != nil {
		return SessionFlags{}, err
	}
	agent.Memory.Clear()
	agent.Memory.AppendAll(doc.Memory)
	return doc.Flags, nil
}

// MemoryStore is the default in-process Store backend, a plain mutex-
// guarded map. Suitable for single-process use and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]SessionDocument
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]SessionDocument)}
}

func (s *MemoryStore) Save(ctx context.Context, key string, doc SessionDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) (SessionDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return SessionDocument{}, NewSessionError(key, "load", ErrSessionNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[key]
	return ok, nil
}
