package agentscope

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSaveLoadExists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "agent-1")
	require.NoError(t, err)
	assert.False(t, exists)

	doc := SessionDocument{Version: sessionVersion, Memory: []Msg{UserMsg("hi")}, Flags: SessionFlags{Stopped: true}}
	require.NoError(t, store.Save(ctx, "agent-1", doc))

	exists, err = store.Exists(ctx, "agent-1")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := store.Load(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "hi", loaded.Memory[0].ExtractText())
	assert.True(t, loaded.Flags.Stopped)
}

func TestMemoryStoreLoadUnknownKey(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveAgentLoadAgentRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := newTestAgent(t, newFakeModel("gpt-4o"))
	a.Memory.Append(UserMsg("first"))
	a.Memory.Append(AssistantMsg("bot", TextBlock("second")))
	require.NoError(t, SaveAgent(ctx, store, "a", a, true))

	b := newTestAgent(t, newFakeModel("gpt-4o"))
	b.Memory.Append(UserMsg("stale"))
	flags, err := LoadAgent(ctx, store, "a", b)
	require.NoError(t, err)
	assert.True(t, flags.Stopped)
	require.Len(t, b.Memory.Messages(), 2, "LoadAgent replaces memory wholesale, no partial merge")
	assert.Equal(t, "first", b.Memory.Messages()[0].ExtractText())
}

// TestSessionDocumentPreservesUnknownFields covers §6's "unknown fields
// preserved on reserialization" requirement.
func TestSessionDocumentPreservesUnknownFields(t *testing.T) {
	raw := []byte(`{"version":1,"memory":[],"flags":{"stopped":false},"future_field":"kept"}`)
	var doc SessionDocument
	require.NoError(t, json.Unmarshal(raw, &doc))

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal(out, &roundTripped))
	assert.Equal(t, "kept", roundTripped["future_field"])
	assert.Equal(t, float64(1), roundTripped["version"])
}
