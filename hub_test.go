package agentscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubAnnouncementAndBroadcast(t *testing.T) {
	announcement := NewMsg(RoleUser, "system", TextBlock("welcome"))
	hub := NewHub(&announcement)

	a := newTestAgent(t, newFakeModel("gpt-4o", textResponse("Y")))
	a.Name = "A"
	b := newTestAgent(t, newFakeModel("gpt-4o"))
	b.Name = "B"
	c := newTestAgent(t, newFakeModel("gpt-4o"))
	c.Name = "C"

	hub.Add(a)
	hub.Add(b)
	hub.Add(c)

	require.NoError(t, hub.Enter(context.Background()))
	for _, ag := range []*Agent{a, b, c} {
		require.Equal(t, 1, ag.Memory.Len())
		assert.Equal(t, "welcome", ag.Memory.Messages()[0].ExtractText())
	}

	user := UserMsg("go")
	_, err := a.Call(context.Background(), &user, nil)
	require.NoError(t, err)

	bLast, ok := b.Memory.Last()
	require.True(t, ok)
	assert.Equal(t, RoleUser, bLast.Role)
	assert.Equal(t, "A", bLast.Name)
	assert.Equal(t, "Y", bLast.ExtractText())

	cLast, ok := c.Memory.Last()
	require.True(t, ok)
	assert.Equal(t, "Y", cLast.ExtractText())

	for _, m := range a.Memory.Messages() {
		if m.Role == RoleUser {
			assert.NotEqual(t, "Y", m.ExtractText(), "sender's own broadcast must not be re-delivered to itself")
		}
	}
}

func TestHubManualBroadcast(t *testing.T) {
	hub := NewHub(nil)
	a := newTestAgent(t, newFakeModel("gpt-4o"))
	a.Name = "A"
	b := newTestAgent(t, newFakeModel("gpt-4o"))
	b.Name = "B"
	hub.Add(a)
	hub.Add(b)
	hub.EnableAutoBroadcast(false)
	require.NoError(t, hub.Enter(context.Background()))

	msg := NewMsg(RoleAssistant, "A", TextBlock("manual"))
	require.NoError(t, hub.Broadcast(context.Background(), msg))

	last, ok := b.Memory.Last()
	require.True(t, ok)
	assert.Equal(t, "manual", last.ExtractText())
}

func TestHubCloseRemovesOnlyItsSubscriptions(t *testing.T) {
	hub := NewHub(nil)
	a := newTestAgent(t, newFakeModel("gpt-4o"))
	a.Name = "A"
	hub.Add(a)
	require.Len(t, hub.Participants(), 1)

	hub.Close()
	assert.Len(t, hub.Participants(), 0)
	assert.Nil(t, a.hub)
}
