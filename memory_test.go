package agentscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAppendOrderPreserved(t *testing.T) {
	m := NewMemory()
	m.Append(UserMsg("one"))
	m.Append(UserMsg("two"))
	m.AppendAll([]Msg{UserMsg("three"), UserMsg("four")})

	msgs := m.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "one", msgs[0].ExtractText())
	assert.Equal(t, "four", msgs[3].ExtractText())
	assert.Equal(t, 4, m.Len())

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "four", last.ExtractText())
}

func TestMemoryMessagesIsDefensiveCopy(t *testing.T) {
	m := NewMemory()
	m.Append(UserMsg("one"))
	msgs := m.Messages()
	msgs[0] = UserMsg("mutated")
	assert.Equal(t, "one", m.Messages()[0].ExtractText())
}

func TestMemoryClear(t *testing.T) {
	m := NewMemory()
	m.Append(UserMsg("one"))
	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok := m.Last()
	assert.False(t, ok)
}

func TestMemorySnapshotRestoreRoundTrip(t *testing.T) {
	m := NewMemory()
	m.Append(UserMsg("hello"))
	m.Append(AssistantMsg("bot", TextBlock("hi there")))

	data, err := m.Snapshot()
	require.NoError(t, err)

	restored := NewMemory()
	require.NoError(t, restored.Restore(data))

	assert.Equal(t, m.Messages()[0].ExtractText(), restored.Messages()[0].ExtractText())
	assert.Equal(t, m.Messages()[1].Name, restored.Messages()[1].Name)
	assert.Equal(t, 2, restored.Len())
}

func TestMemoryRestoreInvalidJSON(t *testing.T) {
	m := NewMemory()
	err := m.Restore([]byte("not json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseError)
}

func TestEstimateTokensGrowsWithContent(t *testing.T) {
	short := EstimateTokens(UserMsg("hi"))
	long := EstimateTokens(UserMsg("this is a substantially longer message with many more words in it"))
	assert.Greater(t, long, short)
}

func TestEstimateTotalSumsMessages(t *testing.T) {
	msgs := []Msg{UserMsg("one"), UserMsg("two"), UserMsg("three")}
	total := EstimateTotal(msgs)
	sum := EstimateTokens(msgs[0]) + EstimateTokens(msgs[1]) + EstimateTokens(msgs[2])
	assert.Equal(t, sum, total)
}
