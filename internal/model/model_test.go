package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringAndNumber(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"senderId":"u-2"}`), &m))
	assert.Equal(t, ID("42"), m.ID)
	assert.Equal(t, ID("u-2"), m.SenderID)

	assert.True(t, EqualID("42", "42"))
	assert.True(t, EqualID("042", "42")) // numeric fallback
	assert.False(t, EqualID("", ""))
	assert.False(t, EqualID("42", "43"))
}

func TestTimeShapes(t *testing.T) {
	cases := map[string]string{
		"rfc3339": `"2026-03-14T12:00:00Z"`,
		"millis":  `1773489600000`,
		"seconds": `1773489600`,
	}
	want := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for name, raw := range cases {
		var ts Time
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), name)
		assert.True(t, ts.Equal(want), "%s: got %v", name, ts.Time)
	}

	var ts Time
	require.NoError(t, json.Unmarshal([]byte("null"), &ts))
	assert.True(t, ts.IsZero())
}

func TestMetadataObjectAndString(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":{"isBroadcast":true,"broadcastId":7}}`), &m))
	assert.True(t, m.Metadata.IsBroadcast)
	assert.Equal(t, ID("7"), m.Metadata.BroadcastID)

	require.NoError(t, json.Unmarshal([]byte(`{"metadata":"{\"encrypted\":true}"}`), &m))
	assert.True(t, m.Metadata.Encrypted)
}

func TestMetadataDegradesOnGarbage(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"metadata":"{{{not json"}`), &m))
	assert.Equal(t, Metadata{}, m.Metadata)

	require.NoError(t, json.Unmarshal([]byte(`{"metadata":123}`), &m))
	assert.Equal(t, Metadata{}, m.Metadata)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "hola", (&Message{Type: TypeText, Content: "hola"}).Preview())
	assert.Equal(t, "Photo", (&Message{Type: TypeImage}).Preview())
	assert.Equal(t, DeletedPlaceholder, (&Message{Content: "gone", IsDeleted: true}).Preview())
}

func TestMessageKeyFallsBackToClientID(t *testing.T) {
	assert.Equal(t, ID("42"), (&Message{ID: "42", ClientID: "tmp"}).Key())
	assert.Equal(t, ID("tmp"), (&Message{ClientID: "tmp"}).Key())
}

func TestConversationKeyEqual(t *testing.T) {
	a := ConversationKey{ID: "42", Type: ChatDirect}
	assert.True(t, a.Equal(ConversationKey{ID: "42", Type: ChatDirect}))
	assert.False(t, a.Equal(ConversationKey{ID: "42", Type: ChatGroup}))
	assert.False(t, a.Equal(ConversationKey{ID: "43", Type: ChatDirect}))

	assert.False(t, a.Zero())
	assert.True(t, ConversationKey{Type: ChatDirect}.Zero())
}

func TestLastActivityPrefersLatestMessageAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	latest := created.Add(time.Hour)
	c := &Conversation{
		LatestMessageAt: latest,
		LastMessage:     &Message{CreatedAt: Time{Time: created}},
	}
	assert.Equal(t, latest, c.LastActivity())

	c.LatestMessageAt = time.Time{}
	assert.Equal(t, created, c.LastActivity())
}
