package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/logger"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

const me = model.ID("u-self")

var (
	base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	key  = model.ConversationKey{ID: "u-2", Type: model.ChatDirect}
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(logger.Nop(), DefaultWindows(), nil, me)
	s.Open(key)
	return s
}

func at(ts time.Time) model.Time { return model.Time{Time: ts} }

func textMsg(id model.ID, sender model.ID, content string, ts time.Time) *model.Message {
	return &model.Message{
		ID:        id,
		SenderID:  sender,
		Type:      model.TypeText,
		Content:   content,
		CreatedAt: at(ts),
	}
}

func TestOptimisticReconciliation(t *testing.T) {
	s := newStore(t)

	opt := &model.Message{
		ClientID:  "tmp-1",
		SenderID:  me,
		Type:      model.TypeText,
		Content:   "hi",
		CreatedAt: at(base),
	}
	s.AddOptimistic(opt)
	require.Equal(t, 1, s.Len())

	confirmed := textMsg("42", me, "hi", base.Add(2*time.Second))
	out := s.Apply(confirmed)

	assert.Equal(t, OutcomeReconciled, out)
	require.Equal(t, 1, s.Len())
	got := s.Messages()[0]
	assert.Equal(t, model.ID("42"), got.ID)
	assert.Equal(t, "hi", got.Content)
	assert.False(t, got.IsOptimistic)
}

func TestReconcileReleasesMediaBlob(t *testing.T) {
	s := newStore(t)
	var released []string
	s.ReleaseBlob = func(url string) { released = append(released, url) }

	s.AddOptimistic(&model.Message{
		ClientID: "tmp-1", SenderID: me, Type: model.TypeImage,
		MediaURL: "blob:local-1", CreatedAt: at(base),
	})
	out := s.Apply(&model.Message{
		ID: "42", SenderID: me, Type: model.TypeImage,
		MediaURL: "https://cdn/img.png", CreatedAt: at(base.Add(time.Second)),
	})

	assert.Equal(t, OutcomeReconciled, out)
	assert.Equal(t, []string{"blob:local-1"}, released)
}

func TestReconcileRequiresMatchingParent(t *testing.T) {
	s := newStore(t)
	s.AddOptimistic(&model.Message{
		ClientID: "tmp-1", SenderID: me, Type: model.TypeText,
		ParentID: "7", CreatedAt: at(base),
	})

	out := s.Apply(textMsg("42", me, "hi", base.Add(time.Second)))
	assert.Equal(t, OutcomeInserted, out)
	assert.Equal(t, 2, s.Len())
}

func TestReconcileWindowBounds(t *testing.T) {
	s := newStore(t)
	s.AddOptimistic(&model.Message{
		ClientID: "tmp-1", SenderID: me, Type: model.TypeText,
		Content: "hi", CreatedAt: at(base.Add(-121 * time.Second)),
	})

	// optimistic timestamp is outside the plain 120s look-back
	out := s.Apply(textMsg("42", me, "hi", base))
	assert.Equal(t, OutcomeInserted, out)
	assert.Equal(t, 2, s.Len())
}

func TestReconcileEncryptedWindowIsWider(t *testing.T) {
	s := newStore(t)
	s.AddOptimistic(&model.Message{
		ClientID: "tmp-1", SenderID: me, Type: model.TypeText,
		Content: "hi", CreatedAt: at(base.Add(-200 * time.Second)),
	})

	confirmed := textMsg("42", me, "hi", base)
	confirmed.Metadata.Encrypted = true
	out := s.Apply(confirmed)

	assert.Equal(t, OutcomeReconciled, out)
	assert.Equal(t, 1, s.Len())
}

func TestDuplicateIDMergesMetadataOnly(t *testing.T) {
	s := newStore(t)
	first := textMsg("42", "u-2", "original", base)
	require.Equal(t, OutcomeInserted, s.Apply(first))

	// user edits locally via a message-updated event
	edit := textMsg("42", "u-2", "edited", base)
	edit.UpdatedAt = at(base.Add(time.Minute))
	assert.True(t, s.ApplyEdit(edit))
	assert.Equal(t, "edited", s.FindByID("42").Content)
	assert.True(t, s.FindByID("42").IsEdited)

	// a delayed duplicate of the original delivery must not undo the edit
	dup := textMsg("42", "u-2", "original", base)
	dup.Statuses = []model.Status{{UserID: me, State: model.StateDelivered}}
	out := s.Apply(dup)

	assert.Equal(t, OutcomeMetadataMerged, out)
	got := s.FindByID("42")
	assert.Equal(t, "edited", got.Content)
	assert.Len(t, got.Statuses, 1)
	assert.Equal(t, 1, s.Len())
}

func TestDeleteForEveryoneKeepsSlot(t *testing.T) {
	s := newStore(t)
	s.Apply(textMsg("42", me, "hi", base))

	n := s.Delete([]model.ID{"42"}, model.DeleteForEveryone)
	require.Equal(t, 1, n)

	got := s.FindByID("42")
	require.NotNil(t, got)
	assert.True(t, got.IsDeleted)
	assert.True(t, got.IsDeletedForEveryone)
	assert.Equal(t, "", got.Content)
	assert.Equal(t, 1, s.Len())
}

func TestDeleteForMeRemovesAndDropsEmptyGroup(t *testing.T) {
	s := newStore(t)
	s.Apply(textMsg("1", "u-2", "a", base))
	s.Apply(textMsg("2", "u-2", "b", base.Add(25*time.Hour)))
	require.Len(t, s.Groups(), 2)

	s.Delete([]model.ID{"2"}, model.DeleteForMe)
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.Groups(), 1)
}

func TestDateGroupingAndOrdering(t *testing.T) {
	s := newStore(t)
	s.Apply(textMsg("3", "u-2", "later", base.Add(time.Hour)))
	s.Apply(textMsg("1", "u-2", "yesterday", base.Add(-24*time.Hour)))
	s.Apply(textMsg("2", "u-2", "earlier", base))

	groups := s.Groups()
	require.Len(t, groups, 2)
	assert.True(t, groups[0].Day.Before(groups[1].Day))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.ID("1"), msgs[0].ID)
	assert.Equal(t, model.ID("2"), msgs[1].ID)
	assert.Equal(t, model.ID("3"), msgs[2].ID)
}

func TestDateGroupLabels(t *testing.T) {
	now := base
	today := &DateGroup{Day: base.Truncate(24 * time.Hour)}
	yesterday := &DateGroup{Day: base.Add(-24 * time.Hour).Truncate(24 * time.Hour)}
	lastTuesday := &DateGroup{Day: base.Add(-4 * 24 * time.Hour).Truncate(24 * time.Hour)}
	old := &DateGroup{Day: base.Add(-30 * 24 * time.Hour).Truncate(24 * time.Hour)}

	assert.Equal(t, "Today", today.Label(now))
	assert.Equal(t, "Yesterday", yesterday.Label(now))
	assert.Equal(t, "Tuesday", lastTuesday.Label(now))
	assert.Equal(t, "12 February 2026", old.Label(now))
}

func TestGroupLeaveGating(t *testing.T) {
	s := New(logger.Nop(), DefaultWindows(), nil, me)
	gkey := model.ConversationKey{ID: "g-1", Type: model.ChatGroup}
	s.Open(gkey)
	s.Markers().Advance("g-1", base.Add(50*time.Second))

	old := textMsg("1", "u-2", "before leave", base.Add(40*time.Second))
	old.GroupID = "g-1"
	assert.Equal(t, OutcomeDropped, s.Apply(old))

	fresh := textMsg("2", "u-2", "after leave", base.Add(60*time.Second))
	fresh.GroupID = "g-1"
	assert.Equal(t, OutcomeInserted, s.Apply(fresh))
	assert.Equal(t, 1, s.Len())
}

func TestLeaveEventAdvancesMarker(t *testing.T) {
	s := New(logger.Nop(), DefaultWindows(), nil, me)
	gkey := model.ConversationKey{ID: "g-1", Type: model.ChatGroup}
	s.Open(gkey)
	s.Markers().Advance("g-1", base)

	leave := &model.Message{
		ID: "9", SenderID: me, GroupID: "g-1", Type: model.TypeSystem,
		Metadata:  model.Metadata{Action: model.ActionGroupLeft},
		CreatedAt: at(base.Add(time.Hour)),
	}
	out := s.Apply(leave)
	assert.Equal(t, OutcomeInserted, out)

	marker, ok := s.Markers().Get("g-1")
	require.True(t, ok)
	assert.Equal(t, base.Add(time.Hour), marker)
}

func TestLeaveMarkerIsMonotonic(t *testing.T) {
	m := NewLeaveMarkers()
	require.True(t, m.Advance("g-1", base))
	assert.False(t, m.Advance("g-1", base.Add(-time.Minute)))
	assert.False(t, m.Advance("g-1", base))
	assert.True(t, m.Advance("g-1", base.Add(time.Minute)))

	m.Clear("g-1")
	_, ok := m.Get("g-1")
	assert.False(t, ok)
}

func TestParentResolution(t *testing.T) {
	s := newStore(t)
	s.Apply(textMsg("1", "u-2", "root", base))

	reply := textMsg("2", me, "reply", base.Add(time.Minute))
	reply.ParentID = "1"
	s.Apply(reply)

	got := s.FindByID("2")
	require.NotNil(t, got.ParentMessage)
	assert.Equal(t, "root", got.ParentMessage.Content)
}

func TestParentFallsBackToInlinePayload(t *testing.T) {
	s := newStore(t)
	reply := textMsg("2", me, "reply", base)
	reply.ParentID = "99"
	reply.ParentMessage = &model.Message{ID: "99", Content: "inline copy"}
	s.Apply(reply)

	got := s.FindByID("2")
	require.NotNil(t, got.ParentMessage)
	assert.Equal(t, "inline copy", got.ParentMessage.Content)
}

func TestReactionUnionByUser(t *testing.T) {
	s := newStore(t)
	s.Apply(textMsg("1", "u-2", "hi", base))

	assert.True(t, s.ApplyReaction(model.ReactionChange{MessageID: "1", UserID: "u-2", Emoji: "👍"}))
	assert.True(t, s.ApplyReaction(model.ReactionChange{MessageID: "1", UserID: "u-2", Emoji: "❤️"}))
	assert.Len(t, s.FindByID("1").Reactions, 1)
	assert.Equal(t, "❤️", s.FindByID("1").Reactions[0].Emoji)

	assert.True(t, s.ApplyReaction(model.ReactionChange{MessageID: "1", UserID: "u-2", Removed: true}))
	assert.Empty(t, s.FindByID("1").Reactions)
}

func TestDiscardOptimistic(t *testing.T) {
	s := newStore(t)
	s.AddOptimistic(&model.Message{ClientID: "tmp-1", SenderID: me, Type: model.TypeText, CreatedAt: at(base)})
	require.Equal(t, 1, s.Len())

	assert.True(t, s.DiscardOptimistic("tmp-1"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Groups())
}
