package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/logger"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

var base = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func at(ts time.Time) model.Time { return model.Time{Time: ts} }

func dkey(id model.ID) model.ConversationKey {
	return model.ConversationKey{ID: id, Type: model.ChatDirect}
}

func msg(id model.ID, content string, ts time.Time) *model.Message {
	return &model.Message{ID: id, SenderID: "u-2", Type: model.TypeText, Content: content, CreatedAt: at(ts)}
}

func TestPinOrdering(t *testing.T) {
	x := New(logger.Nop())

	a := dkey("a")
	b := dkey("b")
	c := dkey("c")
	x.SetPinned(a, true, time.Unix(10, 0))
	x.SetPinned(b, true, time.Unix(20, 0))
	x.ApplyMessage(c, msg("1", "hey", time.Unix(100, 0)), true, false)

	order := x.List()
	require.Len(t, order, 3)
	assert.Equal(t, b, order[0].Key)
	assert.Equal(t, a, order[1].Key)
	assert.Equal(t, c, order[2].Key)
}

func TestRecencyOrderingWithStableTies(t *testing.T) {
	x := New(logger.Nop())

	x.ApplyMessage(dkey("a"), msg("1", "a", base), false, false)
	x.ApplyMessage(dkey("b"), msg("2", "b", base), false, false) // same timestamp as a
	x.ApplyMessage(dkey("c"), msg("3", "c", base.Add(time.Minute)), false, false)

	order := x.List()
	require.Len(t, order, 3)
	assert.Equal(t, dkey("c"), order[0].Key)
	// tie between a and b resolved by insertion order
	assert.Equal(t, dkey("a"), order[1].Key)
	assert.Equal(t, dkey("b"), order[2].Key)
}

func TestUnreadAccounting(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")

	x.ApplyMessage(key, msg("1", "hi", base), true, false)
	assert.Equal(t, 1, x.Get(key).UnreadCount)

	x.ApplyMessage(key, msg("2", "again", base.Add(time.Second)), true, true)
	assert.Equal(t, 2, x.Get(key).UnreadCount)
	assert.True(t, x.Get(key).HasUnreadMentions)

	require.True(t, x.MarkRead(key))
	assert.Equal(t, 0, x.Get(key).UnreadCount)
	assert.False(t, x.Get(key).HasUnreadMentions)
	assert.False(t, x.MarkRead(key))
}

func TestOwnMessageDoesNotCount(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")
	x.ApplyMessage(key, msg("1", "hi", base), false, false)
	assert.Equal(t, 0, x.Get(key).UnreadCount)
	assert.Equal(t, "hi", x.Get(key).LastMessage.Content)
}

func TestPreviewKeepsNewestMessage(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")

	x.ApplyMessage(key, msg("2", "newer", base.Add(time.Minute)), false, false)
	x.ApplyMessage(key, msg("1", "older, delivered late", base), false, false)

	assert.Equal(t, "newer", x.Get(key).LastMessage.Content)
	assert.Equal(t, base.Add(time.Minute), x.Get(key).LatestMessageAt)
}

func TestPreviewRefreshesOnSameID(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")

	x.ApplyMessage(key, msg("1", "original", base), false, false)
	edited := msg("1", "edited", base)
	edited.IsEdited = true
	x.ApplyMessage(key, edited, false, false)

	assert.Equal(t, "edited", x.Get(key).LastMessage.Content)
	assert.True(t, x.Get(key).LastMessage.IsEdited)
}

func TestStatusMergeOnPreview(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")
	m := msg("7", "hi", base)
	m.Statuses = []model.Status{{UserID: "u-2", State: model.StateSeen}}
	x.ApplyMessage(key, m, false, false)

	// regression attempt is ignored
	assert.False(t, x.ApplyStatus(model.StatusChange{MessageID: "7", UserID: "u-2", Status: model.StateDelivered}))
	assert.Equal(t, model.StateSeen, x.Get(key).LastMessage.Statuses[0].State)

	assert.True(t, x.ApplyStatus(model.StatusChange{MessageID: "7", UserID: "u-3", Status: model.StateDelivered}))
}

func TestRewriteDeletedPreviews(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")
	x.ApplyMessage(key, msg("9", "bye", base), false, false)

	n := x.RewriteDeletedPreviews([]model.ID{"9"})
	assert.Equal(t, 1, n)
	lm := x.Get(key).LastMessage
	assert.True(t, lm.IsDeleted)
	assert.Equal(t, "", lm.Content)
	assert.Equal(t, model.DeletedPlaceholder, lm.Preview())
}

func TestRewriteBroadcastPreviews(t *testing.T) {
	x := New(logger.Nop())

	ref := msg("50", "promo text", base)
	ref.Metadata = model.Metadata{IsBroadcast: true, BroadcastID: "b-1"}

	// the sender's merged broadcast copy
	bkey := model.ConversationKey{ID: "b-1", Type: model.ChatBroadcast}
	x.ApplyMessage(bkey, ref, false, false)

	// a recipient mirror: different id, same content, close timestamp
	mirror := msg("77", "promo text", base.Add(2*time.Second))
	x.ApplyMessage(dkey("u-9"), mirror, false, false)

	// an unrelated conversation far away in time
	x.ApplyMessage(dkey("u-3"), msg("80", "promo text", base.Add(time.Hour)), false, false)

	n := x.RewriteBroadcastPreviews("b-1", ref)
	assert.Equal(t, 2, n)
	assert.True(t, x.Get(bkey).LastMessage.IsDeleted)
	assert.True(t, x.Get(dkey("u-9")).LastMessage.IsDeleted)
	assert.False(t, x.Get(dkey("u-3")).LastMessage.IsDeleted)
}

func TestTypingClearsOnMessageArrival(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")

	x.SetTyping(key, "u-2", true)
	assert.Equal(t, []model.ID{"u-2"}, x.TypingUsers(key))

	x.ApplyMessage(key, msg("1", "done typing", base), true, false)
	assert.Empty(t, x.TypingUsers(key))
}

func TestMembers(t *testing.T) {
	x := New(logger.Nop())
	x.AddMember("g-1", "u-2", "member")
	x.AddMember("g-1", "u-3", "member")
	x.AddMember("g-1", "u-2", "admin") // re-role, no duplicate

	c := x.Get(model.ConversationKey{ID: "g-1", Type: model.ChatGroup})
	require.Len(t, c.Members, 2)
	assert.Equal(t, "admin", c.Members[0].Role)

	assert.True(t, x.RemoveMember("g-1", "u-3"))
	assert.Len(t, c.Members, 1)
}

func TestListReturnsDetachedCopies(t *testing.T) {
	x := New(logger.Nop())
	key := dkey("u-2")
	x.ApplyMessage(key, msg("1", "first", base), true, false)

	list := x.List()
	require.Len(t, list, 1)

	// writes arriving after List must not show through the copies
	x.ApplyMessage(key, msg("2", "second", base.Add(time.Minute)), true, false)
	x.MarkRead(key)

	assert.Equal(t, 1, list[0].UnreadCount)
	assert.Equal(t, "first", list[0].LastMessage.Content)
	assert.Equal(t, 0, x.Get(key).UnreadCount)
	assert.Equal(t, "second", x.Get(key).LastMessage.Content)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	x := New(logger.Nop())
	x.ApplyMessage(dkey("a"), msg("1", "a", base), true, false)
	x.ApplyMessage(dkey("b"), msg("2", "b", base.Add(time.Minute)), false, false)
	x.SetPinned(dkey("a"), true, base)

	snap := x.Snapshot()

	y := New(logger.Nop())
	y.Restore(snap)

	require.Equal(t, 2, y.Len())
	order := y.List()
	assert.Equal(t, dkey("a"), order[0].Key) // pinned first
	assert.Equal(t, 1, y.Get(dkey("a")).UnreadCount)
	assert.Equal(t, "b", y.Get(dkey("b")).LastMessage.Content)
}

func TestPurge(t *testing.T) {
	x := New(logger.Nop())
	x.ApplyMessage(dkey("a"), msg("1", "a", base), true, false)
	x.Purge()
	assert.Equal(t, 0, x.Len())
	assert.Nil(t, x.Get(dkey("a")))
}
