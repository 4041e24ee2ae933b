// Package index maintains the recent-conversations list: denormalized
// previews, unread counters and the per-conversation flag set, ordered
// pinned-first then by recency. It tracks every conversation the session
// knows about, independent of which one is open.
package index

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/status"
)

// mirrorTolerance bounds the timestamp proximity used to match a
// broadcast message's per-recipient mirrors, which share no id with the
// sender's merged copy.
const mirrorTolerance = 5 * time.Second

// Index is safe for concurrent readers; all writes come from the router
// goroutine.
type Index struct {
	mu      sync.RWMutex
	log     *zap.SugaredLogger
	byKey   map[model.ConversationKey]*model.Conversation
	typing  map[model.ConversationKey]map[model.ID]struct{}
	nextSeq uint64
}

func New(log *zap.SugaredLogger) *Index {
	return &Index{
		log:    log,
		byKey:  make(map[model.ConversationKey]*model.Conversation),
		typing: make(map[model.ConversationKey]map[model.ID]struct{}),
	}
}

// Get returns the live entry for a key, or nil.
func (x *Index) Get(key model.ConversationKey) *model.Conversation {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.byKey[key]
}

// Ensure returns the entry for a key, creating it with defaults on first
// reference.
func (x *Index) Ensure(key model.ConversationKey) *model.Conversation {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ensureLocked(key)
}

func (x *Index) ensureLocked(key model.ConversationKey) *model.Conversation {
	if c, ok := x.byKey[key]; ok {
		return c
	}
	x.nextSeq++
	c := &model.Conversation{Key: key, Seq: x.nextSeq}
	x.byKey[key] = c
	return c
}

// Len returns the number of tracked conversations.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byKey)
}

// cloneLocked copies an entry deeply enough to hand outside the lock:
// the preview message and member slice are duplicated so later writes
// from the event goroutine cannot touch what a reader holds.
func cloneLocked(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.LastMessage = c.LastMessage.Clone()
	cp.Members = append([]model.Member(nil), c.Members...)
	return &cp
}

// List returns copies of the conversations in display order: pinned
// first by pinnedAt descending, then the rest by last activity
// descending, ties kept in insertion order so equal entries never
// jitter. Copies are safe to read and marshal while the event goroutine
// keeps writing.
func (x *Index) List() []*model.Conversation {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]*model.Conversation, 0, len(x.byKey))
	for _, c := range x.byKey {
		out = append(out, cloneLocked(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.IsPinned {
			return a.PinnedAt.After(b.PinnedAt)
		}
		return a.LastActivity().After(b.LastActivity())
	})
	return out
}

// ApplyMessage folds a confirmed message into the conversation's entry.
// countUnread is true when the message should bump the unread badge (not
// from the current user, not a system message, conversation not open or
// window unfocused). mentioned flags an unread mention of the current
// user.
func (x *Index) ApplyMessage(key model.ConversationKey, msg *model.Message, countUnread, mentioned bool) *model.Conversation {
	x.mu.Lock()
	defer x.mu.Unlock()

	c := x.ensureLocked(key)
	if c.LastMessage == nil ||
		model.EqualID(c.LastMessage.Key(), msg.Key()) ||
		!msg.CreatedAt.Before(c.LastMessage.CreatedAt.Time) {
		c.LastMessage = msg.Clone()
	}
	if msg.CreatedAt.After(c.LatestMessageAt) {
		c.LatestMessageAt = msg.CreatedAt.Time
	}
	if countUnread {
		c.UnreadCount++
		if mentioned {
			c.HasUnreadMentions = true
		}
	}
	if c.Name == "" && key.Type == model.ChatDirect && msg.SenderName != "" &&
		model.EqualID(key.ID, msg.SenderID) {
		c.Name = msg.SenderName
		c.Avatar = msg.SenderAvatar
	}
	x.clearTypingLocked(key, msg.SenderID)
	return c
}

// MarkRead zeroes the unread counters for a conversation.
func (x *Index) MarkRead(key model.ConversationKey) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.byKey[key]
	if !ok || (c.UnreadCount == 0 && !c.HasUnreadMentions) {
		return false
	}
	c.UnreadCount = 0
	c.HasUnreadMentions = false
	return true
}

// ApplyStatus merges a delivery-state change into any entry whose
// current last message is the updated one.
func (x *Index) ApplyStatus(change model.StatusChange) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	changed := false
	for _, c := range x.byKey {
		if c.LastMessage == nil || !model.EqualID(c.LastMessage.ID, change.MessageID) {
			continue
		}
		if status.ApplyToMessage(c.LastMessage, model.Status{
			UserID:    change.UserID,
			State:     change.Status,
			UpdatedAt: change.UpdatedAt,
		}) {
			changed = true
		}
	}
	return changed
}

// RewriteDeletedPreviews replaces the preview of any conversation whose
// last message is among the deleted ids.
func (x *Index) RewriteDeletedPreviews(ids []model.ID) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	n := 0
	for _, c := range x.byKey {
		if c.LastMessage == nil {
			continue
		}
		for _, id := range ids {
			if model.EqualID(c.LastMessage.ID, id) {
				x.blankPreview(c)
				n++
				break
			}
		}
	}
	return n
}

// RewriteBroadcastPreviews handles a broadcast deletion: the sender's
// merged copy and each recipient's direct-chat mirror carry distinct
// ids, so mirrors are matched best-effort on broadcast metadata, or on
// content equality plus timestamp proximity. Known approximation: a
// near-simultaneous unrelated message with identical content can be
// caught by the proximity match.
func (x *Index) RewriteBroadcastPreviews(broadcastID model.ID, ref *model.Message) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	n := 0
	for _, c := range x.byKey {
		lm := c.LastMessage
		if lm == nil || lm.IsDeleted {
			continue
		}
		match := false
		switch {
		case c.Key.Type == model.ChatBroadcast && model.EqualID(c.Key.ID, broadcastID):
			match = true
		case lm.Metadata.IsBroadcast && model.EqualID(lm.Metadata.BroadcastID, broadcastID):
			match = true
		case ref != nil && lm.Content != "" && lm.Content == ref.Content &&
			absDiff(lm.CreatedAt.Time, ref.CreatedAt.Time) <= mirrorTolerance:
			match = true
		}
		if match {
			x.blankPreview(c)
			n++
		}
	}
	return n
}

func (x *Index) blankPreview(c *model.Conversation) {
	c.LastMessage.Content = ""
	c.LastMessage.MediaURL = ""
	c.LastMessage.IsDeleted = true
	c.LastMessage.IsDeletedForEveryone = true
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// SetPinned pins or unpins a conversation.
func (x *Index) SetPinned(key model.ConversationKey, pinned bool, at time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.ensureLocked(key)
	c.IsPinned = pinned
	if pinned {
		c.PinnedAt = at
	} else {
		c.PinnedAt = time.Time{}
	}
}

// Toggle flips one of the boolean conversation switches.
type Toggle int

const (
	ToggleMuted Toggle = iota
	ToggleArchived
	ToggleBlocked
	ToggleFavorite
	ToggleLocked
)

func (x *Index) SetToggle(key model.ConversationKey, t Toggle, value bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.ensureLocked(key)
	switch t {
	case ToggleMuted:
		c.IsMuted = value
	case ToggleArchived:
		c.IsArchived = value
	case ToggleBlocked:
		c.IsBlocked = value
	case ToggleFavorite:
		c.IsFavorite = value
	case ToggleLocked:
		c.IsLocked = value
	}
}

// ApplySettings refreshes admin-editable group metadata.
func (x *Index) ApplySettings(s model.GroupSettings) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.ensureLocked(model.ConversationKey{ID: s.GroupID, Type: model.ChatGroup})
	if s.Name != "" {
		c.Name = s.Name
	}
	if s.Avatar != "" {
		c.Avatar = s.Avatar
	}
}

// AddMember adds or re-roles a group member.
func (x *Index) AddMember(groupID, userID model.ID, role string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.ensureLocked(model.ConversationKey{ID: groupID, Type: model.ChatGroup})
	for i, m := range c.Members {
		if model.EqualID(m.UserID, userID) {
			c.Members[i].Role = role
			return
		}
	}
	c.Members = append(c.Members, model.Member{UserID: userID, Role: role})
}

// RemoveMember drops a group member.
func (x *Index) RemoveMember(groupID, userID model.ID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.byKey[model.ConversationKey{ID: groupID, Type: model.ChatGroup}]
	if !ok {
		return false
	}
	for i, m := range c.Members {
		if model.EqualID(m.UserID, userID) {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateUser refreshes the display fields of the direct conversation
// with the given user.
func (x *Index) UpdateUser(u model.UserUpdated) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.byKey[model.ConversationKey{ID: u.UserID, Type: model.ChatDirect}]
	if !ok {
		return false
	}
	if u.Name != "" {
		c.Name = u.Name
	}
	if u.Avatar != "" {
		c.Avatar = u.Avatar
	}
	return true
}

// SetTyping records or clears a transient typing indicator.
func (x *Index) SetTyping(key model.ConversationKey, userID model.ID, typing bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if typing {
		set, ok := x.typing[key]
		if !ok {
			set = make(map[model.ID]struct{})
			x.typing[key] = set
		}
		set[userID] = struct{}{}
		return
	}
	x.clearTypingLocked(key, userID)
}

func (x *Index) clearTypingLocked(key model.ConversationKey, userID model.ID) {
	if set, ok := x.typing[key]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(x.typing, key)
		}
	}
}

// TypingUsers lists who is currently typing in a conversation.
func (x *Index) TypingUsers(key model.ConversationKey) []model.ID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	set := x.typing[key]
	out := make([]model.ID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Delete removes a conversation entirely (explicit chat deletion or
// group teardown).
func (x *Index) Delete(key model.ConversationKey) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.byKey[key]; !ok {
		return false
	}
	delete(x.byKey, key)
	delete(x.typing, key)
	return true
}

// Purge clears the whole index (logout / account switch).
func (x *Index) Purge() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byKey = make(map[model.ConversationKey]*model.Conversation)
	x.typing = make(map[model.ConversationKey]map[model.ID]struct{})
	x.nextSeq = 0
}

// Snapshot returns copies of all entries for persistence.
func (x *Index) Snapshot() []*model.Conversation {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]*model.Conversation, 0, len(x.byKey))
	for _, c := range x.byKey {
		out = append(out, cloneLocked(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Restore seeds the index from a persisted snapshot. Existing entries
// are kept; restored seq values are rebased so insertion order survives.
func (x *Index) Restore(items []*model.Conversation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Seq < items[j].Seq })
	for _, c := range items {
		if _, ok := x.byKey[c.Key]; ok {
			continue
		}
		x.nextSeq++
		cp := *c
		cp.Seq = x.nextSeq
		x.byKey[cp.Key] = &cp
	}
}
