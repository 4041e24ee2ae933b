// Package store holds the date-grouped message list of the conversation
// currently open in the session, and reconciles the server's confirmed
// messages against locally-created optimistic entries.
package store

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/status"
)

// Outcome describes what applying a confirmed message did.
type Outcome int

const (
	OutcomeDropped Outcome = iota
	OutcomeInserted
	OutcomeReconciled
	OutcomeEdited
	OutcomeMetadataMerged
	OutcomeDeleted
)

// Windows bounds the optimistic match search around a confirmed
// message's timestamp. Encrypted sends get wider bounds because their
// round-trip includes a key exchange.
type Windows struct {
	PlainBefore   time.Duration
	PlainAfter    time.Duration
	EncryptBefore time.Duration
	EncryptAfter  time.Duration
}

func DefaultWindows() Windows {
	return Windows{
		PlainBefore:   120 * time.Second,
		PlainAfter:    15 * time.Second,
		EncryptBefore: 300 * time.Second,
		EncryptAfter:  30 * time.Second,
	}
}

// Store is the open conversation's message list. It is confined to the
// router goroutine; readers outside it must go through snapshot copies.
type Store struct {
	log     *zap.SugaredLogger
	windows Windows
	markers *LeaveMarkers
	userID  model.ID

	active model.ConversationKey
	open   bool
	groups []*DateGroup

	// ReleaseBlob, when set, is called with the media reference of a
	// replaced or deleted local message so its temporary blob can be
	// freed.
	ReleaseBlob func(mediaURL string)
}

func New(log *zap.SugaredLogger, windows Windows, markers *LeaveMarkers, userID model.ID) *Store {
	if markers == nil {
		markers = NewLeaveMarkers()
	}
	return &Store{log: log, windows: windows, markers: markers, userID: userID}
}

func (s *Store) Markers() *LeaveMarkers { return s.markers }

// Open switches the store to a conversation, discarding the previous
// one's messages.
func (s *Store) Open(key model.ConversationKey) {
	s.active = key
	s.open = true
	s.groups = nil
}

// CloseConversation leaves no conversation open.
func (s *Store) CloseConversation() {
	s.open = false
	s.active = model.ConversationKey{}
	s.groups = nil
}

// Active returns the open conversation's key, if any.
func (s *Store) Active() (model.ConversationKey, bool) {
	return s.active, s.open
}

// IsOpen reports whether the given key is the open conversation.
func (s *Store) IsOpen(key model.ConversationKey) bool {
	return s.open && s.active.Equal(key)
}

// Len counts stored messages across all date groups.
func (s *Store) Len() int {
	n := 0
	for _, g := range s.groups {
		n += len(g.Messages)
	}
	return n
}

// Groups exposes the ordered date groups.
func (s *Store) Groups() []*DateGroup { return s.groups }

// Messages flattens the store in display order.
func (s *Store) Messages() []*model.Message {
	out := make([]*model.Message, 0, s.Len())
	for _, g := range s.groups {
		out = append(out, g.Messages...)
	}
	return out
}

// FindByID locates a message by server id or optimistic client id,
// matching ids loosely.
func (s *Store) FindByID(id model.ID) *model.Message {
	if id.Empty() {
		return nil
	}
	for _, g := range s.groups {
		for _, m := range g.Messages {
			if model.EqualID(m.ID, id) || model.EqualID(m.ClientID, id) {
				return m
			}
		}
	}
	return nil
}

// AddOptimistic inserts a locally-created pending message. The entry is
// owned by this session until the server confirms or the send path
// discards it.
func (s *Store) AddOptimistic(msg *model.Message) {
	if !s.open || msg == nil {
		return
	}
	msg.IsOptimistic = true
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = model.Time{Time: time.Now().UTC()}
	}
	s.insert(msg)
}

// DiscardOptimistic removes a failed pending message by client id.
func (s *Store) DiscardOptimistic(clientID model.ID) bool {
	for gi, g := range s.groups {
		for mi, m := range g.Messages {
			if m.IsOptimistic && model.EqualID(m.ClientID, clientID) {
				s.releaseBlob(m)
				g.remove(mi)
				s.dropEmptyGroup(gi)
				return true
			}
		}
	}
	return false
}

// Apply ingests a confirmed message for the open conversation. The
// caller has already resolved the key and checked it against Active.
func (s *Store) Apply(msg *model.Message) Outcome {
	if !s.open || msg == nil {
		return OutcomeDropped
	}

	if out, handled := s.gateLeave(msg); handled {
		return out
	}

	if existing := s.findConfirmed(msg.ID); existing != nil {
		return s.mergeExisting(existing, msg)
	}

	if model.EqualID(msg.SenderID, s.userID) {
		if matched := s.reconcile(msg); matched != nil {
			s.releaseBlob(matched)
			s.removeMessage(matched)
			msg.IsOptimistic = false
			s.insert(msg)
			s.resolveParent(msg)
			return OutcomeReconciled
		}
	}

	msg.IsOptimistic = false
	s.insert(msg)
	s.resolveParent(msg)
	return OutcomeInserted
}

// gateLeave suppresses group messages older than the current user's
// leave marker. The leave system event itself may advance the marker and
// is still shown.
func (s *Store) gateLeave(msg *model.Message) (Outcome, bool) {
	if s.active.Type != model.ChatGroup {
		return 0, false
	}
	if msg.IsLeaveEvent() && model.EqualID(msg.SenderID, s.userID) &&
		s.markers.Advance(s.active.ID, msg.CreatedAt.Time) {
		// the event that establishes the new marker is itself shown
		return 0, false
	}
	marker, ok := s.markers.Get(s.active.ID)
	if !ok {
		return 0, false
	}
	if !msg.CreatedAt.After(marker) {
		s.log.Debugw("message suppressed by leave marker",
			"group", s.active.ID, "messageId", msg.ID, "marker", marker)
		return OutcomeDropped, true
	}
	return 0, false
}

// mergeExisting handles redelivery of an id the store already has:
// deletions win, then genuine edits, otherwise only metadata is merged
// so a delayed duplicate can never overwrite an edited message's
// content.
func (s *Store) mergeExisting(existing, incoming *model.Message) Outcome {
	if incoming.IsDeleted || incoming.IsDeletedForEveryone {
		scope := model.DeleteForMe
		if incoming.IsDeletedForEveryone {
			scope = model.DeleteForEveryone
		}
		s.Delete([]model.ID{existing.ID}, scope)
		return OutcomeDeleted
	}

	if incoming.UpdatedAt.After(incoming.CreatedAt.Time) && incoming.Content != existing.Content {
		existing.Content = incoming.Content
		existing.IsEdited = true
		existing.UpdatedAt = incoming.UpdatedAt
		existing.Statuses, _ = status.MergeAll(existing.Statuses, incoming.Statuses)
		return OutcomeEdited
	}

	existing.Statuses, _ = status.MergeAll(existing.Statuses, incoming.Statuses)
	if len(incoming.Reactions) > 0 {
		existing.Reactions = incoming.Reactions
	}
	existing.IsForwarded = existing.IsForwarded || incoming.IsForwarded
	return OutcomeMetadataMerged
}

// Delete applies a deletion to the listed ids. Delete-for-me removes the
// entry outright; delete-for-everyone keeps the slot with blanked
// content. Date groups left empty disappear.
func (s *Store) Delete(ids []model.ID, scope string) int {
	affected := 0
	for _, id := range ids {
	groups:
		for gi, g := range s.groups {
			for mi, m := range g.Messages {
				if !model.EqualID(m.ID, id) {
					continue
				}
				affected++
				s.releaseBlob(m)
				if scope == model.DeleteForEveryone {
					m.Content = ""
					m.MediaURL = ""
					m.IsDeleted = true
					m.IsDeletedForEveryone = true
				} else {
					g.remove(mi)
					s.dropEmptyGroup(gi)
				}
				break groups
			}
		}
	}
	return affected
}

// ApplyStatus merges a delivery-state change into the target message.
func (s *Store) ApplyStatus(change model.StatusChange) bool {
	msg := s.FindByID(change.MessageID)
	if msg == nil {
		return false
	}
	return status.ApplyToMessage(msg, model.Status{
		UserID:    change.UserID,
		State:     change.Status,
		UpdatedAt: change.UpdatedAt,
	})
}

// ApplyReaction unions or removes one user's reaction.
func (s *Store) ApplyReaction(change model.ReactionChange) bool {
	msg := s.FindByID(change.MessageID)
	if msg == nil {
		return false
	}
	for i, r := range msg.Reactions {
		if !model.EqualID(r.UserID, change.UserID) {
			continue
		}
		if change.Removed {
			msg.Reactions = append(msg.Reactions[:i], msg.Reactions[i+1:]...)
			return true
		}
		if r.Emoji == change.Emoji {
			return false
		}
		msg.Reactions[i].Emoji = change.Emoji
		return true
	}
	if change.Removed {
		return false
	}
	msg.Reactions = append(msg.Reactions, model.Reaction{UserID: change.UserID, Emoji: change.Emoji})
	return true
}

// SetStarred flips the star flag on a message.
func (s *Store) SetStarred(id model.ID, starred bool) bool {
	msg := s.FindByID(id)
	if msg == nil || msg.IsStarred == starred {
		return false
	}
	msg.IsStarred = starred
	return true
}

// SetMessagePinned flips the pin flag on a message.
func (s *Store) SetMessagePinned(id model.ID, pinned bool) bool {
	msg := s.FindByID(id)
	if msg == nil || msg.IsPinned == pinned {
		return false
	}
	msg.IsPinned = pinned
	return true
}

// ApplyEdit handles an explicit message-updated event.
func (s *Store) ApplyEdit(incoming *model.Message) bool {
	existing := s.findConfirmed(incoming.ID)
	if existing == nil {
		return false
	}
	return s.mergeExisting(existing, incoming) == OutcomeEdited
}

func (s *Store) findConfirmed(id model.ID) *model.Message {
	if id.Empty() {
		return nil
	}
	for _, g := range s.groups {
		for _, m := range g.Messages {
			if !m.IsOptimistic && model.EqualID(m.ID, id) {
				return m
			}
		}
	}
	return nil
}

func (s *Store) insert(msg *model.Message) {
	day := msg.Day()
	var group *DateGroup
	for _, g := range s.groups {
		if g.Day.Equal(day) {
			group = g
			break
		}
	}
	if group == nil {
		group = &DateGroup{Day: day}
		s.groups = append(s.groups, group)
		sort.SliceStable(s.groups, func(i, j int) bool {
			return s.groups[i].Day.Before(s.groups[j].Day)
		})
	}
	group.Messages = append(group.Messages, msg)
	group.sortMessages()
}

func (s *Store) resolveParent(msg *model.Message) {
	if msg.ParentID.Empty() || msg.ParentMessage != nil {
		return
	}
	// fall back to whatever inline parent the payload carried; a store
	// hit replaces it
	if parent := s.FindByID(msg.ParentID); parent != nil {
		msg.ParentMessage = parent
	}
}

func (s *Store) removeMessage(msg *model.Message) {
	for gi, g := range s.groups {
		for mi, m := range g.Messages {
			if m == msg {
				g.remove(mi)
				s.dropEmptyGroup(gi)
				return
			}
		}
	}
}

func (s *Store) dropEmptyGroup(gi int) {
	if gi < len(s.groups) && len(s.groups[gi].Messages) == 0 {
		s.groups = append(s.groups[:gi], s.groups[gi+1:]...)
	}
}

func (s *Store) releaseBlob(msg *model.Message) {
	if s.ReleaseBlob != nil && msg.MediaURL != "" {
		s.ReleaseBlob(msg.MediaURL)
	}
}

// Reset clears everything, leave markers included (logout).
func (s *Store) Reset() {
	s.CloseConversation()
	s.markers.Reset()
}
