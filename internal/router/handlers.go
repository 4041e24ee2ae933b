package router

import (
	"encoding/json"
	"time"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/chatid"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/index"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/metrics"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/store"
)

// Handle is the per-event entry point. It runs on the event goroutine;
// each invocation completes before the next event is handled. Malformed
// payloads are logged and dropped so one bad event never halts the
// stream.
func (r *Router) Handle(event string, data json.RawMessage) {
	metrics.EventsProcessed.WithLabelValues(event).Inc()

	switch event {
	case model.EvMessageReceived:
		r.handleMessages(data)
	case model.EvMessageUpdated:
		r.handleMessageUpdated(data)
	case model.EvMessageStatus:
		r.handleStatus(data)
	case model.EvMessageDeleted:
		r.handleDeleted(data)
	case model.EvMessageReaction:
		r.handleReaction(data)
	case model.EvMessageStarred:
		r.handleFlag(data, r.store.SetStarred)
	case model.EvMessagePinned:
		r.handleFlag(data, r.store.SetMessagePinned)
	case model.EvConversationPin:
		r.handleConversationPin(data)
	case model.EvConversationMuted:
		r.handleToggle(data, index.ToggleMuted, true)
	case model.EvConversationUnmut:
		r.handleToggle(data, index.ToggleMuted, false)
	case model.EvConversationArch:
		r.handleToggleValue(data, index.ToggleArchived)
	case model.EvConversationBlock:
		r.handleToggleValue(data, index.ToggleBlocked)
	case model.EvConversationFav:
		r.handleToggleValue(data, index.ToggleFavorite)
	case model.EvConversationLock:
		r.handleToggleValue(data, index.ToggleLocked)
	case model.EvGroupSettings:
		r.handleGroupSettings(data)
	case model.EvGroupMemberAdded:
		r.handleMemberAdded(data)
	case model.EvGroupMemberRemove:
		r.handleMemberRemoved(data)
	case model.EvGroupMemberRole:
		r.handleMemberRole(data)
	case model.EvGroupLeft:
		r.handleGroupLeft(data)
	case model.EvGroupDeleted:
		r.handleGroupDeleted(data)
	case model.EvMessagesRead:
		r.handleMessagesRead(data)
	case model.EvPresenceBulk:
		r.handlePresenceBulk(data)
	case model.EvPresenceSingle:
		r.handlePresenceSingle(data)
	case model.EvTyping:
		r.handleTyping(data)
	case model.EvUserUpdated:
		r.handleUserUpdated(data)
	default:
		r.log.Debugw("unhandled event", "event", event)
	}
}

func (r *Router) resolve(msg *model.Message) (chatid.Resolution, error) {
	return chatid.Resolve(msg, r.userID)
}

// handleMessages accepts a single message or a batch.
func (r *Router) handleMessages(data json.RawMessage) {
	var batch []*model.Message
	if err := json.Unmarshal(data, &batch); err != nil {
		var single model.Message
		if err := json.Unmarshal(data, &single); err != nil {
			r.log.Warnw("malformed message payload", "err", err)
			return
		}
		batch = []*model.Message{&single}
	}
	for _, msg := range batch {
		r.ingest(msg)
	}
}

// ingest runs the full message pipeline: dedup, identity resolution,
// leave gating, store apply, index update, acks and notifications.
func (r *Router) ingest(msg *model.Message) {
	if msg == nil {
		return
	}
	id := msg.Key().String()
	if r.guard.Seen(id) {
		metrics.DedupDropped.Inc()
		return
	}
	r.guard.Mark(id)

	res, err := r.resolve(msg)
	if err != nil {
		metrics.UnresolvedKeys.Inc()
		r.log.Debugw("dropping message without conversation key", "messageId", msg.ID)
		return
	}

	fromSelf := model.EqualID(msg.SenderID, r.userID)
	isOpen := !res.SelfBounce && r.store.IsOpen(res.Key)

	if isOpen {
		outcome := r.store.Apply(msg)
		switch outcome {
		case store.OutcomeDropped:
			return
		case store.OutcomeReconciled:
			metrics.Reconciled.Inc()
		}
	} else if r.suppressedByLeaveMarker(res.Key, msg, fromSelf) {
		return
	}

	focused := r.focused.Load()
	countUnread := !fromSelf && !msg.IsSystem() && (!isOpen || !focused)
	mentioned := countUnread && msg.Mentions(r.userID)

	conv := r.index.ApplyMessage(res.Key, msg, countUnread, mentioned)
	metrics.IndexSize.Set(float64(r.index.Len()))

	if !msg.IsOptimistic {
		r.arch.Append(res.Key, msg)
	}

	if fromSelf || msg.IsSystem() {
		return
	}
	if isOpen && focused && r.readReceipts {
		r.ackSeen(res.Key, msg)
		return
	}
	r.emit(model.EvMarkDelivered, model.Delivered{MessageID: msg.ID, SenderID: msg.SenderID})
	if countUnread && conv != nil && !conv.IsMuted && !conv.IsBlocked {
		r.requestNotification(res.Key, conv, msg)
	}
}

// suppressedByLeaveMarker mirrors the store's group-leave gating for
// messages arriving while the conversation is not open, so a suppressed
// message cannot bump unread counters either.
func (r *Router) suppressedByLeaveMarker(key model.ConversationKey, msg *model.Message, fromSelf bool) bool {
	if key.Type != model.ChatGroup {
		return false
	}
	markers := r.store.Markers()
	if msg.IsLeaveEvent() && fromSelf && markers.Advance(key.ID, msg.CreatedAt.Time) {
		return false
	}
	marker, ok := markers.Get(key.ID)
	return ok && !msg.CreatedAt.After(marker)
}

func (r *Router) ackSeen(key model.ConversationKey, msg *model.Message) {
	if !r.readReceipts {
		r.emit(model.EvMarkDelivered, model.Delivered{MessageID: msg.ID, SenderID: msg.SenderID})
		return
	}
	ack := model.MarkLastSeen{LastMessageID: msg.ID}
	if key.Type == model.ChatGroup {
		ack.GroupID = key.ID
	} else {
		ack.RecipientID = msg.SenderID
	}
	r.emit(model.EvMarkLastSeen, ack)
}

// requestNotification asks the external presenter to show the message.
// Encrypted previews are decrypted off the event goroutine; the result
// is re-enqueued so a slow decrypt delays only its own notification.
func (r *Router) requestNotification(key model.ConversationKey, conv *model.Conversation, msg *model.Message) {
	if r.notifier == nil {
		return
	}
	title := conv.Name
	if title == "" {
		title = msg.SenderName
	}
	if title == "" {
		title = "New message"
	}
	if msg.Metadata.Encrypted && r.decrypt != nil {
		ciphertext := msg.Content
		go func() {
			body, err := r.decrypt(ciphertext)
			if err != nil {
				body = "New message"
			}
			r.enqueue(func() { r.notifier.Notify(key, title, body) })
		}()
		return
	}
	r.notifier.Notify(key, title, msg.Preview())
}

func (r *Router) handleMessageUpdated(data json.RawMessage) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.Warnw("malformed message update", "err", err)
		return
	}
	r.store.ApplyEdit(&msg)
	if res, err := r.resolve(&msg); err == nil {
		if conv := r.index.Get(res.Key); conv != nil && conv.LastMessage != nil &&
			model.EqualID(conv.LastMessage.ID, msg.ID) {
			r.index.ApplyMessage(res.Key, &msg, false, false)
		}
	}
}

func (r *Router) handleStatus(data json.RawMessage) {
	var change model.StatusChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed status change", "err", err)
		return
	}
	r.store.ApplyStatus(change)
	r.index.ApplyStatus(change)
}

func (r *Router) handleDeleted(data json.RawMessage) {
	var del model.Deletion
	if err := json.Unmarshal(data, &del); err != nil {
		r.log.Warnw("malformed deletion", "err", err)
		return
	}
	if len(del.MessageIDs) == 0 {
		return
	}

	var ref *model.Message
	if del.IsBroadcast && !del.BroadcastID.Empty() {
		ref = r.broadcastReference(del)
	}

	r.store.Delete(del.MessageIDs, del.DeleteType)

	if del.IsBroadcast && !del.BroadcastID.Empty() {
		r.index.RewriteBroadcastPreviews(del.BroadcastID, ref)
	} else {
		r.index.RewriteDeletedPreviews(del.MessageIDs)
	}
	if del.DeleteType == model.DeleteForEveryone {
		r.arch.MarkDeleted(del.MessageIDs)
	}
}

// broadcastReference finds a copy of the deleted broadcast message to
// use as the timestamp/content reference when matching per-recipient
// mirrors.
func (r *Router) broadcastReference(del model.Deletion) *model.Message {
	if m := r.store.FindByID(del.MessageIDs[0]); m != nil {
		return m.Clone()
	}
	bkey := model.ConversationKey{ID: del.BroadcastID, Type: model.ChatBroadcast}
	if conv := r.index.Get(bkey); conv != nil && conv.LastMessage != nil {
		return conv.LastMessage.Clone()
	}
	return nil
}

func (r *Router) handleReaction(data json.RawMessage) {
	var change model.ReactionChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed reaction", "err", err)
		return
	}
	r.store.ApplyReaction(change)
}

func (r *Router) handleFlag(data json.RawMessage, apply func(model.ID, bool) bool) {
	var change model.FlagChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed flag change", "err", err)
		return
	}
	apply(change.MessageID, change.Value)
}

func (r *Router) handleConversationPin(data json.RawMessage) {
	var change model.PinChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed pin change", "err", err)
		return
	}
	key := model.ConversationKey{ID: change.TargetID, Type: change.Type}
	if key.Zero() {
		return
	}
	at := change.PinnedAt.Time
	if change.Pinned && at.IsZero() {
		at = time.Now().UTC()
	}
	r.index.SetPinned(key, change.Pinned, at)
}

func (r *Router) handleToggle(data json.RawMessage, t index.Toggle, value bool) {
	var change model.ConversationToggle
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed conversation toggle", "err", err)
		return
	}
	key := model.ConversationKey{ID: change.TargetID, Type: change.Type}
	if key.Zero() {
		return
	}
	r.index.SetToggle(key, t, value)
}

func (r *Router) handleToggleValue(data json.RawMessage, t index.Toggle) {
	var change model.ConversationToggle
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed conversation toggle", "err", err)
		return
	}
	key := model.ConversationKey{ID: change.TargetID, Type: change.Type}
	if key.Zero() {
		return
	}
	r.index.SetToggle(key, t, change.Value)
}

func (r *Router) handleGroupSettings(data json.RawMessage) {
	var s model.GroupSettings
	if err := json.Unmarshal(data, &s); err != nil {
		r.log.Warnw("malformed group settings", "err", err)
		return
	}
	r.index.ApplySettings(s)
}

func (r *Router) handleMemberAdded(data json.RawMessage) {
	var change model.MemberChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed member change", "err", err)
		return
	}
	r.index.AddMember(change.GroupID, change.UserID, change.Role)
	if model.EqualID(change.UserID, r.userID) {
		// rejoin lifts the leave gate
		r.store.Markers().Clear(change.GroupID)
	}
}

func (r *Router) handleMemberRemoved(data json.RawMessage) {
	var change model.MemberChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed member change", "err", err)
		return
	}
	r.index.RemoveMember(change.GroupID, change.UserID)
	if model.EqualID(change.UserID, r.userID) {
		r.store.Markers().Advance(change.GroupID, time.Now().UTC())
	}
}

func (r *Router) handleMemberRole(data json.RawMessage) {
	var change model.MemberChange
	if err := json.Unmarshal(data, &change); err != nil {
		r.log.Warnw("malformed member change", "err", err)
		return
	}
	r.index.AddMember(change.GroupID, change.UserID, change.Role)
}

func (r *Router) handleGroupLeft(data json.RawMessage) {
	var left model.GroupLeft
	if err := json.Unmarshal(data, &left); err != nil {
		r.log.Warnw("malformed group-left", "err", err)
		return
	}
	if model.EqualID(left.UserID, r.userID) {
		at := left.At.Time
		if at.IsZero() {
			at = time.Now().UTC()
		}
		r.store.Markers().Advance(left.GroupID, at)
		return
	}
	r.index.RemoveMember(left.GroupID, left.UserID)
}

func (r *Router) handleGroupDeleted(data json.RawMessage) {
	var del model.GroupDeleted
	if err := json.Unmarshal(data, &del); err != nil {
		r.log.Warnw("malformed group-deleted", "err", err)
		return
	}
	key := model.ConversationKey{ID: del.ID, Type: model.ChatGroup}
	r.index.Delete(key)
	metrics.IndexSize.Set(float64(r.index.Len()))
	if r.store.IsOpen(key) {
		r.store.CloseConversation()
	}
}

func (r *Router) handleMessagesRead(data json.RawMessage) {
	var read model.MessagesRead
	if err := json.Unmarshal(data, &read); err != nil {
		r.log.Warnw("malformed messages-read", "err", err)
		return
	}
	chatType := read.ChatType
	if chatType == "" {
		chatType = model.ChatDirect
	}
	id := read.ChatID
	if chatType == model.ChatGroup && !read.GroupID.Empty() {
		id = read.GroupID
	}
	if id.Empty() {
		id = read.ReaderID
	}
	if id.Empty() {
		return
	}
	r.index.MarkRead(model.ConversationKey{ID: id, Type: chatType})
}

func (r *Router) handlePresenceBulk(data json.RawMessage) {
	var list []model.Presence
	if err := json.Unmarshal(data, &list); err != nil {
		r.log.Warnw("malformed presence snapshot", "err", err)
		return
	}
	r.presence.UpdateBulk(list)
}

func (r *Router) handlePresenceSingle(data json.RawMessage) {
	var p model.Presence
	if err := json.Unmarshal(data, &p); err != nil {
		r.log.Warnw("malformed presence update", "err", err)
		return
	}
	r.presence.Update(p)
}

func (r *Router) handleTyping(data json.RawMessage) {
	var typing model.Typing
	if err := json.Unmarshal(data, &typing); err != nil {
		r.log.Warnw("malformed typing event", "err", err)
		return
	}
	key := model.ConversationKey{ID: typing.ConversationID, Type: typing.Type}
	if key.Type == "" {
		key.Type = model.ChatDirect
	}
	r.index.SetTyping(key, typing.UserID, typing.IsTyping)
}

func (r *Router) handleUserUpdated(data json.RawMessage) {
	var u model.UserUpdated
	if err := json.Unmarshal(data, &u); err != nil {
		r.log.Warnw("malformed user update", "err", err)
		return
	}
	r.index.UpdateUser(u)
}
