package model

// Inbound event names pushed by the server.
const (
	EvMessageReceived   = "message-received"
	EvMessageUpdated    = "message-updated"
	EvMessageStatus     = "message-status-changed"
	EvMessageDeleted    = "message-deleted"
	EvMessageReaction   = "message-reaction"
	EvMessageStarred    = "message-starred"
	EvMessagePinned     = "message-pinned"
	EvConversationPin   = "conversation-pin-changed"
	EvConversationMuted = "conversation-muted"
	EvConversationUnmut = "conversation-unmuted"
	EvConversationArch  = "conversation-archived"
	EvConversationBlock = "conversation-blocked"
	EvConversationFav   = "conversation-favorite-changed"
	EvConversationLock  = "conversation-lock-changed"
	EvGroupSettings     = "group-settings-updated"
	EvGroupMemberAdded  = "group-member-added"
	EvGroupMemberRemove = "group-member-removed"
	EvGroupMemberRole   = "group-member-role-changed"
	EvGroupLeft         = "group-left"
	EvGroupDeleted      = "group-deleted"
	EvMessagesRead      = "messages-read"
	EvPresenceBulk      = "presence-bulk"
	EvPresenceSingle    = "presence-single"
	EvTyping            = "typing"
	EvUserUpdated       = "user-updated"
)

// Outbound event names emitted back to the server.
const (
	EvJoinRoom        = "join-room"
	EvSetOnline       = "set-online"
	EvRequestStatuses = "request-status-snapshot"
	EvMarkDelivered   = "message-delivered"
	EvMarkLastSeen    = "mark-last-seen"
)

// StatusChange reports one recipient's delivery-state transition for one
// message.
type StatusChange struct {
	MessageID ID            `json:"messageId"`
	UserID    ID            `json:"userId"`
	Status    DeliveryState `json:"status"`
	UpdatedAt Time          `json:"updatedAt"`
}

// Deletion covers both single and broadcast fan-out deletions.
type Deletion struct {
	MessageIDs  []ID   `json:"messageIds"`
	DeleteType  string `json:"deleteType"`
	IsBroadcast bool   `json:"isBroadcast"`
	BroadcastID ID     `json:"broadcastId"`
	DeletedBy   ID     `json:"deletedBy"`
}

// ReactionChange adds or removes one user's reaction on a message.
type ReactionChange struct {
	MessageID ID     `json:"messageId"`
	UserID    ID     `json:"userId"`
	Emoji     string `json:"emoji"`
	Removed   bool   `json:"removed"`
}

// FlagChange toggles a per-message flag (star, pin).
type FlagChange struct {
	MessageID ID   `json:"messageId"`
	UserID    ID   `json:"userId"`
	Value     bool `json:"value"`
}

// PinChange pins or unpins a conversation.
type PinChange struct {
	TargetID ID       `json:"targetId"`
	Type     ChatType `json:"type"`
	Pinned   bool     `json:"pinned"`
	PinnedAt Time     `json:"pinnedAt"`
}

// ConversationToggle carries the mute/archive/block/favorite/lock family
// of conversation-level switches.
type ConversationToggle struct {
	UserID   ID       `json:"userId"`
	TargetID ID       `json:"targetId"`
	Type     ChatType `json:"targetType"`
	Value    bool     `json:"value"`
}

// GroupSettings carries admin-editable group metadata.
type GroupSettings struct {
	GroupID ID     `json:"groupId"`
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
}

// MemberChange adds, removes or re-roles a group member.
type MemberChange struct {
	GroupID ID     `json:"groupId"`
	UserID  ID     `json:"userId"`
	Role    string `json:"role"`
	ActorID ID     `json:"actorId"`
}

// GroupLeft records a user leaving a group.
type GroupLeft struct {
	GroupID ID   `json:"groupId"`
	UserID  ID   `json:"userId"`
	At      Time `json:"at"`
}

// GroupDeleted tears a group down entirely.
type GroupDeleted struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// MessagesRead resets unread counters; exactly one of ChatID/GroupID/
// ReaderID identifies the conversation depending on ChatType.
type MessagesRead struct {
	ChatID   ID       `json:"chatId"`
	GroupID  ID       `json:"groupId"`
	ReaderID ID       `json:"readerId"`
	ChatType ChatType `json:"chatType"`
}

// Typing is a transient typing indicator.
type Typing struct {
	ConversationID ID       `json:"conversationId"`
	Type           ChatType `json:"type"`
	UserID         ID       `json:"userId"`
	IsTyping       bool     `json:"isTyping"`
}

// UserUpdated refreshes a user's display fields.
type UserUpdated struct {
	UserID ID     `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// JoinRoom subscribes the session's user room after (re)connect.
type JoinRoom struct {
	UserID ID `json:"userId"`
}

// Delivered acknowledges receipt of one message.
type Delivered struct {
	MessageID ID `json:"messageId"`
	SenderID  ID `json:"senderId"`
}

// MarkLastSeen acknowledges reading up to a message in a conversation.
type MarkLastSeen struct {
	LastMessageID ID `json:"lastMessageId"`
	RecipientID   ID `json:"recipientId,omitempty"`
	GroupID       ID `json:"groupId,omitempty"`
}
