package model

import "time"

// ChatType classifies a conversation.
type ChatType string

const (
	ChatDirect       ChatType = "direct"
	ChatGroup        ChatType = "group"
	ChatBroadcast    ChatType = "broadcast"
	ChatAnnouncement ChatType = "announcement"
)

// ConversationKey uniquely identifies a conversation thread. Two events
// with the same key always target the same store bucket and the same
// index entry.
type ConversationKey struct {
	ID   ID       `json:"id"`
	Type ChatType `json:"type"`
}

func (k ConversationKey) Zero() bool { return k.ID.Empty() }

func (k ConversationKey) Equal(other ConversationKey) bool {
	return k.Type == other.Type && EqualID(k.ID, other.ID)
}

func (k ConversationKey) String() string {
	return string(k.Type) + ":" + string(k.ID)
}

// Member is a participant of a group or broadcast conversation.
type Member struct {
	UserID ID     `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// Conversation is one recent-chat entry: denormalized last-message
// preview plus the per-conversation flags and counters the list view
// sorts and badges by.
type Conversation struct {
	Key    ConversationKey `json:"key"`
	Name   string          `json:"name,omitempty"`
	Avatar string          `json:"avatar,omitempty"`

	LastMessage     *Message  `json:"lastMessage,omitempty"`
	LatestMessageAt time.Time `json:"latestMessageAt"`

	UnreadCount       int  `json:"unreadCount"`
	HasUnreadMentions bool `json:"hasUnreadMentions"`

	IsPinned bool      `json:"isPinned"`
	PinnedAt time.Time `json:"pinnedAt,omitempty"`

	IsMuted    bool `json:"isMuted"`
	IsArchived bool `json:"isArchived"`
	IsBlocked  bool `json:"isBlocked"`
	IsFavorite bool `json:"isFavorite"`
	IsLocked   bool `json:"isLocked"`

	Members []Member `json:"members,omitempty"`

	// Seq is the insertion sequence, used as a stable tiebreaker so
	// equal-activity conversations do not swap places between sorts.
	Seq uint64 `json:"seq"`
}

// LastActivity is the effective recency timestamp used for ordering.
func (c *Conversation) LastActivity() time.Time {
	if !c.LatestMessageAt.IsZero() {
		return c.LatestMessageAt
	}
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt.Time
	}
	return time.Time{}
}

// Presence is a single user's online state.
type Presence struct {
	UserID   ID     `json:"userId"`
	Status   string `json:"status"`
	LastSeen Time   `json:"lastSeen"`
}

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)
