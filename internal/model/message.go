package model

import (
	"encoding/json"
	"time"
)

// DeliveryState is one per-recipient delivery status of a message.
type DeliveryState string

const (
	StateBlocked   DeliveryState = "blocked"
	StateSent      DeliveryState = "sent"
	StateDelivered DeliveryState = "delivered"
	StateSeen      DeliveryState = "seen"
	// StateRead is an alias some server events use for seen.
	StateRead DeliveryState = "read"
)

// Message type strings as they appear on the wire.
const (
	TypeText         = "text"
	TypeImage        = "image"
	TypeVideo        = "video"
	TypeAudio        = "audio"
	TypeFile         = "file"
	TypeSystem       = "system"
	TypeAnnouncement = "announcement"
)

// Deletion scopes.
const (
	DeleteForMe       = "delete-for-me"
	DeleteForEveryone = "delete-for-everyone"
)

// System actions carried in metadata.
const (
	ActionGroupLeft   = "group-left"
	ActionGroupJoined = "group-joined"
)

// DeletedPlaceholder replaces the preview text of a removed message.
const DeletedPlaceholder = "This message was deleted"

// Status is one recipient's delivery status entry on a message.
type Status struct {
	UserID    ID            `json:"userId"`
	State     DeliveryState `json:"status"`
	UpdatedAt Time          `json:"updatedAt"`
}

// Reaction is a single user's emoji reaction to a message.
type Reaction struct {
	UserID ID     `json:"userId"`
	Emoji  string `json:"emoji"`
}

// Metadata is the loosely-shaped extra payload attached to messages. The
// server sometimes sends it as an object and sometimes as a JSON string;
// unparseable metadata degrades to the zero value so one bad event cannot
// halt processing.
type Metadata struct {
	IsBroadcast bool   `json:"isBroadcast"`
	BroadcastID ID     `json:"broadcastId"`
	Recipients  []ID   `json:"recipients"`
	Encrypted   bool   `json:"encrypted"`
	Action      string `json:"action"`
	Mentions    []ID   `json:"mentions"`
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*m = Metadata{}
		return nil
	}
	if b[0] == '"' {
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			*m = Metadata{}
			return nil
		}
		b = []byte(inner)
	}
	type plain Metadata
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*m = Metadata{}
		return nil
	}
	*m = Metadata(p)
	return nil
}

// Message is a single chat message. Identity (ID) is immutable once the
// server has confirmed the message; content, statuses, reactions and the
// flag set mutate through update events.
type Message struct {
	ID       ID `json:"id"`
	ClientID ID `json:"clientId,omitempty"`

	SenderID     ID     `json:"senderId"`
	SenderName   string `json:"senderName,omitempty"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
	RecipientID  ID     `json:"recipientId,omitempty"`
	GroupID      ID     `json:"groupId,omitempty"`

	Type     string   `json:"messageType"`
	Content  string   `json:"content"`
	MediaURL string   `json:"mediaUrl,omitempty"`
	Metadata Metadata `json:"metadata"`

	Statuses  []Status   `json:"statuses,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`

	ParentID      ID       `json:"parentId,omitempty"`
	ParentMessage *Message `json:"parentMessage,omitempty"`

	IsEdited             bool `json:"isEdited"`
	IsDeleted            bool `json:"isDeleted"`
	IsDeletedForEveryone bool `json:"isDeletedForEveryone"`
	IsStarred            bool `json:"isStarred"`
	IsPinned             bool `json:"isPinned"`
	IsForwarded          bool `json:"isForwarded"`
	IsOptimistic         bool `json:"-"`

	CreatedAt Time `json:"createdAt"`
	UpdatedAt Time `json:"updatedAt"`
}

// Key returns the message id, falling back to the optimistic client id
// while the server has not assigned one yet.
func (m *Message) Key() ID {
	if !m.ID.Empty() {
		return m.ID
	}
	return m.ClientID
}

// IsSystem reports whether the message is a system event rather than user
// content; system messages never count toward unread totals.
func (m *Message) IsSystem() bool {
	return m.Type == TypeSystem
}

// IsLeaveEvent reports whether the message is the system event recording
// that a user left the group.
func (m *Message) IsLeaveEvent() bool {
	return m.IsSystem() && m.Metadata.Action == ActionGroupLeft
}

// Mentions reports whether the message mentions the given user.
func (m *Message) Mentions(userID ID) bool {
	for _, id := range m.Metadata.Mentions {
		if EqualID(id, userID) {
			return true
		}
	}
	return false
}

// Day returns the calendar day bucket the message belongs to, in UTC.
func (m *Message) Day() time.Time {
	return m.CreatedAt.UTC().Truncate(24 * time.Hour)
}

// Preview returns the text shown in a conversation list entry.
func (m *Message) Preview() string {
	if m.IsDeleted || m.IsDeletedForEveryone {
		return DeletedPlaceholder
	}
	if m.Content != "" {
		return m.Content
	}
	switch m.Type {
	case TypeImage:
		return "Photo"
	case TypeVideo:
		return "Video"
	case TypeAudio:
		return "Audio"
	case TypeFile:
		return "File"
	}
	return ""
}

// Clone returns a deep-enough copy for handing across the API boundary:
// slices are copied, the parent reference is shared.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Statuses = append([]Status(nil), m.Statuses...)
	cp.Reactions = append([]Reaction(nil), m.Reactions...)
	return &cp
}
