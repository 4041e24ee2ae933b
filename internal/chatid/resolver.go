// Package chatid classifies inbound payloads into conversation keys.
// Both the open-chat check and the index update go through Resolve, so
// the two can never disagree about which conversation an event targets.
package chatid

import (
	"errors"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

// ErrUnresolvable means the payload carries no usable conversation
// linkage. Such events are dropped rather than filed under a guessed
// key, since a wrong key would corrupt an unrelated conversation.
var ErrUnresolvable = errors.New("chatid: no conversation key in payload")

// Resolution is the classified identity of an inbound message.
type Resolution struct {
	Key model.ConversationKey

	// SelfBounce marks the per-recipient echo of the current user's own
	// broadcast send. It refreshes the broadcast's preview but is never
	// a match for the open conversation.
	SelfBounce bool
}

// Resolve determines the conversation key for a message, in priority
// order: announcement, group, broadcast, direct.
func Resolve(msg *model.Message, currentUserID model.ID) (Resolution, error) {
	if msg == nil {
		return Resolution{}, ErrUnresolvable
	}

	if msg.Type == model.TypeAnnouncement {
		if msg.SenderID.Empty() {
			return Resolution{}, ErrUnresolvable
		}
		return Resolution{Key: model.ConversationKey{ID: msg.SenderID, Type: model.ChatAnnouncement}}, nil
	}

	if !msg.GroupID.Empty() {
		return Resolution{Key: model.ConversationKey{ID: msg.GroupID, Type: model.ChatGroup}}, nil
	}

	if msg.Metadata.IsBroadcast && !msg.Metadata.BroadcastID.Empty() {
		key := model.ConversationKey{ID: msg.Metadata.BroadcastID, Type: model.ChatBroadcast}
		if len(msg.Metadata.Recipients) > 0 {
			// the sender's own fanned-out copy
			return Resolution{Key: key}, nil
		}
		if model.EqualID(msg.SenderID, currentUserID) {
			// individual per-recipient copy echoed back to the sender
			return Resolution{Key: key, SelfBounce: true}, nil
		}
		// a recipient's copy of someone else's broadcast reads as a
		// plain direct message from the sender
	}

	other := msg.SenderID
	if model.EqualID(msg.SenderID, currentUserID) {
		other = msg.RecipientID
	}
	if other.Empty() {
		return Resolution{}, ErrUnresolvable
	}
	return Resolution{Key: model.ConversationKey{ID: other, Type: model.ChatDirect}}, nil
}
