// Package status merges per-recipient delivery statuses. Statuses only
// ever move forward: a late "delivered" can never undo a "seen".
package status

import "github.com/888MAXiM/meetzy-frontend-sub001/internal/model"

// Rank is the total order over delivery states.
type Rank int

const (
	RankUnknown   Rank = -1
	RankBlocked   Rank = 0
	RankSent      Rank = 1
	RankDelivered Rank = 2
	RankSeen      Rank = 3
)

// RankOf maps a wire state to its rank. "read" and "seen" share a rank.
func RankOf(s model.DeliveryState) Rank {
	switch s {
	case model.StateBlocked:
		return RankBlocked
	case model.StateSent:
		return RankSent
	case model.StateDelivered:
		return RankDelivered
	case model.StateSeen, model.StateRead:
		return RankSeen
	}
	return RankUnknown
}

// Merge applies one recipient's status update to a status list and
// returns the updated list plus whether anything changed. An update of
// unknown state, or one ranked below the recipient's current state, is
// ignored.
func Merge(statuses []model.Status, update model.Status) ([]model.Status, bool) {
	next := RankOf(update.State)
	if next == RankUnknown {
		return statuses, false
	}
	for i, s := range statuses {
		if !model.EqualID(s.UserID, update.UserID) {
			continue
		}
		if next < RankOf(s.State) {
			return statuses, false
		}
		if next == RankOf(s.State) && s.State == update.State {
			return statuses, false
		}
		statuses[i].State = update.State
		statuses[i].UpdatedAt = update.UpdatedAt
		return statuses, true
	}
	return append(statuses, update), true
}

// MergeAll folds a batch of updates into the list.
func MergeAll(statuses []model.Status, updates []model.Status) ([]model.Status, bool) {
	changed := false
	for _, u := range updates {
		var c bool
		statuses, c = Merge(statuses, u)
		changed = changed || c
	}
	return statuses, changed
}

// ApplyToMessage merges an update into the message's own status list.
func ApplyToMessage(msg *model.Message, update model.Status) bool {
	if msg == nil {
		return false
	}
	statuses, changed := Merge(msg.Statuses, update)
	msg.Statuses = statuses
	return changed
}
