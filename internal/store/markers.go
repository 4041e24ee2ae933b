package store

import (
	"time"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

// LeaveMarkers tracks, per group, when the current user last left it.
// Messages at or before the marker are suppressed; the marker only moves
// forward in time and is cleared only by an explicit rejoin.
type LeaveMarkers struct {
	byGroup map[model.ID]time.Time
}

func NewLeaveMarkers() *LeaveMarkers {
	return &LeaveMarkers{byGroup: make(map[model.ID]time.Time)}
}

func (l *LeaveMarkers) Get(groupID model.ID) (time.Time, bool) {
	t, ok := l.byGroup[groupID]
	return t, ok
}

// Advance moves the marker forward. A timestamp at or before the current
// marker is rejected.
func (l *LeaveMarkers) Advance(groupID model.ID, at time.Time) bool {
	if groupID.Empty() || at.IsZero() {
		return false
	}
	if cur, ok := l.byGroup[groupID]; ok && !at.After(cur) {
		return false
	}
	l.byGroup[groupID] = at
	return true
}

// Clear drops the marker after the user rejoins the group.
func (l *LeaveMarkers) Clear(groupID model.ID) {
	delete(l.byGroup, groupID)
}

// Reset drops all markers (logout / account switch).
func (l *LeaveMarkers) Reset() {
	l.byGroup = make(map[model.ID]time.Time)
}
