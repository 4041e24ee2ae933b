// Package presence keeps the per-user online map fed by presence
// events. It is unrelated to message ordering; bulk snapshots and
// single updates both merge into the same map.
package presence

import (
	"sort"
	"sync"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

// Map is safe for concurrent readers; writes come from the router
// goroutine.
type Map struct {
	mu     sync.RWMutex
	byUser map[model.ID]model.Presence
	mirror Mirror
}

// Mirror receives best-effort copies of presence updates, for co-located
// consumers that want presence without their own transport. A nil
// mirror is valid.
type Mirror interface {
	Publish(p model.Presence)
}

func NewMap(mirror Mirror) *Map {
	return &Map{byUser: make(map[model.ID]model.Presence), mirror: mirror}
}

// Update merges one user's presence.
func (m *Map) Update(p model.Presence) {
	if p.UserID.Empty() {
		return
	}
	m.mu.Lock()
	m.byUser[p.UserID] = p
	m.mu.Unlock()
	if m.mirror != nil {
		m.mirror.Publish(p)
	}
}

// UpdateBulk merges a presence snapshot.
func (m *Map) UpdateBulk(list []model.Presence) {
	for _, p := range list {
		m.Update(p)
	}
}

// Get returns a user's presence.
func (m *Map) Get(userID model.ID) (model.Presence, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byUser[userID]
	return p, ok
}

// Online reports whether a user is currently online.
func (m *Map) Online(userID model.ID) bool {
	p, ok := m.Get(userID)
	return ok && p.Status == model.PresenceOnline
}

// All returns the map contents ordered by user id.
func (m *Map) All() []model.Presence {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Presence, 0, len(m.byUser))
	for _, p := range m.byUser {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Reset clears the map (logout).
func (m *Map) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser = make(map[model.ID]model.Presence)
}
