// Package dedup makes message ingestion idempotent. The transport may
// redeliver events on reconnect or fan the same event out to multiple
// listeners; the guard remembers recently processed message ids so a
// redelivery never reaches the store twice.
package dedup

import "container/list"

const DefaultCap = 1000

// Guard is a bounded, insertion-ordered set of message ids with FIFO
// eviction. It is confined to the router goroutine and needs no locking.
type Guard struct {
	cap   int
	order *list.List
	byID  map[string]*list.Element
}

func New(capacity int) *Guard {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Guard{
		cap:   capacity,
		order: list.New(),
		byID:  make(map[string]*list.Element, capacity),
	}
}

// Seen reports whether the id has already been processed.
func (g *Guard) Seen(id string) bool {
	if id == "" {
		return false
	}
	_, ok := g.byID[id]
	return ok
}

// Mark records the id, evicting the oldest entry once the guard is full.
// Marking an already-known id is a no-op that keeps its original slot.
func (g *Guard) Mark(id string) {
	if id == "" {
		return
	}
	if _, ok := g.byID[id]; ok {
		return
	}
	if g.order.Len() >= g.cap {
		oldest := g.order.Front()
		g.order.Remove(oldest)
		delete(g.byID, oldest.Value.(string))
	}
	g.byID[id] = g.order.PushBack(id)
}

// Len returns the number of tracked ids.
func (g *Guard) Len() int { return g.order.Len() }

// Cap returns the guard's bound.
func (g *Guard) Cap() int { return g.cap }
