package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

type recorder struct{ got []model.Presence }

func (r *recorder) Publish(p model.Presence) { r.got = append(r.got, p) }

func TestUpdateAndOnline(t *testing.T) {
	m := NewMap(nil)
	m.Update(model.Presence{UserID: "u-1", Status: model.PresenceOnline})
	assert.True(t, m.Online("u-1"))

	m.Update(model.Presence{UserID: "u-1", Status: model.PresenceOffline})
	assert.False(t, m.Online("u-1"))

	_, ok := m.Get("u-2")
	assert.False(t, ok)
}

func TestUpdateIgnoresEmptyUser(t *testing.T) {
	m := NewMap(nil)
	m.Update(model.Presence{Status: model.PresenceOnline})
	assert.Empty(t, m.All())
}

func TestBulkMergeAndOrdering(t *testing.T) {
	m := NewMap(nil)
	m.UpdateBulk([]model.Presence{
		{UserID: "u-3", Status: model.PresenceOnline},
		{UserID: "u-1", Status: model.PresenceOffline},
		{UserID: "u-2", Status: model.PresenceOnline},
	})
	all := m.All()
	assert.Equal(t, []model.ID{"u-1", "u-2", "u-3"}, []model.ID{all[0].UserID, all[1].UserID, all[2].UserID})
}

func TestMirrorReceivesUpdates(t *testing.T) {
	rec := &recorder{}
	m := NewMap(rec)
	m.Update(model.Presence{UserID: "u-1", Status: model.PresenceOnline})
	m.Update(model.Presence{Status: model.PresenceOnline}) // dropped, no publish
	assert.Len(t, rec.got, 1)
	assert.Equal(t, model.ID("u-1"), rec.got[0].UserID)
}

func TestReset(t *testing.T) {
	m := NewMap(nil)
	m.Update(model.Presence{UserID: "u-1", Status: model.PresenceOnline})
	m.Reset()
	assert.False(t, m.Online("u-1"))
	assert.Empty(t, m.All())
}
