package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

func TestForwardProgression(t *testing.T) {
	var list []model.Status

	list, changed := Merge(list, model.Status{UserID: "u1", State: model.StateSent})
	assert.True(t, changed)
	list, changed = Merge(list, model.Status{UserID: "u1", State: model.StateDelivered})
	assert.True(t, changed)
	list, changed = Merge(list, model.Status{UserID: "u1", State: model.StateSeen})
	assert.True(t, changed)

	assert.Len(t, list, 1)
	assert.Equal(t, model.StateSeen, list[0].State)
}

func TestNeverRegresses(t *testing.T) {
	list := []model.Status{{UserID: "u1", State: model.StateSeen}}

	list, changed := Merge(list, model.Status{UserID: "u1", State: model.StateDelivered})
	assert.False(t, changed)
	assert.Equal(t, model.StateSeen, list[0].State)

	list, changed = Merge(list, model.Status{UserID: "u1", State: model.StateSent})
	assert.False(t, changed)
	assert.Equal(t, model.StateSeen, list[0].State)
}

func TestReadEqualsSeen(t *testing.T) {
	assert.Equal(t, RankOf(model.StateSeen), RankOf(model.StateRead))

	list := []model.Status{{UserID: "u1", State: model.StateSeen}}
	list, changed := Merge(list, model.Status{UserID: "u1", State: model.StateRead})
	assert.True(t, changed)
	assert.Equal(t, model.StateRead, list[0].State)
}

func TestPerRecipientIndependence(t *testing.T) {
	list := []model.Status{{UserID: "u1", State: model.StateSeen}}
	list, changed := Merge(list, model.Status{UserID: "u2", State: model.StateDelivered})
	assert.True(t, changed)
	assert.Len(t, list, 2)
	assert.Equal(t, model.StateSeen, list[0].State)
	assert.Equal(t, model.StateDelivered, list[1].State)
}

func TestUnknownStateIgnored(t *testing.T) {
	list := []model.Status{{UserID: "u1", State: model.StateSent}}
	list, changed := Merge(list, model.Status{UserID: "u1", State: "typing"})
	assert.False(t, changed)
	assert.Equal(t, model.StateSent, list[0].State)
}

func TestLooseIDMatch(t *testing.T) {
	list := []model.Status{{UserID: "42", State: model.StateSent}}
	list, changed := Merge(list, model.Status{UserID: model.ID("42"), State: model.StateDelivered})
	assert.True(t, changed)
	assert.Len(t, list, 1)
}

func TestMergeAll(t *testing.T) {
	list, changed := MergeAll(nil, []model.Status{
		{UserID: "u1", State: model.StateDelivered},
		{UserID: "u2", State: model.StateSeen},
		{UserID: "u1", State: model.StateSent}, // stale, ignored
	})
	assert.True(t, changed)
	assert.Len(t, list, 2)
	assert.Equal(t, model.StateDelivered, list[0].State)
}
