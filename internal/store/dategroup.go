package store

import (
	"sort"
	"time"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

// DateGroup is one calendar day's slice of the open conversation,
// internally ordered by creation time.
type DateGroup struct {
	Day      time.Time // UTC midnight
	Messages []*model.Message
}

// Label renders the group heading relative to now: "Today", "Yesterday",
// a weekday name within the last week, otherwise the full date.
func (g *DateGroup) Label(now time.Time) string {
	today := now.UTC().Truncate(24 * time.Hour)
	switch diff := today.Sub(g.Day); {
	case diff <= 0:
		return "Today"
	case diff <= 24*time.Hour:
		return "Yesterday"
	case diff < 7*24*time.Hour:
		return g.Day.Weekday().String()
	default:
		return g.Day.Format("02 January 2006")
	}
}

func (g *DateGroup) sortMessages() {
	sort.SliceStable(g.Messages, func(i, j int) bool {
		return g.Messages[i].CreatedAt.Before(g.Messages[j].CreatedAt.Time)
	})
}

// remove drops the message at index i, preserving order.
func (g *DateGroup) remove(i int) {
	g.Messages = append(g.Messages[:i], g.Messages[i+1:]...)
}
