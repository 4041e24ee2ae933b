package store

import "github.com/888MAXiM/meetzy-frontend-sub001/internal/model"

// reconcile finds the pending optimistic message a confirmed send
// supersedes. A candidate matches when it comes from the same sender,
// has the same type and the same reply target (no reply matches no
// reply), and its local timestamp falls inside the match window around
// the confirmed timestamp.
func (s *Store) reconcile(confirmed *model.Message) *model.Message {
	before, after := s.windows.PlainBefore, s.windows.PlainAfter
	if confirmed.Metadata.Encrypted {
		before, after = s.windows.EncryptBefore, s.windows.EncryptAfter
	}
	lo := confirmed.CreatedAt.Add(-before)
	hi := confirmed.CreatedAt.Add(after)

	for _, g := range s.groups {
		for _, m := range g.Messages {
			if !m.IsOptimistic {
				continue
			}
			if !model.EqualID(m.SenderID, confirmed.SenderID) {
				continue
			}
			if m.Type != confirmed.Type {
				continue
			}
			if !sameParent(m.ParentID, confirmed.ParentID) {
				continue
			}
			at := m.CreatedAt.Time
			if at.Before(lo) || at.After(hi) {
				continue
			}
			return m
		}
	}
	return nil
}

func sameParent(a, b model.ID) bool {
	if a.Empty() && b.Empty() {
		return true
	}
	return model.EqualID(a, b)
}
