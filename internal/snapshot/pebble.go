// Package snapshot persists the conversation index across restarts in a
// local Pebble database, so unread counters and ordering survive a
// daemon restart. Messages are not snapshotted; the store is a view of
// the open conversation only.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

const convPrefix = "conv:"

type Cache struct {
	db  *pebble.DB
	log *zap.SugaredLogger
}

// Open opens (or creates) the snapshot database at path.
func Open(path string, log *zap.SugaredLogger) (*Cache, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.Errorw("snapshot open failed", "path", path, "err", err)
		return nil, err
	}
	log.Infow("snapshot opened", "path", path)
	return &Cache{db: db, log: log}, nil
}

func convKey(key model.ConversationKey) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", convPrefix, key.Type, key.ID))
}

// Save replaces the stored snapshot with the given conversations.
func (c *Cache) Save(conversations []*model.Conversation) error {
	batch := c.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange([]byte(convPrefix), []byte(convPrefix+"\xff"), nil); err != nil {
		return err
	}
	for _, conv := range conversations {
		b, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("marshal conversation %s: %w", conv.Key, err)
		}
		if err := batch.Set(convKey(conv.Key), b, nil); err != nil {
			return err
		}
	}
	return c.db.Apply(batch, pebble.Sync)
}

// Load reads all stored conversations.
func (c *Cache) Load() ([]*model.Conversation, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(convPrefix),
		UpperBound: []byte(convPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*model.Conversation
	for iter.First(); iter.Valid(); iter.Next() {
		var conv model.Conversation
		if err := json.Unmarshal(iter.Value(), &conv); err != nil {
			c.log.Warnw("skipping corrupt snapshot entry", "key", string(iter.Key()), "err", err)
			continue
		}
		out = append(out, &conv)
	}
	return out, iter.Error()
}

// Purge drops the stored snapshot (logout).
func (c *Cache) Purge() error {
	return c.db.DeleteRange([]byte(convPrefix), []byte(convPrefix+"\xff"), pebble.Sync)
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.log.Infow("snapshot closed")
	return err
}
