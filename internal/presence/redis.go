package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

// RedisMirror writes presence updates to Redis so other local consumers
// (notifier daemons, sibling sessions) can read them without a
// transport of their own.
// Keys: <prefix>:presence:<userID> -> json {status,last_seen}
type RedisMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewRedisMirror(client *redis.Client, prefix string, ttl time.Duration, log *zap.SugaredLogger) *RedisMirror {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &RedisMirror{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (r *RedisMirror) key(userID model.ID) string {
	return fmt.Sprintf("%s:presence:%s", r.prefix, userID)
}

// Publish is best-effort; a failed write is logged and forgotten.
func (r *RedisMirror) Publish(p model.Presence) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := map[string]any{
		"status":    p.Status,
		"last_seen": p.LastSeen.Unix(),
	}
	b, _ := json.Marshal(payload)
	if err := r.client.Set(ctx, r.key(p.UserID), b, r.ttl).Err(); err != nil {
		r.log.Debugw("presence mirror write failed", "user", p.UserID, "err", err)
	}
}
