// Package archive is an optional sink that appends every confirmed
// message to a local Mongo collection, for bridge deployments that keep
// searchable history. The engine works identically with a nil archiver.
package archive

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
)

type Archiver struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.SugaredLogger
}

type Config struct {
	URI        string
	Database   string
	Collection string
}

func Connect(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*Archiver, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Archiver{client: client, coll: coll, log: log}, nil
}

// Append stores one confirmed message under its conversation key.
// Best-effort: failures are logged, never propagated into event
// handling.
func (a *Archiver) Append(key model.ConversationKey, msg *model.Message) {
	if a == nil || msg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := bson.M{
		"conversation_id":   key.ID,
		"conversation_type": key.Type,
		"message_id":        msg.ID,
		"sender_id":         msg.SenderID,
		"message_type":      msg.Type,
		"content":           msg.Content,
		"created_at":        msg.CreatedAt.Time,
		"archived_at":       time.Now().UTC(),
	}
	if _, err := a.coll.InsertOne(ctx, doc); err != nil {
		a.log.Warnw("archive append failed", "messageId", msg.ID, "err", err)
	}
}

// MarkDeleted blanks archived copies of deleted messages.
func (a *Archiver) MarkDeleted(ids []model.ID) {
	if a == nil || len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	_, err := a.coll.UpdateMany(ctx,
		bson.M{"message_id": bson.M{"$in": raw}},
		bson.M{"$set": bson.M{"content": "", "deleted": true}},
	)
	if err != nil {
		a.log.Warnw("archive delete mark failed", "err", err)
	}
}

func (a *Archiver) Close(ctx context.Context) error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
