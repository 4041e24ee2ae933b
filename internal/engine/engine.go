// Package engine wires the sync components together from config and
// owns their lifecycle: identity, transport, router, snapshot cache,
// archive sink and the status API.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/api"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/archive"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/auth"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/config"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/dedup"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/index"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/notify"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/presence"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/router"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/snapshot"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/store"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/transport"
	kafkatr "github.com/888MAXiM/meetzy-frontend-sub001/internal/transport/kafka"
	wstr "github.com/888MAXiM/meetzy-frontend-sub001/internal/transport/ws"
)

// connector is a transport that must be dialed before use.
type connector interface {
	transport.Transport
	Connect(ctx context.Context) error
}

type Options struct {
	Notifier notify.Notifier
	Decrypt  notify.Decrypter
}

type Engine struct {
	cfg *config.Config
	log *zap.SugaredLogger

	userID model.ID
	tr     connector
	router *router.Router
	index  *index.Index
	pres   *presence.Map
	snap   *snapshot.Cache
	arch   *archive.Archiver
	app    *fiber.App
}

func New(cfg *config.Config, log *zap.SugaredLogger, opts Options) (*Engine, error) {
	token := cfg.Auth.Token
	if token == "" && cfg.Auth.TokenPath != "" {
		b, err := os.ReadFile(cfg.Auth.TokenPath)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(b))
	}
	if token == "" {
		return nil, errors.New("engine: no access token configured")
	}
	ident, err := auth.IdentityFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !ident.ExpiresAt.IsZero() && ident.ExpiresAt.Before(time.Now()) {
		log.Warnw("access token already expired", "expiresAt", ident.ExpiresAt)
	}

	e := &Engine{cfg: cfg, log: log, userID: ident.UserID}

	var mirror presence.Mirror
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		mirror = presence.NewRedisMirror(client, cfg.Redis.Prefix, 2*cfg.Heartbeat, log)
	}
	e.pres = presence.NewMap(mirror)
	e.index = index.New(log)

	if cfg.Snapshot.Path != "" {
		snap, err := snapshot.Open(cfg.Snapshot.Path, log)
		if err != nil {
			return nil, err
		}
		e.snap = snap
		saved, err := snap.Load()
		if err != nil {
			log.Warnw("snapshot load failed", "err", err)
		} else if len(saved) > 0 {
			e.index.Restore(saved)
			log.Infow("restored conversations from snapshot", "count", len(saved))
		}
	}

	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		arch, err := archive.Connect(ctx, archive.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect archive: %w", err)
		}
		e.arch = arch
	}

	switch cfg.Transport.Kind {
	case "kafka":
		e.tr = kafkatr.New(kafkatr.Config{
			Brokers:  cfg.Transport.KafkaBrokers,
			TopicIn:  cfg.Transport.KafkaTopicIn,
			TopicOut: cfg.Transport.KafkaTopicOut,
			GroupID:  cfg.Transport.KafkaGroupID,
		}, log)
	case "ws":
		e.tr = wstr.New(wstr.Config{URL: cfg.Transport.WSURL, Token: token}, log)
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Func(func(key model.ConversationKey, title, body string) {
			log.Infow("notification", "conversation", key.String(), "title", title)
		})
	}

	st := store.New(log, store.Windows{
		PlainBefore:   cfg.PlainBefore,
		PlainAfter:    cfg.PlainAfter,
		EncryptBefore: cfg.EncryptBefore,
		EncryptAfter:  cfg.EncryptAfter,
	}, store.NewLeaveMarkers(), ident.UserID)

	e.router = router.New(router.Options{
		Log:          log,
		Transport:    e.tr,
		Store:        st,
		Index:        e.index,
		Presence:     e.pres,
		Guard:        dedup.New(cfg.Engine.DedupCap),
		Archive:      e.arch,
		Notifier:     notifier,
		Decrypt:      opts.Decrypt,
		UserID:       ident.UserID,
		ReadReceipts: cfg.Engine.ReadReceipts,
		Heartbeat:    cfg.Heartbeat,
	})
	return e, nil
}

// Router exposes the running router for embedding callers (open
// conversation, focus changes, optimistic writes).
func (e *Engine) Router() *router.Router { return e.router }

// Reset clears the session state on logout or account switch: the
// in-memory state via the router and the on-disk snapshot, so the next
// session cannot restore the previous user's conversations.
func (e *Engine) Reset() error {
	e.router.Reset()
	if e.snap == nil {
		return nil
	}
	return e.snap.Purge()
}

// Run connects and blocks until ctx is cancelled, then tears down in
// order: transport first so no handler can fire, then state and sinks.
func (e *Engine) Run(ctx context.Context) error {
	e.router.Start()
	if err := e.tr.Connect(ctx); err != nil {
		return fmt.Errorf("connect transport: %w", err)
	}
	e.log.Infow("sync engine running", "user", e.userID, "transport", e.cfg.Transport.Kind)

	e.app = api.NewServer(e.index, e.pres)
	go func() {
		if err := e.app.Listen(e.cfg.API.Addr); err != nil {
			e.log.Warnw("status api stopped", "err", err)
		}
	}()

	flush := time.NewTicker(e.cfg.SnapshotFlush)
	defer flush.Stop()
	for {
		select {
		case <-flush.C:
			e.flushSnapshot()
		case <-ctx.Done():
			return e.shutdown()
		}
	}
}

func (e *Engine) flushSnapshot() {
	if e.snap == nil {
		return
	}
	if err := e.snap.Save(e.index.Snapshot()); err != nil {
		e.log.Warnw("snapshot flush failed", "err", err)
	}
}

func (e *Engine) shutdown() error {
	e.log.Infow("shutting down")
	err := e.router.Close()
	e.flushSnapshot()
	if e.snap != nil {
		if cerr := e.snap.Close(); err == nil {
			err = cerr
		}
	}
	if e.arch != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := e.arch.Close(ctx); err == nil {
			err = cerr
		}
	}
	if e.app != nil {
		_ = e.app.Shutdown()
	}
	return err
}
