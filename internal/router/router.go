// Package router subscribes to the transport's named events and keeps
// the message store, conversation index and presence map consistent.
// All handlers run on a single event goroutine in delivery order, so
// each event mutates shared state transactionally.
package router

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/archive"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/dedup"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/index"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/metrics"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/model"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/notify"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/presence"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/store"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/transport"
)

type Options struct {
	Log       *zap.SugaredLogger
	Transport transport.Transport
	Store     *store.Store
	Index     *index.Index
	Presence  *presence.Map
	Guard     *dedup.Guard
	Archive   *archive.Archiver
	Notifier  notify.Notifier
	Decrypt   notify.Decrypter

	UserID       model.ID
	ReadReceipts bool
	Heartbeat    time.Duration
}

type Router struct {
	log      *zap.SugaredLogger
	tr       transport.Transport
	store    *store.Store
	index    *index.Index
	presence *presence.Map
	guard    *dedup.Guard
	guardCap int
	arch     *archive.Archiver
	notifier notify.Notifier
	decrypt  notify.Decrypter

	userID       model.ID
	readReceipts bool
	heartbeat    time.Duration

	focused atomic.Bool

	queue chan func()
	done  chan struct{}
	wg    sync.WaitGroup
}

func New(opts Options) *Router {
	guard := opts.Guard
	if guard == nil {
		guard = dedup.New(dedup.DefaultCap)
	}
	hb := opts.Heartbeat
	if hb == 0 {
		hb = 30 * time.Second
	}
	r := &Router{
		log:          opts.Log,
		tr:           opts.Transport,
		store:        opts.Store,
		index:        opts.Index,
		presence:     opts.Presence,
		guard:        guard,
		guardCap:     guard.Cap(),
		arch:         opts.Archive,
		notifier:     opts.Notifier,
		decrypt:      opts.Decrypt,
		userID:       opts.UserID,
		readReceipts: opts.ReadReceipts,
		heartbeat:    hb,
		queue:        make(chan func(), 256),
		done:         make(chan struct{}),
	}
	r.focused.Store(true)
	return r
}

// Start subscribes the transport and launches the event goroutine.
func (r *Router) Start() {
	r.tr.Subscribe(func(event string, data json.RawMessage) {
		r.enqueue(func() { r.Handle(event, data) })
	})
	r.tr.OnConnected(func() {
		r.enqueue(func() { r.onConnected() })
	})
	r.tr.OnDisconnected(func(err error) {
		r.log.Warnw("transport disconnected", "err", err)
	})

	r.wg.Add(1)
	go r.loop()
}

func (r *Router) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case fn := <-r.queue:
			fn()
		case <-ticker.C:
			// idempotent presence re-announce
			r.emit(model.EvSetOnline, nil)
		case <-r.done:
			for {
				select {
				case fn := <-r.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}

func (r *Router) enqueue(fn func()) {
	select {
	case r.queue <- fn:
	case <-r.done:
	}
}

// Flush blocks until every event enqueued before it has been handled.
func (r *Router) Flush() {
	ch := make(chan struct{})
	r.enqueue(func() { close(ch) })
	select {
	case <-ch:
	case <-r.done:
	}
}

// Close unsubscribes the transport, drains pending events and stops the
// event goroutine. No handler can run after Close returns, so callers
// may safely clear or swap state next.
func (r *Router) Close() error {
	err := r.tr.Close()
	close(r.done)
	r.wg.Wait()
	return err
}

// Reset purges all session state: store, index, presence and the dedup
// guard. Used on logout and account switch as one atomic step on the
// event goroutine.
func (r *Router) Reset() {
	r.enqueue(func() {
		r.store.Reset()
		r.index.Purge()
		r.presence.Reset()
		r.guard = dedup.New(r.guardCap)
		metrics.IndexSize.Set(0)
		r.log.Infow("session state reset")
	})
}

// SetFocused records whether the window has focus; unfocused sessions
// count unread and hold back seen-acknowledgements.
func (r *Router) SetFocused(focused bool) {
	r.focused.Store(focused)
}

// OpenConversation switches the open chat. Opening marks the
// conversation read and acknowledges its last message.
func (r *Router) OpenConversation(key model.ConversationKey) {
	r.enqueue(func() {
		r.store.Open(key)
		r.index.MarkRead(key)
		if conv := r.index.Get(key); conv != nil && conv.LastMessage != nil &&
			!model.EqualID(conv.LastMessage.SenderID, r.userID) {
			r.ackSeen(key, conv.LastMessage)
		}
	})
}

// CloseConversation leaves no chat open.
func (r *Router) CloseConversation() {
	r.enqueue(func() { r.store.CloseConversation() })
}

// AddOptimistic registers a locally-created pending message and shows
// it in the open chat and the index immediately. A missing client id is
// assigned so the send can be reconciled or discarded later.
func (r *Router) AddOptimistic(msg *model.Message) {
	if msg.ClientID.Empty() {
		msg.ClientID = model.ID("local-" + uuid.New().String())
	}
	r.enqueue(func() {
		res, err := r.resolve(msg)
		if err != nil {
			r.log.Warnw("optimistic message without conversation key", "err", err)
			return
		}
		if r.store.IsOpen(res.Key) {
			r.store.AddOptimistic(msg)
		}
		r.index.ApplyMessage(res.Key, msg, false, false)
	})
}

// DiscardOptimistic removes a pending message whose send failed.
func (r *Router) DiscardOptimistic(clientID model.ID) {
	r.enqueue(func() { r.store.DiscardOptimistic(clientID) })
}

func (r *Router) onConnected() {
	r.log.Infow("transport connected", "user", r.userID)
	r.emit(model.EvJoinRoom, model.JoinRoom{UserID: r.userID})
	r.emit(model.EvSetOnline, nil)
	r.emit(model.EvRequestStatuses, nil)
}

func (r *Router) emit(event string, payload any) {
	if err := r.tr.Emit(event, payload); err != nil {
		r.log.Warnw("emit failed", "event", event, "err", err)
		return
	}
	if event == model.EvMarkDelivered || event == model.EvMarkLastSeen {
		metrics.AcksEmitted.WithLabelValues(event).Inc()
	}
}
