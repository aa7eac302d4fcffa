// Package send posts messages to a conversation and brings the displayed
// view up to date right after.
package send

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/conversation"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/metrics"
	"chatapp-client/internal/models"

	"go.uber.org/zap"
)

// Syncer runs an unscheduled synchronization pass.
type Syncer interface {
	SyncNow(ctx context.Context, target conversation.Target) (conversation.View, error)
}

type Result struct {
	Item conversation.Item `json:"item"`
	View conversation.View `json:"view"`
	// false when the follow-up pass failed; the next scheduled one shows the message
	Synced bool `json:"synced"`
}

type Pipeline struct {
	store    entities.Store
	syncerOf func(userID int64) Syncer
	eventKey func(userID int64) string
	hub      *hub.Hub
	sugar    *zap.SugaredLogger

	mutex    sync.Mutex
	inFlight map[string]struct{}
}

// New returns a Pipeline whose sends all refresh syncer. events may be nil.
func New(store entities.Store, syncer Syncer, events *hub.Hub, sugar *zap.SugaredLogger) *Pipeline {
	p := NewPerUser(store, func(int64) Syncer { return syncer }, events, sugar)
	p.eventKey = func(int64) string { return hub.KeyConversation }
	return p
}

// NewPerUser returns a Pipeline that refreshes the author's own
// synchronizer and emits on the author's conversation key.
func NewPerUser(store entities.Store, syncerOf func(userID int64) Syncer, events *hub.Hub, sugar *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		store:    store,
		syncerOf: syncerOf,
		eventKey: hub.ConversationKey,
		hub:      events,
		sugar:    sugar,
		inFlight: make(map[string]struct{}),
	}
}

// Send persists content as a message from author in target and then forces
// one synchronization pass. Only one send per author and conversation may
// be in flight. A channel or peer that does not exist is
// chaterr.ErrNotFound and nothing is written.
func (p *Pipeline) Send(ctx context.Context, target conversation.Target, author models.User, content string) (Result, error) {
	mode := string(target.Mode)

	if err := target.Validate(); err != nil {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendInvalid).Inc()
		return Result{}, err
	}
	if author.ID == 0 {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendInvalid).Inc()
		return Result{}, chaterr.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendInvalid).Inc()
		return Result{}, chaterr.Invalid("message is empty")
	}

	if target.Mode == conversation.ModeDirect && author.ID != target.Self && author.ID != target.Peer {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendInvalid).Inc()
		return Result{}, chaterr.Invalid("user %d is not part of %s", author.ID, target)
	}

	if err := conversation.Resolve(ctx, p.store, target); err != nil {
		result := metrics.SendError
		if errors.Is(err, chaterr.ErrNotFound) {
			result = metrics.SendInvalid
		}
		metrics.SendsTotal.WithLabelValues(mode, result).Inc()
		return Result{}, err
	}

	key := fmt.Sprintf("%d/%s", author.ID, target.Key())
	if !p.acquire(key) {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendBusy).Inc()
		return Result{}, chaterr.ErrBusy
	}
	defer p.release(key)

	item, err := p.create(ctx, target, author, content)
	if err != nil {
		metrics.SendsTotal.WithLabelValues(mode, metrics.SendError).Inc()
		p.sugar.Warnf("Sending to %s failed: %v", target, err)
		return Result{}, err
	}
	metrics.SendsTotal.WithLabelValues(mode, metrics.SendOK).Inc()

	if p.hub != nil {
		if err := p.hub.Emit(hub.MessageSent, p.eventKey(author.ID), item); err != nil {
			p.sugar.Error(err)
		}
	}

	result := Result{Item: item}

	view, err := p.syncerOf(author.ID).SyncNow(ctx, target)
	if err != nil {
		if !errors.Is(err, conversation.ErrAbandoned) {
			p.sugar.Warnf("Message ID %d was sent but %s could not be refreshed: %v", item.ID, target, err)
		}
		return result, nil
	}

	result.View = view
	result.Synced = true
	return result, nil
}

func (p *Pipeline) create(ctx context.Context, target conversation.Target, author models.User, content string) (conversation.Item, error) {
	if target.Mode == conversation.ModeChannel {
		msg, err := entities.CreateAs[models.Message](ctx, p.store, entities.KindMessage, entities.Fields{
			entities.FieldChannelID: target.ChannelID,
			entities.FieldUserID:    author.ID,
			"username":              author.Handle(),
			"content":               content,
		})
		if err != nil {
			return conversation.Item{}, err
		}
		return conversation.FromMessage(msg), nil
	}

	receiver := target.Peer
	if author.ID == target.Peer {
		receiver = target.Self
	}

	dm, err := entities.CreateAs[models.DirectMessage](ctx, p.store, entities.KindDirectMessage, entities.Fields{
		entities.FieldSenderID:   author.ID,
		entities.FieldReceiverID: receiver,
		"sender_username":        author.Handle(),
		"content":                content,
	})
	if err != nil {
		return conversation.Item{}, err
	}
	return conversation.FromDirectMessage(dm), nil
}

func (p *Pipeline) acquire(key string) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, busy := p.inFlight[key]; busy {
		return false
	}
	p.inFlight[key] = struct{}{}
	return true
}

func (p *Pipeline) release(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	delete(p.inFlight, key)
}
