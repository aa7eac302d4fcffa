package conversation

import (
	"sync"
	"time"

	"chatapp-client/internal/hub"

	"go.uber.org/zap"
)

// Registry keeps one Synchronizer per user, so each user has their own
// displayed conversation. Views are emitted on hub.ConversationKey of the
// owning user.
type Registry struct {
	fetcher  Fetcher
	interval time.Duration
	hub      *hub.Hub
	sugar    *zap.SugaredLogger

	mutex   sync.Mutex
	syncers map[int64]*Synchronizer
}

func NewRegistry(fetcher Fetcher, interval time.Duration, events *hub.Hub, sugar *zap.SugaredLogger) *Registry {
	return &Registry{
		fetcher:  fetcher,
		interval: interval,
		hub:      events,
		sugar:    sugar,
		syncers:  make(map[int64]*Synchronizer),
	}
}

// For returns the Synchronizer of userID, creating it on first use.
func (r *Registry) For(userID int64) *Synchronizer {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, exists := r.syncers[userID]
	if !exists {
		s = New(r.fetcher, r.interval, r.hub, r.sugar.With("userID", userID))
		s.eventKey = hub.ConversationKey(userID)
		r.syncers[userID] = s
	}
	return s
}

// Close stops every user's polling.
func (r *Registry) Close() {
	r.mutex.Lock()
	syncers := make([]*Synchronizer, 0, len(r.syncers))
	for _, s := range r.syncers {
		syncers = append(syncers, s)
	}
	r.mutex.Unlock()

	for _, s := range syncers {
		s.Close()
	}
}
