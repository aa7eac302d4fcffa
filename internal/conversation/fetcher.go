package conversation

import (
	"context"
	"slices"

	"chatapp-client/internal/entities"
	"chatapp-client/internal/models"

	"go.uber.org/zap"
)

// Fetcher produces the full canonical sequence of a conversation on every
// call. Nothing is carried over between calls.
// Fetcher reads whole conversations. Resolve reports chaterr.ErrNotFound
// for a target whose channel or users do not exist.
type Fetcher interface {
	Fetch(ctx context.Context, target Target) ([]Item, error)
	Resolve(ctx context.Context, target Target) error
}

// StoreFetcher refetches conversations from an entities.Store.
type StoreFetcher struct {
	store  entities.Store
	window int
	sugar  *zap.SugaredLogger
}

func NewStoreFetcher(store entities.Store, window int, sugar *zap.SugaredLogger) *StoreFetcher {
	return &StoreFetcher{store: store, window: window, sugar: sugar}
}

func (f *StoreFetcher) Fetch(ctx context.Context, target Target) ([]Item, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	if target.Mode == ModeChannel {
		return f.fetchChannel(ctx, target)
	}
	return f.fetchDirect(ctx, target)
}

func (f *StoreFetcher) Resolve(ctx context.Context, target Target) error {
	return Resolve(ctx, f.store, target)
}

// Resolve checks that the channel of target, or both users of a direct
// target, exist in store.
func Resolve(ctx context.Context, store entities.Store, target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	if target.Mode == ModeChannel {
		_, err := store.Get(ctx, entities.KindChannel, target.ChannelID)
		return err
	}

	for _, userID := range []int64{target.Self, target.Peer} {
		_, err := store.Get(ctx, entities.KindUser, userID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *StoreFetcher) fetchChannel(ctx context.Context, target Target) ([]Item, error) {
	// newest first so the limit keeps the most recent window
	recs, err := f.store.Filter(ctx, entities.KindMessage, entities.Query{
		Where:   entities.Fields{entities.FieldChannelID: target.ChannelID},
		OrderBy: entities.Desc(entities.FieldCreatedDate),
		Limit:   f.window,
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(recs)

	msgs, errs := entities.DecodeEach[models.Message](recs)
	f.logSkipped(target, errs)

	items := make([]Item, len(msgs))
	for i, m := range msgs {
		items[i] = FromMessage(m)
	}

	// a single set, so this only settles timestamp ties by identifier
	return Merge(items), nil
}

func (f *StoreFetcher) fetchDirect(ctx context.Context, target Target) ([]Item, error) {
	sent, err := f.direct(ctx, target, target.Self, target.Peer)
	if err != nil {
		return nil, err
	}

	received, err := f.direct(ctx, target, target.Peer, target.Self)
	if err != nil {
		return nil, err
	}

	return Merge(sent, received), nil
}

func (f *StoreFetcher) direct(ctx context.Context, target Target, sender, receiver int64) ([]Item, error) {
	recs, err := f.store.Filter(ctx, entities.KindDirectMessage, entities.Query{
		Where: entities.Fields{
			entities.FieldSenderID:   sender,
			entities.FieldReceiverID: receiver,
		},
		OrderBy: entities.FieldCreatedDate,
	})
	if err != nil {
		return nil, err
	}

	dms, errs := entities.DecodeEach[models.DirectMessage](recs)
	f.logSkipped(target, errs)

	items := make([]Item, len(dms))
	for i, d := range dms {
		items[i] = FromDirectMessage(d)
	}
	return items, nil
}

func (f *StoreFetcher) logSkipped(target Target, errs []error) {
	for _, err := range errs {
		f.sugar.Warnf("Skipping record in %s: %v", target, err)
	}
}
