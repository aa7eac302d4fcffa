package send

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/conversation"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/models"
	"chatapp-client/internal/testing/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture holds records every send test needs: two users and a channel.
type fixture struct {
	alice   models.User
	bob     models.User
	carol   models.User
	channel conversation.Target
}

func seed(t *testing.T, store entities.Store) fixture {
	t.Helper()
	ctx := context.Background()

	user := func(name string) models.User {
		u, err := entities.CreateAs[models.User](ctx, store, entities.KindUser, entities.Fields{
			"email":    name + "@example.com",
			"username": name,
		})
		require.NoError(t, err)
		return u
	}

	channel, err := store.Create(ctx, entities.KindChannel, entities.Fields{
		entities.FieldServerID: int64(1),
		"name":                 "general",
		"type":                 "text",
	})
	require.NoError(t, err)

	return fixture{
		alice:   user("alice"),
		bob:     user("bob"),
		carol:   user("carol"),
		channel: conversation.Channel(channel.ID()),
	}
}

// countingSyncer records forced passes and answers with err.
type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (c *countingSyncer) SyncNow(ctx context.Context, target conversation.Target) (conversation.View, error) {
	c.calls.Add(1)
	if c.err != nil {
		return conversation.View{}, c.err
	}
	return conversation.View{Target: target, Key: target.Key()}, nil
}

func newSynchronized(t *testing.T, store entities.Store) *conversation.Synchronizer {
	t.Helper()
	sugar := zap.NewNop().Sugar()
	syncer := conversation.New(conversation.NewStoreFetcher(store, 100, sugar), time.Hour, nil, sugar)
	t.Cleanup(syncer.Close)
	return syncer
}

func waitForView(t *testing.T, syncer *conversation.Synchronizer) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := syncer.View()
		return ok
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSendChannelMessage(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(t)
	f := seed(t, store)
	syncer := newSynchronized(t, store)
	pipeline := New(store, syncer, nil, zap.NewNop().Sugar())

	require.NoError(t, syncer.Open(ctx, f.channel))
	waitForView(t, syncer)

	result, err := pipeline.Send(ctx, f.channel, f.alice, "  hello gophers \n")
	require.NoError(t, err)

	assert.Equal(t, "hello gophers", result.Item.Content)
	assert.Equal(t, f.alice.ID, result.Item.AuthorID())
	assert.True(t, result.Synced)
	assert.True(t, result.View.Contains(result.Item.ID), "the forced pass must see the new message")

	rec, err := store.Get(ctx, entities.KindMessage, result.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec["username"])
	assert.Equal(t, f.channel.ChannelID, rec[entities.FieldChannelID])

	current, ok := syncer.View()
	require.True(t, ok)
	assert.True(t, current.Contains(result.Item.ID))
}

func TestSendUnknownChannelIsNotFound(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	syncer := &countingSyncer{}
	pipeline := New(gate, syncer, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), conversation.Channel(424242), f.alice, "anyone there?")
	assert.ErrorIs(t, err, chaterr.ErrNotFound)
	assert.Zero(t, gate.Creates())
	assert.Zero(t, syncer.calls.Load())
}

func TestSendUnknownPeerIsNotFound(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	pipeline := New(gate, &countingSyncer{}, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), conversation.Direct(f.alice.ID, 999999), f.alice, "hello?")
	assert.ErrorIs(t, err, chaterr.ErrNotFound)
	assert.Zero(t, gate.Creates())
}

func TestSendDirectMessageOrientation(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(t)
	f := seed(t, store)
	pipeline := New(store, &countingSyncer{}, nil, zap.NewNop().Sugar())

	for _, target := range []conversation.Target{conversation.Direct(f.alice.ID, f.bob.ID), conversation.Direct(f.bob.ID, f.alice.ID)} {
		result, err := pipeline.Send(ctx, target, f.alice, "hi bob")
		require.NoError(t, err)

		rec, err := store.Get(ctx, entities.KindDirectMessage, result.Item.ID)
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, rec[entities.FieldSenderID], target)
		assert.Equal(t, f.bob.ID, rec[entities.FieldReceiverID], target)
		assert.Equal(t, "alice", rec["sender_username"])
	}
}

func TestSendDirectRequiresParticipant(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	pipeline := New(gate, &countingSyncer{}, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), conversation.Direct(f.bob.ID, f.carol.ID), f.alice, "hi")
	assert.ErrorIs(t, err, chaterr.ErrInvalid)
	assert.Zero(t, gate.Creates())
}

func TestSendRejectsEmptyContent(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	syncer := &countingSyncer{}
	pipeline := New(gate, syncer, nil, zap.NewNop().Sugar())

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := pipeline.Send(context.Background(), f.channel, f.alice, content)
		assert.ErrorIs(t, err, chaterr.ErrInvalid)
	}
	assert.Zero(t, gate.Creates())
	assert.Zero(t, syncer.calls.Load())
}

func TestSendRequiresAuthor(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	pipeline := New(gate, &countingSyncer{}, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), f.channel, models.User{}, "hi")
	assert.ErrorIs(t, err, chaterr.ErrUnauthenticated)
	assert.Zero(t, gate.Creates())
}

func TestSendForcesExactlyOneSync(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	syncer := &countingSyncer{}
	pipeline := New(store, syncer, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), f.channel, f.alice, "one")
	require.NoError(t, err)
	assert.Equal(t, int32(1), syncer.calls.Load())

	_, err = pipeline.Send(context.Background(), f.channel, f.alice, "two")
	require.NoError(t, err)
	assert.Equal(t, int32(2), syncer.calls.Load())
}

func TestSendRefreshesAuthorsSyncer(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	syncers := map[int64]*countingSyncer{f.alice.ID: {}, f.bob.ID: {}}
	pipeline := NewPerUser(store, func(userID int64) Syncer { return syncers[userID] }, nil, zap.NewNop().Sugar())

	_, err := pipeline.Send(context.Background(), f.channel, f.bob, "from bob")
	require.NoError(t, err)
	assert.Equal(t, int32(1), syncers[f.bob.ID].calls.Load())
	assert.Zero(t, syncers[f.alice.ID].calls.Load())
}

func TestSendSucceedsWhenFollowUpSyncFails(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(t)
	f := seed(t, store)
	syncer := &countingSyncer{err: chaterr.Unavailable(errors.New("timeout"))}
	pipeline := New(store, syncer, nil, zap.NewNop().Sugar())

	result, err := pipeline.Send(ctx, f.channel, f.alice, "still here")
	require.NoError(t, err)
	assert.False(t, result.Synced)

	_, err = store.Get(ctx, entities.KindMessage, result.Item.ID)
	assert.NoError(t, err)
}

func TestSendFailureKeepsNothingInFlight(t *testing.T) {
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	syncer := &countingSyncer{}
	pipeline := New(gate, syncer, nil, zap.NewNop().Sugar())

	gate.FailCreates(entities.KindMessage, chaterr.Unavailable(errors.New("connection reset")))
	_, err := pipeline.Send(context.Background(), f.channel, f.alice, "lost")
	assert.ErrorIs(t, err, chaterr.ErrUnavailable)
	assert.Zero(t, syncer.calls.Load())

	gate.FailCreates(entities.KindMessage, nil)
	_, err = pipeline.Send(context.Background(), f.channel, f.alice, "retry")
	assert.NoError(t, err)
}

func TestConcurrentSendIsBusy(t *testing.T) {
	ctx := context.Background()
	store := storetest.NewStore(t)
	f := seed(t, store)
	gate := storetest.NewGate(store)
	syncer := newSynchronized(t, gate)
	pipeline := New(gate, syncer, nil, zap.NewNop().Sugar())

	require.NoError(t, syncer.Open(ctx, f.channel))
	waitForView(t, syncer)
	for len(gate.Started()) > 0 {
		<-gate.Started()
	}

	// the first send parks in its follow-up pass
	gate.Hold()
	first := make(chan error, 1)
	go func() {
		_, err := pipeline.Send(ctx, f.channel, f.alice, "first")
		first <- err
	}()
	select {
	case <-gate.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("first send never reached its sync")
	}

	_, err := pipeline.Send(ctx, f.channel, f.alice, "second")
	assert.ErrorIs(t, err, chaterr.ErrBusy)
	assert.Equal(t, 1, gate.Creates())

	// other conversations are not blocked
	other := make(chan error, 1)
	go func() {
		_, err := pipeline.Send(ctx, conversation.Direct(f.alice.ID, f.bob.ID), f.alice, "elsewhere")
		other <- err
	}()
	require.Eventually(t, func() bool { return gate.Creates() == 2 }, 2*time.Second, 5*time.Millisecond)

	gate.Release()
	require.NoError(t, <-first)
	require.NoError(t, <-other)

	_, err = pipeline.Send(ctx, f.channel, f.alice, "third")
	assert.NoError(t, err)
}
