package conversation

import (
	"encoding/json"
	"testing"
	"time"

	"chatapp-client/internal/hub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryKeepsUsersApart(t *testing.T) {
	sugar := zap.NewNop().Sugar()
	events := hub.New(sugar, 64)
	aliceEvents := events.Connect(1)
	bobEvents := events.Connect(2)
	require.NoError(t, events.Subscribe(hub.ConversationKey(1), 1))
	require.NoError(t, events.Subscribe(hub.ConversationKey(2), 2))

	fetcher := newFakeFetcher()
	aliceTarget := Direct(1, 3)
	bobTarget := Channel(7)
	fetcher.set(aliceTarget, item(1, 1, tenOClock))
	fetcher.set(bobTarget, item(2, 2, tenOClock))

	registry := NewRegistry(fetcher, time.Hour, events, sugar)
	t.Cleanup(registry.Close)

	require.Same(t, registry.For(1), registry.For(1))

	require.NoError(t, registry.For(1).Open(t.Context(), aliceTarget))
	select {
	case ev := <-aliceEvents:
		var view View
		require.NoError(t, json.Unmarshal(ev.Payload, &view))
		assert.Equal(t, aliceTarget.Key(), view.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("no view update for alice")
	}

	require.NoError(t, registry.For(2).Open(t.Context(), bobTarget))
	select {
	case ev := <-bobEvents:
		var view View
		require.NoError(t, json.Unmarshal(ev.Payload, &view))
		assert.Equal(t, bobTarget.Key(), view.Key)
	case <-time.After(2 * time.Second):
		t.Fatal("no view update for bob")
	}

	// bob opening his conversation leaves alice's displayed
	active, ok := registry.For(1).Active()
	require.True(t, ok)
	assert.Equal(t, aliceTarget.Key(), active.Key())
	assert.Empty(t, aliceEvents, "alice must not see bob's views")

	_, ok = registry.For(3).View()
	assert.False(t, ok)
}
