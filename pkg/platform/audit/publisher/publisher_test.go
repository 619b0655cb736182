package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "haven/pkg/domain"
	"haven/pkg/platform/audit"
)

func testActorID(t *testing.T) id.ActorID {
	t.Helper()
	actorID, err := id.ParseActorID("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	require.NoError(t, err)
	return actorID
}

func TestEmitSyncPersistsImmediately(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store)

	actorID := testActorID(t)
	err := p.Emit(context.Background(), audit.Event{
		ActorID:  actorID,
		Action:   string(audit.ActionPolicyEvaluated),
		Rule:     "SCOPE_PUBLIC",
		Decision: audit.DecisionAllow,
	})
	require.NoError(t, err)

	events, err := p.List(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "SCOPE_PUBLIC", events[0].Rule)
	assert.False(t, events[0].Timestamp.IsZero(), "timestamp defaulted on emit")
}

func TestEmitAsyncDrainsOnClose(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store, WithAsyncBuffer(16))

	actorID := testActorID(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Emit(context.Background(), audit.Event{
			ActorID:  actorID,
			Action:   string(audit.ActionConsentValidated),
			Decision: audit.DecisionDeny,
		}))
	}
	p.Close()

	events, err := store.ListByActor(context.Background(), actorID)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestEmitPreservesExplicitTimestamp(t *testing.T) {
	store := audit.NewInMemoryStore()
	p := New(store)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	actorID := testActorID(t)
	require.NoError(t, p.Emit(context.Background(), audit.Event{
		ActorID:   actorID,
		Timestamp: ts,
	}))

	events, err := store.ListByActor(context.Background(), actorID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
}
