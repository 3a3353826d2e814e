package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/store"
)

func TestRedisCheckpointStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewCheckpointStore(Options{Addr: mr.Addr()})
	defer s.Close()

	ctx := context.Background()
	sessionID := "sess-123"

	cp := &store.Checkpoint{
		ID:        "cp-1",
		SessionID: sessionID,
		Step:      0,
		NodeName:  "",
		State:     json.RawMessage(`{"question":"what is agent memory?"}`),
		Timestamp: time.Now(),
	}

	require.NoError(t, s.Put(ctx, cp))

	history, err := s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "cp-1", history[0].ID)
	assert.JSONEq(t, `{"question":"what is agent memory?"}`, string(history[0].State))

	// steps come back sorted even when written out of order
	cp3 := &store.Checkpoint{ID: "cp-3", SessionID: sessionID, Step: 2, NodeName: "generate"}
	cp2 := &store.Checkpoint{ID: "cp-2", SessionID: sessionID, Step: 1, NodeName: "retrieve"}
	require.NoError(t, s.Put(ctx, cp3))
	require.NoError(t, s.Put(ctx, cp2))

	history, err = s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"", "retrieve", "generate"},
		[]string{history[0].NodeName, history[1].NodeName, history[2].NodeName})

	// overwriting the same step replaces the record
	require.NoError(t, s.Put(ctx, &store.Checkpoint{ID: "cp-2b", SessionID: sessionID, Step: 1, NodeName: "websearch"}))
	history, err = s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "websearch", history[1].NodeName)

	// Clear
	require.NoError(t, s.Clear(ctx, sessionID))
	history, err = s.History(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, history, 0)
}

func TestRedisCheckpointStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewCheckpointStore(Options{Addr: mr.Addr(), TTL: time.Minute})
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &store.Checkpoint{ID: "cp-1", SessionID: "sess-ttl", Step: 0}))

	mr.FastForward(2 * time.Minute)

	history, err := s.History(ctx, "sess-ttl")
	require.NoError(t, err)
	assert.Len(t, history, 0)
}
