package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/store"
)

func newTestStore(t *testing.T) *CheckpointStore {
	t.Helper()
	s, err := NewCheckpointStore(Options{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqliteCheckpointStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessionID := "sess-1"
	cp := &store.Checkpoint{
		ID:        "cp-0",
		SessionID: sessionID,
		Step:      0,
		NodeName:  "",
		State:     json.RawMessage(`{"question":"what is prompt engineering?"}`),
		Timestamp: time.Now().UTC(),
	}

	require.NoError(t, s.Put(ctx, cp))

	history, err := s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "cp-0", history[0].ID)
	assert.JSONEq(t, string(cp.State), string(history[0].State))
}

func TestSqliteCheckpointStore_StepOrderAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessionID := "sess-1"
	for _, step := range []int{2, 0, 1} {
		require.NoError(t, s.Put(ctx, &store.Checkpoint{
			ID:        "cp",
			SessionID: sessionID,
			Step:      step,
			NodeName:  "retrieve",
			State:     json.RawMessage(`{}`),
			Timestamp: time.Now().UTC(),
		}))
	}

	history, err := s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, cp := range history {
		assert.Equal(t, i, cp.Step)
	}

	// same step, new record wins
	require.NoError(t, s.Put(ctx, &store.Checkpoint{
		ID:        "cp-new",
		SessionID: sessionID,
		Step:      1,
		NodeName:  "websearch",
		State:     json.RawMessage(`{"web_search_needed":true}`),
		Timestamp: time.Now().UTC(),
	}))

	history, err = s.History(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "websearch", history[1].NodeName)
}

func TestSqliteCheckpointStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, &store.Checkpoint{
		ID: "a", SessionID: "sess-1", Step: 0, State: json.RawMessage(`{}`), Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, s.Put(ctx, &store.Checkpoint{
		ID: "b", SessionID: "sess-2", Step: 0, State: json.RawMessage(`{}`), Timestamp: time.Now().UTC(),
	}))

	require.NoError(t, s.Clear(ctx, "sess-1"))

	history, err := s.History(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = s.History(ctx, "sess-2")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
