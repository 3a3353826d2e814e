package graph

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/store"
	"github.com/smallnest/adaptiverag/store/memory"
)

func buildLinear(t *testing.T) *Runnable[testState, testDelta] {
	t.Helper()
	g := NewStateGraph[testState, testDelta]()
	g.SetSchema(testSchema{})
	g.AddNode("a", "", visitNode("a"))
	g.AddNode("b", "", visitNode("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)
	return app
}

func TestStreamEmitsInitialAndPerNodeSnapshots(t *testing.T) {
	app := buildLinear(t)

	snaps, errs := app.Stream(context.Background(), testState{})

	var seen []Snapshot[testState]
	for snap := range snaps {
		seen = append(seen, snap)
	}
	require.NoError(t, <-errs)

	require.Len(t, seen, 3)

	assert.Equal(t, 0, seen[0].Step)
	assert.Equal(t, "", seen[0].Node)
	assert.Empty(t, seen[0].State.Trail)

	assert.Equal(t, 1, seen[1].Step)
	assert.Equal(t, "a", seen[1].Node)
	assert.Equal(t, []string{"a"}, seen[1].State.Trail)

	// last snapshot is the terminal state
	assert.Equal(t, "b", seen[2].Node)
	assert.Equal(t, []string{"a", "b"}, seen[2].State.Trail)
}

func TestStreamErrorDelivery(t *testing.T) {
	boom := errors.New("boom")

	g := NewStateGraph[testState, testDelta]()
	g.SetSchema(testSchema{})
	g.AddNode("ok", "", visitNode("ok"))
	g.AddNode("fail", "", func(ctx context.Context, state testState) (testDelta, error) {
		return testDelta{}, boom
	})
	g.AddEdge("ok", "fail")
	g.AddEdge("fail", END)
	g.SetEntryPoint("ok")

	app, err := g.Compile()
	require.NoError(t, err)

	snaps, errs := app.Stream(context.Background(), testState{})

	var count int
	for range snaps {
		count++
	}
	err = <-errs
	assert.ErrorIs(t, err, boom)
	// initial snapshot plus the one successful node
	assert.Equal(t, 2, count)
}

func TestStreamCancellationIsSilent(t *testing.T) {
	var executions atomic.Int64

	g := NewStateGraph[testState, testDelta]()
	g.SetSchema(testSchema{})
	g.AddNode("spin", "", func(ctx context.Context, state testState) (testDelta, error) {
		executions.Add(1)
		return testDelta{Inc: 1}, nil
	})
	g.AddConditionalEdge("spin", func(ctx context.Context, state testState) string {
		return "spin"
	})
	g.SetEntryPoint("spin")
	g.SetMaxSteps(1_000_000)

	ctx, cancel := context.WithCancel(context.Background())
	app, err := g.Compile()
	require.NoError(t, err)

	snaps, errs := app.Stream(ctx, testState{})

	<-snaps // initial
	<-snaps // first node
	cancel()

	// drain: the channel must close without an error event
	for range snaps {
	}
	assert.NoError(t, <-errs)

	// execution is pull-driven: at most one node beyond what was consumed
	assert.LessOrEqual(t, executions.Load(), int64(3))
}

func TestStreamIsLazy(t *testing.T) {
	var executions atomic.Int64

	g := NewStateGraph[testState, testDelta]()
	g.SetSchema(testSchema{})
	g.AddNode("tick", "", func(ctx context.Context, state testState) (testDelta, error) {
		executions.Add(1)
		return testDelta{Inc: 1}, nil
	})
	g.AddConditionalEdge("tick", func(ctx context.Context, state testState) string {
		if state.Count >= 20 {
			return END
		}
		return "tick"
	})
	g.SetEntryPoint("tick")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := g.Compile()
	require.NoError(t, err)

	snaps, _ := app.Stream(ctx, testState{})

	<-snaps // initial snapshot only
	time.Sleep(50 * time.Millisecond)

	// producer blocks on the unbuffered channel after running one node ahead
	assert.LessOrEqual(t, executions.Load(), int64(2))
	cancel()
	for range snaps {
	}
}

func TestStreamWithCheckpoints(t *testing.T) {
	app := buildLinear(t)
	cps := memory.NewCheckpointStore()

	snaps, errs := app.Stream(context.Background(), testState{},
		WithCheckpoints(cps, "sess-1"))

	for range snaps {
	}
	require.NoError(t, <-errs)

	history, err := cps.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "", history[0].NodeName)
	assert.Equal(t, "a", history[1].NodeName)
	assert.Equal(t, "b", history[2].NodeName)

	var final testState
	require.NoError(t, json.Unmarshal(history[2].State, &final))
	assert.Equal(t, []string{"a", "b"}, final.Trail)
}

type failingStore struct{}

func (failingStore) Put(ctx context.Context, cp *store.Checkpoint) error {
	return errors.New("store unavailable")
}

func (failingStore) History(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) Clear(ctx context.Context, sessionID string) error {
	return errors.New("store unavailable")
}

func TestStreamCheckpointFailureIsNotFatal(t *testing.T) {
	app := buildLinear(t)

	snaps, errs := app.Stream(context.Background(), testState{},
		WithCheckpoints(failingStore{}, "sess-1"),
		WithLogger(&log.NoOpLogger{}))

	var last Snapshot[testState]
	for snap := range snaps {
		last = snap
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"a", "b"}, last.State.Trail)
}
