package graph

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/store"
)

// Snapshot is the full merged state after a node transition. Step 0 carries
// the initial state with an empty Node name; the last snapshot before the
// channel closes is the terminal state.
type Snapshot[S any] struct {
	Step  int
	Node  string
	State S
}

// StreamOption configures a single Stream call.
type StreamOption func(*streamConfig)

type streamConfig struct {
	checkpoints store.CheckpointStore
	sessionID   string
	logger      log.Logger
}

// WithCheckpoints persists every snapshot to cps keyed by (sessionID, step).
// A failed write is logged and the run continues.
func WithCheckpoints(cps store.CheckpointStore, sessionID string) StreamOption {
	return func(c *streamConfig) {
		c.checkpoints = cps
		c.sessionID = sessionID
	}
}

// WithLogger sets the logger used for non-fatal stream events.
func WithLogger(logger log.Logger) StreamOption {
	return func(c *streamConfig) {
		c.logger = logger
	}
}

// Stream executes the graph in a goroutine and hands out one snapshot per
// node transition on an unbuffered channel, so execution stays at most one
// snapshot ahead of the consumer. The error channel delivers at most one
// fatal error; both channels are closed when the run ends. Cancelling ctx
// abandons the run at the next suspension point without emitting anything
// further.
func (r *Runnable[S, D]) Stream(ctx context.Context, initialState S, opts ...StreamOption) (<-chan Snapshot[S], <-chan error) {
	cfg := &streamConfig{logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(cfg)
	}

	snaps := make(chan Snapshot[S])
	errs := make(chan error, 1)

	go func() {
		defer close(snaps)
		defer close(errs)

		_, err := r.run(ctx, initialState, func(snap Snapshot[S]) bool {
			select {
			case snaps <- snap:
			case <-ctx.Done():
				return false
			}
			saveCheckpoint(ctx, cfg, snap)
			return true
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()

	return snaps, errs
}

func saveCheckpoint[S any](ctx context.Context, cfg *streamConfig, snap Snapshot[S]) {
	if cfg.checkpoints == nil {
		return
	}

	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		cfg.logger.Warn("checkpoint marshal failed for session %s step %d: %v", cfg.sessionID, snap.Step, err)
		return
	}

	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		SessionID: cfg.sessionID,
		Step:      snap.Step,
		NodeName:  snap.Node,
		State:     stateJSON,
		Timestamp: time.Now().UTC(),
	}

	if err := cfg.checkpoints.Put(ctx, cp); err != nil {
		cfg.logger.Warn("checkpoint write failed for session %s step %d: %v", cfg.sessionID, snap.Step, err)
	}
}
