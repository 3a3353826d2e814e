package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/adaptiverag/graph"
	"github.com/smallnest/adaptiverag/llm"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/retriever"
	"github.com/smallnest/adaptiverag/store"
	"github.com/smallnest/adaptiverag/tool"
)

// DefaultMaxRetries is the regeneration budget used when a request does not
// set one.
const DefaultMaxRetries = 3

// Engine runs adaptive RAG workflows over a compiled graph, with optional
// checkpointing of every step.
type Engine struct {
	app         *graph.Runnable[State, Delta]
	retriever   retriever.Retriever
	checkpoints store.CheckpointStore
	logger      log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRetriever sets the default knowledge-base retriever. Individual
// requests may still override it.
func WithRetriever(r retriever.Retriever) EngineOption {
	return func(e *Engine) {
		e.retriever = r
	}
}

// WithCheckpointStore persists every workflow step for later history lookup.
func WithCheckpointStore(cps store.CheckpointStore) EngineOption {
	return func(e *Engine) {
		e.checkpoints = cps
	}
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine compiles the workflow graph around the given model and search
// client.
func NewEngine(model llm.Model, search tool.SearchClient, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		logger: log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	app, err := Build(Config{
		Model:  model,
		Search: search,
		Logger: e.logger,
	})
	if err != nil {
		return nil, err
	}
	e.app = app
	return e, nil
}

// Request describes one workflow run.
type Request struct {
	// Question is the user's question. Required.
	Question string

	// SessionID keys checkpoints. Empty means a fresh random session.
	SessionID string

	// MaxRetries bounds regeneration. Zero means DefaultMaxRetries.
	MaxRetries int

	// Retriever overrides the engine's default retriever for this run.
	Retriever retriever.Retriever
}

func (e *Engine) initialState(req Request) State {
	r := req.Retriever
	if r == nil {
		r = e.retriever
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return State{
		Question:   req.Question,
		MaxRetries: maxRetries,
		SessionID:  sessionID,
		Retriever:  r,
	}
}

// Stream starts a run and returns its snapshot and error channels. The first
// snapshot is the initial state; the last one before the channel closes holds
// the final answer.
func (e *Engine) Stream(ctx context.Context, req Request) (<-chan graph.Snapshot[State], <-chan error) {
	state := e.initialState(req)

	opts := []graph.StreamOption{graph.WithLogger(e.logger)}
	if e.checkpoints != nil {
		opts = append(opts, graph.WithCheckpoints(e.checkpoints, state.SessionID))
	}

	e.logger.Info("starting workflow session %s: %q", state.SessionID, state.Question)
	return e.app.Stream(ctx, state, opts...)
}

// Ask runs the workflow to completion and returns the final state. Steps are
// checkpointed the same way Stream checkpoints them.
func (e *Engine) Ask(ctx context.Context, req Request) (State, error) {
	snaps, errs := e.Stream(ctx, req)

	var final State
	for snap := range snaps {
		final = snap.State
	}
	if err := <-errs; err != nil {
		return State{}, err
	}
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	return final, nil
}

// HistoryEntry is one recorded workflow step.
type HistoryEntry struct {
	Step  int    `json:"step"`
	Node  string `json:"node,omitempty"`
	State State  `json:"state"`
}

// History returns the recorded steps of a session in step order.
func (e *Engine) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	if e.checkpoints == nil {
		return nil, fmt.Errorf("no checkpoint store configured")
	}

	checkpoints, err := e.checkpoints.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(checkpoints))
	for _, cp := range checkpoints {
		var state State
		if err := json.Unmarshal(cp.State, &state); err != nil {
			return nil, fmt.Errorf("failed to decode checkpoint state at step %d: %w", cp.Step, err)
		}
		entries = append(entries, HistoryEntry{Step: cp.Step, Node: cp.NodeName, State: state})
	}
	return entries, nil
}

// ClearSession drops all recorded steps of a session.
func (e *Engine) ClearSession(ctx context.Context, sessionID string) error {
	if e.checkpoints == nil {
		return nil
	}
	return e.checkpoints.Clear(ctx, sessionID)
}
