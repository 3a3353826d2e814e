package store

import (
	"context"
	"encoding/json"
	"time"
)

// Checkpoint is a snapshot of a workflow run persisted after a node finished.
// Checkpoints are keyed by (SessionID, Step); writing the same key twice
// replaces the previous record.
type Checkpoint struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Step      int             `json:"step"`
	NodeName  string          `json:"node_name"`
	State     json.RawMessage `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

// CheckpointStore defines the interface for checkpoint persistence
type CheckpointStore interface {
	// Put stores a checkpoint, replacing any existing one with the same
	// session ID and step
	Put(ctx context.Context, checkpoint *Checkpoint) error

	// History returns all checkpoints of a session in ascending step order
	History(ctx context.Context, sessionID string) ([]*Checkpoint, error)

	// Clear removes all checkpoints of a session
	Clear(ctx context.Context, sessionID string) error
}
