package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/smallnest/adaptiverag/store"
)

// CheckpointStore is an in-process store.CheckpointStore backed by a map.
// Safe for concurrent use. Intended for tests and single-shot tools.
type CheckpointStore struct {
	mu       sync.RWMutex
	sessions map[string]map[int]*store.Checkpoint
}

// NewCheckpointStore creates an empty in-memory checkpoint store
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		sessions: make(map[string]map[int]*store.Checkpoint),
	}
}

var _ store.CheckpointStore = (*CheckpointStore)(nil)

// Put stores a checkpoint, replacing an existing (session, step) record
func (s *CheckpointStore) Put(_ context.Context, checkpoint *store.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.sessions[checkpoint.SessionID]
	if !ok {
		steps = make(map[int]*store.Checkpoint)
		s.sessions[checkpoint.SessionID] = steps
	}

	cp := *checkpoint
	steps[checkpoint.Step] = &cp
	return nil
}

// History returns the session's checkpoints in ascending step order
func (s *CheckpointStore) History(_ context.Context, sessionID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := s.sessions[sessionID]
	checkpoints := make([]*store.Checkpoint, 0, len(steps))
	for _, cp := range steps {
		c := *cp
		checkpoints = append(checkpoints, &c)
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Step < checkpoints[j].Step
	})
	return checkpoints, nil
}

// Clear removes all checkpoints of a session
func (s *CheckpointStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
