package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/adaptiverag/store"
)

// CheckpointStore implements store.CheckpointStore using SQLite
type CheckpointStore struct {
	db        *sql.DB
	tableName string
}

// Options configuration for SQLite connection
type Options struct {
	Path      string // File path, or ":memory:" for an in-memory database
	TableName string // Default "checkpoints"
}

// NewCheckpointStore creates a new SQLite checkpoint store and initializes
// its schema
func NewCheckpointStore(opts Options) (*CheckpointStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	s := &CheckpointStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

var _ store.CheckpointStore = (*CheckpointStore)(nil)

// InitSchema creates the necessary table if it doesn't exist
func (s *CheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			node_name TEXT NOT NULL,
			state TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			PRIMARY KEY (session_id, step)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

// Put stores a checkpoint, replacing an existing (session, step) record
func (s *CheckpointStore) Put(ctx context.Context, checkpoint *store.Checkpoint) error {
	state := checkpoint.State
	if state == nil {
		state = json.RawMessage("null")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, step, node_name, state, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, step) DO UPDATE SET
			id = excluded.id,
			node_name = excluded.node_name,
			state = excluded.state,
			timestamp = excluded.timestamp
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		checkpoint.ID,
		checkpoint.SessionID,
		checkpoint.Step,
		checkpoint.NodeName,
		string(state),
		checkpoint.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// History returns the session's checkpoints in ascending step order
func (s *CheckpointStore) History(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, step, node_name, state, timestamp
		FROM %s
		WHERE session_id = ?
		ORDER BY step ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*store.Checkpoint
	for rows.Next() {
		var cp store.Checkpoint
		var stateJSON string

		err := rows.Scan(
			&cp.ID,
			&cp.SessionID,
			&cp.Step,
			&cp.NodeName,
			&stateJSON,
			&cp.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}

		cp.State = json.RawMessage(stateJSON)
		checkpoints = append(checkpoints, &cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}

	return checkpoints, nil
}

// Clear removes all checkpoints of a session
func (s *CheckpointStore) Clear(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}
