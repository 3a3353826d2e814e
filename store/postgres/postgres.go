package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/adaptiverag/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// CheckpointStore implements store.CheckpointStore using PostgreSQL
type CheckpointStore struct {
	pool      DBPool
	tableName string
}

// Options configuration for Postgres connection
type Options struct {
	ConnString string
	TableName  string // Default "checkpoints"
}

// NewCheckpointStore creates a new Postgres checkpoint store
func NewCheckpointStore(ctx context.Context, opts Options) (*CheckpointStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	return &CheckpointStore{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// NewCheckpointStoreWithPool creates a new Postgres checkpoint store with an existing pool
// Useful for testing with mocks
func NewCheckpointStoreWithPool(pool DBPool, tableName string) *CheckpointStore {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &CheckpointStore{
		pool:      pool,
		tableName: tableName,
	}
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
			state JSONB NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (session_id, step)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_session_id ON %s (session_id);
	`, s.tableName, s.tableName, s.tableName)

	_, err := s.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *CheckpointStore) Close() {
	s.pool.Close()
}

// Put stores a checkpoint, replacing an existing (session, step) record
func (s *CheckpointStore) Put(ctx context.Context, checkpoint *store.Checkpoint) error {
	stateJSON := checkpoint.State
	if stateJSON == nil {
		stateJSON = json.RawMessage("null")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, step, node_name, state, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, step) DO UPDATE SET
			id = EXCLUDED.id,
			node_name = EXCLUDED.node_name,
			state = EXCLUDED.state,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err := s.pool.Exec(ctx, query,
		checkpoint.ID,
		checkpoint.SessionID,
		checkpoint.Step,
		checkpoint.NodeName,
		[]byte(stateJSON),
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
		WHERE session_id = $1
		ORDER BY step ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*store.Checkpoint
	for rows.Next() {
		var cp store.Checkpoint
		var stateJSON []byte

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
	query := fmt.Sprintf("DELETE FROM %s WHERE session_id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}
