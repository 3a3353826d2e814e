package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/adaptiverag/store"
)

// CheckpointStore implements store.CheckpointStore using Redis.
// Each session maps to one hash keyed by step, so a rewrite of the same
// (session, step) pair is a plain field overwrite.
type CheckpointStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Options configuration for Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "adaptiverag:"
	TTL      time.Duration // Expiration for session history, default 0 (no expiration)
}

// NewCheckpointStore creates a new Redis checkpoint store
func NewCheckpointStore(opts Options) *CheckpointStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "adaptiverag:"
	}

	return &CheckpointStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// NewCheckpointStoreWithClient wraps an existing client, useful for tests
// and shared connection pools.
func NewCheckpointStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *CheckpointStore {
	if prefix == "" {
		prefix = "adaptiverag:"
	}
	return &CheckpointStore{client: client, prefix: prefix, ttl: ttl}
}

var _ store.CheckpointStore = (*CheckpointStore)(nil)

func (s *CheckpointStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%ssession:%s:checkpoints", s.prefix, sessionID)
}

// Put stores a checkpoint under its session hash
func (s *CheckpointStore) Put(ctx context.Context, checkpoint *store.Checkpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	key := s.sessionKey(checkpoint.SessionID)
	pipe := s.client.Pipeline()

	pipe.HSet(ctx, key, strconv.Itoa(checkpoint.Step), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}
	return nil
}

// History returns the session's checkpoints in ascending step order
func (s *CheckpointStore) History(ctx context.Context, sessionID string) ([]*store.Checkpoint, error) {
	key := s.sessionKey(sessionID)
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s from redis: %w", sessionID, err)
	}

	checkpoints := make([]*store.Checkpoint, 0, len(fields))
	for _, raw := range fields {
		var cp store.Checkpoint
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, &cp)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Step < checkpoints[j].Step
	})
	return checkpoints, nil
}

// Clear removes all checkpoints of a session
func (s *CheckpointStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the underlying Redis client
func (s *CheckpointStore) Close() error {
	return s.client.Close()
}
