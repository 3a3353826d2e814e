// Package store persists workflow checkpoints across runs and processes.
//
// A checkpoint records the merged run state right after a node finished, keyed
// by (session ID, step). Four backends implement CheckpointStore:
//
//   - store/memory: per-process map, for tests and single-shot tools
//   - store/redis: github.com/redis/go-redis/v9, the production default
//   - store/postgres: github.com/jackc/pgx/v5 with a JSONB state column
//   - store/sqlite: github.com/mattn/go-sqlite3, zero-configuration file storage
//
// Example:
//
//	cps := redis.NewCheckpointStore(redis.Options{Addr: "localhost:6379"})
//	snaps, errs := runnable.Stream(ctx, initial,
//	    graph.WithCheckpoints(cps, sessionID))
//
// All backends serialize state as JSON. A Put with an existing (session, step)
// pair replaces the older record.
package store
