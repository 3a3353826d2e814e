// Package redis provides a Redis-backed checkpoint store.
//
// Each session is stored as one hash whose fields are step numbers, so
// overwriting a step is a plain HSET and History is a single HGETALL.
// An optional TTL expires whole sessions.
//
//	cps := redis.NewCheckpointStore(redis.Options{
//		Addr:   "localhost:6379",
//		Prefix: "adaptiverag:",
//		TTL:    24 * time.Hour,
//	})
//
// For tests or shared connection pools, wrap an existing client with
// NewCheckpointStoreWithClient.
package redis
