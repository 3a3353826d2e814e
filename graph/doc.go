// Package graph implements a small state-machine engine for delta-merging
// workflows.
//
// A StateGraph[S, D] holds named nodes whose functions read the accumulated
// state S and return a delta D describing only what they changed. A Schema
// merges each delta into the state. Control flow follows static edges or
// conditional edges whose routers inspect the merged state and return the
// next node name; END terminates the run.
//
// Compile validates the graph and returns a Runnable with two execution
// modes. Invoke runs to completion and returns the final state. Stream runs
// in a goroutine and emits a Snapshot of the full merged state after every
// node on an unbuffered channel, so execution never races more than one
// snapshot ahead of the consumer. Snapshot 0 carries the initial state.
//
// Stream accepts options: WithCheckpoints persists every snapshot to a
// store.CheckpointStore keyed by (session, step), and WithLogger routes
// non-fatal events. Checkpoint write failures are logged, never fatal.
package graph
