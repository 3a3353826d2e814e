// Package server exposes the workflow engine over a small JSON and SSE API:
//
//	POST /api/chat          run a workflow and return the final answer
//	POST /api/chat/stream   run a workflow and stream typed SSE events
//	GET  /api/chat/history  return the recorded steps of a session
//	GET  /api/health        liveness probe
//
// Request validation happens at this boundary; invalid input never reaches
// the engine.
package server
