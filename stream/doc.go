// Package stream converts workflow state snapshots into a typed event
// stream and writes it out as server-sent events.
//
// The Adapter diffs consecutive snapshots: new documents become a documents
// event, answer growth becomes incremental chunk events, and progress
// becomes workflow_step events. Every stream carries exactly one start event
// and ends with exactly one done or error event.
package stream
