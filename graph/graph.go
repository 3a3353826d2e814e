package graph

import (
	"context"
	"errors"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

var (
	// ErrEntryPointNotSet is returned when the entry point of the graph is not set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrSchemaNotSet is returned when the graph is compiled without a state schema.
	ErrSchemaNotSet = errors.New("state schema not set")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when no outgoing edge is found for a node.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrMaxStepsExceeded is returned when execution runs longer than the
	// configured step limit, which usually means a routing cycle.
	ErrMaxStepsExceeded = errors.New("max execution steps exceeded")
)

// NodeFunc is the function executed by a node. It receives the current state
// and returns a delta describing only the fields the node changed.
type NodeFunc[S, D any] func(ctx context.Context, state S) (D, error)

// RouterFunc picks the next node name from the merged state. Returning END
// terminates the run.
type RouterFunc[S any] func(ctx context.Context, state S) string

// Schema merges node deltas into the accumulated state. Update must not
// mutate current; it returns the merged state.
type Schema[S, D any] interface {
	Update(current S, delta D) (S, error)
}

// Node represents a node in the graph.
type Node[S, D any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the delta-producing function associated with the node.
	Function NodeFunc[S, D]
}

// Edge represents a static edge in the graph.
type Edge struct {
	// From is the name of the node from which the edge originates.
	From string

	// To is the name of the node to which the edge points.
	To string
}
