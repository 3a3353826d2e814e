package graph

import (
	"context"
	"fmt"
)

// DefaultMaxSteps bounds a single run. Routers are expected to terminate the
// workflow long before this; the limit is a stop for routing cycles.
const DefaultMaxSteps = 50

// StateGraph is a state machine whose nodes emit deltas that a Schema merges
// into an accumulated state of type S.
//
// Example usage:
//
//	g := graph.NewStateGraph[MyState, MyDelta]()
//	g.SetSchema(mySchema{})
//	g.AddNode("fetch", "Fetch data", fetchFn)
//	g.AddEdge("fetch", graph.END)
//	g.SetEntryPoint("fetch")
//	app, err := g.Compile()
type StateGraph[S, D any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S, D]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to a router deriving the "To" node at runtime
	conditionalEdges map[string]RouterFunc[S]

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// entryRouter, when set, picks the entry node from the initial state
	entryRouter RouterFunc[S]

	// schema merges node deltas into the accumulated state
	schema Schema[S, D]

	// maxSteps bounds the number of node executions per run
	maxSteps int
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S, D any]() *StateGraph[S, D] {
	return &StateGraph[S, D]{
		nodes:            make(map[string]Node[S, D]),
		conditionalEdges: make(map[string]RouterFunc[S]),
		maxSteps:         DefaultMaxSteps,
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S, D]) AddNode(name string, description string, fn NodeFunc[S, D]) {
	g.nodes[name] = Node[S, D]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new static edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S, D]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
// The router sees the state merged after "from" ran and returns the next node name or END.
func (g *StateGraph[S, D]) AddConditionalEdge(from string, router RouterFunc[S]) {
	g.conditionalEdges[from] = router
}

// SetEntryPoint sets a fixed entry point node name for the state graph.
func (g *StateGraph[S, D]) SetEntryPoint(name string) {
	g.entryPoint = name
	g.entryRouter = nil
}

// SetConditionalEntryPoint routes the initial state to an entry node at runtime.
func (g *StateGraph[S, D]) SetConditionalEntryPoint(router RouterFunc[S]) {
	g.entryRouter = router
	g.entryPoint = ""
}

// SetSchema sets the delta-merging schema for the graph.
func (g *StateGraph[S, D]) SetSchema(schema Schema[S, D]) {
	g.schema = schema
}

// SetMaxSteps overrides the per-run step limit.
func (g *StateGraph[S, D]) SetMaxSteps(n int) {
	g.maxSteps = n
}

// Runnable represents a compiled state graph ready to be invoked or streamed.
type Runnable[S, D any] struct {
	graph *StateGraph[S, D]
}

// Compile compiles the state graph and returns a Runnable instance.
func (g *StateGraph[S, D]) Compile() (*Runnable[S, D], error) {
	if g.entryPoint == "" && g.entryRouter == nil {
		return nil, ErrEntryPointNotSet
	}
	if g.schema == nil {
		return nil, ErrSchemaNotSet
	}
	if g.entryPoint != "" {
		if _, ok := g.nodes[g.entryPoint]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
		}
	}
	for _, edge := range g.edges {
		if _, ok := g.nodes[edge.From]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, edge.From)
		}
		if edge.To == END {
			continue
		}
		if _, ok := g.nodes[edge.To]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, edge.To)
		}
	}

	return &Runnable[S, D]{graph: g}, nil
}

// Invoke executes the compiled state graph with the given input state and
// returns the final merged state.
func (r *Runnable[S, D]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.run(ctx, initialState, nil)
}

// run drives the execution loop. When onSnapshot is non-nil it is called with
// the initial state and after every node execution; a false return abandons
// the run without error.
func (r *Runnable[S, D]) run(ctx context.Context, initialState S, onSnapshot func(Snapshot[S]) bool) (S, error) {
	var zero S

	state := initialState
	step := 0

	if onSnapshot != nil {
		if !onSnapshot(Snapshot[S]{Step: step, State: state}) {
			return state, context.Canceled
		}
	}

	current, err := r.entryNode(ctx, state)
	if err != nil {
		return zero, err
	}

	for current != END {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if step > r.graph.maxSteps {
			return zero, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, r.graph.maxSteps)
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		delta, err := node.Function(ctx, state)
		if err != nil {
			return zero, fmt.Errorf("error in node %s: %w", current, err)
		}

		state, err = r.graph.schema.Update(state, delta)
		if err != nil {
			return zero, fmt.Errorf("schema update failed after node %s: %w", current, err)
		}

		step++
		if onSnapshot != nil {
			if !onSnapshot(Snapshot[S]{Step: step, Node: current, State: state}) {
				return state, context.Canceled
			}
		}

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return zero, err
		}
	}

	return state, nil
}

func (r *Runnable[S, D]) entryNode(ctx context.Context, state S) (string, error) {
	if r.graph.entryRouter != nil {
		next := r.graph.entryRouter(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional entry point returned empty node")
		}
		return next, nil
	}
	return r.graph.entryPoint, nil
}

func (r *Runnable[S, D]) nextNode(ctx context.Context, current string, state S) (string, error) {
	if router, ok := r.graph.conditionalEdges[current]; ok {
		next := router(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", current)
		}
		return next, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == current {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
}
