package workflow

import (
	"github.com/smallnest/adaptiverag/retriever"
)

// State is the accumulated run state of one question-answering workflow.
// It is the single unit the graph snapshots, checkpoints and streams.
type State struct {
	// Question is the user's question, immutable for the whole run.
	Question string `json:"question"`

	// Documents is the working evidence set: retrieved documents, possibly
	// filtered by grading and extended by web search.
	Documents []retriever.Document `json:"documents"`

	// Generation is the latest produced answer.
	Generation string `json:"generation,omitempty"`

	// WebSearchNeeded records the grading outcome: true when every
	// retrieved document was judged irrelevant.
	WebSearchNeeded bool `json:"web_search_needed"`

	// MaxRetries bounds answer regeneration. The run produces at most
	// MaxRetries+1 generations.
	MaxRetries int `json:"max_retries"`

	// LoopStep counts generation attempts.
	LoopStep int `json:"loop_step"`

	// SessionID keys checkpoints and history.
	SessionID string `json:"session_id,omitempty"`

	// Retriever is the knowledge-base handle for this run. Never serialized.
	Retriever retriever.Retriever `json:"-"`
}

// Delta is a node's partial state update. Nil pointer fields leave the
// corresponding State field unchanged; LoopStep is added, not replaced.
type Delta struct {
	Documents       *[]retriever.Document
	Generation      *string
	WebSearchNeeded *bool
	LoopStep        int
}

// Schema merges node deltas into the run state.
type Schema struct{}

// Update applies delta on top of current without mutating it.
func (Schema) Update(current State, delta Delta) (State, error) {
	next := current
	if delta.Documents != nil {
		next.Documents = *delta.Documents
	}
	if delta.Generation != nil {
		next.Generation = *delta.Generation
	}
	if delta.WebSearchNeeded != nil {
		next.WebSearchNeeded = *delta.WebSearchNeeded
	}
	next.LoopStep += delta.LoopStep
	return next, nil
}

func docsPtr(docs []retriever.Document) *[]retriever.Document {
	return &docs
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
