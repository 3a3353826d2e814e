package stream

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/smallnest/adaptiverag/graph"
	"github.com/smallnest/adaptiverag/retriever"
	"github.com/smallnest/adaptiverag/workflow"
)

// EventType identifies a streamed event.
type EventType string

const (
	EventStart        EventType = "start"
	EventWorkflowStep EventType = "workflow_step"
	EventDocuments    EventType = "documents"
	EventChunk        EventType = "chunk"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Event is one typed message of the external stream. Data marshals to the
// event's JSON payload.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// StartData opens a stream.
type StartData struct {
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

// StepData reports workflow progress.
type StepData struct {
	Node            string `json:"node,omitempty"`
	Step            int    `json:"step"`
	LoopStep        int    `json:"loop_step"`
	WebSearchNeeded bool   `json:"web_search_needed"`
}

// DocumentPayload is one truncated evidence document.
type DocumentPayload struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// DocumentsData reports the current evidence set.
type DocumentsData struct {
	Count     int               `json:"count"`
	Documents []DocumentPayload `json:"documents"`
}

// ChunkData carries new answer text.
type ChunkData struct {
	Content     string `json:"content"`
	TotalLength int    `json:"total_length"`
}

// DoneData closes a successful stream.
type DoneData struct {
	FinalAnswer     string `json:"final_answer"`
	FinalAnswerHTML string `json:"final_answer_html,omitempty"`
	Status          string `json:"status"`
	LoopStep        int    `json:"loop_step"`
	SessionID       string `json:"session_id,omitempty"`
}

// ErrorData closes a failed stream.
type ErrorData struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Options configures an Adapter.
type Options struct {
	// IncludeSources enables documents events.
	IncludeSources bool

	// IncludeWorkflow enables workflow_step events.
	IncludeWorkflow bool

	// MaxDocuments caps the documents event payload. Zero means 5.
	MaxDocuments int

	// SnippetLength truncates each document text. Zero means 200.
	SnippetLength int

	// RenderHTML adds a sanitized HTML rendering of the final answer to
	// the done event.
	RenderHTML bool
}

// Adapter converts a workflow snapshot sequence into the typed event stream.
// All user-visible strings are HTML-escaped before emission.
type Adapter struct {
	opts Options
}

// NewAdapter creates an adapter with the given options.
func NewAdapter(opts Options) *Adapter {
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = 5
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = 200
	}
	return &Adapter{opts: opts}
}

// Pump drains the snapshot and error channels, calling emit for every event
// in order. It returns when the run ends, the consumer fails (emit returns an
// error), or ctx is cancelled. On cancellation nothing further is emitted,
// matching the silent abandonment of the underlying run.
func (a *Adapter) Pump(ctx context.Context, snaps <-chan graph.Snapshot[workflow.State], errs <-chan error, emit func(Event) error) error {
	var (
		started      bool
		prevGen      string
		prevDocCount int
		prevLoopStep int
		prevSearch   bool
		final        workflow.State
	)

	for snap := range snaps {
		final = snap.State

		if !started {
			started = true
			if err := emit(Event{Type: EventStart, Data: StartData{
				Question:  html.EscapeString(snap.State.Question),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}}); err != nil {
				return err
			}
			if err := a.emitStep(snap, emit); err != nil {
				return err
			}
			prevLoopStep = snap.State.LoopStep
			prevSearch = snap.State.WebSearchNeeded
			prevDocCount = len(snap.State.Documents)
			prevGen = snap.State.Generation
			continue
		}

		if len(snap.State.Documents) > prevDocCount {
			if err := a.emitDocuments(snap.State.Documents, emit); err != nil {
				return err
			}
		}
		prevDocCount = len(snap.State.Documents)

		if snap.State.Generation != prevGen {
			if err := emitChunk(prevGen, snap.State.Generation, emit); err != nil {
				return err
			}
			prevGen = snap.State.Generation
		}

		if snap.State.LoopStep != prevLoopStep || snap.State.WebSearchNeeded != prevSearch {
			if err := a.emitStep(snap, emit); err != nil {
				return err
			}
			prevLoopStep = snap.State.LoopStep
			prevSearch = snap.State.WebSearchNeeded
		}
	}

	if err := <-errs; err != nil {
		return emit(Event{Type: EventError, Data: ErrorData{
			Error:   "workflow_failed",
			Message: html.EscapeString(err.Error()),
		}})
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	done := DoneData{
		FinalAnswer: html.EscapeString(final.Generation),
		Status:      "completed",
		LoopStep:    final.LoopStep,
		SessionID:   final.SessionID,
	}
	if a.opts.RenderHTML {
		done.FinalAnswerHTML = RenderMarkdown(final.Generation)
	}
	return emit(Event{Type: EventDone, Data: done})
}

func (a *Adapter) emitStep(snap graph.Snapshot[workflow.State], emit func(Event) error) error {
	if !a.opts.IncludeWorkflow {
		return nil
	}
	return emit(Event{Type: EventWorkflowStep, Data: StepData{
		Node:            snap.Node,
		Step:            snap.Step,
		LoopStep:        snap.State.LoopStep,
		WebSearchNeeded: snap.State.WebSearchNeeded,
	}})
}

func (a *Adapter) emitDocuments(docs []retriever.Document, emit func(Event) error) error {
	if !a.opts.IncludeSources {
		return nil
	}

	payload := make([]DocumentPayload, 0, a.opts.MaxDocuments)
	for _, d := range docs {
		if len(payload) == a.opts.MaxDocuments {
			break
		}
		p := DocumentPayload{Content: html.EscapeString(truncateRunes(d.Content, a.opts.SnippetLength))}
		if source, ok := d.Metadata["source"].(string); ok {
			p.Source = html.EscapeString(source)
		}
		payload = append(payload, p)
	}

	return emit(Event{Type: EventDocuments, Data: DocumentsData{
		Count:     len(docs),
		Documents: payload,
	}})
}

// truncateRunes shortens s to at most n runes, never splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// emitChunk sends the incremental suffix of the generation, or the whole new
// generation when the text did not grow monotonically (a full retry).
func emitChunk(prev, next string, emit func(Event) error) error {
	content := next
	if prev != "" && strings.HasPrefix(next, prev) {
		content = next[len(prev):]
	}
	return emit(Event{Type: EventChunk, Data: ChunkData{
		Content:     html.EscapeString(content),
		TotalLength: len(next),
	}})
}
