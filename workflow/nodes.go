package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/adaptiverag/llm"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/retriever"
	"github.com/smallnest/adaptiverag/tool"
)

// DefaultSearchResults is how many web results one websearch step requests.
const DefaultSearchResults = 5

// nodes bundles the dependencies shared by all workflow node functions.
type nodes struct {
	model         llm.Model
	search        tool.SearchClient
	searchResults int
	logger        log.Logger
}

// retrieve looks the question up in the run's knowledge base and replaces
// the document set with the result.
func (n *nodes) retrieve(ctx context.Context, state State) (Delta, error) {
	if state.Retriever == nil {
		return Delta{}, fmt.Errorf("%w: %w", ErrRetrieval, ErrNoRetriever)
	}

	docs, err := state.Retriever.Retrieve(ctx, state.Question)
	if err != nil {
		return Delta{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	n.logger.Debug("retrieved %d documents for session %s", len(docs), state.SessionID)
	return Delta{Documents: docsPtr(docs)}, nil
}

// gradeDocuments filters the retrieved documents by relevance. A document
// whose grading call fails or returns an unparseable verdict is retained.
// When no document survives, the delta requests a web search.
func (n *nodes) gradeDocuments(ctx context.Context, state State) (Delta, error) {
	kept := make([]retriever.Document, 0, len(state.Documents))
	for _, doc := range state.Documents {
		prompt := fillPrompt(docGraderPrompt, map[string]string{
			"document": doc.Content,
			"question": state.Question,
		})
		raw, err := n.model.ChatStructured(ctx, prompt, state.Question)
		if err != nil {
			n.logger.Warn("document grading call failed, keeping document: %v", err)
			kept = append(kept, doc)
			continue
		}
		score, err := parseBinaryScore(raw)
		if err != nil {
			n.logger.Warn("document grading returned unparseable verdict, keeping document: %v", err)
			kept = append(kept, doc)
			continue
		}
		if score == "yes" {
			kept = append(kept, doc)
		}
	}

	needSearch := len(kept) == 0
	if needSearch {
		n.logger.Info("all %d documents graded irrelevant, falling back to web search", len(state.Documents))
	}
	return Delta{Documents: docsPtr(kept), WebSearchNeeded: boolPtr(needSearch)}, nil
}

// generate produces an answer from the current documents and advances the
// retry counter by one.
func (n *nodes) generate(ctx context.Context, state State) (Delta, error) {
	prompt := fillPrompt(ragPrompt, map[string]string{
		"context":  formatDocs(state.Documents),
		"question": state.Question,
	})
	answer, err := n.model.Chat(ctx, prompt, state.Question)
	if err != nil {
		return Delta{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	return Delta{Generation: strPtr(answer), LoopStep: 1}, nil
}

// webSearch queries the search client and appends one aggregated document
// to the evidence set.
func (n *nodes) webSearch(ctx context.Context, state State) (Delta, error) {
	result, err := n.search.Search(ctx, state.Question, n.searchResults)
	if err != nil {
		return Delta{}, fmt.Errorf("%w: %w", ErrWebSearch, err)
	}

	doc := retriever.Document{
		Content: result.Content,
		Metadata: map[string]any{
			"source": "web_search",
			"urls":   result.Sources,
		},
	}
	docs := make([]retriever.Document, 0, len(state.Documents)+1)
	docs = append(docs, state.Documents...)
	docs = append(docs, doc)

	n.logger.Debug("web search added 1 document from %d sources", len(result.Sources))
	return Delta{Documents: docsPtr(docs)}, nil
}

// formatDocs joins document contents into one context block.
func formatDocs(docs []retriever.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// parseBinaryScore extracts a yes/no verdict from a grader response,
// tolerating markdown code fences around the JSON.
func parseBinaryScore(raw string) (string, error) {
	cleaned := stripJSONFences(raw)

	var verdict struct {
		BinaryScore string `json:"binary_score"`
	}
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return "", fmt.Errorf("invalid grader response %q: %w", raw, err)
	}

	score := strings.ToLower(strings.TrimSpace(verdict.BinaryScore))
	if score != "yes" && score != "no" {
		return "", fmt.Errorf("grader verdict %q is not yes/no", verdict.BinaryScore)
	}
	return score, nil
}

// stripJSONFences removes a surrounding markdown code fence, if any.
func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
