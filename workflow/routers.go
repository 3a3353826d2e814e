package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/adaptiverag/graph"
)

// Datasource labels returned by the question router.
const (
	DatasourceVectorstore = "vectorstore"
	DatasourceWebSearch   = "websearch"
)

// Verdict labels returned by the generation grader.
const (
	VerdictUseful       = "useful"
	VerdictNotSupported = "not supported"
	VerdictNotUseful    = "not useful"
	VerdictMaxRetries   = "max retries"
)

// routeQuestion picks the initial datasource for the question. Any routing
// failure falls back to the vectorstore.
func (n *nodes) routeQuestion(ctx context.Context, state State) string {
	raw, err := n.model.ChatStructured(ctx, routerPrompt, state.Question)
	if err != nil {
		n.logger.Warn("question routing call failed, defaulting to vectorstore: %v", err)
		return NodeRetrieve
	}

	source, err := parseDatasource(raw)
	if err != nil {
		n.logger.Warn("question routing returned unparseable verdict, defaulting to vectorstore: %v", err)
		return NodeRetrieve
	}

	if source == DatasourceWebSearch {
		n.logger.Info("routing question to web search")
		return NodeWebSearch
	}
	n.logger.Info("routing question to vectorstore")
	return NodeRetrieve
}

// decideToGenerate runs after document grading: web search when nothing
// relevant survived, generation otherwise.
func (n *nodes) decideToGenerate(_ context.Context, state State) string {
	if state.WebSearchNeeded {
		return NodeWebSearch
	}
	return NodeGenerate
}

// gradeGeneration checks the answer against the documents and the question
// and maps the outcome to the next hop. A grading failure at either stage
// ends the run as "max retries".
func (n *nodes) gradeGeneration(ctx context.Context, state State) string {
	switch n.gradeGenerationVerdict(ctx, state) {
	case VerdictUseful:
		return graph.END
	case VerdictNotSupported:
		return NodeGenerate
	case VerdictNotUseful:
		return NodeWebSearch
	default:
		return graph.END
	}
}

func (n *nodes) gradeGenerationVerdict(ctx context.Context, state State) string {
	canRetry := state.LoopStep <= state.MaxRetries

	grounded, err := n.gradeBinary(ctx, hallucinationGraderPrompt, map[string]string{
		"documents":  formatDocs(state.Documents),
		"generation": state.Generation,
	}, state.Question)
	if err != nil {
		n.logger.Warn("hallucination grading failed, stopping: %v", err)
		return VerdictMaxRetries
	}
	if grounded != "yes" {
		if canRetry {
			n.logger.Info("generation not grounded in documents, regenerating")
			return VerdictNotSupported
		}
		n.logger.Warn("generation not grounded and retry budget exhausted")
		return VerdictMaxRetries
	}

	useful, err := n.gradeBinary(ctx, answerGraderPrompt, map[string]string{
		"question":   state.Question,
		"generation": state.Generation,
	}, state.Question)
	if err != nil {
		n.logger.Warn("answer grading failed, stopping: %v", err)
		return VerdictMaxRetries
	}
	if useful == "yes" {
		return VerdictUseful
	}
	if canRetry {
		n.logger.Info("generation does not address the question, searching the web")
		return VerdictNotUseful
	}
	n.logger.Warn("generation not useful and retry budget exhausted")
	return VerdictMaxRetries
}

func (n *nodes) gradeBinary(ctx context.Context, template string, vars map[string]string, question string) (string, error) {
	raw, err := n.model.ChatStructured(ctx, fillPrompt(template, vars), question)
	if err != nil {
		return "", err
	}
	return parseBinaryScore(raw)
}

// parseDatasource extracts the routing verdict from a router response.
func parseDatasource(raw string) (string, error) {
	var verdict struct {
		Datasource string `json:"datasource"`
	}
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &verdict); err != nil {
		return "", fmt.Errorf("invalid router response %q: %w", raw, err)
	}

	source := strings.ToLower(strings.TrimSpace(verdict.Datasource))
	if source != DatasourceVectorstore && source != DatasourceWebSearch {
		return "", fmt.Errorf("router verdict %q is not a known datasource", verdict.Datasource)
	}
	return source, nil
}
