package workflow

import (
	"fmt"

	"github.com/smallnest/adaptiverag/graph"
	"github.com/smallnest/adaptiverag/llm"
	"github.com/smallnest/adaptiverag/log"
	"github.com/smallnest/adaptiverag/tool"
)

// Node names of the workflow graph.
const (
	NodeRetrieve       = "retrieve"
	NodeGradeDocuments = "grade_documents"
	NodeGenerate       = "generate"
	NodeWebSearch      = "websearch"
)

// Config carries the dependencies needed to build the workflow graph.
type Config struct {
	Model  llm.Model
	Search tool.SearchClient

	// SearchResults is the number of web results per search step.
	// Zero means DefaultSearchResults.
	SearchResults int

	// Logger defaults to the package-level logger.
	Logger log.Logger
}

// Build compiles the adaptive RAG state graph:
//
//	route_question ─┬─> retrieve ──> grade_documents ─┬─> generate ─┐
//	                └─> websearch ────────────────────┘             │
//	                      ^                                         │
//	                      └──────────── not useful ─────────────────┤
//	   generate <────────────────────── not supported ──────────────┤
//	   END      <────────────────────── useful / max retries ───────┘
func Build(cfg Config) (*graph.Runnable[State, Delta], error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("workflow: model is required")
	}
	if cfg.Search == nil {
		return nil, fmt.Errorf("workflow: search client is required")
	}
	if cfg.SearchResults <= 0 {
		cfg.SearchResults = DefaultSearchResults
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetDefaultLogger()
	}

	n := &nodes{
		model:         cfg.Model,
		search:        cfg.Search,
		searchResults: cfg.SearchResults,
		logger:        cfg.Logger,
	}

	g := graph.NewStateGraph[State, Delta]()
	g.SetSchema(Schema{})

	g.AddNode(NodeRetrieve, "look the question up in the knowledge base", n.retrieve)
	g.AddNode(NodeGradeDocuments, "filter retrieved documents by relevance", n.gradeDocuments)
	g.AddNode(NodeGenerate, "produce an answer from the documents", n.generate)
	g.AddNode(NodeWebSearch, "supplement the documents with web results", n.webSearch)

	g.SetConditionalEntryPoint(n.routeQuestion)
	g.AddEdge(NodeRetrieve, NodeGradeDocuments)
	g.AddEdge(NodeWebSearch, NodeGenerate)
	g.AddConditionalEdge(NodeGradeDocuments, n.decideToGenerate)
	g.AddConditionalEdge(NodeGenerate, n.gradeGeneration)

	return g.Compile()
}
