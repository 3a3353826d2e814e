package workflow

import "errors"

var (
	// ErrRetrieval indicates the knowledge-base lookup failed.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrWebSearch indicates the web-search call failed.
	ErrWebSearch = errors.New("web search failed")

	// ErrGeneration indicates answer generation failed.
	ErrGeneration = errors.New("generation failed")

	// ErrNoRetriever indicates a run was started without a retriever.
	ErrNoRetriever = errors.New("no retriever configured")
)
