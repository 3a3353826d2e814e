package tool

import "context"

// SearchResult is the aggregated output of a web search: the result snippets
// joined into one text block, plus the source URLs they came from.
type SearchResult struct {
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

// SearchClient runs a web search and aggregates the top results.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) (*SearchResult, error)
}
