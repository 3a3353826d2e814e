package retriever

import "context"

// Document is a retrieved text fragment with optional metadata such as the
// source URL or collection name.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Retriever fetches documents relevant to a question from a knowledge base.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Document, error)
}
