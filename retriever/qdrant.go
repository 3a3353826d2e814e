package retriever

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/vectorstores/qdrant"
)

// QdrantConfig describes a Qdrant collection and the embedding endpoint used
// to vectorize queries.
type QdrantConfig struct {
	URL            string // Qdrant base URL, e.g. "http://localhost:6333"
	APIKey         string
	CollectionName string
	TopK           int // Default 4

	// Embeddings are produced through an OpenAI-compatible endpoint.
	EmbeddingModel   string
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
}

// QdrantRetriever retrieves documents from a Qdrant collection via
// similarity search.
type QdrantRetriever struct {
	store qdrant.Store
	topK  int
}

var _ Retriever = (*QdrantRetriever)(nil)

// NewQdrantRetriever connects to Qdrant and prepares the query embedder.
func NewQdrantRetriever(cfg QdrantConfig) (*QdrantRetriever, error) {
	qdrantURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	embedOpts := []lcopenai.Option{}
	if cfg.EmbeddingModel != "" {
		embedOpts = append(embedOpts, lcopenai.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	if cfg.EmbeddingBaseURL != "" {
		embedOpts = append(embedOpts, lcopenai.WithBaseURL(cfg.EmbeddingBaseURL))
	}
	if cfg.EmbeddingAPIKey != "" {
		embedOpts = append(embedOpts, lcopenai.WithToken(cfg.EmbeddingAPIKey))
	}

	llm, err := lcopenai.New(embedOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	storeOpts := []qdrant.Option{
		qdrant.WithURL(*qdrantURL),
		qdrant.WithCollectionName(cfg.CollectionName),
		qdrant.WithEmbedder(embedder),
	}
	if cfg.APIKey != "" {
		storeOpts = append(storeOpts, qdrant.WithAPIKey(cfg.APIKey))
	}

	store, err := qdrant.New(storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 4
	}

	return &QdrantRetriever{store: store, topK: topK}, nil
}

// Retrieve runs a similarity search against the collection.
func (r *QdrantRetriever) Retrieve(ctx context.Context, question string) ([]Document, error) {
	results, err := r.store.SimilaritySearch(ctx, question, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, Document{
			Content:  res.PageContent,
			Metadata: res.Metadata,
		})
	}
	return docs, nil
}
