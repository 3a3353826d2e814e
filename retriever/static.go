package retriever

import (
	"context"
	"sort"
	"strings"
)

// StaticRetriever serves a fixed corpus ranked by naive term overlap.
// Useful for tests and offline demos; production deployments use the
// Qdrant retriever.
type StaticRetriever struct {
	docs []Document
	topK int
}

// NewStaticRetriever creates a retriever over the given documents.
// topK bounds the number of results; zero means all.
func NewStaticRetriever(docs []Document, topK int) *StaticRetriever {
	return &StaticRetriever{docs: docs, topK: topK}
}

var _ Retriever = (*StaticRetriever)(nil)

// Retrieve returns the documents sharing the most terms with the question,
// best match first. Documents with no overlap are excluded.
func (r *StaticRetriever) Retrieve(_ context.Context, question string) ([]Document, error) {
	terms := strings.Fields(strings.ToLower(question))

	type scored struct {
		doc   Document
		score int
		order int
	}

	var matches []scored
	for i, doc := range r.docs {
		content := strings.ToLower(doc.Content)
		score := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{doc: doc, score: score, order: i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].order < matches[j].order
	})

	limit := len(matches)
	if r.topK > 0 && r.topK < limit {
		limit = r.topK
	}

	result := make([]Document, 0, limit)
	for _, m := range matches[:limit] {
		result = append(result, m.doc)
	}
	return result, nil
}
