// Package retriever abstracts knowledge-base lookup behind a single
// Retrieve call.
//
// QdrantRetriever is the production implementation: it embeds the question
// through an OpenAI-compatible endpoint and runs a similarity search against
// a Qdrant collection using langchaingo. StaticRetriever ranks a fixed
// corpus by term overlap and exists for tests and offline demos.
package retriever
