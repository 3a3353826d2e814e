// Package workflow implements an adaptive RAG pipeline as a state graph.
//
// A run routes the question to either the knowledge base or web search,
// grades the retrieved documents, generates an answer, then grades the
// answer for groundedness and usefulness. Failed answers loop back through
// regeneration or web search until the retry budget runs out.
//
// Engine is the high-level entry point; Build exposes the compiled graph
// for callers that want to drive it directly.
package workflow
