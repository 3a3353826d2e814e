// Package llm wraps chat language models behind a two-method interface.
//
// The workflow only ever needs two calls: a free-text completion for answer
// generation and a JSON-mode completion for graders and routing. OpenAIModel
// implements both over github.com/sashabaranov/go-openai and works with any
// OpenAI-compatible endpoint via WithBaseURL.
//
//	model, err := llm.NewOpenAIModel(
//		llm.WithBaseURL(cfg.OpenAIBaseURL),
//		llm.WithModel(cfg.Model),
//	)
package llm
