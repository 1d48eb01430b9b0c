// Package llm provides clients for the semantic reasoning service.
package llm

import "context"

// LLMClient is the interface the dimension selector depends on.
// Use it for dependency injection to enable mocking in tests; the engine
// works entirely without a real client (rule-based selection).
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure implementations satisfy LLMClient at compile time.
var (
	_ LLMClient = (*OpenAIClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
	_ LLMClient = (*MockLLMClient)(nil)
)
