package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/config"
)

// NewClient creates an LLMClient for the configured provider.
// Returns nil (and no error) when no reasoning service is configured;
// callers fall back to rule-based selection.
func NewClient(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	if !cfg.IsAvailable() {
		return nil, nil
	}

	switch cfg.Provider {
	case config.AIProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.AIProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}
