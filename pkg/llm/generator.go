// Package llm provides interchangeable Generator implementations. The
// provider is a config choice; everything above this package talks to the
// types.Generator interface only.
package llm

import (
	"context"
	"fmt"

	"sitechat/internal/types"
)

// New selects a Generator implementation by config.Provider.
func New(ctx context.Context, config types.GeneratorConfig) (types.Generator, error) {
	applyDefaults(&config)

	switch config.Provider {
	case "openai":
		return NewOpenAI(config)
	case "ollama":
		return NewOllama(config)
	case "gemini":
		return NewGemini(ctx, config)
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", config.Provider)
	}
}

func applyDefaults(config *types.GeneratorConfig) {
	if config.Provider == "" {
		config.Provider = "openai"
	}
	if config.Model == "" {
		switch config.Provider {
		case "gemini":
			config.Model = "gemini-2.0-flash"
		case "ollama":
			config.Model = "mistral"
		default:
			config.Model = "gpt-4o-mini"
		}
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
}
