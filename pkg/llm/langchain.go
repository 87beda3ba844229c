package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"sitechat/internal/types"
)

// langchainGenerator adapts any langchaingo chat model to types.Generator.
type langchainGenerator struct {
	llm llms.Model
}

// NewOpenAI builds an OpenAI-backed Generator.
func NewOpenAI(config types.GeneratorConfig) (types.Generator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return &langchainGenerator{llm: model}, nil
}

// NewOllama builds an Ollama-backed Generator for local models.
func NewOllama(config types.GeneratorConfig) (types.Generator, error) {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
	}

	return &langchainGenerator{llm: model}, nil
}

func (g *langchainGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := g.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return response.Choices[0].Content, nil
}
