package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"sitechat/internal/types"
)

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini-backed Generator.
func NewGemini(ctx context.Context, config types.GeneratorConfig) (types.Generator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	return &geminiGenerator{
		client: client,
		model:  config.Model,
	}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	temp := float32(temperature)
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature:     &temp,
		MaxOutputTokens: int32(maxTokens),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if result == nil {
		return "", fmt.Errorf("gemini returned nil result")
	}

	return result.Text(), nil
}
