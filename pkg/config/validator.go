package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	switch c.LLM.Provider {
	case "openai", "gemini", "ollama":
	default:
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q, must be openai, gemini or ollama", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Embedding.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedding.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim != c.Embedding.Dimension {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must match embedding.dimension",
		})
	}

	switch c.Crawler.Mode {
	case "remote", "local":
	default:
		errors = append(errors, ValidationError{
			Field:   "crawler.mode",
			Message: fmt.Sprintf("unknown mode %q, must be remote or local", c.Crawler.Mode),
		})
	}

	if c.Crawler.MaxPages < 1 {
		errors = append(errors, ValidationError{
			Field:   "crawler.max_pages",
			Message: "max_pages must be positive",
		})
	}

	if c.Crawler.MaxDepth < 1 {
		errors = append(errors, ValidationError{
			Field:   "crawler.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if c.Crawler.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "crawler.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Crawler.MinContentLength < 0 {
		errors = append(errors, ValidationError{
			Field:   "crawler.min_content_length",
			Message: "min_content_length cannot be negative",
		})
	}

	if c.Engine.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Engine.MinScore < 0 || c.Engine.MinScore > 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.min_score",
			Message: "min_score must be between 0 and 1",
		})
	}

	if c.Engine.MaxContextChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_context_chars",
			Message: "max_context_chars must be positive",
		})
	}

	if c.Engine.MaxContextDocs < 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_context_docs",
			Message: "max_context_docs must be positive",
		})
	}

	return errors
}
