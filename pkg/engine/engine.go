// Package engine answers questions over the vector index. Retrieval and
// generation failures degrade into an answer describing the problem; the
// caller never sees an error from the vector path.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"sitechat/internal/models"
	"sitechat/internal/types"
)

const (
	noResultsAnswer   = "I couldn't find any relevant information about that topic in the vector database."
	notRelevantAnswer = "I found some results but they don't seem directly relevant to your question."

	contextSeparator = "\n\n---\n\n"
	truncationMarker = "..."

	vectorSystemPrompt = `You are a helpful AI assistant with access to a vector database.
Use the provided context to answer questions accurately.

Guidelines:
- Be helpful, accurate, and concise
- Only use information from the provided context
- If the context doesn't contain enough information, say so
- Include specific details when available
- Be friendly and professional`

	generalSystemPrompt = "You are a helpful AI assistant. Answer questions to the best of your ability."

	generalChatTemperature = 0.7

	// gpt-3.5-turbo context window; the token budget the prompt and the
	// completion share
	generationTokenWindow = 4096
)

type Engine struct {
	embedder  types.Embedder
	store     types.VectorStore
	generator types.Generator
	config    types.EngineConfig
	encoder   *tiktoken.Tiktoken
	logger    *slog.Logger
}

func New(embedder types.Embedder, store types.VectorStore, generator types.Generator, config types.EngineConfig) *Engine {
	if config.TopK == 0 {
		config.TopK = 5
	}
	if config.MinScore == 0 {
		config.MinScore = 0.5
	}
	if config.MinContentChars == 0 {
		config.MinContentChars = 50
	}
	if config.MaxContextChars == 0 {
		config.MaxContextChars = 4000
	}
	if config.MaxContextDocs == 0 {
		config.MaxContextDocs = 3
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 500
	}
	if config.Temperature == nil {
		t := 0.3
		config.Temperature = &t
	}

	// A missing encoding disables token accounting and the window warning
	encoder, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		encoder = nil
	}

	return &Engine{
		embedder:  embedder,
		store:     store,
		generator: generator,
		config:    config,
		encoder:   encoder,
		logger:    slog.Default(),
	}
}

// Answer runs retrieval-augmented answering for question. topK <= 0 falls
// back to the configured default.
func (e *Engine) Answer(ctx context.Context, question string, topK int) models.Answer {
	if topK <= 0 {
		topK = e.config.TopK
	}

	e.logger.Info("searching vector index", "question", question, "top_k", topK)

	queryVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return e.degraded(err)
	}

	matches, err := e.store.Query(ctx, queryVec, topK)
	if err != nil {
		return e.degraded(err)
	}

	// No hits at all: answer without spending a generation call
	if len(matches) == 0 {
		return models.Answer{
			Text:    noResultsAnswer,
			Sources: []string{},
			Method:  models.MethodVectorSearch,
		}
	}

	var contents, sources []string
	for _, m := range matches {
		if m.Score > e.config.MinScore && len(m.Metadata.FullContent) > e.config.MinContentChars {
			contents = append(contents, m.Metadata.FullContent)
			sources = append(sources, m.Metadata.URL)
		}
	}

	// Hits exist but none clear the relevance bar: also no generation call
	if len(contents) == 0 {
		return models.Answer{
			Text:    notRelevantAnswer,
			Sources: []string{},
			Method:  models.MethodVectorSearch,
		}
	}

	combined := e.buildContext(contents)
	prompt := buildUserPrompt(question, combined)

	promptTokens := e.countTokens(prompt)
	if promptTokens+e.config.MaxTokens > generationTokenWindow {
		e.logger.Warn("prompt close to model window",
			"prompt_tokens", promptTokens,
			"max_tokens", e.config.MaxTokens,
			"window", generationTokenWindow)
	}

	text, err := e.generator.Generate(ctx, vectorSystemPrompt, prompt, e.config.MaxTokens, *e.config.Temperature)
	if err != nil {
		return e.degraded(err)
	}

	e.logger.Info("answer generated",
		"prompt_tokens", promptTokens,
		"sources", len(sources),
		"confidence", matches[0].Score)

	return models.Answer{
		Text:       text,
		Sources:    dedupe(sources),
		Confidence: matches[0].Score,
		Method:     models.MethodVectorSearch,
	}
}

// GeneralChat bypasses retrieval and asks the model directly. Used when no
// ingestion has completed and demo mode is off.
func (e *Engine) GeneralChat(ctx context.Context, question string) (models.Answer, error) {
	text, err := e.generator.Generate(ctx, generalSystemPrompt, question, e.config.MaxTokens, generalChatTemperature)
	if err != nil {
		return models.Answer{}, fmt.Errorf("chat generation failed: %w", err)
	}

	return models.Answer{
		Text:    text,
		Sources: []string{},
		Method:  models.MethodGeneralChat,
	}, nil
}

// buildContext joins the best contents and bounds the result so prompt
// size stays fixed no matter how large the stored documents are.
func (e *Engine) buildContext(contents []string) string {
	if len(contents) > e.config.MaxContextDocs {
		contents = contents[:e.config.MaxContextDocs]
	}

	combined := strings.Join(contents, contextSeparator)
	if len(combined) > e.config.MaxContextChars {
		cut := e.config.MaxContextChars
		// Back off to a rune boundary so the cut never emits invalid UTF-8
		for cut > 0 && !utf8.RuneStart(combined[cut]) {
			cut--
		}
		combined = combined[:cut] + truncationMarker
	}
	return combined
}

func buildUserPrompt(question, context string) string {
	return fmt.Sprintf(`Question: %s

Context from vector database:
%s

Please provide a helpful answer based on the context above.`, question, context)
}

// countTokens reports the token length of text under the gpt-3.5-turbo
// encoding, 0 when the encoding is unavailable.
func (e *Engine) countTokens(text string) int {
	if e.encoder == nil {
		return 0
	}
	return len(e.encoder.Encode(text, nil, nil))
}

func (e *Engine) degraded(err error) models.Answer {
	e.logger.Warn("vector search failed", "error", err)
	return models.Answer{
		Text:    fmt.Sprintf("Sorry, I encountered an error with the vector search: %v", err),
		Sources: []string{},
		Method:  models.MethodVectorSearch,
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
