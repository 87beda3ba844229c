// Package processor validates and shapes crawled content before it is
// embedded. A whole document is one chunk; anything shorter than the
// minimum length after trimming is discarded, not retried.
package processor

import (
	"strings"
)

type ProcessorConfig struct {
	MinContentLength int
	PreviewLength    int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MinContentLength == 0 {
		config.MinContentLength = 50
	}
	if config.PreviewLength == 0 {
		config.PreviewLength = 500
	}

	return Processor{
		config: config,
	}
}

// Clean trims surrounding whitespace. Markdown structure is preserved;
// the crawler already extracted main content.
func (p *Processor) Clean(content string) string {
	return strings.TrimSpace(content)
}

// Valid reports whether cleaned content is long enough to index.
func (p *Processor) Valid(content string) bool {
	return len(content) >= p.config.MinContentLength
}

// Preview returns the leading slice of content stored as metadata next to
// the full text, at most PreviewLength bytes.
func (p *Processor) Preview(content string) string {
	if len(content) <= p.config.PreviewLength {
		return content
	}
	return content[:p.config.PreviewLength]
}
