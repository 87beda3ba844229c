package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldProcessURL(t *testing.T) {
	s := NewWithConfig(ScraperConfig{
		IgnorePatterns:    []string{"/ignore/", "private"},
		AllowedExtensions: []string{".html", "/"},
	})
	c := &crawl{s: s, baseHost: "example.com"}

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/docs/", true},
		{"https://example.com/page.html", true},
		{"https://example.com/ignore/page.html", false},
		{"https://other-domain.com/page.html", false},
		{"https://example.com/file.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.shouldProcessURL(tt.url))
		})
	}
}

func TestCrawlWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html>
				<head><title>Test Page</title></head>
				<body>
					<main>
						<h1>Test Content</h1>
						<p>This is a test paragraph.</p>
						<a href="/page2/">Link</a>
					</main>
				</body>
			</html>
		`))
	}))
	defer server.Close()

	var seen []string
	s := NewWithConfig(ScraperConfig{
		MaxDepth:  1,
		RateLimit: 100,
		OnProgress: func(url string) {
			seen = append(seen, url)
		},
	})

	docs, err := s.Crawl(context.Background(), server.URL)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	doc := docs[0]
	assert.Equal(t, server.URL, doc.SourceURL)
	assert.Contains(t, doc.Content, "Test Content")
	assert.Contains(t, doc.Content, "This is a test paragraph")
	assert.NotEmpty(t, seen)
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Every page links to two more, a crawl with no page bound would
		// keep going until MaxDepth
		fmt.Fprintf(w, `<html><body><main>
			<p>content for %s</p>
			<a href="%sa/">A</a>
			<a href="%sb/">B</a>
		</main></body></html>`, r.URL.Path, r.URL.Path, r.URL.Path)
	}))
	defer server.Close()

	s := NewWithConfig(ScraperConfig{
		MaxPages:  3,
		MaxDepth:  10,
		RateLimit: 100,
	})

	docs, err := s.Crawl(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestCrawlInvalidSeed(t *testing.T) {
	s := NewWithConfig(ScraperConfig{})

	_, err := s.Crawl(context.Background(), "://not-a-url")
	assert.Error(t, err)
}
