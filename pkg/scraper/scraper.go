// Package scraper is a local, same-host crawler. It implements the same
// contract as the remote crawl client and exists so the pipeline can run
// without a crawl-service credential.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"sitechat/internal/models"
)

type ScraperConfig struct {
	MaxPages          int
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

type Scraper struct {
	config ScraperConfig
	client *http.Client
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxPages == 0 {
		config.MaxPages = 5
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 5
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// crawl holds the per-run state so one Scraper can serve many seed URLs.
type crawl struct {
	s        *Scraper
	baseHost string
	visited  map[string]bool
	limiter  *rate.Limiter
	docs     []models.Document
}

// Crawl walks pages reachable from seedURL on the same host, bounded by
// MaxPages and MaxDepth.
func (s *Scraper) Crawl(ctx context.Context, seedURL string) ([]models.Document, error) {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %s: %w", seedURL, err)
	}

	c := &crawl{
		s:        s,
		baseHost: parsed.Host,
		visited:  make(map[string]bool),
		limiter:  rate.NewLimiter(rate.Limit(s.config.RateLimit), 1),
	}

	if err := c.visit(ctx, seedURL, 0); err != nil {
		return nil, err
	}
	return c.docs, nil
}

func (c *crawl) visit(ctx context.Context, urlStr string, depth int) error {
	if depth > c.s.config.MaxDepth || len(c.docs) >= c.s.config.MaxPages {
		return nil
	}
	if c.visited[urlStr] || !c.shouldProcessURL(urlStr) {
		return nil
	}

	c.visited[urlStr] = true
	if c.s.config.OnProgress != nil {
		c.s.config.OnProgress(urlStr)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}

	resp, err := c.s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	c.docs = append(c.docs, models.Document{
		SourceURL: urlStr,
		Content:   extractMainContent(doc),
	})

	// Follow links; per-link failures are logged, not fatal
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, exists := selection.Attr("href")
		if !exists {
			return
		}

		absoluteURL, err := url.Parse(href)
		if err != nil {
			log.Printf("Error parsing URL: %v", err)
			return
		}

		if !absoluteURL.IsAbs() {
			base, err := url.Parse(urlStr)
			if err != nil {
				log.Printf("Error parsing base URL: %v", err)
				return
			}
			absoluteURL = base.ResolveReference(absoluteURL)
		}

		if err := c.visit(ctx, absoluteURL.String(), depth+1); err != nil {
			log.Printf("Error scraping URL: %v", err)
		}
	})

	return nil
}

func (c *crawl) shouldProcessURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Check if URL is from the same host
	if parsedURL.Host != c.baseHost {
		return false
	}

	// Check extensions
	path := strings.ToLower(parsedURL.Path)
	validExt := false
	for _, allowedExt := range c.s.config.AllowedExtensions {
		if strings.HasSuffix(path, allowedExt) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	// Check ignore patterns
	for _, pattern := range c.s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

func extractMainContent(doc *goquery.Document) string {
	// Try to find main content area
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	// Collapse whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common boilerplate
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}
