// Package crawler is a client for a Firecrawl-compatible crawl API. A crawl
// is submitted as an async job and polled until it settles.
package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sitechat/internal/models"
	"sitechat/internal/types"
)

type Client struct {
	config types.CrawlerConfig
	client *http.Client
}

func New(config types.CrawlerConfig) *Client {
	if config.MaxPages == 0 {
		config.MaxPages = 5
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 5
	}
	if config.CacheMaxAge == 0 {
		config.CacheMaxAge = 4 * time.Hour
	}
	if config.PollInterval == 0 {
		config.PollInterval = 2 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type scrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	ParsePDF        bool     `json:"parsePDF"`
	MaxAge          int64    `json:"maxAge"`
}

type crawlRequest struct {
	URL                string        `json:"url"`
	Limit              int           `json:"limit"`
	MaxDepth           int           `json:"maxDepth"`
	AllowBackwardLinks bool          `json:"allowBackwardLinks"`
	ScrapeOptions      scrapeOptions `json:"scrapeOptions"`
}

type crawlSubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type crawlDoc struct {
	Markdown string `json:"markdown"`
	Metadata struct {
		SourceURL string `json:"sourceURL"`
	} `json:"metadata"`
}

type crawlStatusResponse struct {
	Status string     `json:"status"`
	Error  string     `json:"error"`
	Data   []crawlDoc `json:"data"`
}

// Crawl submits a crawl job for url and polls until it completes, returning
// one document per scraped page. Page count and depth are bounded by the
// client configuration; extraction is markdown, main content only.
func (c *Client) Crawl(ctx context.Context, url string) ([]models.Document, error) {
	id, err := c.submit(ctx, url)
	if err != nil {
		return nil, err
	}

	for {
		status, err := c.status(ctx, id)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "completed":
			docs := make([]models.Document, 0, len(status.Data))
			for _, d := range status.Data {
				docs = append(docs, models.Document{
					SourceURL: d.Metadata.SourceURL,
					Content:   d.Markdown,
				})
			}
			return docs, nil
		case "failed", "cancelled":
			return nil, fmt.Errorf("crawl job %s %s: %s", id, status.Status, status.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.config.PollInterval):
		}
	}
}

func (c *Client) submit(ctx context.Context, url string) (string, error) {
	reqBody, err := json.Marshal(crawlRequest{
		URL:                url,
		Limit:              c.config.MaxPages,
		MaxDepth:           c.config.MaxDepth,
		AllowBackwardLinks: c.config.AllowBackwardLinks,
		ScrapeOptions: scrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
			ParsePDF:        true,
			MaxAge:          c.config.CacheMaxAge.Milliseconds(),
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.APIURL+"/v1/crawl", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit crawl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("crawl submit returned status %d: %s", resp.StatusCode, body)
	}

	var submit crawlSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submit); err != nil {
		return "", fmt.Errorf("failed to decode crawl response: %w", err)
	}
	if !submit.Success {
		return "", fmt.Errorf("crawl rejected: %s", submit.Error)
	}

	return submit.ID, nil
}

func (c *Client) status(ctx context.Context, id string) (*crawlStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.APIURL+"/v1/crawl/"+id, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll crawl %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("crawl poll returned status %d: %s", resp.StatusCode, body)
	}

	var status crawlStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode crawl status: %w", err)
	}

	return &status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}
