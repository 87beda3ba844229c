package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitechat/internal/mock"
	"sitechat/internal/models"
	"sitechat/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func defaultMockComponents() *Components {
	return &Components{
		Crawler: &mock.Crawler{
			CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
				return []models.Document{
					{SourceURL: url + "/page", Content: strings.Repeat("content ", 20)},
				}, nil
			},
		},
		Embedder: &mock.Embedder{
			EmbedFn: func(ctx context.Context, text string) ([]float32, error) {
				vec := make([]float32, 384)
				vec[0] = 1
				return vec, nil
			},
		},
		Store: &mock.VectorStore{
			UpsertFn: func(ctx context.Context, rec models.Record) error { return nil },
			QueryFn: func(ctx context.Context, embedding []float32, topK int) ([]models.Match, error) {
				return []models.Match{{
					Score: 0.9,
					Metadata: models.RecordMetadata{
						URL:         "https://example.com/page",
						FullContent: strings.Repeat("indexed content ", 10),
					},
				}}, nil
			},
		},
		Generator: &mock.Generator{
			GenerateFn: func(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
				return "generated answer", nil
			},
		},
	}
}

func newTestServer(t *testing.T, comps *Components) *Server {
	t.Helper()
	if comps == nil {
		comps = defaultMockComponents()
	}
	return New(testConfig(t), func(ctx context.Context, st *State) (*Components, error) {
		return comps, nil
	})
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp, payload
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, false, payload["components_ready"])
}

func TestStoreConfig(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "POST", "/api/store-config",
		`{"urls":["https://example.com","https://example.org"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(2), payload["urls_stored"])
	assert.Equal(t, []string{"https://example.com", "https://example.org"}, s.state.URLs())
}

func TestStoreConfigRejectsInvalidURL(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "POST", "/api/store-config", `{"urls":["not a url"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, payload, "errors")
}

func TestStoreConfigRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, "POST", "/api/store-config", `{"urls":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIngestRequiresStoredURLs(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, payload["error"], "no URLs configured")
}

func TestIngestFlow(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.com"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload := doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(1), payload["total_urls"])

	require.Eventually(t, func() bool {
		return s.status.Completed()
	}, time.Second, time.Millisecond)

	resp, payload = doJSON(t, s, "GET", "/api/vectorization-status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["completed"])
	assert.Equal(t, false, payload["in_progress"])
	assert.Equal(t, float64(1), payload["successful_docs"])
}

func TestIngestConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	comps := defaultMockComponents()
	comps.Crawler = &mock.Crawler{
		CrawlFn: func(ctx context.Context, url string) ([]models.Document, error) {
			<-release
			return nil, nil
		},
	}
	s := newTestServer(t, comps)

	doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.com"]}`)

	resp, _ := doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return s.status.InProgress()
	}, time.Second, time.Millisecond)

	resp, payload := doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, payload["error"], "already in progress")

	close(release)
	require.Eventually(t, func() bool {
		return s.status.Completed()
	}, time.Second, time.Millisecond)
}

func TestChatGeneralBeforeIngestion(t *testing.T) {
	comps := defaultMockComponents()
	gen := comps.Generator.(*mock.Generator)
	gen.GenerateFn = func(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
		return "plain chat answer", nil
	}
	s := newTestServer(t, comps)

	resp, payload := doJSON(t, s, "POST", "/api/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "plain chat answer", payload["response"])
	assert.Equal(t, string(models.MethodGeneralChat), payload["method"])

	store := comps.Store.(*mock.VectorStore)
	assert.Zero(t, store.QueryCalls)
}

func TestChatVectorAfterIngestion(t *testing.T) {
	s := newTestServer(t, nil)

	doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.com"]}`)
	doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	require.Eventually(t, func() bool {
		return s.status.Completed()
	}, time.Second, time.Millisecond)

	resp, payload := doJSON(t, s, "POST", "/api/chat", `{"message":"what is indexed?"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "generated answer", payload["response"])
	assert.Equal(t, string(models.MethodVectorSearch), payload["method"])
	assert.Equal(t, []any{"https://example.com/page"}, payload["sources"])
	assert.Equal(t, 0.9, payload["confidence"])
}

func TestChatVectorInDemoMode(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "POST", "/api/demo-mode", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["demo_mode"])

	resp, payload = doJSON(t, s, "POST", "/api/chat", `{"message":"anything"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.MethodVectorSearch), payload["method"])
}

func TestChatRequiresMessage(t *testing.T) {
	s := newTestServer(t, nil)

	resp, payload := doJSON(t, s, "POST", "/api/chat", `{"message":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, payload, "errors")
}

func TestFailedBuildRetries(t *testing.T) {
	calls := 0
	s := New(testConfig(t), func(ctx context.Context, st *State) (*Components, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("database unreachable")
		}
		return defaultMockComponents(), nil
	})

	resp, payload := doJSON(t, s, "POST", "/api/demo-mode", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, payload["error"], "database unreachable")

	resp, _ = doJSON(t, s, "POST", "/api/demo-mode", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestStoreConfigResetsStatusAndDemoMode(t *testing.T) {
	s := newTestServer(t, nil)

	doJSON(t, s, "POST", "/api/demo-mode", "")
	require.True(t, s.state.DemoMode())

	doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.com"]}`)
	doJSON(t, s, "POST", "/api/crawl-and-vectorize", "")
	require.Eventually(t, func() bool {
		return s.status.Completed()
	}, time.Second, time.Millisecond)

	doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.org"]}`)
	assert.False(t, s.state.DemoMode())
	assert.False(t, s.status.Completed())
}

func TestAppStatus(t *testing.T) {
	s := newTestServer(t, nil)

	doJSON(t, s, "POST", "/api/store-config", `{"urls":["https://example.com"]}`)

	resp, payload := doJSON(t, s, "GET", "/api/status", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"https://example.com"}, payload["urls"])
	assert.Equal(t, false, payload["demo_mode"])
	assert.Contains(t, payload, "vectorization")
}
