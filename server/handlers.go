package server

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"sitechat/pkg/pipeline"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":           "healthy",
		"service":          "sitechat",
		"components_ready": s.componentsReady(),
		"keys_loaded": fiber.Map{
			"llm":       s.cfg.LLM.APIKey != "",
			"firecrawl": s.cfg.Crawler.APIKey != "" || s.state.FirecrawlKey() != "",
			"database":  s.cfg.Database.URL != "",
		},
	})
}

// handleStoreConfig records the seed URLs and key overrides for the next
// ingestion. Pushing a fresh URL set discards the previous run's status and
// turns demo mode off.
func (s *Server) handleStoreConfig(c *fiber.Ctx) error {
	var req StoreConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if errs := req.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	s.state.SetURLs(req.URLs)
	if req.APIKeys.Firecrawl != "" {
		s.state.SetFirecrawlKey(req.APIKeys.Firecrawl)
	}
	if len(req.URLs) > 0 {
		s.status.Reset()
	}

	s.logger.Info("config stored", "urls", len(req.URLs))
	return c.JSON(fiber.Map{
		"success":     true,
		"urls_stored": len(req.URLs),
	})
}

// handleDemoMode initializes the components and marks the session as demo,
// which routes chat through vector search against whatever the database
// already holds.
func (s *Server) handleDemoMode(c *fiber.Ctx) error {
	if err := s.ensureReady(c.UserContext()); err != nil {
		return ErrServiceUnavailable(err.Error())
	}

	s.state.SetDemoMode(true)
	return c.JSON(fiber.Map{
		"success":   true,
		"demo_mode": true,
		"message":   "Demo mode enabled, using existing vector database content",
	})
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	urls := s.state.URLs()
	if len(urls) == 0 {
		return NewError(fiber.StatusBadRequest, "no URLs configured, store them via /api/store-config first")
	}

	if err := s.ensureReady(c.UserContext()); err != nil {
		return ErrServiceUnavailable(err.Error())
	}

	// The background run outlives this request, so it must not inherit the
	// request context
	if err := s.runner.Start(context.Background(), urls); err != nil {
		if err == pipeline.ErrIngestInProgress {
			return ErrConflict("vectorization already in progress")
		}
		return NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"message":    "Vectorization started",
		"total_urls": len(urls),
	})
}

func (s *Server) handleVectorizationStatus(c *fiber.Ctx) error {
	return c.JSON(s.status.Snapshot())
}

// handleChat answers with vector search once an ingestion has completed or
// demo mode is on, and falls back to plain model chat otherwise.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest()
	}
	if errs := req.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	if err := s.ensureReady(c.UserContext()); err != nil {
		return ErrServiceUnavailable(err.Error())
	}

	if s.state.DemoMode() || s.status.Completed() {
		answer := s.engine.Answer(c.UserContext(), req.Message, 0)
		return c.JSON(fiber.Map{
			"success":    true,
			"response":   answer.Text,
			"method":     answer.Method,
			"sources":    answer.Sources,
			"confidence": answer.Confidence,
		})
	}

	answer, err := s.engine.GeneralChat(c.UserContext(), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"response": answer.Text,
		"method":   answer.Method,
		"sources":  answer.Sources,
	})
}

func (s *Server) handleAppStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"urls":             s.state.URLs(),
		"demo_mode":        s.state.DemoMode(),
		"components_ready": s.componentsReady(),
		"vectorization":    s.status.Snapshot(),
	})
}
