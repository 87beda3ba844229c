// Package server exposes the crawl, vectorization and chat operations over
// a JSON REST API. Heavy components (database pool, embedder, generator)
// are built lazily on first use so the process starts instantly and /health
// works before any backing service is reachable.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"

	"sitechat/internal/types"
	"sitechat/pkg/config"
	"sitechat/pkg/engine"
	"sitechat/pkg/pipeline"
	"sitechat/pkg/processor"
)

// Components are the external-service clients the server needs once a
// request actually touches the vector database or the model.
type Components struct {
	Crawler   types.Crawler
	Embedder  types.Embedder
	Store     types.VectorStore
	Generator types.Generator
}

// BuildFunc constructs the components. It runs at most once concurrently;
// the state passed in carries request-supplied overrides such as a crawl
// API key pushed through /api/store-config.
type BuildFunc func(ctx context.Context, st *State) (*Components, error)

type initState int

const (
	stateUninitialized initState = iota
	stateInitializing
	stateReady
	stateFailed
)

type Server struct {
	cfg    *config.Config
	state  *State
	status *pipeline.Status
	build  BuildFunc
	logger *slog.Logger
	app    *fiber.App

	mu     sync.Mutex
	init   initState
	engine *engine.Engine
	runner *pipeline.Runner
}

func New(cfg *config.Config, build BuildFunc) *Server {
	s := &Server{
		cfg:    cfg,
		state:  NewState(),
		status: pipeline.NewStatus(),
		build:  build,
		logger: slog.Default(),
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/store-config", s.handleStoreConfig)
	api.Post("/demo-mode", s.handleDemoMode)
	api.Post("/crawl-and-vectorize", s.handleIngest)
	api.Get("/vectorization-status", s.handleVectorizationStatus)
	api.Post("/chat", s.handleChat)
	api.Get("/status", s.handleAppStatus)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// ensureReady builds the components on first use. A failed build does not
// poison the server: the next request retries, so a database that was down
// at first only costs the requests made while it was down.
func (s *Server) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.init == stateReady {
		return nil
	}

	s.init = stateInitializing
	comps, err := s.build(ctx, s.state)
	if err != nil {
		s.init = stateFailed
		return fmt.Errorf("component initialization failed: %w", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		MinContentLength: s.cfg.Crawler.MinContentLength,
	})
	p := pipeline.New(comps.Crawler, comps.Embedder, comps.Store, s.status, proc)

	s.engine = engine.New(comps.Embedder, comps.Store, comps.Generator, types.EngineConfig{
		TopK:            s.cfg.Engine.TopK,
		MinScore:        s.cfg.Engine.MinScore,
		MinContentChars: s.cfg.Crawler.MinContentLength,
		MaxContextChars: s.cfg.Engine.MaxContextChars,
		MaxContextDocs:  s.cfg.Engine.MaxContextDocs,
		MaxTokens:       s.cfg.LLM.MaxTokens,
		Temperature:     &s.cfg.LLM.Temperature,
	})
	s.runner = pipeline.NewRunner(p)
	s.init = stateReady

	s.logger.Info("components initialized")
	return nil
}

func (s *Server) componentsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init == stateReady
}
