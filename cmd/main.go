package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"sitechat/internal/types"
	"sitechat/pkg/config"
	"sitechat/pkg/crawler"
	"sitechat/pkg/embed"
	"sitechat/pkg/engine"
	"sitechat/pkg/llm"
	"sitechat/pkg/pipeline"
	"sitechat/pkg/processor"
	"sitechat/pkg/scraper"
	"sitechat/pkg/store"
	"sitechat/server"
)

type cliFlags struct {
	configPath string
	ingest     string
	ask        string
	addr       string
	dbURL      string
	provider   string
	model      string
}

func main() {
	// Missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	flags := parseFlags()

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		log.Fatal(err)
	}
	applyFlagOverrides(cfg, flags)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("invalid config: %v", e)
		}
		os.Exit(1)
	}

	switch {
	case flags.ingest != "":
		err = runIngest(cfg, splitURLs(flags.ingest))
	case flags.ask != "":
		err = runAsk(cfg, flags.ask)
	default:
		err = runServe(cfg)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func parseFlags() cliFlags {
	var flags cliFlags

	flag.StringVar(&flags.configPath, "config", "", "Path to config file")
	flag.StringVar(&flags.ingest, "ingest", "", "Comma-separated URLs to crawl and vectorize, then exit")
	flag.StringVar(&flags.ask, "ask", "", "Ask a single question against the vector database, then exit")
	flag.StringVar(&flags.addr, "addr", "", "Server listen address")
	flag.StringVar(&flags.dbURL, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&flags.provider, "provider", "", "LLM provider: openai, gemini or ollama")
	flag.StringVar(&flags.model, "model", "", "LLM model to use")
	flag.Parse()

	return flags
}

func applyFlagOverrides(cfg *config.Config, flags cliFlags) {
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.dbURL != "" {
		cfg.Database.URL = flags.dbURL
	}
	if flags.provider != "" {
		cfg.LLM.Provider = flags.provider
	}
	if flags.model != "" {
		cfg.LLM.Model = flags.model
	}
}

func splitURLs(s string) []string {
	var urls []string
	for _, u := range strings.Split(s, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// buildComponents wires the real clients. The server passes its State so a
// crawl API key pushed over the API wins over the environment one.
func buildComponents(ctx context.Context, cfg *config.Config, st *server.State) (*server.Components, error) {
	var crawl types.Crawler
	if cfg.Crawler.Mode == "local" {
		crawl = scraper.NewWithConfig(scraper.ScraperConfig{
			MaxPages:  cfg.Crawler.MaxPages,
			MaxDepth:  cfg.Crawler.MaxDepth,
			RateLimit: cfg.Crawler.RateLimit,
		})
	} else {
		apiKey := cfg.Crawler.APIKey
		if st != nil && st.FirecrawlKey() != "" {
			apiKey = st.FirecrawlKey()
		}
		crawl = crawler.New(types.CrawlerConfig{
			APIURL:             cfg.Crawler.APIURL,
			APIKey:             apiKey,
			MaxPages:           cfg.Crawler.MaxPages,
			MaxDepth:           cfg.Crawler.MaxDepth,
			AllowBackwardLinks: cfg.Crawler.AllowBackwardLinks,
			CacheMaxAge:        time.Duration(cfg.Crawler.CacheMaxAgeMs) * time.Millisecond,
		})
	}

	embedder, err := embed.NewWithConfig(types.EmbedderConfig{
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %v", err)
	}

	generator, err := llm.New(ctx, types.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %v", err)
	}

	return &server.Components{
		Crawler:   crawl,
		Embedder:  embedder,
		Store:     vectorStore,
		Generator: generator,
	}, nil
}

func runServe(cfg *config.Config) error {
	srv := server.New(cfg, func(ctx context.Context, st *server.State) (*server.Components, error) {
		return buildComponents(ctx, cfg, st)
	})
	color.Cyan("sitechat listening on %s", cfg.Server.Addr)
	return srv.Listen()
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("urls"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func runIngest(cfg *config.Config, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("no URLs to ingest")
	}

	ctx := context.Background()
	comps, err := buildComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Store.Close()

	status := pipeline.NewStatus()
	proc := processor.NewWithConfig(processor.ProcessorConfig{
		MinContentLength: cfg.Crawler.MinContentLength,
	})
	p := pipeline.New(comps.Crawler, comps.Embedder, comps.Store, status, proc)

	color.Blue("\nCrawling and vectorizing %d URL(s)\n", len(urls))
	bar := getProgressBar(len(urls), "Ingesting...")

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				snap := status.Snapshot()
				bar.Set(snap.ProcessedURLs)
				bar.Describe(color.BlueString(
					"Ingesting... (%d docs indexed)", snap.SuccessfulDocs))
			}
		}
	}()

	indexed, err := p.Run(ctx, urls)
	close(done)
	bar.Finish()
	if err != nil {
		return err
	}

	color.Green("\n✓ Indexed %d documents\n", indexed)
	for _, msg := range status.Snapshot().Errors {
		color.Red("  %s", msg)
	}
	return nil
}

func runAsk(cfg *config.Config, question string) error {
	ctx := context.Background()
	comps, err := buildComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Store.Close()

	e := engine.New(comps.Embedder, comps.Store, comps.Generator, types.EngineConfig{
		TopK:            cfg.Engine.TopK,
		MinScore:        cfg.Engine.MinScore,
		MinContentChars: cfg.Crawler.MinContentLength,
		MaxContextChars: cfg.Engine.MaxContextChars,
		MaxContextDocs:  cfg.Engine.MaxContextDocs,
		MaxTokens:       cfg.LLM.MaxTokens,
		Temperature:     &cfg.LLM.Temperature,
	})

	spinner := getSpinner("Searching...")
	answer := e.Answer(ctx, question, 0)
	spinner.Finish()
	fmt.Print("\r")

	assistant := color.New(color.FgCyan).PrintfFunc()
	assistant("\n%s\n", answer.Text)

	if len(answer.Sources) > 0 {
		color.Blue("\nSources:")
		for _, src := range answer.Sources {
			fmt.Printf("  - %s\n", src)
		}
		fmt.Printf("Confidence: %.2f\n", answer.Confidence)
	}
	return nil
}
