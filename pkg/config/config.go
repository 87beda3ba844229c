package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string  `yaml:"provider"` // openai, gemini or ollama
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"-"` // env only, never from file
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embedding struct {
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"base_url"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"embedding"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Crawler struct {
		Mode               string  `yaml:"mode"` // remote or local
		APIURL             string  `yaml:"api_url"`
		APIKey             string  `yaml:"-"`
		MaxPages           int     `yaml:"max_pages"`
		MaxDepth           int     `yaml:"max_depth"`
		AllowBackwardLinks bool    `yaml:"allow_backward_links"`
		CacheMaxAgeMs      int     `yaml:"cache_max_age_ms"`
		RateLimit          float64 `yaml:"rate_limit"`
		MinContentLength   int     `yaml:"min_content_length"`
	} `yaml:"crawler"`

	Engine struct {
		TopK            int     `yaml:"top_k"`
		MinScore        float64 `yaml:"min_score"`
		MaxContextChars int     `yaml:"max_context_chars"`
		MaxContextDocs  int     `yaml:"max_context_docs"`
	} `yaml:"engine"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/sitechat/config.yaml"),
			"/etc/sitechat/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	config := newConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(config)

	// Apply defaults for unset values
	applyDefaults(config)

	return config, nil
}

// newConfig seeds defaults whose zero value is also a legal explicit
// setting. They must exist before yaml.Unmarshal so that a file saying
// allow_backward_links: false or temperature: 0 keeps its value.
func newConfig() *Config {
	config := &Config{}
	config.LLM.Temperature = 0.3
	config.Crawler.AllowBackwardLinks = true
	return config
}

func getDefaultConfig() (*Config, error) {
	config := newConfig()
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "gemini":
			config.LLM.Model = "gemini-2.0-flash"
		case "ollama":
			config.LLM.Model = "mistral"
		default:
			config.LLM.Model = "gpt-4o-mini"
		}
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 500
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedding.Model == "" {
		config.Embedding.Model = "all-minilm"
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "http://localhost:11434"
	}
	if config.Embedding.Dimension == 0 {
		config.Embedding.Dimension = 384
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "site_documents"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = config.Embedding.Dimension
	}

	if config.Crawler.Mode == "" {
		config.Crawler.Mode = "remote"
	}
	if config.Crawler.APIURL == "" {
		config.Crawler.APIURL = "https://api.firecrawl.dev"
	}
	if config.Crawler.MaxPages == 0 {
		config.Crawler.MaxPages = 5
	}
	if config.Crawler.MaxDepth == 0 {
		config.Crawler.MaxDepth = 5
	}
	if config.Crawler.CacheMaxAgeMs == 0 {
		config.Crawler.CacheMaxAgeMs = 14400000
	}
	if config.Crawler.RateLimit == 0 {
		config.Crawler.RateLimit = 2.0
	}
	if config.Crawler.MinContentLength == 0 {
		config.Crawler.MinContentLength = 50
	}

	if config.Engine.TopK == 0 {
		config.Engine.TopK = 5
	}
	if config.Engine.MinScore == 0 {
		config.Engine.MinScore = 0.5
	}
	if config.Engine.MaxContextChars == 0 {
		config.Engine.MaxContextChars = 4000
	}
	if config.Engine.MaxContextDocs == 0 {
		config.Engine.MaxContextDocs = 3
	}

	if config.Server.Addr == "" {
		port := os.Getenv("PORT")
		if port == "" {
			port = "5000"
		}
		config.Server.Addr = ":" + port
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && config.LLM.Provider != "gemini" {
		config.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.LLM.Provider == "gemini" {
		config.LLM.APIKey = key
	}
	if key := os.Getenv("FIRECRAWL_API_KEY"); key != "" {
		config.Crawler.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
		if config.LLM.Provider == "ollama" {
			config.LLM.BaseURL = baseURL
		}
	}
}
