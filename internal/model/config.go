package model

import "time"

// Config is the complete factly configuration tree.
// Precedence: CLI flags > FACTLY_* env vars > config file > DefaultConfig.
type Config struct {
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Search       SearchConfig      `yaml:"search" mapstructure:"search"`
	Research     ResearchConfig    `yaml:"research" mapstructure:"research"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Store        StoreConfig       `yaml:"store" mapstructure:"store"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
	Metrics      MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
}

// LLMConfig selects and configures the language-model provider
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, gemini, anthropic, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds per call
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig selects and configures the web evidence source
type SearchConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // exa, tavily, brave
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
	LiveCrawl  bool   `yaml:"live_crawl" mapstructure:"live_crawl"`
}

// ResearchConfig bounds the recursive research loop
type ResearchConfig struct {
	Depth            int           `yaml:"depth" mapstructure:"depth"`
	Breadth          int           `yaml:"breadth" mapstructure:"breadth"`
	MaxSteps         int           `yaml:"max_steps" mapstructure:"max_steps"`
	Parallelism      int           `yaml:"parallelism" mapstructure:"parallelism"`
	MaxNodes         int           `yaml:"max_nodes" mapstructure:"max_nodes"`
	MaxLLMCalls      int           `yaml:"max_llm_calls" mapstructure:"max_llm_calls"`
	MaxSearchCalls   int           `yaml:"max_search_calls" mapstructure:"max_search_calls"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout" mapstructure:"synthesis_timeout"`
	MaxDocumentChars int           `yaml:"max_document_chars" mapstructure:"max_document_chars"`
	Language         string        `yaml:"language" mapstructure:"language"`
}

// HTTPConfig configures page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the memory+disk cache used for pages and model calls
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig configures per-host request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// AuthorityConfig drives source reliability classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// PathPattern maps a URL path regex onto a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// StoreConfig configures the fact-check history database
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// MetricsConfig configures metric export
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" mapstructure:"textfile"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-2024-08-06",
			Timeout:     60,
			MaxTokens:   2048,
			Temperature: 0.2,
			MaxRetries:  2,
		},
		Search: SearchConfig{
			Provider:   "exa",
			NumResults: 1,
			LiveCrawl:  true,
		},
		Research: ResearchConfig{
			Depth:            2,
			Breadth:          2,
			MaxSteps:         5,
			Parallelism:      1,
			MaxNodes:         32,
			MaxLLMCalls:      200,
			MaxSearchCalls:   60,
			Timeout:          5 * time.Minute,
			SynthesisTimeout: 2 * time.Minute,
			MaxDocumentChars: 12000,
			Language:         "English",
		},
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "Factly/0.1 (+https://github.com/JoseCortezz25/fact-checking-app)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskDir:   ".factly-cache",
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"doi.org",
				"nih.gov",
				"nasa.gov",
				"who.int",
				"un.org",
				"europa.eu",
				"nature.com",
				"science.org",
				"scholar.google.com",
				"arxiv.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org",
				"britannica.com",
				"reuters.com",
				"apnews.com",
				"bbc.co.uk",
				"bbc.com",
				"factcheck.org",
				"snopes.com",
				"politifact.com",
			},
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "factly.db",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}
