package search

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
	"github.com/JoseCortezz25/fact-checking-app/internal/util"
	"github.com/JoseCortezz25/fact-checking-app/internal/worker"
	"go.uber.org/zap"
)

// Config configures an evidence source
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	NumResults int
	LiveCrawl  bool
	Timeout    time.Duration
	Proxy      util.ProxySettings

	Limiter *worker.Limiter
	Fetcher PageFetcher
	Logger  *zap.Logger
	Client  *http.Client
}

// ConfigFromModel converts model configuration to search.Config
func ConfigFromModel(s model.SearchConfig, h model.HTTPConfig) Config {
	return Config{
		Provider:   s.Provider,
		APIKey:     s.APIKey,
		BaseURL:    s.BaseURL,
		NumResults: s.NumResults,
		LiveCrawl:  s.LiveCrawl,
		Timeout:    h.Timeout,
		Proxy:      util.ProxySettings{HTTPProxy: h.HTTPProxy, HTTPSProxy: h.HTTPSProxy, NoProxy: h.NoProxy},
	}
}

func (c Config) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return util.NewHTTPClient(timeout, c.Proxy)
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// NewSource creates the configured evidence source
func NewSource(cfg Config) (Source, error) {
	switch strings.ToLower(cfg.Provider) {
	case "exa", "":
		return NewExa(cfg)
	case "tavily":
		return NewTavily(cfg)
	case "brave":
		return NewBrave(cfg)
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: exa, tavily, brave)", cfg.Provider)
	}
}

// APIKeyFromEnv returns the conventional environment key for a source
func APIKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "exa", "":
		return os.Getenv("EXA_API_KEY")
	case "tavily":
		return os.Getenv("TAVILY_API_KEY")
	case "brave":
		return os.Getenv("BRAVE_API_KEY")
	default:
		return ""
	}
}
