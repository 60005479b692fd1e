package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/findash/internal/common"
)

// Client answers a prompt with free-form text.
type Client interface {
	Analyze(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, mostly for proxies and tests.
	BaseURL     string
	Temperature float64
	MaxTokens   int
	// RateLimit is the number of requests allowed per minute. Zero disables it.
	RateLimit int
	Timeout   time.Duration
	Retry     common.RetryOptions
}

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderAnthropic:
		return "claude-3-5-sonnet-latest"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o-mini"
	}
}

// NewClient creates the client for cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is required", common.ErrMissingConfig, provider)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider)
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	var (
		client Client
		err    error
	)
	switch provider {
	case ProviderOpenAI:
		client = newOpenAIClient(cfg)
	case ProviderAnthropic:
		client = newAnthropicClient(cfg)
	case ProviderGemini:
		client, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		client = &limitedClient{client: client, limiter: newRateLimiter(cfg.RateLimit)}
	}
	return client, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// limitedClient waits for the rate limiter before every request.
type limitedClient struct {
	client  Client
	limiter *rateLimiter
}

func (c *limitedClient) Analyze(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}
	return c.client.Analyze(ctx, prompt, systemPrompt)
}
