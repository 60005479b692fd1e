package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Veraticus/findash/internal/common"
)

// geminiClient implements Client with the Gemini API.
type geminiClient struct {
	client      *genai.Client
	model       string
	retry       common.RetryOptions
	temperature float32
	maxTokens   int32
}

func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiClient{
		client:      client,
		model:       cfg.Model,
		retry:       cfg.Retry,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

// Analyze generates content for the prompt with systemPrompt as the system
// instruction.
func (c *geminiClient) Analyze(ctx context.Context, prompt, systemPrompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
		if err != nil {
			if ctx.Err() != nil {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return fmt.Errorf("gemini request failed: %w", err)
		}
		text = resp.Text()
		return nil
	}, c.retry)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no content in response")
	}
	return strings.TrimSpace(text), nil
}
