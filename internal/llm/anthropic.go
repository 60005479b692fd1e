package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/findash/internal/common"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// anthropicClient implements Client for the Anthropic messages API.
type anthropicClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	retry       common.RetryOptions
	temperature float64
	maxTokens   int
}

func newAnthropicClient(cfg Config) *anthropicClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &anthropicClient{
		httpClient:  newHTTPClient(cfg.Timeout),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		retry:       cfg.Retry,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Analyze sends the prompt as a single user message.
func (c *anthropicClient) Analyze(ctx context.Context, prompt, systemPrompt string) (string, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if systemPrompt != "" {
		requestBody["system"] = systemPrompt
	}

	var response anthropicResponse
	err := postJSON(ctx, c.httpClient, c.retry, "anthropic", c.baseURL+"/messages",
		map[string]string{
			"x-api-key":         c.apiKey,
			"anthropic-version": anthropicVersion,
		}, requestBody, &response)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no content in response")
	}
	common.LogDebug("Anthropic answered", common.Fields{
		"model":         c.model,
		"input_tokens":  response.Usage.InputTokens,
		"output_tokens": response.Usage.OutputTokens,
	})
	return strings.TrimSpace(text.String()), nil
}
