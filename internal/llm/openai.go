package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/findash/internal/common"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIClient implements Client for the OpenAI chat completions API.
type openAIClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	retry       common.RetryOptions
	temperature float64
	maxTokens   int
}

func newOpenAIClient(cfg Config) *openAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &openAIClient{
		httpClient:  newHTTPClient(cfg.Timeout),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		retry:       cfg.Retry,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Analyze sends the prompt as a chat completion and returns the first choice.
func (c *openAIClient) Analyze(ctx context.Context, prompt, systemPrompt string) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	var response openAIResponse
	err := postJSON(ctx, c.httpClient, c.retry, "OpenAI", c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, requestBody, &response)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	common.LogDebug("OpenAI answered", common.Fields{
		"model":             c.model,
		"prompt_tokens":     response.Usage.PromptTokens,
		"completion_tokens": response.Usage.CompletionTokens,
	})
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
