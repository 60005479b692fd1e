package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Veraticus/findash/internal/common"
)

// APIError is a non-2xx answer from a provider.
type APIError struct {
	Provider string
	Body     string
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// postJSON sends body to url and decodes the answer into out. Rate limiting
// and server errors are retried; other failures are returned at once.
func postJSON(ctx context.Context, client *http.Client, retry common.RetryOptions, provider, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	return common.WithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err), Retryable: false}
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{Provider: provider, Status: resp.StatusCode, Body: string(data)}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("%w: %w", common.ErrRateLimit, apiErr)
			case resp.StatusCode >= 500:
				return apiErr
			default:
				return &common.RetryableError{Err: apiErr, Retryable: false}
			}
		}

		if err := json.Unmarshal(data, out); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to parse response: %w", err), Retryable: false}
		}
		return nil
	}, retry)
}
