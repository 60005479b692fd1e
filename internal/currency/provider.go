package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/findash/internal/common"
)

// RateProvider fetches the live exchange rate from the account currency into
// the reporting currency.
type RateProvider interface {
	Rate(ctx context.Context) (float64, error)
}

// StaticProvider always returns the same rate.
type StaticProvider float64

// Rate implements RateProvider.
func (p StaticProvider) Rate(_ context.Context) (float64, error) {
	return float64(p), nil
}

// HTTPProvider reads the rate from a JSON endpoint. The body is either
// {"rate": 32.8} or {"rates": {"TWD": 32.8}}.
type HTTPProvider struct {
	client    *http.Client
	url       string
	reporting string
	retry     common.RetryOptions
}

// NewHTTPProvider creates a provider for url. reporting selects the entry of a
// "rates" map.
func NewHTTPProvider(url, reporting string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{
		client:    client,
		url:       url,
		reporting: reporting,
		retry:     common.DefaultRetryOptions(),
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
	Rate  float64            `json:"rate"`
}

// Rate implements RateProvider. Server errors and rate limiting are retried.
func (p *HTTPProvider) Rate(ctx context.Context) (float64, error) {
	var rate float64
	err := common.WithRetry(ctx, func() error {
		var fetchErr error
		rate, fetchErr = p.fetch(ctx)
		return fetchErr
	}, p.retry)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrRateUnavailable, err)
	}
	return rate, nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, &common.RetryableError{Err: err, Retryable: false}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, &common.RetryableError{Err: err, Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, common.ErrRateLimit
	case resp.StatusCode >= 500:
		return 0, &common.RetryableError{Err: fmt.Errorf("rate endpoint returned %s", resp.Status), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return 0, &common.RetryableError{Err: fmt.Errorf("rate endpoint returned %s", resp.Status), Retryable: false}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, &common.RetryableError{Err: err, Retryable: true}
	}

	var decoded rateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, &common.RetryableError{Err: fmt.Errorf("failed to decode rate: %w", err), Retryable: false}
	}

	rate := decoded.Rate
	if rate == 0 && decoded.Rates != nil {
		rate = decoded.Rates[p.reporting]
	}
	if err := ValidateRate(rate); err != nil {
		return 0, &common.RetryableError{Err: err, Retryable: false}
	}
	return rate, nil
}
