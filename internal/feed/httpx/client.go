// Package httpx provides the HTTP client shared by the feed providers. It
// wraps the standard client with a token-bucket rate limiter and exponential
// backoff so free-tier provider quotas are respected.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// StatusError is returned when a provider responds with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a rate-limited, retrying HTTP client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
}

// Config controls the client's rate limit and retry budget.
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        uint64
}

// NewClient creates a client with sane defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries: cfg.MaxRetries,
	}
}

// Do executes the request, waiting for the rate limiter and retrying
// transient failures. 4xx responses other than 429 are not retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var resp *http.Response
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		if r.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 512))
			r.Body.Close()
			statusErr := &StatusError{Code: r.StatusCode, Body: string(body)}
			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		resp = r
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// Get issues a GET with the given headers; callers own the response body.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(req)
}
