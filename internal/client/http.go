package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const userAgent = "prizepicks-data-mirror/1.0"

// HTTPOptions tunes the retrying getter shared by the feed and odds clients
type HTTPOptions struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // requests per second, <= 0 disables limiting
	Burst      int
}

// getter performs GET requests with rate limiting and exponential backoff
type getter struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// StatusError is returned for a non-200 response that was not retried to success
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

func newGetter(opts HTTPOptions) *getter {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &getter{
		limiter:    limiter,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get fetches url with params. endpoint labels the call in metrics and logs.
func (g *getter) get(ctx context.Context, endpoint, url string, params map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1x, 2x, 4x the base delay
			backoff := g.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, retry, err := g.do(ctx, endpoint, url, params, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	return nil, lastErr
}

func (g *getter) do(ctx context.Context, endpoint, url string, params map[string]string, attempt int) ([]byte, bool, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if len(params) > 0 {
		q := req.URL.Query()
		for key, value := range params {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}

	log.Debug().
		Str("endpoint", endpoint).
		Str("host", req.URL.Host).
		Int("attempt", attempt+1).
		Msg("Making request")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "error", time.Since(start).Seconds())
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("endpoint", endpoint).
			Int("size", len(body)).
			Msg("Request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		log.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Msg("Received retryable status")
		return nil, true, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body)}

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, fmt.Errorf("authentication failed: %w", &StatusError{StatusCode: resp.StatusCode, Body: truncate(body)})

	default:
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
