// Package hyperliquid is a read-only HTTP client for the Hyperliquid info API.
// Every request is rate limited, retried with exponential backoff on 429/5xx
// and guarded by a circuit breaker.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zhangzhanqifred-ai/hyperliquid-smart-copytrading/internal/observability"
)

const (
	// MainnetURL is the production API root.
	MainnetURL = "https://api.hyperliquid.xyz"
	// TestnetURL is the testnet API root.
	TestnetURL = "https://api.hyperliquid-testnet.xyz"

	defaultRatePerSec = 5
	defaultTimeout    = 10 * time.Second

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// StatusError is a non-retryable HTTP error response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client error %d: %s", e.Code, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL    string        // default MainnetURL
	RatePerSec float64       // default 5
	Timeout    time.Duration // per-request, default 10s
	RetryWait  time.Duration // backoff base, default 500ms

	// BreakerFailures is the number of consecutive failed calls that opens the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Client talks to the /info endpoint.
type Client struct {
	http      *http.Client
	baseURL   string
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	retryWait time.Duration

	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = MainnetURL
	}
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryWait := opts.RetryWait
	if retryWait <= 0 {
		retryWait = baseRetryWait
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = breakerFailures
	}
	breakerWait := opts.BreakerTimeout
	if breakerWait <= 0 {
		breakerWait = breakerTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	st := gobreaker.Settings{Name: "hyperliquid-info"}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= failures }
	st.Timeout = breakerWait
	st.IsSuccessful = isSuccessful
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("circuit breaker state change",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	burst := int(math.Ceil(rps))
	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		breaker:   gobreaker.NewCircuitBreaker(st),
		retryWait: retryWait,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// isSuccessful keeps 4xx responses and caller cancellation from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// info posts body to /info and decodes the response into out.
func (c *Client) info(ctx context.Context, requestType string, body, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, c.baseURL+"/info", body, out)
	})
	c.metrics.RecordVenueRequest(requestType, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("hyperliquid %s: %w", requestType, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry runs fn with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			c.logger.Warn("rate limited by API", zap.Int("attempt", attempt+1))
			if attempt == maxRetries {
				return fmt.Errorf("rate limited after %d retries", maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &StatusError{Code: resp.StatusCode, Body: string(body)}
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, honoring the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
