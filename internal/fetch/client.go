package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default client settings. The defaults keep the crawler inside the SEC
// fair-access envelope even when no configuration is supplied.
const (
	// DefaultRequestsPerSecond keeps well under the published 10 req/s limit.
	DefaultRequestsPerSecond = 5

	// DefaultAttempts is the total number of tries per request.
	DefaultAttempts = 5

	// DefaultBackoff is the base backoff; attempt n sleeps backoff * 2^(n-1).
	DefaultBackoff = 500 * time.Millisecond

	// DefaultMaxBodySize bounds response bodies. Quarterly index archives
	// are the largest objects fetched.
	DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

	// DefaultTimeout is the per-request timeout used when no HTTP client
	// is supplied.
	DefaultTimeout = 30 * time.Second
)

// retryableStatuses are the HTTP status codes worth another attempt.
// EDGAR returns 403 and the 5xx family under load, and 400/401 transiently
// when its edge caches misbehave; 429 is the rate limiter itself asking for
// a pause. Anything else (notably 404) is a stable answer and retrying it
// only wastes the request budget.
var retryableStatuses = map[int]bool{
	http.StatusBadRequest:              true, // 400
	http.StatusUnauthorized:            true, // 401
	http.StatusForbidden:               true, // 403
	http.StatusTooManyRequests:         true, // 429
	http.StatusInternalServerError:     true, // 500
	http.StatusBadGateway:              true, // 502
	http.StatusServiceUnavailable:      true, // 503
	http.StatusGatewayTimeout:          true, // 504
	http.StatusHTTPVersionNotSupported: true, // 505
}

// Client fetches EDGAR URLs politely: one shared rate limiter gates every
// attempt, and transient failures are retried a bounded number of times with
// exponential backoff. When the attempt budget runs out the last error is
// returned as an ordinary value; callers own the decision to try again later.
//
// Design decision: The limiter lives on the Client, not per call, so that
// concurrent callers share one request budget. EDGAR rate-limits by client,
// not by URL.
type Client struct {
	// httpClient is the underlying HTTP client.
	httpClient *http.Client

	// limiter gates every attempt, shared across all calls.
	limiter *rate.Limiter

	// userAgent is sent with every request. The SEC requires operator
	// contact information in it.
	userAgent string

	// attempts is the total number of tries per request.
	attempts int

	// backoff is the base backoff between attempts.
	backoff time.Duration

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// logger records retry activity at debug level.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRate sets the shared request rate in requests per second.
func WithRate(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithAttempts sets the total number of tries per request.
func WithAttempts(n int) Option {
	return func(c *Client) {
		c.attempts = n
	}
}

// WithBackoff sets the base backoff between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithLogger sets the logger used for retry activity.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Client. A nil httpClient gets a default one with
// DefaultTimeout; tests pass their own to reach httptest servers.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	c := &Client{
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		userAgent:   "edgar-crawler/2.0 (admin@example.com)",
		attempts:    DefaultAttempts,
		backoff:     DefaultBackoff,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch retrieves the URL and returns the response body. Transient failures
// (transport errors and the retryable status set) are retried up to the
// attempt budget with exponential backoff; the rate limiter is consulted
// before every attempt, retries included.
//
// The returned error wraps the last failure. Callers that must eventually
// succeed (index acquisition, exhibit download) layer their own retry passes
// on top; Fetch itself always terminates.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		if attempt == c.attempts {
			break
		}

		delay := c.backoff * (1 << (attempt - 1))
		c.logger.Debug("retrying request",
			"url", rawURL,
			"attempt", attempt,
			"delay", delay,
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("fetch %s: %d attempts exhausted: %w", rawURL, c.attempts, lastErr)
}

// fetchOnce performs a single attempt.
func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	// Read one byte past the cap to distinguish "exactly at the limit"
	// from "truncated"
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrBodyTooLarge, c.maxBodySize)
	}

	return body, nil
}

// isRetryable reports whether another attempt could help.
// Status errors consult the retryable set; transport errors are retried
// unless the context itself is done.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatuses[statusErr.StatusCode]
	}

	// Transport-level failure (connection reset, DNS, timeout)
	return true
}
