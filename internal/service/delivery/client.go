package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/sos-tracker/internal/domain/telemetry"
	"github.com/oshokin/sos-tracker/internal/logger"
)

const (
	// DefaultMaxAttempts is the total number of POSTs per report.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the pause between attempts.
	DefaultRetryDelay = 2 * time.Second
	// DefaultRequestTimeout bounds one POST.
	DefaultRequestTimeout = 10 * time.Second

	// maxDrainedBody limits how much of a response body is read before closing it.
	maxDrainedBody = 4 << 10
)

// Client POSTs reports to one endpoint with bounded retry.
type Client struct {
	// endpoint is the collection URL.
	endpoint string
	// httpClient performs the requests.
	httpClient *http.Client
	// maxAttempts is the total number of POSTs per report.
	maxAttempts int
	// retryDelay is the pause between two attempts.
	retryDelay time.Duration
	// requestTimeout bounds a single POST.
	requestTimeout time.Duration
	// userAgent is sent with every request when set.
	userAgent string
}

// Option configures the client.
type Option func(*Client)

// WithMaxAttempts sets the total number of attempts per report.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithRequestTimeout bounds each POST.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:       endpoint,
		httpClient:     http.DefaultClient,
		maxAttempts:    DefaultMaxAttempts,
		retryDelay:     DefaultRetryDelay,
		requestTimeout: DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Send delivers the report, retrying on transport failures and non-200 answers.
// It blocks for the whole retry sequence and never panics; a report that is
// still undelivered after the last attempt is reported as failed and dropped.
func (c *Client) Send(ctx context.Context, report telemetry.Report) Outcome {
	ctx = logger.WithName(ctx, "delivery")

	body, err := json.Marshal(report)
	if err != nil {
		return Outcome{Err: fmt.Errorf("encode report: %w", err)}
	}

	var (
		outcome Outcome
		lastErr error
	)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		outcome.Attempts = attempt

		outcome.StatusCode, lastErr = c.post(ctx, body)
		if lastErr == nil {
			logger.DebugKV(ctx, "Report delivered", "attempt", attempt, "sos", report.Alert())

			return outcome
		}

		logger.WarnKV(ctx, "Delivery attempt failed",
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", lastErr)

		if attempt == c.maxAttempts {
			break
		}

		if err = sleep(ctx, c.retryDelay); err != nil {
			outcome.Err = fmt.Errorf("retry canceled: %w: %w", err, lastErr)

			return outcome
		}
	}

	outcome.Err = fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, outcome.Attempts, lastErr)

	return outcome
}

// post performs one attempt and returns the response status.
func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainedBody))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp.StatusCode, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
