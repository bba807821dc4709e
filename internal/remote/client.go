// Package remote is the HTTP transport shared by the VizieR and SIMBAD
// clients. Every request waits on one token bucket and transient failures are
// retried with exponential backoff.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/logger"
)

// maxBodySize caps a single response. Cone searches over large radii return
// tens of megabytes at most.
const maxBodySize = 256 << 20

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns three retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Client performs rate-limited GET requests with retries.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	policy    RetryPolicy
	userAgent string
	log       *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the token bucket.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a Client with defaults, then applies opts.
func NewClient(log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Client{
		http:      &http.Client{Timeout: 60 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(5), 5),
		policy:    DefaultRetryPolicy(),
		userAgent: "starsift",
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a Client from the processing and services sections.
func NewClientFromConfig(cfg *config.Config, log *logger.Logger) *Client {
	p := cfg.Processing
	return NewClient(log,
		WithHTTPClient(&http.Client{Timeout: seconds(p.TimeoutSeconds)}),
		WithLimiter(rate.NewLimiter(rate.Limit(p.RequestsPerSecond), p.Burst)),
		WithRetryPolicy(RetryPolicy{
			MaxRetries:     p.MaxRetries,
			InitialBackoff: seconds(p.InitialBackoffSeconds),
			MaxBackoff:     30 * time.Second,
		}),
		WithUserAgent(cfg.Services.UserAgent),
	)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Get fetches url and returns the body. service and op label errors and logs.
func (c *Client) Get(ctx context.Context, service, op, url string) ([]byte, error) {
	var lastErr error
	backoff := c.policy.InitialBackoff

	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.do(ctx, service, op, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == c.policy.MaxRetries {
			break
		}

		wait := backoff
		if retryAfter > wait {
			wait = retryAfter
		}
		c.log.Warnw("Remote call failed, retrying",
			"service", service,
			"op", op,
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if c.policy.MaxBackoff > 0 && backoff > c.policy.MaxBackoff {
			backoff = c.policy.MaxBackoff
		}
	}

	return nil, lastErr
}

// do performs one attempt. The returned duration is the server's Retry-After
// hint on a 429, zero otherwise.
func (c *Client) do(ctx context.Context, service, op, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &CollaboratorError{Service: service, Op: op, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, &CollaboratorError{Service: service, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, 0, &CollaboratorError{Service: service, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &CollaboratorError{
			Service:    service,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, snippet(body)),
		}
	}
	if len(body) == 0 {
		return nil, 0, &CollaboratorError{Service: service, Op: op, Err: ErrEmptyResponse}
	}

	return body, 0, nil
}

// parseRetryAfter reads the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
