package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/nmcp/codec"
)

const (
	// DefaultRetries is the number of retries after a failed request.
	DefaultRetries = 3
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 60 * time.Second
	// DefaultBackoff is the delay before the first retry. It grows linearly.
	DefaultBackoff = 500 * time.Millisecond

	maxErrorBody = 4 << 10
)

// Options configures a Client.
type Options struct {
	// AuthKey is sent verbatim as the Authorization header.
	AuthKey string
	// HTTPClient defaults to a client with Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration
	// Retries is the number of retries after a transport error or a
	// temporary HTTP status. Negative disables retries.
	Retries int
	Backoff time.Duration
	// RequestsPerSecond limits outgoing requests. 0 means unlimited.
	RequestsPerSecond float64
	// Now returns the time reported as generatedAt.
	Now    func() time.Time
	Logger *slog.Logger
}

// Client is a GraphQL client for the NMCP service.
type Client struct {
	url        string
	authKey    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	now        func() time.Time
	logger     *slog.Logger
	codec      codec.Codec
}

// New creates a client for the GraphQL endpoint url.
func New(url string, optFns ...func(o *Options)) (*Client, error) {
	if url == "" {
		return nil, errors.New("remote: url is required")
	}

	opts := Options{
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Backoff: DefaultBackoff,
		Now:     time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		url:        url,
		authKey:    opts.AuthKey,
		httpClient: httpClient,
		limiter:    limiter,
		retries:    max(0, opts.Retries),
		backoff:    opts.Backoff,
		now:        now,
		logger:     logger,
		codec:      codec.Default,
	}, nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response[T any] struct {
	Data   *T            `json:"data"`
	Errors GraphQLErrors `json:"errors"`
}

// execute runs one GraphQL operation and decodes its data into a T.
func execute[T any](ctx context.Context, c *Client, query string, vars map[string]any) (*T, error) {
	body, err := c.codec.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("remote: encode request: %w", err)
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp response[T]
	if err := c.codec.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors
	}
	if resp.Data == nil {
		return nil, errors.New("remote: response without data")
	}
	return resp.Data, nil
}

// post sends body, retrying transport errors and temporary statuses.
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.backoff
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "error", lastErr)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		data, err := c.do(ctx, body)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("remote: giving up after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authKey != "" {
		req.Header.Set("Authorization", c.authKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: POST %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read response: %w", err)
	}
	return data, nil
}
